package index

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"leaflet/internal/format"
	"leaflet/internal/notefs"
	"leaflet/internal/pagename"
	"leaflet/internal/store"
)

// mapper projects file mutations onto the pages tree. It owns the two
// derived page columns: n_children always counts the live child rows,
// and is_placeholder is true exactly when a page has no source file and
// no child that is not itself a placeholder. Every mutation repairs
// those aggregates up the ancestor chain before its transaction
// commits.
type mapper struct {
	fs      notefs.FS
	adapter format.Adapter
	ev      *Events
	obs     []pageObserver
	log     commonlog.Logger

	// keepAlive reports whether an empty source-less page must be kept
	// even so, because something still references it. Set by the link
	// resolver; nil means nothing keeps pages alive.
	keepAlive func(tx *store.Tx, row *store.PageRow) (bool, error)
}

func newMapper(fs notefs.FS, adapter format.Adapter, ev *Events, obs ...pageObserver) *mapper {
	return &mapper{
		fs: fs, adapter: adapter, ev: ev, obs: obs,
		log: commonlog.GetLogger("index.pages"),
	}
}

func (m *mapper) fileInserted(tx *store.Tx, f *store.FileRow) error {
	name, ok := m.adapter.MapFilePath(f.Path)
	if !ok {
		return nil // attachment
	}

	row, err := tx.PageByName(name)
	if errors.Is(err, store.ErrNotFound) {
		_, err := m.insertPage(tx, name, f.ID)
		return err
	}
	if err != nil {
		return err
	}
	if row.HasContent() {
		// Two files mapping to one page, e.g. a case clash. First
		// source wins; the loser is indexed as an attachment.
		// TODO: surface conflicts through the doctor command.
		m.log.Warningf("page %q already backed by another file, ignoring %s", name, f.Path)
		return nil
	}

	prev := *row
	if err := tx.AdoptPageSource(name, f.ID); err != nil {
		return err
	}
	cur := *row
	cur.SourceFile = f.ID
	cur.Placeholder = false
	cur.Mtime = 0
	if err := m.notifyChanged(tx, &cur, &prev); err != nil {
		return err
	}
	return m.updateParent(tx, name.Parent())
}

func (m *mapper) fileChanged(tx *store.Tx, f *store.FileRow) error {
	name, ok := m.adapter.MapFilePath(f.Path)
	if !ok {
		return nil
	}
	row, err := tx.PageByName(name)
	if err != nil {
		return err
	}
	if row.SourceFile != f.ID {
		return nil // conflict loser, see fileInserted
	}

	content := m.parse(f.Path)
	if err := tx.SetPageMtime(name, f.Mtime); err != nil {
		return err
	}
	row.Mtime = f.Mtime

	for _, o := range m.obs {
		if err := o.pageContentChanged(tx, row, content); err != nil {
			return err
		}
	}
	m.ev.pageContentChanged(row, content)
	return nil
}

// parse reads and parses one page source. Content errors are isolated
// here: a page that fails to parse is indexed as empty rather than
// wedging the pass.
func (m *mapper) parse(relpath string) *format.Page {
	content, err := m.fs.Read(relpath)
	if err != nil {
		m.log.Warningf("failed to read %s: %s", relpath, err.Error())
		return &format.Page{}
	}
	page, err := m.adapter.Parse(content)
	if err != nil {
		m.log.Warningf("failed to parse %s: %s", relpath, err.Error())
		return &format.Page{}
	}
	return page
}

func (m *mapper) fileToDelete(tx *store.Tx, f *store.FileRow) error {
	name, ok := m.adapter.MapFilePath(f.Path)
	if !ok {
		return nil
	}
	row, err := tx.PageByName(name)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if row.SourceFile != f.ID {
		return nil
	}

	// Outgoing links and tags go regardless of whether the row stays.
	for _, o := range m.obs {
		if err := o.pageContentChanged(tx, row, &format.Page{}); err != nil {
			return err
		}
	}
	m.ev.pageContentChanged(row, &format.Page{})

	if row.NChildren == 0 {
		return m.removePage(tx, row)
	}

	// The page keeps existing as a namespace parent.
	prev := *row
	if err := tx.ClearPageSource(name); err != nil {
		return err
	}
	n, allPlaceholder, err := tx.ChildStats(row.ID)
	if err != nil {
		return err
	}
	cur := *row
	cur.SourceFile = 0
	cur.Mtime = 0
	cur.NChildren = n
	cur.Placeholder = allPlaceholder
	if err := tx.SetPageAggregates(cur.ID, n, allPlaceholder); err != nil {
		return err
	}
	if err := m.notifyChanged(tx, &cur, &prev); err != nil {
		return err
	}
	return m.updateParent(tx, name.Parent())
}

// insertPage creates the row for a content-backed page, grafting
// missing ancestors as source-less non-placeholder pages.
func (m *mapper) insertPage(tx *store.Tx, name pagename.Path, sourceFile int64) (*store.PageRow, error) {
	parent, err := m.ensurePage(tx, name.Parent(), false)
	if err != nil {
		return nil, err
	}
	row, err := tx.InsertPage(name, parent.ID, sourceFile, false)
	if err != nil {
		return nil, err
	}
	if err := m.notifyInserted(tx, row); err != nil {
		return nil, err
	}
	return row, m.updateParent(tx, name.Parent())
}

// insertPlaceholder creates the row for an unresolved link target,
// grafting missing ancestors as placeholders.
func (m *mapper) insertPlaceholder(tx *store.Tx, name pagename.Path) (*store.PageRow, error) {
	row, err := m.ensurePage(tx, name, true)
	if err != nil {
		return nil, err
	}
	return row, m.updateParent(tx, name.Parent())
}

// ensurePage returns the row for name, creating it and any missing
// ancestors with the given placeholder flag. Existing rows are returned
// as is; their flags are repaired by updateParent afterwards.
func (m *mapper) ensurePage(tx *store.Tx, name pagename.Path, placeholder bool) (*store.PageRow, error) {
	if name.IsRoot() {
		return tx.PageByID(store.RootPageID)
	}
	row, err := tx.PageByName(name)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	parent, err := m.ensurePage(tx, name.Parent(), placeholder)
	if err != nil {
		return nil, err
	}
	row, err = tx.InsertPage(name, parent.ID, 0, placeholder)
	if err != nil {
		return nil, err
	}
	return row, m.notifyInserted(tx, row)
}

// updateParent recomputes the derived columns of a page after its
// children changed, cascading upward while the placeholder flag keeps
// flipping. Pages that lost their last reason to exist are removed.
func (m *mapper) updateParent(tx *store.Tx, name pagename.Path) error {
	row, err := tx.PageByName(name)
	if err != nil {
		return err
	}

	n, allPlaceholder, err := tx.ChildStats(row.ID)
	if err != nil {
		return err
	}

	if n == 0 && !row.HasContent() && !name.IsRoot() {
		keep := false
		if m.keepAlive != nil {
			keep, err = m.keepAlive(tx, row)
			if err != nil {
				return err
			}
		}
		if !keep {
			return m.removePage(tx, row)
		}
	}

	placeholder := !name.IsRoot() && !row.HasContent() && allPlaceholder
	if n == row.NChildren && placeholder == row.Placeholder {
		return nil
	}

	prev := *row
	if err := tx.SetPageAggregates(row.ID, n, placeholder); err != nil {
		return err
	}
	cur := *row
	cur.NChildren = n
	cur.Placeholder = placeholder
	if err := m.notifyChanged(tx, &cur, &prev); err != nil {
		return err
	}
	if placeholder != prev.Placeholder && !name.IsRoot() {
		return m.updateParent(tx, name.Parent())
	}
	return nil
}

// removePage deletes one childless page row and repairs the ancestors,
// which may remove further emptied placeholders.
func (m *mapper) removePage(tx *store.Tx, row *store.PageRow) error {
	if row.ID == store.RootPageID {
		return fmt.Errorf("%w: attempt to remove the root page", store.ErrConsistency)
	}
	n, _, err := tx.ChildStats(row.ID)
	if err != nil {
		return err
	}
	if n != 0 {
		return fmt.Errorf("%w: attempt to remove page %q with children",
			store.ErrConsistency, row.Name)
	}

	for _, o := range m.obs {
		if err := o.pageRowToDelete(tx, row); err != nil {
			return err
		}
	}
	m.ev.pageToDelete(row)

	if err := tx.DeletePageRow(row.ID); err != nil {
		return err
	}
	// Keep the parent's count accurate before the deleted event fires.
	if err := tx.SetPageChildCount(row.Parent); err != nil {
		return err
	}

	for _, o := range m.obs {
		if err := o.pageRowDeleted(tx, row); err != nil {
			return err
		}
	}
	m.ev.pageDeleted(row)

	return m.updateParent(tx, row.Name.Parent())
}

func (m *mapper) notifyInserted(tx *store.Tx, row *store.PageRow) error {
	for _, o := range m.obs {
		if err := o.pageRowInserted(tx, row); err != nil {
			return err
		}
	}
	m.ev.pageInserted(row)
	return nil
}

func (m *mapper) notifyChanged(tx *store.Tx, cur, prev *store.PageRow) error {
	for _, o := range m.obs {
		if err := o.pageRowChanged(tx, cur, prev); err != nil {
			return err
		}
	}
	m.ev.pageChanged(cur, prev)
	return nil
}
