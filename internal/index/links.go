package index

import (
	"errors"

	"github.com/tliron/commonlog"

	"leaflet/internal/format"
	"leaflet/internal/sortkey"
	"leaflet/internal/store"
)

// linkResolver maintains the links table. Extraction happens inline
// with page parsing; resolution is deferred to its own work units so a
// page full of links still indexes in bounded time. Unresolvable
// references get a placeholder page, and whenever a real page appears
// whose name matches the anchor of floating links that settled on a
// placeholder, those links are re-queued, so resolution never depends
// on indexing order.
type linkResolver struct {
	mapper *mapper
	log    commonlog.Logger
}

func newLinkResolver(mapper *mapper) *linkResolver {
	r := &linkResolver{mapper: mapper, log: commonlog.GetLogger("index.links")}
	mapper.keepAlive = r.keepsPageAlive
	return r
}

// keepsPageAlive stops the mapper from dropping a page that links
// still point at; it lingers as a placeholder instead.
func (r *linkResolver) keepsPageAlive(tx *store.Tx, row *store.PageRow) (bool, error) {
	n, err := tx.CountLinksTo(row.ID)
	return n > 0, err
}

func (r *linkResolver) pageContentChanged(tx *store.Tx, row *store.PageRow, content *format.Page) error {
	if err := tx.DeleteLinksFrom(row.ID); err != nil {
		return err
	}
	for _, href := range content.Links {
		if err := tx.InsertLink(row.ID, href, sortkey.Key(href.Anchor())); err != nil {
			return err
		}
	}
	return nil
}

func (r *linkResolver) pageRowInserted(tx *store.Tx, row *store.PageRow) error {
	if row.Exists() {
		return tx.FlagFloatingLinks(row.SortKey)
	}
	return nil
}

func (r *linkResolver) pageRowChanged(tx *store.Tx, cur, prev *store.PageRow) error {
	if cur.Exists() && !prev.Exists() {
		return tx.FlagFloatingLinks(cur.SortKey)
	}
	return nil
}

func (r *linkResolver) pageRowToDelete(tx *store.Tx, row *store.PageRow) error {
	if err := tx.DeleteLinksFrom(row.ID); err != nil {
		return err
	}
	// Incoming edges survive the target: they fall back to the root
	// sentinel and re-resolve, typically onto a fresh placeholder.
	return tx.RetargetLinks(row.ID)
}

func (r *linkResolver) pageRowDeleted(tx *store.Tx, row *store.PageRow) error {
	return nil
}

// UpdateStep performs one unit of link maintenance: sweep one ghost
// source, else resolve one queued link, else collect one orphaned
// placeholder. Returns false when all three are exhausted.
func (r *linkResolver) UpdateStep(tx *store.Tx) (bool, error) {
	// Ghost sweep: a crash between content removal and link removal
	// can leave outgoing edges on a source-less page.
	ghost, err := tx.GhostLinkSource()
	if err == nil {
		r.log.Debugf("dropping stale links from %q", ghost.Name)
		return true, tx.DeleteLinksFrom(ghost.ID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	l, err := tx.NextLinkForCheck()
	if err == nil {
		return true, r.resolve(tx, l)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	orphan, err := tx.UnreferencedPlaceholder()
	if err == nil {
		return true, r.mapper.removePage(tx, orphan)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	return false, nil
}

func (r *linkResolver) resolve(tx *store.Tx, l *store.LinkRow) error {
	source, err := tx.PageByID(l.Source)
	if err != nil {
		return err
	}
	res, err := tx.ResolveLink(source.Name, source.ID, l.HRef())
	if err != nil {
		return err
	}

	target := res.ID
	if !res.Exists() {
		row, err := r.mapper.insertPlaceholder(tx, res.Name)
		if err != nil {
			return err
		}
		target = row.ID
	}
	return tx.SetLinkTarget(l, target)
}
