// Package views exposes read-only query surfaces over an index
// database: page tree navigation, link traversal, tag lookup and the
// position cache used by tree widgets. Views never mutate the index.
package views

import (
	"errors"
	"fmt"
	"strings"

	"leaflet/internal/pagename"
	"leaflet/internal/store"
)

// Pages navigates the page tree.
type Pages struct {
	tx *store.Tx
}

func NewPages(db *store.DB) *Pages {
	return &Pages{tx: db.Reader()}
}

// ByName returns the row for a page, store.ErrNotFound when absent.
func (v *Pages) ByName(name pagename.Path) (*store.PageRow, error) {
	return v.tx.PageByName(name)
}

// Exists reports whether a page exists for the user: indexed and not a
// placeholder.
func (v *Pages) Exists(name pagename.Path) (bool, error) {
	row, err := v.tx.PageByName(name)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return row.Exists(), nil
}

// Children lists the direct children of a page in display order.
func (v *Pages) Children(name pagename.Path) ([]store.PageRow, error) {
	id, err := v.tx.PageIDByName(name)
	if err != nil {
		return nil, err
	}
	return v.tx.PageChildren(id)
}

// Walk visits the subtree below name depth first in display order,
// excluding name itself.
func (v *Pages) Walk(name pagename.Path, fn func(store.PageRow) error) error {
	id, err := v.tx.PageIDByName(name)
	if err != nil {
		return err
	}
	return v.tx.WalkPages(id, fn)
}

// Next returns the page following name in walk order: its first child,
// else the next sibling of the nearest ancestor that has one.
// store.ErrNotFound past the last page.
func (v *Pages) Next(name pagename.Path) (*store.PageRow, error) {
	if name.IsRoot() {
		return nil, fmt.Errorf("no page after the root: %w", store.ErrNotFound)
	}
	row, err := v.tx.PageByName(name)
	if err != nil {
		return nil, err
	}
	if row.NChildren > 0 {
		return v.tx.ChildAt(row.ID, 0)
	}
	for !row.Name.IsRoot() {
		pos, err := v.tx.ChildPosition(row.Parent, row.SortKey, row.Name)
		if err != nil {
			return nil, err
		}
		next, err := v.tx.ChildAt(row.Parent, pos+1)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		row, err = v.tx.PageByID(row.Parent)
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no page after %q: %w", name, store.ErrNotFound)
}

// Previous returns the page preceding name in walk order: the deepest
// last descendant of the previous sibling, else the parent.
// store.ErrNotFound before the first page.
func (v *Pages) Previous(name pagename.Path) (*store.PageRow, error) {
	if name.IsRoot() {
		return nil, fmt.Errorf("no page before the root: %w", store.ErrNotFound)
	}
	row, err := v.tx.PageByName(name)
	if err != nil {
		return nil, err
	}
	pos, err := v.tx.ChildPosition(row.Parent, row.SortKey, row.Name)
	if err != nil {
		return nil, err
	}
	if pos == 0 {
		if row.Name.Parent().IsRoot() {
			return nil, fmt.Errorf("no page before %q: %w", name, store.ErrNotFound)
		}
		return v.tx.PageByID(row.Parent)
	}
	prev, err := v.tx.ChildAt(row.Parent, pos-1)
	if err != nil {
		return nil, err
	}
	for prev.NChildren > 0 {
		prev, err = v.tx.ChildAt(prev.ID, prev.NChildren-1)
		if err != nil {
			return nil, err
		}
	}
	return prev, nil
}

// Match lists children of parent whose basename contains text.
func (v *Pages) Match(parent pagename.Path, text string, limit int) ([]store.PageRow, error) {
	id, err := v.tx.PageIDByName(parent)
	if err != nil {
		return nil, err
	}
	return v.tx.MatchPages(id, text, limit)
}

// MatchAll lists pages anywhere whose basename contains text, shortest
// names first.
func (v *Pages) MatchAll(text string, limit int) ([]store.PageRow, error) {
	return v.tx.MatchAllPages(text, limit)
}

// RecentChanges lists pages by descending content mtime.
func (v *Pages) RecentChanges(limit, offset int) ([]store.PageRow, error) {
	return v.tx.RecentPages(limit, offset)
}

// Count returns the number of indexed pages.
func (v *Pages) Count() (int64, error) {
	return v.tx.CountPages()
}

// ResolveLink resolves a reference as written on the source page.
func (v *Pages) ResolveLink(source pagename.Path, href pagename.HRef) (store.Resolved, error) {
	return v.tx.ResolveLink(source, 0, href)
}

// ResolveUserInput turns user-typed input into a page name, resolved
// against reference the way a link on that page would be, except that
// placeholders are acceptable targets. A relative reference without a
// reference page is an error.
func (v *Pages) ResolveUserInput(input string, reference pagename.Path) (pagename.Path, error) {
	href, err := pagename.ParseLink(input)
	if err != nil {
		return pagename.Root, err
	}
	if href.Rel == pagename.Relative && reference.IsRoot() {
		return pagename.Root, fmt.Errorf("relative name %q without a reference page", input)
	}
	res, err := v.tx.ResolveUserInput(reference, href)
	if err != nil {
		return pagename.Root, err
	}
	return res.Name, nil
}

// CreateLink returns the shortest reference that, written on source,
// resolves to target: relative for direct descendants, a floating
// suffix when one resolves cleanly, absolute otherwise.
func (v *Pages) CreateLink(source, target pagename.Path) (pagename.HRef, error) {
	if target.IsRoot() {
		return pagename.HRef{}, fmt.Errorf("cannot link the root page")
	}
	if target.IsChildOf(source) {
		return pagename.HRef{
			Rel: pagename.Relative, Names: pagename.Path(target.RelativeTo(source)),
		}, nil
	}
	if href, ok, err := v.findFloatingLink(source, target); err != nil || ok {
		return href, err
	}
	return pagename.HRef{Rel: pagename.Abs, Names: target}, nil
}

// findFloatingLink tries successively longer suffixes of target until
// one floats back to target from source.
func (v *Pages) findFloatingLink(source, target pagename.Path) (pagename.HRef, bool, error) {
	parts := target.Parts()
	for i := len(parts) - 1; i >= 0; i-- {
		href := pagename.HRef{
			Rel:   pagename.Floating,
			Names: pagename.Path(strings.Join(parts[i:], pagename.Sep)),
		}
		res, err := v.tx.ResolveLink(source, 0, href)
		if err != nil {
			return pagename.HRef{}, false, err
		}
		if res.Name == target {
			return href, true, nil
		}
	}
	return pagename.HRef{}, false, nil
}
