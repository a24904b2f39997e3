package store

import (
	"errors"
	"strings"

	"leaflet/internal/pagename"
	"leaflet/internal/sortkey"
)

// This file holds the shared read logic over the pages table used by
// both the indexers and the query views: resolving link references and
// walking the tree in display order.

// Resolved is the outcome of resolving a reference: the deepest
// existing page that matches, or, when the reference runs past the
// indexed tree, ID 0 plus the name the missing page would have.
type Resolved struct {
	ID   int64
	Name pagename.Path
}

// Exists reports whether resolution ended on an indexed page.
func (r Resolved) Exists() bool {
	return r.ID != 0
}

// ResolveLink finds the end point of a link reference.
//
// Absolute references resolve from the root. Relative references
// resolve as a direct child of the source. Floating references search
// the source's ancestor chain, closest first, for an existing
// non-placeholder page whose basename key equals the anchor's key;
// when nothing matches anywhere the reference is treated as a sibling
// of the source. Each remaining segment then resolves downward with an
// exact-case match first, falling back to the first case-insensitive
// candidate.
//
// sourceID may be 0 when unknown; it is looked up as needed. The
// source page itself is not required to exist.
func (t *Tx) ResolveLink(source pagename.Path, sourceID int64, href pagename.HRef) (Resolved, error) {
	return t.resolveLink(source, sourceID, href, true)
}

// ResolveUserInput resolves user-typed input the same way as a link,
// except that placeholders are acceptable targets: typing the name of
// a placeholder should navigate to it, not to a lookalike.
func (t *Tx) ResolveUserInput(source pagename.Path, href pagename.HRef) (Resolved, error) {
	return t.resolveLink(source, 0, href, false)
}

func (t *Tx) resolveLink(source pagename.Path, sourceID int64, href pagename.HRef, ignorePlaceholders bool) (Resolved, error) {
	parent, parentID, names, err := t.resolveBase(source, sourceID, href, ignorePlaceholders)
	if err != nil {
		return Resolved{}, err
	}
	return t.resolvePageName(parent, parentID, names)
}

// resolveBase determines the starting point of the reference and the
// name segments still to be resolved below it.
func (t *Tx) resolveBase(source pagename.Path, sourceID int64, href pagename.HRef, ignorePlaceholders bool) (pagename.Path, int64, []string, error) {
	if href.Rel == pagename.Abs || source.IsRoot() {
		return pagename.Root, RootPageID, href.Parts(), nil
	}

	// The source itself may not be indexed; walk up to the nearest
	// existing ancestor and remember the names in between. The root
	// always exists so this terminates.
	start, startID, relnames := source, sourceID, []string(nil)
	for startID == 0 {
		id, err := t.PageIDByName(start)
		if errors.Is(err, ErrNotFound) {
			relnames = append([]string{start.Basename()}, relnames...)
			start = start.Parent()
			if start.IsRoot() {
				startID = RootPageID
			}
			continue
		}
		if err != nil {
			return "", 0, nil, err
		}
		startID = id
	}

	if href.Rel == pagename.Relative {
		return start, startID, append(relnames, href.Parts()...), nil
	}

	// Floating reference.
	anchorKey := sortkey.Key(href.Anchor())

	// The reference may be anchored inside the non-existing part of
	// the source's own name.
	if len(relnames) > 0 {
		last := -1
		for i, n := range relnames {
			if sortkey.Key(n) == anchorKey {
				last = i
			}
		}
		if last >= 0 {
			return start, startID, append(relnames[:last], href.Parts()...), nil
		}
	}

	// Search for anchor pages. Floating references never target
	// placeholders, to avoid a circular dependency between link
	// resolution and placeholder creation.
	candidates, err := t.PagesBySortKey(anchorKey, ignorePlaceholders)
	if err != nil {
		return "", 0, nil, err
	}

	// A candidate anchors the reference when it hangs directly below
	// one of the source's ancestors, siblings of the source included.
	// The closest such namespace wins; candidates at the winning depth
	// can only differ in basename case.
	maxDepth := source.Depth()
	depth := -1
	var found []PageRow
	for _, row := range candidates {
		d := row.Name.Depth()
		if d > maxDepth || d < depth {
			continue
		}
		if d > 0 {
			parent := row.Name.Parent()
			if start != parent && !start.IsChildOf(parent) {
				continue
			}
		}
		if d > depth {
			depth = d
			found = found[:0]
		}
		found = append(found, row)
	}

	if len(found) > 0 {
		parts := href.Parts()
		anchor, rest := parts[0], parts[1:]
		best := found[0]
		for _, row := range found {
			if row.Name.Basename() == anchor {
				return row.Name, row.ID, rest, nil
			}
			if row.Name < best.Name {
				best = row
			}
		}
		return best.Name, best.ID, rest, nil
	}

	// No anchor found anywhere: treat the reference as a sibling of
	// the source.
	if len(relnames) > 0 {
		return start, startID, append(relnames[:len(relnames)-1], href.Parts()...), nil
	}
	return start.Parent(), 0, href.Parts(), nil
}

// resolvePageName matches names below parent one segment at a time:
// exact case first, else the first case-insensitive candidate, and
// stops at the first segment with no match at all. Placeholders are
// matched here deliberately: ignoring them would show near-duplicate
// trees for links that differ only in spelling.
func (t *Tx) resolvePageName(parent pagename.Path, parentID int64, names []string) (Resolved, error) {
	if parentID == 0 {
		id, err := t.PageIDByName(parent)
		if err != nil {
			return Resolved{}, err
		}
		parentID = id
	}

	page, pageID := parent, parentID
	for i, basename := range names {
		candidates, err := t.ChildrenBySortKey(pageID, sortkey.Key(basename))
		if err != nil {
			return Resolved{}, err
		}

		exact := page.Child(basename)
		matched := false
		for _, row := range candidates {
			if row.Name == exact {
				page, pageID = row.Name, row.ID
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if len(candidates) > 0 {
			page, pageID = candidates[0].Name, candidates[0].ID
			continue
		}
		// No match: the remaining suffix names a page that does not
		// exist yet.
		return Resolved{ID: 0, Name: page.Child(strings.Join(names[i:], pagename.Sep))}, nil
	}
	return Resolved{ID: pageID, Name: page}, nil
}

// WalkPages visits the subtree below parentID depth first, pre-order,
// children sorted by sort key then name. The walk is recursive to
// preserve that order.
func (t *Tx) WalkPages(parentID int64, fn func(PageRow) error) error {
	children, err := t.PageChildren(parentID)
	if err != nil {
		return err
	}
	for _, row := range children {
		if err := fn(row); err != nil {
			return err
		}
		if row.NChildren > 0 {
			if err := t.WalkPages(row.ID, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
