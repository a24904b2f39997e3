package views

import (
	"leaflet/internal/pagename"
	"leaflet/internal/sortkey"
	"leaflet/internal/store"
)

// Direction selects which link ends to follow.
type Direction int

const (
	DirForward Direction = 1 << iota
	DirBackward
	DirBoth = DirForward | DirBackward
)

// Link is one resolved edge between two pages, with the reference it
// was written as.
type Link struct {
	Source pagename.Path
	Target pagename.Path
	HRef   pagename.HRef
}

// Links traverses the resolved link graph.
type Links struct {
	tx *store.Tx
}

func NewLinks(db *store.DB) *Links {
	return &Links{tx: db.Reader()}
}

// List returns the edges touching a page in the given direction. Edges
// still awaiting resolution are not reported: their recorded target is
// the root sentinel, not an answer.
func (v *Links) List(name pagename.Path, dir Direction) ([]Link, error) {
	row, err := v.tx.PageByName(name)
	if err != nil {
		return nil, err
	}
	return v.collect(row, dir)
}

// Count returns the number of edges List would report.
func (v *Links) Count(name pagename.Path, dir Direction) (int, error) {
	links, err := v.List(name, dir)
	return len(links), err
}

// ListSubtree returns the edges touching any page below name,
// inclusive. Edges inside the subtree appear once per direction that
// matches.
func (v *Links) ListSubtree(name pagename.Path, dir Direction) ([]Link, error) {
	row, err := v.tx.PageByName(name)
	if err != nil {
		return nil, err
	}
	out, err := v.collect(row, dir)
	if err != nil {
		return nil, err
	}
	err = v.tx.WalkPages(row.ID, func(p store.PageRow) error {
		links, err := v.collect(&p, dir)
		if err != nil {
			return err
		}
		out = append(out, links...)
		return nil
	})
	return out, err
}

// Floating returns every floating edge anchored on basename, e.g. to
// preview what a rename would re-resolve.
func (v *Links) Floating(basename string) ([]Link, error) {
	rows, err := v.tx.FloatingLinksByAnchor(sortkey.Key(basename))
	if err != nil {
		return nil, err
	}
	return v.materialize(rows, nil)
}

func (v *Links) collect(row *store.PageRow, dir Direction) ([]Link, error) {
	var out []Link
	if dir&DirForward != 0 {
		rows, err := v.tx.LinksFrom(row.ID)
		if err != nil {
			return nil, err
		}
		out, err = v.materialize(rows, out)
		if err != nil {
			return nil, err
		}
	}
	if dir&DirBackward != 0 {
		rows, err := v.tx.LinksTo(row.ID)
		if err != nil {
			return nil, err
		}
		out, err = v.materialize(rows, out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// materialize swaps row ids for page names, skipping unresolved edges.
func (v *Links) materialize(rows []store.LinkRow, out []Link) ([]Link, error) {
	for _, l := range rows {
		if l.NeedsCheck {
			continue
		}
		source, err := v.tx.PageByID(l.Source)
		if err != nil {
			return nil, err
		}
		target, err := v.tx.PageByID(l.Target)
		if err != nil {
			return nil, err
		}
		out = append(out, Link{Source: source.Name, Target: target.Name, HRef: l.HRef()})
	}
	return out, nil
}
