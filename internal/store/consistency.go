package store

import (
	"fmt"
)

// CheckConsistency verifies the derived columns and cross-table
// invariants of the index: every page's n_children and is_placeholder
// match a recount, parents exist and are prefixes of their children,
// every link targets an existing row, and no placeholder carries a
// source file. Intended for tests and the doctor command; returns the
// first violation found wrapped in ErrConsistency.
func (t *Tx) CheckConsistency() error {
	rows, err := t.pageQuery(`SELECT ` + pageColumns + ` FROM pages`)
	if err != nil {
		return err
	}
	byID := make(map[int64]PageRow, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}

	for _, p := range rows {
		if p.ID == RootPageID {
			continue
		}
		parent, ok := byID[p.Parent]
		if !ok {
			return fmt.Errorf("%w: page %q has no parent row", ErrConsistency, p.Name)
		}
		if p.Name.Parent() != parent.Name {
			return fmt.Errorf("%w: page %q filed under parent %q",
				ErrConsistency, p.Name, parent.Name)
		}
		if p.Placeholder && p.HasContent() {
			return fmt.Errorf("%w: placeholder %q has a source file", ErrConsistency, p.Name)
		}

		n, allPlaceholder, err := t.ChildStats(p.ID)
		if err != nil {
			return err
		}
		if p.NChildren != n {
			return fmt.Errorf("%w: page %q records %d children, counted %d",
				ErrConsistency, p.Name, p.NChildren, n)
		}
		wantPlaceholder := !p.HasContent() && allPlaceholder
		if p.Placeholder != wantPlaceholder {
			return fmt.Errorf("%w: page %q placeholder flag %v, derived %v",
				ErrConsistency, p.Name, p.Placeholder, wantPlaceholder)
		}
	}

	links, err := t.linkQuery(`SELECT ` + linkColumns + ` FROM links`)
	if err != nil {
		return err
	}
	for _, l := range links {
		if _, ok := byID[l.Source]; !ok {
			return fmt.Errorf("%w: link %q has no source row", ErrConsistency, l.Names)
		}
		if _, ok := byID[l.Target]; !ok {
			return fmt.Errorf("%w: link %q has no target row", ErrConsistency, l.Names)
		}
	}
	return nil
}
