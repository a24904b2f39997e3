package views

import (
	"fmt"
	"sync"

	"leaflet/internal/index"
	"leaflet/internal/pagename"
	"leaflet/internal/store"
)

// Positions maps page names to tree positions, the integer path a tree
// widget addresses rows by: position i at each nesting level means the
// i-th child in display order. Lookups are cached; attach the cache to
// the index events so any structural change flushes it.
type Positions struct {
	tx *store.Tx

	mu    sync.Mutex
	cache map[pagename.Path][]int64
}

func NewPositions(db *store.DB) *Positions {
	return &Positions{tx: db.Reader(), cache: make(map[pagename.Path][]int64)}
}

// Attach subscribes the cache to index mutations. Any change to the
// tree shape invalidates all cached positions; positions are cheap to
// recompute and correctness is hard to track per row.
func (v *Positions) Attach(ev *index.Events) {
	pageChanged := ev.PageChanged
	ev.PageChanged = func(cur, prev *store.PageRow) {
		if cur.NChildren != prev.NChildren || cur.Placeholder != prev.Placeholder {
			v.Invalidate()
		}
		if pageChanged != nil {
			pageChanged(cur, prev)
		}
	}
	pageInserted := ev.PageInserted
	ev.PageInserted = func(row *store.PageRow) {
		v.Invalidate()
		if pageInserted != nil {
			pageInserted(row)
		}
	}
	pageDeleted := ev.PageDeleted
	ev.PageDeleted = func(row *store.PageRow) {
		v.Invalidate()
		if pageDeleted != nil {
			pageDeleted(row)
		}
	}
}

// Invalidate flushes the cache.
func (v *Positions) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache = make(map[pagename.Path][]int64)
}

// PositionOf returns the tree position of a page.
func (v *Positions) PositionOf(name pagename.Path) ([]int64, error) {
	if name.IsRoot() {
		return nil, fmt.Errorf("the root has no tree position")
	}

	v.mu.Lock()
	cached, ok := v.cache[name]
	v.mu.Unlock()
	if ok {
		return cached, nil
	}

	row, err := v.tx.PageByName(name)
	if err != nil {
		return nil, err
	}
	var pos []int64
	for {
		p, err := v.tx.ChildPosition(row.Parent, row.SortKey, row.Name)
		if err != nil {
			return nil, err
		}
		pos = append([]int64{p}, pos...)
		if row.Name.Parent().IsRoot() {
			break
		}
		row, err = v.tx.PageByID(row.Parent)
		if err != nil {
			return nil, err
		}
	}

	v.mu.Lock()
	v.cache[name] = pos
	v.mu.Unlock()
	return pos, nil
}

// At returns the page at a tree position, store.ErrNotFound when the
// position points past the tree.
func (v *Positions) At(pos []int64) (*store.PageRow, error) {
	if len(pos) == 0 {
		return nil, fmt.Errorf("empty tree position")
	}
	var (
		row *store.PageRow
		err error
	)
	parent := int64(store.RootPageID)
	for _, p := range pos {
		row, err = v.tx.ChildAt(parent, p)
		if err != nil {
			return nil, err
		}
		parent = row.ID
	}
	return row, nil
}

// TopCount returns the number of top level pages.
func (v *Positions) TopCount() (int64, error) {
	root, err := v.tx.PageByID(store.RootPageID)
	if err != nil {
		return 0, err
	}
	return root.NChildren, nil
}
