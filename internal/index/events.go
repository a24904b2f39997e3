// Package index drives the incremental crawl that keeps the store in
// sync with the notebook files. Work is cut into single-row units so a
// caller can interleave indexing with anything else; every unit commits
// its own transaction, so an interrupted pass resumes where it stopped.
package index

import (
	"leaflet/internal/format"
	"leaflet/internal/store"
)

// Events carries the notification hooks fired while the index mutates.
// Handlers run inside the mutating transaction: they see the store
// mid-change and must not start work of their own. All fields are
// optional.
type Events struct {
	FileInserted func(*store.FileRow)
	FileChanged  func(*store.FileRow)
	FileDeleted  func(*store.FileRow)

	PageInserted func(*store.PageRow)
	// PageChanged fires when a page's row changed shape: content
	// appeared or disappeared, the placeholder flag flipped, or the
	// child count moved. prev holds the row before the change.
	PageChanged func(cur, prev *store.PageRow)
	// PageToDelete fires just before a row is removed, PageDeleted
	// just after.
	PageToDelete func(*store.PageRow)
	PageDeleted  func(*store.PageRow)
	// PageContentChanged fires after a source file was (re)parsed.
	PageContentChanged func(*store.PageRow, *format.Page)

	TagInserted   func(*store.TagRow)
	TagDeleted    func(*store.TagRow)
	TagAssigned   func(*store.TagRow, *store.PageRow)
	TagUnassigned func(*store.TagRow, *store.PageRow)

	// PassCommitted fires once after a full update pass has finished
	// and its last transaction committed.
	PassCommitted func()
}

func (e *Events) fileInserted(f *store.FileRow) {
	if e.FileInserted != nil {
		e.FileInserted(f)
	}
}

func (e *Events) fileChanged(f *store.FileRow) {
	if e.FileChanged != nil {
		e.FileChanged(f)
	}
}

func (e *Events) fileDeleted(f *store.FileRow) {
	if e.FileDeleted != nil {
		e.FileDeleted(f)
	}
}

func (e *Events) pageInserted(p *store.PageRow) {
	if e.PageInserted != nil {
		e.PageInserted(p)
	}
}

func (e *Events) pageChanged(cur, prev *store.PageRow) {
	if e.PageChanged != nil {
		e.PageChanged(cur, prev)
	}
}

func (e *Events) pageToDelete(p *store.PageRow) {
	if e.PageToDelete != nil {
		e.PageToDelete(p)
	}
}

func (e *Events) pageDeleted(p *store.PageRow) {
	if e.PageDeleted != nil {
		e.PageDeleted(p)
	}
}

func (e *Events) pageContentChanged(p *store.PageRow, content *format.Page) {
	if e.PageContentChanged != nil {
		e.PageContentChanged(p, content)
	}
}

func (e *Events) tagInserted(t *store.TagRow) {
	if e.TagInserted != nil {
		e.TagInserted(t)
	}
}

func (e *Events) tagDeleted(t *store.TagRow) {
	if e.TagDeleted != nil {
		e.TagDeleted(t)
	}
}

func (e *Events) tagAssigned(t *store.TagRow, p *store.PageRow) {
	if e.TagAssigned != nil {
		e.TagAssigned(t, p)
	}
}

func (e *Events) tagUnassigned(t *store.TagRow, p *store.PageRow) {
	if e.TagUnassigned != nil {
		e.TagUnassigned(t, p)
	}
}

func (e *Events) passCommitted() {
	if e.PassCommitted != nil {
		e.PassCommitted()
	}
}

// pageObserver is the internal fan-out from the page mapper to the
// derived indexers (links, tags). Observers run in registration order
// inside the same transaction as the page mutation they react to.
type pageObserver interface {
	pageContentChanged(tx *store.Tx, row *store.PageRow, content *format.Page) error
	pageRowInserted(tx *store.Tx, row *store.PageRow) error
	pageRowChanged(tx *store.Tx, cur, prev *store.PageRow) error
	pageRowToDelete(tx *store.Tx, row *store.PageRow) error
	pageRowDeleted(tx *store.Tx, row *store.PageRow) error
}
