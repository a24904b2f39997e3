package index

import (
	"sync"

	"leaflet/internal/format"
	"leaflet/internal/notefs"
	"leaflet/internal/store"
)

// Index ties the store, the file system and the format adapter into
// the incremental engine. All indexing is single threaded: a mutex
// serializes passes, and within a pass every unit runs in its own
// transaction on the one store connection.
type Index struct {
	db      *store.DB
	ev      Events
	mapper  *mapper
	crawler *crawler
	links   *linkResolver
	tags    *tagIndexer

	mu sync.Mutex
}

// New builds an engine over an open store.
func New(db *store.DB, fs notefs.FS, adapter format.Adapter) *Index {
	ix := &Index{db: db}
	ix.tags = newTagIndexer(&ix.ev)
	ix.mapper = newMapper(fs, adapter, &ix.ev)
	ix.links = newLinkResolver(ix.mapper)
	// Link resolution runs before tag bookkeeping for every page event.
	ix.mapper.obs = []pageObserver{ix.links, ix.tags}
	ix.crawler = newCrawler(fs, &ix.ev, ix.mapper)
	return ix
}

// Open opens or creates the index database at dbPath for the notebook
// rooted at root, with the Markdown page format.
func Open(dbPath, root string) (*Index, error) {
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return New(db, notefs.NewDirFS(root), format.NewMarkdown()), nil
}

// DB exposes the underlying store, e.g. for the query views.
func (ix *Index) DB() *store.DB {
	return ix.db
}

// Events returns the hook set; register handlers before indexing runs.
func (ix *Index) Events() *Events {
	return &ix.ev
}

// UpdateCursor starts a pass over the currently flagged work. The
// caller owns the pacing; use Update to drain in one go.
func (ix *Index) UpdateCursor() *UpdateCursor {
	return &UpdateCursor{
		db: ix.db, crawler: ix.crawler, links: ix.links, tags: ix.tags, ev: &ix.ev,
	}
}

// Update drains all pending index work.
func (ix *Index) Update() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.UpdateCursor().Run()
}

// QueueCheck flags a path, relative to the notebook root, for checking
// on the next pass; recursive covers the whole subtree. The request is
// persisted, so it survives a restart even if no pass runs now.
func (ix *Index) QueueCheck(rel string, recursive bool) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.db.WithTx(func(tx *store.Tx) error {
		return ix.crawler.QueueCheck(tx, rel, recursive)
	})
}

// CheckStep performs one unit of check work; outOfDate reports that
// update work is pending and should be drained before checking on.
func (ix *Index) CheckStep() (more, outOfDate bool, err error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	err = ix.db.WithTx(func(tx *store.Tx) error {
		var err error
		more, outOfDate, err = ix.crawler.CheckStep(tx)
		return err
	})
	return more, outOfDate, err
}

// CheckAndUpdate walks the whole notebook, comparing mtimes against
// the stored ones, and updates everything found stale. This is the
// startup crawl: cheap when nothing changed, complete when much did.
func (ix *Index) CheckAndUpdate() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.db.WithTx(func(tx *store.Tx) error {
		return ix.crawler.QueueCheck(tx, ".", true)
	}); err != nil {
		return err
	}

	for {
		var more, outOfDate bool
		err := ix.db.WithTx(func(tx *store.Tx) error {
			var err error
			more, outOfDate, err = ix.crawler.CheckStep(tx)
			return err
		})
		if err != nil {
			return err
		}
		if outOfDate {
			if err := ix.UpdateCursor().Run(); err != nil {
				return err
			}
		}
		if !more {
			return nil
		}
	}
}

// TouchFile indexes one file immediately, bypassing the crawl. Used
// right after a page was written so queries see it without waiting for
// the next pass; link resolution still happens in the pass, so follow
// with Update when links matter.
func (ix *Index) TouchFile(rel string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.db.WithTx(func(tx *store.Tx) error {
		return ix.crawler.TouchFile(tx, rel)
	})
}

// FlagReindex marks every page source for re-parsing on the next pass,
// used after the extraction rules change.
func (ix *Index) FlagReindex() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.db.WithTx(func(tx *store.Tx) error {
		return tx.FlagPageSourcesForUpdate()
	})
}

// Rebuild drops the database and re-crawls from scratch.
func (ix *Index) Rebuild() error {
	ix.mu.Lock()
	if err := ix.db.Rebuild(); err != nil {
		ix.mu.Unlock()
		return err
	}
	ix.mu.Unlock()
	return ix.Update()
}

// Close closes the underlying store.
func (ix *Index) Close() error {
	return ix.db.Close()
}
