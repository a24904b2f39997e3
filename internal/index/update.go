package index

import (
	"leaflet/internal/store"
)

type phase int

const (
	phaseFiles phase = iota
	phaseLinks
	phaseTags
	phaseDone
)

// UpdateCursor drains the pending index work in phases, files first so
// page rows exist before links resolve against them, link resolution
// second, tag collection last. Step runs one unit in one committed
// transaction; a cursor abandoned halfway loses nothing, the next one
// picks up the remaining flags.
type UpdateCursor struct {
	db      *store.DB
	crawler *crawler
	links   *linkResolver
	tags    *tagIndexer
	ev      *Events
	phase   phase
}

// Done reports whether the pass has finished.
func (c *UpdateCursor) Done() bool {
	return c.phase == phaseDone
}

// Step performs one unit of work. Empty phases are skipped so a call
// always makes progress until the pass is done; calling Step on a
// finished cursor is a no-op.
func (c *UpdateCursor) Step() error {
	for c.phase != phaseDone {
		var more bool
		err := c.db.WithTx(func(tx *store.Tx) error {
			var err error
			switch c.phase {
			case phaseFiles:
				more, err = c.crawler.UpdateStep(tx)
			case phaseLinks:
				more, err = c.links.UpdateStep(tx)
			case phaseTags:
				more, err = c.tags.UpdateStep(tx)
			}
			return err
		})
		if err != nil {
			return err
		}
		if more {
			return nil
		}
		c.phase++
		if c.phase == phaseDone {
			c.ev.passCommitted()
		}
	}
	return nil
}

// Run drains the cursor.
func (c *UpdateCursor) Run() error {
	for !c.Done() {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
