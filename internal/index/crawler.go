package index

import (
	"errors"
	"fmt"
	"path"

	"github.com/tliron/commonlog"

	"leaflet/internal/notefs"
	"leaflet/internal/store"
)

// crawler keeps the files table in sync with the notebook directory.
// It consumes status flags row by row: an update step processes one
// pending row completely, a check step stats one flagged row and either
// clears the flag or raises it to needs-update.
type crawler struct {
	fs  notefs.FS
	ev  *Events
	obs fileObserver
	log commonlog.Logger
}

// fileObserver receives file mutations inside the mutating transaction.
// The page mapper implements this to keep the pages table in step.
type fileObserver interface {
	fileInserted(tx *store.Tx, f *store.FileRow) error
	fileChanged(tx *store.Tx, f *store.FileRow) error
	fileToDelete(tx *store.Tx, f *store.FileRow) error
}

func newCrawler(fs notefs.FS, ev *Events, obs fileObserver) *crawler {
	return &crawler{fs: fs, ev: ev, obs: obs, log: commonlog.GetLogger("index.files")}
}

// UpdateStep processes one row pending update or deletion. It returns
// false when no such row remains. Folders sort before files, so a
// folder's listing is always indexed before its contents are parsed.
func (c *crawler) UpdateStep(tx *store.Tx) (bool, error) {
	row, err := tx.NextFileForUpdate()
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if row.Status == store.StatusNeedsDeletion {
		err = c.delete(tx, row)
		return err == nil, err
	}

	info, err := c.fs.Stat(row.Path)
	if err != nil {
		// An unreadable node is cleared, not retried: the pass must go
		// on, and the next check rediscovers the node through its kept
		// mtime if the failure was transient.
		c.log.Warningf("failed to stat %s: %s", row.Path, err.Error())
		err = tx.SetFileUpToDate(row.ID, row.Mtime)
		return err == nil, err
	}

	switch {
	case !info.Exists:
		err = c.delete(tx, row)
	case info.IsDir != (row.Kind == store.KindFolder):
		// The path changed kind on disk. Drop the old node; the
		// parent re-lists and picks up the new one.
		if err = c.delete(tx, row); err == nil {
			err = tx.RaiseFileStatus(row.Parent, store.StatusNeedsUpdate)
		}
	case row.Kind == store.KindFolder:
		err = c.updateFolder(tx, row, info)
	default:
		err = c.updateFile(tx, row, info)
	}
	return err == nil, err
}

// updateFolder diffs the folder listing against the child rows. New
// entries are inserted as needs-update, changed ones raised, missing
// ones flagged for deletion; nothing is processed here beyond the flag,
// each child becomes its own work unit.
func (c *crawler) updateFolder(tx *store.Tx, row *store.FileRow, info notefs.Info) error {
	entries, err := c.fs.List(row.Path)
	if err != nil {
		// Same isolation as the stat failure in UpdateStep: keep the
		// old mtime so a later check re-queues the listing.
		c.log.Warningf("failed to list %s: %s", row.Path, err.Error())
		return tx.SetFileUpToDate(row.ID, row.Mtime)
	}
	children, err := tx.FileChildren(row.ID)
	if err != nil {
		return err
	}

	known := make(map[string]*store.FileRow, len(children))
	for i := range children {
		known[children[i].Path] = &children[i]
	}

	for _, e := range entries {
		childPath := joinRel(row.Path, e.Name)
		kind := store.KindFile
		if e.IsDir {
			kind = store.KindFolder
		}

		rec, ok := known[childPath]
		if !ok {
			child, err := tx.InsertFile(row.ID, childPath, kind, store.StatusNeedsUpdate)
			if err != nil {
				return err
			}
			if kind == store.KindFile {
				if err := c.obs.fileInserted(tx, child); err != nil {
					return err
				}
			}
			c.ev.fileInserted(child)
			continue
		}
		delete(known, childPath)

		if rec.Kind != kind {
			// Kind flip: delete now, re-list picks up the new node.
			if err := c.delete(tx, rec); err != nil {
				return err
			}
			if err := tx.RaiseFileStatus(row.ID, store.StatusNeedsUpdate); err != nil {
				return err
			}
			continue
		}

		switch mtime := e.Mtime.UnixNano(); {
		case rec.Mtime != mtime:
			if err := tx.RaiseFileStatus(rec.ID, store.StatusNeedsUpdate); err != nil {
				return err
			}
		case rec.Status == store.StatusNeedsCheck:
			// Unchanged; a queued update or deletion is left alone.
			if err := tx.SetFileUpToDate(rec.ID, mtime); err != nil {
				return err
			}
		}
	}

	// Rows with no directory entry left.
	for _, rec := range known {
		if err := tx.SetFileStatus(rec.ID, store.StatusNeedsDeletion); err != nil {
			return err
		}
	}

	return tx.SetFileUpToDate(row.ID, info.Mtime.UnixNano())
}

// updateFile marks the row up to date before notifying the mapper, so a
// content error cannot put the row in a retry loop.
func (c *crawler) updateFile(tx *store.Tx, row *store.FileRow, info notefs.Info) error {
	if err := tx.SetFileUpToDate(row.ID, info.Mtime.UnixNano()); err != nil {
		return err
	}
	if err := c.obs.fileChanged(tx, row); err != nil {
		return err
	}
	c.ev.fileChanged(row)
	return nil
}

func (c *crawler) delete(tx *store.Tx, row *store.FileRow) error {
	if row.Kind == store.KindFolder {
		return c.deleteFolder(tx, row)
	}
	return c.deleteFile(tx, row)
}

// deleteFolder removes a folder subtree bottom-up in one unit, files
// before subfolders so page rows disappear leaf-first.
func (c *crawler) deleteFolder(tx *store.Tx, row *store.FileRow) error {
	children, err := tx.FileChildren(row.ID)
	if err != nil {
		return err
	}
	for i := range children {
		if children[i].Kind == store.KindFile {
			if err := c.deleteFile(tx, &children[i]); err != nil {
				return err
			}
		}
	}
	for i := range children {
		if children[i].Kind == store.KindFolder {
			if err := c.deleteFolder(tx, &children[i]); err != nil {
				return err
			}
		}
	}
	return tx.DeleteFileRow(row.ID)
}

func (c *crawler) deleteFile(tx *store.Tx, row *store.FileRow) error {
	if err := c.obs.fileToDelete(tx, row); err != nil {
		return err
	}
	if err := tx.DeleteFileRow(row.ID); err != nil {
		return err
	}
	c.ev.fileDeleted(row)
	return nil
}

// CheckStep examines one flagged row. outOfDate reports that pending
// update or deletion work exists, which tells the caller to run update
// steps before checking further.
func (c *crawler) CheckStep(tx *store.Tx) (more, outOfDate bool, err error) {
	row, err := tx.NextFileForCheck()
	if errors.Is(err, store.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	if row.Status != store.StatusNeedsCheck {
		return true, true, nil
	}

	info, err := c.fs.Stat(row.Path)
	if err != nil {
		c.log.Warningf("failed to stat %s: %s", row.Path, err.Error())
		err = tx.SetFileUpToDate(row.ID, row.Mtime)
		return err == nil, false, err
	}
	switch {
	case !info.Exists || info.IsDir != (row.Kind == store.KindFolder):
		err = tx.SetFileStatus(row.ID, store.StatusNeedsDeletion)
		return err == nil, true, err
	case info.Mtime.UnixNano() != row.Mtime:
		err = tx.SetFileStatus(row.ID, store.StatusNeedsUpdate)
		return err == nil, true, err
	default:
		err = tx.SetFileUpToDate(row.ID, row.Mtime)
		return err == nil, false, err
	}
}

// QueueCheck flags a path for checking on the next pass. When the path
// itself is not indexed yet, the nearest indexed ancestor is flagged
// for update instead, which re-lists it and discovers the path. The
// flag lives in the status column, so the request survives a restart.
func (c *crawler) QueueCheck(tx *store.Tx, rel string, recursive bool) error {
	rel = cleanRel(rel)
	target := rel
	for {
		row, err := tx.FileByPath(rel)
		if errors.Is(err, store.ErrNotFound) {
			if rel == "." {
				return fmt.Errorf("%w: no root file row", store.ErrConsistency)
			}
			rel = parentRel(rel)
			continue
		}
		if err != nil {
			return err
		}
		if rel != target {
			return tx.RaiseFileStatus(row.ID, store.StatusNeedsUpdate)
		}
		if err := tx.RaiseFileStatus(row.ID, store.StatusNeedsCheck); err != nil {
			return err
		}
		if recursive && row.Kind == store.KindFolder {
			return tx.RaiseSubtreeStatus(rel, store.StatusNeedsCheck)
		}
		return nil
	}
}

// TouchFile indexes one file immediately, as used after an editor save:
// missing folder rows are grafted in, the file row is created if new,
// and its content is parsed in the same unit. The parent folder is left
// flagged for a later consistency check.
func (c *crawler) TouchFile(tx *store.Tx, rel string) error {
	rel = cleanRel(rel)
	if rel == "." {
		return fmt.Errorf("cannot touch the notebook root")
	}

	info, err := c.fs.Stat(rel)
	if err != nil {
		return err
	}
	if !info.Exists || info.IsDir {
		return c.QueueCheck(tx, rel, false)
	}

	parentID, err := c.ensureFolders(tx, parentRel(rel))
	if err != nil {
		return err
	}

	row, err := tx.FileByPath(rel)
	if errors.Is(err, store.ErrNotFound) {
		row, err = tx.InsertFile(parentID, rel, store.KindFile, store.StatusNeedsUpdate)
		if err != nil {
			return err
		}
		if err := c.obs.fileInserted(tx, row); err != nil {
			return err
		}
		c.ev.fileInserted(row)
	} else if err != nil {
		return err
	}

	if err := tx.RaiseFileStatus(parentID, store.StatusNeedsCheck); err != nil {
		return err
	}
	return c.updateFile(tx, row, info)
}

// ensureFolders returns the row id for a folder path, inserting any
// missing rows along the way. Grafted rows get needs-check so a later
// pass verifies their full listing.
func (c *crawler) ensureFolders(tx *store.Tx, rel string) (int64, error) {
	if rel == "." {
		return store.RootFileID, nil
	}
	row, err := tx.FileByPath(rel)
	if err == nil {
		return row.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	parentID, err := c.ensureFolders(tx, parentRel(rel))
	if err != nil {
		return 0, err
	}
	row, err = tx.InsertFile(parentID, rel, store.KindFolder, store.StatusNeedsCheck)
	if err != nil {
		return 0, err
	}
	c.ev.fileInserted(row)
	return row.ID, nil
}

func cleanRel(rel string) string {
	rel = path.Clean("/" + rel)[1:]
	if rel == "" {
		return "."
	}
	return rel
}

func parentRel(rel string) string {
	return path.Dir(rel)
}

func joinRel(base, name string) string {
	if base == "." {
		return name
	}
	return base + "/" + name
}
