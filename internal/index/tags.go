package index

import (
	"errors"

	"leaflet/internal/format"
	"leaflet/internal/sortkey"
	"leaflet/internal/store"
)

// tagIndexer maintains the tags and tagsources tables. Assignments are
// diffed inline with page parsing; tags that lose their last page are
// garbage collected by the update cursor at the end of a pass.
type tagIndexer struct {
	ev *Events
}

func newTagIndexer(ev *Events) *tagIndexer {
	return &tagIndexer{ev: ev}
}

func (x *tagIndexer) pageContentChanged(tx *store.Tx, row *store.PageRow, content *format.Page) error {
	old, err := tx.TagsForPage(row.ID)
	if err != nil {
		return err
	}
	stale := make(map[string]*store.TagRow, len(old))
	for i := range old {
		stale[old[i].SortKey] = &old[i]
	}

	seen := make(map[string]bool, len(content.Tags))
	for _, name := range content.Tags {
		key := sortkey.Key(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if _, ok := stale[key]; ok {
			delete(stale, key)
			continue
		}

		tag, err := tx.TagBySortKey(key)
		if errors.Is(err, store.ErrNotFound) {
			tag, err = tx.InsertTag(name, key)
			if err != nil {
				return err
			}
			x.ev.tagInserted(tag)
		} else if err != nil {
			return err
		}

		if err := tx.AssignTag(tag.ID, row.ID); err != nil {
			return err
		}
		x.ev.tagAssigned(tag, row)
	}

	for _, tag := range stale {
		if err := tx.UnassignTag(tag.ID, row.ID); err != nil {
			return err
		}
		x.ev.tagUnassigned(tag, row)
	}
	return nil
}

func (x *tagIndexer) pageRowInserted(tx *store.Tx, row *store.PageRow) error {
	return nil
}

func (x *tagIndexer) pageRowChanged(tx *store.Tx, cur, prev *store.PageRow) error {
	return nil
}

func (x *tagIndexer) pageRowToDelete(tx *store.Tx, row *store.PageRow) error {
	tags, err := tx.TagsForPage(row.ID)
	if err != nil {
		return err
	}
	for i := range tags {
		if err := tx.UnassignTag(tags[i].ID, row.ID); err != nil {
			return err
		}
		x.ev.tagUnassigned(&tags[i], row)
	}
	return nil
}

func (x *tagIndexer) pageRowDeleted(tx *store.Tx, row *store.PageRow) error {
	return nil
}

// UpdateStep drops one tag without assignments, false when none remain.
func (x *tagIndexer) UpdateStep(tx *store.Tx) (bool, error) {
	tag, err := tx.UnusedTag()
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := tx.DeleteTag(tag.ID); err != nil {
		return false, err
	}
	x.ev.tagDeleted(tag)
	return true, nil
}
