package views

import (
	"errors"

	"leaflet/internal/pagename"
	"leaflet/internal/sortkey"
	"leaflet/internal/store"
)

// Tags looks up tags and the pages carrying them. Tag name matching is
// case insensitive, like page names.
type Tags struct {
	tx *store.Tx
}

func NewTags(db *store.DB) *Tags {
	return &Tags{tx: db.Reader()}
}

// All lists every tag in display order.
func (v *Tags) All() ([]store.TagRow, error) {
	return v.tx.AllTags()
}

// ByPageCount lists tags with the most tagged pages first.
func (v *Tags) ByPageCount() ([]store.TagRow, error) {
	return v.tx.TagsByPageCount()
}

// ByName looks one tag up, store.ErrNotFound when absent.
func (v *Tags) ByName(name string) (*store.TagRow, error) {
	return v.tx.TagBySortKey(sortkey.Key(name))
}

// Of lists the tags on one page.
func (v *Tags) Of(name pagename.Path) ([]store.TagRow, error) {
	id, err := v.tx.PageIDByName(name)
	if err != nil {
		return nil, err
	}
	return v.tx.TagsForPage(id)
}

// Pages lists the pages carrying every one of the named tags. Unknown
// tag names yield an empty result, not an error.
func (v *Tags) Pages(names ...string) ([]store.PageRow, error) {
	ids, err := v.resolve(names)
	if err != nil || ids == nil {
		return nil, err
	}
	return v.tx.PagesWithAllTags(ids)
}

// Intersecting lists tags that co-occur with all the named tags, most
// common first, used to narrow a tag selection step by step.
func (v *Tags) Intersecting(names ...string) ([]store.TagRow, error) {
	ids, err := v.resolve(names)
	if err != nil || (ids == nil && len(names) > 0) {
		return nil, err
	}
	return v.tx.IntersectingTags(ids)
}

func (v *Tags) resolve(names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		tag, err := v.tx.TagBySortKey(sortkey.Key(name))
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}
