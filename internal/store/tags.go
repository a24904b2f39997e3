package store

import (
	"database/sql"
	"fmt"
)

const tagColumns = `id, name, sortkey`

func scanTag(row *sql.Row) (*TagRow, error) {
	var t TagRow
	err := row.Scan(&t.ID, &t.Name, &t.SortKey)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag row: %w", err)
	}
	return &t, nil
}

func (t *Tx) tagQuery(query string, args ...any) ([]TagRow, error) {
	rows, err := t.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var out []TagRow
	for rows.Next() {
		var tag TagRow
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.SortKey); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// TagBySortKey looks up a tag by its normalized key, ErrNotFound when
// absent.
func (t *Tx) TagBySortKey(key string) (*TagRow, error) {
	return scanTag(t.q.QueryRow(
		`SELECT `+tagColumns+` FROM tags WHERE sortkey = ?`, key))
}

// InsertTag creates a new tag row.
func (t *Tx) InsertTag(name, key string) (*TagRow, error) {
	res, err := t.q.Exec(
		`INSERT INTO tags(name, sortkey) VALUES (?, ?)`, name, key)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tag %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &TagRow{ID: id, Name: name, SortKey: key}, nil
}

// DeleteTag removes one tag row.
func (t *Tx) DeleteTag(id int64) error {
	_, err := t.q.Exec(`DELETE FROM tags WHERE id = ?`, id)
	return err
}

// TagsForPage lists the tags assigned to a page, by sort key order.
func (t *Tx) TagsForPage(pageID int64) ([]TagRow, error) {
	return t.tagQuery(
		`SELECT tags.id, tags.name, tags.sortkey FROM tagsources `+
			`LEFT JOIN tags ON tagsources.tag = tags.id `+
			`WHERE tagsources.source = ? ORDER BY tags.sortkey`,
		pageID,
	)
}

// AssignTag records a (tag, page) pair.
func (t *Tx) AssignTag(tagID, pageID int64) error {
	_, err := t.q.Exec(
		`INSERT INTO tagsources(source, tag) VALUES (?, ?)`, pageID, tagID)
	if err != nil {
		return fmt.Errorf("failed to assign tag %d to page %d: %w", tagID, pageID, err)
	}
	return nil
}

// UnassignTag removes a (tag, page) pair.
func (t *Tx) UnassignTag(tagID, pageID int64) error {
	_, err := t.q.Exec(
		`DELETE FROM tagsources WHERE source = ? AND tag = ?`, pageID, tagID)
	return err
}

// CountTagAssignments counts the pages a tag is still assigned to.
func (t *Tx) CountTagAssignments(tagID int64) (int64, error) {
	var n int64
	err := t.q.QueryRow(
		`SELECT COUNT(*) FROM tagsources WHERE tag = ?`, tagID).Scan(&n)
	return n, err
}

// UnusedTag returns one tag with no remaining assignments, or
// ErrNotFound. Such tags are garbage collected at the end of a pass.
func (t *Tx) UnusedTag() (*TagRow, error) {
	return scanTag(t.q.QueryRow(
		`SELECT ` + tagColumns + ` FROM tags ` +
			`WHERE id NOT IN (SELECT DISTINCT tag FROM tagsources) LIMIT 1`))
}

// AllTags lists every tag in display order.
func (t *Tx) AllTags() ([]TagRow, error) {
	return t.tagQuery(`SELECT ` + tagColumns + ` FROM tags ORDER BY sortkey, name`)
}

// TagsByPageCount lists tags ordered by how many pages carry them.
func (t *Tx) TagsByPageCount() ([]TagRow, error) {
	return t.tagQuery(
		`SELECT tags.id, tags.name, tags.sortkey FROM tags ` +
			`INNER JOIN tagsources ON tags.id = tagsources.tag ` +
			`GROUP BY tags.id ORDER BY COUNT(*) DESC`)
}

// PagesWithTag lists the pages a tag is assigned to, in display order.
func (t *Tx) PagesWithTag(tagID int64) ([]PageRow, error) {
	return t.pageQuery(
		`SELECT `+prefixedPageColumns("pages")+` FROM pages `+
			`INNER JOIN tagsources ON pages.id = tagsources.source `+
			`WHERE tagsources.tag = ? ORDER BY pages.sortkey, pages.name`,
		tagID,
	)
}

// PagesWithAllTags lists pages carrying every one of the given tags.
func (t *Tx) PagesWithAllTags(tagIDs []int64) ([]PageRow, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + prefixedPageColumns("pages") + ` FROM pages ` +
		`INNER JOIN tagsources ON pages.id = tagsources.source ` +
		`WHERE tagsources.tag IN (` + placeholders(len(tagIDs)) + `) ` +
		`GROUP BY pages.id HAVING COUNT(DISTINCT tagsources.tag) = ? ` +
		`ORDER BY pages.sortkey, pages.name`
	args := make([]any, 0, len(tagIDs)+1)
	for _, id := range tagIDs {
		args = append(args, id)
	}
	args = append(args, len(tagIDs))
	return t.pageQuery(query, args...)
}

// IntersectingTags lists tags that occur together with all the given
// tags on at least one page, used to narrow a tag selection.
func (t *Tx) IntersectingTags(tagIDs []int64) ([]TagRow, error) {
	if len(tagIDs) == 0 {
		return t.TagsByPageCount()
	}
	pages, err := t.PagesWithAllTags(tagIDs)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(pages))
	for _, p := range pages {
		args = append(args, p.ID)
	}
	return t.tagQuery(
		`SELECT tags.id, tags.name, tags.sortkey FROM tags `+
			`INNER JOIN tagsources ON tags.id = tagsources.tag `+
			`WHERE tagsources.source IN (`+placeholders(len(pages))+`) `+
			`GROUP BY tags.id ORDER BY COUNT(*) DESC`,
		args...,
	)
}

func placeholders(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}
