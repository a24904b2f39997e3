package store

import (
	"database/sql"
	"fmt"
	"strings"

	"leaflet/internal/pagename"
	"leaflet/internal/sortkey"
)

const pageColumns = `id, parent, name, sortkey, COALESCE(mtime, 0), ` +
	`COALESCE(source_file, 0), is_placeholder, n_children`

func scanPageRow(scan func(dest ...any) error) (*PageRow, error) {
	var p PageRow
	err := scan(&p.ID, &p.Parent, &p.Name, &p.SortKey, &p.Mtime,
		&p.SourceFile, &p.Placeholder, &p.NChildren)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan page row: %w", err)
	}
	return &p, nil
}

func (t *Tx) pageQuery(query string, args ...any) ([]PageRow, error) {
	rows, err := t.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		p, err := scanPageRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// PageByName looks up one page row, ErrNotFound when absent.
func (t *Tx) PageByName(name pagename.Path) (*PageRow, error) {
	return scanPageRow(t.q.QueryRow(
		`SELECT `+pageColumns+` FROM pages WHERE name = ?`, name).Scan)
}

// PageByID looks up one page row by id. A missing id is a consistency
// error: ids only circulate through rows that exist.
func (t *Tx) PageByID(id int64) (*PageRow, error) {
	p, err := scanPageRow(t.q.QueryRow(
		`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id).Scan)
	if err == ErrNotFound {
		return nil, fmt.Errorf("%w: no page row for id %d", ErrConsistency, id)
	}
	return p, err
}

// PageIDByName resolves a name to its row id, ErrNotFound when absent.
func (t *Tx) PageIDByName(name pagename.Path) (int64, error) {
	var id int64
	err := t.q.QueryRow(`SELECT id FROM pages WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: page %q", ErrNotFound, name)
	}
	return id, err
}

// InsertPage adds one page row; the parent row must already exist.
// sourceFile 0 means no content.
func (t *Tx) InsertPage(name pagename.Path, parent int64, sourceFile int64, placeholder bool) (*PageRow, error) {
	basename := name.Basename()
	key := sortkey.Key(basename)

	var src any
	if sourceFile != 0 {
		src = sourceFile
	}
	res, err := t.q.Exec(
		`INSERT INTO pages(parent, name, lowerbasename, sortkey, source_file, is_placeholder) `+
			`VALUES (?, ?, ?, ?, ?, ?)`,
		parent, name, strings.ToLower(basename), key, src, placeholder,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert page %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &PageRow{
		ID: id, Parent: parent, Name: name, SortKey: key,
		SourceFile: sourceFile, Placeholder: placeholder,
	}, nil
}

// AdoptPageSource attaches a source file to an existing (placeholder)
// page and clears its placeholder flag.
func (t *Tx) AdoptPageSource(name pagename.Path, fileID int64) error {
	_, err := t.q.Exec(
		`UPDATE pages SET source_file = ?, mtime = NULL, is_placeholder = 0 WHERE name = ?`,
		fileID, name,
	)
	return err
}

// ClearPageSource detaches the source file from a page, leaving it as
// a pure namespace parent.
func (t *Tx) ClearPageSource(name pagename.Path) error {
	_, err := t.q.Exec(
		`UPDATE pages SET source_file = NULL, mtime = NULL WHERE name = ?`, name)
	return err
}

// SetPageMtime records the content mtime after a (re-)parse.
func (t *Tx) SetPageMtime(name pagename.Path, mtime int64) error {
	_, err := t.q.Exec(`UPDATE pages SET mtime = ? WHERE name = ?`, mtime, name)
	return err
}

// ChildStats returns the live child count of a page and whether every
// child is a placeholder (vacuously true for zero children). min()
// over the boolean column acts as "all placeholders" because false is
// 0 in SQLite.
func (t *Tx) ChildStats(id int64) (n int64, allPlaceholder bool, err error) {
	var minPlaceholder sql.NullInt64
	err = t.q.QueryRow(
		`SELECT COUNT(*), MIN(is_placeholder) FROM pages WHERE parent = ? AND id <> ?`,
		id, RootPageID,
	).Scan(&n, &minPlaceholder)
	if err != nil {
		return 0, false, fmt.Errorf("failed to aggregate children: %w", err)
	}
	allPlaceholder = !minPlaceholder.Valid || minPlaceholder.Int64 == 1
	return n, allPlaceholder, nil
}

// SetPageAggregates writes the recomputed child count and placeholder
// flag.
func (t *Tx) SetPageAggregates(id int64, nChildren int64, placeholder bool) error {
	_, err := t.q.Exec(
		`UPDATE pages SET n_children = ?, is_placeholder = ? WHERE id = ?`,
		nChildren, placeholder, id,
	)
	return err
}

// SetPageChildCount refreshes only n_children, used so the count is
// already correct when the deleted event fires.
func (t *Tx) SetPageChildCount(id int64) error {
	_, err := t.q.Exec(
		`UPDATE pages SET n_children = `+
			`(SELECT COUNT(*) FROM pages AS c WHERE c.parent = pages.id AND c.id <> ?) `+
			`WHERE id = ?`,
		RootPageID, id,
	)
	return err
}

// DeletePageRow removes one page row.
func (t *Tx) DeletePageRow(id int64) error {
	_, err := t.q.Exec(`DELETE FROM pages WHERE id = ?`, id)
	return err
}

// PageChildren lists the direct children of a page in display order.
func (t *Tx) PageChildren(id int64) ([]PageRow, error) {
	return t.pageQuery(
		`SELECT `+pageColumns+` FROM pages WHERE parent = ? AND id <> ? `+
			`ORDER BY sortkey, name`,
		id, RootPageID,
	)
}

// ChildrenBySortKey lists the children of a page whose basename
// matches key, i.e. case-insensitive name candidates.
func (t *Tx) ChildrenBySortKey(parent int64, key string) ([]PageRow, error) {
	return t.pageQuery(
		`SELECT `+pageColumns+` FROM pages WHERE parent = ? AND sortkey = ? ORDER BY name`,
		parent, key,
	)
}

// PagesBySortKey lists all pages whose basename matches key,
// optionally skipping placeholders. Used by floating link resolution.
func (t *Tx) PagesBySortKey(key string, excludePlaceholders bool) ([]PageRow, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE sortkey = ?`
	if excludePlaceholders {
		query += ` AND is_placeholder = 0`
	}
	return t.pageQuery(query+` ORDER BY name`, key)
}

// ChildPosition counts the children of parent sorted strictly before
// the given (sortkey, name) pair, i.e. the row's position in display
// order.
func (t *Tx) ChildPosition(parent int64, key string, name pagename.Path) (int64, error) {
	var n int64
	err := t.q.QueryRow(
		`SELECT COUNT(*) FROM pages WHERE parent = ? AND id <> ? `+
			`AND (sortkey < ? OR (sortkey = ? AND name < ?))`,
		parent, RootPageID, key, key, name,
	).Scan(&n)
	return n, err
}

// ChildAt returns the pos-th child of parent in display order,
// ErrNotFound when out of range.
func (t *Tx) ChildAt(parent int64, pos int64) (*PageRow, error) {
	return scanPageRow(t.q.QueryRow(
		`SELECT `+pageColumns+` FROM pages WHERE parent = ? AND id <> ? `+
			`ORDER BY sortkey, name LIMIT 1 OFFSET ?`,
		parent, RootPageID, pos,
	).Scan)
}

// MatchPages lists children of parent whose basename contains text,
// case folded in Go because LIKE is not unicode aware.
func (t *Tx) MatchPages(parent int64, text string, limit int) ([]PageRow, error) {
	return t.pageQuery(
		`SELECT `+pageColumns+` FROM pages WHERE parent = ? AND lowerbasename LIKE ? `+
			`ORDER BY sortkey, name LIMIT ?`,
		parent, "%"+strings.ToLower(text)+"%", limit,
	)
}

// MatchAllPages is MatchPages without a namespace, shortest names
// first.
func (t *Tx) MatchAllPages(text string, limit int) ([]PageRow, error) {
	return t.pageQuery(
		`SELECT `+pageColumns+` FROM pages WHERE lowerbasename LIKE ? `+
			`ORDER BY length(name), sortkey, name LIMIT ?`,
		"%"+strings.ToLower(text)+"%", limit,
	)
}

// RecentPages lists non-root pages by descending content mtime.
func (t *Tx) RecentPages(limit, offset int) ([]PageRow, error) {
	return t.pageQuery(
		`SELECT `+pageColumns+` FROM pages WHERE id <> ? `+
			`ORDER BY COALESCE(mtime, 0) DESC LIMIT ? OFFSET ?`,
		RootPageID, limit, offset,
	)
}

// CountPages returns the number of pages excluding the root.
func (t *Tx) CountPages() (int64, error) {
	var n int64
	err := t.q.QueryRow(`SELECT COUNT(*) FROM pages WHERE id <> ?`, RootPageID).Scan(&n)
	return n, err
}
