package store

import (
	"database/sql"
	"fmt"

	"leaflet/internal/pagename"
)

const linkColumns = `source, target, rel, names, anchorkey, needscheck`

func (t *Tx) linkQuery(query string, args ...any) ([]LinkRow, error) {
	rows, err := t.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		if err := rows.Scan(&l.Source, &l.Target, &l.Rel, &l.Names, &l.AnchorKey, &l.NeedsCheck); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// InsertLink records one extracted reference. The target is the root
// sentinel until resolution runs. Re-extracting the same reference
// from the same page is a no-op.
func (t *Tx) InsertLink(source int64, href pagename.HRef, anchorKey string) error {
	_, err := t.q.Exec(
		`INSERT OR IGNORE INTO links(source, target, rel, names, anchorkey, needscheck) `+
			`VALUES (?, ?, ?, ?, ?, 1)`,
		source, RootPageID, href.Rel, href.Names, anchorKey,
	)
	if err != nil {
		return fmt.Errorf("failed to insert link from %d: %w", source, err)
	}
	return nil
}

// DeleteLinksFrom drops all outgoing edges of a page.
func (t *Tx) DeleteLinksFrom(source int64) error {
	_, err := t.q.Exec(`DELETE FROM links WHERE source = ?`, source)
	return err
}

// RetargetLinks repoints all incoming edges of oldTarget at the root
// sentinel and flags them for re-resolution, so no edge ever dangles.
func (t *Tx) RetargetLinks(oldTarget int64) error {
	_, err := t.q.Exec(
		`UPDATE links SET target = ?, needscheck = 1 WHERE target = ?`,
		RootPageID, oldTarget,
	)
	return err
}

// FlagFloatingLinks flags floating links whose anchor matches key and
// which currently point at a placeholder: a page just appeared that
// may be a better match.
func (t *Tx) FlagFloatingLinks(anchorKey string) error {
	// Subquery because SQLite has no JOIN in UPDATE.
	_, err := t.q.Exec(
		`UPDATE links SET needscheck = 1 `+
			`WHERE rel = ? AND anchorkey = ? AND target IN `+
			`(SELECT id FROM pages WHERE is_placeholder = 1)`,
		pagename.Floating, anchorKey,
	)
	return err
}

// NextLinkForCheck returns one link awaiting (re)resolution, in a
// stable order, or ErrNotFound.
func (t *Tx) NextLinkForCheck() (*LinkRow, error) {
	var l LinkRow
	err := t.q.QueryRow(
		`SELECT ` + linkColumns + ` FROM links WHERE needscheck = 1 ` +
			`ORDER BY anchorkey, names LIMIT 1`,
	).Scan(&l.Source, &l.Target, &l.Rel, &l.Names, &l.AnchorKey, &l.NeedsCheck)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// HasLinksForCheck reports whether any link still needs resolution.
func (t *Tx) HasLinksForCheck() (bool, error) {
	var n int
	err := t.q.QueryRow(`SELECT COUNT(*) FROM links WHERE needscheck = 1`).Scan(&n)
	return n > 0, err
}

// SetLinkTarget resolves one link.
func (t *Tx) SetLinkTarget(l *LinkRow, target int64) error {
	_, err := t.q.Exec(
		`UPDATE links SET target = ?, needscheck = 0 `+
			`WHERE source = ? AND rel = ? AND names = ?`,
		target, l.Source, l.Rel, l.Names,
	)
	return err
}

// GhostLinkSource returns one page that still has outgoing links but
// no longer any content, or ErrNotFound. Its links are stale and must
// be dropped.
func (t *Tx) GhostLinkSource() (*PageRow, error) {
	return scanPageRow(t.q.QueryRow(
		`SELECT DISTINCT ` + prefixedPageColumns("pages") + ` FROM pages ` +
			`INNER JOIN links ON pages.id = links.source ` +
			`WHERE pages.source_file IS NULL LIMIT 1`).Scan)
}

// UnreferencedPlaceholder returns one placeholder page that no link
// targets and that has no children, or ErrNotFound. Such pages have
// lost their reason to exist.
func (t *Tx) UnreferencedPlaceholder() (*PageRow, error) {
	return scanPageRow(t.q.QueryRow(
		`SELECT ` + prefixedPageColumns("pages") + ` FROM pages ` +
			`LEFT JOIN links ON pages.id = links.target ` +
			`WHERE pages.is_placeholder = 1 AND pages.n_children = 0 ` +
			`AND links.source IS NULL LIMIT 1`).Scan)
}

// CountLinksTo counts incoming edges, excluding the root sentinel
// source used while placeholders are being set up.
func (t *Tx) CountLinksTo(target int64) (int64, error) {
	var n int64
	err := t.q.QueryRow(
		`SELECT COUNT(*) FROM links WHERE target = ? AND source <> ?`,
		target, RootPageID,
	).Scan(&n)
	return n, err
}

// LinksFrom lists the outgoing edges of a page.
func (t *Tx) LinksFrom(source int64) ([]LinkRow, error) {
	return t.linkQuery(
		`SELECT `+linkColumns+` FROM links WHERE source = ?`, source)
}

// LinksTo lists the incoming edges of a page.
func (t *Tx) LinksTo(target int64) ([]LinkRow, error) {
	return t.linkQuery(
		`SELECT `+linkColumns+` FROM links WHERE target = ? AND source <> ?`,
		target, RootPageID,
	)
}

// FloatingLinksByAnchor lists all floating edges anchored on key.
func (t *Tx) FloatingLinksByAnchor(key string) ([]LinkRow, error) {
	return t.linkQuery(
		`SELECT DISTINCT `+linkColumns+` FROM links WHERE rel = ? AND anchorkey = ?`,
		pagename.Floating, key,
	)
}

func prefixedPageColumns(table string) string {
	return table + `.id, ` + table + `.parent, ` + table + `.name, ` +
		table + `.sortkey, COALESCE(` + table + `.mtime, 0), ` +
		`COALESCE(` + table + `.source_file, 0), ` +
		table + `.is_placeholder, ` + table + `.n_children`
}
