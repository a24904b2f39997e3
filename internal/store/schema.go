package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is recorded in the meta table and checked on open. Any
// mismatch drops and recreates all tables: the index is a derived
// cache, a full re-crawl is always acceptable.
const SchemaVersion = 1

const schemaVersionKey = "schema_version"

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT NOT NULL,
	value TEXT,
	CONSTRAINT meta_once UNIQUE (key)
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY,
	parent INTEGER REFERENCES files(id),

	path TEXT UNIQUE NOT NULL,
	kind INTEGER NOT NULL,
	mtime INTEGER,

	status INTEGER DEFAULT 2
);

CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY,
	parent INTEGER REFERENCES pages(id),
	n_children INTEGER DEFAULT 0,

	name TEXT UNIQUE NOT NULL,
	lowerbasename TEXT NOT NULL,
	sortkey TEXT NOT NULL,
	mtime INTEGER,

	source_file INTEGER REFERENCES files(id),
	is_placeholder BOOLEAN DEFAULT 0,

	CONSTRAINT no_self_ref CHECK (parent <> id)
);
CREATE INDEX IF NOT EXISTS pages_sortkey ON pages(sortkey);
CREATE INDEX IF NOT EXISTS pages_parent ON pages(parent);

CREATE TABLE IF NOT EXISTS links (
	source INTEGER REFERENCES pages(id),
	target INTEGER REFERENCES pages(id),

	rel INTEGER,
	names TEXT,

	anchorkey TEXT,
	needscheck BOOLEAN DEFAULT 0,

	CONSTRAINT link_once UNIQUE (source, rel, names)
);
CREATE INDEX IF NOT EXISTS links_target ON links(target);
CREATE INDEX IF NOT EXISTS links_anchorkey ON links(anchorkey);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	sortkey TEXT NOT NULL,

	CONSTRAINT tag_once UNIQUE (sortkey)
);

CREATE TABLE IF NOT EXISTS tagsources (
	source INTEGER REFERENCES pages(id),
	tag INTEGER REFERENCES tags(id),

	CONSTRAINT tagsource_once UNIQUE (source, tag)
);
`

// createTables creates the schema and seeds the root rows. The root
// page points at the root folder as its source so it never counts as a
// placeholder.
func createTables(tx *sql.Tx) error {
	if _, err := tx.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM files WHERE id = 1`).Scan(&n); err != nil {
		return fmt.Errorf("failed to probe root file row: %w", err)
	}
	if n == 0 {
		res, err := tx.Exec(
			`INSERT INTO files(parent, path, kind, status) VALUES (0, '.', ?, ?)`,
			KindFolder, StatusNeedsUpdate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert root file row: %w", err)
		}
		if id, err := res.LastInsertId(); err != nil || id != RootFileID {
			return fmt.Errorf("%w: files table not empty at init", ErrConsistency)
		}
	}

	if err := tx.QueryRow(`SELECT COUNT(*) FROM pages WHERE id = 1`).Scan(&n); err != nil {
		return fmt.Errorf("failed to probe root page row: %w", err)
	}
	if n == 0 {
		res, err := tx.Exec(
			`INSERT INTO pages(parent, name, lowerbasename, sortkey, source_file) `+
				`VALUES (0, '', '', '', ?)`,
			RootFileID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert root page row: %w", err)
		}
		if id, err := res.LastInsertId(); err != nil || id != RootPageID {
			return fmt.Errorf("%w: pages table not empty at init", ErrConsistency)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO meta(key, value) VALUES (?, ?) `+
			`ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		schemaVersionKey, fmt.Sprint(SchemaVersion),
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// dropTables removes every table so the schema can be recreated.
func dropTables(tx *sql.Tx) error {
	rows, err := tx.Query(
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite%'`,
	)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, name := range tables {
		if _, err := tx.Exec(`DROP TABLE ` + name); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
	}
	return nil
}
