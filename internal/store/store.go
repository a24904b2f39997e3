// Package store is the embedded relational store behind the index:
// a single SQLite database holding the files, pages, links and tags
// tables plus a small meta table for schema bookkeeping. All SQL in
// the engine lives in this package.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"
)

// DB wraps the SQLite connection. All mutation goes through WithTx so
// every work unit commits its own transaction; reads go through
// Reader.
type DB struct {
	conn *sql.DB
	log  commonlog.Logger
}

// Open opens or creates the index database at path (":memory:" for an
// in-memory index). The recorded schema version is checked and on any
// mismatch, missing table or corruption the whole schema is dropped
// and recreated, which forces a full re-crawl.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// The engine is single threaded by design; a second connection
	// would only invite lock contention.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, log: commonlog.GetLogger("store")}
	if err := db.setup(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}
	return db, nil
}

func (db *DB) setup() error {
	version, err := db.schemaVersion()
	if err != nil || version != fmt.Sprint(SchemaVersion) {
		if err == nil {
			db.log.Infof("schema version %q out of date, rebuilding index", version)
		}
		return db.Rebuild()
	}
	// Make sure the tables really are there; a partially written
	// database file is treated like a version mismatch.
	return db.WithTx(func(tx *Tx) error {
		return createTables(tx.tx)
	})
}

func (db *DB) schemaVersion() (string, error) {
	var value string
	err := db.conn.QueryRow(
		`SELECT value FROM meta WHERE key = ?`, schemaVersionKey,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return value, nil
}

// Rebuild drops all data and recreates an empty schema. Used on
// version mismatch and on corruption; the index is fully derivable
// from the file tree so nothing is lost.
func (db *DB) Rebuild() error {
	return db.WithTx(func(tx *Tx) error {
		if err := dropTables(tx.tx); err != nil {
			return err
		}
		return createTables(tx.tx)
	})
}

// WithTx runs one unit of work in its own transaction.
func (db *DB) WithTx(fn func(tx *Tx) error) error {
	sqltx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqltx.Rollback()

	if err := fn(&Tx{q: sqltx, tx: sqltx}); err != nil {
		return err
	}
	if err := sqltx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reader returns a Tx for read-only use outside any transaction, as
// used by the query views. Nothing enforces read-only-ness beyond
// convention, the same as handing out the connection.
func (db *DB) Reader() *Tx {
	return &Tx{q: db.conn}
}

// Meta reads one key from the meta table, "" when absent.
func (db *DB) Meta(key string) (string, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read meta %q: %w", key, err)
	}
	return value, nil
}

// SetMeta writes one key to the meta table.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO meta(key, value) VALUES (?, ?) `+
			`ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write meta %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Tx exposes the typed row operations. Inside WithTx it is backed by a
// transaction; from Reader it is backed by the plain connection.
type Tx struct {
	q  querier
	tx *sql.Tx
}
