package store

import (
	"database/sql"
	"fmt"
	"strings"
)

const fileColumns = `id, parent, path, kind, COALESCE(mtime, 0), status`

func scanFile(row *sql.Row) (*FileRow, error) {
	var f FileRow
	err := row.Scan(&f.ID, &f.Parent, &f.Path, &f.Kind, &f.Mtime, &f.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan file row: %w", err)
	}
	return &f, nil
}

// FileByID looks up one file row, ErrNotFound when absent.
func (t *Tx) FileByID(id int64) (*FileRow, error) {
	return scanFile(t.q.QueryRow(
		`SELECT `+fileColumns+` FROM files WHERE id = ?`, id))
}

// FileByPath looks up one file row by relative path.
func (t *Tx) FileByPath(path string) (*FileRow, error) {
	return scanFile(t.q.QueryRow(
		`SELECT `+fileColumns+` FROM files WHERE path = ?`, path))
}

// InsertFile adds a new file or folder row and returns it.
func (t *Tx) InsertFile(parent int64, path string, kind Kind, status Status) (*FileRow, error) {
	res, err := t.q.Exec(
		`INSERT INTO files(parent, path, kind, status) VALUES (?, ?, ?, ?)`,
		parent, path, kind, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert file %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &FileRow{ID: id, Parent: parent, Path: path, Kind: kind, Status: status}, nil
}

// FileChildren lists the direct children of a folder row.
func (t *Tx) FileChildren(parent int64) ([]FileRow, error) {
	rows, err := t.q.Query(
		`SELECT `+fileColumns+` FROM files WHERE parent = ? AND id <> ?`,
		parent, RootFileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list file children: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.ID, &f.Parent, &f.Path, &f.Kind, &f.Mtime, &f.Status); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// SetFileUpToDate clears the staleness flag and records the observed
// mtime in one go.
func (t *Tx) SetFileUpToDate(id int64, mtime int64) error {
	_, err := t.q.Exec(
		`UPDATE files SET status = ?, mtime = ? WHERE id = ?`,
		StatusUpToDate, mtime, id,
	)
	return err
}

// SetFileStatus overwrites the status unconditionally.
func (t *Tx) SetFileStatus(id int64, status Status) error {
	_, err := t.q.Exec(`UPDATE files SET status = ? WHERE id = ?`, status, id)
	return err
}

// RaiseFileStatus sets the status only when the new value has higher
// priority, so a pending flag is never downgraded.
func (t *Tx) RaiseFileStatus(id int64, status Status) error {
	_, err := t.q.Exec(
		`UPDATE files SET status = ? WHERE id = ? AND status < ?`,
		status, id, status,
	)
	return err
}

// RaiseSubtreeStatus raises the status of a folder's whole persisted
// subtree, used for recursive checks. The intent survives restarts
// because it lives in the status column itself.
func (t *Tx) RaiseSubtreeStatus(path string, status Status) error {
	var err error
	if path == "." {
		_, err = t.q.Exec(
			`UPDATE files SET status = ? WHERE status < ?`, status, status)
	} else {
		_, err = t.q.Exec(
			`UPDATE files SET status = ? WHERE (path = ? OR path LIKE ? ESCAPE '\') AND status < ?`,
			status, path, likeEscape(path)+"/%", status,
		)
	}
	return err
}

// likeEscape quotes LIKE wildcards so a path with "_" or "%" in it
// matches literally.
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// NextFileForUpdate returns the next row pending an update pass:
// folders before files, ancestors before descendants, so parent rows
// always exist before their children are examined.
func (t *Tx) NextFileForUpdate() (*FileRow, error) {
	return scanFile(t.q.QueryRow(
		`SELECT ` + fileColumns + ` FROM files WHERE status >= 2 ORDER BY kind, id LIMIT 1`))
}

// NextFileForCheck returns the next row with any pending flag, in the
// same order as NextFileForUpdate.
func (t *Tx) NextFileForCheck() (*FileRow, error) {
	return scanFile(t.q.QueryRow(
		`SELECT ` + fileColumns + ` FROM files WHERE status > 0 ORDER BY kind, id LIMIT 1`))
}

// HasPendingFileUpdates reports whether any row awaits update.
func (t *Tx) HasPendingFileUpdates() (bool, error) {
	var n int
	err := t.q.QueryRow(`SELECT COUNT(*) FROM files WHERE status >= 2`).Scan(&n)
	return n > 0, err
}

// DeleteFileRow removes one row from the files table.
func (t *Tx) DeleteFileRow(id int64) error {
	_, err := t.q.Exec(`DELETE FROM files WHERE id = ?`, id)
	return err
}

// FlagPageSourcesForUpdate raises every file row to needs-update,
// forcing a re-parse of all page content on the next pass.
func (t *Tx) FlagPageSourcesForUpdate() error {
	_, err := t.q.Exec(
		`UPDATE files SET status = ? WHERE kind = ? AND status < ?`,
		StatusNeedsUpdate, KindFile, StatusNeedsUpdate,
	)
	return err
}
