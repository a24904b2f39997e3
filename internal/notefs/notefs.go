// Package notefs is the file-system adapter consumed by the index
// engine. Paths are relative to the notebook root, use forward slashes
// and "." for the root itself.
package notefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Info describes one path. A missing path is reported with Exists false
// and a nil error; errors are reserved for real I/O failures.
type Info struct {
	Exists bool
	IsDir  bool
	Mtime  time.Time
}

// Entry is one child of a listed folder.
type Entry struct {
	Name  string
	IsDir bool
	Mtime time.Time
}

// FS is the minimal file-system surface the engine needs. One Stat or
// Read per work unit, nothing more.
type FS interface {
	Stat(rel string) (Info, error)
	List(rel string) ([]Entry, error)
	Read(rel string) ([]byte, error)
}

// DirFS serves a notebook rooted at a directory on the OS file system.
// Hidden entries (dot prefixed) are invisible, which keeps the index
// database itself out of the index.
type DirFS struct {
	root string
}

func NewDirFS(root string) *DirFS {
	return &DirFS{root: root}
}

func (d *DirFS) abs(rel string) string {
	return filepath.Join(d.root, filepath.FromSlash(rel))
}

func (d *DirFS) Stat(rel string) (Info, error) {
	fi, err := os.Stat(d.abs(rel))
	if os.IsNotExist(err) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	return Info{Exists: true, IsDir: fi.IsDir(), Mtime: fi.ModTime()}, nil
}

func (d *DirFS) List(rel string) ([]Entry, error) {
	entries, err := os.ReadDir(d.abs(rel))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", rel, err)
	}

	var out []Entry
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue // entry disappeared mid-listing
		}
		out = append(out, Entry{Name: e.Name(), IsDir: e.IsDir(), Mtime: fi.ModTime()})
	}
	return out, nil
}

func (d *DirFS) Read(rel string) ([]byte, error) {
	content, err := os.ReadFile(d.abs(rel))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return content, nil
}
