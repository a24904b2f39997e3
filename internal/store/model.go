package store

import (
	"leaflet/internal/pagename"
)

// Status tracks how stale a file node is. Higher values take priority:
// when two passes flag the same node, the higher status wins.
type Status int

const (
	StatusUpToDate Status = iota
	StatusNeedsCheck
	StatusNeedsUpdate
	StatusNeedsDeletion
)

func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up-to-date"
	case StatusNeedsCheck:
		return "needs-check"
	case StatusNeedsUpdate:
		return "needs-update"
	case StatusNeedsDeletion:
		return "needs-deletion"
	}
	return "unknown"
}

// Kind distinguishes folders from files. Folders sort first so a pass
// always indexes structure before contents.
type Kind int

const (
	KindFolder Kind = 1
	KindFile   Kind = 2
)

// Root row ids. The schema seeds both tables with a distinguished root
// whose primary key is 1.
const (
	RootFileID = 1
	RootPageID = 1
)

// FileRow is one row of the files table: a file or folder under the
// notebook root, identified by its relative path ("." for the root).
type FileRow struct {
	ID     int64
	Parent int64
	Path   string
	Kind   Kind
	Mtime  int64 // unix nanoseconds, 0 when never indexed
	Status Status
}

// PageRow is one row of the pages table.
type PageRow struct {
	ID          int64
	Parent      int64
	Name        pagename.Path
	SortKey     string
	Mtime       int64 // unix nanoseconds, 0 when no content indexed
	SourceFile  int64 // files.id backing this page, 0 when none
	Placeholder bool
	NChildren   int64
}

// HasContent reports whether the page is backed by a source file.
func (r PageRow) HasContent() bool {
	return r.SourceFile != 0
}

// Exists reports whether the page exists from the user's point of
// view: it is not merely a placeholder kept alive by links.
func (r PageRow) Exists() bool {
	return !r.Placeholder
}

// LinkRow is one row of the links table, uniquely keyed by
// (source, rel, names). Target always points at a real row; while a
// link awaits (re)resolution it points at the root sentinel.
type LinkRow struct {
	Source     int64
	Target     int64
	Rel        pagename.Rel
	Names      pagename.Path
	AnchorKey  string
	NeedsCheck bool
}

// HRef reconstructs the reference this row was extracted from.
func (l LinkRow) HRef() pagename.HRef {
	return pagename.HRef{Rel: l.Rel, Names: l.Names}
}

// TagRow is one row of the tags table, unique by sort key.
type TagRow struct {
	ID      int64
	Name    string
	SortKey string
}
