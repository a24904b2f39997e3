// Package format is the page-format adapter consumed by the index
// engine: it decides which files hold page content, and extracts link
// references and tags from that content.
package format

import "leaflet/internal/pagename"

// Page is the parsed content of one page, reduced to what the index
// needs to know.
type Page struct {
	Links []pagename.HRef
	Tags  []string
}

// Adapter maps files to logical pages and parses page sources.
type Adapter interface {
	// MapFilePath maps a file path relative to the notebook root to a
	// page name. The second return is false for attachments and other
	// files that hold no page content.
	MapFilePath(relpath string) (pagename.Path, bool)

	// Parse extracts links and tags from page content.
	Parse(content []byte) (*Page, error)
}
