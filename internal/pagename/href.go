package pagename

import "strings"

// Rel classifies how a link reference anchors to the page tree.
// The values are stored in the links table, do not reorder.
type Rel int

const (
	// Abs resolves from the root, written ":Foo:Bar".
	Abs Rel = iota
	// Floating resolves by searching upward from the source, written "Foo".
	Floating
	// Relative resolves as a direct child of the source, written "+Foo".
	Relative
)

func (r Rel) String() string {
	switch r {
	case Abs:
		return "absolute"
	case Floating:
		return "floating"
	case Relative:
		return "relative"
	}
	return "unknown"
}

// HRef is a link reference as written in page content: a relation plus
// the raw name path, without an end point. Resolution against the index
// turns it into a Path.
type HRef struct {
	Rel   Rel
	Names Path
}

// ParseLink parses a wiki link reference. A leading ":" marks an
// absolute reference, a leading "+" a relative one, anything else
// floats. A "#fragment" suffix is dropped.
func ParseLink(href string) (HRef, error) {
	href = strings.TrimSpace(href)

	rel := Floating
	switch {
	case strings.HasPrefix(href, Sep):
		rel = Abs
	case strings.HasPrefix(href, "+"):
		rel = Relative
		href = href[1:]
	}

	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}

	names, err := ValidName(href)
	if err != nil {
		return HRef{}, err
	}
	return HRef{Rel: rel, Names: names}, nil
}

// Parts splits the raw name path.
func (h HRef) Parts() []string {
	return h.Names.Parts()
}

// Anchor is the first part of the name path, the search key for
// floating resolution.
func (h HRef) Anchor() string {
	parts := h.Names.Parts()
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// String renders the reference back in wiki syntax.
func (h HRef) String() string {
	switch h.Rel {
	case Abs:
		return Sep + string(h.Names)
	case Relative:
		return "+" + string(h.Names)
	default:
		return string(h.Names)
	}
}
