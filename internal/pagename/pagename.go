// Package pagename implements the colon-delimited hierarchical page
// names used throughout the index, and the link references that point
// between them.
package pagename

import (
	"fmt"
	"strings"
)

// Path is a page name like "Journal:2026:August". The empty string is
// the notebook root.
type Path string

// Root is the top of the page tree.
const Root Path = ""

// Sep separates name parts.
const Sep = ":"

func (p Path) IsRoot() bool {
	return p == Root
}

// Basename returns the last part of the name, or "" for the root.
func (p Path) Basename() string {
	if i := strings.LastIndex(string(p), Sep); i >= 0 {
		return string(p)[i+1:]
	}
	return string(p)
}

// Parent returns the namespace containing p. The root is its own parent.
func (p Path) Parent() Path {
	if i := strings.LastIndex(string(p), Sep); i >= 0 {
		return Path(string(p)[:i])
	}
	return Root
}

// Child returns the name of a direct child of p.
func (p Path) Child(basename string) Path {
	if p.IsRoot() {
		return Path(basename)
	}
	return Path(string(p) + Sep + basename)
}

// Parts splits the name into its basenames, nil for the root.
func (p Path) Parts() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(string(p), Sep)
}

// Depth is the number of separators in the name: 0 for a top level
// page, 1 for its children, and so on.
func (p Path) Depth() int {
	return strings.Count(string(p), Sep)
}

// IsChildOf reports whether p is strictly below other.
func (p Path) IsChildOf(other Path) bool {
	if other.IsRoot() {
		return !p.IsRoot()
	}
	return strings.HasPrefix(string(p), string(other)+Sep)
}

// RelativeTo returns the name of p relative to ancestor. It is only
// valid when p.IsChildOf(ancestor).
func (p Path) RelativeTo(ancestor Path) string {
	if ancestor.IsRoot() {
		return string(p)
	}
	return strings.TrimPrefix(string(p), string(ancestor)+Sep)
}

// Ancestors returns the chain of namespaces above p, closest first,
// ending with the root.
func (p Path) Ancestors() []Path {
	var out []Path
	for !p.IsRoot() {
		p = p.Parent()
		out = append(out, p)
	}
	return out
}

// CommonAncestor returns the deepest namespace containing both paths.
func CommonAncestor(a, b Path) Path {
	ap, bp := a.Parts(), b.Parts()
	var common []string
	for i := 0; i < len(ap) && i < len(bp); i++ {
		if ap[i] != bp[i] {
			break
		}
		common = append(common, ap[i])
	}
	return Path(strings.Join(common, Sep))
}

// invalidChars may not appear in a name part. Mostly characters that
// conflict with the wiki link syntax or with file name mapping.
const invalidChars = "?#/\\*\"<>|\t\n\r"

// ValidName normalizes user or link supplied input to a well formed
// name: surrounding whitespace is stripped per part, redundant
// separators collapse, and an empty result is an error.
func ValidName(s string) (Path, error) {
	var parts []string
	for _, part := range strings.Split(s, Sep) {
		part = strings.Join(strings.Fields(part), " ")
		if part == "" {
			continue
		}
		if strings.ContainsAny(part, invalidChars) {
			return Root, fmt.Errorf("invalid character in page name %q", s)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return Root, fmt.Errorf("page name reduces to empty string: %q", s)
	}
	return Path(strings.Join(parts, Sep)), nil
}
