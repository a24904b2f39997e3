package format

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"leaflet/internal/pagename"
)

// PageExtension marks page source files.
const PageExtension = ".md"

// tagPattern matches "@name" tags in running text.
var tagPattern = regexp.MustCompile(`(?:^|\s)@([\p{L}\p{N}_]+)`)

// Markdown is the default page format: pages are markdown files, page
// links are markdown links whose destination is a page reference, and
// tags are "@name" tokens in the text.
type Markdown struct {
	md goldmark.Markdown
}

func NewMarkdown() *Markdown {
	return &Markdown{md: goldmark.New()}
}

// MapFilePath maps "Projects/My_Page.md" to "Projects:My Page".
// Underscores decode to spaces, the way page names encode to file
// names. Anything that is not a well formed ".md" path is an
// attachment.
func (m *Markdown) MapFilePath(relpath string) (pagename.Path, bool) {
	if path.Ext(relpath) != PageExtension {
		return pagename.Root, false
	}
	trimmed := strings.TrimSuffix(relpath, PageExtension)

	var parts []string
	for _, seg := range strings.Split(trimmed, "/") {
		parts = append(parts, decodeBasename(seg))
	}
	name, err := pagename.ValidName(strings.Join(parts, pagename.Sep))
	if err != nil {
		return pagename.Root, false
	}
	// Mapping must be lossless or two files could claim one page.
	if EncodePath(name) != relpath {
		return pagename.Root, false
	}
	return name, true
}

// EncodePath is the inverse mapping, used when a host wants to know
// which file backs a page name.
func EncodePath(name pagename.Path) string {
	parts := name.Parts()
	for i, p := range parts {
		parts[i] = encodeBasename(p)
	}
	return strings.Join(parts, "/") + PageExtension
}

func decodeBasename(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func encodeBasename(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}

// Parse walks the markdown AST collecting link references and tags.
// External links (anything with a URL scheme) and file links are not
// page links and are skipped, as are malformed references.
func (m *Markdown) Parse(content []byte) (*Page, error) {
	doc := m.md.Parser().Parse(text.NewReader(content))

	page := &Page{}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			if href, ok := parsePageLink(string(node.Destination)); ok {
				page.Links = append(page.Links, href)
			}
		case *ast.Text:
			if insideCode(node) {
				break
			}
			seg := node.Segment.Value(content)
			for _, match := range tagPattern.FindAllSubmatch(seg, -1) {
				page.Tags = append(page.Tags, string(match[1]))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk markdown tree: %w", err)
	}
	return page, nil
}

func parsePageLink(dest string) (pagename.HRef, bool) {
	if dest == "" ||
		strings.Contains(dest, "://") ||
		strings.HasPrefix(dest, "mailto:") ||
		strings.HasPrefix(dest, "./") ||
		strings.HasPrefix(dest, "../") {
		return pagename.HRef{}, false
	}
	href, err := pagename.ParseLink(dest)
	if err != nil {
		return pagename.HRef{}, false
	}
	return href, true
}

func insideCode(n ast.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case ast.KindCodeSpan, ast.KindCodeBlock, ast.KindFencedCodeBlock:
			return true
		}
	}
	return false
}
