// Package sortkey derives the normalized keys used for ordering and
// matching page and tag names. Keys are case and diacritic insensitive
// and sort embedded numbers naturally ("9" before "10").
package sortkey

import (
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	mu  sync.Mutex
	col = collate.New(language.Und, collate.Loose, collate.Numeric)
	buf collate.Buffer
)

// Key returns the sort key for name. Two names have the same key iff
// they are equal ignoring case, diacritics and number formatting. The
// key is hex encoded so it can be stored and compared as TEXT.
func Key(name string) string {
	name = norm.NFKC.String(strings.TrimSpace(name))

	// The collator is not safe for concurrent use.
	mu.Lock()
	defer mu.Unlock()
	buf.Reset()
	return hex.EncodeToString(col.KeyFromString(&buf, name))
}

// Equal reports whether two names map to the same sort key.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}
