package sortkey

import (
	"sync"
	"testing"
)

func TestKeyCaseInsensitive(t *testing.T) {
	if !Equal("Foo", "FOO") {
		t.Error("expected case insensitive keys")
	}
	if !Equal("foo", "Foo") {
		t.Error("expected case insensitive keys")
	}
	if Equal("foo", "bar") {
		t.Error("different names must not collide")
	}
}

func TestKeyIgnoresDiacritics(t *testing.T) {
	if !Equal("café", "cafe") {
		t.Error("expected diacritic insensitive keys")
	}
}

func TestKeyTrimsWhitespace(t *testing.T) {
	if !Equal(" foo ", "foo") {
		t.Error("expected surrounding whitespace to be ignored")
	}
}

func TestKeyNumericOrder(t *testing.T) {
	// Keys are hex encoded, so plain string comparison follows
	// collation order.
	if !(Key("page 9") < Key("page 10")) {
		t.Error("expected numeric ordering of embedded numbers")
	}
	if !(Key("2") < Key("11")) {
		t.Error("expected numeric ordering")
	}
}

func TestKeyConcurrent(t *testing.T) {
	want := Key("concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := Key("concurrent"); got != want {
					t.Errorf("key changed under concurrency: %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
