package index_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"leaflet/internal/format"
	"leaflet/internal/index"
	"leaflet/internal/notefs"
	"leaflet/internal/pagename"
	"leaflet/internal/sortkey"
	"leaflet/internal/store"
)

// notebook is a throwaway on-disk notebook plus its index. Writes and
// removals bump the mtime of the touched file and every folder above
// it with a strictly increasing clock, so change detection never
// depends on file system timestamp granularity.
type notebook struct {
	t     *testing.T
	root  string
	ix    *index.Index
	clock time.Time
}

func newNotebook(t *testing.T) *notebook {
	t.Helper()
	root := t.TempDir()
	ix, err := index.Open(filepath.Join(root, ".index.db"), root)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ix.Close() })
	return &notebook{t: t, root: root, ix: ix, clock: time.Now().Add(-time.Hour)}
}

func (nb *notebook) write(rel, content string) {
	nb.t.Helper()
	abs := filepath.Join(nb.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		nb.t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		nb.t.Fatal(err)
	}
	nb.stamp(abs)
}

func (nb *notebook) remove(rel string) {
	nb.t.Helper()
	abs := filepath.Join(nb.root, filepath.FromSlash(rel))
	if err := os.Remove(abs); err != nil {
		nb.t.Fatal(err)
	}
	nb.stamp(filepath.Dir(abs))
}

func (nb *notebook) removeAll(rel string) {
	nb.t.Helper()
	abs := filepath.Join(nb.root, filepath.FromSlash(rel))
	if err := os.RemoveAll(abs); err != nil {
		nb.t.Fatal(err)
	}
	nb.stamp(filepath.Dir(abs))
}

// stamp sets a fresh mtime on abs and every folder up to the root.
func (nb *notebook) stamp(abs string) {
	nb.t.Helper()
	for {
		nb.clock = nb.clock.Add(time.Second)
		if err := os.Chtimes(abs, nb.clock, nb.clock); err != nil {
			nb.t.Fatal(err)
		}
		if abs == nb.root {
			return
		}
		abs = filepath.Dir(abs)
	}
}

func (nb *notebook) update() {
	nb.t.Helper()
	if err := nb.ix.CheckAndUpdate(); err != nil {
		nb.t.Fatal(err)
	}
	nb.checkConsistency()
}

func (nb *notebook) checkConsistency() {
	nb.t.Helper()
	if err := nb.ix.DB().Reader().CheckConsistency(); err != nil {
		nb.t.Error(err)
	}
}

func (nb *notebook) page(name pagename.Path) *store.PageRow {
	nb.t.Helper()
	row, err := nb.ix.DB().Reader().PageByName(name)
	if err != nil {
		nb.t.Fatalf("page %q: %v", name, err)
	}
	return row
}

func (nb *notebook) noPage(name pagename.Path) {
	nb.t.Helper()
	_, err := nb.ix.DB().Reader().PageByName(name)
	if !errors.Is(err, store.ErrNotFound) {
		nb.t.Fatalf("page %q should not exist, got %v", name, err)
	}
}

// dump renders the whole index as sorted strings, row ids excluded, so
// two indexes can be compared structurally.
func (nb *notebook) dump() []string {
	nb.t.Helper()
	tx := nb.ix.DB().Reader()

	var out []string
	byID := map[int64]pagename.Path{store.RootPageID: pagename.Root}
	err := tx.WalkPages(store.RootPageID, func(p store.PageRow) error {
		byID[p.ID] = p.Name
		out = append(out, fmt.Sprintf("page %s content=%v placeholder=%v children=%d",
			p.Name, p.HasContent(), p.Placeholder, p.NChildren))
		return nil
	})
	if err != nil {
		nb.t.Fatal(err)
	}

	for id, name := range byID {
		links, err := tx.LinksFrom(id)
		if err != nil {
			nb.t.Fatal(err)
		}
		for _, l := range links {
			target := byID[l.Target]
			out = append(out, fmt.Sprintf("link %s -> %s as %q pending=%v",
				name, target, l.HRef(), l.NeedsCheck))
		}
		tags, err := tx.TagsForPage(id)
		if err != nil {
			nb.t.Fatal(err)
		}
		for _, tag := range tags {
			out = append(out, fmt.Sprintf("tag %s on %s", tag.Name, name))
		}
	}

	sort.Strings(out)
	return out
}

func TestScenarioPageTree(t *testing.T) {
	nb := newNotebook(t)
	nb.write("foo.md", "top page\n")
	nb.write("foo/sub1.md", "first child\n")
	nb.write("foo/sub2.md", "second child\n")
	nb.update()

	foo := nb.page("foo")
	if !foo.HasContent() || foo.Placeholder || foo.NChildren != 2 {
		t.Errorf("foo = %+v", foo)
	}
	for _, name := range []pagename.Path{"foo:sub1", "foo:sub2"} {
		row := nb.page(name)
		if !row.HasContent() || row.Placeholder {
			t.Errorf("%s = %+v", name, row)
		}
	}

	nb.remove("foo/sub1.md")
	nb.update()

	nb.noPage("foo:sub1")
	if foo = nb.page("foo"); foo.NChildren != 1 {
		t.Errorf("foo.NChildren = %d after removal", foo.NChildren)
	}
}

func TestNamespaceParentWithoutOwnFile(t *testing.T) {
	nb := newNotebook(t)
	nb.write("foo/sub.md", "child only\n")
	nb.update()

	foo := nb.page("foo")
	if foo.HasContent() {
		t.Error("foo has no source file")
	}
	if foo.Placeholder {
		t.Error("foo has a real child and is no placeholder")
	}

	// Removing the child takes the whole branch with it.
	nb.remove("foo/sub.md")
	nb.update()
	nb.noPage("foo:sub")
	nb.noPage("foo")
}

func TestScenarioFloatingLinkPlaceholder(t *testing.T) {
	nb := newNotebook(t)
	nb.write("Bar.md", "See [Dus](Dus).\n")
	nb.update()

	dus := nb.page("Dus")
	if !dus.Placeholder || dus.HasContent() {
		t.Errorf("Dus = %+v", dus)
	}

	tx := nb.ix.DB().Reader()
	links, err := tx.LinksTo(dus.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].Rel != pagename.Floating || links[0].NeedsCheck {
		t.Errorf("links to Dus = %+v", links)
	}
	source, err := tx.PageByID(links[0].Source)
	if err != nil {
		t.Fatal(err)
	}
	if source.Name != "Bar" {
		t.Errorf("link source = %q", source.Name)
	}
}

func TestPlaceholderLifecycle(t *testing.T) {
	nb := newNotebook(t)
	nb.write("Bar.md", "See [Dus](Dus).\n")
	nb.update()

	if !nb.page("Dus").Placeholder {
		t.Fatal("expected placeholder for Dus")
	}

	// The real page appears: the link re-resolves to it.
	nb.write("Dus.md", "now real\n")
	nb.update()

	dus := nb.page("Dus")
	if dus.Placeholder || !dus.HasContent() {
		t.Errorf("Dus = %+v", dus)
	}
	links, err := nb.ix.DB().Reader().LinksTo(dus.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Errorf("links to Dus = %+v", links)
	}

	// Page and link both gone: no trace remains.
	nb.remove("Dus.md")
	nb.write("Bar.md", "no more links\n")
	nb.update()
	nb.noPage("Dus")
}

func TestDeepPlaceholderChain(t *testing.T) {
	nb := newNotebook(t)
	nb.write("Bar.md", "See [deep](:Some:Deep:Page).\n")
	nb.update()

	for _, name := range []pagename.Path{"Some", "Some:Deep", "Some:Deep:Page"} {
		if !nb.page(name).Placeholder {
			t.Errorf("%s should be a placeholder", name)
		}
	}

	// Dropping the link collects the whole chain.
	nb.write("Bar.md", "nothing\n")
	nb.update()
	nb.noPage("Some")
}

func TestFloatingResolvesToClosestNamespace(t *testing.T) {
	nb := newNotebook(t)
	nb.write("Target.md", "top\n")
	nb.write("A/Target.md", "near\n")
	nb.write("A/Source.md", "see [Target](Target)\n")
	nb.update()

	tx := nb.ix.DB().Reader()
	links, err := tx.LinksFrom(nb.page("A:Source").ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("links = %+v", links)
	}
	target, err := tx.PageByID(links[0].Target)
	if err != nil {
		t.Fatal(err)
	}
	if target.Name != "A:Target" {
		t.Errorf("resolved to %q, want the sibling", target.Name)
	}
}

func TestFloatingReanchorsWhenBetterMatchAppears(t *testing.T) {
	nb := newNotebook(t)
	nb.write("Target.md", "top\n")
	nb.write("A/Source.md", "see [Target](Target)\n")
	nb.update()

	tx := nb.ix.DB().Reader()
	links, _ := tx.LinksFrom(nb.page("A:Source").ID)
	target, err := tx.PageByID(links[0].Target)
	if err != nil {
		t.Fatal(err)
	}
	if target.Name != "Target" {
		t.Fatalf("initial resolution = %q", target.Name)
	}

	// A sibling with the anchor name appears. The old target was a
	// real page, not a placeholder, so the edge deliberately stays:
	// re-anchoring only happens for links parked on placeholders.
	nb.write("A/Target.md", "near\n")
	nb.update()
	links, _ = tx.LinksFrom(nb.page("A:Source").ID)
	target, err = tx.PageByID(links[0].Target)
	if err != nil {
		t.Fatal(err)
	}
	if target.Name != "Target" {
		t.Errorf("edge moved to %q", target.Name)
	}
}

func TestFloatingReanchorsFromPlaceholder(t *testing.T) {
	nb := newNotebook(t)
	nb.write("A/Source.md", "see [Target](Target)\n")
	nb.update()

	// No anchor exists anywhere: the reference falls back to a
	// sibling of the source, as a placeholder.
	if !nb.page("A:Target").Placeholder {
		t.Fatal("expected placeholder fallback at the sibling level")
	}

	// A real page with the anchor name appears. The link was parked on
	// a placeholder, so it re-resolves, and the placeholder is
	// collected.
	nb.write("Target.md", "real\n")
	nb.update()

	tx := nb.ix.DB().Reader()
	links, err := tx.LinksFrom(nb.page("A:Source").ID)
	if err != nil {
		t.Fatal(err)
	}
	target, err := tx.PageByID(links[0].Target)
	if err != nil {
		t.Fatal(err)
	}
	if target.Name != "Target" {
		t.Errorf("edge points at %q", target.Name)
	}
	nb.noPage("A:Target")
}

func TestIdempotentUpdate(t *testing.T) {
	nb := newNotebook(t)
	nb.write("foo.md", "hello @todo\n")
	nb.write("foo/sub.md", "[up](foo)\n")
	nb.update()

	var events int
	ev := nb.ix.Events()
	ev.PageInserted = func(*store.PageRow) { events++ }
	ev.PageChanged = func(_, _ *store.PageRow) { events++ }
	ev.PageDeleted = func(*store.PageRow) { events++ }

	before := nb.dump()
	nb.update()
	after := nb.dump()

	if events != 0 {
		t.Errorf("no-op pass fired %d page events", events)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("index changed across no-op pass:\n%v\n%v", before, after)
	}
}

func TestOrderIndependence(t *testing.T) {
	files := map[string]string{
		"Recipes.md":       "See [Pasta](+Pasta) and @cooking\n",
		"Recipes/Pasta.md": "Uses [Tomato](Ingredients:Tomato) @cooking @dinner\n",
		"Ingredients.md":   "index\n",
	}

	// All at once.
	a := newNotebook(t)
	for rel, content := range files {
		a.write(rel, content)
	}
	a.update()

	// One file per pass, in a different order.
	b := newNotebook(t)
	for _, rel := range []string{"Ingredients.md", "Recipes/Pasta.md", "Recipes.md"} {
		b.write(rel, files[rel])
		b.update()
	}

	if got, want := b.dump(), a.dump(); !reflect.DeepEqual(got, want) {
		t.Errorf("final state depends on indexing order:\n%v\n%v", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	files := map[string]string{
		"foo.md":     "[bar](bar) @x\n",
		"bar.md":     "content\n",
		"foo/sub.md": "[missing](Nowhere)\n",
	}
	nb := newNotebook(t)
	for rel, content := range files {
		nb.write(rel, content)
	}
	nb.update()
	want := nb.dump()

	nb.remove("foo/sub.md")
	nb.remove("foo.md")
	nb.remove("bar.md")
	nb.update()

	if got := nb.dump(); len(got) != 0 {
		t.Fatalf("index not empty after removing all files: %v", got)
	}

	for rel, content := range files {
		nb.write(rel, content)
	}
	nb.update()

	if got := nb.dump(); !reflect.DeepEqual(got, want) {
		t.Errorf("recreated index differs:\n%v\n%v", got, want)
	}
}

func TestInterruptedPassResumes(t *testing.T) {
	nb := newNotebook(t)
	nb.write("a.md", "[b](b) @tag\n")
	nb.write("b.md", "[c](c)\n")
	nb.write("sub/c.md", "deep\n")
	nb.update()
	want := nb.dump()

	// Same tree in a fresh notebook, but abandon the first pass after
	// a few units. Every committed unit leaves a consistent index.
	nb2 := newNotebook(t)
	nb2.write("a.md", "[b](b) @tag\n")
	nb2.write("b.md", "[c](c)\n")
	nb2.write("sub/c.md", "deep\n")

	cursor := nb2.ix.UpdateCursor()
	for i := 0; i < 4 && !cursor.Done(); i++ {
		if err := cursor.Step(); err != nil {
			t.Fatal(err)
		}
		nb2.checkConsistency()
	}

	// A later pass picks up the persisted flags and finishes the job.
	nb2.update()
	got := nb2.dump()

	// Ignore the page names used in the want dump coming from nb, not
	// nb2: both trees are identical, so the dumps must match.
	if !reflect.DeepEqual(got, want) {
		t.Errorf("resumed index differs:\n%v\n%v", got, want)
	}
}

func TestContentChangeReindexesLinksAndTags(t *testing.T) {
	nb := newNotebook(t)
	nb.write("page.md", "[one](One) @alpha\n")
	nb.update()

	nb.page("One")
	if _, err := nb.ix.DB().Reader().TagBySortKey(sortkey.Key("alpha")); err != nil {
		t.Fatalf("tag alpha missing: %v", err)
	}

	nb.write("page.md", "[two](Two) @beta\n")
	nb.update()

	nb.noPage("One")
	nb.page("Two")
	tx := nb.ix.DB().Reader()
	if _, err := tx.TagBySortKey(sortkey.Key("alpha")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("tag alpha not collected: %v", err)
	}
	if _, err := tx.TagBySortKey(sortkey.Key("beta")); err != nil {
		t.Errorf("tag beta missing: %v", err)
	}
}

func TestTagSharedAcrossPages(t *testing.T) {
	nb := newNotebook(t)
	nb.write("a.md", "@shared\n")
	nb.write("b.md", "@shared @SHARED\n") // case variants collapse
	nb.update()

	tx := nb.ix.DB().Reader()
	tag, err := tx.TagBySortKey(sortkey.Key("shared"))
	if err != nil {
		t.Fatal(err)
	}
	n, err := tx.CountTagAssignments(tag.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("assignments = %d, want one per page", n)
	}

	// Tag survives losing one page, dies with the last one.
	nb.remove("a.md")
	nb.update()
	if _, err := tx.TagBySortKey(sortkey.Key("shared")); err != nil {
		t.Errorf("tag dropped too early: %v", err)
	}
	nb.remove("b.md")
	nb.update()
	if _, err := tx.TagBySortKey(sortkey.Key("shared")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("tag not collected: %v", err)
	}
}

func TestTouchFile(t *testing.T) {
	nb := newNotebook(t)
	nb.write("existing.md", "here from the start\n")
	nb.update()

	// A new file appears and is touched directly: the page is visible
	// without a crawl.
	nb.write("notes/fresh.md", "[target](existing) @quick\n")
	if err := nb.ix.TouchFile("notes/fresh.md"); err != nil {
		t.Fatal(err)
	}
	nb.page("notes:fresh")
	nb.checkConsistency()

	// Link resolution runs with the next pass.
	if err := nb.ix.Update(); err != nil {
		t.Fatal(err)
	}
	tx := nb.ix.DB().Reader()
	links, err := tx.LinksFrom(nb.page("notes:fresh").ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].NeedsCheck {
		t.Errorf("links = %+v", links)
	}
	nb.checkConsistency()
}

func TestFlagReindexKeepsState(t *testing.T) {
	nb := newNotebook(t)
	nb.write("a.md", "[b](b) @tag\n")
	nb.write("b.md", "plain\n")
	nb.update()
	want := nb.dump()

	if err := nb.ix.FlagReindex(); err != nil {
		t.Fatal(err)
	}
	if err := nb.ix.Update(); err != nil {
		t.Fatal(err)
	}
	nb.checkConsistency()

	if got := nb.dump(); !reflect.DeepEqual(got, want) {
		t.Errorf("reindex changed the index:\n%v\n%v", got, want)
	}
}

func TestDeleteFolderSubtree(t *testing.T) {
	nb := newNotebook(t)
	nb.write("keep.md", "[gone](Gone:Deep)\n")
	nb.write("Gone.md", "parent\n")
	nb.write("Gone/Deep.md", "child\n")
	nb.update()

	if nb.page("Gone:Deep").Placeholder {
		t.Fatal("Gone:Deep should be real")
	}

	nb.remove("Gone.md")
	nb.removeAll("Gone")
	nb.update()

	// The link keeps the names alive as placeholders.
	for _, name := range []pagename.Path{"Gone", "Gone:Deep"} {
		if !nb.page(name).Placeholder {
			t.Errorf("%s should have become a placeholder", name)
		}
	}

	nb.write("keep.md", "no links\n")
	nb.update()
	nb.noPage("Gone")
	nb.noPage("Gone:Deep")
}

func TestAttachmentsAreIgnored(t *testing.T) {
	nb := newNotebook(t)
	nb.write("page.md", "with [attachment](./scan.pdf)\n")
	nb.write("scan.pdf", "%PDF-fake\n")
	nb.update()

	nb.page("page")
	nb.noPage("scan")
	nb.noPage("scan.pdf")

	links, err := nb.ix.DB().Reader().LinksFrom(nb.page("page").ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("file link indexed as page link: %+v", links)
	}
}

// faultyAdapter fails to parse any content containing its marker,
// standing in for a corrupt or unreadable page source.
type faultyAdapter struct {
	format.Adapter
	marker []byte
}

func (a faultyAdapter) Parse(content []byte) (*format.Page, error) {
	if bytes.Contains(content, a.marker) {
		return nil, errors.New("malformed page source")
	}
	return a.Adapter.Parse(content)
}

func TestParseFailureIsIsolated(t *testing.T) {
	root := t.TempDir()
	for rel, content := range map[string]string{
		"good.md":   "fine [link](other)\n",
		"broken.md": "BOOM\n",
		"other.md":  "also fine\n",
	} {
		if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := store.Open(filepath.Join(root, ".index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ix := index.New(db, notefs.NewDirFS(root), faultyAdapter{
		Adapter: format.NewMarkdown(), marker: []byte("BOOM"),
	})

	// One bad page must not abort the pass.
	if err := ix.Update(); err != nil {
		t.Fatal(err)
	}

	tx := db.Reader()
	for _, name := range []pagename.Path{"good", "broken", "other"} {
		if _, err := tx.PageByName(name); err != nil {
			t.Errorf("page %q missing after pass: %v", name, err)
		}
	}
	row, err := tx.PageByName("broken")
	if err != nil {
		t.Fatal(err)
	}
	links, err := tx.LinksFrom(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("failed page indexed with links: %+v", links)
	}

	// And the failure must not spin: the next pass has nothing to do.
	cur := ix.UpdateCursor()
	if err := cur.Step(); err != nil {
		t.Fatal(err)
	}
	if !cur.Done() {
		t.Error("failed page is retried on every pass")
	}
}

// faultyFS fails selected operations, standing in for transient I/O
// errors on single nodes.
type faultyFS struct {
	notefs.FS
	failStat map[string]bool
	failList map[string]bool
}

func (f faultyFS) Stat(rel string) (notefs.Info, error) {
	if f.failStat[rel] {
		return notefs.Info{}, errors.New("transient I/O error")
	}
	return f.FS.Stat(rel)
}

func (f faultyFS) List(rel string) ([]notefs.Entry, error) {
	if f.failList[rel] {
		return nil, errors.New("transient I/O error")
	}
	return f.FS.List(rel)
}

func TestStatFailureIsIsolated(t *testing.T) {
	root := t.TempDir()
	for rel, content := range map[string]string{
		"aaa.md": "one\n",
		"bbb.md": "two\n",
		"ccc.md": "three\n",
	} {
		if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := store.Open(filepath.Join(root, ".index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	fs := faultyFS{
		FS:       notefs.NewDirFS(root),
		failStat: map[string]bool{"bbb.md": true},
	}
	ix := index.New(db, fs, format.NewMarkdown())

	// One unreadable node must not abort the pass.
	if err := ix.Update(); err != nil {
		t.Fatal(err)
	}

	tx := db.Reader()
	for _, name := range []pagename.Path{"aaa", "ccc"} {
		row, err := tx.PageByName(name)
		if err != nil {
			t.Fatalf("page %q missing after pass: %v", name, err)
		}
		if row.Mtime == 0 {
			t.Errorf("page %q was not parsed", name)
		}
	}

	// Nor may it keep the node flagged, or every later pass would
	// re-fail on it.
	file, err := tx.FileByPath("bbb.md")
	if err != nil {
		t.Fatal(err)
	}
	if file.Status != store.StatusUpToDate {
		t.Errorf("failing node left at status %v, will retry every pass", file.Status)
	}

	// Once the fault clears, a check notices the stale mtime and the
	// content gets indexed after all.
	fs.failStat["bbb.md"] = false
	if err := ix.CheckAndUpdate(); err != nil {
		t.Fatal(err)
	}
	row, err := tx.PageByName("bbb")
	if err != nil {
		t.Fatal(err)
	}
	if row.Mtime == 0 {
		t.Error("page not indexed after the fault cleared")
	}
}

func TestListFailureIsIsolated(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	for rel, content := range map[string]string{
		"top.md":       "top\n",
		"Sub/inner.md": "inner\n",
	} {
		if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := store.Open(filepath.Join(root, ".index.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	fs := faultyFS{
		FS:       notefs.NewDirFS(root),
		failList: map[string]bool{"Sub": true},
	}
	ix := index.New(db, fs, format.NewMarkdown())

	if err := ix.Update(); err != nil {
		t.Fatal(err)
	}

	tx := db.Reader()
	if _, err := tx.PageByName("top"); err != nil {
		t.Fatalf("sibling of the failing folder missing: %v", err)
	}
	folder, err := tx.FileByPath("Sub")
	if err != nil {
		t.Fatal(err)
	}
	if folder.Status != store.StatusUpToDate {
		t.Errorf("failing folder left at status %v", folder.Status)
	}

	fs.failList["Sub"] = false
	if err := ix.CheckAndUpdate(); err != nil {
		t.Fatal(err)
	}
	if _, err := tx.PageByName("Sub:inner"); err != nil {
		t.Errorf("folder content not indexed after the fault cleared: %v", err)
	}
}

func TestFolderInsertEventFires(t *testing.T) {
	nb := newNotebook(t)
	var inserted []string
	nb.ix.Events().FileInserted = func(f *store.FileRow) {
		inserted = append(inserted, f.Path)
	}
	nb.write("Folder/page.md", "hi\n")
	nb.update()

	seen := make(map[string]bool, len(inserted))
	for _, p := range inserted {
		seen[p] = true
	}
	if !seen["Folder"] || !seen["Folder/page.md"] {
		t.Errorf("inserted events = %v, want both the folder and the file row", inserted)
	}
}
