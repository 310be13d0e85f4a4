package comic

import (
	"reflect"
	"testing"
)

func TestNewDerivesMetadata(t *testing.T) {
	c := New("coverF_001.jpg")
	if c.ID() == "" {
		t.Fatal("expected a generated id")
	}
	if c.Author() != "coverF_001" || c.Title() != "coverF_001" {
		t.Errorf("metadata = (%q, %q), want filename without extension", c.Author(), c.Title())
	}
	if c.CoverFull() != "coverF_001.jpg" {
		t.Errorf("coverFull = %q", c.CoverFull())
	}
}

func TestAddFileEvictsOccupiedSlot(t *testing.T) {
	c := New("coverF_001.jpg")
	evicted := c.AddFile("coverF_002.jpg")
	if evicted != "coverF_001.jpg" {
		t.Errorf("evicted = %q, want coverF_001.jpg", evicted)
	}
	if c.CoverFull() != "coverF_002.jpg" {
		t.Errorf("coverFull = %q, want coverF_002.jpg", c.CoverFull())
	}
}

func TestAddFileIgnoresUnclassifiable(t *testing.T) {
	c := New("page_001.jpg")
	var notified int
	c.Subscribe(func() { notified++ })
	if ev := c.AddFile("README.md"); ev != "" {
		t.Errorf("evicted = %q, want empty", ev)
	}
	if notified != 0 {
		t.Errorf("unclassifiable add notified %d times", notified)
	}
	if got := c.Files(); len(got) != 1 {
		t.Errorf("files = %v", got)
	}
}

func TestAddFileDeduplicatesPages(t *testing.T) {
	c := New("page_001.jpg")
	c.AddFile("page_001.jpg")
	if got := c.Files(); len(got) != 1 {
		t.Errorf("files = %v, want one page", got)
	}
}

func TestPagesNumericOrder(t *testing.T) {
	c := New("page_9.jpg")
	c.AddFile("page_10.jpg")
	c.AddFile("page_2.jpg")
	want := []string{"page_2.jpg", "page_9.jpg", "page_10.jpg"}
	if got := c.Pages(); !reflect.DeepEqual(got, want) {
		t.Errorf("pages = %v, want %v", got, want)
	}
}

func TestFilesDerivedRoleOrder(t *testing.T) {
	c := New("page_002.jpg")
	c.AddFile("coverS_001.jpg")
	c.AddFile("coverA_001.jpg")
	c.AddFile("coverF_001.jpg")
	c.AddFile("page_001.jpg")
	want := []string{"coverA_001.jpg", "coverF_001.jpg", "coverS_001.jpg", "page_001.jpg", "page_002.jpg"}
	if got := c.Files(); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestRemoveFile(t *testing.T) {
	c := New("coverA_001.jpg")
	c.AddFile("page_001.jpg")

	var notified int
	c.Subscribe(func() { notified++ })

	c.RemoveFile("coverA_001.jpg")
	if c.CoverAlbum() != "" {
		t.Errorf("coverAlbum = %q, want empty", c.CoverAlbum())
	}
	c.RemoveFile("page_001.jpg")
	if len(c.Files()) != 0 {
		t.Errorf("files = %v, want empty", c.Files())
	}
	if notified != 2 {
		t.Errorf("notified %d times, want 2", notified)
	}

	// Absent filename is a silent no-op.
	c.RemoveFile("page_099.jpg")
	if notified != 2 {
		t.Errorf("no-op removal notified")
	}
}

func TestMergeConflictSymmetric(t *testing.T) {
	a := New("coverF_001.jpg")
	b := New("coverF_002.jpg")
	if !a.MergeConflict(b) || !b.MergeConflict(a) {
		t.Error("both hold coverFull, expected conflict in both directions")
	}

	c := New("page_001.jpg")
	if a.MergeConflict(c) || c.MergeConflict(a) {
		t.Error("pages never conflict")
	}

	d := New("coverA_001.jpg")
	if a.MergeConflict(d) || d.MergeConflict(a) {
		t.Error("different slots do not conflict")
	}
}

func TestMergeTransfersAndEmptiesSource(t *testing.T) {
	dst := New("coverA_001.jpg")
	src := New("coverF_001.jpg")
	src.AddFile("page_001.jpg")
	src.AddFile("page_002.jpg")

	var dstNotified, srcNotified int
	dst.Subscribe(func() { dstNotified++ })
	src.Subscribe(func() { srcNotified++ })

	evicted := dst.Merge(src)
	if len(evicted) != 0 {
		t.Errorf("evicted = %v, want none", evicted)
	}
	want := []string{"coverA_001.jpg", "coverF_001.jpg", "page_001.jpg", "page_002.jpg"}
	if got := dst.Files(); !reflect.DeepEqual(got, want) {
		t.Errorf("dst files = %v, want %v", got, want)
	}
	if len(src.Files()) != 0 {
		t.Errorf("src files = %v, want empty", src.Files())
	}
	if dstNotified != 1 {
		t.Errorf("dst notified %d times, want exactly one batched notification", dstNotified)
	}
	if srcNotified != 1 {
		t.Errorf("src notified %d times, want exactly one batched notification", srcNotified)
	}
}

func TestMergeReturnsEvicted(t *testing.T) {
	dst := New("coverF_001.jpg")
	src := New("coverF_002.jpg")
	evicted := dst.Merge(src)
	if !reflect.DeepEqual(evicted, []string{"coverF_001.jpg"}) {
		t.Errorf("evicted = %v, want [coverF_001.jpg]", evicted)
	}
	if dst.CoverFull() != "coverF_002.jpg" {
		t.Errorf("coverFull = %q", dst.CoverFull())
	}
}

func TestMergeNoChangeDoesNotNotify(t *testing.T) {
	dst := New("page_001.jpg")
	var notified int
	dst.Subscribe(func() { notified++ })

	empty := Restore("empty-id", "a", "t")
	if evicted := dst.Merge(empty); len(evicted) != 0 {
		t.Errorf("evicted = %v, want none", evicted)
	}
	if notified != 0 {
		t.Errorf("merging an empty source notified %d times", notified)
	}

	// A source holding only files dst already has nets no change either.
	dup := Restore("dup-id", "a", "t")
	dup.AddFile("page_001.jpg")
	dst.Merge(dup)
	if notified != 0 {
		t.Errorf("no-op merge notified %d times", notified)
	}
	if len(dup.Files()) != 0 {
		t.Errorf("source not emptied: %v", dup.Files())
	}
}

// Merging B then C into A must equal merging a combined unit: the final
// file set is the union and the sources end empty either way.
func TestMergeAssociativeInEffect(t *testing.T) {
	mk := func() (*Comic, *Comic, *Comic) {
		a := New("coverA_001.jpg")
		b := New("page_001.jpg")
		b.AddFile("page_003.jpg")
		c := New("page_002.jpg")
		c.AddFile("coverS_001.jpg")
		return a, b, c
	}

	a1, b1, c1 := mk()
	a1.Merge(b1)
	a1.Merge(c1)

	a2, b2, c2 := mk()
	b2.Merge(c2)
	a2.Merge(b2)

	if !reflect.DeepEqual(a1.Files(), a2.Files()) {
		t.Errorf("merge order changed result: %v vs %v", a1.Files(), a2.Files())
	}
	for _, src := range []*Comic{b1, c1, b2, c2} {
		if len(src.Files()) != 0 {
			t.Errorf("source not emptied: %v", src.Files())
		}
	}
}
