package main

import (
	"fmt"
	"testing"
	"time"
)

// memChapter is an in-memory chapter source that counts raw reads.
type memChapter struct {
	title string
	pages [][]byte
	reads int
}

func (c *memChapter) Title() string  { return c.title }
func (c *memChapter) PageCount() int { return len(c.pages) }

func (c *memChapter) ReadPage(index int) ([]byte, error) {
	if index < 0 || index >= len(c.pages) {
		return nil, fmt.Errorf("page %d out of range in %s", index, c.title)
	}
	c.reads++
	return c.pages[index], nil
}

func (c *memChapter) PageKey(index int) string {
	return fmt.Sprintf("%s:%d", c.title, index)
}

func blankChapters(counts ...int) []ChapterSource {
	var chapters []ChapterSource
	for i, n := range counts {
		chapters = append(chapters, &memChapter{
			title: fmt.Sprintf("ch%d", i+1),
			pages: make([][]byte, n),
		})
	}
	return chapters
}

func awaitResult(t *testing.T, r *Reader) FetchResult {
	t.Helper()
	select {
	case result := <-r.Results():
		return result
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for fetch result")
		return FetchResult{}
	}
}

func TestResolve(t *testing.T) {
	r := NewReader(blankChapters(3, 2, 4), 4, SurfaceOptions{})
	defer r.Stop()

	tests := []struct {
		name     string
		ref      PageRef
		expected PageRef
		ok       bool
	}{
		{"In range", PageRef{0, 1}, PageRef{0, 1}, true},
		{"Past chapter end", PageRef{0, 3}, PageRef{1, 0}, true},
		{"Across two chapters", PageRef{0, 5}, PageRef{2, 0}, true},
		{"Before chapter start", PageRef{1, -1}, PageRef{0, 2}, true},
		{"Before series start", PageRef{0, -1}, PageRef{}, false},
		{"Past series end", PageRef{2, 4}, PageRef{}, false},
		{"Far past series end", PageRef{0, 9}, PageRef{}, false},
		{"Bad chapter", PageRef{-1, 0}, PageRef{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.ref)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("Resolve(%v) = (%v, %v), want (%v, %v)", tt.ref, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	r := NewReader(blankChapters(3), 4, SurfaceOptions{})
	defer r.Stop()

	if got := r.Describe(PageRef{0, 0}); got != "ch1 (1/3)" {
		t.Errorf("Expected \"ch1 (1/3)\", got %q", got)
	}
	if got := r.Describe(PageRef{5, 0}); got != "" {
		t.Errorf("Expected empty description for bad chapter, got %q", got)
	}
}

func TestReaderFetch(t *testing.T) {
	chapter := &memChapter{title: "ch1", pages: [][]byte{encodeTestPNG(t, 12, 34)}}
	r := NewReader([]ChapterSource{chapter}, 4, SurfaceOptions{})
	defer r.Stop()

	r.Request(PageRef{0, 0})
	result := awaitResult(t, r)

	if result.Err != nil {
		t.Fatalf("Fetch failed: %v", result.Err)
	}
	if result.Ref != (PageRef{0, 0}) {
		t.Errorf("Expected ref {0 0}, got %v", result.Ref)
	}
	if result.Surface == nil {
		t.Fatal("Expected a decoded surface")
	}
	if result.Surface.ImageWidth() != 12 || result.Surface.ImageHeight() != 34 {
		t.Errorf("Expected 12x34, got %dx%d", result.Surface.ImageWidth(), result.Surface.ImageHeight())
	}
}

func TestReaderFetchErrors(t *testing.T) {
	chapter := &memChapter{title: "ch1", pages: [][]byte{[]byte("not an image")}}
	r := NewReader([]ChapterSource{chapter}, 4, SurfaceOptions{})
	defer r.Stop()

	t.Run("UndecodablePage", func(t *testing.T) {
		r.Request(PageRef{0, 0})
		result := awaitResult(t, r)
		if result.Err == nil {
			t.Error("Expected decode error")
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		r.Request(PageRef{0, 9})
		result := awaitResult(t, r)
		if result.Err == nil {
			t.Error("Expected out-of-range error")
		}
	})

	t.Run("BadChapter", func(t *testing.T) {
		r.Request(PageRef{7, 0})
		result := awaitResult(t, r)
		if result.Err == nil {
			t.Error("Expected bad chapter error")
		}
	})
}

func TestReaderCachesBytes(t *testing.T) {
	chapter := &memChapter{title: "ch1", pages: [][]byte{encodeTestPNG(t, 8, 8)}}
	r := NewReader([]ChapterSource{chapter}, 4, SurfaceOptions{})
	defer r.Stop()

	r.Request(PageRef{0, 0})
	if result := awaitResult(t, r); result.Err != nil {
		t.Fatalf("First fetch failed: %v", result.Err)
	}

	r.Request(PageRef{0, 0})
	if result := awaitResult(t, r); result.Err != nil {
		t.Fatalf("Second fetch failed: %v", result.Err)
	}

	if chapter.reads != 1 {
		t.Errorf("Expected 1 raw read, got %d", chapter.reads)
	}
}

func TestReaderStop(t *testing.T) {
	r := NewReader(blankChapters(1), 4, SurfaceOptions{})
	r.Stop()
	// Requests after stop must not block the caller.
	for i := 0; i < 200; i++ {
		r.Request(PageRef{0, 0})
	}
}
