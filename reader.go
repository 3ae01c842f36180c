package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FetchResult is delivered on the results channel for every requested page.
// On success Surface holds the decoded page; on failure Err explains it and
// the page keeps a usable error placeholder.
type FetchResult struct {
	Ref     PageRef
	Surface *PageSurface
	Err     error
}

// Reader sequences pages across chapter boundaries and fetches them off the
// game loop. Page refs are free to run past either end of their chapter;
// Resolve folds them into the neighboring chapters or reports that the
// series end was reached. Raw page bytes are kept in an LRU cache so
// re-materializing an evicted page skips the archive walk.
type Reader struct {
	chapters []ChapterSource

	mu   sync.RWMutex
	opts SurfaceOptions

	cache *lru.Cache[string, []byte]

	requestChan chan PageRef
	resultChan  chan FetchResult
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewReader creates a reader over the given chapters and starts its fetch
// worker.
func NewReader(chapters []ChapterSource, cacheSize int, opts SurfaceOptions) *Reader {
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		log.Printf("Error: Failed to create LRU cache: %v", err)
		cache, _ = lru.New[string, []byte](16)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reader{
		chapters:    chapters,
		opts:        opts,
		cache:       cache,
		requestChan: make(chan PageRef, 100),
		resultChan:  make(chan FetchResult, 16),
		ctx:         ctx,
		cancel:      cancel,
	}

	// Start worker goroutine
	go r.worker()

	return r
}

// SetOptions updates the surface options applied to later fetches. Safe to
// call from the game loop while the worker runs.
func (r *Reader) SetOptions(opts SurfaceOptions) {
	r.mu.Lock()
	r.opts = opts
	r.mu.Unlock()
}

// Options returns the current surface options.
func (r *Reader) Options() SurfaceOptions {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// ChapterCount returns the number of chapters in the sequence.
func (r *Reader) ChapterCount() int { return len(r.chapters) }

// Chapter returns the chapter at index.
func (r *Reader) Chapter(index int) ChapterSource { return r.chapters[index] }

// Resolve folds a ref whose page index runs past its chapter bounds into the
// neighboring chapters. The second return is false when the ref points past
// either end of the series.
func (r *Reader) Resolve(ref PageRef) (PageRef, bool) {
	chapter, page := ref.Chapter, ref.Page
	if chapter < 0 || chapter >= len(r.chapters) {
		return PageRef{}, false
	}

	for page < 0 {
		chapter--
		if chapter < 0 {
			return PageRef{}, false
		}
		page += r.chapters[chapter].PageCount()
	}
	for page >= r.chapters[chapter].PageCount() {
		page -= r.chapters[chapter].PageCount()
		chapter++
		if chapter >= len(r.chapters) {
			return PageRef{}, false
		}
	}

	return PageRef{Chapter: chapter, Page: page}, true
}

// Describe formats a resolved ref for the info overlay.
func (r *Reader) Describe(ref PageRef) string {
	if ref.Chapter < 0 || ref.Chapter >= len(r.chapters) {
		return ""
	}
	chapter := r.chapters[ref.Chapter]
	return fmt.Sprintf("%s (%d/%d)", chapter.Title(), ref.Page+1, chapter.PageCount())
}

// Request queues a resolved ref for fetching. Results arrive on Results().
func (r *Reader) Request(ref PageRef) {
	select {
	case r.requestChan <- ref:
	default:
		// Channel is full, skip this request
		debugLog("Fetch request channel full, skipping %v", ref)
	}
}

// Results is the channel the game loop drains every frame.
func (r *Reader) Results() <-chan FetchResult {
	return r.resultChan
}

// Stop terminates the fetch worker.
func (r *Reader) Stop() {
	r.cancel()
}

// worker runs the fetch worker goroutine
func (r *Reader) worker() {
	for {
		select {
		case <-r.ctx.Done():
			return
		case ref := <-r.requestChan:
			result := r.fetch(ref)
			select {
			case <-r.ctx.Done():
				return
			case r.resultChan <- result:
			}
		}
	}
}

func (r *Reader) fetch(ref PageRef) FetchResult {
	if ref.Chapter < 0 || ref.Chapter >= len(r.chapters) {
		return FetchResult{Ref: ref, Err: fmt.Errorf("chapter %d out of range", ref.Chapter)}
	}
	chapter := r.chapters[ref.Chapter]
	if ref.Page < 0 || ref.Page >= chapter.PageCount() {
		return FetchResult{Ref: ref, Err: fmt.Errorf("page %d out of range in %s", ref.Page, chapter.Title())}
	}

	key := chapter.PageKey(ref.Page)
	data, ok := r.cache.Get(key)
	if ok {
		debugLog("Cache HIT: %s (cache: %d items)", key, r.cache.Len())
	} else {
		var err error
		data, err = chapter.ReadPage(ref.Page)
		if err != nil {
			return FetchResult{Ref: ref, Err: err}
		}
		r.cache.Add(key, data)
		debugLog("Cache MISS: %s, loaded and cached (cache: %d items)", key, r.cache.Len())
	}

	surface, err := NewSurfaceFromBytes(data, r.Options())
	if err != nil {
		return FetchResult{Ref: ref, Err: err}
	}
	return FetchResult{Ref: ref, Surface: surface}
}
