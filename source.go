package main

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/maruel/natural"
	"github.com/nwaples/rardecode"
	"github.com/spf13/afero"
)

// ChapterSource provides the ordered raw page bytes of one chapter. Pages
// are read lazily; archives stay closed between reads so any number of
// chapters can be open at once.
type ChapterSource interface {
	Title() string
	PageCount() int
	// ReadPage returns the raw bytes of the page at index.
	ReadPage(index int) ([]byte, error)
	// PageKey returns a stable cache key for the page at index.
	PageKey(index int) string
}

func isSupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}

func isArchiveExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".cbz", ".rar", ".cbr", ".7z", ".cb7":
		return true
	}
	return false
}

// DirChapter is a chapter backed by a directory of image files.
type DirChapter struct {
	fs    afero.Fs
	dir   string
	pages []string
}

// OpenDirChapter lists the image files directly under dir on the given
// filesystem and orders them with the sort strategy.
func OpenDirChapter(fs afero.Fs, dir string, sortMethod int) (*DirChapter, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %v", dir, err)
	}

	var pages []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isSupportedExt(entry.Name()) {
			pages = append(pages, entry.Name())
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages in %s", dir)
	}

	return &DirChapter{
		fs:    fs,
		dir:   dir,
		pages: GetSortStrategy(sortMethod).Sort(pages),
	}, nil
}

func (c *DirChapter) Title() string  { return filepath.Base(c.dir) }
func (c *DirChapter) PageCount() int { return len(c.pages) }

func (c *DirChapter) PageKey(index int) string {
	return filepath.Join(c.dir, c.pages[index])
}

func (c *DirChapter) ReadPage(index int) ([]byte, error) {
	if index < 0 || index >= len(c.pages) {
		return nil, fmt.Errorf("page %d out of range in %s", index, c.dir)
	}
	return afero.ReadFile(c.fs, filepath.Join(c.dir, c.pages[index]))
}

// ZipChapter is a chapter backed by a zip/cbz archive.
type ZipChapter struct {
	path  string
	pages []string
}

func OpenZipChapter(path string, sortMethod int) (*ZipChapter, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var pages []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && isSupportedExt(f.Name) {
			pages = append(pages, f.Name)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages in %s", path)
	}

	return &ZipChapter{path: path, pages: GetSortStrategy(sortMethod).Sort(pages)}, nil
}

func (c *ZipChapter) Title() string  { return chapterTitle(c.path) }
func (c *ZipChapter) PageCount() int { return len(c.pages) }

func (c *ZipChapter) PageKey(index int) string {
	return c.path + ":" + c.pages[index]
}

func (c *ZipChapter) ReadPage(index int) ([]byte, error) {
	if index < 0 || index >= len(c.pages) {
		return nil, fmt.Errorf("page %d out of range in %s", index, c.path)
	}
	entry := c.pages[index]

	r, err := zip.OpenReader(c.path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == entry {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entry, c.path)
}

// RarChapter is a chapter backed by a rar/cbr archive. rardecode only
// streams, so every read walks the archive from the start.
type RarChapter struct {
	path  string
	pages []string
}

func OpenRarChapter(path string, sortMethod int) (*RarChapter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	var pages []string
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !header.IsDir && isSupportedExt(header.Name) {
			pages = append(pages, header.Name)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages in %s", path)
	}

	return &RarChapter{path: path, pages: GetSortStrategy(sortMethod).Sort(pages)}, nil
}

func (c *RarChapter) Title() string  { return chapterTitle(c.path) }
func (c *RarChapter) PageCount() int { return len(c.pages) }

func (c *RarChapter) PageKey(index int) string {
	return c.path + ":" + c.pages[index]
}

func (c *RarChapter) ReadPage(index int) ([]byte, error) {
	if index < 0 || index >= len(c.pages) {
		return nil, fmt.Errorf("page %d out of range in %s", index, c.path)
	}
	entry := c.pages[index]

	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Name == entry {
			return io.ReadAll(r)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entry, c.path)
}

// SevenZipChapter is a chapter backed by a 7z/cb7 archive.
type SevenZipChapter struct {
	path  string
	pages []string
}

func OpenSevenZipChapter(path string, sortMethod int) (*SevenZipChapter, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var pages []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && isSupportedExt(f.Name) {
			pages = append(pages, f.Name)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages in %s", path)
	}

	return &SevenZipChapter{path: path, pages: GetSortStrategy(sortMethod).Sort(pages)}, nil
}

func (c *SevenZipChapter) Title() string  { return chapterTitle(c.path) }
func (c *SevenZipChapter) PageCount() int { return len(c.pages) }

func (c *SevenZipChapter) PageKey(index int) string {
	return c.path + ":" + c.pages[index]
}

func (c *SevenZipChapter) ReadPage(index int) ([]byte, error) {
	if index < 0 || index >= len(c.pages) {
		return nil, fmt.Errorf("page %d out of range in %s", index, c.path)
	}
	entry := c.pages[index]

	r, err := sevenzip.OpenReader(c.path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == entry {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", entry, c.path)
}

func chapterTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OpenChapter opens a single chapter path: an archive or a directory of
// images.
func OpenChapter(path string, sortMethod int) (ChapterSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenDirChapter(afero.NewOsFs(), path, sortMethod)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".cbz":
		return OpenZipChapter(path, sortMethod)
	case ".rar", ".cbr":
		return OpenRarChapter(path, sortMethod)
	case ".7z", ".cb7":
		return OpenSevenZipChapter(path, sortMethod)
	}
	return nil, fmt.Errorf("unsupported chapter format: %s", path)
}

// CollectChapters resolves command line arguments into an ordered chapter
// list. A directory of archives or of image subdirectories yields one
// chapter per entry; a directory of plain images is itself one chapter.
// Chapters are ordered naturally by path.
func CollectChapters(args []string, sortMethod int) ([]ChapterSource, error) {
	var paths []string
	for _, p := range args {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !isArchiveExt(p) {
				return nil, fmt.Errorf("unsupported chapter format: %s", p)
			}
			paths = append(paths, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}

		var children []string
		hasImages := false
		for _, entry := range entries {
			full := filepath.Join(p, entry.Name())
			if entry.IsDir() {
				children = append(children, full)
			} else if isArchiveExt(entry.Name()) {
				children = append(children, full)
			} else if isSupportedExt(entry.Name()) {
				hasImages = true
			}
		}

		if len(children) > 0 {
			paths = append(paths, children...)
		} else if hasImages {
			paths = append(paths, p)
		}
	}

	sort.Sort(natural.StringSlice(paths))

	var chapters []ChapterSource
	for _, p := range paths {
		chapter, err := OpenChapter(p, sortMethod)
		if err != nil {
			log.Printf("Warning: Skipping problematic chapter %s: %v", p, err)
			continue
		}
		chapters = append(chapters, chapter)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("no readable chapters")
	}
	return chapters, nil
}
