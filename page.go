package main

import "github.com/hajimehoshi/ebiten/v2"

// PageStatus tracks a page container through its lifecycle. Offlimit is
// terminal: no further content exists in that direction.
type PageStatus int

const (
	StatusLoading PageStatus = iota
	StatusAllocable
	StatusRendering
	StatusRendered
	StatusOfflimit
	StatusError
	StatusCleaned
)

func (s PageStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAllocable:
		return "allocable"
	case StatusRendering:
		return "rendering"
	case StatusRendered:
		return "rendered"
	case StatusOfflimit:
		return "offlimit"
	case StatusError:
		return "error"
	case StatusCleaned:
		return "cleaned"
	}
	return "unknown"
}

// PageRef addresses one page inside the chapter sequence. The page index may
// run past either end of its chapter; the reader resolves it into the
// neighboring chapter or reports offlimit.
type PageRef struct {
	Chapter int
	Page    int
}

// PageItem is one entry of the virtualized canvas: a page container holding
// its virtual geometry, lifecycle status and, once loaded, its surface.
type PageItem struct {
	Ref PageRef

	status   PageStatus
	loadable bool
	surface  *PageSurface
	errMsg   string

	// Virtual geometry, maintained by the canvas layout pass. Position may
	// be negative; height falls back to the placeholder until content loads.
	position          float64
	height            float64
	placeholderHeight float64

	spinning bool

	name     string
	errImage *ebiten.Image

	animTask *TickTask

	onStatusChanged func(p *PageItem, initHeight float64)
}

// NewPageItem creates a container in the loading state.
func NewPageItem(ref PageRef) *PageItem {
	return &PageItem{Ref: ref, status: StatusLoading}
}

func (p *PageItem) Status() PageStatus { return p.status }

// SetStatus transitions the container and notifies the canvas. The last
// laid-out placeholder height rides along so a prepended page's scroll offset
// can be corrected once the true height is known.
func (p *PageItem) SetStatus(status PageStatus) {
	if p.status == status {
		return
	}
	p.status = status
	if p.onStatusChanged != nil {
		p.onStatusChanged(p, p.placeholderHeight)
	}
}

// Loadable reports whether the container has settled content: a measurable
// surface, an error placeholder, or the offlimit sentinel. Unsettled
// containers are never requested past nor evicted.
func (p *PageItem) Loadable() bool { return p.loadable }

func (p *PageItem) SetLoadable(loadable bool) { p.loadable = loadable }

// Surface returns the loaded page surface, nil before load or on error.
func (p *PageItem) Surface() *PageSurface { return p.surface }

// SetSurface attaches decoded content.
func (p *PageItem) SetSurface(s *PageSurface) {
	p.surface = s
	p.errMsg = ""
}

// SetError puts the container into the error state with a retry affordance.
// The container keeps reporting a usable placeholder height.
func (p *PageItem) SetError(msg string) {
	p.errMsg = msg
	p.surface = nil
	if p.errImage != nil {
		p.errImage.Deallocate()
		p.errImage = nil
	}
	p.loadable = true
	p.SetStatus(StatusError)
}

func (p *PageItem) ErrorMessage() string { return p.errMsg }

// SetName sets the display name used on the error placeholder.
func (p *PageItem) SetName(name string) { p.name = name }

func (p *PageItem) Name() string { return p.name }

// ErrorImage lazily builds the error placeholder texture at the given width.
func (p *PageItem) ErrorImage(width int) *ebiten.Image {
	if p.status != StatusError {
		return nil
	}
	if p.errImage == nil {
		w := width * 8 / 10
		h := int(p.placeholderHeight / 2)
		p.errImage = CreateErrorImage(w, h, p.name, p.errMsg)
	}
	return p.errImage
}

// Position returns the container's virtual vertical position.
func (p *PageItem) Position() float64 { return p.position }

// Height returns the container's virtual height.
func (p *PageItem) Height() float64 { return p.height }

// MeasureHeight returns the intrinsic device height at the given width, or
// the fallback placeholder height while content is pending or on error.
func (p *PageItem) MeasureHeight(width int, fallback float64) float64 {
	if p.surface != nil && p.status != StatusError {
		return float64(p.surface.IntrinsicMeasure(width))
	}
	return fallback
}

// Spinning reports whether the loading spinner is active.
func (p *PageItem) Spinning() bool { return p.spinning }

// StartSpinner begins the loading animation; idempotent.
func (p *PageItem) StartSpinner() { p.spinning = true }

// StopSpinner ends the loading animation.
func (p *PageItem) StopSpinner() { p.spinning = false }

// Dispose cancels the animation task, releases the surface and marks the
// container cleaned. Safe to call twice.
func (p *PageItem) Dispose() {
	if p.status == StatusCleaned {
		return
	}
	if p.animTask != nil {
		p.animTask.Cancel()
		p.animTask = nil
	}
	if p.surface != nil {
		p.surface.Dispose()
		p.surface = nil
	}
	if p.errImage != nil {
		p.errImage.Deallocate()
		p.errImage = nil
	}
	p.loadable = false
	p.spinning = false
	p.status = StatusCleaned
}
