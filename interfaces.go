package main

import "github.com/hajimehoshi/ebiten/v2"

// Direction identifies one end of the page sequence.
type Direction int

const (
	DirectionStart Direction = iota
	DirectionEnd
)

func (d Direction) String() string {
	if d == DirectionStart {
		return "start"
	}
	return "end"
}

// ScrollDirection is the last observed user scroll intent.
type ScrollDirection int

const (
	ScrollNone ScrollDirection = iota
	ScrollUp
	ScrollDown
)

// Drawable is the measuring/painting capability a page content must provide
// to the canvas.
type Drawable interface {
	// IntrinsicMeasure returns the natural height of the content at the
	// given width.
	IntrinsicMeasure(width int) int
	// Draw paints the content into dst at the given top-left position.
	Draw(dst *ebiten.Image, x, y float64)
}

// ScrollableContent is the adjustment capability of a scrollable widget.
type ScrollableContent interface {
	HAdjustment() *Adjustment
	VAdjustment() *Adjustment
}

// SurfaceEvents carries the outward notifications of a PageSurface.
// Nil members are simply not called.
type SurfaceEvents struct {
	Clicked   func(x, y float64)
	Rendered  func(firstRender bool)
	ZoomBegin func()
	ZoomEnd   func()
}

// CanvasEvents carries the outward notifications of a VirtualizedCanvas.
type CanvasEvents struct {
	ControlsZoneClicked func()
	KeyboardNavigation  func()
	Offlimit            func(dir Direction)
	PageRequested       func(dir Direction)
}
