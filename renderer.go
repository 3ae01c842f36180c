package main

import (
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Common colors used in rendering
var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorGray      = color.RGBA{180, 180, 180, 255}
	colorLightBlue = color.RGBA{200, 200, 255, 255}

	// Background color for semi-transparent overlays
	bgColorMedium = color.RGBA{0, 0, 0, 160}
)

// RenderState is what the renderer needs to know from the application
type RenderState interface {
	Canvas() *VirtualizedCanvas
	IsShowingInfo() bool
	InfoText() string
	InfoFontSize() float64
}

// Renderer draws the canvas strip and the overlays
type Renderer struct {
	renderState RenderState
}

// NewRenderer creates a new Renderer
func NewRenderer(renderState RenderState) *Renderer {
	return &Renderer{renderState: renderState}
}

// Draw renders the entire screen
func (r *Renderer) Draw(screen *ebiten.Image, now time.Time) {
	// Clear the screen since SetScreenClearedEveryFrame(false) is enabled
	screen.Clear()

	canvas := r.renderState.Canvas()
	width := screen.Bounds().Dx()
	height := float64(screen.Bounds().Dy())

	pages := canvas.Pages()
	for i, page := range pages {
		// Skip pages entirely outside the viewport
		if page.Position()+page.Height() <= 0 || page.Position() >= height {
			continue
		}
		r.drawPage(screen, canvas, page, i == 0, i == len(pages)-1, width, height, now)
	}

	// Draw info display (reading position, etc.) at bottom of screen if enabled
	if r.renderState.IsShowingInfo() {
		r.drawInfoDisplay(screen)
	}
}

func (r *Renderer) drawPage(screen *ebiten.Image, canvas *VirtualizedCanvas, page *PageItem, first, last bool, width int, height float64, now time.Time) {
	switch page.Status() {
	case StatusError:
		r.drawErrorPage(screen, page, width)
	case StatusOfflimit:
		r.drawOfflimitPage(screen, page, first, last, width)
	default:
		if surface := page.Surface(); surface != nil {
			surface.Draw(screen, 0, page.Position())
		} else {
			DrawPagePlaceholder(screen, 0, page.Position(), float64(width), page.Height())
		}
		if page.Spinning() {
			cx, cy := visibleCenter(page, float64(width), height)
			DrawSpinner(screen, cx, cy, 24, now)
		}
	}
}

func (r *Renderer) drawErrorPage(screen *ebiten.Image, page *PageItem, width int) {
	img := page.ErrorImage(width)
	if img == nil {
		DrawPagePlaceholder(screen, 0, page.Position(), float64(width), page.Height())
		return
	}

	op := &ebiten.DrawImageOptions{}
	bounds := img.Bounds()
	x := (float64(width) - float64(bounds.Dx())) / 2
	y := page.Position() + (page.Height()-float64(bounds.Dy()))/2
	op.GeoM.Translate(x, y)
	screen.DrawImage(img, op)
}

func (r *Renderer) drawOfflimitPage(screen *ebiten.Image, page *PageItem, first, last bool, width int) {
	DrawPagePlaceholder(screen, 0, page.Position(), float64(width), page.Height())

	if globalFontSource == nil {
		return
	}
	message := "End of series"
	if first && !last {
		message = "Beginning of series"
	}
	font := &text.GoTextFace{Source: globalFontSource, Size: 20}
	tw, th := text.Measure(message, font, 0)
	x := (float64(width) - tw) / 2
	y := page.Position() + (page.Height()-th)/2
	DrawText(screen, message, font, x, y, colorGray)
}

// visibleCenter returns the center of the intersection between the page and
// the viewport, so the spinner stays on screen for tall pages.
func visibleCenter(page *PageItem, width, height float64) (float64, float64) {
	top := math.Max(page.Position(), 0)
	bottom := math.Min(page.Position()+page.Height(), height)
	return width / 2, (top + bottom) / 2
}

// drawInfoDisplay renders the reading position overlay at the bottom of the
// screen.
func (r *Renderer) drawInfoDisplay(screen *ebiten.Image) {
	if globalFontSource == nil {
		return
	}
	info := r.renderState.InfoText()
	if info == "" {
		return
	}

	font := &text.GoTextFace{
		Source: globalFontSource,
		Size:   r.renderState.InfoFontSize(),
	}

	width := float64(screen.Bounds().Dx())
	height := float64(screen.Bounds().Dy())
	_, th := text.Measure(info, font, 0)

	barHeight := th + 16
	DrawFilledRect(screen, 0, height-barHeight, width, barHeight, bgColorMedium)
	DrawText(screen, info, font, 10, height-barHeight+8, colorWhite)
}
