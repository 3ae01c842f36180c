package main

import (
	"bytes"
	"image/color"
	"math"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// Global font source for overlay and placeholder text
var globalFontSource *text.GoTextFaceSource

// InitGraphics initializes the global font source for text rendering
func InitGraphics() error {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return err
	}
	globalFontSource = s
	return nil
}

// DrawText draws text with specified position and color
func DrawText(screen *ebiten.Image, textString string, font *text.GoTextFace, x, y float64, textColor color.RGBA) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, textString, font, op)
}

// DrawFilledRect draws filled rectangles with float64 coordinates
func DrawFilledRect(screen *ebiten.Image, x, y, w, h float64, bgColor color.RGBA) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bgColor, false)
}

// DrawSpinner draws a rotating 12-spoke loading indicator centered at
// (cx, cy). The rotation is derived from the wall clock so all spinners
// stay in phase.
func DrawSpinner(screen *ebiten.Image, cx, cy, radius float64, now time.Time) {
	const spokes = 12
	phase := int(now.UnixMilli() / 80 % spokes)

	for i := 0; i < spokes; i++ {
		angle := 2 * math.Pi * float64(i) / spokes
		// Spokes fade out behind the rotating head.
		age := (i - phase + spokes) % spokes
		alpha := uint8(255 - 255*age/spokes)

		inner := radius * 0.55
		x0 := cx + inner*math.Cos(angle)
		y0 := cy + inner*math.Sin(angle)
		x1 := cx + radius*math.Cos(angle)
		y1 := cy + radius*math.Sin(angle)
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1),
			3, color.RGBA{200, 200, 200, alpha}, true)
	}
}

// DrawPagePlaceholder draws the background shown while a page loads: a dark
// panel with a thin frame.
func DrawPagePlaceholder(screen *ebiten.Image, x, y, w, h float64) {
	DrawFilledRect(screen, x, y, w, h, color.RGBA{24, 24, 24, 255})
	frame := color.RGBA{48, 48, 48, 255}
	DrawFilledRect(screen, x, y, w, 1, frame)
	DrawFilledRect(screen, x, y+h-1, w, 1, frame)
}

// CreateErrorImage creates an error placeholder image with the page name and
// failure reason. Used when a page cannot be read or decoded; clicking the
// page retries the fetch.
func CreateErrorImage(width, height int, name, errorMsg string) *ebiten.Image {
	// Default size if not specified
	if width <= 0 || height <= 0 {
		width, height = 400, 300
	}

	errorImg := ebiten.NewImage(width, height)
	errorImg.Fill(color.RGBA{120, 30, 30, 255}) // Dark red background

	// Draw white border
	white := color.RGBA{255, 255, 255, 255}
	DrawFilledRect(errorImg, 0, 0, float64(width), 3, white)
	DrawFilledRect(errorImg, 0, float64(height-3), float64(width), 3, white)
	DrawFilledRect(errorImg, 0, 0, 3, float64(height), white)
	DrawFilledRect(errorImg, float64(width-3), 0, 3, float64(height), white)

	if globalFontSource == nil {
		// No font available: the colored panel alone has to do
		return errorImg
	}

	errorFont := &text.GoTextFace{
		Source: globalFontSource,
		Size:   20.0,
	}

	pageText := "Page: " + filepath.Base(name)
	reasonText := "Reason: " + errorMsg

	// Truncate long text to fit within image bounds
	maxChars := (width - 20) / 10 // Rough estimate: 10px per character
	if len(pageText) > maxChars && maxChars > 3 {
		pageText = pageText[:maxChars-3] + "..."
	}
	if len(reasonText) > maxChars && maxChars > 3 {
		reasonText = reasonText[:maxChars-3] + "..."
	}

	DrawText(errorImg, "ERROR", errorFont, 10, 30, white)
	DrawText(errorImg, pageText, errorFont, 10, 60, white)
	DrawText(errorImg, reasonText, errorFont, 10, 90, white)
	DrawText(errorImg, "Click to retry", errorFont, 10, 120, white)

	return errorImg
}
