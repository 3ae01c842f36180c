package main

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
	"time"
)

func makeTestImage(t *testing.T, w, h int) *image.RGBA {
	t.Helper()
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// makeInkImage returns a white image with a black rectangle painted on it.
func makeInkImage(t *testing.T, w, h int, ink image.Rectangle) *image.RGBA {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(img, ink, &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return img
}

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, makeTestImage(t, w, h)); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestScalingSize(t *testing.T) {
	tests := []struct {
		name           string
		imageW, imageH int
		scaling        ScalingMode
		landscapeZoom  bool
		expectedW      int
		expectedH      int
	}{
		{"Screen portrait", 1000, 2000, ScalingScreen, false, 300, 600},
		{"Screen landscape", 2000, 1000, ScalingScreen, false, 800, 400},
		{"Width", 1000, 2000, ScalingWidth, false, 800, 1600},
		{"Height", 1000, 2000, ScalingHeight, false, 300, 600},
		{"Original", 1000, 2000, ScalingOriginal, false, 1000, 2000},
		{"Landscape zoom override", 2000, 1000, ScalingScreen, true, 1200, 600},
		{"Landscape zoom ignores portrait", 1000, 2000, ScalingScreen, true, 300, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSurfaceFromImage(makeTestImage(t, tt.imageW, tt.imageH), SurfaceOptions{
				Scaling:       tt.scaling,
				LandscapeZoom: tt.landscapeZoom,
				CanZoom:       true,
			})
			s.Resize(800, 600)

			w, h := s.ScalingSize()
			if w != tt.expectedW || h != tt.expectedH {
				t.Errorf("Expected %dx%d, got %dx%d", tt.expectedW, tt.expectedH, w, h)
			}
		})
	}
}

func TestBaselineZoom(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	if s.BaselineZoom() != 0.3 {
		t.Errorf("Expected baseline zoom 0.3, got %v", s.BaselineZoom())
	}
	if !s.AtBaseline() {
		t.Error("Expected surface at baseline after layout")
	}
	if s.DisplayedWidth() != 300 || s.DisplayedHeight() != 600 {
		t.Errorf("Expected displayed 300x600, got %dx%d", s.DisplayedWidth(), s.DisplayedHeight())
	}
}

func TestDisplayedSizeTruncates(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 100, 100), SurfaceOptions{Scaling: ScalingWidth, CanZoom: true})
	s.Resize(200, 200)

	s.SetZoomAt(2.555, 0, 0)
	if s.DisplayedWidth() != 255 {
		t.Errorf("Expected displayed width 255, got %d", s.DisplayedWidth())
	}
}

func TestIntrinsicMeasure(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingWidth})
	if h := s.IntrinsicMeasure(500); h != 1000 {
		t.Errorf("Expected intrinsic height 1000, got %d", h)
	}
}

func TestZoomClampedToBaseline(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	s.SetZoomAt(0.1, 0, 0)
	if s.Zoom() != s.BaselineZoom() {
		t.Errorf("Expected zoom clamped to baseline %v, got %v", s.BaselineZoom(), s.Zoom())
	}
}

func TestZoomAtKeepsPoint(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	// Zoom from 0.3 to 0.6 around the viewport bottom center.
	s.SetZoomAt(0.6, 400, 300)

	if s.Zoom() != 0.6 {
		t.Fatalf("Expected zoom 0.6, got %v", s.Zoom())
	}
	if got := s.VAdjustment().Value(); got != 300 {
		t.Errorf("Expected vertical offset 300, got %v", got)
	}
	// Content narrower than the viewport keeps no horizontal offset.
	if got := s.HAdjustment().Value(); got != 0 {
		t.Errorf("Expected horizontal offset 0, got %v", got)
	}
}

func TestZoomRoundTripRestoresOffsets(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	s.SetZoomAt(0.45, 400, 300)
	hBefore := s.HAdjustment().Value()
	vBefore := s.VAdjustment().Value()
	if diff := vBefore - 150; diff < -1 || diff > 1 {
		t.Fatalf("Expected vertical offset ~150 at 0.45, got %v", vBefore)
	}

	// Zoom in and back out around the same point: both offsets must come
	// back to where they were, within a pixel.
	s.SetZoomAt(0.9, 400, 300)
	s.SetZoomAt(0.45, 400, 300)

	if diff := s.HAdjustment().Value() - hBefore; diff < -1 || diff > 1 {
		t.Errorf("Expected horizontal offset restored to %v, got %v", hBefore, s.HAdjustment().Value())
	}
	if diff := s.VAdjustment().Value() - vBefore; diff < -1 || diff > 1 {
		t.Errorf("Expected vertical offset restored to %v, got %v", vBefore, s.VAdjustment().Value())
	}
}

func TestResizeKeepsManualZoom(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	s.SetZoomAt(0.6, 0, 0)
	s.Resize(400, 300)
	if s.Zoom() != 0.6 {
		t.Errorf("Expected zoom preserved across resize, got %v", s.Zoom())
	}

	// Back at baseline a resize recomputes it.
	s.ResetZoom()
	s.Resize(800, 600)
	if !s.AtBaseline() {
		t.Error("Expected surface back at baseline")
	}
	if s.BaselineZoom() != 0.3 {
		t.Errorf("Expected recomputed baseline 0.3, got %v", s.BaselineZoom())
	}
}

func TestZoomEvents(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	begins, ends := 0, 0
	s.Events(SurfaceEvents{
		ZoomBegin: func() { begins++ },
		ZoomEnd:   func() { ends++ },
	})

	s.SetZoomAt(0.6, 0, 0)
	s.SetZoomAt(0.9, 0, 0)
	if begins != 1 {
		t.Errorf("Expected 1 zoom begin, got %d", begins)
	}

	s.ResetZoom()
	if ends != 1 {
		t.Errorf("Expected 1 zoom end, got %d", ends)
	}
}

func TestHandleWheel(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 100, 100), SurfaceOptions{Scaling: ScalingWidth, CanZoom: true})
	s.Resize(100, 100)

	if s.HandleWheel(-1, false) {
		t.Error("Wheel without the zoom modifier must not be consumed")
	}

	if !s.HandleWheel(-1, true) {
		t.Error("Wheel with the zoom modifier must be consumed")
	}
	if got := s.Zoom(); got < 1.299 || got > 1.301 {
		t.Errorf("Expected zoom ~1.3 after one wheel notch, got %v", got)
	}

	fixed := NewSurfaceFromImage(makeTestImage(t, 100, 100), SurfaceOptions{Scaling: ScalingWidth})
	fixed.Resize(100, 100)
	if fixed.HandleWheel(-1, true) {
		t.Error("Non-zoomable surface must not consume wheel zoom")
	}
}

func TestDoubleClickZoomToggle(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	clicks := 0
	s.Events(SurfaceEvents{Clicked: func(x, y float64) { clicks++ }})

	t0 := time.Now()
	s.HandleClickReleased(t0, 100, 100)
	s.HandleClickReleased(t0.Add(150*time.Millisecond), 100, 100)

	want := s.BaselineZoom() * zoomFactorDoubleTap
	if s.Zoom() != want {
		t.Errorf("Expected double-tap zoom %v, got %v", want, s.Zoom())
	}

	// The first click's deferred notification was cancelled.
	s.PollPendingClick(t0.Add(time.Second))
	if clicks != 0 {
		t.Errorf("Expected no click notification after double click, got %d", clicks)
	}

	// A second double click returns to baseline.
	s.HandleClickReleased(t0.Add(2*time.Second), 100, 100)
	s.HandleClickReleased(t0.Add(2*time.Second+150*time.Millisecond), 100, 100)
	if !s.AtBaseline() {
		t.Error("Expected zoom reset after second double click")
	}
}

func TestSingleClickDeferred(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	var clickedX, clickedY float64
	clicks := 0
	s.Events(SurfaceEvents{Clicked: func(x, y float64) {
		clicks++
		clickedX, clickedY = x, y
	}})

	t0 := time.Now()
	s.HandleClickReleased(t0, 10, 20)

	// Still inside the double-click window: nothing fires.
	s.PollPendingClick(t0.Add(200 * time.Millisecond))
	if clicks != 0 {
		t.Fatalf("Expected no click inside the window, got %d", clicks)
	}

	s.PollPendingClick(t0.Add(400 * time.Millisecond))
	if clicks != 1 {
		t.Fatalf("Expected deferred click to fire, got %d", clicks)
	}
	if clickedX != 10 || clickedY != 20 {
		t.Errorf("Expected click at (10, 20), got (%v, %v)", clickedX, clickedY)
	}
}

func TestClickWithoutZoomFiresImmediately(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 100, 100), SurfaceOptions{Scaling: ScalingWidth})
	s.Resize(100, 100)

	clicks := 0
	s.Events(SurfaceEvents{Clicked: func(x, y float64) { clicks++ }})

	s.HandleClickReleased(time.Now(), 50, 50)
	if clicks != 1 {
		t.Errorf("Expected immediate click on non-zoomable surface, got %d", clicks)
	}
}

func TestPinchZoom(t *testing.T) {
	s := NewSurfaceFromImage(makeTestImage(t, 1000, 2000), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(800, 600)

	s.PinchBegin(400, 300)
	s.PinchUpdate(2, 400, 300, false)
	if s.Zoom() != s.BaselineZoom()*2 {
		t.Errorf("Expected pinch zoom %v, got %v", s.BaselineZoom()*2, s.Zoom())
	}

	// Scale is always relative to the gesture start, not the last update.
	s.PinchUpdate(1000, 400, 300, false)
	if s.Zoom() != zoomFactorMax {
		t.Errorf("Expected pinch clamped to %v, got %v", zoomFactorMax, s.Zoom())
	}
	s.PinchEnd()

	// Updates after the gesture ended are ignored.
	s.PinchUpdate(1, 400, 300, false)
	if s.Zoom() != zoomFactorMax {
		t.Errorf("Expected zoom unchanged after pinch end, got %v", s.Zoom())
	}
}

func TestCropBBox(t *testing.T) {
	ink := image.Rect(20, 30, 60, 70)
	s := NewSurfaceFromImage(makeInkImage(t, 100, 100, ink), SurfaceOptions{Crop: true})

	bbox := s.CropBBox()
	if bbox == nil {
		t.Fatal("Expected a crop bbox")
	}
	if *bbox != ink {
		t.Errorf("Expected bbox %v, got %v", ink, *bbox)
	}
	if s.ImageWidth() != 40 || s.ImageHeight() != 40 {
		t.Errorf("Expected cropped 40x40, got %dx%d", s.ImageWidth(), s.ImageHeight())
	}
}

func TestCropBBoxComputedOnce(t *testing.T) {
	ink := image.Rect(20, 30, 60, 70)
	s := NewSurfaceFromImage(makeInkImage(t, 100, 100, ink), SurfaceOptions{Crop: true})

	first := s.CropBBox()
	if first == nil {
		t.Fatal("Expected a crop bbox")
	}
	// Later accesses return the cached rectangle, not a fresh scan.
	if second := s.CropBBox(); second != first {
		t.Errorf("Expected the cached bbox %p, got %p", first, second)
	}

	s.Resize(80, 80)
	if third := s.CropBBox(); third != first {
		t.Errorf("Expected the bbox to survive a layout pass, got %p", third)
	}
}

func TestCropBBoxAllWhite(t *testing.T) {
	s := NewSurfaceFromImage(makeInkImage(t, 100, 100, image.Rectangle{}), SurfaceOptions{Crop: true})

	if s.CropBBox() != nil {
		t.Error("Expected nil bbox for an all-white image")
	}
	if s.ImageWidth() != 100 {
		t.Errorf("Expected full width 100, got %d", s.ImageWidth())
	}
}

func TestCropAffectsBaseline(t *testing.T) {
	ink := image.Rect(20, 30, 60, 70)
	s := NewSurfaceFromImage(makeInkImage(t, 100, 100, ink), SurfaceOptions{Scaling: ScalingScreen, CanZoom: true})
	s.Resize(80, 80)

	uncropped := s.BaselineZoom()

	s.SetCrop(true)
	if s.BaselineZoom() != 2.0 {
		t.Errorf("Expected cropped baseline 2.0, got %v", s.BaselineZoom())
	}
	if s.BaselineZoom() == uncropped {
		t.Error("Expected baseline to change when crop is enabled")
	}
}

func TestCropNeverAppliesToAnimations(t *testing.T) {
	s, err := NewSurfaceFromBytes(encodeTestGIF(t, 2, 5), SurfaceOptions{Crop: true})
	if err != nil {
		t.Fatalf("NewSurfaceFromBytes failed: %v", err)
	}

	if !s.Animated() {
		t.Fatal("Expected an animated surface")
	}
	if s.CropBBox() != nil {
		t.Error("Animated surfaces must never be cropped")
	}
}

func TestStaticAnimationOption(t *testing.T) {
	s, err := NewSurfaceFromBytes(encodeTestGIF(t, 2, 5), SurfaceOptions{StaticAnimation: true})
	if err != nil {
		t.Fatalf("NewSurfaceFromBytes failed: %v", err)
	}
	if s.Animated() {
		t.Error("Expected a static surface with StaticAnimation set")
	}
}

func TestNewSurfaceFromBytes(t *testing.T) {
	t.Run("PNG", func(t *testing.T) {
		s, err := NewSurfaceFromBytes(encodeTestPNG(t, 12, 34), SurfaceOptions{})
		if err != nil {
			t.Fatalf("NewSurfaceFromBytes failed: %v", err)
		}
		if s.ImageWidth() != 12 || s.ImageHeight() != 34 {
			t.Errorf("Expected 12x34, got %dx%d", s.ImageWidth(), s.ImageHeight())
		}
	})

	t.Run("NotAnImage", func(t *testing.T) {
		if _, err := NewSurfaceFromBytes([]byte("plain text, clearly"), SurfaceOptions{}); err == nil {
			t.Error("Expected error for non-image data")
		}
	})

	t.Run("CorruptPNG", func(t *testing.T) {
		data := encodeTestPNG(t, 8, 8)[:20]
		if _, err := NewSurfaceFromBytes(data, SurfaceOptions{}); err == nil {
			t.Error("Expected error for truncated image data")
		}
	})
}

func TestParseScalingMode(t *testing.T) {
	tests := []struct {
		input    string
		expected ScalingMode
		ok       bool
	}{
		{"screen", ScalingScreen, true},
		{"width", ScalingWidth, true},
		{"height", ScalingHeight, true},
		{"original", ScalingOriginal, true},
		{"bogus", ScalingScreen, false},
		{"", ScalingScreen, false},
	}

	for _, tt := range tests {
		mode, ok := ParseScalingMode(tt.input)
		if mode != tt.expected || ok != tt.ok {
			t.Errorf("ParseScalingMode(%q) = (%v, %v), want (%v, %v)", tt.input, mode, ok, tt.expected, tt.ok)
		}
	}
}
