package main

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"
	"time"
)

// encodeTestGIF builds a small GIF with the given frame count and delay in
// hundredths of a second.
func encodeTestGIF(t *testing.T, frames, delay int) []byte {
	t.Helper()

	g := &gif.GIF{}
	palette := color.Palette{color.White, color.Black}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, 4, 4), palette)
		img.SetColorIndex(i%4, 0, 1)
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("Failed to encode test GIF: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeAnimation(t *testing.T) {
	cursor, err := DecodeAnimation(encodeTestGIF(t, 3, 5))
	if err != nil {
		t.Fatalf("DecodeAnimation failed: %v", err)
	}

	if len(cursor.frames) != 3 {
		t.Errorf("Expected 3 frames, got %d", len(cursor.frames))
	}
	if cursor.Bounds().Dx() != 4 || cursor.Bounds().Dy() != 4 {
		t.Errorf("Expected 4x4 bounds, got %v", cursor.Bounds())
	}
	if cursor.delays[0] != 50*time.Millisecond {
		t.Errorf("Expected 50ms delay, got %v", cursor.delays[0])
	}
	if cursor.Done() {
		t.Error("Multi-frame animation must not be done")
	}
}

func TestDecodeAnimationInvalid(t *testing.T) {
	if _, err := DecodeAnimation([]byte("not a gif")); err == nil {
		t.Error("Expected error for invalid data")
	}
}

func TestAnimationDelayClamp(t *testing.T) {
	// Zero delays are clamped to the minimum frame delay
	cursor, err := DecodeAnimation(encodeTestGIF(t, 2, 0))
	if err != nil {
		t.Fatalf("DecodeAnimation failed: %v", err)
	}
	if cursor.delays[0] != minFrameDelay {
		t.Errorf("Expected clamped delay %v, got %v", minFrameDelay, cursor.delays[0])
	}
}

func TestAnimationAdvance(t *testing.T) {
	cursor, err := DecodeAnimation(encodeTestGIF(t, 2, 5))
	if err != nil {
		t.Fatalf("DecodeAnimation failed: %v", err)
	}

	t0 := time.Now()

	// First call only arms the clock
	if cursor.Advance(t0) {
		t.Error("First advance must not change the frame")
	}
	if cursor.Advance(t0.Add(10 * time.Millisecond)) {
		t.Error("Advance before the delay elapsed must not change the frame")
	}
	if !cursor.Advance(t0.Add(60 * time.Millisecond)) {
		t.Error("Advance after the delay must change the frame")
	}
	if cursor.FrameIndex() != 1 {
		t.Errorf("Expected frame 1, got %d", cursor.FrameIndex())
	}

	// Wraps around to the first frame
	if !cursor.Advance(t0.Add(120 * time.Millisecond)) {
		t.Error("Expected wrap-around advance")
	}
	if cursor.FrameIndex() != 0 {
		t.Errorf("Expected frame 0 after wrap, got %d", cursor.FrameIndex())
	}
}

func TestAnimationSingleFrame(t *testing.T) {
	cursor, err := DecodeAnimation(encodeTestGIF(t, 1, 5))
	if err != nil {
		t.Fatalf("DecodeAnimation failed: %v", err)
	}

	if !cursor.Done() {
		t.Error("Single-frame animation must be done")
	}
	if cursor.Advance(time.Now().Add(time.Second)) {
		t.Error("Single-frame animation must never advance")
	}
}
