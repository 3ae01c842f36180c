package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"time"
)

// Delays of 0 are common in the wild; players traditionally clamp them.
const minFrameDelay = 20 * time.Millisecond

// AnimationCursor walks the frames of a decoded animation. It owns the
// composited full frames and the per-frame delays; advancing is driven by
// the frame clock, never by a timer goroutine.
type AnimationCursor struct {
	frames []*image.RGBA
	delays []time.Duration

	cur  int
	last time.Time
}

// DecodeAnimation decodes GIF data into composited full frames. Frames are
// pre-composited over their predecessor so the cursor can jump to any frame
// without replaying disposal ops.
func DecodeAnimation(data []byte) (*AnimationCursor, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding animation: %v", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("decoding animation: no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	cursor := &AnimationCursor{
		frames: make([]*image.RGBA, 0, len(g.Image)),
		delays: make([]time.Duration, 0, len(g.Image)),
	}

	canvas := image.NewRGBA(bounds)
	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		composited := image.NewRGBA(bounds)
		copy(composited.Pix, canvas.Pix)
		cursor.frames = append(cursor.frames, composited)

		delay := time.Duration(g.Delay[i]) * 10 * time.Millisecond
		if delay < minFrameDelay {
			delay = minFrameDelay
		}
		cursor.delays = append(cursor.delays, delay)
	}

	return cursor, nil
}

// Bounds reports the animation canvas size.
func (a *AnimationCursor) Bounds() image.Rectangle {
	return a.frames[0].Bounds()
}

// Frame returns the current composited frame.
func (a *AnimationCursor) Frame() *image.RGBA {
	return a.frames[a.cur]
}

// FrameIndex returns the current frame position.
func (a *AnimationCursor) FrameIndex() int {
	return a.cur
}

// Done reports whether the cursor has no further frames to show. A
// single-frame animation never advances.
func (a *AnimationCursor) Done() bool {
	return len(a.frames) < 2
}

// Advance moves to the next frame if the current frame's delay has elapsed.
// It returns true when the displayed frame changed and a redraw is needed.
func (a *AnimationCursor) Advance(now time.Time) bool {
	if a.Done() {
		return false
	}
	if a.last.IsZero() {
		a.last = now
		return false
	}
	if now.Sub(a.last) < a.delays[a.cur] {
		return false
	}
	a.cur = (a.cur + 1) % len(a.frames)
	a.last = now
	return true
}
