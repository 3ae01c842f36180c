package main

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Drags shorter than this stay clicks.
const dragThreshold = 5.0

// InputHandler polls keyboard, mouse and touch state every frame and routes
// it to the canvas, the page surfaces and the keybound actions.
type InputHandler struct {
	inputActions      InputActions
	keybindingManager *KeybindingManager
	canvas            *VirtualizedCanvas

	// retryPage re-requests a failed page when its placeholder is clicked.
	retryPage func(*PageItem)

	// Drag gesture state
	pressed      bool
	dragging     bool
	dragStartX   float64
	dragStartY   float64
	lastOffsetY  float64
	lastMoveTime time.Time
	velocity     float64

	// Pinch gesture state
	pinchActive    bool
	pinchStartDist float64
	pinchSurface   *PageSurface

	touchIDs []ebiten.TouchID
}

// NewInputHandler creates a new InputHandler
func NewInputHandler(inputActions InputActions, keybindingManager *KeybindingManager, canvas *VirtualizedCanvas, retryPage func(*PageItem)) *InputHandler {
	return &InputHandler{
		inputActions:      inputActions,
		keybindingManager: keybindingManager,
		canvas:            canvas,
		retryPage:         retryPage,
	}
}

// HandleInput processes all input for the current frame
// Returns true if any input was processed, false otherwise
func (h *InputHandler) HandleInput(now time.Time) bool {
	inputProcessed := h.handleKeys()
	inputProcessed = h.handleWheel() || inputProcessed
	inputProcessed = h.handleTouch() || inputProcessed
	inputProcessed = h.handleMouse(now) || inputProcessed

	return inputProcessed
}

func (h *InputHandler) handleKeys() bool {
	inputProcessed := false
	for _, action := range []string{
		"exit", "info", "scroll_up", "scroll_down", "page_backward", "page_forward",
		"fullscreen", "toggle_crop", "cycle_scaling", "toggle_landscape_zoom", "zoom_reset",
	} {
		if h.keybindingManager.ExecuteAction(action, h.inputActions) {
			inputProcessed = true
		}
	}
	return inputProcessed
}

// handleWheel routes wheel events: with Ctrl held the page under the cursor
// zooms around the pointer, otherwise the canvas scrolls.
func (h *InputHandler) handleWheel() bool {
	_, wheelY := ebiten.Wheel()
	if wheelY == 0 {
		return false
	}
	dy := -wheelY

	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		x, y := ebiten.CursorPosition()
		if page := h.pageAt(float64(y)); page != nil && page.Surface() != nil {
			surface := page.Surface()
			surface.SetPointerPosition(float64(x), float64(y)-page.Position())
			if surface.HandleWheel(dy, true) {
				return true
			}
		}
	}

	h.canvas.HandleScroll(dy, false)
	return true
}

func (h *InputHandler) handleMouse(now time.Time) bool {
	x, y := ebiten.CursorPosition()
	fx, fy := float64(x), float64(y)

	// Keep the implicit zoom center on the page under the cursor current.
	if page := h.pageAt(fy); page != nil && page.Surface() != nil {
		page.Surface().SetPointerPosition(fx, fy-page.Position())
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		h.pressed = true
		h.dragging = false
		h.dragStartX, h.dragStartY = fx, fy
		h.lastOffsetY = 0
		h.velocity = 0
		h.lastMoveTime = now
		return true
	}

	if h.pressed && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		offsetY := fy - h.dragStartY
		if !h.dragging && (math.Abs(offsetY) > dragThreshold || math.Abs(fx-h.dragStartX) > dragThreshold) {
			h.dragging = true
			h.canvas.HandleDragBegin()
		}
		if h.dragging {
			if dt := now.Sub(h.lastMoveTime).Seconds(); dt > 0 {
				h.velocity = (offsetY - h.lastOffsetY) / dt
			}
			h.canvas.HandleDragUpdate(offsetY)
			h.lastOffsetY = offsetY
			h.lastMoveTime = now
		}
		return h.dragging
	}

	if h.pressed && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		h.pressed = false
		if h.dragging {
			h.dragging = false
			h.canvas.HandleDragEnd(h.velocity)
			return true
		}
		h.handleClick(now, fx, fy)
		return true
	}

	return false
}

// handleClick routes a non-drag release: failed pages retry, zoomable pages
// run their own single/double click state machine (their deferred Clicked
// lands back on the canvas navigation zones), everything else goes to the
// navigation zones directly.
func (h *InputHandler) handleClick(now time.Time, x, y float64) {
	page := h.pageAt(y)
	if page == nil {
		h.canvas.HandleClickReleased(x, y)
		return
	}

	if page.Status() == StatusError {
		if h.retryPage != nil {
			h.retryPage(page)
		}
		return
	}

	if surface := page.Surface(); surface != nil && surface.CanZoom() {
		surface.HandleClickReleased(now, x, y-page.Position())
		return
	}

	h.canvas.HandleClickReleased(x, y)
}

// handleTouch runs two-finger pinch zoom on the page under the gesture
// center.
func (h *InputHandler) handleTouch() bool {
	h.touchIDs = ebiten.AppendTouchIDs(h.touchIDs[:0])

	if len(h.touchIDs) >= 2 {
		x0, y0 := ebiten.TouchPosition(h.touchIDs[0])
		x1, y1 := ebiten.TouchPosition(h.touchIDs[1])
		cx := float64(x0+x1) / 2
		cy := float64(y0+y1) / 2
		dist := math.Hypot(float64(x1-x0), float64(y1-y0))

		page := h.pageAt(cy)
		if page == nil || page.Surface() == nil {
			return false
		}
		surface := page.Surface()

		if !h.pinchActive {
			h.pinchActive = true
			h.pinchStartDist = dist
			h.pinchSurface = surface
			surface.PinchBegin(cx, cy-page.Position())
		} else if h.pinchSurface == surface && h.pinchStartDist > 0 {
			surface.PinchUpdate(dist/h.pinchStartDist, cx, cy-page.Position(), true)
		}
		return true
	}

	if h.pinchActive {
		h.pinchActive = false
		if h.pinchSurface != nil {
			h.pinchSurface.PinchEnd()
			h.pinchSurface = nil
		}
		return true
	}

	return false
}

// pageAt returns the container covering the viewport y coordinate.
func (h *InputHandler) pageAt(y float64) *PageItem {
	for _, page := range h.canvas.Pages() {
		if page.Position() <= y && y < page.Position()+page.Height() {
			return page
		}
	}
	return nil
}
