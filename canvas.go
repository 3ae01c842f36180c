package main

import (
	"math"
	"time"
)

const (
	// preloadViewports is how far ahead of the viewport, in viewport
	// heights, pages are requested and kept alive.
	preloadViewports = 5

	scrollClickPercentage   = 2.0 / 3.0
	scrollDragFactor        = 2.0
	scrollIncrementDuration = 500 * time.Millisecond

	// Flick deceleration decays velocity toward zero; below the threshold
	// the scroll is considered settled.
	decelerationDecay       = 4.0
	decelerationMinVelocity = 10.0
)

// VirtualizedCanvas is a vertically scrolling strip of page containers with a
// sliding materialization window. Pages beyond the preload distance are
// evicted, pages approaching it are requested from the owner, in both
// directions. Scroll state lives in the vertical adjustment; the canvas never
// loads pages itself, it only asks via PageRequested.
type VirtualizedCanvas struct {
	pages []*PageItem

	hadj *Adjustment
	vadj *Adjustment

	widgetWidth  int
	widgetHeight int
	prevWidth    int
	canvasHeight float64

	scrollDirection      ScrollDirection
	scrollAdjustingDelta float64
	scrollDragOffset     float64

	isScrollAdjusting    bool
	isScrollByIncrement  bool
	isScrollDecelerating bool

	currentPageTop    *PageItem
	currentPageBottom *PageItem

	// Extra scroll range past a terminal page before the boundary
	// notification fires. Zero means one viewport height.
	offlimitResistance float64
	offlimitLatchStart bool
	offlimitLatchEnd   bool

	needsLayout bool

	ticker        *TickScheduler
	incrementTask *TickTask
	decelTask     *TickTask

	events CanvasEvents
}

// NewVirtualizedCanvas creates an empty canvas driven by the given frame
// scheduler.
func NewVirtualizedCanvas(ticker *TickScheduler) *VirtualizedCanvas {
	c := &VirtualizedCanvas{
		hadj:   NewAdjustment(),
		vadj:   NewAdjustment(),
		ticker: ticker,
	}
	c.vadj.OnValueChanged(c.QueueLayout)
	return c
}

// Events sets the outward notification callbacks.
func (c *VirtualizedCanvas) Events(events CanvasEvents) {
	c.events = events
}

func (c *VirtualizedCanvas) HAdjustment() *Adjustment { return c.hadj }
func (c *VirtualizedCanvas) VAdjustment() *Adjustment { return c.vadj }

// SetOfflimitResistance overrides the scroll distance absorbed past a
// terminal page. Zero restores the default of one viewport height.
func (c *VirtualizedCanvas) SetOfflimitResistance(px float64) {
	c.offlimitResistance = px
}

func (c *VirtualizedCanvas) resistance() float64 {
	if c.offlimitResistance > 0 {
		return c.offlimitResistance
	}
	return float64(c.widgetHeight)
}

// Pages returns the live containers in display order.
func (c *VirtualizedCanvas) Pages() []*PageItem { return c.pages }

func (c *VirtualizedCanvas) firstPage() *PageItem {
	if len(c.pages) == 0 {
		return nil
	}
	return c.pages[0]
}

func (c *VirtualizedCanvas) lastPage() *PageItem {
	if len(c.pages) == 0 {
		return nil
	}
	return c.pages[len(c.pages)-1]
}

// CurrentPageTop is the container covering the top edge of the viewport
// after the last layout pass, nil when none does.
func (c *VirtualizedCanvas) CurrentPageTop() *PageItem { return c.currentPageTop }

// CurrentPageBottom is the container covering the bottom edge of the
// viewport after the last layout pass.
func (c *VirtualizedCanvas) CurrentPageBottom() *PageItem { return c.currentPageBottom }

// CanvasHeight is the summed height of all live containers.
func (c *VirtualizedCanvas) CanvasHeight() float64 { return c.canvasHeight }

// ScrollingDirection is the last observed scroll intent.
func (c *VirtualizedCanvas) ScrollingDirection() ScrollDirection { return c.scrollDirection }

// QueueLayout marks the canvas for a layout pass on the next frame.
func (c *VirtualizedCanvas) QueueLayout() {
	c.needsLayout = true
}

// Append adds a page container at the end. It enters with a placeholder
// height of one viewport, positioned after the current last container.
func (c *VirtualizedCanvas) Append(page *PageItem) {
	page.height = float64(c.widgetHeight)
	page.placeholderHeight = page.height
	if last := c.lastPage(); last != nil {
		page.position = last.position + last.height
	} else {
		page.position = 0
	}
	page.onStatusChanged = c.onPageStatusChanged

	c.pages = append(c.pages, page)
	c.QueueLayout()
}

// Prepend adds a page container at the start, above the current first
// container, and bumps the scroll value by the placeholder height so the
// viewport content does not move. The true height is reconciled once the
// page becomes allocable.
func (c *VirtualizedCanvas) Prepend(page *PageItem) {
	c.isScrollAdjusting = true

	page.height = float64(c.widgetHeight)
	page.placeholderHeight = page.height
	if first := c.firstPage(); first != nil {
		page.position = first.position - page.height
	} else {
		page.position = 0
	}
	page.onStatusChanged = c.onPageStatusChanged

	c.pages = append([]*PageItem{page}, c.pages...)
	c.vadj.SetValue(c.vadj.Value() + page.height)
	c.QueueLayout()
}

// Remove evicts a page container. When evicting the head while scrolling
// down, the scroll value shrinks by the evicted height so the viewport
// content does not move.
func (c *VirtualizedCanvas) Remove(page *PageItem) {
	for i, p := range c.pages {
		if p == page {
			c.pages = append(c.pages[:i], c.pages[i+1:]...)
			break
		}
	}
	page.Dispose()

	if c.scrollDirection == ScrollDown {
		c.vadj.SetValue(c.vadj.Value() - page.height)
	}
	c.QueueLayout()
}

// Clear disposes all containers and resets the scroll intent.
func (c *VirtualizedCanvas) Clear() {
	for i := len(c.pages) - 1; i >= 0; i-- {
		c.pages[i].Dispose()
	}
	c.pages = nil
	c.currentPageTop = nil
	c.currentPageBottom = nil
	c.scrollDirection = ScrollNone
	c.CancelDeceleration()
	if c.incrementTask != nil {
		c.incrementTask.Cancel()
		c.incrementTask = nil
		c.isScrollByIncrement = false
	}
	c.QueueLayout()
}

// Resize updates the viewport size. A horizontal resize re-anchors the
// scroll value proportionally so the visible content stays put.
func (c *VirtualizedCanvas) Resize(width, height int) {
	if c.prevWidth != 0 && c.prevWidth != width {
		c.vadj.SetValue(float64(width) * c.vadj.Value() / float64(c.prevWidth))
	}
	c.prevWidth = width
	c.widgetWidth = width
	c.widgetHeight = height
	c.QueueLayout()
}

// LayoutIfNeeded runs a layout pass when one is queued. Call once per frame.
func (c *VirtualizedCanvas) LayoutIfNeeded() {
	if c.needsLayout {
		c.Layout()
	}
}

// Layout is the allocation pass: it assigns each container its position
// relative to the viewport top, measures settled content at the canvas
// width, tracks the containers covering the viewport edges, starts spinners
// on visible loading pages, then reconfigures the adjustments and lets the
// virtualization window react.
func (c *VirtualizedCanvas) Layout() {
	c.needsLayout = false
	c.currentPageTop = nil
	c.currentPageBottom = nil

	if len(c.pages) == 0 {
		return
	}

	width := c.widgetWidth
	height := float64(c.widgetHeight)

	size := 0.0
	scrollOffset := c.vadj.Value() + c.scrollAdjustingDelta

	for _, page := range c.pages {
		page.position = size - scrollOffset

		pageHeight := page.MeasureHeight(width, height)
		page.height = pageHeight
		if page.surface == nil || page.status == StatusError {
			// Keep the recorded placeholder height in step with the
			// fallback this pass laid out, so the height correction on
			// load stays exact across a viewport resize.
			page.placeholderHeight = pageHeight
		}

		if c.currentPageTop == nil && page.position <= 0 && page.position+pageHeight > 0 {
			c.currentPageTop = page
		}
		if c.currentPageBottom == nil && page.position <= height && page.position+pageHeight > height {
			c.currentPageBottom = page
		}

		if (page.status == StatusRendering || page.status == StatusAllocable) && !page.Spinning() {
			visible := page.position >= 0 && page.position < height
			visible = visible || (page.position+pageHeight > 0 && page.position+pageHeight <= height)
			visible = visible || (page.position < 0 && page.position+pageHeight > height)
			if visible {
				page.StartSpinner()
			}
		}

		if page.surface != nil {
			page.surface.Resize(width, int(pageHeight))
		}

		size += pageHeight
	}

	c.canvasHeight = size
	c.configureAdjustments()
	c.isScrollAdjusting = false

	c.addOrRemovePage()
}

func (c *VirtualizedCanvas) maxVAdjustmentValue() float64 {
	return math.Max(c.canvasHeight-float64(c.widgetHeight), 0)
}

// configureAdjustments rebuilds the vertical adjustment from the canvas
// height. A terminal container at either end shrinks the scrollable range by
// the offlimit resistance; hitting the shrunk bound fires the boundary
// notification once per approach.
func (c *VirtualizedCanvas) configureAdjustments() {
	resistance := c.resistance()

	lower := 0.0
	offlimitStart := false
	if first := c.firstPage(); first != nil && first.status == StatusOfflimit &&
		(c.scrollDirection == ScrollNone || c.scrollDirection == ScrollUp) {
		lower += resistance
		offlimitStart = true
	}

	upper := c.canvasHeight
	offlimitEnd := false
	if last := c.lastPage(); last != nil && last.status == StatusOfflimit &&
		(c.scrollDirection == ScrollNone || c.scrollDirection == ScrollDown) {
		upper -= resistance
		offlimitEnd = true
	}

	height := float64(c.widgetHeight)
	value := math.Max(math.Min(c.vadj.Value()+c.scrollAdjustingDelta, c.maxVAdjustmentValue()), 0)
	c.vadj.Configure(
		value,
		lower,
		upper,
		height*0.1,
		height*0.9,
		math.Min(height, c.canvasHeight),
	)
	c.scrollAdjustingDelta = 0

	if offlimitStart && c.scrollDirection != ScrollNone && c.vadj.Value() <= lower {
		if !c.offlimitLatchStart {
			c.offlimitLatchStart = true
			c.emitOfflimit(DirectionStart)
		}
	} else {
		c.offlimitLatchStart = false
	}

	if offlimitEnd && c.scrollDirection != ScrollNone && c.vadj.Value() >= c.vadj.MaxValue() {
		if !c.offlimitLatchEnd {
			c.offlimitLatchEnd = true
			c.emitOfflimit(DirectionEnd)
		}
	} else {
		c.offlimitLatchEnd = false
	}
}

// addOrRemovePage slides the materialization window one step: request the
// next page when the leading edge is within the preload distance, evict the
// trailing container once it is past it. Requests and evictions only happen
// between settled containers, and never while a scroll animation owns the
// value.
func (c *VirtualizedCanvas) addOrRemovePage() {
	if len(c.pages) == 0 || c.isScrollDecelerating || c.isScrollAdjusting || c.isScrollByIncrement {
		return
	}

	first := c.firstPage()
	last := c.lastPage()
	height := float64(c.widgetHeight)

	if c.scrollDirection == ScrollDown || c.scrollDirection == ScrollNone {
		if last.Loadable() && last.position+last.height < height*(preloadViewports+1) {
			c.emitPageRequested(DirectionEnd)
			return
		}

		if len(c.pages) > 1 && first.Loadable() && first.position+first.height < -height*preloadViewports {
			c.Remove(first)
			return
		}
	}

	if c.scrollDirection == ScrollUp || c.scrollDirection == ScrollNone {
		if first.Loadable() && first.position > -height*preloadViewports {
			c.emitPageRequested(DirectionStart)
			return
		}

		if len(c.pages) > 1 && last.Loadable() && last.position > height*(preloadViewports+1) {
			c.Remove(last)
			return
		}
	}

	if c.scrollDirection == ScrollNone {
		// End of init: default to forward reading.
		c.scrollDirection = ScrollDown
	}
}

// onPageStatusChanged reconciles geometry when a container's lifecycle
// advances. A prepended page still above the viewport swaps its placeholder
// height for the real one without moving the visible content; a terminal
// page updates the scrollable range immediately.
func (c *VirtualizedCanvas) onPageStatusChanged(page *PageItem, initHeight float64) {
	switch page.status {
	case StatusAllocable:
		if page.position < 0 {
			realHeight := page.MeasureHeight(c.widgetWidth, float64(c.widgetHeight))
			c.scrollAdjustingDelta = realHeight - initHeight
			c.QueueLayout()
		}
	case StatusOfflimit:
		c.configureAdjustments()
		c.isScrollAdjusting = false
	}
}

// HandleScroll applies a wheel/touchpad scroll delta. Surface-unit deltas
// (touchpads reporting pixels) pass through unscaled, discrete wheel ticks
// scale by the step increment.
func (c *VirtualizedCanvas) HandleScroll(dy float64, surfaceUnits bool) {
	c.isScrollDecelerating = false
	if dy < 0 {
		c.scrollDirection = ScrollUp
	} else {
		c.scrollDirection = ScrollDown
	}

	factor := c.vadj.StepIncrement()
	if surfaceUnits {
		factor = 1
	}
	value := c.vadj.Value() + dy*factor
	c.vadj.SetValue(math.Min(c.vadj.Upper()-c.vadj.PageSize(), math.Max(0, value)))
}

// HandleDragBegin starts a drag gesture and cancels any running
// deceleration.
func (c *VirtualizedCanvas) HandleDragBegin() {
	c.scrollDragOffset = 0
	c.CancelDeceleration()
}

// HandleDragUpdate scrolls by the drag delta, amplified by the drag factor.
// Sub-pixel drags are ignored so a click on a retry button does not scroll.
func (c *VirtualizedCanvas) HandleDragUpdate(offsetY float64) {
	if math.Abs(offsetY) < 1 {
		return
	}

	if offsetY > 0 {
		c.scrollDirection = ScrollUp
	} else {
		c.scrollDirection = ScrollDown
	}
	c.vadj.SetValue(c.vadj.Value() - (offsetY-c.scrollDragOffset)*scrollDragFactor)
	c.scrollDragOffset = offsetY
}

// HandleDragEnd finishes a drag gesture, optionally flinging with the given
// release velocity in pixels per second.
func (c *VirtualizedCanvas) HandleDragEnd(velocity float64) {
	if math.Abs(velocity) > decelerationMinVelocity {
		c.startDeceleration(-velocity * scrollDragFactor)
	}
}

// HandleClickReleased maps a click to the navigation layout: the outer
// thirds scroll by two thirds of a viewport, the middle third toggles the
// reader controls.
func (c *VirtualizedCanvas) HandleClickReleased(x, _ float64) {
	width := float64(c.widgetWidth)
	switch {
	case x < width/3:
		c.ScrollByIncrement(-c.vadj.PageSize() * scrollClickPercentage)
	case x > 2*width/3:
		c.ScrollByIncrement(c.vadj.PageSize() * scrollClickPercentage)
	default:
		if c.events.ControlsZoneClicked != nil {
			c.events.ControlsZoneClicked()
		}
	}
}

// KeyboardStep scrolls one step increment in the given direction.
func (c *VirtualizedCanvas) KeyboardStep(dir ScrollDirection) {
	c.emitKeyboardNavigation()
	c.ScrollByStep(dir)
}

// KeyboardPage scrolls two thirds of a viewport in the given direction.
func (c *VirtualizedCanvas) KeyboardPage(dir ScrollDirection) {
	c.emitKeyboardNavigation()
	increment := c.vadj.PageSize() * scrollClickPercentage
	if dir == ScrollUp {
		increment = -increment
	}
	c.ScrollByIncrement(increment)
}

// ScrollByStep jumps by one step increment.
func (c *VirtualizedCanvas) ScrollByStep(dir ScrollDirection) {
	c.isScrollDecelerating = false
	c.scrollDirection = dir

	step := c.vadj.StepIncrement()
	if dir == ScrollUp {
		step = -step
	}
	c.vadj.SetValue(c.vadj.Value() + step)
}

// ScrollByIncrement animates the scroll value by increment with a cubic
// ease-out over half a second, then snaps to the exact target. The window
// logic is suspended for the duration of the animation.
func (c *VirtualizedCanvas) ScrollByIncrement(increment float64) {
	c.isScrollDecelerating = false
	c.isScrollByIncrement = true
	if increment < 0 {
		c.scrollDirection = ScrollUp
	} else {
		c.scrollDirection = ScrollDown
	}

	if c.incrementTask != nil {
		c.incrementTask.Cancel()
	}

	start := c.vadj.Value()
	end := start + increment
	var startTime time.Time

	c.incrementTask = c.ticker.Add(func(now time.Time) TickResult {
		if startTime.IsZero() {
			startTime = now
		}
		elapsed := now.Sub(startTime)
		if elapsed < scrollIncrementDuration && c.vadj.Value() != end {
			t := float64(elapsed) / float64(scrollIncrementDuration)
			c.vadj.SetValue(start + easeOutCubic(t)*(end-start))
			return TickContinue
		}

		c.vadj.SetValue(end)
		c.isScrollByIncrement = false
		c.incrementTask = nil
		c.QueueLayout()
		return TickRemove
	})
}

func easeOutCubic(t float64) float64 {
	u := t - 1
	return u*u*u + 1
}

// startDeceleration continues a fling after drag release, decaying the
// velocity exponentially until it settles.
func (c *VirtualizedCanvas) startDeceleration(velocity float64) {
	c.CancelDeceleration()
	c.isScrollDecelerating = true

	last := time.Time{}
	c.decelTask = c.ticker.Add(func(now time.Time) TickResult {
		if last.IsZero() {
			last = now
			return TickContinue
		}
		dt := now.Sub(last).Seconds()
		last = now

		c.vadj.SetValue(c.vadj.Value() + velocity*dt)
		velocity *= math.Exp(-decelerationDecay * dt)

		if math.Abs(velocity) < decelerationMinVelocity {
			c.isScrollDecelerating = false
			c.decelTask = nil
			c.QueueLayout()
			return TickRemove
		}
		return TickContinue
	})
}

// CancelDeceleration stops a running fling.
func (c *VirtualizedCanvas) CancelDeceleration() {
	if c.decelTask != nil {
		c.decelTask.Cancel()
		c.decelTask = nil
	}
	c.isScrollDecelerating = false
}

func (c *VirtualizedCanvas) emitPageRequested(dir Direction) {
	debugLog("canvas: page requested at %s", dir)
	if c.events.PageRequested != nil {
		c.events.PageRequested(dir)
	}
}

func (c *VirtualizedCanvas) emitOfflimit(dir Direction) {
	debugLog("canvas: offlimit at %s", dir)
	if c.events.Offlimit != nil {
		c.events.Offlimit(dir)
	}
}

func (c *VirtualizedCanvas) emitKeyboardNavigation() {
	if c.events.KeyboardNavigation != nil {
		c.events.KeyboardNavigation()
	}
}
