package main

import (
	"fmt"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Game owns the reader session: the virtualized canvas, the chapter reader,
// the frame scheduler and the input routing. All widget state is mutated on
// the game loop only; the fetch worker communicates through the results
// channel drained every Update.
type Game struct {
	config   Config
	reader   *Reader
	canvas   *VirtualizedCanvas
	ticker   *TickScheduler
	renderer *Renderer
	input    *InputHandler

	surfaceOpts SurfaceOptions

	// Live containers by ref; pruned as the canvas evicts them.
	items map[PageRef]*PageItem

	screenWidth  int
	screenHeight int

	showInfo   bool
	shouldExit bool

	now time.Time
}

// NewGame creates the game around an already opened reader and seeds the
// canvas with the page at startRef.
func NewGame(config Config, reader *Reader, startRef PageRef) *Game {
	g := &Game{
		config:       config,
		reader:       reader,
		ticker:       NewTickScheduler(),
		surfaceOpts:  config.SurfaceOptions(),
		items:        make(map[PageRef]*PageItem),
		screenWidth:  config.WindowWidth,
		screenHeight: config.WindowHeight,
		now:          time.Now(),
	}

	g.canvas = NewVirtualizedCanvas(g.ticker)
	g.canvas.SetOfflimitResistance(config.OfflimitResistance)
	g.canvas.Events(CanvasEvents{
		ControlsZoneClicked: func() { g.showInfo = !g.showInfo },
		KeyboardNavigation:  func() { debugLog("keyboard navigation") },
		Offlimit: func(dir Direction) {
			log.Printf("No more pages at %s", dir)
		},
		PageRequested: g.onPageRequested,
	})
	g.canvas.Resize(g.screenWidth, g.screenHeight)

	g.renderer = NewRenderer(g)
	g.input = NewInputHandler(g, NewKeybindingManager(config.Keybindings), g.canvas, g.retryPage)

	if ref, ok := reader.Resolve(startRef); ok {
		g.appendRef(ref)
	}

	return g
}

// onPageRequested extends the canvas by one container in the given
// direction, or caps the strip with a terminal container at the series end.
func (g *Game) onPageRequested(dir Direction) {
	if dir == DirectionEnd {
		last := g.canvas.lastPage()
		if last == nil || last.Status() == StatusOfflimit {
			return
		}
		next := PageRef{Chapter: last.Ref.Chapter, Page: last.Ref.Page + 1}
		if ref, ok := g.reader.Resolve(next); ok {
			g.appendRef(ref)
		} else {
			page := NewPageItem(next)
			page.SetLoadable(true)
			g.canvas.Append(page)
			page.SetStatus(StatusOfflimit)
		}
		return
	}

	first := g.canvas.firstPage()
	if first == nil || first.Status() == StatusOfflimit {
		return
	}
	prev := PageRef{Chapter: first.Ref.Chapter, Page: first.Ref.Page - 1}
	if ref, ok := g.reader.Resolve(prev); ok {
		g.prependRef(ref)
	} else {
		page := NewPageItem(prev)
		page.SetLoadable(true)
		g.canvas.Prepend(page)
		page.SetStatus(StatusOfflimit)
	}
}

func (g *Game) newItem(ref PageRef) *PageItem {
	page := NewPageItem(ref)
	page.SetName(g.reader.Describe(ref))
	g.items[ref] = page
	return page
}

func (g *Game) appendRef(ref PageRef) {
	page := g.newItem(ref)
	g.canvas.Append(page)
	g.reader.Request(ref)
}

func (g *Game) prependRef(ref PageRef) {
	page := g.newItem(ref)
	g.canvas.Prepend(page)
	g.reader.Request(ref)
}

// retryPage re-requests a page whose fetch or decode failed.
func (g *Game) retryPage(page *PageItem) {
	if page.Status() != StatusError {
		return
	}
	debugLog("retrying page %v", page.Ref)
	page.SetStatus(StatusLoading)
	g.items[page.Ref] = page
	g.reader.Request(page.Ref)
}

// applyResult attaches a fetched surface (or its failure) to the container
// that asked for it. Containers evicted while the fetch was in flight are
// dropped.
func (g *Game) applyResult(result FetchResult) {
	page, ok := g.items[result.Ref]
	if !ok || page.Status() == StatusCleaned {
		return
	}

	if result.Err != nil {
		log.Printf("Error: Failed to load page %s: %v", page.Name(), result.Err)
		page.StopSpinner()
		page.SetError(result.Err.Error())
		g.canvas.QueueLayout()
		return
	}

	surface := result.Surface
	surface.Events(SurfaceEvents{
		Clicked: func(x, y float64) {
			g.canvas.HandleClickReleased(x, y)
		},
		Rendered: func(firstRender bool) {
			if firstRender {
				page.StopSpinner()
				page.SetStatus(StatusRendered)
			}
		},
		ZoomBegin: func() { debugLog("zoom begin on %v", page.Ref) },
		ZoomEnd:   func() { debugLog("zoom end on %v", page.Ref) },
	})

	page.SetSurface(surface)
	page.SetLoadable(true)
	surface.Resize(g.screenWidth, surface.IntrinsicMeasure(g.screenWidth))

	// Height is now known; the canvas reconciles prepended placeholders.
	page.SetStatus(StatusAllocable)
	page.SetStatus(StatusRendering)

	if surface.Animated() {
		page.animTask = g.ticker.Add(surface.AnimationTick)
	}

	g.canvas.QueueLayout()
}

func (g *Game) drainResults() {
	for {
		select {
		case result := <-g.reader.Results():
			g.applyResult(result)
		default:
			return
		}
	}
}

func (g *Game) pruneItems() {
	for ref, page := range g.items {
		if page.Status() == StatusCleaned {
			delete(g.items, ref)
		}
	}
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.shouldExit {
		return ebiten.Termination
	}
	g.now = time.Now()

	g.drainResults()
	g.pruneItems()

	g.input.HandleInput(g.now)

	// Deferred single clicks on zoomable pages.
	for _, page := range g.canvas.Pages() {
		if surface := page.Surface(); surface != nil {
			surface.PollPendingClick(g.now)
		}
	}

	g.ticker.Tick(g.now)

	g.canvas.Resize(g.screenWidth, g.screenHeight)
	g.canvas.LayoutIfNeeded()

	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen, g.now)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.screenWidth = outsideWidth
	g.screenHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// InputActions implementation

func (g *Game) Exit() {
	g.shouldExit = true
}

func (g *Game) ToggleInfo() {
	g.showInfo = !g.showInfo
}

func (g *Game) ScrollStepUp()   { g.canvas.KeyboardStep(ScrollUp) }
func (g *Game) ScrollStepDown() { g.canvas.KeyboardStep(ScrollDown) }
func (g *Game) PageBackward()   { g.canvas.KeyboardPage(ScrollUp) }
func (g *Game) PageForward()    { g.canvas.KeyboardPage(ScrollDown) }

func (g *Game) ToggleFullscreen() {
	ebiten.SetFullscreen(!ebiten.IsFullscreen())
	g.config.Fullscreen = ebiten.IsFullscreen()
}

func (g *Game) ToggleCrop() {
	g.config.CropBorders = !g.config.CropBorders
	g.surfaceOpts.Crop = g.config.CropBorders
	g.reader.SetOptions(g.surfaceOpts)
	for _, page := range g.canvas.Pages() {
		if surface := page.Surface(); surface != nil {
			surface.SetCrop(g.config.CropBorders)
		}
	}
	g.canvas.QueueLayout()
}

func (g *Game) CycleScaling() {
	mode, _ := ParseScalingMode(g.config.Scaling)
	mode = (mode + 1) % 4
	g.config.Scaling = mode.String()
	g.surfaceOpts.Scaling = mode
	g.reader.SetOptions(g.surfaceOpts)
	for _, page := range g.canvas.Pages() {
		if surface := page.Surface(); surface != nil {
			surface.SetScaling(mode)
		}
	}
	g.canvas.QueueLayout()
}

func (g *Game) ToggleLandscapeZoom() {
	g.config.LandscapeZoom = !g.config.LandscapeZoom
	g.surfaceOpts.LandscapeZoom = g.config.LandscapeZoom
	g.reader.SetOptions(g.surfaceOpts)
	for _, page := range g.canvas.Pages() {
		if surface := page.Surface(); surface != nil {
			surface.SetLandscapeZoom(g.config.LandscapeZoom)
		}
	}
	g.canvas.QueueLayout()
}

func (g *Game) ZoomReset() {
	if page := g.canvas.CurrentPageTop(); page != nil {
		if surface := page.Surface(); surface != nil {
			surface.ResetZoom()
		}
	}
}

// RenderState implementation

func (g *Game) Canvas() *VirtualizedCanvas { return g.canvas }
func (g *Game) IsShowingInfo() bool        { return g.showInfo }
func (g *Game) InfoFontSize() float64      { return g.config.InfoFontSize }

func (g *Game) InfoText() string {
	page := g.canvas.CurrentPageTop()
	if page == nil {
		return ""
	}
	position := g.reader.Describe(page.Ref)
	if position == "" {
		position = "-"
	}
	return fmt.Sprintf("%s | scaling: %s | sort: %s",
		position, g.config.Scaling, getSortMethodName(g.config.SortMethod))
}

// Config returns the current configuration, including runtime toggles.
func (g *Game) Config() Config {
	return g.config
}
