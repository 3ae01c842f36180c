package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// Pages taller than this are uploaded as stacked texture strips so long
	// webtoon pages don't exceed hardware texture limits.
	maxTextureSize = 4096

	zoomFactorDoubleTap   = 2.5
	zoomFactorMax         = 20.0
	zoomFactorScrollWheel = 1.3

	// Pixels brighter than this count as white margin during border crop.
	cropLuminanceThreshold = 225
)

// ScalingMode selects how a page is fitted into the widget.
type ScalingMode int

const (
	ScalingScreen ScalingMode = iota // best fit
	ScalingWidth
	ScalingHeight
	ScalingOriginal
)

func ParseScalingMode(s string) (ScalingMode, bool) {
	switch s {
	case "screen":
		return ScalingScreen, true
	case "width":
		return ScalingWidth, true
	case "height":
		return ScalingHeight, true
	case "original":
		return ScalingOriginal, true
	}
	return ScalingScreen, false
}

func (m ScalingMode) String() string {
	switch m {
	case ScalingWidth:
		return "width"
	case ScalingHeight:
		return "height"
	case ScalingOriginal:
		return "original"
	}
	return "screen"
}

// SurfaceOptions configures a PageSurface at construction.
type SurfaceOptions struct {
	Scaling       ScalingMode
	Crop          bool
	LandscapeZoom bool
	CanZoom       bool
	// StaticAnimation forces animated sources to be decoded as a single
	// static frame.
	StaticAnimation bool
	// DoubleClickWindow is the press-release interval that turns two clicks
	// into a double click. Zero means the 300ms default.
	DoubleClickWindow time.Duration
}

const defaultDoubleClickWindow = 300 * time.Millisecond

// PageSurface maps one decoded page image (static or animated) onto a
// rectangular viewport with scaling, border crop, zoom and pan. It owns its
// gesture state (wheel zoom, double-tap zoom, pinch) and its two scroll
// adjustments.
type PageSurface struct {
	src  image.Image
	anim *AnimationCursor

	origWidth  int
	origHeight int

	scaling       ScalingMode
	crop          bool
	landscapeZoom bool
	canZoom       bool

	zoom        float64
	zoomScaling float64 // baseline zoom, set at layout; zoom never goes below it

	widgetWidth  int
	widgetHeight int

	hadj *Adjustment
	vadj *Adjustment

	// Computed once on first use, never invalidated: source bytes are
	// immutable for the surface's lifetime.
	cropBBox         *image.Rectangle
	cropBBoxComputed bool

	texture       *ebiten.Image
	textureStrips []*ebiten.Image
	textureCrop   *ebiten.Image
	animTextures  []*ebiten.Image

	events   SurfaceEvents
	rendered bool
	disposed bool

	// Gesture state
	pointerX, pointerY float64
	doubleClickWindow  time.Duration
	lastClickAt        time.Time
	pendingClick       *pendingClick
	pinchActive        bool
	pinchBeginZoom     float64
	pinchCenterX       float64
	pinchCenterY       float64
}

type pendingClick struct {
	at   time.Time
	x, y float64
}

// NewSurfaceFromBytes classifies and decodes raw page bytes. image/gif data
// becomes an animated surface unless StaticAnimation is set. Unrecognized or
// corrupt data yields an error; callers fall back to an error placeholder.
func NewSurfaceFromBytes(data []byte, opts SurfaceOptions) (*PageSurface, error) {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("unsupported content type %q", mime)
	}

	if mime == "image/gif" && !opts.StaticAnimation {
		anim, err := DecodeAnimation(data)
		if err != nil {
			return nil, err
		}
		return newSurface(nil, anim, opts), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %v", err)
	}
	return newSurface(img, nil, opts), nil
}

// NewSurfaceFromFile reads and decodes a page from disk.
func NewSurfaceFromFile(path string, opts SurfaceOptions) (*PageSurface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSurfaceFromBytes(data, opts)
}

// NewSurfaceFromImage wraps an already decoded image.
func NewSurfaceFromImage(img image.Image, opts SurfaceOptions) *PageSurface {
	return newSurface(img, nil, opts)
}

func newSurface(src image.Image, anim *AnimationCursor, opts SurfaceOptions) *PageSurface {
	s := &PageSurface{
		src:               src,
		anim:              anim,
		scaling:           opts.Scaling,
		crop:              opts.Crop,
		landscapeZoom:     opts.CanZoom && opts.LandscapeZoom,
		canZoom:           opts.CanZoom,
		zoom:              1,
		hadj:              NewAdjustment(),
		vadj:              NewAdjustment(),
		doubleClickWindow: opts.DoubleClickWindow,
	}
	if s.doubleClickWindow == 0 {
		s.doubleClickWindow = defaultDoubleClickWindow
	}

	var bounds image.Rectangle
	if anim != nil {
		bounds = anim.Bounds()
	} else {
		bounds = src.Bounds()
	}
	s.origWidth = bounds.Dx()
	s.origHeight = bounds.Dy()

	if s.cropEnabled() {
		s.computeCropBBox()
	}

	return s
}

// Events sets the outward notification callbacks.
func (s *PageSurface) Events(events SurfaceEvents) {
	s.events = events
}

func (s *PageSurface) HAdjustment() *Adjustment { return s.hadj }
func (s *PageSurface) VAdjustment() *Adjustment { return s.vadj }

// Animated reports whether the surface plays a multi-frame animation.
func (s *PageSurface) Animated() bool {
	return s.anim != nil
}

// CanZoom reports whether gesture zooming is enabled.
func (s *PageSurface) CanZoom() bool {
	return s.canZoom
}

// cropEnabled: animated sources are never cropped.
func (s *PageSurface) cropEnabled() bool {
	return s.crop && s.anim == nil
}

// SetCrop toggles border cropping. No-op on animated surfaces.
func (s *PageSurface) SetCrop(crop bool) {
	if s.crop == crop || s.anim != nil {
		return
	}
	s.crop = crop
	if s.cropEnabled() {
		s.computeCropBBox()
	}
	s.Resize(s.widgetWidth, s.widgetHeight)
}

// SetScaling changes the scaling mode and re-lays out.
func (s *PageSurface) SetScaling(mode ScalingMode) {
	if s.scaling == mode {
		return
	}
	s.scaling = mode
	s.zoomScaling = 0
	s.Resize(s.widgetWidth, s.widgetHeight)
}

// SetLandscapeZoom toggles the landscape height-fit override and re-lays out.
func (s *PageSurface) SetLandscapeZoom(enabled bool) {
	enabled = enabled && s.canZoom
	if s.landscapeZoom == enabled {
		return
	}
	s.landscapeZoom = enabled
	s.zoomScaling = 0
	s.Resize(s.widgetWidth, s.widgetHeight)
}

// ImageWidth is the source width, crop-adjusted when cropping is active.
func (s *PageSurface) ImageWidth() int {
	if s.cropEnabled() && s.cropBBox != nil {
		return s.cropBBox.Dx()
	}
	return s.origWidth
}

// ImageHeight is the source height, crop-adjusted when cropping is active.
func (s *PageSurface) ImageHeight() int {
	if s.cropEnabled() && s.cropBBox != nil {
		return s.cropBBox.Dy()
	}
	return s.origHeight
}

// DisplayedWidth is the on-screen width at the current zoom, floor-truncated.
func (s *PageSurface) DisplayedWidth() int {
	return int(float64(s.ImageWidth()) * s.zoom)
}

// DisplayedHeight is the on-screen height at the current zoom,
// floor-truncated.
func (s *PageSurface) DisplayedHeight() int {
	return int(float64(s.ImageHeight()) * s.zoom)
}

// Zoom returns the current zoom factor.
func (s *PageSurface) Zoom() float64 {
	return s.zoom
}

// BaselineZoom returns the zoom at which the image exactly fits per the
// scaling mode. Zero before the first layout.
func (s *PageSurface) BaselineZoom() float64 {
	return s.zoomScaling
}

// AtBaseline reports whether the surface is at its resting zoom.
func (s *PageSurface) AtBaseline() bool {
	return s.zoom == s.zoomScaling
}

// borders reports the horizontal and vertical centering margins: half the
// gap between widget and displayed size along each axis, when the content is
// smaller than the widget.
func (s *PageSurface) borders() (float64, float64) {
	var hborder, vborder float64
	if dw := s.DisplayedWidth(); s.widgetWidth > dw {
		hborder = float64(s.widgetWidth-dw) / 2
	}
	if dh := s.DisplayedHeight(); s.widgetHeight > dh {
		vborder = float64(s.widgetHeight-dh) / 2
	}
	return hborder, vborder
}

// ScalingSize resolves the target size for the current scaling mode and
// widget size.
func (s *PageSurface) ScalingSize() (int, int) {
	scaling := s.scaling
	if scaling == ScalingOriginal {
		return s.origWidth, s.origHeight
	}

	iw, ih := s.ImageWidth(), s.ImageHeight()
	if s.landscapeZoom && scaling == ScalingScreen && iw > ih {
		// Landscape pages fit to height under best-fit, so a double tap
		// zooms them more naturally.
		scaling = ScalingHeight
	}

	maxWidth := s.widgetWidth
	maxHeight := s.widgetHeight

	adaptToWidthHeight := maxWidth * ih / iw
	adaptToHeightWidth := maxHeight * iw / ih

	if scaling == ScalingWidth || (scaling == ScalingScreen && adaptToWidthHeight <= maxHeight) {
		return maxWidth, adaptToWidthHeight
	}
	return adaptToHeightWidth, maxHeight
}

// IntrinsicMeasure returns the natural height at the given width, preserving
// the (crop-adjusted) aspect ratio.
func (s *PageSurface) IntrinsicMeasure(width int) int {
	iw, ih := s.ImageWidth(), s.ImageHeight()
	if iw == 0 {
		return 0
	}
	return width * ih / iw
}

// Resize is the layout pass: it recomputes the baseline zoom when the
// surface is resting at it (or has never been laid out) and reconfigures the
// scroll adjustments otherwise.
func (s *PageSurface) Resize(width, height int) {
	s.widgetWidth = width
	s.widgetHeight = height
	if width <= 0 || height <= 0 {
		return
	}

	if s.cropEnabled() && !s.cropBBoxComputed {
		s.computeCropBBox()
	}

	if s.zoomScaling == 0 || s.zoom == s.zoomScaling {
		targetWidth, _ := s.ScalingSize()
		s.zoomScaling = float64(targetWidth) / float64(s.ImageWidth())
		s.ResetZoom()
	} else {
		s.configureAdjustments()
	}
}

func (s *PageSurface) configureAdjustments() {
	displayedWidth := float64(s.DisplayedWidth())
	displayedHeight := float64(s.DisplayedHeight())
	widgetWidth := float64(s.widgetWidth)
	widgetHeight := float64(s.widgetHeight)

	s.hadj.Configure(
		s.hadj.Value(),
		0,
		displayedWidth,
		widgetWidth*0.1,
		widgetWidth*0.9,
		math.Min(widgetWidth, displayedWidth),
	)
	s.vadj.Configure(
		s.vadj.Value(),
		0,
		displayedHeight,
		widgetHeight*0.1,
		widgetHeight*0.9,
		math.Min(widgetHeight, displayedHeight),
	)
}

// ResetZoom returns the surface to its baseline zoom.
func (s *PageSurface) ResetZoom() {
	s.applyZoom(s.zoomScaling, false, 0, 0)
}

// SetZoomAt sets the zoom factor while keeping the viewport point (x, y)
// visually fixed.
func (s *PageSurface) SetZoomAt(zoom, x, y float64) {
	s.applyZoom(zoom, true, x, y)
}

func (s *PageSurface) applyZoom(zoom float64, centered bool, x, y float64) {
	if zoom < s.zoomScaling {
		zoom = s.zoomScaling
	}
	if zoom != s.zoomScaling && s.zoom == s.zoomScaling {
		if s.events.ZoomBegin != nil {
			s.events.ZoomBegin()
		}
	} else if zoom == s.zoomScaling && s.zoom != s.zoomScaling {
		if s.events.ZoomEnd != nil {
			s.events.ZoomEnd()
		}
	}

	// Capture the offsets and borders at the old zoom before the
	// adjustments are reconfigured: Configure clamps the values to the new
	// range, which would corrupt the anchor math when zooming out.
	var hborder, vborder, zoomRatio, hvalue, vvalue float64
	if centered {
		hborder, vborder = s.borders()
		zoomRatio = s.zoom / zoom
		hvalue = s.hadj.Value()
		vvalue = s.vadj.Value()
	}

	s.zoom = zoom
	s.configureAdjustments()

	if centered && zoomRatio != 0 {
		s.hadj.SetValue(math.Max((x+hvalue-hborder)/zoomRatio-x, 0))
		s.vadj.SetValue(math.Max((y+vvalue-vborder)/zoomRatio-y, 0))
	}
}

// SetPointerPosition records the pointer location used as the implicit wheel
// zoom center.
func (s *PageSurface) SetPointerPosition(x, y float64) {
	s.pointerX = x
	s.pointerY = y
}

// HandleWheel applies wheel/trackpad zoom when the zoom modifier is held.
// Returns true when the event was consumed.
func (s *PageSurface) HandleWheel(dy float64, zoomModifier bool) bool {
	if !s.canZoom || !zoomModifier {
		return false
	}
	factor := math.Exp(-dy * math.Log(zoomFactorScrollWheel))
	s.SetZoomAt(s.zoom*factor, s.pointerX, s.pointerY)
	return true
}

// HandleClickReleased feeds a press-release into the single/double click
// state machine. A lone click at baseline zoom schedules a deferred Clicked
// notification; a second click within the double-click window cancels it and
// toggles between baseline and double-tap zoom.
func (s *PageSurface) HandleClickReleased(now time.Time, x, y float64) {
	if !s.canZoom {
		if s.events.Clicked != nil {
			s.events.Clicked(x, y)
		}
		return
	}

	if !s.lastClickAt.IsZero() && now.Sub(s.lastClickAt) <= s.doubleClickWindow {
		// Double click: cancel the scheduled single click.
		s.pendingClick = nil
		s.lastClickAt = time.Time{}

		if s.AtBaseline() {
			s.SetZoomAt(s.zoom*zoomFactorDoubleTap, x, y)
		} else {
			s.ResetZoom()
		}
		return
	}

	s.lastClickAt = now
	if s.AtBaseline() && s.pendingClick == nil {
		s.pendingClick = &pendingClick{at: now, x: x, y: y}
	}
}

// PollPendingClick fires the deferred Clicked notification once the
// double-click window has elapsed without a second click.
func (s *PageSurface) PollPendingClick(now time.Time) {
	if s.pendingClick == nil {
		return
	}
	if now.Sub(s.pendingClick.at) <= s.doubleClickWindow {
		return
	}
	click := s.pendingClick
	s.pendingClick = nil
	if s.events.Clicked != nil {
		s.events.Clicked(click.x, click.y)
	}
}

// PinchBegin anchors a two-finger zoom at the gesture's bounding-box center.
func (s *PageSurface) PinchBegin(centerX, centerY float64) {
	if !s.canZoom {
		return
	}
	s.pinchActive = true
	s.pinchBeginZoom = s.zoom
	s.pinchCenterX = centerX
	s.pinchCenterY = centerY
}

// PinchUpdate applies the reported scale relative to the pinch-start zoom.
// On touchscreens the scroll offset additionally follows the moving center.
func (s *PageSurface) PinchUpdate(scale, centerX, centerY float64, touchscreen bool) {
	if !s.pinchActive {
		return
	}
	s.SetZoomAt(math.Min(s.pinchBeginZoom*scale, zoomFactorMax), s.pinchCenterX, s.pinchCenterY)

	if touchscreen {
		s.hadj.SetValue(s.hadj.Value() + s.pinchCenterX - centerX)
		s.vadj.SetValue(s.vadj.Value() + s.pinchCenterY - centerY)
		s.pinchCenterX = centerX
		s.pinchCenterY = centerY
	}
}

// PinchEnd finishes a two-finger zoom gesture.
func (s *PageSurface) PinchEnd() {
	s.pinchActive = false
}

// AnimationTick advances GIF playback. Scheduled on the frame clock when the
// surface is animated; self-terminates on teardown or when the animation has
// no further frames.
func (s *PageSurface) AnimationTick(now time.Time) TickResult {
	if s.disposed || s.anim == nil {
		return TickRemove
	}
	if s.anim.Done() {
		return TickRemove
	}
	s.anim.Advance(now)
	return TickContinue
}

// CropBBox returns the cached border-crop bounding box, computing it on
// first access. Nil when the surface is animated, fully white, or the
// greyscale pass failed.
func (s *PageSurface) CropBBox() *image.Rectangle {
	if s.anim != nil {
		return nil
	}
	if !s.cropBBoxComputed {
		s.computeCropBBox()
	}
	return s.cropBBox
}

func (s *PageSurface) computeCropBBox() {
	s.cropBBoxComputed = true
	if s.src == nil {
		return
	}
	bbox := computeBordersCropBBox(s.src)
	s.cropBBox = bbox
}

// computeBordersCropBBox binarizes the image against a luminance threshold
// and returns the bounding box of the non-white region.
func computeBordersCropBBox(img image.Image) *image.Rectangle {
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if gray.Y > cropLuminanceThreshold {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		// All white: nothing to crop.
		return nil
	}
	bbox := image.Rect(minX, minY, maxX+1, maxY+1)
	return &bbox
}

// cropSource returns the source restricted to the crop bounding box when the
// bbox is strictly smaller than the full image in either dimension.
func (s *PageSurface) cropSource() image.Image {
	bbox := s.cropBBox
	if bbox == nil {
		return s.src
	}
	if bbox.Dx() >= s.origWidth && bbox.Dy() >= s.origHeight {
		return s.src
	}
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	si, ok := s.src.(subImager)
	if !ok {
		// Source cannot be cropped in place; fall back to the full image.
		debugLog("crop fallback: source %T has no SubImage", s.src)
		return s.src
	}
	return si.SubImage(bbox.Add(s.src.Bounds().Min))
}

// ensureTexture uploads the source into GPU textures on first draw. Static
// sources taller than maxTextureSize are subdivided into strips; animated
// sources get one texture per frame, uploaded lazily.
func (s *PageSurface) ensureTexture() {
	if s.anim != nil {
		if s.animTextures == nil {
			s.animTextures = make([]*ebiten.Image, len(s.anim.frames))
		}
		idx := s.anim.FrameIndex()
		if s.animTextures[idx] == nil {
			s.animTextures[idx] = ebiten.NewImageFromImage(s.anim.Frame())
		}
		s.texture = s.animTextures[idx]
		return
	}

	if s.cropEnabled() && s.cropBBox != nil {
		if s.textureCrop == nil {
			s.textureCrop = ebiten.NewImageFromImage(s.cropSource())
		}
		return
	}

	if s.texture != nil || s.textureStrips != nil {
		return
	}
	if s.origHeight > maxTextureSize {
		s.textureStrips = subdivideImage(s.src, maxTextureSize)
	} else {
		s.texture = ebiten.NewImageFromImage(s.src)
	}
}

// subdivideImage uploads a tall image as stacked horizontal strips, copying
// each strip on the CPU so no single texture exceeds partHeight.
func subdivideImage(src image.Image, partHeight int) []*ebiten.Image {
	bounds := src.Bounds()
	width := bounds.Dx()
	fullHeight := bounds.Dy()

	var parts []*ebiten.Image
	for y := 0; y < fullHeight; y += partHeight {
		height := partHeight
		if y+height > fullHeight {
			height = fullHeight - y
		}
		strip := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(strip, strip.Bounds(), src, image.Pt(bounds.Min.X, bounds.Min.Y+y), draw.Src)
		parts = append(parts, ebiten.NewImageFromImage(strip))
	}
	return parts
}

// Draw paints the surface into dst with its top-left corner at (x, y),
// applying centering borders, scroll offsets and the zoom transform, then
// emits the rendered notification.
func (s *PageSurface) Draw(dst *ebiten.Image, x, y float64) {
	if s.disposed {
		return
	}
	s.ensureTexture()
	s.configureAdjustments()

	displayedWidth := float64(s.DisplayedWidth())
	displayedHeight := float64(s.DisplayedHeight())

	originX := x - s.hadj.Value() + math.Max(float64(s.widgetWidth)-displayedWidth, 0)/2
	originY := y - s.vadj.Value() + math.Max(float64(s.widgetHeight)-displayedHeight, 0)/2

	// Pixel-accurate at and above 100%, smoothed below.
	filter := ebiten.FilterLinear
	if s.zoom >= 1 {
		filter = ebiten.FilterNearest
	}

	if s.textureStrips != nil {
		cursor := originY
		for _, strip := range s.textureStrips {
			stripBounds := strip.Bounds()
			ratio := float64(stripBounds.Dy()) / float64(stripBounds.Dx())
			stripHeight := displayedWidth * ratio

			op := &ebiten.DrawImageOptions{}
			op.Filter = filter
			op.GeoM.Scale(displayedWidth/float64(stripBounds.Dx()), stripHeight/float64(stripBounds.Dy()))
			op.GeoM.Translate(originX, cursor)
			dst.DrawImage(strip, op)
			cursor += stripHeight
		}
	} else {
		texture := s.texture
		if s.cropEnabled() && s.textureCrop != nil {
			texture = s.textureCrop
		}
		if texture == nil {
			return
		}
		textureBounds := texture.Bounds()
		op := &ebiten.DrawImageOptions{}
		op.Filter = filter
		op.GeoM.Scale(displayedWidth/float64(textureBounds.Dx()), displayedHeight/float64(textureBounds.Dy()))
		op.GeoM.Translate(originX, originY)
		dst.DrawImage(texture, op)
	}

	first := !s.rendered
	s.rendered = true
	if s.events.Rendered != nil {
		s.events.Rendered(first)
	}
}

// Dispose releases textures and detaches gesture state. Frame-clock
// callbacks observing the surface terminate on their next tick.
func (s *PageSurface) Dispose() {
	s.disposed = true
	s.pendingClick = nil
	s.pinchActive = false

	deallocate := func(img *ebiten.Image) {
		if img != nil {
			img.Deallocate()
		}
	}
	deallocate(s.textureCrop)
	for _, strip := range s.textureStrips {
		deallocate(strip)
	}
	for _, frame := range s.animTextures {
		deallocate(frame)
	}
	if s.anim == nil {
		deallocate(s.texture)
	}
	s.texture = nil
	s.textureCrop = nil
	s.textureStrips = nil
	s.animTextures = nil
	s.anim = nil
	s.src = nil
}
