package editor

import (
	"math"

	"docedit/internal/domain"
)

// Canvas geometry. The height is fixed; the width follows the viewport
// minus the surrounding page chrome.
const (
	CanvasHeight     = 500
	canvasWidthRatio = 0.9
	canvasChrome     = 48
)

// Size is the canvas size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CanvasSize returns the canvas size for a viewport width.
func CanvasSize(viewportWidth float64) Size {
	w := math.Max(0, viewportWidth*canvasWidthRatio-canvasChrome)
	return Size{Width: w, Height: CanvasHeight}
}

// Surface maps pointer events from client (page) coordinates into document
// space and fans them out to subscribers. Document space is fixed: a
// resize changes the canvas size only, never shape coordinates.
//
// Surface is not safe for concurrent use; callers serialize events.
type Surface struct {
	offset domain.Point
	size   Size

	next     int
	onClick  map[int]func(domain.Point)
	onResize map[int]func(Size)
}

// NewSurface creates a surface with a zero-width canvas.
func NewSurface() *Surface {
	return &Surface{
		size:     Size{Height: CanvasHeight},
		onClick:  make(map[int]func(domain.Point)),
		onResize: make(map[int]func(Size)),
	}
}

// SetOffset records where the canvas sits on the page.
func (s *Surface) SetOffset(x, y float64) { s.offset = domain.Point{X: x, Y: y} }

// Offset returns the canvas position on the page.
func (s *Surface) Offset() domain.Point { return s.offset }

// Size returns the current canvas size.
func (s *Surface) Size() Size { return s.size }

// ToDocument converts client coordinates to document space.
func (s *Surface) ToDocument(clientX, clientY float64) domain.Point {
	return domain.Point{X: clientX - s.offset.X, Y: clientY - s.offset.Y}
}

// ToPage converts a document-space point back to client coordinates.
func (s *Surface) ToPage(p domain.Point) domain.Point {
	return domain.Point{X: p.X + s.offset.X, Y: p.Y + s.offset.Y}
}

// Click dispatches a pointer click at client coordinates.
func (s *Surface) Click(clientX, clientY float64) {
	p := s.ToDocument(clientX, clientY)
	for _, id := range s.order(len(s.onClick)) {
		if fn, ok := s.onClick[id]; ok {
			fn(p)
		}
	}
}

// Resize recomputes the canvas size for a viewport width and notifies
// resize subscribers.
func (s *Surface) Resize(viewportWidth float64) {
	s.size = CanvasSize(viewportWidth)
	for _, id := range s.order(len(s.onResize)) {
		if fn, ok := s.onResize[id]; ok {
			fn(s.size)
		}
	}
}

// OnClick subscribes to clicks. The returned func releases the
// subscription and is safe to call more than once.
func (s *Surface) OnClick(fn func(domain.Point)) (release func()) {
	id := s.subscribe()
	s.onClick[id] = fn
	return func() { delete(s.onClick, id) }
}

// OnResize subscribes to canvas resizes.
func (s *Surface) OnResize(fn func(Size)) (release func()) {
	id := s.subscribe()
	s.onResize[id] = fn
	return func() { delete(s.onResize, id) }
}

// Subscribers returns the number of live subscriptions.
func (s *Surface) Subscribers() int { return len(s.onClick) + len(s.onResize) }

func (s *Surface) subscribe() int {
	s.next++
	return s.next
}

// order returns subscription ids in registration order so dispatch is
// deterministic.
func (s *Surface) order(n int) []int {
	if n == 0 {
		return nil
	}
	ids := make([]int, 0, n)
	for id := 1; id <= s.next; id++ {
		_, c := s.onClick[id]
		_, r := s.onResize[id]
		if c || r {
			ids = append(ids, id)
		}
	}
	return ids
}
