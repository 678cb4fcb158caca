package mcpserver

import (
	"math"

	"docedit/internal/domain"
)

const (
	GridSize = 10.0
	Padding  = 20.0 // 2 grid cells between shapes
	// MaxRowW is used when the canvas has not been sized yet.
	MaxRowW = 800.0
)

// LayoutEngine handles automatic placement of shapes on the canvas
// so that agent-created shapes don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// WithRowWidth returns a copy that wraps rows at w. Non-positive widths
// keep the default.
func (le *LayoutEngine) WithRowWidth(w float64) *LayoutEngine {
	out := *le
	if w > 0 {
		out.maxRowW = w
	}
	return &out
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func rectOf(b domain.Bounds) rect { return rect{b.X, b.Y, b.Width, b.Height} }

// NextPosition finds the next free grid position for a box of size
// (newW, newH) given the bounds of the shapes already on the canvas.
// The result is the box's top-left corner.
func (le *LayoutEngine) NextPosition(existing []domain.Bounds, newW, newH float64) (float64, float64) {
	if len(existing) == 0 {
		return le.padding, le.padding
	}

	occupied := make([]rect, len(existing))
	for i, b := range existing {
		occupied[i] = rectOf(b)
	}

	// Scan rows top-to-bottom, columns left-to-right
	candidate := rect{w: newW, h: newH}
	for y := le.padding; y < 100000; y += le.gridSize {
		for x := le.padding; x+newW <= le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				padded := rect{
					x: occ.x - le.padding,
					y: occ.y - le.padding,
					w: occ.w + le.padding*2,
					h: occ.h + le.padding*2,
				}
				if candidate.intersects(padded) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return candidate.x, candidate.y
			}
		}
		if newW+le.padding > le.maxRowW {
			break
		}
	}

	// Fallback: place below everything
	maxY := 0.0
	for _, b := range existing {
		if b.Y+b.Height > maxY {
			maxY = b.Y + b.Height
		}
	}
	return le.padding, le.snap(maxY + le.padding)
}

// ArrangeGroup lays boxes out in rows starting from (startX, startY) and
// returns the top-left corner chosen for each, in order.
func (le *LayoutEngine) ArrangeGroup(boxes []domain.Bounds, startX, startY float64) []domain.Point {
	out := make([]domain.Point, len(boxes))
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	for i, b := range boxes {
		// Wrap to next row
		if x > le.snap(startX) && x+b.Width > le.maxRowW {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}

		out[i] = domain.Point{X: x, Y: y}
		if b.Height > rowHeight {
			rowHeight = b.Height
		}
		x += le.snap(b.Width + le.padding)
	}

	return out
}

// placeShape returns the shape position that puts its bounds' top-left
// corner at corner. Circles are positioned by their centre, so the offset
// between position and bounds differs per kind.
func placeShape(s domain.Shape, corner domain.Point) domain.Point {
	h, b := s.Head(), s.Bounds()
	return domain.Point{X: corner.X + (h.X - b.X), Y: corner.Y + (h.Y - b.Y)}
}
