package domain

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Kind identifies a shape variant. The string value is the wire "type".
type Kind string

const (
	KindRect   Kind = "Rect"
	KindCircle Kind = "Circle"
	KindLine   Kind = "Line"
	KindText   Kind = "Text"
)

// Kinds lists every shape variant in declaration order.
var Kinds = []Kind{KindRect, KindCircle, KindLine, KindText}

// Point is a position in document space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an axis-aligned box in the shape's local (unrotated) frame,
// expressed in document space.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Header holds the fields every shape carries.
type Header struct {
	ID       string
	X        float64
	Y        float64
	Rotation float64 // degrees, clockwise, around (X, Y)
}

// Scale is a transform scale factor applied while a shape is being resized.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the scale every stored shape is normalized to.
var Identity = Scale{X: 1, Y: 1}

// Shape is the closed set of drawable primitives: Rect, Circle, Line, Text.
// The unexported methods keep the set closed to this package.
type Shape interface {
	Kind() Kind
	Head() Header
	// Bounds returns the unrotated local box of the shape.
	Bounds() Bounds
	// Contains reports whether p (document space) hits the shape.
	Contains(p Point) bool

	withHead(h Header) Shape
	apply(p Patch) Shape
	normalize(s Scale) Shape
	entry() Entry
}

// ── Rect ───────────────────────────────────────────────────

type Rect struct {
	Header
	Width  float64
	Height float64
	Fill   string
}

func (r Rect) Kind() Kind   { return KindRect }
func (r Rect) Head() Header { return r.Header }

func (r Rect) Bounds() Bounds {
	return Bounds{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func (r Rect) Contains(p Point) bool {
	l := toLocal(r.Header, p)
	return l.X >= 0 && l.Y >= 0 && l.X <= r.Width && l.Y <= r.Height
}

func (r Rect) withHead(h Header) Shape { r.Header = h; return r }

func (r Rect) apply(p Patch) Shape {
	r.Header = p.head(r.Header)
	setFloat(&r.Width, p.Width)
	setFloat(&r.Height, p.Height)
	setString(&r.Fill, p.Fill)
	return r
}

func (r Rect) normalize(s Scale) Shape {
	r.Width = math.Abs(r.Width * s.X)
	r.Height = math.Abs(r.Height * s.Y)
	return r
}

func (r Rect) entry() Entry {
	e := newEntry(r.Header, KindRect)
	e.Width, e.Height, e.Fill = ptr(r.Width), ptr(r.Height), ptr(r.Fill)
	return e
}

// ── Circle ─────────────────────────────────────────────────

// Circle is centered on (X, Y).
type Circle struct {
	Header
	Radius float64
	Fill   string
}

func (c Circle) Kind() Kind   { return KindCircle }
func (c Circle) Head() Header { return c.Header }

func (c Circle) Bounds() Bounds {
	return Bounds{X: c.X - c.Radius, Y: c.Y - c.Radius, Width: 2 * c.Radius, Height: 2 * c.Radius}
}

func (c Circle) Contains(p Point) bool {
	return math.Hypot(p.X-c.X, p.Y-c.Y) <= c.Radius
}

func (c Circle) withHead(h Header) Shape { c.Header = h; return c }

func (c Circle) apply(p Patch) Shape {
	c.Header = p.head(c.Header)
	setFloat(&c.Radius, p.Radius)
	setString(&c.Fill, p.Fill)
	return c
}

// normalize keeps circles round: the larger axis factor wins.
func (c Circle) normalize(s Scale) Shape {
	c.Radius = math.Abs(c.Radius * math.Max(math.Abs(s.X), math.Abs(s.Y)))
	return c
}

func (c Circle) entry() Entry {
	e := newEntry(c.Header, KindCircle)
	e.Radius, e.Fill = ptr(c.Radius), ptr(c.Fill)
	return e
}

// ── Line ───────────────────────────────────────────────────

// Line is a polyline. Points are flat x,y pairs relative to (X, Y).
type Line struct {
	Header
	Points      []float64
	Stroke      string
	StrokeWidth float64
}

// lineHitSlop is the minimum distance, in document units, that still
// counts as a hit on a thin line.
const lineHitSlop = 4

func (l Line) Kind() Kind   { return KindLine }
func (l Line) Head() Header { return l.Header }

func (l Line) Bounds() Bounds {
	if len(l.Points) < 2 {
		return Bounds{X: l.X, Y: l.Y}
	}
	minX, minY := l.Points[0], l.Points[1]
	maxX, maxY := minX, minY
	for i := 0; i+1 < len(l.Points); i += 2 {
		minX = math.Min(minX, l.Points[i])
		maxX = math.Max(maxX, l.Points[i])
		minY = math.Min(minY, l.Points[i+1])
		maxY = math.Max(maxY, l.Points[i+1])
	}
	return Bounds{X: l.X + minX, Y: l.Y + minY, Width: maxX - minX, Height: maxY - minY}
}

func (l Line) Contains(p Point) bool {
	lp := toLocal(l.Header, p)
	tol := math.Max(l.StrokeWidth/2, lineHitSlop)
	for i := 0; i+3 < len(l.Points); i += 2 {
		a := Point{l.Points[i], l.Points[i+1]}
		b := Point{l.Points[i+2], l.Points[i+3]}
		if segmentDistance(lp, a, b) <= tol {
			return true
		}
	}
	return false
}

func (l Line) withHead(h Header) Shape { l.Header = h; return l }

func (l Line) apply(p Patch) Shape {
	l.Header = p.head(l.Header)
	if p.Points != nil {
		l.Points = append([]float64{}, p.Points...)
	}
	setString(&l.Stroke, p.Stroke)
	setFloat(&l.StrokeWidth, p.StrokeWidth)
	return l
}

func (l Line) normalize(s Scale) Shape {
	pts := make([]float64, len(l.Points))
	for i, v := range l.Points {
		if i%2 == 0 {
			pts[i] = v * s.X
		} else {
			pts[i] = v * s.Y
		}
	}
	l.Points = pts
	return l
}

func (l Line) entry() Entry {
	e := newEntry(l.Header, KindLine)
	e.Points = append([]float64{}, l.Points...)
	e.Stroke, e.StrokeWidth = ptr(l.Stroke), ptr(l.StrokeWidth)
	return e
}

// ── Text ───────────────────────────────────────────────────

type Text struct {
	Header
	Text     string
	FontSize float64
	Fill     string
}

// glyphAdvance approximates the advance width of one glyph as a fraction
// of the font size; there is no font metrics source on this side.
const glyphAdvance = 0.6

func (t Text) Kind() Kind   { return KindText }
func (t Text) Head() Header { return t.Header }

func (t Text) Bounds() Bounds {
	n := utf8.RuneCountInString(t.Text)
	if n == 0 {
		n = 1
	}
	return Bounds{X: t.X, Y: t.Y, Width: float64(n) * t.FontSize * glyphAdvance, Height: t.FontSize}
}

func (t Text) Contains(p Point) bool {
	b := t.Bounds()
	l := toLocal(t.Header, p)
	return l.X >= 0 && l.Y >= 0 && l.X <= b.Width && l.Y <= b.Height
}

func (t Text) withHead(h Header) Shape { t.Header = h; return t }

func (t Text) apply(p Patch) Shape {
	t.Header = p.head(t.Header)
	setString(&t.Text, p.Text)
	setFloat(&t.FontSize, p.FontSize)
	setString(&t.Fill, p.Fill)
	return t
}

// normalize scales the font by the vertical factor; text keeps its aspect.
func (t Text) normalize(s Scale) Shape {
	t.FontSize = math.Abs(t.FontSize * s.Y)
	return t
}

func (t Text) entry() Entry {
	e := newEntry(t.Header, KindText)
	e.Text, e.FontSize, e.Fill = ptr(t.Text), ptr(t.FontSize), ptr(t.Fill)
	return e
}

// ── Patch ──────────────────────────────────────────────────

// Patch carries optional field replacements. Fields that do not exist on
// the target kind are ignored.
type Patch struct {
	X           *float64  `json:"x,omitempty"`
	Y           *float64  `json:"y,omitempty"`
	Rotation    *float64  `json:"rotation,omitempty"`
	Width       *float64  `json:"width,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	Radius      *float64  `json:"radius,omitempty"`
	Points      []float64 `json:"points,omitempty"`
	Stroke      *string   `json:"stroke,omitempty"`
	StrokeWidth *float64  `json:"strokeWidth,omitempty"`
	Fill        *string   `json:"fill,omitempty"`
	Text        *string   `json:"text,omitempty"`
	FontSize    *float64  `json:"fontSize,omitempty"`
}

// MovePatch sets only the position.
func MovePatch(x, y float64) Patch { return Patch{X: &x, Y: &y} }

// TextPatch sets only the text content.
func TextPatch(text string) Patch { return Patch{Text: &text} }

func (p Patch) head(h Header) Header {
	setFloat(&h.X, p.X)
	setFloat(&h.Y, p.Y)
	setFloat(&h.Rotation, p.Rotation)
	return h
}

// Apply returns s with p applied. The id and kind never change.
func Apply(s Shape, p Patch) Shape { return s.apply(p) }

// Normalize folds a transform scale into the stored dimensions so the
// result is scale-free.
func Normalize(s Shape, sc Scale) Shape { return s.normalize(sc) }

// WithHeader returns s with its common fields replaced.
func WithHeader(s Shape, h Header) Shape { return s.withHead(h) }

// ── geometry helpers ───────────────────────────────────────

// toLocal maps p into the shape's unrotated frame anchored at (X, Y).
func toLocal(h Header, p Point) Point {
	dx, dy := p.X-h.X, p.Y-h.Y
	if h.Rotation == 0 {
		return Point{dx, dy}
	}
	rad := -h.Rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Point{dx*cos - dy*sin, dx*sin + dy*cos}
}

func segmentDistance(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T { return &v }

// ShapeID formats the id of the seq-th shape of kind.
func ShapeID(kind Kind, seq int) string {
	return fmt.Sprintf("%s-%d", kind, seq)
}
