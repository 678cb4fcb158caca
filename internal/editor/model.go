package editor

import "docedit/internal/domain"

// Shape defaults for newly created shapes.
const (
	DefaultRectSize    = 50
	DefaultRadius      = 25
	DefaultLineLength  = 50
	DefaultStrokeWidth = 2
	DefaultFontSize    = 16
	DefaultText        = "Text"
)

// NewShape builds the seq-th shape of kind at pos. It is pure: the same
// arguments always yield the same shape.
func NewShape(kind domain.Kind, pos domain.Point, seq int) domain.Shape {
	h := domain.Header{ID: domain.ShapeID(kind, seq), X: pos.X, Y: pos.Y}
	switch kind {
	case domain.KindRect:
		return domain.Rect{Header: h, Width: DefaultRectSize, Height: DefaultRectSize, Fill: "red"}
	case domain.KindCircle:
		return domain.Circle{Header: h, Radius: DefaultRadius, Fill: "blue"}
	case domain.KindLine:
		return domain.Line{
			Header:      h,
			Points:      []float64{0, 0, DefaultLineLength, DefaultLineLength},
			Stroke:      "green",
			StrokeWidth: DefaultStrokeWidth,
		}
	default:
		return domain.Text{Header: h, Text: DefaultText, FontSize: DefaultFontSize, Fill: "black"}
	}
}

// Find returns the index and shape with the given id, or -1.
func Find(shapes []domain.Shape, id string) (int, domain.Shape) {
	for i, s := range shapes {
		if s.Head().ID == id {
			return i, s
		}
	}
	return -1, nil
}

// Update returns shapes with the matching shape patched. An unknown id
// leaves the list untouched.
func Update(shapes []domain.Shape, id string, p domain.Patch) []domain.Shape {
	return replace(shapes, id, func(s domain.Shape) domain.Shape { return domain.Apply(s, p) })
}

// Remove returns shapes without the matching shape.
func Remove(shapes []domain.Shape, id string) []domain.Shape {
	i, _ := Find(shapes, id)
	if i < 0 {
		return shapes
	}
	out := make([]domain.Shape, 0, len(shapes)-1)
	out = append(out, shapes[:i]...)
	return append(out, shapes[i+1:]...)
}

// HitTest returns the topmost shape containing p. Later shapes are drawn
// above earlier ones.
func HitTest(shapes []domain.Shape, p domain.Point) (domain.Shape, bool) {
	for i := len(shapes) - 1; i >= 0; i-- {
		if shapes[i].Contains(p) {
			return shapes[i], true
		}
	}
	return nil, false
}

func replace(shapes []domain.Shape, id string, fn func(domain.Shape) domain.Shape) []domain.Shape {
	i, s := Find(shapes, id)
	if i < 0 {
		return shapes
	}
	out := append([]domain.Shape(nil), shapes...)
	out[i] = fn(s)
	return out
}
