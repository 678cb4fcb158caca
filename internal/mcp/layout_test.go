package mcpserver

import (
	"testing"

	"docedit/internal/domain"
)

func TestNextPosition_EmptyCanvas(t *testing.T) {
	le := NewLayoutEngine()
	x, y := le.NextPosition(nil, 50, 50)
	if x != Padding || y != Padding {
		t.Errorf("expected (%.0f, %.0f) for empty canvas, got (%.0f, %.0f)", Padding, Padding, x, y)
	}
}

func TestNextPosition_MultipleShapes(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Bounds{
		{X: 20, Y: 20, Width: 100, Height: 100},
		{X: 160, Y: 20, Width: 100, Height: 100},
	}
	x, y := le.NextPosition(existing, 50, 50)

	r := rect{x, y, 50, 50}
	for _, b := range existing {
		padded := rect{b.X - Padding, b.Y - Padding, b.Width + Padding*2, b.Height + Padding*2}
		if r.intersects(padded) {
			t.Errorf("position (%.0f, %.0f) overlaps shape at (%.0f, %.0f)", x, y, b.X, b.Y)
		}
	}
}

func TestNextPosition_RespectsRowWidth(t *testing.T) {
	le := NewLayoutEngine().WithRowWidth(200)
	existing := []domain.Bounds{{X: 20, Y: 20, Width: 100, Height: 50}}
	x, y := le.NextPosition(existing, 100, 50)
	if x+100 > 200 {
		t.Errorf("position (%.0f, %.0f) runs past the row width", x, y)
	}
	if y < 20+50+Padding {
		t.Errorf("expected the shape on a new row, got y=%.0f", y)
	}
}

func TestArrangeGroup(t *testing.T) {
	le := NewLayoutEngine().WithRowWidth(400)
	boxes := []domain.Bounds{
		{Width: 150, Height: 100},
		{Width: 150, Height: 100},
		{Width: 150, Height: 100},
	}

	corners := le.ArrangeGroup(boxes, 20, 20)
	if len(corners) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(corners))
	}
	if corners[2].X != 20 || corners[2].Y <= corners[0].Y {
		t.Errorf("expected the third box to wrap, got %+v", corners[2])
	}

	for i := 0; i < len(corners); i++ {
		for j := i + 1; j < len(corners); j++ {
			a := rect{corners[i].X, corners[i].Y, boxes[i].Width, boxes[i].Height}
			b := rect{corners[j].X, corners[j].Y, boxes[j].Width, boxes[j].Height}
			if a.intersects(b) {
				t.Errorf("boxes %d and %d overlap: (%.0f,%.0f) and (%.0f,%.0f)", i, j, a.x, a.y, b.x, b.y)
			}
		}
	}
}

func TestPlaceShape_CircleUsesCentre(t *testing.T) {
	c := domain.Circle{Header: domain.Header{ID: "Circle-1"}, Radius: 25}
	p := placeShape(c, domain.Point{X: 100, Y: 40})
	if p.X != 125 || p.Y != 65 {
		t.Errorf("expected centre (125, 65), got %+v", p)
	}
	r := domain.Rect{Header: domain.Header{ID: "Rect-1"}, Width: 50, Height: 50}
	if p := placeShape(r, domain.Point{X: 100, Y: 40}); p.X != 100 || p.Y != 40 {
		t.Errorf("expected rect at the corner, got %+v", p)
	}
}

func TestSnap(t *testing.T) {
	le := NewLayoutEngine()
	tests := []struct {
		input, want float64
	}{
		{0, 0},
		{4, 0},
		{5, 10},
		{14, 10},
		{26, 30},
	}
	for _, tt := range tests {
		got := le.snap(tt.input)
		if got != tt.want {
			t.Errorf("snap(%.0f) = %.0f, want %.0f", tt.input, got, tt.want)
		}
	}
}
