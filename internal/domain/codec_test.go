package domain_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"docedit/internal/domain"
)

func sampleShapes() []domain.Shape {
	return []domain.Shape{
		domain.Rect{Header: domain.Header{ID: "Rect-1", X: 10, Y: 20}, Width: 50, Height: 50, Fill: "red"},
		domain.Circle{Header: domain.Header{ID: "Circle-1", X: 120, Y: 80, Rotation: 30}, Radius: 25, Fill: "blue"},
		domain.Line{Header: domain.Header{ID: "Line-1", X: 5, Y: 5}, Points: []float64{0, 0, 50, 50}, Stroke: "green", StrokeWidth: 2},
		domain.Text{Header: domain.Header{ID: "Text-1", X: 0, Y: 0}, Text: "Hello", FontSize: 16, Fill: "black"},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := sampleShapes()
	s, err := domain.EncodeShapes(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := domain.DecodeShapes(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}

func TestEncodeShapes_Empty(t *testing.T) {
	for _, in := range [][]domain.Shape{nil, {}} {
		s, err := domain.EncodeShapes(in)
		if err != nil {
			t.Fatal(err)
		}
		if s != "[]" {
			t.Errorf("expected [], got %q", s)
		}
	}
}

func TestEncodeShapes_CircleWireForm(t *testing.T) {
	s, err := domain.EncodeShapes([]domain.Shape{
		domain.Circle{Header: domain.Header{ID: "Circle-1", X: 120, Y: 80}, Radius: 25, Fill: "blue"},
	})
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(s), &got); err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{{"id": "Circle-1", "type": "Circle", "x": 120.0, "y": 80.0, "radius": 25.0, "fill": "blue"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeShapes_EmptyAndNull(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "[]"} {
		out, err := domain.DecodeShapes(in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", in, err)
		}
		if out == nil || len(out) != 0 {
			t.Errorf("%q: expected empty non-nil list, got %v", in, out)
		}
	}
}

func TestDecodeShapes_Malformed(t *testing.T) {
	cases := []string{
		`{not json`,
		`{"id":"x"}`,
		`[{"id":"a","type":"Hexagon","x":0,"y":0}]`,
		`[{"id":"a","type":"Line","x":0,"y":0,"points":[1,2,3]}]`,
		`[{"id":"a","type":"Rect","x":0,"y":0},{"id":"a","type":"Rect","x":1,"y":1}]`,
	}
	for _, in := range cases {
		_, err := domain.DecodeShapes(in)
		var serr *domain.SerializationError
		if !errors.As(err, &serr) {
			t.Errorf("%q: expected SerializationError, got %v", in, err)
		}
	}
}

func TestDecodeShapes_AssignsMissingIDs(t *testing.T) {
	out, err := domain.DecodeShapes(`[
		{"id":"Rect-3","type":"Rect","x":0,"y":0,"width":1,"height":1},
		{"type":"Rect","x":5,"y":5,"width":1,"height":1},
		{"type":"Circle","x":5,"y":5,"radius":3}
	]`)
	if err != nil {
		t.Fatal(err)
	}
	ids := []string{out[0].Head().ID, out[1].Head().ID, out[2].Head().ID}
	if !reflect.DeepEqual(ids, []string{"Rect-3", "Rect-4", "Circle-1"}) {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestMaxSequences(t *testing.T) {
	got := domain.MaxSequences([]domain.Shape{
		domain.Rect{Header: domain.Header{ID: "Rect-2"}},
		domain.Rect{Header: domain.Header{ID: "Rect-10"}},
		domain.Rect{Header: domain.Header{ID: "custom"}},
		domain.Text{Header: domain.Header{ID: "Text-1"}},
	})
	if got[domain.KindRect] != 10 || got[domain.KindText] != 1 || got[domain.KindCircle] != 0 {
		t.Errorf("unexpected sequences: %v", got)
	}
}

func TestMaxSequences_ByIDPrefix(t *testing.T) {
	got := domain.MaxSequences([]domain.Shape{
		domain.Circle{Header: domain.Header{ID: "Rect-4"}},
		domain.Text{Header: domain.Header{ID: "Line-2"}},
	})
	if got[domain.KindRect] != 4 || got[domain.KindLine] != 2 || got[domain.KindCircle] != 0 {
		t.Errorf("unexpected sequences: %v", got)
	}
}

func TestDraft_JSON(t *testing.T) {
	in := domain.Draft{Title: "t", Theme: "th", Overview: "o", Results: "r", Shapes: sampleShapes()}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out domain.Draft
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("draft mismatch:\n in: %+v\nout: %+v", in, out)
	}

	err = json.Unmarshal([]byte(`{"shapes":[{"id":"a","type":"Blob","x":0,"y":0}]}`), &out)
	var serr *domain.SerializationError
	if !errors.As(err, &serr) {
		t.Errorf("expected SerializationError, got %v", err)
	}
}
