package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Entry is the persisted form of one shape inside a document's `objects`
// array. Optional fields are pointers so a stored zero survives a round
// trip unchanged.
type Entry struct {
	ID          string    `json:"id"`
	Type        Kind      `json:"type"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
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

func newEntry(h Header, k Kind) Entry {
	e := Entry{ID: h.ID, Type: k, X: h.X, Y: h.Y}
	if h.Rotation != 0 {
		e.Rotation = ptr(h.Rotation)
	}
	return e
}

// ToEntry converts a shape to its wire form.
func ToEntry(s Shape) Entry { return s.entry() }

// ToEntries converts shapes to wire form. The result is never nil.
func ToEntries(shapes []Shape) []Entry {
	out := make([]Entry, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, s.entry())
	}
	return out
}

// FromEntry converts a wire entry back into a shape.
func FromEntry(e Entry) (Shape, error) {
	h := Header{ID: e.ID, X: e.X, Y: e.Y, Rotation: deref(e.Rotation)}
	switch e.Type {
	case KindRect:
		return Rect{Header: h, Width: deref(e.Width), Height: deref(e.Height), Fill: deref(e.Fill)}, nil
	case KindCircle:
		return Circle{Header: h, Radius: deref(e.Radius), Fill: deref(e.Fill)}, nil
	case KindLine:
		pts := append([]float64{}, e.Points...)
		if len(pts)%2 != 0 {
			return nil, fmt.Errorf("shape %q: odd number of line coordinates (%d)", e.ID, len(pts))
		}
		return Line{Header: h, Points: pts, Stroke: deref(e.Stroke), StrokeWidth: deref(e.StrokeWidth)}, nil
	case KindText:
		return Text{Header: h, Text: deref(e.Text), FontSize: deref(e.FontSize), Fill: deref(e.Fill)}, nil
	default:
		return nil, fmt.Errorf("shape %q: unknown type %q", e.ID, e.Type)
	}
}

// EncodeShapes serializes shapes to the `objects` JSON string. An empty
// list encodes as "[]", never "null".
func EncodeShapes(shapes []Shape) (string, error) {
	data, err := json.Marshal(ToEntries(shapes))
	if err != nil {
		return "", fmt.Errorf("encode shapes: %w", err)
	}
	return string(data), nil
}

// DecodeShapes parses an `objects` JSON string. Empty input and JSON null
// decode to an empty list. Entries stored without an id (documents saved
// before ids existed) are given fresh <Kind>-<n> ids. Any other problem is
// reported as a *SerializationError.
func DecodeShapes(objects string) ([]Shape, error) {
	trimmed := bytes.TrimSpace([]byte(objects))
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Shape{}, nil
	}
	var entries []Entry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, &SerializationError{Err: err}
	}
	return FromEntries(entries)
}

// FromEntries converts wire entries to shapes, assigning ids to entries
// that lack one. Duplicate ids and unknown types are a *SerializationError.
func FromEntries(entries []Entry) ([]Shape, error) {
	shapes := make([]Shape, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	var missing []int
	for i, e := range entries {
		if e.ID == "" {
			missing = append(missing, i)
		} else if seen[e.ID] {
			return nil, &SerializationError{Err: fmt.Errorf("duplicate shape id %q", e.ID)}
		}
		seen[e.ID] = true
		s, err := FromEntry(e)
		if err != nil {
			return nil, &SerializationError{Err: err}
		}
		shapes = append(shapes, s)
	}

	if len(missing) > 0 {
		seq := MaxSequences(shapes)
		for _, i := range missing {
			k := shapes[i].Kind()
			for {
				seq[k]++
				if id := ShapeID(k, seq[k]); !seen[id] {
					seen[id] = true
					h := shapes[i].Head()
					h.ID = id
					shapes[i] = shapes[i].withHead(h)
					break
				}
			}
		}
	}
	return shapes, nil
}

// MaxSequences returns, per kind, the highest numeric suffix among ids of
// the form <Kind>-<n>. The prefix decides the kind, not the shape carrying
// the id, so a Circle stored as "Rect-3" still reserves Rect-3.
func MaxSequences(shapes []Shape) map[Kind]int {
	out := make(map[Kind]int, len(Kinds))
	for _, s := range shapes {
		id := s.Head().ID
		for _, k := range Kinds {
			rest, ok := strings.CutPrefix(id, string(k)+"-")
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(rest); err == nil && n > out[k] {
				out[k] = n
			}
		}
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
