package editor

import "docedit/internal/domain"

// Overlay positions the inline text input over a Text shape being edited.
// X and Y are page coordinates.
type Overlay struct {
	ShapeID  string  `json:"shapeId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	FontSize float64 `json:"fontSize"`
	Draft    string  `json:"draft"`
}

func (e *Editor) editing() bool {
	_, ok := e.state.mode.(modeEditing)
	return ok
}

// BeginTextEdit opens the overlay on a Text shape. The draft starts as the
// shape's current text.
func (e *Editor) BeginTextEdit(id string) bool {
	if e.state.Tool.Erases() {
		return false
	}
	_, s := Find(e.state.Shapes, id)
	t, ok := s.(domain.Text)
	if !ok {
		return false
	}
	e.state.mode = modeEditing{id: id, draft: t.Text}
	e.changed()
	return true
}

// SetDraft replaces the draft text.
func (e *Editor) SetDraft(text string) bool {
	m, ok := e.state.mode.(modeEditing)
	if !ok {
		return false
	}
	m.draft = text
	e.state.mode = m
	e.changed()
	return true
}

// ConfirmText commits the draft to the shape and ends editing. The shape
// stays selected.
func (e *Editor) ConfirmText() bool {
	m, ok := e.state.mode.(modeEditing)
	if !ok {
		return false
	}
	e.state.Shapes = Update(e.state.Shapes, m.id, domain.TextPatch(m.draft))
	e.state.mode = modeSelected{id: m.id}
	e.changed()
	return true
}

// CancelText ends editing and leaves the shape untouched.
func (e *Editor) CancelText() bool {
	if !e.editing() {
		return false
	}
	e.state.mode = modeIdle{}
	e.changed()
	return true
}

func (e *Editor) overlay() *Overlay {
	m, ok := e.state.mode.(modeEditing)
	if !ok {
		return nil
	}
	_, s := Find(e.state.Shapes, m.id)
	t, ok := s.(domain.Text)
	if !ok {
		return nil
	}
	p := e.surface.ToPage(domain.Point{X: t.X, Y: t.Y})
	return &Overlay{ShapeID: m.id, X: p.X, Y: p.Y, Rotation: t.Rotation, FontSize: t.FontSize, Draft: m.draft}
}
