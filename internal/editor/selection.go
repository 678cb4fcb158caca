package editor

import "docedit/internal/domain"

// Phase names the interaction mode for the frontend.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseSelected     Phase = "selected"
	PhaseTransforming Phase = "transforming"
	PhaseEditing      Phase = "editing"
)

// mode is the interaction state. Exactly one variant is active, so a
// shape cannot be edited and transformed at once, and at most one shape
// is ever selected.
type mode interface {
	phase() Phase
	target() string
}

type modeIdle struct{}

type modeSelected struct{ id string }

type modeTransforming struct {
	id    string
	drag  bool
	scale domain.Scale
	angle float64
}

type modeEditing struct {
	id    string
	draft string
}

func (modeIdle) phase() Phase           { return PhaseIdle }
func (modeIdle) target() string         { return "" }
func (m modeSelected) phase() Phase     { return PhaseSelected }
func (m modeSelected) target() string   { return m.id }
func (m modeTransforming) phase() Phase { return PhaseTransforming }
func (m modeTransforming) target() string {
	return m.id
}
func (m modeEditing) phase() Phase   { return PhaseEditing }
func (m modeEditing) target() string { return m.id }

// Transform is the result of a resize/rotate gesture as reported by the
// transform handles.
type Transform struct {
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Scale    domain.Scale `json:"scale"`
	Rotation float64      `json:"rotation"`
}

// Selected returns the selected shape id, or "" when nothing is selected.
// A shape being transformed or edited counts as selected.
func (e *Editor) Selected() string { return e.state.mode.target() }

// Phase returns the current interaction phase.
func (e *Editor) Phase() Phase { return e.state.mode.phase() }

// Select makes id the only selected shape. It fails when the id is
// unknown, the eraser is active, or text editing is in progress.
func (e *Editor) Select(id string) bool {
	if e.state.Tool.Erases() || e.editing() {
		return false
	}
	if i, _ := Find(e.state.Shapes, id); i < 0 {
		return false
	}
	e.state.mode = modeSelected{id: id}
	e.changed()
	return true
}

// Deselect returns to idle. Text editing is cancelled.
func (e *Editor) Deselect() {
	if _, idle := e.state.mode.(modeIdle); idle {
		return
	}
	e.state.mode = modeIdle{}
	e.changed()
}

// BeginDrag starts moving a shape. Dragging an unselected shape selects it.
func (e *Editor) BeginDrag(id string) bool {
	return e.begin(id, true)
}

// EndDrag commits the dropped position. Only x and y change.
func (e *Editor) EndDrag(id string, x, y float64) bool {
	m, ok := e.state.mode.(modeTransforming)
	if !ok || m.id != id || !m.drag {
		return false
	}
	e.state.Shapes = Update(e.state.Shapes, id, domain.MovePatch(x, y))
	e.state.mode = modeSelected{id: id}
	e.changed()
	return true
}

// BeginTransform starts a resize/rotate gesture on the selected shape.
// Handles exist only on the selected shape, so other ids are refused.
func (e *Editor) BeginTransform(id string) bool {
	if e.Selected() != id || e.Phase() != PhaseSelected {
		return false
	}
	return e.begin(id, false)
}

// Transform updates the live scale and angle while a gesture is in
// progress. Stored dimensions do not change until EndTransform.
func (e *Editor) Transform(id string, scale domain.Scale, rotation float64) bool {
	m, ok := e.state.mode.(modeTransforming)
	if !ok || m.id != id || m.drag {
		return false
	}
	m.scale, m.angle = scale, rotation
	e.state.mode = m
	e.changed()
	return true
}

// EndTransform commits a resize/rotate gesture. The scale is folded into
// the stored dimensions (width = width×scaleX, height = height×scaleY for
// rects) and the live scale goes back to 1.
func (e *Editor) EndTransform(id string, t Transform) bool {
	m, ok := e.state.mode.(modeTransforming)
	if !ok || m.id != id || m.drag {
		return false
	}
	x, y, rot := t.X, t.Y, t.Rotation
	// Edits made to the shape during the gesture are kept.
	e.state.Shapes = replace(e.state.Shapes, id, func(cur domain.Shape) domain.Shape {
		s := domain.Apply(cur, domain.Patch{X: &x, Y: &y, Rotation: &rot})
		return domain.Normalize(s, t.Scale)
	})
	e.state.mode = modeSelected{id: id}
	e.changed()
	return true
}

// LiveScale is the scale currently applied by the transform handles.
// Outside a resize gesture it is always 1.
func (e *Editor) LiveScale() domain.Scale {
	if m, ok := e.state.mode.(modeTransforming); ok && !m.drag {
		return m.scale
	}
	return domain.Identity
}

func (e *Editor) begin(id string, drag bool) bool {
	if e.state.Tool.Erases() || e.editing() {
		return false
	}
	i, s := Find(e.state.Shapes, id)
	if i < 0 {
		return false
	}
	e.state.mode = modeTransforming{
		id:    id,
		drag:  drag,
		scale: domain.Identity,
		angle: s.Head().Rotation,
	}
	e.changed()
	return true
}

// Handles describes the single transform-handle set, derived each frame
// from the selected id.
type Handles struct {
	ShapeID  string        `json:"shapeId"`
	Bounds   domain.Bounds `json:"bounds"`
	Rotation float64       `json:"rotation"`
	Scale    domain.Scale  `json:"scale"`
}

func (e *Editor) handles() *Handles {
	id := e.Selected()
	if id == "" || e.editing() {
		return nil
	}
	_, s := Find(e.state.Shapes, id)
	if s == nil {
		return nil
	}
	h := &Handles{ShapeID: id, Bounds: s.Bounds(), Rotation: s.Head().Rotation, Scale: domain.Identity}
	if m, ok := e.state.mode.(modeTransforming); ok && !m.drag {
		h.Scale, h.Rotation = m.scale, m.angle
		h.Bounds.Width *= m.scale.X
		h.Bounds.Height *= m.scale.Y
	}
	return h
}
