// Package editor is the headless shape editor: tool handling, selection,
// transforms and inline text editing over an ordered shape list.
//
// An Editor is driven by one event loop. It is not safe for concurrent use;
// the app layer serializes every handler call.
package editor

import (
	"errors"
	"log"

	"docedit/internal/domain"
)

// Fields are the form fields that travel with the shapes.
type Fields struct {
	Title    string `json:"title"`
	Theme    string `json:"theme"`
	Overview string `json:"overview"`
	Results  string `json:"results"`
}

// State is the complete editor state record.
type State struct {
	Fields Fields
	Shapes []domain.Shape
	Tool   Tool

	mode mode
	seq  map[domain.Kind]int
}

// Frame is everything the rendering layer needs for one pass.
type Frame struct {
	Size     Size           `json:"size"`
	Tool     string         `json:"tool"`
	Phase    Phase          `json:"phase"`
	Fields   Fields         `json:"fields"`
	Shapes   []domain.Entry `json:"shapes"`
	Selected string         `json:"selected,omitempty"`
	Handles  *Handles       `json:"handles,omitempty"`
	Overlay  *Overlay       `json:"overlay,omitempty"`
	Revision uint64         `json:"revision"`
}

// Editor owns one editing session.
type Editor struct {
	state    State
	surface  *Surface
	revision uint64
	onRender func(Frame)
}

// New creates an empty editor drawing on surface.
func New(surface *Surface) *Editor {
	if surface == nil {
		surface = NewSurface()
	}
	return &Editor{
		state:   State{Shapes: []domain.Shape{}, mode: modeIdle{}, seq: map[domain.Kind]int{}},
		surface: surface,
	}
}

// Surface returns the canvas surface.
func (e *Editor) Surface() *Surface { return e.surface }

// OnRender sets the callback invoked after every state change.
func (e *Editor) OnRender(fn func(Frame)) { e.onRender = fn }

// Mount subscribes the editor to the surface's pointer and resize events.
// The returned teardown releases both subscriptions.
func (e *Editor) Mount() (teardown func()) {
	releaseClick := e.surface.OnClick(e.Click)
	releaseResize := e.surface.OnResize(func(Size) { e.render() })
	return func() {
		releaseClick()
		releaseResize()
	}
}

// Revision increases on every state change.
func (e *Editor) Revision() uint64 { return e.revision }

// Tool returns the active tool.
func (e *Editor) Tool() Tool { return e.state.Tool }

// Shapes returns a copy of the shape list in z-order.
func (e *Editor) Shapes() []domain.Shape {
	return append([]domain.Shape{}, e.state.Shapes...)
}

// Fields returns the form fields.
func (e *Editor) Fields() Fields { return e.state.Fields }

// SetFields replaces the form fields.
func (e *Editor) SetFields(f Fields) {
	e.state.Fields = f
	e.changed()
}

// SelectTool activates a toolbar tool by name. Unknown names are ignored
// and reported as false.
func (e *Editor) SelectTool(name string) bool {
	t, err := ParseTool(name)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTool) {
			log.Printf("[EDITOR] ignoring tool selection: %v", err)
		}
		return false
	}
	e.SetTool(t)
	return true
}

// SetTool activates t. The tool stays active until changed. Choosing the
// eraser drops the selection and any text edit.
func (e *Editor) SetTool(t Tool) {
	e.state.Tool = t
	if t.Erases() {
		e.state.mode = modeIdle{}
	}
	e.changed()
}

// Click handles a click at p (document space).
//
// While a text edit is open no shape is ever created: clicking the edited
// shape keeps editing, clicking anywhere else cancels the edit and the
// click is consumed.
func (e *Editor) Click(p domain.Point) {
	if m, ok := e.state.mode.(modeEditing); ok {
		if hit, ok := HitTest(e.state.Shapes, p); ok && hit.Head().ID == m.id {
			return
		}
		e.state.mode = modeIdle{}
		e.changed()
		return
	}

	hit, ok := HitTest(e.state.Shapes, p)
	if e.state.Tool.Erases() {
		if ok {
			e.Erase(hit.Head().ID)
		}
		return
	}
	if ok {
		id := hit.Head().ID
		if _, isText := hit.(domain.Text); isText {
			e.BeginTextEdit(id)
			return
		}
		e.state.mode = modeSelected{id: id}
		e.changed()
		return
	}

	e.state.mode = modeIdle{}
	if kind, ok := e.state.Tool.Creates(); ok {
		e.create(kind, p)
	}
	e.changed()
}

// Erase removes a shape, dropping it from the selection first.
func (e *Editor) Erase(id string) bool {
	if i, _ := Find(e.state.Shapes, id); i < 0 {
		return false
	}
	if e.Selected() == id {
		e.state.mode = modeIdle{}
	}
	e.state.Shapes = Remove(e.state.Shapes, id)
	e.changed()
	return true
}

// UpdateShape patches a shape outside of a gesture. Unknown ids are a no-op.
func (e *Editor) UpdateShape(id string, p domain.Patch) bool {
	if i, _ := Find(e.state.Shapes, id); i < 0 {
		return false
	}
	e.state.Shapes = Update(e.state.Shapes, id, p)
	e.changed()
	return true
}

// Replace swaps the whole session for d: fields and shapes are replaced,
// never merged, and selection and editing are reset. The tool is kept.
func (e *Editor) Replace(d domain.Draft) {
	shapes := append([]domain.Shape{}, d.Shapes...)
	e.state = State{
		Fields: Fields{Title: d.Title, Theme: d.Theme, Overview: d.Overview, Results: d.Results},
		Shapes: shapes,
		Tool:   e.state.Tool,
		mode:   modeIdle{},
		seq:    domain.MaxSequences(shapes),
	}
	e.changed()
}

// Reset discards everything and starts an empty session.
func (e *Editor) Reset() { e.Replace(domain.Draft{}) }

// Draft snapshots the session for persistence.
func (e *Editor) Draft() domain.Draft {
	f := e.state.Fields
	return domain.Draft{
		Title:    f.Title,
		Theme:    f.Theme,
		Overview: f.Overview,
		Results:  f.Results,
		Shapes:   e.Shapes(),
	}
}

// Frame builds the render description of the current state.
func (e *Editor) Frame() Frame {
	return Frame{
		Size:     e.surface.Size(),
		Tool:     e.state.Tool.Name(),
		Phase:    e.Phase(),
		Fields:   e.state.Fields,
		Shapes:   domain.ToEntries(e.state.Shapes),
		Selected: e.Selected(),
		Handles:  e.handles(),
		Overlay:  e.overlay(),
		Revision: e.revision,
	}
}

// Add creates a shape of kind at p without going through the active tool.
// Hits on existing shapes are irrelevant here; the new shape goes on top.
func (e *Editor) Add(kind domain.Kind, p domain.Point) domain.Shape {
	s := e.create(kind, p)
	e.changed()
	return s
}

func (e *Editor) create(kind domain.Kind, p domain.Point) domain.Shape {
	e.state.seq[kind]++
	s := NewShape(kind, p, e.state.seq[kind])
	e.state.Shapes = append(e.Shapes(), s)
	return s
}

func (e *Editor) changed() {
	e.revision++
	e.render()
}

func (e *Editor) render() {
	if e.onRender != nil {
		e.onRender(e.Frame())
	}
}
