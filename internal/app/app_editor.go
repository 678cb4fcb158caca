package app

import (
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"docedit/internal/domain"
	"docedit/internal/editor"
)

// ============================================================
// Canvas
// ============================================================

// Frame returns the current render description. The frontend calls it once
// on load; afterwards every change arrives as an editor:frame event.
func (a *App) Frame() editor.Frame {
	var f editor.Frame
	a.do(func(ed *editor.Editor) { f = ed.Frame() })
	return f
}

// ToolNames lists the toolbar entries.
func (a *App) ToolNames() []string {
	return editor.ToolNames()
}

func (a *App) SelectTool(name string) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.SelectTool(name) })
	return ok
}

// Click forwards a pointer click in client coordinates to the canvas.
func (a *App) Click(clientX, clientY float64) {
	a.do(func(ed *editor.Editor) { ed.Surface().Click(clientX, clientY) })
}

// SetOffset records where the canvas sits in the page.
func (a *App) SetOffset(x, y float64) {
	a.do(func(ed *editor.Editor) { ed.Surface().SetOffset(x, y) })
}

// Resize sizes the canvas from the viewport width and remembers the width
// for the next start and for the headless MCP server.
func (a *App) Resize(viewportWidth float64) {
	a.do(func(ed *editor.Editor) { ed.Surface().Resize(viewportWidth) })
	if err := a.settings.SaveViewportWidth(a.ctx, viewportWidth); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[App] %v", err)
	}
}

// ============================================================
// Selection & transforms
// ============================================================

func (a *App) Select(id string) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.Select(id) })
	return ok
}

func (a *App) Deselect() {
	a.do(func(ed *editor.Editor) { ed.Deselect() })
}

func (a *App) BeginDrag(id string) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.BeginDrag(id) })
	return ok
}

func (a *App) EndDrag(id string, x, y float64) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.EndDrag(id, x, y) })
	return ok
}

func (a *App) BeginTransform(id string) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.BeginTransform(id) })
	return ok
}

// Transform reports the live scale and angle during a handle gesture.
func (a *App) Transform(id string, scaleX, scaleY, rotation float64) bool {
	var ok bool
	a.do(func(ed *editor.Editor) {
		ok = ed.Transform(id, domain.Scale{X: scaleX, Y: scaleY}, rotation)
	})
	return ok
}

func (a *App) EndTransform(id string, t editor.Transform) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.EndTransform(id, t) })
	return ok
}

// ============================================================
// Text editing
// ============================================================

func (a *App) BeginTextEdit(id string) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.BeginTextEdit(id) })
	return ok
}

func (a *App) SetDraft(text string) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.SetDraft(text) })
	return ok
}

func (a *App) ConfirmText() bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.ConfirmText() })
	return ok
}

func (a *App) CancelText() bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.CancelText() })
	return ok
}

// ============================================================
// Shapes & fields
// ============================================================

func (a *App) Erase(id string) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.Erase(id) })
	return ok
}

// UpdateShape applies a property-panel edit to one shape.
func (a *App) UpdateShape(id string, patch domain.Patch) bool {
	var ok bool
	a.do(func(ed *editor.Editor) { ok = ed.UpdateShape(id, patch) })
	return ok
}

// SetFields replaces the form fields (title, theme, overview, results).
func (a *App) SetFields(f editor.Fields) {
	a.do(func(ed *editor.Editor) { ed.SetFields(f) })
}
