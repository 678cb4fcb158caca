package editor

import (
	"fmt"

	"docedit/internal/domain"
)

type toolKind int

const (
	toolNone toolKind = iota
	toolCreate
	toolErase
)

// Tool is the active canvas tool: none, creating(kind) or erasing.
// The zero value is none.
type Tool struct {
	kind  toolKind
	shape domain.Kind
}

// NoTool returns the idle tool.
func NoTool() Tool { return Tool{} }

// Creating returns the creation tool for kind.
func Creating(kind domain.Kind) Tool { return Tool{kind: toolCreate, shape: kind} }

// Erasing returns the eraser.
func Erasing() Tool { return Tool{kind: toolErase} }

// Creates reports the kind created by a click, if any.
func (t Tool) Creates() (domain.Kind, bool) {
	return t.shape, t.kind == toolCreate
}

// Erases reports whether clicks remove shapes.
func (t Tool) Erases() bool { return t.kind == toolErase }

var toolNames = map[string]Tool{
	"none":   NoTool(),
	"square": Creating(domain.KindRect),
	"circle": Creating(domain.KindCircle),
	"line":   Creating(domain.KindLine),
	"text":   Creating(domain.KindText),
	"eraser": Erasing(),
}

// Name returns the toolbar name of the tool.
func (t Tool) Name() string {
	switch t.kind {
	case toolErase:
		return "eraser"
	case toolCreate:
		switch t.shape {
		case domain.KindRect:
			return "square"
		case domain.KindCircle:
			return "circle"
		case domain.KindLine:
			return "line"
		case domain.KindText:
			return "text"
		}
	}
	return "none"
}

func (t Tool) String() string { return t.Name() }

// ParseTool maps a toolbar name to a Tool. Unknown names return
// domain.ErrUnknownTool.
func ParseTool(name string) (Tool, error) {
	if t, ok := toolNames[name]; ok {
		return t, nil
	}
	return Tool{}, fmt.Errorf("%w: %q", domain.ErrUnknownTool, name)
}

// ToolNames lists every accepted toolbar name.
func ToolNames() []string {
	return []string{"none", "square", "circle", "line", "text", "eraser"}
}
