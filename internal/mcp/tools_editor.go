package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"docedit/internal/domain"
	"docedit/internal/editor"
)

func (s *Server) registerEditorTools() {
	s.mcp.AddTool(mcp.NewTool("list_shapes",
		mcp.WithDescription("Describe the canvas: active tool, interaction phase, selection, form fields and every shape in z-order."),
	), s.handleListShapes)

	s.mcp.AddTool(mcp.NewTool("select_tool",
		mcp.WithDescription("Activate a toolbar tool. The tool stays active until changed. Tools: "+strings.Join(editor.ToolNames(), ", ")),
		mcp.WithString("tool", mcp.Description("Tool name"), mcp.Required()),
	), s.handleSelectTool)

	s.mcp.AddTool(mcp.NewTool("click",
		mcp.WithDescription("Click the canvas at a document position, exactly as a user would with the active tool."),
		mcp.WithNumber("x", mcp.Description("X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Y position"), mcp.Required()),
	), s.handleClick)

	s.mcp.AddTool(mcp.NewTool("add_shape",
		mcp.WithDescription("Add a shape with default styling, regardless of the active tool. Without x/y it is placed in the next free spot. Returns the new shape."),
		mcp.WithString("type", mcp.Description("Rect, Circle, Line or Text"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-placed if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-placed if omitted)")),
		mcp.WithString("text", mcp.Description("Initial content (Text only)")),
	), s.handleAddShape)

	s.mcp.AddTool(mcp.NewTool("arrange_shapes",
		mcp.WithDescription("Lay shapes out in rows across the canvas width without overlaps. Moves every shape when shapeIds is omitted."),
		mcp.WithString("shapeIds", mcp.Description("Comma-separated shape IDs, in placement order (optional)")),
		mcp.WithNumber("x", mcp.Description("Left edge of the group (default 20)")),
		mcp.WithNumber("y", mcp.Description("Top edge of the group (default 20)")),
	), s.handleArrangeShapes)

	s.mcp.AddTool(mcp.NewTool("connect_shapes",
		mcp.WithDescription("Draw an orthogonal Line from one shape to another, routed around the shapes in between."),
		mcp.WithString("fromId", mcp.Description("Source shape ID"), mcp.Required()),
		mcp.WithString("toId", mcp.Description("Target shape ID"), mcp.Required()),
		mcp.WithString("fromSide", mcp.Description("top, bottom, left or right (default: facing side)")),
		mcp.WithString("toSide", mcp.Description("top, bottom, left or right (default: facing side)")),
		mcp.WithString("stroke", mcp.Description("Line color (default green)")),
	), s.handleConnectShapes)

	s.mcp.AddTool(mcp.NewTool("update_shape",
		mcp.WithDescription("Patch shape fields. Fields that do not exist on the shape's type are ignored; id and type never change."),
		mcp.WithString("shapeId", mcp.Description("Shape ID"), mcp.Required()),
		mcp.WithString("patch", mcp.Description(`JSON object, e.g. {"fill":"orange","width":120}`), mcp.Required()),
	), s.handleUpdateShape)

	s.mcp.AddTool(mcp.NewTool("move_shape",
		mcp.WithDescription("Drag a shape to a new position. Only x and y change."),
		mcp.WithString("shapeId", mcp.Description("Shape ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveShape)

	s.mcp.AddTool(mcp.NewTool("transform_shape",
		mcp.WithDescription("Resize and/or rotate a shape with its transform handles. The scale is folded into the stored size."),
		mcp.WithString("shapeId", mcp.Description("Shape ID"), mcp.Required()),
		mcp.WithNumber("scaleX", mcp.Description("Horizontal scale factor (default 1)")),
		mcp.WithNumber("scaleY", mcp.Description("Vertical scale factor (default 1)")),
		mcp.WithNumber("rotation", mcp.Description("Rotation in degrees (default: unchanged)")),
	), s.handleTransformShape)

	s.mcp.AddTool(mcp.NewTool("set_text",
		mcp.WithDescription("Edit the content of a Text shape through the inline editor and confirm it."),
		mcp.WithString("shapeId", mcp.Description("Text shape ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New content"), mcp.Required()),
	), s.handleSetText)

	s.mcp.AddTool(mcp.NewTool("set_fields",
		mcp.WithDescription("Set the document form fields. Omitted fields keep their value."),
		mcp.WithString("title", mcp.Description("Document title")),
		mcp.WithString("theme", mcp.Description("Theme")),
		mcp.WithString("overview", mcp.Description("Overview")),
		mcp.WithString("results", mcp.Description("Results")),
	), s.handleSetFields)

	s.mcp.AddTool(mcp.NewTool("erase_shape",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a shape by ID. Requires user approval."),
		mcp.WithString("shapeId", mcp.Description("Shape ID to erase"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleEraseShape)

	s.mcp.AddTool(mcp.NewTool("clear_canvas",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove every shape. Form fields are kept. Requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearCanvas)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var frame editor.Frame
	s.session.Do(func(ed *editor.Editor) { frame = ed.Frame() })
	return jsonResult(frame)
}

func (s *Server) handleSelectTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requiredString(req.GetArguments(), "tool")
	if err != nil {
		return nil, err
	}
	var ok bool
	s.session.Do(func(ed *editor.Editor) { ok = ed.SelectTool(name) })
	if !ok {
		return nil, fmt.Errorf("unknown tool %q (expected one of %s)", name, strings.Join(editor.ToolNames(), ", "))
	}
	s.emitEditorChanged(ctx, "select_tool")
	return textResult(fmt.Sprintf("Tool %s selected", name)), nil
}

func (s *Server) handleClick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	x, err := requiredNumber(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := requiredNumber(args, "y")
	if err != nil {
		return nil, err
	}
	var frame editor.Frame
	s.session.Do(func(ed *editor.Editor) {
		ed.Click(domain.Point{X: x, Y: y})
		frame = ed.Frame()
	})
	s.emitEditorChanged(ctx, "click")
	return jsonResult(frame)
}

func (s *Server) handleAddShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	typeName, err := requiredString(args, "type")
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(typeName)
	if err != nil {
		return nil, err
	}
	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	text, _ := args["text"].(string)

	var shape domain.Shape
	s.session.Do(func(ed *editor.Editor) {
		pos := domain.Point{X: x, Y: y}
		if !hasX || !hasY {
			pos = s.freeSpot(ed, kind)
		}
		shape = ed.Add(kind, pos)
		if kind == domain.KindText && text != "" {
			ed.UpdateShape(shape.Head().ID, domain.TextPatch(text))
			_, shape = editor.Find(ed.Shapes(), shape.Head().ID)
		}
	})
	s.emitEditorChanged(ctx, "add_shape")
	return jsonResult(domain.ToEntry(shape))
}

func (s *Server) handleArrangeShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var ids []string
	if raw, _ := args["shapeIds"].(string); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	startX := optionalNumber(args, "x", Padding)
	startY := optionalNumber(args, "y", Padding)

	moved := []domain.Entry{}
	var missing string
	s.session.Do(func(ed *editor.Editor) {
		all := ed.Shapes()
		var group []domain.Shape
		if len(ids) == 0 {
			group = all
		}
		for _, id := range ids {
			_, shape := editor.Find(all, id)
			if shape == nil {
				missing = id
				return
			}
			group = append(group, shape)
		}

		boxes := make([]domain.Bounds, len(group))
		for i, shape := range group {
			boxes[i] = shape.Bounds()
		}
		layout := s.layout.WithRowWidth(ed.Surface().Size().Width)
		for i, corner := range layout.ArrangeGroup(boxes, startX, startY) {
			pos := placeShape(group[i], corner)
			ed.UpdateShape(group[i].Head().ID, domain.MovePatch(pos.X, pos.Y))
			_, shape := editor.Find(ed.Shapes(), group[i].Head().ID)
			moved = append(moved, domain.ToEntry(shape))
		}
	})
	if missing != "" {
		return nil, fmt.Errorf("shape %s not found", missing)
	}
	s.emitEditorChanged(ctx, "arrange_shapes")
	return jsonResult(moved)
}

func (s *Server) handleConnectShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	fromID, err := requiredString(args, "fromId")
	if err != nil {
		return nil, err
	}
	toID, err := requiredString(args, "toId")
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, fmt.Errorf("cannot connect a shape to itself")
	}
	var fromSide, toSide Side
	if v, _ := args["fromSide"].(string); v != "" {
		side, ok := parseSide(v)
		if !ok {
			return nil, fmt.Errorf("invalid fromSide %q", v)
		}
		fromSide = side
	}
	if v, _ := args["toSide"].(string); v != "" {
		side, ok := parseSide(v)
		if !ok {
			return nil, fmt.Errorf("invalid toSide %q", v)
		}
		toSide = side
	}
	stroke, _ := args["stroke"].(string)

	var (
		entry domain.Entry
		opErr error
	)
	s.session.Do(func(ed *editor.Editor) {
		shapes := ed.Shapes()
		_, from := editor.Find(shapes, fromID)
		_, to := editor.Find(shapes, toID)
		if from == nil || to == nil {
			opErr = fmt.Errorf("both shapes must exist (%s, %s)", fromID, toID)
			return
		}

		src, dst := from.Bounds(), to.Bounds()
		autoFrom, autoTo := facingSides(src, dst)
		if fromSide == "" {
			fromSide = autoFrom
		}
		if toSide == "" {
			toSide = autoTo
		}

		// Other lines are connectors, not obstacles.
		var obstacles []domain.Bounds
		for _, shape := range shapes {
			id := shape.Head().ID
			if id == fromID || id == toID || shape.Kind() == domain.KindLine {
				continue
			}
			obstacles = append(obstacles, shape.Bounds())
		}

		pts := orthoRoute(src, dst, fromSide, toSide, obstacles)
		line := ed.Add(domain.KindLine, pts[0])
		patch := domain.Patch{Points: relativePoints(pts, pts[0])}
		if stroke != "" {
			patch.Stroke = &stroke
		}
		ed.UpdateShape(line.Head().ID, patch)
		_, line = editor.Find(ed.Shapes(), line.Head().ID)
		entry = domain.ToEntry(line)
	})
	if opErr != nil {
		return nil, opErr
	}
	s.emitEditorChanged(ctx, "connect_shapes")
	return jsonResult(entry)
}

func (s *Server) handleUpdateShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requiredString(args, "shapeId")
	if err != nil {
		return nil, err
	}
	raw, err := requiredString(args, "patch")
	if err != nil {
		return nil, err
	}
	var patch domain.Patch
	if err := parseJSON(raw, &patch); err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}

	entry, err := s.applyToShape(id, func(ed *editor.Editor) bool { return ed.UpdateShape(id, patch) })
	if err != nil {
		return nil, err
	}
	s.emitEditorChanged(ctx, "update_shape")
	return jsonResult(entry)
}

func (s *Server) handleMoveShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requiredString(args, "shapeId")
	if err != nil {
		return nil, err
	}
	x, err := requiredNumber(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := requiredNumber(args, "y")
	if err != nil {
		return nil, err
	}

	entry, err := s.applyToShape(id, func(ed *editor.Editor) bool {
		return ed.BeginDrag(id) && ed.EndDrag(id, x, y)
	})
	if err != nil {
		return nil, err
	}
	s.emitEditorChanged(ctx, "move_shape")
	return jsonResult(entry)
}

func (s *Server) handleTransformShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requiredString(args, "shapeId")
	if err != nil {
		return nil, err
	}
	scale := domain.Scale{X: optionalNumber(args, "scaleX", 1), Y: optionalNumber(args, "scaleY", 1)}
	if scale.X <= 0 || scale.Y <= 0 {
		return nil, fmt.Errorf("scale factors must be positive")
	}

	entry, err := s.applyToShape(id, func(ed *editor.Editor) bool {
		_, shape := editor.Find(ed.Shapes(), id)
		if shape == nil {
			return false
		}
		h := shape.Head()
		rotation := optionalNumber(args, "rotation", h.Rotation)
		return ed.Select(id) &&
			ed.BeginTransform(id) &&
			ed.Transform(id, scale, rotation) &&
			ed.EndTransform(id, editor.Transform{X: h.X, Y: h.Y, Scale: scale, Rotation: rotation})
	})
	if err != nil {
		return nil, err
	}
	s.emitEditorChanged(ctx, "transform_shape")
	return jsonResult(entry)
}

func (s *Server) handleSetText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requiredString(args, "shapeId")
	if err != nil {
		return nil, err
	}
	text, ok := args["text"].(string)
	if !ok {
		return nil, fmt.Errorf("text is required")
	}

	entry, err := s.applyToShape(id, func(ed *editor.Editor) bool {
		if !ed.BeginTextEdit(id) {
			return false
		}
		ed.SetDraft(text)
		return ed.ConfirmText()
	})
	if err != nil {
		return nil, fmt.Errorf("%w (only Text shapes hold text, and the eraser must not be active)", err)
	}
	s.emitEditorChanged(ctx, "set_text")
	return jsonResult(entry)
}

func (s *Server) handleSetFields(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var fields editor.Fields
	s.session.Do(func(ed *editor.Editor) {
		fields = ed.Fields()
		if v, ok := args["title"].(string); ok {
			fields.Title = v
		}
		if v, ok := args["theme"].(string); ok {
			fields.Theme = v
		}
		if v, ok := args["overview"].(string); ok {
			fields.Overview = v
		}
		if v, ok := args["results"].(string); ok {
			fields.Results = v
		}
		ed.SetFields(fields)
	})
	s.emitEditorChanged(ctx, "set_fields")
	return jsonResult(fields)
}

func (s *Server) handleEraseShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "shapeId")
	if err != nil {
		return nil, err
	}

	var shape domain.Shape
	s.session.Do(func(ed *editor.Editor) { _, shape = editor.Find(ed.Shapes(), id) })
	if shape == nil {
		return nil, fmt.Errorf("shape %s not found", id)
	}
	desc := fmt.Sprintf("%s (%s)", shape.Kind(), id)
	if t, ok := shape.(domain.Text); ok {
		desc = fmt.Sprintf("%s %q", shape.Kind(), t.Text)
	}

	if err := s.approval.Request(ctx, "erase_shape", "Erase "+desc, fmt.Sprintf(`{"shapeIds":[%q]}`, id)); err != nil {
		return nil, err
	}

	var erased bool
	s.session.Do(func(ed *editor.Editor) { erased = ed.Erase(id) })
	if !erased {
		return nil, fmt.Errorf("shape %s not found", id)
	}
	s.emitEditorChanged(ctx, "erase_shape")
	return textResult(fmt.Sprintf("Erased %s", id)), nil
}

func (s *Server) handleClearCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var count int
	s.session.Do(func(ed *editor.Editor) { count = len(ed.Shapes()) })
	if count == 0 {
		return textResult("Canvas is already empty"), nil
	}

	if err := s.approval.Request(ctx, "clear_canvas", fmt.Sprintf("Remove all %d shapes", count)); err != nil {
		return nil, err
	}

	s.session.Do(func(ed *editor.Editor) {
		d := ed.Draft()
		d.Shapes = nil
		ed.Replace(d)
	})
	s.emitEditorChanged(ctx, "clear_canvas")
	return textResult(fmt.Sprintf("Removed %d shapes", count)), nil
}

// freeSpot returns a position for a new shape of kind that keeps its
// default bounds clear of every existing shape.
func (s *Server) freeSpot(ed *editor.Editor, kind domain.Kind) domain.Point {
	shapes := ed.Shapes()
	existing := make([]domain.Bounds, len(shapes))
	for i, shape := range shapes {
		existing[i] = shape.Bounds()
	}
	proto := editor.NewShape(kind, domain.Point{}, 0)
	b := proto.Bounds()
	layout := s.layout.WithRowWidth(ed.Surface().Size().Width)
	x, y := layout.NextPosition(existing, b.Width, b.Height)
	return placeShape(proto, domain.Point{X: x, Y: y})
}

// applyToShape runs op on the event loop and returns the shape's entry
// afterwards. op reports whether the editor accepted the change.
func (s *Server) applyToShape(id string, op func(ed *editor.Editor) bool) (domain.Entry, error) {
	var (
		entry domain.Entry
		err   error
	)
	s.session.Do(func(ed *editor.Editor) {
		if i, _ := editor.Find(ed.Shapes(), id); i < 0 {
			err = fmt.Errorf("shape %s not found", id)
			return
		}
		if !op(ed) {
			err = fmt.Errorf("shape %s: change refused in phase %s", id, ed.Phase())
			return
		}
		_, shape := editor.Find(ed.Shapes(), id)
		entry = domain.ToEntry(shape)
	})
	return entry, err
}
