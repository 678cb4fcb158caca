package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"docedit/internal/domain"
	"docedit/internal/editor"
)

func (s *Server) registerDocumentTools() {
	s.mcp.AddTool(mcp.NewTool("save_draft",
		mcp.WithDescription("Save the current session to the local draft cache."),
	), s.handleSaveDraft)

	s.mcp.AddTool(mcp.NewTool("load_draft",
		mcp.WithDescription("Replace the session with the saved draft, if there is one."),
	), s.handleLoadDraft)

	s.mcp.AddTool(mcp.NewTool("submit_document",
		mcp.WithDescription("🛑 Submit the session as a new document to the Document Store. The draft is cleared on success. Requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleSubmitDocument)

	s.mcp.AddTool(mcp.NewTool("open_document",
		mcp.WithDescription("Load a stored document into the session, replacing the current fields and shapes."),
		mcp.WithString("id", mcp.Description("Document ID"), mcp.Required()),
	), s.handleOpenDocument)

	s.mcp.AddTool(mcp.NewTool("update_document",
		mcp.WithDescription("🛑 Overwrite a stored document with the current session. Requires user approval."),
		mcp.WithString("id", mcp.Description("Document ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleUpdateDocument)
}

func (s *Server) handleSaveDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := s.snapshot()
	if err := s.docs.SaveDraft(ctx, d); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Draft saved (%d shapes)", len(d.Shapes))), nil
}

func (s *Server) handleLoadDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, ok, err := s.docs.LoadDraft(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return textResult("No saved draft"), nil
	}
	s.session.Do(func(ed *editor.Editor) { ed.Replace(d) })
	s.emitEditorChanged(ctx, "load_draft")
	return textResult(fmt.Sprintf("Draft loaded (%d shapes)", len(d.Shapes))), nil
}

func (s *Server) handleSubmitDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := s.snapshot()
	desc := fmt.Sprintf("Submit %q with %d shapes", d.Title, len(d.Shapes))
	if err := s.approval.Request(ctx, "submit_document", desc); err != nil {
		return nil, err
	}

	res, err := s.docs.Submit(ctx, d)
	if err != nil {
		if domain.IsRetryable(err) {
			return nil, fmt.Errorf("%w (draft kept, retry later)", err)
		}
		return nil, err
	}
	return jsonResult(res)
}

func (s *Server) handleOpenDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "id")
	if err != nil {
		return nil, err
	}
	d, err := s.docs.OpenDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	s.session.Do(func(ed *editor.Editor) { ed.Replace(d) })
	s.emitEditorChanged(ctx, "open_document")
	return jsonResult(map[string]any{
		"id":     id,
		"title":  d.Title,
		"shapes": domain.ToEntries(d.Shapes),
	})
}

func (s *Server) handleUpdateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(req.GetArguments(), "id")
	if err != nil {
		return nil, err
	}
	d := s.snapshot()
	if err := s.approval.Request(ctx, "update_document", fmt.Sprintf("Overwrite document %s with %d shapes", id, len(d.Shapes))); err != nil {
		return nil, err
	}
	res, err := s.docs.SubmitUpdate(ctx, id, d)
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}
