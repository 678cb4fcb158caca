package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"docedit/internal/domain"
	"docedit/internal/editor"
)

func (s *Server) registerResources() {
	// ── docedit://session ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"docedit://session",
		"Current Editing Session",
		mcp.WithMIMEType("application/json"),
	), s.handleSessionResource)

	// ── docedit://objects ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"docedit://objects",
		"Shapes in Submission Format",
		mcp.WithMIMEType("application/json"),
	), s.handleObjectsResource)
}

func (s *Server) handleSessionResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var frame editor.Frame
	s.session.Do(func(ed *editor.Editor) { frame = ed.Frame() })

	data, _ := json.MarshalIndent(frame, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "docedit://session",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleObjectsResource returns the exact objects string a submit would send.
func (s *Server) handleObjectsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	objects, err := domain.EncodeShapes(s.snapshot().Shapes)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "docedit://objects",
			MIMEType: "application/json",
			Text:     objects,
		},
	}, nil
}
