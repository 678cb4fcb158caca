package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("draw_diagram",
		mcp.WithPromptDescription("Draw a labelled diagram on the canvas using rectangles, circles, lines and text"),
		mcp.WithArgument("subject",
			mcp.ArgumentDescription("What the diagram shows"),
			mcp.RequiredArgument(),
		),
	), s.handleDiagramPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("write_report",
		mcp.WithPromptDescription("Fill in the document fields and illustrate the results, then submit"),
		mcp.WithArgument("title",
			mcp.ArgumentDescription("Document title"),
			mcp.RequiredArgument(),
		),
	), s.handleReportPrompt)
}

func (s *Server) handleDiagramPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	subject := req.Params.Arguments["subject"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Draw a diagram of: %s", subject),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Draw a diagram of "%s" on the canvas. Follow these steps:

1. Call list_shapes to see what is already there
2. Use add_shape with type Rect for each component, spacing them at least 80 units apart
3. Resize components with transform_shape so related ones share a size
4. Use add_shape with type Line to connect related components, then update_shape to set "points" relative to the line's x/y
5. Label each component with add_shape type Text and the "text" argument
6. Use update_shape to color components: "fill" for rects and circles, "stroke" for lines
7. Call save_draft when done

The canvas is 852 units wide at a typical window size; keep x between 0 and 800.`, subject),
				},
			},
		},
	}, nil
}

func (s *Server) handleReportPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	title := req.Params.Arguments["title"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Write the report: %s", title),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Prepare the document "%s":

1. Use set_fields to set title, theme, overview and results
2. Illustrate the results on the canvas (see the draw_diagram prompt)
3. Read docedit://objects to check what will be sent
4. Call submit_document. If it fails with a network error the draft is kept; retry later.`, title),
				},
			},
		},
	}, nil
}
