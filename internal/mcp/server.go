package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"docedit/internal/domain"
	"docedit/internal/editor"
	"docedit/internal/service"
)

// Session is the editing session the tools drive.
type Session interface {
	// Do runs fn on the session's event loop.
	Do(fn func(ed *editor.Editor))
}

// Documents is the persistence side of a session.
type Documents interface {
	SaveDraft(ctx context.Context, d domain.Draft) error
	LoadDraft(ctx context.Context) (domain.Draft, bool, error)
	Submit(ctx context.Context, d domain.Draft) (*service.SubmitResult, error)
	OpenDocument(ctx context.Context, id string) (domain.Draft, error)
	SubmitUpdate(ctx context.Context, id string, d domain.Draft) (*service.SubmitResult, error)
}

// Server is the MCP server for the document editor.
// It exposes tools, resources, and prompts so AI agents can edit the canvas.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	layout   *LayoutEngine
	session  Session
	docs     Documents
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter   EventEmitter
	Session   Session
	Documents Documents
	// Approvals is the table the desktop app answers through.
	Approvals ApprovalBackend
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	s := &Server{
		emitter:  deps.Emitter,
		approval: NewApprovalQueue(deps.Approvals),
		layout:   NewLayoutEngine(),
		session:  deps.Session,
		docs:     deps.Documents,
	}

	s.mcp = server.NewMCPServer(
		"docedit-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerEditorTools()
	s.registerDocumentTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// emitEditorChanged notifies the frontend that an agent changed the session.
func (s *Server) emitEditorChanged(ctx context.Context, tool string) {
	s.emitter.Emit(ctx, "mcp:editor-changed", map[string]string{"tool": tool})
}

// snapshot copies the session state for persistence.
func (s *Server) snapshot() domain.Draft {
	var d domain.Draft
	s.session.Do(func(ed *editor.Editor) { d = ed.Draft() })
	return d
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
