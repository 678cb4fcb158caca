package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"docedit/internal/config"
	"docedit/internal/docstore"
	"docedit/internal/domain"
	"docedit/internal/editor"
	mcpserver "docedit/internal/mcp"
	"docedit/internal/secret"
	"docedit/internal/service"
	"docedit/internal/storage"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// headlessSession is the editing session behind the standalone MCP server.
// It shares the draft slot with the desktop app: changes made elsewhere are
// picked up before each tool runs, and its own changes are saved right
// after, which the desktop's draft watcher then reloads.
type headlessSession struct {
	ctx    context.Context
	bridge *service.Bridge

	mu    sync.Mutex
	ed    *editor.Editor
	saved uint64
}

func newHeadlessSession(ctx context.Context, bridge *service.Bridge, surface *editor.Surface) *headlessSession {
	h := &headlessSession{ctx: ctx, bridge: bridge, ed: editor.New(surface)}
	d, ok, err := bridge.LoadDraft(ctx)
	switch {
	case err != nil:
		log.Printf("[MCP] starting with an empty session: %v", err)
	case ok:
		h.ed.Replace(d)
	}
	h.saved = h.ed.Revision()
	return h
}

// Do runs fn with the session lock held.
func (h *headlessSession) Do(fn func(ed *editor.Editor)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.bridge.CheckExternal(h.ctx, func(d domain.Draft) {
		h.ed.Replace(d)
		h.saved = h.ed.Revision()
	})

	fn(h.ed)

	if rev := h.ed.Revision(); rev != h.saved {
		if err := h.bridge.SaveDraft(h.ctx, h.ed.Draft()); err != nil {
			log.Printf("[MCP] draft not saved: %v", err)
			return
		}
		h.saved = rev
	}
}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It opens the same draft database as the desktop app and runs until interrupted.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	db, err := storage.New(cfg.DraftDBPath(), cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	emitter := noopEmitter{}
	store := docstore.NewClient(cfg.StoreURL, secret.NewKeychainStore())
	bridge := service.NewBridge(storage.NewDraftStore(db), store, emitter)
	defer bridge.WaitSubmits(context.Background())

	surface := editor.NewSurface()
	if w, ok := service.NewSettingsService(db).LoadViewportWidth(ctx); ok {
		surface.Resize(w)
	}
	session := newHeadlessSession(ctx, bridge, surface)

	mcpSrv := mcpserver.New(mcpserver.Deps{
		Emitter:   emitter,
		Session:   session,
		Documents: bridge,
		Approvals: storage.NewApprovalStore(db), // the desktop app answers through the shared table
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
