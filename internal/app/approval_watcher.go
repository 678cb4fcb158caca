package app

import (
	"context"
	"log"
	"sync"
	"time"

	mcpserver "docedit/internal/mcp"
	"docedit/internal/service"
	"docedit/internal/storage"
)

const approvalPollInterval = 2 * time.Second

// pendingSource lists approvals the standalone MCP process is waiting on.
type pendingSource interface {
	Pending(ctx context.Context) ([]storage.Approval, error)
}

// approvalWatcher polls the approval table written by the standalone MCP
// process and raises each pending request once in the frontend. Requests
// that disappear without being answered here (the MCP side timed out or
// was cancelled) are dismissed.
type approvalWatcher struct {
	ctx     context.Context
	source  pendingSource
	emitter service.EventEmitter

	mu      sync.Mutex
	emitted map[string]bool
	stopCh  chan struct{}
}

func newApprovalWatcher(ctx context.Context, source pendingSource, emitter service.EventEmitter) *approvalWatcher {
	return &approvalWatcher{ctx: ctx, source: source, emitter: emitter, emitted: map[string]bool{}}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *approvalWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop(w.stopCh)
}

// Stop terminates the polling loop.
func (w *approvalWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

// Forget drops id from tracking once the user has answered it.
func (w *approvalWatcher) Forget(id string) {
	w.mu.Lock()
	delete(w.emitted, id)
	w.mu.Unlock()
}

func (w *approvalWatcher) pollLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(approvalPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *approvalWatcher) check() {
	pending, err := w.source.Pending(w.ctx)
	if err != nil {
		log.Printf("[MCP] approval watcher: %v", err)
		return
	}

	live := make(map[string]bool, len(pending))
	var fresh []storage.Approval
	w.mu.Lock()
	for _, a := range pending {
		live[a.ID] = true
		if !w.emitted[a.ID] {
			w.emitted[a.ID] = true
			fresh = append(fresh, a)
		}
	}
	var gone []string
	for id := range w.emitted {
		if !live[id] {
			delete(w.emitted, id)
			gone = append(gone, id)
		}
	}
	w.mu.Unlock()

	for _, a := range fresh {
		w.emitter.Emit(w.ctx, "mcp:approval-required", mcpserver.PendingAction{
			ID:          a.ID,
			Tool:        a.Tool,
			Description: a.Description,
			CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:    a.Metadata,
		})
	}
	for _, id := range gone {
		w.emitter.Emit(w.ctx, "mcp:approval-dismissed", map[string]string{"id": id})
	}
}
