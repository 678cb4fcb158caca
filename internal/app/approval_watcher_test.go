package app

import (
	"context"
	"testing"

	mcpserver "docedit/internal/mcp"
	"docedit/internal/service"
	"docedit/internal/storage"
)

func TestApprovalWatcher_EmitsOnceAndDismisses(t *testing.T) {
	ctx := context.Background()
	approvals := storage.NewApprovalStore(openDraftDB(t))
	emitter := &service.MockEmitter{}
	w := newApprovalWatcher(ctx, approvals, emitter)

	if err := approvals.Insert(ctx, storage.Approval{ID: "a1", Tool: "erase_shape", Description: `Erase Rect "Rect-1"`}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	w.check()
	w.check()
	if len(emitter.Events) != 1 {
		t.Fatalf("expected one emission, got %d", len(emitter.Events))
	}
	ev := emitter.Events[0]
	if ev.Event != "mcp:approval-required" {
		t.Fatalf("unexpected event %s", ev.Event)
	}
	action, ok := ev.Data.(mcpserver.PendingAction)
	if !ok || action.ID != "a1" || action.Tool != "erase_shape" || action.Metadata != "{}" {
		t.Fatalf("unexpected payload %+v", ev.Data)
	}

	// The MCP side gave up and removed the row.
	if err := approvals.Delete(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	w.check()
	if len(emitter.Events) != 2 || emitter.Events[1].Event != "mcp:approval-dismissed" {
		t.Fatalf("expected dismissal, got %+v", emitter.Events)
	}
}

func TestApprovalWatcher_ResolvedRowIsNotReRaised(t *testing.T) {
	ctx := context.Background()
	approvals := storage.NewApprovalStore(openDraftDB(t))
	emitter := &service.MockEmitter{}
	w := newApprovalWatcher(ctx, approvals, emitter)

	if err := approvals.Insert(ctx, storage.Approval{ID: "a2", Tool: "clear_canvas"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	w.check()

	if ok, err := approvals.Resolve(ctx, "a2", true); err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	w.Forget("a2")
	w.check()

	if len(emitter.Events) != 1 {
		t.Fatalf("expected only the original request, got %+v", emitter.Events)
	}
}
