package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"docedit/internal/domain"
	"docedit/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Submit guard tests
// ─────────────────────────────────────────────────────────────

func TestSubmitGuard_Acquire(t *testing.T) {
	var g service.ExportedSubmitGuard

	if err := g.Acquire("doc-1"); err != nil {
		t.Fatalf("expected first Acquire to succeed: %v", err)
	}
	if err := g.Acquire("doc-1"); !errors.Is(err, domain.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight for the same document, got %v", err)
	}
	if err := g.Acquire("doc-2"); err != nil {
		t.Fatalf("expected Acquire for a different document to succeed: %v", err)
	}
	g.Release("doc-1")
	g.Release("doc-2")
	if g.Busy() {
		t.Fatal("expected no submit in flight after release")
	}

	if err := g.Acquire("doc-1"); err != nil {
		t.Fatalf("expected Acquire to succeed after release: %v", err)
	}
	g.Release("doc-1")
}

func TestSubmitGuard_ReleaseUnheldKey(t *testing.T) {
	var g service.ExportedSubmitGuard
	g.Release("never-acquired")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g.WaitAll(ctx)
	if ctx.Err() != nil {
		t.Error("releasing an unheld key must not unbalance WaitAll")
	}
}

func TestSubmitGuard_WaitAll(t *testing.T) {
	var g service.ExportedSubmitGuard

	if err := g.Acquire("doc-a"); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Release("doc-a")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "editor:frame", map[string]string{"tool": "circle"})
	m.Emit(ctx, service.EventSubmitted, nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "editor:frame" {
		t.Errorf("expected 'editor:frame', got %q", m.Events[0].Event)
	}
	if m.Events[1].Data != nil {
		t.Errorf("expected nil data, got %v", m.Events[1].Data)
	}
	if got := m.Named(service.EventSubmitted); len(got) != 1 {
		t.Errorf("expected one %s event, got %d", service.EventSubmitted, len(got))
	}
	if got := m.Named("missing"); len(got) != 0 {
		t.Errorf("expected no events, got %+v", got)
	}
}

// ─────────────────────────────────────────────────────────────
// Autosave tests
// ─────────────────────────────────────────────────────────────

func TestAutosave_SavesOnlyWhenChanged(t *testing.T) {
	ctx := context.Background()
	drafts := newMemDrafts()
	b := service.NewBridge(drafts, newFakeStore(), &service.MockEmitter{})

	rev := uint64(1)
	draft := domain.Draft{Title: "first"}
	a := service.NewAutosave(b, func() (domain.Draft, uint64) { return draft, rev })

	saved, err := a.Run(ctx)
	if err != nil || !saved {
		t.Fatalf("first run should save: saved=%v err=%v", saved, err)
	}
	saved, _ = a.Run(ctx)
	if saved {
		t.Error("unchanged revision must not save again")
	}

	rev, draft = 2, domain.Draft{Title: "second"}
	saved, _ = a.Run(ctx)
	if !saved {
		t.Error("new revision should save")
	}
	got, ok, _ := b.LoadDraft(ctx)
	if !ok || got.Title != "second" {
		t.Errorf("unexpected stored draft: %+v", got)
	}
}

func TestAutosave_FailureRetriesNextTick(t *testing.T) {
	ctx := context.Background()
	drafts := newMemDrafts()
	drafts.saveErr = context.DeadlineExceeded
	b := service.NewBridge(drafts, newFakeStore(), &service.MockEmitter{})
	a := service.NewAutosave(b, func() (domain.Draft, uint64) { return domain.Draft{}, 7 })

	if _, err := a.Run(ctx); err == nil {
		t.Fatal("expected save error")
	}
	drafts.saveErr = nil
	if saved, err := a.Run(ctx); err != nil || !saved {
		t.Errorf("failed save should be retried: saved=%v err=%v", saved, err)
	}
}

func TestAutosave_MarkSaved(t *testing.T) {
	b := service.NewBridge(newMemDrafts(), newFakeStore(), &service.MockEmitter{})
	a := service.NewAutosave(b, func() (domain.Draft, uint64) { return domain.Draft{}, 3 })
	a.MarkSaved(3)
	if saved, _ := a.Run(context.Background()); saved {
		t.Error("revision already marked saved")
	}
}

func TestAutosave_StartStop(t *testing.T) {
	b := service.NewBridge(newMemDrafts(), newFakeStore(), &service.MockEmitter{})
	a := service.NewAutosave(b, func() (domain.Draft, uint64) { return domain.Draft{}, 1 })

	if err := a.Start(context.Background(), "not a schedule"); err == nil {
		t.Error("expected invalid expression error")
	}
	if err := a.Start(context.Background(), ""); err != nil {
		t.Errorf("empty expression disables autosave: %v", err)
	}
	if err := a.Start(context.Background(), "@every 1h"); err != nil {
		t.Fatal(err)
	}
	a.Stop()
	a.Stop()
}

func TestAutosave_HoldBlocksSaves(t *testing.T) {
	ctx := context.Background()
	drafts := newMemDrafts()
	b := service.NewBridge(drafts, newFakeStore(), &service.MockEmitter{})
	a := service.NewAutosave(b, func() (domain.Draft, uint64) { return domain.Draft{Title: "late"}, 5 })

	release := a.Hold()
	ran := make(chan bool, 1)
	go func() {
		saved, _ := a.Run(ctx)
		ran <- saved
	}()

	select {
	case <-ran:
		t.Fatal("autosave ran while held")
	case <-time.After(30 * time.Millisecond):
	}
	a.MarkSaved(5)
	release()

	if saved := <-ran; saved {
		t.Error("a revision marked saved during the hold must not be written")
	}
	if _, ok, _ := drafts.Load(ctx, service.DraftKey); ok {
		t.Error("expected the draft slot to stay empty")
	}
}
