package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"docedit/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Autosave: periodic draft persistence
// ─────────────────────────────────────────────────────────────

// SnapshotFunc returns the current draft and the editor revision it was
// taken at. It is called from the scheduler goroutine, so implementations
// take their own lock.
type SnapshotFunc func() (domain.Draft, uint64)

// Autosave saves the draft on a cron schedule whenever the editor revision
// has moved since the last save.
type Autosave struct {
	bridge   *Bridge
	snapshot SnapshotFunc

	// runMu serializes saves with Hold.
	runMu sync.Mutex

	mu        sync.Mutex
	lastSaved uint64
	started   bool
	cronSched *cron.Cron
}

func NewAutosave(bridge *Bridge, snapshot SnapshotFunc) *Autosave {
	return &Autosave{bridge: bridge, snapshot: snapshot}
}

// Start schedules autosave with a robfig/cron expression such as
// "@every 30s". An empty expression leaves autosave off.
func (a *Autosave) Start(ctx context.Context, expr string) error {
	a.Stop()
	if expr == "" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(expr, func() {
		if _, err := a.Run(ctx); err != nil {
			log.Printf("[BRIDGE] autosave failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("autosave: invalid expression %q: %w", expr, err)
	}
	c.Start()

	a.mu.Lock()
	a.cronSched = c
	a.mu.Unlock()
	log.Printf("[BRIDGE] autosave scheduled %q", expr)
	return nil
}

// Run saves once if anything changed. It reports whether a save happened.
func (a *Autosave) Run(ctx context.Context) (bool, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	d, rev := a.snapshot()

	a.mu.Lock()
	if a.started && rev == a.lastSaved {
		a.mu.Unlock()
		return false, nil
	}
	a.mu.Unlock()

	if err := a.bridge.SaveDraft(ctx, d); err != nil {
		return false, err
	}

	a.mu.Lock()
	a.lastSaved, a.started = rev, true
	a.mu.Unlock()
	return true, nil
}

// MarkSaved records rev as persisted, e.g. right after a load or an
// explicit save.
func (a *Autosave) MarkSaved(rev uint64) {
	a.mu.Lock()
	a.lastSaved, a.started = rev, true
	a.mu.Unlock()
}

// Hold waits for a save in progress and keeps new ones from starting until
// release is called. Callers that clear the draft slot themselves hold
// autosave until the session matching the cleared slot is marked saved.
func (a *Autosave) Hold() (release func()) {
	a.runMu.Lock()
	return a.runMu.Unlock
}

// Stop halts the scheduler and waits for a running save to finish.
func (a *Autosave) Stop() {
	a.mu.Lock()
	c := a.cronSched
	a.cronSched = nil
	a.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
