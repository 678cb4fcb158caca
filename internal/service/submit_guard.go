package service

import (
	"context"
	"fmt"
	"sync"

	"docedit/internal/domain"
)

// ExportedSubmitGuard is an exported alias so _test packages can test the guard.
type ExportedSubmitGuard = submitGuard

// submitGuard allows one submit per document key at a time. A second
// submit for the same key fails fast instead of queueing, since the editor
// would otherwise create the document twice.
type submitGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

// Acquire claims key for a submit. It fails with domain.ErrSubmitInFlight
// while another submit holds key.
func (g *submitGuard) Acquire(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight == nil {
		g.inFlight = make(map[string]struct{})
	}
	if _, busy := g.inFlight[key]; busy {
		return fmt.Errorf("submit %s: %w", key, domain.ErrSubmitInFlight)
	}
	g.inFlight[key] = struct{}{}
	g.wg.Add(1)
	return nil
}

// Release frees key after a successful Acquire.
func (g *submitGuard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inFlight[key]; !ok {
		return
	}
	delete(g.inFlight, key)
	g.wg.Done()
}

// Busy reports whether any submit is in flight.
func (g *submitGuard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inFlight) > 0
}

// WaitAll blocks until in-flight submits finish or ctx is cancelled.
func (g *submitGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
