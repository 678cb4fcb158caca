package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"docedit/internal/domain"
)

// draftClock is implemented by Draft Caches that can report when a key
// was last written (storage.DraftStore does).
type draftClock interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

const watchDebounce = 500 * time.Millisecond

// ── External draft watcher ────────────────────────────────

// WatchDrafts reloads the draft when another process (the headless MCP
// server) rewrites it. dbPath is the Draft Cache database file; any write
// to it or its WAL triggers a check. Drafts written by this Bridge are
// never reported back.
func (b *Bridge) WatchDrafts(ctx context.Context, dbPath string, onExternal func(domain.Draft)) error {
	clock, ok := b.drafts.(draftClock)
	if !ok {
		return errors.New("watch drafts: draft cache has no timestamps")
	}
	b.StopWatching()

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return fmt.Errorf("watch drafts: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch drafts: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch drafts: %w", err)
	}
	b.markSeen(ctx)

	watchCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.watcher, b.watchCancel = watcher, cancel
	b.mu.Unlock()

	base := filepath.Base(absPath)
	go func() {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if !strings.HasPrefix(filepath.Base(event.Name), base) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					b.checkExternal(watchCtx, clock, onExternal)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[BRIDGE] draft watcher: error: %v", err)
			}
		}
	}()

	log.Printf("[BRIDGE] draft watcher: watching %s", absPath)
	return nil
}

// StopWatching tears down the draft watcher. Safe to call when not watching.
func (b *Bridge) StopWatching() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.watchCancel != nil {
		b.watchCancel()
		b.watchCancel = nil
	}
	if b.watcher != nil {
		b.watcher.Close()
		b.watcher = nil
	}
}

// CheckExternal runs one watcher check immediately.
func (b *Bridge) CheckExternal(ctx context.Context, onExternal func(domain.Draft)) bool {
	clock, ok := b.drafts.(draftClock)
	if !ok {
		return false
	}
	return b.checkExternal(ctx, clock, onExternal)
}

func (b *Bridge) checkExternal(ctx context.Context, clock draftClock, onExternal func(domain.Draft)) bool {
	if ctx.Err() != nil {
		return false
	}
	t, err := clock.UpdatedAt(ctx, DraftKey)
	if err != nil {
		log.Printf("[BRIDGE] draft watcher: %v", err)
		return false
	}

	b.mu.Lock()
	if t.IsZero() || !t.After(b.seen) {
		b.mu.Unlock()
		return false
	}
	b.seen = t
	b.mu.Unlock()

	d, ok, err := b.LoadDraft(ctx)
	if err != nil {
		log.Printf("[BRIDGE] draft watcher: reload failed: %v", err)
		return false
	}
	if !ok {
		return false
	}
	log.Printf("[BRIDGE] draft changed externally, reloading %d shape(s)", len(d.Shapes))
	onExternal(d)
	return true
}

// markSeen records the current draft timestamp as our own.
func (b *Bridge) markSeen(ctx context.Context) {
	clock, ok := b.drafts.(draftClock)
	if !ok {
		return
	}
	t, err := clock.UpdatedAt(ctx, DraftKey)
	if err != nil {
		log.Printf("[BRIDGE] draft timestamp: %v", err)
		return
	}
	b.mu.Lock()
	if t.After(b.seen) {
		b.seen = t
	}
	b.mu.Unlock()
}
