package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"docedit/internal/domain"
)

// DraftKey is the single Draft Cache slot used by the editor.
const DraftKey = "documentData"

// Events emitted by the Bridge.
const (
	EventSubmitted  = "document:submitted"
	EventDraftSaved = "draft:saved"
)

// submitNewKey guards submits that create a new document.
const submitNewKey = "new"

// ─────────────────────────────────────────────────────────────
// Bridge: persistence of the editor session
// ─────────────────────────────────────────────────────────────

// Bridge moves editor state between memory, the local Draft Cache and the
// remote Document Store. It never touches the live editor: callers pass
// snapshots in and apply returned drafts themselves.
type Bridge struct {
	drafts  domain.DraftCache
	store   domain.DocumentStore
	emitter EventEmitter
	submits submitGuard

	// draft watcher state
	mu          sync.Mutex
	seen        time.Time
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
}

// NewBridge creates a Bridge ready for use.
func NewBridge(drafts domain.DraftCache, store domain.DocumentStore, emitter EventEmitter) *Bridge {
	return &Bridge{drafts: drafts, store: store, emitter: emitter}
}

// SubmitResult is returned by a successful submit.
type SubmitResult struct {
	ID string `json:"id"`
}

// ── Draft ──────────────────────────────────────────────────

// SaveDraft overwrites the draft slot with d.
func (b *Bridge) SaveDraft(ctx context.Context, d domain.Draft) error {
	blob, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := b.drafts.Save(ctx, DraftKey, blob); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	b.markSeen(ctx)
	b.emitter.Emit(ctx, EventDraftSaved, len(d.Shapes))
	return nil
}

// LoadDraft reads the draft slot. ok is false when no draft exists. A
// stored draft that cannot be parsed is a *domain.SerializationError.
func (b *Bridge) LoadDraft(ctx context.Context) (domain.Draft, bool, error) {
	blob, ok, err := b.drafts.Load(ctx, DraftKey)
	if err != nil {
		return domain.Draft{}, false, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return domain.Draft{}, false, nil
	}
	var d domain.Draft
	if err := json.Unmarshal(blob, &d); err != nil {
		var serr *domain.SerializationError
		if !errors.As(err, &serr) {
			err = &domain.SerializationError{Err: err}
		}
		return domain.Draft{}, false, err
	}
	return d, true, nil
}

// DiscardDraft empties the draft slot.
func (b *Bridge) DiscardDraft(ctx context.Context) error {
	if err := b.drafts.Clear(ctx, DraftKey); err != nil {
		return fmt.Errorf("discard draft: %w", err)
	}
	b.markSeen(ctx)
	return nil
}

// ── Document Store ─────────────────────────────────────────

// Submit creates a new document from d. The request runs detached from
// ctx cancellation so navigating away cannot abort it halfway. On success
// the draft is cleared and EventSubmitted is emitted; on failure the draft
// is left untouched.
func (b *Bridge) Submit(ctx context.Context, d domain.Draft) (*SubmitResult, error) {
	if err := b.submits.Acquire(submitNewKey); err != nil {
		return nil, err
	}
	defer b.submits.Release(submitNewKey)

	doc, err := toDocument(d)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	id, err := b.store.Create(ctx, doc)
	if err != nil {
		log.Printf("[BRIDGE] submit failed: %v", err)
		return nil, asNetworkError("create document", err)
	}

	if err := b.drafts.Clear(ctx, DraftKey); err != nil {
		log.Printf("[BRIDGE] document %s created but draft not cleared: %v", id, err)
	}
	b.markSeen(ctx)
	log.Printf("[BRIDGE] document %s created with %d shape(s)", id, len(d.Shapes))
	b.emitter.Emit(ctx, EventSubmitted, SubmitResult{ID: id})
	return &SubmitResult{ID: id}, nil
}

// OpenDocument fetches a stored document for editing. Its objects are
// parsed back into shapes.
func (b *Bridge) OpenDocument(ctx context.Context, id string) (domain.Draft, error) {
	doc, err := b.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Draft{}, fmt.Errorf("open document %s: %w", id, err)
		}
		return domain.Draft{}, asNetworkError("get document", err)
	}
	shapes, err := domain.DecodeShapes(doc.Objects)
	if err != nil {
		return domain.Draft{}, err
	}
	return domain.Draft{
		Title:    doc.Title,
		Theme:    doc.Theme,
		Overview: doc.Overview,
		Results:  doc.Results,
		Shapes:   shapes,
	}, nil
}

// SubmitUpdate sends d as the new content of document id. The document is
// updated in place, never recreated.
func (b *Bridge) SubmitUpdate(ctx context.Context, id string, d domain.Draft) (*SubmitResult, error) {
	if err := b.submits.Acquire(id); err != nil {
		return nil, err
	}
	defer b.submits.Release(id)

	doc, err := toDocument(d)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	ctx = context.WithoutCancel(ctx)
	if err := b.store.Update(ctx, id, doc); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("update document %s: %w", id, err)
		}
		log.Printf("[BRIDGE] update of %s failed: %v", id, err)
		return nil, asNetworkError("update document", err)
	}
	log.Printf("[BRIDGE] document %s updated with %d shape(s)", id, len(d.Shapes))
	b.emitter.Emit(ctx, EventSubmitted, SubmitResult{ID: id})
	return &SubmitResult{ID: id}, nil
}

// WaitSubmits blocks until in-flight submits finish or ctx is cancelled.
// Used for graceful shutdown.
func (b *Bridge) WaitSubmits(ctx context.Context) {
	b.submits.WaitAll(ctx)
}

func toDocument(d domain.Draft) (*domain.Document, error) {
	objects, err := domain.EncodeShapes(d.Shapes)
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		Title:    d.Title,
		Theme:    d.Theme,
		Overview: d.Overview,
		Results:  d.Results,
		Objects:  objects,
	}, nil
}

func asNetworkError(op string, err error) error {
	var ne *domain.NetworkError
	if errors.As(err, &ne) {
		return err
	}
	return &domain.NetworkError{Op: op, Err: err}
}
