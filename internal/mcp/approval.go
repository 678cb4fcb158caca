package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docedit/internal/storage"
)

// EventEmitter allows the MCP server to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// PendingAction is the frontend payload for a destructive operation
// awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with extra context (e.g. shape IDs)
}

// ApprovalBackend stores approval requests where another process can
// answer them.
type ApprovalBackend interface {
	Insert(ctx context.Context, a storage.Approval) error
	Status(ctx context.Context, id string) (status string, ok bool, err error)
	Delete(ctx context.Context, id string) error
}

// ApprovalQueue manages human-in-the-loop approval for destructive MCP tool
// calls. Each request is written to the approval table, where the desktop
// app raises it, and polled until the user answers or it times out.
type ApprovalQueue struct {
	timeout time.Duration
	poll    time.Duration
	backend ApprovalBackend
}

func NewApprovalQueue(backend ApprovalBackend) *ApprovalQueue {
	return &ApprovalQueue{
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
		backend: backend,
	}
}

// SetTimeout changes how long a request waits for an answer.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.timeout = d
}

// Request asks the user to approve tool and blocks until they answer.
// A nil error means approved.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string, metadata ...string) error {
	id := uuid.New().String()
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}

	if err := q.backend.Insert(ctx, storage.Approval{ID: id, Tool: tool, Description: description, Metadata: meta}); err != nil {
		return err
	}
	// The row is always removed, answered or not.
	defer q.backend.Delete(context.WithoutCancel(ctx), id)

	deadline := time.After(q.timeout)
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, ok, err := q.backend.Status(ctx, id)
			if err != nil {
				continue
			}
			if !ok {
				return fmt.Errorf("approval request vanished: %s", tool)
			}
			switch status {
			case storage.ApprovalApproved:
				return nil
			case storage.ApprovalRejected:
				return fmt.Errorf("action rejected by user: %s", tool)
			}
		case <-deadline:
			return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
		case <-ctx.Done():
			return fmt.Errorf("approval %s: %w", tool, ctx.Err())
		}
	}
}
