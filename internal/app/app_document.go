package app

import (
	"fmt"
	"log"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"docedit/internal/domain"
	"docedit/internal/editor"
	"docedit/internal/secret"
	"docedit/internal/service"
)

// ============================================================
// Draft
// ============================================================

// SaveDraft writes the session to the local draft slot.
func (a *App) SaveDraft() error {
	d, rev := a.snapshot()
	if err := a.bridge.SaveDraft(a.ctx, d); err != nil {
		return err
	}
	a.autosave.MarkSaved(rev)
	return nil
}

// LoadDraft replaces the session with the saved draft. It reports false
// when there is none.
func (a *App) LoadDraft() (bool, error) {
	d, ok, err := a.bridge.LoadDraft(a.ctx)
	if err != nil {
		a.reportSessionError(err)
		return false, err
	}
	if !ok {
		return false, nil
	}
	a.replace(d)
	return true, nil
}

// DiscardDraft empties the draft slot and starts a fresh session.
func (a *App) DiscardDraft() error {
	if err := a.bridge.DiscardDraft(a.ctx); err != nil {
		return err
	}
	a.replace(domain.Draft{})
	return nil
}

// ============================================================
// Document Store
// ============================================================

// Submit sends the session as a new document. The shapes are copied under
// the lock; the request itself runs without it. On success the session is
// reset, on failure it is left as it was.
//
// Autosave is held for the whole call: the bridge clears the draft slot
// before the session is reset, and a save in between would write the
// submitted shapes back.
func (a *App) Submit() (*service.SubmitResult, error) {
	release := a.autosave.Hold()
	defer release()

	d, _ := a.snapshot()
	res, err := a.bridge.Submit(a.ctx, d)
	if err != nil {
		log.Printf("[App] submit: %v", err)
		return nil, err
	}
	a.replace(domain.Draft{})
	return res, nil
}

// OpenDocument loads a stored document into the session.
func (a *App) OpenDocument(id string) error {
	d, err := a.bridge.OpenDocument(a.ctx, id)
	if err != nil {
		a.reportSessionError(err)
		return err
	}
	a.replace(d)
	return nil
}

// SubmitUpdate overwrites document id with the session.
func (a *App) SubmitUpdate(id string) (*service.SubmitResult, error) {
	d, _ := a.snapshot()
	res, err := a.bridge.SubmitUpdate(a.ctx, id, d)
	if err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[App] update %s: %v", id, err)
		return nil, err
	}
	return res, nil
}

// replace swaps the session and marks the result as persisted so autosave
// does not write it straight back.
func (a *App) replace(d domain.Draft) {
	var rev uint64
	a.do(func(ed *editor.Editor) {
		ed.Replace(d)
		rev = ed.Revision()
	})
	a.autosave.MarkSaved(rev)
}

// ============================================================
// Credential
// ============================================================

// SetCredential stores the bearer credential for the Document Store.
func (a *App) SetCredential(token string) error {
	if token == "" {
		return fmt.Errorf("credential must not be empty")
	}
	return a.secrets.Set(secret.CredentialKey, []byte(token))
}

func (a *App) ClearCredential() error {
	return a.secrets.Delete(secret.CredentialKey)
}

// HasCredential reports whether a credential is stored.
func (a *App) HasCredential() bool {
	return secret.Token(a.secrets) != ""
}

// ============================================================
// MCP approvals
// ============================================================

// ApproveMCPAction approves a pending action requested by the MCP server.
func (a *App) ApproveMCPAction(id string) error {
	return a.resolveApproval(id, true)
}

// RejectMCPAction rejects a pending action requested by the MCP server.
func (a *App) RejectMCPAction(id string) error {
	return a.resolveApproval(id, false)
}

func (a *App) resolveApproval(id string, approved bool) error {
	ok, err := a.approvals.Resolve(a.ctx, id, approved)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	if !ok {
		return fmt.Errorf("approval %s is no longer pending", id)
	}
	a.watcher.Forget(id)
	return nil
}
