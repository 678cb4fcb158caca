package app

import (
	"context"
	"errors"
	"log"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"docedit/internal/config"
	"docedit/internal/docstore"
	"docedit/internal/domain"
	"docedit/internal/editor"
	"docedit/internal/secret"
	"docedit/internal/service"
	"docedit/internal/storage"
)

// Events emitted to the frontend by the app layer.
const (
	EventFrame        = "editor:frame"
	EventSessionError = "editor:session-error"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	emitter service.EventEmitter

	// mu is the editor's event loop: every handler that touches the
	// session runs with it held.
	mu       sync.Mutex
	editor   *editor.Editor
	teardown func()

	db        *storage.DB
	approvals *storage.ApprovalStore
	settings  *service.SettingsService
	secrets   secret.SecretStore
	bridge    *service.Bridge
	autosave  *service.Autosave
	watcher   *approvalWatcher
}

// New creates a new App.
func New() *App {
	return &App{}
}

// wailsEmitter forwards service events to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.cfg = config.Load()
	a.emitter = wailsEmitter{}

	db, err := storage.New(a.cfg.DraftDBPath(), a.cfg.DataDir)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}
	a.db = db
	a.approvals = storage.NewApprovalStore(db)
	a.settings = service.NewSettingsService(db)
	a.secrets = secret.NewKeychainStore()

	store := docstore.NewClient(a.cfg.StoreURL, a.secrets)
	a.bridge = service.NewBridge(storage.NewDraftStore(db), store, a.emitter)

	surface := editor.NewSurface()
	if w, ok := a.settings.LoadViewportWidth(ctx); ok {
		surface.Resize(w)
	}
	a.editor = editor.New(surface)
	a.editor.OnRender(func(f editor.Frame) {
		a.emitter.Emit(ctx, EventFrame, f)
	})
	a.teardown = a.editor.Mount()

	a.restoreDraft(ctx)

	a.autosave = service.NewAutosave(a.bridge, a.snapshot)
	a.autosave.MarkSaved(a.revision())
	if err := a.autosave.Start(ctx, a.cfg.Autosave); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start autosave: %v", err)
	}

	if err := a.bridge.WatchDrafts(ctx, a.cfg.DraftDBPath(), a.onExternalDraft); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to watch drafts: %v", err)
	}

	a.watcher = newApprovalWatcher(ctx, a.approvals, a.emitter)
	a.watcher.Start()
}

// BeforeClose records the window size while the window still exists.
func (a *App) BeforeClose(ctx context.Context) bool {
	if a.settings != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.settings.SaveWindowSize(ctx, w, h); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to save window size: %v", err)
		}
	}
	return false
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.autosave != nil {
		// Stop waits for a running save, which takes the editor lock.
		a.autosave.Stop()
		if _, err := a.autosave.Run(ctx); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to save draft on exit: %v", err)
		}
	}
	if a.bridge != nil {
		a.bridge.StopWatching()
		a.bridge.WaitSubmits(ctx)
	}
	a.mu.Lock()
	if a.teardown != nil {
		a.teardown()
		a.teardown = nil
	}
	a.mu.Unlock()

	if a.db != nil {
		a.db.Close()
	}
}

// do runs fn on the editor's event loop.
func (a *App) do(fn func(ed *editor.Editor)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.editor)
}

// snapshot is the autosave source.
func (a *App) snapshot() (domain.Draft, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editor.Draft(), a.editor.Revision()
}

func (a *App) revision() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editor.Revision()
}

// restoreDraft loads the cached draft into the fresh session. A draft that
// cannot be parsed is reported and the session starts empty.
func (a *App) restoreDraft(ctx context.Context) {
	d, ok, err := a.bridge.LoadDraft(ctx)
	if err != nil {
		a.reportSessionError(err)
		return
	}
	if !ok {
		return
	}
	a.do(func(ed *editor.Editor) { ed.Replace(d) })
	log.Printf("[App] restored draft with %d shape(s)", len(d.Shapes))
}

// onExternalDraft applies a draft written by another process (the
// headless MCP server).
func (a *App) onExternalDraft(d domain.Draft) {
	var rev uint64
	a.do(func(ed *editor.Editor) {
		ed.Replace(d)
		rev = ed.Revision()
	})
	a.autosave.MarkSaved(rev)
	wailsRuntime.LogInfof(a.ctx, "[App] reloaded external draft with %d shape(s)", len(d.Shapes))
}

func (a *App) reportSessionError(err error) {
	var serr *domain.SerializationError
	if errors.As(err, &serr) {
		log.Printf("[App] stored document is corrupt: %v", err)
		a.emitter.Emit(a.ctx, EventSessionError, err.Error())
		return
	}
	log.Printf("[App] %v", err)
}

// SavedWindowSize reads the window size stored by the previous session.
// It runs before the window exists, so it opens the database on its own.
func SavedWindowSize() service.WindowSize {
	cfg := config.Load()
	db, err := storage.New(cfg.DraftDBPath(), cfg.DataDir)
	if err != nil {
		log.Printf("[App] window size: %v", err)
		return service.WindowSize{Width: service.DefaultWindowWidth, Height: service.DefaultWindowHeight}
	}
	defer db.Close()
	return service.NewSettingsService(db).LoadWindowSize(context.Background())
}
