package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"docedit/internal/domain"
	"docedit/internal/editor"
	"docedit/internal/service"
	"docedit/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────

type testSession struct {
	mu sync.Mutex
	ed *editor.Editor
}

func (s *testSession) Do(fn func(ed *editor.Editor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ed)
}

type fakeDocs struct {
	mu        sync.Mutex
	saved     *domain.Draft
	submitted []domain.Draft
	updated   map[string]domain.Draft
	open      map[string]domain.Draft
	submitErr error
}

func (f *fakeDocs) SaveDraft(_ context.Context, d domain.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = &d
	return nil
}

func (f *fakeDocs) LoadDraft(context.Context) (domain.Draft, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		return domain.Draft{}, false, nil
	}
	return *f.saved, true, nil
}

func (f *fakeDocs) Submit(_ context.Context, d domain.Draft) (*service.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, d)
	return &service.SubmitResult{ID: "doc-1"}, nil
}

func (f *fakeDocs) OpenDocument(_ context.Context, id string) (domain.Draft, error) {
	d, ok := f.open[id]
	if !ok {
		return domain.Draft{}, domain.ErrNotFound
	}
	return d, nil
}

func (f *fakeDocs) SubmitUpdate(_ context.Context, id string, d domain.Draft) (*service.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[string]domain.Draft{}
	}
	f.updated[id] = d
	return &service.SubmitResult{ID: id}, nil
}

// recordingEmitter records event names.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEmitter) Emit(_ context.Context, event string, _ any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) count(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev == event {
			n++
		}
	}
	return n
}

// memApprovals is an in-memory approval table. Every insert is also pushed
// to requests so a test can answer it.
type memApprovals struct {
	mu       sync.Mutex
	status   map[string]string
	inserted int
	requests chan storage.Approval
}

func newMemApprovals() *memApprovals {
	return &memApprovals{status: map[string]string{}, requests: make(chan storage.Approval, 4)}
}

func (m *memApprovals) Insert(_ context.Context, a storage.Approval) error {
	m.mu.Lock()
	m.status[a.ID] = storage.ApprovalPending
	m.inserted++
	m.mu.Unlock()
	m.requests <- a
	return nil
}

func (m *memApprovals) Status(_ context.Context, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.status[id]
	return st, ok, nil
}

func (m *memApprovals) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.status, id)
	return nil
}

func (m *memApprovals) resolve(id string, approved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if approved {
		m.status[id] = storage.ApprovalApproved
	} else {
		m.status[id] = storage.ApprovalRejected
	}
}

func (m *memApprovals) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserted
}

type fixture struct {
	srv       *Server
	session   *testSession
	docs      *fakeDocs
	emitter   *recordingEmitter
	approvals *memApprovals
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		session:   &testSession{ed: editor.New(nil)},
		docs:      &fakeDocs{open: map[string]domain.Draft{}},
		emitter:   &recordingEmitter{},
		approvals: newMemApprovals(),
	}
	f.srv = New(Deps{Emitter: f.emitter, Session: f.session, Documents: f.docs, Approvals: f.approvals})
	f.srv.approval.SetTimeout(5 * time.Second)
	f.srv.approval.poll = 5 * time.Millisecond
	return f
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, h handler, args map[string]any) (string, error) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		return "", err
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return text.Text, nil
}

func mustCall(t *testing.T, h handler, args map[string]any) string {
	t.Helper()
	out, err := call(t, h, args)
	if err != nil {
		t.Fatalf("tool failed: %v", err)
	}
	return out
}

func decodeEntry(t *testing.T, out string) domain.Entry {
	t.Helper()
	var e domain.Entry
	if err := json.Unmarshal([]byte(out), &e); err != nil {
		t.Fatalf("decode entry: %v\n%s", err, out)
	}
	return e
}

func (f *fixture) shapes() []domain.Shape {
	var out []domain.Shape
	f.session.Do(func(ed *editor.Editor) { out = ed.Shapes() })
	return out
}

// ─────────────────────────────────────────────────────────────
// Editor tools
// ─────────────────────────────────────────────────────────────

func TestAddShape_AtPosition(t *testing.T) {
	f := newFixture(t)
	e := decodeEntry(t, mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Circle", "x": 100.0, "y": 80.0}))

	if e.ID != "Circle-1" || e.Type != domain.KindCircle || e.X != 100 || e.Y != 80 {
		t.Errorf("unexpected shape: %+v", e)
	}
	if f.emitter.count("mcp:editor-changed") != 1 {
		t.Error("expected an editor-changed event")
	}
}

func TestAddShape_AutoPlacementAvoidsOverlap(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect"})
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect"})

	shapes := f.shapes()
	if len(shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(shapes))
	}
	a, b := rectOf(shapes[0].Bounds()), rectOf(shapes[1].Bounds())
	if a.intersects(b) {
		t.Errorf("auto-placed shapes overlap: %+v and %+v", a, b)
	}
}

func TestAddShape_TextContent(t *testing.T) {
	f := newFixture(t)
	e := decodeEntry(t, mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Text", "x": 10.0, "y": 10.0, "text": "Revenue"}))
	if e.Text == nil || *e.Text != "Revenue" {
		t.Errorf("expected text Revenue, got %+v", e.Text)
	}
}

func TestAddShape_UnknownType(t *testing.T) {
	f := newFixture(t)
	if _, err := call(t, f.srv.handleAddShape, map[string]any{"type": "Star", "x": 1.0, "y": 1.0}); err == nil {
		t.Error("expected error for unknown shape type")
	}
	if len(f.shapes()) != 0 {
		t.Error("no shape should be created")
	}
}

func TestSelectToolAndClick(t *testing.T) {
	f := newFixture(t)
	if _, err := call(t, f.srv.handleSelectTool, map[string]any{"tool": "hexagon"}); err == nil {
		t.Error("expected error for unknown tool")
	}
	mustCall(t, f.srv.handleSelectTool, map[string]any{"tool": "square"})
	mustCall(t, f.srv.handleClick, map[string]any{"x": 200.0, "y": 150.0})

	shapes := f.shapes()
	if len(shapes) != 1 || shapes[0].Head().ID != "Rect-1" {
		t.Fatalf("expected Rect-1 from the click, got %v", shapes)
	}
}

func TestUpdateShape(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect", "x": 0.0, "y": 0.0})

	e := decodeEntry(t, mustCall(t, f.srv.handleUpdateShape, map[string]any{
		"shapeId": "Rect-1",
		"patch":   `{"fill":"orange","width":120,"radius":9}`,
	}))
	if e.ID != "Rect-1" || e.Fill == nil || *e.Fill != "orange" || e.Width == nil || *e.Width != 120 {
		t.Errorf("patch not applied: %+v", e)
	}
	if e.Radius != nil {
		t.Error("fields of other kinds must be ignored")
	}

	if _, err := call(t, f.srv.handleUpdateShape, map[string]any{"shapeId": "Rect-9", "patch": `{}`}); err == nil {
		t.Error("expected error for unknown shape")
	}
	if _, err := call(t, f.srv.handleUpdateShape, map[string]any{"shapeId": "Rect-1", "patch": `{`}); err == nil {
		t.Error("expected error for malformed patch")
	}
}

func TestMoveShape_OnlyPosition(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect", "x": 0.0, "y": 0.0})
	e := decodeEntry(t, mustCall(t, f.srv.handleMoveShape, map[string]any{"shapeId": "Rect-1", "x": 40.0, "y": 60.0}))

	if e.X != 40 || e.Y != 60 || *e.Width != editor.DefaultRectSize || *e.Height != editor.DefaultRectSize {
		t.Errorf("unexpected shape after move: %+v", e)
	}
}

func TestTransformShape_FoldsScale(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect", "x": 10.0, "y": 10.0})
	e := decodeEntry(t, mustCall(t, f.srv.handleTransformShape, map[string]any{
		"shapeId": "Rect-1", "scaleX": 2.0, "scaleY": 1.0, "rotation": 30.0,
	}))

	if *e.Width != 100 || *e.Height != 50 || e.X != 10 || e.Rotation == nil || *e.Rotation != 30 {
		t.Errorf("unexpected shape after transform: %+v", e)
	}
	var live domain.Scale
	f.session.Do(func(ed *editor.Editor) { live = ed.LiveScale() })
	if live != domain.Identity {
		t.Errorf("live scale should reset, got %+v", live)
	}

	if _, err := call(t, f.srv.handleTransformShape, map[string]any{"shapeId": "Rect-1", "scaleX": -1.0}); err == nil {
		t.Error("expected error for negative scale")
	}
}

func TestSetText(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect", "x": 0.0, "y": 0.0})
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Text", "x": 200.0, "y": 0.0})

	if _, err := call(t, f.srv.handleSetText, map[string]any{"shapeId": "Rect-1", "text": "x"}); err == nil {
		t.Error("expected error for non-text shape")
	}
	e := decodeEntry(t, mustCall(t, f.srv.handleSetText, map[string]any{"shapeId": "Text-1", "text": "Hello"}))
	if *e.Text != "Hello" {
		t.Errorf("expected Hello, got %q", *e.Text)
	}
	var phase editor.Phase
	f.session.Do(func(ed *editor.Editor) { phase = ed.Phase() })
	if phase != editor.PhaseSelected {
		t.Errorf("expected the text shape to stay selected, got %s", phase)
	}
}

func TestSetFields_Merges(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleSetFields, map[string]any{"title": "Report", "theme": "Q3"})
	mustCall(t, f.srv.handleSetFields, map[string]any{"overview": "Summary"})

	var got editor.Fields
	f.session.Do(func(ed *editor.Editor) { got = ed.Fields() })
	want := editor.Fields{Title: "Report", Theme: "Q3", Overview: "Summary"}
	if got != want {
		t.Errorf("fields = %+v, want %+v", got, want)
	}
}

func TestArrangeShapes(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Circle", "x": 50.0, "y": 50.0})
	}
	mustCall(t, f.srv.handleArrangeShapes, map[string]any{})

	shapes := f.shapes()
	for i := range shapes {
		for j := i + 1; j < len(shapes); j++ {
			if rectOf(shapes[i].Bounds()).intersects(rectOf(shapes[j].Bounds())) {
				t.Errorf("%s and %s overlap", shapes[i].Head().ID, shapes[j].Head().ID)
			}
		}
	}

	if _, err := call(t, f.srv.handleArrangeShapes, map[string]any{"shapeIds": "Circle-1, Rect-4"}); err == nil {
		t.Error("expected error for unknown shape id")
	}
}

// ─────────────────────────────────────────────────────────────
// Approvals
// ─────────────────────────────────────────────────────────────

// answer resolves the next approval request written to the table.
func (f *fixture) answer(t *testing.T, approve bool) <-chan storage.Approval {
	t.Helper()
	got := make(chan storage.Approval, 1)
	go func() {
		a := <-f.approvals.requests
		f.approvals.resolve(a.ID, approve)
		got <- a
	}()
	return got
}

func TestEraseShape_Approved(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Text", "x": 0.0, "y": 0.0, "text": "Old"})

	asked := f.answer(t, true)
	mustCall(t, f.srv.handleEraseShape, map[string]any{"shapeId": "Text-1"})

	a := <-asked
	if a.Tool != "erase_shape" || a.Description != `Erase Text "Old"` {
		t.Errorf("unexpected approval request: %+v", a)
	}
	if len(f.shapes()) != 0 {
		t.Error("expected the shape to be erased")
	}
}

func TestEraseShape_Rejected(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect", "x": 0.0, "y": 0.0})

	f.answer(t, false)
	if _, err := call(t, f.srv.handleEraseShape, map[string]any{"shapeId": "Rect-1"}); err == nil {
		t.Fatal("expected rejection error")
	}
	if len(f.shapes()) != 1 {
		t.Error("a rejected erase must keep the shape")
	}
}

func TestEraseShape_UnknownSkipsApproval(t *testing.T) {
	f := newFixture(t)
	if _, err := call(t, f.srv.handleEraseShape, map[string]any{"shapeId": "Rect-1"}); err == nil {
		t.Error("expected not found error")
	}
	if f.approvals.count() != 0 {
		t.Error("no approval should be requested for a missing shape")
	}
}

func TestClearCanvas_KeepsFields(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleSetFields, map[string]any{"title": "Keep"})
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect", "x": 0.0, "y": 0.0})
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Line", "x": 0.0, "y": 100.0})

	f.answer(t, true)
	mustCall(t, f.srv.handleClearCanvas, nil)

	var d domain.Draft
	f.session.Do(func(ed *editor.Editor) { d = ed.Draft() })
	if len(d.Shapes) != 0 || d.Title != "Keep" {
		t.Errorf("unexpected session after clear: %+v", d)
	}
}

func TestApprovalQueue_Backend(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "docedit.db"), dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	approvals := storage.NewApprovalStore(db)

	q := NewApprovalQueue(approvals)
	q.SetTimeout(5 * time.Second)

	ctx := context.Background()
	go func() {
		for {
			pending, _ := approvals.Pending(ctx)
			if len(pending) > 0 {
				approvals.Resolve(ctx, pending[0].ID, false)
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	err = q.Request(ctx, "erase_shape", "Erase Rect-1")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if pending, _ := approvals.Pending(ctx); len(pending) != 0 {
		t.Error("expected the approval row to be removed")
	}
}

func TestApprovalQueue_ContextCancel(t *testing.T) {
	backend := newMemApprovals()
	q := NewApprovalQueue(backend)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Request(ctx, "clear_canvas", "Remove all"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, ok, _ := backend.Status(context.Background(), (<-backend.requests).ID); ok {
		t.Error("expected the cancelled request to be removed")
	}
}

// ─────────────────────────────────────────────────────────────
// Document tools
// ─────────────────────────────────────────────────────────────

func TestSaveAndLoadDraft(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect", "x": 0.0, "y": 0.0})
	mustCall(t, f.srv.handleSaveDraft, nil)

	f.session.Do(func(ed *editor.Editor) { ed.Reset() })
	mustCall(t, f.srv.handleLoadDraft, nil)

	if shapes := f.shapes(); len(shapes) != 1 || shapes[0].Head().ID != "Rect-1" {
		t.Errorf("expected Rect-1 restored, got %v", shapes)
	}
}

func TestSubmitDocument(t *testing.T) {
	f := newFixture(t)
	mustCall(t, f.srv.handleSetFields, map[string]any{"title": "Report"})
	mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Circle", "x": 10.0, "y": 10.0})

	f.answer(t, true)
	out := mustCall(t, f.srv.handleSubmitDocument, nil)

	var res service.SubmitResult
	json.Unmarshal([]byte(out), &res)
	if res.ID != "doc-1" {
		t.Errorf("unexpected result %s", out)
	}
	if len(f.docs.submitted) != 1 || f.docs.submitted[0].Title != "Report" || len(f.docs.submitted[0].Shapes) != 1 {
		t.Errorf("unexpected submitted draft: %+v", f.docs.submitted)
	}
}

func TestSubmitDocument_NetworkError(t *testing.T) {
	f := newFixture(t)
	f.docs.submitErr = &domain.NetworkError{Op: "create", Err: errors.New("connection refused")}

	f.answer(t, true)
	_, err := call(t, f.srv.handleSubmitDocument, nil)
	if !domain.IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}

func TestOpenAndUpdateDocument(t *testing.T) {
	f := newFixture(t)
	shapes, _ := domain.DecodeShapes(`[{"id":"Rect-3","type":"Rect","x":1,"y":2,"width":10,"height":10}]`)
	f.docs.open["doc-7"] = domain.Draft{Title: "Stored", Shapes: shapes}

	if _, err := call(t, f.srv.handleOpenDocument, map[string]any{"id": "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	mustCall(t, f.srv.handleOpenDocument, map[string]any{"id": "doc-7"})

	// ids continue after the loaded shapes
	e := decodeEntry(t, mustCall(t, f.srv.handleAddShape, map[string]any{"type": "Rect", "x": 100.0, "y": 100.0}))
	if e.ID != "Rect-4" {
		t.Errorf("expected Rect-4, got %s", e.ID)
	}

	f.answer(t, true)
	mustCall(t, f.srv.handleUpdateDocument, map[string]any{"id": "doc-7"})
	if got := f.docs.updated["doc-7"]; got.Title != "Stored" || len(got.Shapes) != 2 {
		t.Errorf("unexpected update: %+v", got)
	}
}
