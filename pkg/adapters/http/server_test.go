package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/flowlab-edu/flowlab"
	"github.com/flowlab-edu/flowlab/pkg/domain"
)

// stubRenderer for testing without the external rendering service.
type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	return []byte("<svg>ok</svg>"), nil
}

func (stubRenderer) Export(ctx context.Context, text string, format domain.Format) ([]byte, error) {
	return []byte("artifact"), nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	studio, err := flowlab.New(
		flowlab.WithRenderer(stubRenderer{}),
		flowlab.WithExporter(stubRenderer{}),
	)
	if err != nil {
		t.Fatalf("Failed to initialize studio: %v", err)
	}
	return NewHandler(studio, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, handler http.Handler) SessionView {
	t.Helper()
	w := doJSON(t, handler, "POST", "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("CreateSession failed: %d %s", w.Code, w.Body.String())
	}
	var view SessionView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("Failed to decode session view: %v", err)
	}
	return view
}

func TestEditorPage(t *testing.T) {
	handler := newTestHandler(t)
	w := doJSON(t, handler, "GET", "/", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "mermaid") {
		t.Error("Expected editor page to load mermaid.js")
	}
}

func TestHealthAndInfo(t *testing.T) {
	handler := newTestHandler(t)

	w := doJSON(t, handler, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", w.Code)
	}

	w = doJSON(t, handler, "GET", "/info", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /info, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "flowlab-http") {
		t.Errorf("Expected app name in /info, got %s", w.Body.String())
	}
}

func TestListTemplates(t *testing.T) {
	handler := newTestHandler(t)
	w := doJSON(t, handler, "GET", "/api/templates", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d", w.Code)
	}
	var views []TemplateView
	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil {
		t.Fatalf("Failed to decode templates: %v", err)
	}
	if len(views) == 0 {
		t.Fatal("Expected built-in templates")
	}

	w = doJSON(t, handler, "GET", "/api/templates/"+views[0].Name, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for known template, got %d", w.Code)
	}

	w = doJSON(t, handler, "GET", "/api/templates/unknown-starter", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown template, got %d", w.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	handler := newTestHandler(t)
	view := createSession(t, handler)

	// Edit
	w := doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/edit", map[string]string{"text": "graph TD\n  A --> B"})
	if w.Code != http.StatusOK {
		t.Fatalf("Edit failed: %d %s", w.Code, w.Body.String())
	}
	var edited SessionView
	json.Unmarshal(w.Body.Bytes(), &edited)
	if !edited.CanUndo {
		t.Error("Expected undo to be available after edit")
	}
	if edited.Summary.Kind != "flowchart" {
		t.Errorf("Expected flowchart summary, got %q", edited.Summary.Kind)
	}

	// Undo
	w = doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Undo failed: %d", w.Code)
	}
	var undone SessionView
	json.Unmarshal(w.Body.Bytes(), &undone)
	if undone.Text != "" {
		t.Errorf("Expected empty text after undo, got %q", undone.Text)
	}
	if !undone.CanRedo {
		t.Error("Expected redo to be available after undo")
	}

	// Render
	w = doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/render", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Render failed: %d", w.Code)
	}

	// Delete
	w = doJSON(t, handler, "DELETE", "/api/sessions/"+view.ID+"/", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Delete failed: %d", w.Code)
	}
	w = doJSON(t, handler, "GET", "/api/sessions/"+view.ID+"/", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestSelectTemplate(t *testing.T) {
	handler := newTestHandler(t)
	view := createSession(t, handler)

	w := doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/template", map[string]string{"name": "simple-flow"})
	if w.Code != http.StatusOK {
		t.Fatalf("SelectTemplate failed: %d %s", w.Code, w.Body.String())
	}
	var updated SessionView
	json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Text == "" {
		t.Error("Expected template text in session")
	}

	w = doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/template", map[string]string{"name": "no-such"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown template, got %d", w.Code)
	}
}

func TestExport(t *testing.T) {
	handler := newTestHandler(t)
	view := createSession(t, handler)

	doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/edit", map[string]string{"text": "graph TD\n  A"})

	// PNG before any render is a conflict.
	w := doJSON(t, handler, "GET", "/api/sessions/"+view.ID+"/export?format=png", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for PNG before render, got %d", w.Code)
	}

	// Source works without rendering.
	w = doJSON(t, handler, "GET", "/api/sessions/"+view.ID+"/export?format=source", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Source export failed: %d", w.Code)
	}
	if got := w.Body.String(); got != "graph TD\n  A" {
		t.Errorf("Source export mismatch: %q", got)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "diagram.mmd") {
		t.Errorf("Expected .mmd attachment, got %q", cd)
	}

	// After a render, PNG is available.
	doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/render", nil)
	w = doJSON(t, handler, "GET", "/api/sessions/"+view.ID+"/export?format=png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PNG export failed: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}

	// Unknown formats are a client error.
	w = doJSON(t, handler, "GET", "/api/sessions/"+view.ID+"/export?format=pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for pdf, got %d", w.Code)
	}
}

func TestEditorEditThenImageExport(t *testing.T) {
	// The editor page renders server-side after every edit, valid or not,
	// so the image export buttons work as soon as the preview does. Walk
	// the same request sequence the page issues.
	handler := newTestHandler(t)
	view := createSession(t, handler)

	w := doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/edit", map[string]string{"text": "flowchart TD\n a --> b"})
	if w.Code != http.StatusOK {
		t.Fatalf("Edit failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/render", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Render failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, handler, "GET", "/api/sessions/"+view.ID+"/export?format=png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("PNG export after an edit failed: %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
}

func TestEditorPageRendersUnconditionally(t *testing.T) {
	// The server render call must not live inside the preview error
	// handler, otherwise valid diagrams never reach the exporter.
	start := strings.Index(editorHTML, "async function draw")
	if start < 0 {
		t.Fatal("Editor page is missing the draw routine")
	}
	body := editorHTML[start:]
	catchStart := strings.Index(body, "catch")
	catchEnd := strings.Index(body[catchStart:], "}")
	render := strings.Index(body, "/render")
	if catchStart < 0 || catchEnd < 0 || render < 0 {
		t.Fatal("Editor page draw routine lost its shape")
	}
	if render < catchStart+catchEnd {
		t.Error("Server render is only issued on preview failure")
	}
}

func TestSaveLoadFile(t *testing.T) {
	handler := newTestHandler(t)
	view := createSession(t, handler)
	path := t.TempDir() + "/diagram.mmd"

	doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/edit", map[string]string{"text": "graph TD\n  A --> B"})

	w := doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/save", map[string]string{"path": path})
	if w.Code != http.StatusOK {
		t.Fatalf("Save failed: %d %s", w.Code, w.Body.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Saved file unreadable: %v", err)
	}
	if string(data) != "graph TD\n  A --> B" {
		t.Errorf("Saved bytes mismatch: %q", data)
	}

	// Load into a fresh session.
	other := createSession(t, handler)
	w = doJSON(t, handler, "POST", "/api/sessions/"+other.ID+"/load", map[string]string{"path": path})
	if w.Code != http.StatusOK {
		t.Fatalf("Load failed: %d %s", w.Code, w.Body.String())
	}
	var loaded SessionView
	json.Unmarshal(w.Body.Bytes(), &loaded)
	if loaded.Text != "graph TD\n  A --> B" {
		t.Errorf("Loaded text mismatch: %q", loaded.Text)
	}

	// Missing path is a client error and leaves the session untouched.
	w = doJSON(t, handler, "POST", "/api/sessions/"+other.ID+"/load", map[string]string{"path": path + ".missing"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing file, got %d", w.Code)
	}
	w = doJSON(t, handler, "GET", "/api/sessions/"+other.ID+"/", nil)
	json.Unmarshal(w.Body.Bytes(), &loaded)
	if loaded.Text != "graph TD\n  A --> B" {
		t.Errorf("Failed load mutated the session: %q", loaded.Text)
	}
}

func TestUnknownSession(t *testing.T) {
	handler := newTestHandler(t)
	w := doJSON(t, handler, "POST", "/api/sessions/nope/edit", map[string]string{"text": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}

func TestSubscribeEvents_Session(t *testing.T) {
	handler := newTestHandler(t)
	view := createSession(t, handler)

	// 1. Subscribe
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/api/events?session_id="+view.ID, nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		handler.ServeHTTP(wSub, reqSub)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond) // Wait for subscription to register

	// 2. Trigger an edit
	w := doJSON(t, handler, "POST", "/api/sessions/"+view.ID+"/edit", map[string]string{"text": "graph TD\n  X"})
	if w.Code != http.StatusOK {
		t.Fatalf("Edit failed: %d %s", w.Code, w.Body.String())
	}

	// 3. Stop subscription to flush
	cancel()
	<-done

	output := wSub.Body.String()
	if !strings.Contains(output, "event: ping") {
		t.Error("Expected initial ping")
	}
	if !strings.Contains(output, `graph TD\n  X`) {
		t.Error("Expected session update in SSE output")
	}
}

func TestSubscribeEvents_RequiresSessionID(t *testing.T) {
	handler := newTestHandler(t)
	w := doJSON(t, handler, "GET", "/api/events", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without session_id, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	handler := newTestHandler(t)
	req := httptest.NewRequest("OPTIONS", "/api/templates", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS headers")
	}
}
