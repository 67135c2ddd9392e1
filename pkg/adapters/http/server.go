// Package http exposes the studio as a classroom web server: a browser
// editor page plus a JSON API with SSE session updates.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowlab-edu/flowlab"
	"github.com/flowlab-edu/flowlab/internal/presentation/graph"
	"github.com/flowlab-edu/flowlab/pkg/domain"
)

// Studio defines the interface for the session state machine core.
type Studio interface {
	NewSession(ctx context.Context) (*domain.Session, error)
	Session(ctx context.Context, id string) (*domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	Templates() []domain.Template
	Template(name string) (domain.Template, error)
	SelectTemplate(ctx context.Context, id, name string) (*domain.Session, error)
	Edit(ctx context.Context, id, text string) (*domain.Session, error)
	Undo(ctx context.Context, id string) (*domain.Session, error)
	Redo(ctx context.Context, id string) (*domain.Session, error)
	Render(ctx context.Context, id string) (*domain.Session, *domain.RenderResult, error)
	Export(ctx context.Context, id string, format domain.Format) ([]byte, error)
	SaveFile(ctx context.Context, id, path string) (*domain.Session, error)
	LoadFile(ctx context.Context, id, path string) (*domain.Session, error)
}

// Server wires the studio to the chi router.
type Server struct {
	Studio  Studio
	Streams *StreamManager
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler for the studio.
func NewHandler(studio Studio, logger *slog.Logger) http.Handler {
	server := &Server{
		Studio:  studio,
		Streams: NewStreamManager(logger),
		logger:  logger,
	}
	r := chi.NewRouter()

	// Browser editor
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(editorHTML))
	})

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/templates", server.ListTemplates)
		r.Get("/templates/{name}", server.GetTemplate)

		r.Get("/sessions", server.ListSessions)
		r.Post("/sessions", server.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/template", server.SelectTemplate)
			r.Post("/edit", server.Edit)
			r.Post("/undo", server.Undo)
			r.Post("/redo", server.Redo)
			r.Post("/render", server.Render)
			r.Post("/save", server.SaveFile)
			r.Post("/load", server.LoadFile)
			r.Get("/export", server.Export)
		})

		r.Get("/events", server.SubscribeEvents)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionView is the JSON shape of a session exposed to clients. Undo and
// redo stacks stay server-side; only their availability is reported.
type SessionView struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	FilePath string        `json:"file_path,omitempty"`
	CanUndo  bool          `json:"can_undo"`
	CanRedo  bool          `json:"can_redo"`
	Rendered bool          `json:"rendered"`
	Summary  graph.Summary `json:"summary"`
}

func viewOf(s *domain.Session) SessionView {
	return SessionView{
		ID:       s.ID,
		Text:     s.Source.Text,
		FilePath: s.Source.FilePath,
		CanUndo:  s.CanUndo(),
		CanRedo:  s.CanRedo(),
		Rendered: s.Rendered,
		Summary:  graph.Inspect(s.Source.Text),
	}
}

// TemplateView is the JSON shape of a starter template.
type TemplateView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// RenderView is the JSON shape of a render outcome.
type RenderView struct {
	OK   bool   `json:"ok"`
	SVG  string `json:"svg,omitempty"`
	Hint string `json:"hint,omitempty"`
}

// ListTemplates handles GET /api/templates.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tpls := s.Studio.Templates()
	views := make([]TemplateView, len(tpls))
	for i, t := range tpls {
		views[i] = TemplateView{Name: t.Name, Description: t.Description, Text: t.Text}
	}
	writeJSON(w, http.StatusOK, views)
}

// GetTemplate handles GET /api/templates/{name}.
func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tpl, err := s.Studio.Template(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TemplateView{Name: tpl.Name, Description: tpl.Description, Text: tpl.Text})
}

// CreateSession handles POST /api/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Studio.NewSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

// ListSessions handles GET /api/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Studio.Sessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /api/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Studio.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// DeleteSession handles DELETE /api/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Studio.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectTemplate handles POST /api/sessions/{id}/template.
func (s *Server) SelectTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("SelectTemplate: Invalid request body", "err", err)
		return
	}

	sess, err := s.Studio.SelectTemplate(r.Context(), chi.URLParam(r, "id"), body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(sess)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// Edit handles POST /api/sessions/{id}/edit.
func (s *Server) Edit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Edit: Invalid request body", "err", err)
		return
	}

	sess, err := s.Studio.Edit(r.Context(), chi.URLParam(r, "id"), body.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(sess)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// Undo handles POST /api/sessions/{id}/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Studio.Undo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(sess)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// Redo handles POST /api/sessions/{id}/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Studio.Redo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(sess)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// Render handles POST /api/sessions/{id}/render. Render failures are part of
// the normal response shape, not HTTP errors.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	sess, result, err := s.Studio.Render(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(sess)
	writeJSON(w, http.StatusOK, RenderView{OK: result.OK, SVG: string(result.SVG), Hint: result.Hint})
}

// SaveFile handles POST /api/sessions/{id}/save. The path is resolved on the
// server host; this endpoint exists for single-machine classroom setups.
func (s *Server) SaveFile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		http.Error(w, "Invalid request body: path is required", http.StatusBadRequest)
		return
	}

	sess, err := s.Studio.SaveFile(r.Context(), chi.URLParam(r, "id"), body.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(sess)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// LoadFile handles POST /api/sessions/{id}/load. An unreadable path leaves
// the session untouched.
func (s *Server) LoadFile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		http.Error(w, "Invalid request body: path is required", http.StatusBadRequest)
		return
	}

	sess, err := s.Studio.LoadFile(r.Context(), chi.URLParam(r, "id"), body.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.broadcast(sess)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// Export handles GET /api/sessions/{id}/export?format=png|svg|source.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid format: %v", err), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	data, err := s.Studio.Export(r.Context(), id, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "diagram."+format.Extension()))
	w.Write(data)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "flowlab-http",
		"version": strings.TrimSpace(flowlab.Version),
	})
}

// broadcast pushes the updated session view to SSE subscribers.
func (s *Server) broadcast(sess *domain.Session) {
	if sess == nil {
		return
	}
	if bytes, err := json.Marshal(viewOf(sess)); err == nil {
		s.Streams.Broadcast(sess.ID, string(bytes))
	}
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTemplateNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNotRendered), errors.Is(err, domain.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, fmt.Sprintf("Internal error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, ok := sm.subscribers[sessionID]; ok {
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
			}
		}
	}
}

// SubscribeEvents handles the GET /api/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
