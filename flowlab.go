package flowlab

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowlab-edu/flowlab/internal/logging"
	core "github.com/flowlab-edu/flowlab/internal/session"
	"github.com/flowlab-edu/flowlab/pkg/adapters/kroki"
	"github.com/flowlab-edu/flowlab/pkg/adapters/memory"
	"github.com/flowlab-edu/flowlab/pkg/domain"
	"github.com/flowlab-edu/flowlab/pkg/ports"
	"github.com/flowlab-edu/flowlab/pkg/session"
	"github.com/flowlab-edu/flowlab/pkg/templates"
)

// Version is the studio version, overridable at build time via -ldflags.
var Version = "dev"

// Studio is the high-level entry point for the Flowlab library.
// It wraps the session state machine with persistence and observability and
// provides a simplified API for hosts (HTTP, CLI, MCP).
type Studio struct {
	controller *core.Controller
	manager    *session.Manager

	renderer     ports.DiagramRenderer
	exporter     ports.Exporter
	store        ports.SessionStore
	locker       ports.DistributedLocker
	library      ports.TemplateSource
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	historyLimit int
}

// Option defines a functional option for configuring the Studio.
type Option func(*Studio)

// WithRenderer injects a custom rendering collaborator, bypassing the default
// Kroki client.
func WithRenderer(r ports.DiagramRenderer) Option {
	return func(s *Studio) {
		s.renderer = r
	}
}

// WithExporter injects a custom export collaborator.
func WithExporter(e ports.Exporter) Option {
	return func(s *Studio) {
		s.exporter = e
	}
}

// WithStore sets the session persistence backend (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(s *Studio) {
		s.store = store
	}
}

// WithLocker enables distributed session locking for multi-replica setups.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Studio) {
		s.locker = locker
	}
}

// WithTemplates replaces the built-in starter library.
func WithTemplates(lib ports.TemplateSource) Option {
	return func(s *Studio) {
		s.library = lib
	}
}

// WithLogger sets a custom structured logger for the studio.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Studio) {
		s.logger = logger
	}
}

// WithHistoryLimit overrides the undo stack bound (default 50 entries).
func WithHistoryLimit(limit int) Option {
	return func(s *Studio) {
		s.historyLimit = limit
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Studio) {
		s.hooks = hooks
	}
}

// New initializes a new Flowlab Studio.
// By default it uses the built-in template library, an in-memory session
// store and the public Kroki rendering service.
func New(opts ...Option) (*Studio, error) {
	s := &Studio{}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	if s.library == nil {
		lib, err := templates.Builtin()
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in templates: %w", err)
		}
		s.library = lib
	}

	// A Kroki client serves as both renderer and exporter unless the host
	// injected its own collaborators.
	if s.renderer == nil || s.exporter == nil {
		client := kroki.New(kroki.WithLogger(s.logger))
		if s.renderer == nil {
			s.renderer = client
		}
		if s.exporter == nil {
			s.exporter = client
		}
	}

	if s.store == nil {
		s.store = memory.NewStore()
	}

	managerOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(s.locker))
	}
	s.manager = session.NewManager(s.store, managerOpts...)

	controllerOpts := []core.Option{core.WithLogger(s.logger)}
	if s.historyLimit > 0 {
		controllerOpts = append(controllerOpts, core.WithHistoryLimit(s.historyLimit))
	}
	s.controller = core.NewController(s.renderer, s.exporter, s.library, controllerOpts...)

	return s, nil
}

// NewSession creates and persists a fresh editing session.
func (s *Studio) NewSession(ctx context.Context) (*domain.Session, error) {
	return s.manager.LoadOrStart(ctx, uuid.NewString())
}

// Session retrieves an existing session.
// Returns domain.ErrSessionNotFound for unknown IDs.
func (s *Studio) Session(ctx context.Context, id string) (*domain.Session, error) {
	return s.manager.Load(ctx, id)
}

// Sessions lists all known session IDs.
func (s *Studio) Sessions(ctx context.Context) ([]string, error) {
	return s.manager.List(ctx)
}

// Delete removes a session.
func (s *Studio) Delete(ctx context.Context, id string) error {
	return s.manager.Delete(ctx, id)
}

// Templates returns the starter library in stable order.
func (s *Studio) Templates() []domain.Template {
	return s.library.List()
}

// Template returns a single starter diagram by name.
func (s *Studio) Template(name string) (domain.Template, error) {
	return s.library.Get(name)
}

// SelectTemplate replaces the session text with the named template.
func (s *Studio) SelectTemplate(ctx context.Context, id, name string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.ActionSelectTemplate, func(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
		return s.controller.SelectTemplate(ctx, sess, name)
	})
}

// Edit replaces the session text.
func (s *Studio) Edit(ctx context.Context, id, text string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.ActionEdit, func(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
		return s.controller.Edit(ctx, sess, text)
	})
}

// Undo restores the previous text, if any.
func (s *Studio) Undo(ctx context.Context, id string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.ActionUndo, s.controller.Undo)
}

// Redo restores the next text, if any.
func (s *Studio) Redo(ctx context.Context, id string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.ActionRedo, s.controller.Redo)
}

// SaveFile writes the session text to a .mmd file.
func (s *Studio) SaveFile(ctx context.Context, id, path string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.ActionSaveFile, func(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
		return s.controller.SaveFile(ctx, sess, path)
	})
}

// LoadFile replaces the session text with the contents of a .mmd file.
// The session is left untouched when the path is unreadable.
func (s *Studio) LoadFile(ctx context.Context, id, path string) (*domain.Session, error) {
	return s.apply(ctx, id, domain.ActionLoadFile, func(ctx context.Context, sess *domain.Session) (*domain.Session, error) {
		return s.controller.LoadFile(ctx, sess, path)
	})
}

// Render hands the session text to the rendering collaborator. Failures come
// back as a student-friendly hint inside the result, never as an error.
func (s *Studio) Render(ctx context.Context, id string) (*domain.Session, *domain.RenderResult, error) {
	var (
		next   *domain.Session
		result *domain.RenderResult
	)
	start := time.Now()
	err := s.manager.WithLock(ctx, id, func(ctx context.Context) error {
		sess, err := s.store.Load(ctx, id)
		if err != nil {
			return err
		}
		next, result, err = s.controller.Render(ctx, sess)
		if err != nil {
			return err
		}
		if next != sess {
			return s.store.Save(ctx, id, next)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if s.hooks.OnRender != nil {
		s.hooks.OnRender(ctx, &domain.RenderEvent{
			Timestamp: time.Now(),
			SessionID: id,
			OK:        result.OK,
			Duration:  time.Since(start),
		})
	}
	return next, result, nil
}

// Export produces a downloadable artifact for the session.
func (s *Studio) Export(ctx context.Context, id string, format domain.Format) ([]byte, error) {
	sess, err := s.manager.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := s.controller.Export(ctx, sess, format)
	if err != nil {
		return nil, err
	}

	if s.hooks.OnExport != nil {
		s.hooks.OnExport(ctx, &domain.ExportEvent{
			Timestamp: time.Now(),
			SessionID: id,
			Format:    format,
			Bytes:     len(data),
		})
	}
	return data, nil
}

// RenderText renders free-standing diagram text outside any session. Used by
// the CLI and MCP hosts for one-shot previews.
func (s *Studio) RenderText(ctx context.Context, text string) *domain.RenderResult {
	svg, err := s.renderer.Render(ctx, text)
	if err != nil {
		return &domain.RenderResult{OK: false, Hint: core.Hint(err)}
	}
	return &domain.RenderResult{OK: true, SVG: svg}
}

// ExportText converts free-standing diagram text into an artifact without
// requiring a session or a prior render.
func (s *Studio) ExportText(ctx context.Context, text string, format domain.Format) ([]byte, error) {
	if format == domain.FormatSource {
		return []byte(text), nil
	}
	return s.exporter.Export(ctx, text, format)
}

// apply runs one state transition under the session lock: load, transition,
// persist, notify.
func (s *Studio) apply(ctx context.Context, id string, action domain.ActionType, fn func(context.Context, *domain.Session) (*domain.Session, error)) (*domain.Session, error) {
	var next *domain.Session
	err := s.manager.WithLock(ctx, id, func(ctx context.Context) error {
		sess, err := s.store.Load(ctx, id)
		if err != nil {
			return err
		}
		next, err = fn(ctx, sess)
		if err != nil {
			return err
		}
		if next != sess {
			return s.store.Save(ctx, id, next)
		}
		return nil
	})
	if err != nil {
		return next, err
	}

	if s.hooks.OnAction != nil {
		s.hooks.OnAction(ctx, &domain.ActionEvent{
			Timestamp: time.Now(),
			SessionID: id,
			Action:    action,
		})
	}
	return next, nil
}
