package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/flowlab-edu/flowlab/internal/logging"
	"github.com/flowlab-edu/flowlab/pkg/domain"
	"github.com/flowlab-edu/flowlab/pkg/ports"
)

// Controller implements the diagram session state machine. It is stateless:
// every operation takes a session snapshot and returns a new one, leaving the
// input untouched. Hosts (HTTP, CLI, MCP) own persistence and concurrency.
type Controller struct {
	renderer     ports.DiagramRenderer
	exporter     ports.Exporter
	templates    ports.TemplateSource
	historyLimit int
	logger       *slog.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithHistoryLimit overrides the undo stack bound (default 50).
func WithHistoryLimit(limit int) Option {
	return func(c *Controller) {
		c.historyLimit = limit
	}
}

// WithLogger sets a structured logger for the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates the session state machine.
func NewController(renderer ports.DiagramRenderer, exporter ports.Exporter, templates ports.TemplateSource, opts ...Option) *Controller {
	c := &Controller{
		renderer:     renderer,
		exporter:     exporter,
		templates:    templates,
		historyLimit: DefaultHistoryLimit,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectTemplate replaces the session text with the named template, pushing
// the prior text onto the undo stack. Unknown names leave the session
// unchanged and return domain.ErrTemplateNotFound.
func (c *Controller) SelectTemplate(ctx context.Context, s *domain.Session, name string) (*domain.Session, error) {
	tpl, err := c.templates.Get(name)
	if err != nil {
		return s, err
	}
	next := c.replaceText(s, tpl.Text)
	next.Source.FilePath = s.Source.FilePath
	c.logger.Debug("template selected", "session_id", s.ID, "template", name)
	return next, nil
}

// Edit replaces the session text with newText. No syntax validation happens
// here; validation is the rendering collaborator's concern.
func (c *Controller) Edit(ctx context.Context, s *domain.Session, newText string) (*domain.Session, error) {
	next := c.replaceText(s, newText)
	next.Source.FilePath = s.Source.FilePath
	return next, nil
}

// Undo restores the most recent undo snapshot. A session with empty history
// is returned unchanged.
func (c *Controller) Undo(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	next := s.Clone()
	past, future, restored, ok := undo(next.Past, next.Future, next.Source.Text)
	if !ok {
		return s, nil
	}
	next.Past, next.Future = past, future
	next.Source.Text = restored
	next.UpdatedAt = time.Now()
	return next, nil
}

// Redo is the inverse of Undo. A session with an empty redo stack is
// returned unchanged.
func (c *Controller) Redo(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	next := s.Clone()
	past, future, restored, ok := redo(next.Past, next.Future, next.Source.Text)
	if !ok {
		return s, nil
	}
	next.Past, next.Future = past, future
	next.Source.Text = restored
	next.UpdatedAt = time.Now()
	return next, nil
}

// Render hands the current text to the rendering collaborator. Failures are
// translated into plain-language hints; the collaborator's raw diagnostic
// only goes to the log. A failed render leaves the previous successful
// render state intact so the host can keep showing it.
func (c *Controller) Render(ctx context.Context, s *domain.Session) (*domain.Session, *domain.RenderResult, error) {
	svg, err := c.renderer.Render(ctx, s.Source.Text)
	if err != nil {
		hint := Hint(err)
		c.logger.Warn("render failed", "session_id", s.ID, "err", err)
		return s, &domain.RenderResult{OK: false, Hint: hint}, nil
	}

	next := s.Clone()
	next.Rendered = true
	next.LastGoodText = next.Source.Text
	next.UpdatedAt = time.Now()
	return next, &domain.RenderResult{OK: true, SVG: svg}, nil
}

// Export produces a downloadable artifact. FormatSource returns the raw text
// and is always available. Image formats require a prior successful render
// and export the last successfully rendered text.
func (c *Controller) Export(ctx context.Context, s *domain.Session, format domain.Format) ([]byte, error) {
	switch format {
	case domain.FormatSource:
		return []byte(s.Source.Text), nil
	case domain.FormatPNG, domain.FormatSVG:
		if !s.Rendered {
			return nil, domain.ErrNotRendered
		}
		return c.exporter.Export(ctx, s.LastGoodText, format)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}

// SaveFile writes the current text verbatim to path (.mmd, no header or
// metadata) and records the path on the session.
func (c *Controller) SaveFile(ctx context.Context, s *domain.Session, path string) (*domain.Session, error) {
	if err := os.WriteFile(path, []byte(s.Source.Text), 0644); err != nil {
		return s, fmt.Errorf("failed to save diagram: %w", err)
	}
	next := s.Clone()
	next.Source.FilePath = path
	next.UpdatedAt = time.Now()
	c.logger.Info("diagram saved", "session_id", s.ID, "path", path)
	return next, nil
}

// LoadFile reads path verbatim as the new session text, pushing the prior
// text onto the undo stack. An unreadable path leaves the session unchanged.
func (c *Controller) LoadFile(ctx context.Context, s *domain.Session, path string) (*domain.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to load diagram: %w", err)
	}
	next := c.replaceText(s, string(data))
	next.Source.FilePath = path
	c.logger.Info("diagram loaded", "session_id", s.ID, "path", path)
	return next, nil
}

// Templates exposes the template library to hosts.
func (c *Controller) Templates() []domain.Template {
	return c.templates.List()
}

// replaceText is the shared edit transition: prior text onto the undo stack,
// redo branch discarded, text replaced.
func (c *Controller) replaceText(s *domain.Session, text string) *domain.Session {
	next := s.Clone()
	next.Past, next.Future = push(next.Past, next.Future, next.Source.Text, c.historyLimit)
	next.Source = domain.Source{Text: text}
	next.UpdatedAt = time.Now()
	return next
}
