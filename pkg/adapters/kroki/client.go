// Package kroki implements the rendering collaborator ports against the
// Kroki HTTP service, with mermaid.ink as an optional fallback.
//
// The studio never parses Mermaid itself: source text goes over the wire and
// an image (or a categorized failure) comes back.
package kroki

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flowlab-edu/flowlab/internal/logging"
	"github.com/flowlab-edu/flowlab/pkg/domain"
)

const (
	// DefaultEndpoint is the public Kroki instance.
	DefaultEndpoint = "https://kroki.io"

	// DefaultFallback is the public mermaid.ink instance, used when Kroki is
	// unreachable. Set WithFallback("") to disable.
	DefaultFallback = "https://mermaid.ink"

	defaultTimeout = 30 * time.Second

	// maxBody caps how much of an error response is kept for diagnostics.
	maxBody = 4 << 10
)

// Client renders Mermaid source via Kroki. It implements both
// ports.DiagramRenderer and ports.Exporter.
type Client struct {
	http     *http.Client
	endpoint string
	fallback string
	scale    int
	logger   *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithEndpoint points the client at a different Kroki instance, e.g. a local
// container for offline classrooms.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithFallback sets the mermaid.ink-compatible fallback base URL. Empty
// disables the fallback.
func WithFallback(endpoint string) Option {
	return func(c *Client) {
		c.fallback = strings.TrimRight(endpoint, "/")
	}
}

// WithHTTPClient injects a custom HTTP client (timeouts, proxies, tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithScale sets the PNG raster scale (clamped to 1..4, default 2).
func WithScale(scale int) Option {
	return func(c *Client) {
		c.scale = scale
	}
}

// WithLogger sets a structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a rendering client with the public endpoints by default.
func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		endpoint: DefaultEndpoint,
		fallback: DefaultFallback,
		scale:    2,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scale < 1 {
		c.scale = 1
	}
	if c.scale > 4 {
		c.scale = 4
	}
	return c
}

// Render returns the SVG rendering of text, or a *domain.RenderError.
func (c *Client) Render(ctx context.Context, text string) ([]byte, error) {
	return c.render(ctx, text, domain.FormatSVG)
}

// Export returns PNG or SVG bytes for text, or a *domain.RenderError.
func (c *Client) Export(ctx context.Context, text string, format domain.Format) ([]byte, error) {
	if format != domain.FormatPNG && format != domain.FormatSVG {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	return c.render(ctx, text, format)
}

func (c *Client) render(ctx context.Context, text string, format domain.Format) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.RenderError{Category: domain.RenderEmpty, Detail: "empty diagram source"}
	}

	data, err := c.viaKroki(ctx, text, format)
	if err == nil {
		return data, nil
	}

	// Diagram problems are final; only infrastructure failures fall through
	// to the secondary renderer.
	var rerr *domain.RenderError
	if errors.As(err, &rerr) && rerr.Category != domain.RenderUnavailable && rerr.Category != domain.RenderTimeout {
		return nil, err
	}
	if c.fallback == "" {
		return nil, err
	}

	c.logger.Warn("primary renderer unavailable, trying fallback", "err", err)
	data, ferr := c.viaMermaidInk(ctx, text, format)
	if ferr != nil {
		// Report the primary failure; the fallback is best-effort.
		return nil, err
	}
	return data, nil
}

// viaKroki POSTs the raw source to /mermaid/{svg|png}.
func (c *Client) viaKroki(ctx context.Context, text string, format domain.Format) ([]byte, error) {
	url := fmt.Sprintf("%s/mermaid/%s", c.endpoint, format)
	if format == domain.FormatPNG {
		url += fmt.Sprintf("?scale=%d", c.scale)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	return c.do(req)
}

// viaMermaidInk GETs /svg/{b64} or /img/{b64} with URL-safe unpadded base64,
// the encoding mermaid.ink expects.
func (c *Client) viaMermaidInk(ctx context.Context, text string, format domain.Format) ([]byte, error) {
	b64 := base64.RawURLEncoding.EncodeToString([]byte(text))
	var url string
	if format == domain.FormatPNG {
		url = fmt.Sprintf("%s/img/%s?background=white&theme=neutral&scale=%d", c.fallback, b64, c.scale)
	} else {
		url = fmt.Sprintf("%s/svg/%s?background=white&theme=neutral", c.fallback, b64)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fallback request: %w", err)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, &domain.RenderError{Category: domain.RenderTimeout, Detail: err.Error()}
		}
		return nil, &domain.RenderError{Category: domain.RenderUnavailable, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, &domain.RenderError{Category: domain.RenderUnavailable, Detail: err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, classify(resp.StatusCode, string(body[:min(len(body), maxBody)]))
	default:
		return nil, &domain.RenderError{
			Category: domain.RenderUnavailable,
			Detail:   fmt.Sprintf("status %d: %s", resp.StatusCode, body[:min(len(body), maxBody)]),
		}
	}
}

// classify maps a collaborator 4xx response to a failure category. Kroki
// forwards mermaid-cli diagnostics verbatim, so the body text is the signal.
func classify(status int, body string) *domain.RenderError {
	detail := fmt.Sprintf("status %d: %s", status, body)
	lower := strings.ToLower(body)

	switch {
	case strings.Contains(lower, "no diagram type detected"),
		strings.Contains(lower, "unknown diagram"),
		strings.Contains(lower, "unsupported"):
		return &domain.RenderError{Category: domain.RenderUnsupported, Detail: detail}
	case strings.Contains(lower, "parse error"),
		strings.Contains(lower, "syntax error"),
		strings.Contains(lower, "lexical error"):
		return &domain.RenderError{Category: domain.RenderSyntax, Detail: detail}
	case status == http.StatusBadRequest:
		// Kroki answers 400 for diagrams it could not draw even when the
		// diagnostic text matches none of the known phrases.
		return &domain.RenderError{Category: domain.RenderSyntax, Detail: detail}
	default:
		// 404, 405 and friends point at a misconfigured endpoint, not at the
		// student's diagram.
		return &domain.RenderError{Category: domain.RenderUnavailable, Detail: detail}
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
