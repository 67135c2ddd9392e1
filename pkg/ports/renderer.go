package ports

import (
	"context"

	"github.com/flowlab-edu/flowlab/pkg/domain"
)

// DiagramRenderer hands diagram source to the external rendering collaborator.
// The studio never parses Mermaid itself; it only consumes this contract.
//
// On success Render returns the rendered SVG bytes. On failure it returns a
// *domain.RenderError carrying the failure category and the collaborator's
// raw diagnostic.
type DiagramRenderer interface {
	Render(ctx context.Context, text string) ([]byte, error)
}

// Exporter converts diagram source into a downloadable artifact. Only
// domain.FormatPNG and domain.FormatSVG reach an Exporter; source exports are
// served from the session text directly.
type Exporter interface {
	Export(ctx context.Context, text string, format domain.Format) ([]byte, error)
}
