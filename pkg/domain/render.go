package domain

import "fmt"

// Format identifies an export artifact type.
type Format string

const (
	FormatPNG    Format = "png"
	FormatSVG    Format = "svg"
	FormatSource Format = "source"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPNG, FormatSVG, FormatSource:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatSource {
		return "mmd"
	}
	return string(f)
}

// RenderResult is the outcome of handing the current source to the rendering
// collaborator. Exactly one of SVG or Hint is meaningful: on success SVG holds
// the rendered image, on failure Hint holds a plain-language message suitable
// for students. The collaborator's raw diagnostic never travels in Hint.
type RenderResult struct {
	OK   bool   `json:"ok"`
	SVG  []byte `json:"svg,omitempty"`
	Hint string `json:"hint,omitempty"`
}

// RenderCategory classifies collaborator failures so they can be translated
// into student-friendly hints.
type RenderCategory string

const (
	RenderSyntax      RenderCategory = "syntax"      // diagram source rejected
	RenderEmpty       RenderCategory = "empty"       // nothing to render
	RenderUnsupported RenderCategory = "unsupported" // unknown diagram type
	RenderTimeout     RenderCategory = "timeout"     // collaborator too slow
	RenderUnavailable RenderCategory = "unavailable" // collaborator unreachable
)

// RenderError is a categorized failure reported by the rendering collaborator.
// Detail carries the raw diagnostic for logs; it must not be shown to users.
type RenderError struct {
	Category RenderCategory
	Detail   string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed (%s): %s", e.Category, e.Detail)
}
