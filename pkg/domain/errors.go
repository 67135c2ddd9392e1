package domain

import "errors"

// ErrTemplateNotFound is returned when a template name is unknown.
var ErrTemplateNotFound = errors.New("template not found")

// ErrUnsupportedFormat is returned for export formats other than png, svg or source.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ErrNotRendered is returned when an image export is requested before any
// successful render.
var ErrNotRendered = errors.New("diagram has not been rendered yet")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")
