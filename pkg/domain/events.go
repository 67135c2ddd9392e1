package domain

import (
	"context"
	"time"
)

// ActionType identifies a session controller operation for observability.
type ActionType string

const (
	ActionSelectTemplate ActionType = "select_template"
	ActionEdit           ActionType = "edit"
	ActionUndo           ActionType = "undo"
	ActionRedo           ActionType = "redo"
	ActionSaveFile       ActionType = "save_file"
	ActionLoadFile       ActionType = "load_file"
)

// ActionEvent describes a completed state transition.
type ActionEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	SessionID string     `json:"session_id"`
	Action    ActionType `json:"action"`
}

// RenderEvent describes a render attempt and its outcome.
type RenderEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id"`
	OK        bool          `json:"ok"`
	Duration  time.Duration `json:"duration"`
}

// ExportEvent describes an export request.
type ExportEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Format    Format    `json:"format"`
	Bytes     int       `json:"bytes"`
}

// LifecycleHooks defines callbacks for studio observability. Hosts wire these
// to logging or metrics; nil hooks are skipped.
type LifecycleHooks struct {
	OnAction func(context.Context, *ActionEvent)
	OnRender func(context.Context, *RenderEvent)
	OnExport func(context.Context, *ExportEvent)
}
