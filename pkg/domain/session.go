package domain

import "time"

// Source holds the textual diagram source being edited.
// Text is always defined (possibly empty). FilePath is set only after an
// explicit save or load of a .mmd file.
type Source struct {
	Text     string `json:"text"`
	FilePath string `json:"file_path,omitempty"`
}

// Session represents the current snapshot of one editing session.
//
// Past and Future are the undo/redo stacks: Past holds prior texts oldest
// first, Future holds redone-over texts newest first. Every edit pushes the
// prior text onto Past and clears Future.
type Session struct {
	// ID identifies the session (client-visible, usually a UUID).
	ID string `json:"id"`

	// Source is the diagram currently being edited.
	Source Source `json:"source"`

	// Past holds undo snapshots, oldest first.
	Past []string `json:"past"`

	// Future holds redo snapshots, newest first.
	Future []string `json:"future"`

	// Rendered reports whether the session has ever rendered successfully.
	Rendered bool `json:"rendered"`

	// LastGoodText is the source text of the most recent successful render.
	// Exports of png/svg use this text, so a failed render never blanks or
	// corrupts what the student sees.
	LastGoodText string `json:"last_good_text,omitempty"`

	// UpdatedAt is bumped on every state transition.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a clean session starting from empty source.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Past:      []string{},
		Future:    []string{},
		UpdatedAt: time.Now(),
	}
}

// CanUndo reports whether an undo would change the session.
func (s *Session) CanUndo() bool { return len(s.Past) > 0 }

// CanRedo reports whether a redo would change the session.
func (s *Session) CanRedo() bool { return len(s.Future) > 0 }

// Clone returns a deep copy of the session. Transitions operate on copies so
// a failed operation can never leave a half-mutated state behind.
func (s *Session) Clone() *Session {
	c := *s
	c.Past = make([]string, len(s.Past))
	copy(c.Past, s.Past)
	c.Future = make([]string, len(s.Future))
	copy(c.Future, s.Future)
	return &c
}
