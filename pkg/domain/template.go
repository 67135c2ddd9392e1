package domain

// Template is a predefined starter diagram. Templates are immutable and
// loaded once at process start.
type Template struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Text        string `json:"text" yaml:"-"`
}
