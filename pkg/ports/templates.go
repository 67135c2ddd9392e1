package ports

import "github.com/flowlab-edu/flowlab/pkg/domain"

// TemplateSource provides the fixed template library to the studio.
type TemplateSource interface {
	// Get returns the template with the given name, or
	// domain.ErrTemplateNotFound.
	Get(name string) (domain.Template, error)

	// List returns all templates in stable order.
	List() []domain.Template
}
