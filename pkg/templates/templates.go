// Package templates holds the fixed library of starter diagrams.
//
// The built-in set is embedded at build time and loaded once at process
// start; templates are immutable afterwards.
package templates

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/flowlab-edu/flowlab/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed builtin/index.yaml builtin/*.mmd
var builtinFS embed.FS

// index mirrors builtin/index.yaml.
type index struct {
	Templates []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		File        string `yaml:"file"`
	} `yaml:"templates"`
}

// Library is an immutable, ordered collection of templates.
type Library struct {
	byName  map[string]domain.Template
	ordered []domain.Template
}

// Builtin loads the embedded starter set. The embed is validated at package
// init via MustBuiltin in callers; a broken embed is a build defect, not a
// runtime condition.
func Builtin() (*Library, error) {
	raw, err := builtinFS.ReadFile("builtin/index.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read template index: %w", err)
	}

	var idx index
	if err := yaml.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse template index: %w", err)
	}

	lib := &Library{byName: make(map[string]domain.Template, len(idx.Templates))}
	for _, entry := range idx.Templates {
		data, err := builtinFS.ReadFile(path.Join("builtin", entry.File))
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", entry.Name, err)
		}
		tpl := domain.Template{
			Name:        entry.Name,
			Description: entry.Description,
			Text:        strings.TrimRight(string(data), "\n"),
		}
		if _, dup := lib.byName[tpl.Name]; dup {
			return nil, fmt.Errorf("duplicate template name %q", tpl.Name)
		}
		lib.byName[tpl.Name] = tpl
		lib.ordered = append(lib.ordered, tpl)
	}
	return lib, nil
}

// MustBuiltin is Builtin for wiring paths where a broken embed should abort.
func MustBuiltin() *Library {
	lib, err := Builtin()
	if err != nil {
		panic(err)
	}
	return lib
}

// New builds a library from explicit templates, preserving order. Useful for
// tests and for hosts that ship their own starter set.
func New(tpls ...domain.Template) (*Library, error) {
	lib := &Library{byName: make(map[string]domain.Template, len(tpls))}
	for _, tpl := range tpls {
		if tpl.Name == "" {
			return nil, fmt.Errorf("template with empty name")
		}
		if _, dup := lib.byName[tpl.Name]; dup {
			return nil, fmt.Errorf("duplicate template name %q", tpl.Name)
		}
		lib.byName[tpl.Name] = tpl
		lib.ordered = append(lib.ordered, tpl)
	}
	return lib, nil
}

// Get returns the template with the given name.
func (l *Library) Get(name string) (domain.Template, error) {
	tpl, ok := l.byName[name]
	if !ok {
		return domain.Template{}, fmt.Errorf("%w: %q", domain.ErrTemplateNotFound, name)
	}
	return tpl, nil
}

// List returns all templates in index order.
func (l *Library) List() []domain.Template {
	out := make([]domain.Template, len(l.ordered))
	copy(out, l.ordered)
	return out
}
