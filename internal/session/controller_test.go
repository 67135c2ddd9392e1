package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowlab-edu/flowlab/pkg/domain"
)

// stubRenderer implements ports.DiagramRenderer and ports.Exporter for tests.
type stubRenderer struct {
	svg []byte
	png []byte
	err error
}

func (r *stubRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.svg, nil
}

func (r *stubRenderer) Export(ctx context.Context, text string, format domain.Format) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	if format == domain.FormatPNG {
		return r.png, nil
	}
	return r.svg, nil
}

type stubTemplates map[string]string

func (t stubTemplates) Get(name string) (domain.Template, error) {
	text, ok := t[name]
	if !ok {
		return domain.Template{}, domain.ErrTemplateNotFound
	}
	return domain.Template{Name: name, Text: text}, nil
}

func (t stubTemplates) List() []domain.Template {
	out := make([]domain.Template, 0, len(t))
	for name, text := range t {
		out = append(out, domain.Template{Name: name, Text: text})
	}
	return out
}

func newTestController(r *stubRenderer) *Controller {
	return NewController(r, r, stubTemplates{
		"gantt":       "gantt\n    title Plan",
		"simple-flow": "flowchart TD\n    a --> b",
	})
}

func TestController_EditUndoRedo(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&stubRenderer{svg: []byte("<svg/>")})
	s := domain.NewSession("s1")

	// start empty -> edit "A" -> edit "B"
	s, err := c.Edit(ctx, s, "A")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	s, err = c.Edit(ctx, s, "B")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	s, _ = c.Undo(ctx, s)
	if s.Source.Text != "A" {
		t.Errorf("after first undo expected %q, got %q", "A", s.Source.Text)
	}
	s, _ = c.Undo(ctx, s)
	if s.Source.Text != "" {
		t.Errorf("after second undo expected empty text, got %q", s.Source.Text)
	}
	s, _ = c.Redo(ctx, s)
	if s.Source.Text != "A" {
		t.Errorf("after redo expected %q, got %q", "A", s.Source.Text)
	}
}

func TestController_HistoryRoundTrip(t *testing.T) {
	// N undos followed by N redos restore the text before the undos.
	ctx := context.Background()
	c := newTestController(&stubRenderer{})
	s := domain.NewSession("s1")

	edits := []string{"a", "ab", "abc", "abcd", "abcde"}
	for _, text := range edits {
		s, _ = c.Edit(ctx, s, text)
	}

	for n := 1; n <= len(edits); n++ {
		cur := s
		for i := 0; i < n; i++ {
			cur, _ = c.Undo(ctx, cur)
		}
		for i := 0; i < n; i++ {
			cur, _ = c.Redo(ctx, cur)
		}
		if cur.Source.Text != s.Source.Text {
			t.Errorf("round trip with n=%d: expected %q, got %q", n, s.Source.Text, cur.Source.Text)
		}
	}
}

func TestController_EditDiscardsRedoBranch(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&stubRenderer{})
	s := domain.NewSession("s1")

	s, _ = c.Edit(ctx, s, "A")
	s, _ = c.Edit(ctx, s, "B")
	s, _ = c.Undo(ctx, s)
	if !s.CanRedo() {
		t.Fatal("expected redo to be available after undo")
	}

	s, _ = c.Edit(ctx, s, "C")
	if s.CanRedo() {
		t.Error("edit after undo must clear the redo stack")
	}
	if len(s.Future) != 0 {
		t.Errorf("expected empty future, got %v", s.Future)
	}
}

func TestController_UndoRedoNoOp(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&stubRenderer{})
	s := domain.NewSession("s1")

	got, _ := c.Undo(ctx, s)
	if got != s {
		t.Error("undo on empty history should return the session unchanged")
	}
	got, _ = c.Redo(ctx, s)
	if got != s {
		t.Error("redo on empty future should return the session unchanged")
	}
}

func TestController_SelectTemplate(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&stubRenderer{})
	s := domain.NewSession("s1")
	s, _ = c.Edit(ctx, s, "draft")

	t.Run("Unknown Name", func(t *testing.T) {
		got, err := c.SelectTemplate(ctx, s, "does-not-exist")
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			t.Fatalf("expected ErrTemplateNotFound, got %v", err)
		}
		if got.Source.Text != "draft" {
			t.Errorf("session must be unchanged, got text %q", got.Source.Text)
		}
	})

	t.Run("Known Name", func(t *testing.T) {
		got, err := c.SelectTemplate(ctx, s, "gantt")
		if err != nil {
			t.Fatalf("SelectTemplate failed: %v", err)
		}
		if got.Source.Text != "gantt\n    title Plan" {
			t.Errorf("unexpected text: %q", got.Source.Text)
		}
		// prior text is one undo away
		back, _ := c.Undo(ctx, got)
		if back.Source.Text != "draft" {
			t.Errorf("undo after template should restore %q, got %q", "draft", back.Source.Text)
		}
	})
}

func TestController_HistoryBound(t *testing.T) {
	ctx := context.Background()
	r := &stubRenderer{}
	c := NewController(r, r, stubTemplates{}, WithHistoryLimit(3))
	s := domain.NewSession("s1")

	for _, text := range []string{"1", "2", "3", "4", "5"} {
		s, _ = c.Edit(ctx, s, text)
	}
	if len(s.Past) != 3 {
		t.Fatalf("expected past bounded at 3, got %d", len(s.Past))
	}
	// Oldest entries were discarded; the deepest undo lands on "2".
	for s.CanUndo() {
		s, _ = c.Undo(ctx, s)
	}
	if s.Source.Text != "2" {
		t.Errorf("deepest undo should reach %q, got %q", "2", s.Source.Text)
	}
}

func TestController_Render(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		c := newTestController(&stubRenderer{svg: []byte("<svg/>")})
		s := domain.NewSession("s1")
		s, _ = c.Edit(ctx, s, "flowchart TD\n    a --> b")

		next, res, err := c.Render(ctx, s)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if !res.OK || string(res.SVG) != "<svg/>" {
			t.Errorf("unexpected result: %+v", res)
		}
		if !next.Rendered || next.LastGoodText != s.Source.Text {
			t.Errorf("render state not recorded: %+v", next)
		}
	})

	t.Run("Failure Keeps Previous Render", func(t *testing.T) {
		r := &stubRenderer{svg: []byte("<svg/>")}
		c := newTestController(r)
		s := domain.NewSession("s1")
		s, _ = c.Edit(ctx, s, "flowchart TD\n    a --> b")
		s, _, _ = c.Render(ctx, s)

		s, _ = c.Edit(ctx, s, "flowchart TD\n    a -> broken")
		r.err = &domain.RenderError{Category: domain.RenderSyntax, Detail: "Parse error on line 2:"}

		next, res, err := c.Render(ctx, s)
		if err != nil {
			t.Fatalf("Render returned error: %v", err)
		}
		if res.OK {
			t.Fatal("expected failure result")
		}
		if res.Hint == "" {
			t.Error("failure must carry a hint")
		}
		if res.Hint == r.err.Error() {
			t.Error("hint must not be the raw collaborator diagnostic")
		}
		if !next.Rendered || next.LastGoodText != "flowchart TD\n    a --> b" {
			t.Errorf("failed render must keep previous successful render, got %+v", next)
		}
	})
}

func TestController_Export(t *testing.T) {
	ctx := context.Background()
	r := &stubRenderer{svg: []byte("<svg/>"), png: []byte{0x89, 'P', 'N', 'G'}}
	c := newTestController(r)
	s := domain.NewSession("s1")
	s, _ = c.Edit(ctx, s, "flowchart TD\n    a --> b")

	t.Run("PNG Before Render", func(t *testing.T) {
		_, err := c.Export(ctx, s, domain.FormatPNG)
		if !errors.Is(err, domain.ErrNotRendered) {
			t.Fatalf("expected ErrNotRendered, got %v", err)
		}
	})

	t.Run("Source Always Available", func(t *testing.T) {
		data, err := c.Export(ctx, s, domain.FormatSource)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if string(data) != s.Source.Text {
			t.Errorf("source export must be the raw text, got %q", data)
		}
	})

	t.Run("Unsupported Format", func(t *testing.T) {
		_, err := c.Export(ctx, s, domain.Format("pdf"))
		if !errors.Is(err, domain.ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	})

	t.Run("PNG After Render", func(t *testing.T) {
		rendered, _, _ := c.Render(ctx, s)
		data, err := c.Export(ctx, rendered, domain.FormatPNG)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if string(data) != string(r.png) {
			t.Errorf("unexpected png bytes: %v", data)
		}
	})
}

func TestController_SaveLoadFile(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&stubRenderer{})
	dir := t.TempDir()
	path := filepath.Join(dir, "d.mmd")

	// selectTemplate("gantt") then save, then load into a new session.
	s := domain.NewSession("s1")
	s, err := c.SelectTemplate(ctx, s, "gantt")
	if err != nil {
		t.Fatalf("SelectTemplate failed: %v", err)
	}
	s, err = c.SaveFile(ctx, s, path)
	if err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	if s.Source.FilePath != path {
		t.Errorf("save must record the file path, got %q", s.Source.FilePath)
	}

	// Persisted format is the raw bytes, no header.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(raw) != "gantt\n    title Plan" {
		t.Errorf("unexpected file content: %q", raw)
	}

	fresh := domain.NewSession("s2")
	loaded, err := c.LoadFile(ctx, fresh, path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Source.Text != "gantt\n    title Plan" {
		t.Errorf("loaded text differs from template: %q", loaded.Source.Text)
	}
	if loaded.Source.FilePath != path {
		t.Errorf("load must record the file path, got %q", loaded.Source.FilePath)
	}
}

func TestController_LoadFileMissing(t *testing.T) {
	ctx := context.Background()
	c := newTestController(&stubRenderer{})
	s := domain.NewSession("s1")
	s, _ = c.Edit(ctx, s, "keep me")

	got, err := c.LoadFile(ctx, s, filepath.Join(t.TempDir(), "missing.mmd"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped fs error, got %v", err)
	}
	if got.Source.Text != "keep me" {
		t.Errorf("failed load must not mutate state, got %q", got.Source.Text)
	}
}
