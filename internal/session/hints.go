package session

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/flowlab-edu/flowlab/pkg/domain"
)

var lineRe = regexp.MustCompile(`(?i)line (\d+)`)

// hints maps collaborator failure categories to plain-language messages.
// The studio is used by students learning flowcharts, so these read as
// guidance rather than compiler diagnostics.
var hints = map[domain.RenderCategory]string{
	domain.RenderEmpty:       "The diagram is empty. Start with a line like `flowchart TD` and add a step, for example `a[Start] --> b[Finish]`.",
	domain.RenderUnsupported: "The first line names a diagram type the preview does not know. Try `flowchart TD`, `gantt` or `classDiagram`.",
	domain.RenderTimeout:     "The preview is taking too long. Wait a moment and press Render again.",
	domain.RenderUnavailable: "The preview service could not be reached. Check your connection and try again; your diagram text is safe.",
}

// Hint translates a collaborator error into a student-friendly message.
// Syntax failures include the line number when the collaborator reported one.
func Hint(err error) string {
	var rerr *domain.RenderError
	if !errors.As(err, &rerr) {
		return "Something went wrong while drawing the diagram. Your text is unchanged; try rendering again."
	}
	if rerr.Category == domain.RenderSyntax {
		if line, ok := syntaxLine(rerr.Detail); ok {
			return fmt.Sprintf("There is a mistake on line %d. Check that every box looks like `a[Label]` and every arrow like `a --> b`.", line)
		}
		return "The diagram text has a mistake. Check that every box looks like `a[Label]` and every arrow like `a --> b`."
	}
	if h, ok := hints[rerr.Category]; ok {
		return h
	}
	return "Something went wrong while drawing the diagram. Your text is unchanged; try rendering again."
}

// syntaxLine extracts the first "line N" occurrence from a raw diagnostic.
// Mermaid reports errors as "Parse error on line 3:" and Kroki forwards that
// text verbatim.
func syntaxLine(detail string) (int, bool) {
	m := lineRe.FindStringSubmatch(detail)
	if m == nil {
		return 0, false
	}
	var line int
	if _, err := fmt.Sscanf(m[1], "%d", &line); err != nil {
		return 0, false
	}
	return line, true
}
