// Package graph inspects Mermaid diagram source without rendering it.
package graph

import (
	"strings"
)

// Kind names the Mermaid diagram family declared by the source text.
type Kind string

const (
	KindFlowchart Kind = "flowchart"
	KindSequence  Kind = "sequence"
	KindClass     Kind = "class"
	KindState     Kind = "state"
	KindGantt     Kind = "gantt"
	KindPie       Kind = "pie"
	KindER        Kind = "er"
	KindJourney   Kind = "journey"
	KindUnknown   Kind = "unknown"
)

// headers maps Mermaid declaration keywords to diagram kinds. Matching is by
// prefix of the first meaningful line, the same rule mermaid.js applies.
var headers = []struct {
	prefix string
	kind   Kind
}{
	{"graph", KindFlowchart},
	{"flowchart", KindFlowchart},
	{"sequenceDiagram", KindSequence},
	{"classDiagram", KindClass},
	{"stateDiagram", KindState},
	{"gantt", KindGantt},
	{"pie", KindPie},
	{"erDiagram", KindER},
	{"journey", KindJourney},
}

// Summary describes a piece of Mermaid source.
type Summary struct {
	Kind  Kind `json:"kind"`
	Lines int  `json:"lines"`
	Empty bool `json:"empty"`
}

// Inspect classifies Mermaid source text. It never fails: unclassifiable text
// comes back as KindUnknown, for the renderer to judge.
func Inspect(text string) Summary {
	s := Summary{Kind: KindUnknown}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		s.Lines++
		if trimmed == "---" || strings.HasPrefix(trimmed, "%%") {
			// Front matter and directives precede the declaration.
			continue
		}
		if s.Kind == KindUnknown {
			s.Kind = classify(trimmed)
		}
	}

	s.Empty = s.Lines == 0
	return s
}

func classify(line string) Kind {
	for _, h := range headers {
		if !strings.HasPrefix(line, h.prefix) {
			continue
		}
		rest := line[len(h.prefix):]
		// The keyword must stand alone or be followed by a direction or
		// version suffix ("graph TD", "stateDiagram-v2").
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '-' {
			return h.kind
		}
	}
	return KindUnknown
}
