package graph

import (
	"testing"
)

func TestInspect_Kinds(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Kind
	}{
		{"flowchart graph", "graph TD\n  A --> B", KindFlowchart},
		{"flowchart keyword", "flowchart LR\n  A --> B", KindFlowchart},
		{"sequence", "sequenceDiagram\n  Alice->>Bob: Hi", KindSequence},
		{"class", "classDiagram\n  class Animal", KindClass},
		{"state v2", "stateDiagram-v2\n  [*] --> Idle", KindState},
		{"gantt", "gantt\n  title Plan", KindGantt},
		{"pie", "pie title Pets\n  \"Dogs\": 10", KindPie},
		{"er", "erDiagram\n  CUSTOMER ||--o{ ORDER : places", KindER},
		{"journey", "journey\n  title My day", KindJourney},
		{"prose", "hello world", KindUnknown},
		{"keyword prefix only", "graphics TD", KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Inspect(tc.text)
			if got.Kind != tc.want {
				t.Errorf("Inspect(%q).Kind = %q, want %q", tc.text, got.Kind, tc.want)
			}
		})
	}
}

func TestInspect_SkipsDirectivesAndFrontMatter(t *testing.T) {
	text := "---\ntitle: Demo\n---\n%%{init: {'theme': 'neutral'}}%%\ngraph TD\n  A --> B"
	got := Inspect(text)
	if got.Kind != KindFlowchart {
		t.Errorf("Expected flowchart behind front matter, got %q", got.Kind)
	}
}

func TestInspect_Empty(t *testing.T) {
	got := Inspect("   \n\t\n")
	if !got.Empty {
		t.Error("Expected whitespace-only source to be empty")
	}
	if got.Lines != 0 {
		t.Errorf("Expected 0 meaningful lines, got %d", got.Lines)
	}
}

func TestInspect_CountsLines(t *testing.T) {
	got := Inspect("graph TD\n  A --> B\n\n  B --> C")
	if got.Lines != 3 {
		t.Errorf("Expected 3 meaningful lines, got %d", got.Lines)
	}
}
