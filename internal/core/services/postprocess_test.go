package services

import (
	"strings"
	"testing"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

func TestStripFenceWrapper(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"whole output fenced",
			"```markdown\n# Summary\n\nSome text.\n```",
			"# Summary\n\nSome text.",
		},
		{
			"tilde fence",
			"~~~\nplain body\n~~~",
			"plain body",
		},
		{
			"unfenced untouched",
			"# Summary\n\nSome text.",
			"# Summary\n\nSome text.",
		},
		{
			"inner fence preserved",
			"Intro paragraph.\n\n```go\ncode()\n```",
			"Intro paragraph.\n\n```go\ncode()\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFenceWrapper(tt.in); got != tt.want {
				t.Errorf("stripFenceWrapper(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEnsureMarker(t *testing.T) {
	out := postProcess(domain.KindKeyInsights, "Some findings without a heading.")
	if !strings.HasPrefix(out, "## INSIGHTS\n\n") {
		t.Errorf("expected prepended marker, got %q", out)
	}

	// Idempotent: running again must not duplicate the marker
	again := postProcess(domain.KindKeyInsights, out)
	if strings.Count(again, "INSIGHTS") != 1 {
		t.Errorf("marker duplicated: %q", again)
	}

	already := postProcess(domain.KindKeyInsights, "## INSIGHTS\n\nFindings.")
	if strings.Count(already, "INSIGHTS") != 1 {
		t.Errorf("expected existing marker untouched, got %q", already)
	}
}

func TestEnsureMarker_Reflections(t *testing.T) {
	out := postProcess(domain.KindReflections, "Open questions about the approach.")
	if !strings.HasPrefix(out, "## REFLECTIONS\n\n") {
		t.Errorf("expected prepended marker, got %q", out)
	}
}

func TestCheckPaperSections(t *testing.T) {
	complete := "## Purpose\nx\n## Contribution\nx\n## Key Findings\nx\n## Implications\nx\n## Limitations\nx"
	if out := postProcess(domain.KindPaperAnalysis, complete); strings.Contains(out, "incomplete") {
		t.Errorf("complete analysis must not get a warning, got %q", out)
	}

	partial := "## Purpose\nx\n## Key Findings\nx"
	out := postProcess(domain.KindPaperAnalysis, partial)
	if !strings.Contains(out, "this analysis may be incomplete") {
		t.Fatalf("expected incompleteness warning, got %q", out)
	}
	if !strings.Contains(out, "CONTRIBUTION") || !strings.Contains(out, "IMPLICATIONS") || !strings.Contains(out, "LIMITATIONS") {
		t.Errorf("expected missing sections listed, got %q", out)
	}
	if strings.Contains(out, "Missing sections: PURPOSE") {
		t.Errorf("present section reported missing: %q", out)
	}

	// Idempotent: the warning is appended once
	again := postProcess(domain.KindPaperAnalysis, out)
	if strings.Count(again, "incomplete") != 1 {
		t.Errorf("warning duplicated: %q", again)
	}
}

func TestPostProcess_DefaultKindPassthrough(t *testing.T) {
	in := "An ordinary summary."
	if out := postProcess(domain.KindSimpleSummary, in); out != in {
		t.Errorf("expected passthrough, got %q", out)
	}
}
