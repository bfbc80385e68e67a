package services

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// Required section markers for paper analysis, checked case-insensitively
var paperSections = []string{
	"PURPOSE",
	"CONTRIBUTION",
	"KEY FINDINGS",
	"IMPLICATIONS",
	"LIMITATIONS",
}

const paperIncompleteWarning = "\n\n> Note: this analysis may be incomplete. Missing sections: "

// postProcess applies kind-specific normalization to raw model output.
// Idempotent: running it twice never duplicates markers or warnings.
func postProcess(kind domain.TransformKind, output string) string {
	output = stripFenceWrapper(output)

	switch kind {
	case domain.KindKeyInsights:
		return ensureMarker(output, "INSIGHTS")
	case domain.KindReflections:
		return ensureMarker(output, "REFLECTIONS")
	case domain.KindPaperAnalysis:
		return checkPaperSections(output)
	default:
		return output
	}
}

// stripFenceWrapper removes a code fence that wraps the entire output.
// Models occasionally return their answer inside one fenced block; the fence
// markers go, the inner content stays. Anything that is not a single
// whole-document fence is left untouched.
func stripFenceWrapper(output string) string {
	trimmed := strings.TrimSpace(output)
	if !strings.HasPrefix(trimmed, "```") && !strings.HasPrefix(trimmed, "~~~") {
		return output
	}

	source := []byte(trimmed)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))
	if doc.ChildCount() != 1 {
		return output
	}
	fence, ok := doc.FirstChild().(*ast.FencedCodeBlock)
	if !ok {
		return output
	}

	var b strings.Builder
	lines := fence.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(source))
	}
	return strings.TrimRight(b.String(), "\n")
}

// ensureMarker prepends a heading containing the marker when the output
// lacks it
func ensureMarker(output, marker string) string {
	if strings.Contains(output, marker) {
		return output
	}
	return "## " + marker + "\n\n" + output
}

// checkPaperSections appends an explicit incompleteness warning when any of
// the five required sections is missing. Missing structure is reported, not
// treated as a failure.
func checkPaperSections(output string) string {
	if strings.Contains(output, paperIncompleteWarning) {
		return output
	}

	upper := strings.ToUpper(output)
	var missing []string
	for _, section := range paperSections {
		if !strings.Contains(upper, section) {
			missing = append(missing, section)
		}
	}
	if len(missing) == 0 {
		return output
	}
	return output + paperIncompleteWarning + strings.Join(missing, ", ")
}
