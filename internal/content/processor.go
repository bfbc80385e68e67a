package content

import (
	"strings"
	"unicode/utf8"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

const (
	// MinContentLength is the minimum usable content size in characters.
	// Validation rejects shorter inputs; truncation never produces less
	// unless the input itself was shorter.
	MinContentLength = 100

	// truncationSafety shrinks the linear cutoff estimate to absorb
	// tokenizer drift
	truncationSafety = 0.9

	// fallbackSafety is the larger budget used when boundary truncation
	// produced a degenerate fragment
	fallbackSafety = 0.8

	// boundaryWindow is how far before the estimated cutoff a semantic
	// boundary may sit and still be preferred over a hard cut
	boundaryWindow = 0.2
)

// Processor performs token-budget-aware truncation and content checks.
// Deterministic given a deterministic tokenizer; no side effects.
type Processor struct {
	tokenizer driven.Tokenizer
}

// NewProcessor creates a content processor with the given tokenizer
func NewProcessor(tokenizer driven.Tokenizer) *Processor {
	return &Processor{tokenizer: tokenizer}
}

// Validate checks that text is usable as transformation input
func (p *Processor) Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyContent
	}
	if utf8.RuneCountInString(text) < MinContentLength {
		return domain.ErrContentTooShort
	}
	return nil
}

// Process fits text into maxTokens. Within budget, the text passes through
// unchanged. Over budget, truncation prefers sentence and paragraph
// boundaries near the estimated cutoff, falls back to a larger hard cut when
// the boundary result is degenerate, and finishes with one corrective cut if
// the re-measured count still exceeds the budget.
func (p *Processor) Process(text string, maxTokens int) domain.ProcessedContent {
	originalTokens := p.tokenizer.CountTokens(text)
	if originalTokens <= maxTokens {
		return domain.ProcessedContent{
			Text:            text,
			Truncated:       false,
			OriginalTokens:  originalTokens,
			ProcessedTokens: originalTokens,
		}
	}

	runes := []rune(text)
	ratio := float64(len(runes)) / float64(originalTokens)

	// Pass 1: linear cutoff estimate with safety margin
	estimate := clamp(int(float64(maxTokens)*ratio*truncationSafety), 1, len(runes)-1)

	// Pass 2: prefer a nearby sentence or paragraph boundary
	cut := estimate
	if boundary := nearestBoundary(runes, estimate); boundary > 0 {
		cut = boundary
	}

	// Pass 3: a degenerate fragment is worse than a rougher cut
	if cut < MinContentLength {
		cut = clamp(int(float64(maxTokens)*ratio*fallbackSafety), min(MinContentLength, len(runes)), len(runes))
	}

	processed := string(runes[:cut])
	processedTokens := p.tokenizer.CountTokens(processed)

	// Pass 4: corrective cut using the now-known true ratio
	if processedTokens > maxTokens {
		trueRatio := float64(cut) / float64(processedTokens)
		cut = clamp(int(float64(maxTokens)*trueRatio), min(MinContentLength, cut), cut)
		processed = string(runes[:cut])
		processedTokens = p.tokenizer.CountTokens(processed)
	}

	return domain.ProcessedContent{
		Text:            processed,
		Truncated:       true,
		OriginalTokens:  originalTokens,
		ProcessedTokens: processedTokens,
	}
}

// nearestBoundary searches backward from the estimate for the closest
// sentence terminator or blank-line boundary. Returns -1 when the nearest
// boundary sits more than boundaryWindow before the estimate: trading that
// much trailing content for a marginal boundary gain is not worth it.
func nearestBoundary(runes []rune, estimate int) int {
	floor := int(float64(estimate) * (1 - boundaryWindow))
	for i := estimate - 1; i >= floor && i > 0; i-- {
		if isSentenceTerminator(runes[i]) {
			return i + 1
		}
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return -1
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
