// Package tokenizer provides a model-agnostic token count estimator.
package tokenizer

import (
	"unicode"

	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// Estimator approximates token counts without a model-specific vocabulary.
// CJK characters tokenize roughly one per rune; other text averages about
// four characters per token. Close enough for budget enforcement, which
// already carries a safety margin.
type Estimator struct{}

var _ driven.Tokenizer = (*Estimator)(nil)

// NewEstimator creates a heuristic token estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// CountTokens estimates the number of tokens in text.
func (e *Estimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	cjk := 0
	other := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}

	tokens := cjk + (other+3)/4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
