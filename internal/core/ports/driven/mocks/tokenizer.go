package mocks

import "unicode/utf8"

// MockTokenizer counts one token per RunesPerToken runes, rounded up.
// Deterministic, so truncation behavior is exactly reproducible in tests.
type MockTokenizer struct {
	RunesPerToken int
}

// NewMockTokenizer creates a tokenizer at four runes per token
func NewMockTokenizer() *MockTokenizer {
	return &MockTokenizer{RunesPerToken: 4}
}

func (m *MockTokenizer) CountTokens(text string) int {
	per := m.RunesPerToken
	if per <= 0 {
		per = 4
	}
	n := utf8.RuneCountInString(text)
	return (n + per - 1) / per
}
