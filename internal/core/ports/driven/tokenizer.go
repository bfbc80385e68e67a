package driven

// Tokenizer computes token counts for content budgeting.
// Implementations are opaque cost functions; they must handle multi-byte
// scripts and be deterministic for a given input.
type Tokenizer interface {
	// CountTokens returns the token count for the text
	CountTokens(text string) int
}
