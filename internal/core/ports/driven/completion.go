package driven

import (
	"context"
)

// Message roles for completion requests
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one entry of a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamDelta is one fragment of a streamed completion. Err, when set,
// terminates the stream; Text is empty in that case.
type StreamDelta struct {
	Text string
	Err  error
}

// CompletionService provides streaming text completion
type CompletionService interface {
	// StreamComplete starts a completion and returns a channel of deltas.
	// The channel is closed when the stream ends. model may be empty to use
	// the service's default.
	StreamComplete(ctx context.Context, model string, messages []Message) (<-chan StreamDelta, error)

	// Model returns the default model name being used
	Model() string

	// Ping verifies the completion service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the completion service
	Close() error
}

// Accumulate drains a delta stream into the full completion text.
func Accumulate(stream <-chan StreamDelta) (string, error) {
	var out []byte
	for delta := range stream {
		if delta.Err != nil {
			return "", delta.Err
		}
		out = append(out, delta.Text...)
	}
	return string(out), nil
}
