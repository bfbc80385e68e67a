package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// Ensure OpenAICompletion implements CompletionService
var _ driven.CompletionService = (*OpenAICompletion)(nil)

// OpenAICompletion implements CompletionService using OpenAI's chat
// completions API with server-sent event streaming.
type OpenAICompletion struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAICompletion creates a new OpenAI completion service
func NewOpenAICompletion(apiKey, model, baseURL string) (driven.CompletionService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAICompletion{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			// No overall timeout: long generations stream for minutes.
			// Cancellation comes from the request context.
			Timeout: 0,
		},
	}, nil
}

// chatRequest is the request body for the chat completions API
type chatRequest struct {
	Model    string           `json:"model"`
	Messages []driven.Message `json:"messages"`
	Stream   bool             `json:"stream"`
}

// chatStreamChunk is one server-sent event payload of a streamed completion
type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// StreamComplete starts a streamed completion and returns a channel of deltas
func (c *OpenAICompletion) StreamComplete(ctx context.Context, model string, messages []driven.Message) (<-chan driven.StreamDelta, error) {
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("OpenAI API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	deltas := make(chan driven.StreamDelta)
	go c.readStream(resp.Body, deltas)
	return deltas, nil
}

// readStream parses SSE lines off the response body and forwards text deltas
func (c *OpenAICompletion) readStream(body io.ReadCloser, deltas chan<- driven.StreamDelta) {
	defer close(deltas)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		data, found := strings.CutPrefix(line, "data: ")
		if !found {
			continue
		}
		if data == "[DONE]" {
			return
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			deltas <- driven.StreamDelta{Err: fmt.Errorf("failed to parse stream chunk: %w", err)}
			return
		}
		if chunk.Error != nil {
			deltas <- driven.StreamDelta{Err: fmt.Errorf("OpenAI API error: %s (type: %s)", chunk.Error.Message, chunk.Error.Type)}
			return
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				deltas <- driven.StreamDelta{Text: choice.Delta.Content}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		deltas <- driven.StreamDelta{Err: fmt.Errorf("stream read failed: %w", err)}
	}
}

// Model returns the default model name being used
func (c *OpenAICompletion) Model() string {
	return c.model
}

// Ping verifies the completion service is available
func (c *OpenAICompletion) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAI API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources held by the completion service
func (c *OpenAICompletion) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
