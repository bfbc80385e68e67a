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

// Ensure OllamaCompletion implements CompletionService
var _ driven.CompletionService = (*OllamaCompletion)(nil)

// OllamaCompletion implements CompletionService against a local Ollama
// server. Ollama streams newline-delimited JSON rather than SSE.
type OllamaCompletion struct {
	model   string
	baseURL string
	client  *http.Client
}

// NewOllamaCompletion creates a completion service backed by Ollama
func NewOllamaCompletion(baseURL, model string) (driven.CompletionService, error) {
	if model == "" {
		return nil, fmt.Errorf("Ollama model is required")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaCompletion{
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 0},
	}, nil
}

// ollamaChatRequest is the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string           `json:"model"`
	Messages []driven.Message `json:"messages"`
	Stream   bool             `json:"stream"`
}

// ollamaChatChunk is one line of a streamed Ollama chat response
type ollamaChatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// StreamComplete starts a streamed completion and returns a channel of deltas
func (c *OllamaCompletion) StreamComplete(ctx context.Context, model string, messages []driven.Message) (<-chan driven.StreamDelta, error) {
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	deltas := make(chan driven.StreamDelta)
	go c.readStream(resp.Body, deltas)
	return deltas, nil
}

func (c *OllamaCompletion) readStream(body io.ReadCloser, deltas chan<- driven.StreamDelta) {
	defer close(deltas)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			deltas <- driven.StreamDelta{Err: fmt.Errorf("failed to parse stream chunk: %w", err)}
			return
		}
		if chunk.Error != "" {
			deltas <- driven.StreamDelta{Err: fmt.Errorf("Ollama error: %s", chunk.Error)}
			return
		}
		if chunk.Message.Content != "" {
			deltas <- driven.StreamDelta{Text: chunk.Message.Content}
		}
		if chunk.Done {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		deltas <- driven.StreamDelta{Err: fmt.Errorf("stream read failed: %w", err)}
	}
}

// Model returns the default model name being used
func (c *OllamaCompletion) Model() string {
	return c.model
}

// Ping verifies the Ollama server is reachable
func (c *OllamaCompletion) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources held by the completion service
func (c *OllamaCompletion) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
