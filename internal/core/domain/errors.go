package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested source or insight was not found
	ErrNotFound = errors.New("not found")

	// ErrEmptyContent indicates the content is empty or whitespace-only
	ErrEmptyContent = errors.New("empty content")

	// ErrContentTooShort indicates the content is below the minimum length
	ErrContentTooShort = errors.New("content too short")

	// ErrUnsupportedKind indicates an unknown transformation kind
	ErrUnsupportedKind = errors.New("unsupported transformation kind")

	// ErrUnsupportedSource indicates an unknown source reference kind
	ErrUnsupportedSource = errors.New("unsupported content type")

	// ErrModelCallFailed indicates the completion service call failed
	ErrModelCallFailed = errors.New("model call failed")

	// ErrAborted indicates the operation was cancelled before or at a task boundary
	ErrAborted = errors.New("aborted")

	// ErrStorageUnavailable indicates the insight store could not be reached.
	// Soft error: callers treat it as a cache miss, never as a hard failure.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNoContent indicates an aggregation target had nothing to summarize
	ErrNoContent = errors.New("no content")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
