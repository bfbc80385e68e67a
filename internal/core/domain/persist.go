package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	return uuid.NewString()
}

// PersistTask carries an insight through the persist queue to the worker.
// Persistence is best-effort: a dropped task never fails the transformation
// that produced it.
type PersistTask struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// Insight is the artifact to embed and store
	Insight *Insight `json:"insight"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// EnqueuedAt is when the task was enqueued
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewPersistTask wraps an insight for background persistence
func NewPersistTask(insight *Insight) *PersistTask {
	return &PersistTask{
		ID:         GenerateID(),
		Insight:    insight,
		EnqueuedAt: time.Now(),
	}
}
