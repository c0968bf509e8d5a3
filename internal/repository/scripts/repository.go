// Package scripts persists accepted scripts.
package scripts

import (
	"context"
	"errors"
	"time"

	"scriptsmith/internal/script"
)

// Record is one accepted script.
type Record struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Genre      string            `json:"genre,omitempty"`
	Duration   script.Duration   `json:"duration"`
	Script     string            `json:"script"`
	Score      float64           `json:"score"`
	Attempts   int               `json:"attempts"`
	Validation script.Evaluation `json:"validation"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Store defines operations for persisting scripts.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	// List returns the newest records first.
	List(ctx context.Context, limit int) ([]Record, error)
}

var ErrNotFound = errors.New("script not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
