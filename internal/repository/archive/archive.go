// Package archive keeps the full audit record of every run, accepted or not.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Store holds one JSON document per run.
type Store interface {
	Put(ctx context.Context, runID string, content []byte) error
	Get(ctx context.Context, runID string) ([]byte, error)
}

var ErrNotFound = errors.New("run archive not found")

func objectKey(runID string) string {
	return "runs/" + strings.TrimSpace(runID) + "/result.json"
}

// PutJSON encodes v and stores it under runID.
func PutJSON(ctx context.Context, s Store, runID string, v any) error {
	if s == nil {
		return fmt.Errorf("archive store is nil")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", runID, err)
	}
	return s.Put(ctx, runID, data)
}

func checkRunID(runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	if strings.ContainsAny(runID, "/\\") {
		return "", fmt.Errorf("invalid run_id %q", runID)
	}
	return runID, nil
}
