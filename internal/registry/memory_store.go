package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

// MemoryStore is an in-process Store. It backs tests and single-node
// deployments without a database; version ids come from a counter guarded by
// the same mutex that makes inserts atomic.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []models.ModelVersion
	nextID  int64
}

// NewMemoryStore creates an empty in-memory registry store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Insert appends a new entry with the next counter-derived version id.
func (s *MemoryStore) Insert(_ context.Context, entry NewEntry) (*models.ModelVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := models.ModelVersion{
		ID:                s.nextID,
		Version:           fmt.Sprintf("v%d", s.nextID),
		Metrics:           entry.Metrics,
		ArtifactLocation:  entry.ArtifactLocation,
		TrainingSamples:   entry.TrainingSamples,
		ValidationSamples: entry.ValidationSamples,
		DataSource:        entry.DataSource,
		CreatedAt:         time.Now().UTC(),
	}

	// Collision check: the counter only moves forward, but guard against a
	// store rebuilt from a snapshot with a stale counter.
	for _, existing := range s.entries {
		if existing.Version == version.Version {
			return nil, fmt.Errorf("version %q already exists", version.Version)
		}
	}

	s.nextID++
	s.entries = append(s.entries, version)
	return &version, nil
}

// GetByVersion returns the entry with the given version id.
func (s *MemoryStore) GetByVersion(_ context.Context, version string) (*models.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.entries {
		if s.entries[i].Version == version {
			entry := s.entries[i]
			return &entry, nil
		}
	}
	return nil, &apperrors.NotFoundError{Resource: "model version", ID: version}
}

// Latest returns the most recently inserted entry.
func (s *MemoryStore) Latest(_ context.Context) (*models.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, &apperrors.NotFoundError{Resource: "model registry"}
	}
	entry := s.entries[len(s.entries)-1]
	return &entry, nil
}

// Best returns the entry with the minimum value of the named metric.
func (s *MemoryStore) Best(_ context.Context, metric string) (*models.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, &apperrors.NotFoundError{Resource: "model registry"}
	}

	best := s.entries[0]
	bestValue, _ := best.Metrics.MetricValue(metric)
	for _, entry := range s.entries[1:] {
		value, _ := entry.Metrics.MetricValue(metric)
		if value < bestValue {
			best = entry
			bestValue = value
		}
	}
	return &best, nil
}

// List returns all entries, newest first.
func (s *MemoryStore) List(_ context.Context) ([]models.ModelVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ModelVersion, len(s.entries))
	for i := range s.entries {
		out[i] = s.entries[len(s.entries)-1-i]
	}
	return out, nil
}
