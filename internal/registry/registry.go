// Package registry is the versioned, append-only catalog of trained models.
// Entries are immutable once created; a retrain always produces a new
// version. Storage is delegated to a Store; this package owns the version
// generation, ordering and lookup contract.
package registry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/models"
)

// NewEntry is the payload for one registration. The artifact at
// ArtifactLocation must already be durable before Register is called.
type NewEntry struct {
	Metrics           models.Metrics
	ArtifactLocation  string
	TrainingSamples   int
	ValidationSamples int
	DataSource        models.DataSource
}

// Store persists registry entries. Implementations must make Insert atomic
// (a partial write must never be visible) and must generate version ids that
// cannot collide under concurrent inserts. Lookup methods return
// *apperrors.NotFoundError when nothing matches.
type Store interface {
	Insert(ctx context.Context, entry NewEntry) (*models.ModelVersion, error)
	GetByVersion(ctx context.Context, version string) (*models.ModelVersion, error)
	Latest(ctx context.Context) (*models.ModelVersion, error)
	Best(ctx context.Context, metric string) (*models.ModelVersion, error)
	List(ctx context.Context) ([]models.ModelVersion, error)
}

// Registry exposes the catalog operations.
type Registry struct {
	store  Store
	logger *logrus.Logger
}

// New creates a registry over the given store.
func New(store Store, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{store: store, logger: logger}
}

// Register appends a new model version and returns it.
func (r *Registry) Register(ctx context.Context, entry NewEntry) (*models.ModelVersion, error) {
	if entry.ArtifactLocation == "" {
		return nil, fmt.Errorf("artifact location is required")
	}

	version, err := r.store.Insert(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to register model: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"model_version": version.Version,
		"rmse":          version.Metrics.RMSE,
		"data_source":   version.DataSource,
	}).Info("Registered model version")

	return version, nil
}

// Get resolves a version id, where "latest" (or empty) means the most
// recently registered entry.
func (r *Registry) Get(ctx context.Context, version string) (*models.ModelVersion, error) {
	if version == "" || version == models.VersionLatest {
		return r.store.Latest(ctx)
	}
	return r.store.GetByVersion(ctx, version)
}

// Best returns the entry with the minimum value of the named metric. All
// supported metrics are lower-is-better.
func (r *Registry) Best(ctx context.Context, metric string) (*models.ModelVersion, error) {
	if _, ok := (models.Metrics{}).MetricValue(metric); !ok {
		return nil, &apperrors.InvalidRangeError{Reason: fmt.Sprintf("unsupported metric %q (want rmse, mae or mape)", metric)}
	}
	return r.store.Best(ctx, metric)
}

// List returns all entries, newest first.
func (r *Registry) List(ctx context.Context) ([]models.ModelVersion, error) {
	return r.store.List(ctx)
}
