package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
	"github.com/fuelcast/fuelcast-go/internal/models"
	"github.com/fuelcast/fuelcast-go/internal/registry"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

// insertRetries bounds the collision retry loop between concurrent trains.
const insertRetries = 3

// RegistryStore is the Postgres-backed registry.Store. Version identifiers
// are counter-derived (v1, v2, ...); the unique constraint on model_version
// is the collision check, and the insert retries under a fresh counter read
// when two registrations race.
type RegistryStore struct {
	pool DatabasePool
}

// NewRegistryStore creates a Postgres registry store.
func NewRegistryStore(pool DatabasePool) *RegistryStore {
	return &RegistryStore{pool: pool}
}

const modelVersionColumns = `
	id, model_version, rmse, mae, mape, artifact_location,
	training_samples, validation_samples, data_source, created_at`

// Insert appends a new registry entry atomically.
func (s *RegistryStore) Insert(ctx context.Context, entry registry.NewEntry) (*models.ModelVersion, error) {
	var lastErr error
	for attempt := 0; attempt < insertRetries; attempt++ {
		version, err := s.tryInsert(ctx, entry)
		if err == nil {
			return version, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("version collision persisted after %d attempts: %w", insertRetries, lastErr)
}

func (s *RegistryStore) tryInsert(ctx context.Context, entry registry.NewEntry) (*models.ModelVersion, error) {
	version := models.ModelVersion{
		Metrics:           entry.Metrics,
		ArtifactLocation:  entry.ArtifactLocation,
		TrainingSamples:   entry.TrainingSamples,
		ValidationSamples: entry.ValidationSamples,
		DataSource:        entry.DataSource,
	}

	err := s.pool.QueryRow(ctx, `
		INSERT INTO model_registry
			(model_version, rmse, mae, mape, artifact_location,
			 training_samples, validation_samples, data_source)
		SELECT 'v' || (COALESCE(MAX(SUBSTRING(model_version FROM 2)::int), 0) + 1),
			$1, $2, $3, $4, $5, $6, $7
		FROM model_registry
		RETURNING id, model_version, created_at`,
		entry.Metrics.RMSE, entry.Metrics.MAE, entry.Metrics.MAPE,
		entry.ArtifactLocation, entry.TrainingSamples, entry.ValidationSamples,
		string(entry.DataSource),
	).Scan(&version.ID, &version.Version, &version.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert model version: %w", err)
	}
	return &version, nil
}

// GetByVersion returns the entry with the given version id.
func (s *RegistryStore) GetByVersion(ctx context.Context, version string) (*models.ModelVersion, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+modelVersionColumns+`
		FROM model_registry
		WHERE model_version = $1`, version)
	entry, err := scanModelVersion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "model version", ID: version}
	}
	return entry, err
}

// Latest returns the most recently registered entry.
func (s *RegistryStore) Latest(ctx context.Context) (*models.ModelVersion, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+modelVersionColumns+`
		FROM model_registry
		ORDER BY id DESC
		LIMIT 1`)
	entry, err := scanModelVersion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "model registry"}
	}
	return entry, err
}

// Best returns the entry with the minimum value of the named metric. The
// metric name is validated by the registry before it reaches the store.
func (s *RegistryStore) Best(ctx context.Context, metric string) (*models.ModelVersion, error) {
	query := fmt.Sprintf(`
		SELECT`+modelVersionColumns+`
		FROM model_registry
		ORDER BY %s ASC, id ASC
		LIMIT 1`, metric)
	entry, err := scanModelVersion(s.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "model registry"}
	}
	return entry, err
}

// List returns all entries, newest first.
func (s *RegistryStore) List(ctx context.Context) ([]models.ModelVersion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+modelVersionColumns+`
		FROM model_registry
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query model registry: %w", err)
	}
	defer rows.Close()

	var entries []models.ModelVersion
	for rows.Next() {
		entry, err := scanModelVersion(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read model registry: %w", err)
	}
	return entries, nil
}

func scanModelVersion(row pgx.Row) (*models.ModelVersion, error) {
	var entry models.ModelVersion
	var source string
	err := row.Scan(
		&entry.ID, &entry.Version,
		&entry.Metrics.RMSE, &entry.Metrics.MAE, &entry.Metrics.MAPE,
		&entry.ArtifactLocation, &entry.TrainingSamples, &entry.ValidationSamples,
		&source, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan model version: %w", err)
	}
	entry.DataSource = models.DataSource(source)
	return &entry, nil
}
