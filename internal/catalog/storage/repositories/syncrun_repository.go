package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"catalogsync_api/internal/catalog/models"
)

type SyncRunRepository struct {
	db *sql.DB
}

func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) (int, error) {
	query := `
		INSERT INTO catalog.sync_runs (correlation_id, sync_type, status, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int
	err := r.db.QueryRowContext(ctx, query,
		run.CorrelationID, run.SyncType, run.Status, run.StartedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sync run: %w", err)
	}
	run.ID = id
	return id, nil
}

func (r *SyncRunRepository) Finish(ctx context.Context, run *models.SyncRun) error {
	query := `
		UPDATE catalog.sync_runs
		SET status = $2, duration_ms = $3, processed = $4, created = $5,
		    updated = $6, skipped = $7, errors = $8, message = $9
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.DurationMs, run.Processed, run.Created,
		run.Updated, run.Skipped, run.Errors, run.Message)
	if err != nil {
		return fmt.Errorf("failed to finish sync run %d: %w", run.ID, err)
	}
	return nil
}
