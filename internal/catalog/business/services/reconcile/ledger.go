package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/metrics"
)

// Ledger records the audit trail of sync runs. A failure to persist a
// ledger entry never aborts the underlying sync: the run degrades to an
// in-memory result the caller can still report.
type Ledger struct {
	runs   storage.SyncRunRepository
	logger *zap.Logger
}

func NewLedger(runs storage.SyncRunRepository, logger *zap.Logger) *Ledger {
	return &Ledger{runs: runs, logger: logger}
}

// Begin creates the IN_PROGRESS row. On a store failure the returned run
// has ID 0 and lives in memory only.
func (l *Ledger) Begin(ctx context.Context, syncType string) *models.SyncRun {
	run := &models.SyncRun{
		CorrelationID: uuid.NewString(),
		SyncType:      syncType,
		Status:        models.SyncInProgress,
		StartedAt:     time.Now(),
	}
	if _, err := l.runs.Create(ctx, run); err != nil {
		l.logger.Error("ledger degraded to in-memory run",
			zap.String("sync_type", syncType), zap.Error(err))
		run.ID = 0
	}
	return run
}

// Finish finalizes the run exactly once, even on catastrophic failure.
func (l *Ledger) Finish(ctx context.Context, run *models.SyncRun, counters *metrics.SyncCounters, runErr error) {
	run.DurationMs = time.Since(run.StartedAt).Milliseconds()
	run.Processed = int(counters.Processed.Load())
	run.Created = int(counters.Created.Load())
	run.Updated = int(counters.Updated.Load())
	run.Skipped = int(counters.Skipped.Load())
	run.Errors = int(counters.Errored.Load())

	if runErr != nil {
		run.Status = models.SyncFailed
		run.Message = runErr.Error()
	} else {
		run.Status = models.SyncSuccess
	}

	metrics.RecordRun(run.SyncType, string(run.Status), time.Duration(run.DurationMs)*time.Millisecond)
	metrics.RecordItems(run.SyncType, "created", run.Created)
	metrics.RecordItems(run.SyncType, "updated", run.Updated)
	metrics.RecordItems(run.SyncType, "skipped", run.Skipped)
	metrics.RecordItems(run.SyncType, "errored", run.Errors)

	if run.ID == 0 {
		l.logger.Warn("sync run finished without persisted ledger row",
			zap.String("sync_type", run.SyncType), zap.String("status", string(run.Status)),
			zap.Int("processed", run.Processed), zap.Int("errors", run.Errors))
		return
	}
	if err := l.runs.Finish(ctx, run); err != nil {
		l.logger.Error("failed to finalize sync run",
			zap.Int("run_id", run.ID), zap.Error(err))
	}
}
