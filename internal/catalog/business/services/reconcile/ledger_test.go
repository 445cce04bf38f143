package reconcile

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/metrics"
)

func TestLedgerSuccessRun(t *testing.T) {
	runs := newFakeSyncRunRepo()
	ledger := NewLedger(runs, zap.NewNop())
	ctx := context.Background()

	run := ledger.Begin(ctx, "categories")
	if run.ID == 0 {
		t.Fatal("run not persisted")
	}
	if run.Status != models.SyncInProgress {
		t.Fatalf("status = %q, want IN_PROGRESS", run.Status)
	}
	if run.CorrelationID == "" {
		t.Fatal("missing correlation id")
	}

	counters := &metrics.SyncCounters{}
	counters.Processed.Add(10)
	counters.Created.Add(4)
	ledger.Finish(ctx, run, counters, nil)

	stored := runs.runs[run.ID]
	if stored.Status != models.SyncSuccess {
		t.Fatalf("status = %q, want SUCCESS", stored.Status)
	}
	if stored.Processed != 10 || stored.Created != 4 {
		t.Fatalf("counts = %d/%d, want 10/4", stored.Processed, stored.Created)
	}
}

func TestLedgerFailedRunCarriesMessage(t *testing.T) {
	runs := newFakeSyncRunRepo()
	ledger := NewLedger(runs, zap.NewNop())
	ctx := context.Background()

	run := ledger.Begin(ctx, "products")
	ledger.Finish(ctx, run, &metrics.SyncCounters{}, errors.New("feed unreachable"))

	stored := runs.runs[run.ID]
	if stored.Status != models.SyncFailed {
		t.Fatalf("status = %q, want FAILED", stored.Status)
	}
	if stored.Message != "feed unreachable" {
		t.Fatalf("message = %q", stored.Message)
	}
}

func TestLedgerDegradesWhenStoreUnavailable(t *testing.T) {
	runs := newFakeSyncRunRepo()
	runs.failCreate = true
	ledger := NewLedger(runs, zap.NewNop())
	ctx := context.Background()

	run := ledger.Begin(ctx, "categories")
	if run.ID != 0 {
		t.Fatalf("degraded run id = %d, want 0", run.ID)
	}

	// Finalizing the in-memory run must not touch the store or panic.
	ledger.Finish(ctx, run, &metrics.SyncCounters{}, nil)
	if run.Status != models.SyncSuccess {
		t.Fatalf("status = %q, want SUCCESS", run.Status)
	}
	if len(runs.runs) != 0 {
		t.Fatal("degraded run was persisted")
	}
}
