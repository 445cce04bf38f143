package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"catalogsync_api/metrics"
	apperrors "catalogsync_api/pkg/errors"
)

func testChunker() *ChunkProcessor {
	return NewChunkProcessor(30, 10, time.Minute, 0, zap.NewNop())
}

func TestChunkRunPartialFailureIsolation(t *testing.T) {
	corrupt := 42
	counters := &metrics.SyncCounters{}

	stats := testChunker().Run(context.Background(), 100, func(ctx context.Context, i int) error {
		if i == corrupt {
			return errors.New("boom")
		}
		return nil
	}, nil, counters)

	if stats.Processed != 99 {
		t.Fatalf("processed = %d, want 99", stats.Processed)
	}
	if stats.Errors != 1 {
		t.Fatalf("errors = %d, want 1", stats.Errors)
	}
	if got := counters.Errored.Load(); got != 1 {
		t.Fatalf("errored counter = %d, want 1", got)
	}
}

func TestChunkRunClassifiesSkippableErrors(t *testing.T) {
	counters := &metrics.SyncCounters{}

	stats := testChunker().Run(context.Background(), 3, func(ctx context.Context, i int) error {
		switch i {
		case 0:
			return &apperrors.ErrMalformedItem{Field: "sku"}
		case 1:
			return &apperrors.ErrUnresolved{Resource: "category", Key: "x"}
		default:
			return errors.New("hard failure")
		}
	}, nil, counters)

	if stats.Skipped != 2 || stats.Errors != 1 {
		t.Fatalf("skipped/errors = %d/%d, want 2/1", stats.Skipped, stats.Errors)
	}
	if counters.Skipped.Load() != 2 || counters.Errored.Load() != 1 {
		t.Fatalf("counters skipped/errored = %d/%d, want 2/1",
			counters.Skipped.Load(), counters.Errored.Load())
	}
}

func TestChunkRunFlushCadence(t *testing.T) {
	flushes := 0
	stats := testChunker().Run(context.Background(), 25, func(ctx context.Context, i int) error {
		return nil
	}, func(ctx context.Context) error {
		flushes++
		return nil
	}, &metrics.SyncCounters{})

	if stats.Processed != 25 {
		t.Fatalf("processed = %d, want 25", stats.Processed)
	}
	// 10 + 10 inside the first chunk, trailing 5 flushed at its end.
	if flushes != 3 {
		t.Fatalf("flushes = %d, want 3", flushes)
	}
}

func TestChunkRunDeadlineAbandonsRemainder(t *testing.T) {
	chunker := NewChunkProcessor(30, 10, time.Nanosecond, 0, zap.NewNop())
	counters := &metrics.SyncCounters{}

	stats := chunker.Run(context.Background(), 30, func(ctx context.Context, i int) error {
		time.Sleep(time.Millisecond)
		return nil
	}, nil, counters)

	if stats.Abandoned == 0 {
		t.Fatalf("expected abandonment under expired deadline, stats = %+v", stats)
	}
	if stats.Processed+stats.Abandoned+stats.Errors+stats.Skipped != 30 {
		t.Fatalf("items unaccounted for: %+v", stats)
	}
}
