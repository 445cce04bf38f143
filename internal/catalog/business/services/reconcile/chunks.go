package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"catalogsync_api/metrics"
	apperrors "catalogsync_api/pkg/errors"
)

// ChunkStats summarizes one ChunkProcessor pass.
type ChunkStats struct {
	Processed int
	Skipped   int
	Errors    int
	Abandoned int
}

// ChunkProcessor bounds batch size, memory and wall-clock time for large
// item sets. Items run sequentially; a per-item failure is counted and
// never aborts the chunk. Each chunk is time-boxed: on deadline the
// remaining items are abandoned for the next scheduled run instead of
// blocking.
type ChunkProcessor struct {
	size       int
	flushEvery int
	deadline   time.Duration
	pause      time.Duration
	logger     *zap.Logger
}

func NewChunkProcessor(size, flushEvery int, deadline, pause time.Duration, logger *zap.Logger) *ChunkProcessor {
	if size <= 0 {
		size = 30
	}
	if flushEvery <= 0 {
		flushEvery = 10
	}
	return &ChunkProcessor{size: size, flushEvery: flushEvery, deadline: deadline, pause: pause, logger: logger}
}

// Run processes total items through item(). flush() is invoked every
// flushEvery items so accumulated in-memory state can be written through
// and cleared; it may be nil.
func (p *ChunkProcessor) Run(ctx context.Context, total int,
	item func(ctx context.Context, i int) error,
	flush func(ctx context.Context) error,
	counters *metrics.SyncCounters) ChunkStats {

	var stats ChunkStats
	sinceFlush := 0

	for start := 0; start < total; start += p.size {
		end := start + p.size
		if end > total {
			end = total
		}

		chunkCtx, cancel := context.WithTimeout(ctx, p.deadline)

		for i := start; i < end; i++ {
			if chunkCtx.Err() != nil {
				abandoned := end - i
				stats.Abandoned += abandoned
				p.logger.Warn("chunk deadline hit, abandoning remaining items",
					zap.Int("chunk_start", start), zap.Int("abandoned", abandoned))
				break
			}

			if err := item(chunkCtx, i); err != nil {
				p.classify(err, &stats, counters, i)
			} else {
				stats.Processed++
				counters.Processed.Add(1)
			}

			sinceFlush++
			if flush != nil && sinceFlush >= p.flushEvery {
				if err := flush(chunkCtx); err != nil {
					p.logger.Error("flush failed", zap.Error(err))
				}
				sinceFlush = 0
			}
		}
		cancel()

		if flush != nil && sinceFlush > 0 {
			if err := flush(ctx); err != nil {
				p.logger.Error("flush failed", zap.Error(err))
			}
			sinceFlush = 0
		}

		// A short pause between chunks throttles pressure on the source API
		// and the store.
		if p.pause > 0 && start+p.size < total {
			select {
			case <-time.After(p.pause):
			case <-ctx.Done():
				stats.Abandoned += total - end
				return stats
			}
		}
	}
	return stats
}

func (p *ChunkProcessor) classify(err error, stats *ChunkStats, counters *metrics.SyncCounters, index int) {
	var malformed *apperrors.ErrMalformedItem
	var unresolved *apperrors.ErrUnresolved

	switch {
	case errors.As(err, &malformed), errors.As(err, &unresolved):
		// "Couldn't place this data" is counted apart from hard errors.
		stats.Skipped++
		counters.Skipped.Add(1)
		p.logger.Warn("item skipped", zap.Int("index", index), zap.Error(err))
	default:
		stats.Errors++
		counters.Errored.Add(1)
		p.logger.Error("item failed", zap.Int("index", index), zap.Error(err))
	}
}
