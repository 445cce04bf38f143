package metrics

import "sync/atomic"

// SyncCounters accumulates per-run outcomes. Atomic so a future parallel
// chunk worker would not need changes here.
type SyncCounters struct {
	Processed atomic.Int32
	Created   atomic.Int32
	Updated   atomic.Int32
	Skipped   atomic.Int32
	Errored   atomic.Int32
}
