package observability

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Operation counters, keyed entity:operation:outcome. Exported via
// SnapshotCounters for diagnostics endpoints and tests; every record also
// lands in the debug log.
var (
	countersMu sync.RWMutex
	counters   = map[string]*atomic.Int64{}
)

func record(ctx context.Context, kind, entity, operation, outcome string) {
	key := entity + ":" + operation + ":" + outcome

	countersMu.RLock()
	c, ok := counters[key]
	countersMu.RUnlock()
	if !ok {
		countersMu.Lock()
		if c, ok = counters[key]; !ok {
			c = &atomic.Int64{}
			counters[key] = c
		}
		countersMu.Unlock()
	}
	c.Add(1)

	slog.Default().DebugContext(ctx, kind,
		"entity", entity,
		"operation", operation,
		"outcome", outcome,
	)
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	record(ctx, "repository operation", entity, operation, outcome)
}

func RecordModerationEvent(ctx context.Context, operation, outcome string) {
	record(ctx, "moderation event", "vacancy", operation, outcome)
}

func RecordUnlockEvent(ctx context.Context, operation, outcome string) {
	record(ctx, "unlock event", "contact_unlock", operation, outcome)
}

func RecordComplaintEvent(ctx context.Context, operation, outcome string) {
	record(ctx, "complaint event", "complaint", operation, outcome)
}

func RecordVerificationEvent(ctx context.Context, operation, outcome string) {
	record(ctx, "verification event", "verification_code", operation, outcome)
}

// SnapshotCounters copies the current counter values.
func SnapshotCounters() map[string]int64 {
	countersMu.RLock()
	defer countersMu.RUnlock()
	out := make(map[string]int64, len(counters))
	for k, c := range counters {
		out[k] = c.Load()
	}
	return out
}
