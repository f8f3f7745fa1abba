package outbound

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"
	"time"
)

// EventSource lists recent error events from the external monitoring backend
// and fetches single-event detail. Adapter failures surface as a single
// aggregate error for the cycle; the orchestrator logs and retries on the
// next scheduled cycle.
type EventSource interface {
	// ListRecentEvents returns events observed within the lookback window at
	// or above the given minimum severity.
	ListRecentEvents(ctx context.Context, lookback time.Duration, minLevel valueobject.EventLevel) ([]*entity.ErrorEvent, error)

	// GetEventDetail fetches the current state of a single event by its
	// external identifier.
	GetEventDetail(ctx context.Context, id string) (*entity.ErrorEvent, error)
}
