package worker

import (
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/application/service"
	"alertflow/internal/domain/entity"
	"alertflow/internal/port/outbound"
	"context"
	"fmt"
	"time"
)

// NewRecurrenceValidator builds a validation hook that waits out the
// validation delay and re-fetches the event from the source. The remediation
// is judged failed when the error has recurred since the attempt started. A
// source fetch failure or a cancelled context is inconclusive and does not
// trigger a rollback.
func NewRecurrenceValidator(source outbound.EventSource, delay time.Duration) service.ValidationFunc {
	return func(ctx context.Context, event *entity.ErrorEvent) error {
		if delay > 0 {
			select {
			case <-ctx.Done():
				slogger.Warn(ctx, "Validation interrupted, treating as inconclusive", slogger.Fields2(
					"event_id", event.ID(),
					"error", ctx.Err().Error(),
				))
				return nil
			case <-time.After(delay):
			}
		}

		detail, err := source.GetEventDetail(ctx, event.ID())
		if err != nil {
			slogger.Warn(ctx, "Validation fetch failed, treating as inconclusive", slogger.Fields2(
				"event_id", event.ID(),
				"error", err.Error(),
			))
			return nil
		}

		if detail.OccurrenceCount() > event.OccurrenceCount() {
			return fmt.Errorf("error recurred after remediation: occurrences %d -> %d",
				event.OccurrenceCount(), detail.OccurrenceCount())
		}
		if detail.LastSeen().After(event.LastSeen()) {
			return fmt.Errorf("error recurred after remediation: last seen %s",
				detail.LastSeen().Format(time.RFC3339))
		}
		return nil
	}
}
