package worker

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurrenceValidator_PassesWhenQuiet(t *testing.T) {
	event := dbTimeoutEvent(t, "event-1", 3)
	source := &fakeEventSource{detail: map[string]*entity.ErrorEvent{"event-1": event}}

	validate := NewRecurrenceValidator(source, 0)

	assert.NoError(t, validate(context.Background(), event))
}

func TestRecurrenceValidator_FailsOnRecurrence(t *testing.T) {
	event := dbTimeoutEvent(t, "event-1", 3)
	recurred, err := entity.NewErrorEvent(
		"event-1", event.Message(), valueobject.EventLevelError,
		"production", event.FirstSeen(), time.Now().Add(time.Minute), 5)
	require.NoError(t, err)
	source := &fakeEventSource{detail: map[string]*entity.ErrorEvent{"event-1": recurred}}

	validate := NewRecurrenceValidator(source, 0)

	err = validate(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recurred")
}

func TestRecurrenceValidator_FetchFailureIsInconclusive(t *testing.T) {
	event := dbTimeoutEvent(t, "event-1", 3)
	source := &fakeEventSource{detail: map[string]*entity.ErrorEvent{}}

	validate := NewRecurrenceValidator(source, 0)

	assert.NoError(t, validate(context.Background(), event))
}

func TestRecurrenceValidator_CancellationDuringDelayIsInconclusive(t *testing.T) {
	recurred, err := entity.NewErrorEvent(
		"event-1", "Connection timeout to db-7", valueobject.EventLevelError,
		"production", time.Now().Add(-time.Hour), time.Now(), 5)
	require.NoError(t, err)
	event := dbTimeoutEvent(t, "event-1", 3)
	source := &fakeEventSource{detail: map[string]*entity.ErrorEvent{"event-1": recurred}}

	validate := NewRecurrenceValidator(source, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Shutdown must not be mistaken for a failed post-condition, even when
	// the source would report a recurrence.
	assert.NoError(t, validate(ctx, event))
}
