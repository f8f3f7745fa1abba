package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CycleSummary aggregates the outcome of one orchestration cycle for the
// audit trail and the status API.
type CycleSummary struct {
	cycleID            uuid.UUID
	startedAt          time.Time
	finishedAt         time.Time
	eventsProcessed    int
	resolutionsApplied int
	escalationsRaised  int
	failures           int
	sourceError        string
}

// NewCycleSummary starts a summary for a new cycle.
func NewCycleSummary() *CycleSummary {
	return &CycleSummary{
		cycleID:   uuid.New(),
		startedAt: time.Now(),
	}
}

// CycleID returns the unique cycle identifier.
func (c *CycleSummary) CycleID() uuid.UUID {
	return c.cycleID
}

// StartedAt returns when the cycle started.
func (c *CycleSummary) StartedAt() time.Time {
	return c.startedAt
}

// FinishedAt returns when the cycle finished.
func (c *CycleSummary) FinishedAt() time.Time {
	return c.finishedAt
}

// EventsProcessed returns the number of events processed this cycle.
func (c *CycleSummary) EventsProcessed() int {
	return c.eventsProcessed
}

// ResolutionsApplied returns the number of successfully executed resolutions.
func (c *CycleSummary) ResolutionsApplied() int {
	return c.resolutionsApplied
}

// EscalationsRaised returns the number of escalation level changes.
func (c *CycleSummary) EscalationsRaised() int {
	return c.escalationsRaised
}

// Failures returns the number of per-event failures isolated this cycle.
func (c *CycleSummary) Failures() int {
	return c.failures
}

// SourceError returns the aggregate event source failure for the cycle, or
// "" when the source was reachable.
func (c *CycleSummary) SourceError() string {
	return c.sourceError
}

// RecordEvent counts one processed event.
func (c *CycleSummary) RecordEvent() {
	c.eventsProcessed++
}

// RecordResolution counts one applied resolution.
func (c *CycleSummary) RecordResolution() {
	c.resolutionsApplied++
}

// RecordEscalation counts one escalation level change.
func (c *CycleSummary) RecordEscalation() {
	c.escalationsRaised++
}

// RecordFailure counts one isolated per-event failure.
func (c *CycleSummary) RecordFailure() {
	c.failures++
}

// RecordSourceError marks the cycle as having an aggregate source failure.
func (c *CycleSummary) RecordSourceError(err error) {
	if err != nil {
		c.sourceError = err.Error()
	}
}

// Finish stamps the cycle end time. Finishing twice is an error.
func (c *CycleSummary) Finish() error {
	if !c.finishedAt.IsZero() {
		return errors.New("cycle_summary: already finished")
	}
	c.finishedAt = time.Now()
	return nil
}

// RehydrateCycleSummary reconstructs a summary from storage.
func RehydrateCycleSummary(
	cycleID uuid.UUID,
	startedAt time.Time,
	finishedAt time.Time,
	eventsProcessed int,
	resolutionsApplied int,
	escalationsRaised int,
	failures int,
	sourceError string,
) *CycleSummary {
	return &CycleSummary{
		cycleID:            cycleID,
		startedAt:          startedAt,
		finishedAt:         finishedAt,
		eventsProcessed:    eventsProcessed,
		resolutionsApplied: resolutionsApplied,
		escalationsRaised:  escalationsRaised,
		failures:           failures,
		sourceError:        sourceError,
	}
}
