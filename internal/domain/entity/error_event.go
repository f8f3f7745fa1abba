package entity

import (
	"alertflow/internal/domain/valueobject"
	"errors"
	"fmt"
	"time"
)

// Maximum accepted sizes for inbound event fields.
const (
	maxEventMessageLength     = 10000
	maxEventEnvironmentLength = 100
)

// ErrorEvent represents one observed error instance fetched from the event
// source. Events are immutable once constructed and identified externally by
// their source ID.
type ErrorEvent struct {
	id              string
	message         string
	level           valueobject.EventLevel
	environment     string
	firstSeen       time.Time
	lastSeen        time.Time
	occurrenceCount int
	fingerprint     valueobject.Fingerprint
}

// NewErrorEvent creates a new error event with validation. The fingerprint is
// computed eagerly so downstream components never recompute it.
func NewErrorEvent(
	id string,
	message string,
	level valueobject.EventLevel,
	environment string,
	firstSeen time.Time,
	lastSeen time.Time,
	occurrenceCount int,
) (*ErrorEvent, error) {
	if id == "" {
		return nil, errors.New("error_event: id cannot be empty")
	}
	if message == "" {
		return nil, errors.New("error_event: message cannot be empty")
	}
	if len(message) > maxEventMessageLength {
		return nil, fmt.Errorf("error_event: message cannot exceed %d characters", maxEventMessageLength)
	}
	if len(environment) > maxEventEnvironmentLength {
		return nil, fmt.Errorf("error_event: environment cannot exceed %d characters", maxEventEnvironmentLength)
	}
	if occurrenceCount < 1 {
		return nil, errors.New("error_event: occurrence count must be at least 1")
	}
	if !lastSeen.IsZero() && !firstSeen.IsZero() && lastSeen.Before(firstSeen) {
		return nil, errors.New("error_event: last seen cannot precede first seen")
	}

	fingerprint, err := valueobject.NewFingerprint(message, environment)
	if err != nil {
		return nil, fmt.Errorf("error_event: %w", err)
	}

	return &ErrorEvent{
		id:              id,
		message:         message,
		level:           level,
		environment:     environment,
		firstSeen:       firstSeen,
		lastSeen:        lastSeen,
		occurrenceCount: occurrenceCount,
		fingerprint:     fingerprint,
	}, nil
}

// ID returns the opaque external identifier of the event.
func (e *ErrorEvent) ID() string {
	return e.id
}

// Message returns the raw error message.
func (e *ErrorEvent) Message() string {
	return e.message
}

// Level returns the reported severity level.
func (e *ErrorEvent) Level() valueobject.EventLevel {
	return e.level
}

// Environment returns the environment the event was observed in.
func (e *ErrorEvent) Environment() string {
	return e.environment
}

// FirstSeen returns when the error was first observed.
func (e *ErrorEvent) FirstSeen() time.Time {
	return e.firstSeen
}

// LastSeen returns when the error was most recently observed.
func (e *ErrorEvent) LastSeen() time.Time {
	return e.lastSeen
}

// OccurrenceCount returns how many times the error has been observed.
func (e *ErrorEvent) OccurrenceCount() int {
	return e.occurrenceCount
}

// Fingerprint returns the stable deduplication key for this event.
func (e *ErrorEvent) Fingerprint() valueobject.Fingerprint {
	return e.fingerprint
}
