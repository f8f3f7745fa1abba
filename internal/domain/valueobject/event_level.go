package valueobject

import "fmt"

// EventLevel represents the reported severity of an observed error event.
type EventLevel string

// Event level constants, ordered from least to most severe.
const (
	EventLevelInfo    EventLevel = "info"
	EventLevelWarning EventLevel = "warning"
	EventLevelError   EventLevel = "error"
	EventLevelFatal   EventLevel = "fatal"
)

// eventLevelRanks maps each valid level to its severity rank (higher = more severe).
var eventLevelRanks = map[EventLevel]int{
	EventLevelInfo:    0,
	EventLevelWarning: 1,
	EventLevelError:   2,
	EventLevelFatal:   3,
}

// NewEventLevel creates a new EventLevel with validation.
func NewEventLevel(level string) (EventLevel, error) {
	l := EventLevel(level)
	if _, ok := eventLevelRanks[l]; !ok {
		return "", fmt.Errorf("invalid event level: %s", level)
	}
	return l, nil
}

// String returns the string representation of the level.
func (l EventLevel) String() string {
	return string(l)
}

// Rank returns the numeric severity rank (0 = least severe).
func (l EventLevel) Rank() int {
	return eventLevelRanks[l]
}

// AtLeast returns true if this level is at least as severe as other.
func (l EventLevel) AtLeast(other EventLevel) bool {
	return l.Rank() >= other.Rank()
}

// IsFatal returns true if this is a fatal-level event.
func (l EventLevel) IsFatal() bool {
	return l == EventLevelFatal
}

// AllEventLevels returns all valid event levels.
func AllEventLevels() []EventLevel {
	return []EventLevel{EventLevelInfo, EventLevelWarning, EventLevelError, EventLevelFatal}
}
