package valueobject

import "fmt"

// EscalationLevel is an increasing severity tier of notification for an
// unresolved or recurring error. Levels only move upward within an incident
// window; the cooldown reset is the single exception.
type EscalationLevel int

// Escalation level constants.
const (
	EscalationLevelNone     EscalationLevel = 0
	EscalationLevelNotify   EscalationLevel = 1
	EscalationLevelOnCall   EscalationLevel = 2
	EscalationLevelCritical EscalationLevel = 3
)

// MaxEscalationLevel is the terminal escalation tier.
const MaxEscalationLevel = EscalationLevelCritical

// NewEscalationLevel creates a new EscalationLevel with validation.
func NewEscalationLevel(level int) (EscalationLevel, error) {
	if level < int(EscalationLevelNone) || level > int(MaxEscalationLevel) {
		return 0, fmt.Errorf("invalid escalation level: %d", level)
	}
	return EscalationLevel(level), nil
}

// Int returns the numeric level.
func (l EscalationLevel) Int() int {
	return int(l)
}

// String returns a human-readable name for the level.
func (l EscalationLevel) String() string {
	switch l {
	case EscalationLevelNone:
		return "none"
	case EscalationLevelNotify:
		return "notify"
	case EscalationLevelOnCall:
		return "oncall"
	case EscalationLevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level_%d", int(l))
	}
}

// IsTerminal returns true if the level cannot be escalated further.
func (l EscalationLevel) IsTerminal() bool {
	return l >= MaxEscalationLevel
}

// Max returns the higher of the two levels.
func (l EscalationLevel) Max(other EscalationLevel) EscalationLevel {
	if other > l {
		return other
	}
	return l
}
