package valueobject

import "fmt"

// SafetyLevel classifies how safely a remediation strategy can be executed
// without human supervision.
type SafetyLevel string

// Safety level constants.
const (
	SafetyLevelSafe       SafetyLevel = "safe"
	SafetyLevelRisky      SafetyLevel = "risky"
	SafetyLevelManualOnly SafetyLevel = "manual_only"
)

// safetyLevelOrder maps each level to its execution preference (lower = preferred).
var safetyLevelOrder = map[SafetyLevel]int{
	SafetyLevelSafe:       0,
	SafetyLevelRisky:      1,
	SafetyLevelManualOnly: 2,
}

// NewSafetyLevel creates a new SafetyLevel with validation.
func NewSafetyLevel(level string) (SafetyLevel, error) {
	s := SafetyLevel(level)
	if _, ok := safetyLevelOrder[s]; !ok {
		return "", fmt.Errorf("invalid safety level: %s", level)
	}
	return s, nil
}

// String returns the string representation of the safety level.
func (s SafetyLevel) String() string {
	return string(s)
}

// Order returns the sort order for candidate selection (safe first).
func (s SafetyLevel) Order() int {
	return safetyLevelOrder[s]
}

// AllowsAutoExecution returns true if a strategy at this level may be
// executed without human approval.
func (s SafetyLevel) AllowsAutoExecution() bool {
	return s != SafetyLevelManualOnly
}
