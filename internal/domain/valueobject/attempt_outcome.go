package valueobject

import "fmt"

// AttemptOutcome represents the terminal result of a resolution attempt.
type AttemptOutcome string

// Attempt outcome constants.
const (
	// AttemptOutcomeSuccess means the strategy executed and post-validation passed.
	AttemptOutcomeSuccess AttemptOutcome = "success"
	// AttemptOutcomeFailure means execution failed, timed out, or validation
	// failed with no rollback available.
	AttemptOutcomeFailure AttemptOutcome = "failure"
	// AttemptOutcomeSkipped means no strategy was executed: confidence or
	// safety below threshold, or another attempt was already in flight.
	AttemptOutcomeSkipped AttemptOutcome = "skipped"
	// AttemptOutcomeSkippedDryRun means a strategy was selected but execution
	// was suppressed by dry-run mode.
	AttemptOutcomeSkippedDryRun AttemptOutcome = "skipped_dry_run"
	// AttemptOutcomeRolledBack means execution appeared to succeed but
	// post-validation failed and the strategy's rollback was applied.
	AttemptOutcomeRolledBack AttemptOutcome = "rolled_back"
)

var validAttemptOutcomes = map[AttemptOutcome]bool{
	AttemptOutcomeSuccess:       true,
	AttemptOutcomeFailure:       true,
	AttemptOutcomeSkipped:       true,
	AttemptOutcomeSkippedDryRun: true,
	AttemptOutcomeRolledBack:    true,
}

// NewAttemptOutcome creates a new AttemptOutcome with validation.
func NewAttemptOutcome(outcome string) (AttemptOutcome, error) {
	o := AttemptOutcome(outcome)
	if !validAttemptOutcomes[o] {
		return "", fmt.Errorf("invalid attempt outcome: %s", outcome)
	}
	return o, nil
}

// String returns the string representation of the outcome.
func (o AttemptOutcome) String() string {
	return string(o)
}

// Executed returns true if the strategy's execute call actually ran.
func (o AttemptOutcome) Executed() bool {
	return o == AttemptOutcomeSuccess || o == AttemptOutcomeFailure || o == AttemptOutcomeRolledBack
}

// CountsAsFailure returns true if the outcome contributes to consecutive
// failure escalation triggers.
func (o AttemptOutcome) CountsAsFailure() bool {
	return o == AttemptOutcomeFailure || o == AttemptOutcomeRolledBack
}
