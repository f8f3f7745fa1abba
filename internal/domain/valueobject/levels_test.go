package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventLevel(t *testing.T) {
	for _, level := range AllEventLevels() {
		got, err := NewEventLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, got)
	}

	_, err := NewEventLevel("catastrophic")
	assert.Error(t, err)
}

func TestEventLevel_Ordering(t *testing.T) {
	assert.True(t, EventLevelFatal.AtLeast(EventLevelError))
	assert.True(t, EventLevelError.AtLeast(EventLevelError))
	assert.False(t, EventLevelWarning.AtLeast(EventLevelError))
	assert.True(t, EventLevelFatal.IsFatal())
	assert.False(t, EventLevelError.IsFatal())
}

func TestNewEscalationLevel(t *testing.T) {
	level, err := NewEscalationLevel(2)
	require.NoError(t, err)
	assert.Equal(t, EscalationLevelOnCall, level)

	_, err = NewEscalationLevel(4)
	assert.Error(t, err)

	_, err = NewEscalationLevel(-1)
	assert.Error(t, err)
}

func TestEscalationLevel_Names(t *testing.T) {
	assert.Equal(t, "none", EscalationLevelNone.String())
	assert.Equal(t, "notify", EscalationLevelNotify.String())
	assert.Equal(t, "oncall", EscalationLevelOnCall.String())
	assert.Equal(t, "critical", EscalationLevelCritical.String())
}

func TestEscalationLevel_TerminalAndMax(t *testing.T) {
	assert.True(t, EscalationLevelCritical.IsTerminal())
	assert.False(t, EscalationLevelOnCall.IsTerminal())

	assert.Equal(t, EscalationLevelOnCall, EscalationLevelNotify.Max(EscalationLevelOnCall))
	assert.Equal(t, EscalationLevelOnCall, EscalationLevelOnCall.Max(EscalationLevelNotify))
}

func TestSafetyLevel(t *testing.T) {
	safe, err := NewSafetyLevel("safe")
	require.NoError(t, err)
	assert.True(t, safe.AllowsAutoExecution())

	manual, err := NewSafetyLevel("manual_only")
	require.NoError(t, err)
	assert.False(t, manual.AllowsAutoExecution())

	assert.Less(t, safe.Order(), manual.Order())

	_, err = NewSafetyLevel("yolo")
	assert.Error(t, err)
}

func TestAttemptOutcome(t *testing.T) {
	outcome, err := NewAttemptOutcome("rolled_back")
	require.NoError(t, err)
	assert.True(t, outcome.Executed())
	assert.True(t, outcome.CountsAsFailure())

	skipped := AttemptOutcomeSkipped
	assert.False(t, skipped.Executed())
	assert.False(t, skipped.CountsAsFailure())

	dryRun := AttemptOutcomeSkippedDryRun
	assert.False(t, dryRun.Executed())
	assert.False(t, dryRun.CountsAsFailure())

	assert.True(t, AttemptOutcomeSuccess.Executed())
	assert.False(t, AttemptOutcomeSuccess.CountsAsFailure())

	_, err = NewAttemptOutcome("exploded")
	assert.Error(t, err)
}

func TestConfidence(t *testing.T) {
	c, err := NewConfidence(0.85)
	require.NoError(t, err)
	assert.True(t, c.Meets(0.7))
	assert.False(t, c.Meets(0.9))

	_, err = NewConfidence(1.2)
	assert.Error(t, err)

	assert.InDelta(t, 1.0, ClampConfidence(3.5).Float(), 0.001)
	assert.InDelta(t, 0.0, ClampConfidence(-0.5).Float(), 0.001)
}

func TestClassification_Uncategorized(t *testing.T) {
	c := NewUncategorizedClassification()
	assert.Equal(t, UncategorizedCategory, c.Category)
	assert.False(t, c.IsCategorized())
	assert.InDelta(t, 0.0, c.Confidence.Float(), 0.001)
}
