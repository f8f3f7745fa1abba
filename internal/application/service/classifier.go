package service

import (
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"math"
)

const (
	// maxOccurrenceBoost caps the confidence boost a high occurrence count can
	// contribute.
	maxOccurrenceBoost = 0.15

	// warningPenalty lowers confidence for warning-level events, which carry
	// weaker signal than errors.
	warningPenalty = 0.1

	// occurrenceHalfScale controls how fast the occurrence boost saturates.
	occurrenceHalfScale = 10.0
)

// Classifier matches error events against the pattern registry. It is
// stateless and deterministic: the same event against the same pattern set
// always yields the same classification.
type Classifier struct {
	patterns *PatternRegistry
}

// NewClassifier creates a classifier backed by the given pattern registry.
func NewClassifier(patterns *PatternRegistry) *Classifier {
	return &Classifier{patterns: patterns}
}

// Classify produces a classification for the event. No pattern match yields
// the uncategorized classification with confidence 0; it is not an error.
func (c *Classifier) Classify(event *entity.ErrorEvent) valueobject.Classification {
	matches := c.patterns.Match(event.Message())
	if len(matches) == 0 {
		return valueobject.NewUncategorizedClassification()
	}

	top := matches[0]

	confidence := top.BaseConfidence().Float()
	confidence += occurrenceBoost(event.OccurrenceCount())
	if event.Level() == valueobject.EventLevelWarning {
		confidence -= warningPenalty
	}

	return valueobject.Classification{
		Category:            top.Category(),
		Confidence:          valueobject.ClampConfidence(confidence),
		MatchedPatternID:    top.ID(),
		SuggestedStrategies: suggestedStrategies(matches),
		HighBusinessImpact:  top.HighBusinessImpact(),
	}
}

// occurrenceBoost returns a confidence boost that grows with occurrence count
// but saturates at maxOccurrenceBoost. A single occurrence contributes
// nothing.
func occurrenceBoost(count int) float64 {
	if count <= 1 {
		return 0
	}
	scaled := 1 - math.Exp(-float64(count-1)/occurrenceHalfScale)
	return maxOccurrenceBoost * scaled
}

// suggestedStrategies collects the strategy identifiers declared by the
// matched patterns, de-duplicated, preserving match rank order.
func suggestedStrategies(matches []*entity.PatternEntry) []string {
	seen := make(map[string]struct{}, len(matches))
	var strategies []string
	for _, p := range matches {
		id := p.ResolutionStrategyID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		strategies = append(strategies, id)
	}
	return strategies
}
