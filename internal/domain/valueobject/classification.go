package valueobject

// UncategorizedCategory is assigned when no pattern matches an event.
const UncategorizedCategory = "uncategorized"

// Classification is the result of matching an error event against the
// pattern registry. It is produced fresh on every classification call and is
// never persisted outside the audit trail.
type Classification struct {
	Category            string
	Confidence          Confidence
	MatchedPatternID    string
	SuggestedStrategies []string
	HighBusinessImpact  bool
}

// NewUncategorizedClassification returns the zero-confidence classification
// used when no pattern matches. Not an error condition.
func NewUncategorizedClassification() Classification {
	return Classification{
		Category:   UncategorizedCategory,
		Confidence: 0,
	}
}

// IsCategorized returns true if a pattern matched the event.
func (c Classification) IsCategorized() bool {
	return c.MatchedPatternID != ""
}
