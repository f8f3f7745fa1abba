package entity

import (
	"alertflow/internal/domain/valueobject"
	"errors"
	"fmt"
	"regexp"
)

// PatternEntry is one row in the pattern registry: a textual match
// expression with its category, default severity, base confidence and an
// optional preferred resolution strategy. Entries are loaded from
// configuration and are read-only at runtime.
type PatternEntry struct {
	id                   string
	matchExpression      string
	compiled             *regexp.Regexp
	category             string
	defaultSeverity      valueobject.EventLevel
	baseConfidence       valueobject.Confidence
	resolutionStrategyID string
	highBusinessImpact   bool
}

// NewPatternEntry creates a pattern entry, compiling and validating its match
// expression. A malformed expression is an error; callers decide whether that
// aborts a whole load (startup) or only skips the entry (hot reload).
func NewPatternEntry(
	id string,
	matchExpression string,
	category string,
	defaultSeverity valueobject.EventLevel,
	baseConfidence float64,
	resolutionStrategyID string,
	highBusinessImpact bool,
) (*PatternEntry, error) {
	if id == "" {
		return nil, errors.New("pattern_entry: id cannot be empty")
	}
	if matchExpression == "" {
		return nil, errors.New("pattern_entry: match expression cannot be empty")
	}
	if category == "" {
		return nil, errors.New("pattern_entry: category cannot be empty")
	}

	compiled, err := regexp.Compile(matchExpression)
	if err != nil {
		return nil, fmt.Errorf("pattern_entry: invalid match expression %q: %w", matchExpression, err)
	}

	confidence, err := valueobject.NewConfidence(baseConfidence)
	if err != nil {
		return nil, fmt.Errorf("pattern_entry: %w", err)
	}

	return &PatternEntry{
		id:                   id,
		matchExpression:      matchExpression,
		compiled:             compiled,
		category:             category,
		defaultSeverity:      defaultSeverity,
		baseConfidence:       confidence,
		resolutionStrategyID: resolutionStrategyID,
		highBusinessImpact:   highBusinessImpact,
	}, nil
}

// ID returns the pattern identifier.
func (p *PatternEntry) ID() string {
	return p.id
}

// MatchExpression returns the textual match expression.
func (p *PatternEntry) MatchExpression() string {
	return p.matchExpression
}

// Category returns the error category this pattern assigns.
func (p *PatternEntry) Category() string {
	return p.category
}

// DefaultSeverity returns the severity the pattern assigns by default.
func (p *PatternEntry) DefaultSeverity() valueobject.EventLevel {
	return p.defaultSeverity
}

// BaseConfidence returns the pattern's declared base confidence.
func (p *PatternEntry) BaseConfidence() valueobject.Confidence {
	return p.baseConfidence
}

// ResolutionStrategyID returns the preferred strategy identifier, or "" when
// the pattern does not suggest one.
func (p *PatternEntry) ResolutionStrategyID() string {
	return p.resolutionStrategyID
}

// HighBusinessImpact returns true if matches of this pattern escalate
// regardless of occurrence count.
func (p *PatternEntry) HighBusinessImpact() bool {
	return p.highBusinessImpact
}

// Matches reports whether the message matches this pattern. Matching runs on
// the raw message: expressions encode their own volatility (\d+, \w+), while
// token-stripping normalization is reserved for fingerprints.
func (p *PatternEntry) Matches(message string) bool {
	return p.compiled.MatchString(message)
}

// Specificity scores how constrained the pattern is. Longer expressions rank
// ahead of shorter ones when several patterns match the same message.
func (p *PatternEntry) Specificity() int {
	return len(p.matchExpression)
}
