package service

import (
	"alertflow/internal/port/outbound"
	"context"
	"fmt"
	"sort"
	"sync"
)

// StrategyRegistry holds the registered remediation strategies. Strategies
// are registered once at startup; the resolution engine never branches on
// concrete strategy types.
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]outbound.RemediationStrategy
}

// NewStrategyRegistry creates an empty strategy registry.
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		strategies: make(map[string]outbound.RemediationStrategy),
	}
}

// Register adds a strategy to the registry. Duplicate names are rejected.
func (r *StrategyRegistry) Register(strategy outbound.RemediationStrategy) error {
	if strategy == nil {
		return fmt.Errorf("strategy_registry: strategy cannot be nil")
	}
	name := strategy.Name()
	if name == "" {
		return fmt.Errorf("strategy_registry: strategy name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("strategy_registry: strategy %q already registered", name)
	}
	r.strategies[name] = strategy
	return nil
}

// Get returns the strategy registered under name, or nil.
func (r *StrategyRegistry) Get(name string) outbound.RemediationStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.strategies[name]
}

// Count returns the number of registered strategies.
func (r *StrategyRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.strategies)
}

// ResolveCandidates returns the strategies able to act on the classification,
// filtered by applicability and ordered by safety level (safe first) then
// self-assessed confidence descending. Strategies suggested by the matched
// patterns are considered first, then any other applicable strategy.
func (r *StrategyRegistry) ResolveCandidates(
	ctx context.Context,
	sc outbound.StrategyContext,
) []outbound.RemediationStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	suggestedRank := make(map[string]int, len(sc.Classification.SuggestedStrategies))
	for i, name := range sc.Classification.SuggestedStrategies {
		suggestedRank[name] = i
	}

	var candidates []outbound.RemediationStrategy
	for _, strategy := range r.strategies {
		if strategy.IsApplicable(ctx, sc) {
			candidates = append(candidates, strategy)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, iSuggested := suggestedRank[candidates[i].Name()]
		rj, jSuggested := suggestedRank[candidates[j].Name()]
		if iSuggested != jSuggested {
			return iSuggested
		}
		if iSuggested && jSuggested && ri != rj {
			return ri < rj
		}
		if candidates[i].SafetyLevel().Order() != candidates[j].SafetyLevel().Order() {
			return candidates[i].SafetyLevel().Order() < candidates[j].SafetyLevel().Order()
		}
		if candidates[i].Confidence() != candidates[j].Confidence() {
			return candidates[i].Confidence() > candidates[j].Confidence()
		}
		return candidates[i].Name() < candidates[j].Name()
	})

	return candidates
}
