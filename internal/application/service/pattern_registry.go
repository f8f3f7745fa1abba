package service

import (
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// patternFile is the on-disk shape of the pattern database.
type patternFile struct {
	Patterns []patternSpec `yaml:"patterns"`
}

type patternSpec struct {
	ID                 string  `yaml:"id"`
	Match              string  `yaml:"match"`
	Category           string  `yaml:"category"`
	DefaultSeverity    string  `yaml:"default_severity"`
	BaseConfidence     float64 `yaml:"base_confidence"`
	ResolutionStrategy string  `yaml:"resolution_strategy"`
	HighBusinessImpact bool    `yaml:"high_business_impact"`
}

// PatternRegistry holds the known error signatures and answers match queries.
// The pattern set is replaced atomically on load, so readers never see a
// partially applied reload.
type PatternRegistry struct {
	mu       sync.RWMutex
	path     string
	patterns []*entity.PatternEntry
	watcher  *fsnotify.Watcher
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewPatternRegistry creates a registry backed by the given YAML file. The
// initial load is strict: a missing or unparseable file is a startup error.
func NewPatternRegistry(path string) (*PatternRegistry, error) {
	r := &PatternRegistry{
		path: path,
		done: make(chan struct{}),
	}

	patterns, err := loadPatternFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern file: %w", err)
	}
	r.patterns = patterns

	return r, nil
}

// loadPatternFile reads and parses the pattern file. Individual malformed
// entries are skipped with a warning; a file-level parse error is returned.
func loadPatternFile(path string) ([]*entity.PatternEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid pattern file syntax: %w", err)
	}

	patterns := make([]*entity.PatternEntry, 0, len(file.Patterns))
	for _, spec := range file.Patterns {
		severity, err := valueobject.NewEventLevel(spec.DefaultSeverity)
		if err != nil {
			slogger.WarnNoCtx("Skipping pattern with invalid severity", slogger.Fields2(
				"pattern_id", spec.ID,
				"severity", spec.DefaultSeverity,
			))
			continue
		}

		entry, err := entity.NewPatternEntry(
			spec.ID,
			spec.Match,
			spec.Category,
			severity,
			spec.BaseConfidence,
			spec.ResolutionStrategy,
			spec.HighBusinessImpact,
		)
		if err != nil {
			slogger.WarnNoCtx("Skipping malformed pattern entry", slogger.Fields2(
				"pattern_id", spec.ID,
				"error", err.Error(),
			))
			continue
		}

		patterns = append(patterns, entry)
	}

	return patterns, nil
}

// Match returns all patterns whose expression matches the event message,
// ordered by specificity (longer expressions first) then base confidence
// descending. An empty result is not an error.
func (r *PatternRegistry) Match(message string) []*entity.PatternEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*entity.PatternEntry
	for _, p := range r.patterns {
		if p.Matches(message) {
			matches = append(matches, p)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Specificity() != matches[j].Specificity() {
			return matches[i].Specificity() > matches[j].Specificity()
		}
		return matches[i].BaseConfidence() > matches[j].BaseConfidence()
	})

	return matches
}

// Count returns the number of loaded patterns.
func (r *PatternRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}

// Reload re-reads the pattern file and swaps the pattern set. On failure the
// previous set stays in effect.
func (r *PatternRegistry) Reload(ctx context.Context) error {
	patterns, err := loadPatternFile(r.path)
	if err != nil {
		slogger.ErrorWithError(ctx, err, "Pattern reload failed, keeping previous set", slogger.Fields{
			"path": r.path,
		})
		return err
	}

	r.mu.Lock()
	r.patterns = patterns
	r.mu.Unlock()

	slogger.Info(ctx, "Pattern registry reloaded", slogger.Fields2(
		"path", r.path,
		"pattern_count", len(patterns),
	))
	return nil
}

// Watch starts watching the pattern file for changes and reloads on write.
func (r *PatternRegistry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create pattern watcher: %w", err)
	}

	if err := watcher.Add(r.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch pattern file %s: %w", r.path, err)
	}

	r.watcher = watcher
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					// Reload errors keep the previous set; nothing else to do here.
					_ = r.Reload(ctx)
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slogger.ErrorWithError(ctx, watchErr, "Pattern watcher error", slogger.Fields{
					"path": r.path,
				})
			case <-r.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Close stops the file watcher if one is running.
func (r *PatternRegistry) Close() error {
	close(r.done)
	var err error
	if r.watcher != nil {
		err = r.watcher.Close()
	}
	r.wg.Wait()
	return err
}
