package reserved

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Registry is the union of several reserved code files. It is read-only
// after construction and safe for concurrent use.
type Registry struct {
	sets   []Set
	logger zerolog.Logger
}

// NewRegistry loads every path concurrently. Any failing file fails the whole load.
func NewRegistry(ctx context.Context, paths []string, loader Loader, logger zerolog.Logger) (*Registry, error) {
	logger = logger.With().Str("component", "reserved-registry").Logger()

	logger.Info().Int("file_count", len(paths)).Msg("loading reserved code files")

	type loadResult struct {
		index int
		set   Set
		err   error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()
			set, err := loader.Load(ctx, path)
			resultChan <- loadResult{index: index, set: set, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	r := &Registry{sets: make([]Set, 0, len(paths)), logger: logger}
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("failed to load reserved code file %s: %w", paths[i], result.err)
		}
		r.sets = append(r.sets, result.set)
	}

	logger.Info().Int("total_codes", r.Size()).Msg("reserved code registry ready")

	return r, nil
}

// NewStaticRegistry wraps already-built sets.
func NewStaticRegistry(sets ...Set) *Registry {
	return &Registry{sets: sets, logger: zerolog.Nop()}
}

// Contains reports whether any loaded file holds code.
func (r *Registry) Contains(code string) bool {
	if r == nil {
		return false
	}
	for _, s := range r.sets {
		if s.Contains(code) {
			return true
		}
	}
	return false
}

// Size returns the total number of codes across files, counting duplicates.
func (r *Registry) Size() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, s := range r.sets {
		total += s.Size()
	}
	return total
}
