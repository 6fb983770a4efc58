// Package registry builds the aggregator-tag -> Aggregator map every Feed's
// Aggregator field names into (spec.md §3 invariant, §9 "global-ish state").
// It follows the construction shape of internal/infra/scraper/factory.go's
// ScraperFactory.CreateScrapers: a factory value holding shared
// dependencies, building a static map once at startup rather than via a
// package-level init()-populated global.
package registry

import (
	"fmt"

	"feedreader/internal/aggregator"
)

// Registry is a build-time, immutable map from aggregator tag to the
// Aggregator value handling it.
type Registry struct {
	byTag map[string]aggregator.Aggregator
}

// New builds a Registry from entries, keyed by each entry's tag. Later
// entries with a duplicate tag overwrite earlier ones; callers should treat
// a duplicate tag in the source slice as a configuration bug.
func New(entries map[string]aggregator.Aggregator) *Registry {
	byTag := make(map[string]aggregator.Aggregator, len(entries))
	for tag, agg := range entries {
		byTag[tag] = agg
	}
	return &Registry{byTag: byTag}
}

// Get returns the Aggregator registered under tag, or (nil, false).
func (r *Registry) Get(tag string) (aggregator.Aggregator, bool) {
	agg, ok := r.byTag[tag]
	return agg, ok
}

// Known reports whether tag is registered (Feed.Validate/spec.md §3
// invariant: "a feed's aggregator-tag is in the registry at all times it is
// used").
func (r *Registry) Known(tag string) bool {
	_, ok := r.byTag[tag]
	return ok
}

// Tags returns every registered aggregator tag, useful for configuration
// forms enumerating available source types.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.byTag))
	for tag := range r.byTag {
		tags = append(tags, tag)
	}
	return tags
}

// MustGet is a convenience for call sites that already validated the tag
// via Known (e.g. right after loading a Feed from storage) and want to
// panic loudly on a registry/storage inconsistency rather than propagate a
// nil Aggregator.
func (r *Registry) MustGet(tag string) aggregator.Aggregator {
	agg, ok := r.byTag[tag]
	if !ok {
		panic(fmt.Sprintf("registry: aggregator tag %q not registered", tag))
	}
	return agg
}
