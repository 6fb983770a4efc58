package aggregator

import (
	"math/rand"
	"time"
)

// MaxArticleAge is the default cutoff: items older than this are dropped by
// DefaultFilter (spec.md §4.2 step 4).
const MaxArticleAge = 60 * 24 * time.Hour

// JitterWindow bounds the random offset added to each accepted article's
// timestamp so stable sort order differs from source order.
const JitterWindow = 30 * time.Second

// DefaultFilter implements the default filter_articles behavior: drop items
// older than MaxArticleAge, then reset every surviving item's Date to now
// plus or minus a small random jitter. Per-site adapters embed this and
// layer title/URL blocklists on top (spec.md §4.3).
type DefaultFilter struct {
	Now  func() time.Time
	Rand *rand.Rand
}

// NewDefaultFilter builds a DefaultFilter using the real clock and a
// time-seeded source; adapters under test substitute Now/Rand for
// determinism (spec.md §9 "Run limiter" frozen-clock guidance applies
// equally here).
func NewDefaultFilter() DefaultFilter {
	return DefaultFilter{
		Now:  time.Now,
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Apply drops stale articles and jitters the rest. Before overwriting Date,
// the original value is stashed in Hints under hintOriginalPublishedAt so
// EnrichArticles can still recover the true publish date for
// FinalArticle.OriginalPublishedAt (spec.md §3) even though Date itself no
// longer reflects it.
func (f DefaultFilter) Apply(articles []RawArticle) []RawArticle {
	now := f.Now()
	cutoff := now.Add(-MaxArticleAge)

	kept := make([]RawArticle, 0, len(articles))
	for _, a := range articles {
		if a.Date.Before(cutoff) {
			continue
		}
		jittered := a
		hints := make(map[string]string, len(a.Hints)+1)
		for k, v := range a.Hints {
			hints[k] = v
		}
		hints[hintOriginalPublishedAt] = a.Date.UTC().Format(time.RFC3339Nano)
		jittered.Hints = hints
		jittered.Date = jitter(now, f.Rand, JitterWindow)
		kept = append(kept, jittered)
	}
	return kept
}

func jitter(base time.Time, r *rand.Rand, window time.Duration) time.Time {
	if window <= 0 {
		return base
	}
	offset := time.Duration(r.Int63n(int64(2*window))) - window
	return base.Add(offset)
}
