// Package runlimit implements the adaptive per-run item budget (spec.md
// §4.2, §9 "Run limiter"): a pure function of (clock, daily_limit,
// collected_today) with no side effects, so it is unit-testable with a
// frozen clock rather than wall time.
package runlimit

import "math"

// Compute returns the number of items an aggregation run should fetch this
// time, given cap (Feed.DailyLimit), collected (items already persisted for
// this feed today), and secondsSinceMidnight/hour derived from the run's
// start time in the feed owner's reporting timezone (UTC is the spec's
// assumption; callers convert beforehand if needed).
//
// The formula is copied verbatim from spec.md §4.2:
//
//	if collected >= cap: return 0
//	target     = ceil(cap * seconds_since_midnight / 86400)
//	remaining  = cap - collected
//	base       = max(1, floor(cap / 48))
//	propor     = floor(remaining * 0.20)
//	gap        = max(0, target - collected)
//	limit      = max(base, gap, propor)
//	if hour < 10:  limit = max(limit, floor(remaining * 0.40))
//	return min(limit, remaining)
func Compute(cap, collected, secondsSinceMidnight, hour int) int {
	if collected >= cap {
		return 0
	}

	target := int(math.Ceil(float64(cap) * float64(secondsSinceMidnight) / 86400))
	remaining := cap - collected
	base := int(math.Floor(float64(cap) / 48))
	if base < 1 {
		base = 1
	}
	propor := int(math.Floor(float64(remaining) * 0.20))
	gap := target - collected
	if gap < 0 {
		gap = 0
	}

	limit := max(base, gap, propor)
	if hour < 10 {
		morningBoost := int(math.Floor(float64(remaining) * 0.40))
		limit = max(limit, morningBoost)
	}

	return min(limit, remaining)
}
