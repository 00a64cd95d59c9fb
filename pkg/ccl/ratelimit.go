package ccl

import "math"

// CheckRateLimit checks currentCount against the highest-specificity limit
// statement in doc matching metric, given the window's start time and the
// current time (both Unix milliseconds). If the window has expired
// (elapsed beyond the limit's period), the full count is reported
// available again rather than exceeded.
func CheckRateLimit(doc *Document, metric string, currentCount int, windowStartMs, nowMs int64) *RateLimitResult {
	var matched *LimitStatement
	bestSpec := -1

	for _, limit := range doc.Limits {
		if !matchAction(limit.Action, metric) {
			continue
		}
		spec := specificity(limit.Action, "")
		if spec > bestSpec {
			bestSpec = spec
			matched = limit
		}
	}

	if matched == nil {
		return &RateLimitResult{Exceeded: false, Remaining: math.Inf(1)}
	}

	periodMs := int64(matched.PeriodSeconds) * 1000
	elapsed := nowMs - windowStartMs

	if elapsed > periodMs {
		return &RateLimitResult{Exceeded: false, Limit: matched, Remaining: float64(matched.Count)}
	}

	remaining := matched.Count - currentCount
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Exceeded:  currentCount >= matched.Count,
		Limit:     matched,
		Remaining: float64(remaining),
	}
}
