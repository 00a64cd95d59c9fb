package ccl

import "strings"

// matchSegments recursively matches a dot/slash-split pattern against a
// split target, where "*" consumes exactly one segment and "**" consumes
// zero or more (with backtracking).
func matchSegments(pattern []string, pi int, target []string, ti int) bool {
	for pi < len(pattern) && ti < len(target) {
		switch pattern[pi] {
		case "**":
			return matchSegments(pattern, pi+1, target, ti) || matchSegments(pattern, pi, target, ti+1)
		case "*":
			pi++
			ti++
		default:
			if pattern[pi] != target[ti] {
				return false
			}
			pi++
			ti++
		}
	}
	for pi < len(pattern) && pattern[pi] == "**" {
		pi++
	}
	return pi == len(pattern) && ti == len(target)
}

// matchAction checks a dot-separated action pattern (which may contain
// "*" and "**" segments) against a concrete dot-separated action.
func matchAction(pattern, action string) bool {
	return matchSegments(strings.Split(pattern, "."), 0, strings.Split(action, "."), 0)
}

// matchResource checks a slash-separated resource pattern against a
// concrete resource path, after stripping leading/trailing slashes.
func matchResource(pattern, resource string) bool {
	normPattern := strings.Trim(pattern, "/")
	normResource := strings.Trim(resource, "/")

	if normPattern == "" && normResource == "" {
		return true
	}
	if normPattern == "**" {
		return true
	}
	if normPattern == "*" && !strings.Contains(normResource, "/") {
		return true
	}

	return matchSegments(strings.Split(normPattern, "/"), 0, strings.Split(normResource, "/"), 0)
}

// specificity scores a rule's action/resource pattern pair: literal
// segments score 2, "*" scores 1, "**" scores 0, summed across both
// patterns. Higher scores win conflicting-rule resolution.
func specificity(actionPattern, resourcePattern string) int {
	score := 0
	for _, seg := range strings.Split(actionPattern, ".") {
		score += segmentScore(seg)
	}
	normResource := strings.Trim(resourcePattern, "/")
	if normResource != "" {
		for _, seg := range strings.Split(normResource, "/") {
			score += segmentScore(seg)
		}
	}
	return score
}

func segmentScore(seg string) int {
	switch seg {
	case "**":
		return 0
	case "*":
		return 1
	default:
		return 2
	}
}
