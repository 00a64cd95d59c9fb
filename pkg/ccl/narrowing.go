package ccl

import "strings"

// patternsOverlap reports whether two patterns could ever match the same
// concrete value, by concretizing each pattern's wildcards to a literal
// segment and checking if either pattern then matches the other's
// concretized form.
func patternsOverlap(pattern1, pattern2 string) bool {
	if pattern1 == "**" || pattern2 == "**" {
		return true
	}
	if pattern1 == "*" || pattern2 == "*" {
		return true
	}
	if pattern1 == pattern2 {
		return true
	}

	concrete1 := concretize(pattern1)
	concrete2 := concretize(pattern2)

	match1 := matcherFor(pattern1)
	match2 := matcherFor(pattern2)

	return match1(pattern1, concrete2) || match2(pattern2, concrete1)
}

func concretize(pattern string) string {
	r := strings.NewReplacer("**", "x", "*", "x")
	return r.Replace(pattern)
}

func matcherFor(pattern string) func(pattern, value string) bool {
	if strings.Contains(pattern, "/") {
		return matchResource
	}
	return matchAction
}

// isSubsetSegments reports whether child's remaining segments are a
// subset of parent's remaining segments. Branch order here encodes the
// asymmetric rule that a child "*" is only a subset of a parent "*" or
// "**", never of a parent literal — do not reorder these cases.
func isSubsetSegments(child []string, ci int, parent []string, pi int) bool {
	if ci == len(child) && pi == len(parent) {
		return true
	}
	if pi == len(parent) {
		return false
	}
	if ci == len(child) {
		for k := pi; k < len(parent); k++ {
			if parent[k] != "**" {
				return false
			}
		}
		return true
	}

	pSeg := parent[pi]
	cSeg := child[ci]

	switch {
	case pSeg == "**":
		return isSubsetSegments(child, ci, parent, pi+1) || isSubsetSegments(child, ci+1, parent, pi)
	case cSeg == "**":
		return false
	case pSeg == "*":
		return isSubsetSegments(child, ci+1, parent, pi+1)
	case cSeg == "*":
		return false
	default:
		if cSeg != pSeg {
			return false
		}
		return isSubsetSegments(child, ci+1, parent, pi+1)
	}
}

// isSubsetPattern reports whether childPattern is a subset of
// parentPattern under separator ("." for actions, "/" for resources).
func isSubsetPattern(childPattern, parentPattern, separator string) bool {
	if parentPattern == "**" {
		return true
	}
	if childPattern == "**" {
		return false
	}

	childParts := splitNonEmpty(childPattern, separator)
	parentParts := splitNonEmpty(parentPattern, separator)
	return isSubsetSegments(childParts, 0, parentParts, 0)
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateNarrowing checks that every permit in child is consistent with
// and narrower than parent: it must not overlap a parent deny, and (when
// parent declares any permits at all) it must be a subset of at least one
// of them.
func ValidateNarrowing(parent, child *Document) *NarrowingResult {
	var violations []NarrowingViolation

	for _, childPermit := range child.Permits {
		for _, parentDeny := range parent.Denies {
			if patternsOverlap(childPermit.Action, parentDeny.Action) && patternsOverlap(childPermit.Resource, parentDeny.Resource) {
				violations = append(violations, NarrowingViolation{
					ChildRule:  childPermit,
					ParentRule: parentDeny,
					Reason:     "child permits '" + childPermit.Action + "' on '" + childPermit.Resource + "' which parent denies",
				})
			}
		}

		if len(parent.Permits) > 0 {
			subsetOfAny := false
			for _, parentPermit := range parent.Permits {
				if isSubsetPattern(childPermit.Action, parentPermit.Action, ".") && isSubsetPattern(childPermit.Resource, parentPermit.Resource, "/") {
					subsetOfAny = true
					break
				}
			}
			if !subsetOfAny {
				violations = append(violations, NarrowingViolation{
					ChildRule:  childPermit,
					ParentRule: parent.Permits[0],
					Reason:     "child permit '" + childPermit.Action + "' on '" + childPermit.Resource + "' is not a subset of any parent permit",
				})
			}
		}
	}

	return &NarrowingResult{Valid: len(violations) == 0, Violations: violations}
}
