package covenant

import (
	"fmt"

	"github.com/Mindburn-Labs/covenant/pkg/ccl"
)

// ChainViolation restates a ccl.NarrowingViolation in terms a covenant
// caller can report without reaching into the CCL package.
type ChainViolation struct {
	ChildAction    string
	ChildResource  string
	ParentAction   string
	ParentResource string
	Reason         string
}

// ChainNarrowingResult is the outcome of validating that a child covenant
// only narrows, never broadens, its parent's constraints.
type ChainNarrowingResult struct {
	Valid      bool
	Violations []ChainViolation
}

// ValidateChainNarrowing parses both covenants' CCL constraints and checks
// that child only narrows parent.
func ValidateChainNarrowing(child, parent *Document) (*ChainNarrowingResult, error) {
	parentCCL, err := ccl.Parse(parent.Constraints)
	if err != nil {
		return nil, fmt.Errorf("covenant: parse parent constraints: %w", err)
	}
	childCCL, err := ccl.Parse(child.Constraints)
	if err != nil {
		return nil, fmt.Errorf("covenant: parse child constraints: %w", err)
	}

	result := ccl.ValidateNarrowing(parentCCL, childCCL)

	violations := make([]ChainViolation, 0, len(result.Violations))
	for _, v := range result.Violations {
		violations = append(violations, ChainViolation{
			ChildAction:    v.ChildRule.Action,
			ChildResource:  v.ChildRule.Resource,
			ParentAction:   v.ParentRule.Action,
			ParentResource: v.ParentRule.Resource,
			Reason:         v.Reason,
		})
	}

	return &ChainNarrowingResult{Valid: result.Valid, Violations: violations}, nil
}
