package ccl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mindburn-Labs/covenant/pkg/ccl"
)

func TestSpecificity_LiteralBeatsWildcardBeatsDoubleWildcard(t *testing.T) {
	lit := ccl.Evaluate(mustParse(t, "permit data.read on /x"), "data.read", "/x", nil)
	assert.True(t, lit.Permitted)

	// A literal deny (score 6) outranks a single-wildcard permit (score 5).
	literalOverWildcard := ccl.Evaluate(mustParse(t, "permit data.* on /x\ndeny data.read on /x"), "data.read", "/x", nil)
	assert.False(t, literalOverWildcard.Permitted)

	// A single-wildcard permit (score 5) outranks a double-wildcard deny (score 4).
	wildcardOverDouble := ccl.Evaluate(mustParse(t, "deny data.** on /x\npermit data.* on /x"), "data.read", "/x", nil)
	assert.True(t, wildcardOverDouble.Permitted)
}

func TestNarrowing_OverlapAlwaysTrueForDoubleWildcard(t *testing.T) {
	parent := mustParse(t, "deny ** on /data/secret")
	child := mustParse(t, "permit delete on /data/secret")
	result := ccl.ValidateNarrowing(parent, child)
	assert.False(t, result.Valid)
}
