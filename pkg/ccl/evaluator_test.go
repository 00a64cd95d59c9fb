package ccl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/covenant/pkg/ccl"
)

func mustParse(t *testing.T, source string) *ccl.Document {
	t.Helper()
	doc, err := ccl.Parse(source)
	require.NoError(t, err)
	return doc
}

func TestEvaluate_DefaultDenyWhenNoRuleMatches(t *testing.T) {
	doc := mustParse(t, "permit read on /data/public")
	result := ccl.Evaluate(doc, "write", "/data/public", nil)
	assert.False(t, result.Permitted)
	assert.Contains(t, result.Reason, "default deny")
}

func TestEvaluate_MoreSpecificRuleWins(t *testing.T) {
	doc := mustParse(t, "permit read on /data/**\ndeny read on /data/secret")
	result := ccl.Evaluate(doc, "read", "/data/secret", nil)
	assert.False(t, result.Permitted)
	assert.Equal(t, "deny", result.MatchedRule.(*ccl.PermitDenyStatement).Kind)
}

func TestEvaluate_DenyWinsAtEqualSpecificity(t *testing.T) {
	doc := mustParse(t, "permit read on /data\ndeny read on /data")
	result := ccl.Evaluate(doc, "read", "/data", nil)
	assert.False(t, result.Permitted)
}

func TestEvaluate_ConditionGatesMatch(t *testing.T) {
	doc := mustParse(t, "permit read on /data when user.role = 'admin'")

	denied := ccl.Evaluate(doc, "read", "/data", map[string]interface{}{
		"user": map[string]interface{}{"role": "guest"},
	})
	assert.False(t, denied.Permitted)

	allowed := ccl.Evaluate(doc, "read", "/data", map[string]interface{}{
		"user": map[string]interface{}{"role": "admin"},
	})
	assert.True(t, allowed.Permitted)
}

func TestEvaluate_ObligationsReportedButDoNotGateDecision(t *testing.T) {
	doc := mustParse(t, "permit read on /data\nrequire read on /data")
	result := ccl.Evaluate(doc, "read", "/data", nil)
	assert.True(t, result.Permitted)
	assert.Len(t, result.AllMatches, 2)
}

func TestEvaluate_MissingFieldVacuousTruthForNegatedOps(t *testing.T) {
	doc := mustParse(t, "permit read on /data when tags not_contains 'blocked'")
	result := ccl.Evaluate(doc, "read", "/data", map[string]interface{}{})
	assert.True(t, result.Permitted, "a condition about an absent field must not block the permit")
}

func TestEvaluate_MissingFieldFalseForPositiveOps(t *testing.T) {
	doc := mustParse(t, "permit read on /data when tags contains 'ok'")
	result := ccl.Evaluate(doc, "read", "/data", map[string]interface{}{})
	assert.False(t, result.Permitted)
}

func TestEvaluate_MatchesOperatorUsesRegex(t *testing.T) {
	doc := mustParse(t, `permit read on /data when path matches '^/data/[0-9]+$'`)

	ok := ccl.Evaluate(doc, "read", "/data", map[string]interface{}{"path": "/data/42"})
	assert.True(t, ok.Permitted)

	notOk := ccl.Evaluate(doc, "read", "/data", map[string]interface{}{"path": "/data/abc"})
	assert.False(t, notOk.Permitted)
}

func TestCheckRateLimit_ExceedsWithinWindow(t *testing.T) {
	doc := mustParse(t, "limit api.call 10 per 1 minute")
	result := ccl.CheckRateLimit(doc, "api.call", 10, 0, 5000)
	assert.True(t, result.Exceeded)
	assert.Equal(t, 0.0, result.Remaining)
}

func TestCheckRateLimit_WindowExpiredResetsCount(t *testing.T) {
	doc := mustParse(t, "limit api.call 10 per 1 minute")
	result := ccl.CheckRateLimit(doc, "api.call", 10, 0, 61_000)
	assert.False(t, result.Exceeded)
	assert.Equal(t, 10.0, result.Remaining)
}

func TestCheckRateLimit_NoMatchingLimitIsUnbounded(t *testing.T) {
	doc := mustParse(t, "limit api.call 10 per 1 minute")
	result := ccl.CheckRateLimit(doc, "other.metric", 0, 0, 0)
	assert.False(t, result.Exceeded)
	assert.True(t, result.Remaining > 1e300)
}

func TestMerge_DenyDominates(t *testing.T) {
	parent := mustParse(t, "deny write on /data/secret")
	child := mustParse(t, "permit write on /data/secret")

	merged := ccl.Merge(parent, child)
	result := ccl.Evaluate(merged, "write", "/data/secret", nil)
	assert.False(t, result.Permitted)
}

func TestMerge_LimitsTakeLowerCount(t *testing.T) {
	parent := mustParse(t, "limit api.call 100 per 1 hour")
	child := mustParse(t, "limit api.call 50 per 1 hour")

	merged := ccl.Merge(parent, child)
	require.Len(t, merged.Limits, 1)
	assert.Equal(t, 50, merged.Limits[0].Count)
}

func TestMerge_EqualCountKeepsParentEntry(t *testing.T) {
	parent := mustParse(t, "limit api.call 50 per 1 hour")
	child := mustParse(t, "limit api.call 50 per 1 day")

	merged := ccl.Merge(parent, child)
	require.Len(t, merged.Limits, 1)
	assert.Equal(t, 3600, merged.Limits[0].PeriodSeconds)
}

func TestValidateNarrowing_ChildCannotPermitWhatParentDenies(t *testing.T) {
	parent := mustParse(t, "deny delete on /data/**\npermit read on /data/**")
	child := mustParse(t, "permit delete on /data/file1")

	result := ccl.ValidateNarrowing(parent, child)
	assert.False(t, result.Valid)
	// One violation for overlapping the parent deny, one for not being a
	// subset of the parent's only permit (read, not delete).
	require.Len(t, result.Violations, 2)
}

func TestValidateNarrowing_ChildMustBeSubsetOfSomeParentPermit(t *testing.T) {
	parent := mustParse(t, "permit read on /data/public")
	child := mustParse(t, "permit read on /data/secret")

	result := ccl.ValidateNarrowing(parent, child)
	assert.False(t, result.Valid)
}

func TestValidateNarrowing_NoParentPermitsSkipsSubsetCheck(t *testing.T) {
	parent := mustParse(t, "deny delete on /data/secret")
	child := mustParse(t, "permit read on /data/anything")

	result := ccl.ValidateNarrowing(parent, child)
	assert.True(t, result.Valid)
}

func TestValidateNarrowing_ChildWildcardNotSubsetOfParentLiteral(t *testing.T) {
	parent := mustParse(t, "permit read on /data/public")
	child := mustParse(t, "permit * on /data/public")

	result := ccl.ValidateNarrowing(parent, child)
	assert.False(t, result.Valid)
}

func TestValidateNarrowing_ChildSubsetOfParentWildcard(t *testing.T) {
	parent := mustParse(t, "permit read on /data/**")
	child := mustParse(t, "permit read on /data/public/file")

	result := ccl.ValidateNarrowing(parent, child)
	assert.True(t, result.Valid)
}
