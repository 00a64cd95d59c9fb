package ccl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/covenant/pkg/ccl"
)

func TestParse_RejectsEmptySource(t *testing.T) {
	_, err := ccl.Parse("   \n\n  ")
	require.Error(t, err)

	var synErr *ccl.SyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Equal(t, 1, synErr.Line)
}

func TestParse_SimplePermit(t *testing.T) {
	doc, err := ccl.Parse("permit read on /data/public")
	require.NoError(t, err)
	require.Len(t, doc.Permits, 1)

	stmt := doc.Permits[0]
	assert.Equal(t, "read", stmt.Action)
	assert.Equal(t, "/data/public", stmt.Resource)
	assert.Equal(t, "high", stmt.Severity)
	assert.Nil(t, stmt.Condition)
}

func TestParse_DenyWithConditionAndSeverity(t *testing.T) {
	doc, err := ccl.Parse(`deny delete on /data/** when user.role = 'guest' severity critical`)
	require.NoError(t, err)
	require.Len(t, doc.Denies, 1)

	stmt := doc.Denies[0]
	assert.Equal(t, "delete", stmt.Action)
	assert.Equal(t, "/data/**", stmt.Resource)
	assert.Equal(t, "critical", stmt.Severity)
	require.NotNil(t, stmt.Condition)

	cond, ok := stmt.Condition.(*ccl.Condition)
	require.True(t, ok)
	assert.Equal(t, "user.role", cond.Field)
	assert.Equal(t, "=", cond.Operator)
	assert.Equal(t, "guest", cond.Value)
}

func TestParse_RequireStatement(t *testing.T) {
	doc, err := ccl.Parse("require log.audit on /data/sensitive")
	require.NoError(t, err)
	require.Len(t, doc.Obligations, 1)
	assert.Equal(t, "log.audit", doc.Obligations[0].Action)
}

func TestParse_LimitStatement(t *testing.T) {
	doc, err := ccl.Parse("limit api.call 100 per 1 hour")
	require.NoError(t, err)
	require.Len(t, doc.Limits, 1)
	assert.Equal(t, "api.call", doc.Limits[0].Action)
	assert.Equal(t, 100, doc.Limits[0].Count)
	assert.Equal(t, 3600, doc.Limits[0].PeriodSeconds)
}

func TestParse_WildcardActions(t *testing.T) {
	doc, err := ccl.Parse("permit ** on /anything\npermit data.* on /data")
	require.NoError(t, err)
	require.Len(t, doc.Permits, 2)
	assert.Equal(t, "**", doc.Permits[0].Action)
	assert.Equal(t, "data.*", doc.Permits[1].Action)
}

func TestParse_AndOrFlattening(t *testing.T) {
	doc, err := ccl.Parse(`permit read on /data when a = '1' and b = '2' and c = '3'`)
	require.NoError(t, err)

	compound, ok := doc.Permits[0].Condition.(*ccl.CompoundCondition)
	require.True(t, ok)
	assert.Equal(t, "and", compound.Type)
	assert.Len(t, compound.Conditions, 3)
}

func TestParse_NotExpression(t *testing.T) {
	doc, err := ccl.Parse(`permit read on /data when not a = '1'`)
	require.NoError(t, err)

	compound, ok := doc.Permits[0].Condition.(*ccl.CompoundCondition)
	require.True(t, ok)
	assert.Equal(t, "not", compound.Type)
	assert.Len(t, compound.Conditions, 1)
}

func TestParse_ArrayValue(t *testing.T) {
	doc, err := ccl.Parse(`permit read on /data when role in ['admin', 'owner', 42]`)
	require.NoError(t, err)

	cond, ok := doc.Permits[0].Condition.(*ccl.Condition)
	require.True(t, ok)
	assert.Equal(t, []string{"admin", "owner", "42"}, cond.Value)
}

func TestParse_InvalidSeverityErrors(t *testing.T) {
	_, err := ccl.Parse("permit read on /data severity extreme")
	require.Error(t, err)
}

func TestParse_CommentsAndBlankLinesIgnored(t *testing.T) {
	doc, err := ccl.Parse("# a comment\n\npermit read on /data\n# trailing\n")
	require.NoError(t, err)
	require.Len(t, doc.Permits, 1)
}

func TestParse_MissingOnKeywordErrors(t *testing.T) {
	_, err := ccl.Parse("permit read /data")
	require.Error(t, err)
}
