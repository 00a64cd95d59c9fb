package identity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/covenant/pkg/identity"
)

func TestSerializeDeserialize_RoundTripsVerifiableIdentity(t *testing.T) {
	opts, _ := createTestOptions(t)
	id, err := identity.Create(opts)
	require.NoError(t, err)

	serialized, err := identity.Serialize(id)
	require.NoError(t, err)

	parsed, err := identity.Deserialize(serialized)
	require.NoError(t, err)
	assert.Equal(t, id.ID, parsed.ID)
	assert.Equal(t, id.Capabilities, parsed.Capabilities)
	require.Len(t, parsed.Lineage, 1)
	assert.Nil(t, parsed.Lineage[0].ParentHash)

	result := identity.Verify(parsed)
	for _, c := range result.Checks {
		assert.True(t, c.Passed, "check %s failed after round trip: %s", c.Name, c.Message)
	}
	assert.True(t, result.Valid)
}

func TestSerialize_IsDeterministic(t *testing.T) {
	opts, _ := createTestOptions(t)
	id, err := identity.Create(opts)
	require.NoError(t, err)

	s1, err := identity.Serialize(id)
	require.NoError(t, err)
	s2, err := identity.Serialize(id)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestDeserialize_RejectsEmptyInput(t *testing.T) {
	_, err := identity.Deserialize("   ")
	require.Error(t, err)
}

func TestDeserialize_RejectsMissingRequiredField(t *testing.T) {
	opts, _ := createTestOptions(t)
	id, err := identity.Create(opts)
	require.NoError(t, err)

	serialized, err := identity.Serialize(id)
	require.NoError(t, err)

	for _, field := range []string{"id", "operatorPublicKey", "lineage", "signature"} {
		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(serialized), &raw))
		delete(raw, field)
		mangled, merr := json.Marshal(raw)
		require.NoError(t, merr)

		_, derr := identity.Deserialize(string(mangled))
		assert.Error(t, derr, "removing %q must fail deserialization", field)
	}
}

func TestDeserialize_RejectsNonArrayLineage(t *testing.T) {
	opts, _ := createTestOptions(t)
	id, err := identity.Create(opts)
	require.NoError(t, err)

	serialized, err := identity.Serialize(id)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(serialized), &raw))
	raw["lineage"] = "not-an-array"
	mangled, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = identity.Deserialize(string(mangled))
	require.Error(t, err)
}
