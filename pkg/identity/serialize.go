package identity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Mindburn-Labs/covenant/pkg/canonicalize"
)

// Serialize renders an identity as canonical (deterministic) JSON, so two
// structurally equal identities serialize to the same bytes.
func Serialize(id *Identity) (string, error) {
	raw, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("identity: serialize: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("identity: serialize: %w", err)
	}
	return canonicalize.JCSString(m)
}

// Deserialize parses a JSON identity and validates that every required
// field is present and has the right shape. It performs no cryptographic
// validation; callers run Verify on the result.
func Deserialize(data string) (*Identity, error) {
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("identity: deserialize requires a non-empty JSON string")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("identity: invalid identity JSON: %w", err)
	}

	required := []string{
		"id", "operatorPublicKey", "model", "capabilities",
		"capabilityManifestHash", "deployment", "lineage", "version",
		"createdAt", "updatedAt", "signature",
	}
	for _, field := range required {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("identity: invalid identity JSON: missing required field %q", field)
		}
	}
	if _, ok := raw["lineage"].([]interface{}); !ok {
		return nil, fmt.Errorf("identity: invalid identity JSON: lineage must be an array")
	}
	if _, ok := raw["capabilities"].([]interface{}); !ok {
		return nil, fmt.Errorf("identity: invalid identity JSON: capabilities must be an array")
	}
	if _, ok := raw["version"].(float64); !ok {
		return nil, fmt.Errorf("identity: invalid identity JSON: version must be a number")
	}

	var id Identity
	if err := json.Unmarshal([]byte(data), &id); err != nil {
		return nil, fmt.Errorf("identity: invalid identity JSON: %w", err)
	}
	return &id, nil
}
