// Package identity implements the agent-identity lifecycle: creation,
// reputation-weighted evolution, and verification of an append-only,
// hash-linked lineage of signed changes to an agent's operator, model
// attestation, capability manifest, and deployment context.
package identity

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Mindburn-Labs/covenant/pkg/canonicalize"
	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

// ModelAttestation describes the model backing an agent identity.
type ModelAttestation struct {
	Provider string                 `json:"provider"`
	ModelID  string                 `json:"modelId"`
	Extra    map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extra alongside the named fields, since model
// attestations carry provider-specific metadata the protocol itself does
// not interpret.
func (m ModelAttestation) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"provider": m.Provider, "modelId": m.ModelID}
	for k, v := range m.Extra {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON recovers Provider/ModelID plus any other attestation
// fields into Extra.
func (m *ModelAttestation) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if provider, ok := raw["provider"].(string); ok {
		m.Provider = provider
	}
	if modelID, ok := raw["modelId"].(string); ok {
		m.ModelID = modelID
	}
	delete(raw, "provider")
	delete(raw, "modelId")
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// Deployment describes where and how an agent runs.
type Deployment struct {
	Runtime string                 `json:"runtime"`
	Extra   map[string]interface{} `json:"-"`
}

func (d Deployment) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"runtime": d.Runtime}
	for k, v := range d.Extra {
		out[k] = v
	}
	return json.Marshal(out)
}

func (d *Deployment) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if runtime, ok := raw["runtime"].(string); ok {
		d.Runtime = runtime
	}
	delete(raw, "runtime")
	if len(raw) > 0 {
		d.Extra = raw
	}
	return nil
}

// LineageEntry is one signed, hash-linked step in an identity's evolution.
type LineageEntry struct {
	IdentityHash           string  `json:"identityHash"`
	ChangeType             string  `json:"changeType"`
	Description            string  `json:"description"`
	Timestamp              string  `json:"timestamp"`
	ParentHash             *string `json:"parentHash"`
	ReputationCarryForward float64 `json:"reputationCarryForward"`
	Signature              string  `json:"signature"`
}

// Identity is a versioned, operator-signed agent identity with a complete
// lineage of prior evolutions.
type Identity struct {
	ID                     string           `json:"id"`
	OperatorPublicKey      string           `json:"operatorPublicKey"`
	OperatorIdentifier     string           `json:"operatorIdentifier,omitempty"`
	Model                  ModelAttestation `json:"model"`
	Capabilities           []string         `json:"capabilities"`
	CapabilityManifestHash string           `json:"capabilityManifestHash"`
	Deployment             Deployment       `json:"deployment"`
	Lineage                []LineageEntry   `json:"lineage"`
	Version                int              `json:"version"`
	CreatedAt              string           `json:"createdAt"`
	UpdatedAt              string           `json:"updatedAt"`
	Signature              string           `json:"signature"`
}

// ComputeCapabilityManifestHash hashes a capability list after sorting it,
// so the hash is independent of input order.
func ComputeCapabilityManifestHash(capabilities []string) (string, error) {
	sorted := append([]string(nil), capabilities...)
	sort.Strings(sorted)
	canonical, err := canonicalize.JCS(sorted)
	if err != nil {
		return "", fmt.Errorf("identity: canonicalize capabilities: %w", err)
	}
	return canonicalize.HashBytes(canonical), nil
}

// compositeBody is the exact field set hashed into an identity's composite
// ID — narrower than the full Identity struct, excluding id/signature and
// anything added later that the hash must not cover.
type compositeBody struct {
	OperatorPublicKey      string           `json:"operatorPublicKey"`
	Model                  ModelAttestation `json:"model"`
	CapabilityManifestHash string           `json:"capabilityManifestHash"`
	Deployment             Deployment       `json:"deployment"`
	Lineage                []LineageEntry   `json:"lineage"`
}

// ComputeIdentityHash computes the composite hash over the identity's
// defining fields: operator key, model attestation, capability manifest
// hash, deployment, and the full lineage chain.
func ComputeIdentityHash(body *Identity) (string, error) {
	composite := compositeBody{
		OperatorPublicKey:      body.OperatorPublicKey,
		Model:                  body.Model,
		CapabilityManifestHash: body.CapabilityManifestHash,
		Deployment:             body.Deployment,
		Lineage:                body.Lineage,
	}
	raw, err := json.Marshal(composite)
	if err != nil {
		return "", fmt.Errorf("identity: marshal composite body: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("identity: unmarshal composite body: %w", err)
	}
	canonical, err := canonicalize.JCS(m)
	if err != nil {
		return "", fmt.Errorf("identity: canonicalize composite body: %w", err)
	}
	return canonicalize.HashBytes(canonical), nil
}

// signingPayload is the full identity minus its own signature: the
// payload the operator key signs.
func signingPayload(id *Identity) ([]byte, error) {
	raw, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("identity: marshal: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("identity: unmarshal: %w", err)
	}
	delete(m, "signature")
	return canonicalize.JCS(m)
}

func lineageSigningPayload(entry LineageEntry) ([]byte, error) {
	unsigned := entry
	unsigned.Signature = ""
	raw, err := json.Marshal(unsigned)
	if err != nil {
		return nil, fmt.Errorf("identity: marshal lineage entry: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("identity: unmarshal lineage entry: %w", err)
	}
	delete(m, "signature")
	return canonicalize.JCS(m)
}

func signLineageEntry(entry LineageEntry, privateKey []byte) (LineageEntry, error) {
	payload, err := lineageSigningPayload(entry)
	if err != nil {
		return LineageEntry{}, err
	}
	sig, err := crypto.Sign(payload, privateKey)
	if err != nil {
		return LineageEntry{}, fmt.Errorf("identity: sign lineage entry: %w", err)
	}
	entry.Signature = hex.EncodeToString(sig)
	return entry, nil
}
