// Package covenant implements the build, sign, countersign, verify, and
// chain-narrowing lifecycle of covenant documents: signed, delegatable
// policy grants from an issuer to a beneficiary, constrained by a CCL
// document.
package covenant

import (
	"encoding/json"
	"fmt"

	"github.com/Mindburn-Labs/covenant/pkg/canonicalize"
	"github.com/Mindburn-Labs/covenant/pkg/config"
)

// ProtocolVersion is the only version this implementation builds or accepts.
const ProtocolVersion = "1.0"

// MaxConstraints, MaxChainDepth, and MaxDocumentBytes are the protocol's
// default numeric ceilings, sourced from config.DefaultLimits(). They are
// the limits Build, Verify, and Deserialize enforce unless a caller
// overrides them (BuildOptions.Limits for Build, WithLimits for Verify and
// Deserialize).
var (
	MaxConstraints   = config.DefaultLimits().MaxConstraints
	MaxChainDepth    = config.DefaultLimits().MaxChainDepth
	MaxDocumentBytes = config.DefaultLimits().MaxDocumentBytes
)

var validEnforcementTypes = map[string]bool{
	"capability": true, "monitor": true, "audit": true, "bond": true, "composite": true,
}

var validProofTypes = map[string]bool{
	"tee": true, "capability_manifest": true, "audit_log": true, "bond_reference": true, "zkp": true, "composite": true,
}

// Party identifies one side of a covenant (issuer or beneficiary).
type Party struct {
	ID        string `json:"id"`
	PublicKey string `json:"publicKey"`
	Role      string `json:"role"`
}

// ChainRef links a covenant to a parent it was delegated from.
type ChainRef struct {
	ParentID string `json:"parentId"`
	Relation string `json:"relation"`
	Depth    int    `json:"depth"`
}

// EnforcementConfig names how the granted actions are expected to be enforced.
type EnforcementConfig struct {
	Type   string                 `json:"type"`
	Config map[string]interface{} `json:"config,omitempty"`
}

// ProofConfig names what evidence backs an enforcement claim.
type ProofConfig struct {
	Type   string                 `json:"type"`
	Config map[string]interface{} `json:"config,omitempty"`
}

// Countersignature is an independent endorsement of a covenant's canonical
// form by a party other than the issuer.
type Countersignature struct {
	SignerPublicKey string `json:"signerPublicKey"`
	SignerRole      string `json:"signerRole"`
	Signature       string `json:"signature"`
	Timestamp       string `json:"timestamp"`
}

// Document is a signed covenant: a grant of actions from Issuer to
// Beneficiary, constrained by a CCL program, identified by the SHA-256 of
// its own canonical form.
type Document struct {
	ID                string                 `json:"id"`
	Version           string                 `json:"version"`
	Issuer            Party                  `json:"issuer"`
	Beneficiary       Party                  `json:"beneficiary"`
	Constraints       string                 `json:"constraints"`
	Nonce             string                 `json:"nonce"`
	CreatedAt         string                 `json:"createdAt"`
	Signature         string                 `json:"signature"`
	Obligations       []string               `json:"obligations,omitempty"`
	Chain             *ChainRef              `json:"chain,omitempty"`
	Enforcement       *EnforcementConfig     `json:"enforcement,omitempty"`
	Proof             *ProofConfig           `json:"proof,omitempty"`
	Revocation        map[string]interface{} `json:"revocation,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	ExpiresAt         string                 `json:"expiresAt,omitempty"`
	ActivatesAt       string                 `json:"activatesAt,omitempty"`
	Countersignatures []Countersignature     `json:"countersignatures,omitempty"`
}

// toMap round-trips doc through JSON to obtain a generic map, the shape
// canonicalize.JCS and field-exclusion both operate on.
func toMap(doc *Document) (map[string]interface{}, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("covenant: marshal document: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("covenant: unmarshal document: %w", err)
	}
	return m, nil
}

// CanonicalForm computes the deterministic JCS bytes of doc with its
// self-referential fields (id, signature, countersignatures) removed.
// Signing and hashing both operate over this form.
func CanonicalForm(doc *Document) ([]byte, error) {
	m, err := toMap(doc)
	if err != nil {
		return nil, err
	}
	delete(m, "id")
	delete(m, "signature")
	delete(m, "countersignatures")
	return canonicalize.JCS(m)
}

// ComputeID derives a covenant's content-addressed ID: the SHA-256 hex
// digest of its canonical form.
func ComputeID(doc *Document) (string, error) {
	canonical, err := CanonicalForm(doc)
	if err != nil {
		return "", err
	}
	return canonicalize.HashBytes(canonical), nil
}

// Serialize renders doc as JSON.
func Serialize(doc *Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("covenant: serialize: %w", err)
	}
	return string(raw), nil
}

// Deserialize parses a JSON covenant document and validates that its
// required fields and protocol version are present and well-formed.
func Deserialize(data string, opts ...Option) (*Document, error) {
	cfg := defaultOperationConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var doc Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("covenant: invalid JSON: %w", err)
	}

	if doc.ID == "" || doc.Version == "" || doc.Constraints == "" || doc.Nonce == "" || doc.CreatedAt == "" || doc.Signature == "" {
		return nil, fmt.Errorf("covenant: missing required field")
	}
	if doc.Issuer.ID == "" || doc.Issuer.PublicKey == "" || doc.Issuer.Role != "issuer" {
		return nil, fmt.Errorf(`covenant: invalid issuer: must have id, publicKey, and role="issuer"`)
	}
	if doc.Beneficiary.ID == "" || doc.Beneficiary.PublicKey == "" || doc.Beneficiary.Role != "beneficiary" {
		return nil, fmt.Errorf(`covenant: invalid beneficiary: must have id, publicKey, and role="beneficiary"`)
	}
	if doc.Version != ProtocolVersion {
		return nil, fmt.Errorf("covenant: unsupported protocol version: %s (expected %s)", doc.Version, ProtocolVersion)
	}
	if doc.Chain != nil && (doc.Chain.ParentID == "" || doc.Chain.Relation == "") {
		return nil, fmt.Errorf("covenant: invalid chain: parentId and relation are required")
	}
	if len(data) > cfg.limits.MaxDocumentBytes {
		return nil, fmt.Errorf("covenant: document size %d bytes exceeds maximum of %d bytes", len(data), cfg.limits.MaxDocumentBytes)
	}

	return &doc, nil
}
