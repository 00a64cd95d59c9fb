package covenant

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Mindburn-Labs/covenant/pkg/audit"
	"github.com/Mindburn-Labs/covenant/pkg/canonicalize"
	"github.com/Mindburn-Labs/covenant/pkg/ccl"
	"github.com/Mindburn-Labs/covenant/pkg/config"
	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

// BuildError reports a validation failure while assembling a covenant,
// naming the offending field.
type BuildError struct {
	Field   string
	Message string
}

func (e *BuildError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("covenant: %s", e.Message)
	}
	return fmt.Sprintf("covenant: %s (field %q)", e.Message, e.Field)
}

func buildErr(field, format string, args ...interface{}) error {
	return &BuildError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BuildOptions assembles the inputs needed to build a new signed covenant.
type BuildOptions struct {
	Issuer      Party
	Beneficiary Party
	Constraints string
	PrivateKey  []byte // 32 or 64 bytes, Ed25519
	Obligations []string
	Chain       *ChainRef
	Enforcement *EnforcementConfig
	Proof       *ProofConfig
	Revocation  map[string]interface{}
	Metadata    map[string]interface{}
	ExpiresAt   string
	ActivatesAt string

	// Limits overrides the numeric ceilings this build enforces. The zero
	// value means "use the package defaults" (config.DefaultLimits()).
	Limits config.Limits
	// Logger, when set, records a COVENANT_BUILT event once the document is
	// signed. Defaults to a no-op.
	Logger audit.Logger
}

func (opts BuildOptions) effectiveLimits() config.Limits {
	if opts.Limits.MaxDocumentBytes == 0 && opts.Limits.MaxConstraints == 0 && opts.Limits.MaxChainDepth == 0 {
		return config.Limits{
			MaxDocumentBytes: MaxDocumentBytes,
			MaxConstraints:   MaxConstraints,
			MaxChainDepth:    MaxChainDepth,
		}
	}
	return opts.Limits
}

func (opts BuildOptions) logger() audit.Logger {
	if opts.Logger == nil {
		return audit.NopLogger{}
	}
	return opts.Logger
}

// Build validates opts, parses and bounds-checks the CCL constraints,
// assembles the covenant body, signs its canonical form with the issuer
// key, and derives the document ID.
func Build(opts BuildOptions) (*Document, error) {
	if opts.Issuer.ID == "" {
		return nil, buildErr("issuer.id", "issuer.id is required")
	}
	if opts.Issuer.PublicKey == "" {
		return nil, buildErr("issuer.publicKey", "issuer.publicKey is required (hex-encoded Ed25519 public key)")
	}
	if opts.Issuer.Role != "issuer" {
		return nil, buildErr("issuer.role", `issuer.role must be "issuer"`)
	}

	if opts.Beneficiary.ID == "" {
		return nil, buildErr("beneficiary.id", "beneficiary.id is required")
	}
	if opts.Beneficiary.PublicKey == "" {
		return nil, buildErr("beneficiary.publicKey", "beneficiary.publicKey is required")
	}
	if opts.Beneficiary.Role != "beneficiary" {
		return nil, buildErr("beneficiary.role", `beneficiary.role must be "beneficiary"`)
	}

	if strings.TrimSpace(opts.Constraints) == "" {
		return nil, buildErr("constraints", "constraints is required; provide a CCL string, e.g. permit read on '/data/**'")
	}

	if len(opts.PrivateKey) != 32 && len(opts.PrivateKey) != 64 {
		return nil, buildErr("privateKey", "privateKey must be 32 or 64 bytes (Ed25519), got %d bytes", len(opts.PrivateKey))
	}

	limits := opts.effectiveLimits()

	parsed, err := ccl.Parse(opts.Constraints)
	if err != nil {
		return nil, buildErr("constraints", "invalid CCL constraints: %v", err)
	}
	if len(parsed.Statements) > limits.MaxConstraints {
		return nil, buildErr("constraints", "constraints exceed maximum of %d statements (got %d)", limits.MaxConstraints, len(parsed.Statements))
	}

	if opts.Chain != nil {
		if opts.Chain.ParentID == "" {
			return nil, buildErr("chain.parentId", "chain.parentId is required")
		}
		if opts.Chain.Relation == "" {
			return nil, buildErr("chain.relation", "chain.relation is required")
		}
		if opts.Chain.Depth < 1 {
			return nil, buildErr("chain.depth", "chain.depth must be a positive integer")
		}
		if opts.Chain.Depth > limits.MaxChainDepth {
			return nil, buildErr("chain.depth", "chain.depth exceeds maximum of %d (got %d)", limits.MaxChainDepth, opts.Chain.Depth)
		}
	}

	if opts.Enforcement != nil && !validEnforcementTypes[opts.Enforcement.Type] {
		return nil, buildErr("enforcement.type", "invalid enforcement type: %s", opts.Enforcement.Type)
	}
	if opts.Proof != nil && !validProofTypes[opts.Proof.Type] {
		return nil, buildErr("proof.type", "invalid proof type: %s", opts.Proof.Type)
	}

	nonce, err := crypto.GenerateNonce()
	if err != nil {
		return nil, fmt.Errorf("covenant: generate nonce: %w", err)
	}

	doc := &Document{
		Version:     ProtocolVersion,
		Issuer:      opts.Issuer,
		Beneficiary: opts.Beneficiary,
		Constraints: opts.Constraints,
		Nonce:       hex.EncodeToString(nonce),
		CreatedAt:   crypto.Timestamp(),
		Obligations: opts.Obligations,
		Chain:       opts.Chain,
		Enforcement: opts.Enforcement,
		Proof:       opts.Proof,
		Revocation:  opts.Revocation,
		Metadata:    opts.Metadata,
		ExpiresAt:   opts.ExpiresAt,
		ActivatesAt: opts.ActivatesAt,
	}

	canonical, err := CanonicalForm(doc)
	if err != nil {
		return nil, err
	}
	signature, err := crypto.Sign(canonical, opts.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("covenant: sign: %w", err)
	}
	doc.Signature = hex.EncodeToString(signature)
	doc.ID = canonicalize.HashBytes(canonical)

	serialized, err := Serialize(doc)
	if err != nil {
		return nil, err
	}
	if len(serialized) > limits.MaxDocumentBytes {
		return nil, buildErr("document", "serialized document exceeds maximum size of %d bytes", limits.MaxDocumentBytes)
	}

	opts.logger().Record(context.Background(), audit.EventCovenantBuilt, doc.ID, map[string]interface{}{
		"issuer":      doc.Issuer.ID,
		"beneficiary": doc.Beneficiary.ID,
	})

	return doc, nil
}
