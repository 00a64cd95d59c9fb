package identity

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

// CreateOptions assembles the inputs for a brand-new agent identity.
type CreateOptions struct {
	OperatorKeyPair    *crypto.KeyPair
	Model              ModelAttestation
	Capabilities       []string
	Deployment         Deployment
	OperatorIdentifier string
}

// Create builds a new agent identity: it sorts capabilities, computes the
// capability manifest hash, signs a single "created" lineage entry, then
// signs the full identity body (including its composite id) with the
// operator key.
func Create(opts CreateOptions) (*Identity, error) {
	if opts.OperatorKeyPair == nil {
		return nil, fmt.Errorf("identity: operatorKeyPair is required")
	}
	if opts.Model.Provider == "" && opts.Model.ModelID == "" {
		return nil, fmt.Errorf("identity: a valid model attestation is required")
	}
	if opts.Capabilities == nil {
		return nil, fmt.Errorf("identity: a capabilities list is required")
	}
	if opts.Deployment.Runtime == "" {
		return nil, fmt.Errorf("identity: a valid deployment context is required")
	}

	now := crypto.Timestamp()
	sortedCaps := append([]string(nil), opts.Capabilities...)
	sort.Strings(sortedCaps)

	capHash, err := ComputeCapabilityManifestHash(sortedCaps)
	if err != nil {
		return nil, err
	}

	partial := &Identity{
		OperatorPublicKey:      opts.OperatorKeyPair.PublicHex,
		OperatorIdentifier:     opts.OperatorIdentifier,
		Model:                  opts.Model,
		Capabilities:           sortedCaps,
		CapabilityManifestHash: capHash,
		Deployment:             opts.Deployment,
		Lineage:                nil,
		Version:                1,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	preliminaryHash, err := ComputeIdentityHash(partial)
	if err != nil {
		return nil, err
	}

	unsigned := LineageEntry{
		IdentityHash:           preliminaryHash,
		ChangeType:             "created",
		Description:            "Identity created",
		Timestamp:              now,
		ParentHash:             nil,
		ReputationCarryForward: 1.0,
	}
	entry, err := signLineageEntry(unsigned, opts.OperatorKeyPair.PrivateKey)
	if err != nil {
		return nil, err
	}

	partial.Lineage = []LineageEntry{entry}

	identityID, err := ComputeIdentityHash(partial)
	if err != nil {
		return nil, err
	}
	partial.ID = identityID

	payload, err := signingPayload(partial)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(payload, opts.OperatorKeyPair.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("identity: sign identity: %w", err)
	}
	partial.Signature = hex.EncodeToString(sig)

	return partial, nil
}
