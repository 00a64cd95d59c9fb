package identity

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/Mindburn-Labs/covenant/pkg/audit"
	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

// EvolveUpdates carries the fields an evolution may change. Unset fields
// (nil) keep the current identity's value, except OperatorPublicKey: when
// empty, the evolved identity takes the public key of
// EvolveOptions.OperatorKeyPair, the key that signs it.
type EvolveUpdates struct {
	Model              *ModelAttestation
	Capabilities       []string
	Deployment         *Deployment
	OperatorPublicKey  string
	OperatorIdentifier *string
}

// EvolveOptions assembles the inputs for evolving an existing identity.
type EvolveOptions struct {
	OperatorKeyPair        *crypto.KeyPair
	ChangeType             string
	Description            string
	Updates                EvolveUpdates
	ReputationCarryForward *float64 // overrides the policy table when set

	// Logger, when set, records an IDENTITY_EVOLVED event once the new
	// identity is signed. Defaults to a no-op.
	Logger audit.Logger
}

func (opts EvolveOptions) logger() audit.Logger {
	if opts.Logger == nil {
		return audit.NopLogger{}
	}
	return opts.Logger
}

// Recognized lineage change types.
const (
	ChangeCreated          = "created"
	ChangeModelUpdate      = "model_update"
	ChangeCapabilityChange = "capability_change"
	ChangeOperatorTransfer = "operator_transfer"
	ChangeFork             = "fork"
	ChangeMerge            = "merge"
)

// reputationCarryForward computes the default carry-forward rate for a
// change type, following the protocol's fixed policy table. Callers may
// override this via EvolveOptions.ReputationCarryForward.
func reputationCarryForward(changeType string, current *Identity, updates EvolveUpdates) float64 {
	switch changeType {
	case ChangeCreated:
		return 1.00
	case ChangeModelUpdate:
		if updates.Model == nil {
			return 0.95
		}
		sameFamily := updates.Model.Provider == current.Model.Provider && updates.Model.ModelID == current.Model.ModelID
		if sameFamily {
			return 0.80
		}
		return 0.20
	case ChangeCapabilityChange:
		if updates.Capabilities == nil {
			return 0.95
		}
		added, removed := capabilityDelta(current.Capabilities, updates.Capabilities)
		switch {
		case added && removed:
			return 0.90 // min(added-rate, removed-rate) = min(0.90, 1.00)
		case added:
			return 0.90
		case removed:
			return 1.00
		default:
			return 0.95 // capabilities list supplied but unchanged
		}
	case ChangeOperatorTransfer, ChangeFork:
		return 0.50
	case ChangeMerge:
		return 0.80 // min(capability_expansion=0.90, model_version_change=0.80)
	default:
		return 0.00
	}
}

func capabilityDelta(current, updated []string) (added, removed bool) {
	currentSet := make(map[string]bool, len(current))
	for _, c := range current {
		currentSet[c] = true
	}
	updatedSet := make(map[string]bool, len(updated))
	for _, c := range updated {
		updatedSet[c] = true
	}
	for _, c := range updated {
		if !currentSet[c] {
			added = true
		}
	}
	for _, c := range current {
		if !updatedSet[c] {
			removed = true
		}
	}
	return added, removed
}

// Evolve produces a new identity reflecting opts.Updates, appended as a
// new signed lineage entry. The input identity is never mutated.
func Evolve(current *Identity, opts EvolveOptions) (*Identity, error) {
	if opts.OperatorKeyPair == nil {
		return nil, fmt.Errorf("identity: operatorKeyPair is required")
	}
	if opts.ChangeType == "" {
		return nil, fmt.Errorf("identity: changeType is required")
	}

	now := crypto.Timestamp()

	newModel := current.Model
	if opts.Updates.Model != nil {
		newModel = *opts.Updates.Model
	}

	newCapabilities := append([]string(nil), current.Capabilities...)
	if opts.Updates.Capabilities != nil {
		newCapabilities = append([]string(nil), opts.Updates.Capabilities...)
	}
	sort.Strings(newCapabilities)

	newDeployment := current.Deployment
	if opts.Updates.Deployment != nil {
		newDeployment = *opts.Updates.Deployment
	}

	newOperatorPublicKey := opts.OperatorKeyPair.PublicHex
	if opts.Updates.OperatorPublicKey != "" {
		newOperatorPublicKey = opts.Updates.OperatorPublicKey
	}

	newOperatorIdentifier := current.OperatorIdentifier
	if opts.Updates.OperatorIdentifier != nil {
		newOperatorIdentifier = *opts.Updates.OperatorIdentifier
	}

	capHash, err := ComputeCapabilityManifestHash(newCapabilities)
	if err != nil {
		return nil, err
	}

	carryForward := reputationCarryForward(opts.ChangeType, current, opts.Updates)
	if opts.ReputationCarryForward != nil {
		carryForward = *opts.ReputationCarryForward
	}

	partial := &Identity{
		OperatorPublicKey:      newOperatorPublicKey,
		OperatorIdentifier:     newOperatorIdentifier,
		Model:                  newModel,
		Capabilities:           newCapabilities,
		CapabilityManifestHash: capHash,
		Deployment:             newDeployment,
		Lineage:                current.Lineage,
		Version:                current.Version + 1,
		CreatedAt:              current.CreatedAt,
		UpdatedAt:              now,
	}

	preliminaryHash, err := ComputeIdentityHash(partial)
	if err != nil {
		return nil, err
	}

	var parentHash *string
	if len(current.Lineage) > 0 {
		last := current.Lineage[len(current.Lineage)-1].IdentityHash
		parentHash = &last
	}

	unsigned := LineageEntry{
		IdentityHash:           preliminaryHash,
		ChangeType:             opts.ChangeType,
		Description:            opts.Description,
		Timestamp:              now,
		ParentHash:             parentHash,
		ReputationCarryForward: carryForward,
	}
	entry, err := signLineageEntry(unsigned, opts.OperatorKeyPair.PrivateKey)
	if err != nil {
		return nil, err
	}

	newLineage := append(append([]LineageEntry(nil), current.Lineage...), entry)
	partial.Lineage = newLineage

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

	opts.logger().Record(context.Background(), audit.EventIdentityEvolved, partial.ID, map[string]interface{}{
		"changeType": opts.ChangeType,
		"version":    partial.Version,
	})

	return partial, nil
}
