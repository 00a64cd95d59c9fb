package identity

import (
	"fmt"

	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

// Check is the outcome of one named verification rule.
type Check struct {
	Name    string
	Passed  bool
	Message string
}

// VerifyResult aggregates every check run against an identity. Valid is
// the conjunction of all Checks; every check always runs.
type VerifyResult struct {
	Valid  bool
	Checks []Check
}

// Verify runs all 6 identity checks and never short-circuits.
func Verify(id *Identity) *VerifyResult {
	var checks []Check

	// 1. capability_manifest_hash
	expectedManifestHash, manifestErr := ComputeCapabilityManifestHash(id.Capabilities)
	manifestOk := manifestErr == nil && id.CapabilityManifestHash == expectedManifestHash
	checks = append(checks, Check{
		Name:   "capability_manifest_hash",
		Passed: manifestOk,
		Message: pick(manifestOk,
			"capability manifest hash matches capabilities",
			fmt.Sprintf("capability manifest hash mismatch: expected %s, got %s", expectedManifestHash, id.CapabilityManifestHash)),
	})

	// 2. composite_identity_hash
	expectedID, idErr := ComputeIdentityHash(id)
	idOk := idErr == nil && id.ID == expectedID
	checks = append(checks, Check{
		Name:   "composite_identity_hash",
		Passed: idOk,
		Message: pick(idOk,
			"composite identity hash matches identity id",
			fmt.Sprintf("identity id mismatch: expected %s, got %s", expectedID, id.ID)),
	})

	// 3. operator_signature
	sigOk := false
	if payload, err := signingPayload(id); err == nil {
		sigOk = crypto.VerifyHex(payload, id.Signature, id.OperatorPublicKey)
	}
	checks = append(checks, Check{
		Name:    "operator_signature",
		Passed:  sigOk,
		Message: pick(sigOk, "operator signature is valid", "operator signature verification failed"),
	})

	// 4. lineage_chain
	chainOk, chainMsg := verifyLineageChain(id.Lineage)
	checks = append(checks, Check{Name: "lineage_chain", Passed: chainOk, Message: chainMsg})

	// 5. lineage_signatures
	lineageSigOk := true
	var badEntries []int
	for i, entry := range id.Lineage {
		payload, err := lineageSigningPayload(entry)
		if err != nil || !crypto.VerifyHex(payload, entry.Signature, id.OperatorPublicKey) {
			lineageSigOk = false
			badEntries = append(badEntries, i)
		}
	}
	lineageSigMsg := fmt.Sprintf("all %d lineage signature(s) are valid", len(id.Lineage))
	if !lineageSigOk {
		lineageSigMsg = fmt.Sprintf("invalid lineage signature(s) at index(es) %v", badEntries)
	}
	checks = append(checks, Check{Name: "lineage_signatures", Passed: lineageSigOk, Message: lineageSigMsg})

	// 6. version_lineage_match
	versionOk := id.Version == len(id.Lineage)
	versionMsg := fmt.Sprintf("version %d matches lineage length %d", id.Version, len(id.Lineage))
	if !versionOk {
		versionMsg = fmt.Sprintf("version %d does not match lineage length %d", id.Version, len(id.Lineage))
	}
	checks = append(checks, Check{Name: "version_lineage_match", Passed: versionOk, Message: versionMsg})

	valid := true
	for _, c := range checks {
		if !c.Passed {
			valid = false
			break
		}
	}

	return &VerifyResult{Valid: valid, Checks: checks}
}

// verifyLineageChain checks that the first entry has no parent, each
// subsequent entry's parentHash matches the previous entry's identityHash,
// and timestamps are monotonically non-decreasing.
func verifyLineageChain(lineage []LineageEntry) (bool, string) {
	if len(lineage) == 0 {
		return true, "lineage chain is consistent"
	}
	if lineage[0].ParentHash != nil {
		return false, "first lineage entry must not have a parentHash"
	}
	for i := 1; i < len(lineage); i++ {
		prev := lineage[i-1]
		cur := lineage[i]
		if cur.ParentHash == nil || *cur.ParentHash != prev.IdentityHash {
			return false, fmt.Sprintf("lineage entry %d parentHash does not match entry %d identityHash", i, i-1)
		}
		if cur.Timestamp < prev.Timestamp {
			return false, fmt.Sprintf("lineage entry %d timestamp precedes entry %d", i, i-1)
		}
	}
	return true, fmt.Sprintf("lineage chain of %d entries is hash-linked and ordered", len(lineage))
}

func pick(cond bool, onTrue, onFalse string) string {
	if cond {
		return onTrue
	}
	return onFalse
}
