package covenant

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Mindburn-Labs/covenant/pkg/audit"
	"github.com/Mindburn-Labs/covenant/pkg/ccl"
	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

// Check is the outcome of one named verification rule.
type Check struct {
	Name    string
	Passed  bool
	Message string
}

// VerifyResult aggregates every check run against a covenant document.
// Valid is the conjunction of all Checks; every check always runs, so a
// caller can see the complete report even when Valid is false.
type VerifyResult struct {
	Valid  bool
	Checks []Check
}

var nonceHexPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Verify runs all 11 specification checks against doc and never
// short-circuits: every check executes regardless of earlier failures.
func Verify(doc *Document, opts ...Option) *VerifyResult {
	cfg := defaultOperationConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var checks []Check

	// 1. id_match
	expectedID, idErr := ComputeID(doc)
	idMatch := idErr == nil && doc.ID == expectedID
	checks = append(checks, Check{
		Name:   "id_match",
		Passed: idMatch,
		Message: pick(idMatch,
			"document ID matches canonical hash",
			fmt.Sprintf("ID mismatch: expected %s, got %s", expectedID, doc.ID)),
	})

	// 2. signature_valid
	sigValid := false
	if canonical, err := CanonicalForm(doc); err == nil {
		sigValid = crypto.VerifyHex(canonical, doc.Signature, doc.Issuer.PublicKey)
	}
	checks = append(checks, Check{
		Name:    "signature_valid",
		Passed:  sigValid,
		Message: pick(sigValid, "issuer signature is valid", "issuer signature verification failed"),
	})

	now := time.Now().UTC()

	// 3. not_expired
	notExpired := true
	expiredMsg := "no expiry set"
	if doc.ExpiresAt != "" {
		expires, err := parseTimestamp(doc.ExpiresAt)
		notExpired = err == nil && now.Before(expires)
		if notExpired {
			expiredMsg = "document has not expired"
		} else {
			expiredMsg = fmt.Sprintf("document expired at %s", doc.ExpiresAt)
		}
	}
	checks = append(checks, Check{Name: "not_expired", Passed: notExpired, Message: expiredMsg})

	// 4. active
	active := true
	activeMsg := "no activation time set"
	if doc.ActivatesAt != "" {
		activates, err := parseTimestamp(doc.ActivatesAt)
		active = err == nil && !now.Before(activates)
		if active {
			activeMsg = "document is active"
		} else {
			activeMsg = fmt.Sprintf("document activates at %s", doc.ActivatesAt)
		}
	}
	checks = append(checks, Check{Name: "active", Passed: active, Message: activeMsg})

	// 5. ccl_parses
	cclParses := false
	cclMsg := ""
	parsed, err := ccl.Parse(doc.Constraints)
	switch {
	case err != nil:
		cclMsg = fmt.Sprintf("CCL parse error: %v", err)
	case len(parsed.Statements) > cfg.limits.MaxConstraints:
		cclMsg = fmt.Sprintf("constraints exceed maximum of %d statements", cfg.limits.MaxConstraints)
	default:
		cclParses = true
		cclMsg = fmt.Sprintf("CCL parsed successfully (%d statement(s))", len(parsed.Statements))
	}
	checks = append(checks, Check{Name: "ccl_parses", Passed: cclParses, Message: cclMsg})

	// 6. enforcement_valid
	enfValid := true
	enfMsg := "no enforcement config present"
	if doc.Enforcement != nil {
		enfValid = validEnforcementTypes[doc.Enforcement.Type]
		if enfValid {
			enfMsg = fmt.Sprintf("enforcement type '%s' is valid", doc.Enforcement.Type)
		} else {
			enfMsg = fmt.Sprintf("unknown enforcement type '%s'", doc.Enforcement.Type)
		}
	}
	checks = append(checks, Check{Name: "enforcement_valid", Passed: enfValid, Message: enfMsg})

	// 7. proof_valid
	proofValid := true
	proofMsg := "no proof config present"
	if doc.Proof != nil {
		proofValid = validProofTypes[doc.Proof.Type]
		if proofValid {
			proofMsg = fmt.Sprintf("proof type '%s' is valid", doc.Proof.Type)
		} else {
			proofMsg = fmt.Sprintf("unknown proof type '%s'", doc.Proof.Type)
		}
	}
	checks = append(checks, Check{Name: "proof_valid", Passed: proofValid, Message: proofMsg})

	// 8. chain_depth
	chainOk := true
	chainMsg := "no chain reference present"
	if doc.Chain != nil {
		chainOk = doc.Chain.Depth >= 1 && doc.Chain.Depth <= cfg.limits.MaxChainDepth
		if chainOk {
			chainMsg = fmt.Sprintf("chain depth %d is within limit", doc.Chain.Depth)
		} else {
			chainMsg = fmt.Sprintf("chain depth %d exceeds maximum of %d", doc.Chain.Depth, cfg.limits.MaxChainDepth)
		}
	}
	checks = append(checks, Check{Name: "chain_depth", Passed: chainOk, Message: chainMsg})

	// 9. document_size
	serialized, serErr := Serialize(doc)
	sizeOk := serErr == nil && len(serialized) <= cfg.limits.MaxDocumentBytes
	sizeMsg := fmt.Sprintf("document size %d bytes is within limit", len(serialized))
	if !sizeOk {
		sizeMsg = fmt.Sprintf("document size %d bytes exceeds maximum of %d", len(serialized), cfg.limits.MaxDocumentBytes)
	}
	checks = append(checks, Check{Name: "document_size", Passed: sizeOk, Message: sizeMsg})

	// 10. countersignatures
	csOk := true
	csMsg := "no countersignatures present"
	if len(doc.Countersignatures) > 0 {
		canonical, canonErr := CanonicalForm(doc)
		var failedSigners []string
		for _, cs := range doc.Countersignatures {
			valid := canonErr == nil && crypto.VerifyHex(canonical, cs.Signature, cs.SignerPublicKey)
			if !valid {
				csOk = false
				failedSigners = append(failedSigners, shortHex(cs.SignerPublicKey))
			}
		}
		if csOk {
			csMsg = fmt.Sprintf("all %d countersignature(s) are valid", len(doc.Countersignatures))
		} else {
			csMsg = fmt.Sprintf("invalid countersignature(s) from: %v", failedSigners)
		}
	}
	checks = append(checks, Check{Name: "countersignatures", Passed: csOk, Message: csMsg})

	// 11. nonce_present
	nonceOk := nonceHexPattern.MatchString(doc.Nonce)
	nonceMsg := "nonce is present and valid (64-char hex)"
	if !nonceOk {
		if doc.Nonce == "" {
			nonceMsg = "nonce is missing or empty"
		} else {
			nonceMsg = fmt.Sprintf("nonce is malformed: expected 64-char hex string, got %d chars", len(doc.Nonce))
		}
	}
	checks = append(checks, Check{Name: "nonce_present", Passed: nonceOk, Message: nonceMsg})

	valid := true
	for _, c := range checks {
		if !c.Passed {
			valid = false
			break
		}
	}

	cfg.logger.Record(context.Background(), audit.EventCovenantVerified, doc.ID, map[string]interface{}{"valid": valid})

	return &VerifyResult{Valid: valid, Checks: checks}
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func shortHex(s string) string {
	if len(s) <= 16 {
		return s + "..."
	}
	return s[:16] + "..."
}

func pick(cond bool, onTrue, onFalse string) string {
	if cond {
		return onTrue
	}
	return onFalse
}
