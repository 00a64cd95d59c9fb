//go:build property
// +build property

package covenant_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Mindburn-Labs/covenant/pkg/covenant"
	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

// TestComputeIDDeterminism verifies a built covenant's id is a pure
// function of its canonical form: recomputing the id from the built
// document always agrees with the id Build set.
func TestComputeIDDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}

	properties.Property("ComputeID agrees with the id set at build time", prop.ForAll(
		func(resource string) bool {
			if resource == "" {
				return true
			}
			doc, err := covenant.Build(covenant.BuildOptions{
				Issuer:      covenant.Party{ID: "issuer-1", PublicKey: kp.PublicHex, Role: "issuer"},
				Beneficiary: covenant.Party{ID: "beneficiary-1", PublicKey: "beneficiary-key", Role: "beneficiary"},
				Constraints: "permit read on '/" + resource + "'",
				PrivateKey:  kp.PrivateKey,
			})
			if err != nil {
				return true // skip inputs ccl.Parse rejects
			}

			computed, err := covenant.ComputeID(doc)
			if err != nil {
				return false
			}
			return computed == doc.ID
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestVerifyIsDeterministic verifies Verify produces the same verdict
// across repeated calls against the same document.
func TestVerifyIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("key generation failed: %v", err)
	}

	properties.Property("Verify is deterministic for a fixed document", prop.ForAll(
		func(n int) bool {
			doc, err := covenant.Build(covenant.BuildOptions{
				Issuer:      covenant.Party{ID: "issuer-1", PublicKey: kp.PublicHex, Role: "issuer"},
				Beneficiary: covenant.Party{ID: "beneficiary-1", PublicKey: "beneficiary-key", Role: "beneficiary"},
				Constraints: "permit read on '/data/public'",
				PrivateKey:  kp.PrivateKey,
			})
			if err != nil {
				return false
			}

			r1 := covenant.Verify(doc)
			r2 := covenant.Verify(doc)
			return r1.Valid == r2.Valid
		},
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}
