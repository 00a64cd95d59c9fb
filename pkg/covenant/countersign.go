package covenant

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Mindburn-Labs/covenant/pkg/audit"
	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

// Countersign appends an independent countersignature to doc from
// signerKeyPair in signerRole. The canonical form being signed excludes
// countersignatures entirely, so countersigners never sign each other's
// endorsements and ordering is commutative. The input document is not
// mutated.
func Countersign(doc *Document, signerKeyPair *crypto.KeyPair, signerRole string, opts ...Option) (*Document, error) {
	cfg := defaultOperationConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	canonical, err := CanonicalForm(doc)
	if err != nil {
		return nil, err
	}
	signature, err := crypto.Sign(canonical, signerKeyPair.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("covenant: countersign: %w", err)
	}

	newDoc, err := cloneDocument(doc)
	if err != nil {
		return nil, err
	}
	newDoc.Countersignatures = append(newDoc.Countersignatures, Countersignature{
		SignerPublicKey: signerKeyPair.PublicHex,
		SignerRole:      signerRole,
		Signature:       hex.EncodeToString(signature),
		Timestamp:       crypto.Timestamp(),
	})

	cfg.logger.Record(context.Background(), audit.EventCovenantCountersigned, newDoc.ID, map[string]interface{}{
		"signerRole": signerRole,
	})

	return newDoc, nil
}

func cloneDocument(doc *Document) (*Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("covenant: clone: %w", err)
	}
	var clone Document
	if err := json.Unmarshal(raw, &clone); err != nil {
		return nil, fmt.Errorf("covenant: clone: %w", err)
	}
	return &clone, nil
}
