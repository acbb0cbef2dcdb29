// Package registry defines the contract surface of the append-only credential
// registry. The interface mirrors ISSIRegistry: credentials and schemas are
// keyed by (did, content hash) pairs and a registered hash stays valid until
// explicitly revoked.
package registry

import (
	"context"
	"time"
)

// Receipt acknowledges a state-changing registry call.
type Receipt struct {
	TxHash    string    `json:"tx_hash"`
	Timestamp time.Time `json:"timestamp"`
}

// Contract is implemented by every registry backend. State-changing calls are
// idempotent-safe to retry with the same (did, hash) pair.
type Contract interface {
	// RegisterCredential anchors a credential hash for an issuer DID together
	// with a metadata reference (typically the blob-store address of the
	// encrypted attribute payload).
	RegisterCredential(ctx context.Context, did, credentialHash, metadataRef string) (Receipt, error)

	// RevokeCredential marks a previously registered hash as revoked.
	// Revocation is terminal.
	RevokeCredential(ctx context.Context, did, credentialHash string) (Receipt, error)

	// IsCredentialValid reports whether the hash is registered and not revoked.
	IsCredentialValid(ctx context.Context, did, credentialHash string) (bool, error)

	// RegisterSchema anchors a schema hash under a schema id.
	RegisterSchema(ctx context.Context, schemaID, schemaHash string) (Receipt, error)

	// IsSchemaRegistered reports whether a schema id has an anchored hash.
	IsSchemaRegistered(ctx context.Context, schemaID string) (bool, error)
}
