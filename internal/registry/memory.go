// Package registry provides implementations of the external credential
// registry contract: an in-memory one for development and tests, an HTTP
// client for a real registry service, and a Redis read-through cache for
// validity lookups.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/blckdfly/sphyre/contracts/registry"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

type credentialEntry struct {
	did     string
	revoked bool
}

// InMemory fulfils the registry contract locally. Revocation is terminal:
// once revoked, a hash can never become valid again.
type InMemory struct {
	mu          sync.RWMutex
	credentials map[string]*credentialEntry
	schemas     map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		credentials: make(map[string]*credentialEntry),
		schemas:     make(map[string]string),
	}
}

func (r *InMemory) RegisterCredential(_ context.Context, did, credentialHash, metadataRef string) (registry.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.credentials[credentialHash]; exists {
		return registry.Receipt{}, dErrors.New(dErrors.CodeRegistry, "credential hash already registered")
	}
	r.credentials[credentialHash] = &credentialEntry{did: did}
	return receipt(did, credentialHash, metadataRef), nil
}

func (r *InMemory) RevokeCredential(_ context.Context, did, credentialHash string) (registry.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.credentials[credentialHash]
	if !ok {
		return registry.Receipt{}, dErrors.New(dErrors.CodeRegistry, "credential hash not registered")
	}
	if entry.did != did {
		return registry.Receipt{}, dErrors.New(dErrors.CodeRegistry, "credential is registered to a different DID")
	}
	entry.revoked = true
	return receipt(did, credentialHash, "revoke"), nil
}

func (r *InMemory) IsCredentialValid(_ context.Context, did, credentialHash string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.credentials[credentialHash]
	if !ok {
		return false, nil
	}
	return entry.did == did && !entry.revoked, nil
}

func (r *InMemory) RegisterSchema(_ context.Context, schemaID, schemaHash string) (registry.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[schemaID] = schemaHash
	return receipt(schemaID, schemaHash, "schema"), nil
}

func (r *InMemory) IsSchemaRegistered(_ context.Context, schemaID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[schemaID]
	return ok, nil
}

func receipt(parts ...string) registry.Receipt {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	h.Write([]byte(time.Now().Format(time.RFC3339Nano)))
	return registry.Receipt{
		TxHash:    "0x" + hex.EncodeToString(h.Sum(nil)),
		Timestamp: time.Now(),
	}
}
