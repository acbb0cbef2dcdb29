package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckdfly/sphyre/internal/registry"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

func TestRegisterAndCheckCredential(t *testing.T) {
	r := registry.NewInMemory()
	ctx := context.Background()

	receipt, err := r.RegisterCredential(ctx, "did:alyra:issuer", "hash-1", "ref-1")
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.TxHash)
	assert.False(t, receipt.Timestamp.IsZero())

	valid, err := r.IsCredentialValid(ctx, "did:alyra:issuer", "hash-1")
	require.NoError(t, err)
	assert.True(t, valid)

	// Unknown hash and wrong DID are both invalid.
	valid, err = r.IsCredentialValid(ctx, "did:alyra:issuer", "hash-2")
	require.NoError(t, err)
	assert.False(t, valid)

	valid, err = r.IsCredentialValid(ctx, "did:alyra:other", "hash-1")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestDuplicateRegistration(t *testing.T) {
	r := registry.NewInMemory()
	ctx := context.Background()

	_, err := r.RegisterCredential(ctx, "did:alyra:issuer", "hash-1", "")
	require.NoError(t, err)
	_, err = r.RegisterCredential(ctx, "did:alyra:issuer", "hash-1", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRegistry))
}

func TestRevocationIsTerminal(t *testing.T) {
	r := registry.NewInMemory()
	ctx := context.Background()

	_, err := r.RegisterCredential(ctx, "did:alyra:issuer", "hash-1", "")
	require.NoError(t, err)

	_, err = r.RevokeCredential(ctx, "did:alyra:issuer", "hash-1")
	require.NoError(t, err)

	valid, err := r.IsCredentialValid(ctx, "did:alyra:issuer", "hash-1")
	require.NoError(t, err)
	assert.False(t, valid)

	// Re-registering the same hash is refused, so it cannot be resurrected.
	_, err = r.RegisterCredential(ctx, "did:alyra:issuer", "hash-1", "")
	require.Error(t, err)
}

func TestRevokeRequiresOwnership(t *testing.T) {
	r := registry.NewInMemory()
	ctx := context.Background()

	_, err := r.RegisterCredential(ctx, "did:alyra:issuer", "hash-1", "")
	require.NoError(t, err)

	_, err = r.RevokeCredential(ctx, "did:alyra:other", "hash-1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRegistry))

	_, err = r.RevokeCredential(ctx, "did:alyra:issuer", "hash-unknown")
	require.Error(t, err)
}

func TestSchemaRegistration(t *testing.T) {
	r := registry.NewInMemory()
	ctx := context.Background()

	registered, err := r.IsSchemaRegistered(ctx, "schema-1")
	require.NoError(t, err)
	assert.False(t, registered)

	_, err = r.RegisterSchema(ctx, "schema-1", "hash")
	require.NoError(t, err)

	registered, err = r.IsSchemaRegistered(ctx, "schema-1")
	require.NoError(t, err)
	assert.True(t, registered)
}
