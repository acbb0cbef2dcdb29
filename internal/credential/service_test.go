package credential_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	contract "github.com/blckdfly/sphyre/contracts/registry"
	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/blobstore"
	"github.com/blckdfly/sphyre/internal/credential"
	"github.com/blckdfly/sphyre/internal/disclosure"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/platform/metrics"
	"github.com/blckdfly/sphyre/internal/registry"
	mockregistry "github.com/blckdfly/sphyre/mocks/registry"
	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var (
	policy      = identity.NewMethodPolicy("alyra")
	testMetrics = metrics.New()
)

type fixture struct {
	service *credential.Service
	store   *credential.InMemoryStore
	blobs   *blobstore.InMemoryStore
	issuer  *identity.KeyPair
	owner   *identity.KeyPair
}

func newFixture(t *testing.T, reg contract.Contract) *fixture {
	t.Helper()
	store := credential.NewInMemoryStore()
	blobs := blobstore.NewInMemoryStore()
	inbox := make(chan audit.Event, 64)
	recorder := audit.NewRecorder(inbox, slog.Default())

	issuer, err := identity.Generate(policy)
	require.NoError(t, err)
	owner, err := identity.Generate(policy)
	require.NoError(t, err)

	return &fixture{
		service: credential.NewService(store, blobs, reg, policy, testMetrics, recorder, slog.Default()),
		store:   store,
		blobs:   blobs,
		issuer:  issuer,
		owner:   owner,
	}
}

func (f *fixture) issue(t *testing.T, data attrs.Map) credential.IssueResult {
	t.Helper()
	result, err := f.service.Issue(context.Background(), credential.IssueInput{
		IssuerPrivateKey: f.issuer.PrivateKey,
		OwnerDID:         f.owner.DID,
		CredentialType:   "ProofOfAge",
		CredentialData:   data,
	})
	require.NoError(t, err)
	return result
}

func TestIssueAndVerify(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	result := f.issue(t, attrs.Map{"name": attrs.String("Alice"), "age": attrs.Int(25)})

	cred := result.Credential
	assert.Equal(t, f.issuer.DID, cred.IssuerDID)
	assert.Equal(t, f.owner.DID, cred.OwnerDID)
	assert.Equal(t, credential.StatusActive, cred.Status)
	assert.NotEmpty(t, cred.Token)
	assert.NotEmpty(t, cred.TokenHash)
	assert.NotEmpty(t, cred.RegistryTx)
	assert.NotEmpty(t, result.EncryptionKey)

	// The uploaded blob decrypts back to the credential data with the
	// returned key.
	sealed, err := f.blobs.Download(context.Background(), cred.StorageRef)
	require.NoError(t, err)
	var payload attrs.Map
	require.NoError(t, blobstore.DecryptJSON(sealed, result.EncryptionKey, &payload))
	assert.True(t, payload["age"].Equal(attrs.Int(25)))

	verification := f.service.Verify(context.Background(), cred.Token)
	assert.True(t, verification.IsValid, "errors: %v", verification.Errors)
	assert.Equal(t, f.owner.DID, verification.SubjectDID)
	assert.Equal(t, f.issuer.DID, verification.IssuerDID)
	assert.False(t, verification.IsRevoked)
	assert.False(t, verification.IsExpired)
}

func TestIssueRejectsInvalidOwnerDID(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	_, err := f.service.Issue(context.Background(), credential.IssueInput{
		IssuerPrivateKey: f.issuer.PrivateKey,
		OwnerDID:         "did:key:z6Mk",
		CredentialType:   "ProofOfAge",
		CredentialData:   attrs.Map{"age": attrs.Int(25)},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestIssueRejectsEmptyData(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	_, err := f.service.Issue(context.Background(), credential.IssueInput{
		IssuerPrivateKey: f.issuer.PrivateKey,
		OwnerDID:         f.owner.DID,
		CredentialType:   "ProofOfAge",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestIssueDoesNotPersistWhenRegistryFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := mockregistry.NewMockContract(ctrl)
	reg.EXPECT().
		RegisterCredential(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(contract.Receipt{}, assert.AnError)

	f := newFixture(t, reg)
	_, err := f.service.Issue(context.Background(), credential.IssueInput{
		IssuerPrivateKey: f.issuer.PrivateKey,
		OwnerDID:         f.owner.DID,
		CredentialType:   "ProofOfAge",
		CredentialData:   attrs.Map{"age": attrs.Int(25)},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRegistry))

	creds, err := f.store.ListByOwner(context.Background(), f.owner.DID)
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestVerifyAccumulatesErrors(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	negative := int64(-1)
	result, err := f.service.Issue(context.Background(), credential.IssueInput{
		IssuerPrivateKey:  f.issuer.PrivateKey,
		OwnerDID:          f.owner.DID,
		CredentialType:    "ProofOfAge",
		CredentialData:    attrs.Map{"age": attrs.Int(25)},
		ExpirationSeconds: &negative,
	})
	require.NoError(t, err)

	// Expired and revoked at once: both must be reported.
	_, err = f.service.Revoke(context.Background(), f.issuer.DID, result.Credential.ID)
	require.NoError(t, err)

	verification := f.service.Verify(context.Background(), result.Credential.Token)
	assert.False(t, verification.IsValid)
	assert.True(t, verification.IsExpired)
	assert.True(t, verification.IsRevoked)
	assert.GreaterOrEqual(t, len(verification.Errors), 2)
	// Identity fields are still reported for an invalid credential.
	assert.Equal(t, f.issuer.DID, verification.IssuerDID)
	assert.Equal(t, f.owner.DID, verification.SubjectDID)
}

func TestVerifyGarbageToken(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	verification := f.service.Verify(context.Background(), "not-a-token")
	assert.False(t, verification.IsValid)
	require.Len(t, verification.Errors, 1)
}

func TestVerifyUnregisteredToken(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	// A structurally valid token that was never anchored in the registry.
	f2 := newFixture(t, registry.NewInMemory())
	result := f2.issue(t, attrs.Map{"age": attrs.Int(25)})

	verification := f.service.Verify(context.Background(), result.Credential.Token)
	assert.False(t, verification.IsValid)
	assert.True(t, verification.IsRevoked)
}

func TestRevokeLifecycle(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	result := f.issue(t, attrs.Map{"age": attrs.Int(25)})

	// Only the issuer can revoke.
	_, err := f.service.Revoke(context.Background(), f.owner.DID, result.Credential.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccessDenied))

	revoked, err := f.service.Revoke(context.Background(), f.issuer.DID, result.Credential.ID)
	require.NoError(t, err)
	assert.Equal(t, credential.StatusRevoked, revoked.Status)
	require.NotNil(t, revoked.RevokedAt)

	// Revoking twice is a validation error.
	_, err = f.service.Revoke(context.Background(), f.issuer.DID, result.Credential.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	// The token now fails verification.
	verification := f.service.Verify(context.Background(), result.Credential.Token)
	assert.False(t, verification.IsValid)
	assert.True(t, verification.IsRevoked)

	_, err = f.service.Revoke(context.Background(), f.issuer.DID, "missing")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDeleteRequiresOwnership(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	result := f.issue(t, attrs.Map{"age": attrs.Int(25)})

	err := f.service.Delete(context.Background(), f.issuer.DID, result.Credential.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccessDenied))

	require.NoError(t, f.service.Delete(context.Background(), f.owner.DID, result.Credential.ID))
	_, err = f.service.GetByID(context.Background(), result.Credential.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	first := f.issue(t, attrs.Map{"age": attrs.Int(25)})

	_, err := f.service.Issue(context.Background(), credential.IssueInput{
		IssuerPrivateKey: f.issuer.PrivateKey,
		OwnerDID:         f.owner.DID,
		CredentialType:   "ProofOfResidence",
		CredentialData:   attrs.Map{"city": attrs.String("Oslo")},
	})
	require.NoError(t, err)

	all, err := f.service.ListByOwner(context.Background(), f.owner.DID, credential.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byType, err := f.service.ListByOwner(context.Background(), f.owner.DID, credential.Filter{CredentialType: "ProofOfAge"})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, first.Credential.ID, byType[0].ID)

	_, err = f.service.Revoke(context.Background(), f.issuer.DID, first.Credential.ID)
	require.NoError(t, err)

	active, err := f.service.ListByIssuer(context.Background(), f.issuer.DID, credential.Filter{Status: credential.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	revoked, err := f.service.ListByIssuer(context.Background(), f.issuer.DID, credential.Filter{Status: credential.StatusRevoked})
	require.NoError(t, err)
	assert.Len(t, revoked, 1)
}

func TestCreateSelectiveDisclosure(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	result := f.issue(t, attrs.Map{"name": attrs.String("Alice"), "age": attrs.Int(25)})

	disclosed, err := f.service.CreateSelectiveDisclosure(context.Background(), f.owner.DID, result.Credential.ID, []string{"age"})
	require.NoError(t, err)
	assert.True(t, disclosed["age"].Equal(attrs.Int(25)))
	_, hasName := disclosed["name"]
	assert.False(t, hasName)

	ok, err := disclosure.VerifyDisclosure(result.Credential.CredentialData, disclosed)
	require.NoError(t, err)
	assert.True(t, ok)

	// Disclosure of someone else's credential is denied.
	_, err = f.service.CreateSelectiveDisclosure(context.Background(), f.issuer.DID, result.Credential.ID, []string{"age"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func TestCreatePredicateProof(t *testing.T) {
	f := newFixture(t, registry.NewInMemory())
	result := f.issue(t, attrs.Map{
		"age":    attrs.Int(25),
		"salary": attrs.String("85000"),
		"name":   attrs.String("Alice"),
	})
	ctx := context.Background()
	id := result.Credential.ID

	proof, err := f.service.CreatePredicateProof(ctx, f.owner.DID, id, "age", disclosure.CmpGTE, 18)
	require.NoError(t, err)
	ok, err := disclosure.VerifyPredicateProof(proof)
	require.NoError(t, err)
	assert.True(t, ok)

	// Numeric strings coerce.
	_, err = f.service.CreatePredicateProof(ctx, f.owner.DID, id, "salary", disclosure.CmpGTE, 50000)
	require.NoError(t, err)

	// Unsatisfied predicates refuse to prove.
	_, err = f.service.CreatePredicateProof(ctx, f.owner.DID, id, "age", disclosure.CmpGTE, 30)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	// Non-numeric attribute.
	_, err = f.service.CreatePredicateProof(ctx, f.owner.DID, id, "name", disclosure.CmpGTE, 1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	// Unknown attribute.
	_, err = f.service.CreatePredicateProof(ctx, f.owner.DID, id, "height", disclosure.CmpGTE, 1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	active := credential.Credential{Status: credential.StatusActive, ExpiresAt: &future}
	assert.Equal(t, credential.StatusActive, active.EffectiveStatus(now))

	expired := credential.Credential{Status: credential.StatusActive, ExpiresAt: &past}
	assert.Equal(t, credential.StatusExpired, expired.EffectiveStatus(now))

	// Revocation wins over expiry.
	revoked := credential.Credential{Status: credential.StatusRevoked, ExpiresAt: &past}
	assert.Equal(t, credential.StatusRevoked, revoked.EffectiveStatus(now))

	noExpiry := credential.Credential{Status: credential.StatusActive}
	assert.Equal(t, credential.StatusActive, noExpiry.EffectiveStatus(now))
}
