package consent_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/consent"
	"github.com/blckdfly/sphyre/internal/identity"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var policy = identity.NewMethodPolicy("alyra")

func newService(t *testing.T) (*consent.Service, *identity.KeyPair, *identity.KeyPair) {
	t.Helper()
	inbox := make(chan audit.Event, 64)
	recorder := audit.NewRecorder(inbox, slog.Default())
	service := consent.NewService(consent.NewInMemoryStore(), policy, recorder, slog.Default())

	user, err := identity.Generate(policy)
	require.NoError(t, err)
	verifier, err := identity.Generate(policy)
	require.NoError(t, err)
	return service, user, verifier
}

func TestGrantAndCheck(t *testing.T) {
	service, user, verifier := newService(t)
	ctx := context.Background()

	record, err := service.Grant(ctx, consent.GrantInput{
		UserDID:          user.DID,
		VerifierDID:      verifier.DID,
		Purpose:          "age gate",
		DataCategories:   []string{"age"},
		AccessLevel:      consent.AccessReadOnly,
		ExpirationPolicy: consent.ExpireIndefinite,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.Revoked)

	ok, err := service.Check(ctx, verifier.DID, user.DID, "age gate")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = service.Check(ctx, verifier.DID, user.DID, "marketing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, service.Require(ctx, verifier.DID, user.DID, "age gate"))
	err = service.Require(ctx, verifier.DID, user.DID, "marketing")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingConsent))
}

func TestGrantValidation(t *testing.T) {
	service, user, verifier := newService(t)
	ctx := context.Background()

	_, err := service.Grant(ctx, consent.GrantInput{
		UserDID: user.DID, VerifierDID: verifier.DID,
		Purpose:     "age gate",
		AccessLevel: "root", ExpirationPolicy: consent.ExpireIndefinite,
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = service.Grant(ctx, consent.GrantInput{
		UserDID: user.DID, VerifierDID: verifier.DID,
		Purpose:     "age gate",
		AccessLevel: consent.AccessReadOnly, ExpirationPolicy: consent.ExpireFixedDate,
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestExpiredConsentIsInactive(t *testing.T) {
	service, user, verifier := newService(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	_, err := service.Grant(ctx, consent.GrantInput{
		UserDID: user.DID, VerifierDID: verifier.DID,
		Purpose:     "age gate",
		AccessLevel: consent.AccessReadOnly, ExpirationPolicy: consent.ExpireFixedDate,
		ExpiresAt: &past,
	})
	require.NoError(t, err)

	ok, err := service.Check(ctx, verifier.DID, user.DID, "age gate")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRevoke(t *testing.T) {
	service, user, verifier := newService(t)
	ctx := context.Background()

	record, err := service.Grant(ctx, consent.GrantInput{
		UserDID: user.DID, VerifierDID: verifier.DID,
		Purpose:     "age gate",
		AccessLevel: consent.AccessReadOnly, ExpirationPolicy: consent.ExpireIndefinite,
	})
	require.NoError(t, err)

	_, err = service.Revoke(ctx, verifier.DID, record.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccessDenied))

	revoked, err := service.Revoke(ctx, user.DID, record.ID)
	require.NoError(t, err)
	assert.True(t, revoked.Revoked)
	require.NotNil(t, revoked.RevokedAt)

	_, err = service.Revoke(ctx, user.DID, record.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidConsent))

	ok, err := service.Check(ctx, verifier.DID, user.DID, "age gate")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListByParty(t *testing.T) {
	service, user, verifier := newService(t)
	ctx := context.Background()

	for _, purpose := range []string{"age gate", "kyc"} {
		_, err := service.Grant(ctx, consent.GrantInput{
			UserDID: user.DID, VerifierDID: verifier.DID,
			Purpose:     purpose,
			AccessLevel: consent.AccessReadOnly, ExpirationPolicy: consent.ExpireIndefinite,
		})
		require.NoError(t, err)
	}

	byUser, err := service.ListByUser(ctx, user.DID)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byVerifier, err := service.ListByVerifier(ctx, verifier.DID)
	require.NoError(t, err)
	assert.Len(t, byVerifier, 2)
}
