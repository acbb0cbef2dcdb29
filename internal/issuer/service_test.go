package issuer_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/blobstore"
	"github.com/blckdfly/sphyre/internal/credential"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/issuer"
	"github.com/blckdfly/sphyre/internal/platform/metrics"
	"github.com/blckdfly/sphyre/internal/registry"
	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var (
	policy      = identity.NewMethodPolicy("alyra")
	testMetrics = metrics.New()
)

type fixture struct {
	service     *issuer.Service
	credentials *credential.Service
	issuerKeys  *identity.KeyPair
	user        *identity.KeyPair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	inbox := make(chan audit.Event, 64)
	recorder := audit.NewRecorder(inbox, slog.Default())
	credentials := credential.NewService(
		credential.NewInMemoryStore(), blobstore.NewInMemoryStore(), registry.NewInMemory(),
		policy, testMetrics, recorder, slog.Default())

	issuerKeys, err := identity.Generate(policy)
	require.NoError(t, err)
	user, err := identity.Generate(policy)
	require.NoError(t, err)

	return &fixture{
		service:     issuer.NewService(issuer.NewInMemoryStore(), credentials, nil, policy, slog.Default()),
		credentials: credentials,
		issuerKeys:  issuerKeys,
		user:        user,
	}
}

func (f *fixture) submit(t *testing.T) issuer.CredentialRequest {
	t.Helper()
	req, err := f.service.Submit(context.Background(), issuer.SubmitInput{
		UserDID:        f.user.DID,
		IssuerDID:      f.issuerKeys.DID,
		CredentialType: "ProofOfAge",
		RequestData:    attrs.Map{"name": attrs.String("Alice"), "age": attrs.Int(25)},
	})
	require.NoError(t, err)
	return req
}

func TestSubmitRequest(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t)

	assert.Equal(t, issuer.RequestPending, req.Status)
	assert.Equal(t, f.user.DID, req.UserDID)
	assert.Equal(t, f.issuerKeys.DID, req.IssuerDID)
	assert.NotEmpty(t, req.ID)
	assert.Nil(t, req.ProcessedAt)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Submit(ctx, issuer.SubmitInput{
		UserDID: "did:other:abc", IssuerDID: f.issuerKeys.DID,
		CredentialType: "ProofOfAge",
		RequestData:    attrs.Map{"age": attrs.Int(25)},
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = f.service.Submit(ctx, issuer.SubmitInput{
		UserDID: f.user.DID, IssuerDID: f.issuerKeys.DID,
		CredentialType: "ProofOfAge",
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestApproveIssuesCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.submit(t)

	processed, err := f.service.Approve(ctx, f.issuerKeys.PrivateKey, req.ID)
	require.NoError(t, err)
	assert.Equal(t, issuer.RequestIssued, processed.Status)
	require.NotEmpty(t, processed.CredentialID)
	require.NotNil(t, processed.ProcessedAt)

	cred, err := f.credentials.GetByID(ctx, processed.CredentialID)
	require.NoError(t, err)
	assert.Equal(t, f.user.DID, cred.OwnerDID)
	assert.Equal(t, f.issuerKeys.DID, cred.IssuerDID)
	assert.Equal(t, "ProofOfAge", cred.CredentialType)
	require.NotNil(t, cred.ExpiresAt)

	result := f.credentials.Verify(ctx, cred.Token)
	assert.True(t, result.IsValid, "errors: %v", result.Errors)
}

func TestApproveWrongIssuer(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t)

	other, err := identity.Generate(policy)
	require.NoError(t, err)

	_, err = f.service.Approve(context.Background(), other.PrivateKey, req.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func TestProcessedRequestIsFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.submit(t)

	_, err := f.service.Reject(ctx, f.issuerKeys.DID, req.ID, "insufficient evidence")
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, f.issuerKeys.PrivateKey, req.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	stored, err := f.service.GetRequest(ctx, f.user.DID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, issuer.RequestRejected, stored.Status)
	assert.Equal(t, "insufficient evidence", stored.Reason)
}

func TestGetRequestAccessControl(t *testing.T) {
	f := newFixture(t)
	req := f.submit(t)

	stranger, err := identity.Generate(policy)
	require.NoError(t, err)

	_, err = f.service.GetRequest(context.Background(), stranger.DID, req.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func TestListAndStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.submit(t)
	second := f.submit(t)
	third := f.submit(t)

	_, err := f.service.Approve(ctx, f.issuerKeys.PrivateKey, first.ID)
	require.NoError(t, err)
	_, err = f.service.Reject(ctx, f.issuerKeys.DID, second.ID, "no")
	require.NoError(t, err)

	pending, err := f.service.ListByIssuer(ctx, f.issuerKeys.DID, issuer.RequestFilter{Status: issuer.RequestPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, third.ID, pending[0].ID)

	byUser, err := f.service.ListByUser(ctx, f.user.DID)
	require.NoError(t, err)
	assert.Len(t, byUser, 3)

	n, err := f.service.CountPending(ctx, f.issuerKeys.DID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err := f.service.IssuerStatistics(ctx, f.issuerKeys.DID)
	require.NoError(t, err)
	assert.Equal(t, issuer.Statistics{
		TotalRequests:   3,
		PendingRequests: 1, RejectedRequests: 1, IssuedRequests: 1,
	}, stats)
}
