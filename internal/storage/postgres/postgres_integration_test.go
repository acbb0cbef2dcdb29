//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/blckdfly/sphyre/internal/credential"
	"github.com/blckdfly/sphyre/internal/presentation"
	"github.com/blckdfly/sphyre/internal/storage/postgres"
	"github.com/blckdfly/sphyre/pkg/attrs"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *postgres.DB
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("sphyre"),
		tcpostgres.WithUsername("sphyre"),
		tcpostgres.WithPassword("sphyre"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := postgres.Connect(ctx, dsn)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func newTestCredential(ownerDID, issuerDID string) credential.Credential {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return credential.Credential{
		ID:             uuid.NewString(),
		IssuerDID:      issuerDID,
		OwnerDID:       ownerDID,
		CredentialType: "ProofOfAge",
		CredentialData: attrs.Map{"age": attrs.Int(25)},
		Token:          "header.payload.signature",
		TokenHash:      uuid.NewString(),
		Status:         credential.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *PostgresStoreSuite) TestCredentialRoundTrip() {
	ctx := context.Background()
	store := postgres.NewCredentialStore(s.db)

	owner := "did:alyra:" + uuid.NewString()
	issuer := "did:alyra:" + uuid.NewString()
	cred := newTestCredential(owner, issuer)

	s.Require().NoError(store.Save(ctx, cred))

	found, err := store.FindByID(ctx, cred.ID)
	s.Require().NoError(err)
	s.Equal(cred.ID, found.ID)
	s.Equal(cred.CredentialData, found.CredentialData)
	s.Equal(credential.StatusActive, found.Status)

	// Save is an upsert; status transitions persist.
	now := time.Now().UTC().Truncate(time.Microsecond)
	cred.Status = credential.StatusRevoked
	cred.RevokedAt = &now
	s.Require().NoError(store.Save(ctx, cred))

	found, err = store.FindByID(ctx, cred.ID)
	s.Require().NoError(err)
	s.Equal(credential.StatusRevoked, found.Status)
	s.Require().NotNil(found.RevokedAt)

	byOwner, err := store.ListByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Len(byOwner, 1)

	byIssuer, err := store.ListByIssuer(ctx, issuer)
	s.Require().NoError(err)
	s.Len(byIssuer, 1)

	s.Require().NoError(store.Delete(ctx, cred.ID))
	_, err = store.FindByID(ctx, cred.ID)
	s.ErrorIs(err, credential.ErrNotFound)
	s.ErrorIs(store.Delete(ctx, cred.ID), credential.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCredentialListOrdering() {
	ctx := context.Background()
	store := postgres.NewCredentialStore(s.db)
	owner := "did:alyra:" + uuid.NewString()

	for i := 0; i < 3; i++ {
		cred := newTestCredential(owner, "did:alyra:issuer")
		cred.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		s.Require().NoError(store.Save(ctx, cred))
	}

	creds, err := store.ListByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(creds, 3)
	s.True(creds[0].CreatedAt.After(creds[2].CreatedAt), "expected newest first")
}

func (s *PostgresStoreSuite) TestPresentationRoundTrip() {
	ctx := context.Background()
	store := postgres.NewPresentationStore(s.db)
	requests := postgres.NewPresentationRequestStore(s.db)

	prover := "did:alyra:" + uuid.NewString()
	verifier := "did:alyra:" + uuid.NewString()

	req := presentation.Request{
		ID:               uuid.NewString(),
		VerifierDID:      verifier,
		PresentationType: "AgeVerification",
		Purpose:          "age gate",
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(requests.Save(ctx, req))

	foundReq, err := requests.FindByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.Purpose, foundReq.Purpose)

	pres := presentation.Presentation{
		ID:               uuid.NewString(),
		ProverDID:        prover,
		VerifierDID:      verifier,
		PresentationType: "AgeVerification",
		CredentialIDs:    []string{uuid.NewString()},
		Token:            "header.payload.signature",
		Status:           presentation.StatusPending,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(store.Save(ctx, pres))

	byProver, err := store.ListByProver(ctx, prover)
	s.Require().NoError(err)
	s.Require().Len(byProver, 1)
	s.Equal(pres.ID, byProver[0].ID)

	byVerifier, err := store.ListByVerifier(ctx, verifier)
	s.Require().NoError(err)
	s.Len(byVerifier, 1)

	_, err = store.FindByID(ctx, uuid.NewString())
	s.ErrorIs(err, presentation.ErrNotFound)
}
