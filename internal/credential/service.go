package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	contract "github.com/blckdfly/sphyre/contracts/registry"
	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/blobstore"
	"github.com/blckdfly/sphyre/internal/disclosure"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/platform/metrics"
	"github.com/blckdfly/sphyre/internal/token"
	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Service drives the credential lifecycle: issue, verify, revoke, delete,
// and zero-knowledge disclosures over issued attributes.
type Service struct {
	store    Store
	blobs    blobstore.Store
	registry contract.Contract
	policy   identity.MethodPolicy
	metrics  *metrics.Metrics
	audit    *audit.Recorder
	logger   *slog.Logger
}

func NewService(store Store, blobs blobstore.Store, reg contract.Contract, policy identity.MethodPolicy, m *metrics.Metrics, rec *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		blobs:    blobs,
		registry: reg,
		policy:   policy,
		metrics:  m,
		audit:    rec,
		logger:   logger,
	}
}

// IssueInput carries everything needed to issue one credential.
type IssueInput struct {
	IssuerPrivateKey  string
	OwnerDID          string
	CredentialType    string
	SchemaID          string
	CredentialData    attrs.Map
	ExpirationSeconds *int64
}

// IssueResult returns the stored credential and the one-time encryption key
// for the off-chain payload. The key is not persisted anywhere.
type IssueResult struct {
	Credential    Credential `json:"credential"`
	EncryptionKey string     `json:"encryption_key"`
}

// Issue signs a credential token, anchors its hash in the registry, stores
// the encrypted payload off the main data path, and persists the record.
// The registry is written first: a credential that exists locally but not
// in the registry would verify as revoked, never the other way around.
func (s *Service) Issue(ctx context.Context, in IssueInput) (IssueResult, error) {
	if err := s.policy.Validate(in.OwnerDID); err != nil {
		return IssueResult{}, err
	}
	if len(in.CredentialData) == 0 {
		return IssueResult{}, dErrors.New(dErrors.CodeValidation, "credential data is empty")
	}

	issuer, err := identity.FromPrivateKey(s.policy, in.IssuerPrivateKey)
	if err != nil {
		return IssueResult{}, err
	}

	start := time.Now()
	tok, vc, err := token.CreateCredential(issuer, in.OwnerDID, in.CredentialData, in.ExpirationSeconds)
	if err != nil {
		return IssueResult{}, err
	}
	s.metrics.ObserveCrypto("credential_sign", time.Since(start))

	sealed, encryptionKey, err := blobstore.EncryptJSON(in.CredentialData)
	if err != nil {
		return IssueResult{}, err
	}
	storageRef, err := s.blobs.Upload(ctx, sealed)
	if err != nil {
		return IssueResult{}, dErrors.Wrap(err, dErrors.CodeStorage, "upload credential payload")
	}

	tokenHash := hashToken(tok)
	receipt, err := s.registry.RegisterCredential(ctx, issuer.DID, tokenHash, storageRef)
	if err != nil {
		return IssueResult{}, dErrors.Wrap(err, dErrors.CodeRegistry, "register credential")
	}

	now := time.Now().UTC()
	cred := Credential{
		ID:             vc.ID,
		IssuerDID:      issuer.DID,
		OwnerDID:       in.OwnerDID,
		CredentialType: in.CredentialType,
		SchemaID:       in.SchemaID,
		CredentialData: in.CredentialData,
		Token:          tok,
		TokenHash:      tokenHash,
		StorageRef:     storageRef,
		RegistryTx:     receipt.TxHash,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.ExpirationSeconds != nil {
		exp := now.Add(time.Duration(*in.ExpirationSeconds) * time.Second)
		cred.ExpiresAt = &exp
	}

	if err := s.store.Save(ctx, cred); err != nil {
		return IssueResult{}, dErrors.Wrap(err, dErrors.CodeStorage, "save credential")
	}

	s.metrics.CredentialsIssued.Inc()
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionCredentialIssued,
		ActorDID:  issuer.DID,
		SubjectID: cred.ID,
		Detail:    in.CredentialType,
	})
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", cred.ID,
		"issuer_did", issuer.DID,
		"owner_did", in.OwnerDID,
	)

	return IssueResult{Credential: cred, EncryptionKey: encryptionKey}, nil
}

// Verify runs every check on a credential token and reports them together,
// so a caller sees all failure reasons at once rather than the first one.
func (s *Service) Verify(ctx context.Context, tok string) VerificationResult {
	var result VerificationResult

	_, claims, err := token.DecodeUnverified(tok)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		s.metrics.CredentialsVerified.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return result
	}
	vc, err := claims.Credential()
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		s.metrics.CredentialsVerified.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return result
	}

	result.SubjectDID = vc.CredentialSubject.ID
	result.IssuerDID = vc.Issuer
	result.CredentialType = vc.Type
	result.IssuanceDate = vc.IssuanceDate
	result.ExpirationDate = vc.ExpirationDate

	if vc.ExpirationDate != "" {
		exp, parseErr := time.Parse(time.RFC3339, vc.ExpirationDate)
		if parseErr != nil {
			result.Errors = append(result.Errors, "credential has a malformed expiration date")
		} else if exp.Before(time.Now()) {
			result.IsExpired = true
			result.Errors = append(result.Errors, "credential is expired")
		}
	}

	start := time.Now()
	if _, _, err := token.VerifySignature(tok); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	s.metrics.ObserveCrypto("credential_verify", time.Since(start))

	// The DID is self-certifying: the embedded key must reproduce the
	// issuer DID, otherwise the signature proves nothing about the issuer.
	if publicKey, keyErr := claims.PublicKey(); keyErr != nil {
		result.Errors = append(result.Errors, keyErr.Error())
	} else if s.policy.DID(publicKey) != vc.Issuer {
		result.Errors = append(result.Errors, "embedded public key does not match the issuer DID")
	}

	valid, regErr := s.registry.IsCredentialValid(ctx, vc.Issuer, hashToken(tok))
	switch {
	case regErr != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("registry check failed: %v", regErr))
	case !valid:
		result.IsRevoked = true
		result.Errors = append(result.Errors, "credential is revoked or not registered")
	}

	result.IsValid = len(result.Errors) == 0
	s.metrics.CredentialsVerified.WithLabelValues(metrics.VerificationOutcome(result.IsValid)).Inc()
	return result
}

// Revoke marks a credential revoked in the registry and locally. Only the
// issuer may revoke, and revocation is permanent.
func (s *Service) Revoke(ctx context.Context, callerDID, credentialID string) (Credential, error) {
	cred, err := s.store.FindByID(ctx, credentialID)
	if err != nil {
		return Credential{}, err
	}
	if cred.IssuerDID != callerDID {
		return Credential{}, dErrors.New(dErrors.CodeAccessDenied, "only the issuer can revoke a credential")
	}
	if cred.Status == StatusRevoked {
		return Credential{}, dErrors.New(dErrors.CodeValidation, "credential is already revoked")
	}

	if _, err := s.registry.RevokeCredential(ctx, cred.IssuerDID, cred.TokenHash); err != nil {
		return Credential{}, dErrors.Wrap(err, dErrors.CodeRegistry, "revoke credential")
	}

	now := time.Now().UTC()
	cred.Status = StatusRevoked
	cred.RevokedAt = &now
	cred.UpdatedAt = now
	if err := s.store.Save(ctx, cred); err != nil {
		return Credential{}, dErrors.Wrap(err, dErrors.CodeStorage, "save credential")
	}

	s.metrics.CredentialsRevoked.Inc()
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionCredentialRevoked,
		ActorDID:  callerDID,
		SubjectID: cred.ID,
	})
	return cred, nil
}

// Delete removes the local record. The registry anchor is untouched, so the
// token can no longer be presented as anything but revoked-or-unknown once
// the issuer also revokes it; deletion alone is a local cleanup for owners.
func (s *Service) Delete(ctx context.Context, callerDID, credentialID string) error {
	cred, err := s.store.FindByID(ctx, credentialID)
	if err != nil {
		return err
	}
	if cred.OwnerDID != callerDID {
		return dErrors.New(dErrors.CodeAccessDenied, "only the owner can delete a credential")
	}
	if err := s.store.Delete(ctx, credentialID); err != nil {
		return err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionCredentialDeleted,
		ActorDID:  callerDID,
		SubjectID: credentialID,
	})
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Credential, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerDID string, filter Filter) ([]Credential, error) {
	creds, err := s.store.ListByOwner(ctx, ownerDID)
	if err != nil {
		return nil, err
	}
	return applyFilter(creds, filter), nil
}

func (s *Service) ListByIssuer(ctx context.Context, issuerDID string, filter Filter) ([]Credential, error) {
	creds, err := s.store.ListByIssuer(ctx, issuerDID)
	if err != nil {
		return nil, err
	}
	return applyFilter(creds, filter), nil
}

// CreateSelectiveDisclosure reveals the requested attributes of an owned
// credential, binding the rest under a commitment hash.
func (s *Service) CreateSelectiveDisclosure(ctx context.Context, callerDID, credentialID string, disclosed []string) (attrs.Map, error) {
	cred, err := s.ownedCredential(ctx, callerDID, credentialID)
	if err != nil {
		return nil, err
	}
	out, err := disclosure.Disclose(cred.CredentialData, disclosed)
	if err != nil {
		return nil, err
	}
	s.metrics.ProofsCreated.WithLabelValues("selective_disclosure").Inc()
	return out, nil
}

// CreatePredicateProof builds a zero-knowledge comparison proof over a
// numeric attribute of an owned credential. Numeric strings are accepted.
func (s *Service) CreatePredicateProof(ctx context.Context, callerDID, credentialID, attributeName string, cmp disclosure.Comparator, threshold int64) (*disclosure.PredicateProof, error) {
	cred, err := s.ownedCredential(ctx, callerDID, credentialID)
	if err != nil {
		return nil, err
	}
	value, ok := cred.CredentialData[attributeName]
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("attribute %s not found in credential", attributeName))
	}
	numeric, ok := value.Int64()
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("attribute %s is not an integer", attributeName))
	}

	start := time.Now()
	proof, err := disclosure.CreatePredicateProof(attributeName, numeric, cmp, threshold)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCrypto("predicate_prove", time.Since(start))
	s.metrics.ProofsCreated.WithLabelValues("predicate").Inc()
	return proof, nil
}

func (s *Service) ownedCredential(ctx context.Context, callerDID, credentialID string) (Credential, error) {
	cred, err := s.store.FindByID(ctx, credentialID)
	if err != nil {
		return Credential{}, err
	}
	if cred.OwnerDID != callerDID {
		return Credential{}, dErrors.New(dErrors.CodeAccessDenied, "credential belongs to a different DID")
	}
	return cred, nil
}

func applyFilter(creds []Credential, filter Filter) []Credential {
	now := time.Now()
	out := make([]Credential, 0, len(creds))
	for _, c := range creds {
		if filter.matches(c, now) {
			out = append(out, c)
		}
	}
	return out
}

func hashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// TokenHash exposes the canonical token hash used for registry anchoring.
func TokenHash(tok string) string {
	return hashToken(tok)
}
