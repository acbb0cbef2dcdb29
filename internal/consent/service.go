package consent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/identity"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Service records and checks purpose-bound consent between users and
// verifiers.
type Service struct {
	store  Store
	policy identity.MethodPolicy
	audit  *audit.Recorder
	logger *slog.Logger
}

func NewService(store Store, policy identity.MethodPolicy, rec *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, policy: policy, audit: rec, logger: logger}
}

// GrantInput describes the consent a user gives.
type GrantInput struct {
	UserDID          string
	VerifierDID      string
	Purpose          string
	DataCategories   []string
	AccessLevel      AccessLevel
	ExpirationPolicy ExpirationPolicy
	ExpiresAt        *time.Time
}

// Grant stores a consent record. A fixed_date policy requires an explicit
// expiry.
func (s *Service) Grant(ctx context.Context, in GrantInput) (Record, error) {
	if err := s.policy.Validate(in.UserDID); err != nil {
		return Record{}, err
	}
	if err := s.policy.Validate(in.VerifierDID); err != nil {
		return Record{}, err
	}
	if in.Purpose == "" {
		return Record{}, dErrors.New(dErrors.CodeValidation, "purpose is required")
	}
	if !in.AccessLevel.known() {
		return Record{}, dErrors.New(dErrors.CodeValidation, "unknown access level")
	}
	if !in.ExpirationPolicy.known() {
		return Record{}, dErrors.New(dErrors.CodeValidation, "unknown expiration policy")
	}
	if in.ExpirationPolicy == ExpireFixedDate && in.ExpiresAt == nil {
		return Record{}, dErrors.New(dErrors.CodeValidation, "fixed_date policy requires an expiry")
	}

	now := time.Now().UTC()
	record := Record{
		ID:               uuid.NewString(),
		UserDID:          in.UserDID,
		VerifierDID:      in.VerifierDID,
		Purpose:          in.Purpose,
		DataCategories:   in.DataCategories,
		AccessLevel:      in.AccessLevel,
		ExpirationPolicy: in.ExpirationPolicy,
		CreatedAt:        now,
		UpdatedAt:        now,
		ExpiresAt:        in.ExpiresAt,
	}
	if err := s.store.Save(ctx, record); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeStorage, "save consent record")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionConsentGranted,
		ActorDID:  record.UserDID,
		SubjectID: record.ID,
		Detail:    record.Purpose,
	})
	return record, nil
}

// Check reports whether an active consent exists between the user and
// verifier for the purpose.
func (s *Service) Check(ctx context.Context, verifierDID, userDID, purpose string) (bool, error) {
	records, err := s.store.ListByUser(ctx, userDID)
	if err != nil {
		return false, err
	}
	now := time.Now()
	for _, r := range records {
		if r.VerifierDID == verifierDID && r.Purpose == purpose && r.IsActive(now) {
			return true, nil
		}
	}
	return false, nil
}

// Require is Check as an error: missing consent is a missing_consent
// failure rather than a boolean.
func (s *Service) Require(ctx context.Context, verifierDID, userDID, purpose string) error {
	ok, err := s.Check(ctx, verifierDID, userDID, purpose)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeMissingConsent, "consent not granted for required purpose")
	}
	return nil
}

// Revoke withdraws a consent record. Only the user who granted it may
// revoke it, and revocation is terminal.
func (s *Service) Revoke(ctx context.Context, userDID, recordID string) (Record, error) {
	record, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if record.UserDID != userDID {
		return Record{}, dErrors.New(dErrors.CodeAccessDenied, "only the granting user can revoke consent")
	}
	if record.Revoked {
		return Record{}, dErrors.New(dErrors.CodeInvalidConsent, "consent is already revoked")
	}

	now := time.Now().UTC()
	record.Revoked = true
	record.RevokedAt = &now
	record.UpdatedAt = now
	if err := s.store.Save(ctx, record); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeStorage, "save consent record")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionConsentRevoked,
		ActorDID:  userDID,
		SubjectID: record.ID,
		Detail:    record.Purpose,
	})
	return record, nil
}

func (s *Service) ListByUser(ctx context.Context, userDID string) ([]Record, error) {
	return s.store.ListByUser(ctx, userDID)
}

func (s *Service) ListByVerifier(ctx context.Context, verifierDID string) ([]Record, error) {
	return s.store.ListByVerifier(ctx, verifierDID)
}
