package issuer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blckdfly/sphyre/internal/credential"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Credentials issued on approval default to a one year validity.
const issuedCredentialTTLSeconds int64 = 365 * 24 * 3600

// SchemaValidator checks a request's attributes against a registered
// schema. A nil validator skips the check.
type SchemaValidator interface {
	ValidateAttributes(ctx context.Context, schemaID string, data attrs.Map) error
}

// Service runs the credential request pipeline on the issuer side.
// Issuance audit events come from the credential service, so approval does
// not emit its own.
type Service struct {
	store       Store
	credentials *credential.Service
	schemas     SchemaValidator
	policy      identity.MethodPolicy
	logger      *slog.Logger
}

func NewService(store Store, credentials *credential.Service, schemas SchemaValidator, policy identity.MethodPolicy, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		credentials: credentials,
		schemas:     schemas,
		policy:      policy,
		logger:      logger,
	}
}

// SubmitInput is a user's ask for a credential from a specific issuer.
type SubmitInput struct {
	UserDID        string
	IssuerDID      string
	CredentialType string
	SchemaID       string
	RequestData    attrs.Map
}

// Submit records a pending credential request after validating both DIDs
// and, when a schema is named, the request data against it.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (CredentialRequest, error) {
	if err := s.policy.Validate(in.UserDID); err != nil {
		return CredentialRequest{}, err
	}
	if err := s.policy.Validate(in.IssuerDID); err != nil {
		return CredentialRequest{}, err
	}
	if in.CredentialType == "" {
		return CredentialRequest{}, dErrors.New(dErrors.CodeValidation, "credential type is required")
	}
	if len(in.RequestData) == 0 {
		return CredentialRequest{}, dErrors.New(dErrors.CodeValidation, "request data is empty")
	}
	if in.SchemaID != "" && s.schemas != nil {
		if err := s.schemas.ValidateAttributes(ctx, in.SchemaID, in.RequestData); err != nil {
			return CredentialRequest{}, err
		}
	}

	now := time.Now().UTC()
	req := CredentialRequest{
		ID:             uuid.NewString(),
		UserDID:        in.UserDID,
		IssuerDID:      in.IssuerDID,
		CredentialType: in.CredentialType,
		SchemaID:       in.SchemaID,
		RequestData:    in.RequestData.Clone(),
		Status:         RequestPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Save(ctx, req); err != nil {
		return CredentialRequest{}, dErrors.Wrap(err, dErrors.CodeStorage, "save credential request")
	}

	s.logger.Info("credential request submitted",
		"request_id", req.ID, "issuer_did", req.IssuerDID, "type", req.CredentialType)
	return req, nil
}

// Approve issues the requested credential with the issuer's key and marks
// the request issued. Only the addressed issuer can approve, and only while
// the request is pending.
func (s *Service) Approve(ctx context.Context, issuerPrivateKey, requestID string) (CredentialRequest, error) {
	issuerKeys, err := identity.FromPrivateKey(s.policy, issuerPrivateKey)
	if err != nil {
		return CredentialRequest{}, err
	}

	req, err := s.pendingRequestFor(ctx, issuerKeys.DID, requestID)
	if err != nil {
		return CredentialRequest{}, err
	}

	ttl := issuedCredentialTTLSeconds
	issued, err := s.credentials.Issue(ctx, credential.IssueInput{
		IssuerPrivateKey:  issuerPrivateKey,
		OwnerDID:          req.UserDID,
		CredentialType:    req.CredentialType,
		SchemaID:          req.SchemaID,
		CredentialData:    req.RequestData,
		ExpirationSeconds: &ttl,
	})
	if err != nil {
		return CredentialRequest{}, err
	}

	now := time.Now().UTC()
	req.Status = RequestIssued
	req.CredentialID = issued.Credential.ID
	req.UpdatedAt = now
	req.ProcessedAt = &now
	if err := s.store.Save(ctx, req); err != nil {
		return CredentialRequest{}, dErrors.Wrap(err, dErrors.CodeStorage, "save credential request")
	}

	s.logger.Info("credential request approved",
		"request_id", req.ID, "credential_id", req.CredentialID)
	return req, nil
}

// Reject closes a pending request without issuing anything.
func (s *Service) Reject(ctx context.Context, issuerDID, requestID, reason string) (CredentialRequest, error) {
	req, err := s.pendingRequestFor(ctx, issuerDID, requestID)
	if err != nil {
		return CredentialRequest{}, err
	}

	now := time.Now().UTC()
	req.Status = RequestRejected
	req.Reason = reason
	req.UpdatedAt = now
	req.ProcessedAt = &now
	if err := s.store.Save(ctx, req); err != nil {
		return CredentialRequest{}, dErrors.Wrap(err, dErrors.CodeStorage, "save credential request")
	}

	s.logger.Info("credential request rejected", "request_id", req.ID, "reason", reason)
	return req, nil
}

func (s *Service) pendingRequestFor(ctx context.Context, issuerDID, requestID string) (CredentialRequest, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return CredentialRequest{}, err
	}
	if req.IssuerDID != issuerDID {
		return CredentialRequest{}, dErrors.New(dErrors.CodeAccessDenied, "only the addressed issuer can process this request")
	}
	if req.Status != RequestPending {
		return CredentialRequest{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("request is not pending, current status: %s", req.Status))
	}
	return req, nil
}

// GetRequest returns one of the issuer's requests. Requester or issuer may
// read it, nobody else.
func (s *Service) GetRequest(ctx context.Context, callerDID, requestID string) (CredentialRequest, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return CredentialRequest{}, err
	}
	if req.IssuerDID != callerDID && req.UserDID != callerDID {
		return CredentialRequest{}, dErrors.New(dErrors.CodeAccessDenied, "not a party to this request")
	}
	return req, nil
}

func (s *Service) ListByIssuer(ctx context.Context, issuerDID string, filter RequestFilter) ([]CredentialRequest, error) {
	requests, err := s.store.ListByIssuer(ctx, issuerDID)
	if err != nil {
		return nil, err
	}
	return applyFilter(requests, filter), nil
}

func (s *Service) ListByUser(ctx context.Context, userDID string) ([]CredentialRequest, error) {
	return s.store.ListByUser(ctx, userDID)
}

func (s *Service) CountPending(ctx context.Context, issuerDID string) (int, error) {
	requests, err := s.store.ListByIssuer(ctx, issuerDID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, req := range requests {
		if req.Status == RequestPending {
			n++
		}
	}
	return n, nil
}

// IssuerStatistics summarizes the issuer's pipeline in one pass.
func (s *Service) IssuerStatistics(ctx context.Context, issuerDID string) (Statistics, error) {
	requests, err := s.store.ListByIssuer(ctx, issuerDID)
	if err != nil {
		return Statistics{}, err
	}
	stats := Statistics{TotalRequests: len(requests)}
	for _, req := range requests {
		switch req.Status {
		case RequestPending:
			stats.PendingRequests++
		case RequestRejected:
			stats.RejectedRequests++
		case RequestIssued:
			stats.IssuedRequests++
		}
	}
	return stats, nil
}

func applyFilter(requests []CredentialRequest, filter RequestFilter) []CredentialRequest {
	out := requests[:0]
	for _, req := range requests {
		if filter.matches(req) {
			out = append(out, req)
		}
	}
	return out
}
