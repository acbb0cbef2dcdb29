package presentation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/credential"
	"github.com/blckdfly/sphyre/internal/disclosure"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/platform/metrics"
	"github.com/blckdfly/sphyre/internal/token"
	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Default validity window for submitted presentation tokens.
const presentationTTLSeconds int64 = 3600

// Service orchestrates the presentation exchange: verifiers publish
// requests, holders submit presentations against them, verifiers check the
// result and record a decision.
type Service struct {
	store       Store
	requests    RequestStore
	credentials *credential.Service
	policy      identity.MethodPolicy
	metrics     *metrics.Metrics
	audit       *audit.Recorder
	logger      *slog.Logger
}

func NewService(store Store, requests RequestStore, credentials *credential.Service, policy identity.MethodPolicy, m *metrics.Metrics, rec *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		requests:    requests,
		credentials: credentials,
		policy:      policy,
		metrics:     m,
		audit:       rec,
		logger:      logger,
	}
}

// CreateRequestInput describes the verifier's ask.
type CreateRequestInput struct {
	VerifierDID         string
	PresentationType    string
	RequiredCredentials []CredentialRequirement
	Purpose             string
	CallbackURL         string
	RecipientDID        string
	TTL                 time.Duration
}

// CreateRequest publishes a presentation request.
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (Request, error) {
	if err := s.policy.Validate(in.VerifierDID); err != nil {
		return Request{}, err
	}
	if in.PresentationType == "" {
		return Request{}, dErrors.New(dErrors.CodeValidation, "presentation type is required")
	}

	req := Request{
		ID:                  uuid.NewString(),
		VerifierDID:         in.VerifierDID,
		PresentationType:    in.PresentationType,
		RequiredCredentials: in.RequiredCredentials,
		Purpose:             in.Purpose,
		CallbackURL:         in.CallbackURL,
		RecipientDID:        in.RecipientDID,
		CreatedAt:           time.Now().UTC(),
	}
	// Zero TTL means the request never expires. A negative TTL yields a
	// request that is already expired rather than one that never is.
	if in.TTL != 0 {
		exp := req.CreatedAt.Add(in.TTL)
		req.ExpiresAt = &exp
	}
	if err := s.requests.Save(ctx, req); err != nil {
		return Request{}, dErrors.Wrap(err, dErrors.CodeStorage, "save presentation request")
	}
	return req, nil
}

// PredicateRequest asks for one predicate proof over an owned credential.
type PredicateRequest struct {
	CredentialID string                `json:"credential_id"`
	Attribute    string                `json:"attribute"`
	Type         disclosure.Comparator `json:"predicate_type"`
	Value        int64                 `json:"value"`
}

// SubmitInput carries a holder's answer to a presentation request.
type SubmitInput struct {
	ProverPrivateKey    string
	RequestID           string
	CredentialIDs       []string
	DisclosedAttributes map[string][]string
	Predicates          []PredicateRequest
}

// Submit builds selective disclosures and predicate proofs for the chosen
// credentials, wraps everything in a presentation token signed by the
// holder, and records the submission as pending.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Presentation, error) {
	prover, err := identity.FromPrivateKey(s.policy, in.ProverPrivateKey)
	if err != nil {
		return Presentation{}, err
	}

	req, err := s.requests.FindByID(ctx, in.RequestID)
	if err != nil {
		return Presentation{}, err
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		return Presentation{}, dErrors.New(dErrors.CodeValidation, "presentation request is expired")
	}
	if req.RecipientDID != "" && req.RecipientDID != prover.DID {
		return Presentation{}, dErrors.New(dErrors.CodeAccessDenied, "presentation request is addressed to a different DID")
	}
	if len(in.CredentialIDs) == 0 {
		return Presentation{}, dErrors.New(dErrors.CodeValidation, "no credentials selected")
	}

	credentialTokens := make([]string, 0, len(in.CredentialIDs))
	disclosed := make(map[string]attrs.Map, len(in.CredentialIDs))
	for _, credentialID := range in.CredentialIDs {
		cred, err := s.credentials.GetByID(ctx, credentialID)
		if err != nil {
			return Presentation{}, err
		}
		if cred.OwnerDID != prover.DID {
			return Presentation{}, dErrors.New(dErrors.CodeAccessDenied, "only owned credentials can be presented")
		}

		data, err := s.credentials.CreateSelectiveDisclosure(ctx, prover.DID, credentialID, in.DisclosedAttributes[credentialID])
		if err != nil {
			return Presentation{}, err
		}
		disclosed[credentialID] = data
		credentialTokens = append(credentialTokens, cred.Token)
	}

	proofs := make(map[string][]disclosure.PredicateProof)
	for _, p := range in.Predicates {
		proof, err := s.credentials.CreatePredicateProof(ctx, prover.DID, p.CredentialID, p.Attribute, p.Type, p.Value)
		if err != nil {
			return Presentation{}, err
		}
		proofs[p.CredentialID] = append(proofs[p.CredentialID], *proof)
	}
	if len(proofs) == 0 {
		proofs = nil
	}

	ttl := presentationTTLSeconds
	start := time.Now()
	tok, vp, err := token.CreatePresentation(prover, token.PresentationInput{
		VerifierDID:       req.VerifierDID,
		CredentialTokens:  credentialTokens,
		DisclosedData:     disclosed,
		PredicateProofs:   proofs,
		ExpirationSeconds: &ttl,
	})
	if err != nil {
		return Presentation{}, err
	}
	s.metrics.ObserveCrypto("presentation_sign", time.Since(start))

	pres := Presentation{
		ID:               vp.ID,
		ProverDID:        prover.DID,
		VerifierDID:      req.VerifierDID,
		PresentationType: req.PresentationType,
		CredentialIDs:    in.CredentialIDs,
		DisclosedData:    disclosed,
		PredicateProofs:  proofs,
		Token:            tok,
		Status:           StatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.Save(ctx, pres); err != nil {
		return Presentation{}, dErrors.Wrap(err, dErrors.CodeStorage, "save presentation")
	}

	s.metrics.PresentationsSubmitted.Inc()
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionPresentationSubmitted,
		ActorDID:  prover.DID,
		SubjectID: pres.ID,
		Detail:    req.PresentationType,
	})
	return pres, nil
}

// Verify checks a presentation token: its own signature and holder binding,
// every embedded credential, and every predicate proof. Credentials are
// verified concurrently since each check is independent.
func (s *Service) Verify(ctx context.Context, tok string) VerificationResult {
	result := VerificationResult{CheckedAt: time.Now().UTC()}

	_, claims, err := token.DecodeUnverified(tok)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		s.metrics.PresentationsVerified.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return result
	}
	vp, err := claims.Presentation()
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		s.metrics.PresentationsVerified.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return result
	}

	result.ProverDID = vp.Holder
	result.VerifierDID = claims.Audience
	result.PresentationType = presentationType(vp.Type)

	if _, _, err := token.Verify(tok); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	if publicKey, keyErr := claims.PublicKey(); keyErr != nil {
		result.Errors = append(result.Errors, keyErr.Error())
	} else if s.policy.DID(publicKey) != vp.Holder {
		result.Errors = append(result.Errors, "embedded public key does not match the holder DID")
	}

	var mu sync.Mutex
	subjects := make([]attrs.Map, len(vp.VerifiableCredential))

	g, gctx := errgroup.WithContext(ctx)
	for i, credentialToken := range vp.VerifiableCredential {
		g.Go(func() error {
			credResult := s.credentials.Verify(gctx, credentialToken)

			mu.Lock()
			defer mu.Unlock()
			if !credResult.IsValid {
				result.Errors = append(result.Errors,
					fmt.Sprintf("credential %d verification failed: %v", i, credResult.Errors))
			}
			if subject := credentialSubject(credentialToken); subject != nil {
				subjects[i] = subject
			}
			return nil
		})
	}
	// Goroutines only record outcomes, they never fail the group.
	_ = g.Wait()

	for _, subject := range subjects {
		if subject != nil {
			result.CredentialSubjects = append(result.CredentialSubjects, subject)
		}
	}

	start := time.Now()
	for credentialID, proofList := range vp.PredicateProofs {
		for _, proof := range proofList {
			ok, err := disclosure.VerifyPredicateProof(&proof)
			switch {
			case err != nil:
				result.Errors = append(result.Errors,
					fmt.Sprintf("predicate proof for %s.%s: %v", credentialID, proof.AttributeName, err))
			case !ok:
				result.Errors = append(result.Errors,
					fmt.Sprintf("predicate proof verification failed for attribute %s", proof.AttributeName))
			}
			s.metrics.ProofsVerified.WithLabelValues("predicate", metrics.VerificationOutcome(err == nil && ok)).Inc()
		}
	}
	if len(vp.PredicateProofs) > 0 {
		s.metrics.ObserveCrypto("predicate_verify", time.Since(start))
	}

	result.IsValid = len(result.Errors) == 0
	s.metrics.PresentationsVerified.WithLabelValues(metrics.VerificationOutcome(result.IsValid)).Inc()
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionPresentationVerified,
		ActorDID: result.VerifierDID,
		Detail:   fmt.Sprintf("valid=%t", result.IsValid),
	})
	return result
}

// UpdateStatus records the verifier's decision on a submitted presentation.
func (s *Service) UpdateStatus(ctx context.Context, callerDID, presentationID string, status Status) (Presentation, error) {
	if status != StatusVerified && status != StatusRejected {
		return Presentation{}, dErrors.New(dErrors.CodeValidation, "status must be verified or rejected")
	}
	pres, err := s.store.FindByID(ctx, presentationID)
	if err != nil {
		return Presentation{}, err
	}
	if pres.VerifierDID != callerDID {
		return Presentation{}, dErrors.New(dErrors.CodeAccessDenied, "only the verifier can decide a presentation")
	}

	pres.Status = status
	if status == StatusVerified {
		now := time.Now().UTC()
		pres.VerifiedAt = &now
		pres.IsVerified = true
	}
	if err := s.store.Save(ctx, pres); err != nil {
		return Presentation{}, dErrors.Wrap(err, dErrors.CodeStorage, "save presentation")
	}
	return pres, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Presentation, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) GetRequest(ctx context.Context, id string) (Request, error) {
	return s.requests.FindByID(ctx, id)
}

func (s *Service) ListByProver(ctx context.Context, proverDID string) ([]Presentation, error) {
	return s.store.ListByProver(ctx, proverDID)
}

func (s *Service) ListByVerifier(ctx context.Context, verifierDID string) ([]Presentation, error) {
	return s.store.ListByVerifier(ctx, verifierDID)
}

func (s *Service) ListRequestsByVerifier(ctx context.Context, verifierDID string) ([]Request, error) {
	return s.requests.ListByVerifier(ctx, verifierDID)
}

// presentationType picks the specific type, falling back to the generic one.
func presentationType(types []string) string {
	if len(types) > 1 {
		return types[1]
	}
	if len(types) == 1 {
		return types[0]
	}
	return "VerifiablePresentation"
}

// credentialSubject extracts the subject attributes of a credential token
// minus the "id" field, which is the subject DID rather than an attribute.
func credentialSubject(credentialToken string) attrs.Map {
	_, claims, err := token.DecodeUnverified(credentialToken)
	if err != nil {
		return nil
	}
	vc, err := claims.Credential()
	if err != nil {
		return nil
	}
	subject := make(attrs.Map, len(vc.CredentialSubject.Claims))
	for k, v := range vc.CredentialSubject.Claims {
		subject[k] = v
	}
	return subject
}
