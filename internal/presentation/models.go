package presentation

import (
	"time"

	"github.com/blckdfly/sphyre/internal/disclosure"
	"github.com/blckdfly/sphyre/pkg/attrs"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Presentation records a holder's submission against a verifier's request.
// The signed token is the artifact the verifier actually checks.
type Presentation struct {
	ID               string                                 `json:"id"`
	ProverDID        string                                 `json:"prover_did"`
	VerifierDID      string                                 `json:"verifier_did"`
	PresentationType string                                 `json:"presentation_type"`
	CredentialIDs    []string                               `json:"credential_ids"`
	DisclosedData    map[string]attrs.Map                   `json:"disclosed_data,omitempty"`
	PredicateProofs  map[string][]disclosure.PredicateProof `json:"predicate_proofs,omitempty"`
	Token            string                                 `json:"token"`
	Status           Status                                 `json:"status"`
	CreatedAt        time.Time                              `json:"created_at"`
	VerifiedAt       *time.Time                             `json:"verified_at,omitempty"`
	IsVerified       bool                                   `json:"is_verified"`
}

// Predicate names a comparison a verifier wants proven over an attribute.
type Predicate struct {
	Attribute string                `json:"attribute"`
	Type      disclosure.Comparator `json:"predicate_type"`
	Value     int64                 `json:"value"`
}

// CredentialRequirement describes one credential a verifier asks for.
type CredentialRequirement struct {
	CredentialType     string     `json:"credential_type"`
	IssuerDID          string     `json:"issuer_did,omitempty"`
	RequiredAttributes []string   `json:"required_attributes"`
	Predicate          *Predicate `json:"predicate,omitempty"`
}

// Request is a verifier's standing ask for a presentation.
type Request struct {
	ID                  string                  `json:"id"`
	VerifierDID         string                  `json:"verifier_did"`
	PresentationType    string                  `json:"presentation_type"`
	RequiredCredentials []CredentialRequirement `json:"required_credentials"`
	Purpose             string                  `json:"purpose"`
	CallbackURL         string                  `json:"callback_url,omitempty"`
	RecipientDID        string                  `json:"recipient_did,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	ExpiresAt           *time.Time              `json:"expires_at,omitempty"`
}

// VerificationResult aggregates the outcome of checking a presentation
// token and everything inside it.
type VerificationResult struct {
	IsValid            bool        `json:"is_valid"`
	Errors             []string    `json:"errors,omitempty"`
	ProverDID          string      `json:"prover_did,omitempty"`
	VerifierDID        string      `json:"verifier_did,omitempty"`
	PresentationType   string      `json:"presentation_type,omitempty"`
	CredentialSubjects []attrs.Map `json:"credential_subjects,omitempty"`
	CheckedAt          time.Time   `json:"checked_at"`
}
