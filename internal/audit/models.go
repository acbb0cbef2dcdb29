package audit

import "time"

// Action labels what happened. Values are dot-scoped so downstream
// consumers can filter by prefix.
type Action string

const (
	ActionUserRegistered        Action = "user.registered"
	ActionCredentialIssued      Action = "credential.issued"
	ActionCredentialRevoked     Action = "credential.revoked"
	ActionCredentialDeleted     Action = "credential.deleted"
	ActionPresentationSubmitted Action = "presentation.submitted"
	ActionPresentationVerified  Action = "presentation.verified"
	ActionConsentGranted        Action = "consent.granted"
	ActionConsentRevoked        Action = "consent.revoked"
	ActionSchemaCreated         Action = "schema.created"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	ActorDID  string    `json:"actor_did"`
	SubjectID string    `json:"subject_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
