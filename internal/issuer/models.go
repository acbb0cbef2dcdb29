package issuer

import (
	"time"

	"github.com/blckdfly/sphyre/pkg/attrs"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestRejected RequestStatus = "rejected"
	RequestIssued   RequestStatus = "issued"
)

// CredentialRequest is a user's ask for a credential. It moves from
// pending to issued or rejected; approval and issuance happen in one step
// since the issuer signs with its own key at decision time.
type CredentialRequest struct {
	ID             string        `json:"id"`
	UserDID        string        `json:"user_did"`
	IssuerDID      string        `json:"issuer_did"`
	CredentialType string        `json:"credential_type"`
	SchemaID       string        `json:"schema_id,omitempty"`
	RequestData    attrs.Map     `json:"request_data"`
	Status         RequestStatus `json:"status"`
	Reason         string        `json:"reason,omitempty"`
	CredentialID   string        `json:"credential_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	ProcessedAt    *time.Time    `json:"processed_at,omitempty"`
}

// RequestFilter narrows request listings. Zero fields match everything.
type RequestFilter struct {
	Status         RequestStatus
	UserDID        string
	SchemaID       string
	CredentialType string
}

func (f RequestFilter) matches(req CredentialRequest) bool {
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	if f.UserDID != "" && req.UserDID != f.UserDID {
		return false
	}
	if f.SchemaID != "" && req.SchemaID != f.SchemaID {
		return false
	}
	if f.CredentialType != "" && req.CredentialType != f.CredentialType {
		return false
	}
	return true
}

// Statistics summarizes an issuer's request pipeline.
type Statistics struct {
	TotalRequests    int `json:"total_requests"`
	PendingRequests  int `json:"pending_requests"`
	RejectedRequests int `json:"rejected_requests"`
	IssuedRequests   int `json:"issued_requests"`
}
