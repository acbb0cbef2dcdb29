package credential

import (
	"time"

	"github.com/blckdfly/sphyre/pkg/attrs"
)

// Status is the stored lifecycle state. Expiry is derived from the clock
// rather than stored, see EffectiveStatus.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// Credential is the issuer-side record of an issued credential. The signed
// token is the portable artifact; this record tracks its lifecycle.
type Credential struct {
	ID             string     `json:"id"`
	IssuerDID      string     `json:"issuer_did"`
	OwnerDID       string     `json:"owner_did"`
	CredentialType string     `json:"credential_type"`
	SchemaID       string     `json:"schema_id,omitempty"`
	CredentialData attrs.Map  `json:"credential_data"`
	Token          string     `json:"token"`
	TokenHash      string     `json:"token_hash"`
	StorageRef     string     `json:"storage_ref,omitempty"`
	RegistryTx     string     `json:"registry_tx,omitempty"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
}

// EffectiveStatus folds expiry into the stored status. Revocation wins over
// expiry.
func (c Credential) EffectiveStatus(now time.Time) Status {
	if c.Status == StatusRevoked {
		return StatusRevoked
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return StatusExpired
	}
	return c.Status
}

// Filter narrows credential listings. Zero values match everything.
type Filter struct {
	CredentialType string
	SchemaID       string
	Status         Status
}

func (f Filter) matches(c Credential, now time.Time) bool {
	if f.CredentialType != "" && c.CredentialType != f.CredentialType {
		return false
	}
	if f.SchemaID != "" && c.SchemaID != f.SchemaID {
		return false
	}
	if f.Status != "" && c.EffectiveStatus(now) != f.Status {
		return false
	}
	return true
}

// VerificationResult reports every check outcome for one credential token.
// IsValid is true only when Errors is empty; the other fields are filled
// on a best-effort basis even for invalid tokens.
type VerificationResult struct {
	IsValid        bool     `json:"is_valid"`
	Errors         []string `json:"errors,omitempty"`
	SubjectDID     string   `json:"subject_did,omitempty"`
	IssuerDID      string   `json:"issuer_did,omitempty"`
	CredentialType []string `json:"credential_type,omitempty"`
	IssuanceDate   string   `json:"issuance_date,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	IsExpired      bool     `json:"is_expired"`
	IsRevoked      bool     `json:"is_revoked"`
}
