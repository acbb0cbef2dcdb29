package consent

import "time"

// AccessLevel bounds what the verifier may do with data covered by a
// consent record.
type AccessLevel string

const (
	AccessReadOnly  AccessLevel = "read_only"
	AccessReadWrite AccessLevel = "read_write"
	AccessFull      AccessLevel = "full_access"
	AccessOneTime   AccessLevel = "one_time"
)

func (a AccessLevel) known() bool {
	switch a {
	case AccessReadOnly, AccessReadWrite, AccessFull, AccessOneTime:
		return true
	}
	return false
}

// ExpirationPolicy says how a consent record ends.
type ExpirationPolicy string

const (
	ExpireFixedDate  ExpirationPolicy = "fixed_date"
	ExpireOneTimeUse ExpirationPolicy = "one_time_use"
	ExpireIndefinite ExpirationPolicy = "indefinite"
)

func (p ExpirationPolicy) known() bool {
	switch p {
	case ExpireFixedDate, ExpireOneTimeUse, ExpireIndefinite:
		return true
	}
	return false
}

// Record captures a user's decision to share data with one verifier for
// one purpose. Purpose binding keeps revocation narrow.
type Record struct {
	ID               string           `json:"id"`
	UserDID          string           `json:"user_did"`
	VerifierDID      string           `json:"verifier_did"`
	Purpose          string           `json:"purpose"`
	DataCategories   []string         `json:"data_categories"`
	AccessLevel      AccessLevel      `json:"access_level"`
	ExpirationPolicy ExpirationPolicy `json:"expiration_policy"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
	Revoked          bool             `json:"revoked"`
	RevokedAt        *time.Time       `json:"revoked_at,omitempty"`
}

// IsActive reports whether the record grants access at the given instant.
func (r Record) IsActive(now time.Time) bool {
	if r.Revoked {
		return false
	}
	if r.ExpiresAt != nil && r.ExpiresAt.Before(now) {
		return false
	}
	return true
}
