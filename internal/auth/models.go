package auth

import "time"

// User is a registered wallet holder. PublicKey is the base58 raw signing
// key, the same bytes the DID encodes.
type User struct {
	DID       string    `json:"did"`
	PublicKey string    `json:"public_key"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Challenge is a single-use login nonce. It is consumed on first use and
// ignored after expiry.
type Challenge struct {
	DID       string    `json:"did"`
	Nonce     string    `json:"nonce"`
	ExpiresAt time.Time `json:"expires_at"`
}
