// Package token implements the signed envelope carrying credentials and
// presentations. The wire format is three base64url segments in the JWT
// style, but signatures are ML-DSA and the signer's public key travels
// inside the claims ("pqk"), making every token self-contained.
package token

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/identity/pq"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Claim keys for the self-certifying payload parts.
const (
	ClaimPublicKey    = "pqk"
	ClaimCredential   = "vc"
	ClaimPresentation = "vp"
)

var b64 = base64.RawURLEncoding

// Header is the first token segment.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
	Kid string `json:"kid"`
}

// Claims is the second token segment. Extra claims are flattened into the
// same JSON object as the registered ones.
type Claims struct {
	Issuer    string
	Subject   string
	Audience  string
	ExpiresAt *int64
	NotBefore *int64
	IssuedAt  int64
	ID        string

	Extra map[string]json.RawMessage
}

type registeredClaims struct {
	Iss string `json:"iss"`
	Sub string `json:"sub,omitempty"`
	Aud string `json:"aud,omitempty"`
	Exp *int64 `json:"exp,omitempty"`
	Nbf *int64 `json:"nbf,omitempty"`
	Iat int64  `json:"iat"`
	Jti string `json:"jti"`
}

// MarshalJSON flattens Extra alongside the registered claims.
func (c Claims) MarshalJSON() ([]byte, error) {
	reg, err := json.Marshal(registeredClaims{
		Iss: c.Issuer,
		Sub: c.Subject,
		Aud: c.Audience,
		Exp: c.ExpiresAt,
		Nbf: c.NotBefore,
		Iat: c.IssuedAt,
		Jti: c.ID,
	})
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return reg, nil
	}

	merged := make(map[string]json.RawMessage, len(c.Extra)+7)
	if err := json.Unmarshal(reg, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON splits registered claims from the flattened extras.
func (c *Claims) UnmarshalJSON(data []byte) error {
	var reg registeredClaims
	if err := json.Unmarshal(data, &reg); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"} {
		delete(all, k)
	}

	*c = Claims{
		Issuer:    reg.Iss,
		Subject:   reg.Sub,
		Audience:  reg.Aud,
		ExpiresAt: reg.Exp,
		NotBefore: reg.Nbf,
		IssuedAt:  reg.Iat,
		ID:        reg.Jti,
		Extra:     all,
	}
	return nil
}

// SetExtra stores v under key in the extra claims.
func (c *Claims) SetExtra(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeProtocol, "encode claim "+key)
	}
	if c.Extra == nil {
		c.Extra = make(map[string]json.RawMessage)
	}
	c.Extra[key] = raw
	return nil
}

// PublicKey decodes the embedded "pqk" claim.
func (c *Claims) PublicKey() ([]byte, error) {
	raw, ok := c.Extra[ClaimPublicKey]
	if !ok {
		return nil, dErrors.New(dErrors.CodeMissingClaim, "token carries no public key")
	}
	var hexKey string
	if err := json.Unmarshal(raw, &hexKey); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProtocol, "decode public key claim")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProtocol, "decode public key hex")
	}
	return key, nil
}

// NewHeader builds the header for a token signed by signerDID.
func NewHeader(signerDID string) Header {
	return Header{
		Alg: pq.AlgorithmName,
		Typ: "JWT",
		Kid: fmt.Sprintf("%s#pq-keys-1", signerDID),
	}
}

// Create signs header and claims with the keypair and assembles the token.
func Create(header Header, claims Claims, signer *identity.KeyPair) (string, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeProtocol, "encode token header")
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeProtocol, "encode token claims")
	}

	signingInput := b64.EncodeToString(headerJSON) + "." + b64.EncodeToString(claimsJSON)
	signature, err := signer.Sign([]byte(signingInput))
	if err != nil {
		return "", err
	}
	return signingInput + "." + b64.EncodeToString(signature), nil
}

// DecodeUnverified parses the header and claims without checking the
// signature or the validity window.
func DecodeUnverified(tok string) (*Header, *Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return nil, nil, dErrors.New(dErrors.CodeProtocol, "token does not have three segments")
	}

	headerJSON, err := b64.DecodeString(parts[0])
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeProtocol, "decode token header")
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeProtocol, "parse token header")
	}

	claimsJSON, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeProtocol, "decode token claims")
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeProtocol, "parse token claims")
	}

	return &header, &claims, nil
}

// VerifySignature checks the algorithm and signature against the embedded
// public key. It does not evaluate exp or nbf, so callers can report
// signature and temporal failures independently.
func VerifySignature(tok string) (*Header, *Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return nil, nil, dErrors.New(dErrors.CodeProtocol, "token does not have three segments")
	}

	header, claims, err := DecodeUnverified(tok)
	if err != nil {
		return nil, nil, err
	}
	if header.Alg != pq.AlgorithmName {
		return nil, nil, dErrors.New(dErrors.CodeUnsupportedAlgorithm,
			fmt.Sprintf("token algorithm %q is not %s", header.Alg, pq.AlgorithmName))
	}

	publicKey, err := claims.PublicKey()
	if err != nil {
		return nil, nil, err
	}
	signature, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeProtocol, "decode token signature")
	}

	signingInput := parts[0] + "." + parts[1]
	if !pq.Verify(publicKey, []byte(signingInput), signature) {
		return nil, nil, dErrors.New(dErrors.CodeInvalidSignature, "token signature verification failed")
	}
	return header, claims, nil
}

// Verify checks the signature and the validity window.
func Verify(tok string) (*Header, *Claims, error) {
	header, claims, err := VerifySignature(tok)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().Unix()
	if claims.ExpiresAt != nil && *claims.ExpiresAt < now {
		return nil, nil, dErrors.New(dErrors.CodeExpired, "token is expired")
	}
	if claims.NotBefore != nil && *claims.NotBefore > now {
		return nil, nil, dErrors.New(dErrors.CodeNotYetValid, "token is not yet valid")
	}
	return header, claims, nil
}
