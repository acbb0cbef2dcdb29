package token

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/blckdfly/sphyre/internal/disclosure"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var credentialContext = []string{
	"https://www.w3.org/2018/credentials/v1",
	"https://www.w3.org/2018/credentials/examples/v1",
}

// VerifiableCredential is the "vc" claim payload.
type VerifiableCredential struct {
	Context           []string          `json:"@context"`
	Type              []string          `json:"type"`
	ID                string            `json:"id"`
	Issuer            string            `json:"issuer"`
	IssuanceDate      string            `json:"issuanceDate"`
	ExpirationDate    string            `json:"expirationDate,omitempty"`
	CredentialSubject CredentialSubject `json:"credentialSubject"`
}

// CredentialSubject carries the subject DID and its attested attributes.
type CredentialSubject struct {
	ID     string    `json:"id"`
	Claims attrs.Map `json:"claims"`
}

// VerifiablePresentation is the "vp" claim payload. Credentials travel as
// complete signed tokens, so each one stays independently verifiable.
// Disclosed data and predicate proofs are keyed by credential ID.
type VerifiablePresentation struct {
	Context              []string                                 `json:"@context"`
	Type                 []string                                 `json:"type"`
	ID                   string                                   `json:"id"`
	Holder               string                                   `json:"holder"`
	VerifiableCredential []string                                 `json:"verifiableCredential"`
	DisclosedData        map[string]attrs.Map                     `json:"disclosedData,omitempty"`
	PredicateProofs      map[string][]disclosure.PredicateProof   `json:"predicateProofs,omitempty"`
}

// CreateCredential issues a signed credential token from issuer to
// subjectDID. expirationSeconds of nil means the credential never expires.
func CreateCredential(issuer *identity.KeyPair, subjectDID string, credentialData attrs.Map, expirationSeconds *int64) (string, *VerifiableCredential, error) {
	now := time.Now().UTC()
	var exp *int64
	var expirationDate string
	if expirationSeconds != nil {
		ts := now.Add(time.Duration(*expirationSeconds) * time.Second)
		unix := ts.Unix()
		exp = &unix
		expirationDate = ts.Format(time.RFC3339)
	}

	vc := &VerifiableCredential{
		Context:        credentialContext,
		Type:           []string{"VerifiableCredential", "PostQuantumCredential"},
		ID:             uuid.NewString(),
		Issuer:         issuer.DID,
		IssuanceDate:   now.Format(time.RFC3339),
		ExpirationDate: expirationDate,
		CredentialSubject: CredentialSubject{
			ID:     subjectDID,
			Claims: credentialData,
		},
	}

	nbf := now.Unix()
	claims := Claims{
		Issuer:    issuer.DID,
		Subject:   subjectDID,
		ExpiresAt: exp,
		NotBefore: &nbf,
		IssuedAt:  now.Unix(),
		ID:        vc.ID,
	}
	if err := attachPayload(&claims, ClaimCredential, vc, issuer); err != nil {
		return "", nil, err
	}

	tok, err := Create(NewHeader(issuer.DID), claims, issuer)
	if err != nil {
		return "", nil, err
	}
	return tok, vc, nil
}

// PresentationInput bundles everything a holder presents.
type PresentationInput struct {
	VerifierDID       string
	CredentialTokens  []string
	DisclosedData     map[string]attrs.Map
	PredicateProofs   map[string][]disclosure.PredicateProof
	ExpirationSeconds *int64
}

// CreatePresentation wraps credential tokens, disclosed data and predicate
// proofs in a presentation token signed by the holder.
func CreatePresentation(holder *identity.KeyPair, in PresentationInput) (string, *VerifiablePresentation, error) {
	now := time.Now().UTC()
	var exp *int64
	if in.ExpirationSeconds != nil {
		unix := now.Add(time.Duration(*in.ExpirationSeconds) * time.Second).Unix()
		exp = &unix
	}

	vp := &VerifiablePresentation{
		Context:              credentialContext,
		Type:                 []string{"VerifiablePresentation", "PostQuantumPresentation"},
		ID:                   uuid.NewString(),
		Holder:               holder.DID,
		VerifiableCredential: in.CredentialTokens,
		DisclosedData:        in.DisclosedData,
		PredicateProofs:      in.PredicateProofs,
	}

	nbf := now.Unix()
	claims := Claims{
		Issuer:    holder.DID,
		Audience:  in.VerifierDID,
		ExpiresAt: exp,
		NotBefore: &nbf,
		IssuedAt:  now.Unix(),
		ID:        vp.ID,
	}
	if err := attachPayload(&claims, ClaimPresentation, vp, holder); err != nil {
		return "", nil, err
	}

	tok, err := Create(NewHeader(holder.DID), claims, holder)
	if err != nil {
		return "", nil, err
	}
	return tok, vp, nil
}

func attachPayload(claims *Claims, key string, payload any, signer *identity.KeyPair) error {
	if err := claims.SetExtra(key, payload); err != nil {
		return err
	}
	rawPub, err := signer.RawPublicKey()
	if err != nil {
		return err
	}
	return claims.SetExtra(ClaimPublicKey, hex.EncodeToString(rawPub))
}

// Credential decodes the "vc" claim.
func (c *Claims) Credential() (*VerifiableCredential, error) {
	raw, ok := c.Extra[ClaimCredential]
	if !ok {
		return nil, dErrors.New(dErrors.CodeMissingClaim, "token does not contain a verifiable credential")
	}
	var vc VerifiableCredential
	if err := json.Unmarshal(raw, &vc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProtocol, "parse verifiable credential")
	}
	return &vc, nil
}

// Presentation decodes the "vp" claim.
func (c *Claims) Presentation() (*VerifiablePresentation, error) {
	raw, ok := c.Extra[ClaimPresentation]
	if !ok {
		return nil, dErrors.New(dErrors.CodeMissingClaim, "token does not contain a verifiable presentation")
	}
	var vp VerifiablePresentation
	if err := json.Unmarshal(raw, &vp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProtocol, "parse verifiable presentation")
	}
	return &vp, nil
}

// ExtractCredential verifies the token and returns its credential payload.
func ExtractCredential(tok string) (*VerifiableCredential, *Claims, error) {
	_, claims, err := Verify(tok)
	if err != nil {
		return nil, nil, err
	}
	vc, err := claims.Credential()
	if err != nil {
		return nil, nil, err
	}
	return vc, claims, nil
}

// ExtractPresentation verifies the token and returns its presentation payload.
func ExtractPresentation(tok string) (*VerifiablePresentation, *Claims, error) {
	_, claims, err := Verify(tok)
	if err != nil {
		return nil, nil, err
	}
	vp, err := claims.Presentation()
	if err != nil {
		return nil, nil, err
	}
	return vp, claims, nil
}
