// Package identity implements self-certifying decentralized identifiers.
// A DID embeds the holder's full ML-DSA public key, so resolving a DID to
// its verification key needs no directory lookup.
package identity

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/blckdfly/sphyre/internal/identity/pq"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// KeyPair holds a DID with its key material in base58 form. PrivateKey is
// empty for public-only pairs built from a bare DID.
type KeyPair struct {
	DID        string `json:"did"`
	PublicKey  string `json:"public_key_base58"`
	PrivateKey string `json:"private_key_base58,omitempty"`
}

// MethodPolicy pins which DID method this deployment accepts.
type MethodPolicy struct {
	method string
	prefix string
}

// NewMethodPolicy builds a policy for the given method name, e.g. "alyra".
func NewMethodPolicy(method string) MethodPolicy {
	return MethodPolicy{method: method, prefix: "did:" + method + ":"}
}

// Method returns the accepted method name.
func (p MethodPolicy) Method() string { return p.method }

// DID derives the identifier for a raw public key.
func (p MethodPolicy) DID(rawPublicKey []byte) string {
	return p.prefix + base58.Encode(rawPublicKey)
}

// Validate checks that did is well formed and uses the accepted method.
func (p MethodPolicy) Validate(did string) error {
	if !strings.HasPrefix(did, "did:") {
		return dErrors.New(dErrors.CodeValidation, "identifier is not a DID")
	}
	if !strings.HasPrefix(did, p.prefix) {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("only the did:%s method is supported", p.method))
	}
	if did == p.prefix {
		return dErrors.New(dErrors.CodeValidation, "DID has an empty method-specific id")
	}
	return nil
}

// PublicKeyFromDID extracts the raw public key embedded in a DID.
func (p MethodPolicy) PublicKeyFromDID(did string) ([]byte, error) {
	if err := p.Validate(did); err != nil {
		return nil, err
	}
	raw, err := base58.Decode(strings.TrimPrefix(did, p.prefix))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "decode DID public key")
	}
	if len(raw) != pq.PublicKeySize {
		return nil, dErrors.New(dErrors.CodeValidation, "DID public key has wrong length")
	}
	return raw, nil
}

// Generate creates a fresh keypair and its DID.
//
// The private key is framed as privateKey||publicKey before encoding, so the
// public half can always be recovered from the private encoding alone.
func Generate(policy MethodPolicy) (*KeyPair, error) {
	rawPub, rawPriv, err := pq.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	framed := make([]byte, 0, len(rawPriv)+len(rawPub))
	framed = append(framed, rawPriv...)
	framed = append(framed, rawPub...)
	return &KeyPair{
		DID:        policy.DID(rawPub),
		PublicKey:  base58.Encode(rawPub),
		PrivateKey: base58.Encode(framed),
	}, nil
}

// FromPrivateKey rebuilds a keypair from a framed private key encoding. The
// public key is read from the tail of the frame.
func FromPrivateKey(policy MethodPolicy, privateKeyB58 string) (*KeyPair, error) {
	framed, err := base58.Decode(privateKeyB58)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "decode private key")
	}
	if len(framed) != pq.PrivateKeySize+pq.PublicKeySize {
		return nil, dErrors.New(dErrors.CodeCrypto, "private key has wrong length")
	}
	rawPub := framed[pq.PrivateKeySize:]
	return &KeyPair{
		DID:        policy.DID(rawPub),
		PublicKey:  base58.Encode(rawPub),
		PrivateKey: privateKeyB58,
	}, nil
}

// FromDID builds a public-only keypair from a DID.
func FromDID(policy MethodPolicy, did string) (*KeyPair, error) {
	rawPub, err := policy.PublicKeyFromDID(did)
	if err != nil {
		return nil, err
	}
	return &KeyPair{DID: did, PublicKey: base58.Encode(rawPub)}, nil
}

// RawPublicKey decodes the base58 public key.
func (kp *KeyPair) RawPublicKey() ([]byte, error) {
	raw, err := base58.Decode(kp.PublicKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "decode public key")
	}
	return raw, nil
}

// Sign signs data with the pair's private key.
func (kp *KeyPair) Sign(data []byte) ([]byte, error) {
	if kp.PrivateKey == "" {
		return nil, dErrors.New(dErrors.CodeCrypto, "keypair has no private key")
	}
	framed, err := base58.Decode(kp.PrivateKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "decode private key")
	}
	if len(framed) != pq.PrivateKeySize+pq.PublicKeySize {
		return nil, dErrors.New(dErrors.CodeCrypto, "private key has wrong length")
	}
	return pq.Sign(framed[:pq.PrivateKeySize], data)
}

// Verify checks a signature against the pair's public key.
func (kp *KeyPair) Verify(data, signature []byte) bool {
	raw, err := kp.RawPublicKey()
	if err != nil {
		return false
	}
	return pq.Verify(raw, data, signature)
}
