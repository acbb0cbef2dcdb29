// Package pq wraps the ML-DSA-44 lattice signature scheme behind a small
// byte-slice API so the rest of the codebase never touches scheme types.
package pq

import (
	"github.com/cloudflare/circl/sign/mldsa/mldsa44"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// AlgorithmName is the value carried in token headers.
const AlgorithmName = "ML-DSA-44"

// Key and signature sizes in bytes.
var (
	PublicKeySize  = mldsa44.Scheme().PublicKeySize()
	PrivateKeySize = mldsa44.Scheme().PrivateKeySize()
	SignatureSize  = mldsa44.Scheme().SignatureSize()
)

// GenerateKeyPair creates a fresh keypair and returns the raw encodings.
func GenerateKeyPair() (publicKey, privateKey []byte, err error) {
	pk, sk, err := mldsa44.Scheme().GenerateKey()
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeCrypto, "generate keypair")
	}
	rawPub, err := pk.MarshalBinary()
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeCrypto, "encode public key")
	}
	rawPriv, err := sk.MarshalBinary()
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeCrypto, "encode private key")
	}
	return rawPub, rawPriv, nil
}

// Sign produces a detached signature over message with the raw private key.
func Sign(privateKey, message []byte) ([]byte, error) {
	sk, err := mldsa44.Scheme().UnmarshalBinaryPrivateKey(privateKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCrypto, "decode private key")
	}
	return mldsa44.Scheme().Sign(sk, message, nil), nil
}

// Verify reports whether signature is valid for message under the raw
// public key. A malformed key or signature is simply an invalid signature.
func Verify(publicKey, message, signature []byte) bool {
	pk, err := mldsa44.Scheme().UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return false
	}
	return mldsa44.Scheme().Verify(pk, message, signature, nil)
}
