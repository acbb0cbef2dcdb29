package blobstore

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/chacha20poly1305"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Payloads are sealed with ChaCha20-Poly1305 under a fresh random key per
// blob. The key is returned to the owner and never stored; the nonce is
// prepended to the ciphertext.

// EncryptJSON marshals v, seals it under a new key, and returns the sealed
// blob with the hex key.
func EncryptJSON(v any) (sealed []byte, keyHex string, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeCrypto, "encode payload")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeCrypto, "generate blob key")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeCrypto, "init cipher")
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeCrypto, "generate nonce")
	}

	sealed = aead.Seal(nonce, nonce, plaintext, nil)
	return sealed, hex.EncodeToString(key), nil
}

// DecryptJSON opens a sealed blob with its hex key and unmarshals into v.
func DecryptJSON(sealed []byte, keyHex string, v any) error {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeCrypto, "decode blob key")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeCrypto, "init cipher")
	}
	if len(sealed) < aead.NonceSize() {
		return dErrors.New(dErrors.CodeCrypto, "sealed blob is too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeCrypto, "open sealed blob")
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeCrypto, "decode payload")
	}
	return nil
}
