package token_test

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/identity/pq"
	"github.com/blckdfly/sphyre/internal/token"
	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

var policy = identity.NewMethodPolicy("alyra")

func newKeyPair(t *testing.T) *identity.KeyPair {
	t.Helper()
	kp, err := identity.Generate(policy)
	require.NoError(t, err)
	return kp
}

func TestCreateAndVerify(t *testing.T) {
	kp := newKeyPair(t)

	exp := time.Now().Add(time.Hour).Unix()
	claims := token.Claims{
		Issuer:    kp.DID,
		Subject:   "did:alyra:subject",
		ExpiresAt: &exp,
		IssuedAt:  time.Now().Unix(),
		ID:        "token-1",
	}
	rawPub, err := kp.RawPublicKey()
	require.NoError(t, err)
	require.NoError(t, claims.SetExtra(token.ClaimPublicKey, hexEncode(rawPub)))

	tok, err := token.Create(token.NewHeader(kp.DID), claims, kp)
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 3)

	header, got, err := token.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, pq.AlgorithmName, header.Alg)
	assert.Equal(t, "JWT", header.Typ)
	assert.Equal(t, kp.DID+"#pq-keys-1", header.Kid)
	assert.Equal(t, kp.DID, got.Issuer)
	assert.Equal(t, "token-1", got.ID)
}

func TestVerifyRejectsTamperedClaims(t *testing.T) {
	kp := newKeyPair(t)
	tok, _, err := token.CreateCredential(kp, "did:alyra:subject", attrs.Map{"age": attrs.Int(30)}, nil)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	claimsJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	tampered := strings.Replace(string(claimsJSON), `"age":30`, `"age":31`, 1)
	require.NotEqual(t, string(claimsJSON), tampered)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(tampered))

	_, _, err = token.Verify(strings.Join(parts, "."))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSignature))
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	kp := newKeyPair(t)
	claims := token.Claims{Issuer: kp.DID, IssuedAt: time.Now().Unix(), ID: "t"}
	header := token.NewHeader(kp.DID)
	header.Alg = "EdDSA"

	tok, err := token.Create(header, claims, kp)
	require.NoError(t, err)

	_, _, err = token.Verify(tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnsupportedAlgorithm))
}

func TestVerifyRejectsMissingPublicKey(t *testing.T) {
	kp := newKeyPair(t)
	claims := token.Claims{Issuer: kp.DID, IssuedAt: time.Now().Unix(), ID: "t"}

	tok, err := token.Create(token.NewHeader(kp.DID), claims, kp)
	require.NoError(t, err)

	_, _, err = token.Verify(tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingClaim))
}

func TestVerifyExpiredToken(t *testing.T) {
	kp := newKeyPair(t)
	negative := int64(-1)
	tok, _, err := token.CreateCredential(kp, "did:alyra:subject", attrs.Map{}, &negative)
	require.NoError(t, err)

	_, _, err = token.Verify(tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExpired))

	// Signature itself is still fine.
	_, _, err = token.VerifySignature(tok)
	assert.NoError(t, err)
}

func TestVerifyNotYetValidToken(t *testing.T) {
	kp := newKeyPair(t)
	claims := token.Claims{Issuer: kp.DID, IssuedAt: time.Now().Unix(), ID: "t"}
	future := time.Now().Add(time.Hour).Unix()
	claims.NotBefore = &future
	rawPub, err := kp.RawPublicKey()
	require.NoError(t, err)
	require.NoError(t, claims.SetExtra(token.ClaimPublicKey, hexEncode(rawPub)))

	tok, err := token.Create(token.NewHeader(kp.DID), claims, kp)
	require.NoError(t, err)

	_, _, err = token.Verify(tok)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotYetValid))
}

func TestDecodeUnverifiedMalformed(t *testing.T) {
	for _, tok := range []string{"", "one.two", "a.b.c.d", "!!!.???.###"} {
		_, _, err := token.DecodeUnverified(tok)
		require.Error(t, err, tok)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeProtocol))
	}
}

func TestCredentialEnvelope(t *testing.T) {
	issuer := newKeyPair(t)
	subject := newKeyPair(t)

	expSecs := int64(3600)
	data := attrs.Map{"name": attrs.String("Alice"), "age": attrs.Int(25)}
	tok, vc, err := token.CreateCredential(issuer, subject.DID, data, &expSecs)
	require.NoError(t, err)
	require.NotNil(t, vc)

	assert.Equal(t, []string{"VerifiableCredential", "PostQuantumCredential"}, vc.Type)
	assert.Equal(t, issuer.DID, vc.Issuer)
	assert.Equal(t, subject.DID, vc.CredentialSubject.ID)
	assert.NotEmpty(t, vc.ExpirationDate)

	got, claims, err := token.ExtractCredential(tok)
	require.NoError(t, err)
	assert.Equal(t, vc.ID, got.ID)
	assert.Equal(t, vc.ID, claims.ID)
	assert.True(t, got.CredentialSubject.Claims["age"].Equal(attrs.Int(25)))

	// The embedded key must match the issuer's.
	pub, err := claims.PublicKey()
	require.NoError(t, err)
	issuerPub, err := issuer.RawPublicKey()
	require.NoError(t, err)
	assert.Equal(t, issuerPub, pub)

	// A credential token holds no presentation.
	_, err = claims.Presentation()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingClaim))
}

func TestPresentationEnvelope(t *testing.T) {
	issuer := newKeyPair(t)
	holder := newKeyPair(t)
	verifier := newKeyPair(t)

	credTok, vc, err := token.CreateCredential(issuer, holder.DID, attrs.Map{"age": attrs.Int(30)}, nil)
	require.NoError(t, err)

	expSecs := int64(600)
	tok, vp, err := token.CreatePresentation(holder, token.PresentationInput{
		VerifierDID:       verifier.DID,
		CredentialTokens:  []string{credTok},
		DisclosedData:     map[string]attrs.Map{vc.ID: {"age": attrs.Int(30)}},
		ExpirationSeconds: &expSecs,
	})
	require.NoError(t, err)
	require.NotNil(t, vp)

	got, claims, err := token.ExtractPresentation(tok)
	require.NoError(t, err)
	assert.Equal(t, holder.DID, got.Holder)
	assert.Equal(t, verifier.DID, claims.Audience)
	require.Len(t, got.VerifiableCredential, 1)

	// The inner credential token survives intact and verifies on its own.
	innerVC, _, err := token.ExtractCredential(got.VerifiableCredential[0])
	require.NoError(t, err)
	assert.Equal(t, vc.ID, innerVC.ID)

	assert.True(t, got.DisclosedData[vc.ID]["age"].Equal(attrs.Int(30)))
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}
