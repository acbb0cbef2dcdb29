package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/blckdfly/sphyre/internal/platform/middleware"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

const (
	sessionIssuer   = "sphyre"
	sessionAudience = "sphyre-api"
	sessionTTL      = 24 * time.Hour
)

// SessionClaims are the HS256 session token claims. Sessions are a plain
// API surface concern; the post-quantum signatures live in the credential
// tokens, not here.
type SessionClaims struct {
	DID       string `json:"did"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Sessions mints and validates session tokens. It satisfies the HTTP
// middleware's SessionValidator.
type Sessions struct {
	signingKey []byte
}

func NewSessions(signingKey string) *Sessions {
	return &Sessions{signingKey: []byte(signingKey)}
}

func (s *Sessions) Generate(did string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		DID:       did,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   did,
			Issuer:    sessionIssuer,
			Audience:  []string{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign session token")
	}
	return signed, nil
}

func (s *Sessions) ValidateToken(tokenString string) (*middleware.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	return &middleware.SessionClaims{DID: claims.DID, SessionID: claims.SessionID}, nil
}
