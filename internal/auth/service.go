package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/mr-tron/base58"

	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/internal/identity/pq"
	"github.com/blckdfly/sphyre/internal/platform/config"
	"github.com/blckdfly/sphyre/internal/platform/middleware"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Service implements DID challenge/response login. Registration binds a
// DID to its public key, a challenge is a single-use nonce, and a login
// proves key possession by signing that nonce.
type Service struct {
	users      UserStore
	challenges ChallengeStore
	sessions   *Sessions
	policy     identity.MethodPolicy
	audit      *audit.Recorder
	logger     *slog.Logger
}

func NewService(users UserStore, challenges ChallengeStore, sessions *Sessions, policy identity.MethodPolicy, rec *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		users:      users,
		challenges: challenges,
		sessions:   sessions,
		policy:     policy,
		audit:      rec,
		logger:     logger,
	}
}

// RegisterInput carries a new user's identity. PublicKey is base58.
type RegisterInput struct {
	DID       string
	PublicKey string
	Name      string
	Email     string
}

// Register creates a user after checking that the claimed public key is
// the one the DID encodes. A mismatched key would let anyone squat on a
// foreign DID.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if err := s.policy.Validate(in.DID); err != nil {
		return User{}, err
	}
	claimed, err := base58.Decode(in.PublicKey)
	if err != nil {
		return User{}, dErrors.New(dErrors.CodeValidation, "public key is not valid base58")
	}
	if s.policy.DID(claimed) != in.DID {
		return User{}, dErrors.New(dErrors.CodeValidation, "public key does not match the DID")
	}
	if _, err := s.users.FindByDID(ctx, in.DID); err == nil {
		return User{}, dErrors.New(dErrors.CodeConflict, "user already exists")
	}

	now := time.Now().UTC()
	user := User{
		DID:       in.DID,
		PublicKey: in.PublicKey,
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return User{}, dErrors.Wrap(err, dErrors.CodeStorage, "save user")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionUserRegistered,
		ActorDID: user.DID,
	})
	s.logger.Info("user registered", "did", user.DID)
	return user, nil
}

// GenerateChallenge hands out a fresh login nonce for a known DID.
func (s *Service) GenerateChallenge(ctx context.Context, did string) (Challenge, error) {
	if _, err := s.users.FindByDID(ctx, did); err != nil {
		return Challenge{}, err
	}

	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return Challenge{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate challenge")
	}
	challenge := Challenge{
		DID:       did,
		Nonce:     base64.RawURLEncoding.EncodeToString(nonce),
		ExpiresAt: time.Now().Add(config.ChallengeTTL).UTC(),
	}
	if err := s.challenges.Put(ctx, challenge); err != nil {
		return Challenge{}, err
	}
	return challenge, nil
}

// LoginInput answers a challenge. Signature is the base64 ML-DSA signature
// over the nonce bytes.
type LoginInput struct {
	DID       string
	Challenge string
	Signature string
}

// LoginResult is the session handed to an authenticated user.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login consumes the challenge and verifies the signature against the
// registered public key. Any failure is reported as a generic unauthorized
// error so callers cannot probe which step failed.
func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	user, err := s.users.FindByDID(ctx, in.DID)
	if err != nil {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "authentication failed")
	}

	ok, err := s.challenges.Take(ctx, in.DID, in.Challenge)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "challenge is unknown, used, or expired")
	}

	publicKey, err := base58.Decode(user.PublicKey)
	if err != nil {
		return LoginResult{}, dErrors.New(dErrors.CodeInternal, "stored public key is corrupt")
	}
	signature, err := base64.StdEncoding.DecodeString(in.Signature)
	if err != nil {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "authentication failed")
	}
	if !pq.Verify(publicKey, []byte(in.Challenge), signature) {
		return LoginResult{}, dErrors.New(dErrors.CodeUnauthorized, "authentication failed")
	}

	token, err := s.sessions.Generate(user.DID)
	if err != nil {
		return LoginResult{}, err
	}
	s.logger.Info("user logged in", "did", user.DID)
	return LoginResult{Token: token, User: user}, nil
}

// ValidateToken implements middleware.SessionValidator.
func (s *Service) ValidateToken(tokenString string) (*middleware.SessionClaims, error) {
	return s.sessions.ValidateToken(tokenString)
}

func (s *Service) GetUser(ctx context.Context, did string) (User, error) {
	return s.users.FindByDID(ctx, did)
}
