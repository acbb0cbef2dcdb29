package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blckdfly/sphyre/internal/auth"
	"github.com/blckdfly/sphyre/internal/platform/middleware"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// AuthHandler exposes registration and DID challenge/response login.
// These routes are the only unauthenticated ones besides health and
// metrics.
type AuthHandler struct {
	auth   *auth.Service
	logger *slog.Logger
}

func NewAuthHandler(service *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: service, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/challenge", h.handleChallenge)
	r.Post("/auth/login", h.handleLogin)
}

func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

type registerRequest struct {
	DID       string `json:"did"`
	PublicKey string `json:"public_key"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.auth.Register(r.Context(), auth.RegisterInput{
		DID:       req.DID,
		PublicKey: req.PublicKey,
		Name:      req.Name,
		Email:     req.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type challengeRequest struct {
	DID string `json:"did"`
}

func (h *AuthHandler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	challenge, err := h.auth.GenerateChallenge(r.Context(), req.DID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"challenge":  challenge.Nonce,
		"expires_at": challenge.ExpiresAt,
	})
}

type loginRequest struct {
	DID       string `json:"did"`
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.auth.Login(r.Context(), auth.LoginInput{
		DID:       req.DID,
		Challenge: req.Challenge,
		Signature: req.Signature,
	})
	if err != nil {
		h.logger.Warn("login failed", "did", req.DID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	did := middleware.GetDID(r.Context())
	if did == "" {
		writeError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	user, err := h.auth.GetUser(r.Context(), did)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
