package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/blckdfly/sphyre/internal/consent"
	"github.com/blckdfly/sphyre/internal/platform/middleware"
)

type ConsentHandler struct {
	consents *consent.Service
	logger   *slog.Logger
}

func NewConsentHandler(consents *consent.Service, logger *slog.Logger) *ConsentHandler {
	return &ConsentHandler{consents: consents, logger: logger}
}

func (h *ConsentHandler) Register(r chi.Router) {
	r.Post("/consents", h.handleGrant)
	r.Get("/consents", h.handleList)
	r.Get("/consents/received", h.handleListReceived)
	r.Get("/consents/check", h.handleCheck)
	r.Post("/consents/{id}/revoke", h.handleRevoke)
}

type grantConsentRequest struct {
	VerifierDID      string                   `json:"verifier_did"`
	Purpose          string                   `json:"purpose"`
	DataCategories   []string                 `json:"data_categories"`
	AccessLevel      consent.AccessLevel      `json:"access_level"`
	ExpirationPolicy consent.ExpirationPolicy `json:"expiration_policy"`
	ExpiresAt        *time.Time               `json:"expires_at,omitempty"`
}

func (h *ConsentHandler) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantConsentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	record, err := h.consents.Grant(r.Context(), consent.GrantInput{
		UserDID:          middleware.GetDID(r.Context()),
		VerifierDID:      req.VerifierDID,
		Purpose:          req.Purpose,
		DataCategories:   req.DataCategories,
		AccessLevel:      req.AccessLevel,
		ExpirationPolicy: req.ExpirationPolicy,
		ExpiresAt:        req.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *ConsentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := h.consents.ListByUser(r.Context(), middleware.GetDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"consents": records})
}

func (h *ConsentHandler) handleListReceived(w http.ResponseWriter, r *http.Request) {
	records, err := h.consents.ListByVerifier(r.Context(), middleware.GetDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"consents": records})
}

// handleCheck lets a verifier probe for an active consent before asking
// for a presentation.
func (h *ConsentHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ok, err := h.consents.Check(r.Context(), middleware.GetDID(r.Context()), q.Get("user_did"), q.Get("purpose"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"granted": ok})
}

func (h *ConsentHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	record, err := h.consents.Revoke(r.Context(), middleware.GetDID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
