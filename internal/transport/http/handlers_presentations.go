package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/blckdfly/sphyre/internal/platform/middleware"
	"github.com/blckdfly/sphyre/internal/platform/workerpool"
	"github.com/blckdfly/sphyre/internal/presentation"
)

type PresentationHandler struct {
	presentations *presentation.Service
	pool          *workerpool.Pool
	logger        *slog.Logger
}

func NewPresentationHandler(presentations *presentation.Service, pool *workerpool.Pool, logger *slog.Logger) *PresentationHandler {
	return &PresentationHandler{presentations: presentations, pool: pool, logger: logger}
}

func (h *PresentationHandler) Register(r chi.Router) {
	r.Post("/presentations/requests", h.handleCreateRequest)
	r.Get("/presentations/requests", h.handleListRequests)
	r.Get("/presentations/requests/{id}", h.handleGetRequest)
	r.Post("/presentations/submit", h.handleSubmit)
	r.Post("/presentations/verify", h.handleVerify)
	r.Get("/presentations", h.handleList)
	r.Get("/presentations/received", h.handleListReceived)
	r.Get("/presentations/{id}", h.handleGet)
	r.Post("/presentations/{id}/status", h.handleUpdateStatus)
}

type createRequestRequest struct {
	PresentationType    string                               `json:"presentation_type"`
	RequiredCredentials []presentation.CredentialRequirement `json:"required_credentials"`
	Purpose             string                               `json:"purpose"`
	CallbackURL         string                               `json:"callback_url,omitempty"`
	RecipientDID        string                               `json:"recipient_did,omitempty"`
	TTLSeconds          int64                                `json:"ttl_seconds,omitempty"`
}

func (h *PresentationHandler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.presentations.CreateRequest(r.Context(), presentation.CreateRequestInput{
		VerifierDID:         middleware.GetDID(r.Context()),
		PresentationType:    req.PresentationType,
		RequiredCredentials: req.RequiredCredentials,
		Purpose:             req.Purpose,
		CallbackURL:         req.CallbackURL,
		RecipientDID:        req.RecipientDID,
		TTL:                 time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *PresentationHandler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.presentations.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *PresentationHandler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.presentations.ListRequestsByVerifier(r.Context(), middleware.GetDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

type submitRequest struct {
	ProverPrivateKey    string                           `json:"prover_private_key"`
	RequestID           string                           `json:"request_id"`
	CredentialIDs       []string                         `json:"credential_ids"`
	DisclosedAttributes map[string][]string              `json:"disclosed_attributes,omitempty"`
	Predicates          []presentation.PredicateRequest  `json:"predicates,omitempty"`
}

func (h *PresentationHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var pres presentation.Presentation
	err := h.pool.Do(r.Context(), func() error {
		var submitErr error
		pres, submitErr = h.presentations.Submit(r.Context(), presentation.SubmitInput{
			ProverPrivateKey:    req.ProverPrivateKey,
			RequestID:           req.RequestID,
			CredentialIDs:       req.CredentialIDs,
			DisclosedAttributes: req.DisclosedAttributes,
			Predicates:          req.Predicates,
		})
		return submitErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pres)
}

func (h *PresentationHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result presentation.VerificationResult
	err := h.pool.Do(r.Context(), func() error {
		result = h.presentations.Verify(r.Context(), req.Token)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PresentationHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	pres, err := h.presentations.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	did := middleware.GetDID(r.Context())
	if pres.ProverDID != did && pres.VerifierDID != did {
		writeError(w, presentation.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, pres)
}

func (h *PresentationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	presentations, err := h.presentations.ListByProver(r.Context(), middleware.GetDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presentations": presentations})
}

func (h *PresentationHandler) handleListReceived(w http.ResponseWriter, r *http.Request) {
	presentations, err := h.presentations.ListByVerifier(r.Context(), middleware.GetDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presentations": presentations})
}

type updateStatusRequest struct {
	Status presentation.Status `json:"status"`
}

func (h *PresentationHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	pres, err := h.presentations.UpdateStatus(
		r.Context(), middleware.GetDID(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pres)
}
