package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blckdfly/sphyre/internal/issuer"
	"github.com/blckdfly/sphyre/internal/platform/middleware"
	"github.com/blckdfly/sphyre/internal/platform/workerpool"
	"github.com/blckdfly/sphyre/pkg/attrs"
)

type IssuerHandler struct {
	issuer *issuer.Service
	pool   *workerpool.Pool
	logger *slog.Logger
}

func NewIssuerHandler(service *issuer.Service, pool *workerpool.Pool, logger *slog.Logger) *IssuerHandler {
	return &IssuerHandler{issuer: service, pool: pool, logger: logger}
}

func (h *IssuerHandler) Register(r chi.Router) {
	r.Post("/issuer/requests", h.handleSubmit)
	r.Get("/issuer/requests", h.handleList)
	r.Get("/issuer/requests/mine", h.handleListMine)
	r.Get("/issuer/requests/{id}", h.handleGet)
	r.Post("/issuer/requests/{id}/approve", h.handleApprove)
	r.Post("/issuer/requests/{id}/reject", h.handleReject)
	r.Get("/issuer/statistics", h.handleStatistics)
}

type submitCredentialRequest struct {
	IssuerDID      string    `json:"issuer_did"`
	CredentialType string    `json:"credential_type"`
	SchemaID       string    `json:"schema_id,omitempty"`
	RequestData    attrs.Map `json:"request_data"`
}

func (h *IssuerHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitCredentialRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.issuer.Submit(r.Context(), issuer.SubmitInput{
		UserDID:        middleware.GetDID(r.Context()),
		IssuerDID:      req.IssuerDID,
		CredentialType: req.CredentialType,
		SchemaID:       req.SchemaID,
		RequestData:    req.RequestData,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *IssuerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requests, err := h.issuer.ListByIssuer(r.Context(), middleware.GetDID(r.Context()), issuer.RequestFilter{
		Status:         issuer.RequestStatus(q.Get("status")),
		UserDID:        q.Get("user_did"),
		SchemaID:       q.Get("schema_id"),
		CredentialType: q.Get("credential_type"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *IssuerHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.issuer.ListByUser(r.Context(), middleware.GetDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *IssuerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.issuer.GetRequest(r.Context(), middleware.GetDID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type approveRequest struct {
	IssuerPrivateKey string `json:"issuer_private_key"`
}

func (h *IssuerHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var processed issuer.CredentialRequest
	err := h.pool.Do(r.Context(), func() error {
		var approveErr error
		processed, approveErr = h.issuer.Approve(r.Context(), req.IssuerPrivateKey, chi.URLParam(r, "id"))
		return approveErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processed)
}

type rejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *IssuerHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	processed, err := h.issuer.Reject(
		r.Context(), middleware.GetDID(r.Context()), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, processed)
}

func (h *IssuerHandler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.issuer.IssuerStatistics(r.Context(), middleware.GetDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
