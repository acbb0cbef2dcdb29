package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blckdfly/sphyre/internal/credential"
	"github.com/blckdfly/sphyre/internal/disclosure"
	"github.com/blckdfly/sphyre/internal/platform/middleware"
	"github.com/blckdfly/sphyre/internal/platform/workerpool"
	"github.com/blckdfly/sphyre/pkg/attrs"
)

// CredentialHandler exposes the credential lifecycle. Signing and proof
// generation run on the worker pool since ML-DSA and Bulletproof work is
// CPU-bound.
type CredentialHandler struct {
	credentials *credential.Service
	pool        *workerpool.Pool
	logger      *slog.Logger
}

func NewCredentialHandler(credentials *credential.Service, pool *workerpool.Pool, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{credentials: credentials, pool: pool, logger: logger}
}

func (h *CredentialHandler) Register(r chi.Router) {
	r.Post("/credentials/issue", h.handleIssue)
	r.Post("/credentials/verify", h.handleVerify)
	r.Get("/credentials", h.handleList)
	r.Get("/credentials/issued", h.handleListIssued)
	r.Get("/credentials/{id}", h.handleGet)
	r.Post("/credentials/{id}/revoke", h.handleRevoke)
	r.Delete("/credentials/{id}", h.handleDelete)
	r.Post("/credentials/{id}/disclose", h.handleDisclose)
	r.Post("/credentials/{id}/proofs/predicate", h.handlePredicateProof)
}

type issueRequest struct {
	IssuerPrivateKey  string    `json:"issuer_private_key"`
	OwnerDID          string    `json:"owner_did"`
	CredentialType    string    `json:"credential_type"`
	SchemaID          string    `json:"schema_id,omitempty"`
	CredentialData    attrs.Map `json:"credential_data"`
	ExpirationSeconds *int64    `json:"expiration_seconds,omitempty"`
}

func (h *CredentialHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result credential.IssueResult
	err := h.pool.Do(r.Context(), func() error {
		var issueErr error
		result, issueErr = h.credentials.Issue(r.Context(), credential.IssueInput{
			IssuerPrivateKey:  req.IssuerPrivateKey,
			OwnerDID:          req.OwnerDID,
			CredentialType:    req.CredentialType,
			SchemaID:          req.SchemaID,
			CredentialData:    req.CredentialData,
			ExpirationSeconds: req.ExpirationSeconds,
		})
		return issueErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (h *CredentialHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result credential.VerificationResult
	err := h.pool.Do(r.Context(), func() error {
		result = h.credentials.Verify(r.Context(), req.Token)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CredentialHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	cred, err := h.credentials.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	did := middleware.GetDID(r.Context())
	if cred.OwnerDID != did && cred.IssuerDID != did {
		writeError(w, credential.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cred)
}

func listFilter(r *http.Request) credential.Filter {
	return credential.Filter{
		CredentialType: r.URL.Query().Get("credential_type"),
		SchemaID:       r.URL.Query().Get("schema_id"),
		Status:         credential.Status(r.URL.Query().Get("status")),
	}
}

func (h *CredentialHandler) handleList(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials.ListByOwner(r.Context(), middleware.GetDID(r.Context()), listFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": creds})
}

func (h *CredentialHandler) handleListIssued(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials.ListByIssuer(r.Context(), middleware.GetDID(r.Context()), listFilter(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": creds})
}

func (h *CredentialHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	cred, err := h.credentials.Revoke(r.Context(), middleware.GetDID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cred)
}

func (h *CredentialHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.credentials.Delete(r.Context(), middleware.GetDID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type discloseRequest struct {
	DisclosedAttributes []string `json:"disclosed_attributes"`
}

func (h *CredentialHandler) handleDisclose(w http.ResponseWriter, r *http.Request) {
	var req discloseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	data, err := h.credentials.CreateSelectiveDisclosure(
		r.Context(), middleware.GetDID(r.Context()), chi.URLParam(r, "id"), req.DisclosedAttributes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"disclosed_data": data})
}

type predicateProofRequest struct {
	Attribute string                `json:"attribute"`
	Type      disclosure.Comparator `json:"predicate_type"`
	Value     int64                 `json:"value"`
}

func (h *CredentialHandler) handlePredicateProof(w http.ResponseWriter, r *http.Request) {
	var req predicateProofRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var proof *disclosure.PredicateProof
	err := h.pool.Do(r.Context(), func() error {
		var proofErr error
		proof, proofErr = h.credentials.CreatePredicateProof(
			r.Context(), middleware.GetDID(r.Context()), chi.URLParam(r, "id"),
			req.Attribute, req.Type, req.Value)
		return proofErr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proof)
}
