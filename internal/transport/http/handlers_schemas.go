package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/blckdfly/sphyre/internal/platform/middleware"
	"github.com/blckdfly/sphyre/internal/schema"
	"github.com/blckdfly/sphyre/pkg/attrs"
)

type SchemaHandler struct {
	schemas *schema.Service
	logger  *slog.Logger
}

func NewSchemaHandler(schemas *schema.Service, logger *slog.Logger) *SchemaHandler {
	return &SchemaHandler{schemas: schemas, logger: logger}
}

func (h *SchemaHandler) Register(r chi.Router) {
	r.Post("/schemas", h.handleCreate)
	r.Get("/schemas", h.handleList)
	r.Get("/schemas/{id}", h.handleGet)
	r.Post("/schemas/{id}/validate", h.handleValidate)
}

type createSchemaRequest struct {
	Name       string             `json:"name"`
	Version    string             `json:"version"`
	Attributes []schema.Attribute `json:"attributes"`
}

func (h *SchemaHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSchemaRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.schemas.Create(r.Context(), schema.CreateInput{
		IssuerDID:  middleware.GetDID(r.Context()),
		Name:       req.Name,
		Version:    req.Version,
		Attributes: req.Attributes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *SchemaHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("search"); name != "" {
		schemas, err := h.schemas.Search(r.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schemas": schemas})
		return
	}
	schemas, err := h.schemas.ListByIssuer(r.Context(), middleware.GetDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": schemas})
}

func (h *SchemaHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	sc, err := h.schemas.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

type validateSchemaRequest struct {
	CredentialData attrs.Map `json:"credential_data"`
}

func (h *SchemaHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateSchemaRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.schemas.Validate(r.Context(), chi.URLParam(r, "id"), req.CredentialData)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
