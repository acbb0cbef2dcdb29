package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// statusFor translates domain error codes into HTTP statuses. The domain
// package stays transport-agnostic, so the mapping lives here.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnauthorized, dErrors.CodeExpired, dErrors.CodeNotYetValid:
		return http.StatusUnauthorized
	case dErrors.CodeAccessDenied, dErrors.CodeMissingConsent, dErrors.CodeInvalidConsent:
		return http.StatusForbidden
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation,
		dErrors.CodeProtocol, dErrors.CodeMissingClaim, dErrors.CodeUnsupportedAlgorithm,
		dErrors.CodeInvalidSignature:
		return http.StatusBadRequest
	case dErrors.CodeRegistry:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders the stable error envelope. Internal messages are not
// leaked; the code plus message of a domain error is already client-safe.
func writeError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if errors.As(err, &de) {
		writeJSON(w, statusFor(de.Code), map[string]string{
			"error":   string(de.Code),
			"message": de.Message,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": string(dErrors.CodeInternal),
	})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
