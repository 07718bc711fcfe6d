// internal/httpapi/respond.go
//
// JSON response helpers and the error-code vocabulary.
//
// Every response carries "ok"; failures carry a machine-readable "error"
// code the callers switch on.  Codes are contract, not prose — the admin
// tooling and the CMS plugin both match on them literally.

package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Error codes for request-shape and lookup failures.  Auth denial codes live
// in internal/auth next to the gates that emit them.
const (
	codeInvalidJSON        = "invalid_json"
	codeSlugRequired       = "slug_required"
	codeSiteHostRequired   = "site_host_required"
	codeCollectionNotFound = "collection_not_found"
	codeSettingsNotFound   = "settings_not_found"
	codeCMSPushFailed      = "cms_push_failed"
	codeInternal           = "internal_error"
)

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encode failed", zap.Error(err))
	}
}

func writeErr(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorBody{Error: code})
}
