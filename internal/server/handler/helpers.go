package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// invalidInputMsg is the fixed body of every 400 response. Clients match
// on it, so it never varies by route.
const invalidInputMsg = "Invalid input"

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeInvalidInput sends the uniform 400 response.
func writeInvalidInput(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, invalidInputMsg)
}

// decodeBody decodes the request body into v. Returns false after writing
// the 400 response when the body is missing or malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		writeInvalidInput(w)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeInvalidInput(w)
		return false
	}
	return true
}

// parseLimit extracts a limit query parameter. Defaults to 50, capped at 500.
func parseLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
