package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"rolepush/internal/apierr"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeError renders err as {"message", "errors"}. Internal errors are
// logged here; their detail is only exposed outside production.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apierr.From(err)
	body := map[string]any{"message": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}

	if e.Kind == apierr.KindInternal {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if h.appEnv != "production" && e.Err != nil {
			body["error"] = e.Err.Error()
		} else {
			body["error"] = nil
		}
	}
	writeJSON(w, e.Kind.Status(), body)
}

// decode reads a JSON body into dst. An empty body leaves dst zero so
// validation reports the missing fields.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		return &apierr.Error{Kind: apierr.KindValidation, Message: "The request body must be valid JSON.", Err: err}
	}
}

// pathID parses the {id} wildcard. Malformed ids become 0, which no row
// has, so the service answers 404 after its authorization check.
func pathID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
