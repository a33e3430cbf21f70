package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xvierd/focusflow/internal/domain"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, messageResponse{Message: msg})
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, code, "internal server error")
		return
	}
	writeMessage(w, code, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &domain.ValidationError{Field: "body", Reason: "is required"}
		}
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	return nil
}

// sessionFilter reads the optional from/to RFC 3339 bounds.
func sessionFilter(r *http.Request) (domain.SessionFilter, error) {
	var f domain.SessionFilter
	q := r.URL.Query()
	for _, bound := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(q.Get(bound.name))
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, &domain.ValidationError{Field: bound.name, Reason: "must be an RFC 3339 timestamp"}
		}
		*bound.dst = t.UTC()
	}
	return f, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return n, nil
}
