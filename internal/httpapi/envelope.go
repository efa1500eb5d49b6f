package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"meshstudio.org/internal/auth"
	"meshstudio.org/internal/obs"
)

// The business envelope of the editor protocol: every operational endpoint
// answers HTTP 200 and signals the outcome in the code field. 200 is
// success; 300 is a user-facing failure whose msg is the display string.
const (
	codeOK     = 200
	codeFailed = 300
)

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// listPayload is the shape of every list response.
type listPayload struct {
	Total int `json:"total"`
	Rows  any `json:"rows"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Code: codeOK, Msg: msg})
}

func writeOKData(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusOK, envelope{Code: codeOK, Msg: msg, Data: data})
}

func writeFailed(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Code: codeFailed, Msg: msg})
}

// writeBusinessError maps subsystem sentinel errors onto the envelope's
// display strings. Wording for the validation failures is part of the
// protocol and must not drift.
func writeBusinessError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrNameEmpty):
		writeFailed(w, "Name is not allowed to be empty.")
	case errors.Is(err, auth.ErrNameReserved):
		writeFailed(w, "Name is not allowed to start with _.")
	case errors.Is(err, auth.ErrMalformedID):
		writeFailed(w, "ID is not allowed.")
	case errors.Is(err, auth.ErrConflict):
		writeFailed(w, "The name is already existed.")
	case errors.Is(err, auth.ErrNotFound):
		writeFailed(w, "The role is not existed.")
	case errors.Is(err, auth.ErrNotInitialized):
		writeFailed(w, "The system has not been initialized, please initialize first.")
	case errors.Is(err, auth.ErrUnauthorized):
		writeFailed(w, "Username or password is wrong.")
	case errors.Is(err, auth.ErrStorageTimeout):
		writeFailed(w, "The server is busy, please try again later.")
	case errors.Is(err, auth.ErrInvalidInput):
		writeFailed(w, "The request is not allowed.")
	default:
		obs.LogRequest(map[string]any{
			"level":      "error",
			"msg":        "operation failed",
			"error":      err.Error(),
			"path":       r.URL.Path,
			"request_id": RequestIDFromContext(r.Context()),
		})
		writeFailed(w, "The operation failed.")
	}
}

// writeError is the infrastructure-level error shape used by middleware
// (rate limiting, authentication plumbing), outside the business envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
