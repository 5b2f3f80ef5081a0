package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gyaneshwarpardhi/patchbay/internal/document"
	"github.com/gyaneshwarpardhi/patchbay/internal/editor"
	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
	"github.com/gyaneshwarpardhi/patchbay/internal/project"
	"github.com/gyaneshwarpardhi/patchbay/internal/session"
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail writes err with the status its kind maps to.
func fail(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, nodedef.ErrUnknownKind),
		errors.Is(err, editor.ErrInvalidParamValue),
		errors.Is(err, project.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrClosed),
		errors.Is(err, project.ErrNotFound),
		errors.Is(err, graph.ErrNodeNotFound),
		errors.Is(err, graph.ErrPortNotFound),
		errors.Is(err, graph.ErrContainerNotFound),
		errors.Is(err, graph.ErrParamNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrDuplicateID),
		errors.Is(err, graph.ErrNoTemporaryConnection):
		return http.StatusConflict
	case errors.Is(err, document.ErrInvalidDocument),
		errors.Is(err, document.ErrUnknownVersion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrQueueFull),
		errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// decode reads a JSON request body into v. An empty body leaves v zero.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON: %s", errBadRequest, err)
	}
	return nil
}
