package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/circularity-cli/internal/model"
	"github.com/sells-group/circularity-cli/internal/scorer"
	"github.com/sells-group/circularity-cli/internal/service"
)

// Generic messages for failures the client cannot act on.
const (
	msgScoreFailed = "could not compute score"
	msgInternal    = "internal server error"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// writeError maps err onto a status code. Unexpected errors are logged and
// answered with fallback.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, service.ErrValidation), errors.Is(err, scorer.ErrInvalidInput), errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: clientMessage(err)})
	default:
		zap.L().Error("api: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: fallback})
	}
}

// clientMessage drops the package prefixes from a wrapped error message.
func clientMessage(err error) string {
	msg := err.Error()
	for _, p := range []string{"service: ", "scorer: ", "api: "} {
		msg = strings.ReplaceAll(msg, p, "")
	}
	return msg
}

var errBadRequest = errors.New("bad request")

// decodeJSON reads a JSON body into v. Unknown fields are accepted.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return eris.Wrap(errBadRequest, "api: empty request body")
		}
		return eris.Wrapf(errBadRequest, "api: invalid request body: %v", err)
	}
	return nil
}
