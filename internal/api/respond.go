package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"churchadmin/internal/security"
	"churchadmin/internal/service"
	"churchadmin/internal/validation"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks a request body that could not be decoded
var errBadRequest = errors.New("malformed request body")

// errorResponse is the body of every failed API call
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// respondWithError maps err onto a status code and writes it as {"error": ...}.
// Unexpected errors are logged and hidden behind a generic message.
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, errBadRequest):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrRecordNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})
	case errors.Is(err, service.ErrZoneTaken),
		errors.Is(err, service.ErrLeaderInUse),
		errors.Is(err, service.ErrEmailTaken):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, security.ErrInvalidToken):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidResetToken):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("api request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

// readBody reads a size-limited request body
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errBadRequestf(err)
	}
	return body, nil
}

// decodeJSON decodes a size-limited JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errBadRequestf(err)
	}
	return nil
}

func errBadRequestf(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}
