package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-circle/internal/apperror"
	"github.com/justestif/go-spotify-circle/internal/db"
)

// errorResponse is the JSON body for every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps an error to its status code and writes the JSON body.
// Upstream status and body are logged but never leaked to the client.
func respondError(w http.ResponseWriter, logger *log.Logger, err error) {
	var upstream *apperror.UpstreamError

	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
	case errors.Is(err, apperror.ErrNotConnected):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "user not found or not connected"})
	case errors.Is(err, apperror.ErrValidation):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, db.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.As(err, &upstream):
		logger.Warn("upstream request failed", "op", upstream.Op, "status", upstream.Status, "body", upstream.Body)
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: "spotify request failed"})
	default:
		logger.Error("request failed", "err", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
