package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
	"portfolio-backend/pkg/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

// decodeJSON reads at most maxBodyBytes of JSON from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *services.ValidationError
		upstream     *services.UpstreamError
		notFound     *services.NotFoundError
		unauthorized *services.UnauthorizedError
		unavailable  *services.UnavailableError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResp(validation.Message))
	case errors.As(err, &upstream):
		logRequestError(r, err)
		writeJSON(w, http.StatusInternalServerError, errorResp(upstream.Message))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp(notFound.Message))
	case errors.As(err, &unauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResp(unauthorized.Message))
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResp(unavailable.Message))
	default:
		logRequestError(r, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("An unexpected error occurred"))
	}
}

func logRequestError(r *http.Request, err error) {
	logger.WithFields(map[string]interface{}{
		"request_id": r.Header.Get(middleware.RequestIDHeader),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).Errorf("request failed: %v", err)
}
