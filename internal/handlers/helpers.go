package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/foodstand-backend/internal/locker"
	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errInvalidID = errors.New("invalid id supplied")

// decodeJSON reads a request body of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	return nil
}

// parseID reads a positive integer path parameter.
func parseID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// writeServiceError maps domain errors to HTTP statuses. Anything unknown is
// logged and reported as a 500 without details.
func writeServiceError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var (
		stockErr *models.StockError
		validErr *models.ValidationError
	)

	switch {
	case errors.As(err, &stockErr):
		WriteJSON(w, http.StatusConflict, ErrorResponse{
			Error:     models.ErrInsufficientStock.Error(),
			Shortages: stockErr.Shortages,
		}, logger)
	case errors.As(err, &validErr):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  models.ErrValidation.Error(),
			Fields: validErr.Fields,
		}, logger)
	case errors.Is(err, errInvalidID):
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", logger)
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), logger)
	case errors.Is(err, locker.ErrNotObtained), errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out waiting for the store", "error", err)
		WriteError(w, http.StatusServiceUnavailable, "Service busy, try again", logger)
	default:
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", logger)
	}
}
