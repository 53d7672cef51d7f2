package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inventory-api/internal/logger"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"
	"inventory-api/internal/upload"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServiceError maps domain errors onto status codes. Anything
// unrecognized is a storage-level failure and stays generic.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "invalid product data",
			"errors":  validation.Errors,
		})
	case errors.Is(err, service.ErrInvalidID):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, upload.ErrUnsupportedType), errors.Is(err, upload.ErrFileTooLarge):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWeakCredentials):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, repository.ErrProductNotFound), errors.Is(err, repository.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrDuplicateSKU), errors.Is(err, repository.ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		logger.Error(ctx, "Request failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
