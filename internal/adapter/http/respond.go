package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

type errorResponse struct {
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RoomIndex *int   `json:"roomIndex,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps domain errors onto HTTP statuses. Client mistakes are
// 4xx, a remote store failure is 502 and everything else is 500.
func respondError(w http.ResponseWriter, log *logger.Logger, err error) {
	resp := errorResponse{Message: err.Error()}
	status := http.StatusInternalServerError

	var validationErr *domain.ValidationError
	var roomErr *domain.RoomMediaMissingError

	switch {
	case errors.As(err, &roomErr):
		status = http.StatusBadRequest
		index := roomErr.Index
		resp.RoomIndex = &index
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		resp.Field = validationErr.Field
	case errors.Is(err, domain.ErrMalformedPayload),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrMainImageCount),
		errors.Is(err, domain.ErrRoomMediaMissing):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrOptimisticLock):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUploadFailed):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrPersistence):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Int("status", status), zap.Error(err))
		// 5xx details stay in the logs.
		resp.Message = http.StatusText(status)
	}
	respondJSON(w, status, resp)
}
