package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

func TestRespondError_StatusMapping(t *testing.T) {
	log := logger.NewLogger()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"malformed payload", fmt.Errorf("%w: price is required", domain.ErrMalformedPayload), http.StatusBadRequest},
		{"validation", &domain.ValidationError{Field: "title", Reason: "is required"}, http.StatusBadRequest},
		{"main image count", domain.ErrMainImageCount, http.StatusBadRequest},
		{"room media missing", &domain.RoomMediaMissingError{Index: 2}, http.StatusBadRequest},
		{"not owner", domain.ErrNotOwner, http.StatusForbidden},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"optimistic lock", domain.ErrOptimisticLock, http.StatusConflict},
		{"upload failed", &domain.UploadError{Group: "main", Err: fmt.Errorf("connection reset")}, http.StatusBadGateway},
		{"persistence", fmt.Errorf("%w: db insert failed", domain.ErrPersistence), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, log, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRespondError_ValidationCarriesField(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, logger.NewLogger(), &domain.ValidationError{Field: "serviceType", Reason: "unknown service type"})

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "serviceType", body.Field)
	assert.Nil(t, body.RoomIndex)
}

func TestRespondError_RoomMediaCarriesIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, logger.NewLogger(), &domain.RoomMediaMissingError{Index: 3})

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.RoomIndex)
	assert.Equal(t, 3, *body.RoomIndex)
}

func TestRespondError_ServerErrorsHideDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, logger.NewLogger(), fmt.Errorf("%w: dsn user:pass@host", domain.ErrPersistence))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body.Message, "user:pass")
}
