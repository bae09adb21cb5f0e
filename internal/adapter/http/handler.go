package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/adapter/http/middleware"
	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
	"github.com/aqarhub/property-service/internal/property/ingest"
	"github.com/aqarhub/property-service/internal/property/usecase"
)

// PropertyHandler exposes the property lifecycle over HTTP.
type PropertyHandler struct {
	ingestUC   *usecase.IngestUsecase
	propertyUC *usecase.PropertyUsecase
	mediaUC    *usecase.MediaUsecase
	cascadeUC  *usecase.CascadeUsecase
	commentUC  *usecase.CommentUsecase
	scratch    domain.ScratchStore
	saver      scratchSaver
	logger     *logger.Logger
}

func NewPropertyHandler(
	ingestUC *usecase.IngestUsecase,
	propertyUC *usecase.PropertyUsecase,
	mediaUC *usecase.MediaUsecase,
	cascadeUC *usecase.CascadeUsecase,
	commentUC *usecase.CommentUsecase,
	scratch domain.ScratchStore,
	saver scratchSaver,
	log *logger.Logger,
) *PropertyHandler {
	return &PropertyHandler{
		ingestUC:   ingestUC,
		propertyUC: propertyUC,
		mediaUC:    mediaUC,
		cascadeUC:  cascadeUC,
		commentUC:  commentUC,
		scratch:    scratch,
		saver:      saver,
		logger:     log.Named("PropertyHandler"),
	}
}

// HandleCreateProperty accepts the multipart submission and runs the full
// ingestion pipeline.
func (h *PropertyHandler) HandleCreateProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	sub, err := readSubmission(r, h.saver)
	if err != nil {
		h.dropStaged(sub.Files)
		respondError(w, h.logger, err)
		return
	}

	property, err := h.ingestUC.CreateProperty(r.Context(), ownerID, sub)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, property)
}

func (h *PropertyHandler) HandleGetProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	property, err := h.propertyUC.GetProperty(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) HandleListOwned(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}
	properties, err := h.propertyUC.ListByOwner(r.Context(), ownerID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, properties)
}

type locationRequest struct {
	City     string          `json:"city"`
	Location domain.GeoPoint `json:"location"`
}

func (h *PropertyHandler) HandleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, _ := middleware.UserIDFromContext(r.Context())

	var req locationRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	property, err := h.propertyUC.UpdateLocation(r.Context(), id, ownerID, req.City, req.Location)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

type detailsRequest struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ServiceType  string          `json:"serviceType"`
	PropertyType string          `json:"propertyType"`
	Address      string          `json:"address"`
	MaxAdults    int             `json:"maxAdults"`
	MaxChilds    int             `json:"maxChilds"`
	Price        json.RawMessage `json:"price"`
}

func (h *PropertyHandler) HandleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, _ := middleware.UserIDFromContext(r.Context())

	var req detailsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	price, err := ingest.CoercePrice(string(req.Price))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	property, err := h.propertyUC.UpdateDetails(r.Context(), id, ownerID, domain.DetailsUpdate{
		Title:        req.Title,
		Description:  req.Description,
		ServiceType:  domain.ServiceType(req.ServiceType),
		PropertyType: req.PropertyType,
		Address:      req.Address,
		MaxAdults:    req.MaxAdults,
		MaxChilds:    req.MaxChilds,
		Price:        price,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

type offersRequest struct {
	Offers []string `json:"offers"`
}

func (h *PropertyHandler) HandleUpdateOffers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, _ := middleware.UserIDFromContext(r.Context())

	var req offersRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	property, err := h.propertyUC.UpdateOffers(r.Context(), id, ownerID, req.Offers)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

type nearbyPlacesRequest struct {
	NearbyPlaces []string `json:"nearbyPlaces"`
}

func (h *PropertyHandler) HandleUpdateNearbyPlaces(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, _ := middleware.UserIDFromContext(r.Context())

	var req nearbyPlacesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	property, err := h.propertyUC.UpdateNearbyPlaces(r.Context(), id, ownerID, req.NearbyPlaces)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

type priceRequest struct {
	ServiceType string          `json:"serviceType"`
	Price       json.RawMessage `json:"price"`
	Deposit     float64         `json:"deposite"`
}

func (h *PropertyHandler) HandleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, _ := middleware.UserIDFromContext(r.Context())

	var req priceRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	price, err := ingest.CoercePrice(string(req.Price))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	property, err := h.propertyUC.UpdatePrice(r.Context(), id, ownerID, domain.ServiceType(req.ServiceType), price, req.Deposit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

// HandleReplaceMainImages swaps the main gallery for the five uploaded files.
func (h *PropertyHandler) HandleReplaceMainImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, _ := middleware.UserIDFromContext(r.Context())

	sub, err := readSubmission(r, h.saver)
	if err != nil {
		h.dropStaged(sub.Files)
		respondError(w, h.logger, err)
		return
	}

	property, err := h.mediaUC.ReplaceMainImages(r.Context(), id, ownerID, sub.Files)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

// HandleReplaceRooms swaps the room list and all room galleries in one
// submission.
func (h *PropertyHandler) HandleReplaceRooms(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, _ := middleware.UserIDFromContext(r.Context())

	sub, err := readSubmission(r, h.saver)
	if err != nil {
		h.dropStaged(sub.Files)
		respondError(w, h.logger, err)
		return
	}

	rooms, decls, err := ingest.NormalizeRoomsUpdate(sub.Fields)
	if err != nil {
		h.dropStaged(sub.Files)
		respondError(w, h.logger, err)
		return
	}

	property, err := h.mediaUC.ReplaceRooms(r.Context(), id, ownerID, rooms, decls, sub)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

// HandleReplaceRoomImages swaps the room galleries while keeping the rooms.
func (h *PropertyHandler) HandleReplaceRoomImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID, _ := middleware.UserIDFromContext(r.Context())

	sub, err := readSubmission(r, h.saver)
	if err != nil {
		h.dropStaged(sub.Files)
		respondError(w, h.logger, err)
		return
	}

	decls, err := ingest.NormalizeRoomDecls(sub.Fields)
	if err != nil {
		h.dropStaged(sub.Files)
		respondError(w, h.logger, err)
		return
	}

	property, err := h.mediaUC.ReplaceRoomImages(r.Context(), id, ownerID, decls, sub)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) HandleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requesterID, _ := middleware.UserIDFromContext(r.Context())
	requesterRole, _ := middleware.UserRoleFromContext(r.Context())

	if err := h.cascadeUC.DeleteProperty(r.Context(), id, requesterID, requesterRole); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "property deleted"})
}

func (h *PropertyHandler) HandlePurgeUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requesterID, _ := middleware.UserIDFromContext(r.Context())
	requesterRole, _ := middleware.UserRoleFromContext(r.Context())

	if err := h.cascadeUC.PurgeUser(r.Context(), id, requesterID, requesterRole); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user purged"})
}

type commentRequest struct {
	Text string `json:"text"`
	Rate int    `json:"rate"`
}

func (h *PropertyHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	userID, _ := middleware.UserIDFromContext(r.Context())

	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	comment, err := h.commentUC.AddComment(r.Context(), propertyID, userID, req.Text, req.Rate)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (h *PropertyHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	comments, err := h.commentUC.ListByProperty(r.Context(), propertyID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrMalformedPayload, err)
	}
	return nil
}

// dropStaged removes files staged before a request was rejected at the HTTP
// layer, where no usecase cleanup has run yet.
func (h *PropertyHandler) dropStaged(files []domain.Attachment) {
	for _, att := range files {
		if err := h.scratch.Remove(att.StoredName); err != nil {
			h.logger.Warn("Failed to remove scratch file", zap.String("file", att.StoredName), zap.Error(err))
		}
	}
}
