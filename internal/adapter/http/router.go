package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aqarhub/property-service/internal/adapter/http/middleware"
	"github.com/aqarhub/property-service/internal/platform/logger"
)

// SetupRoutes builds the service router. Reads are public; every mutation
// requires a valid token.
func SetupRoutes(h *PropertyHandler, jwtSecret string, log *logger.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(chimiddleware.Recoverer)
	mux.Use(middleware.RequestLogger(log))

	mux.Get("/api/properties/{id}", h.HandleGetProperty)
	mux.Get("/api/properties/{id}/comments", h.HandleListComments)

	mux.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret, log))

		r.Post("/api/properties", h.HandleCreateProperty)
		r.Get("/api/properties", h.HandleListOwned)

		r.Patch("/api/properties/{id}/location", h.HandleUpdateLocation)
		r.Patch("/api/properties/{id}/details", h.HandleUpdateDetails)
		r.Patch("/api/properties/{id}/offers", h.HandleUpdateOffers)
		r.Patch("/api/properties/{id}/nearby-places", h.HandleUpdateNearbyPlaces)
		r.Patch("/api/properties/{id}/price", h.HandleUpdatePrice)

		r.Put("/api/properties/{id}/main-images", h.HandleReplaceMainImages)
		r.Put("/api/properties/{id}/rooms", h.HandleReplaceRooms)
		r.Put("/api/properties/{id}/room-images", h.HandleReplaceRoomImages)

		r.Delete("/api/properties/{id}", h.HandleDeleteProperty)
		r.Delete("/api/users/{id}", h.HandlePurgeUser)

		r.Post("/api/properties/{id}/comments", h.HandleAddComment)
	})

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}
