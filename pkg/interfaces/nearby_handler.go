package interfaces

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/maya/out-and-about/pkg/domain"
)

type NearbyHandler struct {
	service domain.NearbyService
}

func NewNearbyHandler(service domain.NearbyService) *NearbyHandler {
	return &NearbyHandler{
		service: service,
	}
}

func (h *NearbyHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/nearby", h.GetNearby).Methods("GET")
	router.HandleFunc("/api/entities/{id}", h.GetEntity).Methods("GET")
}

func (h *NearbyHandler) GetNearby(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "lon must be a number")
		return
	}

	radius := 0.0
	if radiusStr := r.URL.Query().Get("radius_km"); radiusStr != "" {
		radius, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius < 0 {
			respondWithError(w, http.StatusBadRequest, "radius_km must be a positive number")
			return
		}
		if radius > 100 {
			radius = 100
		}
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	response, err := h.service.Nearby(ctx, domain.NearbyRequest{
		Lat:      lat,
		Lon:      lon,
		RadiusKm: radius,
		Limit:    limit,
		ViewerID: viewerID(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			respondWithError(w, http.StatusBadRequest, "invalid coordinates")
		case errors.Is(err, domain.ErrRateLimitExceeded):
			respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		case errors.Is(err, domain.ErrExternalAPIFailure):
			respondWithError(w, http.StatusServiceUnavailable, "external service unavailable")
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}

func (h *NearbyHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	vars := mux.Vars(r)
	id := vars["id"]

	entity, err := h.service.GetEntity(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEntityNotFound):
			respondWithError(w, http.StatusNotFound, "entity not found")
		case errors.Is(err, domain.ErrInvalidRequest):
			respondWithError(w, http.StatusBadRequest, "entity id is required")
		default:
			respondWithError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, entity)
}
