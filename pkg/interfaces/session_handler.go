package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/maya/out-and-about/pkg/domain"
)

type SessionHandler struct {
	service domain.SessionService
}

func NewSessionHandler(service domain.SessionService) *SessionHandler {
	return &SessionHandler{
		service: service,
	}
}

func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/sessions", h.CreateSession).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/focus", h.Focus).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/swipe", h.Swipe).Methods("POST")
	router.HandleFunc("/api/sessions/{id}/actions", h.GetActions).Methods("GET")
	router.HandleFunc("/api/sessions/{id}/detail", h.GetDetail).Methods("GET")
	router.HandleFunc("/api/sessions/{id}/similar", h.GetSimilar).Methods("GET")
	router.HandleFunc("/api/sessions/{id}", h.CloseSession).Methods("DELETE")
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	viewer := viewerID(r)
	if viewer == "" {
		respondWithError(w, http.StatusBadRequest, "X-Viewer-ID header is required")
		return
	}

	var req domain.NearbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.Create(ctx, viewer, req)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, state)
}

func (h *SessionHandler) Focus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var body struct {
		EntityID string `json:"entity_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.Focus(ctx, mux.Vars(r)["id"], body.EntityID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}

func (h *SessionHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var body struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.service.Swipe(ctx, mux.Vars(r)["id"], domain.SwipeDirection(body.Direction))
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}

func (h *SessionHandler) GetActions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	actions, err := h.service.Actions(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"actions": actions})
}

func (h *SessionHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	entity, err := h.service.Detail(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entity)
}

func (h *SessionHandler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entities, err := h.service.Similar(ctx, mux.Vars(r)["id"], limit)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"entities": entities,
		"total":    len(entities),
	})
}

func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Close(ctx, mux.Vars(r)["id"]); err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		respondWithError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrEntityNotFound):
		respondWithError(w, http.StatusNotFound, "entity not found")
	case errors.Is(err, domain.ErrInvalidRequest):
		respondWithError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrRateLimitExceeded):
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
	case errors.Is(err, domain.ErrExternalAPIFailure):
		respondWithError(w, http.StatusServiceUnavailable, "external service unavailable")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
