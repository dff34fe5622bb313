package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/maya/out-and-about/pkg/domain"
)

type EventHandler struct {
	service domain.EventService
}

func NewEventHandler(service domain.EventService) *EventHandler {
	return &EventHandler{
		service: service,
	}
}

func (h *EventHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/events/{id}/join", h.JoinEvent).Methods("POST")
	router.HandleFunc("/api/events/{id}/leave", h.LeaveEvent).Methods("POST")
	router.HandleFunc("/api/events/{id}/tickets", h.PurchaseTickets).Methods("POST")
	router.HandleFunc("/api/events/{id}/membership", h.RefreshMembership).Methods("GET")
	router.HandleFunc("/api/entities/{id}/report", h.ReportEntity).Methods("POST")
}

func (h *EventHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	event, err := h.service.Join(ctx, mux.Vars(r)["id"], viewerID(r))
	if err != nil {
		h.respondWithMutationError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, event)
}

func (h *EventHandler) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	event, err := h.service.Leave(ctx, mux.Vars(r)["id"], viewerID(r))
	if err != nil {
		h.respondWithMutationError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, event)
}

func (h *EventHandler) PurchaseTickets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "quantity must be an integer")
		return
	}

	session, err := h.service.PurchaseTickets(ctx, mux.Vars(r)["id"], viewerID(r), body.Quantity)
	if err != nil {
		h.respondWithMutationError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

func (h *EventHandler) RefreshMembership(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	event, err := h.service.RefreshMembership(ctx, mux.Vars(r)["id"], viewerID(r))
	if err != nil {
		h.respondWithMutationError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, event)
}

func (h *EventHandler) ReportEntity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var flag domain.Flag
	if err := json.NewDecoder(r.Body).Decode(&flag); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flag.TargetID = mux.Vars(r)["id"]
	flag.ReportedBy = viewerID(r)

	if err := h.service.Report(ctx, &flag); err != nil {
		var validationErr domain.ValidationError
		if errors.As(err, &validationErr) {
			respondWithError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		h.respondWithMutationError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, flag)
}

func (h *EventHandler) respondWithMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEntityNotFound):
		respondWithError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, domain.ErrNotAnEvent):
		respondWithError(w, http.StatusBadRequest, "entity is not an event")
	case errors.Is(err, domain.ErrInvalidRequest):
		respondWithError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrInvalidTicketQuantity):
		respondWithError(w, http.StatusBadRequest, "invalid ticket quantity")
	case errors.Is(err, domain.ErrTicketingDisabled):
		respondWithError(w, http.StatusBadRequest, "ticketing is not enabled for this event")
	case errors.Is(err, domain.ErrMutationPending):
		respondWithError(w, http.StatusConflict, "another update is still in flight")
	case errors.Is(err, domain.ErrMutationFailed):
		respondWithError(w, http.StatusServiceUnavailable, "update could not be applied")
	case errors.Is(err, domain.ErrRateLimitExceeded):
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
