package interfaces

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/maya/out-and-about/pkg/domain"
	"github.com/maya/out-and-about/pkg/engine"
)

// EventService orchestrates event mutations: join/leave through the
// membership reconciler, ticket purchases through the checkout gateway,
// and content reports. Join status is viewer-relative, so every mutation
// starts from the calling viewer's own membership, never from whatever the
// shared row happens to hold. Updated events are written back to the store
// so the optimistic counts survive a restart.
type EventService struct {
	entities   domain.EntityRepository
	gateway    domain.MembershipGateway
	flags      domain.FlagRepository
	reconciler *engine.MembershipReconciler
	checkout   domain.CheckoutGateway
	detail     *engine.DetailCache
}

func NewEventService(entities domain.EntityRepository, gateway domain.MembershipGateway, flags domain.FlagRepository, reconciler *engine.MembershipReconciler, checkout domain.CheckoutGateway, detail *engine.DetailCache) *EventService {
	return &EventService{
		entities:   entities,
		gateway:    gateway,
		flags:      flags,
		reconciler: reconciler,
		checkout:   checkout,
		detail:     detail,
	}
}

func (s *EventService) Join(ctx context.Context, eventID, viewerID string) (*domain.Event, error) {
	event, err := s.loadEventFor(ctx, eventID, viewerID)
	if err != nil {
		return nil, err
	}

	if err := s.reconciler.Join(ctx, event, viewerID); err != nil {
		return nil, err
	}

	s.persist(ctx, event)
	return event, nil
}

func (s *EventService) Leave(ctx context.Context, eventID, viewerID string) (*domain.Event, error) {
	event, err := s.loadEventFor(ctx, eventID, viewerID)
	if err != nil {
		return nil, err
	}

	if err := s.reconciler.Leave(ctx, event, viewerID); err != nil {
		return nil, err
	}

	s.persist(ctx, event)
	return event, nil
}

func (s *EventService) PurchaseTickets(ctx context.Context, eventID, viewerID string, quantity int) (*domain.CheckoutSession, error) {
	if viewerID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.checkout == nil {
		return nil, domain.ErrTicketingDisabled
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return s.reconciler.PurchaseTickets(ctx, event, viewerID, s.checkout, uuid.NewString(), quantity)
}

// RefreshMembership pulls the authoritative join state from the gateway and
// applies it unless a local mutation is still in flight or the local copy
// is fresher.
func (s *EventService) RefreshMembership(ctx context.Context, eventID, viewerID string) (*domain.Event, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	joined, count, err := s.gateway.FetchMembership(ctx, eventID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}

	if s.reconciler.ApplyServerState(event, viewerID, joined, count, time.Now()) {
		s.persist(ctx, event)
	}
	return event, nil
}

func (s *EventService) Report(ctx context.Context, flag *domain.Flag) error {
	if flag == nil {
		return domain.ErrInvalidRequest
	}
	return s.flags.Create(ctx, flag)
}

func (s *EventService) loadEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if eventID == "" {
		return nil, domain.ErrInvalidRequest
	}

	entity, err := s.entities.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	event, ok := entity.(*domain.Event)
	if !ok {
		return nil, domain.ErrNotAnEvent
	}
	return event, nil
}

// loadEventFor loads the shared event row and overlays the calling viewer's
// own membership from the gateway. The stored row never carries a join flag,
// so this is the only place a mutation's starting state comes from.
func (s *EventService) loadEventFor(ctx context.Context, eventID, viewerID string) (*domain.Event, error) {
	if viewerID == "" {
		return nil, domain.ErrInvalidRequest
	}

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	joined, _, err := s.gateway.FetchMembership(ctx, eventID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}
	event.JoinStatus = joined
	return event, nil
}

// persist writes the mutated event back and pins it in the detail cache so
// the next detail read does not clobber the optimistic state. The stored
// row is shared across viewers, so the viewer-relative join flag is
// stripped before the write; only the attendee count is shared state.
func (s *EventService) persist(ctx context.Context, event *domain.Event) {
	shared := *event
	shared.JoinStatus = false
	if err := s.entities.Upsert(ctx, &shared); err != nil {
		log.Printf("Failed to persist event %s: %v", event.ID, err)
	}
	if s.detail != nil {
		s.detail.MarkManuallyUpdated(&shared)
	}
}
