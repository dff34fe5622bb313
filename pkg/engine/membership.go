package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maya/out-and-about/pkg/domain"
	"github.com/maya/out-and-about/pkg/metrics"
)

// mutationKey scopes optimistic membership state to one viewer's
// relationship with one event. Join status is viewer-relative, so two
// viewers acting on the same event never share pending or confirmed state.
type mutationKey struct {
	eventID  string
	viewerID string
}

// MembershipReconciler serializes join/leave mutations per event per viewer
// and keeps the viewer's copy optimistically in sync with the backend. The
// state machine per (event, viewer) is Idle(joined) -> Pending(target) ->
// Idle(target) on success, or back to Idle(joined) with a full revert on
// failure. A second mutation while Pending is refused with
// ErrMutationPending, so at most one network call is ever in flight per
// event per viewer.
type MembershipReconciler struct {
	mu        sync.Mutex
	pending   map[mutationKey]bool
	confirmed map[mutationKey]time.Time
	gateway   domain.MembershipGateway
	metrics   *metrics.Metrics
}

func NewMembershipReconciler(gateway domain.MembershipGateway, m *metrics.Metrics) *MembershipReconciler {
	return &MembershipReconciler{
		pending:   make(map[mutationKey]bool),
		confirmed: make(map[mutationKey]time.Time),
		gateway:   gateway,
		metrics:   m,
	}
}

// Join optimistically marks the event joined for the viewer and bumps the
// attendee count, then confirms against the gateway. On failure both are
// reverted, no partial count mutation survives. The event passed in must
// carry the calling viewer's join status, not another viewer's.
func (r *MembershipReconciler) Join(ctx context.Context, event *domain.Event, viewerID string) error {
	return r.mutate(ctx, event, viewerID, true)
}

// Leave is the inverse of Join with the same guarantees.
func (r *MembershipReconciler) Leave(ctx context.Context, event *domain.Event, viewerID string) error {
	return r.mutate(ctx, event, viewerID, false)
}

func (r *MembershipReconciler) mutate(ctx context.Context, event *domain.Event, viewerID string, target bool) error {
	if event == nil || viewerID == "" {
		return domain.ErrInvalidRequest
	}
	verb := "leave"
	if target {
		verb = "join"
	}
	key := mutationKey{eventID: event.ID, viewerID: viewerID}

	r.mu.Lock()
	if r.pending[key] {
		r.mu.Unlock()
		r.metrics.JoinMutation(verb, "conflict")
		return domain.ErrMutationPending
	}
	if event.JoinStatus == target {
		r.mu.Unlock()
		return nil
	}
	r.pending[key] = true

	prevJoined := event.JoinStatus
	prevCount := event.Attendees.Count
	event.JoinStatus = target
	if target {
		event.Attendees.Count = prevCount + 1
	} else if prevCount > 0 {
		event.Attendees.Count = prevCount - 1
	}
	r.mu.Unlock()

	var err error
	if target {
		err = r.gateway.JoinEvent(ctx, event.ID, viewerID)
	} else {
		err = r.gateway.LeaveEvent(ctx, event.ID, viewerID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, key)

	if err != nil {
		event.JoinStatus = prevJoined
		event.Attendees.Count = prevCount
		r.metrics.JoinMutation(verb, "failure")
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}

	r.confirmed[key] = time.Now()
	r.metrics.JoinMutation(verb, "success")
	return nil
}

// ApplyServerState merges an authoritative membership fetch for one viewer
// into the local copy. The merge is last-writer-wins by fetch recency: a
// fetch older than the viewer's latest confirmed mutation is discarded, and
// nothing overwrites an in-flight mutation. Reports whether the fetch was
// applied.
func (r *MembershipReconciler) ApplyServerState(event *domain.Event, viewerID string, joined bool, count int, fetchedAt time.Time) bool {
	if event == nil {
		return false
	}
	key := mutationKey{eventID: event.ID, viewerID: viewerID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending[key] {
		return false
	}
	if confirmedAt, ok := r.confirmed[key]; ok && fetchedAt.Before(confirmedAt) {
		return false
	}

	event.JoinStatus = joined
	event.Attendees.Count = count
	return true
}

// PurchaseTickets runs the checkout sub-flow for a ticketed event. The
// quantity is validated locally before any network contact: it must be at
// least 1 and within the per-user limit when one is set. An event whose
// limit is exactly 1 skips the quantity prompt upstream and arrives here
// with quantity 1. The Pending guard applies like any other mutation.
func (r *MembershipReconciler) PurchaseTickets(ctx context.Context, event *domain.Event, viewerID string, checkout domain.CheckoutGateway, idempotencyKey string, quantity int) (*domain.CheckoutSession, error) {
	if event == nil || viewerID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if event.Ticketing == nil || !event.Ticketing.Enabled {
		return nil, domain.ErrTicketingDisabled
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidTicketQuantity
	}
	if limit := event.Ticketing.LimitPerUser; limit > 0 && quantity > limit {
		return nil, domain.ErrInvalidTicketQuantity
	}
	key := mutationKey{eventID: event.ID, viewerID: viewerID}

	r.mu.Lock()
	if r.pending[key] {
		r.mu.Unlock()
		r.metrics.JoinMutation("purchase", "conflict")
		return nil, domain.ErrMutationPending
	}
	r.pending[key] = true
	r.mu.Unlock()

	session, err := checkout.CreateCheckoutSession(ctx, event.ID, idempotencyKey, quantity)

	r.mu.Lock()
	delete(r.pending, key)
	r.mu.Unlock()

	if err != nil {
		r.metrics.JoinMutation("purchase", "failure")
		return nil, fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}

	r.metrics.JoinMutation("purchase", "success")
	return session, nil
}

// Pending reports whether the viewer has a mutation in flight for the event.
func (r *MembershipReconciler) Pending(eventID, viewerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending[mutationKey{eventID: eventID, viewerID: viewerID}]
}
