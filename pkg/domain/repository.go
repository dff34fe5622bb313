package domain

import (
	"context"
	"time"
)

type EntityRepository interface {
	Upsert(ctx context.Context, entity Entity) error
	GetByID(ctx context.Context, id string) (Entity, error)
	ListNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Entity, error)
	Delete(ctx context.Context, id string) error
}

type AttendanceRepository interface {
	Join(ctx context.Context, eventID, userID string) error
	Leave(ctx context.Context, eventID, userID string) error
	IsJoined(ctx context.Context, eventID, userID string) (bool, error)
	Count(ctx context.Context, eventID string) (int, error)
}

type FlagRepository interface {
	Create(ctx context.Context, flag *Flag) error
}

// DetailFetcher enriches a shallow list entity with the full detail record.
type DetailFetcher interface {
	FetchEntityDetail(ctx context.Context, id string, source Source) (Entity, error)
}

// MembershipGateway is the backend that owns the authoritative join state
// for events. Implementations serialize nothing; the engine's reconciler
// guarantees at most one in-flight mutation per event.
type MembershipGateway interface {
	JoinEvent(ctx context.Context, eventID, userID string) error
	LeaveEvent(ctx context.Context, eventID, userID string) error
	FetchMembership(ctx context.Context, eventID, userID string) (joined bool, count int, err error)
}

// CheckoutGateway creates payment sessions for ticketed events.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, eventID, idempotencyKey string, quantity int) (*CheckoutSession, error)
}

type SimilarQuery struct {
	Kind     Kind
	Category string
	Name     string
	Lat      float64
	Lon      float64
	Limit    int
	RadiusKm float64
}

type SimilarItemsGateway interface {
	QuerySimilarItems(ctx context.Context, query SimilarQuery) ([]Entity, error)
}

type NearbyRequest struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
	Limit    int     `json:"limit"`
	ViewerID string  `json:"-"`
}

type NearbyResponse struct {
	Entities []Entity `json:"entities"`
	Total    int      `json:"total"`
}

type NearbyService interface {
	Nearby(ctx context.Context, req NearbyRequest) (*NearbyResponse, error)
	GetEntity(ctx context.Context, id string) (Entity, error)
}

// SessionState is the externally visible snapshot of one open-card session.
type SessionState struct {
	SessionID string    `json:"session_id"`
	ViewerID  string    `json:"viewer_id"`
	Focus     Entity    `json:"focus,omitempty"`
	PoolSize  int       `json:"pool_size"`
	Noop      bool      `json:"noop,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionService owns one navigation session per open card: the focused
// entity, its swipe history, and its similar-items shelf.
type SessionService interface {
	Create(ctx context.Context, viewerID string, req NearbyRequest) (*SessionState, error)
	Focus(ctx context.Context, sessionID, entityID string) (*SessionState, error)
	Swipe(ctx context.Context, sessionID string, direction SwipeDirection) (*SessionState, error)
	Actions(ctx context.Context, sessionID string) ([]Action, error)
	Detail(ctx context.Context, sessionID string) (Entity, error)
	Similar(ctx context.Context, sessionID string, limit int) ([]Entity, error)
	Close(ctx context.Context, sessionID string) error
}

// EventService orchestrates join/leave/ticket mutations for events.
type EventService interface {
	Join(ctx context.Context, eventID, viewerID string) (*Event, error)
	Leave(ctx context.Context, eventID, viewerID string) (*Event, error)
	PurchaseTickets(ctx context.Context, eventID, viewerID string, quantity int) (*CheckoutSession, error)
	RefreshMembership(ctx context.Context, eventID, viewerID string) (*Event, error)
	Report(ctx context.Context, flag *Flag) error
}
