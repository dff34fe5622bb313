package interfaces

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maya/out-and-about/pkg/domain"
	"github.com/maya/out-and-about/pkg/engine"
	"github.com/maya/out-and-about/pkg/metrics"
)

// SessionConfig tunes the per-session engine components.
type SessionConfig struct {
	VisitedHistorySize int
	SimilarLimit       int
	SimilarRadiusKm    float64
}

// SessionManager owns the open-card sessions. Each session tracks a pool of
// nearby entities, the currently focused one, and the swipe history that
// keeps navigation from bouncing between the same few cards.
type SessionManager struct {
	nearby     domain.NearbyService
	detail     *engine.DetailCache
	similar    domain.SimilarItemsGateway
	attendance domain.AttendanceRepository
	metrics    *metrics.Metrics
	config     SessionConfig

	mu       sync.Mutex
	sessions map[string]*session
}

// session state is mutated by concurrent requests on the same session id;
// mu serializes every operation that touches the pool, the focus or the
// navigator. The manager's own lock only guards the sessions map.
type session struct {
	id        string
	viewerID  string
	createdAt time.Time

	mu        sync.Mutex
	navigator *engine.SwipeNavigator
	pool      []domain.Entity
	focus     domain.Entity
}

func NewSessionManager(nearby domain.NearbyService, detail *engine.DetailCache, similar domain.SimilarItemsGateway, attendance domain.AttendanceRepository, m *metrics.Metrics, config SessionConfig) *SessionManager {
	return &SessionManager{
		nearby:     nearby,
		detail:     detail,
		similar:    similar,
		attendance: attendance,
		metrics:    m,
		config:     config,
		sessions:   make(map[string]*session),
	}
}

func (m *SessionManager) Create(ctx context.Context, viewerID string, req domain.NearbyRequest) (*domain.SessionState, error) {
	if viewerID == "" {
		return nil, domain.ErrInvalidRequest
	}

	response, err := m.nearby.Nearby(ctx, req)
	if err != nil {
		return nil, err
	}

	s := &session{
		id:        uuid.NewString(),
		viewerID:  viewerID,
		navigator: engine.NewSwipeNavigator(m.config.VisitedHistorySize, nil, m.metrics),
		pool:      response.Entities,
		createdAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	return m.snapshot(s, false), nil
}

// Focus opens a card: the entity becomes the session focus, its swipe
// history restarts, and the detail copy is warmed up front.
func (m *SessionManager) Focus(ctx context.Context, sessionID, entityID string) (*domain.SessionState, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}
	if entityID == "" {
		return nil, domain.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entity := s.fromPool(entityID)
	if entity == nil {
		entity, err = m.nearby.GetEntity(ctx, entityID)
		if err != nil {
			return nil, err
		}
		s.pool = append(s.pool, entity)
	}

	s.focus = m.enrich(ctx, s, entity)
	s.navigator.ResetFocus()

	return m.snapshot(s, false), nil
}

// Swipe advances the focus to a nearby unvisited entity. An empty candidate
// pool is a no-op: the focus stays put and the state says so.
func (m *SessionManager) Swipe(ctx context.Context, sessionID string, direction domain.SwipeDirection) (*domain.SessionState, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}
	if direction != domain.SwipeLeft && direction != domain.SwipeRight {
		return nil, domain.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.focus == nil {
		return nil, domain.ErrInvalidRequest
	}

	next := s.navigator.Next(s.focus.EntityCore().ID, s.pool, direction)
	if next == nil {
		return m.snapshot(s, true), nil
	}

	s.focus = m.enrich(ctx, s, next)
	return m.snapshot(s, false), nil
}

func (m *SessionManager) Actions(ctx context.Context, sessionID string) ([]domain.Action, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.focus == nil {
		return nil, domain.ErrInvalidRequest
	}

	// Join status is viewer-relative: the shared entity copy never answers
	// for this viewer, the attendance store does.
	joined := false
	if event, ok := s.focus.(*domain.Event); ok {
		joined = event.JoinStatus
		if m.attendance != nil {
			stored, joinErr := m.attendance.IsJoined(ctx, event.ID, s.viewerID)
			if joinErr == nil {
				joined = stored
			}
		}
	}

	return engine.ResolveActions(s.focus, s.viewerID, joined), nil
}

func (m *SessionManager) Detail(ctx context.Context, sessionID string) (domain.Entity, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.focus == nil {
		return nil, domain.ErrInvalidRequest
	}

	s.focus = m.enrich(ctx, s, s.focus)
	return s.focus, nil
}

// Similar ranks the session pool around the focus; when the pool has
// nothing to offer and a gateway is configured, it widens the search.
func (m *SessionManager) Similar(ctx context.Context, sessionID string, limit int) ([]domain.Entity, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.focus == nil {
		return nil, domain.ErrInvalidRequest
	}
	if limit <= 0 {
		limit = m.config.SimilarLimit
	}

	ranked := engine.RankSimilar(s.focus, s.pool, limit)
	if len(ranked) > 0 || m.similar == nil {
		return ranked, nil
	}

	core := s.focus.EntityCore()
	if !core.HasCoordinates() {
		return ranked, nil
	}

	fetched, err := m.similar.QuerySimilarItems(ctx, domain.SimilarQuery{
		Kind:     s.focus.Kind(),
		Name:     core.Name,
		Lat:      core.Coordinates.Latitude,
		Lon:      core.Coordinates.Longitude,
		RadiusKm: m.config.SimilarRadiusKm,
		Limit:    limit * 4,
	})
	if err != nil {
		log.Printf("Similar items lookup failed for %s: %v", core.ID, err)
		return ranked, nil
	}

	return engine.RankSimilar(s.focus, append(fetched, s.pool...), limit), nil
}

func (m *SessionManager) Close(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}

	s.mu.Lock()
	focus := s.focus
	s.mu.Unlock()

	if focus != nil && m.detail != nil {
		m.detail.Invalidate(focus.EntityCore().ID)
	}
	return nil
}

func (m *SessionManager) session(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// enrich upgrades the entity through the detail cache, degrading to the
// shallow copy when the fetch fails. A focus change while the fetch was in
// flight discards the stale result.
func (m *SessionManager) enrich(ctx context.Context, s *session, entity domain.Entity) domain.Entity {
	if m.detail == nil {
		return entity
	}
	enriched, err := m.detail.Get(ctx, entity)
	if err != nil && !errors.Is(err, domain.ErrEnrichmentFailed) {
		return entity
	}
	if enriched == nil || enriched.EntityCore().ID != entity.EntityCore().ID {
		return entity
	}
	return enriched
}

func (m *SessionManager) snapshot(s *session, noop bool) *domain.SessionState {
	return &domain.SessionState{
		SessionID: s.id,
		ViewerID:  s.viewerID,
		Focus:     s.focus,
		PoolSize:  len(s.pool),
		Noop:      noop,
		CreatedAt: s.createdAt,
	}
}

func (s *session) fromPool(entityID string) domain.Entity {
	for _, entity := range s.pool {
		if entity.EntityCore().ID == entityID {
			return entity
		}
	}
	return nil
}
