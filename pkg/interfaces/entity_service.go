package interfaces

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/maya/out-and-about/pkg/domain"
)

// ExternalPool is the slice of the aggregator the entity service needs:
// a merged nearby pool plus per-entity detail lookups.
type ExternalPool interface {
	Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Entity, error)
	FetchEntityDetail(ctx context.Context, id string, source domain.Source) (domain.Entity, error)
}

// EntityService serves the unified nearby pool: locally stored entities
// merged with whatever the external sources return. External results are
// written back to the store so later detail reads work offline.
type EntityService struct {
	repository domain.EntityRepository
	external   ExternalPool
}

func NewEntityService(repository domain.EntityRepository, external ExternalPool) *EntityService {
	return &EntityService{
		repository: repository,
		external:   external,
	}
}

func (s *EntityService) Nearby(ctx context.Context, req domain.NearbyRequest) (*domain.NearbyResponse, error) {
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		return nil, domain.ErrInvalidRequest
	}

	radius := req.RadiusKm
	if radius <= 0 {
		radius = 10
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	local, err := s.repository.ListNearby(ctx, req.Lat, req.Lon, radius, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list local entities: %w", err)
	}

	if s.external == nil {
		return &domain.NearbyResponse{Entities: local, Total: len(local)}, nil
	}

	externalEntities, err := s.external.Nearby(ctx, req.Lat, req.Lon, radius, limit)
	if err != nil {
		if len(local) > 0 {
			return &domain.NearbyResponse{Entities: local, Total: len(local)}, nil
		}
		return nil, domain.ErrExternalAPIFailure
	}

	seen := make(map[string]bool, len(local))
	combined := make([]domain.Entity, 0, len(local)+len(externalEntities))
	for _, entity := range local {
		seen[entity.EntityCore().ID] = true
		combined = append(combined, entity)
	}
	for _, entity := range externalEntities {
		if seen[entity.EntityCore().ID] {
			continue
		}
		seen[entity.EntityCore().ID] = true
		combined = append(combined, entity)
		if upsertErr := s.repository.Upsert(ctx, entity); upsertErr != nil {
			log.Printf("Failed to persist external entity %s: %v", entity.EntityCore().ID, upsertErr)
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return nearbyDistance(req.Lat, req.Lon, combined[i]) < nearbyDistance(req.Lat, req.Lon, combined[j])
	})
	if len(combined) > limit {
		combined = combined[:limit]
	}

	return &domain.NearbyResponse{Entities: combined, Total: len(combined)}, nil
}

func (s *EntityService) GetEntity(ctx context.Context, id string) (domain.Entity, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.repository.GetByID(ctx, id)
}

// Coordinate-less entities sort to the end of the pool.
func nearbyDistance(lat, lon float64, entity domain.Entity) float64 {
	core := entity.EntityCore()
	if !core.HasCoordinates() {
		return 1 << 20
	}
	return domain.DistanceKm(domain.Coordinates{Longitude: lon, Latitude: lat}, *core.Coordinates)
}

// DetailRouter routes detail fetches by entity source: locally owned
// entities read from the store, externally sourced ones go back out to the
// API that produced them.
type DetailRouter struct {
	repository domain.EntityRepository
	external   domain.DetailFetcher
}

func NewDetailRouter(repository domain.EntityRepository, external domain.DetailFetcher) *DetailRouter {
	return &DetailRouter{
		repository: repository,
		external:   external,
	}
}

func (r *DetailRouter) FetchEntityDetail(ctx context.Context, id string, source domain.Source) (domain.Entity, error) {
	switch source {
	case domain.SourceUser, domain.SourceExternalAPI:
		return r.repository.GetByID(ctx, id)
	default:
		if r.external == nil {
			return r.repository.GetByID(ctx, id)
		}
		return r.external.FetchEntityDetail(ctx, id, source)
	}
}
