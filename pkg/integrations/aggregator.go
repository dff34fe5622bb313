package integrations

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/maya/out-and-about/pkg/domain"
)

// NearbyAggregator fans out to the external sources and merges their
// results into one classified pool. Either client may be nil; the
// aggregator degrades to whatever is configured.
type NearbyAggregator struct {
	ticketmaster *TicketmasterClient
	places       *PlacesClient
}

func NewNearbyAggregator(ticketmaster *TicketmasterClient, places *PlacesClient) *NearbyAggregator {
	return &NearbyAggregator{
		ticketmaster: ticketmaster,
		places:       places,
	}
}

// Nearby queries both sources concurrently and returns the classified
// entities. It fails only when every configured source fails.
func (a *NearbyAggregator) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Entity, error) {
	var (
		eventRecords []domain.RawRecord
		placeRecords []domain.RawRecord
		eventErr     error
		placeErr     error
		wg           sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		if a.ticketmaster != nil {
			eventRecords, eventErr = a.ticketmaster.NearbyEvents(ctx, lat, lon, radiusKm, limit)
		}
	}()

	go func() {
		defer wg.Done()
		if a.places != nil {
			placeRecords, placeErr = a.places.NearbyPlaces(ctx, lat, lon, radiusKm, limit)
		}
	}()

	wg.Wait()

	configured := 0
	failed := 0
	if a.ticketmaster != nil {
		configured++
		if eventErr != nil {
			failed++
		}
	}
	if a.places != nil {
		configured++
		if placeErr != nil {
			failed++
		}
	}
	if configured > 0 && failed == configured {
		return nil, fmt.Errorf("all external sources failed: ticketmaster=%v, places=%v", eventErr, placeErr)
	}

	seen := make(map[string]bool)
	entities := make([]domain.Entity, 0, len(eventRecords)+len(placeRecords))
	for _, record := range append(eventRecords, placeRecords...) {
		if record.ID == "" || seen[record.ID] {
			continue
		}
		seen[record.ID] = true
		entities = append(entities, domain.BuildEntity(record))
	}

	return entities, nil
}

// FetchEntityDetail implements domain.DetailFetcher for externally sourced
// entities. Locally created entities never reach this path.
func (a *NearbyAggregator) FetchEntityDetail(ctx context.Context, id string, source domain.Source) (domain.Entity, error) {
	switch source {
	case domain.SourceTicketmaster:
		if a.ticketmaster == nil {
			return nil, domain.ErrExternalAPIFailure
		}
		record, err := a.ticketmaster.GetEvent(ctx, strings.TrimPrefix(id, "tm_"))
		if err != nil {
			return nil, err
		}
		return domain.BuildEntity(record), nil
	case domain.SourceStatic:
		if a.places == nil {
			return nil, domain.ErrExternalAPIFailure
		}
		record, err := a.places.GetPlace(ctx, id)
		if err != nil {
			return nil, err
		}
		return domain.BuildEntity(record), nil
	default:
		return nil, domain.ErrEntityNotFound
	}
}

// QuerySimilarItems implements domain.SimilarItemsGateway over the nearby
// sources: it re-queries the pool around the focus point and lets the
// caller's ranker do the filtering.
func (a *NearbyAggregator) QuerySimilarItems(ctx context.Context, query domain.SimilarQuery) ([]domain.Entity, error) {
	radius := query.RadiusKm
	if radius <= 0 {
		radius = 5
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	entities, err := a.Nearby(ctx, query.Lat, query.Lon, radius, limit)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Entity, 0, len(entities))
	for _, entity := range entities {
		if entity.Kind() == query.Kind {
			filtered = append(filtered, entity)
		}
	}
	return filtered, nil
}
