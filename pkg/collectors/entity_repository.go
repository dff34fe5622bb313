package collectors

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/maya/out-and-about/pkg/domain"
)

// EntityRepository caches the nearby pool. Entities are constructed fresh on
// every list fetch upstream, so rows are plain upserts; the json payload
// column carries the kind-specific fields and the indexed columns only what
// the nearby query needs.
type EntityRepository struct {
	db *sql.DB
}

func NewEntityRepository(db *sql.DB) (*EntityRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &EntityRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *EntityRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		name TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		payload TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);
	CREATE INDEX IF NOT EXISTS idx_entities_coords ON entities(latitude, longitude);
	`

	_, err := r.db.Exec(query)
	return err
}

func (r *EntityRepository) Upsert(ctx context.Context, entity domain.Entity) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	core := entity.EntityCore()
	if core.ID == "" {
		return fmt.Errorf("entity id is required")
	}

	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	var lat, lon sql.NullFloat64
	if core.HasCoordinates() {
		lat = sql.NullFloat64{Float64: core.Coordinates.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: core.Coordinates.Longitude, Valid: true}
	}

	query := `
	INSERT INTO entities (id, kind, source, name, latitude, longitude, payload, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		source = excluded.source,
		name = excluded.name,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		payload = excluded.payload,
		updated_at = excluded.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		core.ID,
		string(entity.Kind()),
		string(core.Source),
		core.Name,
		lat,
		lon,
		string(payload),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entity: %w", err)
	}

	return nil
}

func (r *EntityRepository) GetByID(ctx context.Context, id string) (domain.Entity, error) {
	query := `SELECT kind, payload FROM entities WHERE id = ?`

	var kind, payload string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&kind, &payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity by id: %w", err)
	}

	return unmarshalEntity(kind, payload)
}

// ListNearby returns cached entities within radiusKm of the given point,
// closest first. The bounding box narrows the scan in SQL; the exact
// haversine cut happens in Go.
func (r *EntityRepository) ListNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Entity, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if radiusKm <= 0 {
		radiusKm = 10
	}

	// ~111km per degree of latitude; longitude degrades towards the poles
	// but a loose box is fine, the haversine filter below is exact.
	latDelta := radiusKm / 111.0
	lonDelta := radiusKm / 65.0

	query := `
	SELECT kind, payload, latitude, longitude
	FROM entities
	WHERE latitude IS NOT NULL
	  AND latitude BETWEEN ? AND ?
	  AND longitude BETWEEN ? AND ?
	`

	rows, err := r.db.QueryContext(ctx, query,
		lat-latDelta, lat+latDelta,
		lon-lonDelta, lon+lonDelta,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list nearby entities: %w", err)
	}
	defer rows.Close()

	origin := domain.Coordinates{Longitude: lon, Latitude: lat}

	type scored struct {
		entity   domain.Entity
		distance float64
	}
	var hits []scored

	for rows.Next() {
		var kind, payload string
		var rowLat, rowLon float64
		if err := rows.Scan(&kind, &payload, &rowLat, &rowLon); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}

		d := domain.DistanceKm(origin, domain.Coordinates{Longitude: rowLon, Latitude: rowLat})
		if d > radiusKm {
			continue
		}

		entity, err := unmarshalEntity(kind, payload)
		if err != nil {
			return nil, err
		}
		hits = append(hits, scored{entity: entity, distance: d})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	entities := make([]domain.Entity, 0, len(hits))
	for _, h := range hits {
		entities = append(entities, h.entity)
	}
	return entities, nil
}

func (r *EntityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrEntityNotFound
	}
	return nil
}

func unmarshalEntity(kind, payload string) (domain.Entity, error) {
	switch domain.Kind(kind) {
	case domain.KindEvent:
		var event domain.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		return &event, nil
	case domain.KindLocation:
		var loc domain.Location
		if err := json.Unmarshal([]byte(payload), &loc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal location: %w", err)
		}
		return &loc, nil
	default:
		return nil, fmt.Errorf("unknown entity kind: %s", kind)
	}
}
