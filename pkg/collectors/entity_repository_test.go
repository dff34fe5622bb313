package collectors

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/maya/out-and-about/pkg/domain"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}

	db, err := NewSQLiteDB(tempFile.Name())
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(tempFile.Name())
	}

	return db, cleanup
}

func storedEvent(id string, lon, lat float64) *domain.Event {
	return &domain.Event{
		Core: domain.Core{
			ID:          id,
			Name:        "Stored Event",
			Source:      domain.SourceUser,
			Coordinates: &domain.Coordinates{Longitude: lon, Latitude: lat},
			Categories:  []domain.Category{{Name: "music"}},
		},
		Subtype: domain.SubtypeCommunity,
	}
}

func TestNewEntityRepository(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		repo, err := NewEntityRepository(db)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if repo == nil {
			t.Fatal("expected repository, got nil")
		}
	})

	t.Run("nil database", func(t *testing.T) {
		_, err := NewEntityRepository(nil)
		if err == nil {
			t.Fatal("expected error for nil database")
		}
	})
}

func TestEntityRepository_UpsertAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewEntityRepository(db)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	ctx := context.Background()

	t.Run("round-trips an event", func(t *testing.T) {
		event := storedEvent("ev-1", 13.40, 52.50)
		event.JoinStatus = true

		if err := repo.Upsert(ctx, event); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetByID(ctx, "ev-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		stored, ok := got.(*domain.Event)
		if !ok {
			t.Fatalf("expected *Event, got %T", got)
		}
		if stored.Name != "Stored Event" || !stored.JoinStatus {
			t.Errorf("unexpected stored event %+v", stored)
		}
		if stored.Subtype != domain.SubtypeCommunity {
			t.Errorf("expected community subtype, got %s", stored.Subtype)
		}
	})

	t.Run("round-trips a location", func(t *testing.T) {
		loc := &domain.Location{
			Core: domain.Core{
				ID:          "loc-1",
				Name:        "Prater Garten",
				Source:      domain.SourceStatic,
				Coordinates: &domain.Coordinates{Longitude: 13.41, Latitude: 52.54},
			},
			Type:     "beer_garden",
			Rating:   4.5,
			Category: &domain.LocationCategory{Name: "food_drink"},
		}

		if err := repo.Upsert(ctx, loc); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetByID(ctx, "loc-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		stored, ok := got.(*domain.Location)
		if !ok {
			t.Fatalf("expected *Location, got %T", got)
		}
		if stored.Type != "beer_garden" || stored.Rating != 4.5 {
			t.Errorf("unexpected stored location %+v", stored)
		}
	})

	t.Run("upsert replaces the previous row", func(t *testing.T) {
		event := storedEvent("ev-2", 13.40, 52.50)
		if err := repo.Upsert(ctx, event); err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}

		event.Name = "Renamed"
		if err := repo.Upsert(ctx, event); err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}

		got, err := repo.GetByID(ctx, "ev-2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.EntityCore().Name != "Renamed" {
			t.Errorf("expected renamed entity, got %s", got.EntityCore().Name)
		}
	})

	t.Run("missing entity", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		if err != domain.ErrEntityNotFound {
			t.Errorf("expected ErrEntityNotFound, got %v", err)
		}
	})
}

func TestEntityRepository_ListNearby(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewEntityRepository(db)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	ctx := context.Background()

	// Berlin Mitte cluster plus one event in Munich
	fixtures := []domain.Entity{
		storedEvent("near-1", 13.4050, 52.5200),
		storedEvent("near-2", 13.4100, 52.5250),
		storedEvent("munich", 11.5820, 48.1351),
		&domain.Location{Core: domain.Core{ID: "no-coords", Name: "Unknown", Source: domain.SourceStatic}},
	}
	for _, f := range fixtures {
		if err := repo.Upsert(ctx, f); err != nil {
			t.Fatalf("failed to upsert %s: %v", f.EntityCore().ID, err)
		}
	}

	t.Run("returns entities inside the radius, closest first", func(t *testing.T) {
		got, err := repo.ListNearby(ctx, 52.5200, 13.4050, 5, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 nearby entities, got %d", len(got))
		}
		if got[0].EntityCore().ID != "near-1" {
			t.Errorf("expected near-1 first, got %s", got[0].EntityCore().ID)
		}
	})

	t.Run("respects the limit", func(t *testing.T) {
		got, err := repo.ListNearby(ctx, 52.5200, 13.4050, 5, 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 entity, got %d", len(got))
		}
	})

	t.Run("faraway origin finds nothing", func(t *testing.T) {
		got, err := repo.ListNearby(ctx, 40.7128, -74.0060, 5, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no entities near New York, got %d", len(got))
		}
	})
}

func TestEntityRepository_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo, err := NewEntityRepository(db)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	ctx := context.Background()

	if err := repo.Upsert(ctx, storedEvent("ev-del", 13.4, 52.5)); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}
	if err := repo.Delete(ctx, "ev-del"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := repo.Delete(ctx, "ev-del"); err != domain.ErrEntityNotFound {
		t.Errorf("expected ErrEntityNotFound on second delete, got %v", err)
	}
}
