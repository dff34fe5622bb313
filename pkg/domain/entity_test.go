package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEvent(t *testing.T) {
	t.Run("IsCreator", func(t *testing.T) {
		event := &Event{
			Core:      Core{ID: "ev-1", Name: "Warehouse Show"},
			CreatedBy: &UserRef{ID: "u-1", Name: "Maya"},
		}

		if !event.IsCreator("u-1") {
			t.Error("expected creator match")
		}
		if event.IsCreator("u-2") {
			t.Error("expected non-creator mismatch")
		}
		if event.IsCreator("") {
			t.Error("empty viewer id must never match")
		}

		anonymous := &Event{Core: Core{ID: "ev-2"}}
		if anonymous.IsCreator("u-1") {
			t.Error("event without creator must not match")
		}
	})

	t.Run("attendee profiles may be truncated", func(t *testing.T) {
		event := &Event{
			Core: Core{ID: "ev-3"},
			Attendees: Attendees{
				Count:    42,
				Profiles: []UserRef{{ID: "u-1"}, {ID: "u-2"}},
			},
		}

		if event.Attendees.Count == len(event.Attendees.Profiles) {
			t.Error("fixture should model a truncated preview")
		}
		if len(event.Attendees.Profiles) != 2 {
			t.Errorf("expected 2 preview profiles, got %d", len(event.Attendees.Profiles))
		}
	})
}

func TestEntityJSONKind(t *testing.T) {
	t.Run("event carries the kind discriminator", func(t *testing.T) {
		event := &Event{
			Core:          Core{ID: "ev-1", Name: "Warehouse Show", Source: SourceUser},
			Subtype:       SubtypeCommunity,
			StartDatetime: time.Date(2026, 9, 12, 20, 0, 0, 0, time.UTC),
		}
		data, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var wire map[string]interface{}
		if err := json.Unmarshal(data, &wire); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if wire["kind"] != "event" {
			t.Errorf("expected kind event, got %v", wire["kind"])
		}
		if wire["id"] != "ev-1" || wire["subtype"] != "community" {
			t.Errorf("expected flattened event fields, got %v", wire)
		}
	})

	t.Run("location carries the kind discriminator", func(t *testing.T) {
		loc := &Location{
			Core: Core{ID: "loc-1", Name: "Prater Garten", Source: SourceStatic},
			Type: "beer_garden",
		}
		data, err := json.Marshal(loc)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var wire map[string]interface{}
		if err := json.Unmarshal(data, &wire); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if wire["kind"] != "location" {
			t.Errorf("expected kind location, got %v", wire["kind"])
		}
		if wire["type"] != "beer_garden" {
			t.Errorf("expected flattened location fields, got %v", wire)
		}
	})

	t.Run("stored payload with the discriminator round-trips", func(t *testing.T) {
		event := &Event{Core: Core{ID: "ev-2", Name: "Block Party", Source: SourceUser}}
		data, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var decoded Event
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if decoded.ID != "ev-2" || decoded.Name != "Block Party" {
			t.Errorf("unexpected round-trip result %+v", decoded)
		}
	})
}

func TestCore_HasCoordinates(t *testing.T) {
	with := Core{ID: "a", Coordinates: &Coordinates{Longitude: 13.4, Latitude: 52.5}}
	without := Core{ID: "b"}

	if !with.HasCoordinates() {
		t.Error("expected coordinates present")
	}
	if without.HasCoordinates() {
		t.Error("expected coordinates absent")
	}
}

func TestDistanceKm(t *testing.T) {
	berlin := Coordinates{Longitude: 13.4050, Latitude: 52.5200}
	munich := Coordinates{Longitude: 11.5820, Latitude: 48.1351}

	d := DistanceKm(berlin, munich)
	if d < 500 || d > 510 {
		t.Errorf("expected Berlin-Munich around 504km, got %f", d)
	}

	if z := DistanceKm(berlin, berlin); z != 0 {
		t.Errorf("expected zero distance for identical points, got %f", z)
	}
}

func TestLocation(t *testing.T) {
	loc := &Location{
		Core:       Core{ID: "loc-1", Name: "Prater Garten", Source: SourceStatic},
		Type:       "beer_garden",
		Rating:     4.5,
		PriceLevel: 2,
		Category:   &LocationCategory{Name: "food_drink"},
	}

	if loc.Kind() != KindLocation {
		t.Errorf("expected kind location, got %s", loc.Kind())
	}
	if loc.EntityCore().ID != "loc-1" {
		t.Errorf("expected core id loc-1, got %s", loc.EntityCore().ID)
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError{Field: "quantity", Message: "must be positive"}
	want := "validation error on field quantity: must be positive"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestFlagDefaults(t *testing.T) {
	flag := Flag{
		Reason:    "spam",
		TargetID:  "ev-9",
		CreatedAt: time.Now(),
	}
	if flag.Reason != "spam" || flag.TargetID != "ev-9" {
		t.Errorf("unexpected flag %+v", flag)
	}
}
