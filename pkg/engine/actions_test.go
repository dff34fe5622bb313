package engine

import (
	"testing"

	"github.com/maya/out-and-about/pkg/domain"
)

func TestResolveActions(t *testing.T) {
	creator := &domain.UserRef{ID: "creator-1", Name: "Maya"}

	t.Run("ticketed event not joined buys tickets", func(t *testing.T) {
		event := &domain.Event{
			Core:      domain.Core{ID: "tm-1", Source: domain.SourceTicketmaster},
			Subtype:   domain.SubtypeTicketed,
			Ticketing: &domain.Ticketing{Enabled: true},
		}

		actions := ResolveActions(event, "viewer-1", false)
		assertVerbs(t, actions, domain.ActionDetails, domain.ActionBuyTickets)
	})

	t.Run("creator of community event edits", func(t *testing.T) {
		event := &domain.Event{
			Core:      domain.Core{ID: "ev-1", Source: domain.SourceUser},
			Subtype:   domain.SubtypeCommunity,
			CreatedBy: creator,
		}

		actions := ResolveActions(event, "creator-1", false)
		assertVerbs(t, actions, domain.ActionDetails, domain.ActionEditEvent)

		// joined or not, the creator never sees a join affordance
		actions = ResolveActions(event, "creator-1", true)
		assertVerbs(t, actions, domain.ActionDetails, domain.ActionEditEvent)
	})

	t.Run("joined non-creator creates an orbit", func(t *testing.T) {
		event := &domain.Event{
			Core:      domain.Core{ID: "ev-2", Source: domain.SourceUser},
			Subtype:   domain.SubtypeCommunity,
			CreatedBy: creator,
		}

		actions := ResolveActions(event, "viewer-1", true)
		assertVerbs(t, actions, domain.ActionDetails, domain.ActionCreateOrbit)
	})

	t.Run("not joined non-creator joins", func(t *testing.T) {
		event := &domain.Event{
			Core:    domain.Core{ID: "ev-3", Source: domain.SourceExternalAPI},
			Subtype: domain.SubtypeExternal,
		}

		actions := ResolveActions(event, "viewer-1", false)
		assertVerbs(t, actions, domain.ActionDetails, domain.ActionJoinActivity)
	})

	t.Run("location gets learn more and create activity", func(t *testing.T) {
		loc := &domain.Location{Core: domain.Core{ID: "loc-1", Source: domain.SourceStatic}}

		actions := ResolveActions(loc, "viewer-1", false)
		assertVerbs(t, actions, domain.ActionLearnMore, domain.ActionCreateActivity)
	})

	t.Run("join and create are mutually exclusive", func(t *testing.T) {
		event := &domain.Event{
			Core:    domain.Core{ID: "ev-4", Source: domain.SourceUser},
			Subtype: domain.SubtypeCommunity,
		}
		for _, joined := range []bool{true, false} {
			actions := ResolveActions(event, "viewer-1", joined)
			var hasOrbit, hasJoin bool
			for _, a := range actions {
				if a.Verb == domain.ActionCreateOrbit {
					hasOrbit = true
				}
				if a.Verb == domain.ActionJoinActivity {
					hasJoin = true
				}
			}
			if hasOrbit && hasJoin {
				t.Errorf("joined=%v: resolver returned both orbit and join", joined)
			}
		}
	})

	t.Run("table is total with one primary and one informational", func(t *testing.T) {
		entities := []domain.Entity{
			&domain.Event{Core: domain.Core{ID: "a"}, Subtype: domain.SubtypeTicketed},
			&domain.Event{Core: domain.Core{ID: "b"}, Subtype: domain.SubtypeCommunity, CreatedBy: creator},
			&domain.Event{Core: domain.Core{ID: "c"}, Subtype: domain.SubtypeExternal},
			&domain.Location{Core: domain.Core{ID: "d"}},
		}
		viewers := []string{"creator-1", "viewer-1", ""}

		for _, entity := range entities {
			for _, viewer := range viewers {
				for _, joined := range []bool{true, false} {
					actions := ResolveActions(entity, viewer, joined)
					if len(actions) == 0 {
						t.Fatalf("empty action list for %s viewer=%q joined=%v",
							entity.EntityCore().ID, viewer, joined)
					}

					var primaries, informational int
					for _, a := range actions {
						if a.Primary {
							primaries++
						}
						if a.Verb == domain.ActionDetails || a.Verb == domain.ActionLearnMore {
							informational++
						}
					}
					if primaries != 1 {
						t.Errorf("%s viewer=%q joined=%v: expected exactly one primary, got %d",
							entity.EntityCore().ID, viewer, joined, primaries)
					}
					if informational != 1 {
						t.Errorf("%s viewer=%q joined=%v: expected exactly one informational, got %d",
							entity.EntityCore().ID, viewer, joined, informational)
					}
				}
			}
		}
	})
}

func assertVerbs(t *testing.T, actions []domain.Action, want ...domain.ActionVerb) {
	t.Helper()
	if len(actions) != len(want) {
		t.Fatalf("expected %d actions, got %d (%+v)", len(want), len(actions), actions)
	}
	for i, verb := range want {
		if actions[i].Verb != verb {
			t.Errorf("action %d: expected %s, got %s", i, verb, actions[i].Verb)
		}
	}
}
