// Package engine holds the unified entity interaction logic: the context
// action resolver, the join/leave reconciler, the swipe navigator, the
// similar-item ranker and the detail materialization cache. Everything here
// is a pure in-process decision layer; network and storage stay behind the
// gateway interfaces in the domain package.
package engine

import (
	"github.com/maya/out-and-about/pkg/domain"
)

var (
	actionDetails        = domain.Action{Label: "Details", Verb: domain.ActionDetails, Icon: "info"}
	actionLearnMore      = domain.Action{Label: "Learn More", Verb: domain.ActionLearnMore, Icon: "info"}
	actionBuyTickets     = domain.Action{Label: "Buy Tickets", Verb: domain.ActionBuyTickets, Icon: "ticket", Primary: true}
	actionEditEvent      = domain.Action{Label: "Edit Event", Verb: domain.ActionEditEvent, Icon: "pencil", Primary: true}
	actionCreateOrbit    = domain.Action{Label: "Create Orbit", Verb: domain.ActionCreateOrbit, Icon: "chat", Primary: true}
	actionJoinActivity   = domain.Action{Label: "Join Activity", Verb: domain.ActionJoinActivity, Icon: "plus", Primary: true}
	actionCreateActivity = domain.Action{Label: "Create Activity", Verb: domain.ActionCreateActivity, Icon: "spark", Primary: true}
)

// ResolveActions maps a focused entity plus the viewer's relationship to it
// onto the ordered affordance list. First match in the table wins; the table
// is total, so the result is never empty and always pairs one informational
// action with exactly one primary action. Join and create affordances are
// mutually exclusive by construction.
func ResolveActions(entity domain.Entity, viewerID string, joined bool) []domain.Action {
	event, ok := entity.(*domain.Event)
	if !ok {
		// Locations (and anything mis-shapen enough to fall through
		// classification) get the location affordances.
		return []domain.Action{actionLearnMore, actionCreateActivity}
	}

	switch {
	case event.Subtype == domain.SubtypeTicketed && !joined:
		return []domain.Action{actionDetails, actionBuyTickets}
	case event.IsCreator(viewerID):
		return []domain.Action{actionDetails, actionEditEvent}
	case joined:
		return []domain.Action{actionDetails, actionCreateOrbit}
	default:
		return []domain.Action{actionDetails, actionJoinActivity}
	}
}
