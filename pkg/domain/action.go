package domain

// ActionVerb names a UI affordance derived for a focused entity.
type ActionVerb string

const (
	ActionDetails        ActionVerb = "details"
	ActionLearnMore      ActionVerb = "learn_more"
	ActionBuyTickets     ActionVerb = "buy_tickets"
	ActionEditEvent      ActionVerb = "edit_event"
	ActionCreateOrbit    ActionVerb = "create_orbit"
	ActionJoinActivity   ActionVerb = "join_activity"
	ActionCreateActivity ActionVerb = "create_activity"
)

// Action is one entry in the ordered affordance list for a focused entity.
// Exactly one action in any resolved list is Primary; the informational
// action (details / learn more) always leads the list.
type Action struct {
	Label   string     `json:"label"`
	Verb    ActionVerb `json:"verb"`
	Icon    string     `json:"icon"`
	Primary bool       `json:"primary"`
}

// SwipeDirection is accepted for animation purposes only; it does not
// influence which neighbor gets selected.
type SwipeDirection string

const (
	SwipeLeft  SwipeDirection = "left"
	SwipeRight SwipeDirection = "right"
)
