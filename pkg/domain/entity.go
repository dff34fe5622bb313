package domain

import (
	"encoding/json"
	"time"
)

// Source identifies where an entity record originated. It is assigned once
// at classification time and never changes afterwards.
type Source string

const (
	SourceUser         Source = "user"
	SourceTicketmaster Source = "ticketmaster"
	SourceExternalAPI  Source = "external_api"
	SourceStatic       Source = "static"
)

// Kind discriminates the two entity shapes shown on the map/feed surface.
type Kind string

const (
	KindEvent    Kind = "event"
	KindLocation Kind = "location"
)

// EventSubtype refines KindEvent.
type EventSubtype string

const (
	SubtypeCommunity EventSubtype = "community"
	SubtypeTicketed  EventSubtype = "ticketed"
	SubtypeExternal  EventSubtype = "external"
)

// Entity is the unified record shown on the map/feed surface. Concrete
// implementations are *Event and *Location.
type Entity interface {
	Kind() Kind
	EntityCore() *Core
}

// Core holds the fields shared by events and locations.
type Core struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	ImageURLs   []string     `json:"image_urls,omitempty"`
	Address     string       `json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Source      Source       `json:"source"`
	Categories  []Category   `json:"categories,omitempty"`
}

// HasCoordinates reports whether the entity can participate in
// proximity-based selection.
func (c *Core) HasCoordinates() bool {
	return c.Coordinates != nil
}

type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Category order carries relevance; the first entry is the strongest match.
type Category struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Prompt struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

type UserRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// Attendees carries a count and a preview of profiles. The profile list may
// be truncated, so Count is not guaranteed to equal len(Profiles).
type Attendees struct {
	Count    int       `json:"count"`
	Profiles []UserRef `json:"profiles,omitempty"`
}

// Ticketing describes the external ticket sale attached to a ticketed event.
type Ticketing struct {
	ExternalURL  string `json:"external_url,omitempty"`
	Enabled      bool   `json:"enabled"`
	TotalCount   int    `json:"total_count,omitempty"`
	LimitPerUser int    `json:"limit_per_user,omitempty"`
}

type Event struct {
	Core
	Subtype       EventSubtype `json:"subtype"`
	StartDatetime time.Time    `json:"start_datetime"`
	EndDatetime   *time.Time   `json:"end_datetime,omitempty"`
	VenueName     string       `json:"venue_name,omitempty"`
	Attendees     Attendees    `json:"attendees"`
	CreatedBy     *UserRef     `json:"created_by,omitempty"`
	JoinStatus    bool         `json:"join_status"`
	Ticketing     *Ticketing   `json:"ticketing,omitempty"`
}

func (e *Event) Kind() Kind        { return KindEvent }
func (e *Event) EntityCore() *Core { return &e.Core }

// MarshalJSON emits the kind discriminator alongside the event fields so
// API consumers can branch on "kind" instead of sniffing field presence.
func (e *Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		*plain
	}{Kind: KindEvent, plain: (*plain)(e)})
}

// IsCreator reports whether the given viewer created this event.
func (e *Event) IsCreator(viewerID string) bool {
	return e.CreatedBy != nil && viewerID != "" && e.CreatedBy.ID == viewerID
}

// LocationCategory is the richer category attached to static locations,
// carrying the prompts used when converting a location into a new event.
type LocationCategory struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Prompts []Prompt `json:"prompts,omitempty"`
}

type Location struct {
	Core
	Category       *LocationCategory `json:"category,omitempty"`
	Type           string            `json:"type,omitempty"`
	Rating         float64           `json:"rating,omitempty"`
	RatingCount    int               `json:"rating_count,omitempty"`
	PriceLevel     int               `json:"price_level,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	OperationHours []string          `json:"operation_hours,omitempty"`
}

func (l *Location) Kind() Kind        { return KindLocation }
func (l *Location) EntityCore() *Core { return &l.Core }

// MarshalJSON emits the kind discriminator alongside the location fields.
func (l *Location) MarshalJSON() ([]byte, error) {
	type plain Location
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		*plain
	}{Kind: KindLocation, plain: (*plain)(l)})
}

// Flag is a content report against an entity.
type Flag struct {
	ID          string    `json:"id,omitempty"`
	Reason      string    `json:"reason"`
	Explanation string    `json:"explanation,omitempty"`
	TargetID    string    `json:"target_id"`
	ReportedBy  string    `json:"reported_by,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// CheckoutSession is the handle returned by the payment gateway for a
// ticket purchase.
type CheckoutSession struct {
	ClientSecret string `json:"client_secret"`
}
