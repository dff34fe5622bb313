package domain

import (
	"time"
)

// RawRecord is the loose shape entities arrive in from list fetches, before
// classification. Upstream sources disagree about which fields they fill in,
// so everything optional is a pointer or zero value.
type RawRecord struct {
	ID             string            `json:"id"`
	Type           string            `json:"type,omitempty"`
	Source         string            `json:"source,omitempty"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	ImageURLs      []string          `json:"image_urls,omitempty"`
	Address        string            `json:"address,omitempty"`
	Coordinates    *[2]float64       `json:"coordinates,omitempty"` // [lon, lat]
	Categories     []Category        `json:"categories,omitempty"`
	StartDatetime  *time.Time        `json:"start_datetime,omitempty"`
	EndDatetime    *time.Time        `json:"end_datetime,omitempty"`
	VenueName      string            `json:"venue_name,omitempty"`
	Attendees      *Attendees        `json:"attendees,omitempty"`
	CreatedBy      *UserRef          `json:"created_by,omitempty"`
	JoinStatus     bool              `json:"join_status,omitempty"`
	IsTicketmaster bool              `json:"is_ticketmaster,omitempty"`
	Ticketing      *Ticketing        `json:"ticketing,omitempty"`
	Category       *LocationCategory `json:"category,omitempty"`
	Rating         float64           `json:"rating,omitempty"`
	RatingCount    int               `json:"rating_count,omitempty"`
	PriceLevel     int               `json:"price_level,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	OperationHours []string          `json:"operation_hours,omitempty"`
}

// Classification is the outcome of tagging a raw record.
type Classification struct {
	Kind    Kind
	Subtype EventSubtype // set only when Kind == KindEvent
}

// event-tag values that force event classification regardless of shape
var eventTags = map[string]bool{
	"user_created": true,
	"event":        true,
}

// typeGoogleAPI forces location classification even when the record carries
// event-shaped fields. Third-party place results sometimes include a
// start-time-like field and must not be misrouted.
const typeGoogleAPI = "googleApi"

// Classify tags a raw record as an event or a location. The explicit type
// tag always wins; field presence is only a fallback for untagged records.
// Unclassifiable input defaults to location. Classify never fails.
func Classify(raw RawRecord) Classification {
	if eventTags[raw.Type] {
		return Classification{Kind: KindEvent, Subtype: eventSubtype(raw)}
	}
	if raw.Type == typeGoogleAPI {
		return Classification{Kind: KindLocation}
	}
	if raw.StartDatetime != nil || raw.VenueName != "" || raw.Attendees != nil {
		return Classification{Kind: KindEvent, Subtype: eventSubtype(raw)}
	}
	return Classification{Kind: KindLocation}
}

func eventSubtype(raw RawRecord) EventSubtype {
	if raw.IsTicketmaster || raw.Source == string(SourceTicketmaster) {
		return SubtypeTicketed
	}
	if raw.Source == string(SourceUser) {
		return SubtypeCommunity
	}
	return SubtypeExternal
}

// BuildEntity classifies a raw record and materializes the concrete entity.
func BuildEntity(raw RawRecord) Entity {
	c := Classify(raw)
	core := Core{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		ImageURLs:   raw.ImageURLs,
		Address:     raw.Address,
		Source:      coreSource(raw, c),
		Categories:  raw.Categories,
	}
	if raw.Coordinates != nil {
		core.Coordinates = &Coordinates{
			Longitude: raw.Coordinates[0],
			Latitude:  raw.Coordinates[1],
		}
	}

	if c.Kind == KindEvent {
		event := &Event{
			Core:        core,
			Subtype:     c.Subtype,
			EndDatetime: raw.EndDatetime,
			VenueName:   raw.VenueName,
			CreatedBy:   raw.CreatedBy,
			JoinStatus:  raw.JoinStatus,
			Ticketing:   raw.Ticketing,
		}
		if raw.StartDatetime != nil {
			event.StartDatetime = *raw.StartDatetime
		}
		if raw.Attendees != nil {
			event.Attendees = *raw.Attendees
		}
		return event
	}

	return &Location{
		Core:           core,
		Category:       raw.Category,
		Type:           raw.Type,
		Rating:         raw.Rating,
		RatingCount:    raw.RatingCount,
		PriceLevel:     raw.PriceLevel,
		Phone:          raw.Phone,
		OperationHours: raw.OperationHours,
	}
}

func coreSource(raw RawRecord, c Classification) Source {
	switch raw.Source {
	case string(SourceUser):
		return SourceUser
	case string(SourceTicketmaster):
		return SourceTicketmaster
	case string(SourceExternalAPI):
		return SourceExternalAPI
	case string(SourceStatic):
		return SourceStatic
	}
	if c.Kind == KindEvent {
		if c.Subtype == SubtypeTicketed {
			return SourceTicketmaster
		}
		return SourceExternalAPI
	}
	return SourceStatic
}
