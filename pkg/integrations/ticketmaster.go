package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/maya/out-and-about/pkg/domain"
)

// TicketmasterClient pulls ticketed events from the Discovery API and maps
// them into raw records for classification.
type TicketmasterClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

type TicketmasterConfig struct {
	APIKey  string // Ticketmaster Discovery API key
	BaseURL string // override for tests
}

func NewTicketmasterClient(config TicketmasterConfig) (*TicketmasterClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("ticketmaster API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://app.ticketmaster.com/discovery/v2"
	}

	return &TicketmasterClient{
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// the free tier allows 5 requests per second
		rateLimiter: rate.NewLimiter(rate.Limit(5), 5),
	}, nil
}

type tmEvent struct {
	Name            string             `json:"name"`
	ID              string             `json:"id"`
	URL             string             `json:"url"`
	Info            string             `json:"info,omitempty"`
	Images          []tmImage          `json:"images"`
	Dates           tmDates            `json:"dates"`
	Classifications []tmClassification `json:"classifications"`
	Accessibility   tmAccessibility    `json:"accessibility,omitempty"`
	Embedded        struct {
		Venues []tmVenue `json:"venues"`
	} `json:"_embedded"`
}

type tmImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type tmDates struct {
	Start tmEventDate `json:"start"`
	End   tmEventDate `json:"end,omitempty"`
}

type tmEventDate struct {
	DateTime string `json:"dateTime"`
}

type tmClassification struct {
	Primary bool               `json:"primary"`
	Segment tmClassificationID `json:"segment"`
	Genre   tmClassificationID `json:"genre"`
}

type tmClassificationID struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tmAccessibility struct {
	TicketLimit int `json:"ticketLimit"`
}

type tmVenue struct {
	Name     string `json:"name"`
	Address  struct {
		Line1 string `json:"line1"`
	} `json:"address"`
	Location struct {
		Longitude string `json:"longitude"`
		Latitude  string `json:"latitude"`
	} `json:"location"`
}

type tmEventsResponse struct {
	Embedded struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded"`
}

// NearbyEvents returns ticketed events around a point as raw records.
func (c *TicketmasterClient) NearbyEvents(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.RawRecord, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}

	eventsURL := fmt.Sprintf("%s/events.json", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", eventsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("apikey", c.apiKey)
	q.Set("latlong", fmt.Sprintf("%f,%f", lat, lon))
	q.Set("radius", strconv.Itoa(int(radiusKm)))
	q.Set("unit", "km")
	q.Set("size", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimitExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ticketmaster search failed: status %d", resp.StatusCode)
	}

	var eventsResp tmEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&eventsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	records := make([]domain.RawRecord, 0, len(eventsResp.Embedded.Events))
	for _, event := range eventsResp.Embedded.Events {
		records = append(records, c.convertToRecord(event))
	}
	return records, nil
}

// GetEvent fetches the detail record for one ticketed event.
func (c *TicketmasterClient) GetEvent(ctx context.Context, id string) (domain.RawRecord, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return domain.RawRecord{}, err
	}

	eventURL := fmt.Sprintf("%s/events/%s.json", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, "GET", eventURL, nil)
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("apikey", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("failed to get event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.RawRecord{}, domain.ErrEntityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.RawRecord{}, fmt.Errorf("ticketmaster get failed: status %d", resp.StatusCode)
	}

	var event tmEvent
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		return domain.RawRecord{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return c.convertToRecord(event), nil
}

func (c *TicketmasterClient) convertToRecord(event tmEvent) domain.RawRecord {
	record := domain.RawRecord{
		ID:             "tm_" + event.ID,
		Type:           "event",
		Source:         string(domain.SourceTicketmaster),
		Name:           event.Name,
		Description:    event.Info,
		IsTicketmaster: true,
		Ticketing: &domain.Ticketing{
			ExternalURL:  event.URL,
			Enabled:      true,
			LimitPerUser: event.Accessibility.TicketLimit,
		},
	}

	for _, img := range event.Images {
		if img.URL != "" {
			record.ImageURLs = append(record.ImageURLs, img.URL)
		}
	}

	if start, err := time.Parse(time.RFC3339, event.Dates.Start.DateTime); err == nil {
		record.StartDatetime = &start
	}
	if end, err := time.Parse(time.RFC3339, event.Dates.End.DateTime); err == nil {
		record.EndDatetime = &end
	}

	for _, cl := range event.Classifications {
		if cl.Segment.Name != "" {
			record.Categories = append(record.Categories, domain.Category{ID: cl.Segment.ID, Name: cl.Segment.Name})
		}
		if cl.Genre.Name != "" {
			record.Categories = append(record.Categories, domain.Category{ID: cl.Genre.ID, Name: cl.Genre.Name})
		}
	}

	if len(event.Embedded.Venues) > 0 {
		venue := event.Embedded.Venues[0]
		record.VenueName = venue.Name
		record.Address = venue.Address.Line1

		lon, lonErr := strconv.ParseFloat(venue.Location.Longitude, 64)
		lat, latErr := strconv.ParseFloat(venue.Location.Latitude, 64)
		if lonErr == nil && latErr == nil {
			record.Coordinates = &[2]float64{lon, lat}
		}
	}

	return record
}
