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

// PlacesClient pulls static locations from a Google-Places-style nearby
// API. Records come back tagged "googleApi" so classification routes them
// to locations even when they carry event-shaped fields.
type PlacesClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

type PlacesConfig struct {
	APIKey  string
	BaseURL string // override for tests
}

func NewPlacesClient(config PlacesConfig) (*PlacesClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("places API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}

	return &PlacesClient{
		baseURL:     baseURL,
		apiKey:      config.APIKey,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Limit(10), 10),
	}, nil
}

type placeResult struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Vicinity string   `json:"vicinity"`
	Types    []string `json:"types"`
	Rating   float64  `json:"rating"`
	Ratings  int      `json:"user_ratings_total"`
	Price    int      `json:"price_level"`
	Phone    string   `json:"formatted_phone_number,omitempty"`
	Photos   []struct {
		Reference string `json:"photo_reference"`
	} `json:"photos"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	OpeningHours struct {
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
}

type placesResponse struct {
	Results []placeResult `json:"results"`
	Result  *placeResult  `json:"result"`
	Status  string        `json:"status"`
}

// NearbyPlaces returns static locations around a point as raw records.
func (c *PlacesClient) NearbyPlaces(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.RawRecord, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}

	searchURL := fmt.Sprintf("%s/nearbysearch/json", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("key", c.apiKey)
	q.Set("location", fmt.Sprintf("%f,%f", lat, lon))
	q.Set("radius", strconv.Itoa(int(radiusKm*1000)))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search places: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places search failed: status %d", resp.StatusCode)
	}

	var placesResp placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&placesResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if placesResp.Status != "" && placesResp.Status != "OK" && placesResp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places search failed: %s", placesResp.Status)
	}

	if len(placesResp.Results) > limit {
		placesResp.Results = placesResp.Results[:limit]
	}

	records := make([]domain.RawRecord, 0, len(placesResp.Results))
	for _, place := range placesResp.Results {
		records = append(records, convertPlace(place))
	}
	return records, nil
}

// GetPlace fetches the detail record for one location.
func (c *PlacesClient) GetPlace(ctx context.Context, id string) (domain.RawRecord, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return domain.RawRecord{}, err
	}

	detailURL := fmt.Sprintf("%s/details/json", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "GET", detailURL, nil)
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("key", c.apiKey)
	q.Set("place_id", id)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("failed to get place: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RawRecord{}, fmt.Errorf("places get failed: status %d", resp.StatusCode)
	}

	var placesResp placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&placesResp); err != nil {
		return domain.RawRecord{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if placesResp.Result == nil {
		return domain.RawRecord{}, domain.ErrEntityNotFound
	}

	return convertPlace(*placesResp.Result), nil
}

func convertPlace(place placeResult) domain.RawRecord {
	record := domain.RawRecord{
		ID:             place.PlaceID,
		Type:           "googleApi",
		Source:         string(domain.SourceStatic),
		Name:           place.Name,
		Address:        place.Vicinity,
		Rating:         place.Rating,
		RatingCount:    place.Ratings,
		PriceLevel:     place.Price,
		Phone:          place.Phone,
		OperationHours: place.OpeningHours.WeekdayText,
	}

	if place.Geometry.Location.Lat != 0 || place.Geometry.Location.Lng != 0 {
		record.Coordinates = &[2]float64{place.Geometry.Location.Lng, place.Geometry.Location.Lat}
	}

	for _, t := range place.Types {
		record.Categories = append(record.Categories, domain.Category{Name: t})
	}
	if len(place.Types) > 0 {
		record.Category = &domain.LocationCategory{Name: place.Types[0]}
	}

	for _, photo := range place.Photos {
		if photo.Reference != "" {
			record.ImageURLs = append(record.ImageURLs, photo.Reference)
		}
	}

	return record
}
