package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
	"tripwise/pkg/utils"
)

const (
	statusOK            = "OK"
	statusZeroResults   = "ZERO_RESULTS"
	statusRequestDenied = "REQUEST_DENIED"

	businessStatusClosed = "CLOSED_PERMANENTLY"
)

// PlaceCandidate is a raw text-search result from the provider. Immutable once
// fetched; persisted only through the verification cache.
type PlaceCandidate struct {
	PlaceID        string
	Name           string
	Address        string
	Types          []string
	Rating         float64
	PriceLevel     int
	Latitude       float64
	Longitude      float64
	BusinessStatus string
}

type PlaceDetails struct {
	PlaceCandidate
	Phone        string
	Website      string
	OpeningHours []string
	ReviewCount  int
}

type GeocodeResult struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Locality         string
	AdminArea        string
	Country          string
}

// LocationBias nudges a text search toward a reference point.
type LocationBias struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters int
}

type PlacesClientInterface interface {
	TextSearch(ctx context.Context, query, placeType string, bias *LocationBias, limit int) ([]PlaceCandidate, error)
	PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error)
	Geocode(ctx context.Context, freeformName string) (*GeocodeResult, error)
}

type GooglePlacesClient struct {
	HTTP    *http.Client
	APIKey  string
	BaseURL string
}

func NewGooglePlacesClient() *GooglePlacesClient {
	key := os.Getenv("GOOGLE_PLACES_API_KEY")
	if key == "" {
		panic("GOOGLE_PLACES_API_KEY is empty")
	}
	return &GooglePlacesClient{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		APIKey:  key,
		BaseURL: "https://maps.googleapis.com",
	}
}

// Provider wire types, following the Places JSON conventions.
type placeResult struct {
	PlaceID           string   `json:"place_id"`
	Name              string   `json:"name"`
	FormattedAddress  string   `json:"formatted_address"`
	Vicinity          string   `json:"vicinity"`
	Types             []string `json:"types"`
	Rating            float64  `json:"rating"`
	PriceLevel        int      `json:"price_level"`
	BusinessStatus    string   `json:"business_status"`
	PermanentlyClosed bool     `json:"permanently_closed"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// TextSearch runs a provider text search. Permanently closed results are
// filtered out and the limit is applied before any caller fetches per-result
// details, to bound API cost.
func (c *GooglePlacesClient) TextSearch(ctx context.Context, query, placeType string, bias *LocationBias, limit int) ([]PlaceCandidate, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("key", c.APIKey)
	if placeType != "" {
		q.Set("type", placeType)
	}
	if bias != nil {
		q.Set("location", fmt.Sprintf("%f,%f", bias.Latitude, bias.Longitude))
		if bias.RadiusMeters > 0 {
			q.Set("radius", fmt.Sprintf("%d", bias.RadiusMeters))
		}
	}

	var payload struct {
		Status       string        `json:"status"`
		ErrorMessage string        `json:"error_message"`
		Results      []placeResult `json:"results"`
	}
	if err := c.getJSON(ctx, "/maps/api/place/textsearch/json", q, &payload); err != nil {
		return nil, err
	}
	if err := checkStatus(payload.Status, payload.ErrorMessage); err != nil {
		return nil, err
	}
	if payload.Status == statusZeroResults {
		return nil, nil
	}

	candidates := make([]PlaceCandidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		if isClosedResult(r) {
			continue
		}
		candidates = append(candidates, toCandidate(r))
		if limit > 0 && len(candidates) >= limit {
			break
		}
	}
	return candidates, nil
}

func (c *GooglePlacesClient) PlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "place_id,name,formatted_address,formatted_phone_number,website,rating,user_ratings_total,price_level,types,business_status,permanently_closed,opening_hours,geometry")
	q.Set("key", c.APIKey)

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Result       struct {
			placeResult
			Phone        string `json:"formatted_phone_number"`
			Website      string `json:"website"`
			ReviewCount  int    `json:"user_ratings_total"`
			OpeningHours struct {
				WeekdayText []string `json:"weekday_text"`
			} `json:"opening_hours"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, "/maps/api/place/details/json", q, &payload); err != nil {
		return nil, err
	}
	if payload.Status == statusZeroResults || payload.Status == "NOT_FOUND" {
		return nil, nil
	}
	if err := checkStatus(payload.Status, payload.ErrorMessage); err != nil {
		return nil, err
	}

	return &PlaceDetails{
		PlaceCandidate: toCandidate(payload.Result.placeResult),
		Phone:          payload.Result.Phone,
		Website:        payload.Result.Website,
		OpeningHours:   payload.Result.OpeningHours.WeekdayText,
		ReviewCount:    payload.Result.ReviewCount,
	}, nil
}

func (c *GooglePlacesClient) Geocode(ctx context.Context, freeformName string) (*GeocodeResult, error) {
	q := url.Values{}
	q.Set("address", freeformName)
	q.Set("key", c.APIKey)

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Results      []struct {
			FormattedAddress  string `json:"formatted_address"`
			AddressComponents []struct {
				LongName string   `json:"long_name"`
				Types    []string `json:"types"`
			} `json:"address_components"`
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, "/maps/api/geocode/json", q, &payload); err != nil {
		return nil, err
	}
	if payload.Status == statusZeroResults {
		return nil, nil
	}
	if err := checkStatus(payload.Status, payload.ErrorMessage); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}

	first := payload.Results[0]
	out := &GeocodeResult{
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}
	for _, comp := range first.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				out.Locality = comp.LongName
			case "administrative_area_level_1":
				out.AdminArea = comp.LongName
			case "country":
				out.Country = comp.LongName
			}
		}
	}
	return out, nil
}

func (c *GooglePlacesClient) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("places request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("places call to %s: %w", path, utils.ErrProviderTimeout)
		}
		return fmt.Errorf("places call to %s: %v: %w", path, err, utils.ErrProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("places bad status %s: %w", resp.Status, utils.ErrProviderError)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("places decode: %v: %w", err, utils.ErrProviderError)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

func checkStatus(status, message string) error {
	switch status {
	case statusOK, statusZeroResults:
		return nil
	case statusRequestDenied:
		return fmt.Errorf("places status %s (%s): %w", status, message, utils.ErrProviderAuthError)
	default:
		return fmt.Errorf("places status %s (%s): %w", status, message, utils.ErrProviderError)
	}
}

func isClosedResult(r placeResult) bool {
	return r.PermanentlyClosed || r.BusinessStatus == businessStatusClosed
}

func toCandidate(r placeResult) PlaceCandidate {
	address := r.FormattedAddress
	if address == "" {
		address = r.Vicinity
	}
	// The legacy flag and the status field both mean closed; collapse them
	// into one signal so downstream checks need only the status.
	status := r.BusinessStatus
	if r.PermanentlyClosed {
		status = businessStatusClosed
	}
	return PlaceCandidate{
		PlaceID:        r.PlaceID,
		Name:           r.Name,
		Address:        address,
		Types:          r.Types,
		Rating:         r.Rating,
		PriceLevel:     r.PriceLevel,
		Latitude:       r.Geometry.Location.Lat,
		Longitude:      r.Geometry.Location.Lng,
		BusinessStatus: status,
	}
}
