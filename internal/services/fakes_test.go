package services

import (
	"context"
	"sync"
	"tripwise/internal/models/db_models"
	"tripwise/internal/models/response_models"
)

// fakePlacesClient serves canned results keyed by query / place id and counts
// calls so tests can assert which paths hit the network.
type fakePlacesClient struct {
	mu sync.Mutex

	searchResults map[string][]PlaceCandidate
	searchErr     map[string]error
	details       map[string]*PlaceDetails
	geocodeResult *GeocodeResult

	searchCalls  int
	detailCalls  int
	geocodeCalls int

	lastQuery string
	lastBias  *LocationBias
	lastLimit int
}

func newFakePlacesClient() *fakePlacesClient {
	return &fakePlacesClient{
		searchResults: make(map[string][]PlaceCandidate),
		searchErr:     make(map[string]error),
		details:       make(map[string]*PlaceDetails),
	}
}

func (f *fakePlacesClient) TextSearch(_ context.Context, query, _ string, bias *LocationBias, limit int) ([]PlaceCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.lastQuery = query
	f.lastBias = bias
	f.lastLimit = limit

	if err, ok := f.searchErr[query]; ok {
		return nil, err
	}
	results := f.searchResults[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *fakePlacesClient) PlaceDetails(_ context.Context, placeID string) (*PlaceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	return f.details[placeID], nil
}

func (f *fakePlacesClient) Geocode(_ context.Context, _ string) (*GeocodeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geocodeCalls++
	return f.geocodeResult, nil
}

// fakeSentimentService keeps the real gate but returns a fixed result.
type fakeSentimentService struct {
	result *response_models.SentimentResult
	calls  int
}

func (f *fakeSentimentService) ShouldAnalyze(record *db_models.VerificationRecord) bool {
	return f.result != nil && record != nil && record.PlaceID != "" && len(record.Types) > 0
}

func (f *fakeSentimentService) Analyze(_ context.Context, _ *db_models.VerificationRecord) (*response_models.SentimentResult, error) {
	f.calls++
	return f.result, nil
}

func openDetail(id, name, address string, lat, lng float64, types ...string) *PlaceDetails {
	return &PlaceDetails{
		PlaceCandidate: PlaceCandidate{
			PlaceID:        id,
			Name:           name,
			Address:        address,
			Types:          types,
			Rating:         4.4,
			Latitude:       lat,
			Longitude:      lng,
			BusinessStatus: "OPERATIONAL",
		},
	}
}

func closedDetail(id, name string, types ...string) *PlaceDetails {
	d := openDetail(id, name, "", 0, 0, types...)
	d.BusinessStatus = businessStatusClosed
	return d
}

func candidateOf(d *PlaceDetails) PlaceCandidate {
	return d.PlaceCandidate
}
