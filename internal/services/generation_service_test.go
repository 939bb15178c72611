package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"tripwise/internal/models/db_models"
	"tripwise/internal/models/request_models"
	"tripwise/internal/models/response_models"
	"tripwise/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAIClient struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeAIClient) GenerateText(_ context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", utils.ErrProviderError
}

type fakeEnrichmentService struct {
	stats response_models.EnrichmentStats
	err   error

	calls           int
	lastDestination string
	lastHotel       *LocationBias
	lastMaxDistance float64
}

func (f *fakeEnrichmentService) EnrichItinerary(_ context.Context, _ []response_models.DayPlan, destination string, hotel *LocationBias, maxDistanceKm float64) (response_models.EnrichmentStats, error) {
	f.calls++
	f.lastDestination = destination
	f.lastHotel = hotel
	f.lastMaxDistance = maxDistanceKm
	return f.stats, f.err
}

type fakeItineraryRepo struct {
	mu     sync.Mutex
	stored map[string]*db_models.Itinerary

	createErr error
}

func newFakeItineraryRepo() *fakeItineraryRepo {
	return &fakeItineraryRepo{stored: make(map[string]*db_models.Itinerary)}
}

func (f *fakeItineraryRepo) Create(_ context.Context, itinerary *db_models.Itinerary) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	itinerary.ID = uuid.New()
	f.stored[itinerary.ID.String()] = itinerary
	return itinerary.ID, nil
}

func (f *fakeItineraryRepo) GetByID(_ context.Context, id string) (*db_models.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[id], nil
}

func (f *fakeItineraryRepo) ListByIDs(_ context.Context, ids []string) ([]db_models.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Itinerary
	for _, id := range ids {
		if itinerary, ok := f.stored[id]; ok {
			out = append(out, *itinerary)
		}
	}
	return out, nil
}

const validTwoDayDraft = `{"days":[
	{"day":1,"activities":[{"activity":"Visit the Prado","start_time":"09:00","end_time":"12:00","place_name":"Museo del Prado","what_to_do":"See the Goyas"}]},
	{"day":2,"activities":[{"activity":"Lunch","start_time":"13:00","end_time":"14:30","place_name":"Casa Lucio","what_to_do":"Huevos rotos"}]}
]}`

func newTestGenerationService(ai *fakeAIClient, enrichment *fakeEnrichmentService, repo *fakeItineraryRepo) (*GenerationService, *fakePlacesClient) {
	places := newFakePlacesClient()
	if enrichment == nil {
		enrichment = &fakeEnrichmentService{}
	}
	if repo == nil {
		repo = newFakeItineraryRepo()
	}
	return &GenerationService{
		ai:          ai,
		places:      places,
		enrichment:  enrichment,
		itineraries: repo,
	}, places
}

func TestGenerateItineraryValidation(t *testing.T) {
	svc, _ := newTestGenerationService(&fakeAIClient{}, nil, nil)

	_, err := svc.GenerateItinerary(context.Background(), request_models.GenerateItineraryRequest{Destination: "  "}, nil)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)

	_, err = svc.GenerateItinerary(context.Background(), request_models.GenerateItineraryRequest{Destination: "Madrid", Days: 15}, nil)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestGenerateItineraryFirstAttemptSuccess(t *testing.T) {
	ai := &fakeAIClient{responses: []string{validTwoDayDraft}}
	enrichment := &fakeEnrichmentService{stats: response_models.EnrichmentStats{Total: 2, Verified: 2}}
	repo := newFakeItineraryRepo()
	svc, _ := newTestGenerationService(ai, enrichment, repo)

	result, err := svc.GenerateItinerary(context.Background(), request_models.GenerateItineraryRequest{
		Destination: "Madrid",
		Days:        2,
		Preferences: "art and tapas",
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "Madrid", result.Destination)
	assert.Len(t, result.Days, 2)
	assert.Equal(t, enrichment.stats, result.Stats)

	require.Len(t, result.Attempts, 1)
	assert.Equal(t, TierFull, result.Attempts[0].Tier)
	assert.True(t, result.Attempts[0].Success)

	assert.Equal(t, "Madrid", enrichment.lastDestination)

	stored, err := repo.GetByID(context.Background(), result.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 2, stored.VerifiedCount)
	assert.Contains(t, stored.Plan, "Museo del Prado")
}

func TestGenerateItineraryRetriesWithDegradedInput(t *testing.T) {
	ai := &fakeAIClient{responses: []string{"total garbage, not json", validTwoDayDraft}}
	enrichment := &fakeEnrichmentService{}
	svc, _ := newTestGenerationService(ai, enrichment, nil)

	var failures []string
	progress := func(attempt int, tier string, err error) {
		if err != nil {
			failures = append(failures, tier)
		}
	}

	result, err := svc.GenerateItinerary(context.Background(), request_models.GenerateItineraryRequest{
		Destination: "Madrid",
		Days:        2,
		Preferences: "michelin dining only",
	}, progress)
	require.NoError(t, err)

	require.Len(t, result.Attempts, 2)
	assert.False(t, result.Attempts[0].Success)
	assert.Equal(t, TierFull, result.Attempts[0].Tier)
	assert.True(t, result.Attempts[1].Success)
	assert.Equal(t, TierSimplified, result.Attempts[1].Tier)
	assert.Equal(t, []string{TierFull}, failures)

	// The second attempt ran with simplified input.
	require.Len(t, ai.prompts, 2)
	assert.Contains(t, ai.prompts[0], "michelin dining only")
	assert.Contains(t, ai.prompts[1], genericPreferences)
	assert.Equal(t, 5.0, enrichment.lastMaxDistance)
}

func TestGenerateItineraryAuthErrorStopsRetrying(t *testing.T) {
	ai := &fakeAIClient{responses: []string{validTwoDayDraft}}
	enrichment := &fakeEnrichmentService{err: utils.ErrProviderAuthError}
	svc, _ := newTestGenerationService(ai, enrichment, nil)

	_, err := svc.GenerateItinerary(context.Background(), request_models.GenerateItineraryRequest{
		Destination: "Madrid",
		Days:        2,
	}, nil)
	assert.ErrorIs(t, err, utils.ErrProviderAuthError)
	assert.Equal(t, 1, ai.calls, "an auth failure must not burn further attempts")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Len(t, genErr.Attempts, 1)
}

func TestGenerateItineraryExhaustsAttempts(t *testing.T) {
	if testing.Short() {
		t.Skip("exercises real backoff delays")
	}

	ai := &fakeAIClient{responses: []string{"garbage", "garbage", "garbage"}}
	svc, _ := newTestGenerationService(ai, nil, nil)

	_, err := svc.GenerateItinerary(context.Background(), request_models.GenerateItineraryRequest{
		Destination: "Madrid",
		Days:        1,
	}, nil)
	assert.ErrorIs(t, err, utils.ErrGenerationFailed)
	assert.Equal(t, maxGenerationAttempts, ai.calls)

	// The history survives the failure; every attempt is accounted for.
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	require.Len(t, genErr.Attempts, maxGenerationAttempts)
	for i, attempt := range genErr.Attempts {
		assert.Equal(t, i+1, attempt.Attempt)
		assert.False(t, attempt.Success)
		assert.NotEmpty(t, attempt.Error)
	}
	assert.Equal(t, TierBasic, genErr.Attempts[2].Tier)
}

func TestGenerateItineraryUsesHotelCoordinates(t *testing.T) {
	ai := &fakeAIClient{responses: []string{validTwoDayDraft}}
	enrichment := &fakeEnrichmentService{}
	svc, places := newTestGenerationService(ai, enrichment, nil)

	lat, lng := 40.4180, -3.6945
	_, err := svc.GenerateItinerary(context.Background(), request_models.GenerateItineraryRequest{
		Destination: "Madrid",
		Days:        2,
		HotelLat:    &lat,
		HotelLng:    &lng,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, places.geocodeCalls, "explicit coordinates skip the geocode")
	require.NotNil(t, enrichment.lastHotel)
	assert.Equal(t, lat, enrichment.lastHotel.Latitude)
}

func TestGenerateItineraryGeocodesHotelName(t *testing.T) {
	ai := &fakeAIClient{responses: []string{validTwoDayDraft}}
	enrichment := &fakeEnrichmentService{}
	svc, places := newTestGenerationService(ai, enrichment, nil)
	places.geocodeResult = &GeocodeResult{Latitude: 40.4167, Longitude: -3.6922}

	_, err := svc.GenerateItinerary(context.Background(), request_models.GenerateItineraryRequest{
		Destination: "Madrid",
		Days:        2,
		HotelName:   "Hotel Ritz",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, places.geocodeCalls)
	require.NotNil(t, enrichment.lastHotel)
	assert.Equal(t, 40.4167, enrichment.lastHotel.Latitude)
}

func TestGetItineraryByID(t *testing.T) {
	repo := newFakeItineraryRepo()
	svc, _ := newTestGenerationService(&fakeAIClient{}, nil, repo)

	plan := `[{"day":1,"activities":[{"activity":"Visit","location":{"name":"Museo del Prado","verified":true,"source":"google_places","maps_url":""}}]}]`
	id, err := repo.Create(context.Background(), &db_models.Itinerary{
		Destination:     "Madrid",
		DayCount:        1,
		Plan:            plan,
		TotalActivities: 1,
		VerifiedCount:   1,
	})
	require.NoError(t, err)

	result, err := svc.GetItineraryByID(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, "Madrid", result.Destination)
	require.Len(t, result.Days, 1)
	assert.Equal(t, "Museo del Prado", result.Days[0].Activities[0].Location.Name)
	assert.Equal(t, 1, result.Stats.Verified)
}

func TestListItineraries(t *testing.T) {
	repo := newFakeItineraryRepo()
	svc, _ := newTestGenerationService(&fakeAIClient{}, nil, repo)

	plan := `[{"day":1,"activities":[]}]`
	first, err := repo.Create(context.Background(), &db_models.Itinerary{Destination: "Madrid", Plan: plan})
	require.NoError(t, err)
	second, err := repo.Create(context.Background(), &db_models.Itinerary{Destination: "Lisbon", Plan: plan})
	require.NoError(t, err)

	// Unknown ids are skipped, not errors.
	results, err := svc.ListItineraries(context.Background(), []string{first.String(), uuid.NewString(), second.String()})
	require.NoError(t, err)
	require.Len(t, results, 2)

	destinations := []string{results[0].Destination, results[1].Destination}
	assert.ElementsMatch(t, []string{"Madrid", "Lisbon"}, destinations)

	_, err = svc.ListItineraries(context.Background(), nil)
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
}

func TestGetItineraryByIDNotFound(t *testing.T) {
	svc, _ := newTestGenerationService(&fakeAIClient{}, nil, nil)

	_, err := svc.GetItineraryByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, utils.ErrItineraryNotFound)
}

func TestDegradeRequest(t *testing.T) {
	base := request_models.GenerateItineraryRequest{
		Destination:   "Madrid",
		Days:          3,
		Preferences:   "art",
		Budget:        "mid-range",
		MaxDistanceKm: 8,
	}

	first := degradeRequest(base, 1)
	assert.Equal(t, "art", first.Preferences)
	assert.Equal(t, "mid-range", first.Budget)
	assert.Equal(t, 8.0, first.MaxDistanceKm)

	second := degradeRequest(base, 2)
	assert.Equal(t, genericPreferences, second.Preferences)
	assert.Equal(t, "mid-range", second.Budget)
	assert.Equal(t, 5.0, second.MaxDistanceKm)

	third := degradeRequest(base, 3)
	assert.Equal(t, genericPreferences, third.Preferences)
	assert.Empty(t, third.Budget)
	assert.Equal(t, 2.0, third.MaxDistanceKm)

	// Each tier only ever tightens the distance budget.
	assert.LessOrEqual(t, second.MaxDistanceKm, first.MaxDistanceKm)
	assert.LessOrEqual(t, third.MaxDistanceKm, second.MaxDistanceKm)

	// A budget already tighter than the tier cap is kept.
	tight := base
	tight.MaxDistanceKm = 1
	assert.Equal(t, 1.0, degradeRequest(tight, 3).MaxDistanceKm)
}

func TestAttemptTier(t *testing.T) {
	assert.Equal(t, TierFull, attemptTier(1))
	assert.Equal(t, TierSimplified, attemptTier(2))
	assert.Equal(t, TierBasic, attemptTier(3))
	assert.Equal(t, TierBasic, attemptTier(4))
}

func TestSleepBackoffCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepBackoff(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestParseDraft(t *testing.T) {
	t.Run("valid draft", func(t *testing.T) {
		days, err := parseDraft(validTwoDayDraft, 2)
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, 1, days[0].Day)
		assert.NotEmpty(t, days[0].Date)

		loc := days[0].Activities[0].Location
		assert.Equal(t, "Museo del Prado", loc.Name)
		assert.Equal(t, response_models.SourceAISuggestion, loc.Source)
		assert.False(t, loc.Verified)
	})

	t.Run("fenced draft", func(t *testing.T) {
		fenced := "```json\n" + validTwoDayDraft + "\n```"
		days, err := parseDraft(fenced, 2)
		require.NoError(t, err)
		assert.Len(t, days, 2)
	})

	t.Run("draft with surrounding prose", func(t *testing.T) {
		wrapped := "Here is your itinerary:\n" + validTwoDayDraft + "\nEnjoy your trip!"
		days, err := parseDraft(wrapped, 2)
		require.NoError(t, err)
		assert.Len(t, days, 2)
	})

	t.Run("wrong day count", func(t *testing.T) {
		_, err := parseDraft(validTwoDayDraft, 3)
		assert.ErrorIs(t, err, utils.ErrAIOutputUnparseable)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parseDraft("not json at all", 1)
		assert.ErrorIs(t, err, utils.ErrAIOutputUnparseable)
	})

	t.Run("empty days", func(t *testing.T) {
		_, err := parseDraft(`{"days":[]}`, 1)
		assert.ErrorIs(t, err, utils.ErrAIOutputUnparseable)
	})
}

func TestBuildDraftPrompt(t *testing.T) {
	prompt := buildDraftPrompt(request_models.GenerateItineraryRequest{
		Destination: "Madrid",
		Days:        3,
		Preferences: "art and tapas",
		Budget:      "mid-range",
		HotelName:   "Hotel Ritz",
	})

	assert.Contains(t, prompt, "3-day travel itinerary for Madrid")
	assert.Contains(t, prompt, "art and tapas")
	assert.Contains(t, prompt, "mid-range")
	assert.Contains(t, prompt, "Hotel Ritz")
	assert.True(t, strings.Contains(prompt, `"days"`))
}
