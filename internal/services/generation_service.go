package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"tripwise/internal/models/db_models"
	"tripwise/internal/models/request_models"
	"tripwise/internal/models/response_models"
	"tripwise/internal/repositories"
	"tripwise/pkg/utils"
)

const (
	maxGenerationAttempts = 3
	backoffBase           = 2 * time.Second
	backoffMax            = 10 * time.Second
)

// Degradation tiers: each attempt after the first simplifies the input to
// improve the odds of a parseable draft.
const (
	TierFull       = "full"
	TierSimplified = "simplified"
	TierBasic      = "basic"
)

const genericPreferences = "popular sights, local food and culture"

// ProgressFunc is invoked before each attempt and again when one fails.
type ProgressFunc func(attempt int, tier string, err error)

// GenerationError carries the attempt history when generation ultimately
// fails, so callers can still log what was tried.
type GenerationError struct {
	Attempts []response_models.GenerationAttempt
	Err      error
}

func (e *GenerationError) Error() string { return e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

type GenerationServiceInterface interface {
	GenerateItinerary(ctx context.Context, req request_models.GenerateItineraryRequest, progress ProgressFunc) (*response_models.ItineraryResponse, error)
	GetItineraryByID(ctx context.Context, id string) (*response_models.ItineraryResponse, error)
	ListItineraries(ctx context.Context, ids []string) ([]response_models.ItineraryResponse, error)
}

type GenerationService struct {
	ai          utils.AIClientInterface
	places      PlacesClientInterface
	enrichment  EnrichmentServiceInterface
	itineraries repositories.ItineraryRepository
}

func NewGenerationService(
	ai utils.AIClientInterface,
	places PlacesClientInterface,
	enrichment EnrichmentServiceInterface,
	itineraries repositories.ItineraryRepository,
) GenerationServiceInterface {
	return &GenerationService{
		ai:          ai,
		places:      places,
		enrichment:  enrichment,
		itineraries: itineraries,
	}
}

// GenerateItinerary runs draft-then-enrich as one unit of work, retried with
// progressively degraded input and exponential backoff. The attempt history is
// returned for observability; only the last error reaches the end user.
func (s *GenerationService) GenerateItinerary(ctx context.Context, req request_models.GenerateItineraryRequest, progress ProgressFunc) (*response_models.ItineraryResponse, error) {
	if strings.TrimSpace(req.Destination) == "" {
		return nil, utils.ErrInvalidInput
	}
	if req.Days < 1 {
		req.Days = 1
	}
	if req.Days > 14 {
		return nil, utils.ErrInvalidInput
	}

	hotel := s.resolveHotelBias(ctx, req)

	var attempts []response_models.GenerationAttempt
	var lastErr error

	for attempt := 1; attempt <= maxGenerationAttempts; attempt++ {
		effective := degradeRequest(req, attempt)
		tier := attemptTier(attempt)

		if progress != nil {
			progress(attempt, tier, nil)
		}

		started := time.Now()
		result, err := s.runAttempt(ctx, effective, hotel)
		elapsed := time.Since(started)

		attempts = append(attempts, response_models.GenerationAttempt{
			Attempt:    attempt,
			Tier:       tier,
			Success:    err == nil,
			Error:      errText(err),
			DurationMs: elapsed.Milliseconds(),
		})

		if err == nil {
			result.Attempts = attempts
			return result, nil
		}

		lastErr = err
		if progress != nil {
			progress(attempt, tier, err)
		}
		log.Printf("Generation attempt %d/%d (%s) failed in %s: %v", attempt, maxGenerationAttempts, tier, elapsed, err)

		// A rejected API key fails every attempt identically; surface it now.
		if errors.Is(err, utils.ErrProviderAuthError) {
			return nil, &GenerationError{Attempts: attempts, Err: err}
		}
		if attempt == maxGenerationAttempts {
			break
		}
		if err := sleepBackoff(ctx, attempt); err != nil {
			return nil, &GenerationError{Attempts: attempts, Err: err}
		}
	}

	return nil, &GenerationError{
		Attempts: attempts,
		Err:      fmt.Errorf("%v: %w", lastErr, utils.ErrGenerationFailed),
	}
}

func (s *GenerationService) runAttempt(ctx context.Context, req request_models.GenerateItineraryRequest, hotel *LocationBias) (*response_models.ItineraryResponse, error) {
	raw, err := s.ai.GenerateText(ctx, buildDraftPrompt(req))
	if err != nil {
		return nil, err
	}

	days, err := parseDraft(raw, req.Days)
	if err != nil {
		return nil, err
	}

	stats, err := s.enrichment.EnrichItinerary(ctx, days, req.Destination, hotel, req.MaxDistanceKm)
	if err != nil {
		return nil, err
	}

	plan, err := json.Marshal(days)
	if err != nil {
		return nil, err
	}

	itinerary := &db_models.Itinerary{
		Destination:     req.Destination,
		DayCount:        req.Days,
		Status:          "completed",
		Plan:            string(plan),
		TotalActivities: stats.Total,
		VerifiedCount:   stats.Verified,
		FailedCount:     stats.Failed,
		ReplacedCount:   stats.Replaced,
	}
	id, err := s.itineraries.Create(ctx, itinerary)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	return &response_models.ItineraryResponse{
		ID:          id.String(),
		Destination: req.Destination,
		Days:        days,
		Stats:       stats,
	}, nil
}

func (s *GenerationService) GetItineraryByID(ctx context.Context, id string) (*response_models.ItineraryResponse, error) {
	itinerary, err := s.itineraries.GetByID(ctx, id)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if itinerary == nil {
		return nil, utils.ErrItineraryNotFound
	}
	return toItineraryResponse(itinerary)
}

// ListItineraries fetches a batch of stored itineraries. Unknown ids are
// silently skipped; an empty id list is a caller mistake.
func (s *GenerationService) ListItineraries(ctx context.Context, ids []string) ([]response_models.ItineraryResponse, error) {
	if len(ids) == 0 {
		return nil, utils.ErrInvalidInput
	}

	itineraries, err := s.itineraries.ListByIDs(ctx, ids)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	out := make([]response_models.ItineraryResponse, 0, len(itineraries))
	for i := range itineraries {
		resp, err := toItineraryResponse(&itineraries[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

func toItineraryResponse(itinerary *db_models.Itinerary) (*response_models.ItineraryResponse, error) {
	var days []response_models.DayPlan
	if err := json.Unmarshal([]byte(itinerary.Plan), &days); err != nil {
		return nil, utils.ErrDatabaseError
	}

	return &response_models.ItineraryResponse{
		ID:          itinerary.ID.String(),
		Destination: itinerary.Destination,
		Days:        days,
		Stats: response_models.EnrichmentStats{
			Total:    itinerary.TotalActivities,
			Verified: itinerary.VerifiedCount,
			Failed:   itinerary.FailedCount,
			Replaced: itinerary.ReplacedCount,
		},
	}, nil
}

func (s *GenerationService) resolveHotelBias(ctx context.Context, req request_models.GenerateItineraryRequest) *LocationBias {
	if req.HotelLat != nil && req.HotelLng != nil {
		return &LocationBias{Latitude: *req.HotelLat, Longitude: *req.HotelLng}
	}
	if req.HotelName == "" {
		return nil
	}

	located, err := s.places.Geocode(ctx, fmt.Sprintf("%s %s", req.HotelName, req.Destination))
	if err != nil || located == nil {
		log.Printf("Could not geocode hotel %q: %v", req.HotelName, err)
		return nil
	}
	return &LocationBias{Latitude: located.Latitude, Longitude: located.Longitude}
}

func attemptTier(attempt int) string {
	switch attempt {
	case 1:
		return TierFull
	case 2:
		return TierSimplified
	default:
		return TierBasic
	}
}

// degradeRequest simplifies the input for later attempts. Each tier is a
// strict simplification of the previous one.
func degradeRequest(req request_models.GenerateItineraryRequest, attempt int) request_models.GenerateItineraryRequest {
	out := req
	if out.MaxDistanceKm <= 0 {
		out.MaxDistanceKm = defaultMaxDistanceKm
	}

	switch {
	case attempt >= 3:
		out.Preferences = genericPreferences
		out.Budget = ""
		out.MaxDistanceKm = minFloat(out.MaxDistanceKm, 2)
	case attempt == 2:
		out.Preferences = genericPreferences
		out.MaxDistanceKm = minFloat(out.MaxDistanceKm, 5)
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func sleepBackoff(ctx context.Context, attempt int) error {
	delay := backoffBase * time.Duration(1<<(attempt-1))
	if delay > backoffMax {
		delay = backoffMax
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func buildDraftPrompt(req request_models.GenerateItineraryRequest) string {
	var prompt strings.Builder

	fmt.Fprintf(&prompt, "Create a %d-day travel itinerary for %s.\n", req.Days, req.Destination)
	if req.Preferences != "" {
		fmt.Fprintf(&prompt, "Traveler preferences: %s\n", req.Preferences)
	}
	if req.Budget != "" {
		fmt.Fprintf(&prompt, "Budget: %s\n", req.Budget)
	}
	if req.HotelName != "" {
		fmt.Fprintf(&prompt, "The traveler stays at: %s\n", req.HotelName)
	}

	prompt.WriteString(`
Use real, well-known venues in the destination. 2-4 activities per day,
realistic times (09:00-21:00), no overlaps.

Return JSON only, no markdown, in this exact format:
{"days":[{"day":1,"activities":[{"activity":"Visit ...","start_time":"09:00","end_time":"11:00","place_name":"exact venue name","what_to_do":"short description"}]}]}
`)
	fmt.Fprintf(&prompt, "Exactly %d entries in \"days\".\n", req.Days)

	return prompt.String()
}

// parseDraft turns the raw model output into day plans, tagging every location
// as an AI suggestion so the enrichment pass knows to verify it.
func parseDraft(raw string, expectedDays int) ([]response_models.DayPlan, error) {
	cleaned := utils.CleanJSONResponse(raw)

	var draft struct {
		Days []struct {
			Day        int `json:"day"`
			Activities []struct {
				Activity  string `json:"activity"`
				StartTime string `json:"start_time"`
				EndTime   string `json:"end_time"`
				PlaceName string `json:"place_name"`
				WhatToDo  string `json:"what_to_do"`
			} `json:"activities"`
		} `json:"days"`
	}
	if err := json.Unmarshal([]byte(cleaned), &draft); err != nil {
		return nil, utils.ErrAIOutputUnparseable
	}
	if len(draft.Days) == 0 || len(draft.Days) != expectedDays {
		return nil, utils.ErrAIOutputUnparseable
	}

	days := make([]response_models.DayPlan, 0, len(draft.Days))
	for i, day := range draft.Days {
		out := response_models.DayPlan{
			Day:  i + 1,
			Date: time.Now().AddDate(0, 0, i).Format("2006-01-02"),
		}
		for _, act := range day.Activities {
			out.Activities = append(out.Activities, response_models.Activity{
				Title:     act.Activity,
				StartTime: act.StartTime,
				EndTime:   act.EndTime,
				WhatToDo:  act.WhatToDo,
				Location: response_models.ActivityLocation{
					Name:   act.PlaceName,
					Source: response_models.SourceAISuggestion,
				},
			})
		}
		days = append(days, out)
	}
	return days, nil
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
