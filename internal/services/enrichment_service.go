package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"tripwise/internal/models/db_models"
	"tripwise/internal/models/response_models"
	"tripwise/pkg/utils"

	"golang.org/x/sync/errgroup"
)

const (
	// Existence predicate: a candidate passes on name similarity OR proximity.
	// Deliberately permissive to minimize false rejections.
	minVerifySimilarity  = 0.3
	defaultMaxDistanceKm = 10.0

	textSearchResultCap = 3

	// Activities within one day are independent; days run sequentially so
	// closure substitutions keep their in-day order.
	dayWorkerLimit = 4
)

// Note left on an activity whose venue is permanently closed and no open
// alternative could be found.
const closedVenueNote = "[Lugar permanentemente cerrado]"

type EnrichmentServiceInterface interface {
	EnrichItinerary(ctx context.Context, days []response_models.DayPlan, destination string, hotel *LocationBias, maxDistanceKm float64) (response_models.EnrichmentStats, error)
}

type EnrichmentService struct {
	places    PlacesClientInterface
	cache     VerificationCacheServiceInterface
	closure   ClosureResolverInterface
	sentiment SentimentServiceInterface
}

func NewEnrichmentService(
	places PlacesClientInterface,
	cache VerificationCacheServiceInterface,
	closure ClosureResolverInterface,
	sentiment SentimentServiceInterface,
) EnrichmentServiceInterface {
	return &EnrichmentService{
		places:    places,
		cache:     cache,
		closure:   closure,
		sentiment: sentiment,
	}
}

// EnrichItinerary walks every activity of the draft, resolves each AI-suggested
// place against the cache and the Places provider, and writes the verified
// location block back in place. One activity failing never aborts the batch;
// only a rejected API key short-circuits the whole pass.
func (s *EnrichmentService) EnrichItinerary(ctx context.Context, days []response_models.DayPlan, destination string, hotel *LocationBias, maxDistanceKm float64) (response_models.EnrichmentStats, error) {
	if maxDistanceKm <= 0 {
		maxDistanceKm = defaultMaxDistanceKm
	}

	bias := hotel
	if bias == nil {
		if centroid, err := s.places.Geocode(ctx, destination); err == nil && centroid != nil {
			bias = &LocationBias{Latitude: centroid.Latitude, Longitude: centroid.Longitude}
		} else if err != nil && errors.Is(err, utils.ErrProviderAuthError) {
			return response_models.EnrichmentStats{}, err
		}
	}

	var mu sync.Mutex
	var stats response_models.EnrichmentStats

	for di := range days {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(dayWorkerLimit)

		for ai := range days[di].Activities {
			activity := &days[di].Activities[ai]
			g.Go(func() error {
				outcome, err := s.enrichActivity(gctx, activity, destination, bias, maxDistanceKm)
				if err != nil {
					// A bad API key fails every later call too; stop wasting quota.
					if errors.Is(err, utils.ErrProviderAuthError) {
						return err
					}
					log.Printf("Verification failed for %q: %v", activity.Location.Name, err)
					s.markFailed(activity, destination)
					outcome = outcomeFailed
				}

				mu.Lock()
				stats.Total++
				switch outcome {
				case outcomeVerified:
					stats.Verified++
				case outcomeReplaced:
					stats.Verified++
					stats.Replaced++
				case outcomeFailed, outcomeUnverified:
					stats.Failed++
				}
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

type enrichOutcome int

const (
	outcomeSkipped enrichOutcome = iota
	outcomeVerified
	outcomeReplaced
	outcomeUnverified
	outcomeFailed
)

func (s *EnrichmentService) enrichActivity(ctx context.Context, activity *response_models.Activity, destination string, bias *LocationBias, maxDistanceKm float64) (enrichOutcome, error) {
	loc := &activity.Location

	// Idempotence guard: only AI-suggested locations are touched.
	if loc.Source != response_models.SourceAISuggestion {
		return outcomeSkipped, nil
	}
	if strings.TrimSpace(loc.Name) == "" {
		s.markUnverified(activity, destination)
		return outcomeUnverified, nil
	}

	cached, err := s.cache.Lookup(ctx, loc.Name, destination)
	if err != nil {
		return outcomeFailed, err
	}
	if cached != nil && !s.cache.IsStale(cached) {
		s.applyRecord(ctx, activity, cached, response_models.SourceDatabaseCache, bias)
		return outcomeVerified, nil
	}

	// Cache miss or stale record: a provider round-trip is needed anyway, so
	// this is also the opportunistic refresh point.
	detail, err := s.lookupProvider(ctx, loc.Name, destination, bias, maxDistanceKm)
	if err != nil {
		if errors.Is(err, utils.ErrProviderAuthError) {
			return outcomeFailed, err
		}
		// Transient provider trouble: a stale record beats nothing.
		if cached != nil {
			log.Printf("Serving stale verification for %q after provider error: %v", loc.Name, err)
			s.applyRecord(ctx, activity, cached, response_models.SourceDatabaseCache, bias)
			return outcomeVerified, nil
		}
		return outcomeFailed, err
	}
	if detail == nil {
		if cached != nil {
			s.applyRecord(ctx, activity, cached, response_models.SourceDatabaseCache, bias)
			return outcomeVerified, nil
		}
		s.markUnverified(activity, destination)
		return outcomeUnverified, nil
	}

	if s.closure.IsClosed(detail) {
		resolution, err := s.closure.ResolveAlternative(ctx, detail, loc.Name, destination, bias)
		if err != nil {
			return outcomeFailed, err
		}
		if resolution.Replaced {
			s.applyRecord(ctx, activity, resolution.Record, response_models.SourceGooglePlaces, bias)
			loc.Note = resolution.Note
			return outcomeReplaced, nil
		}

		// No usable alternative: keep the closed venue rather than punching a
		// hole in the day plan, but flag it so the caller can warn the user.
		record, err := s.cache.GetOrRefresh(ctx, loc.Name, destination, detail)
		if err != nil {
			return outcomeFailed, err
		}
		s.applyRecord(ctx, activity, record, response_models.SourceGooglePlaces, bias)
		loc.Note = closedVenueNote
		return outcomeVerified, nil
	}

	record, err := s.cache.GetOrRefresh(ctx, loc.Name, destination, detail)
	if err != nil {
		return outcomeFailed, err
	}
	s.applyRecord(ctx, activity, record, response_models.SourceGooglePlaces, bias)
	return outcomeVerified, nil
}

// lookupProvider runs text search plus a best-match detail fetch. A nil result
// with nil error means zero acceptable matches, which is a normal outcome.
func (s *EnrichmentService) lookupProvider(ctx context.Context, placeName, destination string, bias *LocationBias, maxDistanceKm float64) (*PlaceDetails, error) {
	query := placeName
	if !strings.Contains(strings.ToLower(placeName), strings.ToLower(destination)) {
		query = fmt.Sprintf("%s %s", placeName, destination)
	}

	candidates, err := s.places.TextSearch(ctx, query, "", bias, textSearchResultCap)
	if err != nil {
		return nil, err
	}

	best := s.bestMatch(placeName, candidates, bias, maxDistanceKm)
	if best == nil {
		return nil, nil
	}

	detail, err := s.places.PlaceDetails(ctx, best.PlaceID)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// bestMatch picks the highest-similarity candidate that passes the existence
// predicate: similarity above threshold OR within the distance budget.
func (s *EnrichmentService) bestMatch(placeName string, candidates []PlaceCandidate, bias *LocationBias, maxDistanceKm float64) *PlaceCandidate {
	normalized := utils.NormalizePlaceName(placeName)

	var best *PlaceCandidate
	bestScore := -1.0

	for i := range candidates {
		candidate := &candidates[i]
		score := utils.NameSimilarity(normalized, utils.NormalizePlaceName(candidate.Name))

		exists := score >= minVerifySimilarity
		if !exists && bias != nil {
			distance := utils.HaversineKm(bias.Latitude, bias.Longitude, candidate.Latitude, candidate.Longitude)
			exists = distance <= maxDistanceKm
		}
		if exists && score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best
}

func (s *EnrichmentService) applyRecord(ctx context.Context, activity *response_models.Activity, record *db_models.VerificationRecord, source string, bias *LocationBias) {
	loc := &activity.Location
	loc.Name = record.CanonicalName
	loc.Address = record.Address
	loc.Latitude = record.Latitude
	loc.Longitude = record.Longitude
	loc.Rating = record.Rating
	loc.PriceLevel = record.PriceLevel
	loc.BusinessStatus = record.BusinessStatus
	loc.MapsURL = record.MapsURL
	loc.Verified = true
	loc.Source = source
	if bias != nil {
		loc.DistanceKm = utils.HaversineKm(bias.Latitude, bias.Longitude, record.Latitude, record.Longitude)
	}

	if s.sentiment.ShouldAnalyze(record) {
		sentiment, err := s.sentiment.Analyze(ctx, record)
		if err != nil {
			log.Printf("Sentiment unavailable for %q: %v", record.CanonicalName, err)
		} else {
			loc.Sentiment = sentiment
		}
	}
}

func (s *EnrichmentService) markUnverified(activity *response_models.Activity, destination string) {
	loc := &activity.Location
	loc.Verified = false
	loc.Source = response_models.SourceNotVerified
	loc.MapsURL = utils.BuildMapsSearchURL(loc.Name, destination)
}

func (s *EnrichmentService) markFailed(activity *response_models.Activity, destination string) {
	loc := &activity.Location
	loc.Verified = false
	loc.Source = response_models.SourceVerificationError
	loc.MapsURL = utils.BuildMapsSearchURL(loc.Name, destination)
}
