package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"tripwise/internal/models/db_models"
	"tripwise/pkg/utils"
)

// Note appended to an activity whose venue was substituted.
const ClosureReplacementNote = "[Lugar actualizado por disponibilidad]"

const (
	alternativeSearchRadiusM = 2000
	alternativeResultCap     = 5
)

// Provider category tags mapped to the search term used when hunting for a
// nearby open alternative. Unmapped tags fall through to the raw type.
var categorySearchTerms = map[string]string{
	"restaurant":         "restaurante",
	"food":               "restaurante",
	"meal_takeaway":      "restaurante",
	"cafe":               "cafeteria",
	"bar":                "bar",
	"museum":             "museo",
	"art_gallery":        "galeria de arte",
	"church":             "iglesia",
	"park":               "parque",
	"shopping_mall":      "centro comercial",
	"tourist_attraction": "atraccion turistica",
	"lodging":            "hotel",
}

// ClosureResolution is the outcome of an alternative hunt. Replaced=false
// means the caller keeps the closed venue's data, flagged.
type ClosureResolution struct {
	Replaced bool
	Record   *db_models.VerificationRecord
	Note     string
}

type ClosureResolverInterface interface {
	IsClosed(detail *PlaceDetails) bool
	ResolveAlternative(ctx context.Context, closed *PlaceDetails, originalName, destination string, bias *LocationBias) (*ClosureResolution, error)
}

type ClosureResolver struct {
	places PlacesClientInterface
	cache  VerificationCacheServiceInterface
}

func NewClosureResolver(places PlacesClientInterface, cache VerificationCacheServiceInterface) ClosureResolverInterface {
	return &ClosureResolver{
		places: places,
		cache:  cache,
	}
}

func (r *ClosureResolver) IsClosed(detail *PlaceDetails) bool {
	if detail == nil {
		return false
	}
	return detail.BusinessStatus == businessStatusClosed
}

// ResolveAlternative searches near the reference point for an open venue of
// the same category, never re-suggesting the closed branch, and re-verifies
// the pick before substituting it.
func (r *ClosureResolver) ResolveAlternative(ctx context.Context, closed *PlaceDetails, originalName, destination string, bias *LocationBias) (*ClosureResolution, error) {
	category := searchCategory(closed.Types)
	query := fmt.Sprintf("%s %s", category, destination)

	searchBias := bias
	if searchBias != nil {
		searchBias = &LocationBias{
			Latitude:     bias.Latitude,
			Longitude:    bias.Longitude,
			RadiusMeters: alternativeSearchRadiusM,
		}
	}

	candidates, err := r.places.TextSearch(ctx, query, "", searchBias, alternativeResultCap)
	if err != nil {
		return nil, err
	}

	closedName := utils.NormalizePlaceName(closed.Name)
	if closedName == "" {
		closedName = utils.NormalizePlaceName(originalName)
	}

	for _, candidate := range candidates {
		if isSameVenueName(closedName, utils.NormalizePlaceName(candidate.Name)) {
			continue
		}

		detail, err := r.reVerify(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if detail == nil {
			continue
		}

		// Keyed by the original name so the next lookup of the closed venue
		// resolves straight to the substitute.
		record, err := r.cache.Upsert(ctx, originalName, destination, detail)
		if err != nil {
			return nil, err
		}

		log.Printf("Replaced closed venue %q with %q in %s", closed.Name, detail.Name, destination)
		return &ClosureResolution{
			Replaced: true,
			Record:   record,
			Note:     ClosureReplacementNote,
		}, nil
	}

	return &ClosureResolution{Replaced: false}, nil
}

// reVerify runs the full check on an alternative, not just a details fetch:
// the provider record must still exist and must not itself be closed.
func (r *ClosureResolver) reVerify(ctx context.Context, candidate PlaceCandidate) (*PlaceDetails, error) {
	detail, err := r.places.PlaceDetails(ctx, candidate.PlaceID)
	if err != nil {
		return nil, err
	}
	if detail == nil || r.IsClosed(detail) {
		return nil, nil
	}
	if utils.NameSimilarity(utils.NormalizePlaceName(detail.Name), utils.NormalizePlaceName(candidate.Name)) < minVerifySimilarity {
		return nil, nil
	}
	return detail, nil
}

// isSameVenueName guards against re-suggesting the closed branch: a substring
// match in either direction counts as the same venue.
func isSameVenueName(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func searchCategory(types []string) string {
	for _, t := range types {
		if term, ok := categorySearchTerms[t]; ok {
			return term
		}
	}
	if len(types) > 0 {
		return strings.ReplaceAll(types[0], "_", " ")
	}
	return "restaurante"
}
