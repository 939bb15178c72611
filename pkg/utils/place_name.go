package utils

import "strings"

// Generic category nouns that add no identity to a place name. The list mixes
// English and Spanish because AI drafts use either depending on the destination.
var genericPlaceWords = map[string]bool{
	"restaurant":  true,
	"restaurante": true,
	"bar":         true,
	"cafe":        true,
	"cafeteria":   true,
	"museum":      true,
	"museo":       true,
	"church":      true,
	"iglesia":     true,
	"cathedral":   true,
	"catedral":    true,
	"market":      true,
	"mercado":     true,
	"park":        true,
	"parque":      true,
	"plaza":       true,
	"square":      true,
	"station":     true,
	"estacion":    true,
	"hotel":       true,
	"palace":      true,
	"palacio":     true,
	"theater":     true,
	"theatre":     true,
	"teatro":      true,
	"gallery":     true,
	"galeria":     true,
	"garden":      true,
	"jardin":      true,
	"beach":       true,
	"playa":       true,
	"the":         true,
	"el":          true,
	"la":          true,
	"los":         true,
	"las":         true,
	"de":          true,
	"del":         true,
}

// NormalizePlaceName lowercases a venue name and strips the generic category
// vocabulary so two names can be compared on their distinctive words only.
// Empty input yields empty output.
func NormalizePlaceName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return ""
	}

	var kept []string
	for _, word := range strings.Fields(lower) {
		if genericPlaceWords[word] {
			continue
		}
		kept = append(kept, word)
	}

	// A name made entirely of generic words ("The Restaurant") still needs an
	// identity to key the cache with, so fall back to the collapsed original.
	if len(kept) == 0 {
		return strings.Join(strings.Fields(lower), " ")
	}
	return strings.Join(kept, " ")
}
