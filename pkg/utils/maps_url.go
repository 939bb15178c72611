package utils

import (
	"fmt"
	"net/url"
)

// BuildMapsSearchURL builds the fallback Google Maps deep link. It works for
// any name, so every activity stays clickable even when verification fails.
func BuildMapsSearchURL(placeName, destination string) string {
	query := placeName
	if destination != "" {
		query = fmt.Sprintf("%s %s", placeName, destination)
	}
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(query)
}

// BuildMapsPlaceURL links directly to a verified provider place.
func BuildMapsPlaceURL(placeID string) string {
	return "https://www.google.com/maps/place/?q=place_id:" + url.QueryEscape(placeID)
}
