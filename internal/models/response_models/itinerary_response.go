package response_models

// Verification sources written onto an activity location.
const (
	SourceAISuggestion      = "ai_suggestion"
	SourceGooglePlaces      = "google_places"
	SourceDatabaseCache     = "database_cache"
	SourceNotVerified       = "not_verified"
	SourceVerificationError = "verification_error"
)

type SentimentResult struct {
	Score       float64  `json:"score"`
	Label       string   `json:"label"`
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords,omitempty"`
	ReviewCount int      `json:"review_count"`
}

// ActivityLocation is the mutable block the enrichment pass writes back onto
// each activity. Verified implies coordinates and a maps URL are present.
type ActivityLocation struct {
	Name           string           `json:"name"`
	Address        string           `json:"address,omitempty"`
	Latitude       float64          `json:"latitude,omitempty"`
	Longitude      float64          `json:"longitude,omitempty"`
	Verified       bool             `json:"verified"`
	Source         string           `json:"source"`
	Rating         float64          `json:"rating,omitempty"`
	PriceLevel     int              `json:"price_level,omitempty"`
	BusinessStatus string           `json:"business_status,omitempty"`
	MapsURL        string           `json:"maps_url"`
	DistanceKm     float64          `json:"distance_km,omitempty"`
	Note           string           `json:"note,omitempty"`
	Sentiment      *SentimentResult `json:"sentiment,omitempty"`
}

type Activity struct {
	Title     string           `json:"activity"`
	StartTime string           `json:"start_time"`
	EndTime   string           `json:"end_time"`
	WhatToDo  string           `json:"what_to_do"`
	Location  ActivityLocation `json:"location"`
}

type DayPlan struct {
	Day        int        `json:"day"`
	Date       string     `json:"date,omitempty"`
	Activities []Activity `json:"activities"`
}

type EnrichmentStats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
	Replaced int `json:"replaced"`
}

type GenerationAttempt struct {
	Attempt    int    `json:"attempt"`
	Tier       string `json:"tier"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type ItineraryResponse struct {
	ID          string              `json:"id"`
	Destination string              `json:"destination"`
	Days        []DayPlan           `json:"days"`
	Stats       EnrichmentStats     `json:"stats"`
	Attempts    []GenerationAttempt `json:"attempts,omitempty"`
}
