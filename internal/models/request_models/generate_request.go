package request_models

type GenerateItineraryRequest struct {
	Destination   string   `json:"destination" binding:"required"`
	Days          int      `json:"days"`
	Preferences   string   `json:"preferences"`
	Budget        string   `json:"budget,omitempty"`
	MaxDistanceKm float64  `json:"max_distance_km,omitempty"`
	HotelName     string   `json:"hotel_name,omitempty"`
	HotelLat      *float64 `json:"hotel_lat,omitempty"`
	HotelLng      *float64 `json:"hotel_lng,omitempty"`
}
