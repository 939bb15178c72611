package db_models

// Itinerary stores the final enriched plan as an opaque blob plus the
// verification counters shown on the dashboard.
type Itinerary struct {
	BaseModel
	Destination string
	DayCount    int
	Status      string
	Plan        string `gorm:"type:jsonb"`

	TotalActivities int
	VerifiedCount   int
	FailedCount     int
	ReplacedCount   int
}
