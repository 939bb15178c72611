package db_models

import (
	"time"

	"github.com/lib/pq"
)

// VerificationRecord is the durable result of matching an AI-suggested place
// name against the Places provider. At most one row exists per
// (place_name, destination) pair; refreshes update in place.
type VerificationRecord struct {
	BaseModel
	PlaceName   string `gorm:"uniqueIndex:idx_place_destination"`
	Destination string `gorm:"uniqueIndex:idx_place_destination"`

	PlaceID        string
	CanonicalName  string
	Address        string
	Latitude       float64
	Longitude      float64
	Rating         float64
	PriceLevel     int
	Types          pq.StringArray `gorm:"type:text[]"`
	BusinessStatus string
	Website        string
	MapsURL        string

	VerifiedAt time.Time
}
