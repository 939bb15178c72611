package repositories

import (
	"context"
	"errors"
	"tripwise/internal/models/db_models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationRepository interface {
	GetByPlaceAndDestination(ctx context.Context, placeName, destination string) (*db_models.VerificationRecord, error)
	Upsert(ctx context.Context, record *db_models.VerificationRecord) error
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) GetByPlaceAndDestination(ctx context.Context, placeName, destination string) (*db_models.VerificationRecord, error) {
	var record db_models.VerificationRecord
	err := r.db.WithContext(ctx).
		First(&record, "place_name = ? AND destination = ?", placeName, destination).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Upsert keeps the one-row-per-(place, destination) invariant. Concurrent
// enrichment workers may race on the same key; last writer wins.
func (r *verificationRepository) Upsert(ctx context.Context, record *db_models.VerificationRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "place_name"}, {Name: "destination"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"place_id", "canonical_name", "address", "latitude", "longitude",
				"rating", "price_level", "types", "business_status", "website",
				"maps_url", "verified_at", "updated_at",
			}),
		}).
		Create(record).Error
}
