package services

import (
	"context"
	"strings"
	"sync"
	"time"
	"tripwise/internal/models/db_models"
	"tripwise/internal/repositories"
	"tripwise/pkg/utils"
)

// Records older than this are stale. Stale records are still served when no
// fresh provider data is at hand; availability beats freshness here.
const stalenessMonths = 3

type VerificationCacheServiceInterface interface {
	Lookup(ctx context.Context, placeName, destination string) (*db_models.VerificationRecord, error)
	Upsert(ctx context.Context, placeName, destination string, detail *PlaceDetails) (*db_models.VerificationRecord, error)
	GetOrRefresh(ctx context.Context, placeName, destination string, fresh *PlaceDetails) (*db_models.VerificationRecord, error)
	IsStale(record *db_models.VerificationRecord) bool
}

// VerificationStore is the pluggable backing of the cache: gorm in production,
// an in-memory map in tests.
type VerificationStore interface {
	Get(ctx context.Context, placeName, destination string) (*db_models.VerificationRecord, error)
	Put(ctx context.Context, record *db_models.VerificationRecord) error
}

type VerificationCacheService struct {
	store VerificationStore
	now   func() time.Time
}

func NewVerificationCacheService(store VerificationStore) VerificationCacheServiceInterface {
	return &VerificationCacheService{
		store: store,
		now:   time.Now,
	}
}

func cacheKey(placeName, destination string) (string, string) {
	return utils.NormalizePlaceName(placeName), strings.ToLower(strings.TrimSpace(destination))
}

func (s *VerificationCacheService) Lookup(ctx context.Context, placeName, destination string) (*db_models.VerificationRecord, error) {
	name, dest := cacheKey(placeName, destination)
	record, err := s.store.Get(ctx, name, dest)
	if err != nil {
		return nil, utils.ErrCacheUnavailable
	}
	return record, nil
}

func (s *VerificationCacheService) Upsert(ctx context.Context, placeName, destination string, detail *PlaceDetails) (*db_models.VerificationRecord, error) {
	name, dest := cacheKey(placeName, destination)

	record, err := s.store.Get(ctx, name, dest)
	if err != nil {
		return nil, utils.ErrCacheUnavailable
	}
	if record == nil {
		record = &db_models.VerificationRecord{PlaceName: name, Destination: dest}
	}
	s.fill(record, detail)

	if err := s.store.Put(ctx, record); err != nil {
		return nil, utils.ErrCacheUnavailable
	}
	return record, nil
}

// GetOrRefresh resolves the cache read path:
//
//	absent,  no fresh data  -> absent
//	absent,  fresh data     -> insert
//	present, fresh enough   -> as-is
//	present, stale, fresh   -> update in place, bump verified_at
//	present, stale, nothing -> serve stale; caller refreshes opportunistically
func (s *VerificationCacheService) GetOrRefresh(ctx context.Context, placeName, destination string, fresh *PlaceDetails) (*db_models.VerificationRecord, error) {
	record, err := s.Lookup(ctx, placeName, destination)
	if err != nil {
		return nil, err
	}

	if record == nil {
		if fresh == nil {
			return nil, nil
		}
		return s.Upsert(ctx, placeName, destination, fresh)
	}

	if !s.IsStale(record) {
		return record, nil
	}
	if fresh != nil {
		return s.Upsert(ctx, placeName, destination, fresh)
	}
	return record, nil
}

// IsStale treats the boundary as inclusive: a record verified exactly the
// staleness window ago already counts as stale.
func (s *VerificationCacheService) IsStale(record *db_models.VerificationRecord) bool {
	cutoff := s.now().AddDate(0, -stalenessMonths, 0)
	return !record.VerifiedAt.After(cutoff)
}

func (s *VerificationCacheService) fill(record *db_models.VerificationRecord, detail *PlaceDetails) {
	record.PlaceID = detail.PlaceID
	record.CanonicalName = detail.Name
	record.Address = detail.Address
	record.Latitude = detail.Latitude
	record.Longitude = detail.Longitude
	record.Rating = detail.Rating
	record.PriceLevel = detail.PriceLevel
	record.Types = detail.Types
	record.BusinessStatus = detail.BusinessStatus
	record.Website = detail.Website
	record.MapsURL = utils.BuildMapsPlaceURL(detail.PlaceID)
	record.VerifiedAt = s.now()
}

// ---------------------------------------------------------------------------

type dbVerificationStore struct {
	repo repositories.VerificationRepository
}

func NewDBVerificationStore(repo repositories.VerificationRepository) VerificationStore {
	return &dbVerificationStore{repo: repo}
}

func (s *dbVerificationStore) Get(ctx context.Context, placeName, destination string) (*db_models.VerificationRecord, error) {
	return s.repo.GetByPlaceAndDestination(ctx, placeName, destination)
}

func (s *dbVerificationStore) Put(ctx context.Context, record *db_models.VerificationRecord) error {
	return s.repo.Upsert(ctx, record)
}

// ---------------------------------------------------------------------------

type storeKey struct {
	PlaceName   string
	Destination string
}

type memoryVerificationStore struct {
	mu      sync.RWMutex
	records map[storeKey]db_models.VerificationRecord
}

func NewMemoryVerificationStore() VerificationStore {
	return &memoryVerificationStore{records: make(map[storeKey]db_models.VerificationRecord)}
}

func (s *memoryVerificationStore) Get(_ context.Context, placeName, destination string) (*db_models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[storeKey{PlaceName: placeName, Destination: destination}]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (s *memoryVerificationStore) Put(_ context.Context, record *db_models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey{PlaceName: record.PlaceName, Destination: record.Destination}] = *record
	return nil
}
