package verificationfx

import (
	"tripwise/internal/repositories"
	"tripwise/internal/services"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideVerificationRepo, provideVerificationStore, provideVerificationCache)

func provideVerificationRepo(db *gorm.DB) repositories.VerificationRepository {
	return repositories.NewVerificationRepository(db)
}

func provideVerificationStore(repo repositories.VerificationRepository) services.VerificationStore {
	return services.NewDBVerificationStore(repo)
}

func provideVerificationCache(store services.VerificationStore) services.VerificationCacheServiceInterface {
	return services.NewVerificationCacheService(store)
}
