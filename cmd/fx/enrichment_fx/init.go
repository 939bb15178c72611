package enrichmentfx

import (
	"tripwise/internal/services"
	"tripwise/pkg/utils"

	"go.uber.org/fx"
)

var Module = fx.Provide(
	provideClosureResolver, provideSentimentService, provideEnrichmentService)

func provideClosureResolver(
	places services.PlacesClientInterface,
	cache services.VerificationCacheServiceInterface,
) services.ClosureResolverInterface {
	return services.NewClosureResolver(places, cache)
}

func provideSentimentService(ai utils.AIClientInterface) services.SentimentServiceInterface {
	return services.NewSentimentService(ai)
}

func provideEnrichmentService(
	places services.PlacesClientInterface,
	cache services.VerificationCacheServiceInterface,
	closure services.ClosureResolverInterface,
	sentiment services.SentimentServiceInterface,
) services.EnrichmentServiceInterface {
	return services.NewEnrichmentService(places, cache, closure, sentiment)
}
