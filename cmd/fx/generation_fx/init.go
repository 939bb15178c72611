package generationfx

import (
	"os"
	"tripwise/internal/repositories"
	"tripwise/internal/services"
	"tripwise/pkg/utils"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Provide(
	provideAIClient, provideItineraryRepo, provideGenerationService)

func provideAIClient() (utils.AIClientInterface, error) {
	provider := os.Getenv("AI_PROVIDER")
	if provider == "" {
		provider = "gemini"
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if provider == "openai" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	return utils.NewAIClient(provider, apiKey, os.Getenv("AI_MODEL"))
}

func provideItineraryRepo(db *gorm.DB) repositories.ItineraryRepository {
	return repositories.NewItineraryRepository(db)
}

func provideGenerationService(
	ai utils.AIClientInterface,
	places services.PlacesClientInterface,
	enrichment services.EnrichmentServiceInterface,
	itineraries repositories.ItineraryRepository,
) services.GenerationServiceInterface {
	return services.NewGenerationService(ai, places, enrichment, itineraries)
}
