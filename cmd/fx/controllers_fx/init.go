package controllersfx

import (
	"tripwise/internal/api/controllers"
	"tripwise/internal/services"

	"go.uber.org/fx"
)

var Module = fx.Provide(provideItineraryController)

func provideItineraryController(generationService services.GenerationServiceInterface) *controllers.ItineraryController {
	return controllers.NewItineraryController(generationService)
}
