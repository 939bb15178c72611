package placesfx

import (
	"tripwise/internal/services"

	"go.uber.org/fx"
)

var Module = fx.Provide(providePlacesClient)

func providePlacesClient() services.PlacesClientInterface {
	return services.NewGooglePlacesClient()
}
