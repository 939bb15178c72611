package main

import (
	"context"
	"log"
	"os"
	controllersfx "tripwise/cmd/fx/controllers_fx"
	dbfx "tripwise/cmd/fx/db_fx"
	enrichmentfx "tripwise/cmd/fx/enrichment_fx"
	generationfx "tripwise/cmd/fx/generation_fx"
	placesfx "tripwise/cmd/fx/places_fx"
	verificationfx "tripwise/cmd/fx/verification_fx"
	"tripwise/internal/api/controllers"
	"tripwise/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	app := fx.New(
		dbfx.Module,
		placesfx.Module,
		verificationfx.Module,
		enrichmentfx.Module,
		generationfx.Module,
		controllersfx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Println("Starting HTTP server at ${PORT}")
				if err := engine.Run(":" + os.Getenv("PORT")); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(itineraryController *controllers.ItineraryController) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, itineraryController)

	return r
}

func RegisterRoutes(r *gin.Engine, itineraryController *controllers.ItineraryController) {
	itineraries := r.Group("/itineraries")
	itineraries.POST("", itineraryController.GenerateItinerary)
	itineraries.GET("", itineraryController.ListItineraries)
	itineraries.GET("/:id", itineraryController.GetItineraryById)
}
