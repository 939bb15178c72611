package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"tripwise/internal/models/request_models"
	"tripwise/internal/services"
	"tripwise/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ItineraryController struct {
	generationService services.GenerationServiceInterface
}

func NewItineraryController(generationService services.GenerationServiceInterface) *ItineraryController {
	return &ItineraryController{
		generationService: generationService,
	}
}

func (ic *ItineraryController) GenerateItinerary(c *gin.Context) {
	var req request_models.GenerateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Days < 1 || req.Days > 14 {
		utils.RespondError(c, http.StatusBadRequest, "Days must be between 1 and 14")
		return
	}

	progress := func(attempt int, tier string, err error) {
		if err != nil {
			log.Printf("Attempt %d (%s) for %s failed: %v", attempt, tier, req.Destination, err)
			return
		}
		log.Printf("Starting attempt %d (%s) for %s", attempt, tier, req.Destination)
	}

	itinerary, err := ic.generationService.GenerateItinerary(c.Request.Context(), req, progress)
	if err != nil {
		var genErr *services.GenerationError
		if errors.As(err, &genErr) {
			log.Printf("Generation for %s gave up after %d attempts: %v", req.Destination, len(genErr.Attempts), genErr.Err)
		}
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, itinerary, "Itinerary generated successfully")
}

func (ic *ItineraryController) ListItineraries(c *gin.Context) {
	var ids []string
	for _, raw := range strings.Split(c.Query("ids"), ",") {
		if id := strings.TrimSpace(raw); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		utils.RespondError(c, http.StatusBadRequest, "Query parameter 'ids' is required")
		return
	}

	itineraries, err := ic.generationService.ListItineraries(c.Request.Context(), ids)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, itineraries, "Itineraries fetched successfully")
}

func (ic *ItineraryController) GetItineraryById(c *gin.Context) {
	itineraryId := c.Param("id")
	if itineraryId == "" {
		utils.RespondError(c, http.StatusBadRequest, "Itinerary ID is required")
		return
	}

	itinerary, err := ic.generationService.GetItineraryByID(c.Request.Context(), itineraryId)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, itinerary, "Itinerary fetched successfully")
}
