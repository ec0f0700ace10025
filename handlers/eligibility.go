package handlers

import (
	"tournament-registry-system/middleware"
	"tournament-registry-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEligibilityRoutes(app *fiber.App, eligibilityService *services.EligibilityService, participationService *services.ParticipationService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Player eligibility
	secured.Get("/tournaments/:id/eligibility/:upid", eligibilityService.CheckPlayerEligibility)
	secured.Post("/tournaments/:id/eligibility/batch", eligibilityService.CheckPlayerEligibilityBatch)

	// Team participation
	secured.Get("/tournaments/:id/eligible-teams", participationService.GetEligibleTeamsEndpoint)
	secured.Get("/teams/:id/eligibility/:tournament_id", participationService.CheckTeamEligibilityEndpoint)
}
