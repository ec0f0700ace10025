package handlers

import (
	"tournament-registry-system/middleware"
	"tournament-registry-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, ruleService *services.RuleService) {
	// 🔓 Public routes (published tournaments only)
	app.Get("/tournaments/published", tournamentService.ListPublishedTournaments)

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Tournament CRUD (organizer/admin)
	secured.Post("/tournaments", tournamentService.CreateTournament)
	secured.Get("/tournaments", tournamentService.ListTournaments)
	secured.Get("/tournaments/:id", tournamentService.GetTournament)
	secured.Put("/tournaments/:id", tournamentService.UpdateTournament)
	secured.Delete("/tournaments/:id", tournamentService.DeleteTournament)

	// Publish scheduling
	secured.Post("/tournaments/:id/publish/now", tournamentService.PublishNow)
	secured.Post("/tournaments/:id/publish/schedule", tournamentService.SchedulePublish)
	secured.Post("/tournaments/:id/publish/cancel", tournamentService.CancelScheduledPublish)

	// Registration (eligibility-gated)
	secured.Post("/tournaments/:id/registrations", tournamentService.RegisterPlayer)
	secured.Get("/tournaments/:id/registrations", tournamentService.GetRegistrations)
	secured.Post("/tournaments/:id/team-entries", tournamentService.RegisterTeam)
	secured.Get("/tournaments/:id/team-entries", tournamentService.GetTeamEntries)

	// Eligibility rule admin (organizer/admin only)
	rules := secured.Group("/", middleware.RequireRoles("organizer", "admin"))
	rules.Post("/tournaments/:id/rules", ruleService.CreateRule)
	rules.Put("/rules/:id", ruleService.UpdateRule)
	rules.Patch("/rules/:id/active", ruleService.SetRuleActive)
	rules.Delete("/rules/:id", ruleService.DeleteRule)
	secured.Get("/tournaments/:id/rules", ruleService.GetRulesForTournament)
}
