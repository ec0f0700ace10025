package handlers

import (
	"tournament-registry-system/middleware"
	"tournament-registry-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayerRoutes(app *fiber.App, playerService *services.PlayerService, teamService *services.TeamService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Player registry
	secured.Post("/players", playerService.CreatePlayer)
	secured.Get("/players", playerService.ListPlayers)
	secured.Get("/players/:upid", playerService.GetPlayer)
	secured.Put("/players/:upid", playerService.UpdatePlayer)

	// Documents (verification is registrar work)
	secured.Post("/players/:upid/documents", playerService.UploadDocument)
	secured.Get("/players/:upid/documents", playerService.ListDocuments)
	secured.Patch("/documents/:id/verify", middleware.RequireRoles("registrar", "admin"), playerService.VerifyDocument)

	// Disciplinary records (registrar only)
	secured.Post("/players/:upid/disciplinary", middleware.RequireRoles("registrar", "admin"), playerService.CreateDisciplinaryRecord)
	secured.Get("/players/:upid/disciplinary", playerService.ListDisciplinaryRecords)
	secured.Patch("/disciplinary/:id/close", middleware.RequireRoles("registrar", "admin"), playerService.CloseDisciplinaryRecord)

	// Contracts
	secured.Post("/players/:upid/contracts", playerService.CreateContract)
	secured.Get("/players/:upid/contracts", playerService.ListContracts)
	secured.Patch("/contracts/:id/terminate", playerService.TerminateContract)

	// Teams
	secured.Post("/teams", teamService.CreateTeam)
	secured.Get("/teams", teamService.ListTeams)
	secured.Get("/teams/:id", teamService.GetTeam)
	secured.Put("/teams/:id", teamService.UpdateTeam)
	secured.Post("/teams/:id/logo", teamService.UploadTeamLogo)
	secured.Delete("/teams/:id", teamService.DeleteTeam)
}
