package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tournament-registry-system/handlers"
	"tournament-registry-system/middleware"
	"tournament-registry-system/models"
	"tournament-registry-system/services"
	"tournament-registry-system/utils"
	"tournament-registry-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // 50MB, enough for scanned identity documents
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PlayerRegistry{},
		&models.PlayerDocument{},
		&models.DisciplinaryRecord{},
		&models.Contract{},
		&models.Team{},
		&models.Tournament{},
		&models.EligibilityRule{},
		&models.TournamentRegistration{},
		&models.TeamEntry{},
		&models.County{},
		&models.SubCounty{},
		&models.Ward{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	store := services.NewGormStore(db)
	eligibilityService := services.NewEligibilityService(store)
	participationService := services.NewParticipationService(store, store)
	tournamentService := services.NewTournamentService(db, eligibilityService, participationService)
	ruleService := services.NewRuleService(db)
	playerService := services.NewPlayerService(db)
	teamService := services.NewTeamService(db)

	// --- Geography reference mirror ---
	registryServiceURL := os.Getenv("REGISTRY_SYNC_URL")
	if registryServiceURL == "" {
		log.Fatal("REGISTRY_SYNC_URL environment variable not set")
	}
	registryServiceToken := os.Getenv("REGISTRY_SERVICE_TOKEN")
	if registryServiceToken == "" {
		log.Fatal("REGISTRY_SERVICE_TOKEN environment variable not set")
	}

	geoWorker := workers.NewGeographySyncWorker(db, registryServiceURL, "/api/v1/public/geography", registryServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	geoWorker.Start(ctx)

	tournamentService.StartPublishScheduler()

	// ✅ Setup routes — enforced Gateway auth on everything
	handlers.SetupTournamentRoutes(app, tournamentService, ruleService)
	handlers.SetupPlayerRoutes(app, playerService, teamService)
	handlers.SetupEligibilityRoutes(app, eligibilityService, participationService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Geography Sync Worker running")
	log.Println("✅ Tournament publish scheduler running (every 1m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
