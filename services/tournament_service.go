package services

import (
	"errors"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tournament-registry-system/models"
	"tournament-registry-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TournamentService manages tournaments and the registration flows gated by
// the eligibility engine and the participation filter.
type TournamentService struct {
	DB            *gorm.DB
	Eligibility   *EligibilityService
	Participation *ParticipationService
}

func NewTournamentService(db *gorm.DB, eligibility *EligibilityService, participation *ParticipationService) *TournamentService {
	return &TournamentService{DB: db, Eligibility: eligibility, Participation: participation}
}

func newTPID() string {
	return "TP-" + strings.ToUpper(uuid.NewString()[:8])
}

// CreateTournament handles POST /tournaments (multipart form)
func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	name := c.FormValue("name")
	description := c.FormValue("description")
	model := c.FormValue("model")
	participationModel := c.FormValue("participation_model")
	orgID := c.FormValue("org_id")
	countyID := c.FormValue("county_id")
	subCountyID := c.FormValue("sub_county_id")
	wardID := c.FormValue("ward_id")
	maxTeamsStr := c.FormValue("max_teams")
	startTimeStr := c.FormValue("start_time")
	endTimeStr := c.FormValue("end_time")
	publishScheduleStr := c.FormValue("publish_schedule")

	if name == "" || model == "" || startTimeStr == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name, model and start_time are required"})
	}

	switch model {
	case models.TournamentModelWard, models.TournamentModelSubCounty, models.TournamentModelCounty,
		models.TournamentModelNational, models.TournamentModelInterCounty,
		models.TournamentModelIndependent, models.TournamentModelLeague:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "invalid model"})
	}

	if participationModel == "" {
		participationModel = DefaultParticipationModel(model)
	} else {
		switch participationModel {
		case models.ParticipationOrganizational, models.ParticipationGeographic, models.ParticipationOpen:
		default:
			return c.Status(400).JSON(fiber.Map{"error": "participation_model must be ORGANIZATIONAL, GEOGRAPHIC or OPEN"})
		}
	}

	maxTeams := 0
	if maxTeamsStr != "" {
		if n, err := strconv.Atoi(maxTeamsStr); err == nil && n >= 0 {
			maxTeams = n
		} else {
			return c.Status(400).JSON(fiber.Map{"error": "max_teams must be a non-negative integer"})
		}
	}

	startTime, err := time.Parse(time.RFC3339, startTimeStr)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
	}
	var endTime *time.Time
	if endTimeStr != "" {
		parsed, err := time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_time (use RFC3339)"})
		}
		endTime = &parsed
	}

	var publishSchedule *time.Time
	if publishScheduleStr != "" {
		scheduledTime, err := time.Parse(time.RFC3339, publishScheduleStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid publish_schedule (use RFC3339)"})
		}
		publishSchedule = &scheduledTime
	}

	var mainPhotoURL string
	if mainPhoto, err := c.FormFile("main_photo"); err == nil && mainPhoto.Size > 0 {
		ext := filepath.Ext(mainPhoto.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "tournaments/main/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(mainPhoto, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload main photo"})
		}
		mainPhotoURL = url
	}

	tournament := models.Tournament{
		ID:                 uuid.NewString(),
		Name:               name,
		Slug:               slug.Make(name),
		Description:        description,
		Status:             models.TournamentStatusDraft,
		Model:              model,
		ParticipationModel: participationModel,
		MaxTeams:           maxTeams,
		MainPhotoURL:       mainPhotoURL,
		StartTime:          startTime,
		EndTime:            endTime,
		PublishSchedule:    publishSchedule,
	}
	if orgID != "" {
		tournament.OrgID = &orgID
	}
	if countyID != "" {
		tournament.CountyID = &countyID
	}
	if subCountyID != "" {
		tournament.SubCountyID = &subCountyID
	}
	if wardID != "" {
		tournament.WardID = &wardID
	}

	var count int64
	s.DB.Model(&models.Tournament{}).Where("slug = ?", tournament.Slug).Count(&count)
	if count > 0 {
		tournament.Slug = tournament.Slug + "-" + uuid.NewString()[:8]
	}

	if err := s.DB.Create(&tournament).Error; err != nil {
		log.Printf("❌ [TOURNAMENTS] Failed to create tournament: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create tournament"})
	}

	log.Printf("✅ [TOURNAMENTS] Created tournament %s (%s, %s)", tournament.Name, tournament.Model, tournament.ParticipationModel)
	return c.Status(201).JSON(tournament)
}

// GetTournament handles GET /tournaments/:id
func (s *TournamentService) GetTournament(c *fiber.Ctx) error {
	id := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.Preload("Rules").First(&tournament, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	s.DB.Model(&models.TeamEntry{}).Where("tournament_id = ?", id).Count(&tournament.RegisteredTeamsCount)
	s.DB.Model(&models.TournamentRegistration{}).Where("tournament_id = ?", id).Count(&tournament.RegisteredPlayersCount)
	return c.JSON(tournament)
}

// ListTournaments handles GET /tournaments (admin view, all statuses)
func (s *TournamentService) ListTournaments(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Tournament{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if model := c.Query("model"); model != "" {
		query = query.Where("model = ?", model)
	}

	var tournaments []models.Tournament
	if err := query.Order("start_time DESC").Find(&tournaments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"tournaments": tournaments, "count": len(tournaments)})
}

// ListPublishedTournaments handles GET /tournaments/published (public view)
func (s *TournamentService) ListPublishedTournaments(c *fiber.Ctx) error {
	var tournaments []models.MiniTournament
	err := s.DB.Model(&models.Tournament{}).
		Where("status = ?", models.TournamentStatusPublished).
		Order("start_time ASC").
		Find(&tournaments).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"tournaments": tournaments, "count": len(tournaments)})
}

// UpdateTournament handles PUT /tournaments/:id
func (s *TournamentService) UpdateTournament(c *fiber.Ctx) error {
	id := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	if name := c.FormValue("name"); name != "" && name != tournament.Name {
		tournament.Name = name
		tournament.Slug = slug.Make(name)
	}
	if description := c.FormValue("description"); description != "" {
		tournament.Description = description
	}
	if participationModel := c.FormValue("participation_model"); participationModel != "" {
		switch participationModel {
		case models.ParticipationOrganizational, models.ParticipationGeographic, models.ParticipationOpen:
			tournament.ParticipationModel = participationModel
		default:
			return c.Status(400).JSON(fiber.Map{"error": "participation_model must be ORGANIZATIONAL, GEOGRAPHIC or OPEN"})
		}
	}
	if startTimeStr := c.FormValue("start_time"); startTimeStr != "" {
		startTime, err := time.Parse(time.RFC3339, startTimeStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
		}
		tournament.StartTime = startTime
	}
	if endTimeStr := c.FormValue("end_time"); endTimeStr != "" {
		endTime, err := time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_time (use RFC3339)"})
		}
		tournament.EndTime = &endTime
	}
	if maxTeamsStr := c.FormValue("max_teams"); maxTeamsStr != "" {
		if n, err := strconv.Atoi(maxTeamsStr); err == nil && n >= 0 {
			tournament.MaxTeams = n
		} else {
			return c.Status(400).JSON(fiber.Map{"error": "max_teams must be a non-negative integer"})
		}
	}

	if err := s.DB.Save(&tournament).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update tournament"})
	}
	return c.JSON(tournament)
}

// DeleteTournament handles DELETE /tournaments/:id (soft delete)
func (s *TournamentService) DeleteTournament(c *fiber.Ctx) error {
	id := c.Params("id")

	res := s.DB.Delete(&models.Tournament{}, "id = ?", id)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete tournament"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}
	return c.JSON(fiber.Map{"message": "tournament deleted"})
}

// --- Publishing ---

// PublishNow handles POST /tournaments/:id/publish/now
func (s *TournamentService) PublishNow(c *fiber.Ctx) error {
	id := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tournament.Status == models.TournamentStatusPublished {
		return c.Status(400).JSON(fiber.Map{"error": "tournament is already published"})
	}

	now := time.Now()
	tournament.Status = models.TournamentStatusPublished
	tournament.PublishedAt = &now
	tournament.PublishSchedule = nil

	if err := s.DB.Save(&tournament).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to publish tournament"})
	}
	log.Printf("✅ [TOURNAMENTS] Published tournament %s", tournament.Name)
	return c.JSON(tournament)
}

// SchedulePublish handles POST /tournaments/:id/publish/schedule
func (s *TournamentService) SchedulePublish(c *fiber.Ctx) error {
	id := c.Params("id")

	var req struct {
		PublishAt string `json:"publish_at"`
	}
	if err := c.BodyParser(&req); err != nil || req.PublishAt == "" {
		return c.Status(400).JSON(fiber.Map{"error": "publish_at is required (RFC3339)"})
	}
	publishAt, err := time.Parse(time.RFC3339, req.PublishAt)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid publish_at (use RFC3339)"})
	}
	if publishAt.Before(time.Now()) {
		return c.Status(400).JSON(fiber.Map{"error": "publish_at must be in the future"})
	}

	res := s.DB.Model(&models.Tournament{}).
		Where("id = ? AND status = ?", id, models.TournamentStatusDraft).
		Update("publish_schedule", publishAt)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to schedule publish"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "draft tournament not found"})
	}
	return c.JSON(fiber.Map{"id": id, "publish_schedule": publishAt})
}

// CancelScheduledPublish handles POST /tournaments/:id/publish/cancel
func (s *TournamentService) CancelScheduledPublish(c *fiber.Ctx) error {
	id := c.Params("id")

	res := s.DB.Model(&models.Tournament{}).Where("id = ?", id).Update("publish_schedule", nil)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to cancel scheduled publish"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}
	return c.JSON(fiber.Map{"id": id, "publish_schedule": nil})
}

// --- Registration ---

type registerPlayerRequest struct {
	UPID           string `json:"upid"`
	TeamID         string `json:"team_id"`
	Override       bool   `json:"override"`
	OverrideReason string `json:"override_reason"`
}

// RegisterPlayer handles POST /tournaments/:id/registrations. Eligibility is
// evaluated live; failing ERROR checks block unless a privileged operator
// overrides with a recorded justification.
func (s *TournamentService) RegisterPlayer(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var req registerPlayerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.UPID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "upid is required"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	if tournament.Status != models.TournamentStatusPublished {
		return c.Status(400).JSON(fiber.Map{"error": "tournament is not open for registration"})
	}

	var existing int64
	s.DB.Model(&models.TournamentRegistration{}).
		Where("tournament_id = ? AND upid = ?", tournamentID, req.UPID).Count(&existing)
	if existing > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "player is already registered for this tournament"})
	}

	result, err := s.Eligibility.CheckEligibility(c.UserContext(), req.UPID, tournamentID, req.TeamID)
	if err != nil {
		log.Printf("❌ [REGISTRATION] Eligibility check failed for %s: %v", req.UPID, err)
		return c.Status(500).JSON(fiber.Map{"error": "could not determine eligibility"})
	}

	registration := models.TournamentRegistration{
		TPID:                   newTPID(),
		TournamentID:           tournamentID,
		UPID:                   req.UPID,
		Status:                 models.RegistrationStatusConfirmed,
		EligibleAtRegistration: result.Eligible,
	}
	if req.TeamID != "" {
		registration.TeamID = &req.TeamID
	}

	if !result.Eligible {
		if !req.Override {
			return c.Status(422).JSON(fiber.Map{
				"error":       "player is not eligible for this tournament",
				"eligibility": result,
			})
		}
		if !hasAnyRole(c, "admin", "organizer") {
			return c.Status(403).JSON(fiber.Map{"error": "override requires admin or organizer role"})
		}
		if req.OverrideReason == "" {
			return c.Status(400).JSON(fiber.Map{"error": "override_reason is required when overriding"})
		}
		now := time.Now()
		registration.Status = models.RegistrationStatusOverridden
		registration.OverriddenBy = userIDFromContext(c)
		registration.OverrideReason = req.OverrideReason
		registration.OverriddenAt = &now
		registration.FailedChecks = strings.Join(result.Reasons, "; ")
		log.Printf("⚠️ [REGISTRATION] Eligibility override for player %s in tournament %s by %s: %s",
			req.UPID, tournamentID, registration.OverriddenBy, req.OverrideReason)
	}

	if err := s.DB.Create(&registration).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create registration"})
	}

	log.Printf("✅ [REGISTRATION] Player %s registered for tournament %s as %s", req.UPID, tournamentID, registration.TPID)
	return c.Status(201).JSON(fiber.Map{"registration": registration, "eligibility": result})
}

// GetRegistrations handles GET /tournaments/:id/registrations
func (s *TournamentService) GetRegistrations(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var registrations []models.TournamentRegistration
	err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("created_at ASC").Find(&registrations).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"tournament_id": tournamentID, "registrations": registrations, "count": len(registrations)})
}

type registerTeamRequest struct {
	TeamID         string `json:"team_id"`
	Override       bool   `json:"override"`
	OverrideReason string `json:"override_reason"`
}

// RegisterTeam handles POST /tournaments/:id/team-entries, gated by the
// participation filter.
func (s *TournamentService) RegisterTeam(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var req registerTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.TeamID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "team_id is required"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	if tournament.MaxTeams > 0 {
		var entries int64
		s.DB.Model(&models.TeamEntry{}).Where("tournament_id = ?", tournamentID).Count(&entries)
		if entries >= int64(tournament.MaxTeams) {
			return c.Status(400).JSON(fiber.Map{"error": "tournament is full"})
		}
	}

	var existing int64
	s.DB.Model(&models.TeamEntry{}).
		Where("tournament_id = ? AND team_id = ?", tournamentID, req.TeamID).Count(&existing)
	if existing > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "team is already registered for this tournament"})
	}

	result, err := s.Participation.CheckTeamEligibility(c.UserContext(), req.TeamID, tournamentID)
	if err != nil {
		log.Printf("❌ [REGISTRATION] Team participation check failed for %s: %v", req.TeamID, err)
		return c.Status(500).JSON(fiber.Map{"error": "could not determine team eligibility"})
	}

	entry := models.TeamEntry{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		TeamID:       req.TeamID,
		Status:       models.RegistrationStatusConfirmed,
	}

	if !result.IsEligible {
		if !req.Override {
			return c.Status(422).JSON(fiber.Map{
				"error":       "team may not register for this tournament",
				"eligibility": result,
			})
		}
		if !hasAnyRole(c, "admin", "organizer") {
			return c.Status(403).JSON(fiber.Map{"error": "override requires admin or organizer role"})
		}
		if req.OverrideReason == "" {
			return c.Status(400).JSON(fiber.Map{"error": "override_reason is required when overriding"})
		}
		now := time.Now()
		entry.Status = models.RegistrationStatusOverridden
		entry.OverriddenBy = userIDFromContext(c)
		entry.OverrideReason = req.OverrideReason
		entry.OverriddenAt = &now
	}

	if err := s.DB.Create(&entry).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create team entry"})
	}

	log.Printf("✅ [REGISTRATION] Team %s entered tournament %s", req.TeamID, tournamentID)
	return c.Status(201).JSON(fiber.Map{"entry": entry, "eligibility": result})
}

// GetTeamEntries handles GET /tournaments/:id/team-entries
func (s *TournamentService) GetTeamEntries(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var entries []models.TeamEntry
	err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("created_at ASC").Find(&entries).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"tournament_id": tournamentID, "entries": entries, "count": len(entries)})
}

// hasAnyRole reports whether the gateway-provided role list contains any of
// the given roles.
func hasAnyRole(c *fiber.Ctx, roles ...string) bool {
	userRoles, ok := c.Locals("user_roles").([]string)
	if !ok {
		return false
	}
	for _, have := range userRoles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
