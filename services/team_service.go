package services

import (
	"errors"
	"log"
	"path/filepath"
	"strconv"

	"tournament-registry-system/models"
	"tournament-registry-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TeamService manages team records.
type TeamService struct {
	DB *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{DB: db}
}

type teamRequest struct {
	Name         string  `json:"name"`
	OrgID        *string `json:"org_id"`
	CountyID     *string `json:"county_id"`
	SubCountyID  *string `json:"sub_county_id"`
	WardID       *string `json:"ward_id"`
	ContactEmail string  `json:"contact_email"`
	ContactPhone string  `json:"contact_phone"`
}

// CreateTeam handles POST /teams
func (s *TeamService) CreateTeam(c *fiber.Ctx) error {
	var req teamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	team := models.Team{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Slug:         slug.Make(req.Name),
		Status:       models.TeamStatusActive,
		OrgID:        req.OrgID,
		CountyID:     req.CountyID,
		SubCountyID:  req.SubCountyID,
		WardID:       req.WardID,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}

	// Slug collisions get a short uuid suffix.
	var count int64
	s.DB.Model(&models.Team{}).Where("slug = ?", team.Slug).Count(&count)
	if count > 0 {
		team.Slug = team.Slug + "-" + uuid.NewString()[:8]
	}

	if err := s.DB.Create(&team).Error; err != nil {
		log.Printf("❌ [TEAMS] Failed to create team: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create team"})
	}

	log.Printf("✅ [TEAMS] Created team %s (%s)", team.Name, team.ID)
	return c.Status(201).JSON(team)
}

// GetTeam handles GET /teams/:id
func (s *TeamService) GetTeam(c *fiber.Ctx) error {
	id := c.Params("id")

	var team models.Team
	if err := s.DB.First(&team, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "team not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(team)
}

// ListTeams handles GET /teams with optional org/county filters.
func (s *TeamService) ListTeams(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Team{})

	if orgID := c.Query("org_id"); orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}
	if countyID := c.Query("county_id"); countyID != "" {
		query = query.Where("county_id = ?", countyID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	limit := 50
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 && n <= 200 {
		limit = n
	}
	offset := 0
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n >= 0 {
		offset = n
	}

	var total int64
	query.Count(&total)

	var teams []models.Team
	if err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&teams).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"teams": teams, "total": total, "limit": limit, "offset": offset})
}

// UpdateTeam handles PUT /teams/:id
func (s *TeamService) UpdateTeam(c *fiber.Ctx) error {
	id := c.Params("id")

	var team models.Team
	if err := s.DB.First(&team, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "team not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	var req teamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	if req.Name != "" && req.Name != team.Name {
		team.Name = req.Name
		team.Slug = slug.Make(req.Name)
	}
	if req.OrgID != nil {
		team.OrgID = req.OrgID
	}
	if req.CountyID != nil {
		team.CountyID = req.CountyID
	}
	if req.SubCountyID != nil {
		team.SubCountyID = req.SubCountyID
	}
	if req.WardID != nil {
		team.WardID = req.WardID
	}
	if req.ContactEmail != "" {
		team.ContactEmail = req.ContactEmail
	}
	if req.ContactPhone != "" {
		team.ContactPhone = req.ContactPhone
	}

	if err := s.DB.Save(&team).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update team"})
	}
	return c.JSON(team)
}

// UploadTeamLogo handles POST /teams/:id/logo (multipart)
func (s *TeamService) UploadTeamLogo(c *fiber.Ctx) error {
	id := c.Params("id")

	var team models.Team
	if err := s.DB.First(&team, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "team not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	file, err := c.FormFile("logo")
	if err != nil || file.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "logo file is required"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "teams/logos/" + uuid.NewString() + ext
	url, err := utils.UploadFileToR2(file, key)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload logo"})
	}

	team.LogoURL = url
	if err := s.DB.Save(&team).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to save logo"})
	}
	return c.JSON(team)
}

// DeleteTeam handles DELETE /teams/:id (soft delete)
func (s *TeamService) DeleteTeam(c *fiber.Ctx) error {
	id := c.Params("id")

	res := s.DB.Delete(&models.Team{}, "id = ?", id)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete team"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "team not found"})
	}
	return c.JSON(fiber.Map{"message": "team deleted"})
}
