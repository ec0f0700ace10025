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
	"gorm.io/gorm"
)

// PlayerService manages the player registry and its attachments (documents,
// disciplinary records, contracts).
type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

func newUPID() string {
	return "UP-" + strings.ToUpper(uuid.NewString()[:8])
}

type playerRequest struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	DateOfBirth    string  `json:"date_of_birth"` // ISO date
	Nationality    string  `json:"nationality"`
	Sex            string  `json:"sex"`
	Status         string  `json:"status"`
	WardID         *string `json:"ward_id"`
	IDDocumentHash string  `json:"id_document_hash"`
}

// CreatePlayer handles POST /players
func (s *PlayerService) CreatePlayer(c *fiber.Ctx) error {
	var req playerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.FirstName == "" || req.LastName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "first_name and last_name are required"})
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		d, err := parseISODate(req.DateOfBirth)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid date_of_birth (use YYYY-MM-DD)"})
		}
		dob = &d
	}

	// Duplicate registration guard on the identity document hash.
	if req.IDDocumentHash != "" {
		var count int64
		s.DB.Model(&models.PlayerRegistry{}).Where("id_document_hash = ?", req.IDDocumentHash).Count(&count)
		if count > 0 {
			return c.Status(409).JSON(fiber.Map{"error": "a player with this identity document is already registered"})
		}
	}

	player := models.PlayerRegistry{
		UPID:           newUPID(),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    dob,
		Nationality:    req.Nationality,
		Sex:            req.Sex,
		Status:         models.PlayerStatusActive,
		IDDocumentHash: req.IDDocumentHash,
	}
	if req.Status != "" {
		player.Status = req.Status
	}

	if req.WardID != nil && *req.WardID != "" {
		if err := s.resolveWardLineage(&player, *req.WardID); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
	}

	if err := s.DB.Create(&player).Error; err != nil {
		log.Printf("❌ [PLAYERS] Failed to create player: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create player"})
	}

	log.Printf("✅ [PLAYERS] Registered player %s (%s %s)", player.UPID, player.FirstName, player.LastName)
	return c.Status(201).JSON(player)
}

// resolveWardLineage denormalizes ward -> sub-county -> county onto the
// registry row so the evaluator never has to walk the reference tables.
func (s *PlayerService) resolveWardLineage(player *models.PlayerRegistry, wardID string) error {
	var ward models.Ward
	if err := s.DB.First(&ward, "id = ?", wardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("unknown ward_id")
		}
		return errors.New("failed to resolve ward")
	}
	var subCounty models.SubCounty
	if err := s.DB.First(&subCounty, "id = ?", ward.SubCountyID).Error; err != nil {
		return errors.New("ward has no sub-county on record")
	}
	player.WardID = &ward.ID
	player.SubCountyID = &subCounty.ID
	player.CountyID = &subCounty.CountyID
	return nil
}

// GetPlayer handles GET /players/:upid
func (s *PlayerService) GetPlayer(c *fiber.Ctx) error {
	upid := c.Params("upid")

	var player models.PlayerRegistry
	err := s.DB.Preload("Documents").Preload("Disciplinary").Preload("Contracts").
		First(&player, "upid = ?", upid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(player)
}

// ListPlayers handles GET /players with optional status/county_id/search
// filters and limit/offset paging.
func (s *PlayerService) ListPlayers(c *fiber.Ctx) error {
	query := s.DB.Model(&models.PlayerRegistry{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if countyID := c.Query("county_id"); countyID != "" {
		query = query.Where("county_id = ?", countyID)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR upid ILIKE ?", like, like, like)
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

	var players []models.PlayerRegistry
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&players).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"players": players, "total": total, "limit": limit, "offset": offset})
}

// UpdatePlayer handles PUT /players/:upid. Registrar corrections only:
// status, geography and name fixes; dob/nationality/sex stay immutable.
func (s *PlayerService) UpdatePlayer(c *fiber.Ctx) error {
	upid := c.Params("upid")

	var player models.PlayerRegistry
	if err := s.DB.First(&player, "upid = ?", upid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	var req playerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	if req.FirstName != "" {
		player.FirstName = req.FirstName
	}
	if req.LastName != "" {
		player.LastName = req.LastName
	}
	if req.Status != "" {
		switch req.Status {
		case models.PlayerStatusActive, models.PlayerStatusInactive,
			models.PlayerStatusSuspended, models.PlayerStatusRetired:
			player.Status = req.Status
		default:
			return c.Status(400).JSON(fiber.Map{"error": "invalid status"})
		}
	}
	if req.WardID != nil && *req.WardID != "" {
		if err := s.resolveWardLineage(&player, *req.WardID); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
	}

	if err := s.DB.Save(&player).Error; err != nil {
		log.Printf("❌ [PLAYERS] Failed to update player %s: %v", upid, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update player"})
	}
	return c.JSON(player)
}

// --- Documents ---

// UploadDocument handles POST /players/:upid/documents (multipart)
func (s *PlayerService) UploadDocument(c *fiber.Ctx) error {
	upid := c.Params("upid")
	docType := c.FormValue("doc_type")
	if docType == "" {
		return c.Status(400).JSON(fiber.Map{"error": "doc_type is required"})
	}

	var player models.PlayerRegistry
	if err := s.DB.First(&player, "upid = ?", upid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	file, err := c.FormFile("file")
	if err != nil || file.Size == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "file is required"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".pdf"
	}
	key := "documents/" + upid + "/" + uuid.NewString() + ext
	url, err := utils.UploadFileToR2(file, key)
	if err != nil {
		log.Printf("❌ [DOCUMENTS] Upload failed for player %s: %v", upid, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to upload document"})
	}

	doc := models.PlayerDocument{
		ID:      uuid.NewString(),
		UPID:    upid,
		DocType: docType,
		FileURL: url,
	}
	if err := s.DB.Create(&doc).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to record document"})
	}

	log.Printf("✅ [DOCUMENTS] Uploaded %s document for player %s", docType, upid)
	return c.Status(201).JSON(doc)
}

// ListDocuments handles GET /players/:upid/documents
func (s *PlayerService) ListDocuments(c *fiber.Ctx) error {
	upid := c.Params("upid")

	var docs []models.PlayerDocument
	if err := s.DB.Where("upid = ?", upid).Order("created_at DESC").Find(&docs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"upid": upid, "documents": docs, "count": len(docs)})
}

// VerifyDocument handles PATCH /documents/:id/verify (registrar review)
func (s *PlayerService) VerifyDocument(c *fiber.Ctx) error {
	docID := c.Params("id")

	var doc models.PlayerDocument
	if err := s.DB.First(&doc, "id = ?", docID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "document not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	now := time.Now()
	doc.Verified = true
	doc.VerifiedAt = &now
	doc.VerifiedBy = userIDFromContext(c)

	if err := s.DB.Save(&doc).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to verify document"})
	}

	log.Printf("✅ [DOCUMENTS] Document %s verified by %s", docID, doc.VerifiedBy)
	return c.JSON(doc)
}

// --- Disciplinary records ---

type disciplinaryRequest struct {
	IncidentType     string `json:"incident_type"`
	Description      string `json:"description"`
	ServingStartDate string `json:"serving_start_date"`
	ServingEndDate   string `json:"serving_end_date"`
	MatchesSuspended int    `json:"matches_suspended"`
}

// CreateDisciplinaryRecord handles POST /players/:upid/disciplinary
func (s *PlayerService) CreateDisciplinaryRecord(c *fiber.Ctx) error {
	upid := c.Params("upid")

	var req disciplinaryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	switch req.IncidentType {
	case models.IncidentSuspension, models.IncidentRedCard, models.IncidentMisconduct:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "incident_type must be SUSPENSION, RED_CARD or MISCONDUCT"})
	}

	var count int64
	s.DB.Model(&models.PlayerRegistry{}).Where("upid = ?", upid).Count(&count)
	if count == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "player not found"})
	}

	record := models.DisciplinaryRecord{
		ID:               uuid.NewString(),
		UPID:             upid,
		IncidentType:     req.IncidentType,
		Status:           models.DisciplinaryStatusActive,
		Description:      req.Description,
		MatchesSuspended: req.MatchesSuspended,
		IssuedBy:         userIDFromContext(c),
	}
	if req.ServingStartDate != "" {
		d, err := parseISODate(req.ServingStartDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid serving_start_date (use YYYY-MM-DD)"})
		}
		record.ServingStartDate = &d
	}
	if req.ServingEndDate != "" {
		d, err := parseISODate(req.ServingEndDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid serving_end_date (use YYYY-MM-DD)"})
		}
		record.ServingEndDate = &d
	}

	if err := s.DB.Create(&record).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create disciplinary record"})
	}

	log.Printf("✅ [DISCIPLINARY] Recorded %s against player %s", record.IncidentType, upid)
	return c.Status(201).JSON(record)
}

// ListDisciplinaryRecords handles GET /players/:upid/disciplinary
func (s *PlayerService) ListDisciplinaryRecords(c *fiber.Ctx) error {
	upid := c.Params("upid")

	var records []models.DisciplinaryRecord
	if err := s.DB.Where("upid = ?", upid).Order("created_at DESC").Find(&records).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"upid": upid, "records": records, "count": len(records)})
}

// CloseDisciplinaryRecord handles PATCH /disciplinary/:id/close
func (s *PlayerService) CloseDisciplinaryRecord(c *fiber.Ctx) error {
	recordID := c.Params("id")

	res := s.DB.Model(&models.DisciplinaryRecord{}).Where("id = ?", recordID).
		Update("status", models.DisciplinaryStatusClosed)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to close record"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "record not found"})
	}
	return c.JSON(fiber.Map{"id": recordID, "status": models.DisciplinaryStatusClosed})
}

// --- Contracts ---

type contractRequest struct {
	TeamID    string `json:"team_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CreateContract handles POST /players/:upid/contracts
func (s *PlayerService) CreateContract(c *fiber.Ctx) error {
	upid := c.Params("upid")

	var req contractRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.TeamID == "" || req.StartDate == "" {
		return c.Status(400).JSON(fiber.Map{"error": "team_id and start_date are required"})
	}

	startDate, err := parseISODate(req.StartDate)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_date (use YYYY-MM-DD)"})
	}
	var endDate *time.Time
	if req.EndDate != "" {
		d, err := parseISODate(req.EndDate)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_date (use YYYY-MM-DD)"})
		}
		if d.Before(startDate) {
			return c.Status(400).JSON(fiber.Map{"error": "end_date precedes start_date"})
		}
		endDate = &d
	}

	var playerCount, teamCount int64
	s.DB.Model(&models.PlayerRegistry{}).Where("upid = ?", upid).Count(&playerCount)
	if playerCount == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "player not found"})
	}
	s.DB.Model(&models.Team{}).Where("id = ?", req.TeamID).Count(&teamCount)
	if teamCount == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "team_id not found"})
	}

	contract := models.Contract{
		ID:        uuid.NewString(),
		UPID:      upid,
		TeamID:    req.TeamID,
		Status:    models.ContractStatusActive,
		StartDate: startDate,
		EndDate:   endDate,
	}
	if err := s.DB.Create(&contract).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create contract"})
	}

	log.Printf("✅ [CONTRACTS] Player %s contracted to team %s", upid, req.TeamID)
	return c.Status(201).JSON(contract)
}

// ListContracts handles GET /players/:upid/contracts
func (s *PlayerService) ListContracts(c *fiber.Ctx) error {
	upid := c.Params("upid")

	var contracts []models.Contract
	if err := s.DB.Where("upid = ?", upid).Order("start_date DESC").Find(&contracts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"upid": upid, "contracts": contracts, "count": len(contracts)})
}

// TerminateContract handles PATCH /contracts/:id/terminate
func (s *PlayerService) TerminateContract(c *fiber.Ctx) error {
	contractID := c.Params("id")

	res := s.DB.Model(&models.Contract{}).Where("id = ?", contractID).
		Update("status", models.ContractStatusTerminated)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to terminate contract"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "contract not found"})
	}
	return c.JSON(fiber.Map{"id": contractID, "status": models.ContractStatusTerminated})
}
