package services

import (
	"encoding/json"
	"errors"
	"log"

	"tournament-registry-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RuleService manages tournament eligibility rules (admin surface). Config
// payloads are validated on write with the same decoders the evaluator uses.
type RuleService struct {
	DB *gorm.DB
}

func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{DB: db}
}

type ruleRequest struct {
	Name     string          `json:"name"`
	RuleType string          `json:"rule_type"`
	Severity string          `json:"severity"`
	IsActive *bool           `json:"is_active"`
	Config   json.RawMessage `json:"config"`
}

// CreateRule handles POST /tournaments/:id/rules
func (s *RuleService) CreateRule(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Name == "" || req.RuleType == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name and rule_type are required"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	if err := ValidateRuleConfig(req.RuleType, req.Config); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid rule config", "details": err.Error()})
	}

	severity := req.Severity
	switch severity {
	case "":
		severity = models.SeverityError
	case models.SeverityError, models.SeverityWarning, models.SeverityInfo:
	default:
		return c.Status(400).JSON(fiber.Map{"error": "severity must be ERROR, WARNING or INFO"})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule := models.EligibilityRule{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Name:         req.Name,
		RuleType:     req.RuleType,
		Severity:     severity,
		IsActive:     isActive,
		Config:       req.Config,
		CreatedBy:    userIDFromContext(c),
	}
	if err := s.DB.Create(&rule).Error; err != nil {
		log.Printf("❌ [RULES] Failed to create rule for tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create rule"})
	}

	log.Printf("✅ [RULES] Created %s rule %q for tournament %s", rule.RuleType, rule.Name, tournamentID)
	return c.Status(201).JSON(rule)
}

// GetRulesForTournament handles GET /tournaments/:id/rules (admin view,
// inactive rules included).
func (s *RuleService) GetRulesForTournament(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var rules []models.EligibilityRule
	err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}
	return c.JSON(fiber.Map{"tournament_id": tournamentID, "rules": rules, "count": len(rules)})
}

// UpdateRule handles PUT /rules/:id
func (s *RuleService) UpdateRule(c *fiber.Ctx) error {
	ruleID := c.Params("id")

	var rule models.EligibilityRule
	if err := s.DB.First(&rule, "id = ?", ruleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "rule not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "database error"})
	}

	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	if req.Name != "" {
		rule.Name = req.Name
	}
	if req.RuleType != "" {
		rule.RuleType = req.RuleType
	}
	if req.Severity != "" {
		switch req.Severity {
		case models.SeverityError, models.SeverityWarning, models.SeverityInfo:
			rule.Severity = req.Severity
		default:
			return c.Status(400).JSON(fiber.Map{"error": "severity must be ERROR, WARNING or INFO"})
		}
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.Config != nil {
		rule.Config = req.Config
	}

	if err := ValidateRuleConfig(rule.RuleType, rule.Config); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid rule config", "details": err.Error()})
	}

	if err := s.DB.Save(&rule).Error; err != nil {
		log.Printf("❌ [RULES] Failed to update rule %s: %v", ruleID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to update rule"})
	}
	return c.JSON(rule)
}

// SetRuleActive handles PATCH /rules/:id/active with {"is_active": bool}.
// Deactivation is the soft off-switch; rules are never deleted by evaluation.
func (s *RuleService) SetRuleActive(c *fiber.Ctx) error {
	ruleID := c.Params("id")

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return c.Status(400).JSON(fiber.Map{"error": "is_active is required"})
	}

	res := s.DB.Model(&models.EligibilityRule{}).Where("id = ?", ruleID).Update("is_active", *req.IsActive)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update rule"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "rule not found"})
	}
	return c.JSON(fiber.Map{"id": ruleID, "is_active": *req.IsActive})
}

// DeleteRule handles DELETE /rules/:id (soft delete)
func (s *RuleService) DeleteRule(c *fiber.Ctx) error {
	ruleID := c.Params("id")

	res := s.DB.Delete(&models.EligibilityRule{}, "id = ?", ruleID)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete rule"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "rule not found"})
	}
	return c.JSON(fiber.Map{"message": "rule deleted"})
}

// userIDFromContext reads the user id set by the user-context middleware.
func userIDFromContext(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}
