package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tournament-registry-system/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds parallel subject evaluations in bulk checks.
const batchConcurrency = 8

// RuleCheck is one rule's verdict. Field names follow the UI contract
// (camelCase), unlike the snake_case CRUD entities.
type RuleCheck struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	RuleType string `json:"ruleType,omitempty"`
	Severity string `json:"severity,omitempty"`
	Passed   bool   `json:"passed"`
	Skipped  bool   `json:"skipped,omitempty"`
	Message  string `json:"message"`
}

// EligibilityResult aggregates all rule verdicts for one player against one
// tournament. Eligible is false iff at least one ERROR-severity rule failed;
// WARNING/INFO failures land in Warnings and CheckedRules but never gate.
type EligibilityResult struct {
	UPID         string      `json:"upid,omitempty"`
	TournamentID string      `json:"tournamentId,omitempty"`
	Eligible     bool        `json:"eligible"`
	Reasons      []string    `json:"reasons"`
	Warnings     []string    `json:"warnings,omitempty"`
	CheckedRules []RuleCheck `json:"checkedRules"`
}

// EligibilityService evaluates tournament eligibility rules against live
// registry data. Stateless and read-only: it never caches and never writes.
type EligibilityService struct {
	Store EligibilityStore

	// Now is the evaluation clock, overridable in tests.
	Now func() time.Time
}

func NewEligibilityService(store EligibilityStore) *EligibilityService {
	return &EligibilityService{Store: store, Now: time.Now}
}

// CheckEligibility evaluates every active rule of the tournament against the
// player. teamID may be empty unless a VALID_CONTRACT rule is configured.
// Missing entities come back as a structured ineligible result; storage
// failures come back as an error.
func (s *EligibilityService) CheckEligibility(ctx context.Context, upid, tournamentID, teamID string) (*EligibilityResult, error) {
	result := &EligibilityResult{
		UPID:         upid,
		TournamentID: tournamentID,
		Reasons:      []string{},
		CheckedRules: []RuleCheck{},
	}

	player, err := s.Store.GetPlayerByID(ctx, upid)
	if errors.Is(err, ErrNotFound) {
		msg := fmt.Sprintf("Player %s not found in registry", upid)
		result.Eligible = false
		result.Reasons = append(result.Reasons, msg)
		result.CheckedRules = append(result.CheckedRules, RuleCheck{
			RuleID:   "system",
			RuleName: "Player lookup",
			Passed:   false,
			Message:  msg,
		})
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	rules, err := s.Store.GetActiveRulesForTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	snap := &subjectSnapshot{Player: player, TeamID: teamID, Now: s.Now()}
	if err := s.loadRuleData(ctx, snap, rules); err != nil {
		return nil, err
	}

	result.Eligible = true
	for _, rule := range rules {
		verdict, skipped := evaluateRule(snap, rule)
		result.CheckedRules = append(result.CheckedRules, RuleCheck{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			RuleType: rule.RuleType,
			Severity: rule.Severity,
			Passed:   verdict.Passed,
			Skipped:  skipped,
			Message:  verdict.Message,
		})
		if verdict.Passed {
			continue
		}
		if rule.Severity == models.SeverityWarning || rule.Severity == models.SeverityInfo {
			result.Warnings = append(result.Warnings, verdict.Message)
			continue
		}
		result.Eligible = false
		result.Reasons = append(result.Reasons, verdict.Message)
	}
	return result, nil
}

// loadRuleData fetches the per-subject collections only when some rule in the
// set actually reads them.
func (s *EligibilityService) loadRuleData(ctx context.Context, snap *subjectSnapshot, rules []models.EligibilityRule) error {
	var needDocs, needDisciplinary, needContracts bool
	for _, rule := range rules {
		switch rule.RuleType {
		case models.RuleDocumentVerified:
			needDocs = true
		case models.RuleNoActiveSuspensions:
			needDisciplinary = true
		case models.RuleValidContract:
			needContracts = true
		}
	}

	var err error
	if needDocs {
		if snap.Documents, err = s.Store.GetDocumentsForPlayer(ctx, snap.Player.UPID); err != nil {
			return err
		}
	}
	if needDisciplinary {
		if snap.Disciplinary, err = s.Store.GetDisciplinaryRecordsForPlayer(ctx, snap.Player.UPID); err != nil {
			return err
		}
	}
	if needContracts {
		if snap.Contracts, err = s.Store.GetContractsForPlayer(ctx, snap.Player.UPID); err != nil {
			return err
		}
	}
	return nil
}

// CheckEligibilityBatch evaluates many players concurrently. Results come
// back in input order regardless of completion order.
func (s *EligibilityService) CheckEligibilityBatch(ctx context.Context, upids []string, tournamentID, teamID string) ([]*EligibilityResult, error) {
	results := make([]*EligibilityResult, len(upids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, upid := range upids {
		i, upid := i, upid
		g.Go(func() error {
			res, err := s.CheckEligibility(gctx, upid, tournamentID, teamID)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// --- HTTP endpoints ---

// CheckPlayerEligibility handles GET /tournaments/:id/eligibility/:upid
func (s *EligibilityService) CheckPlayerEligibility(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	upid := c.Params("upid")
	teamID := c.Query("team_id")

	result, err := s.CheckEligibility(c.UserContext(), upid, tournamentID, teamID)
	if err != nil {
		log.Printf("❌ [ELIGIBILITY] Check failed for player %s in tournament %s: %v", upid, tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "could not determine eligibility"})
	}
	return c.JSON(result)
}

type batchEligibilityRequest struct {
	UPIDs  []string `json:"upids"`
	TeamID string   `json:"team_id"`
}

// CheckPlayerEligibilityBatch handles POST /tournaments/:id/eligibility/batch
func (s *EligibilityService) CheckPlayerEligibilityBatch(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var req batchEligibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if len(req.UPIDs) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "upids is required"})
	}

	results, err := s.CheckEligibilityBatch(c.UserContext(), req.UPIDs, tournamentID, req.TeamID)
	if err != nil {
		log.Printf("❌ [ELIGIBILITY] Batch check failed for tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "could not determine eligibility"})
	}
	return c.JSON(fiber.Map{"tournament_id": tournamentID, "results": results})
}
