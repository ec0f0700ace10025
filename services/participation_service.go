package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tournament-registry-system/models"

	"github.com/gofiber/fiber/v2"
)

// Restriction codes reported by GEOGRAPHIC participation checks. All violated
// scopes are collected, not just the first, so the caller can show every
// mismatch at once.
const (
	RestrictionCounty    = "COUNTY_RESTRICTION"
	RestrictionSubCounty = "SUBCOUNTY_RESTRICTION"
	RestrictionWard      = "WARD_RESTRICTION"
)

// TeamEligibilityResult is the participation filter's verdict for one team.
type TeamEligibilityResult struct {
	TeamID       string   `json:"teamId,omitempty"`
	TournamentID string   `json:"tournamentId,omitempty"`
	IsEligible   bool     `json:"isEligible"`
	Reason       string   `json:"reason,omitempty"`
	Restrictions []string `json:"restrictions,omitempty"`
}

// ParticipationService decides which teams may register for a tournament
// based on its participation model. Coarser than the player rule engine and
// not rule-driven.
type ParticipationService struct {
	Store EligibilityStore
	Teams TeamDirectory
}

func NewParticipationService(store EligibilityStore, teams TeamDirectory) *ParticipationService {
	return &ParticipationService{Store: store, Teams: teams}
}

// DefaultParticipationModel maps a tournament's format to the participation
// model recommended when none was configured. Unrecognized formats fall back
// to ORGANIZATIONAL, the most restrictive default.
func DefaultParticipationModel(tournamentModel string) string {
	switch tournamentModel {
	case models.TournamentModelLeague:
		return models.ParticipationOrganizational
	case models.TournamentModelWard, models.TournamentModelSubCounty,
		models.TournamentModelCounty, models.TournamentModelNational:
		return models.ParticipationGeographic
	case models.TournamentModelInterCounty, models.TournamentModelIndependent:
		return models.ParticipationOpen
	default:
		return models.ParticipationOrganizational
	}
}

func effectiveParticipationModel(t *models.Tournament) string {
	switch t.ParticipationModel {
	case models.ParticipationOrganizational, models.ParticipationGeographic, models.ParticipationOpen:
		return t.ParticipationModel
	default:
		return DefaultParticipationModel(t.Model)
	}
}

// evaluateTeamParticipation is the pure predicate both the single-team check
// and the eligible-team listing apply, so the two can never disagree.
func evaluateTeamParticipation(tournament *models.Tournament, team *models.Team) *TeamEligibilityResult {
	result := &TeamEligibilityResult{TeamID: team.ID, TournamentID: tournament.ID}

	switch effectiveParticipationModel(tournament) {
	case models.ParticipationOpen:
		result.IsEligible = true
		result.Reason = "Open tournament, all teams may register"

	case models.ParticipationOrganizational:
		if team.OrgID == nil || *team.OrgID == "" {
			result.Reason = "Team has no organization affiliation"
			return result
		}
		if tournament.OrgID == nil || *team.OrgID != *tournament.OrgID {
			result.Reason = "Team belongs to a different organization"
			return result
		}
		result.IsEligible = true
		result.Reason = "Team belongs to the organizing organization"

	case models.ParticipationGeographic:
		if tournament.CountyID != nil && (team.CountyID == nil || *team.CountyID != *tournament.CountyID) {
			result.Restrictions = append(result.Restrictions, RestrictionCounty)
		}
		if tournament.SubCountyID != nil && (team.SubCountyID == nil || *team.SubCountyID != *tournament.SubCountyID) {
			result.Restrictions = append(result.Restrictions, RestrictionSubCounty)
		}
		if tournament.WardID != nil && (team.WardID == nil || *team.WardID != *tournament.WardID) {
			result.Restrictions = append(result.Restrictions, RestrictionWard)
		}
		if len(result.Restrictions) > 0 {
			result.Reason = fmt.Sprintf("Team is outside the tournament's area (%d scope(s) violated)", len(result.Restrictions))
			return result
		}
		result.IsEligible = true
		result.Reason = "Team is within the tournament's area"
	}
	return result
}

// CheckTeamEligibility reports whether one team may register for a
// tournament. Missing entities come back as a structured non-eligible result.
func (s *ParticipationService) CheckTeamEligibility(ctx context.Context, teamID, tournamentID string) (*TeamEligibilityResult, error) {
	tournament, err := s.Store.GetTournamentByID(ctx, tournamentID)
	if errors.Is(err, ErrNotFound) {
		return &TeamEligibilityResult{
			TeamID:       teamID,
			TournamentID: tournamentID,
			Reason:       fmt.Sprintf("Tournament %s not found", tournamentID),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	team, err := s.Store.GetTeamByID(ctx, teamID)
	if errors.Is(err, ErrNotFound) {
		return &TeamEligibilityResult{
			TeamID:       teamID,
			TournamentID: tournamentID,
			Reason:       fmt.Sprintf("Team %s not found", teamID),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return evaluateTeamParticipation(tournament, team), nil
}

// GetEligibleTeams returns every team the participation filter admits, in the
// directory's stable listing order. Applies the exact predicate of
// CheckTeamEligibility as a set filter.
func (s *ParticipationService) GetEligibleTeams(ctx context.Context, tournamentID string) ([]models.Team, error) {
	tournament, err := s.Store.GetTournamentByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	teams, err := s.Teams.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	eligible := make([]models.Team, 0, len(teams))
	for _, team := range teams {
		if evaluateTeamParticipation(tournament, &team).IsEligible {
			eligible = append(eligible, team)
		}
	}
	return eligible, nil
}

// --- HTTP endpoints ---

// CheckTeamEligibilityEndpoint handles GET /teams/:id/eligibility/:tournament_id
func (s *ParticipationService) CheckTeamEligibilityEndpoint(c *fiber.Ctx) error {
	teamID := c.Params("id")
	tournamentID := c.Params("tournament_id")

	result, err := s.CheckTeamEligibility(c.UserContext(), teamID, tournamentID)
	if err != nil {
		log.Printf("❌ [PARTICIPATION] Team check failed for team %s in tournament %s: %v", teamID, tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "could not determine team eligibility"})
	}
	return c.JSON(result)
}

// GetEligibleTeamsEndpoint handles GET /tournaments/:id/eligible-teams
func (s *ParticipationService) GetEligibleTeamsEndpoint(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	teams, err := s.GetEligibleTeams(c.UserContext(), tournamentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		log.Printf("❌ [PARTICIPATION] Eligible team listing failed for tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "could not list eligible teams"})
	}
	return c.JSON(fiber.Map{"tournament_id": tournamentID, "teams": teams, "count": len(teams)})
}
