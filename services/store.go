package services

import (
	"context"
	"errors"
	"fmt"

	"tournament-registry-system/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned by the store when an entity does not exist. The
// eligibility services convert it into a structured non-eligible result;
// every other store error propagates unchanged so "ineligible" and "could not
// determine" stay distinguishable end to end.
var ErrNotFound = errors.New("record not found")

// EligibilityStore is the read-only data access the evaluator needs. Keeping
// it behind an interface lets tests run against an in-memory double and keeps
// the engine free of any write path.
type EligibilityStore interface {
	GetPlayerByID(ctx context.Context, upid string) (*models.PlayerRegistry, error)
	GetActiveRulesForTournament(ctx context.Context, tournamentID string) ([]models.EligibilityRule, error)
	GetDocumentsForPlayer(ctx context.Context, upid string) ([]models.PlayerDocument, error)
	GetDisciplinaryRecordsForPlayer(ctx context.Context, upid string) ([]models.DisciplinaryRecord, error)
	GetContractsForPlayer(ctx context.Context, upid string) ([]models.Contract, error)
	GetTeamByID(ctx context.Context, id string) (*models.Team, error)
	GetTournamentByID(ctx context.Context, id string) (*models.Tournament, error)
}

// TeamDirectory lists teams for the participation filter's set queries.
type TeamDirectory interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// GormStore implements EligibilityStore and TeamDirectory against Postgres.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) GetPlayerByID(ctx context.Context, upid string) (*models.PlayerRegistry, error) {
	var player models.PlayerRegistry
	if err := s.DB.WithContext(ctx).First(&player, "upid = ?", upid).Error; err != nil {
		return nil, mapNotFound(err, "player %s", upid)
	}
	return &player, nil
}

func (s *GormStore) GetActiveRulesForTournament(ctx context.Context, tournamentID string) ([]models.EligibilityRule, error) {
	var rules []models.EligibilityRule
	err := s.DB.WithContext(ctx).
		Where("tournament_id = ? AND is_active = ?", tournamentID, true).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *GormStore) GetDocumentsForPlayer(ctx context.Context, upid string) ([]models.PlayerDocument, error) {
	var docs []models.PlayerDocument
	if err := s.DB.WithContext(ctx).Where("upid = ?", upid).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *GormStore) GetDisciplinaryRecordsForPlayer(ctx context.Context, upid string) ([]models.DisciplinaryRecord, error) {
	var records []models.DisciplinaryRecord
	if err := s.DB.WithContext(ctx).Where("upid = ?", upid).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *GormStore) GetContractsForPlayer(ctx context.Context, upid string) ([]models.Contract, error) {
	var contracts []models.Contract
	if err := s.DB.WithContext(ctx).Where("upid = ?", upid).Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (s *GormStore) GetTeamByID(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	if err := s.DB.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, "team %s", id)
	}
	return &team, nil
}

func (s *GormStore) GetTournamentByID(ctx context.Context, id string) (*models.Tournament, error) {
	var tournament models.Tournament
	if err := s.DB.WithContext(ctx).First(&tournament, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err, "tournament %s", id)
	}
	return &tournament, nil
}

func (s *GormStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := s.DB.WithContext(ctx).Order("name ASC, id ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func mapNotFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return err
}
