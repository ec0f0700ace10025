package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tournament-registry-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory EligibilityStore and TeamDirectory double.
// When err is set every call fails with it, to exercise error propagation.
type memoryStore struct {
	players      map[string]*models.PlayerRegistry
	rules        map[string][]models.EligibilityRule
	documents    map[string][]models.PlayerDocument
	disciplinary map[string][]models.DisciplinaryRecord
	contracts    map[string][]models.Contract
	teams        map[string]*models.Team
	tournaments  map[string]*models.Tournament
	teamList     []models.Team
	err          error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		players:      map[string]*models.PlayerRegistry{},
		rules:        map[string][]models.EligibilityRule{},
		documents:    map[string][]models.PlayerDocument{},
		disciplinary: map[string][]models.DisciplinaryRecord{},
		contracts:    map[string][]models.Contract{},
		teams:        map[string]*models.Team{},
		tournaments:  map[string]*models.Tournament{},
	}
}

func (m *memoryStore) GetPlayerByID(_ context.Context, upid string) (*models.PlayerRegistry, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.players[upid]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) GetActiveRulesForTournament(_ context.Context, tournamentID string) ([]models.EligibilityRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var active []models.EligibilityRule
	for _, r := range m.rules[tournamentID] {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

func (m *memoryStore) GetDocumentsForPlayer(_ context.Context, upid string) ([]models.PlayerDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.documents[upid], nil
}

func (m *memoryStore) GetDisciplinaryRecordsForPlayer(_ context.Context, upid string) ([]models.DisciplinaryRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.disciplinary[upid], nil
}

func (m *memoryStore) GetContractsForPlayer(_ context.Context, upid string) ([]models.Contract, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.contracts[upid], nil
}

func (m *memoryStore) GetTeamByID(_ context.Context, id string) (*models.Team, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) GetTournamentByID(_ context.Context, id string) (*models.Tournament, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) ListTeams(_ context.Context) ([]models.Team, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.teamList, nil
}

func rawConfig(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func newTestService(store *memoryStore, now time.Time) *EligibilityService {
	svc := NewEligibilityService(store)
	svc.Now = func() time.Time { return now }
	return svc
}

func TestCheckEligibilityPlayerNotFound(t *testing.T) {
	store := newMemoryStore()
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", TournamentID: "t1", Name: "Min age", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, AgeRangeConfig{MinAge: intPtr(16)})},
	}
	svc := newTestService(store, date(2024, 6, 1))

	result, err := svc.CheckEligibility(context.Background(), "UP-MISSING", "t1", "")
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, []string{"Player UP-MISSING not found in registry"}, result.Reasons)
	// No rules run against a player that does not exist.
	require.Len(t, result.CheckedRules, 1)
	assert.Equal(t, "system", result.CheckedRules[0].RuleID)
	assert.False(t, result.CheckedRules[0].Passed)
}

func TestCheckEligibilityStoreErrorPropagates(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	svc := newTestService(store, date(2024, 6, 1))

	result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestCheckEligibilityNoRules(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1", Status: models.PlayerStatusActive}
	svc := newTestService(store, date(2024, 6, 1))

	result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	assert.True(t, result.Eligible)
	assert.Empty(t, result.Reasons)
	assert.Empty(t, result.CheckedRules)
}

func TestCheckEligibilityInactiveRulesIgnored(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1", DateOfBirth: datePtr(2010, 1, 1)}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Retired min age", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: false,
			Config: rawConfig(t, AgeRangeConfig{MinAge: intPtr(30)})},
		{ID: "r2", Name: "Min age", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, AgeRangeConfig{MinAge: intPtr(10)})},
	}
	svc := newTestService(store, date(2024, 6, 1))

	result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	assert.True(t, result.Eligible)
	require.Len(t, result.CheckedRules, 1)
	assert.Equal(t, "r2", result.CheckedRules[0].RuleID)
}

func TestCheckEligibilityMalformedConfigSkipped(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1", DateOfBirth: datePtr(2010, 1, 1)}
	store.rules["t1"] = []models.EligibilityRule{
		// No bounds at all, the rule cannot mean anything.
		{ID: "r1", Name: "Broken age rule", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: json.RawMessage(`{}`)},
		{ID: "r2", Name: "Min age", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, AgeRangeConfig{MinAge: intPtr(10)})},
	}
	svc := newTestService(store, date(2024, 6, 1))

	result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	// One bad rule never blocks the whole evaluation.
	assert.True(t, result.Eligible)
	require.Len(t, result.CheckedRules, 2)
	assert.True(t, result.CheckedRules[0].Skipped)
	assert.True(t, result.CheckedRules[0].Passed)
	assert.False(t, result.CheckedRules[1].Skipped)
}

func TestCheckEligibilityUnknownRuleTypeSkipped(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1"}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Future check", RuleType: "BIOMETRIC_MATCH", Severity: models.SeverityError, IsActive: true},
	}
	svc := newTestService(store, date(2024, 6, 1))

	result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	assert.True(t, result.Eligible)
	require.Len(t, result.CheckedRules, 1)
	assert.True(t, result.CheckedRules[0].Skipped)
}

func TestCheckEligibilitySeverityGating(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1", Nationality: "UG", DateOfBirth: datePtr(2010, 1, 1)}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Preferred nationality", RuleType: models.RuleNationality, Severity: models.SeverityWarning, IsActive: true,
			Config: rawConfig(t, NationalityConfig{AllowedNationalities: []string{"KE"}})},
		{ID: "r2", Name: "Min age", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, AgeRangeConfig{MinAge: intPtr(10)})},
	}
	svc := newTestService(store, date(2024, 6, 1))

	result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	// The warning-severity failure is surfaced but does not gate.
	assert.True(t, result.Eligible)
	assert.Empty(t, result.Reasons)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "UG")
	require.Len(t, result.CheckedRules, 2)
	assert.False(t, result.CheckedRules[0].Passed)
	assert.True(t, result.CheckedRules[1].Passed)
}

func TestCheckEligibilityAggregatesAllFailures(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1", DateOfBirth: datePtr(2000, 1, 1), Status: models.PlayerStatusSuspended}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Youth age cap", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, AgeRangeConfig{MaxAge: intPtr(18)})},
		{ID: "r2", Name: "Active players only", RuleType: models.RulePlayerStatus, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, PlayerStatusConfig{AllowedStatuses: []string{models.PlayerStatusActive}})},
		{ID: "r3", Name: "Verified identity", RuleType: models.RuleDocumentVerified, Severity: models.SeverityError, IsActive: true},
	}
	store.documents["UP-1"] = []models.PlayerDocument{{DocType: "NATIONAL_ID", Verified: true}}
	svc := newTestService(store, date(2024, 6, 1))

	result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	// Every failure is reported, not just the first.
	assert.Len(t, result.Reasons, 2)
	assert.Len(t, result.CheckedRules, 3)
}

func TestCheckEligibilityEligibleIffNoFailingErrorRule(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{
		UPID:        "UP-1",
		DateOfBirth: datePtr(2008, 5, 10),
		Nationality: "KE",
		Status:      models.PlayerStatusActive,
		CountyID:    strPtr("county-1"),
	}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Min age", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, AgeRangeConfig{MinAge: intPtr(16)})},
		{ID: "r2", Name: "Home county", RuleType: models.RuleGeographic, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, GeographicConfig{Scope: models.GeoScopeCounty, AllowedIDs: []string{"county-1"}})},
		{ID: "r3", Name: "Active players only", RuleType: models.RulePlayerStatus, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, PlayerStatusConfig{AllowedStatuses: []string{models.PlayerStatusActive}})},
	}
	svc := newTestService(store, date(2024, 11, 30))

	result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	assert.True(t, result.Eligible)
	assert.Empty(t, result.Reasons)
	for _, check := range result.CheckedRules {
		assert.True(t, check.Passed, check.Message)
	}
}

func TestCheckEligibilityDeterministic(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1", DateOfBirth: datePtr(2009, 3, 1), Nationality: "KE"}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Min age", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, AgeRangeConfig{MinAge: intPtr(16)})},
		{ID: "r2", Name: "Nationality", RuleType: models.RuleNationality, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, NationalityConfig{AllowedNationalities: []string{"KE"}})},
	}
	svc := newTestService(store, date(2024, 6, 1))

	first, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	second, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckEligibilityContractNeedsTeam(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1"}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Contracted players", RuleType: models.RuleValidContract, Severity: models.SeverityError, IsActive: true},
	}
	store.contracts["UP-1"] = []models.Contract{
		{UPID: "UP-1", TeamID: "team-1", Status: models.ContractStatusActive, StartDate: date(2024, 1, 1)},
	}
	svc := newTestService(store, date(2024, 6, 1))

	t.Run("without team context", func(t *testing.T) {
		result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		require.Len(t, result.Reasons, 1)
		assert.Contains(t, result.Reasons[0], "No team specified")
	})

	t.Run("with team context", func(t *testing.T) {
		result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "team-1")
		require.NoError(t, err)
		assert.True(t, result.Eligible)
	})
}

func TestCheckEligibilityTemporalRulesOnBoundaryAfternoon(t *testing.T) {
	// Serving windows and contract periods are inclusive calendar dates, so a
	// mid-afternoon evaluation on the boundary day must match a midnight one.
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1"}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Clean record", RuleType: models.RuleNoActiveSuspensions, Severity: models.SeverityError, IsActive: true},
	}
	store.disciplinary["UP-1"] = []models.DisciplinaryRecord{{
		UPID:             "UP-1",
		IncidentType:     models.IncidentSuspension,
		Status:           models.DisciplinaryStatusActive,
		ServingStartDate: datePtr(2024, 1, 1),
		ServingEndDate:   datePtr(2024, 1, 10),
	}}
	store.rules["t2"] = []models.EligibilityRule{
		{ID: "r2", Name: "Contracted players", RuleType: models.RuleValidContract, Severity: models.SeverityError, IsActive: true},
	}
	store.contracts["UP-1"] = []models.Contract{{
		UPID:      "UP-1",
		TeamID:    "team-1",
		Status:    models.ContractStatusActive,
		StartDate: date(2024, 1, 1),
		EndDate:   datePtr(2024, 6, 30),
	}}

	t.Run("suspension holds through the last serving day", func(t *testing.T) {
		svc := newTestService(store, time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC))
		result, err := svc.CheckEligibility(context.Background(), "UP-1", "t1", "")
		require.NoError(t, err)
		assert.False(t, result.Eligible)
		require.Len(t, result.Reasons, 1)
		assert.Contains(t, result.Reasons[0], "active suspension")
	})

	t.Run("contract covers the whole end date", func(t *testing.T) {
		svc := newTestService(store, time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC))
		result, err := svc.CheckEligibility(context.Background(), "UP-1", "t2", "team-1")
		require.NoError(t, err)
		assert.True(t, result.Eligible)
	})
}

func TestCheckEligibilityBatch(t *testing.T) {
	store := newMemoryStore()
	store.players["UP-1"] = &models.PlayerRegistry{UPID: "UP-1", DateOfBirth: datePtr(2008, 1, 1)}
	store.players["UP-2"] = &models.PlayerRegistry{UPID: "UP-2", DateOfBirth: datePtr(2012, 1, 1)}
	store.rules["t1"] = []models.EligibilityRule{
		{ID: "r1", Name: "Min age", RuleType: models.RuleAgeRange, Severity: models.SeverityError, IsActive: true,
			Config: rawConfig(t, AgeRangeConfig{MinAge: intPtr(16)})},
	}
	svc := newTestService(store, date(2024, 6, 1))

	results, err := svc.CheckEligibilityBatch(context.Background(), []string{"UP-1", "UP-3", "UP-2"}, "t1", "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	// Results stay aligned with the input order.
	assert.Equal(t, "UP-1", results[0].UPID)
	assert.True(t, results[0].Eligible)
	assert.Equal(t, "UP-3", results[1].UPID)
	assert.False(t, results[1].Eligible)
	assert.Equal(t, "UP-2", results[2].UPID)
	assert.False(t, results[2].Eligible)
}

func TestCheckEligibilityBatchStoreError(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	svc := newTestService(store, date(2024, 6, 1))

	results, err := svc.CheckEligibilityBatch(context.Background(), []string{"UP-1", "UP-2"}, "t1", "")
	require.Error(t, err)
	assert.Nil(t, results)
}
