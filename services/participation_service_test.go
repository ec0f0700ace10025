package services

import (
	"context"
	"errors"
	"testing"

	"tournament-registry-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParticipationModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{models.TournamentModelLeague, models.ParticipationOrganizational},
		{models.TournamentModelWard, models.ParticipationGeographic},
		{models.TournamentModelSubCounty, models.ParticipationGeographic},
		{models.TournamentModelCounty, models.ParticipationGeographic},
		{models.TournamentModelNational, models.ParticipationGeographic},
		{models.TournamentModelInterCounty, models.ParticipationOpen},
		{models.TournamentModelIndependent, models.ParticipationOpen},
		{"", models.ParticipationOrganizational},
		{"SOMETHING_NEW", models.ParticipationOrganizational},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultParticipationModel(tt.model))
		})
	}
}

func TestCheckTeamEligibilityOrganizational(t *testing.T) {
	store := newMemoryStore()
	store.tournaments["t1"] = &models.Tournament{
		ID:                 "t1",
		ParticipationModel: models.ParticipationOrganizational,
		OrgID:              strPtr("org-1"),
	}
	store.teams["affiliated"] = &models.Team{ID: "affiliated", OrgID: strPtr("org-1")}
	store.teams["rival"] = &models.Team{ID: "rival", OrgID: strPtr("org-2")}
	store.teams["unaffiliated"] = &models.Team{ID: "unaffiliated"}
	svc := NewParticipationService(store, store)
	ctx := context.Background()

	t.Run("same organization is eligible", func(t *testing.T) {
		result, err := svc.CheckTeamEligibility(ctx, "affiliated", "t1")
		require.NoError(t, err)
		assert.True(t, result.IsEligible)
	})

	t.Run("different organization", func(t *testing.T) {
		result, err := svc.CheckTeamEligibility(ctx, "rival", "t1")
		require.NoError(t, err)
		assert.False(t, result.IsEligible)
		assert.Equal(t, "Team belongs to a different organization", result.Reason)
	})

	t.Run("no affiliation at all gets its own reason", func(t *testing.T) {
		result, err := svc.CheckTeamEligibility(ctx, "unaffiliated", "t1")
		require.NoError(t, err)
		assert.False(t, result.IsEligible)
		assert.Equal(t, "Team has no organization affiliation", result.Reason)
	})
}

func TestCheckTeamEligibilityGeographic(t *testing.T) {
	store := newMemoryStore()
	store.tournaments["t1"] = &models.Tournament{
		ID:                 "t1",
		ParticipationModel: models.ParticipationGeographic,
		CountyID:           strPtr("county-1"),
		SubCountyID:        strPtr("sc-1"),
	}
	store.teams["local"] = &models.Team{ID: "local", CountyID: strPtr("county-1"), SubCountyID: strPtr("sc-1")}
	store.teams["outsider"] = &models.Team{ID: "outsider", CountyID: strPtr("county-2"), SubCountyID: strPtr("sc-9")}
	store.teams["neighbor"] = &models.Team{ID: "neighbor", CountyID: strPtr("county-1"), SubCountyID: strPtr("sc-2")}
	svc := NewParticipationService(store, store)
	ctx := context.Background()

	t.Run("inside every scoped area", func(t *testing.T) {
		result, err := svc.CheckTeamEligibility(ctx, "local", "t1")
		require.NoError(t, err)
		assert.True(t, result.IsEligible)
		assert.Empty(t, result.Restrictions)
	})

	t.Run("every violated scope is reported", func(t *testing.T) {
		result, err := svc.CheckTeamEligibility(ctx, "outsider", "t1")
		require.NoError(t, err)
		assert.False(t, result.IsEligible)
		assert.Equal(t, []string{RestrictionCounty, RestrictionSubCounty}, result.Restrictions)
	})

	t.Run("single scope violation", func(t *testing.T) {
		result, err := svc.CheckTeamEligibility(ctx, "neighbor", "t1")
		require.NoError(t, err)
		assert.False(t, result.IsEligible)
		assert.Equal(t, []string{RestrictionSubCounty}, result.Restrictions)
	})

	t.Run("unscoped levels are not checked", func(t *testing.T) {
		// No ward scoping on the tournament, so teams without a ward pass.
		result, err := svc.CheckTeamEligibility(ctx, "local", "t1")
		require.NoError(t, err)
		assert.NotContains(t, result.Restrictions, RestrictionWard)
	})
}

func TestCheckTeamEligibilityOpen(t *testing.T) {
	store := newMemoryStore()
	store.tournaments["t1"] = &models.Tournament{ID: "t1", ParticipationModel: models.ParticipationOpen}
	store.teams["anyone"] = &models.Team{ID: "anyone"}
	svc := NewParticipationService(store, store)

	result, err := svc.CheckTeamEligibility(context.Background(), "anyone", "t1")
	require.NoError(t, err)
	assert.True(t, result.IsEligible)
}

func TestCheckTeamEligibilityModelFallback(t *testing.T) {
	store := newMemoryStore()
	// Participation model was never configured; the WARD format implies
	// geographic scoping.
	store.tournaments["t1"] = &models.Tournament{
		ID:     "t1",
		Model:  models.TournamentModelWard,
		WardID: strPtr("ward-1"),
	}
	store.teams["home"] = &models.Team{ID: "home", WardID: strPtr("ward-1")}
	store.teams["away"] = &models.Team{ID: "away", WardID: strPtr("ward-2")}
	svc := NewParticipationService(store, store)
	ctx := context.Background()

	home, err := svc.CheckTeamEligibility(ctx, "home", "t1")
	require.NoError(t, err)
	assert.True(t, home.IsEligible)

	away, err := svc.CheckTeamEligibility(ctx, "away", "t1")
	require.NoError(t, err)
	assert.False(t, away.IsEligible)
	assert.Equal(t, []string{RestrictionWard}, away.Restrictions)
}

func TestCheckTeamEligibilityNotFound(t *testing.T) {
	store := newMemoryStore()
	store.tournaments["t1"] = &models.Tournament{ID: "t1", ParticipationModel: models.ParticipationOpen}
	svc := NewParticipationService(store, store)
	ctx := context.Background()

	t.Run("missing tournament", func(t *testing.T) {
		result, err := svc.CheckTeamEligibility(ctx, "team-1", "t-missing")
		require.NoError(t, err)
		assert.False(t, result.IsEligible)
		assert.Contains(t, result.Reason, "Tournament t-missing not found")
	})

	t.Run("missing team", func(t *testing.T) {
		result, err := svc.CheckTeamEligibility(ctx, "team-missing", "t1")
		require.NoError(t, err)
		assert.False(t, result.IsEligible)
		assert.Contains(t, result.Reason, "Team team-missing not found")
	})

	t.Run("store failure is an error, not a verdict", func(t *testing.T) {
		broken := newMemoryStore()
		broken.err = errors.New("connection refused")
		brokenSvc := NewParticipationService(broken, broken)
		result, err := brokenSvc.CheckTeamEligibility(ctx, "team-1", "t1")
		require.Error(t, err)
		assert.Nil(t, result)
	})
}

func TestGetEligibleTeams(t *testing.T) {
	store := newMemoryStore()
	store.tournaments["t1"] = &models.Tournament{
		ID:                 "t1",
		ParticipationModel: models.ParticipationGeographic,
		CountyID:           strPtr("county-1"),
	}
	inside := models.Team{ID: "a", Name: "Alpha", CountyID: strPtr("county-1")}
	outside := models.Team{ID: "b", Name: "Bravo", CountyID: strPtr("county-2")}
	insideToo := models.Team{ID: "c", Name: "Charlie", CountyID: strPtr("county-1")}
	store.teamList = []models.Team{inside, outside, insideToo}
	for i := range store.teamList {
		store.teams[store.teamList[i].ID] = &store.teamList[i]
	}
	svc := NewParticipationService(store, store)
	ctx := context.Background()

	teams, err := svc.GetEligibleTeams(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "a", teams[0].ID)
	assert.Equal(t, "c", teams[1].ID)

	// The listing admits exactly the teams the single check admits.
	admitted := map[string]bool{}
	for _, team := range teams {
		admitted[team.ID] = true
	}
	for id := range store.teams {
		single, err := svc.CheckTeamEligibility(ctx, id, "t1")
		require.NoError(t, err)
		assert.Equal(t, single.IsEligible, admitted[id], "team %s", id)
	}
}

func TestGetEligibleTeamsMissingTournament(t *testing.T) {
	store := newMemoryStore()
	svc := NewParticipationService(store, store)

	teams, err := svc.GetEligibleTeams(context.Background(), "t-missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, teams)
}
