package models

import (
	"time"
)

// Tournament statuses
const (
	TournamentStatusDraft     = "draft"
	TournamentStatusPublished = "published"
	TournamentStatusCompleted = "completed"
	TournamentStatusCancelled = "cancelled"
)

// Tournament models (administrative level / format)
const (
	TournamentModelWard        = "WARD"
	TournamentModelSubCounty   = "SUB_COUNTY"
	TournamentModelCounty      = "COUNTY"
	TournamentModelNational    = "NATIONAL"
	TournamentModelInterCounty = "INTER_COUNTY"
	TournamentModelIndependent = "INDEPENDENT"
	TournamentModelLeague      = "LEAGUE"
)

// Participation models: which teams may register, independent of player rules.
const (
	ParticipationOrganizational = "ORGANIZATIONAL"
	ParticipationGeographic     = "GEOGRAPHIC"
	ParticipationOpen           = "OPEN"
)

// Tournament is a competition teams register into and players are cleared for.
type Tournament struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	Description string `json:"description"`
	Status      string `json:"status" gorm:"default:'draft'"`

	// Format / administrative level, drives the default participation model.
	Model              string `json:"model" gorm:"type:varchar(24)"`
	ParticipationModel string `json:"participation_model" gorm:"type:varchar(24)"`

	// Scoping for ORGANIZATIONAL / GEOGRAPHIC participation.
	OrgID       *string `json:"org_id,omitempty" gorm:"index"`
	CountyID    *string `json:"county_id,omitempty" gorm:"index"`
	SubCountyID *string `json:"sub_county_id,omitempty" gorm:"index"`
	WardID      *string `json:"ward_id,omitempty" gorm:"index"`

	MaxTeams     int        `json:"max_teams" gorm:"default:0"`
	MainPhotoURL string     `json:"main_photo_url"`
	StartTime    time.Time  `json:"start_time" gorm:"not null"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty" gorm:"index"`

	// Scheduled publishing (picked up by the publish scheduler).
	PublishSchedule *time.Time `json:"publish_schedule,omitempty"`

	// Relationships
	Rules []EligibilityRule `json:"rules,omitempty" gorm:"foreignKey:TournamentID"`

	// Calculated fields (not stored in DB)
	RegisteredTeamsCount   int64 `json:"registered_teams_count,omitempty" gorm:"-"`
	RegisteredPlayersCount int64 `json:"registered_players_count,omitempty" gorm:"-"`

	Timestamps
}

// MiniTournament is a brief summary of a tournament for listings.
type MiniTournament struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Slug               string     `json:"slug"`
	Status             string     `json:"status"`
	Model              string     `json:"model"`
	ParticipationModel string     `json:"participation_model"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	MainPhotoURL       string     `json:"main_photo_url"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	MaxTeams           int        `json:"max_teams"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Registration statuses
const (
	RegistrationStatusPending    = "pending"
	RegistrationStatusConfirmed  = "confirmed"
	RegistrationStatusRejected   = "rejected"
	RegistrationStatusOverridden = "overridden"
)

// TournamentRegistration records one player's entry into one tournament. The
// TPID is the tournament-scoped player identifier, distinct from the UPID.
type TournamentRegistration struct {
	TPID         string  `json:"tpid" gorm:"primaryKey;column:tpid"`
	TournamentID string  `json:"tournament_id" gorm:"index:idx_reg_tournament_player,unique;not null"`
	UPID         string  `json:"upid" gorm:"column:upid;index:idx_reg_tournament_player,unique;not null"`
	TeamID       *string `json:"team_id,omitempty" gorm:"index"`
	Status       string  `json:"status" gorm:"type:varchar(16);default:'pending'"`

	// Snapshot of failing checks at registration time, informational only.
	// Eligibility is always re-evaluated live, never read back from here.
	EligibleAtRegistration bool   `json:"eligible_at_registration"`
	FailedChecks           string `json:"failed_checks,omitempty" gorm:"type:text"`

	// Override bookkeeping (recorded here by the registration flow, never
	// consulted by the evaluator).
	OverriddenBy   string     `json:"overridden_by,omitempty"`
	OverrideReason string     `json:"override_reason,omitempty"`
	OverriddenAt   *time.Time `json:"overridden_at,omitempty"`

	Timestamps
}

// TeamEntry records a team's registration into a tournament, gated by the
// participation filter rather than player-level rules.
type TeamEntry struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TournamentID string `json:"tournament_id" gorm:"index:idx_entry_tournament_team,unique;not null"`
	TeamID       string `json:"team_id" gorm:"index:idx_entry_tournament_team,unique;not null"`
	Status       string `json:"status" gorm:"type:varchar(16);default:'pending'"`

	OverriddenBy   string     `json:"overridden_by,omitempty"`
	OverrideReason string     `json:"override_reason,omitempty"`
	OverriddenAt   *time.Time `json:"overridden_at,omitempty"`

	Timestamps
}
