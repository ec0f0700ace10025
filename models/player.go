package models

import (
	"time"

	"gorm.io/gorm"
)

// Player statuses (registry lifecycle)
const (
	PlayerStatusActive    = "ACTIVE"
	PlayerStatusInactive  = "INACTIVE"
	PlayerStatusSuspended = "SUSPENDED"
	PlayerStatusRetired   = "RETIRED"
)

// Disciplinary incident types / statuses
const (
	IncidentSuspension = "SUSPENSION"
	IncidentRedCard    = "RED_CARD"
	IncidentMisconduct = "MISCONDUCT"

	DisciplinaryStatusActive = "ACTIVE"
	DisciplinaryStatusClosed = "CLOSED"
)

// Contract statuses
const (
	ContractStatusActive     = "ACTIVE"
	ContractStatusTerminated = "TERMINATED"
	ContractStatusExpired    = "EXPIRED"
)

// PlayerRegistry is the canonical player record, keyed by UPID.
// Immutable once created except status/geography corrections by registrars.
type PlayerRegistry struct {
	UPID        string     `json:"upid" gorm:"primaryKey;column:upid"`
	FirstName   string     `json:"first_name" gorm:"not null"`
	LastName    string     `json:"last_name" gorm:"not null"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
	Sex         string     `json:"sex,omitempty"`
	Status      string     `json:"status" gorm:"type:varchar(16);default:'ACTIVE';not null"`

	// Geographic lineage: ward is authoritative, sub-county/county are
	// denormalized from the ward reference row at registration time.
	WardID      *string `json:"ward_id,omitempty" gorm:"index"`
	SubCountyID *string `json:"sub_county_id,omitempty" gorm:"index"`
	CountyID    *string `json:"county_id,omitempty" gorm:"index"`

	// Hash of the identity document used at registration (dedup check).
	IDDocumentHash string `json:"id_document_hash,omitempty" gorm:"index"`

	PhotoURL string `json:"photo_url,omitempty"`

	// Relationships
	Documents    []PlayerDocument     `json:"documents,omitempty" gorm:"foreignKey:UPID;references:UPID"`
	Disciplinary []DisciplinaryRecord `json:"disciplinary,omitempty" gorm:"foreignKey:UPID;references:UPID"`
	Contracts    []Contract           `json:"contracts,omitempty" gorm:"foreignKey:UPID;references:UPID"`

	Timestamps
}

func (PlayerRegistry) TableName() string {
	return "player_registry"
}

// PlayerDocument is an uploaded identity/supporting document awaiting or past
// registrar review. Never mutated by eligibility evaluation.
type PlayerDocument struct {
	ID         string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UPID       string     `json:"upid" gorm:"column:upid;index;not null"`
	DocType    string     `json:"doc_type" gorm:"not null"` // e.g. BIRTH_CERT, NATIONAL_ID, PASSPORT
	FileURL    string     `json:"file_url"`
	Verified   bool       `json:"verified" gorm:"default:false"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`

	Timestamps
}

// DisciplinaryRecord tracks sanctions against a player. A record is an active
// suspension when status is ACTIVE, the incident is SUSPENSION or RED_CARD,
// and either today falls inside the serving window or matches remain to serve.
type DisciplinaryRecord struct {
	ID               string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UPID             string     `json:"upid" gorm:"column:upid;index;not null"`
	IncidentType     string     `json:"incident_type" gorm:"type:varchar(32);not null"`
	Status           string     `json:"status" gorm:"type:varchar(16);default:'ACTIVE'"`
	Description      string     `json:"description,omitempty"`
	ServingStartDate *time.Time `json:"serving_start_date,omitempty"`
	ServingEndDate   *time.Time `json:"serving_end_date,omitempty"`
	MatchesSuspended int        `json:"matches_suspended" gorm:"default:0"`
	IssuedBy         string     `json:"issued_by,omitempty"`

	Timestamps
}

// dateOnly truncates a timestamp to its calendar date. Serving windows and
// contract periods are inclusive date ranges, so comparisons must not depend
// on the time of day the check runs.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ActiveSuspensionOn reports whether the record is an active suspension on the
// given date: ACTIVE status, a suspending incident type, and either the date
// falls inside the serving window or matches remain to be served.
func (d *DisciplinaryRecord) ActiveSuspensionOn(on time.Time) bool {
	if d.Status != DisciplinaryStatusActive {
		return false
	}
	if d.IncidentType != IncidentSuspension && d.IncidentType != IncidentRedCard {
		return false
	}
	if d.ServingStartDate != nil && d.ServingEndDate != nil {
		day := dateOnly(on)
		if !day.Before(dateOnly(*d.ServingStartDate)) && !day.After(dateOnly(*d.ServingEndDate)) {
			return true
		}
	}
	return d.MatchesSuspended > 0
}

// Contract binds a player to a team for a period. Open-ended when EndDate is nil.
type Contract struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UPID      string     `json:"upid" gorm:"column:upid;index;not null"`
	TeamID    string     `json:"team_id" gorm:"index;not null"`
	Status    string     `json:"status" gorm:"type:varchar(16);default:'ACTIVE'"`
	StartDate time.Time  `json:"start_date" gorm:"not null"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	Timestamps
}

// ValidForTeamOn reports whether the contract covers team on the given date.
// Both period bounds are inclusive calendar dates.
func (c *Contract) ValidForTeamOn(teamID string, on time.Time) bool {
	if c.Status != ContractStatusActive || c.TeamID != teamID {
		return false
	}
	day := dateOnly(on)
	if day.Before(dateOnly(c.StartDate)) {
		return false
	}
	if c.EndDate != nil && day.After(dateOnly(*c.EndDate)) {
		return false
	}
	return true
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
