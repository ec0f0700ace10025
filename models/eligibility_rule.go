package models

import (
	"encoding/json"
)

// Rule types the evaluator understands. Unknown types are skipped as
// auto-pass so newer admin UIs can ship rule types ahead of this service.
const (
	RuleAgeRange            = "AGE_RANGE"
	RuleGeographic          = "GEOGRAPHIC"
	RuleDocumentVerified    = "DOCUMENT_VERIFIED"
	RuleNoActiveSuspensions = "NO_ACTIVE_SUSPENSIONS"
	RuleValidContract       = "VALID_CONTRACT"
	RuleNationality         = "NATIONALITY"
	RuleGender              = "GENDER"
	RulePlayerStatus        = "PLAYER_STATUS"
)

// Rule severities. Only ERROR failures block eligibility; WARNING and INFO
// failures are reported but never gate the result.
const (
	SeverityError   = "ERROR"
	SeverityWarning = "WARNING"
	SeverityInfo    = "INFO"
)

// Geographic rule scopes
const (
	GeoScopeWard      = "WARD"
	GeoScopeSubCounty = "SUBCOUNTY"
	GeoScopeCounty    = "COUNTY"
)

// EligibilityRule is one configurable check attached to a tournament. The
// Config payload's shape depends on RuleType and is decoded by the evaluator.
// Soft-deactivated via IsActive, never mutated by evaluation.
type EligibilityRule struct {
	ID           string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TournamentID string          `json:"tournament_id" gorm:"index;not null"`
	Name         string          `json:"name" gorm:"not null"`
	RuleType     string          `json:"rule_type" gorm:"type:varchar(32);not null"`
	Severity     string          `json:"severity" gorm:"type:varchar(16);default:'ERROR'"`
	IsActive     bool            `json:"is_active" gorm:"default:true"`
	Config       json.RawMessage `json:"config,omitempty" gorm:"type:jsonb"`
	CreatedBy    string          `json:"created_by,omitempty"`

	Timestamps
}
