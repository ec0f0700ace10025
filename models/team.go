package models

// Team statuses
const (
	TeamStatusActive   = "ACTIVE"
	TeamStatusInactive = "INACTIVE"
)

// Team is a registered club/side. Org and geography bindings are optional and
// drive tournament participation checks.
type Team struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name   string `json:"name" gorm:"not null"`
	Slug   string `json:"slug" gorm:"uniqueIndex"`
	Status string `json:"status" gorm:"type:varchar(16);default:'ACTIVE'"`

	OrgID       *string `json:"org_id,omitempty" gorm:"index"`
	CountyID    *string `json:"county_id,omitempty" gorm:"index"`
	SubCountyID *string `json:"sub_county_id,omitempty" gorm:"index"`
	WardID      *string `json:"ward_id,omitempty" gorm:"index"`

	LogoURL      string `json:"logo_url,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	Timestamps
}
