package models

import "time"

// County, SubCounty and Ward are read-only mirrors of the national registry's
// administrative units, kept fresh by the geography sync worker. Ward lineage
// (ward -> sub-county -> county) is what player records are denormalized from.

type County struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Code      string    `json:"code,omitempty" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type SubCounty struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CountyID  string    `json:"county_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type Ward struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	SubCountyID string    `json:"sub_county_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
