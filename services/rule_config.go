package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tournament-registry-system/models"
)

// ErrBadRuleConfig marks a rule whose config payload is malformed for its
// declared type. The evaluator skips such rules (fail-open) instead of letting
// an admin typo block every registration; the rule admin endpoints reject them
// at write time with the same validators.
var ErrBadRuleConfig = errors.New("malformed rule config")

// AgeRangeConfig bounds a player's age on a reference date. At least one of
// MinAge/MaxAge must be set. RequireDob defaults to true; when false, players
// without a recorded date of birth pass the rule instead of failing it.
type AgeRangeConfig struct {
	MinAge             *int   `json:"minAge,omitempty"`
	MaxAge             *int   `json:"maxAge,omitempty"`
	AgeCalculationDate string `json:"ageCalculationDate,omitempty"`
	RequireDob         *bool  `json:"requireDob,omitempty"`
}

// RequiresDob reports whether a missing date of birth fails the rule.
func (c *AgeRangeConfig) RequiresDob() bool {
	return c.RequireDob == nil || *c.RequireDob
}

// ReferenceDate returns the configured calculation date, or fallback when the
// config leaves it unset.
func (c *AgeRangeConfig) ReferenceDate(fallback time.Time) time.Time {
	if c.AgeCalculationDate == "" {
		return fallback
	}
	d, err := parseISODate(c.AgeCalculationDate)
	if err != nil {
		return fallback
	}
	return d
}

// GeographicConfig restricts players to a set of administrative units at one
// scope level. Membership is by exact id, never by name.
type GeographicConfig struct {
	Scope      string   `json:"scope"`
	AllowedIDs []string `json:"allowedIds"`
}

// NationalityConfig, GenderConfig and PlayerStatusConfig are allow-lists; an
// empty list means "no restriction", not "allow nothing".
type NationalityConfig struct {
	AllowedNationalities []string `json:"allowedNationalities"`
}

type GenderConfig struct {
	AllowedGenders []string `json:"allowedGenders"`
}

type PlayerStatusConfig struct {
	AllowedStatuses []string `json:"allowedStatuses"`
}

func parseISODate(s string) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}

func decodeConfig(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRuleConfig, err)
	}
	return nil
}

func decodeAgeRangeConfig(raw json.RawMessage) (*AgeRangeConfig, error) {
	var cfg AgeRangeConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.MinAge == nil && cfg.MaxAge == nil {
		return nil, fmt.Errorf("%w: AGE_RANGE needs at least one of minAge/maxAge", ErrBadRuleConfig)
	}
	if cfg.MinAge != nil && cfg.MaxAge != nil && *cfg.MinAge > *cfg.MaxAge {
		return nil, fmt.Errorf("%w: AGE_RANGE minAge %d exceeds maxAge %d", ErrBadRuleConfig, *cfg.MinAge, *cfg.MaxAge)
	}
	if cfg.AgeCalculationDate != "" {
		if _, err := parseISODate(cfg.AgeCalculationDate); err != nil {
			return nil, fmt.Errorf("%w: AGE_RANGE ageCalculationDate %q is not an ISO date", ErrBadRuleConfig, cfg.AgeCalculationDate)
		}
	}
	return &cfg, nil
}

func decodeGeographicConfig(raw json.RawMessage) (*GeographicConfig, error) {
	var cfg GeographicConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}
	switch cfg.Scope {
	case models.GeoScopeWard, models.GeoScopeSubCounty, models.GeoScopeCounty:
	case "":
		return nil, fmt.Errorf("%w: GEOGRAPHIC config missing scope", ErrBadRuleConfig)
	default:
		return nil, fmt.Errorf("%w: GEOGRAPHIC scope %q is not WARD/SUBCOUNTY/COUNTY", ErrBadRuleConfig, cfg.Scope)
	}
	if len(cfg.AllowedIDs) == 0 {
		return nil, fmt.Errorf("%w: GEOGRAPHIC config has no allowedIds", ErrBadRuleConfig)
	}
	return &cfg, nil
}

func decodeNationalityConfig(raw json.RawMessage) (*NationalityConfig, error) {
	var cfg NationalityConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeGenderConfig(raw json.RawMessage) (*GenderConfig, error) {
	var cfg GenderConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodePlayerStatusConfig(raw json.RawMessage) (*PlayerStatusConfig, error) {
	var cfg PlayerStatusConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateRuleConfig checks a config payload against its declared rule type.
// Used by the rule admin endpoints so malformed configs are rejected before
// they are ever stored; the evaluator applies the same decoders with a
// fail-open skip for rules that slipped through or predate validation.
func ValidateRuleConfig(ruleType string, raw json.RawMessage) error {
	switch ruleType {
	case models.RuleAgeRange:
		_, err := decodeAgeRangeConfig(raw)
		return err
	case models.RuleGeographic:
		_, err := decodeGeographicConfig(raw)
		return err
	case models.RuleNationality:
		_, err := decodeNationalityConfig(raw)
		return err
	case models.RuleGender:
		_, err := decodeGenderConfig(raw)
		return err
	case models.RulePlayerStatus:
		_, err := decodePlayerStatusConfig(raw)
		return err
	case models.RuleDocumentVerified, models.RuleNoActiveSuspensions, models.RuleValidContract:
		// No config for these types.
		return nil
	default:
		return fmt.Errorf("unsupported rule type %q", ruleType)
	}
}
