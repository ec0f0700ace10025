package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"tournament-registry-system/models"
)

// subjectSnapshot is the read-only view of one player the per-rule evaluators
// run against. Documents/Disciplinary/Contracts are loaded only when the
// tournament's rule set actually needs them.
type subjectSnapshot struct {
	Player       *models.PlayerRegistry
	TeamID       string
	Documents    []models.PlayerDocument
	Disciplinary []models.DisciplinaryRecord
	Contracts    []models.Contract
	Now          time.Time
}

type ruleVerdict struct {
	Passed  bool
	Message string
}

func pass(format string, args ...any) ruleVerdict {
	return ruleVerdict{Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) ruleVerdict {
	return ruleVerdict{Passed: false, Message: fmt.Sprintf(format, args...)}
}

// evaluateRule dispatches one rule to its type-specific evaluator. The second
// return is true when the rule was skipped (malformed config or unknown type)
// rather than genuinely evaluated; skipped rules count as passing.
func evaluateRule(snap *subjectSnapshot, rule models.EligibilityRule) (ruleVerdict, bool) {
	switch rule.RuleType {
	case models.RuleAgeRange:
		cfg, err := decodeAgeRangeConfig(rule.Config)
		if err != nil {
			return skipRule(rule, err), true
		}
		return evaluateAgeRange(snap, cfg), false
	case models.RuleGeographic:
		cfg, err := decodeGeographicConfig(rule.Config)
		if err != nil {
			return skipRule(rule, err), true
		}
		return evaluateGeographic(snap, cfg), false
	case models.RuleDocumentVerified:
		return evaluateDocumentVerified(snap), false
	case models.RuleNoActiveSuspensions:
		return evaluateNoActiveSuspensions(snap), false
	case models.RuleValidContract:
		return evaluateValidContract(snap), false
	case models.RuleNationality:
		cfg, err := decodeNationalityConfig(rule.Config)
		if err != nil {
			return skipRule(rule, err), true
		}
		return evaluateNationality(snap, cfg), false
	case models.RuleGender:
		cfg, err := decodeGenderConfig(rule.Config)
		if err != nil {
			return skipRule(rule, err), true
		}
		return evaluateGender(snap, cfg), false
	case models.RulePlayerStatus:
		cfg, err := decodePlayerStatusConfig(rule.Config)
		if err != nil {
			return skipRule(rule, err), true
		}
		return evaluatePlayerStatus(snap, cfg), false
	default:
		log.Printf("⚠️ [ELIGIBILITY] Rule %s (%s) has unsupported type %q, skipping", rule.ID, rule.Name, rule.RuleType)
		return pass("Rule type %q is not supported by this service, rule skipped", rule.RuleType), true
	}
}

func skipRule(rule models.EligibilityRule, err error) ruleVerdict {
	log.Printf("⚠️ [ELIGIBILITY] Rule %s (%s) skipped: %v", rule.ID, rule.Name, err)
	return pass("Rule skipped: %v", err)
}

// ageOn computes whole years between dob and ref with calendar truncation:
// subtract the years, then take one off when ref falls before the birthday
// that year. Dividing millisecond deltas by a fixed-length year is off by one
// around birthdays and leap years, which is exactly where min/max age rules
// get contested.
func ageOn(dob, ref time.Time) int {
	years := ref.Year() - dob.Year()
	if ref.Month() < dob.Month() || (ref.Month() == dob.Month() && ref.Day() < dob.Day()) {
		years--
	}
	return years
}

func evaluateAgeRange(snap *subjectSnapshot, cfg *AgeRangeConfig) ruleVerdict {
	if snap.Player.DateOfBirth == nil {
		if !cfg.RequiresDob() {
			return pass("Player has no date of birth on record, age rule waived")
		}
		return fail("Player has no date of birth on record, cannot verify age")
	}
	ref := cfg.ReferenceDate(snap.Now)
	age := ageOn(*snap.Player.DateOfBirth, ref)
	if cfg.MinAge != nil && age < *cfg.MinAge {
		return fail("Player is %d years old, minimum age is %d", age, *cfg.MinAge)
	}
	if cfg.MaxAge != nil && age > *cfg.MaxAge {
		return fail("Player is %d years old, maximum age is %d", age, *cfg.MaxAge)
	}
	return pass("Player is %d years old, within the allowed age range", age)
}

func evaluateGeographic(snap *subjectSnapshot, cfg *GeographicConfig) ruleVerdict {
	var id *string
	var label string
	switch cfg.Scope {
	case models.GeoScopeWard:
		id, label = snap.Player.WardID, "ward"
	case models.GeoScopeSubCounty:
		id, label = snap.Player.SubCountyID, "sub-county"
	case models.GeoScopeCounty:
		id, label = snap.Player.CountyID, "county"
	default:
		return fail("Geographic rule has unsupported scope %q", cfg.Scope)
	}
	if id == nil || *id == "" {
		return fail("Player has no %s on record", label)
	}
	for _, allowed := range cfg.AllowedIDs {
		if *id == allowed {
			return pass("Player's %s %s is within the allowed area", label, *id)
		}
	}
	return fail("Player's %s %s is not among the %d allowed %ss", label, *id, len(cfg.AllowedIDs), label)
}

func evaluateDocumentVerified(snap *subjectSnapshot) ruleVerdict {
	verified := 0
	for _, doc := range snap.Documents {
		if doc.Verified {
			verified++
		}
	}
	if verified == 0 {
		return fail("Player has no verified documents (%d on file)", len(snap.Documents))
	}
	return pass("Player has %d verified document(s)", verified)
}

func evaluateNoActiveSuspensions(snap *subjectSnapshot) ruleVerdict {
	active := 0
	for _, rec := range snap.Disciplinary {
		if rec.ActiveSuspensionOn(snap.Now) {
			active++
		}
	}
	if active > 0 {
		return fail("Player has %d active suspension(s)", active)
	}
	return pass("Player has no active suspensions")
}

func evaluateValidContract(snap *subjectSnapshot) ruleVerdict {
	if snap.TeamID == "" {
		return fail("No team specified, cannot verify contract")
	}
	for _, contract := range snap.Contracts {
		if contract.ValidForTeamOn(snap.TeamID, snap.Now) {
			return pass("Player holds a valid contract with team %s", snap.TeamID)
		}
	}
	return fail("Player has no valid contract with team %s (%d contract(s) on file)", snap.TeamID, len(snap.Contracts))
}

func evaluateNationality(snap *subjectSnapshot, cfg *NationalityConfig) ruleVerdict {
	if len(cfg.AllowedNationalities) == 0 {
		return pass("No nationality restriction configured")
	}
	if snap.Player.Nationality == "" {
		return fail("Player has no nationality on record")
	}
	for _, allowed := range cfg.AllowedNationalities {
		if snap.Player.Nationality == allowed {
			return pass("Player's nationality %s is allowed", snap.Player.Nationality)
		}
	}
	return fail("Player's nationality %s is not among the allowed nationalities (%s)",
		snap.Player.Nationality, strings.Join(cfg.AllowedNationalities, ", "))
}

func evaluateGender(snap *subjectSnapshot, cfg *GenderConfig) ruleVerdict {
	if len(cfg.AllowedGenders) == 0 {
		return pass("No gender restriction configured")
	}
	if snap.Player.Sex == "" {
		return fail("Player has no gender on record")
	}
	for _, allowed := range cfg.AllowedGenders {
		if snap.Player.Sex == allowed {
			return pass("Player's gender %s is allowed", snap.Player.Sex)
		}
	}
	return fail("Player's gender %s is not among the allowed genders (%s)",
		snap.Player.Sex, strings.Join(cfg.AllowedGenders, ", "))
}

func evaluatePlayerStatus(snap *subjectSnapshot, cfg *PlayerStatusConfig) ruleVerdict {
	if len(cfg.AllowedStatuses) == 0 {
		return pass("No player status restriction configured")
	}
	for _, allowed := range cfg.AllowedStatuses {
		if snap.Player.Status == allowed {
			return pass("Player status %s is allowed", snap.Player.Status)
		}
	}
	return fail("Player status %s is not among the allowed statuses (%s)",
		snap.Player.Status, strings.Join(cfg.AllowedStatuses, ", "))
}
