package services

import (
	"encoding/json"
	"errors"
	"testing"

	"tournament-registry-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRuleConfig(t *testing.T) {
	tests := []struct {
		name     string
		ruleType string
		config   string
		wantErr  bool
	}{
		{"age range with min only", models.RuleAgeRange, `{"minAge":16}`, false},
		{"age range with both bounds", models.RuleAgeRange, `{"minAge":14,"maxAge":18}`, false},
		{"age range with calculation date", models.RuleAgeRange, `{"minAge":16,"ageCalculationDate":"2024-11-30"}`, false},
		{"age range with no bounds", models.RuleAgeRange, `{}`, true},
		{"age range min above max", models.RuleAgeRange, `{"minAge":18,"maxAge":14}`, true},
		{"age range with bad date", models.RuleAgeRange, `{"minAge":16,"ageCalculationDate":"30/11/2024"}`, true},
		{"age range with invalid json", models.RuleAgeRange, `{"minAge":`, true},

		{"geographic county scope", models.RuleGeographic, `{"scope":"COUNTY","allowedIds":["c1","c2"]}`, false},
		{"geographic missing scope", models.RuleGeographic, `{"allowedIds":["c1"]}`, true},
		{"geographic bad scope", models.RuleGeographic, `{"scope":"DISTRICT","allowedIds":["c1"]}`, true},
		{"geographic empty allow list", models.RuleGeographic, `{"scope":"WARD","allowedIds":[]}`, true},

		{"nationality allow list", models.RuleNationality, `{"allowedNationalities":["KE","UG"]}`, false},
		{"nationality empty config", models.RuleNationality, `{}`, false},
		{"gender allow list", models.RuleGender, `{"allowedGenders":["F"]}`, false},
		{"player status allow list", models.RulePlayerStatus, `{"allowedStatuses":["ACTIVE"]}`, false},

		{"document verified takes no config", models.RuleDocumentVerified, ``, false},
		{"suspension check takes no config", models.RuleNoActiveSuspensions, ``, false},
		{"contract check takes no config", models.RuleValidContract, ``, false},

		{"unknown rule type", "BIOMETRIC_MATCH", `{}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleConfig(tt.ruleType, json.RawMessage(tt.config))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeErrorsWrapSentinel(t *testing.T) {
	_, err := decodeAgeRangeConfig(json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRuleConfig))

	_, err = decodeGeographicConfig(json.RawMessage(`{"scope":"COUNTY","allowedIds":[]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRuleConfig))
}

func TestAgeRangeConfigDefaults(t *testing.T) {
	cfg, err := decodeAgeRangeConfig(json.RawMessage(`{"minAge":16}`))
	require.NoError(t, err)
	assert.True(t, cfg.RequiresDob())

	fallback := date(2024, 6, 1)
	assert.Equal(t, fallback, cfg.ReferenceDate(fallback))

	cfg, err = decodeAgeRangeConfig(json.RawMessage(`{"minAge":16,"ageCalculationDate":"2024-11-30","requireDob":false}`))
	require.NoError(t, err)
	assert.False(t, cfg.RequiresDob())
	assert.Equal(t, date(2024, 11, 30), cfg.ReferenceDate(fallback))
}

func TestParseISODate(t *testing.T) {
	d, err := parseISODate("2024-11-30")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 11, 30), d)

	d, err = parseISODate("2024-11-30T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 11, 30), d)

	_, err = parseISODate("30 Nov 2024")
	assert.Error(t, err)
}
