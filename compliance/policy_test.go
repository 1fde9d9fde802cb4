package compliance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProfile(t *testing.T, employment, region string) Profile {
	t.Helper()
	profile, err := NewProfile(employment, region)
	require.NoError(t, err)
	return profile
}

func TestResolveRegion(t *testing.T) {
	t.Parallel()

	tests := map[string]RegionClass{
		"de-by":  RegionGermany,
		"DE-BE":  RegionGermany,
		"en-uk":  RegionUK,
		" EN-UK": RegionUK,
		"en-us":  RegionDefault,
		"de":     RegionDefault,
		"":       RegionDefault,
	}
	for tag, want := range tests {
		assert.Equal(t, want, ResolveRegion(tag), "tag %q", tag)
	}
}

func TestParseEmploymentTypeRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, err := NewProfile("freelancer", "de-by")
	assert.Error(t, err)

	profile := mustProfile(t, "", "de-by")
	assert.Equal(t, Employee, profile.EmploymentType)
}

func TestEvaluate_Germany(t *testing.T) {
	t.Parallel()

	de := mustProfile(t, "employee", "de-nw")

	tests := []struct {
		name      string
		gross     int
		taken     int
		required  int
		deducted  int
		compliant bool
		severity  Severity
	}{
		{name: "short day", gross: 5 * 60, taken: 0, severity: SeverityNone},
		{name: "exactly six hours", gross: 6 * 60, taken: 0, severity: SeverityNone},
		{name: "seven hours no break", gross: 7 * 60, taken: 0, required: 30, deducted: 30, severity: SeverityOrange},
		{name: "seven hours partial break", gross: 7 * 60, taken: 10, required: 30, deducted: 20, severity: SeverityOrange},
		{name: "seven hours full break", gross: 7 * 60, taken: 30, required: 30, compliant: true, severity: SeverityNone},
		{name: "nine and a half hours full break", gross: 9*60 + 30, taken: 45, required: 45, compliant: true, severity: SeverityYellow},
		{name: "nine and a half hours thirty break", gross: 9*60 + 30, taken: 30, required: 45, deducted: 15, severity: SeverityOrange},
		{name: "ten hours uses nine hour tier", gross: 10 * 60, taken: 0, required: 45, deducted: 45, severity: SeverityOrange},
		{name: "beyond ten hours is red", gross: 10*60 + 1, taken: 60, required: 45, compliant: true, severity: SeverityRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := Evaluate(de, tt.gross, tt.taken)
			assert.Equal(t, tt.required, eval.RequiredBreak, "required")
			assert.Equal(t, tt.deducted, eval.DeductedBreak, "deducted")
			assert.Equal(t, tt.compliant || tt.required == 0, eval.Compliant, "compliant")
			assert.Equal(t, tt.severity, eval.Severity, "severity")
		})
	}
}

func TestEvaluate_UKNeverDeducts(t *testing.T) {
	t.Parallel()

	uk := mustProfile(t, "employee", "en-uk")

	eval := Evaluate(uk, 8*60, 10)
	assert.Zero(t, eval.DeductedBreak)
	assert.False(t, eval.Compliant)
	assert.Equal(t, SeverityOrange, eval.Severity)

	eval = Evaluate(uk, 8*60, 20)
	assert.True(t, eval.Compliant)
	assert.Equal(t, SeverityNone, eval.Severity)

	eval = Evaluate(uk, 6*60, 0)
	assert.True(t, eval.Compliant)
}

func TestEvaluate_DefaultOnlyWarnsOnExtremeDays(t *testing.T) {
	t.Parallel()

	other := mustProfile(t, "employee", "fr-idf")

	assert.True(t, Evaluate(other, 9*60, 0).Compliant)
	assert.True(t, Evaluate(other, 10*60, 0).Compliant)

	eval := Evaluate(other, 10*60+1, 0)
	assert.False(t, eval.Compliant)
	assert.Zero(t, eval.DeductedBreak)
	assert.Equal(t, SeverityOrange, eval.Severity)

	eval = Evaluate(other, 11*60, 5)
	assert.True(t, eval.Compliant)
	assert.Equal(t, SeverityYellow, eval.Severity)
}

func TestEvaluate_ContractorExempt(t *testing.T) {
	t.Parallel()

	for _, region := range []string{"de-by", "en-uk", "us-ca"} {
		profile := mustProfile(t, "contractor", region)
		for gross := 0; gross <= 14*60; gross += 15 {
			for _, taken := range []int{0, 10, 30, 60} {
				eval := Evaluate(profile, gross, taken)
				require.Zero(t, eval.DeductedBreak)
				require.True(t, eval.Compliant)
				require.Equal(t, SeverityNone, eval.Severity)
			}
		}
	}
}

// The advisory severity and the compliance flag come from one evaluation and
// must agree: orange always means non-compliant and non-compliant days are at
// least orange.
func TestEvaluate_SeverityConsistentWithCompliance(t *testing.T) {
	t.Parallel()

	profiles := []Profile{
		mustProfile(t, "employee", "de-by"),
		mustProfile(t, "employee", "en-uk"),
		mustProfile(t, "employee", ""),
	}
	for _, profile := range profiles {
		for gross := 0; gross <= 13*60; gross += 5 {
			for taken := 0; taken <= 60; taken += 5 {
				eval := Evaluate(profile, gross, taken)
				require.GreaterOrEqual(t, eval.DeductedBreak, 0)
				require.LessOrEqual(t, eval.DeductedBreak, gross)
				if !eval.Compliant {
					require.GreaterOrEqual(t, eval.Severity, SeverityOrange, "%s gross=%d taken=%d", profile.Region, gross, taken)
				}
				if eval.Severity == SeverityOrange {
					require.False(t, eval.Compliant, "%s gross=%d taken=%d", profile.Region, gross, taken)
				}
				if profile.Region != RegionGermany {
					require.Zero(t, eval.DeductedBreak)
				}
			}
		}
	}
}

func TestSeverityJSONRoundTrip(t *testing.T) {
	for _, severity := range []Severity{SeverityNone, SeverityYellow, SeverityOrange, SeverityRed} {
		data, err := json.Marshal(severity)
		require.NoError(t, err)

		var decoded Severity
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, severity, decoded)
	}

	var bad Severity
	assert.Error(t, json.Unmarshal([]byte(`"purple"`), &bad))
}
