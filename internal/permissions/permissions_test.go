package permissions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRaw(t *testing.T) {
	got := FromRaw([]string{"RuleRead", "Bogus", "AlertModify", "DataAnalyticsRead"})
	assert.Equal(t, []Permission{RuleRead, AlertModify, DataAnalyticsRead}, got)
	assert.Empty(t, FromRaw(nil))
}

func TestSatisfied(t *testing.T) {
	granted := []Permission{RuleRead, AlertRead}

	tests := []struct {
		name string
		spec Spec
		want bool
	}{
		{name: "empty", spec: Spec{}, want: true},
		{name: "all granted", spec: All(RuleRead, AlertRead), want: true},
		{name: "all partially granted", spec: All(RuleRead, PolicyRead), want: false},
		{name: "any granted", spec: Any(PolicyRead, AlertRead), want: true},
		{name: "any not granted", spec: Any(PolicyRead, UserRead), want: false},
		{name: "both", spec: Spec{AllOf: []Permission{RuleRead}, AnyOf: []Permission{UserRead, AlertRead}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.Satisfied(granted))
		})
	}
}

func TestMissing(t *testing.T) {
	spec := Spec{AllOf: []Permission{RuleRead, RuleModify}, AnyOf: []Permission{UserRead, PolicyRead}}
	assert.Equal(t, []Permission{RuleModify, UserRead, PolicyRead}, spec.Missing([]Permission{RuleRead}))
	assert.Empty(t, spec.Missing([]Permission{RuleRead, RuleModify, PolicyRead}))
}

func TestString(t *testing.T) {
	assert.Equal(t, "View Rules AND View Policies", All(RuleRead, PolicyRead).String())
	assert.Equal(t, "View Alerts OR View Overview", Any(AlertRead, SummaryRead).String())
	assert.Equal(t, "Manage Rules AND (View Users OR View Alerts)",
		Spec{AllOf: []Permission{RuleModify}, AnyOf: []Permission{UserRead, AlertRead}}.String())
	assert.Empty(t, Spec{}.String())
}

func TestBuilder(t *testing.T) {
	meta := Requires().
		Require(RuleRead).
		RequireAny(AlertRead, SummaryRead).
		WithAnnotation("rate_limit", "100/1m").
		Build()

	data, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"permissions": {"all_of": ["View Rules"], "any_of": ["View Alerts", "View Overview"]},
		"rate_limit": "100/1m"
	}`, string(data))

	assert.Equal(t, map[string]any{}, Requires().Build())
	assert.Nil(t, Spec{}.Meta())
	assert.Equal(t, map[string]any{"permissions": All(UserRead)}, All(UserRead).Meta())
}
