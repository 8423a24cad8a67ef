package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"@foo":           "at_sign_foo",
		"CrAzY-tAbLe":    "CrAzY-tAbLe",
		"U2":             "U2",
		"2LEGIT-2QUIT":   "two_LEGIT-2QUIT",
		"foo,bar":        "foo_comma_bar",
		"`foo`":          "backtick_foo_backtick",
		"'foo'":          "apostrophe_foo_apostrophe",
		"foo.bar":        "foo_bar",
		"AWS.CloudTrail": "AWS_CloudTrail",
		".foo":           "_foo",
		"foo-bar":        "foo-bar",
		"$foo":           "dollar_sign_foo",
		"Μύκονοοοος":     "Mykonoooos",
		"fooʼn":          "foo_n",
		"foo\\bar":       "foo_backslash_bar",
		"<foo>bar":       "_foo_bar",
		"café":           "cafe",
	}

	for in, want := range tests {
		got := NormalizeName(in)
		assert.Equal(t, want, got, "input %q", in)
		assert.True(t, IsNameNormalized(got), "output %q should be normalized", got)
	}
}

func TestIsNameNormalized(t *testing.T) {
	tests := map[string]bool{
		"@foo":         false,
		"CrAzY-tAbLe":  true,
		"U2":           true,
		"2LEGIT-2QUIT": false,
		"foo,bar":      false,
		"_foo":         true,
		"foo.bar":      false,
		"":             false,
	}

	for in, want := range tests {
		assert.Equal(t, want, IsNameNormalized(in), "input %q", in)
	}
}
