// Package permissions describes the Panther API permissions each tool needs.
package permissions

import (
	"slices"
	"strings"
)

// Permission is the console title of a Panther permission.
type Permission string

const (
	AlertModify              Permission = "Manage Alerts"
	AlertRead                Permission = "View Alerts"
	DataAnalyticsModify      Permission = "Manage Saved Searches"
	DataAnalyticsRead        Permission = "Query Data Lake"
	LogSourceRead            Permission = "View Log Sources"
	OrganizationAPITokenRead Permission = "Read API Token Info"
	PolicyRead               Permission = "View Policies"
	RuleModify               Permission = "Manage Rules"
	RuleRead                 Permission = "View Rules"
	SummaryRead              Permission = "View Overview"
	UserRead                 Permission = "View Users"
)

// rawToTitle maps the identifiers returned by the API to titles.
var rawToTitle = map[string]Permission{
	"AlertModify":              AlertModify,
	"AlertRead":                AlertRead,
	"DataAnalyticsModify":      DataAnalyticsModify,
	"DataAnalyticsRead":        DataAnalyticsRead,
	"LogSourceRead":            LogSourceRead,
	"OrganizationAPITokenRead": OrganizationAPITokenRead,
	"PolicyRead":               PolicyRead,
	"RuleModify":               RuleModify,
	"RuleRead":                 RuleRead,
	"SummaryRead":              SummaryRead,
	"UserRead":                 UserRead,
}

// FromRaw converts API identifiers such as "RuleRead" to permissions.
// Unknown identifiers are skipped.
func FromRaw(raw []string) []Permission {
	out := make([]Permission, 0, len(raw))
	for _, r := range raw {
		if p, ok := rawToTitle[r]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Spec is a permission requirement: every AllOf and at least one AnyOf.
type Spec struct {
	AnyOf []Permission `json:"any_of,omitempty"`
	AllOf []Permission `json:"all_of,omitempty"`
}

// All requires every one of perms.
func All(perms ...Permission) Spec { return Spec{AllOf: perms} }

// Any requires at least one of perms.
func Any(perms ...Permission) Spec { return Spec{AnyOf: perms} }

// IsZero reports whether s requires nothing.
func (s Spec) IsZero() bool { return len(s.AnyOf) == 0 && len(s.AllOf) == 0 }

// Satisfied reports whether granted meets s.
func (s Spec) Satisfied(granted []Permission) bool {
	for _, p := range s.AllOf {
		if !slices.Contains(granted, p) {
			return false
		}
	}
	if len(s.AnyOf) == 0 {
		return true
	}
	for _, p := range s.AnyOf {
		if slices.Contains(granted, p) {
			return true
		}
	}
	return false
}

// Missing returns the AllOf permissions absent from granted, followed by
// the AnyOf set when none of it is granted.
func (s Spec) Missing(granted []Permission) []Permission {
	var out []Permission
	for _, p := range s.AllOf {
		if !slices.Contains(granted, p) {
			out = append(out, p)
		}
	}
	if len(s.AnyOf) > 0 && !slices.ContainsFunc(s.AnyOf, func(p Permission) bool { return slices.Contains(granted, p) }) {
		out = append(out, s.AnyOf...)
	}
	return out
}

func (s Spec) String() string {
	var parts []string
	if len(s.AllOf) > 0 {
		parts = append(parts, join(s.AllOf, " AND "))
	}
	if len(s.AnyOf) > 0 {
		alts := join(s.AnyOf, " OR ")
		if len(s.AnyOf) > 1 && len(parts) > 0 {
			alts = "(" + alts + ")"
		}
		parts = append(parts, alts)
	}
	return strings.Join(parts, " AND ")
}

func join(perms []Permission, sep string) string {
	s := make([]string, len(perms))
	for i, p := range perms {
		s[i] = string(p)
	}
	return strings.Join(s, sep)
}

// Meta is the tool metadata entry carrying s.
func (s Spec) Meta() map[string]any {
	if s.IsZero() {
		return nil
	}
	return map[string]any{"permissions": s}
}

// Builder assembles a Spec plus extra tool metadata.
type Builder struct {
	spec Spec
	meta map[string]any
}

// Requires starts a Builder.
func Requires() *Builder { return &Builder{meta: map[string]any{}} }

// Require adds permissions that must all be granted.
func (b *Builder) Require(perms ...Permission) *Builder {
	b.spec.AllOf = append(b.spec.AllOf, perms...)
	return b
}

// RequireAny adds permissions of which one must be granted.
func (b *Builder) RequireAny(perms ...Permission) *Builder {
	b.spec.AnyOf = append(b.spec.AnyOf, perms...)
	return b
}

// WithAnnotation adds a metadata entry next to the permissions.
func (b *Builder) WithAnnotation(key string, value any) *Builder {
	b.meta[key] = value
	return b
}

// Spec returns the requirement built so far.
func (b *Builder) Spec() Spec { return b.spec }

// Build returns the tool metadata.
func (b *Builder) Build() map[string]any {
	out := make(map[string]any, len(b.meta)+1)
	for k, v := range b.meta {
		out[k] = v
	}
	if !b.spec.IsZero() {
		out["permissions"] = b.spec
	}
	return out
}
