// Package sqlguard checks and rewrites SQL submitted to the Panther data lake.
//
// The sanitizer quotes reserved words that are used as column names so the
// target datastore accepts them, and rejects reserved words that no amount of
// quoting can make unambiguous. Everything else in the query, including
// comments and whitespace, is passed through untouched.
package sqlguard

import (
	"github.com/leapstack-labs/mcp-panther/pkg/dialect"
	_ "github.com/leapstack-labs/mcp-panther/pkg/dialects/redshift" // register
	"github.com/leapstack-labs/mcp-panther/pkg/dialects/snowflake"
)

// Sanitizer applies one dialect's reserved-word rules. It holds no mutable
// state and is safe for concurrent use.
type Sanitizer struct {
	dialect *dialect.Dialect
}

// New returns a Sanitizer for d. A nil dialect selects Snowflake.
func New(d *dialect.Dialect) *Sanitizer {
	if d == nil {
		d = snowflake.Dialect
	}
	return &Sanitizer{dialect: d}
}

// ForDatastore returns a Sanitizer for a datastore name such as "snowflake"
// or "redshift". Unknown names fall back to Snowflake.
func ForDatastore(name string) *Sanitizer {
	return New(dialect.Resolve(name))
}

// Dialect returns the rules in use.
func (s *Sanitizer) Dialect() *dialect.Dialect {
	return s.dialect
}

// Analyze tokenizes sql and classifies every unquoted word without failing.
func (s *Sanitizer) Analyze(sql string) *Analysis {
	return analyze(s.dialect, sql)
}

// Sanitize returns sql with reserved column names quoted. It fails with a
// *ValidationError on the first reserved word that cannot be used where it
// appears.
func (s *Sanitizer) Sanitize(sql string) (string, error) {
	a := s.Analyze(sql)
	if err := a.Err(); err != nil {
		return "", err
	}
	return a.Rewrite(s.dialect), nil
}

var defaultSanitizer = New(snowflake.Dialect)

// Sanitize applies the Snowflake rules.
func Sanitize(sql string) (string, error) {
	return defaultSanitizer.Sanitize(sql)
}
