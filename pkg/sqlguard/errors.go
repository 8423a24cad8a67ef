package sqlguard

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/mcp-panther/pkg/token"
)

// ErrForbiddenKeyword matches every *ValidationError via errors.Is.
var ErrForbiddenKeyword = errors.New("forbidden keyword usage")

// Kind identifies which rule a forbidden reserved word broke.
type Kind int

// Violation kinds.
const (
	// ForbiddenScalarUsage: reserved word used where a scalar column value
	// is expected.
	ForbiddenScalarUsage Kind = iota + 1
	// ForbiddenColumnName: reserved word used as a bare column name where
	// quoting would not resolve the ambiguity.
	ForbiddenColumnName
	// ForbiddenFromClauseUsage: reserved word used as a table name or alias.
	ForbiddenFromClauseUsage
)

func (k Kind) String() string {
	switch k {
	case ForbiddenScalarUsage:
		return "ForbiddenScalarUsage"
	case ForbiddenColumnName:
		return "ForbiddenColumnName"
	case ForbiddenFromClauseUsage:
		return "ForbiddenFromClauseUsage"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reason is the human-readable rule text used in error messages.
func (k Kind) Reason() string {
	switch k {
	case ForbiddenScalarUsage:
		return "cannot be used as column reference in scalar expressions"
	case ForbiddenColumnName:
		return "cannot be used as a column name (reserved by ANSI)"
	case ForbiddenFromClauseUsage:
		return "cannot be used as a table name or alias"
	default:
		return "is not allowed here"
	}
}

// ValidationError reports a reserved word in a position where it cannot be
// used, quoted or not.
type ValidationError struct {
	Kind     Kind
	Word     string // upper-cased reserved word
	Position token.Position
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("'%s' %s", e.Word, e.Kind.Reason())
}

// Is makes errors.Is(err, ErrForbiddenKeyword) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrForbiddenKeyword
}

// Query validation errors.
var (
	ErrEmptyQuery        = errors.New("SQL query cannot be empty")
	ErrQueryTooLong      = fmt.Errorf("query too long: maximum %s characters allowed", "10,000")
	ErrMissingTimeFilter = errors.New("query must include a p_event_time filter: " +
		"compare p_event_time after WHERE or AND, or use a Panther time macro such as p_occurs_since()")
	ErrNotFullyQualified = errors.New("table reference is not fully qualified")
	ErrInvalidDatabase   = errors.New("invalid database name")
	ErrInvalidCron       = errors.New("invalid cron expression")
)
