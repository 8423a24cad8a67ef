package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/robfig/cron/v3"

	"github.com/leapstack-labs/mcp-panther/pkg/token"
)

// MaxQueryLength is the longest query, in characters, accepted for execution.
const MaxQueryLength = 10000

var (
	timeFilterPattern = regexp.MustCompile(`(?is)\b(where|and)\s+.*?(?:[\w.]+\.)?p_event_time\s*(>=|<=|=|>|<|between)`)
	timeMacroPattern  = regexp.MustCompile(`(?i)\bp_occurs_(since|between|around|after|before)\b`)
	databasePattern   = regexp.MustCompile(`^panther_(logs|views|signals|rule_matches|rule_errors|monitor|cloudsecurity)\.public$`)
)

// ValidateBasic rejects empty and oversized queries.
func ValidateBasic(sql string) error {
	if strings.TrimSpace(sql) == "" {
		return ErrEmptyQuery
	}
	if utf8.RuneCountInString(sql) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// ValidateTimeFilter requires a p_event_time comparison after WHERE or AND,
// or one of Panther's p_occurs_* time macros.
func ValidateTimeFilter(sql string) error {
	if strings.TrimSpace(sql) == "" {
		return ErrEmptyQuery
	}
	if timeMacroPattern.MatchString(sql) || timeFilterPattern.MatchString(sql) {
		return nil
	}
	return ErrMissingTimeFilter
}

// ValidateFullyQualifiedTables requires every table in a FROM or JOIN to
// name its database (db.table or db.schema.table). Names defined by a WITH
// clause are exempt.
func ValidateFullyQualifiedTables(sql string) error {
	a := defaultSanitizer.Analyze(sql)
	ctes := cteNames(a.Tokens)

	for _, id := range a.Identifiers {
		if id.Role != RoleTable {
			continue
		}
		if id.Index > 0 && a.Tokens[id.Index-1].Type == token.DOT {
			continue // not the head of the reference
		}
		parts := 1
		for j := id.Index + 1; j+1 < len(a.Tokens); j += 2 {
			if a.Tokens[j].Type != token.DOT || !a.Tokens[j+1].Type.IsWord() {
				break
			}
			parts++
		}
		if parts > 1 {
			continue
		}
		name := id.Token.Literal
		if _, ok := ctes[strings.ToLower(name)]; ok {
			continue
		}
		return fmt.Errorf("%w: %q (use database.table, for example panther_logs.public.%s)",
			ErrNotFullyQualified, name, name)
	}
	return nil
}

// cteNames collects the names bound by WITH clauses at any depth.
func cteNames(toks []token.Token) map[string]struct{} {
	names := make(map[string]struct{})
	for i := 0; i < len(toks); i++ {
		if !toks[i].Is("WITH") {
			continue
		}
		j := i + 1
		if toks[j].Is("RECURSIVE") {
			j++
		}
		for j < len(toks) && toks[j].Type.IsWord() {
			names[strings.ToLower(strings.Trim(toks[j].Literal, "\"`"))] = struct{}{}
			j++
			if toks[j].Type == token.LPAREN { // column list
				j = skipParens(toks, j)
			}
			if !toks[j].Is("AS") {
				break
			}
			j++
			if toks[j].Type != token.LPAREN {
				break
			}
			j = skipParens(toks, j)
			if toks[j].Type != token.COMMA {
				break
			}
			j++
		}
	}
	return names
}

// skipParens returns the index after the parenthesis group opening at i.
// Tokenize always ends with EOF, so the result is a valid index.
func skipParens(toks []token.Token, i int) int {
	depth := 0
	for ; i < len(toks)-1; i++ {
		switch toks[i].Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(toks) - 1
}

// ValidateDatabaseName accepts the public schema of a Panther database, for
// example "panther_logs.public".
func ValidateDatabaseName(name string) error {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidDatabase)
	}
	if !databasePattern.MatchString(normalized) {
		return fmt.Errorf("%w '%s': must be a valid Panther database (e.g., 'panther_logs.public')",
			ErrInvalidDatabase, name)
	}
	return nil
}

// ValidateCron checks a standard five-field cron expression.
func ValidateCron(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("%w %q: expected 5 fields (minute hour day-of-month month day-of-week), got %d",
			ErrInvalidCron, expr, len(fields))
	}
	if _, err := cron.ParseStandard(strings.Join(fields, " ")); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidCron, expr, err)
	}
	return nil
}
