// Package dialect describes the SQL datastores behind the Panther data lake.
//
// A Dialect carries the datastore's reserved-word table, which drives the
// SQL guard, and the few SQL fragments that differ between datastores
// (current timestamp, date arithmetic, database references).
package dialect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Category classifies a reserved word by how it may appear in a query.
type Category int

// Reserved-word categories. Higher values are more restrictive.
const (
	// AutoQuotable words are safe as column names once double-quoted.
	AutoQuotable Category = iota + 1
	// ForbiddenScalar words are literals or expression syntax and cannot be
	// used as a column reference in a scalar expression (TRUE, CASE).
	ForbiddenScalar
	// ForbiddenColumn words are ANSI pseudo-functions that cannot be used
	// as a column name (CURRENT_DATE, CURRENT_USER).
	ForbiddenColumn
	// ForbiddenFromClause words are join syntax and cannot be used as a
	// table name or alias (JOIN, LEFT, LATERAL).
	ForbiddenFromClause
)

func (c Category) String() string {
	switch c {
	case AutoQuotable:
		return "AUTO_QUOTABLE"
	case ForbiddenScalar:
		return "FORBIDDEN_SCALAR"
	case ForbiddenColumn:
		return "FORBIDDEN_COLUMN"
	case ForbiddenFromClause:
		return "FORBIDDEN_FROM_CLAUSE"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Forbidden reports whether quoting cannot rescue the word.
func (c Category) Forbidden() bool {
	return c >= ForbiddenScalar
}

// DateAddFunc renders "base shifted by amount units" in a dialect.
type DateAddFunc func(unit string, amount int, base string) string

// Dialect is an immutable description of a datastore.
// Build one with New(...).Build().
type Dialect struct {
	Name  string
	Quote string // identifier quote character

	reserved         map[string]Category
	currentTimestamp string
	dateAdd          DateAddFunc
	stripPublic      bool
}

// Lookup returns the category of word, matched case-insensitively.
func (d *Dialect) Lookup(word string) (Category, bool) {
	c, ok := d.reserved[strings.ToUpper(word)]
	return c, ok
}

// IsReservedWord reports whether word is in the reserved-word table.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.Lookup(word)
	return ok
}

// Words returns the sorted upper-case words of one category.
func (d *Dialect) Words(c Category) []string {
	words := make([]string, 0, len(d.reserved))
	for w, wc := range d.reserved {
		if wc == c {
			words = append(words, w)
		}
	}
	sort.Strings(words)
	return words
}

// Len returns the number of reserved words.
func (d *Dialect) Len() int {
	return len(d.reserved)
}

// QuoteIdentifier wraps name in the dialect's identifier quotes,
// doubling any embedded quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.Quote, d.Quote+d.Quote)
	return d.Quote + escaped + d.Quote
}

// TimestampFunction returns the expression for "now".
func (d *Dialect) TimestampFunction() string {
	return d.currentTimestamp
}

// DateAdd renders base shifted by amount units.
func (d *Dialect) DateAdd(unit string, amount int, base string) string {
	return d.dateAdd(unit, amount, base)
}

// StripsPublicSchema reports whether the datastore addresses Panther
// databases without the ".public" schema suffix.
func (d *Dialect) StripsPublicSchema() bool {
	return d.stripPublic
}

// DatabaseReference converts a canonical "panther_x.public" database name
// into the form the datastore expects.
func (d *Dialect) DatabaseReference(database string) string {
	if d.stripPublic {
		return strings.TrimSuffix(database, ".public")
	}
	return database
}

var publicTableRef = regexp.MustCompile(`(?i)\b(panther_[a-z0-9_]+)\.public\.`)

// RewriteTableReferences adapts fully-qualified table references in sql to
// the datastore. Snowflake references pass through unchanged.
func (d *Dialect) RewriteTableReferences(sql string) string {
	if !d.stripPublic {
		return sql
	}
	return publicTableRef.ReplaceAllString(sql, "$1.")
}

// Builder assembles a Dialect.
type Builder struct {
	d *Dialect
}

// New starts a dialect definition with ANSI defaults: double-quote
// identifiers, CURRENT_TIMESTAMP() and DATEADD(unit, n, base).
func New(name string) *Builder {
	return &Builder{d: &Dialect{
		Name:             strings.ToLower(name),
		Quote:            `"`,
		reserved:         make(map[string]Category),
		currentTimestamp: "CURRENT_TIMESTAMP()",
		dateAdd:          FunctionDateAdd,
	}}
}

// Quote sets the identifier quote character.
func (b *Builder) Quote(q string) *Builder {
	b.d.Quote = q
	return b
}

// AutoQuotable adds words that are quoted when used as column names.
func (b *Builder) AutoQuotable(words ...string) *Builder {
	return b.add(AutoQuotable, words)
}

// ForbiddenScalar adds words rejected as column references.
func (b *Builder) ForbiddenScalar(words ...string) *Builder {
	return b.add(ForbiddenScalar, words)
}

// ForbiddenColumn adds words rejected as column names.
func (b *Builder) ForbiddenColumn(words ...string) *Builder {
	return b.add(ForbiddenColumn, words)
}

// ForbiddenFromClause adds words rejected as table names or aliases.
func (b *Builder) ForbiddenFromClause(words ...string) *Builder {
	return b.add(ForbiddenFromClause, words)
}

// CurrentTimestamp sets the "now" expression.
func (b *Builder) CurrentTimestamp(expr string) *Builder {
	b.d.currentTimestamp = expr
	return b
}

// DateAdd sets the date arithmetic renderer.
func (b *Builder) DateAdd(fn DateAddFunc) *Builder {
	b.d.dateAdd = fn
	return b
}

// StripPublicSchema makes the dialect drop ".public" from Panther
// database references.
func (b *Builder) StripPublicSchema(strip bool) *Builder {
	b.d.stripPublic = strip
	return b
}

// Build returns the finished dialect. The builder must not be reused.
func (b *Builder) Build() *Dialect {
	d := b.d
	b.d = nil
	return d
}

// add records words under c. A word listed twice keeps the more
// restrictive category.
func (b *Builder) add(c Category, words []string) *Builder {
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if prev, ok := b.d.reserved[w]; ok && prev >= c {
			continue
		}
		b.d.reserved[w] = c
	}
	return b
}

// FunctionDateAdd renders DATEADD(unit, amount, base).
func FunctionDateAdd(unit string, amount int, base string) string {
	return fmt.Sprintf("DATEADD(%s, %d, %s)", unit, amount, base)
}

// IntervalDateAdd renders base +/- INTERVAL 'n unit'.
func IntervalDateAdd(unit string, amount int, base string) string {
	op := "+"
	if amount < 0 {
		op = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s %s INTERVAL '%d %s'", base, op, amount, unit)
}
