// Package snowflake provides the Snowflake reserved-word table and SQL
// fragments. It is pure data with no driver dependencies.
package snowflake

import "github.com/leapstack-labs/mcp-panther/pkg/dialect"

func init() {
	dialect.Register(Dialect)
}

// Literals and expression syntax.
var forbiddenScalar = []string{
	"CASE", "CAST", "FALSE", "TRUE", "TRY_CAST", "WHEN",
}

// ANSI pseudo-functions that read as calls without parentheses.
var forbiddenColumn = []string{
	"CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER",
	"LOCALTIME", "LOCALTIMESTAMP",
}

// Join syntax.
var forbiddenFromClause = []string{
	"ASOF", "CROSS", "FULL", "INNER", "JOIN", "LATERAL", "LEFT", "NATURAL",
	"RIGHT", "USING",
}

// Snowflake reserved keywords usable as double-quoted identifiers. NULL is
// left out: it is a value wherever it appears.
var autoQuotable = []string{
	"ACCOUNT", "ACTION", "ALL", "ALTER", "AND", "ANY", "AS", "BETWEEN", "BY",
	"CHECK", "COLUMN", "CONNECT", "CONNECTION", "CONSTRAINT", "CREATE",
	"CURRENT", "DATABASE", "DELETE", "DISTINCT", "DROP", "ELSE", "EXISTS",
	"FOLLOWING", "FOR", "FROM", "GRANT", "GROUP", "GSCLUSTER", "HAVING",
	"ILIKE", "IN", "INCREMENT", "INSERT", "INTERSECT", "INTO", "IS", "ISSUE",
	"LIKE", "MINUS", "NOT", "OF", "ON", "OR", "ORDER", "ORGANIZATION",
	"QUALIFY", "REGEXP", "REVOKE", "RLIKE", "ROW", "ROWS", "SAMPLE", "SCHEMA",
	"SELECT", "SET", "SOME", "START", "TABLE", "TABLESAMPLE", "THEN", "TO",
	"TRIGGER", "UNION", "UNIQUE", "UPDATE", "VALUES", "VIEW", "WHENEVER",
	"WHERE", "WITH",
}

// Dialect is the Snowflake datastore.
var Dialect = dialect.New("snowflake").
	ForbiddenFromClause(forbiddenFromClause...).
	ForbiddenColumn(forbiddenColumn...).
	ForbiddenScalar(forbiddenScalar...).
	AutoQuotable(autoQuotable...).
	Build()
