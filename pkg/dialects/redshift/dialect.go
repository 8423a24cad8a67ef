// Package redshift provides the Amazon Redshift reserved-word table and SQL
// fragments used by Panther instances backed by Redshift.
package redshift

import "github.com/leapstack-labs/mcp-panther/pkg/dialect"

func init() {
	dialect.Register(Dialect)
}

var forbiddenScalar = []string{
	"CASE", "CAST", "FALSE", "TRUE", "WHEN",
}

var forbiddenColumn = []string{
	"CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "CURRENT_USER",
	"CURRENT_USER_ID", "LOCALTIME", "LOCALTIMESTAMP", "SESSION_USER", "SYSDATE",
}

var forbiddenFromClause = []string{
	"CROSS", "FULL", "INNER", "JOIN", "LEFT", "NATURAL", "RIGHT", "USING",
}

// The remainder of the Redshift reserved word list, including the column
// compression encodings.
var autoQuotable = []string{
	"AES128", "AES256", "ALL", "ALLOWOVERWRITE", "ANALYSE", "ANALYZE", "AND",
	"ANY", "ARRAY", "AS", "ASC", "AUTHORIZATION", "AZ64", "BACKUP", "BETWEEN",
	"BINARY", "BLANKSASNULL", "BOTH", "BYTEDICT", "BZIP2",
	"CHECK", "COLLATE", "COLUMN", "CONSTRAINT", "CREATE", "CREDENTIALS",
	"DEFAULT", "DEFERRABLE", "DEFLATE", "DEFRAG", "DELTA", "DELTA32K", "DESC",
	"DISABLE", "DISTINCT", "DO", "ELSE", "EMPTYASNULL", "ENABLE", "ENCODE",
	"ENCRYPT", "ENCRYPTION", "END", "EXCEPT", "EXPLICIT", "FOR", "FOREIGN",
	"FREEZE", "FROM",
	"GLOBALDICT256", "GLOBALDICT64K", "GRANT", "GROUP", "GZIP", "HAVING",
	"IDENTITY", "IGNORE", "ILIKE", "IN", "INITIALLY", "INTERSECT", "INTERVAL",
	"INTO", "IS", "ISNULL", "LANGUAGE", "LEADING", "LIKE", "LIMIT", "LUN",
	"LUNS", "LZO", "LZOP", "MINUS", "MOSTLY16", "MOSTLY32", "MOSTLY8",
	"NEW", "NOT", "NOTNULL", "NULLS", "OFF", "OFFLINE", "OFFSET", "OID", "OLD",
	"ON", "ONLY", "OPEN", "OR", "ORDER", "OUTER", "OVERLAPS", "PARALLEL",
	"PARTITION", "PERCENT", "PERMISSIONS", "PIVOT", "PLACING", "PRIMARY",
	"RAW", "READRATIO", "RECOVER", "REFERENCES", "REJECTLOG", "RESORT",
	"RESPECT", "RESTORE", "SELECT", "SIMILAR", "SNAPSHOT", "SOME", "SYSTEM",
	"TABLE", "TAG", "TDES", "TEXT255", "TEXT32K", "THEN", "TIMESTAMP", "TO",
	"TOP", "TRAILING", "TRUNCATECOLUMNS",
	"UNION", "UNIQUE", "UNNEST", "UNPIVOT", "USER", "VERBOSE", "WALLET",
	"WHERE", "WITH", "WITHOUT",
}

// Dialect is the Redshift datastore. Redshift has no DATEADD over
// CURRENT_TIMESTAMP() and addresses Panther databases without ".public".
var Dialect = dialect.New("redshift").
	ForbiddenFromClause(forbiddenFromClause...).
	ForbiddenColumn(forbiddenColumn...).
	ForbiddenScalar(forbiddenScalar...).
	AutoQuotable(autoQuotable...).
	CurrentTimestamp("GETDATE()").
	DateAdd(dialect.IntervalDateAdd).
	StripPublicSchema(true).
	Build()
