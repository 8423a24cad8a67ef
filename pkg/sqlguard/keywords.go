package sqlguard

// wordSet is an upper-case keyword set.
type wordSet map[string]struct{}

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s wordSet) has(upper string) bool {
	_, ok := s[upper]
	return ok
}

// syntaxWords play a structural role in SELECT statements in every
// supported datastore. When one of them sits in an operand position it is
// only read as a column if what follows leaves no other reading.
var syntaxWords = newWordSet(
	"ALL", "AND", "ANY", "AS", "ASC", "BETWEEN", "BY", "CASE", "CONNECT", "CROSS",
	"CURRENT", "DESC", "DISTINCT", "ELSE", "END", "ESCAPE", "EXCEPT", "EXISTS",
	"FALSE", "FETCH", "FOR", "FROM", "FULL", "GROUP", "HAVING", "ILIKE", "IN",
	"INNER", "INTERSECT", "INTERVAL", "INTO", "IS", "JOIN", "LATERAL", "LEFT",
	"LIKE", "LIMIT", "MINUS", "NATURAL", "NOT", "NULL", "NULLS", "OF", "OFFSET",
	"ON", "OR", "ORDER", "OUTER", "OVER", "PARTITION", "PIVOT", "PRIOR", "QUALIFY",
	"REGEXP", "RIGHT", "RLIKE", "ROW", "ROWS", "SAMPLE", "SELECT", "SET", "SIMILAR",
	"SOME", "START", "TABLESAMPLE", "THEN", "TO", "TOP", "TRUE", "UNION", "UNPIVOT",
	"USING", "VALUES", "WHEN", "WHERE", "WINDOW", "WITH",
)

// literalWords are values, never columns, unless they stand alone as a
// select item.
var literalWords = newWordSet("NULL", "TRUE", "FALSE")

// modifierWords qualify the expression after them.
var modifierWords = newWordSet("DISTINCT", "ALL")

// operandLeaders are keywords after which an expression starts.
var operandLeaders = newWordSet(
	"SELECT", "WHERE", "AND", "OR", "NOT", "ON", "BY", "HAVING", "QUALIFY",
	"WHEN", "THEN", "ELSE", "CASE", "BETWEEN", "LIKE", "ILIKE", "RLIKE",
	"REGEXP", "DISTINCT", "ALL", "PRIOR",
)

// strongFollowers are keywords that can only follow a complete operand.
var strongFollowers = newWordSet(
	"IS", "AND", "OR", "THEN", "ELSE", "END", "AS", "ASC", "DESC", "NULLS",
)

// weakFollowers may follow an operand but may also follow syntax.
var weakFollowers = newWordSet(
	"FROM", "IN", "NOT", "BETWEEN", "LIKE", "ILIKE", "RLIKE", "REGEXP", "WHEN",
	"GROUP", "ORDER", "HAVING", "LIMIT", "QUALIFY", "UNION", "INTERSECT",
	"MINUS", "EXCEPT", "WHERE", "JOIN", "LEFT", "RIGHT", "INNER", "FULL",
	"CROSS", "NATURAL", "ON", "OFFSET", "FETCH", "WINDOW", "COLLATE", "ESCAPE",
	"IGNORE", "RESPECT", "SIMILAR",
)

// selectItemEnders close a select-list item when no FROM follows yet.
var selectItemEnders = newWordSet(
	"FROM", "UNION", "INTERSECT", "MINUS", "EXCEPT", "INTO", "ORDER", "LIMIT",
)

// clauseWords end the FROM list or select list they appear after.
var clauseWords = newWordSet(
	"WHERE", "GROUP", "HAVING", "QUALIFY", "ORDER", "LIMIT", "OFFSET", "FETCH",
	"WINDOW", "CONNECT", "START",
)

// setOperators begin a new query block.
var setOperators = newWordSet("UNION", "INTERSECT", "MINUS", "EXCEPT")
