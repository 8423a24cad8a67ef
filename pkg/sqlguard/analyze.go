package sqlguard

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/mcp-panther/pkg/dialect"
	"github.com/leapstack-labs/mcp-panther/pkg/token"
)

// Role is the syntactic role of an unquoted identifier.
type Role int

// Identifier roles.
const (
	RoleKeyword     Role = iota // statement syntax
	RoleLiteral                 // NULL, TRUE, FALSE used as values
	RoleColumn                  // column reference
	RoleFunction                // function call name
	RoleTable                   // table reference in FROM/JOIN
	RoleTableAlias              // alias after AS in a FROM list
	RoleColumnAlias             // alias after AS in a select list
	RoleAlias                   // implicit alias
	RoleQualified               // part of a dotted column reference
	RolePath                    // semi-structured path element
	RoleType                    // type name
)

var roleNames = [...]string{
	RoleKeyword:     "keyword",
	RoleLiteral:     "literal",
	RoleColumn:      "column",
	RoleFunction:    "function",
	RoleTable:       "table",
	RoleTableAlias:  "table alias",
	RoleColumnAlias: "column alias",
	RoleAlias:       "alias",
	RoleQualified:   "qualified name",
	RolePath:        "path element",
	RoleType:        "type",
}

func (r Role) String() string {
	if int(r) >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Action is what the sanitizer does with an identifier.
type Action int

// Sanitizer actions.
const (
	Keep Action = iota
	Quote
	Reject
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Quote:
		return "quote"
	case Reject:
		return "reject"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Identifier is one classified unquoted word.
type Identifier struct {
	Index    int // position in Analysis.Tokens
	Token    token.Token
	Role     Role
	Category dialect.Category // zero when not reserved
	Action   Action
	Err      *ValidationError // set when Action is Reject
}

// Reserved reports whether the word is in the dialect's table.
func (id Identifier) Reserved() bool {
	return id.Category != 0
}

// Analysis is a tokenized query with every unquoted word classified.
type Analysis struct {
	Input       string
	Tokens      []token.Token
	Comments    []*token.Comment
	Identifiers []Identifier
}

// Err returns the first violation, or nil.
func (a *Analysis) Err() error {
	for _, id := range a.Identifiers {
		if id.Err != nil {
			return id.Err
		}
	}
	return nil
}

// Violations returns every violation in source order.
func (a *Analysis) Violations() []*ValidationError {
	var out []*ValidationError
	for _, id := range a.Identifiers {
		if id.Err != nil {
			out = append(out, id.Err)
		}
	}
	return out
}

// Rewrite returns the input with every Quote action applied. Text outside
// quoted identifiers is copied unchanged, comments and whitespace included.
func (a *Analysis) Rewrite(d *dialect.Dialect) string {
	var b strings.Builder
	b.Grow(len(a.Input) + 8)
	last := 0
	for _, id := range a.Identifiers {
		if id.Action != Quote {
			continue
		}
		span := id.Token.Span
		b.WriteString(a.Input[last:span.Start.Offset])
		b.WriteString(d.QuoteIdentifier(id.Token.Literal))
		last = span.End.Offset
	}
	b.WriteString(a.Input[last:])
	return b.String()
}

type clause int

const (
	clauseNone clause = iota
	clauseSelect
	clauseFrom
	clauseOther
)

// classifier walks the token stream once, keeping one clause per paren
// depth, and assigns a role to each unquoted word from its neighbours.
type classifier struct {
	d     *dialect.Dialect
	toks  []token.Token
	roles []Role
	stack []clause
	// exprFrom marks FROM keywords inside expressions, as in
	// IS DISTINCT FROM x or EXTRACT(unit FROM x).
	exprFrom map[int]bool
}

func analyze(d *dialect.Dialect, sql string) *Analysis {
	toks, comments := Tokenize(sql)
	c := &classifier{
		d:     d,
		toks:  toks,
		roles: make([]Role, len(toks)),
		stack: []clause{clauseNone},

		exprFrom: make(map[int]bool),
	}

	a := &Analysis{Input: sql, Tokens: toks, Comments: comments}
	for i, tok := range toks {
		switch tok.Type {
		case token.LPAREN:
			c.stack = append(c.stack, clauseNone)
		case token.RPAREN:
			if len(c.stack) > 1 {
				c.stack = c.stack[:len(c.stack)-1]
			}
		case token.SEMI:
			c.stack = c.stack[:1]
			c.stack[0] = clauseNone
		case token.IDENT:
			role := c.classify(i)
			c.roles[i] = role
			if role == RoleKeyword {
				c.transition(i, strings.ToUpper(tok.Literal))
			}
			id := c.decide(tok, role)
			id.Index = i
			a.Identifiers = append(a.Identifiers, id)
		}
	}
	return a
}

// decide maps a role and the word's category to an action.
func (c *classifier) decide(tok token.Token, role Role) Identifier {
	id := Identifier{Token: tok, Role: role}
	cat, ok := c.d.Lookup(tok.Literal)
	if !ok {
		return id
	}
	id.Category = cat

	reject := func(k Kind) {
		id.Action = Reject
		id.Err = &ValidationError{Kind: k, Word: strings.ToUpper(tok.Literal), Position: tok.Span.Start}
	}

	switch role {
	case RoleColumn:
		switch cat {
		case dialect.ForbiddenScalar:
			reject(ForbiddenScalarUsage)
		case dialect.ForbiddenColumn:
			reject(ForbiddenColumnName)
		default:
			id.Action = Quote
		}
	case RoleTable:
		if cat == dialect.ForbiddenFromClause {
			reject(ForbiddenFromClauseUsage)
		}
	case RoleTableAlias:
		if cat == dialect.ForbiddenFromClause {
			reject(ForbiddenFromClauseUsage)
		} else {
			id.Action = Quote
		}
	case RoleColumnAlias, RoleQualified:
		id.Action = Quote
	}
	return id
}

func (c *classifier) top() clause {
	return c.stack[len(c.stack)-1]
}

func (c *classifier) setTop(cl clause) {
	c.stack[len(c.stack)-1] = cl
}

// transition updates the clause at the current depth after the keyword at i.
func (c *classifier) transition(i int, word string) {
	switch {
	case word == "SELECT":
		c.setTop(clauseSelect)
	case word == "FROM":
		if c.top() == clauseSelect {
			c.setTop(clauseFrom)
		} else {
			c.exprFrom[i] = true
		}
	case word == "JOIN":
		c.setTop(clauseFrom)
	case setOperators.has(word):
		c.setTop(clauseNone)
	case clauseWords.has(word):
		c.setTop(clauseOther)
	}
}

func (c *classifier) tok(i int) token.Token {
	if i < 0 {
		return token.Token{Type: token.EOF}
	}
	if i >= len(c.toks) {
		return c.toks[len(c.toks)-1]
	}
	return c.toks[i]
}

// keywordAt reports whether the already classified token at i is the
// keyword kw used as syntax.
func (c *classifier) keywordAt(i int, kw string) bool {
	return i >= 0 && c.roles[i] == RoleKeyword && c.toks[i].Is(kw)
}

func (c *classifier) classify(i int) Role {
	tok := c.toks[i]
	upper := strings.ToUpper(tok.Literal)
	prev, next := c.tok(i-1), c.tok(i+1)
	_, reserved := c.d.Lookup(upper)
	syntax := syntaxWords.has(upper)

	if next.Type == token.LPAREN {
		if syntax {
			return RoleKeyword
		}
		return RoleFunction
	}
	if prev.Type == token.DCOLON {
		return RoleType
	}
	if prev.Type == token.COLON {
		return RolePath
	}
	if prev.Type == token.DOT || next.Type == token.DOT {
		return c.chainRole(i)
	}

	if c.tablePosition(i - 1) {
		if upper == "LATERAL" && next.Type == token.IDENT {
			return RoleKeyword
		}
		return RoleTable
	}

	if c.keywordAt(i-1, "AS") {
		switch c.top() {
		case clauseFrom:
			return RoleTableAlias
		case clauseSelect:
			return RoleColumnAlias
		}
		return RoleType
	}

	if c.bareSelectItem(i) {
		return RoleColumn
	}

	if c.operandPosition(i - 1) {
		if !reserved && !syntax {
			return RoleColumn
		}
		switch {
		case literalWords.has(upper):
			return RoleLiteral
		case modifierWords.has(upper):
			return RoleKeyword
		}
		if cat, _ := c.d.Lookup(upper); cat == dialect.ForbiddenScalar || cat == dialect.ForbiddenColumn {
			// literal or pseudo-function in expression position
			return RoleKeyword
		}
		if syntax {
			if c.strongFollower(next) {
				return RoleColumn
			}
			return RoleKeyword
		}
		if c.weakFollower(next) {
			return RoleColumn
		}
		return RoleKeyword
	}

	if reserved || syntax {
		return RoleKeyword
	}
	if c.followsName(i - 1) {
		return RoleAlias
	}
	return RoleColumn
}

// chainRole classifies a part of a dotted reference by the context of the
// reference's first part.
func (c *classifier) chainRole(i int) Role {
	head := i
	for head >= 2 && c.toks[head-1].Type == token.DOT && c.toks[head-2].Type.IsWord() {
		head -= 2
	}
	before := c.tok(head - 1)
	switch {
	case before.Type == token.COLON:
		return RolePath
	case before.Type == token.DCOLON:
		return RoleType
	case c.tablePosition(head - 1):
		return RoleTable
	}
	return RoleQualified
}

// tablePosition reports whether a table reference starts after token p.
func (c *classifier) tablePosition(p int) bool {
	if p < 0 || c.top() != clauseFrom {
		return false
	}
	t := c.toks[p]
	switch {
	case t.Type == token.COMMA:
		return true
	case c.keywordAt(p, "FROM"):
		return !c.exprFrom[p]
	case c.keywordAt(p, "JOIN"):
		return true
	}
	return false
}

// operandPosition reports whether an expression operand is expected after
// token p.
func (c *classifier) operandPosition(p int) bool {
	if p < 0 {
		return false
	}
	t := c.toks[p]
	switch {
	case t.Type == token.COMMA:
		return c.top() != clauseFrom
	case t.Type == token.LPAREN, t.Type == token.LBRACKET, t.Type.IsOperator():
		return true
	case t.Type == token.IDENT && c.roles[p] == RoleKeyword:
		return c.exprFrom[p] || operandLeaders.has(strings.ToUpper(t.Literal))
	}
	return false
}

// bareSelectItem reports whether the word at i is a whole select-list item.
func (c *classifier) bareSelectItem(i int) bool {
	if c.top() != clauseSelect {
		return false
	}
	p := i - 1
	if c.keywordAt(p, "DISTINCT") || c.keywordAt(p, "ALL") {
		p--
	}
	if p < 0 {
		return false
	}
	if !(c.toks[p].Type == token.COMMA && p == i-1) && !c.keywordAt(p, "SELECT") {
		return false
	}

	next := c.tok(i + 1)
	switch next.Type {
	case token.COMMA, token.SEMI, token.EOF, token.RPAREN:
		return true
	case token.IDENT:
		return selectItemEnders.has(strings.ToUpper(next.Literal))
	}
	return false
}

// followsName reports whether token p ends a name or parenthesised item,
// making the next word an implicit alias.
func (c *classifier) followsName(p int) bool {
	if p < 0 {
		return false
	}
	t := c.toks[p]
	switch t.Type {
	case token.QUOTED_IDENT, token.RPAREN:
		return true
	case token.IDENT:
		switch c.roles[p] {
		case RoleTable, RoleColumn, RoleQualified, RoleFunction:
			return true
		}
	}
	return false
}

func (c *classifier) strongFollower(t token.Token) bool {
	switch t.Type {
	case token.COMMA, token.RPAREN, token.RBRACKET, token.EOF, token.SEMI,
		token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.DCOLON, token.LBRACKET:
		return true
	case token.IDENT:
		return strongFollowers.has(strings.ToUpper(t.Literal))
	}
	return false
}

func (c *classifier) weakFollower(t token.Token) bool {
	if c.strongFollower(t) {
		return true
	}
	switch {
	case t.Type.IsOperator(), t.Type == token.COLON:
		return true
	case t.Type == token.IDENT:
		return weakFollowers.has(strings.ToUpper(t.Literal))
	}
	return false
}
