package snowflake

import (
	"testing"

	"github.com/leapstack-labs/mcp-panther/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	d := Dialect

	require.NotNil(t, d)
	assert.Equal(t, "snowflake", d.Name)
	assert.Equal(t, `"`, d.Quote)
	assert.Equal(t, "CURRENT_TIMESTAMP()", d.TimestampFunction())
	assert.False(t, d.StripsPublicSchema())
}

func TestDialectRegistration(t *testing.T) {
	d, ok := dialect.Get("snowflake")
	require.True(t, ok, "snowflake dialect should be registered")
	assert.Same(t, Dialect, d)
	assert.Same(t, Dialect, dialect.Resolve(""))
}

func TestReservedWords(t *testing.T) {
	for _, w := range []string{
		"REGEXP", "QUALIFY", "COLUMN", "MINUS", "DATABASE", "SCHEMA", "VIEW",
		"ACCOUNT", "ORGANIZATION", "ORDER", "ALL", "ACTION",
	} {
		c, ok := Dialect.Lookup(w)
		require.True(t, ok, w)
		assert.Equal(t, dialect.AutoQuotable, c, w)
	}

	tests := map[string]dialect.Category{
		"true":              dialect.ForbiddenScalar,
		"TRY_CAST":          dialect.ForbiddenScalar,
		"current_timestamp": dialect.ForbiddenColumn,
		"LOCALTIME":         dialect.ForbiddenColumn,
		"join":              dialect.ForbiddenFromClause,
		"ASOF":              dialect.ForbiddenFromClause,
	}
	for w, want := range tests {
		c, ok := Dialect.Lookup(w)
		require.True(t, ok, w)
		assert.Equal(t, want, c, w)
	}

	assert.False(t, Dialect.IsReservedWord("NULL"))
	assert.False(t, Dialect.IsReservedWord("p_event_time"))
	assert.False(t, Dialect.IsReservedWord("DELTA"))
}

func TestCategoriesDisjoint(t *testing.T) {
	seen := map[string]dialect.Category{}
	for _, c := range []dialect.Category{
		dialect.AutoQuotable, dialect.ForbiddenScalar, dialect.ForbiddenColumn, dialect.ForbiddenFromClause,
	} {
		for _, w := range Dialect.Words(c) {
			prev, dup := seen[w]
			assert.False(t, dup, "%s in %s and %s", w, prev, c)
			seen[w] = c
		}
	}
	assert.Equal(t, Dialect.Len(), len(seen))
}
