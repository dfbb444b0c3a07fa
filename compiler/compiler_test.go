package compiler

import (
	"strings"
	"testing"

	"github.com/duckcypher/duckcypher/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRegistry builds the customer/infos schema the tests share:
// customer(id, first_name, last_name, company) primary id, and
// infos(id, age, state) primary id, with models Customer, Company, and
// CustomerInfo mapped accordingly.
func seedRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.AddTableFromCSV("customer", "customer.csv"))
	require.NoError(t, r.AddTableFromCSV("infos", "infos.csv"))

	require.NoError(t, r.AddModel("Customer", "customer", []schema.Column{
		{Name: "id", Primary: true},
		{Name: "first_name"},
		{Name: "last_name"},
		{Name: "company"},
	}))
	require.NoError(t, r.AddModel("Company", "customer", []schema.Column{
		{Name: "id", Primary: true},
		{Name: "company"},
	}))
	require.NoError(t, r.AddModel("CustomerInfo", "infos", []schema.Column{
		{Name: "id", Primary: true},
		{Name: "age"},
		{Name: "state"},
	}))
	return r
}

// TestCompileSeedScenarios covers the main query shapes end to end,
// asserting on the emitted SQL for each stage rather than against a
// live database: the compiler never opens a connection, so these are
// plain string/shape assertions.
func TestCompileSeedScenarios(t *testing.T) {
	reg := seedRegistry(t)

	t.Run("single node projects one column", func(t *testing.T) {
		sqls, err := Compile(reg, `MATCH (c:Customer) WITH c.first_name`)
		require.NoError(t, err)
		require.Len(t, sqls, 1)
		assert.Contains(t, sqls[0], `SELECT "c"."first_name"`)
		assert.Contains(t, sqls[0], `FROM "customer" AS "c"`)
		assert.NotContains(t, sqls[0], "JOIN")
	})

	t.Run("two types same table emit no join", func(t *testing.T) {
		sqls, err := Compile(reg, `MATCH (cu:Customer) -- (co:Company) RETURN co.company, cu.first_name`)
		require.NoError(t, err)
		require.Len(t, sqls, 1)
		assert.NotContains(t, sqls[0], "JOIN")
		assert.Contains(t, sqls[0], `"cu"."company"`)
		assert.Contains(t, sqls[0], `"cu"."first_name"`)
		assert.Contains(t, sqls[0], `FROM "customer" AS "cu"`)
	})

	t.Run("cross-table join on primary id", func(t *testing.T) {
		sqls, err := Compile(reg, `MATCH (cu:Customer) -- (ci:CustomerInfo) RETURN cu.first_name, ci.age, ci.state`)
		require.NoError(t, err)
		require.Len(t, sqls, 1)
		assert.Contains(t, sqls[0], `JOIN "infos" AS "ci" ON "cu"."id" = "ci"."id"`)
	})

	t.Run("node-pattern filter through a third type", func(t *testing.T) {
		sqls, err := Compile(reg, `MATCH (m:Customer {first_name:"michael"}) -- (co:Company) -- (p:Customer) RETURN p`)
		require.NoError(t, err)
		require.Len(t, sqls, 1)
		sql := sqls[0]
		assert.Contains(t, sql, `"m"."first_name" = 'michael'`)
		assert.Contains(t, sql, `JOIN "customer" AS "p" ON "m"."id" = "p"."id"`)
		assert.Contains(t, sql, `"p"."id"`)
		assert.Contains(t, sql, `"p"."first_name"`)
		assert.Contains(t, sql, `"p"."last_name"`)
		assert.Contains(t, sql, `"p"."company"`)
	})

	t.Run("aggregate over a join", func(t *testing.T) {
		sqls, err := Compile(reg, `MATCH (co:Company {company:"google"}) -- (cu:Customer) RETURN count(cu)`)
		require.NoError(t, err)
		require.Len(t, sqls, 1)
		sql := sqls[0]
		assert.Contains(t, sql, `SELECT COUNT("co".*)`)
		assert.Contains(t, sql, `"co"."company" = 'google'`)
	})

	t.Run("pipeline with carried alias becomes a subselect", func(t *testing.T) {
		sqls, err := Compile(reg, `MATCH (c:Customer {first_name:"Lisa"}) -- (lisa:CustomerInfo {state:"TX"}) WITH lisa.age AS lisa_age MATCH (cu:Customer) -- (i:CustomerInfo {state:"FL"}) WHERE i.age > lisa_age AND cu.first_name <> "Lisa" RETURN cu.first_name, i`)
		require.NoError(t, err)
		require.Len(t, sqls, 2)

		assert.Contains(t, sqls[0], `"c"."first_name" = 'Lisa'`)
		assert.Contains(t, sqls[0], `"lisa"."state" = 'TX'`)
		assert.Contains(t, sqls[0], `SELECT "lisa"."age" AS "lisa_age"`)

		second := sqls[1]
		assert.Contains(t, second, `(SELECT "lisa_age" FROM "_stage1")`)
		assert.Contains(t, second, `"cu"."first_name" <> 'Lisa'`)
		assert.Contains(t, second, `"i"."state" = 'FL'`)
	})
}

func TestCompileUnknownTypeSurfacesError(t *testing.T) {
	reg := seedRegistry(t)
	_, err := Compile(reg, `MATCH (g:Ghost) RETURN g`)
	require.Error(t, err)
}

func TestCompileReturnStarExpandsAllBoundFields(t *testing.T) {
	reg := seedRegistry(t)
	sqls, err := Compile(reg, `MATCH (c:Customer) RETURN *`)
	require.NoError(t, err)
	require.Len(t, sqls, 1)
	fields := []string{`"c"."id"`, `"c"."first_name"`, `"c"."last_name"`, `"c"."company"`}
	for _, f := range fields {
		assert.Contains(t, sqls[0], f)
	}
}

func TestCompileOrderByAndLimit(t *testing.T) {
	reg := seedRegistry(t)
	sqls, err := Compile(reg, `MATCH (c:Customer) RETURN c.first_name ORDER BY c.first_name LIMIT 10`)
	require.NoError(t, err)
	require.Len(t, sqls, 1)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(sqls[0]), "LIMIT 10"))
	assert.Contains(t, sqls[0], `ORDER BY "c"."first_name" ASC`)
}

func TestCompileOrderByDescending(t *testing.T) {
	reg := seedRegistry(t)
	sqls, err := Compile(reg, `MATCH (c:Customer) RETURN c.first_name ORDER BY c.first_name DESC`)
	require.NoError(t, err)
	require.Len(t, sqls, 1)
	assert.Contains(t, sqls[0], `ORDER BY "c"."first_name" DESC`)
}

func TestCompileSkipWithoutLimitEmitsBareOffset(t *testing.T) {
	reg := seedRegistry(t)
	sqls, err := Compile(reg, `MATCH (c:Customer) RETURN c.first_name SKIP 5`)
	require.NoError(t, err)
	require.Len(t, sqls, 1)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(sqls[0]), "OFFSET 5"))
}

func TestCompileSkipAndLimitCombine(t *testing.T) {
	reg := seedRegistry(t)
	sqls, err := Compile(reg, `MATCH (c:Customer) RETURN c.first_name SKIP 5 LIMIT 10`)
	require.NoError(t, err)
	require.Len(t, sqls, 1)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(sqls[0]), "LIMIT 10 OFFSET 5"))
}

func TestCompileSelfJoinOnIdentityIsInvalid(t *testing.T) {
	reg := seedRegistry(t)
	_, err := Compile(reg, `MATCH (a:Customer) -- (b:Customer) RETURN a`)
	require.Error(t, err)
}
