package emitter

import (
	"errors"
	"testing"

	"github.com/duckcypher/duckcypher/compileerr"
	"github.com/duckcypher/duckcypher/parser"
	"github.com/duckcypher/duckcypher/planner"
	"github.com/duckcypher/duckcypher/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func emitSingleStage(t *testing.T, reg *schema.Registry, query string, prev *PrevResult) (string, error) {
	t.Helper()
	q, err := parser.Parse(query)
	require.NoError(t, err)
	planned, err := planner.Plan(q)
	require.NoError(t, err)
	require.Len(t, planned, 1)
	return Emit(reg, planned[0], prev)
}

func TestEmitSameTableGroupHasNoJoin(t *testing.T) {
	reg := seedRegistry(t)
	sql, err := emitSingleStage(t, reg, `MATCH (cu:Customer) -- (co:Company) RETURN co.company, cu.first_name`, nil)
	require.NoError(t, err)
	assert.NotContains(t, sql, "JOIN")
}

func TestEmitCrossTableGroupJoinsOnPrimary(t *testing.T) {
	reg := seedRegistry(t)
	sql, err := emitSingleStage(t, reg, `MATCH (cu:Customer) -- (ci:CustomerInfo) RETURN cu.first_name`, nil)
	require.NoError(t, err)
	assert.Contains(t, sql, `JOIN "infos" AS "ci" ON "cu"."id" = "ci"."id"`)
}

func TestEmitRejoinsThroughSharedTableWithoutError(t *testing.T) {
	// m and p are both Customer but not adjacent (co sits between), so
	// they land in different groups and the cross-group join on the
	// shared customer table is legal.
	reg := seedRegistry(t)
	sql, err := emitSingleStage(t, reg, `MATCH (m:Customer {first_name:"michael"}) -- (co:Company) -- (p:Customer) RETURN p`, nil)
	require.NoError(t, err)
	assert.Contains(t, sql, `JOIN "customer" AS "p" ON "m"."id" = "p"."id"`)
}

func TestEmitLiteralAdjacentSameTypeIsInvalidJoin(t *testing.T) {
	reg := seedRegistry(t)
	_, err := emitSingleStage(t, reg, `MATCH (a:Customer) -- (b:Customer) RETURN a`, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compileerr.ErrInvalidJoin))
}

func TestEmitUnknownColumnInPropertyFilter(t *testing.T) {
	reg := seedRegistry(t)
	_, err := emitSingleStage(t, reg, `MATCH (c:Customer {nickname: "mo"}) RETURN c`, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compileerr.ErrUnknownColumn))
}

func TestEmitUnboundAliasInWhere(t *testing.T) {
	reg := seedRegistry(t)
	_, err := emitSingleStage(t, reg, `MATCH (c:Customer) WHERE ghost.age > 1 RETURN c`, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compileerr.ErrUnboundAlias))
}

func TestEmitCarryAliasBecomesSubselect(t *testing.T) {
	reg := seedRegistry(t)
	prev := &PrevResult{Table: "aaaa", CarryAliases: []string{"lisa_age"}}
	sql, err := emitSingleStage(t, reg, `MATCH (cu:Customer) -- (i:CustomerInfo) WHERE i.age > lisa_age RETURN cu.first_name`, prev)
	require.NoError(t, err)
	assert.Contains(t, sql, `(SELECT "lisa_age" FROM "aaaa")`)
}

func TestEmitQualifiedCarryAliasInWhereIsRejected(t *testing.T) {
	reg := seedRegistry(t)
	prev := &PrevResult{Table: "aaaa", CarryAliases: []string{"lisa_age"}}
	_, err := emitSingleStage(t, reg, `MATCH (cu:Customer) -- (i:CustomerInfo) WHERE i.age > lisa_age.foo RETURN cu.first_name`, prev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compileerr.ErrUnsupported))
}

func TestEmitQualifiedCarryAliasInReturnIsRejected(t *testing.T) {
	reg := seedRegistry(t)
	prev := &PrevResult{Table: "aaaa", CarryAliases: []string{"lisa_age"}}
	_, err := emitSingleStage(t, reg, `MATCH (cu:Customer) RETURN lisa_age.foo`, prev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compileerr.ErrUnsupported))
}

func TestEmitNullComparisonLowersToIsNull(t *testing.T) {
	reg := seedRegistry(t)
	sql, err := emitSingleStage(t, reg, `MATCH (c:Customer) WHERE c.company = NULL RETURN c.first_name`, nil)
	require.NoError(t, err)
	assert.Contains(t, sql, `"c"."company" IS NULL`)
}

func TestEmitCountStarIsBitStable(t *testing.T) {
	reg := seedRegistry(t)
	sql, err := emitSingleStage(t, reg, `MATCH (c:Customer) RETURN count(*)`, nil)
	require.NoError(t, err)
	assert.Contains(t, sql, "COUNT(*)")
}

func TestEmitNonCountAggregateOverStarUsesFirstGroup(t *testing.T) {
	reg := seedRegistry(t)
	sql, err := emitSingleStage(t, reg, `MATCH (i:CustomerInfo) RETURN min(*)`, nil)
	require.NoError(t, err)
	assert.Contains(t, sql, `MIN("i".*)`)
}

func TestEmitIntegerLiteralHasNoTrailingDecimal(t *testing.T) {
	reg := seedRegistry(t)
	sql, err := emitSingleStage(t, reg, `MATCH (i:CustomerInfo) WHERE i.age > 18 RETURN i.age`, nil)
	require.NoError(t, err)
	assert.Contains(t, sql, "> 18")
	assert.NotContains(t, sql, "18.0")
}
