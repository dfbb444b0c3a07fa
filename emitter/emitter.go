// Package emitter renders one planned stage as a single SELECT
// statement, resolving every alias to a physical table/column through
// the schema.Registry. Nothing here touches a database — Emit is a
// pure function from IR plus registry to a SQL string.
package emitter

import (
	"fmt"
	"strings"

	"github.com/duckcypher/duckcypher/ast"
	"github.com/duckcypher/duckcypher/planner"
	"github.com/duckcypher/duckcypher/schema"
)

// PrevResult describes the previous stage's registered result: an
// implicit table that is never itself joined, only referenced through
// scalar subselects from a WHERE condition's right-hand side and from
// RETURN items. ORDER BY does not resolve carried aliases.
type PrevResult struct {
	Table        string
	CarryAliases []string
}

func (p *PrevResult) has(alias string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.CarryAliases {
		if a == alias {
			return true
		}
	}
	return false
}

var aggFuncs = map[ast.AggregateOp]string{
	ast.AggCount: "COUNT",
	ast.AggSum:   "SUM",
	ast.AggAvg:   "AVG",
	ast.AggMin:   "MIN",
	ast.AggMax:   "MAX",
}

// Emit renders the single SELECT statement for one planned stage.
func Emit(reg *schema.Registry, planned *planner.PlannedStage, prev *PrevResult) (string, error) {
	stage := planned.Stage

	groups, index, err := buildGroups(reg, stage.Match.Nodes)
	if err != nil {
		return "", err
	}

	order := make([]string, len(stage.Match.Nodes))
	for i, n := range stage.Match.Nodes {
		order[i] = n.Alias
	}
	res := &resolver{reg: reg, bindings: planned.Bindings, groups: index, order: order, prev: prev}

	var conds []string

	// Node-pattern property filters lower into WHERE conjuncts.
	for _, n := range stage.Match.Nodes {
		g := index[n.Alias]
		for _, pf := range n.Properties {
			_, field, err := reg.FieldOf(n.Type, pf.Column)
			if err != nil {
				return "", err
			}
			lhs := quoteIdent(g.SQLAlias) + "." + quoteIdent(field)
			if pf.Value.Kind == ast.LiteralNull {
				conds = append(conds, lhs+" IS NULL")
			} else {
				conds = append(conds, lhs+" = "+literalSQL(&pf.Value))
			}
		}
	}

	// Explicit WHERE.
	if stage.Where != nil {
		c, err := res.emitCondition(stage.Where.Root)
		if err != nil {
			return "", err
		}
		conds = append(conds, c)
	}

	// RETURN projection.
	selectList, err := res.emitReturn(stage.Return)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selectList, ", "))
	from, err := fromClause(reg, groups)
	if err != nil {
		return "", err
	}
	b.WriteString("\nFROM ")
	b.WriteString(from)

	if len(conds) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if stage.OrderBy != nil {
		field, err := res.resolveRefSQL(stage.OrderBy.Ref)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if !stage.OrderBy.Ascending {
			dir = "DESC"
		}
		b.WriteString("\nORDER BY ")
		b.WriteString(field)
		b.WriteString(" ")
		b.WriteString(dir)
	}

	switch {
	case stage.Limit != nil && stage.Skip != nil:
		fmt.Fprintf(&b, "\nLIMIT %d OFFSET %d", stage.Limit.Count, stage.Skip.Count)
	case stage.Limit != nil:
		fmt.Fprintf(&b, "\nLIMIT %d", stage.Limit.Count)
	case stage.Skip != nil:
		fmt.Fprintf(&b, "\nOFFSET %d", stage.Skip.Count)
	}

	return b.String(), nil
}

// fromClause renders the FROM/JOIN chain: the first group anchors the
// statement, every subsequent group equi-joins the previous group's
// last member onto this group's first member on their primary keys.
// Co-located members of a single group need no join at all; they
// already share one row via the group's backing table.
func fromClause(reg *schema.Registry, groups []*group) (string, error) {
	var b strings.Builder
	b.WriteString(quoteIdent(groups[0].Table))
	b.WriteString(" AS ")
	b.WriteString(quoteIdent(groups[0].SQLAlias))

	for i := 1; i < len(groups); i++ {
		prevGroup := groups[i-1]
		curGroup := groups[i]
		prevType := prevGroup.Types[prevGroup.Members[len(prevGroup.Members)-1]]
		curType := curGroup.Types[curGroup.Members[0]]

		leftField, rightField, err := reg.JoinFields(prevType, curType)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\nJOIN %s AS %s ON %s.%s = %s.%s",
			quoteIdent(curGroup.Table), quoteIdent(curGroup.SQLAlias),
			quoteIdent(prevGroup.SQLAlias), quoteIdent(leftField),
			quoteIdent(curGroup.SQLAlias), quoteIdent(rightField))
	}
	return b.String(), nil
}
