package emitter

import (
	"fmt"
	"strings"

	"github.com/duckcypher/duckcypher/ast"
	"github.com/duckcypher/duckcypher/compileerr"
	"github.com/duckcypher/duckcypher/schema"
)

// resolver carries everything needed to resolve an ast.EntityRef to
// SQL text for one stage: the registry, the current stage's bindings
// and groups, the bound aliases in declaration order (for bare
// "RETURN *"), and the previous stage's carried result, if any.
type resolver struct {
	reg      *schema.Registry
	bindings map[string]string
	groups   map[string]*group
	order    []string
	prev     *PrevResult
}

// resolveRefSQL resolves a qualified, current-stage column reference
// to "<groupAlias>.<field>" — used for a condition's left-hand side
// and for ORDER BY, both of which must name a single column.
func (r *resolver) resolveRefSQL(ref *ast.EntityRef) (string, error) {
	typ, ok := r.bindings[ref.Alias]
	if !ok {
		return "", compileerr.At(compileerr.UnboundAlias, ref.Alias, ref.Pos.Line, ref.Pos.Column,
			"alias is not bound in this stage's MATCH")
	}
	if ref.Column == "" {
		return "", compileerr.At(compileerr.Unsupported, ref.Alias, ref.Pos.Line, ref.Pos.Column,
			"a whole entity cannot be used where a single column is required")
	}
	_, field, err := r.reg.FieldOf(typ, ref.Column)
	if err != nil {
		return "", err
	}
	g := r.groups[ref.Alias]
	return quoteIdent(g.SQLAlias) + "." + quoteIdent(field), nil
}

// emitTerm resolves the right-hand side of a leaf Condition: a
// literal, a same-stage column, or a carried alias from the previous
// stage lowered to a scalar subselect.
func (r *resolver) emitTerm(t *ast.Term) (string, error) {
	if t.Literal != nil {
		return literalSQL(t.Literal), nil
	}
	ref := t.Ref
	if typ, ok := r.bindings[ref.Alias]; ok {
		if ref.Column == "" {
			return "", compileerr.At(compileerr.Unsupported, ref.Alias, ref.Pos.Line, ref.Pos.Column,
				"comparing against a whole entity is not supported")
		}
		_, field, err := r.reg.FieldOf(typ, ref.Column)
		if err != nil {
			return "", err
		}
		g := r.groups[ref.Alias]
		return quoteIdent(g.SQLAlias) + "." + quoteIdent(field), nil
	}
	if r.prev.has(ref.Alias) {
		if ref.Column != "" {
			return "", compileerr.At(compileerr.Unsupported, ref.Alias, ref.Pos.Line, ref.Pos.Column,
				"a carried alias is addressable only bare, not by column")
		}
		return r.carrySubselect(ref), nil
	}
	return "", compileerr.At(compileerr.UnboundAlias, ref.Alias, ref.Pos.Line, ref.Pos.Column,
		"alias is not bound in this stage or carried from the previous stage")
}

// carrySubselect builds "(SELECT <alias> FROM <prevTable>)": "x AS
// alias" in the previous stage's RETURN produced a result column
// literally named alias. Callers have already rejected qualified
// references to a carried alias.
func (r *resolver) carrySubselect(ref *ast.EntityRef) string {
	return fmt.Sprintf("(SELECT %s FROM %s)", quoteIdent(ref.Alias), quoteIdent(r.prev.Table))
}

// emitCondition recursively lowers a WHERE tree, preserving the
// associativity the parser built.
func (r *resolver) emitCondition(c *ast.Condition) (string, error) {
	if c.IsLeaf() {
		lhs, err := r.resolveRefSQL(c.Left)
		if err != nil {
			return "", err
		}
		if c.Right.Literal != nil && c.Right.Literal.Kind == ast.LiteralNull {
			switch c.Op {
			case ast.OpEq:
				return lhs + " IS NULL", nil
			case ast.OpNeq:
				return lhs + " IS NOT NULL", nil
			}
		}
		rhs, err := r.emitTerm(c.Right)
		if err != nil {
			return "", err
		}
		return lhs + " " + string(c.Op) + " " + rhs, nil
	}
	lhs, err := r.emitCondition(c.LHS)
	if err != nil {
		return "", err
	}
	rhs, err := r.emitCondition(c.RHS)
	if err != nil {
		return "", err
	}
	return "(" + lhs + ") " + string(c.Combinator) + " (" + rhs + ")", nil
}

// emitReturn lowers every RETURN/WITH item into its projected SQL text.
func (r *resolver) emitReturn(ret *ast.Return) ([]string, error) {
	out := make([]string, 0, len(ret.Items))
	for _, item := range ret.Items {
		sql, err := r.emitReturnItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, sql)
	}
	return out, nil
}

func withAs(sql, as string) string {
	if as == "" {
		return sql
	}
	return sql + " AS " + quoteIdent(as)
}

func (r *resolver) emitReturnItem(item *ast.ReturnItem) (string, error) {
	ref := item.Ref

	if _, bound := r.bindings[ref.Alias]; !bound && !ref.Star && r.prev.has(ref.Alias) {
		if ref.Column != "" {
			return "", compileerr.At(compileerr.Unsupported, ref.Alias, ref.Pos.Line, ref.Pos.Column,
				"a carried alias is addressable only bare, not by column")
		}
		if item.Aggregate != nil {
			return "", compileerr.At(compileerr.Unsupported, ref.Alias, item.Pos.Line, item.Pos.Column,
				"aggregating a carried scalar is not supported")
		}
		return withAs(r.carrySubselect(ref), item.As), nil
	}

	if ref.Star {
		if item.Aggregate != nil {
			// count(*) stays COUNT(*) so it never decays to counting a
			// specific column; other aggregates over * fall back to the
			// first group's row.
			if *item.Aggregate == ast.AggCount {
				return withAs("COUNT(*)", item.As), nil
			}
			g := r.groups[r.order[0]]
			return withAs(aggFuncs[*item.Aggregate]+"("+quoteIdent(g.SQLAlias)+".*)", item.As), nil
		}
		// Bare "RETURN *": expand every bound alias's every field.
		if item.As != "" {
			return "", compileerr.At(compileerr.Unsupported, "*", item.Pos.Line, item.Pos.Column,
				"AS on a bare * projection is not supported")
		}
		var parts []string
		for _, alias := range r.order {
			typ := r.bindings[alias]
			g := r.groups[alias]
			fields, err := r.reg.AllFields(typ)
			if err != nil {
				return "", err
			}
			for _, f := range fields {
				parts = append(parts, quoteIdent(g.SQLAlias)+"."+quoteIdent(f))
			}
		}
		return strings.Join(parts, ", "), nil
	}

	typ, ok := r.bindings[ref.Alias]
	if !ok {
		return "", compileerr.At(compileerr.UnboundAlias, ref.Alias, ref.Pos.Line, ref.Pos.Column,
			"alias is not bound in this stage or carried from the previous stage")
	}
	g := r.groups[ref.Alias]

	if ref.Column != "" {
		_, field, err := r.reg.FieldOf(typ, ref.Column)
		if err != nil {
			return "", err
		}
		base := quoteIdent(g.SQLAlias) + "." + quoteIdent(field)
		if item.Aggregate != nil {
			return withAs(aggFuncs[*item.Aggregate]+"("+base+")", item.As), nil
		}
		return withAs(base, item.As), nil
	}

	// Whole-entity reference (bare alias, no column, not star).
	if item.Aggregate != nil {
		base := quoteIdent(g.SQLAlias) + ".*"
		return withAs(aggFuncs[*item.Aggregate]+"("+base+")", item.As), nil
	}
	if item.As != "" {
		return "", compileerr.At(compileerr.Unsupported, ref.Alias, item.Pos.Line, item.Pos.Column,
			"AS on a multi-column entity projection is not supported")
	}
	fields, err := r.reg.AllFields(typ)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = quoteIdent(g.SQLAlias) + "." + quoteIdent(f)
	}
	return strings.Join(parts, ", "), nil
}
