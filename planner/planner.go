// Package planner splits a parsed ast.Query into per-stage
// binding/carry information that the SQL emitter consumes one stage at
// a time, threading the previous stage's result as an implicit table.
// It owns no I/O — Plan is a pure function from IR to a planned-stage
// list.
package planner

import (
	"github.com/duckcypher/duckcypher/ast"
	"github.com/duckcypher/duckcypher/compileerr"
)

// PlannedStage is one stage plus the binding information the emitter
// needs but the parser doesn't compute: the current MATCH's
// alias→type bindings, and the set of carry aliases addressable from
// the previous stage's RETURN.
type PlannedStage struct {
	Stage        *ast.Stage
	Bindings     map[string]string // alias -> entity type, this stage's MATCH only
	CarryAliases []string          // explicit AS names from the previous stage's RETURN
}

// Plan validates and splits q into PlannedStages.
func Plan(q *ast.Query) ([]*PlannedStage, error) {
	planned := make([]*PlannedStage, len(q.Stages))
	for i, stage := range q.Stages {
		if err := checkEdges(stage.Match); err != nil {
			return nil, err
		}

		bindings := make(map[string]string, len(stage.Match.Nodes))
		for _, n := range stage.Match.Nodes {
			if _, dup := bindings[n.Alias]; dup {
				return nil, compileerr.At(compileerr.AmbiguousAlias, n.Alias, n.Pos.Line, n.Pos.Column,
					"alias bound twice within one stage")
			}
			bindings[n.Alias] = n.Type
		}

		ps := &PlannedStage{Stage: stage, Bindings: bindings}
		if i > 0 {
			prevReturn := q.Stages[i-1].Return
			for _, item := range prevReturn.Items {
				if item.HasCarryAlias() {
					ps.CarryAliases = append(ps.CarryAliases, item.As)
				}
			}
		}
		planned[i] = ps
	}
	return planned, nil
}

// checkEdges rejects anything beyond a bare "--" between two node
// patterns: direction arrows, names, types, and hop ranges are all
// accepted by the grammar but have no lowering in the emitter.
func checkEdges(m *ast.Match) error {
	for _, e := range m.Edges {
		if !e.IsTrivial() {
			return compileerr.At(compileerr.Unsupported, "edge", e.Pos.Line, e.Pos.Column,
				"edge direction, type, name, and variable-length hops are not lowered to SQL")
		}
	}
	return nil
}
