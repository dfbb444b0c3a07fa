// Package compiler is the top-level orchestration: parse, plan, emit,
// and execute a Cypher query one stage at a time, threading each
// stage's result into the next. It is the only package that wires
// every other package together.
package compiler

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/duckcypher/duckcypher/compileerr"
	"github.com/duckcypher/duckcypher/emitter"
	"github.com/duckcypher/duckcypher/executor"
	"github.com/duckcypher/duckcypher/parser"
	"github.com/duckcypher/duckcypher/planner"
	"github.com/duckcypher/duckcypher/schema"
)

// Compile parses and plans query against reg and returns the SQL text
// for every stage, without executing anything. Previous-stage
// references are resolved against deterministic placeholder table
// names ("_stage1", "_stage2", ...) since no Database is involved;
// this is the pure half, usable to inspect SQL shape without a
// connection.
func Compile(reg *schema.Registry, query string) ([]string, error) {
	q, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	planned, err := planner.Plan(q)
	if err != nil {
		return nil, err
	}

	sqls := make([]string, len(planned))
	var prev *emitter.PrevResult
	for i, ps := range planned {
		sql, err := emitter.Emit(reg, ps, prev)
		if err != nil {
			return nil, err
		}
		sqls[i] = sql
		if i+1 < len(planned) {
			prev = &emitter.PrevResult{
				Table:        fmt.Sprintf("_stage%d", i+1),
				CarryAliases: planned[i+1].CarryAliases,
			}
		}
	}
	return sqls, nil
}

// RegisterTables exposes every CSV-backed table in reg to db, so later
// compiled SELECTs can address it by name. Tables whose Origin is
// OriginVariable are assumed already present in db and are left
// untouched.
func RegisterTables(ctx context.Context, db executor.Database, reg *schema.Registry) error {
	for _, t := range reg.Tables() {
		if t.Origin != schema.OriginCSV {
			continue
		}
		if err := db.RegisterCSV(ctx, t.Name, t.Path); err != nil {
			return compileerr.New(compileerr.BackendError, t.Name, err.Error())
		}
	}
	return nil
}

// Run parses, plans, and executes query against db one stage at a
// time: every stage but the last is registered as a named view for
// the next stage to reference; the last stage's rows are returned to
// the caller. names supplies the 4-letter intermediate table names.
// sqls carries the emitted SQL for every stage, for
// callers that want to display it.
func Run(ctx context.Context, db executor.Database, reg *schema.Registry, names *executor.NameGenerator, query string) (rows *sql.Rows, sqls []string, err error) {
	q, err := parser.Parse(query)
	if err != nil {
		return nil, nil, err
	}
	planned, err := planner.Plan(q)
	if err != nil {
		return nil, nil, err
	}

	var prev *emitter.PrevResult
	for i, ps := range planned {
		stmt, err := emitter.Emit(reg, ps, prev)
		if err != nil {
			return nil, sqls, err
		}
		sqls = append(sqls, stmt)

		if i+1 == len(planned) {
			rows, err := db.Query(ctx, stmt)
			if err != nil {
				return nil, sqls, compileerr.New(compileerr.BackendError, "query", err.Error())
			}
			return rows, sqls, nil
		}

		name := names.Next()
		if err := db.RegisterResult(ctx, name, stmt); err != nil {
			return nil, sqls, compileerr.New(compileerr.BackendError, name, err.Error())
		}
		prev = &emitter.PrevResult{Table: name, CarryAliases: planned[i+1].CarryAliases}
	}
	return nil, sqls, fmt.Errorf("query produced no stages")
}
