// Package ast holds the typed intermediate representation the parser
// builds and the planner/emitter consume. Every node kind here is a
// concrete struct rather than a generic dynamic map, so a clause that
// doesn't carry a piece of data simply doesn't have the field for it.
package ast

// Query is the top-level parse result: one Stage per MATCH block.
type Query struct {
	Stages []*Stage
}

// Stage is one "MATCH [WHERE] RETURN/WITH [SKIP] [ORDER BY] [LIMIT]"
// block. Match and Return are required by the grammar; the rest are
// optional and left nil/zero when absent.
type Stage struct {
	Match   *Match
	Where   *Where
	Return  *Return
	OrderBy *OrderBy
	Limit   *Limit
	Skip    *Skip

	// Pipeline is true when this stage is not the last stage in the
	// query, whichever of "WITH" or "RETURN" introduced its projection.
	// It has no semantic effect beyond documentation; WITH and RETURN
	// are interchangeable keywords.
	Pipeline bool
}

// Match is an ordered list of node patterns, optionally connected by
// edges. Edge tokens are accepted by the parser (see Edge); the planner
// only checks that each edge is trivial, and the emitter never
// consults them.
type Match struct {
	Nodes []*NodePattern
	Edges []*Edge // len(Edges) == len(Nodes)-1 when present
}

// NodePattern is one "(alias:Type {col: val, ...})" occurrence.
type NodePattern struct {
	Alias      string // always set: synthesized if the source omitted it
	Synthetic  bool   // true when Alias was generated, not written by the user
	Type       string // entity type; empty when ":Type" is omitted, which the emitter rejects as UnknownType
	Properties []PropertyFilter
	Pos        Pos
}

// PropertyFilter is one "{col: value}" entry in a node pattern.
type PropertyFilter struct {
	Column string
	Value  Literal
}

// Edge captures everything the grammar accepts between two node
// patterns. It is parsed in full (direction, type, variable-length hop
// range) but semantically discarded: an edge never changes which join
// is emitted — pattern adjacency alone drives grouping. A non-trivial
// edge (anything beyond a bare "--") is rejected with ErrUnsupported
// at plan time.
type Edge struct {
	LeftArrow  bool
	RightArrow bool
	Name       string
	Type       string
	MinHop     *int
	MaxHop     *int
	Pos        Pos
}

// IsTrivial reports whether the edge is a bare "--" with no direction,
// name, type, or hop range — the only edge shape the emitter can lower.
func (e *Edge) IsTrivial() bool {
	return e == nil || (!e.LeftArrow && !e.RightArrow && e.Name == "" && e.Type == "" && e.MinHop == nil && e.MaxHop == nil)
}

// Where is the recursive boolean tree of a WHERE clause.
type Where struct {
	Root *Condition
}

// BoolOp is AND/OR combining two subconditions.
type BoolOp string

const (
	And BoolOp = "AND"
	Or  BoolOp = "OR"
)

// CompareOp is a comparison operator in a WHERE condition.
type CompareOp string

const (
	OpEq  CompareOp = "="
	OpNeq CompareOp = "<>"
	OpGt  CompareOp = ">"
	OpLt  CompareOp = "<"
	OpGte CompareOp = ">="
	OpLte CompareOp = "<="
)

// Condition is either a leaf comparison or a boolean combination of two
// subconditions. Exactly one of (Left/Op/Right) or (BoolOp/LHS/RHS) is
// populated, mirroring the grammar's "condition | compound bool_op
// compound" shape.
type Condition struct {
	// Leaf form.
	Left  *EntityRef
	Op    CompareOp
	Right *Term

	// Combination form.
	Combinator BoolOp
	LHS        *Condition
	RHS        *Condition

	Pos Pos
}

// IsLeaf reports whether this condition is a single comparison rather
// than an AND/OR of two subconditions.
func (c *Condition) IsLeaf() bool {
	return c.LHS == nil && c.RHS == nil
}

// EntityRef is either a bare alias ("alias", whole-entity reference) or
// a qualified column reference ("alias.column").
type EntityRef struct {
	Alias  string
	Column string // empty means "whole entity" (alias.*)
	Star   bool   // true for the literal "*" token (valid as an aggregate argument or a bare "RETURN *")
	Pos    Pos
}

// IsWhole reports whether this ref denotes the entire bound entity
// rather than one of its columns.
func (r *EntityRef) IsWhole() bool {
	return r.Column == "" && !r.Star
}

// Term is the right-hand side of a Condition: a literal, NULL, or
// another entity-ref (same-stage or carried from the previous stage).
type Term struct {
	Literal *Literal
	Ref     *EntityRef
}

// LiteralKind discriminates the zero-value-ambiguous cases of Literal
// (an empty string literal vs. absent, a zero number vs. absent).
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralNull
	LiteralTrue
	LiteralFalse
)

// Literal is a parsed constant. Numbers carry a parsed float64/int64
// pair so the emitter can reproduce integer formatting without a
// trailing ".0".
type Literal struct {
	Kind      LiteralKind
	Str       string
	Num       float64
	IsInteger bool
	Int       int64
}

// Return is the ordered list of RETURN/WITH projection items.
type Return struct {
	Items []*ReturnItem
}

// AggregateOp is one of the five supported aggregate functions.
type AggregateOp string

const (
	AggCount AggregateOp = "count"
	AggSum   AggregateOp = "sum"
	AggAvg   AggregateOp = "avg"
	AggMin   AggregateOp = "min"
	AggMax   AggregateOp = "max"
)

// ReturnItem is one projected column: either a bare/qualified
// entity-ref or that ref wrapped in an aggregate, with an optional
// "AS name" result alias.
type ReturnItem struct {
	Aggregate *AggregateOp // nil for a non-aggregated item
	Ref       *EntityRef
	As        string // result alias from "AS name"; empty if absent
	Pos       Pos
}

// HasCarryAlias reports whether this item introduces an alias
// addressable by a later stage.
func (r *ReturnItem) HasCarryAlias() bool {
	return r.As != ""
}

// OrderBy is the (at most one, per the grammar) ORDER BY clause.
type OrderBy struct {
	Ref       *EntityRef
	Ascending bool // default true
	Pos       Pos
}

// Limit is a parsed, non-negative LIMIT count.
type Limit struct {
	Count int64
	Pos   Pos
}

// Skip is a parsed, non-negative SKIP count, lowered to SQL OFFSET.
type Skip struct {
	Count int64
	Pos   Pos
}

// Pos is a source position, carried through to error messages.
type Pos struct {
	Line   int
	Column int
	Offset int
}
