// Package schema holds the registry of Tables and Models declared by
// the external loader, and the read-only lookups the planner and
// emitter use to resolve entity types into physical tables and
// columns. The registry is a plain owned value; nothing in this
// package touches a database connection.
package schema

import (
	"fmt"

	"github.com/duckcypher/duckcypher/compileerr"
)

// OriginKind distinguishes how a Table's rows are sourced.
type OriginKind int

const (
	OriginCSV OriginKind = iota
	OriginVariable
)

// Table is a registered relational source: a CSV-backed view or an
// in-memory tabular variable registered under a name.
type Table struct {
	Name   string
	Origin OriginKind
	Path   string // populated when Origin == OriginCSV
}

// Column is one logical column exposed by a Model. Physical returns
// the actual column name in the backing table: Field if set, else
// Name.
type Column struct {
	Name    string
	Field   string
	Type    string
	Primary bool
}

// Physical returns the physical column name backing this logical one.
func (c Column) Physical() string {
	if c.Field != "" {
		return c.Field
	}
	return c.Name
}

// Model maps an entity type name onto a table and an ordered set of
// columns.
type Model struct {
	Name    string
	Table   string
	Columns []Column
}

// PrimaryColumn returns the Column flagged primary, and whether one was
// found.
func (m *Model) PrimaryColumn() (Column, bool) {
	for _, c := range m.Columns {
		if c.Primary {
			return c, true
		}
	}
	return Column{}, false
}

func (m *Model) column(name string) (Column, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Registry is the process-wide schema: all Tables and Models declared
// before compilation begins. It is built once by the external loader
// and is read-only for the remainder of its life — callers must not
// mutate a Registry concurrently with a compilation in flight.
type Registry struct {
	tables     map[string]*Table
	tableOrder []string
	models     map[string]*Model
	modelOrder []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]*Table),
		models: make(map[string]*Model),
	}
}

// AddTableFromCSV registers a view over a CSV file.
func (r *Registry) AddTableFromCSV(name, path string) error {
	if _, exists := r.tables[name]; exists {
		return fmt.Errorf("table %q is already registered", name)
	}
	r.tables[name] = &Table{Name: name, Origin: OriginCSV, Path: path}
	r.tableOrder = append(r.tableOrder, name)
	return nil
}

// AddTableFromVariable registers an in-memory tabular value under
// name. The value itself is not held or registered here: it must
// already exist in the backing engine under name, and the registry
// only tracks the name's existence and origin kind.
func (r *Registry) AddTableFromVariable(name string) error {
	if _, exists := r.tables[name]; exists {
		return fmt.Errorf("table %q is already registered", name)
	}
	r.tables[name] = &Table{Name: name, Origin: OriginVariable}
	r.tableOrder = append(r.tableOrder, name)
	return nil
}

// AddModel registers (or replaces) a Model mapping an entity type onto
// a table and columns. More than one column flagged primary is
// rejected here. A model with none is accepted: PrimaryField/JoinFields
// fail with NoPrimary only once a query needs its join key.
func (r *Registry) AddModel(name, table string, columns []Column) error {
	if _, ok := r.tables[table]; !ok {
		return fmt.Errorf("table %q is not registered", table)
	}
	seenPrimary := false
	for _, c := range columns {
		if c.Primary {
			if seenPrimary {
				return fmt.Errorf("model %q declares more than one primary column", name)
			}
			seenPrimary = true
		}
	}
	if _, exists := r.models[name]; !exists {
		r.modelOrder = append(r.modelOrder, name)
	}
	r.models[name] = &Model{Name: name, Table: table, Columns: columns}
	return nil
}

// Tables returns all registered tables in declaration order.
func (r *Registry) Tables() []*Table {
	out := make([]*Table, 0, len(r.tableOrder))
	for _, n := range r.tableOrder {
		out = append(out, r.tables[n])
	}
	return out
}

// Models returns the named models, or all models in declaration order
// if names is empty.
func (r *Registry) Models(names ...string) []*Model {
	if len(names) == 0 {
		out := make([]*Model, 0, len(r.modelOrder))
		for _, n := range r.modelOrder {
			out = append(out, r.models[n])
		}
		return out
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []*Model
	for _, n := range r.modelOrder {
		if want[n] {
			out = append(out, r.models[n])
		}
	}
	return out
}

func (r *Registry) model(entityType string) (*Model, error) {
	m, ok := r.models[entityType]
	if !ok {
		return nil, compileerr.New(compileerr.UnknownType, entityType, "no model declares this entity type")
	}
	return m, nil
}

// TableOf returns the backing table name for an entity type.
func (r *Registry) TableOf(entityType string) (string, error) {
	m, err := r.model(entityType)
	if err != nil {
		return "", err
	}
	return m.Table, nil
}

// FieldOf returns the backing table and physical column for
// entityType.column.
func (r *Registry) FieldOf(entityType, column string) (table, field string, err error) {
	m, err := r.model(entityType)
	if err != nil {
		return "", "", err
	}
	col, ok := m.column(column)
	if !ok {
		return "", "", compileerr.New(compileerr.UnknownColumn, column, fmt.Sprintf("entity type %q has no such column", entityType))
	}
	return m.Table, col.Physical(), nil
}

// AllFields returns every physical field of entityType in declaration
// order, used to expand alias.*.
func (r *Registry) AllFields(entityType string) ([]string, error) {
	m, err := r.model(entityType)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		out = append(out, c.Physical())
	}
	return out, nil
}

// PrimaryField returns the physical field flagged primary for
// entityType.
func (r *Registry) PrimaryField(entityType string) (string, error) {
	m, err := r.model(entityType)
	if err != nil {
		return "", err
	}
	col, ok := m.PrimaryColumn()
	if !ok {
		return "", compileerr.New(compileerr.NoPrimary, entityType, "entity type has no column flagged primary")
	}
	return col.Physical(), nil
}

// JoinFields returns the equi-join key pair for two adjacent entity
// types. When both types back the same
// table they must differ — a self-join of a type onto itself is
// InvalidJoin, caught by the emitter's group building before this is
// ever called with leftType == rightType.
func (r *Registry) JoinFields(leftType, rightType string) (leftField, rightField string, err error) {
	leftTable, err := r.TableOf(leftType)
	if err != nil {
		return "", "", err
	}
	rightTable, err := r.TableOf(rightType)
	if err != nil {
		return "", "", err
	}
	leftPrimary, err := r.PrimaryField(leftType)
	if err != nil {
		return "", "", err
	}
	if leftTable == rightTable {
		return leftPrimary, leftPrimary, nil
	}
	rightPrimary, err := r.PrimaryField(rightType)
	if err != nil {
		return "", "", err
	}
	return leftPrimary, rightPrimary, nil
}
