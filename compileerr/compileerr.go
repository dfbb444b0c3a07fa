// Package compileerr defines the error kinds the compiler can surface
// as sentinel values checked with errors.Is, wrapped in a
// *CompileError that carries the offending identifier and, where one
// exists, the source position.
package compileerr

import (
	"errors"
	"fmt"
)

// Kind names the class of a compilation error.
type Kind string

const (
	ParseError     Kind = "ParseError"
	UnknownType    Kind = "UnknownType"
	UnknownColumn  Kind = "UnknownColumn"
	UnboundAlias   Kind = "UnboundAlias"
	AmbiguousAlias Kind = "AmbiguousAlias"
	NoPrimary      Kind = "NoPrimary"
	InvalidJoin    Kind = "InvalidJoin"
	BackendError   Kind = "BackendError"
	Unsupported    Kind = "Unsupported" // parsed but has no SQL lowering
)

// sentinel values usable with errors.Is(err, compileerr.ErrUnknownType), etc.
var (
	ErrParseError     = errors.New(string(ParseError))
	ErrUnknownType    = errors.New(string(UnknownType))
	ErrUnknownColumn  = errors.New(string(UnknownColumn))
	ErrUnboundAlias   = errors.New(string(UnboundAlias))
	ErrAmbiguousAlias = errors.New(string(AmbiguousAlias))
	ErrNoPrimary      = errors.New(string(NoPrimary))
	ErrInvalidJoin    = errors.New(string(InvalidJoin))
	ErrBackendError   = errors.New(string(BackendError))
	ErrUnsupported    = errors.New(string(Unsupported))
)

var sentinels = map[Kind]error{
	ParseError:     ErrParseError,
	UnknownType:    ErrUnknownType,
	UnknownColumn:  ErrUnknownColumn,
	UnboundAlias:   ErrUnboundAlias,
	AmbiguousAlias: ErrAmbiguousAlias,
	NoPrimary:      ErrNoPrimary,
	InvalidJoin:    ErrInvalidJoin,
	BackendError:   ErrBackendError,
	Unsupported:    ErrUnsupported,
}

// CompileError is the concrete error value returned by the parser,
// schema registry, planner and emitter. Ident names the offending
// identifier (an alias, type, or column); Pos is the zero value when
// the kind has no meaningful source position (e.g. NoPrimary, which is
// raised against a type, not a token).
type CompileError struct {
	Kind   Kind
	Ident  string
	Line   int
	Column int
	Detail string
}

func (e *CompileError) Error() string {
	if e.Line > 0 || e.Column > 0 {
		if e.Detail != "" {
			return fmt.Sprintf("%s: %q at line %d, column %d: %s", e.Kind, e.Ident, e.Line, e.Column, e.Detail)
		}
		return fmt.Sprintf("%s: %q at line %d, column %d", e.Kind, e.Ident, e.Line, e.Column)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %q: %s", e.Kind, e.Ident, e.Detail)
	}
	return fmt.Sprintf("%s: %q", e.Kind, e.Ident)
}

func (e *CompileError) Unwrap() error {
	if s, ok := sentinels[e.Kind]; ok {
		return s
	}
	return nil
}

// New builds a *CompileError with no position information.
func New(kind Kind, ident, detail string) *CompileError {
	return &CompileError{Kind: kind, Ident: ident, Detail: detail}
}

// At builds a *CompileError carrying a source position.
func At(kind Kind, ident string, line, col int, detail string) *CompileError {
	return &CompileError{Kind: kind, Ident: ident, Line: line, Column: col, Detail: detail}
}
