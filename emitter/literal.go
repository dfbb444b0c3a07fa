package emitter

import (
	"strconv"
	"strings"

	"github.com/duckcypher/duckcypher/ast"
)

// literalSQL renders a parsed literal as SQL text. Strings are
// single-quoted with embedded quotes doubled (the inverse of the
// lexer's C-style decode in scanString); integers are formatted
// without a decimal point so "18" round-trips as "18", not "18.0".
func literalSQL(lit *ast.Literal) string {
	switch lit.Kind {
	case ast.LiteralString:
		return "'" + strings.ReplaceAll(lit.Str, "'", "''") + "'"
	case ast.LiteralNumber:
		if lit.IsInteger {
			return strconv.FormatInt(lit.Int, 10)
		}
		return strconv.FormatFloat(lit.Num, 'g', -1, 64)
	case ast.LiteralTrue:
		return "TRUE"
	case ast.LiteralFalse:
		return "FALSE"
	case ast.LiteralNull:
		return "NULL"
	default:
		return "NULL"
	}
}
