package emitter

import "strings"

// quoteIdent double-quotes a SQL identifier, doubling any embedded
// quote character. DuckDB, like Postgres, uses double quotes for
// quoted identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
