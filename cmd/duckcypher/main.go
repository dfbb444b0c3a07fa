// Command duckcypher compiles and runs a Cypher query against a
// DuckDB database, given a schema YAML file describing how entity
// types map onto tables. It is the CLI shell around the compiler
// package.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"

	"github.com/duckcypher/duckcypher/compiler"
	"github.com/duckcypher/duckcypher/executor"
	"github.com/duckcypher/duckcypher/parser"
	"github.com/duckcypher/duckcypher/schema"
)

var version string

type options struct {
	Schema  string `short:"s" long:"schema" description:"Path to the schema YAML file" value-name:"filename" required:"true"`
	Query   string `short:"q" long:"query" description:"Read the Cypher query from this file, rather than stdin" value-name:"filename" default:"-"`
	DryRun  bool   `long:"dry-run" description:"Print the compiled SQL for each stage instead of executing it"`
	Debug   bool   `long:"debug" description:"Pretty-print the parsed query before compiling it"`
	Help    bool   `long:"help" description:"Show this help"`
	Version bool   `long:"version" description:"Show this version"`
}

// parseArgs returns the parsed options and the duckdb database file
// (or empty for an in-memory database).
func parseArgs(args []string) (options, string) {
	var opts options
	p := flags.NewParser(&opts, flags.None)
	p.Usage = "[option...] [db_file]"
	rest, err := p.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		p.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	if len(rest) > 1 {
		fmt.Printf("Multiple database files given: %v\n\n", rest)
		p.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	dbFile := ""
	if len(rest) == 1 {
		dbFile = rest[0]
	}
	return opts, dbFile
}

func readQuery(path string) (string, error) {
	if path == "" || path == "-" {
		buf, err := io.ReadAll(os.Stdin)
		return string(buf), err
	}
	buf, err := os.ReadFile(path)
	return string(buf), err
}

func main() {
	opts, dbFile := parseArgs(os.Args[1:])

	reg, err := schema.LoadFile(opts.Schema)
	if err != nil {
		log.Fatal(err)
	}

	queryText, err := readQuery(opts.Query)
	if err != nil {
		log.Fatal(err)
	}
	queryText = strings.TrimSpace(queryText)

	if opts.Debug {
		q, err := parser.Parse(queryText)
		if err != nil {
			log.Fatal(err)
		}
		pp.Println(q)
	}

	if opts.DryRun {
		sqls, err := compiler.Compile(reg, queryText)
		if err != nil {
			log.Fatal(err)
		}
		for i, s := range sqls {
			fmt.Printf("-- stage %d --\n%s;\n\n", i+1, s)
		}
		return
	}

	db, err := executor.Open(dbFile)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := compiler.RegisterTables(ctx, db, reg); err != nil {
		log.Fatal(err)
	}

	names := executor.NewNameGenerator()
	rows, _, err := compiler.Run(ctx, db, reg, names, queryText)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	if err := printRows(rows); err != nil {
		log.Fatal(err)
	}
}

func printRows(rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(cols, "\t"))

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
	return rows.Err()
}
