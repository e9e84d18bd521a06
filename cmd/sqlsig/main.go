// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Command sqlsig prints and checks the signatures of SQL statements kept in
// files, one statement per file.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/canonical/sqlsig"
	"github.com/canonical/sqlsig/ast"
	"github.com/canonical/sqlsig/codec"
)

// CLI defines the command-line interface for sqlsig.
type CLI struct {
	LogLevel string            `name:"log-level" env:"SQLSIG_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	Alias    map[string]string `name:"alias" env:"SQLSIG_ALIASES" placeholder:"NAME=BUILTIN" help:"Resolve the type NAME as the built-in type BUILTIN"`
	JSON     bool              `name:"json" help:"Print JSON instead of text"`

	Describe DescribeCmd `cmd:"" help:"Print the signature of each statement"`
	Check    CheckCmd    `cmd:"" help:"Report the statements whose signature cannot be inferred"`
	Types    TypesCmd    `cmd:"" help:"List the built-in types"`
}

// env is bound to the Run method of every command.
type env struct {
	analyzer *sqlsig.Analyzer
	out      io.Writer
	json     bool
}

// DescribeCmd prints the parameter and column types of statements.
type DescribeCmd struct {
	Files []string `arg:"" help:"Files holding one statement each" type:"existingfile"`
}

type slotJSON struct {
	Type   string `json:"type"`
	Codec  string `json:"codec"`
	OID    uint32 `json:"oid"`
	Format string `json:"format"`
}

type describeJSON struct {
	File    string     `json:"file"`
	Params  []slotJSON `json:"params"`
	Columns []slotJSON `json:"columns"`
}

func formatName(format int16) string {
	if format == pgtype.BinaryFormatCode {
		return "binary"
	}
	return "text"
}

func slotsJSON(types []*ast.TypeName, slots []codec.Slot) []slotJSON {
	out := make([]slotJSON, len(slots))
	for i, s := range slots {
		out[i] = slotJSON{
			Type:   types[i].String(),
			Codec:  s.String(),
			OID:    s.OID(),
			Format: formatName(s.Format()),
		}
	}
	return out
}

func (c *DescribeCmd) Run(e *env) error {
	var described []describeJSON
	for _, file := range c.Files {
		stmt, err := prepareFile(e.analyzer, file)
		if err != nil {
			return err
		}
		d := describeJSON{
			File:    file,
			Params:  slotsJSON(stmt.ParamTypes(), stmt.Params().Slots()),
			Columns: slotsJSON(stmt.ColumnTypes(), stmt.Row().Slots()),
		}
		if e.json {
			described = append(described, d)
			continue
		}
		fmt.Fprintln(e.out, file)
		for i, p := range d.Params {
			fmt.Fprintf(e.out, "  %-10s %-28s %s oid=%d %s\n", fmt.Sprintf("$%d", i+1), p.Type, p.Codec, p.OID, p.Format)
		}
		for i, col := range d.Columns {
			fmt.Fprintf(e.out, "  %-10s %-28s %s oid=%d %s\n", fmt.Sprintf("column %d", i+1), col.Type, col.Codec, col.OID, col.Format)
		}
	}
	if e.json {
		return writeJSON(e.out, described)
	}
	return nil
}

// CheckCmd reports the statements that are rejected.
type CheckCmd struct {
	Files []string `arg:"" help:"Files holding one statement each" type:"existingfile"`
}

type checkJSON struct {
	File  string `json:"file"`
	Error string `json:"error,omitempty"`
}

func (c *CheckCmd) Run(e *env) error {
	var results []checkJSON
	rejected := 0
	for _, file := range c.Files {
		result := checkJSON{File: file}
		if _, err := prepareFile(e.analyzer, file); err != nil {
			result.Error = err.Error()
			rejected++
		}
		if e.json {
			results = append(results, result)
		} else if result.Error != "" {
			fmt.Fprintf(e.out, "%s: %s\n", file, result.Error)
		}
	}
	if e.json {
		if err := writeJSON(e.out, results); err != nil {
			return err
		}
	}
	if rejected > 0 {
		return fmt.Errorf("%d of %d statements rejected", rejected, len(c.Files))
	}
	return nil
}

// TypesCmd lists the built-in types.
type TypesCmd struct{}

type typeJSON struct {
	Name     string `json:"name"`
	OID      uint32 `json:"oid"`
	ArrayOID uint32 `json:"array_oid"`
	Format   string `json:"format"`
}

func (c *TypesCmd) Run(e *env) error {
	var types []typeJSON
	for _, name := range codec.BuiltinNames() {
		b, err := codec.Builtin(name)
		if err != nil {
			return err
		}
		t := typeJSON{Name: b.Name(), OID: b.OID(), ArrayOID: b.ArrayOID(), Format: formatName(b.Format())}
		if e.json {
			types = append(types, t)
			continue
		}
		fmt.Fprintf(e.out, "%-12s oid=%-5d array_oid=%-5d %s\n", t.Name, t.OID, t.ArrayOID, t.Format)
	}
	if e.json {
		return writeJSON(e.out, types)
	}
	return nil
}

func prepareFile(a *sqlsig.Analyzer, file string) (*sqlsig.Statement, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	stmt, err := a.Prepare(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return stmt, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}

func (cli *CLI) analyzer(logger *zap.Logger) (*sqlsig.Analyzer, error) {
	opts := []sqlsig.Option{sqlsig.WithLogger(logger)}
	if len(cli.Alias) > 0 {
		aliases, err := codec.Aliases(cli.Alias)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sqlsig.WithResolver(aliases))
	}
	return sqlsig.NewAnalyzer(opts...), nil
}

// run parses args and runs the selected command.
func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("sqlsig"),
		kong.Description("Infer the parameter and column types of PostgreSQL statements"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cli.LogLevel, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := cli.analyzer(logger)
	if err != nil {
		return err
	}
	return ctx.Run(&env{analyzer: a, out: stdout, json: cli.JSON})
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "sqlsig: %v\n", err)
		os.Exit(1)
	}
}
