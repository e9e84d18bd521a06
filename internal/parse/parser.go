// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package parse parses the SQL subset understood by sqlsig into ast values.
package parse

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"

	"github.com/canonical/sqlsig/ast"
)

// Error is a syntax error in a statement.
type Error struct {
	Pos ast.Pos
	Msg string
}

func (e *Error) Error() string {
	if !e.Pos.IsValid() {
		return e.Msg
	}
	if e.Pos.Line == 1 {
		return fmt.Sprintf("column %d: %s", e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

func errorAt(pos ast.Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

var parser = participle.MustBuild[statement](
	participle.Lexer(sqlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.CaseInsensitive("Keyword", "Ident"),
	participle.UseLookahead(1024),
)

// Parse parses a single SQL statement. A trailing semicolon is allowed.
func Parse(sql string) (stmt ast.Statement, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("cannot parse statement: %w", err)
		}
	}()

	parsed, err := parser.ParseString("", sql)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			pos := perr.Position()
			return nil, errorAt(ast.Pos{Line: pos.Line, Column: pos.Column}, "%s", perr.Message())
		}
		return nil, &Error{Msg: err.Error()}
	}
	return convertQuery(parsed.Query)
}

// MustParse is like Parse but panics on error.
func MustParse(sql string) ast.Statement {
	stmt, err := Parse(sql)
	if err != nil {
		panic(err)
	}
	return stmt
}
