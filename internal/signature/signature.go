// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package signature extracts the declared types of the placeholders and
// output columns of a statement.
package signature

import (
	"fmt"

	"github.com/canonical/sqlsig/ast"
	"github.com/canonical/sqlsig/typeerr"
)

// Signature holds the declared types of a statement. Params[i] is the type
// of placeholder $i+1 and Columns[i] the type of output column i+1.
type Signature struct {
	Params  []*ast.TypeName
	Columns []*ast.TypeName
}

// Extract returns the parameter and column types of stmt. Parameter errors
// are reported before column errors.
func Extract(stmt ast.Statement) (*Signature, error) {
	params, err := ExtractParams(stmt)
	if err != nil {
		return nil, err
	}
	columns, err := ExtractColumns(stmt)
	if err != nil {
		return nil, err
	}
	return &Signature{Params: params, Columns: columns}, nil
}

// occurrence is a single use of a placeholder. typ is nil when the
// placeholder is not the direct operand of a cast.
type occurrence struct {
	typ *ast.TypeName
	pos ast.Pos
}

// ExtractParams returns the type of each placeholder $1..$n of stmt. Every
// index up to the largest one used must appear, and every appearance must
// be cast to the same type.
func ExtractParams(stmt ast.Statement) ([]*ast.TypeName, error) {
	uses := map[int][]occurrence{}
	last := 0
	var invalid *ast.Placeholder
	record := func(p *ast.Placeholder, typ *ast.TypeName) {
		if p.Index < 1 {
			if invalid == nil {
				invalid = p
			}
			return
		}
		uses[p.Index] = append(uses[p.Index], occurrence{typ: typ, pos: p.Pos})
		if p.Index > last {
			last = p.Index
		}
	}
	ast.Inspect(stmt, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Cast:
			if p, ok := n.Expr.(*ast.Placeholder); ok {
				record(p, n.Type)
				return false
			}
		case *ast.Placeholder:
			record(n, nil)
		}
		return true
	})
	if invalid != nil {
		return nil, fmt.Errorf("invalid placeholder $%d: placeholders start at $1", invalid.Index)
	}

	// Every index in 1..last is used exactly when there are last distinct
	// indices. Otherwise the first gap lies within 1..len(uses)+1.
	if len(uses) < last {
		for i := 1; ; i++ {
			if _, ok := uses[i]; !ok {
				return nil, typeerr.NonContiguousPlaceholdersError(i)
			}
		}
	}

	params := make([]*ast.TypeName, last)
	for i := 1; i <= last; i++ {
		occs := uses[i]
		for _, occ := range occs {
			if occ.typ == nil {
				return nil, typeerr.MissingPlaceholderCastError(i, occ.pos)
			}
		}
		first := occs[0].typ
		for _, occ := range occs[1:] {
			if occ.typ.String() != first.String() {
				return nil, typeerr.ConflictingPlaceholderTypeError(i, first.String(), occ.typ.String(), occ.pos)
			}
		}
		params[i-1] = first
	}
	return params, nil
}

// ExtractColumns returns the type of each output column of stmt. The output
// columns of a SELECT are those of its first core; INSERT, UPDATE and DELETE
// statements output their RETURNING list. Each column must be a cast.
func ExtractColumns(stmt ast.Statement) ([]*ast.TypeName, error) {
	var exprs []ast.Expr
	var positions []ast.Pos
	addTargets := func(ts []*ast.Target) {
		for _, t := range ts {
			exprs = append(exprs, t.Expr)
			positions = append(positions, t.Pos)
		}
	}
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		if len(s.Values) > 0 {
			exprs = s.Values[0]
			positions = make([]ast.Pos, len(exprs))
		} else {
			addTargets(s.Targets)
		}
	case *ast.InsertStmt:
		addTargets(s.Returning)
	case *ast.UpdateStmt:
		addTargets(s.Returning)
	case *ast.DeleteStmt:
		addTargets(s.Returning)
	default:
		return nil, fmt.Errorf("internal error: unexpected statement type %T", stmt)
	}

	columns := make([]*ast.TypeName, 0, len(exprs))
	for i, e := range exprs {
		cast, ok := e.(*ast.Cast)
		if !ok {
			return nil, typeerr.MissingColumnCastError(i+1, positions[i])
		}
		columns = append(columns, cast.Type)
	}
	return columns, nil
}
