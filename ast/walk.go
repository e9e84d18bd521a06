// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package ast

import "fmt"

// Inspect traverses the tree rooted at node in source order. It calls f for
// each non-nil node; if f returns false the children of that node are
// skipped. Type names are visited as leaves: their modifiers are not
// traversed.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *WithClause:
		for _, c := range n.CTEs {
			Inspect(c, f)
		}
	case *CTE:
		Inspect(n.Body, f)
	case *SelectStmt:
		inspectWith(n.With, f)
		inspectCore(n, f)
		for _, op := range n.SetOps {
			Inspect(op, f)
		}
		for _, o := range n.OrderBy {
			Inspect(o, f)
		}
		inspectExpr(n.Limit, f)
		inspectExpr(n.Offset, f)
	case *SetOp:
		inspectCore(n.Select, f)
	case *Target:
		inspectExpr(n.Expr, f)
	case *OrderItem:
		inspectExpr(n.Expr, f)
	case *InsertStmt:
		inspectWith(n.With, f)
		inspectTableName(n.Table, f)
		if n.Source != nil {
			Inspect(n.Source, f)
		}
		if n.OnConflict != nil {
			Inspect(n.OnConflict, f)
		}
		inspectTargets(n.Returning, f)
	case *OnConflict:
		for _, s := range n.Set {
			Inspect(s, f)
		}
		inspectExpr(n.Where, f)
	case *SetClause:
		inspectExpr(n.Value, f)
	case *UpdateStmt:
		inspectWith(n.With, f)
		inspectTableName(n.Table, f)
		for _, s := range n.Set {
			Inspect(s, f)
		}
		inspectTables(n.From, f)
		inspectExpr(n.Where, f)
		inspectTargets(n.Returning, f)
	case *DeleteStmt:
		inspectWith(n.With, f)
		inspectTableName(n.Table, f)
		inspectTables(n.Using, f)
		inspectExpr(n.Where, f)
		inspectTargets(n.Returning, f)
	case *TableName:
	case *SubqueryTable:
		Inspect(n.Select, f)
	case *FuncTable:
		Inspect(n.Func, f)
	case *JoinExpr:
		inspectTable(n.Left, f)
		inspectTable(n.Right, f)
		inspectExpr(n.On, f)
	case *Placeholder, *Literal, *Default, *ColumnRef, *Star, *TypeName:
	case *Cast:
		inspectExpr(n.Expr, f)
		if n.Type != nil {
			Inspect(n.Type, f)
		}
	case *UnaryExpr:
		inspectExpr(n.Expr, f)
	case *BinaryExpr:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *QuantifiedExpr:
		inspectExpr(n.Left, f)
		inspectExpr(n.Right, f)
	case *IsExpr:
		inspectExpr(n.Expr, f)
	case *InExpr:
		inspectExpr(n.Expr, f)
		inspectExprs(n.List, f)
		if n.Select != nil {
			Inspect(n.Select, f)
		}
	case *BetweenExpr:
		inspectExpr(n.Expr, f)
		inspectExpr(n.Low, f)
		inspectExpr(n.High, f)
	case *FuncCall:
		inspectExprs(n.Args, f)
	case *CaseExpr:
		inspectExpr(n.Operand, f)
		for _, w := range n.Whens {
			Inspect(w, f)
		}
		inspectExpr(n.Else, f)
	case *When:
		inspectExpr(n.Cond, f)
		inspectExpr(n.Result, f)
	case *SubqueryExpr:
		Inspect(n.Select, f)
	case *ExistsExpr:
		Inspect(n.Select, f)
	case *RowExpr:
		inspectExprs(n.Exprs, f)
	case *ArrayExpr:
		inspectExprs(n.Elems, f)
		if n.Select != nil {
			Inspect(n.Select, f)
		}
	default:
		panic(fmt.Sprintf("internal error: ast.Inspect: unexpected node type %T", n))
	}
}

// inspectCore visits the parts of a SELECT that a set operation applies to.
func inspectCore(s *SelectStmt, f func(Node) bool) {
	inspectTargets(s.Targets, f)
	for _, row := range s.Values {
		inspectExprs(row, f)
	}
	inspectTables(s.From, f)
	inspectExpr(s.Where, f)
	inspectExprs(s.GroupBy, f)
	inspectExpr(s.Having, f)
}

// The helpers below skip nil values so that a nil pointer stored in an
// interface field is never passed to f.

func inspectWith(w *WithClause, f func(Node) bool) {
	if w != nil {
		Inspect(w, f)
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectExprs(es []Expr, f func(Node) bool) {
	for _, e := range es {
		inspectExpr(e, f)
	}
}

func inspectTable(t TableExpr, f func(Node) bool) {
	if t != nil {
		Inspect(t, f)
	}
}

func inspectTables(ts []TableExpr, f func(Node) bool) {
	for _, t := range ts {
		inspectTable(t, f)
	}
}

func inspectTableName(t *TableName, f func(Node) bool) {
	if t != nil {
		Inspect(t, f)
	}
}

func inspectTargets(ts []*Target, f func(Node) bool) {
	for _, t := range ts {
		Inspect(t, f)
	}
}
