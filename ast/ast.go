// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package ast declares the types used to represent a single SQL statement.

The signature engine only reads these values. They are produced by the parser
in internal/parse but any other parser may build them directly, for example
when the SQL text has already been parsed by another tool.

All nodes are immutable once built.
*/
package ast

import "fmt"

// Pos is the position of a node in the statement source. Lines and columns
// are 1-based. The zero value means the position is unknown.
type Pos struct {
	Line   int
	Column int
}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Node is implemented by every AST node.
type Node interface {
	String() string
	node()
}

// Statement is one of *SelectStmt, *InsertStmt, *UpdateStmt or *DeleteStmt.
type Statement interface {
	Node
	stmtNode()
}

// Expr is a value expression.
type Expr interface {
	Node
	exprNode()
}

// TableExpr is an item of a FROM or USING list: *TableName, *SubqueryTable,
// *FuncTable or *JoinExpr.
type TableExpr interface {
	Node
	tableNode()
}

// WithClause holds the common table expressions of a statement.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE is a single named statement of a WITH clause.
type CTE struct {
	Name    string
	Columns []string
	Body    Statement
}

// SelectStmt is a SELECT or VALUES statement. When Values is non-empty the
// statement is a VALUES list and Targets, From, Where, GroupBy and Having are
// unset.
type SelectStmt struct {
	With     *WithClause
	Distinct bool
	Targets  []*Target
	Values   [][]Expr
	From     []TableExpr
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	SetOps   []*SetOp
	OrderBy  []*OrderItem
	Limit    Expr
	Offset   Expr
}

// SetOp combines the rows of a SELECT with the rows of another SELECT core.
type SetOp struct {
	// Op is one of "UNION", "INTERSECT" or "EXCEPT".
	Op     string
	All    bool
	Select *SelectStmt
}

// Target is an item of a SELECT list or a RETURNING list.
type Target struct {
	Expr  Expr
	Alias string
	Pos   Pos
}

// OrderItem is an item of an ORDER BY list.
type OrderItem struct {
	Expr Expr
	// Direction is "", "ASC" or "DESC".
	Direction string
	// Nulls is "", "FIRST" or "LAST".
	Nulls string
}

// InsertStmt is an INSERT statement.
type InsertStmt struct {
	With          *WithClause
	Table         *TableName
	Columns       []string
	DefaultValues bool
	Source        *SelectStmt
	OnConflict    *OnConflict
	Returning     []*Target
}

// OnConflict is the ON CONFLICT clause of an INSERT statement.
type OnConflict struct {
	Columns   []string
	DoNothing bool
	Set       []*SetClause
	Where     Expr
}

// SetClause is a single assignment of an UPDATE ... SET list.
type SetClause struct {
	Column string
	Value  Expr
}

// UpdateStmt is an UPDATE statement.
type UpdateStmt struct {
	With      *WithClause
	Table     *TableName
	Set       []*SetClause
	From      []TableExpr
	Where     Expr
	Returning []*Target
}

// DeleteStmt is a DELETE statement.
type DeleteStmt struct {
	With      *WithClause
	Table     *TableName
	Using     []TableExpr
	Where     Expr
	Returning []*Target
}

// TableName is a possibly qualified table reference.
type TableName struct {
	Names []string
	Alias string
}

// SubqueryTable is a parenthesised SELECT in a FROM list.
type SubqueryTable struct {
	Select *SelectStmt
	Alias  string
}

// FuncTable is a set returning function in a FROM list, e.g.
// "unnest($1::int4[]) AS id".
type FuncTable struct {
	Func  *FuncCall
	Alias string
}

// JoinExpr joins two table expressions.
type JoinExpr struct {
	// Kind is one of "", "INNER", "LEFT", "RIGHT", "FULL" or "CROSS".
	Kind  string
	Left  TableExpr
	Right TableExpr
	On    Expr
	Using []string
}

// Placeholder is a positional parameter such as $1.
type Placeholder struct {
	Index int
	Pos   Pos
}

// LiteralKind classifies a Literal.
type LiteralKind int

const (
	NullLiteral LiteralKind = iota
	BoolLiteral
	IntLiteral
	FloatLiteral
	StringLiteral
)

// Literal is a constant. Value holds the source text of the constant,
// without quotes for strings.
type Literal struct {
	Kind  LiteralKind
	Value string
}

// Default is the DEFAULT keyword used as a value in VALUES or SET.
type Default struct{}

// ColumnRef is a possibly qualified column name.
type ColumnRef struct {
	Names []string
}

// Star is "*" or "table.*".
type Star struct {
	Table string
}

// Cast is either "expr::type" or "CAST(expr AS type)".
type Cast struct {
	Expr Expr
	Type *TypeName
	// Func is set for the CAST(... AS ...) form.
	Func bool
}

// UnaryExpr is a prefix operator applied to an expression. Op is "-", "+"
// or "NOT".
type UnaryExpr struct {
	Op   string
	Expr Expr
}

// BinaryExpr is an infix operator. Op is upper case for keyword operators,
// e.g. "AND", "NOT LIKE", "IS DISTINCT FROM".
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// QuantifiedExpr compares an expression with ANY, SOME or ALL of the values of
// an array or subquery, e.g. "id = ANY($1::int4[])".
type QuantifiedExpr struct {
	Op         string
	Quantifier string
	Left       Expr
	Right      Expr
}

// IsExpr is "expr IS [NOT] NULL|TRUE|FALSE".
type IsExpr struct {
	Expr Expr
	Not  bool
	// What is "NULL", "TRUE" or "FALSE".
	What string
}

// InExpr is "expr [NOT] IN (...)". Exactly one of List and Select is set.
type InExpr struct {
	Expr   Expr
	Not    bool
	List   []Expr
	Select *SelectStmt
}

// BetweenExpr is "expr [NOT] BETWEEN low AND high".
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

// FuncCall is a function call.
type FuncCall struct {
	Name     string
	Distinct bool
	// Star is set for calls such as count(*).
	Star bool
	Args []Expr
}

// CaseExpr is a CASE expression. Operand is nil for the searched form.
type CaseExpr struct {
	Operand Expr
	Whens   []*When
	Else    Expr
}

// When is a single WHEN ... THEN ... arm of a CaseExpr.
type When struct {
	Cond   Expr
	Result Expr
}

// SubqueryExpr is a scalar subquery.
type SubqueryExpr struct {
	Select *SelectStmt
}

// ExistsExpr is "EXISTS (subquery)".
type ExistsExpr struct {
	Select *SelectStmt
}

// RowExpr is a parenthesised list of two or more expressions.
type RowExpr struct {
	Exprs []Expr
}

// ArrayExpr is "ARRAY[...]" or "ARRAY(subquery)". Exactly one of Elems and
// Select is set, Elems may be empty.
type ArrayExpr struct {
	Elems  []Expr
	Select *SelectStmt
}

func (*WithClause) node()     {}
func (*CTE) node()            {}
func (*SelectStmt) node()     {}
func (*SetOp) node()          {}
func (*Target) node()         {}
func (*OrderItem) node()      {}
func (*InsertStmt) node()     {}
func (*OnConflict) node()     {}
func (*SetClause) node()      {}
func (*UpdateStmt) node()     {}
func (*DeleteStmt) node()     {}
func (*TableName) node()      {}
func (*SubqueryTable) node()  {}
func (*FuncTable) node()      {}
func (*JoinExpr) node()       {}
func (*Placeholder) node()    {}
func (*Literal) node()        {}
func (*Default) node()        {}
func (*ColumnRef) node()      {}
func (*Star) node()           {}
func (*Cast) node()           {}
func (*UnaryExpr) node()      {}
func (*BinaryExpr) node()     {}
func (*QuantifiedExpr) node() {}
func (*IsExpr) node()         {}
func (*InExpr) node()         {}
func (*BetweenExpr) node()    {}
func (*FuncCall) node()       {}
func (*CaseExpr) node()       {}
func (*When) node()           {}
func (*SubqueryExpr) node()   {}
func (*ExistsExpr) node()     {}
func (*RowExpr) node()        {}
func (*ArrayExpr) node()      {}
func (*TypeName) node()       {}

func (*SelectStmt) stmtNode() {}
func (*InsertStmt) stmtNode() {}
func (*UpdateStmt) stmtNode() {}
func (*DeleteStmt) stmtNode() {}

func (*TableName) tableNode()     {}
func (*SubqueryTable) tableNode() {}
func (*FuncTable) tableNode()     {}
func (*JoinExpr) tableNode()      {}

func (*Placeholder) exprNode()    {}
func (*Literal) exprNode()        {}
func (*Default) exprNode()        {}
func (*ColumnRef) exprNode()      {}
func (*Star) exprNode()           {}
func (*Cast) exprNode()           {}
func (*UnaryExpr) exprNode()      {}
func (*BinaryExpr) exprNode()     {}
func (*QuantifiedExpr) exprNode() {}
func (*IsExpr) exprNode()         {}
func (*InExpr) exprNode()         {}
func (*BetweenExpr) exprNode()    {}
func (*FuncCall) exprNode()       {}
func (*CaseExpr) exprNode()       {}
func (*SubqueryExpr) exprNode()   {}
func (*ExistsExpr) exprNode()     {}
func (*RowExpr) exprNode()        {}
func (*ArrayExpr) exprNode()      {}
