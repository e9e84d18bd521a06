// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package parse

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// The types in this file are the participle grammar of the supported SQL
// subset. They mirror the syntax closely and are converted to the ast package
// types by convert.go. Field tags are participle grammar, not key:"value"
// pairs.

type statement struct {
	Query *query `@@ ";"?`
}

type query struct {
	With   *withClause `@@?`
	Select *selectStmt `( @@`
	Insert *insertStmt `| @@`
	Update *updateStmt `| @@`
	Delete *deleteStmt `| @@ )`
}

type withClause struct {
	Recursive bool   `"WITH" @"RECURSIVE"?`
	CTEs      []*cte `@@ ( "," @@ )*`
}

type cte struct {
	Name    string   `@(Ident | QuotedIdent)`
	Columns []string `( "(" @(Ident | QuotedIdent) ( "," @(Ident | QuotedIdent) )* ")" )?`
	Body    *query   `"AS" "(" @@ ")"`
}

type selectStmt struct {
	Core    *selectCore    `@@`
	SetOps  []*setOp       `@@*`
	OrderBy []*orderItem   `( "ORDER" "BY" @@ ( "," @@ )* )?`
	Limit   *expression    `( "LIMIT" @@ )?`
	Offset  *expression    `( "OFFSET" @@ )?`
}

type selectCore struct {
	Values []*valuesRow   `  "VALUES" @@ ( "," @@ )*`
	Select *selectClause `| @@`
}

type valuesRow struct {
	Exprs []*expression `"(" @@ ( "," @@ )* ")"`
}

type selectClause struct {
	Distinct bool          `"SELECT" ( @"DISTINCT" | "ALL" )?`
	Targets  []*target     `@@ ( "," @@ )*`
	From     []*tableExpr  `( "FROM" @@ ( "," @@ )* )?`
	Where    *expression   `( "WHERE" @@ )?`
	GroupBy  []*expression `( "GROUP" "BY" @@ ( "," @@ )* )?`
	Having   *expression   `( "HAVING" @@ )?`
}

type setOp struct {
	Op   string      `@( "UNION" | "INTERSECT" | "EXCEPT" )`
	All  bool        `( @"ALL" | "DISTINCT" )?`
	Core *selectCore `@@`
}

type target struct {
	Pos   lexer.Position
	Expr  *expression `@@`
	Alias *string     `( "AS"? @(Ident | QuotedIdent) )?`
}

type orderItem struct {
	Expr      *expression `@@`
	Direction *string     `@( "ASC" | "DESC" )?`
	Nulls     *string     `( "NULLS" @( "FIRST" | "LAST" ) )?`
}

type tableExpr struct {
	Left  *tablePrimary `@@`
	Joins []*join       `@@*`
}

type join struct {
	Cross bool          `(  @"CROSS" "JOIN"`
	Kind  *string       ` | ( @( "INNER" | "LEFT" | "RIGHT" | "FULL" ) "OUTER"? )? "JOIN" )`
	Right *tablePrimary `@@`
	On    *expression   `( "ON" @@`
	Using []string      `| "USING" "(" @(Ident | QuotedIdent) ( "," @(Ident | QuotedIdent) )* ")" )?`
}

type tablePrimary struct {
	Subquery *selectStmt `(  "(" @@ ")"`
	Func     *funcCall   ` | @@`
	Name     []string    ` | @(Ident | QuotedIdent) ( "." @(Ident | QuotedIdent) )* )`
	Alias    *string     `( "AS"? @(Ident | QuotedIdent) )?`
}

type qualifiedName struct {
	Names []string `@(Ident | QuotedIdent) ( "." @(Ident | QuotedIdent) )*`
}

type insertStmt struct {
	Table         *qualifiedName `"INSERT" "INTO" @@`
	Alias         *string        `( "AS" @(Ident | QuotedIdent) )?`
	Columns       []string       `( "(" @(Ident | QuotedIdent) ( "," @(Ident | QuotedIdent) )* ")" )?`
	DefaultValues bool           `(  @"DEFAULT" "VALUES"`
	Source        *selectStmt    ` | @@ )`
	OnConflict    *onConflict    `@@?`
	Returning     []*target      `( "RETURNING" @@ ( "," @@ )* )?`
}

type onConflict struct {
	Columns   []string      `"ON" "CONFLICT" ( "(" @(Ident | QuotedIdent) ( "," @(Ident | QuotedIdent) )* ")" )? "DO"`
	DoNothing bool          `(  @"NOTHING"`
	Set       []*setClause  ` | "UPDATE" "SET" @@ ( "," @@ )*`
	Where     *expression   `    ( "WHERE" @@ )? )`
}

type setClause struct {
	Column string      `@(Ident | QuotedIdent) "="`
	Value  *expression `@@`
}

type updateStmt struct {
	Table     *qualifiedName `"UPDATE" @@`
	Alias     *string        `( "AS"? @(Ident | QuotedIdent) )?`
	Set       []*setClause   `"SET" @@ ( "," @@ )*`
	From      []*tableExpr   `( "FROM" @@ ( "," @@ )* )?`
	Where     *expression    `( "WHERE" @@ )?`
	Returning []*target      `( "RETURNING" @@ ( "," @@ )* )?`
}

type deleteStmt struct {
	Table     *qualifiedName `"DELETE" "FROM" @@`
	Alias     *string        `( "AS"? @(Ident | QuotedIdent) )?`
	Using     []*tableExpr   `( "USING" @@ ( "," @@ )* )?`
	Where     *expression    `( "WHERE" @@ )?`
	Returning []*target      `( "RETURNING" @@ ( "," @@ )* )?`
}

// Expressions, from the loosest binding operator to the tightest.

type expression struct {
	Terms []*andExpr `@@ ( "OR" @@ )*`
}

type andExpr struct {
	Terms []*notExpr `@@ ( "AND" @@ )*`
}

type notExpr struct {
	Not       *notExpr   `  "NOT" @@`
	Predicate *predicate `| @@`
}

type predicate struct {
	Left   *concatExpr      `@@`
	Suffix *predicateSuffix `@@?`
}

type predicateSuffix struct {
	Is      *isSuffix      `  @@`
	In      *inSuffix      `| @@`
	Between *betweenSuffix `| @@`
	Like    *likeSuffix    `| @@`
	Compare *compareSuffix `| @@`
}

type isSuffix struct {
	Not          bool        `"IS" @"NOT"?`
	What         *string     `(  @( "NULL" | "TRUE" | "FALSE" )`
	DistinctFrom *concatExpr ` | "DISTINCT" "FROM" @@ )`
}

type inSuffix struct {
	Not    bool          `@"NOT"? "IN" "("`
	Select *selectStmt   `(  @@`
	List   []*expression ` | @@ ( "," @@ )* ) ")"`
}

type betweenSuffix struct {
	Not  bool        `@"NOT"? "BETWEEN"`
	Low  *concatExpr `@@`
	High *concatExpr `"AND" @@`
}

type likeSuffix struct {
	Not     bool        `@"NOT"?`
	Op      string      `@( "LIKE" | "ILIKE" )`
	Pattern *concatExpr `@@`
}

type compareSuffix struct {
	Op         string      `@( "=" | "<>" | "!=" | "<=" | ">=" | "<" | ">" | "@>" | "<@" | "&&" )`
	Quantifier *string     `(  @( "ANY" | "SOME" | "ALL" ) "("`
	Select     *selectStmt `     (  @@`
	Array      *expression `      | @@ ) ")"`
	Right      *concatExpr ` | @@ )`
}

type concatExpr struct {
	Terms []*additiveExpr `@@ ( "||" @@ )*`
}

type additiveExpr struct {
	Left  *multiplicativeExpr `@@`
	Right []*additiveOp       `@@*`
}

type additiveOp struct {
	Op    string              `@( "+" | "-" )`
	Right *multiplicativeExpr `@@`
}

type multiplicativeExpr struct {
	Left  *unaryExpr        `@@`
	Right []*multiplicativeOp `@@*`
}

type multiplicativeOp struct {
	Op    string     `@( "*" | "/" | "%" )`
	Right *unaryExpr `@@`
}

type unaryExpr struct {
	Op      *string      `(  @( "-" | "+" )`
	Operand *unaryExpr   `   @@`
	Postfix *postfixExpr ` | @@ )`
}

type postfixExpr struct {
	Primary *primary    `@@`
	Casts   []*typeName `( "::" @@ )*`
}

type primary struct {
	Placeholder *placeholder  `  @@`
	Float       *string       `| @Float`
	Int         *string       `| @Int`
	String      *string       `| @String`
	Null        bool          `| @"NULL"`
	True        bool          `| @"TRUE"`
	False       bool          `| @"FALSE"`
	Default     bool          `| @"DEFAULT"`
	Cast        *castExpr     `| @@`
	Exists      *selectStmt   `| "EXISTS" "(" @@ ")"`
	Case        *caseExpr     `| @@`
	Array       *arrayExpr    `| @@`
	Subquery    *selectStmt   `| "(" @@ ")"`
	Parens      []*expression `| "(" @@ ( "," @@ )* ")"`
	Func        *funcCall     `| @@`
	TableStar   *string       `| @(Ident | QuotedIdent) "." "*"`
	Star        bool          `| @"*"`
	Column      []string      `| @(Ident | QuotedIdent) ( "." @(Ident | QuotedIdent) )*`
}

type placeholder struct {
	Pos   lexer.Position
	Value string `@Placeholder`
}

type castExpr struct {
	Expr *expression `"CAST" "(" @@`
	Type *typeName   `"AS" @@ ")"`
}

type caseExpr struct {
	Operand *expression   `"CASE" @@?`
	Whens   []*whenClause `@@+`
	Else    *expression   `( "ELSE" @@ )? "END"`
}

type whenClause struct {
	Cond   *expression `"WHEN" @@`
	Result *expression `"THEN" @@`
}

type arrayExpr struct {
	Select *selectStmt   `"ARRAY" (  "(" @@ ")"`
	Open   bool          `        | @"["`
	Elems  []*expression `          ( @@ ( "," @@ )* )? "]" )`
}

type funcCall struct {
	Name     string        `@(Ident | QuotedIdent) "("`
	Star     bool          `(  @"*"`
	Distinct bool          ` | @"DISTINCT"?`
	Args     []*expression `    @@ ( "," @@ )* )? ")"`
}

// Types.

type typeName struct {
	Pos      lexer.Position
	Setof    bool         `@"SETOF"?`
	Base     *baseType    `@@`
	Nullable bool         `@"?"?`
	Array    *arraySuffix `@@?`
}

type arraySuffix struct {
	Bounds   []*arrayBound  `(  @@+`
	Explicit *explicitArray ` | @@ )`
	Nullable bool           `@"?"?`
}

type arrayBound struct {
	Open bool `@"["`
	Size *int `@Int? "]"`
}

type explicitArray struct {
	Array bool `@"ARRAY"`
	Size  *int `( "[" @Int "]" )?`
}

type baseType struct {
	Numeric  *numericType  `  @@`
	Char     *charType     `| @@`
	Bit      *bitType      `| @@`
	Datetime *datetimeType `| @@`
	Interval *intervalType `| @@`
	Generic  *genericType  `| @@`
}

type numericType struct {
	Double    bool          `(  @"DOUBLE" "PRECISION"`
	Name      string        ` | @( "INTEGER" | "INT" | "SMALLINT" | "BIGINT" | "REAL" | "FLOAT" | "DECIMAL" | "DEC" | "NUMERIC" | "BOOLEAN" ) )`
	Modifiers []*expression `( "(" @@ ( "," @@ )* ")" )?`
}

type charType struct {
	National   bool   `(  @"NATIONAL"`
	NationalOf string `   @( "CHARACTER" | "CHAR" )`
	Name       string ` | @( "CHARACTER" | "CHAR" | "VARCHAR" | "NCHAR" ) )`
	Varying    bool   `@"VARYING"?`
	Length     *int   `( "(" @Int ")" )?`
}

type bitType struct {
	Bit       bool          `@"BIT"`
	Varying   bool          `@"VARYING"?`
	Modifiers []*expression `( "(" @@ ( "," @@ )* ")" )?`
}

type datetimeType struct {
	Name      string `@( "TIMESTAMP" | "TIME" )`
	Precision *int   `( "(" @Int ")" )?`
	With      bool   `(  ( @"WITH"`
	Without   bool   `   | @"WITHOUT" ) "TIME" "ZONE" )?`
}

type intervalType struct {
	Interval  bool    `@"INTERVAL"`
	From      *string `( @( "YEAR" | "MONTH" | "DAY" | "HOUR" | "MINUTE" | "SECOND" )`
	To        *string `  ( "TO" @( "MONTH" | "HOUR" | "MINUTE" | "SECOND" ) )? )?`
	Precision *int    `( "(" @Int ")" )?`
}

type genericType struct {
	Names     []string      `@(Ident | QuotedIdent) ( "." @(Ident | QuotedIdent) )*`
	Modifiers []*expression `( "(" @@ ( "," @@ )* ")" )?`
}
