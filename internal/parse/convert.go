// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/canonical/sqlsig/ast"
)

func position(pos lexer.Position) ast.Pos {
	return ast.Pos{Line: pos.Line, Column: pos.Column}
}

// ident returns the name an identifier token refers to. Unquoted identifiers
// are folded to lower case.
func ident(tok string) string {
	if strings.HasPrefix(tok, `"`) {
		return strings.ReplaceAll(tok[1:len(tok)-1], `""`, `"`)
	}
	return strings.ToLower(tok)
}

func idents(toks []string) []string {
	if len(toks) == 0 {
		return nil
	}
	names := make([]string, len(toks))
	for i, tok := range toks {
		names[i] = ident(tok)
	}
	return names
}

func optIdent(tok *string) string {
	if tok == nil {
		return ""
	}
	return ident(*tok)
}

func convertQuery(q *query) (ast.Statement, error) {
	with, err := convertWith(q.With)
	if err != nil {
		return nil, err
	}
	switch {
	case q.Select != nil:
		s, err := convertSelect(q.Select)
		if err != nil {
			return nil, err
		}
		s.With = with
		return s, nil
	case q.Insert != nil:
		s, err := convertInsert(q.Insert)
		if err != nil {
			return nil, err
		}
		s.With = with
		return s, nil
	case q.Update != nil:
		s, err := convertUpdate(q.Update)
		if err != nil {
			return nil, err
		}
		s.With = with
		return s, nil
	case q.Delete != nil:
		s, err := convertDelete(q.Delete)
		if err != nil {
			return nil, err
		}
		s.With = with
		return s, nil
	}
	return nil, fmt.Errorf("internal error: empty statement")
}

func convertWith(w *withClause) (*ast.WithClause, error) {
	if w == nil {
		return nil, nil
	}
	out := &ast.WithClause{Recursive: w.Recursive}
	for _, c := range w.CTEs {
		body, err := convertQuery(c.Body)
		if err != nil {
			return nil, err
		}
		out.CTEs = append(out.CTEs, &ast.CTE{
			Name:    ident(c.Name),
			Columns: idents(c.Columns),
			Body:    body,
		})
	}
	return out, nil
}

func convertSelect(s *selectStmt) (*ast.SelectStmt, error) {
	out, err := convertCore(s.Core)
	if err != nil {
		return nil, err
	}
	for _, op := range s.SetOps {
		core, err := convertCore(op.Core)
		if err != nil {
			return nil, err
		}
		out.SetOps = append(out.SetOps, &ast.SetOp{
			Op:     strings.ToUpper(op.Op),
			All:    op.All,
			Select: core,
		})
	}
	for _, o := range s.OrderBy {
		item, err := convertOrderItem(o)
		if err != nil {
			return nil, err
		}
		out.OrderBy = append(out.OrderBy, item)
	}
	if out.Limit, err = convertOptExpr(s.Limit); err != nil {
		return nil, err
	}
	if out.Offset, err = convertOptExpr(s.Offset); err != nil {
		return nil, err
	}
	return out, nil
}

func convertCore(c *selectCore) (*ast.SelectStmt, error) {
	out := &ast.SelectStmt{}
	if c.Values != nil {
		for _, row := range c.Values {
			exprs, err := convertExprs(row.Exprs)
			if err != nil {
				return nil, err
			}
			out.Values = append(out.Values, exprs)
		}
		return out, nil
	}
	sc := c.Select
	var err error
	out.Distinct = sc.Distinct
	if out.Targets, err = convertTargets(sc.Targets); err != nil {
		return nil, err
	}
	if out.From, err = convertTableExprs(sc.From); err != nil {
		return nil, err
	}
	if out.Where, err = convertOptExpr(sc.Where); err != nil {
		return nil, err
	}
	if out.GroupBy, err = convertExprs(sc.GroupBy); err != nil {
		return nil, err
	}
	if out.Having, err = convertOptExpr(sc.Having); err != nil {
		return nil, err
	}
	return out, nil
}

func convertOrderItem(o *orderItem) (*ast.OrderItem, error) {
	e, err := convertExpr(o.Expr)
	if err != nil {
		return nil, err
	}
	item := &ast.OrderItem{Expr: e}
	if o.Direction != nil {
		item.Direction = strings.ToUpper(*o.Direction)
	}
	if o.Nulls != nil {
		item.Nulls = strings.ToUpper(*o.Nulls)
	}
	return item, nil
}

func convertTargets(ts []*target) ([]*ast.Target, error) {
	var out []*ast.Target
	for _, t := range ts {
		e, err := convertExpr(t.Expr)
		if err != nil {
			return nil, err
		}
		out = append(out, &ast.Target{
			Expr:  e,
			Alias: optIdent(t.Alias),
			Pos:   position(t.Pos),
		})
	}
	return out, nil
}

func convertTableExprs(ts []*tableExpr) ([]ast.TableExpr, error) {
	var out []ast.TableExpr
	for _, t := range ts {
		te, err := convertTableExpr(t)
		if err != nil {
			return nil, err
		}
		out = append(out, te)
	}
	return out, nil
}

func convertTableExpr(t *tableExpr) (ast.TableExpr, error) {
	left, err := convertTablePrimary(t.Left)
	if err != nil {
		return nil, err
	}
	for _, j := range t.Joins {
		right, err := convertTablePrimary(j.Right)
		if err != nil {
			return nil, err
		}
		je := &ast.JoinExpr{Left: left, Right: right, Using: idents(j.Using)}
		switch {
		case j.Cross:
			je.Kind = "CROSS"
		case j.Kind != nil:
			je.Kind = strings.ToUpper(*j.Kind)
		}
		if je.On, err = convertOptExpr(j.On); err != nil {
			return nil, err
		}
		left = je
	}
	return left, nil
}

func convertTablePrimary(t *tablePrimary) (ast.TableExpr, error) {
	alias := optIdent(t.Alias)
	switch {
	case t.Subquery != nil:
		s, err := convertSelect(t.Subquery)
		if err != nil {
			return nil, err
		}
		return &ast.SubqueryTable{Select: s, Alias: alias}, nil
	case t.Func != nil:
		f, err := convertFuncCall(t.Func)
		if err != nil {
			return nil, err
		}
		return &ast.FuncTable{Func: f, Alias: alias}, nil
	}
	return &ast.TableName{Names: idents(t.Name), Alias: alias}, nil
}

func convertInsert(s *insertStmt) (*ast.InsertStmt, error) {
	out := &ast.InsertStmt{
		Table:         &ast.TableName{Names: idents(s.Table.Names), Alias: optIdent(s.Alias)},
		Columns:       idents(s.Columns),
		DefaultValues: s.DefaultValues,
	}
	var err error
	if s.Source != nil {
		if out.Source, err = convertSelect(s.Source); err != nil {
			return nil, err
		}
	}
	if oc := s.OnConflict; oc != nil {
		out.OnConflict = &ast.OnConflict{Columns: idents(oc.Columns), DoNothing: oc.DoNothing}
		if out.OnConflict.Set, err = convertSetClauses(oc.Set); err != nil {
			return nil, err
		}
		if out.OnConflict.Where, err = convertOptExpr(oc.Where); err != nil {
			return nil, err
		}
	}
	if out.Returning, err = convertTargets(s.Returning); err != nil {
		return nil, err
	}
	return out, nil
}

func convertSetClauses(scs []*setClause) ([]*ast.SetClause, error) {
	var out []*ast.SetClause
	for _, sc := range scs {
		v, err := convertExpr(sc.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, &ast.SetClause{Column: ident(sc.Column), Value: v})
	}
	return out, nil
}

func convertUpdate(s *updateStmt) (*ast.UpdateStmt, error) {
	out := &ast.UpdateStmt{
		Table: &ast.TableName{Names: idents(s.Table.Names), Alias: optIdent(s.Alias)},
	}
	var err error
	if out.Set, err = convertSetClauses(s.Set); err != nil {
		return nil, err
	}
	if out.From, err = convertTableExprs(s.From); err != nil {
		return nil, err
	}
	if out.Where, err = convertOptExpr(s.Where); err != nil {
		return nil, err
	}
	if out.Returning, err = convertTargets(s.Returning); err != nil {
		return nil, err
	}
	return out, nil
}

func convertDelete(s *deleteStmt) (*ast.DeleteStmt, error) {
	out := &ast.DeleteStmt{
		Table: &ast.TableName{Names: idents(s.Table.Names), Alias: optIdent(s.Alias)},
	}
	var err error
	if out.Using, err = convertTableExprs(s.Using); err != nil {
		return nil, err
	}
	if out.Where, err = convertOptExpr(s.Where); err != nil {
		return nil, err
	}
	if out.Returning, err = convertTargets(s.Returning); err != nil {
		return nil, err
	}
	return out, nil
}

func convertOptExpr(e *expression) (ast.Expr, error) {
	if e == nil {
		return nil, nil
	}
	return convertExpr(e)
}

func convertExprs(es []*expression) ([]ast.Expr, error) {
	var out []ast.Expr
	for _, e := range es {
		ce, err := convertExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, ce)
	}
	return out, nil
}

// fold combines terms left to right with op.
func fold[T any](terms []T, op string, convert func(T) (ast.Expr, error)) (ast.Expr, error) {
	var out ast.Expr
	for i, t := range terms {
		e, err := convert(t)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			out = e
		} else {
			out = &ast.BinaryExpr{Op: op, Left: out, Right: e}
		}
	}
	return out, nil
}

func convertExpr(e *expression) (ast.Expr, error) {
	return fold(e.Terms, "OR", convertAnd)
}

func convertAnd(e *andExpr) (ast.Expr, error) {
	return fold(e.Terms, "AND", convertNot)
}

func convertNot(e *notExpr) (ast.Expr, error) {
	if e.Not != nil {
		operand, err := convertNot(e.Not)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: "NOT", Expr: operand}, nil
	}
	return convertPredicate(e.Predicate)
}

func convertPredicate(p *predicate) (ast.Expr, error) {
	left, err := convertConcat(p.Left)
	if err != nil {
		return nil, err
	}
	s := p.Suffix
	if s == nil {
		return left, nil
	}
	switch {
	case s.Is != nil:
		if s.Is.What != nil {
			return &ast.IsExpr{Expr: left, Not: s.Is.Not, What: strings.ToUpper(*s.Is.What)}, nil
		}
		right, err := convertConcat(s.Is.DistinctFrom)
		if err != nil {
			return nil, err
		}
		op := "IS DISTINCT FROM"
		if s.Is.Not {
			op = "IS NOT DISTINCT FROM"
		}
		return &ast.BinaryExpr{Op: op, Left: left, Right: right}, nil
	case s.In != nil:
		in := &ast.InExpr{Expr: left, Not: s.In.Not}
		if s.In.Select != nil {
			if in.Select, err = convertSelect(s.In.Select); err != nil {
				return nil, err
			}
			return in, nil
		}
		if in.List, err = convertExprs(s.In.List); err != nil {
			return nil, err
		}
		return in, nil
	case s.Between != nil:
		low, err := convertConcat(s.Between.Low)
		if err != nil {
			return nil, err
		}
		high, err := convertConcat(s.Between.High)
		if err != nil {
			return nil, err
		}
		return &ast.BetweenExpr{Expr: left, Not: s.Between.Not, Low: low, High: high}, nil
	case s.Like != nil:
		pattern, err := convertConcat(s.Like.Pattern)
		if err != nil {
			return nil, err
		}
		op := strings.ToUpper(s.Like.Op)
		if s.Like.Not {
			op = "NOT " + op
		}
		return &ast.BinaryExpr{Op: op, Left: left, Right: pattern}, nil
	case s.Compare != nil:
		return convertCompare(left, s.Compare)
	}
	return nil, fmt.Errorf("internal error: empty predicate suffix")
}

func convertCompare(left ast.Expr, c *compareSuffix) (ast.Expr, error) {
	op := c.Op
	if op == "!=" {
		op = "<>"
	}
	if c.Quantifier == nil {
		right, err := convertConcat(c.Right)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: op, Left: left, Right: right}, nil
	}
	q := &ast.QuantifiedExpr{Op: op, Quantifier: strings.ToUpper(*c.Quantifier), Left: left}
	if c.Select != nil {
		s, err := convertSelect(c.Select)
		if err != nil {
			return nil, err
		}
		q.Right = &ast.SubqueryExpr{Select: s}
		return q, nil
	}
	right, err := convertExpr(c.Array)
	if err != nil {
		return nil, err
	}
	q.Right = right
	return q, nil
}

func convertConcat(e *concatExpr) (ast.Expr, error) {
	return fold(e.Terms, "||", convertAdditive)
}

func convertAdditive(e *additiveExpr) (ast.Expr, error) {
	out, err := convertMultiplicative(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		right, err := convertMultiplicative(r.Right)
		if err != nil {
			return nil, err
		}
		out = &ast.BinaryExpr{Op: r.Op, Left: out, Right: right}
	}
	return out, nil
}

func convertMultiplicative(e *multiplicativeExpr) (ast.Expr, error) {
	out, err := convertUnary(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Right {
		right, err := convertUnary(r.Right)
		if err != nil {
			return nil, err
		}
		out = &ast.BinaryExpr{Op: r.Op, Left: out, Right: right}
	}
	return out, nil
}

func convertUnary(e *unaryExpr) (ast.Expr, error) {
	if e.Op != nil {
		operand, err := convertUnary(e.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: *e.Op, Expr: operand}, nil
	}
	return convertPostfix(e.Postfix)
}

func convertPostfix(e *postfixExpr) (ast.Expr, error) {
	out, err := convertPrimary(e.Primary)
	if err != nil {
		return nil, err
	}
	for _, t := range e.Casts {
		typ, err := convertType(t)
		if err != nil {
			return nil, err
		}
		out = &ast.Cast{Expr: out, Type: typ}
	}
	return out, nil
}

func convertPrimary(p *primary) (ast.Expr, error) {
	switch {
	case p.Placeholder != nil:
		return convertPlaceholder(p.Placeholder)
	case p.Float != nil:
		return &ast.Literal{Kind: ast.FloatLiteral, Value: *p.Float}, nil
	case p.Int != nil:
		return &ast.Literal{Kind: ast.IntLiteral, Value: *p.Int}, nil
	case p.String != nil:
		s := *p.String
		return &ast.Literal{Kind: ast.StringLiteral, Value: strings.ReplaceAll(s[1:len(s)-1], "''", "'")}, nil
	case p.Null:
		return &ast.Literal{Kind: ast.NullLiteral, Value: "NULL"}, nil
	case p.True:
		return &ast.Literal{Kind: ast.BoolLiteral, Value: "TRUE"}, nil
	case p.False:
		return &ast.Literal{Kind: ast.BoolLiteral, Value: "FALSE"}, nil
	case p.Default:
		return &ast.Default{}, nil
	case p.Cast != nil:
		e, err := convertExpr(p.Cast.Expr)
		if err != nil {
			return nil, err
		}
		typ, err := convertType(p.Cast.Type)
		if err != nil {
			return nil, err
		}
		return &ast.Cast{Expr: e, Type: typ, Func: true}, nil
	case p.Exists != nil:
		s, err := convertSelect(p.Exists)
		if err != nil {
			return nil, err
		}
		return &ast.ExistsExpr{Select: s}, nil
	case p.Case != nil:
		return convertCase(p.Case)
	case p.Array != nil:
		if p.Array.Select != nil {
			s, err := convertSelect(p.Array.Select)
			if err != nil {
				return nil, err
			}
			return &ast.ArrayExpr{Select: s}, nil
		}
		elems, err := convertExprs(p.Array.Elems)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayExpr{Elems: elems}, nil
	case p.Subquery != nil:
		s, err := convertSelect(p.Subquery)
		if err != nil {
			return nil, err
		}
		return &ast.SubqueryExpr{Select: s}, nil
	case p.Parens != nil:
		exprs, err := convertExprs(p.Parens)
		if err != nil {
			return nil, err
		}
		if len(exprs) == 1 {
			return exprs[0], nil
		}
		return &ast.RowExpr{Exprs: exprs}, nil
	case p.Func != nil:
		return convertFuncCall(p.Func)
	case p.TableStar != nil:
		return &ast.Star{Table: ident(*p.TableStar)}, nil
	case p.Star:
		return &ast.Star{}, nil
	case p.Column != nil:
		return &ast.ColumnRef{Names: idents(p.Column)}, nil
	}
	return nil, fmt.Errorf("internal error: empty expression")
}

// maxPlaceholder is the largest number of parameters PostgreSQL accepts in a
// single statement.
const maxPlaceholder = 65535

func convertPlaceholder(p *placeholder) (*ast.Placeholder, error) {
	pos := position(p.Pos)
	n, err := strconv.Atoi(p.Value[1:])
	if err != nil {
		return nil, errorAt(pos, "invalid placeholder %s", p.Value)
	}
	if n < 1 {
		return nil, errorAt(pos, "invalid placeholder %s: placeholders start at $1", p.Value)
	}
	if n > maxPlaceholder {
		return nil, errorAt(pos, "invalid placeholder %s: at most %d parameters are allowed", p.Value, maxPlaceholder)
	}
	return &ast.Placeholder{Index: n, Pos: pos}, nil
}

func convertFuncCall(f *funcCall) (*ast.FuncCall, error) {
	args, err := convertExprs(f.Args)
	if err != nil {
		return nil, err
	}
	return &ast.FuncCall{
		Name:     ident(f.Name),
		Distinct: f.Distinct,
		Star:     f.Star,
		Args:     args,
	}, nil
}

func convertCase(c *caseExpr) (ast.Expr, error) {
	out := &ast.CaseExpr{}
	var err error
	if out.Operand, err = convertOptExpr(c.Operand); err != nil {
		return nil, err
	}
	for _, w := range c.Whens {
		cond, err := convertExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		result, err := convertExpr(w.Result)
		if err != nil {
			return nil, err
		}
		out.Whens = append(out.Whens, &ast.When{Cond: cond, Result: result})
	}
	if out.Else, err = convertOptExpr(c.Else); err != nil {
		return nil, err
	}
	return out, nil
}

func convertType(t *typeName) (*ast.TypeName, error) {
	pos := position(t.Pos)
	base, err := convertBaseType(t.Base, pos)
	if err != nil {
		return nil, err
	}
	out := &ast.TypeName{Setof: t.Setof, Base: base, Nullable: t.Nullable}
	if a := t.Array; a != nil {
		if a.Explicit != nil {
			out.Array = &ast.ExplicitDims{Size: a.Explicit.Size}
		} else {
			dims := &ast.BoundedDims{}
			for _, b := range a.Bounds {
				dims.Bounds = append(dims.Bounds, b.Size)
			}
			out.Array = dims
		}
		out.ArrayNullable = a.Nullable
	}
	return out, nil
}

var numericKinds = map[string]ast.NumericKind{
	"INT":      ast.Int,
	"INTEGER":  ast.Integer,
	"SMALLINT": ast.Smallint,
	"BIGINT":   ast.Bigint,
	"REAL":     ast.Real,
	"FLOAT":    ast.Float,
	"DECIMAL":  ast.Decimal,
	"DEC":      ast.Dec,
	"NUMERIC":  ast.Numeric,
	"BOOLEAN":  ast.Boolean,
}

var charKinds = map[string]ast.CharKind{
	"CHARACTER": ast.Character,
	"CHAR":      ast.Char,
	"VARCHAR":   ast.Varchar,
	"NCHAR":     ast.Nchar,
}

var intervalFields = map[string]ast.IntervalFields{
	"YEAR":             ast.Year,
	"MONTH":            ast.Month,
	"DAY":              ast.Day,
	"HOUR":             ast.Hour,
	"MINUTE":           ast.Minute,
	"SECOND":           ast.Second,
	"YEAR TO MONTH":    ast.YearToMonth,
	"DAY TO HOUR":      ast.DayToHour,
	"DAY TO MINUTE":    ast.DayToMinute,
	"DAY TO SECOND":    ast.DayToSecond,
	"HOUR TO MINUTE":   ast.HourToMinute,
	"HOUR TO SECOND":   ast.HourToSecond,
	"MINUTE TO SECOND": ast.MinuteToSecond,
}

func convertBaseType(b *baseType, pos ast.Pos) (ast.BaseType, error) {
	switch {
	case b.Numeric != nil:
		n := b.Numeric
		out := &ast.NumericType{Kind: ast.DoublePrecision}
		if !n.Double {
			kind, ok := numericKinds[strings.ToUpper(n.Name)]
			if !ok {
				return nil, fmt.Errorf("internal error: unknown numeric type %q", n.Name)
			}
			out.Kind = kind
		}
		mods, err := convertExprs(n.Modifiers)
		if err != nil {
			return nil, err
		}
		switch out.Kind {
		case ast.Float, ast.Decimal, ast.Dec, ast.Numeric:
			out.Modifiers = mods
		default:
			if len(mods) > 0 {
				return nil, errorAt(pos, "type %s does not take modifiers", out.Kind)
			}
		}
		return out, nil
	case b.Char != nil:
		c := b.Char
		out := &ast.CharacterType{Varying: c.Varying, Length: c.Length}
		if c.National {
			out.Kind = ast.NationalCharacter
			if strings.EqualFold(c.NationalOf, "CHAR") {
				out.Kind = ast.NationalChar
			}
		} else {
			kind, ok := charKinds[strings.ToUpper(c.Name)]
			if !ok {
				return nil, fmt.Errorf("internal error: unknown character type %q", c.Name)
			}
			out.Kind = kind
		}
		if out.Kind == ast.Varchar && out.Varying {
			return nil, errorAt(pos, "VARCHAR VARYING is not a type")
		}
		return out, nil
	case b.Bit != nil:
		mods, err := convertExprs(b.Bit.Modifiers)
		if err != nil {
			return nil, err
		}
		return &ast.BitType{Varying: b.Bit.Varying, Modifiers: mods}, nil
	case b.Datetime != nil:
		d := b.Datetime
		out := &ast.DatetimeType{Kind: ast.Timestamp, Precision: d.Precision}
		if strings.EqualFold(d.Name, "TIME") {
			out.Kind = ast.Time
		}
		switch {
		case d.With:
			out.Zone = ast.WithTimeZone
		case d.Without:
			out.Zone = ast.WithoutTimeZone
		}
		return out, nil
	case b.Interval != nil:
		return convertInterval(b.Interval, pos)
	case b.Generic != nil:
		g := b.Generic
		mods, err := convertExprs(g.Modifiers)
		if err != nil {
			return nil, err
		}
		names := idents(g.Names)
		out := &ast.GenericType{Name: names[0], Modifiers: mods}
		if len(names) > 1 {
			out.Attrs = names[1:]
		}
		return out, nil
	}
	return nil, fmt.Errorf("internal error: empty type")
}

func convertInterval(i *intervalType, pos ast.Pos) (*ast.IntervalType, error) {
	out := &ast.IntervalType{}
	if i.From != nil {
		name := strings.ToUpper(*i.From)
		if i.To != nil {
			name += " TO " + strings.ToUpper(*i.To)
		}
		fields, ok := intervalFields[name]
		if !ok {
			return nil, errorAt(pos, "invalid interval fields %s", name)
		}
		out.Fields = fields
	}
	switch {
	case i.Precision == nil:
	case out.Fields == ast.AllFields:
		out.Precision = i.Precision
	case out.Fields.EndsInSecond():
		out.FieldPrecision = i.Precision
	default:
		return nil, errorAt(pos, "interval precision is only allowed after SECOND")
	}
	return out, nil
}
