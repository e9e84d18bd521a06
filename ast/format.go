// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package ast

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// The String methods render nodes back to SQL. The rendering is canonical:
// keywords are upper case, binary operators are fully parenthesised and
// optional noise words are dropped. Two type names are the same type exactly
// when they render to the same string.

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)

// QuoteIdent returns name as it must be written in SQL.
func QuoteIdent(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func joinIdents(names []string, sep string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, sep)
}

func joinNodes[T Node](nodes []T) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

func writeAlias(out *bytes.Buffer, alias string) {
	if alias != "" {
		out.WriteString(" AS ")
		out.WriteString(QuoteIdent(alias))
	}
}

func writeReturning(out *bytes.Buffer, ts []*Target) {
	if len(ts) > 0 {
		out.WriteString(" RETURNING ")
		out.WriteString(joinNodes(ts))
	}
}

func writeWhere(out *bytes.Buffer, where Expr) {
	if where != nil {
		out.WriteString(" WHERE ")
		out.WriteString(where.String())
	}
}

func (w *WithClause) String() string {
	var out bytes.Buffer
	out.WriteString("WITH ")
	if w.Recursive {
		out.WriteString("RECURSIVE ")
	}
	out.WriteString(joinNodes(w.CTEs))
	return out.String()
}

func (c *CTE) String() string {
	var out bytes.Buffer
	out.WriteString(QuoteIdent(c.Name))
	if len(c.Columns) > 0 {
		out.WriteString("(" + joinIdents(c.Columns, ", ") + ")")
	}
	out.WriteString(" AS (")
	out.WriteString(c.Body.String())
	out.WriteString(")")
	return out.String()
}

func (s *SelectStmt) String() string {
	var out bytes.Buffer
	if s.With != nil {
		out.WriteString(s.With.String())
		out.WriteString(" ")
	}
	s.writeCore(&out)
	for _, op := range s.SetOps {
		out.WriteString(" ")
		out.WriteString(op.String())
	}
	if len(s.OrderBy) > 0 {
		out.WriteString(" ORDER BY ")
		out.WriteString(joinNodes(s.OrderBy))
	}
	if s.Limit != nil {
		out.WriteString(" LIMIT ")
		out.WriteString(s.Limit.String())
	}
	if s.Offset != nil {
		out.WriteString(" OFFSET ")
		out.WriteString(s.Offset.String())
	}
	return out.String()
}

// writeCore writes the part of the SELECT that a set operation applies to.
func (s *SelectStmt) writeCore(out *bytes.Buffer) {
	if len(s.Values) > 0 {
		out.WriteString("VALUES ")
		for i, row := range s.Values {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString("(" + joinNodes(row) + ")")
		}
		return
	}
	out.WriteString("SELECT ")
	if s.Distinct {
		out.WriteString("DISTINCT ")
	}
	out.WriteString(joinNodes(s.Targets))
	if len(s.From) > 0 {
		out.WriteString(" FROM ")
		out.WriteString(joinNodes(s.From))
	}
	writeWhere(out, s.Where)
	if len(s.GroupBy) > 0 {
		out.WriteString(" GROUP BY ")
		out.WriteString(joinNodes(s.GroupBy))
	}
	if s.Having != nil {
		out.WriteString(" HAVING ")
		out.WriteString(s.Having.String())
	}
}

func (op *SetOp) String() string {
	var out bytes.Buffer
	out.WriteString(op.Op)
	if op.All {
		out.WriteString(" ALL")
	}
	out.WriteString(" ")
	op.Select.writeCore(&out)
	return out.String()
}

func (t *Target) String() string {
	var out bytes.Buffer
	out.WriteString(t.Expr.String())
	writeAlias(&out, t.Alias)
	return out.String()
}

func (o *OrderItem) String() string {
	s := o.Expr.String()
	if o.Direction != "" {
		s += " " + o.Direction
	}
	if o.Nulls != "" {
		s += " NULLS " + o.Nulls
	}
	return s
}

func (s *InsertStmt) String() string {
	var out bytes.Buffer
	if s.With != nil {
		out.WriteString(s.With.String())
		out.WriteString(" ")
	}
	out.WriteString("INSERT INTO ")
	out.WriteString(s.Table.String())
	if len(s.Columns) > 0 {
		out.WriteString(" (" + joinIdents(s.Columns, ", ") + ")")
	}
	if s.DefaultValues {
		out.WriteString(" DEFAULT VALUES")
	} else {
		out.WriteString(" ")
		out.WriteString(s.Source.String())
	}
	if s.OnConflict != nil {
		out.WriteString(" ")
		out.WriteString(s.OnConflict.String())
	}
	writeReturning(&out, s.Returning)
	return out.String()
}

func (oc *OnConflict) String() string {
	var out bytes.Buffer
	out.WriteString("ON CONFLICT")
	if len(oc.Columns) > 0 {
		out.WriteString(" (" + joinIdents(oc.Columns, ", ") + ")")
	}
	if oc.DoNothing {
		out.WriteString(" DO NOTHING")
		return out.String()
	}
	out.WriteString(" DO UPDATE SET ")
	out.WriteString(joinNodes(oc.Set))
	writeWhere(&out, oc.Where)
	return out.String()
}

func (sc *SetClause) String() string {
	return QuoteIdent(sc.Column) + " = " + sc.Value.String()
}

func (s *UpdateStmt) String() string {
	var out bytes.Buffer
	if s.With != nil {
		out.WriteString(s.With.String())
		out.WriteString(" ")
	}
	out.WriteString("UPDATE ")
	out.WriteString(s.Table.String())
	out.WriteString(" SET ")
	out.WriteString(joinNodes(s.Set))
	if len(s.From) > 0 {
		out.WriteString(" FROM ")
		out.WriteString(joinNodes(s.From))
	}
	writeWhere(&out, s.Where)
	writeReturning(&out, s.Returning)
	return out.String()
}

func (s *DeleteStmt) String() string {
	var out bytes.Buffer
	if s.With != nil {
		out.WriteString(s.With.String())
		out.WriteString(" ")
	}
	out.WriteString("DELETE FROM ")
	out.WriteString(s.Table.String())
	if len(s.Using) > 0 {
		out.WriteString(" USING ")
		out.WriteString(joinNodes(s.Using))
	}
	writeWhere(&out, s.Where)
	writeReturning(&out, s.Returning)
	return out.String()
}

func (t *TableName) String() string {
	var out bytes.Buffer
	out.WriteString(joinIdents(t.Names, "."))
	writeAlias(&out, t.Alias)
	return out.String()
}

func (t *SubqueryTable) String() string {
	var out bytes.Buffer
	out.WriteString("(" + t.Select.String() + ")")
	writeAlias(&out, t.Alias)
	return out.String()
}

func (t *FuncTable) String() string {
	var out bytes.Buffer
	out.WriteString(t.Func.String())
	writeAlias(&out, t.Alias)
	return out.String()
}

func (j *JoinExpr) String() string {
	var out bytes.Buffer
	out.WriteString(j.Left.String())
	out.WriteString(" ")
	if j.Kind != "" {
		out.WriteString(j.Kind)
		out.WriteString(" ")
	}
	out.WriteString("JOIN ")
	out.WriteString(j.Right.String())
	if j.On != nil {
		out.WriteString(" ON ")
		out.WriteString(j.On.String())
	} else if len(j.Using) > 0 {
		out.WriteString(" USING (" + joinIdents(j.Using, ", ") + ")")
	}
	return out.String()
}

func (p *Placeholder) String() string {
	return "$" + strconv.Itoa(p.Index)
}

func (l *Literal) String() string {
	switch l.Kind {
	case NullLiteral:
		return "NULL"
	case StringLiteral:
		return "'" + strings.ReplaceAll(l.Value, "'", "''") + "'"
	case BoolLiteral:
		return strings.ToUpper(l.Value)
	}
	return l.Value
}

func (*Default) String() string {
	return "DEFAULT"
}

func (c *ColumnRef) String() string {
	return joinIdents(c.Names, ".")
}

func (s *Star) String() string {
	if s.Table == "" {
		return "*"
	}
	return QuoteIdent(s.Table) + ".*"
}

func (c *Cast) String() string {
	if c.Func {
		return "CAST(" + c.Expr.String() + " AS " + c.Type.String() + ")"
	}
	return c.Expr.String() + "::" + c.Type.String()
}

func (u *UnaryExpr) String() string {
	if u.Op == "NOT" {
		return "(NOT " + u.Expr.String() + ")"
	}
	return u.Op + u.Expr.String()
}

func (b *BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")"
}

func (q *QuantifiedExpr) String() string {
	right := "(" + q.Right.String() + ")"
	if _, ok := q.Right.(*SubqueryExpr); ok {
		right = q.Right.String()
	}
	return "(" + q.Left.String() + " " + q.Op + " " + q.Quantifier + " " + right + ")"
}

func (e *IsExpr) String() string {
	if e.Not {
		return "(" + e.Expr.String() + " IS NOT " + e.What + ")"
	}
	return "(" + e.Expr.String() + " IS " + e.What + ")"
}

func (e *InExpr) String() string {
	op := " IN "
	if e.Not {
		op = " NOT IN "
	}
	if e.Select != nil {
		return "(" + e.Expr.String() + op + "(" + e.Select.String() + "))"
	}
	return "(" + e.Expr.String() + op + "(" + joinNodes(e.List) + "))"
}

func (e *BetweenExpr) String() string {
	op := " BETWEEN "
	if e.Not {
		op = " NOT BETWEEN "
	}
	return "(" + e.Expr.String() + op + e.Low.String() + " AND " + e.High.String() + ")"
}

func (f *FuncCall) String() string {
	var out bytes.Buffer
	out.WriteString(QuoteIdent(f.Name))
	out.WriteString("(")
	if f.Star {
		out.WriteString("*")
	} else {
		if f.Distinct {
			out.WriteString("DISTINCT ")
		}
		out.WriteString(joinNodes(f.Args))
	}
	out.WriteString(")")
	return out.String()
}

func (c *CaseExpr) String() string {
	var out bytes.Buffer
	out.WriteString("CASE")
	if c.Operand != nil {
		out.WriteString(" ")
		out.WriteString(c.Operand.String())
	}
	for _, w := range c.Whens {
		out.WriteString(" ")
		out.WriteString(w.String())
	}
	if c.Else != nil {
		out.WriteString(" ELSE ")
		out.WriteString(c.Else.String())
	}
	out.WriteString(" END")
	return out.String()
}

func (w *When) String() string {
	return "WHEN " + w.Cond.String() + " THEN " + w.Result.String()
}

func (s *SubqueryExpr) String() string {
	return "(" + s.Select.String() + ")"
}

func (e *ExistsExpr) String() string {
	return "EXISTS (" + e.Select.String() + ")"
}

func (r *RowExpr) String() string {
	return "(" + joinNodes(r.Exprs) + ")"
}

func (a *ArrayExpr) String() string {
	if a.Select != nil {
		return "ARRAY(" + a.Select.String() + ")"
	}
	return "ARRAY[" + joinNodes(a.Elems) + "]"
}

func (t *TypeName) String() string {
	var out bytes.Buffer
	if t.Setof {
		out.WriteString("SETOF ")
	}
	out.WriteString(t.Base.String())
	if t.Nullable {
		out.WriteString("?")
	}
	if t.Array != nil {
		out.WriteString(t.Array.String())
		if t.ArrayNullable {
			out.WriteString("?")
		}
	}
	return out.String()
}

func writeModifiers(out *bytes.Buffer, mods []Expr) {
	if len(mods) > 0 {
		out.WriteString("(" + joinNodes(mods) + ")")
	}
}

func writePrecision(out *bytes.Buffer, p *int) {
	if p != nil {
		out.WriteString("(" + strconv.Itoa(*p) + ")")
	}
}

func (g *GenericType) String() string {
	var out bytes.Buffer
	out.WriteString(QuoteIdent(g.Name))
	for _, a := range g.Attrs {
		out.WriteString(".")
		out.WriteString(QuoteIdent(a))
	}
	writeModifiers(&out, g.Modifiers)
	return out.String()
}

func (n *NumericType) String() string {
	var out bytes.Buffer
	out.WriteString(n.Kind.String())
	writeModifiers(&out, n.Modifiers)
	return out.String()
}

func (c *CharacterType) String() string {
	var out bytes.Buffer
	out.WriteString(c.Kind.String())
	if c.Varying {
		out.WriteString(" VARYING")
	}
	writePrecision(&out, c.Length)
	return out.String()
}

func (b *BitType) String() string {
	var out bytes.Buffer
	out.WriteString("BIT")
	if b.Varying {
		out.WriteString(" VARYING")
	}
	writeModifiers(&out, b.Modifiers)
	return out.String()
}

func (d *DatetimeType) String() string {
	var out bytes.Buffer
	out.WriteString(d.Kind.String())
	writePrecision(&out, d.Precision)
	if d.Zone != ZoneUnspecified {
		out.WriteString(" ")
		out.WriteString(d.Zone.String())
	}
	return out.String()
}

func (i *IntervalType) String() string {
	var out bytes.Buffer
	out.WriteString("INTERVAL")
	if i.Fields != AllFields {
		out.WriteString(" ")
		out.WriteString(i.Fields.String())
		writePrecision(&out, i.FieldPrecision)
	}
	writePrecision(&out, i.Precision)
	return out.String()
}

func (b *BoundedDims) String() string {
	var out bytes.Buffer
	for _, bound := range b.Bounds {
		out.WriteString("[")
		if bound != nil {
			out.WriteString(strconv.Itoa(*bound))
		}
		out.WriteString("]")
	}
	return out.String()
}

func (e *ExplicitDims) String() string {
	if e.Size == nil {
		return " ARRAY"
	}
	return " ARRAY[" + strconv.Itoa(*e.Size) + "]"
}
