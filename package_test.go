// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlsig_test

import (
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	. "gopkg.in/check.v1"

	"github.com/canonical/sqlsig"
	"github.com/canonical/sqlsig/ast"
	"github.com/canonical/sqlsig/codec"
	"github.com/canonical/sqlsig/typeerr"
)

type PackageSuite struct{}

var _ = Suite(&PackageSuite{})

func typeNames(ts []*ast.TypeName) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return names
}

func (s *PackageSuite) TestPrepareSelect(c *C) {
	stmt, err := sqlsig.Prepare("select $1::int4, $2::text")
	c.Assert(err, IsNil)
	c.Assert(stmt.SQL(), Equals, "select $1::int4, $2::text")
	c.Assert(typeNames(stmt.ParamTypes()), DeepEquals, []string{"int4", "text"})
	c.Assert(typeNames(stmt.ColumnTypes()), DeepEquals, []string{"int4", "text"})
	c.Assert(stmt.HasOutputs(), Equals, true)

	c.Assert(stmt.Params().Len(), Equals, 2)
	c.Assert(stmt.Params().OIDs(), DeepEquals, []uint32{pgtype.Int4OID, pgtype.TextOID})
	c.Assert(stmt.Row().Len(), Equals, 2)

	m := codec.NewTypeMap()
	values, err := stmt.Params().Encode(m, int32(42), "answer")
	c.Assert(err, IsNil)
	row, err := stmt.Row().Decode(m, values)
	c.Assert(err, IsNil)
	c.Assert(row, DeepEquals, []any{int32(42), "answer"})
}

var prepareTests = []struct {
	summary string
	sql     string
	params  []string
	columns []string
}{{
	summary: "insert without returning",
	sql:     "INSERT INTO person (id, name) VALUES ($1::int8, $2::text)",
	params:  []string{"int8", "text"},
	columns: []string{},
}, {
	summary: "update returning",
	sql:     "UPDATE person SET name = $1::varchar(40) WHERE id = $2::bigint RETURNING id::int8, updated::timestamp with time zone",
	params:  []string{"VARCHAR(40)", "BIGINT"},
	columns: []string{"int8", "TIMESTAMP WITH TIME ZONE"},
}, {
	summary: "delete with array",
	sql:     "DELETE FROM person WHERE id = ANY($1::int8[])",
	params:  []string{"int8[]"},
	columns: []string{},
}, {
	summary: "no placeholders",
	sql:     "SELECT count(*)::int8 FROM person",
	params:  []string{},
	columns: []string{"int8"},
}, {
	summary: "explicit array sizes",
	sql:     "SELECT $1::int4 ARRAY[1], $2::int4 ARRAY[3]",
	params:  []string{"int4 ARRAY[1]", "int4 ARRAY[3]"},
	columns: []string{"int4 ARRAY[1]", "int4 ARRAY[3]"},
}}

func (s *PackageSuite) TestPrepare(c *C) {
	for i, test := range prepareTests {
		stmt, err := sqlsig.Prepare(test.sql)
		if err != nil {
			c.Errorf("test %d failed (Prepare):\nsummary: %s\nsql: %s\nerr: %s\n", i, test.summary, test.sql, err)
			continue
		}
		comment := Commentf("test %d: %s", i, test.summary)
		c.Check(typeNames(stmt.ParamTypes()), DeepEquals, test.params, comment)
		c.Check(typeNames(stmt.ColumnTypes()), DeepEquals, test.columns, comment)
		c.Check(stmt.Params().Len(), Equals, len(test.params), comment)
		c.Check(stmt.Row().Len(), Equals, len(test.columns), comment)
		c.Check(stmt.HasOutputs(), Equals, len(test.columns) > 0, comment)
	}
}

func (s *PackageSuite) TestExplicitArrayIsOneDimension(c *C) {
	stmt, err := sqlsig.Prepare("SELECT $1::int4 ARRAY[1], $2::int4 ARRAY[3]")
	c.Assert(err, IsNil)
	for _, slot := range stmt.Params().Slots() {
		c.Assert(slot.Dims(), Equals, 1)
		c.Assert(slot.OID(), Equals, uint32(pgtype.Int4ArrayOID))
	}
}

var prepareErrorTests = []struct {
	summary string
	sql     string
	kind    error
	err     string
}{{
	summary: "missing placeholder cast",
	sql:     "SELECT name::text FROM person WHERE id = $1",
	kind:    typeerr.MissingPlaceholderCastError(1, ast.Pos{}),
	err:     `cannot prepare statement "SELECT name::text FROM person WHERE id = \$1": column 42: placeholder \$1 has no type cast`,
}, {
	summary: "non-contiguous placeholders",
	sql:     "SELECT $1::int4, $3::int4",
	kind:    typeerr.NonContiguousPlaceholdersError(2),
	err:     `cannot prepare statement "SELECT \$1::int4, \$3::int4": placeholders are not contiguous: \$2 is never used`,
}, {
	summary: "conflicting placeholder types",
	sql:     "SELECT $1::int4 WHERE $1::text = ''",
	kind:    typeerr.ErrConflictingPlaceholderType,
	err:     `cannot prepare statement ".*": column 23: placeholder \$1 is cast to conflicting types: int4 and text`,
}, {
	summary: "missing column cast",
	sql:     "SELECT id, name::text FROM person",
	kind:    typeerr.MissingColumnCastError(1, ast.Pos{}),
	err:     `cannot prepare statement ".*": column 8: output column 1 has no type cast`,
}, {
	summary: "unknown type",
	sql:     "SELECT $1::mytype",
	kind:    typeerr.UnknownTypeError("mytype"),
	err:     `cannot prepare statement ".*": parameter \$1: unknown type "mytype"`,
}, {
	summary: "bit is unsupported",
	sql:     "SELECT x::bit(3) FROM t",
	kind:    typeerr.UnsupportedError("BIT"),
	err:     `cannot prepare statement ".*": column 1: BIT not supported`,
}, {
	summary: "bit array is unsupported",
	sql:     "SELECT x::bit[] FROM t",
	kind:    typeerr.UnsupportedError("BIT"),
	err:     `cannot prepare statement ".*": column 1: BIT not supported`,
}, {
	summary: "nullable suffix",
	sql:     "SELECT $1::int4?",
	kind:    typeerr.UnsupportedError("? suffix"),
	err:     `cannot prepare statement ".*": parameter \$1: \? suffix not supported`,
}, {
	summary: "parameter errors come before column errors",
	sql:     "SELECT a FROM t WHERE b = $1::mytype",
	kind:    typeerr.UnknownTypeError("mytype"),
	err:     `cannot prepare statement ".*": parameter \$1: unknown type "mytype"`,
}, {
	summary: "column extraction comes before column resolution",
	sql:     "SELECT a::mytype, b FROM t",
	kind:    typeerr.MissingColumnCastError(2, ast.Pos{}),
	err:     `cannot prepare statement ".*": column 19: output column 2 has no type cast`,
}}

func (s *PackageSuite) TestPrepareErrors(c *C) {
	for i, test := range prepareErrorTests {
		stmt, err := sqlsig.Prepare(test.sql)
		comment := Commentf("test %d: %s", i, test.summary)
		c.Check(stmt, IsNil, comment)
		c.Check(err, ErrorMatches, test.err, comment)
		c.Check(errors.Is(err, test.kind), Equals, true, comment)
	}
}

func (s *PackageSuite) TestPrepareParseError(c *C) {
	_, err := sqlsig.Prepare("SELECT $0::int4")
	c.Assert(err, ErrorMatches, `cannot prepare statement "SELECT \$0::int4": cannot parse statement: column 8: invalid placeholder \$0: placeholders start at \$1`)
}

func (s *PackageSuite) TestPreparePlaceholderLimit(c *C) {
	_, err := sqlsig.Prepare("select $99999999999999999::int4")
	c.Assert(err, ErrorMatches, `cannot prepare statement ".*": cannot parse statement: column 8: invalid placeholder \$99999999999999999: at most 65535 parameters are allowed`)

	stmt, err := sqlsig.Prepare("select $1::int4 + $65535::int4")
	c.Assert(stmt, IsNil)
	c.Assert(errors.Is(err, typeerr.NonContiguousPlaceholdersError(2)), Equals, true)
}

func (s *PackageSuite) TestMustPreparePanics(c *C) {
	c.Assert(func() { sqlsig.MustPrepare("SELECT $1") }, PanicMatches, `cannot prepare statement .*`)
}

func (s *PackageSuite) TestCustomResolver(c *C) {
	mytype := codec.New("mytype", 90001, 0, pgtype.TextFormatCode)
	resolver := func(name string) (codec.Codec, error) {
		if name == "mytype" {
			return mytype, nil
		}
		return codec.Codec{}, typeerr.UnknownTypeError(name)
	}
	a := sqlsig.NewAnalyzer(sqlsig.WithResolver(resolver))

	stmt, err := a.Prepare("SELECT $1::mytype, $2::int8")
	c.Assert(err, IsNil)
	c.Assert(stmt.Params().OIDs(), DeepEquals, []uint32{90001, pgtype.Int8OID})

	_, err = a.Prepare("SELECT $1::other")
	c.Assert(errors.Is(err, typeerr.UnknownTypeError("other")), Equals, true)

	// The default analyzer does not know the custom type.
	_, err = sqlsig.Prepare("SELECT $1::mytype, $2::int8")
	c.Assert(errors.Is(err, typeerr.UnknownTypeError("mytype")), Equals, true)
}

func (s *PackageSuite) TestExclusiveResolver(c *C) {
	denied := errors.New("only project types are allowed")
	a := sqlsig.NewAnalyzer(sqlsig.WithResolver(func(name string) (codec.Codec, error) {
		return codec.Codec{}, denied
	}))
	_, err := a.Prepare("SELECT $1::int4")
	c.Assert(errors.Is(err, denied), Equals, true)

	// Keyword types never reach the resolver.
	_, err = a.Prepare("SELECT $1::integer")
	c.Assert(err, IsNil)
}

func (s *PackageSuite) TestAnalyze(c *C) {
	stmt := &ast.InsertStmt{
		Table:   &ast.TableName{Names: []string{"person"}},
		Columns: []string{"id"},
		Source: &ast.SelectStmt{Values: [][]ast.Expr{{
			&ast.Cast{
				Expr: &ast.Placeholder{Index: 1},
				Type: &ast.TypeName{Base: &ast.GenericType{Name: "uuid"}},
			},
		}}},
		Returning: []*ast.Target{{
			Expr: &ast.Cast{
				Expr: &ast.ColumnRef{Names: []string{"id"}},
				Type: &ast.TypeName{Base: &ast.GenericType{Name: "uuid"}},
			},
		}},
	}
	analyzed, err := sqlsig.Analyze("insert person", stmt)
	c.Assert(err, IsNil)
	c.Assert(analyzed.SQL(), Equals, "insert person")
	c.Assert(analyzed.AST(), Equals, ast.Statement(stmt))
	c.Assert(analyzed.Params().OIDs(), DeepEquals, []uint32{pgtype.UUIDOID})
	c.Assert(analyzed.Row().OIDs(), DeepEquals, []uint32{pgtype.UUIDOID})
}

func (s *PackageSuite) TestAnalyzeErrors(c *C) {
	_, err := sqlsig.Analyze("nothing", nil)
	c.Assert(err, ErrorMatches, `cannot prepare statement "nothing": no statement`)

	stmt := &ast.SelectStmt{Targets: []*ast.Target{{Expr: &ast.Placeholder{Index: 1}}}}
	_, err = sqlsig.Analyze("select", stmt)
	c.Assert(err, ErrorMatches, `cannot prepare statement "select": placeholder \$1 has no type cast`)
}

func (s *PackageSuite) TestStatementTypesAreCopies(c *C) {
	stmt := sqlsig.MustPrepare("SELECT $1::int4")
	types := stmt.ParamTypes()
	types[0] = nil
	c.Assert(stmt.ParamTypes()[0], NotNil)
}

func (s *PackageSuite) TestLogging(c *C) {
	core, logs := observer.New(zapcore.DebugLevel)
	a := sqlsig.NewAnalyzer(sqlsig.WithLogger(zap.New(core)))

	_, err := a.Prepare("SELECT $1::int4")
	c.Assert(err, IsNil)
	_, err = a.Prepare("SELECT $1::int4")
	c.Assert(err, IsNil)
	_, err = a.Prepare("SELECT $1")
	c.Assert(err, NotNil)

	entries := logs.AllUntimed()
	c.Assert(entries, HasLen, 3)
	c.Assert(entries[0].Message, Equals, "statement prepared")
	c.Assert(entries[0].ContextMap()["sql"], Equals, "SELECT $1::int4")
	c.Assert(entries[0].ContextMap()["params"], DeepEquals, []any{"int4"})
	c.Assert(entries[1].Message, Equals, "cache hit")
	c.Assert(entries[2].Message, Equals, "statement rejected")
	c.Assert(entries[2].ContextMap()["error"], Equals, "column 8: placeholder $1 has no type cast")
	for _, e := range entries {
		c.Assert(e.Level, Equals, zapcore.DebugLevel)
	}
}

func (s *PackageSuite) TestNilLoggerIsIgnored(c *C) {
	a := sqlsig.NewAnalyzer(sqlsig.WithLogger(nil))
	_, err := a.Prepare("SELECT $1")
	c.Assert(err, NotNil)
}

func (s *PackageSuite) TestDefaultAnalyzerCaches(c *C) {
	sql := "SELECT $1::int4 AS default_analyzer_test"
	before := sqlsig.DefaultAnalyzer().CacheLen()
	s1 := sqlsig.MustPrepare(sql)
	s2 := sqlsig.MustPrepare(sql)
	c.Assert(s2, Equals, s1)
	c.Assert(sqlsig.DefaultAnalyzer().CacheLen(), Equals, before+1)
}
