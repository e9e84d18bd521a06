// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package assemble_test

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlsig/ast"
	"github.com/canonical/sqlsig/codec"
	"github.com/canonical/sqlsig/internal/assemble"
	"github.com/canonical/sqlsig/internal/parse"
	"github.com/canonical/sqlsig/internal/signature"
	"github.com/canonical/sqlsig/typeerr"
)

func extract(t *testing.T, sql string) *signature.Signature {
	sig, err := signature.Extract(parse.MustParse(sql))
	require.NoError(t, err)
	return sig
}

func TestAssembleParamsAndRow(t *testing.T) {
	sig := extract(t, "SELECT $1::int4, $2::text")

	params, err := assemble.AssembleParams(sig.Params, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, params.Len())
	assert.Equal(t, []uint32{pgtype.Int4OID, pgtype.TextOID}, params.OIDs())
	assert.Equal(t, []int16{pgtype.BinaryFormatCode, pgtype.TextFormatCode}, params.Formats())

	row, err := assemble.AssembleRow(sig.Columns, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, row.Len())
	assert.Equal(t, []uint32{pgtype.Int4OID, pgtype.TextOID}, row.OIDs())
	assert.Equal(t, []int16{pgtype.BinaryFormatCode, pgtype.TextFormatCode}, row.ResultFormats())

	m := codec.NewTypeMap()
	values, err := params.Encode(m, int32(7), "hi")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0, 0, 0, 7}, []byte("hi")}, values)

	decoded, err := row.Decode(m, values)
	require.NoError(t, err)
	assert.Equal(t, []any{int32(7), "hi"}, decoded)

	var n int32
	var s string
	require.NoError(t, row.Scan(m, values, &n, &s))
	assert.Equal(t, int32(7), n)
	assert.Equal(t, "hi", s)
}

func TestAssembleEmpty(t *testing.T) {
	params, err := assemble.AssembleParams(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, params.Len())

	row, err := assemble.AssembleRow([]*ast.TypeName{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, row.Len())

	m := codec.NewTypeMap()
	values, err := params.Encode(m)
	require.NoError(t, err)
	assert.Empty(t, values)

	decoded, err := row.Decode(m, nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
	assert.NoError(t, row.Scan(m, nil))
}

func TestPlanLengthsMatchTypes(t *testing.T) {
	for _, sql := range []string{
		"SELECT 1::int4",
		"SELECT $1::int4, $2::int8, $3::text, $4::uuid",
		"INSERT INTO t (a, b, c) VALUES ($1::bool, $2::float8, $3::bytea)",
		"UPDATE t SET a = $1::jsonb RETURNING a::jsonb, b::date, c::interval",
	} {
		sig := extract(t, sql)
		params, err := assemble.AssembleParams(sig.Params, nil)
		require.NoError(t, err, sql)
		row, err := assemble.AssembleRow(sig.Columns, nil)
		require.NoError(t, err, sql)
		assert.Equal(t, len(sig.Params), params.Len(), sql)
		assert.Equal(t, len(sig.Columns), row.Len(), sql)
		assert.Len(t, params.Slots(), params.Len(), sql)
		assert.Len(t, row.Slots(), row.Len(), sql)
	}
}

var assembleErrorTests = []struct {
	summary string
	sql     string
	kind    error
	err     string
}{{
	summary: "unknown parameter type",
	sql:     "SELECT $1::int4, $2::mytype",
	kind:    typeerr.UnknownTypeError("mytype"),
	err:     `parameter $2: unknown type "mytype"`,
}, {
	summary: "first failing parameter is reported",
	sql:     "SELECT $1::bit, $2::mytype",
	kind:    typeerr.UnsupportedError("BIT"),
	err:     `parameter $1: BIT not supported`,
}, {
	summary: "nullable parameter",
	sql:     "SELECT $1::int4?",
	kind:    typeerr.UnsupportedError("? suffix"),
	err:     `parameter $1: ? suffix not supported`,
}, {
	summary: "unsupported column type",
	sql:     "SELECT 1::int4, 'a'::text[]?, 2::bit",
	kind:    typeerr.UnsupportedError("? array suffix"),
	err:     `column 2: ? array suffix not supported`,
}, {
	summary: "setof column",
	sql:     "SELECT x::SETOF int4 FROM t",
	kind:    typeerr.UnsupportedError("SETOF"),
	err:     `column 1: SETOF not supported`,
}, {
	summary: "numeric with modifiers",
	sql:     "SELECT x::numeric(10, 2) FROM t",
	kind:    typeerr.UnsupportedError("NUMERIC"),
	err:     `column 1: NUMERIC not supported`,
}}

func TestAssembleErrors(t *testing.T) {
	for _, test := range assembleErrorTests {
		sig := extract(t, test.sql)
		params, perr := assemble.AssembleParams(sig.Params, nil)
		row, rerr := assemble.AssembleRow(sig.Columns, nil)
		err := perr
		if err == nil {
			assert.NotNil(t, params, test.summary)
			err = rerr
		} else {
			assert.Nil(t, params, test.summary)
		}
		if assert.Error(t, err, test.summary) {
			assert.EqualError(t, err, test.err, test.summary)
			assert.ErrorIs(t, err, test.kind, test.summary)
		}
		if rerr != nil {
			assert.Nil(t, row, test.summary)
		}
	}
}

func TestAssembleCustomResolver(t *testing.T) {
	sig := extract(t, "SELECT $1::mood, $2::int4")
	resolver, err := codec.Aliases(map[string]string{"mood": "text"})
	require.NoError(t, err)

	params, err := assemble.AssembleParams(sig.Params, resolver)
	require.NoError(t, err)
	assert.Equal(t, []uint32{pgtype.TextOID, pgtype.Int4OID}, params.OIDs())

	_, err = assemble.AssembleParams(sig.Params, nil)
	assert.ErrorIs(t, err, typeerr.UnknownTypeError("mood"))
}

func TestEncodeArgumentCount(t *testing.T) {
	sig := extract(t, "SELECT $1::int4, $2::text")
	params, err := assemble.AssembleParams(sig.Params, nil)
	require.NoError(t, err)

	_, err = params.Encode(codec.NewTypeMap(), int32(1))
	assert.EqualError(t, err, "expected 2 arguments, got 1")
}

func TestEncodeNull(t *testing.T) {
	sig := extract(t, "SELECT $1::int4, $2::text")
	params, err := assemble.AssembleParams(sig.Params, nil)
	require.NoError(t, err)
	row, err := assemble.AssembleRow(sig.Columns, nil)
	require.NoError(t, err)

	m := codec.NewTypeMap()
	values, err := params.Encode(m, nil, "x")
	require.NoError(t, err)
	assert.Nil(t, values[0])

	decoded, err := row.Decode(m, values)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "x"}, decoded)
}

func TestEncodeError(t *testing.T) {
	sig := extract(t, "SELECT $1::int4")
	params, err := assemble.AssembleParams(sig.Params, nil)
	require.NoError(t, err)

	_, err = params.Encode(codec.NewTypeMap(), struct{}{})
	assert.ErrorContains(t, err, "parameter $1: ")
}

func TestDecodeRowLength(t *testing.T) {
	sig := extract(t, "SELECT 1::int4, 'a'::text")
	row, err := assemble.AssembleRow(sig.Columns, nil)
	require.NoError(t, err)

	m := codec.NewTypeMap()
	_, err = row.Decode(m, [][]byte{{0, 0, 0, 1}})
	assert.EqualError(t, err, "expected 2 columns, got 1")

	var n int32
	err = row.Scan(m, [][]byte{{0, 0, 0, 1}, []byte("a")}, &n)
	assert.EqualError(t, err, "expected 2 destinations, got 1")
}

func TestScanError(t *testing.T) {
	sig := extract(t, "SELECT 1::int4, 'a'::text")
	row, err := assemble.AssembleRow(sig.Columns, nil)
	require.NoError(t, err)

	var n int32
	var s string
	err = row.Scan(codec.NewTypeMap(), [][]byte{{0, 0, 0, 1}, []byte("a")}, &n, s)
	assert.ErrorContains(t, err, "column 2: ")
}

func TestArrayParameter(t *testing.T) {
	sig := extract(t, "SELECT x::int8[] FROM t WHERE id = ANY($1::int8[])")
	params, err := assemble.AssembleParams(sig.Params, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{pgtype.Int8ArrayOID}, params.OIDs())
	row, err := assemble.AssembleRow(sig.Columns, nil)
	require.NoError(t, err)

	m := codec.NewTypeMap()
	values, err := params.Encode(m, []int64{1, 2})
	require.NoError(t, err)

	var ids []int64
	require.NoError(t, row.Scan(m, values, &ids))
	assert.Equal(t, []int64{1, 2}, ids)
}
