// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package codec

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/canonical/sqlsig/ast"
	"github.com/canonical/sqlsig/typeerr"
)

// Slot is the codec of a single placeholder or output column: a scalar Codec
// or an array of it with a number of dimensions.
type Slot struct {
	codec Codec
	dims  int
}

// Wrap applies the SETOF, "?" and array markers of t to the codec of its base
// type.
//
// Bounded dimensions ("[]", "[3][]") give one dimension per pair of brackets.
// The ARRAY suffix always gives a single dimension, whatever size is written
// after it: PostgreSQL does not enforce declared sizes either.
func Wrap(c Codec, t *ast.TypeName) (Slot, error) {
	switch {
	case t.Nullable:
		return Slot{}, typeerr.UnsupportedError("? suffix")
	case t.ArrayNullable:
		return Slot{}, typeerr.UnsupportedError("? array suffix")
	case t.Setof:
		return Slot{}, typeerr.UnsupportedError("SETOF")
	}
	switch a := t.Array.(type) {
	case nil:
		return Slot{codec: c}, nil
	case *ast.BoundedDims:
		if len(a.Bounds) == 0 {
			return Slot{}, fmt.Errorf("internal error: array type %s has no dimensions", t)
		}
		return Slot{codec: c, dims: len(a.Bounds)}, nil
	case *ast.ExplicitDims:
		return Slot{codec: c, dims: 1}, nil
	}
	return Slot{}, fmt.Errorf("internal error: unexpected array dimensions %T", t.Array)
}

// Codec returns the codec of the scalar or of the array elements.
func (s Slot) Codec() Codec {
	return s.codec
}

// Dims returns the number of array dimensions, 0 for a scalar.
func (s Slot) Dims() int {
	return s.dims
}

// IsArray reports whether the slot holds an array.
func (s Slot) IsArray() bool {
	return s.dims > 0
}

// OID returns the OID of the slot type, the array OID for arrays.
func (s Slot) OID() uint32 {
	if s.dims > 0 {
		return s.codec.arrayOID
	}
	return s.codec.oid
}

// Format returns the wire format code of the slot.
func (s Slot) Format() int16 {
	return s.codec.format
}

func (s Slot) String() string {
	return s.codec.name + strings.Repeat("[]", s.dims)
}

// Encode appends the encoding of value to buf. Arrays accept anything pgtype
// accepts for the array type, for example []int32, [][]string or
// pgtype.Array[T].
func (s Slot) Encode(m *pgtype.Map, value any, buf []byte) ([]byte, error) {
	if s.dims == 0 {
		return s.codec.Encode(m, value, buf)
	}
	return s.codec.encodeNull.wrapEncode(s.String(), s.encodeArray)(m, value, buf)
}

// Decode decodes src, which is nil for NULL. Arrays decode to
// pgtype.Array[any].
func (s Slot) Decode(m *pgtype.Map, src []byte) (any, error) {
	if s.dims == 0 {
		return s.codec.Decode(m, src)
	}
	return s.codec.decodeNull.wrapDecode(s.String(), s.decodeArray)(m, src)
}

// Scan decodes src into dest, which must be a pointer.
func (s Slot) Scan(m *pgtype.Map, src []byte, dest any) error {
	if s.dims == 0 {
		return s.codec.Scan(m, src, dest)
	}
	if src == nil && s.codec.decodeNull == NonNull {
		return fmt.Errorf("unexpected NULL for non-null %s", s)
	}
	if err := s.checkArray(); err != nil {
		return err
	}
	return m.Scan(s.codec.arrayOID, s.codec.format, src, dest)
}

func (s Slot) checkArray() error {
	if s.codec.arrayOID == 0 {
		return fmt.Errorf("type %s has no array type", s.codec.name)
	}
	return nil
}

func (s Slot) encodeArray(m *pgtype.Map, value any, buf []byte) ([]byte, error) {
	if err := s.checkArray(); err != nil {
		return nil, err
	}
	return m.Encode(s.codec.arrayOID, s.codec.format, value, buf)
}

func (s Slot) decodeArray(m *pgtype.Map, src []byte) (any, error) {
	if err := s.checkArray(); err != nil {
		return nil, err
	}
	var arr pgtype.Array[any]
	if err := m.Scan(s.codec.arrayOID, s.codec.format, src, &arr); err != nil {
		return nil, err
	}
	return arr, nil
}
