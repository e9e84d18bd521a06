// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package codec maps SQL types to the codecs used to send parameter values to
PostgreSQL and to read column values back.

A Codec describes a single scalar type. Resolve finds the Codec for the base
type of an ast.TypeName, using the built-in registry and, for types referred
to by name, an optional custom Resolver. Wrap then applies the array
dimensions of the type name and produces the Slot used for one placeholder or
one output column.

The encoding itself is done by github.com/jackc/pgx/v5/pgtype. Callers supply
the *pgtype.Map at encode and decode time; a Map must not be shared between
goroutines. NewTypeMap returns a Map that knows every built-in type.
*/
package codec

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5/pgtype"
)

// EncodeFunc encodes a non-NULL value and appends it to buf.
type EncodeFunc func(m *pgtype.Map, value any, buf []byte) ([]byte, error)

// DecodeFunc decodes a non-NULL value.
type DecodeFunc func(m *pgtype.Map, src []byte) (any, error)

// Nullability says how NULL is treated on one side of a Codec.
type Nullability int

const (
	// Nullable codecs encode a nil value as NULL and decode NULL as nil.
	Nullable Nullability = iota
	// NonNull codecs reject NULL.
	NonNull
)

func (n Nullability) String() string {
	switch n {
	case Nullable:
		return "nullable"
	case NonNull:
		return "non-null"
	}
	return fmt.Sprintf("Nullability(%d)", int(n))
}

func (n Nullability) wrapEncode(name string, encode EncodeFunc) EncodeFunc {
	return func(m *pgtype.Map, value any, buf []byte) ([]byte, error) {
		if !isNil(value) {
			return encode(m, value, buf)
		}
		switch n {
		case Nullable:
			return nil, nil
		case NonNull:
			return nil, fmt.Errorf("cannot encode NULL as non-null %s", name)
		}
		return nil, fmt.Errorf("internal error: unknown nullability %d", int(n))
	}
}

func (n Nullability) wrapDecode(name string, decode DecodeFunc) DecodeFunc {
	return func(m *pgtype.Map, src []byte) (any, error) {
		if src != nil {
			return decode(m, src)
		}
		switch n {
		case Nullable:
			return nil, nil
		case NonNull:
			return nil, fmt.Errorf("unexpected NULL for non-null %s", name)
		}
		return nil, fmt.Errorf("internal error: unknown nullability %d", int(n))
	}
}

// Codec encodes and decodes values of one PostgreSQL type. Codec values are
// immutable and may be shared freely.
type Codec struct {
	name     string
	oid      uint32
	arrayOID uint32
	format   int16
	encode   EncodeFunc
	decode   DecodeFunc
	// native is set when the codec is implemented by the pgtype.Map for oid,
	// which lets Scan hand the destination straight to pgtype.
	native     bool
	encodeNull Nullability
	decodeNull Nullability
}

// New returns a nullable Codec for the PostgreSQL type with the given OIDs.
// Values are encoded and decoded by the pgtype.Map passed at call time in the
// given format. arrayOID may be 0 if the type has no array type.
func New(name string, oid, arrayOID uint32, format int16) Codec {
	return Codec{
		name:     name,
		oid:      oid,
		arrayOID: arrayOID,
		format:   format,
		encode:   pgEncode(oid, format),
		decode:   pgDecode(oid, format),
		native:   true,
	}
}

// NewFunc returns a nullable Codec with custom base operations. The functions
// are never called with a NULL value.
func NewFunc(name string, oid, arrayOID uint32, format int16, encode EncodeFunc, decode DecodeFunc) Codec {
	return Codec{
		name:     name,
		oid:      oid,
		arrayOID: arrayOID,
		format:   format,
		encode:   encode,
		decode:   decode,
	}
}

func (c Codec) Name() string {
	return c.name
}

// OID returns the PostgreSQL type OID.
func (c Codec) OID() uint32 {
	return c.oid
}

// ArrayOID returns the OID of the array type, or 0 if there is none.
func (c Codec) ArrayOID() uint32 {
	return c.arrayOID
}

// Format returns the wire format code, pgtype.TextFormatCode or
// pgtype.BinaryFormatCode.
func (c Codec) Format() int16 {
	return c.format
}

func (c Codec) EncodeNullability() Nullability {
	return c.encodeNull
}

func (c Codec) DecodeNullability() Nullability {
	return c.decodeNull
}

// IsZero reports whether c is the zero Codec.
func (c Codec) IsZero() bool {
	return c.encode == nil && c.decode == nil
}

// SetNonNull returns a copy of c that rejects NULL when encoding and when
// decoding. c itself is unchanged.
func (c Codec) SetNonNull() Codec {
	derived := c
	derived.encodeNull = NonNull
	derived.decodeNull = NonNull
	return derived
}

// Encode appends the encoding of value to buf. A nil value is NULL, which is
// encoded as a nil slice.
func (c Codec) Encode(m *pgtype.Map, value any, buf []byte) ([]byte, error) {
	return c.encodeNull.wrapEncode(c.name, c.encode)(m, value, buf)
}

// Decode decodes src, which is nil for NULL.
func (c Codec) Decode(m *pgtype.Map, src []byte) (any, error) {
	return c.decodeNull.wrapDecode(c.name, c.decode)(m, src)
}

// Scan decodes src into dest, which must be a pointer.
func (c Codec) Scan(m *pgtype.Map, src []byte, dest any) error {
	if src == nil && c.decodeNull == NonNull {
		return fmt.Errorf("unexpected NULL for non-null %s", c.name)
	}
	if c.native {
		return m.Scan(c.oid, c.format, src, dest)
	}
	v, err := c.Decode(m, src)
	if err != nil {
		return err
	}
	return assign(v, dest)
}

func (c Codec) String() string {
	return c.name
}

func pgEncode(oid uint32, format int16) EncodeFunc {
	return func(m *pgtype.Map, value any, buf []byte) ([]byte, error) {
		return m.Encode(oid, format, value, buf)
	}
}

func pgDecode(oid uint32, format int16) DecodeFunc {
	return func(m *pgtype.Map, src []byte) (any, error) {
		t, ok := m.TypeForOID(oid)
		if !ok {
			// Text is readable without knowing the type.
			if format == pgtype.TextFormatCode {
				return string(src), nil
			}
			return nil, fmt.Errorf("no type registered for OID %d", oid)
		}
		return t.Codec.DecodeValue(m, oid, format, src)
	}
}

// isNil reports whether v is nil or a nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// assign stores v in the pointer dest.
func assign(v any, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("cannot scan into %T: need non-nil pointer", dest)
	}
	target := dv.Elem()
	if v == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	sv := reflect.ValueOf(v)
	if !sv.Type().AssignableTo(target.Type()) {
		return fmt.Errorf("cannot scan %T into %T", v, dest)
	}
	target.Set(sv)
	return nil
}
