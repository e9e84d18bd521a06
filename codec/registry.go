// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package codec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/canonical/sqlsig/typeerr"
)

// pgtype has no codec for timetz, it is registered as text.
const (
	timetzOID      = 1266
	timetzArrayOID = 1270
)

// builtinTypes lists the built-in type names with the name of the pgtype type
// implementing each of them.
var builtinTypes = []struct {
	name   string
	pgName string
}{
	{"bool", "bool"},
	{"int2", "int2"},
	{"int4", "int4"},
	{"int8", "int8"},
	{"float4", "float4"},
	{"float8", "float8"},
	{"numeric", "numeric"},
	{"char", "bpchar"},
	{"text", "text"},
	{"bytea", "bytea"},
	{"date", "date"},
	{"timestamp", "timestamp"},
	{"timestamptz", "timestamptz"},
	{"time", "time"},
	{"timetz", "timetz"},
	{"interval", "interval"},
	{"uuid", "uuid"},
	{"inet", "inet"},
	{"json", "json"},
	{"jsonb", "jsonb"},
}

// registry is the built-in registry. It is filled once when the package is
// initialised and only read afterwards.
var registry = newRegistry()

func newRegistry() map[string]Codec {
	m := NewTypeMap()
	reg := make(map[string]Codec, len(builtinTypes))
	for _, b := range builtinTypes {
		t, ok := m.TypeForName(b.pgName)
		if !ok {
			panic(fmt.Sprintf("internal error: pgtype has no type %q", b.pgName))
		}
		var arrayOID uint32
		if at, ok := m.TypeForName("_" + b.pgName); ok {
			arrayOID = at.OID
		}
		reg[b.name] = New(b.name, t.OID, arrayOID, t.Codec.PreferredFormat())
	}
	return reg
}

// NewTypeMap returns a new pgtype.Map that can encode and decode every
// built-in type. timetz values are sent and received as text, so they are
// strings such as "12:30:00+02" and not time.Time.
func NewTypeMap() *pgtype.Map {
	m := pgtype.NewMap()
	RegisterTypes(m)
	return m
}

// RegisterTypes adds to m the built-in types that pgtype does not register by
// default. It is a no-op if they are already present.
func RegisterTypes(m *pgtype.Map) {
	if _, ok := m.TypeForOID(timetzOID); ok {
		return
	}
	timetz := &pgtype.Type{Name: "timetz", OID: timetzOID, Codec: pgtype.TextCodec{}}
	m.RegisterType(timetz)
	m.RegisterType(&pgtype.Type{Name: "_timetz", OID: timetzArrayOID, Codec: &pgtype.ArrayCodec{ElementType: timetz}})
}

// Builtin is the Resolver for the built-in registry. Names are case
// insensitive. The timetz codec only accepts and returns strings.
func Builtin(name string) (Codec, error) {
	c, ok := registry[strings.ToLower(name)]
	if !ok {
		return Codec{}, typeerr.UnknownTypeError(name)
	}
	return c, nil
}

// BuiltinNames returns the sorted names known to Builtin.
func BuiltinNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
