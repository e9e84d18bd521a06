// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/sqlsig/ast"
	"github.com/canonical/sqlsig/typeerr"
)

// Resolver finds the Codec for a lower case type name. A Resolver that does
// not know a name returns an error matching typeerr.ErrUnknownType.
type Resolver func(name string) (Codec, error)

// Resolve returns the Codec for a base type.
//
// Types referred to by name are looked up with custom first, when it is not
// nil. If custom does not know the name the built-in registry is used; any
// other error from custom is returned as is. Types written with an SQL
// keyword (INTEGER, VARCHAR(n), TIMESTAMP WITH TIME ZONE, ...) always resolve
// to built-in codecs.
func Resolve(base ast.BaseType, custom Resolver) (Codec, error) {
	switch t := base.(type) {
	case *ast.GenericType:
		return resolveGeneric(t, custom)
	case *ast.NumericType:
		return resolveNumeric(t)
	case *ast.CharacterType:
		// The declared length is not checked.
		return Builtin("char")
	case *ast.BitType:
		return Codec{}, typeerr.UnsupportedError("BIT")
	case *ast.DatetimeType:
		return resolveDatetime(t)
	case *ast.IntervalType:
		// All field restrictions share the interval codec.
		return Builtin("interval")
	}
	return Codec{}, fmt.Errorf("internal error: unexpected base type %T", base)
}

func resolveGeneric(t *ast.GenericType, custom Resolver) (Codec, error) {
	if len(t.Attrs) > 0 {
		return Codec{}, typeerr.UnsupportedError("type attributes")
	}
	if len(t.Modifiers) > 0 {
		return Codec{}, typeerr.UnsupportedError("type modifiers")
	}
	name := strings.ToLower(t.Name)
	if custom != nil {
		c, err := custom(name)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, typeerr.ErrUnknownType) {
			return Codec{}, err
		}
	}
	return Builtin(name)
}

func resolveNumeric(t *ast.NumericType) (Codec, error) {
	switch t.Kind {
	case ast.Int, ast.Integer:
		return Builtin("int4")
	case ast.Smallint:
		return Builtin("int2")
	case ast.Bigint:
		return Builtin("int8")
	case ast.Real:
		return Builtin("float4")
	case ast.Float:
		if len(t.Modifiers) > 0 {
			return Codec{}, typeerr.UnsupportedError("FLOAT")
		}
		return Builtin("float4")
	case ast.DoublePrecision:
		return Builtin("float8")
	case ast.Decimal, ast.Dec, ast.Numeric:
		if len(t.Modifiers) > 0 {
			return Codec{}, typeerr.UnsupportedError(t.Kind.String())
		}
		return Builtin("numeric")
	case ast.Boolean:
		return Builtin("bool")
	}
	return Codec{}, fmt.Errorf("internal error: unexpected numeric kind %d", int(t.Kind))
}

func resolveDatetime(t *ast.DatetimeType) (Codec, error) {
	// The precision is accepted and ignored.
	withZone := t.Zone == ast.WithTimeZone
	switch t.Kind {
	case ast.Timestamp:
		if withZone {
			return Builtin("timestamptz")
		}
		return Builtin("timestamp")
	case ast.Time:
		if withZone {
			return Builtin("timetz")
		}
		return Builtin("time")
	}
	return Codec{}, fmt.Errorf("internal error: unexpected datetime kind %d", int(t.Kind))
}

// Chain returns a Resolver that asks each resolver in turn and returns the
// first answer that is not an unknown type error.
func Chain(resolvers ...Resolver) Resolver {
	return func(name string) (Codec, error) {
		for _, r := range resolvers {
			c, err := r(name)
			if errors.Is(err, typeerr.ErrUnknownType) {
				continue
			}
			return c, err
		}
		return Codec{}, typeerr.UnknownTypeError(name)
	}
}

// Aliases returns a Resolver that resolves each key of aliases to the
// built-in codec named by its value. It is meant for enums and domains that
// are sent and received as one of the built-in types.
func Aliases(aliases map[string]string) (Resolver, error) {
	resolved := make(map[string]Codec, len(aliases))
	for alias, target := range aliases {
		c, err := Builtin(target)
		if err != nil {
			return nil, fmt.Errorf("alias %q: %w", alias, err)
		}
		resolved[strings.ToLower(alias)] = c
	}
	return func(name string) (Codec, error) {
		c, ok := resolved[name]
		if !ok {
			return Codec{}, typeerr.UnknownTypeError(name)
		}
		return c, nil
	}, nil
}
