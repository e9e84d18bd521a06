// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package sqlsig infers the signature of parameterized PostgreSQL statements
and builds the codecs used to send their arguments and read their rows.

Every placeholder and every output column of a statement must carry a type
cast. The casts are the signature:

	SELECT p.name::text, p.age::int4
	FROM person AS p
	WHERE p.team = $1::text AND p.age > $2::int4

takes a text and an int4 argument and returns rows of a text and an int4
column. No database is consulted.

# Placeholders

Placeholders are written $1, $2, ... and each one must be the direct operand
of a cast, either $1::int4 or CAST($1 AS int4). A placeholder may be used
more than once but always with the same type. Every index between $1 and the
largest index used must appear.

# Output columns

The output columns of a SELECT are the items of its first SELECT list, or
the first row of a VALUES list. INSERT, UPDATE and DELETE statements output
their RETURNING list and have no output columns without one. Each item must
be a cast at the top level, so "SELECT *" is rejected.

# Types

Types referred to by name, such as int4, uuid or jsonb, are looked up in the
built-in registry of the codec package. The SQL keyword types INTEGER,
DOUBLE PRECISION, VARCHAR(n), TIMESTAMP WITH TIME ZONE, INTERVAL and so on
map onto the built-in types as PostgreSQL does. Array types are written
int4[], int4[][] or int4 ARRAY; declared sizes are ignored.

Project types such as enums and domains are supplied with [WithResolver]:

	aliases, err := codec.Aliases(map[string]string{"mood": "text"})
	...
	a := sqlsig.NewAnalyzer(sqlsig.WithResolver(aliases))

# Errors

Errors wrap a *typeerr.Error, which can be tested with errors.Is against the
sentinels of the typeerr package, or a syntax error for statements that
cannot be parsed. Errors found in the statement text carry its position.
*/
package sqlsig
