// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package parse

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// reservedWords cannot be used as unquoted identifiers. Other keywords of the
// grammar, such as the names of types and interval fields, are lexed as
// identifiers and matched case insensitively.
var reservedWords = []string{
	"ALL", "AND", "ANY", "ARRAY", "AS", "ASC", "BETWEEN", "BY", "CASE", "CAST",
	"CROSS", "DEFAULT", "DELETE", "DESC", "DISTINCT", "ELSE", "END", "EXCEPT",
	"EXISTS", "FALSE", "FROM", "FULL", "GROUP", "HAVING", "ILIKE", "IN",
	"INNER", "INSERT", "INTERSECT", "INTO", "IS", "JOIN", "LEFT", "LIKE",
	"LIMIT", "NOT", "NULL", "OFFSET", "ON", "OR", "ORDER", "OUTER",
	"RECURSIVE", "RETURNING", "RIGHT", "SELECT", "SET", "SOME", "THEN", "TRUE",
	"UNION", "UPDATE", "USING", "VALUES", "WHEN", "WHERE", "WITH",
}

var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Keyword", Pattern: `(?i:\b(?:` + strings.Join(reservedWords, "|") + `)\b)`},
	{Name: "Placeholder", Pattern: `\$[0-9]+`},
	{Name: "Float", Pattern: `[0-9]+\.[0-9]*(?:[eE][-+]?[0-9]+)?|\.[0-9]+(?:[eE][-+]?[0-9]+)?|[0-9]+[eE][-+]?[0-9]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Operator", Pattern: `::|<>|!=|<=|>=|<@|@>|&&|\|\||[-+*/%=<>?(),.;\[\]]`},
})
