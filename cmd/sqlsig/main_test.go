// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createSQLFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	file := createSQLFile(t, dir, "find.sql", "SELECT id::int8, tags::text[]\nFROM person\nWHERE name = $1::text\n")

	stdout, _, err := runCLI(t, "describe", file)
	require.NoError(t, err)
	assert.Contains(t, stdout, file+"\n")
	assert.Regexp(t, `\$1 +text +text oid=25`, stdout)
	assert.Regexp(t, `column 1 +int8 +int8 oid=20`, stdout)
	assert.Regexp(t, `column 2 +text\[\] +text\[\] oid=1009`, stdout)
}

func TestDescribeJSON(t *testing.T) {
	dir := t.TempDir()
	file := createSQLFile(t, dir, "insert.sql", "INSERT INTO person (id, name) VALUES ($1::uuid, $2::varchar(40))")

	stdout, _, err := runCLI(t, "--json", "describe", file)
	require.NoError(t, err)

	var described []describeJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &described))
	require.Len(t, described, 1)
	assert.Equal(t, file, described[0].File)
	require.Len(t, described[0].Params, 2)
	assert.Equal(t, "uuid", described[0].Params[0].Codec)
	assert.Equal(t, uint32(2950), described[0].Params[0].OID)
	assert.Equal(t, "VARCHAR(40)", described[0].Params[1].Type)
	assert.Equal(t, "char", described[0].Params[1].Codec)
	assert.Empty(t, described[0].Columns)
}

func TestDescribeRejected(t *testing.T) {
	dir := t.TempDir()
	file := createSQLFile(t, dir, "bad.sql", "SELECT name FROM person")

	_, _, err := runCLI(t, "describe", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.sql: cannot prepare statement")
	assert.Contains(t, err.Error(), "output column 1 has no type cast")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := createSQLFile(t, dir, "good.sql", "DELETE FROM person WHERE id = $1::int8")
	bad := createSQLFile(t, dir, "bad.sql", "SELECT $1::int4, $3::int4")

	stdout, _, err := runCLI(t, "check", good, bad)
	require.EqualError(t, err, "1 of 2 statements rejected")
	assert.NotContains(t, stdout, "good.sql")
	assert.Contains(t, stdout, "bad.sql: ")
	assert.Contains(t, stdout, "$2 is never used")

	stdout, _, err = runCLI(t, "check", good)
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestCheckJSON(t *testing.T) {
	dir := t.TempDir()
	good := createSQLFile(t, dir, "good.sql", "SELECT 1::int4")
	bad := createSQLFile(t, dir, "bad.sql", "SELECT $1::mood")

	stdout, _, err := runCLI(t, "--json", "check", good, bad)
	require.Error(t, err)

	var results []checkJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.Empty(t, results[0].Error)
	assert.Contains(t, results[1].Error, `unknown type "mood"`)
}

func TestAliasFlag(t *testing.T) {
	dir := t.TempDir()
	file := createSQLFile(t, dir, "mood.sql", "SELECT $1::mood")

	stdout, _, err := runCLI(t, "--alias", "mood=text", "describe", file)
	require.NoError(t, err)
	assert.Regexp(t, `\$1 +mood +text oid=25`, stdout)
}

func TestAliasEnv(t *testing.T) {
	t.Setenv("SQLSIG_ALIASES", "mood=text;level=int2")
	dir := t.TempDir()
	file := createSQLFile(t, dir, "mood.sql", "SELECT $1::mood, $2::level")

	stdout, _, err := runCLI(t, "describe", file)
	require.NoError(t, err)
	assert.Regexp(t, `\$2 +level +int2 oid=21`, stdout)
}

func TestAliasUnknownTarget(t *testing.T) {
	dir := t.TempDir()
	file := createSQLFile(t, dir, "mood.sql", "SELECT $1::mood")

	_, _, err := runCLI(t, "--alias", "mood=nosuchtype", "describe", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `alias "mood"`)
}

func TestDebugLogging(t *testing.T) {
	dir := t.TempDir()
	file := createSQLFile(t, dir, "one.sql", "SELECT 1::int4")

	_, stderr, err := runCLI(t, "--log-level", "debug", "describe", file)
	require.NoError(t, err)
	assert.Contains(t, stderr, "statement prepared")

	_, stderr, err = runCLI(t, "describe", file)
	require.NoError(t, err)
	assert.Empty(t, stderr)
}

func TestTypes(t *testing.T) {
	stdout, _, err := runCLI(t, "types")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^int4 +oid=23 +array_oid=1007`, stdout)

	stdout, _, err = runCLI(t, "--json", "types")
	require.NoError(t, err)
	var types []typeJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &types))
	assert.NotEmpty(t, types)
}

func TestMissingFile(t *testing.T) {
	_, _, err := runCLI(t, "describe", filepath.Join(t.TempDir(), "nope.sql"))
	require.Error(t, err)
}
