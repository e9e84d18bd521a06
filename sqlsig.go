// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlsig

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/canonical/sqlsig/ast"
	"github.com/canonical/sqlsig/codec"
	"github.com/canonical/sqlsig/internal/assemble"
	"github.com/canonical/sqlsig/internal/parse"
	"github.com/canonical/sqlsig/internal/signature"
)

// ParamPlan encodes the arguments of a Statement, one slot per placeholder.
type ParamPlan = assemble.ParamPlan

// RowPlan decodes the rows of a Statement, one slot per output column.
type RowPlan = assemble.RowPlan

// Statement is a statement whose parameter and column types are known.
// A Statement is immutable and may be shared between goroutines.
type Statement struct {
	sql    string
	stmt   ast.Statement
	sig    *signature.Signature
	params *ParamPlan
	row    *RowPlan
}

// SQL returns the text the statement was prepared from.
func (s *Statement) SQL() string {
	return s.sql
}

// AST returns the parsed statement.
func (s *Statement) AST() ast.Statement {
	return s.stmt
}

// Params returns the plan encoding the statement arguments.
func (s *Statement) Params() *ParamPlan {
	return s.params
}

// Row returns the plan decoding the statement rows.
func (s *Statement) Row() *RowPlan {
	return s.row
}

// ParamTypes returns the declared type of each placeholder, $1 first.
func (s *Statement) ParamTypes() []*ast.TypeName {
	return append([]*ast.TypeName(nil), s.sig.Params...)
}

// ColumnTypes returns the declared type of each output column.
func (s *Statement) ColumnTypes() []*ast.TypeName {
	return append([]*ast.TypeName(nil), s.sig.Columns...)
}

// HasOutputs reports whether the statement returns rows with at least one
// column.
func (s *Statement) HasOutputs() bool {
	return len(s.sig.Columns) > 0
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithResolver makes the Analyzer ask r for the codecs of types referred to
// by name before falling back to the built-in types. A resolver that returns
// an error other than typeerr.ErrUnknownType rejects the type.
func WithResolver(r codec.Resolver) Option {
	return func(a *Analyzer) {
		a.resolver = r
	}
}

// WithLogger sets the logger the Analyzer reports to at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithoutCache disables the statement cache.
func WithoutCache() Option {
	return func(a *Analyzer) {
		a.cache = nil
	}
}

// Analyzer prepares statements. It is safe for concurrent use.
type Analyzer struct {
	resolver codec.Resolver
	logger   *zap.Logger
	// cache holds the statements prepared from SQL text. It is nil when
	// caching is disabled.
	cache *statementCache
}

// NewAnalyzer returns an Analyzer configured by opts.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		logger: zap.NewNop(),
		cache:  newStatementCache(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Prepare parses sql and infers its signature.
func (a *Analyzer) Prepare(sql string) (*Statement, error) {
	if a.cache != nil {
		if s, ok := a.cache.lookup(sql); ok {
			a.logger.Debug("cache hit", zap.String("sql", sql))
			return s, nil
		}
	}
	stmt, err := parse.Parse(sql)
	if err != nil {
		return nil, a.reject(sql, err)
	}
	s, err := a.analyze(sql, stmt)
	if err != nil {
		return nil, a.reject(sql, err)
	}
	if a.cache != nil {
		s = a.cache.store(s)
	}
	return s, nil
}

// MustPrepare is the same as [Analyzer.Prepare] except that it panics on
// error.
func (a *Analyzer) MustPrepare(sql string) *Statement {
	s, err := a.Prepare(sql)
	if err != nil {
		panic(err)
	}
	return s
}

// Analyze infers the signature of a statement that has already been parsed.
// sql is only used in messages and returned by [Statement.SQL]. Analyzed
// statements are not cached.
func (a *Analyzer) Analyze(sql string, stmt ast.Statement) (*Statement, error) {
	if stmt == nil {
		return nil, a.reject(sql, errors.New("no statement"))
	}
	s, err := a.analyze(sql, stmt)
	if err != nil {
		return nil, a.reject(sql, err)
	}
	return s, nil
}

// analyze reports errors in a fixed order: parameter types are extracted and
// resolved before column types.
func (a *Analyzer) analyze(sql string, stmt ast.Statement) (*Statement, error) {
	params, err := signature.ExtractParams(stmt)
	if err != nil {
		return nil, err
	}
	paramPlan, err := assemble.AssembleParams(params, a.resolver)
	if err != nil {
		return nil, err
	}
	columns, err := signature.ExtractColumns(stmt)
	if err != nil {
		return nil, err
	}
	rowPlan, err := assemble.AssembleRow(columns, a.resolver)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("statement prepared",
		zap.String("sql", sql),
		zap.Stringers("params", paramPlan.Slots()),
		zap.Stringers("columns", rowPlan.Slots()),
	)
	return &Statement{
		sql:    sql,
		stmt:   stmt,
		sig:    &signature.Signature{Params: params, Columns: columns},
		params: paramPlan,
		row:    rowPlan,
	}, nil
}

func (a *Analyzer) reject(sql string, err error) error {
	a.logger.Debug("statement rejected", zap.String("sql", sql), zap.Error(err))
	return errors.Wrapf(err, "cannot prepare statement %q", sql)
}

var defaultAnalyzer = NewAnalyzer()

// Prepare parses sql and infers its signature using the built-in types only.
func Prepare(sql string) (*Statement, error) {
	return defaultAnalyzer.Prepare(sql)
}

// MustPrepare is the same as [Prepare] except that it panics on error.
func MustPrepare(sql string) *Statement {
	return defaultAnalyzer.MustPrepare(sql)
}

// Analyze infers the signature of a statement that has already been parsed,
// using the built-in types only.
func Analyze(sql string, stmt ast.Statement) (*Statement, error) {
	return defaultAnalyzer.Analyze(sql, stmt)
}
