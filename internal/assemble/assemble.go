// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package assemble combines the codecs of the placeholders and output columns
// of a statement into the plans used to encode its arguments and decode its
// rows.
package assemble

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/canonical/sqlsig/ast"
	"github.com/canonical/sqlsig/codec"
)

// ParamPlan encodes the arguments of a statement, one slot per placeholder.
type ParamPlan struct {
	slots []codec.Slot
}

// RowPlan decodes the rows of a statement, one slot per output column.
type RowPlan struct {
	slots []codec.Slot
}

// slots resolves and wraps each type in order and stops at the first
// failure. name formats the position of a type for error messages.
func slots(types []*ast.TypeName, resolver codec.Resolver, name func(i int) string) ([]codec.Slot, error) {
	ss := make([]codec.Slot, 0, len(types))
	for i, t := range types {
		c, err := codec.Resolve(t.Base, resolver)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name(i), err)
		}
		s, err := codec.Wrap(c, t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name(i), err)
		}
		ss = append(ss, s)
	}
	if len(ss) != len(types) {
		return nil, fmt.Errorf("internal error: %d slots for %d types", len(ss), len(types))
	}
	return ss, nil
}

func paramName(i int) string {
	return fmt.Sprintf("parameter $%d", i+1)
}

func columnName(i int) string {
	return fmt.Sprintf("column %d", i+1)
}

// AssembleParams builds the plan encoding arguments of the given types.
// An empty list gives a plan that takes no arguments.
func AssembleParams(types []*ast.TypeName, resolver codec.Resolver) (*ParamPlan, error) {
	ss, err := slots(types, resolver, paramName)
	if err != nil {
		return nil, err
	}
	return &ParamPlan{slots: ss}, nil
}

// AssembleRow builds the plan decoding rows with columns of the given types.
// An empty list gives a plan that decodes nothing.
func AssembleRow(types []*ast.TypeName, resolver codec.Resolver) (*RowPlan, error) {
	ss, err := slots(types, resolver, columnName)
	if err != nil {
		return nil, err
	}
	return &RowPlan{slots: ss}, nil
}

// Len returns the number of parameters.
func (p *ParamPlan) Len() int {
	return len(p.slots)
}

// Slots returns the slot of each parameter.
func (p *ParamPlan) Slots() []codec.Slot {
	return append([]codec.Slot(nil), p.slots...)
}

// OIDs returns the type OID of each parameter.
func (p *ParamPlan) OIDs() []uint32 {
	oids := make([]uint32, len(p.slots))
	for i, s := range p.slots {
		oids[i] = s.OID()
	}
	return oids
}

// Formats returns the format code each parameter is encoded in.
func (p *ParamPlan) Formats() []int16 {
	return formats(p.slots)
}

// Encode encodes one value per parameter. A NULL argument is encoded as a
// nil slice.
func (p *ParamPlan) Encode(m *pgtype.Map, args ...any) ([][]byte, error) {
	if len(args) != len(p.slots) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(p.slots), len(args))
	}
	values := make([][]byte, len(args))
	for i, arg := range args {
		buf, err := p.slots[i].Encode(m, arg, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", paramName(i), err)
		}
		values[i] = buf
	}
	return values, nil
}

// Len returns the number of columns.
func (p *RowPlan) Len() int {
	return len(p.slots)
}

// Slots returns the slot of each column.
func (p *RowPlan) Slots() []codec.Slot {
	return append([]codec.Slot(nil), p.slots...)
}

// OIDs returns the type OID of each column.
func (p *RowPlan) OIDs() []uint32 {
	oids := make([]uint32, len(p.slots))
	for i, s := range p.slots {
		oids[i] = s.OID()
	}
	return oids
}

// ResultFormats returns the format code to request for each column.
func (p *RowPlan) ResultFormats() []int16 {
	return formats(p.slots)
}

// Decode decodes the raw values of a row, nil standing for NULL.
func (p *RowPlan) Decode(m *pgtype.Map, row [][]byte) ([]any, error) {
	if len(row) != len(p.slots) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(p.slots), len(row))
	}
	values := make([]any, len(row))
	for i, src := range row {
		v, err := p.slots[i].Decode(m, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", columnName(i), err)
		}
		values[i] = v
	}
	return values, nil
}

// Scan decodes the raw values of a row into dest, one pointer per column.
func (p *RowPlan) Scan(m *pgtype.Map, row [][]byte, dest ...any) error {
	if len(row) != len(p.slots) {
		return fmt.Errorf("expected %d columns, got %d", len(p.slots), len(row))
	}
	if len(dest) != len(p.slots) {
		return fmt.Errorf("expected %d destinations, got %d", len(p.slots), len(dest))
	}
	for i, src := range row {
		if err := p.slots[i].Scan(m, src, dest[i]); err != nil {
			return fmt.Errorf("%s: %w", columnName(i), err)
		}
	}
	return nil
}

func formats(ss []codec.Slot) []int16 {
	fs := make([]int16, len(ss))
	for i, s := range ss {
		fs[i] = s.Format()
	}
	return fs
}
