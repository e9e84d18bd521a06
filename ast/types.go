// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package ast

// TypeName is a type as written in a cast, e.g. "int4", "numeric(10, 2)[]"
// or "timestamp with time zone".
type TypeName struct {
	Setof bool
	Base  BaseType
	// Nullable is set by a "?" directly after the base type.
	Nullable bool
	// Array is nil if the type is not an array.
	Array ArrayDims
	// ArrayNullable is set by a "?" after the array dimensions.
	ArrayNullable bool
}

// BaseType is one of *GenericType, *NumericType, *CharacterType, *BitType,
// *DatetimeType or *IntervalType.
type BaseType interface {
	String() string
	baseType()
}

// GenericType is a type referred to by name, e.g. "int4", "uuid",
// "myschema.mytype" or "geometry(point, 4326)".
type GenericType struct {
	Name string
	// Attrs are the trailing components of a qualified name.
	Attrs     []string
	Modifiers []Expr
}

// NumericKind is the keyword of a NumericType.
type NumericKind int

const (
	Int NumericKind = iota
	Integer
	Smallint
	Bigint
	Real
	Float
	DoublePrecision
	Decimal
	Dec
	Numeric
	Boolean
)

var numericKindNames = [...]string{
	Int:             "INT",
	Integer:         "INTEGER",
	Smallint:        "SMALLINT",
	Bigint:          "BIGINT",
	Real:            "REAL",
	Float:           "FLOAT",
	DoublePrecision: "DOUBLE PRECISION",
	Decimal:         "DECIMAL",
	Dec:             "DEC",
	Numeric:         "NUMERIC",
	Boolean:         "BOOLEAN",
}

func (k NumericKind) String() string {
	if k < 0 || int(k) >= len(numericKindNames) {
		return "NumericKind(?)"
	}
	return numericKindNames[k]
}

// NumericType is a numeric type written with an SQL keyword.
type NumericType struct {
	Kind NumericKind
	// Modifiers holds the precision of FLOAT(p) and the precision and scale
	// of DECIMAL(p, s).
	Modifiers []Expr
}

// CharKind is the keyword of a CharacterType.
type CharKind int

const (
	Character CharKind = iota
	Char
	Varchar
	NationalCharacter
	NationalChar
	Nchar
)

var charKindNames = [...]string{
	Character:         "CHARACTER",
	Char:              "CHAR",
	Varchar:           "VARCHAR",
	NationalCharacter: "NATIONAL CHARACTER",
	NationalChar:      "NATIONAL CHAR",
	Nchar:             "NCHAR",
}

func (k CharKind) String() string {
	if k < 0 || int(k) >= len(charKindNames) {
		return "CharKind(?)"
	}
	return charKindNames[k]
}

// CharacterType is a character type written with an SQL keyword.
type CharacterType struct {
	Kind    CharKind
	Varying bool
	Length  *int
}

// BitType is "BIT [VARYING] [(n)]".
type BitType struct {
	Varying   bool
	Modifiers []Expr
}

// DatetimeKind is the keyword of a DatetimeType.
type DatetimeKind int

const (
	Timestamp DatetimeKind = iota
	Time
)

func (k DatetimeKind) String() string {
	switch k {
	case Timestamp:
		return "TIMESTAMP"
	case Time:
		return "TIME"
	}
	return "DatetimeKind(?)"
}

// ZoneSpec records the time zone clause of a DatetimeType.
type ZoneSpec int

const (
	ZoneUnspecified ZoneSpec = iota
	WithTimeZone
	WithoutTimeZone
)

func (z ZoneSpec) String() string {
	switch z {
	case ZoneUnspecified:
		return ""
	case WithTimeZone:
		return "WITH TIME ZONE"
	case WithoutTimeZone:
		return "WITHOUT TIME ZONE"
	}
	return "ZoneSpec(?)"
}

// DatetimeType is "TIMESTAMP|TIME [(p)] [WITH|WITHOUT TIME ZONE]".
type DatetimeType struct {
	Kind      DatetimeKind
	Precision *int
	Zone      ZoneSpec
}

// IntervalFields is the field restriction of an IntervalType.
type IntervalFields int

const (
	AllFields IntervalFields = iota
	Year
	Month
	Day
	Hour
	Minute
	Second
	YearToMonth
	DayToHour
	DayToMinute
	DayToSecond
	HourToMinute
	HourToSecond
	MinuteToSecond
)

var intervalFieldNames = [...]string{
	AllFields:      "",
	Year:           "YEAR",
	Month:          "MONTH",
	Day:            "DAY",
	Hour:           "HOUR",
	Minute:         "MINUTE",
	Second:         "SECOND",
	YearToMonth:    "YEAR TO MONTH",
	DayToHour:      "DAY TO HOUR",
	DayToMinute:    "DAY TO MINUTE",
	DayToSecond:    "DAY TO SECOND",
	HourToMinute:   "HOUR TO MINUTE",
	HourToSecond:   "HOUR TO SECOND",
	MinuteToSecond: "MINUTE TO SECOND",
}

func (f IntervalFields) String() string {
	if f < 0 || int(f) >= len(intervalFieldNames) {
		return "IntervalFields(?)"
	}
	return intervalFieldNames[f]
}

// EndsInSecond reports whether the field restriction ends with SECOND and so
// may carry a fractional precision.
func (f IntervalFields) EndsInSecond() bool {
	switch f {
	case Second, DayToSecond, HourToSecond, MinuteToSecond:
		return true
	}
	return false
}

// IntervalType is "INTERVAL [fields] [(p)]".
type IntervalType struct {
	Fields IntervalFields
	// FieldPrecision is the n of a trailing "SECOND(n)".
	FieldPrecision *int
	Precision      *int
}

func (*GenericType) baseType()   {}
func (*NumericType) baseType()   {}
func (*CharacterType) baseType() {}
func (*BitType) baseType()       {}
func (*DatetimeType) baseType()  {}
func (*IntervalType) baseType()  {}

// ArrayDims is either *BoundedDims or *ExplicitDims.
type ArrayDims interface {
	String() string
	arrayDims()
}

// BoundedDims is one or more "[]" or "[n]" suffixes. Each entry adds a
// dimension, nil entries have no declared bound.
type BoundedDims struct {
	Bounds []*int
}

// ExplicitDims is the "ARRAY" or "ARRAY[n]" suffix.
type ExplicitDims struct {
	Size *int
}

func (*BoundedDims) arrayDims()  {}
func (*ExplicitDims) arrayDims() {}
