// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package frame implements the columnar storage and the lazily
// evaluated relational operators (scan, filter, join, sort, rename,
// select, union, partition) that the triple store and the SPARQL
// evaluator are built on. Physical columns are Apache Arrow arrays;
// Arrow-Go supplies the array/record primitives but no relational
// query planner, so the join/filter/sort/partition glue in this
// package is ours, built directly on top of arrow.Array accessors.
package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Kind is the physical storage kind of a Frame column. It is distinct
// from rdf.NodeType: several RDF datatypes (xsd:float, xsd:double) may
// share a physical Kind, and the rdf package is free to evolve without
// this package following suit.
type Kind uint8

const (
	KindString Kind = iota
	KindInt64
	KindFloat64
	KindBool
)

// Pool is the shared allocator used for every Arrow array built by this
// package. A single process-wide allocator is the idiomatic Arrow-Go
// pattern (see arrow/memory.GoAllocator); the triple store never frees
// a column early enough for per-call pools to pay for themselves.
var Pool = memory.NewGoAllocator()

// Column is a single named, typed Arrow array with typed accessors.
// It never outlives the Frame that owns it without an explicit Retain.
type Column struct {
	kind Kind
	arr  arrow.Array
}

// NewColumn wraps an Arrow array as a Column of the given Kind. The
// caller asserts that arr's Arrow DataType matches kind.
func NewColumn(kind Kind, arr arrow.Array) Column {
	return Column{kind: kind, arr: arr}
}

// Kind returns the column's physical storage kind.
func (c Column) Kind() Kind { return c.kind }

// Array returns the underlying Arrow array.
func (c Column) Array() arrow.Array { return c.arr }

// Len returns the number of rows in the column.
func (c Column) Len() int {
	if c.arr == nil {
		return 0
	}
	return c.arr.Len()
}

// IsValid reports whether row i is non-null.
func (c Column) IsValid(i int) bool {
	return c.arr.IsValid(i)
}

// StringAt returns the string value at row i. Panics if Kind is not
// KindString; callers are expected to dispatch on Kind first.
func (c Column) StringAt(i int) string {
	return c.arr.(*array.String).Value(i)
}

// Int64At returns the int64 value at row i.
func (c Column) Int64At(i int) int64 {
	return c.arr.(*array.Int64).Value(i)
}

// Float64At returns the float64 value at row i.
func (c Column) Float64At(i int) float64 {
	return c.arr.(*array.Float64).Value(i)
}

// BoolAt returns the bool value at row i.
func (c Column) BoolAt(i int) bool {
	return c.arr.(*array.Boolean).Value(i)
}

// AnyAt returns the value at row i boxed as interface{}, dispatching on
// Kind. Used by the generic row-comparison and sort paths where the
// cost of an interface box is worth not duplicating the join/sort
// logic once per Kind.
func (c Column) AnyAt(i int) interface{} {
	if !c.IsValid(i) {
		return nil
	}
	switch c.kind {
	case KindString:
		return c.StringAt(i)
	case KindInt64:
		return c.Int64At(i)
	case KindFloat64:
		return c.Float64At(i)
	case KindBool:
		return c.BoolAt(i)
	default:
		return nil
	}
}

// Release drops this column's reference to its Arrow array.
func (c Column) Release() {
	if c.arr != nil {
		c.arr.Release()
	}
}

// ArrowType returns the Arrow DataType corresponding to a Kind.
func ArrowType(k Kind) arrow.DataType {
	switch k {
	case KindString:
		return arrow.BinaryTypes.String
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

// KindFromArrow maps an Arrow DataType back to our Kind.
func KindFromArrow(t arrow.DataType) (Kind, error) {
	switch t.ID() {
	case arrow.STRING:
		return KindString, nil
	case arrow.INT64:
		return KindInt64, nil
	case arrow.FLOAT64:
		return KindFloat64, nil
	case arrow.BOOL:
		return KindBool, nil
	default:
		return 0, fmt.Errorf("frame: unsupported arrow type %s", t)
	}
}

// ColumnBuilder accumulates values for a single column before a Frame
// is assembled. It wraps the matching Arrow array.Builder.
type ColumnBuilder struct {
	kind Kind
	b    array.Builder
}

// NewColumnBuilder creates a builder for the given Kind using the
// package-wide Pool.
func NewColumnBuilder(kind Kind) *ColumnBuilder {
	var b array.Builder
	switch kind {
	case KindString:
		b = array.NewStringBuilder(Pool)
	case KindInt64:
		b = array.NewInt64Builder(Pool)
	case KindFloat64:
		b = array.NewFloat64Builder(Pool)
	case KindBool:
		b = array.NewBooleanBuilder(Pool)
	default:
		b = array.NewStringBuilder(Pool)
	}
	return &ColumnBuilder{kind: kind, b: b}
}

// AppendNull appends a null value.
func (cb *ColumnBuilder) AppendNull() { cb.b.AppendNull() }

// AppendString appends a string value; the builder must be KindString.
func (cb *ColumnBuilder) AppendString(v string) {
	cb.b.(*array.StringBuilder).Append(v)
}

// AppendInt64 appends an int64 value; the builder must be KindInt64.
func (cb *ColumnBuilder) AppendInt64(v int64) {
	cb.b.(*array.Int64Builder).Append(v)
}

// AppendFloat64 appends a float64 value; the builder must be KindFloat64.
func (cb *ColumnBuilder) AppendFloat64(v float64) {
	cb.b.(*array.Float64Builder).Append(v)
}

// AppendBool appends a bool value; the builder must be KindBool.
func (cb *ColumnBuilder) AppendBool(v bool) {
	cb.b.(*array.BooleanBuilder).Append(v)
}

// AppendAny appends a boxed value, dispatching on the builder's Kind.
// A nil value appends null.
func (cb *ColumnBuilder) AppendAny(v interface{}) error {
	if v == nil {
		cb.AppendNull()
		return nil
	}
	switch cb.kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("frame: expected string, got %T", v)
		}
		cb.AppendString(s)
	case KindInt64:
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("frame: expected int64, got %T", v)
		}
		cb.AppendInt64(n)
	case KindFloat64:
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("frame: expected float64, got %T", v)
		}
		cb.AppendFloat64(f)
	case KindBool:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("frame: expected bool, got %T", v)
		}
		cb.AppendBool(bv)
	}
	return nil
}

// NewColumn finalizes the builder into an immutable Column. The
// builder must not be reused afterwards.
func (cb *ColumnBuilder) NewColumn() Column {
	arr := cb.b.NewArray()
	return Column{kind: cb.kind, arr: arr}
}
