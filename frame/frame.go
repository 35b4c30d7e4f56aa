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

package frame

import "fmt"

// Frame is an immutable, materialized, in-memory columnar table: an
// ordered set of named Columns all of the same length. It is the
// physical counterpart to LazyFrame's deferred computation — a Frame
// is what you get once you call Collect.
type Frame struct {
	names []string
	cols  map[string]Column
	nrows int
}

// New assembles a Frame from an ordered column-name list and a map of
// built columns. All columns must have equal length; every name in
// names must have an entry in cols.
func New(names []string, cols map[string]Column) (*Frame, error) {
	nrows := -1
	for _, n := range names {
		c, ok := cols[n]
		if !ok {
			return nil, fmt.Errorf("frame.New: missing column %q", n)
		}
		if nrows == -1 {
			nrows = c.Len()
		} else if c.Len() != nrows {
			return nil, fmt.Errorf("frame.New: column %q has %d rows, want %d", n, c.Len(), nrows)
		}
	}
	if nrows == -1 {
		nrows = 0
	}
	ns := make([]string, len(names))
	copy(ns, names)
	return &Frame{names: ns, cols: cols, nrows: nrows}, nil
}

// Empty returns a zero-row Frame with the given schema (name -> Kind),
// preserving column order.
func Empty(names []string, kinds map[string]Kind) *Frame {
	cols := make(map[string]Column, len(names))
	for _, n := range names {
		cb := NewColumnBuilder(kinds[n])
		cols[n] = cb.NewColumn()
	}
	f, _ := New(names, cols)
	return f
}

// Singleton returns a zero-column, one-row Frame: the join identity
// element a BGP starts folding from before its first triple pattern
// adds any columns.
func Singleton() *Frame {
	return &Frame{names: nil, cols: map[string]Column{}, nrows: 1}
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.nrows }

// ColumnNames returns the column names in schema order.
func (f *Frame) ColumnNames() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// HasColumn reports whether name is a column of f.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the named column.
func (f *Frame) Column(name string) (Column, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// MustColumn returns the named column, panicking if absent. Used where
// the caller has already validated the schema (e.g. immediately after
// HasColumn or within code that built the Frame itself).
func (f *Frame) MustColumn(name string) Column {
	c, ok := f.cols[name]
	if !ok {
		panic(fmt.Sprintf("frame: no column %q", name))
	}
	return c
}

// Row extracts row i as a name->value map, boxing every cell.
func (f *Frame) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(f.names))
	for _, n := range f.names {
		row[n] = f.cols[n].AnyAt(i)
	}
	return row
}

// Select projects the Frame down to the given column subset, preserving
// the requested order.
func (f *Frame) Select(names []string) (*Frame, error) {
	cols := make(map[string]Column, len(names))
	for _, n := range names {
		c, ok := f.cols[n]
		if !ok {
			return nil, fmt.Errorf("frame.Select: no such column %q", n)
		}
		cols[n] = c
	}
	return New(names, cols)
}

// Rename returns a new Frame with column from renamed to to. The
// column order is preserved.
func (f *Frame) Rename(from, to string) (*Frame, error) {
	if !f.HasColumn(from) {
		return nil, fmt.Errorf("frame.Rename: no such column %q", from)
	}
	if from == to {
		return f, nil
	}
	names := make([]string, len(f.names))
	cols := make(map[string]Column, len(f.cols))
	for k, c := range f.cols {
		if k == from {
			continue
		}
		cols[k] = c
	}
	cols[to] = f.cols[from]
	for i, n := range f.names {
		if n == from {
			names[i] = to
		} else {
			names[i] = n
		}
	}
	return New(names, cols)
}

// Slice returns the contiguous subset of rows [lo, hi).
func (f *Frame) Slice(lo, hi int) (*Frame, error) {
	if lo < 0 || hi > f.nrows || lo > hi {
		return nil, fmt.Errorf("frame.Slice: invalid bounds [%d, %d) of %d rows", lo, hi, f.nrows)
	}
	cols := make(map[string]Column, len(f.names))
	for _, n := range f.names {
		c := f.cols[n]
		cb := NewColumnBuilder(c.kind)
		for i := lo; i < hi; i++ {
			if err := cb.AppendAny(c.AnyAt(i)); err != nil {
				return nil, err
			}
		}
		cols[n] = cb.NewColumn()
	}
	return New(f.names, cols)
}

// equalSchema reports whether two frames share the same column names
// (order-insensitively) and kinds.
func equalSchema(a, b *Frame) bool {
	if len(a.names) != len(b.names) {
		return false
	}
	for _, n := range a.names {
		ca, ok := a.cols[n]
		if !ok {
			return false
		}
		cb, ok := b.cols[n]
		if !ok || ca.kind != cb.kind {
			return false
		}
	}
	return true
}
