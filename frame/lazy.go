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

import (
	"fmt"
	"sort"

	"github.com/badwolf-labs/colstore/internal/intern"
)

// JoinKind selects the join algorithm LazyFrame.Join performs.
type JoinKind uint8

const (
	// JoinInner keeps only rows whose join-key values match on both sides.
	JoinInner JoinKind = iota
	// JoinCross produces the full cartesian product; used when the two
	// sides share no columns to join on.
	JoinCross
	// JoinAnti keeps left rows whose join-key values have no match on
	// the right (the Minus / NOT EXISTS operator).
	JoinAnti
	// JoinLeft keeps every left row, filling right-side columns with
	// null where no match exists (the OPTIONAL / LeftJoin operator).
	JoinLeft
)

// LazyFrame is a deferred columnar computation: composing Filter, Join,
// Sort, Rename, Union or Partition never touches data until Collect is
// called. Arrow-Go gives us the array primitives the eventual Collect
// bottoms out on, but the deferred-composition layer itself is ours
// (see the package doc in column.go).
type LazyFrame struct {
	thunk func() (*Frame, error)
	// cat records which columns are currently encoded as interned
	// int64 category codes rather than their native value, so a later
	// Decategorize (or the top-level SELECT finalization) knows which
	// columns to translate back.
	cat map[string]bool
}

// Scan wraps an already materialized Frame as a LazyFrame of one step.
func Scan(f *Frame) LazyFrame {
	return LazyFrame{thunk: func() (*Frame, error) { return f, nil }}
}

// FromThunk wraps an arbitrary materialization function as a
// LazyFrame — used by the triple store to present a spilled
// cache-folder chunk as a lazy scan without reading it off disk until
// Collect is actually called.
func FromThunk(thunk func() (*Frame, error)) LazyFrame {
	return LazyFrame{thunk: thunk}
}

// Collect runs the deferred computation and returns the materialized
// Frame. This is the only point at which Arrow arrays are actually
// built or walked; everything upstream just composes closures.
func (lf LazyFrame) Collect() (*Frame, error) {
	if lf.thunk == nil {
		return Empty(nil, nil), nil
	}
	return lf.thunk()
}

func (lf LazyFrame) withCat(extra map[string]bool) map[string]bool {
	out := make(map[string]bool, len(lf.cat)+len(extra))
	for k, v := range lf.cat {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// IsCategorical reports whether column name is currently interned.
func (lf LazyFrame) IsCategorical(name string) bool {
	return lf.cat[name]
}

// Filter keeps only the rows for which keep returns true.
func (lf LazyFrame) Filter(keep func(*Frame, int) bool) LazyFrame {
	cat := lf.cat
	return LazyFrame{cat: cat, thunk: func() (*Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		idx := make([]int, 0, f.nrows)
		for i := 0; i < f.nrows; i++ {
			if keep(f, i) {
				idx = append(idx, i)
			}
		}
		return takeRows(f, idx)
	}}
}

// FilterEqValue keeps only the rows where column equals value (the
// ground-term filter applied to a subject/object position of a triple
// pattern).
func (lf LazyFrame) FilterEqValue(column string, value interface{}) LazyFrame {
	return lf.Filter(func(f *Frame, i int) bool {
		c, ok := f.Column(column)
		if !ok {
			return false
		}
		if !c.IsValid(i) {
			return false
		}
		return c.AnyAt(i) == value
	})
}

func takeRows(f *Frame, idx []int) (*Frame, error) {
	cols := make(map[string]Column, len(f.names))
	for _, n := range f.names {
		c := f.cols[n]
		cb := NewColumnBuilder(c.kind)
		for _, i := range idx {
			if err := cb.AppendAny(c.AnyAt(i)); err != nil {
				return nil, err
			}
		}
		cols[n] = cb.NewColumn()
	}
	return New(f.names, cols)
}

// Rename renames a single column, deferred.
func (lf LazyFrame) Rename(from, to string) LazyFrame {
	cat := lf.cat
	if cat[from] {
		cat = lf.withCat(map[string]bool{to: true})
		delete(cat, from)
	}
	return LazyFrame{cat: cat, thunk: func() (*Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		return f.Rename(from, to)
	}}
}

// Select projects down to the given columns, deferred.
func (lf LazyFrame) Select(names []string) LazyFrame {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = lf.cat[n]
	}
	return LazyFrame{cat: keep, thunk: func() (*Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		return f.Select(names)
	}}
}

// Intern replaces a string column's values with interned int64 codes
// from the process-wide string cache (package internal/intern), the
// categorical-encoding fast path for equi-joins on IRI columns.
func (lf LazyFrame) Intern(column string) LazyFrame {
	cat := lf.withCat(map[string]bool{column: true})
	return LazyFrame{cat: cat, thunk: func() (*Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		c, ok := f.Column(column)
		if !ok {
			return f, nil
		}
		if c.kind != KindString {
			return f, nil
		}
		cb := NewColumnBuilder(KindInt64)
		for i := 0; i < c.Len(); i++ {
			if !c.IsValid(i) {
				cb.AppendNull()
				continue
			}
			cb.AppendInt64(intern.Code(c.StringAt(i)))
		}
		return replaceColumn(f, column, cb.NewColumn())
	}}
}

// Decategorize reverses Intern on the given columns, translating
// interned codes back to their string form. The top-level SELECT
// finalization calls this on every still-categorical column before
// handing results to the caller.
func (lf LazyFrame) Decategorize(columns ...string) LazyFrame {
	cat := make(map[string]bool, len(lf.cat))
	for k, v := range lf.cat {
		cat[k] = v
	}
	for _, c := range columns {
		delete(cat, c)
	}
	return LazyFrame{cat: cat, thunk: func() (*Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		for _, column := range columns {
			c, ok := f.Column(column)
			if !ok || c.kind != KindInt64 {
				continue
			}
			cb := NewColumnBuilder(KindString)
			for i := 0; i < c.Len(); i++ {
				if !c.IsValid(i) {
					cb.AppendNull()
					continue
				}
				s, ok := intern.Lookup(c.Int64At(i))
				if !ok {
					return nil, fmt.Errorf("frame: unknown interned code for column %q", column)
				}
				cb.AppendString(s)
			}
			f, err = replaceColumn(f, column, cb.NewColumn())
			if err != nil {
				return nil, err
			}
		}
		return f, nil
	}}
}

func replaceColumn(f *Frame, name string, c Column) (*Frame, error) {
	cols := make(map[string]Column, len(f.cols))
	for k, v := range f.cols {
		cols[k] = v
	}
	cols[name] = c
	return New(f.names, cols)
}

// Sort orders rows ascending on the given columns, stable, deferred.
// Both sides of a join are pre-sorted this way before an equi-join to
// make result order deterministic for a given deduplicated store.
func (lf LazyFrame) Sort(columns []string) LazyFrame {
	cat := lf.cat
	return LazyFrame{cat: cat, thunk: func() (*Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		idx := make([]int, f.nrows)
		for i := range idx {
			idx[i] = i
		}
		cols := make([]Column, len(columns))
		for i, c := range columns {
			col, ok := f.Column(c)
			if !ok {
				return nil, fmt.Errorf("frame.Sort: no such column %q", c)
			}
			cols[i] = col
		}
		sort.SliceStable(idx, func(a, b int) bool {
			for _, c := range cols {
				va, vb := c.AnyAt(idx[a]), c.AnyAt(idx[b])
				if less(va, vb) {
					return true
				}
				if less(vb, va) {
					return false
				}
			}
			return false
		})
		return takeRows(f, idx)
	}}
}

func less(a, b interface{}) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case int64:
		bv, ok := b.(int64)
		return ok && av < bv
	case float64:
		bv, ok := b.(float64)
		return ok && av < bv
	case bool:
		bv, ok := b.(bool)
		return ok && !av && bv
	default:
		return false
	}
}

// Union concatenates frames that share an identical schema (same
// names and Kinds), in argument order. It is used both to fold a
// triple table's append-only batch of frames into one lazy scan and
// to implement the SPARQL UNION operator.
func Union(lfs []LazyFrame) LazyFrame {
	return LazyFrame{thunk: func() (*Frame, error) {
		var frames []*Frame
		for _, lf := range lfs {
			f, err := lf.Collect()
			if err != nil {
				return nil, err
			}
			if f.nrows == 0 && len(frames) > 0 && !equalSchema(frames[0], f) {
				continue
			}
			frames = append(frames, f)
		}
		return concat(frames)
	}}
}

func concat(frames []*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return Empty(nil, nil), nil
	}
	base := frames[0]
	cols := make(map[string]Column, len(base.names))
	for _, n := range base.names {
		cb := NewColumnBuilder(base.cols[n].kind)
		for _, f := range frames {
			c, ok := f.Column(n)
			if !ok {
				return nil, fmt.Errorf("frame.concat: frame missing column %q", n)
			}
			for i := 0; i < c.Len(); i++ {
				if err := cb.AppendAny(c.AnyAt(i)); err != nil {
					return nil, err
				}
			}
		}
		cols[n] = cb.NewColumn()
	}
	return New(base.names, cols)
}

// Join implements all four join kinds over the given key columns. An
// empty keys slice only makes sense with JoinCross; every other kind
// requires at least one shared key.
func (lf LazyFrame) Join(other LazyFrame, keys []string, kind JoinKind) LazyFrame {
	cat := lf.withCat(other.cat)
	return LazyFrame{cat: cat, thunk: func() (*Frame, error) {
		left, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		right, err := other.Collect()
		if err != nil {
			return nil, err
		}
		switch kind {
		case JoinCross:
			return crossJoin(left, right)
		case JoinInner:
			return equiJoin(left, right, keys, false)
		case JoinLeft:
			return leftJoin(left, right, keys)
		case JoinAnti:
			return antiJoin(left, right, keys)
		default:
			return nil, fmt.Errorf("frame: unknown join kind %d", kind)
		}
	}}
}

func outputSchema(left, right *Frame, keys []string) (names []string, kinds map[string]Kind) {
	kinds = make(map[string]Kind)
	seen := make(map[string]bool)
	for _, n := range left.names {
		names = append(names, n)
		kinds[n] = left.cols[n].kind
		seen[n] = true
	}
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}
	for _, n := range right.names {
		if keySet[n] {
			continue
		}
		if seen[n] {
			continue
		}
		names = append(names, n)
		kinds[n] = right.cols[n].kind
	}
	return names, kinds
}

func crossJoin(left, right *Frame) (*Frame, error) {
	names, kinds := outputSchema(left, right, nil)
	builders := make(map[string]*ColumnBuilder, len(names))
	for _, n := range names {
		builders[n] = NewColumnBuilder(kinds[n])
	}
	for i := 0; i < left.nrows; i++ {
		for j := 0; j < right.nrows; j++ {
			if err := appendJoinedRow(builders, left, right, i, j, nil); err != nil {
				return nil, err
			}
		}
	}
	return buildFrame(names, builders)
}

func appendJoinedRow(builders map[string]*ColumnBuilder, left, right *Frame, i, j int, keySet map[string]bool) error {
	for _, n := range left.names {
		if err := builders[n].AppendAny(left.cols[n].AnyAt(i)); err != nil {
			return err
		}
	}
	for _, n := range right.names {
		if keySet[n] {
			continue
		}
		cb, ok := builders[n]
		if !ok {
			continue
		}
		if j < 0 {
			cb.AppendNull()
			continue
		}
		if err := cb.AppendAny(right.cols[n].AnyAt(j)); err != nil {
			return err
		}
	}
	return nil
}

func buildFrame(names []string, builders map[string]*ColumnBuilder) (*Frame, error) {
	cols := make(map[string]Column, len(names))
	for _, n := range names {
		cols[n] = builders[n].NewColumn()
	}
	return New(names, cols)
}

func keyTuple(f *Frame, row int, keys []string) (string, bool) {
	valid := true
	s := ""
	for _, k := range keys {
		c, ok := f.Column(k)
		if !ok || !c.IsValid(row) {
			valid = false
			s += "\x00<null>"
			continue
		}
		s += fmt.Sprintf("\x00%v", c.AnyAt(row))
	}
	return s, valid
}

func equiJoin(left, right *Frame, keys []string, keepUnmatchedLeft bool) (*Frame, error) {
	names, kinds := outputSchema(left, right, keys)
	builders := make(map[string]*ColumnBuilder, len(names))
	for _, n := range names {
		builders[n] = NewColumnBuilder(kinds[n])
	}
	index := make(map[string][]int, right.nrows)
	for j := 0; j < right.nrows; j++ {
		tup, valid := keyTuple(right, j, keys)
		if !valid {
			continue
		}
		index[tup] = append(index[tup], j)
	}
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}
	for i := 0; i < left.nrows; i++ {
		tup, valid := keyTuple(left, i, keys)
		if !valid {
			continue
		}
		matches := index[tup]
		if len(matches) == 0 {
			continue
		}
		for _, j := range matches {
			if err := appendJoinedRow(builders, left, right, i, j, keySet); err != nil {
				return nil, err
			}
		}
	}
	return buildFrame(names, builders)
}

func leftJoin(left, right *Frame, keys []string) (*Frame, error) {
	names, kinds := outputSchema(left, right, keys)
	builders := make(map[string]*ColumnBuilder, len(names))
	for _, n := range names {
		builders[n] = NewColumnBuilder(kinds[n])
	}
	index := make(map[string][]int, right.nrows)
	for j := 0; j < right.nrows; j++ {
		tup, valid := keyTuple(right, j, keys)
		if !valid {
			continue
		}
		index[tup] = append(index[tup], j)
	}
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}
	for i := 0; i < left.nrows; i++ {
		tup, valid := keyTuple(left, i, keys)
		matches := []int(nil)
		if valid {
			matches = index[tup]
		}
		if len(matches) == 0 {
			if err := appendJoinedRow(builders, left, right, i, -1, keySet); err != nil {
				return nil, err
			}
			continue
		}
		for _, j := range matches {
			if err := appendJoinedRow(builders, left, right, i, j, keySet); err != nil {
				return nil, err
			}
		}
	}
	return buildFrame(names, builders)
}

func antiJoin(left, right *Frame, keys []string) (*Frame, error) {
	builders := make(map[string]*ColumnBuilder, len(left.names))
	for _, n := range left.names {
		builders[n] = NewColumnBuilder(left.cols[n].kind)
	}
	seen := make(map[string]bool, right.nrows)
	for j := 0; j < right.nrows; j++ {
		tup, valid := keyTuple(right, j, keys)
		if valid {
			seen[tup] = true
		}
	}
	for i := 0; i < left.nrows; i++ {
		tup, valid := keyTuple(left, i, keys)
		if valid && seen[tup] {
			continue
		}
		for _, n := range left.names {
			if err := builders[n].AppendAny(left.cols[n].AnyAt(i)); err != nil {
				return nil, err
			}
		}
	}
	return buildFrame(left.names, builders)
}

// Partition splits f into one Frame per distinct value combination of
// the given columns — used by the ingestion path to split a batch by
// its "verb" column and by the SPARQL GROUP BY evaluator to split
// rows by group key.
func Partition(f *Frame, columns []string) (map[string]*Frame, error) {
	groups := make(map[string][]int)
	keyOf := make(map[string][]interface{})
	for i := 0; i < f.nrows; i++ {
		tup, _ := keyTuple(f, i, columns)
		groups[tup] = append(groups[tup], i)
		if _, ok := keyOf[tup]; !ok {
			vals := make([]interface{}, len(columns))
			for k, c := range columns {
				col, _ := f.Column(c)
				vals[k] = col.AnyAt(i)
			}
			keyOf[tup] = vals
		}
	}
	out := make(map[string]*Frame, len(groups))
	for tup, idx := range groups {
		sub, err := takeRows(f, idx)
		if err != nil {
			return nil, err
		}
		label := fmt.Sprintf("%v", keyOf[tup])
		out[label] = sub
	}
	return out, nil
}
