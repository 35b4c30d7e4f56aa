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
	"reflect"
	"sort"
	"testing"

	"github.com/badwolf-labs/colstore/internal/intern"
)

// stringFrame builds a frame of string columns from parallel value
// slices, in the order of names.
func stringFrame(t *testing.T, names []string, values ...[]string) *Frame {
	t.Helper()
	cols := map[string]Column{}
	for i, n := range names {
		cb := NewColumnBuilder(KindString)
		for _, v := range values[i] {
			cb.AppendString(v)
		}
		cols[n] = cb.NewColumn()
	}
	f, err := New(names, cols)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func columnStrings(t *testing.T, f *Frame, name string) []string {
	t.Helper()
	c, ok := f.Column(name)
	if !ok {
		t.Fatalf("no column %q in %v", name, f.ColumnNames())
	}
	out := make([]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if !c.IsValid(i) {
			out = append(out, "<null>")
			continue
		}
		out = append(out, c.StringAt(i))
	}
	return out
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	a := NewColumnBuilder(KindString)
	a.AppendString("x")
	b := NewColumnBuilder(KindString)
	b.AppendString("y")
	b.AppendString("z")
	if _, err := New([]string{"a", "b"}, map[string]Column{"a": a.NewColumn(), "b": b.NewColumn()}); err == nil {
		t.Errorf("New should reject columns of unequal length")
	}
}

func TestSelectRenameSlice(t *testing.T) {
	f := stringFrame(t, []string{"subject", "object"},
		[]string{"a", "b", "c"}, []string{"1", "2", "3"})

	sel, err := f.Select([]string{"object"})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := sel.ColumnNames(); !reflect.DeepEqual(got, []string{"object"}) {
		t.Errorf("Select columns = %v, want [object]", got)
	}

	ren, err := f.Rename("subject", "s")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if !ren.HasColumn("s") || ren.HasColumn("subject") {
		t.Errorf("Rename left columns %v", ren.ColumnNames())
	}

	sl, err := f.Slice(1, 3)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if got := columnStrings(t, sl, "subject"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Slice subjects = %v, want [b c]", got)
	}
}

func TestFilterAndSort(t *testing.T) {
	f := stringFrame(t, []string{"subject"}, []string{"c", "a", "b"})
	got, err := Scan(f).
		Filter(func(fr *Frame, i int) bool { return fr.MustColumn("subject").StringAt(i) != "b" }).
		Sort([]string{"subject"}).
		Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if vals := columnStrings(t, got, "subject"); !reflect.DeepEqual(vals, []string{"a", "c"}) {
		t.Errorf("filtered+sorted = %v, want [a c]", vals)
	}
}

func TestUnion(t *testing.T) {
	a := stringFrame(t, []string{"subject"}, []string{"a"})
	b := stringFrame(t, []string{"subject"}, []string{"b", "c"})
	got, err := Union([]LazyFrame{Scan(a), Scan(b)}).Collect()
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if got.NumRows() != 3 {
		t.Errorf("Union produced %d rows, want 3", got.NumRows())
	}
}

func TestInnerJoin(t *testing.T) {
	left := stringFrame(t, []string{"x", "y"}, []string{"a", "b"}, []string{"1", "2"})
	right := stringFrame(t, []string{"y", "z"}, []string{"2", "3"}, []string{"q", "r"})
	got, err := Scan(left).Join(Scan(right), []string{"y"}, JoinInner).Collect()
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if got.NumRows() != 1 {
		t.Fatalf("inner join produced %d rows, want 1", got.NumRows())
	}
	row := got.Row(0)
	if row["x"] != "b" || row["y"] != "2" || row["z"] != "q" {
		t.Errorf("joined row = %v, want x=b y=2 z=q", row)
	}
}

func TestCrossJoin(t *testing.T) {
	left := stringFrame(t, []string{"x"}, []string{"a", "b"})
	right := stringFrame(t, []string{"y"}, []string{"1", "2", "3"})
	got, err := Scan(left).Join(Scan(right), nil, JoinCross).Collect()
	if err != nil {
		t.Fatalf("cross join failed: %v", err)
	}
	if got.NumRows() != 6 {
		t.Errorf("cross join produced %d rows, want 6", got.NumRows())
	}
}

func TestAntiJoin(t *testing.T) {
	left := stringFrame(t, []string{"x"}, []string{"a", "b", "c"})
	right := stringFrame(t, []string{"x"}, []string{"b"})
	got, err := Scan(left).Join(Scan(right), []string{"x"}, JoinAnti).Collect()
	if err != nil {
		t.Fatalf("anti join failed: %v", err)
	}
	vals := columnStrings(t, got, "x")
	sort.Strings(vals)
	if !reflect.DeepEqual(vals, []string{"a", "c"}) {
		t.Errorf("anti join kept %v, want [a c]", vals)
	}
}

func TestLeftJoinFillsNulls(t *testing.T) {
	left := stringFrame(t, []string{"x"}, []string{"a", "b"})
	right := stringFrame(t, []string{"x", "y"}, []string{"a"}, []string{"1"})
	got, err := Scan(left).Join(Scan(right), []string{"x"}, JoinLeft).Collect()
	if err != nil {
		t.Fatalf("left join failed: %v", err)
	}
	if got.NumRows() != 2 {
		t.Fatalf("left join produced %d rows, want 2", got.NumRows())
	}
	y := got.MustColumn("y")
	nulls := 0
	for i := 0; i < y.Len(); i++ {
		if !y.IsValid(i) {
			nulls++
		}
	}
	if nulls != 1 {
		t.Errorf("left join filled %d nulls on the right side, want 1", nulls)
	}
}

func TestPartition(t *testing.T) {
	f := stringFrame(t, []string{"verb", "subject"},
		[]string{"p", "q", "p"}, []string{"a", "b", "c"})
	groups, err := Partition(f, []string{"verb"})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Partition produced %d groups, want 2", len(groups))
	}
	total := 0
	for _, g := range groups {
		total += g.NumRows()
	}
	if total != 3 {
		t.Errorf("partitioned groups hold %d rows in total, want 3", total)
	}
}

func TestInternDecategorizeRoundTrip(t *testing.T) {
	intern.Reset()
	defer intern.Reset()
	intern.Enable()
	f := stringFrame(t, []string{"subject"}, []string{"a", "b", "a"})
	interned, err := Scan(f).Intern("subject").Collect()
	if err != nil {
		t.Fatalf("Intern failed: %v", err)
	}
	c := interned.MustColumn("subject")
	if c.Kind() != KindInt64 {
		t.Fatalf("interned column kind = %d, want KindInt64", c.Kind())
	}
	if c.Int64At(0) != c.Int64At(2) {
		t.Errorf("equal strings interned to different codes %d and %d", c.Int64At(0), c.Int64At(2))
	}
	back, err := Scan(f).Intern("subject").Decategorize("subject").Collect()
	if err != nil {
		t.Fatalf("Decategorize failed: %v", err)
	}
	if vals := columnStrings(t, back, "subject"); !reflect.DeepEqual(vals, []string{"a", "b", "a"}) {
		t.Errorf("intern round trip = %v, want [a b a]", vals)
	}
}
