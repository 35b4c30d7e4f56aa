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

package sparql_test

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
	"github.com/badwolf-labs/colstore/sparql"
	"github.com/badwolf-labs/colstore/store"
)

func insertIRITriples(t *testing.T, s *store.Store, predicate string, pairs [][2]string) {
	t.Helper()
	sub := frame.NewColumnBuilder(frame.KindString)
	obj := frame.NewColumnBuilder(frame.KindString)
	for _, p := range pairs {
		sub.AppendString(p[0])
		obj.AppendString(p[1])
	}
	f, err := frame.New([]string{"subject", "object"}, map[string]frame.Column{
		"subject": sub.NewColumn(),
		"object":  obj.NewColumn(),
	})
	if err != nil {
		t.Fatalf("building triple frame: %v", err)
	}
	if err := s.InsertBatch([]store.BatchItem{{Frame: f, ObjectType: rdf.IRI, StaticVerb: predicate}}); err != nil {
		t.Fatalf("InsertBatch(%s): %v", predicate, err)
	}
}

func insertIntTriples(t *testing.T, s *store.Store, predicate string, pairs map[string]int64) {
	t.Helper()
	sub := frame.NewColumnBuilder(frame.KindString)
	obj := frame.NewColumnBuilder(frame.KindInt64)
	for k, v := range pairs {
		sub.AppendString(k)
		obj.AppendInt64(v)
	}
	f, err := frame.New([]string{"subject", "object"}, map[string]frame.Column{
		"subject": sub.NewColumn(),
		"object":  obj.NewColumn(),
	})
	if err != nil {
		t.Fatalf("building triple frame: %v", err)
	}
	item := store.BatchItem{Frame: f, ObjectType: rdf.Literal(rdf.XSDInteger), StaticVerb: predicate}
	if err := s.InsertBatch([]store.BatchItem{item}); err != nil {
		t.Fatalf("InsertBatch(%s): %v", predicate, err)
	}
}

// rowSet collects a solution frame into a sorted multiset of
// column=value strings, one entry per row, for order-insensitive
// comparison.
func rowSet(t *testing.T, f *frame.Frame) []string {
	t.Helper()
	names := f.ColumnNames()
	sort.Strings(names)
	out := make([]string, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		row := f.Row(i)
		line := ""
		for _, n := range names {
			line += fmt.Sprintf("%s=%v;", n, row[n])
		}
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}

func mustEvaluate(t *testing.T, s *store.Store, p sparql.Pattern) *frame.Frame {
	t.Helper()
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("Deduplicate: %v", err)
	}
	sm, err := sparql.Evaluate(s, p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	f, err := sm.Decategorized().Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return f
}

func iri(s string) sparql.Slot     { return sparql.BoundSlot(rdf.NewIRI(s)) }
func variable(n string) sparql.Slot { return sparql.VarSlot(n) }

// Querying a predicate the store has never seen must produce zero rows
// with the full schema, both variables typed None.
func TestAbsentPredicate(t *testing.T) {
	s := store.New()
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("Deduplicate: %v", err)
	}
	sm, err := sparql.Evaluate(s, sparql.TriplePattern{
		Subject:   variable("s"),
		Predicate: iri("http://ex/p"),
		Object:    variable("o"),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !sm.Columns["s"] || !sm.Columns["o"] {
		t.Errorf("columns = %v, want s and o bound", sm.Columns)
	}
	if got := sm.RDFNodeTypes["s"]; !got.IsNone() {
		t.Errorf("type of s = %v, want None", got)
	}
	if got := sm.RDFNodeTypes["o"]; !got.IsNone() {
		t.Errorf("type of o = %v, want None", got)
	}
	f, err := sm.Mappings.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if f.NumRows() != 0 {
		t.Errorf("absent predicate produced %d rows, want 0", f.NumRows())
	}
	for _, c := range []string{"s", "o"} {
		if !f.HasColumn(c) {
			t.Errorf("result frame is missing column %q", c)
		}
	}
}

func newBGPStore(t *testing.T) *store.Store {
	s := store.New()
	insertIRITriples(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/b"},
		{"http://ex/a", "http://ex/c"},
	})
	insertIRITriples(t, s, "http://ex/q", [][2]string{
		{"http://ex/b", "http://ex/c"},
	})
	return s
}

func TestSimpleBGP(t *testing.T) {
	s := newBGPStore(t)
	p := sparql.Project{
		Vars: []string{"x"},
		Inner: sparql.Join{
			Left: sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/p"), Object: variable("y")},
			Right: sparql.TriplePattern{Subject: variable("y"), Predicate: iri("http://ex/q"), Object: iri("http://ex/c")},
		},
	}
	f := mustEvaluate(t, s, p)
	want := []string{"x=http://ex/a;"}
	if got := rowSet(t, f); !reflect.DeepEqual(got, want) {
		t.Errorf("BGP result = %v, want %v", got, want)
	}
}

func TestJoinCommutative(t *testing.T) {
	s := newBGPStore(t)
	a := sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/p"), Object: variable("y")}
	b := sparql.TriplePattern{Subject: variable("y"), Predicate: iri("http://ex/q"), Object: variable("z")}
	ab := mustEvaluate(t, s, sparql.Join{Left: a, Right: b})
	ba := mustEvaluate(t, s, sparql.Join{Left: b, Right: a})
	if got, want := rowSet(t, ab), rowSet(t, ba); !reflect.DeepEqual(got, want) {
		t.Errorf("Join(a,b) = %v but Join(b,a) = %v", got, want)
	}
}

// MINUS with no shared variables must leave the left side untouched.
func TestMinusDisjointIsNoOp(t *testing.T) {
	s := newBGPStore(t)
	left := sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/p"), Object: variable("y")}
	minus := sparql.Minus{
		Left:  left,
		Right: sparql.TriplePattern{Subject: variable("z"), Predicate: iri("http://ex/q"), Object: variable("w")},
	}
	if got, want := rowSet(t, mustEvaluate(t, s, minus)), rowSet(t, mustEvaluate(t, s, left)); !reflect.DeepEqual(got, want) {
		t.Errorf("disjoint MINUS = %v, want left side unchanged %v", got, want)
	}
}

// Every row surviving a MINUS must come from the left side, and its
// shared-column projection must not appear on the right.
func TestMinusSemantics(t *testing.T) {
	s := store.New()
	insertIRITriples(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/1"},
		{"http://ex/b", "http://ex/2"},
		{"http://ex/c", "http://ex/3"},
	})
	insertIRITriples(t, s, "http://ex/q", [][2]string{
		{"http://ex/b", "http://ex/9"},
	})
	minus := sparql.Minus{
		Left:  sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/p"), Object: variable("y")},
		Right: sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/q"), Object: variable("w")},
	}
	f := mustEvaluate(t, s, minus)
	got := rowSet(t, f)
	want := []string{"x=http://ex/a;y=http://ex/1;", "x=http://ex/c;y=http://ex/3;"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MINUS = %v, want %v", got, want)
	}
}

// A variable joined against two incompatible datatypes is an error,
// not a silent coercion.
func TestInconsistentDatatypes(t *testing.T) {
	s := store.New()
	insertIRITriples(t, s, "http://ex/p", [][2]string{{"http://ex/a", "http://ex/b"}})
	insertIntTriples(t, s, "http://ex/age", map[string]int64{"http://ex/a": 42})
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("Deduplicate: %v", err)
	}
	_, err := sparql.Evaluate(s, sparql.Join{
		Left:  sparql.TriplePattern{Subject: variable("s"), Predicate: iri("http://ex/p"), Object: variable("v")},
		Right: sparql.TriplePattern{Subject: variable("s2"), Predicate: iri("http://ex/age"), Object: variable("v")},
	})
	if err == nil {
		t.Fatalf("joining ?v across IRI and xsd:integer should have failed")
	}
	var qe *sparql.QueryError
	if !errors.As(err, &qe) || qe.Kind != sparql.ErrInconsistentDatatypes {
		t.Errorf("got error %v, want InconsistentDatatypes", err)
	}
}

func TestOptionalKeepsUnmatchedRows(t *testing.T) {
	s := store.New()
	insertIRITriples(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/1"},
		{"http://ex/b", "http://ex/2"},
	})
	insertIRITriples(t, s, "http://ex/name", [][2]string{
		{"http://ex/a", "http://ex/alice"},
	})
	lj := sparql.LeftJoin{
		Left:  sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/p"), Object: variable("y")},
		Right: sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/name"), Object: variable("n")},
	}
	f := mustEvaluate(t, s, lj)
	if f.NumRows() != 2 {
		t.Fatalf("OPTIONAL produced %d rows, want 2", f.NumRows())
	}
	n := f.MustColumn("n")
	bound := 0
	for i := 0; i < n.Len(); i++ {
		if n.IsValid(i) {
			bound++
		}
	}
	if bound != 1 {
		t.Errorf("OPTIONAL bound n on %d rows, want 1", bound)
	}
}

func TestUnionPadsMissingColumns(t *testing.T) {
	s := newBGPStore(t)
	u := sparql.UnionPattern{
		Left:  sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/p"), Object: variable("y")},
		Right: sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/q"), Object: variable("z")},
	}
	f := mustEvaluate(t, s, u)
	if f.NumRows() != 3 {
		t.Errorf("UNION produced %d rows, want 3", f.NumRows())
	}
	for _, c := range []string{"x", "y", "z"} {
		if !f.HasColumn(c) {
			t.Errorf("UNION result is missing column %q", c)
		}
	}
}

func TestFilterAndExtend(t *testing.T) {
	s := store.New()
	insertIntTriples(t, s, "http://ex/age", map[string]int64{
		"http://ex/a": 42,
		"http://ex/b": 7,
	})
	p := sparql.Extend{
		Inner: sparql.FilterPattern{
			Inner: sparql.TriplePattern{Subject: variable("s"), Predicate: iri("http://ex/age"), Object: variable("a")},
			Cond: sparql.BinExpr{
				Op:    ">",
				Left:  sparql.VarExpr{Name: "a"},
				Right: sparql.LitExpr{Value: rdf.NewLiteral("18", rdf.XSDInteger)},
			},
		},
		Var:  "next",
		Expr: sparql.BinExpr{Op: "+", Left: sparql.VarExpr{Name: "a"}, Right: sparql.LitExpr{Value: rdf.NewLiteral("1", rdf.XSDInteger)}},
	}
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("Deduplicate: %v", err)
	}
	sm, err := sparql.Evaluate(s, p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got := sm.RDFNodeTypes["next"]; !got.Equal(rdf.Literal(rdf.XSDInteger)) {
		t.Errorf("type of bound column = %v, want xsd:integer", got)
	}
	f, err := sm.Decategorized().Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if f.NumRows() != 1 {
		t.Fatalf("filter kept %d rows, want 1", f.NumRows())
	}
	if got := f.Row(0)["next"]; got != int64(43) {
		t.Errorf("BIND result = %v, want 43", got)
	}
}

func TestOrderBySlice(t *testing.T) {
	s := store.New()
	insertIRITriples(t, s, "http://ex/p", [][2]string{
		{"http://ex/c", "http://ex/1"},
		{"http://ex/a", "http://ex/2"},
		{"http://ex/b", "http://ex/3"},
	})
	p := sparql.Slice{
		Inner: sparql.OrderBy{
			Inner: sparql.TriplePattern{Subject: variable("s"), Predicate: iri("http://ex/p"), Object: variable("o")},
			Keys:  []sparql.OrderKey{{Var: "s"}},
		},
		Offset: 0,
		Limit:  2,
	}
	f := mustEvaluate(t, s, p)
	if f.NumRows() != 2 {
		t.Fatalf("LIMIT 2 returned %d rows", f.NumRows())
	}
	sCol := f.MustColumn("s")
	if sCol.StringAt(0) != "http://ex/a" || sCol.StringAt(1) != "http://ex/b" {
		t.Errorf("ordered subjects = [%s %s], want [http://ex/a http://ex/b]", sCol.StringAt(0), sCol.StringAt(1))
	}
}

func TestDatatypeCoherence(t *testing.T) {
	s := newBGPStore(t)
	p := sparql.Join{
		Left: sparql.TriplePattern{Subject: variable("x"), Predicate: iri("http://ex/p"), Object: variable("y")},
		Right: sparql.TriplePattern{Subject: variable("y"), Predicate: iri("http://ex/q"), Object: variable("z")},
	}
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("Deduplicate: %v", err)
	}
	sm, err := sparql.Evaluate(s, p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	f, err := sm.Decategorized().Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(sm.Columns) != len(sm.RDFNodeTypes) {
		t.Errorf("columns and rdf node types disagree: %v vs %v", sm.Columns, sm.RDFNodeTypes)
	}
	for c := range sm.Columns {
		if _, ok := sm.RDFNodeTypes[c]; !ok {
			t.Errorf("column %q has no recorded node type", c)
		}
		if !f.HasColumn(c) {
			t.Errorf("column %q missing from materialized schema %v", c, f.ColumnNames())
		}
	}
	if len(f.ColumnNames()) != len(sm.Columns) {
		t.Errorf("materialized schema %v does not equal column set %v", f.ColumnNames(), sm.Columns)
	}
}

func TestZeroOrMorePath(t *testing.T) {
	s := store.New()
	insertIRITriples(t, s, "http://ex/k", [][2]string{
		{"http://ex/a", "http://ex/b"},
		{"http://ex/b", "http://ex/c"},
	})
	p := sparql.PropertyPathPattern{
		Subject: iri("http://ex/a"),
		Object:  variable("end"),
		Path:    sparql.PathZeroOrMore{Inner: sparql.PathIRI{IRI: "http://ex/k"}},
	}
	f := mustEvaluate(t, s, p)
	got := rowSet(t, f)
	want := []string{"end=http://ex/a;", "end=http://ex/b;", "end=http://ex/c;"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("a k* = %v, want %v", got, want)
	}
}

func TestSequenceAndInversePath(t *testing.T) {
	s := store.New()
	insertIRITriples(t, s, "http://ex/p", [][2]string{{"http://ex/a", "http://ex/b"}})
	insertIRITriples(t, s, "http://ex/q", [][2]string{{"http://ex/b", "http://ex/c"}})

	seq := sparql.PropertyPathPattern{
		Subject: variable("s"),
		Object:  variable("o"),
		Path:    sparql.PathSeq{Left: sparql.PathIRI{IRI: "http://ex/p"}, Right: sparql.PathIRI{IRI: "http://ex/q"}},
	}
	f := mustEvaluate(t, s, seq)
	if got, want := rowSet(t, f), []string{"o=http://ex/c;s=http://ex/a;"}; !reflect.DeepEqual(got, want) {
		t.Errorf("p/q = %v, want %v", got, want)
	}

	inv := sparql.PropertyPathPattern{
		Subject: variable("s"),
		Object:  variable("o"),
		Path:    sparql.PathInverse{Inner: sparql.PathIRI{IRI: "http://ex/p"}},
	}
	f = mustEvaluate(t, s, inv)
	if got, want := rowSet(t, f), []string{"o=http://ex/a;s=http://ex/b;"}; !reflect.DeepEqual(got, want) {
		t.Errorf("^p = %v, want %v", got, want)
	}
}

// A predicate stored under two object datatypes evaluates the same
// whether it is reached through a triple pattern or a property path:
// the chunks union as lexical strings and the object variable is
// typed None, instead of failing on the column-kind mismatch.
func TestMixedDatatypePredicate(t *testing.T) {
	s := store.New()
	insertIRITriples(t, s, "http://ex/v", [][2]string{{"http://ex/a", "http://ex/b"}})
	insertIntTriples(t, s, "http://ex/v", map[string]int64{"http://ex/a": 42})
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("Deduplicate: %v", err)
	}

	tp := sparql.TriplePattern{Subject: variable("s"), Predicate: iri("http://ex/v"), Object: variable("o")}
	sm, err := sparql.Evaluate(s, tp)
	if err != nil {
		t.Fatalf("Evaluate(triple pattern): %v", err)
	}
	if got := sm.RDFNodeTypes["o"]; !got.IsNone() {
		t.Errorf("triple pattern typed o as %v, want None", got)
	}
	f, err := sm.Decategorized().Collect()
	if err != nil {
		t.Fatalf("Collect(triple pattern): %v", err)
	}
	want := []string{"o=42;s=http://ex/a;", "o=http://ex/b;s=http://ex/a;"}
	if got := rowSet(t, f); !reflect.DeepEqual(got, want) {
		t.Errorf("triple pattern rows = %v, want %v", got, want)
	}

	ppp := sparql.PropertyPathPattern{
		Subject: variable("s"),
		Object:  variable("o"),
		Path:    sparql.PathIRI{IRI: "http://ex/v"},
	}
	sm, err = sparql.Evaluate(s, ppp)
	if err != nil {
		t.Fatalf("Evaluate(property path): %v", err)
	}
	if got := sm.RDFNodeTypes["o"]; !got.IsNone() {
		t.Errorf("property path typed o as %v, want None", got)
	}
	f, err = sm.Decategorized().Collect()
	if err != nil {
		t.Fatalf("Collect(property path): %v", err)
	}
	if got := rowSet(t, f); !reflect.DeepEqual(got, want) {
		t.Errorf("property path rows = %v, want %v", got, want)
	}
}

func TestVariablePredicateUnsupported(t *testing.T) {
	s := store.New()
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("Deduplicate: %v", err)
	}
	_, err := sparql.Evaluate(s, sparql.TriplePattern{
		Subject:   variable("s"),
		Predicate: variable("p"),
		Object:    variable("o"),
	})
	if err == nil {
		t.Fatalf("variable predicate should be rejected")
	}
	var qe *sparql.QueryError
	if !errors.As(err, &qe) || qe.Kind != sparql.ErrQueryTypeNotSupported {
		t.Errorf("got error %v, want QueryTypeNotSupported", err)
	}
}
