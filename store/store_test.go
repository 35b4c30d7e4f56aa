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

package store

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
)

func iriPairsFrame(t *testing.T, pairs [][2]string) *frame.Frame {
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
	return f
}

func insertIRI(t *testing.T, s *Store, predicate string, pairs [][2]string) {
	t.Helper()
	item := BatchItem{Frame: iriPairsFrame(t, pairs), ObjectType: rdf.IRI, StaticVerb: predicate}
	if err := s.InsertBatch([]BatchItem{item}); err != nil {
		t.Fatalf("InsertBatch(%s): %v", predicate, err)
	}
}

func tripleStrings(t *testing.T, s *Store) []string {
	t.Helper()
	triples, err := s.ToTriples()
	if err != nil {
		t.Fatalf("ToTriples: %v", err)
	}
	out := make([]string, 0, len(triples))
	for _, tr := range triples {
		out = append(out, tr.Subject.String()+" <"+tr.Predicate+"> "+tr.Object.String())
	}
	sort.Strings(out)
	return out
}

func TestDeduplicateIdempotent(t *testing.T) {
	s := New()
	insertIRI(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/b"},
		{"http://ex/a", "http://ex/b"},
	})
	insertIRI(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/b"},
		{"http://ex/a", "http://ex/c"},
	})
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("first Deduplicate: %v", err)
	}
	first := tripleStrings(t, s)
	if len(first) != 2 {
		t.Fatalf("after dedup store holds %d triples, want 2: %v", len(first), first)
	}
	if err := s.Deduplicate(); err != nil {
		t.Fatalf("second Deduplicate: %v", err)
	}
	if second := tripleStrings(t, s); !reflect.DeepEqual(first, second) {
		t.Errorf("second dedup changed the store: %v vs %v", first, second)
	}
}

func TestInsertBatchPartitionsByVerb(t *testing.T) {
	s := New()
	sub := frame.NewColumnBuilder(frame.KindString)
	verb := frame.NewColumnBuilder(frame.KindString)
	obj := frame.NewColumnBuilder(frame.KindString)
	rows := [][3]string{
		{"http://ex/a", "http://ex/p", "http://ex/b"},
		{"http://ex/a", "http://ex/q", "http://ex/c"},
		{"http://ex/b", "http://ex/p", "http://ex/c"},
	}
	for _, r := range rows {
		sub.AppendString(r[0])
		verb.AppendString(r[1])
		obj.AppendString(r[2])
	}
	f, err := frame.New([]string{"subject", "verb", "object"}, map[string]frame.Column{
		"subject": sub.NewColumn(),
		"verb":    verb.NewColumn(),
		"object":  obj.NewColumn(),
	})
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}
	if err := s.InsertBatch([]BatchItem{{Frame: f, ObjectType: rdf.IRI}}); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	preds := s.Predicates()
	sort.Strings(preds)
	if !reflect.DeepEqual(preds, []string{"http://ex/p", "http://ex/q"}) {
		t.Errorf("predicates = %v, want [http://ex/p http://ex/q]", preds)
	}
	byType, ok := s.Lookup("http://ex/p")
	if !ok {
		t.Fatalf("no tables registered for http://ex/p")
	}
	tbl := byType[rdf.IRI]
	lfs, err := tbl.GetLazyFrames()
	if err != nil {
		t.Fatalf("GetLazyFrames: %v", err)
	}
	merged, err := frame.Union(lfs).Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if merged.NumRows() != 2 {
		t.Errorf("http://ex/p table holds %d rows, want 2", merged.NumRows())
	}
	if merged.HasColumn("verb") {
		t.Errorf("partitioned table still carries the verb column")
	}
}

func TestQuerySelect(t *testing.T) {
	s := New()
	insertIRI(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/b"},
		{"http://ex/a", "http://ex/c"},
	})
	insertIRI(t, s, "http://ex/q", [][2]string{
		{"http://ex/b", "http://ex/c"},
	})
	res, err := s.Query("SELECT ?x WHERE { ?x <http://ex/p> ?y . ?y <http://ex/q> <http://ex/c> }")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.IsConstruct {
		t.Fatalf("SELECT query returned a construct result")
	}
	if res.Select.NumRows() != 1 {
		t.Fatalf("query returned %d rows, want 1", res.Select.NumRows())
	}
	if got := res.Select.Row(0)["x"]; got != "http://ex/a" {
		t.Errorf("?x = %v, want http://ex/a", got)
	}
}

func TestQuerySelectAbsentPredicate(t *testing.T) {
	s := New()
	res, err := s.Query("SELECT ?s ?o WHERE { ?s <http://ex/p> ?o }")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Select.NumRows() != 0 {
		t.Errorf("query over an empty store returned %d rows", res.Select.NumRows())
	}
	for _, c := range []string{"s", "o"} {
		if !res.Select.HasColumn(c) {
			t.Errorf("result schema %v is missing %q", res.Select.ColumnNames(), c)
		}
	}
}

func TestConstructThenInsert(t *testing.T) {
	s := New()
	insertIRI(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/b"},
		{"http://ex/a", "http://ex/c"},
	})
	insertIRI(t, s, "http://ex/q", [][2]string{
		{"http://ex/b", "http://ex/c"},
	})
	construct := "CONSTRUCT { ?x <http://ex/r> ?y } WHERE { ?x <http://ex/p> ?y }"

	res, err := s.Query(construct)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !res.IsConstruct || len(res.Triples) != 1 {
		t.Fatalf("construct returned %d groups, want 1", len(res.Triples))
	}
	group := res.Triples[0]
	if group.Predicate != "http://ex/r" {
		t.Errorf("construct group predicate = %q, want http://ex/r", group.Predicate)
	}
	if group.Frame.NumRows() != 2 {
		t.Errorf("construct produced %d triples, want 2", group.Frame.NumRows())
	}

	if err := s.Insert(construct); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	after, err := s.Query("SELECT ?s ?o WHERE { ?s <http://ex/r> ?o }")
	if err != nil {
		t.Fatalf("Query after insert: %v", err)
	}
	if after.Select.NumRows() != 2 {
		t.Errorf("after insert the store answers %d rows for http://ex/r, want 2", after.Select.NumRows())
	}
}

// Inserting a CONSTRUCT's output must not lose any solution the same
// query produced before the insert.
func TestInsertQueryCommutes(t *testing.T) {
	s := New()
	insertIRI(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/b"},
	})
	construct := "CONSTRUCT { ?x <http://ex/p> ?y } WHERE { ?x <http://ex/p> ?y }"
	before := tripleStrings(t, s)
	if err := s.Insert(construct); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	after := tripleStrings(t, s)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("self-construct changed the store: %v vs %v", before, after)
	}
}

func TestCacheFolderSpillAndQuery(t *testing.T) {
	dir := t.TempDir()
	s := New(WithCacheFolder(dir))
	insertIRI(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/b"},
		{"http://ex/b", "http://ex/c"},
	})
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	spilled := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "tmp_") && strings.HasSuffix(e.Name(), ".parquet") {
			spilled++
		}
	}
	if spilled == 0 {
		t.Fatalf("no spilled chunk files in %s", dir)
	}

	res, err := s.Query("SELECT ?o WHERE { <http://ex/a> <http://ex/p> ?o }")
	if err != nil {
		t.Fatalf("Query over spilled store: %v", err)
	}
	if res.Select.NumRows() != 1 {
		t.Fatalf("query over spilled store returned %d rows, want 1", res.Select.NumRows())
	}
	if got := res.Select.Row(0)["o"]; got != "http://ex/b" {
		t.Errorf("?o = %v, want http://ex/b", got)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	entries, err = os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir after Close: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".parquet") {
			t.Errorf("Close left %s behind", e.Name())
		}
	}
}

func TestChunkParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := iriPairsFrame(t, [][2]string{
		{"http://ex/a", "http://ex/b"},
		{"http://ex/b", "http://ex/c"},
	})
	path := filepath.Join(dir, "chunk.parquet")
	if err := writeChunkParquet(path, f); err != nil {
		t.Fatalf("writeChunkParquet: %v", err)
	}
	back, err := readChunkParquet(path)
	if err != nil {
		t.Fatalf("readChunkParquet: %v", err)
	}
	if back.NumRows() != f.NumRows() {
		t.Fatalf("round trip returned %d rows, want %d", back.NumRows(), f.NumRows())
	}
	for i := 0; i < f.NumRows(); i++ {
		if !reflect.DeepEqual(back.Row(i), f.Row(i)) {
			t.Errorf("row %d = %v, want %v", i, back.Row(i), f.Row(i))
		}
	}
}

func TestWriteNativeParquetLayout(t *testing.T) {
	dir := t.TempDir()
	s := New()
	insertIRI(t, s, "http://ex/p", [][2]string{{"http://ex/a", "http://ex/b"}})
	if err := s.WriteNativeParquet(dir); err != nil {
		t.Fatalf("WriteNativeParquet: %v", err)
	}
	want := filepath.Join(dir, "httpexp_object_property_part_0.parquet")
	if _, err := os.Stat(want); err != nil {
		entries, _ := os.ReadDir(dir)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected export file %s, directory holds %v", want, names)
	}
}

func TestNTriplesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New()
	insertIRI(t, s, "http://ex/p", [][2]string{
		{"http://ex/a", "http://ex/b"},
	})
	age := frame.NewColumnBuilder(frame.KindString)
	ageObj := frame.NewColumnBuilder(frame.KindInt64)
	age.AppendString("http://ex/a")
	ageObj.AppendInt64(42)
	af, err := frame.New([]string{"subject", "object"}, map[string]frame.Column{
		"subject": age.NewColumn(),
		"object":  ageObj.NewColumn(),
	})
	if err != nil {
		t.Fatalf("building age frame: %v", err)
	}
	item := BatchItem{Frame: af, ObjectType: rdf.Literal(rdf.XSDInteger), StaticVerb: "http://ex/age"}
	if err := s.InsertBatch([]BatchItem{item}); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	path := filepath.Join(dir, "out.nt")
	if err := s.WriteNTriples(path); err != nil {
		t.Fatalf("WriteNTriples: %v", err)
	}

	loaded := New()
	if err := loaded.ReadNTriples(path); err != nil {
		t.Fatalf("ReadNTriples: %v", err)
	}
	if got, want := tripleStrings(t, loaded), tripleStrings(t, s); !reflect.DeepEqual(got, want) {
		t.Errorf("N-Triples round trip = %v, want %v", got, want)
	}
}

func TestSanitize(t *testing.T) {
	table := []struct {
		in, want string
	}{
		{"http://ex/p", "httpexp"},
		{"", "x"},
		{"abc123", "abc123"},
		{"http://www.w3.org/2001/XMLSchema#integer", "httpwwww3org2001XMLSchemainteger"},
	}
	for _, entry := range table {
		if got := sanitize(entry.in); got != entry.want {
			t.Errorf("sanitize(%q) = %q, want %q", entry.in, got, entry.want)
		}
	}
}
