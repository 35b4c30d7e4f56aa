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
	"strconv"
	"sync"

	"github.com/badwolf-labs/colstore/catalog"
	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/internal/intern"
	"github.com/badwolf-labs/colstore/ntriples"
	"github.com/badwolf-labs/colstore/rdf"
	"github.com/badwolf-labs/colstore/shacl"
	"github.com/badwolf-labs/colstore/sparql"
	"github.com/badwolf-labs/colstore/sparqlparse"
)

// Store is the triple store: a predicate -> datatype -> Table
// catalog, optionally spilling large batches to a caching folder on
// disk.
type Store struct {
	mu sync.RWMutex

	tables       map[string]map[rdf.NodeType]*Table
	folder       string
	deduplicated bool
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithCacheFolder enables spill-to-disk caching: every appended batch
// is written to parquet chunks under folder, one chunk per threshold's
// worth of estimated size; folder is created on first use if it does
// not already exist.
func WithCacheFolder(folder string) Option {
	return func(s *Store) { s.folder = folder }
}

// New builds an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		tables:       map[string]map[rdf.NodeType]*Table{},
		deduplicated: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup satisfies catalog.Store: it returns the per-datatype tables
// registered for predicate.
func (s *Store) Lookup(predicate string) (map[rdf.NodeType]catalog.TableAccessor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byType, ok := s.tables[predicate]
	if !ok {
		return nil, false
	}
	out := make(map[rdf.NodeType]catalog.TableAccessor, len(byType))
	for dt, t := range byType {
		out[dt] = t
	}
	return out, true
}

// Predicates lists every predicate the store currently holds triples
// for, in no particular order.
func (s *Store) Predicates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables))
	for p := range s.tables {
		out = append(out, p)
	}
	return out
}

// Deduplicate folds every table's chunks down to one frame distinct on
// (subject, object), process-wide. Interning is enabled here too: once
// a query or validation run is imminent the store is about to do a lot
// of equi-joins on IRI-valued columns, and the intern table is switched
// on for evaluation and simply left on afterwards rather than toggled
// per call.
func (s *Store) Deduplicate() error {
	intern.Enable()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deduplicated {
		return nil
	}
	for _, byType := range s.tables {
		for _, t := range byType {
			if err := t.Dedup(); err != nil {
				return err
			}
		}
	}
	s.deduplicated = true
	return nil
}

// Close removes every spilled cache-folder parquet file belonging to
// this store.
func (s *Store) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deleteTmpParquets(s.folder)
}

// ConstructResult is one (predicate, datatype) group of a CONSTRUCT
// query result, already shaped as a triple frame.
type ConstructResult struct {
	Predicate  string
	ObjectType rdf.NodeType
	Frame      *frame.Frame
}

// QueryResult is the result of one Query call: a
// Select query fills Select with its (categorical columns cast back
// to string) result frame, a Construct query fills Triples with one
// group per (predicate, datatype) pair.
type QueryResult struct {
	IsConstruct bool
	Select      *frame.Frame
	Triples     []ConstructResult
}

// Query parses and evaluates a SPARQL query against the store's
// current contents, deduplicating first so join cardinalities are
// correct.
func (s *Store) Query(text string) (*QueryResult, error) {
	if err := s.Deduplicate(); err != nil {
		return nil, err
	}
	q, err := sparqlparse.Parse(text)
	if err != nil {
		return nil, sparql.NewQueryError(sparql.ErrParse, err)
	}
	s.mu.RLock()
	sm, err := sparql.Evaluate(s, q.Where)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if q.Type == sparqlparse.QueryConstruct {
		triples, err := sparql.Construct(sm, q.Construct)
		if err != nil {
			return nil, err
		}
		groups, err := groupTriplesByPredicate(triples)
		if err != nil {
			return nil, err
		}
		return &QueryResult{IsConstruct: true, Triples: groups}, nil
	}
	f, err := finalizeSelect(sm)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Select: f}, nil
}

// finalizeSelect casts every bound column back from its categorical
// encoding to plain string/native values before materialization, so
// the caller sees textual IRIs and literals rather than intern codes.
func finalizeSelect(sm *sparql.SolutionMappings) (*frame.Frame, error) {
	return sm.Decategorized().Collect()
}

// Insert runs a CONSTRUCT query and inserts its resulting triples back
// into the store under one new call id — the update half of the
// ingestion interface, exposed at the query surface.
func (s *Store) Insert(text string) error {
	q, err := sparqlparse.Parse(text)
	if err != nil {
		return sparql.NewQueryError(sparql.ErrParse, err)
	}
	if q.Type != sparqlparse.QueryConstruct {
		return sparql.NewQueryError(sparql.ErrQueryTypeNotSupported, nil)
	}
	if err := s.Deduplicate(); err != nil {
		return err
	}
	s.mu.RLock()
	sm, err := sparql.Evaluate(s, q.Where)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	triples, err := sparql.Construct(sm, q.Construct)
	if err != nil {
		return err
	}
	return s.insertTriples(triples)
}

// groupTriplesByPredicate partitions triples into one ConstructResult
// per (predicate, object datatype) pair, the shape both CONSTRUCT
// query results and construct-update insertion need.
func groupTriplesByPredicate(triples []rdf.Triple) ([]ConstructResult, error) {
	byKey := map[string][]rdf.Triple{}
	order := map[string][2]string{}
	var keys []string
	for _, tr := range triples {
		key := tr.Predicate + "\x00" + tr.Object.Type.String()
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], tr)
		order[key] = [2]string{tr.Predicate, tr.Object.Type.String()}
	}
	out := make([]ConstructResult, 0, len(keys))
	for _, key := range keys {
		trs := byKey[key]
		f, err := triplesToFrame(trs)
		if err != nil {
			return nil, err
		}
		deduped, err := distinctOn(f, []string{"subject", "object"})
		if err != nil {
			return nil, err
		}
		out = append(out, ConstructResult{
			Predicate:  order[key][0],
			ObjectType: trs[0].Object.Type,
			Frame:      deduped,
		})
	}
	return out, nil
}

// insertTriples appends triples grouped by (predicate, object
// datatype), building native-typed object columns so a triple loaded
// this way is indistinguishable from one ingested through InsertBatch.
func (s *Store) insertTriples(triples []rdf.Triple) error {
	byKey := map[string][]rdf.Triple{}
	var keys []string
	for _, tr := range triples {
		key := tr.Predicate + "\x00" + tr.Object.Type.String()
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], tr)
	}
	items := make([]BatchItem, 0, len(keys))
	for _, key := range keys {
		trs := byKey[key]
		f, err := nativeTripleFrame(trs)
		if err != nil {
			return err
		}
		items = append(items, BatchItem{
			Frame:      f,
			ObjectType: trs[0].Object.Type,
			StaticVerb: trs[0].Predicate,
		})
	}
	return s.InsertBatch(items)
}

// triplesToFrame builds an all-string (subject, object) frame, the
// shape CONSTRUCT results surface to callers.
func triplesToFrame(triples []rdf.Triple) (*frame.Frame, error) {
	sub := frame.NewColumnBuilder(frame.KindString)
	obj := frame.NewColumnBuilder(frame.KindString)
	for _, t := range triples {
		sub.AppendString(subjectLexical(t.Subject))
		obj.AppendString(t.Object.Lexical)
	}
	return frame.New([]string{"subject", "object"}, map[string]frame.Column{
		"subject": sub.NewColumn(),
		"object":  obj.NewColumn(),
	})
}

// nativeTripleFrame builds a (subject, object) frame whose object
// column uses the physical kind the group's datatype implies: strings
// for IRIs, blank nodes and string literals, native values for typed
// literals. All triples in trs share one (predicate, datatype) key.
func nativeTripleFrame(trs []rdf.Triple) (*frame.Frame, error) {
	sub := frame.NewColumnBuilder(frame.KindString)
	obj := frame.NewColumnBuilder(objectColumnKind(trs[0].Object.Type))
	for _, t := range trs {
		sub.AppendString(subjectLexical(t.Subject))
		v, err := t.Object.Native()
		if err != nil {
			return nil, err
		}
		if err := obj.AppendAny(v); err != nil {
			return nil, err
		}
	}
	return frame.New([]string{"subject", "object"}, map[string]frame.Column{
		"subject": sub.NewColumn(),
		"object":  obj.NewColumn(),
	})
}

func objectColumnKind(t rdf.NodeType) frame.Kind {
	if t.Kind != rdf.KindLiteral {
		return frame.KindString
	}
	switch t.Datatype {
	case rdf.XSDInteger:
		return frame.KindInt64
	case rdf.XSDFloat, rdf.XSDDouble:
		return frame.KindFloat64
	case rdf.XSDBoolean:
		return frame.KindBool
	default:
		return frame.KindString
	}
}

// Validate reads the SHACL shape graph out of the store's own triples
// and validates every target node against it.
func (s *Store) Validate() (*frame.Frame, error) {
	if err := s.Deduplicate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	shapes, err := shacl.ReadShapeGraph(s)
	if err != nil {
		return nil, err
	}
	return shacl.Validate(s, shapes)
}

// ToTriples materializes every table into its constituent rdf.Triple
// values. Intended for small stores or test fixtures; large stores
// should prefer WriteNTriples or WriteNativeParquet.
func (s *Store) ToTriples() ([]rdf.Triple, error) {
	if err := s.Deduplicate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rdf.Triple
	for predicate, byType := range s.tables {
		for dt, t := range byType {
			lfs, err := t.GetLazyFrames()
			if err != nil {
				return nil, err
			}
			f, err := frame.Union(lfs).Collect()
			if err != nil {
				return nil, err
			}
			trs, err := frameToTriples(predicate, dt, f)
			if err != nil {
				return nil, err
			}
			out = append(out, trs...)
		}
	}
	return out, nil
}

func frameToTriples(predicate string, dt rdf.NodeType, f *frame.Frame) ([]rdf.Triple, error) {
	sub, ok := f.Column("subject")
	if !ok {
		return nil, nil
	}
	obj, ok := f.Column("object")
	if !ok {
		return nil, nil
	}
	out := make([]rdf.Triple, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		subjTerm, err := parseSubject(sub.StringAt(i))
		if err != nil {
			return nil, err
		}
		out = append(out, rdf.Triple{
			Subject:   subjTerm,
			Predicate: predicate,
			Object:    rdf.Term{Type: dt, Lexical: objectLexical(obj, i)},
		})
	}
	return out, nil
}

func objectLexical(c frame.Column, i int) string {
	switch v := c.AnyAt(i).(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func subjectLexical(t rdf.Term) string {
	if t.Type.Kind == rdf.KindBlankNode {
		return "_:" + t.Lexical
	}
	return t.Lexical
}

func parseSubject(s string) (rdf.Term, error) {
	if len(s) >= 2 && s[:2] == "_:" {
		return rdf.NewBlankNode(s[2:]), nil
	}
	return rdf.NewIRI(s), nil
}

// WriteNTriples serializes every triple currently in the store to path
// in N-Triples line format.
func (s *Store) WriteNTriples(path string) error {
	triples, err := s.ToTriples()
	if err != nil {
		return err
	}
	return ntriples.WriteFile(path, triples)
}

// ReadNTriples loads every triple serialized in the N-Triples file at
// path into the store as one ingestion batch.
func (s *Store) ReadNTriples(path string) error {
	triples, err := ntriples.ReadFile(path)
	if err != nil {
		return err
	}
	return s.insertTriples(triples)
}
