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

package shacl

import (
	"strconv"

	"github.com/badwolf-labs/colstore/catalog"
	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
)

// tripleRow is one (subject, object) pair scanned off a single
// predicate's tables, with the object already reconstructed into a
// typed rdf.Term.
type tripleRow struct {
	Subject string
	Object  rdf.Term
}

// blankKey renders a blank node id the same way Store.subjectLexical
// renders subject columns, so a value scanned out of an object column
// can be looked up against a subject column (the object-property
// index below is keyed on exactly this convention).
func blankKey(id string) string { return "_:" + id }

// termKey renders a term the way the store's subject columns do, so it
// can be used as a lookup key into anything indexed by subject
// (props/first/rest maps, node-shape subject lists, shape references).
func termKey(t rdf.Term) string {
	if t.Type.Kind == rdf.KindBlankNode {
		return blankKey(t.Lexical)
	}
	return t.Lexical
}

func isBlankSubject(s string) bool {
	return len(s) >= 2 && s[0] == '_' && s[1] == ':'
}

// termFromColumn reconstructs the rdf.Term an object column cell
// denotes, given the datatype the table was keyed on.
func termFromColumn(col frame.Column, i int, dt rdf.NodeType) (rdf.Term, error) {
	switch dt.Kind {
	case rdf.KindIRI:
		return rdf.NewIRI(col.StringAt(i)), nil
	case rdf.KindBlankNode:
		return rdf.NewBlankNode(col.StringAt(i)), nil
	case rdf.KindLiteral:
		lex, err := lexicalOf(col, i)
		if err != nil {
			return rdf.Term{}, NewShapeError(ErrTriplestore, err)
		}
		return rdf.NewLiteral(lex, dt.Datatype), nil
	default:
		return rdf.Term{}, NewShapeErrorf(ErrTriplestore, "unsupported object node type %s", dt)
	}
}

func lexicalOf(col frame.Column, i int) (string, error) {
	switch col.Kind() {
	case frame.KindString:
		return col.StringAt(i), nil
	case frame.KindInt64:
		return strconv.FormatInt(col.Int64At(i), 10), nil
	case frame.KindFloat64:
		return strconv.FormatFloat(col.Float64At(i), 'g', -1, 64), nil
	case frame.KindBool:
		return strconv.FormatBool(col.BoolAt(i)), nil
	default:
		return "", NewShapeErrorf(ErrTriplestore, "unsupported column kind %d", col.Kind())
	}
}

// scanTriples reads every (subject, object) pair stored under
// predicate, across every datatype table it was split into.
func scanTriples(store catalog.Store, predicate string) ([]tripleRow, error) {
	byType, ok := store.Lookup(predicate)
	if !ok {
		return nil, nil
	}
	var rows []tripleRow
	for dt, t := range byType {
		lfs, err := t.GetLazyFrames()
		if err != nil {
			return nil, NewShapeError(ErrTriplestore, err)
		}
		f, err := frame.Union(lfs).Collect()
		if err != nil {
			return nil, NewShapeError(ErrTriplestore, err)
		}
		subCol, ok1 := f.Column("subject")
		objCol, ok2 := f.Column("object")
		if !ok1 || !ok2 {
			continue
		}
		for i := 0; i < f.NumRows(); i++ {
			term, err := termFromColumn(objCol, i, dt)
			if err != nil {
				return nil, err
			}
			rows = append(rows, tripleRow{Subject: subCol.StringAt(i), Object: term})
		}
	}
	return rows, nil
}

// scanStringLiteral returns the first object lexical seen for each
// subject under predicate, for single-valued string annotations like
// sh:name and sh:description.
func scanStringLiteral(store catalog.Store, predicate string) (map[string]string, error) {
	rows, err := scanTriples(store, predicate)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	for _, row := range rows {
		if _, ok := out[row.Subject]; ok {
			continue
		}
		out[row.Subject] = row.Object.Lexical
	}
	return out, nil
}

// verbObject is one (predicate, object) pair hung off a subject in the
// "everything else" object-property index.
type verbObject struct {
	Verb   string
	Object rdf.Term
}

// propsIndex is the reconstruction working set: every non-sh:path
// object-property triple keyed by subject, plus the rdf:first/rdf:rest
// chains needed to walk RDF lists.
type propsIndex struct {
	props map[string][]verbObject
	first map[string]rdf.Term
	rest  map[string]string
}

// buildPropsIndex scans the whole store once, skipping sh:path itself,
// and keeps only IRI/BlankNode-valued object properties — everything a
// shape reconstruction can hang metadata, paths or lists off.
func buildPropsIndex(store catalog.Store) (*propsIndex, error) {
	idx := &propsIndex{
		props: map[string][]verbObject{},
		first: map[string]rdf.Term{},
		rest:  map[string]string{},
	}
	for _, p := range store.Predicates() {
		if p == iriPath {
			continue
		}
		rows, err := scanTriples(store, p)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			// rdf:first elements may be literals (sh:in / sh:languageIn
			// value lists), so the list maps are fed before the
			// IRI/BlankNode filter the props index applies.
			switch p {
			case iriFirst:
				idx.first[row.Subject] = row.Object
				continue
			case iriRest:
				idx.rest[row.Subject] = termKey(row.Object)
				continue
			}
			if row.Object.Type.Kind != rdf.KindIRI && row.Object.Type.Kind != rdf.KindBlankNode {
				continue
			}
			idx.props[row.Subject] = append(idx.props[row.Subject], verbObject{Verb: p, Object: row.Object})
		}
	}
	return idx, nil
}

// readRDFList walks an rdf:first/rdf:rest chain starting at head (a
// subject key) until it reaches rdf:nil, returning the element terms
// in order. A seen-set bounds traversal of a cyclic rest chain, which
// would otherwise loop forever.
func readRDFList(head string, idx *propsIndex) ([]rdf.Term, error) {
	var elems []rdf.Term
	seen := map[string]bool{}
	node := head
	for node != iriNil {
		if seen[node] {
			return nil, NewShapeErrorf(ErrListMissingRest, "cyclic rdf:list at %s", node)
		}
		seen[node] = true
		first, ok := idx.first[node]
		if !ok {
			return nil, NewShapeErrorf(ErrListMissingFirstElement, "list node %s has no rdf:first", node)
		}
		elems = append(elems, first)
		next, ok := idx.rest[node]
		if !ok {
			return nil, NewShapeErrorf(ErrListMissingRest, "list node %s has no rdf:rest", node)
		}
		node = next
	}
	return elems, nil
}
