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
	"github.com/badwolf-labs/colstore/rdf"
	"github.com/badwolf-labs/colstore/sparql"
)

// parsePath reconstructs the sparql.Path rooted at root, a subject key
// that is either a direct predicate IRI or a blank node carrying one of
// the structured path combinator triples.
//
// A sequence path is read only from an rdf:List sitting directly where
// a path is expected: a root that matches no combinator verb but does
// carry rdf:first is treated as a sequence. iriSequencePath in vocab.go
// is not among the verbs matched here, so a root that spells out an
// explicit sh:sequencePath triple (and has no rdf:first) is read as a
// plain predicate step named by the root itself.
func parsePath(root string, idx *propsIndex) (sparql.Path, error) {
	for _, e := range idx.props[root] {
		switch e.Verb {
		case iriInversePath:
			inner, err := parsePath(termKey(e.Object), idx)
			if err != nil {
				return nil, err
			}
			return sparql.PathInverse{Inner: inner}, nil
		case iriZeroOrMorePath:
			inner, err := parsePath(termKey(e.Object), idx)
			if err != nil {
				return nil, err
			}
			return sparql.PathZeroOrMore{Inner: inner}, nil
		case iriOneOrMorePath:
			inner, err := parsePath(termKey(e.Object), idx)
			if err != nil {
				return nil, err
			}
			return sparql.PathOneOrMore{Inner: inner}, nil
		case iriZeroOrOnePath:
			inner, err := parsePath(termKey(e.Object), idx)
			if err != nil {
				return nil, err
			}
			return sparql.PathZeroOrOne{Inner: inner}, nil
		case iriAlternativePath:
			elems, err := readRDFList(termKey(e.Object), idx)
			if err != nil {
				return nil, err
			}
			paths, err := parsePathList(elems, idx)
			if err != nil {
				return nil, err
			}
			return foldPaths(true, paths), nil
		}
	}
	if _, isListHead := idx.first[root]; isListHead {
		elems, err := readRDFList(root, idx)
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return nil, NewShapeErrorf(ErrListMissingFirstElement, "empty sequence path list at %s", root)
		}
		paths, err := parsePathList(elems, idx)
		if err != nil {
			return nil, err
		}
		return foldPaths(false, paths), nil
	}
	return sparql.PathIRI{IRI: root}, nil
}

// parsePathRows resolves every sh:path triple into its PropertyShape
// subject's reconstructed Path.
func parsePathRows(rows []tripleRow, idx *propsIndex) (map[string]sparql.Path, error) {
	out := map[string]sparql.Path{}
	for _, row := range rows {
		p, err := parsePath(termKey(row.Object), idx)
		if err != nil {
			return nil, err
		}
		out[row.Subject] = p
	}
	return out, nil
}

func parsePathList(elems []rdf.Term, idx *propsIndex) ([]sparql.Path, error) {
	out := make([]sparql.Path, 0, len(elems))
	for _, e := range elems {
		p, err := parsePath(termKey(e), idx)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// foldPaths left-folds a list of two-or-more path elements into the
// binary PathAlt/PathSeq nodes sparql.Path actually has — the SHACL
// list these came from has no arity limit, unlike the evaluator's AST.
func foldPaths(alt bool, paths []sparql.Path) sparql.Path {
	acc := paths[0]
	for _, p := range paths[1:] {
		if alt {
			acc = sparql.PathAlt{Left: acc, Right: p}
		} else {
			acc = sparql.PathSeq{Left: acc, Right: p}
		}
	}
	return acc
}
