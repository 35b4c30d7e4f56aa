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

// Package sparql evaluates the SPARQL algebra tree produced by package
// sparqlparse against a catalog.Store, threading a lazily evaluated
// SolutionMappings value through each relational operator.
package sparql

import (
	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
)

// SolutionMappings is one point in the evaluation pipeline: a lazily
// computed frame of variable bindings, the set of variable names bound
// so far, and the RDF node type each bound column currently holds.
// RDFNodeTypes is consulted (not recomputed from the data) whenever an
// operator needs to know how to compare or join a column — the schema
// travels alongside the data it describes rather than being re-derived
// per row.
type SolutionMappings struct {
	Mappings     frame.LazyFrame
	Columns      map[string]bool
	RDFNodeTypes map[string]rdf.NodeType
}

// Empty returns the identity SolutionMappings: one row, no columns —
// the starting point for a BGP that begins with VALUES or a bare BIND.
func Empty() *SolutionMappings {
	return &SolutionMappings{
		Mappings:     frame.Scan(frame.Singleton()),
		Columns:      map[string]bool{},
		RDFNodeTypes: map[string]rdf.NodeType{},
	}
}

// Decategorized returns sm.Mappings with every still-interned column
// translated back to its string form, for operators (and the top-level
// SELECT finalization) that must see cell values rather than just
// compare them for equality. Only columns whose recorded RDF node type
// is string-backed are eligible: an int64 column under a string-backed
// type can only have come from interning, whereas an xsd:integer
// column's values are data and must not be fed to the intern table.
func (sm *SolutionMappings) Decategorized() frame.LazyFrame {
	cols := make([]string, 0, len(sm.Columns))
	for c := range sm.Columns {
		if rdf.IsStringColumn(sm.RDFNodeTypes[c]) {
			cols = append(cols, c)
		}
	}
	return sm.Mappings.Decategorize(cols...)
}
func (sm *SolutionMappings) clone() *SolutionMappings {
	cols := make(map[string]bool, len(sm.Columns))
	for k, v := range sm.Columns {
		cols[k] = v
	}
	types := make(map[string]rdf.NodeType, len(sm.RDFNodeTypes))
	for k, v := range sm.RDFNodeTypes {
		types[k] = v
	}
	return &SolutionMappings{Mappings: sm.Mappings, Columns: cols, RDFNodeTypes: types}
}

// checkConsistentType enforces the cross-operator invariant that
// a variable bound to two different RDF node types (e.g. a column
// joined against an incompatible datatype) is an error rather than a
// silent coercion.
func checkConsistentType(types map[string]rdf.NodeType, v string, t rdf.NodeType) error {
	existing, ok := types[v]
	if !ok || existing.IsNone() {
		return nil
	}
	if !existing.Equal(t) {
		return NewQueryErrorf(ErrInconsistentDatatypes, "variable %q bound to both %s and %s", v, existing, t)
	}
	return nil
}
