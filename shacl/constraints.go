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
	"github.com/badwolf-labs/colstore/catalog"
)

// compileConstraints scans every SHACL constraint-component predicate
// across the whole store and groups the resulting Constraint values by
// the property shape subject that carries them. IRI-valued components
// read their object as an IRI, literal-valued ones read the lexical
// form, and list-valued ones walk the RDF list hanging off the object.
func compileConstraints(store catalog.Store, idx *propsIndex) (map[string][]Constraint, error) {
	out := map[string][]Constraint{}
	add := func(subject string, c Constraint) {
		out[subject] = append(out[subject], c)
	}

	iriValued := []struct {
		predicate string
		build     func(string) Constraint
	}{
		{iriClass, func(iri string) Constraint { return ClassConstraint{Class: iri} }},
		{iriDatatype, func(iri string) Constraint { return DatatypeConstraint{Datatype: iri} }},
		{iriEquals, func(iri string) Constraint { return EqualsConstraint{Predicate: iri} }},
		{iriDisjoint, func(iri string) Constraint { return DisjointConstraint{Predicate: iri} }},
		{iriLessThan, func(iri string) Constraint { return LessThanConstraint{Predicate: iri} }},
		{iriLessThanOrEquals, func(iri string) Constraint { return LessThanOrEqualsConstraint{Predicate: iri} }},
	}
	for _, ic := range iriValued {
		rows, err := scanTriples(store, ic.predicate)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			iri, err := requireIRI(row.Object)
			if err != nil {
				return nil, err
			}
			add(row.Subject, ic.build(iri))
		}
	}

	nkRows, err := scanTriples(store, iriNodeKind)
	if err != nil {
		return nil, err
	}
	for _, row := range nkRows {
		iri, err := requireIRI(row.Object)
		if err != nil {
			return nil, err
		}
		nk, ok := nodeKindFromIRI(iri)
		if !ok {
			return nil, NewShapeErrorf(ErrInvalidNodeKind, "unknown sh:nodeKind %q", iri)
		}
		add(row.Subject, NodeKindConstraint{NodeKind: nk})
	}

	intValued := []struct {
		predicate string
		build     func(int) Constraint
	}{
		{iriMinCount, func(n int) Constraint { return MinCountConstraint{Min: n} }},
		{iriMaxCount, func(n int) Constraint { return MaxCountConstraint{Max: n} }},
		{iriMinLength, func(n int) Constraint { return MinLengthConstraint{Min: n} }},
		{iriMaxLength, func(n int) Constraint { return MaxLengthConstraint{Max: n} }},
	}
	for _, ic := range intValued {
		rows, err := scanTriples(store, ic.predicate)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			n, err := parseInt(row.Object, row.Subject)
			if err != nil {
				return nil, err
			}
			add(row.Subject, ic.build(n))
		}
	}

	minExRows, err := scanTriples(store, iriMinExclusive)
	if err != nil {
		return nil, err
	}
	for _, row := range minExRows {
		add(row.Subject, MinExclusiveConstraint{Value: row.Object})
	}
	maxExRows, err := scanTriples(store, iriMaxExclusive)
	if err != nil {
		return nil, err
	}
	for _, row := range maxExRows {
		add(row.Subject, MaxExclusiveConstraint{Value: row.Object})
	}
	minInRows, err := scanTriples(store, iriMinInclusive)
	if err != nil {
		return nil, err
	}
	for _, row := range minInRows {
		add(row.Subject, MinInclusiveConstraint{Value: row.Object})
	}
	maxInRows, err := scanTriples(store, iriMaxInclusive)
	if err != nil {
		return nil, err
	}
	for _, row := range maxInRows {
		add(row.Subject, MaxInclusiveConstraint{Value: row.Object})
	}
	hasValueRows, err := scanTriples(store, iriHasValue)
	if err != nil {
		return nil, err
	}
	for _, row := range hasValueRows {
		add(row.Subject, HasValueConstraint{Value: row.Object})
	}

	flags, err := scanStringLiteral(store, iriFlags)
	if err != nil {
		return nil, err
	}
	patternRows, err := scanTriples(store, iriPattern)
	if err != nil {
		return nil, err
	}
	for _, row := range patternRows {
		add(row.Subject, PatternConstraint{Pattern: row.Object.Lexical, Flags: flags[row.Subject]})
	}

	uniqueLangRows, err := scanTriples(store, iriUniqueLang)
	if err != nil {
		return nil, err
	}
	for _, row := range uniqueLangRows {
		if row.Object.Lexical == "true" {
			add(row.Subject, UniqueLangConstraint{})
		}
	}

	closedRows, err := scanTriples(store, iriClosed)
	if err != nil {
		return nil, err
	}
	for _, row := range closedRows {
		add(row.Subject, ClosedConstraint{Closed: row.Object.Lexical == "true"})
	}

	refValued := []struct {
		predicate string
		build     func(string) Constraint
	}{
		{iriNot, func(s string) Constraint { return NotConstraint{Shape: s} }},
		{iriNode, func(s string) Constraint { return NodeConstraint{Shape: s} }},
	}
	for _, rc := range refValued {
		rows, err := scanTriples(store, rc.predicate)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			add(row.Subject, rc.build(termKey(row.Object)))
		}
	}

	listRefValued := []struct {
		predicate string
		build     func([]string) Constraint
	}{
		{iriAnd, func(ss []string) Constraint { return AndConstraint{Shapes: ss} }},
		{iriOr, func(ss []string) Constraint { return OrConstraint{Shapes: ss} }},
		{iriXone, func(ss []string) Constraint { return XoneConstraint{Shapes: ss} }},
	}
	for _, lc := range listRefValued {
		rows, err := scanTriples(store, lc.predicate)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			elems, err := readRDFList(termKey(row.Object), idx)
			if err != nil {
				return nil, err
			}
			refs := make([]string, 0, len(elems))
			for _, e := range elems {
				refs = append(refs, termKey(e))
			}
			add(row.Subject, lc.build(refs))
		}
	}

	langInRows, err := scanTriples(store, iriLanguageIn)
	if err != nil {
		return nil, err
	}
	for _, row := range langInRows {
		elems, err := readRDFList(termKey(row.Object), idx)
		if err != nil {
			return nil, err
		}
		langs := make([]string, 0, len(elems))
		for _, e := range elems {
			langs = append(langs, e.Lexical)
		}
		add(row.Subject, LanguageInConstraint{Langs: langs})
	}

	inRows, err := scanTriples(store, iriIn)
	if err != nil {
		return nil, err
	}
	for _, row := range inRows {
		elems, err := readRDFList(termKey(row.Object), idx)
		if err != nil {
			return nil, err
		}
		add(row.Subject, InConstraint{Values: elems})
	}

	ignoredRows, err := scanTriples(store, iriIgnoredProperties)
	if err != nil {
		return nil, err
	}
	for _, row := range ignoredRows {
		elems, err := readRDFList(termKey(row.Object), idx)
		if err != nil {
			return nil, err
		}
		props := make([]string, 0, len(elems))
		for _, e := range elems {
			iri, err := requireIRI(e)
			if err != nil {
				return nil, err
			}
			props = append(props, iri)
		}
		add(row.Subject, IgnoredPropertiesConstraint{Properties: props})
	}

	if err := compileQualified(store, add); err != nil {
		return nil, err
	}

	return out, nil
}

// compileQualified assembles sh:qualifiedValueShape together with its
// sibling sh:qualifiedMinCount/MaxCount/ValueShapesDisjoint triples
// into one QualifiedConstraint per subject.
func compileQualified(store catalog.Store, add func(string, Constraint)) error {
	valueShape := map[string]string{}
	rows, err := scanTriples(store, iriQualifiedValueShape)
	if err != nil {
		return err
	}
	for _, row := range rows {
		valueShape[row.Subject] = termKey(row.Object)
	}
	if len(valueShape) == 0 {
		return nil
	}

	minCount := map[string]int{}
	minRows, err := scanTriples(store, iriQualifiedMinCount)
	if err != nil {
		return err
	}
	for _, row := range minRows {
		n, err := parseInt(row.Object, row.Subject)
		if err != nil {
			return err
		}
		minCount[row.Subject] = n
	}

	maxCount := map[string]int{}
	maxRows, err := scanTriples(store, iriQualifiedMaxCount)
	if err != nil {
		return err
	}
	for _, row := range maxRows {
		n, err := parseInt(row.Object, row.Subject)
		if err != nil {
			return err
		}
		maxCount[row.Subject] = n
	}

	disjoint := map[string]bool{}
	disjRows, err := scanTriples(store, iriQualifiedValueShapesDisjoint)
	if err != nil {
		return err
	}
	for _, row := range disjRows {
		disjoint[row.Subject] = row.Object.Lexical == "true"
	}

	for subject, shape := range valueShape {
		qc := QualifiedConstraint{ValueShape: shape, Disjoint: disjoint[subject]}
		if n, ok := minCount[subject]; ok {
			n := n
			qc.MinCount = &n
		}
		if n, ok := maxCount[subject]; ok {
			n := n
			qc.MaxCount = &n
		}
		add(subject, qc)
	}
	return nil
}
