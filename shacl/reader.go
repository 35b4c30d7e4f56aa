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
	"github.com/badwolf-labs/colstore/rdf"
)

// ReadShapeGraph reconstructs every sh:NodeShape sitting in store's own
// triples into a typed NodeShape: find node-shape subjects, read their
// target declarations, build the "everything else" object-property
// index, reconstruct sh:path values through it, compile every
// constraint triple into a Constraint, then assemble node shapes from
// their sh:property links.
func ReadShapeGraph(store catalog.Store) ([]NodeShape, error) {
	nodeShapeSubjects, err := findNodeShapeSubjects(store)
	if err != nil {
		return nil, err
	}
	if len(nodeShapeSubjects) == 0 {
		return nil, nil
	}

	targets, err := readTargetDeclarations(store)
	if err != nil {
		return nil, err
	}

	idx, err := buildPropsIndex(store)
	if err != nil {
		return nil, err
	}

	pathRows, err := scanTriples(store, iriPath)
	if err != nil {
		return nil, err
	}
	pathBySubject, err := parsePathRows(pathRows, idx)
	if err != nil {
		return nil, err
	}

	names, err := scanStringLiteral(store, iriName)
	if err != nil {
		return nil, err
	}
	descriptions, err := scanStringLiteral(store, iriDesc)
	if err != nil {
		return nil, err
	}

	constraints, err := compileConstraints(store, idx)
	if err != nil {
		return nil, err
	}

	propertyLinks, err := readPropertyLinks(store)
	if err != nil {
		return nil, err
	}

	propShapeCache := map[string]PropertyShape{}
	buildPropertyShape := func(subject string) (PropertyShape, error) {
		if ps, ok := propShapeCache[subject]; ok {
			return ps, nil
		}
		path, ok := pathBySubject[subject]
		if !ok {
			return PropertyShape{}, NewShapeErrorf(ErrPropertyMissingPath, "property shape %s has no sh:path", subject)
		}
		ps := PropertyShape{
			Subject:     subject,
			Path:        path,
			Name:        names[subject],
			Description: descriptions[subject],
			Constraints: constraints[subject],
		}
		propShapeCache[subject] = ps
		return ps, nil
	}

	out := make([]NodeShape, 0, len(nodeShapeSubjects))
	for _, subject := range nodeShapeSubjects {
		propSubjects := propertyLinks[subject]
		if len(propSubjects) == 0 {
			return nil, NewShapeErrorf(ErrNodeShapeMissingProperties, "node shape %s has no sh:property", subject)
		}
		props := make([]PropertyShape, 0, len(propSubjects))
		for _, ps := range propSubjects {
			built, err := buildPropertyShape(ps)
			if err != nil {
				return nil, err
			}
			props = append(props, built)
		}
		out = append(out, NodeShape{
			Subject:    subject,
			Targets:    targets[subject],
			Properties: props,
		})
	}
	return out, nil
}

func findNodeShapeSubjects(store catalog.Store) ([]string, error) {
	rows, err := scanTriples(store, iriRDFType)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := map[string]bool{}
	for _, row := range rows {
		if row.Object.Type.Kind != rdf.KindIRI || row.Object.Lexical != iriNodeShape {
			continue
		}
		if !isBlankSubject(row.Subject) {
			continue
		}
		if seen[row.Subject] {
			continue
		}
		seen[row.Subject] = true
		out = append(out, row.Subject)
	}
	return out, nil
}

// readTargetDeclarations gathers every target declaration of every
// kind, keyed by the shape subject that carries it. sh:targetNode
// rows sharing a subject are folded into one TargetNodes entry per
// subject, whatever the datatypes of their objects.
func readTargetDeclarations(store catalog.Store) (map[string][]TargetDeclaration, error) {
	out := map[string][]TargetDeclaration{}

	nodeRows, err := scanTriples(store, iriTargetNode)
	if err != nil {
		return nil, err
	}
	grouped := map[string][]rdf.Term{}
	var order []string
	for _, row := range nodeRows {
		if _, seen := grouped[row.Subject]; !seen {
			order = append(order, row.Subject)
		}
		grouped[row.Subject] = append(grouped[row.Subject], row.Object)
	}
	for _, s := range order {
		out[s] = append(out[s], TargetNodes{Nodes: grouped[s]})
	}

	simple := []struct {
		predicate string
		build     func(string) TargetDeclaration
	}{
		{iriTargetClass, func(iri string) TargetDeclaration { return TargetClass{Class: iri} }},
		{iriTargetSubjectsOf, func(iri string) TargetDeclaration { return TargetSubjectsOf{Predicate: iri} }},
		{iriTargetObjectsOf, func(iri string) TargetDeclaration { return TargetObjectsOf{Predicate: iri} }},
	}
	for _, s := range simple {
		rows, err := scanTriples(store, s.predicate)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.Subject] = append(out[row.Subject], s.build(row.Object.Lexical))
		}
	}
	return out, nil
}

func readPropertyLinks(store catalog.Store) (map[string][]string, error) {
	rows, err := scanTriples(store, iriProperty)
	if err != nil {
		return nil, err
	}
	out := map[string][]string{}
	for _, row := range rows {
		out[row.Subject] = append(out[row.Subject], termKey(row.Object))
	}
	return out, nil
}

func requireIRI(t rdf.Term) (string, error) {
	if t.Type.Kind != rdf.KindIRI {
		return "", NewShapeErrorf(ErrIriParse, "expected an IRI, got %s %q", t.Type, t.Lexical)
	}
	return t.Lexical, nil
}

func parseInt(t rdf.Term, subject string) (int, error) {
	n, err := strconv.Atoi(t.Lexical)
	if err != nil {
		return 0, NewShapeErrorf(ErrTriplestore, "non-integer constraint value %q on %s", t.Lexical, subject)
	}
	return n, nil
}
