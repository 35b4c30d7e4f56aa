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

// NodeKind is the closed set sh:nodeKind may name.
type NodeKind uint8

const (
	NodeKindIRI NodeKind = iota
	NodeKindBlankNode
	NodeKindLiteral
	NodeKindBlankNodeOrIRI
	NodeKindBlankNodeOrLiteral
	NodeKindIRIOrLiteral
)

func nodeKindFromIRI(iri string) (NodeKind, bool) {
	switch iri {
	case iriNodeKindIRI:
		return NodeKindIRI, true
	case iriNodeKindBlankNode:
		return NodeKindBlankNode, true
	case iriNodeKindLiteral:
		return NodeKindLiteral, true
	case iriNodeKindBlankNodeOrIRI:
		return NodeKindBlankNodeOrIRI, true
	case iriNodeKindBlankNodeOrLiteral:
		return NodeKindBlankNodeOrLiteral, true
	case iriNodeKindIRIOrLiteral:
		return NodeKindIRIOrLiteral, true
	default:
		return 0, false
	}
}

// matches reports whether term's RDF kind is allowed by nk.
func (nk NodeKind) matches(t rdf.Term) bool {
	switch nk {
	case NodeKindIRI:
		return t.Type.Kind == rdf.KindIRI
	case NodeKindBlankNode:
		return t.Type.Kind == rdf.KindBlankNode
	case NodeKindLiteral:
		return t.Type.Kind == rdf.KindLiteral
	case NodeKindBlankNodeOrIRI:
		return t.Type.Kind == rdf.KindBlankNode || t.Type.Kind == rdf.KindIRI
	case NodeKindBlankNodeOrLiteral:
		return t.Type.Kind == rdf.KindBlankNode || t.Type.Kind == rdf.KindLiteral
	case NodeKindIRIOrLiteral:
		return t.Type.Kind == rdf.KindIRI || t.Type.Kind == rdf.KindLiteral
	default:
		return false
	}
}

// TargetDeclaration is the closed set of ways a NodeShape names its
// target nodes.
type TargetDeclaration interface{ isTarget() }

// TargetNodes carries the nodes named directly by one or more
// sh:targetNode triples on the same shape subject.
type TargetNodes struct{ Nodes []rdf.Term }

// TargetClass resolves to every subject of an rdf:type triple whose
// object is Class.
type TargetClass struct{ Class string }

// TargetSubjectsOf resolves to every subject of a Predicate triple.
type TargetSubjectsOf struct{ Predicate string }

// TargetObjectsOf resolves to every object of a Predicate triple.
type TargetObjectsOf struct{ Predicate string }

func (TargetNodes) isTarget()       {}
func (TargetClass) isTarget()       {}
func (TargetSubjectsOf) isTarget()  {}
func (TargetObjectsOf) isTarget()   {}

// Constraint is the closed set of supported SHACL constraint
// components. A PropertyShape carries zero or more of these.
type Constraint interface {
	isConstraint()
	// Kind names the constraint for a validation report row, matching
	// the SHACL component's own vocabulary name (e.g. "MinCount").
	Kind() string
}

type ClassConstraint struct{ Class string }
type DatatypeConstraint struct{ Datatype string }
type NodeKindConstraint struct{ NodeKind NodeKind }
type MinCountConstraint struct{ Min int }
type MaxCountConstraint struct{ Max int }
type MinExclusiveConstraint struct{ Value rdf.Term }
type MaxExclusiveConstraint struct{ Value rdf.Term }
type MinInclusiveConstraint struct{ Value rdf.Term }
type MaxInclusiveConstraint struct{ Value rdf.Term }
type MinLengthConstraint struct{ Min int }
type MaxLengthConstraint struct{ Max int }
type PatternConstraint struct {
	Pattern string
	Flags   string
}
type LanguageInConstraint struct{ Langs []string }
type UniqueLangConstraint struct{}
type EqualsConstraint struct{ Predicate string }
type DisjointConstraint struct{ Predicate string }
type LessThanConstraint struct{ Predicate string }
type LessThanOrEqualsConstraint struct{ Predicate string }

// NotConstraint, AndConstraint, OrConstraint and XoneConstraint refer
// to other shapes by their subject key (blank node id or IRI); the
// validator resolves the reference against the full set of NodeShapes
// read from the same store.
type NotConstraint struct{ Shape string }
type AndConstraint struct{ Shapes []string }
type OrConstraint struct{ Shapes []string }
type XoneConstraint struct{ Shapes []string }
type NodeConstraint struct{ Shape string }

// PropertyConstraint names a nested property shape subject; the reader
// never emits this variant itself (sh:property on a node shape is
// already folded into NodeShape.Properties in step 6), but it stays
// part of the closed set so a shape graph that nests sh:property
// inside another constraint's value shape still type-checks.
type PropertyConstraint struct{ Shape string }

type QualifiedConstraint struct {
	ValueShape string
	MinCount   *int
	MaxCount   *int
	Disjoint   bool
}
type ClosedConstraint struct{ Closed bool }
type IgnoredPropertiesConstraint struct{ Properties []string }
type HasValueConstraint struct{ Value rdf.Term }
type InConstraint struct{ Values []rdf.Term }

func (ClassConstraint) isConstraint()              {}
func (DatatypeConstraint) isConstraint()            {}
func (NodeKindConstraint) isConstraint()            {}
func (MinCountConstraint) isConstraint()            {}
func (MaxCountConstraint) isConstraint()            {}
func (MinExclusiveConstraint) isConstraint()        {}
func (MaxExclusiveConstraint) isConstraint()        {}
func (MinInclusiveConstraint) isConstraint()        {}
func (MaxInclusiveConstraint) isConstraint()        {}
func (MinLengthConstraint) isConstraint()           {}
func (MaxLengthConstraint) isConstraint()           {}
func (PatternConstraint) isConstraint()             {}
func (LanguageInConstraint) isConstraint()          {}
func (UniqueLangConstraint) isConstraint()          {}
func (EqualsConstraint) isConstraint()              {}
func (DisjointConstraint) isConstraint()            {}
func (LessThanConstraint) isConstraint()            {}
func (LessThanOrEqualsConstraint) isConstraint()    {}
func (NotConstraint) isConstraint()                 {}
func (AndConstraint) isConstraint()                 {}
func (OrConstraint) isConstraint()                  {}
func (XoneConstraint) isConstraint()                {}
func (NodeConstraint) isConstraint()                {}
func (PropertyConstraint) isConstraint()            {}
func (QualifiedConstraint) isConstraint()           {}
func (ClosedConstraint) isConstraint()              {}
func (IgnoredPropertiesConstraint) isConstraint()   {}
func (HasValueConstraint) isConstraint()            {}
func (InConstraint) isConstraint()                  {}

func (ClassConstraint) Kind() string            { return "Class" }
func (DatatypeConstraint) Kind() string         { return "Datatype" }
func (NodeKindConstraint) Kind() string         { return "NodeKind" }
func (MinCountConstraint) Kind() string         { return "MinCount" }
func (MaxCountConstraint) Kind() string         { return "MaxCount" }
func (MinExclusiveConstraint) Kind() string     { return "MinExclusive" }
func (MaxExclusiveConstraint) Kind() string     { return "MaxExclusive" }
func (MinInclusiveConstraint) Kind() string     { return "MinInclusive" }
func (MaxInclusiveConstraint) Kind() string     { return "MaxInclusive" }
func (MinLengthConstraint) Kind() string        { return "MinLength" }
func (MaxLengthConstraint) Kind() string        { return "MaxLength" }
func (PatternConstraint) Kind() string          { return "Pattern" }
func (LanguageInConstraint) Kind() string       { return "LanguageIn" }
func (UniqueLangConstraint) Kind() string       { return "UniqueLang" }
func (EqualsConstraint) Kind() string           { return "Equals" }
func (DisjointConstraint) Kind() string         { return "Disjoint" }
func (LessThanConstraint) Kind() string         { return "LessThan" }
func (LessThanOrEqualsConstraint) Kind() string { return "LessThanOrEquals" }
func (NotConstraint) Kind() string              { return "Not" }
func (AndConstraint) Kind() string              { return "And" }
func (OrConstraint) Kind() string               { return "Or" }
func (XoneConstraint) Kind() string              { return "Xone" }
func (NodeConstraint) Kind() string              { return "Node" }
func (PropertyConstraint) Kind() string          { return "Property" }
func (QualifiedConstraint) Kind() string         { return "Qualified" }
func (ClosedConstraint) Kind() string            { return "Closed" }
func (IgnoredPropertiesConstraint) Kind() string { return "IgnoredProperties" }
func (HasValueConstraint) Kind() string          { return "HasValue" }
func (InConstraint) Kind() string                { return "In" }

// PropertyShape is one sh:property entry of a NodeShape: a path to walk
// from the focus node, optional human-facing metadata, and the
// constraints every reached value node must satisfy.
type PropertyShape struct {
	Subject     string
	Path        sparql.Path
	Name        string
	Description string
	Constraints []Constraint
}

// NodeShape is a reconstructed sh:NodeShape: the blank node subject it
// was read from, its target declarations, and its property shapes.
type NodeShape struct {
	Subject    string
	Targets    []TargetDeclaration
	Properties []PropertyShape
}
