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

package sparql

import "github.com/badwolf-labs/colstore/rdf"

// Slot is one position of a triple pattern: either a variable to bind
// or a fixed RDF term to match against.
type Slot struct {
	Variable string
	Value    rdf.Term
}

// VarSlot builds a variable slot.
func VarSlot(name string) Slot { return Slot{Variable: name} }

// BoundSlot builds a fixed-term slot.
func BoundSlot(t rdf.Term) Slot { return Slot{Value: t} }

// IsVariable reports whether the slot binds a variable rather than
// matching a fixed term.
func (s Slot) IsVariable() bool { return s.Variable != "" }

// Pattern is the closed set of SPARQL algebra nodes sparqlparse
// produces and Evaluate consumes.
type Pattern interface{ isPattern() }

// TriplePattern matches Subject Predicate Object against the store.
type TriplePattern struct {
	Subject, Predicate, Object Slot
}

// BGP is a basic graph pattern: an ordered conjunction of triple
// patterns and property paths, joined left to right.
type BGP struct {
	Patterns []Pattern // TriplePattern or PropertyPathPattern
}

// PropertyPathPattern matches Subject (Path) Object.
type PropertyPathPattern struct {
	Subject, Object Slot
	Path            Path
}

// Join is an inner join on every variable Left and Right share.
type Join struct{ Left, Right Pattern }

// LeftJoin is SPARQL OPTIONAL: every Left row is kept, Right columns
// are null where Cond (if non-nil) rejects the match or no match
// exists.
type LeftJoin struct {
	Left, Right Pattern
	Cond        Expr
}

// Minus removes Left rows that share at least one joint-variable
// binding with a Right row (SPARQL MINUS).
type Minus struct{ Left, Right Pattern }

// UnionPattern is SPARQL UNION.
type UnionPattern struct{ Left, Right Pattern }

// FilterPattern keeps only Inner rows where Cond evaluates true.
type FilterPattern struct {
	Inner Pattern
	Cond  Expr
}

// Extend is SPARQL BIND: adds a column Var computed from Expr.
type Extend struct {
	Inner Pattern
	Var   string
	Expr  Expr
}

// OrderKey is one ORDER BY term.
type OrderKey struct {
	Var  string
	Desc bool
}

// OrderBy sorts Inner by Keys, in order, ties broken by the next key.
type OrderBy struct {
	Inner Pattern
	Keys  []OrderKey
}

// Project keeps only Vars, in order.
type Project struct {
	Inner Pattern
	Vars  []string
}

// Distinct removes duplicate rows from Inner (after projection).
type Distinct struct{ Inner Pattern }

// Slice applies OFFSET/LIMIT; Limit < 0 means unbounded.
type Slice struct {
	Inner        Pattern
	Offset       int
	Limit        int
}

// Values is the SPARQL VALUES clause: an inline table of Vars bound to
// Rows, each cell either a ground term or nil for UNDEF.
type Values struct {
	Vars []string
	Rows [][]*rdf.Term
}

// GroupBy partitions Inner by Keys and computes Aggregates per group.
type GroupBy struct {
	Inner      Pattern
	Keys       []string
	Aggregates []Aggregate
}

// Aggregate is one SELECT aggregate expression, e.g. (COUNT(?x) AS ?n).
type Aggregate struct {
	Func string // "COUNT", "SUM", "AVG", "MIN", "MAX", "SAMPLE"
	Var  string // input variable; "" + Func=="COUNT" means COUNT(*)
	As   string // output variable name
}

func (TriplePattern) isPattern()       {}
func (BGP) isPattern()                 {}
func (PropertyPathPattern) isPattern() {}
func (Join) isPattern()                {}
func (LeftJoin) isPattern()            {}
func (Minus) isPattern()               {}
func (UnionPattern) isPattern()        {}
func (FilterPattern) isPattern()       {}
func (Extend) isPattern()              {}
func (OrderBy) isPattern()             {}
func (Project) isPattern()             {}
func (Distinct) isPattern()            {}
func (Slice) isPattern()               {}
func (Values) isPattern()              {}
func (GroupBy) isPattern()             {}

// Path is the closed set of SPARQL 1.1 property path expressions.
type Path interface{ isPath() }

// PathIRI is a single predicate step.
type PathIRI struct{ IRI string }

// PathInverse reverses Inner (the "^" operator).
type PathInverse struct{ Inner Path }

// PathSeq is Left "/" Right.
type PathSeq struct{ Left, Right Path }

// PathAlt is Left "|" Right.
type PathAlt struct{ Left, Right Path }

// PathZeroOrMore is Inner "*".
type PathZeroOrMore struct{ Inner Path }

// PathOneOrMore is Inner "+".
type PathOneOrMore struct{ Inner Path }

// PathZeroOrOne is Inner "?".
type PathZeroOrOne struct{ Inner Path }

func (PathIRI) isPath()         {}
func (PathInverse) isPath()     {}
func (PathSeq) isPath()         {}
func (PathAlt) isPath()         {}
func (PathZeroOrMore) isPath()  {}
func (PathOneOrMore) isPath()   {}
func (PathZeroOrOne) isPath()   {}

// ConstructTemplate is one triple pattern of a CONSTRUCT clause; its
// slots may reference variables bound by the WHERE pattern or fixed
// terms, same as a TriplePattern.
type ConstructTemplate struct {
	Subject, Predicate, Object Slot
}

// Query is a complete parsed query: the WHERE pattern plus, for
// CONSTRUCT queries, the template to instantiate per solution.
type Query struct {
	Where     Pattern
	Construct []ConstructTemplate
}
