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

package sparqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/badwolf-labs/colstore/rdf"
	"github.com/badwolf-labs/colstore/sparql"
)

// QueryType discriminates the two supported query forms.
type QueryType int

const (
	QuerySelect QueryType = iota
	QueryConstruct
)

// Query is everything Parse recovers from query text: the WHERE
// pattern ready for sparql.Evaluate, and — for CONSTRUCT — the
// template triples to instantiate per solution.
type Query struct {
	Type      QueryType
	Where     sparql.Pattern
	Construct []sparql.ConstructTemplate
}

// parseError is panicked by the recursive-descent helpers below and
// recovered at the Parse boundary, the same "panic inside, recover at
// the top" shape bql/grammar/parser.go uses so every production rule
// doesn't have to thread an error return through every call.
type parseError struct{ err error }

// Parse lexes and parses a single SPARQL SELECT or CONSTRUCT query,
// covering BGPs, OPTIONAL, FILTER, BIND, MINUS, UNION, ORDER BY,
// LIMIT, OFFSET and DISTINCT. Full SPARQL 1.1 property-path syntax and
// the aggregation grammar are out of scope for the text front end (the
// corresponding algebra nodes can still be built directly).
func Parse(text string) (*Query, error) {
	toks, err := Lex(text)
	if err != nil {
		return nil, fmt.Errorf("sparqlparse: %w", err)
	}
	p := &parser{toks: toks, prefixes: map[string]string{}}
	var q *Query
	if perr := func() (perr error) {
		defer func() {
			if r := recover(); r != nil {
				pe, ok := r.(parseError)
				if !ok {
					panic(r)
				}
				perr = pe.err
			}
		}()
		p.parsePrologue()
		q = p.parseQuery()
		return nil
	}(); perr != nil {
		return nil, fmt.Errorf("sparqlparse: %w", perr)
	}
	return q, nil
}

type parser struct {
	toks     []Token
	pos      int
	prefixes map[string]string
}

func (p *parser) errorf(format string, args ...interface{}) {
	panic(parseError{err: fmt.Errorf(format, args...)})
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(t Token, word string) bool {
	return t.Type == TokKeyword && t.Text == word
}

func (p *parser) acceptKeyword(word string) bool {
	if p.isKeyword(p.peek(), word) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectKeyword(word string) {
	if !p.acceptKeyword(word) {
		p.errorf("expected %q, got %q", word, p.peek().Text)
	}
}

func (p *parser) acceptPunct(text string) bool {
	if t := p.peek(); t.Type == TokPunct && t.Text == text {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectPunct(text string) {
	if !p.acceptPunct(text) {
		p.errorf("expected %q, got %q", text, p.peek().Text)
	}
}

func (p *parser) expectVar() string {
	t := p.peek()
	if t.Type != TokVar {
		p.errorf("expected variable, got %q", t.Text)
	}
	p.next()
	return t.Text
}

// parsePrologue consumes the leading "PREFIX label: <iri>" declarations.
func (p *parser) parsePrologue() {
	for p.acceptKeyword("PREFIX") {
		t := p.peek()
		if t.Type != TokPrefixedName || !strings.HasSuffix(t.Text, ":") {
			p.errorf("expected prefix label, got %q", t.Text)
		}
		p.next()
		label := strings.TrimSuffix(t.Text, ":")
		iri := p.peek()
		if iri.Type != TokIRI {
			p.errorf("expected IRI after PREFIX %s:, got %q", label, iri.Text)
		}
		p.next()
		p.prefixes[label] = iri.Text
	}
}

func (p *parser) parseQuery() *Query {
	switch {
	case p.isKeyword(p.peek(), "SELECT"):
		return p.parseSelect()
	case p.isKeyword(p.peek(), "CONSTRUCT"):
		return p.parseConstruct()
	default:
		p.errorf("expected SELECT or CONSTRUCT, got %q", p.peek().Text)
		return nil
	}
}

func (p *parser) parseSelect() *Query {
	p.expectKeyword("SELECT")
	distinct := p.acceptKeyword("DISTINCT")
	star := false
	var vars []string
	if t := p.peek(); t.Type == TokOperator && t.Text == "*" {
		p.next()
		star = true
	} else {
		for p.peek().Type == TokVar {
			vars = append(vars, p.next().Text)
		}
		if len(vars) == 0 {
			p.errorf("expected select variable list or *, got %q", p.peek().Text)
		}
	}
	p.acceptKeyword("WHERE")
	pattern := p.parseGroupGraphPattern()
	pattern = p.parseSolutionModifiers(pattern)
	if !star {
		pattern = sparql.Project{Inner: pattern, Vars: vars}
	}
	if distinct {
		pattern = sparql.Distinct{Inner: pattern}
	}
	return &Query{Type: QuerySelect, Where: pattern}
}

func (p *parser) parseConstruct() *Query {
	p.expectKeyword("CONSTRUCT")
	p.expectPunct("{")
	triples := p.parseTriplesList(func(t Token) bool {
		return t.Type == TokPunct && t.Text == "}"
	})
	p.expectPunct("}")
	p.acceptKeyword("WHERE")
	where := p.parseGroupGraphPattern()
	where = p.parseSolutionModifiers(where)
	templates := make([]sparql.ConstructTemplate, len(triples))
	for i, t := range triples {
		templates[i] = sparql.ConstructTemplate{Subject: t.subject, Predicate: t.predicate, Object: t.object}
	}
	return &Query{Type: QueryConstruct, Where: where, Construct: templates}
}

func (p *parser) parseSolutionModifiers(pattern sparql.Pattern) sparql.Pattern {
	if p.acceptKeyword("ORDER") {
		p.expectKeyword("BY")
		var keys []sparql.OrderKey
		for {
			t := p.peek()
			desc := false
			if p.acceptKeyword("ASC") {
			} else if p.isKeyword(t, "DESC") {
				p.next()
				desc = true
			}
			var v string
			if p.acceptPunct("(") {
				v = p.expectVar()
				p.expectPunct(")")
			} else {
				v = p.expectVar()
			}
			keys = append(keys, sparql.OrderKey{Var: v, Desc: desc})
			nt := p.peek()
			if nt.Type == TokVar || p.isKeyword(nt, "ASC") || p.isKeyword(nt, "DESC") || (nt.Type == TokPunct && nt.Text == "(") {
				continue
			}
			break
		}
		pattern = sparql.OrderBy{Inner: pattern, Keys: keys}
	}
	limit, offset := -1, 0
	hasSlice := false
	if p.acceptKeyword("LIMIT") {
		limit = p.expectInt()
		hasSlice = true
	}
	if p.acceptKeyword("OFFSET") {
		offset = p.expectInt()
		hasSlice = true
	}
	if hasSlice {
		pattern = sparql.Slice{Inner: pattern, Offset: offset, Limit: limit}
	}
	return pattern
}

func (p *parser) expectInt() int {
	t := p.peek()
	if t.Type != TokNumber {
		p.errorf("expected integer, got %q", t.Text)
	}
	p.next()
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		p.errorf("invalid integer %q", t.Text)
	}
	return n
}

// parseGroupGraphPattern consumes "{ ... }" and any "UNION { ... }"
// continuations chained onto it.
func (p *parser) parseGroupGraphPattern() sparql.Pattern {
	p.expectPunct("{")
	acc := p.parseGroupGraphPatternSub()
	p.expectPunct("}")
	for p.acceptKeyword("UNION") {
		right := p.parseGroupGraphPattern()
		acc = sparql.UnionPattern{Left: acc, Right: right}
	}
	return acc
}

func (p *parser) parseGroupGraphPatternSub() sparql.Pattern {
	var acc sparql.Pattern
	started := false
	join := func(next sparql.Pattern) {
		if !started {
			acc = next
			started = true
			return
		}
		acc = sparql.Join{Left: acc, Right: next}
	}
	ensureStarted := func() {
		if !started {
			acc = sparql.BGP{}
			started = true
		}
	}
	for {
		t := p.peek()
		if t.Type == TokPunct && t.Text == "}" {
			break
		}
		if t.Type == TokEOF {
			p.errorf("unexpected end of query inside group graph pattern")
		}
		switch {
		case t.Type == TokPunct && t.Text == "{":
			join(p.parseGroupGraphPattern())
		case p.isKeyword(t, "OPTIONAL"):
			p.next()
			inner := p.parseGroupGraphPattern()
			ensureStarted()
			acc = sparql.LeftJoin{Left: acc, Right: inner}
		case p.isKeyword(t, "MINUS"):
			p.next()
			inner := p.parseGroupGraphPattern()
			ensureStarted()
			acc = sparql.Minus{Left: acc, Right: inner}
		case p.isKeyword(t, "FILTER"):
			p.next()
			cond := p.parseConstraint()
			ensureStarted()
			acc = sparql.FilterPattern{Inner: acc, Cond: cond}
		case p.isKeyword(t, "BIND"):
			p.next()
			p.expectPunct("(")
			expr := p.parseExpr()
			p.expectKeyword("AS")
			v := p.expectVar()
			p.expectPunct(")")
			ensureStarted()
			acc = sparql.Extend{Inner: acc, Var: v, Expr: expr}
		default:
			triples := p.parseTriplesList(p.isBlockTerminator)
			for _, tr := range triples {
				join(sparql.TriplePattern{Subject: tr.subject, Predicate: tr.predicate, Object: tr.object})
			}
		}
		p.acceptPunct(".")
	}
	ensureStarted()
	return acc
}

func (p *parser) isBlockTerminator(t Token) bool {
	if t.Type == TokPunct && (t.Text == "}" || t.Text == "{") {
		return true
	}
	if t.Type == TokEOF {
		return true
	}
	switch t.Text {
	case "OPTIONAL", "MINUS", "FILTER", "BIND", "UNION":
		return t.Type == TokKeyword
	}
	return false
}

// parseConstraint parses a FILTER argument: either a fully
// parenthesized expression or a bare built-in call.
func (p *parser) parseConstraint() sparql.Expr {
	if t := p.peek(); t.Type == TokPunct && t.Text == "(" {
		p.next()
		e := p.parseExpr()
		p.expectPunct(")")
		return e
	}
	return p.parsePrimary()
}

type tripleSlots struct {
	subject, predicate, object sparql.Slot
}

func (p *parser) parseTriplesList(stop func(Token) bool) []tripleSlots {
	var out []tripleSlots
	for !stop(p.peek()) {
		out = append(out, p.parseTriplesSameSubject()...)
		if !p.acceptPunct(".") {
			break
		}
	}
	return out
}

func (p *parser) parseTriplesSameSubject() []tripleSlots {
	subj := p.parseVarOrTerm()
	var out []tripleSlots
	for {
		pred := p.parseVerb()
		objs := p.parseObjectList()
		for _, o := range objs {
			out = append(out, tripleSlots{subject: subj, predicate: pred, object: o})
		}
		if !p.acceptPunct(";") {
			break
		}
	}
	return out
}

func (p *parser) parseVerb() sparql.Slot {
	if p.isKeyword(p.peek(), "A") {
		p.next()
		return sparql.BoundSlot(rdf.NewIRI(rdf.RDFType))
	}
	return p.parseVarOrTerm()
}

func (p *parser) parseObjectList() []sparql.Slot {
	out := []sparql.Slot{p.parseVarOrTerm()}
	for p.acceptPunct(",") {
		out = append(out, p.parseVarOrTerm())
	}
	return out
}

func (p *parser) parseVarOrTerm() sparql.Slot {
	t := p.next()
	switch t.Type {
	case TokVar:
		return sparql.VarSlot(t.Text)
	case TokIRI:
		return sparql.BoundSlot(rdf.NewIRI(t.Text))
	case TokPrefixedName:
		return sparql.BoundSlot(rdf.NewIRI(p.resolvePrefixed(t.Text)))
	case TokString:
		return sparql.BoundSlot(literalTerm(t))
	case TokNumber:
		return sparql.BoundSlot(numberTerm(t.Text))
	case TokBoolean:
		return sparql.BoundSlot(rdf.NewLiteral(strings.ToLower(t.Text), rdf.XSDBoolean))
	default:
		p.errorf("expected a term, got %q", t.Text)
		return sparql.Slot{}
	}
}

func (p *parser) resolvePrefixed(text string) string {
	idx := strings.IndexByte(text, ':')
	if idx < 0 {
		p.errorf("malformed prefixed name %q", text)
	}
	label, local := text[:idx], text[idx+1:]
	base, ok := p.prefixes[label]
	if !ok {
		p.errorf("undeclared prefix %q", label)
	}
	return base + local
}

func literalTerm(t Token) rdf.Term {
	if t.Lang != "" {
		return rdf.NewLangString(t.Value, t.Lang)
	}
	if t.Datatype != "" {
		return rdf.NewLiteral(t.Value, t.Datatype)
	}
	return rdf.NewLiteral(t.Value, rdf.XSDString)
}

func numberTerm(text string) rdf.Term {
	if strings.Contains(text, ".") {
		return rdf.NewLiteral(text, rdf.XSDDouble)
	}
	return rdf.NewLiteral(text, rdf.XSDInteger)
}

// --- expressions (FILTER / BIND), precedence lowest to highest ---

func (p *parser) parseExpr() sparql.Expr { return p.parseOr() }

func (p *parser) parseOr() sparql.Expr {
	left := p.parseAnd()
	for p.peek().Type == TokOperator && p.peek().Text == "||" {
		p.next()
		left = sparql.BinExpr{Op: "||", Left: left, Right: p.parseAnd()}
	}
	return left
}

func (p *parser) parseAnd() sparql.Expr {
	left := p.parseComparison()
	for p.peek().Type == TokOperator && p.peek().Text == "&&" {
		p.next()
		left = sparql.BinExpr{Op: "&&", Left: left, Right: p.parseComparison()}
	}
	return left
}

var comparisonOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() sparql.Expr {
	left := p.parseAdditive()
	if t := p.peek(); t.Type == TokOperator && comparisonOps[t.Text] {
		p.next()
		return sparql.BinExpr{Op: t.Text, Left: left, Right: p.parseAdditive()}
	}
	return left
}

func (p *parser) parseAdditive() sparql.Expr {
	left := p.parseMultiplicative()
	for {
		t := p.peek()
		if t.Type == TokOperator && (t.Text == "+" || t.Text == "-") {
			p.next()
			left = sparql.BinExpr{Op: t.Text, Left: left, Right: p.parseMultiplicative()}
			continue
		}
		break
	}
	return left
}

func (p *parser) parseMultiplicative() sparql.Expr {
	left := p.parseUnary()
	for {
		t := p.peek()
		if t.Type == TokOperator && (t.Text == "*" || t.Text == "/") {
			p.next()
			left = sparql.BinExpr{Op: t.Text, Left: left, Right: p.parseUnary()}
			continue
		}
		break
	}
	return left
}

func (p *parser) parseUnary() sparql.Expr {
	t := p.peek()
	if t.Type == TokOperator && (t.Text == "!" || t.Text == "-") {
		p.next()
		return sparql.UnaryExpr{Op: t.Text, Inner: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() sparql.Expr {
	t := p.peek()
	switch t.Type {
	case TokVar:
		p.next()
		return sparql.VarExpr{Name: t.Text}
	case TokNumber:
		p.next()
		return sparql.LitExpr{Value: numberTerm(t.Text)}
	case TokBoolean:
		p.next()
		return sparql.LitExpr{Value: rdf.NewLiteral(strings.ToLower(t.Text), rdf.XSDBoolean)}
	case TokString:
		p.next()
		return sparql.LitExpr{Value: literalTerm(t)}
	case TokIRI:
		p.next()
		return sparql.LitExpr{Value: rdf.NewIRI(t.Text)}
	case TokPrefixedName:
		p.next()
		return sparql.LitExpr{Value: rdf.NewIRI(p.resolvePrefixed(t.Text))}
	case TokPunct:
		if t.Text == "(" {
			p.next()
			e := p.parseExpr()
			p.expectPunct(")")
			return e
		}
	case TokKeyword:
		name := t.Text
		if name == "BOUND" {
			p.next()
			p.expectPunct("(")
			v := p.expectVar()
			p.expectPunct(")")
			return sparql.BoundExpr{Var: v}
		}
		p.next()
		p.expectPunct("(")
		var args []sparql.Expr
		if !(p.peek().Type == TokPunct && p.peek().Text == ")") {
			args = append(args, p.parseExpr())
			for p.acceptPunct(",") {
				args = append(args, p.parseExpr())
			}
		}
		p.expectPunct(")")
		return sparql.CallExpr{Name: name, Args: args}
	}
	p.errorf("unexpected token %q in expression", t.Text)
	return nil
}
