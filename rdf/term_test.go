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

package rdf

import "testing"

func TestTermString(t *testing.T) {
	table := []struct {
		term Term
		want string
	}{
		{NewIRI("http://example.com/a"), "<http://example.com/a>"},
		{NewBlankNode("b0"), "_:b0"},
		{NewLiteral("42", XSDInteger), `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{NewLiteral("hello", XSDString), `"hello"^^<http://www.w3.org/2001/XMLSchema#string>`},
		{NewLangString("bonjour", "fr"), `"bonjour"@fr`},
		{NewLiteral(`say "hi"`, XSDString), `"say \"hi\""^^<http://www.w3.org/2001/XMLSchema#string>`},
		{NewLiteral("line\nbreak", XSDString), `"line\nbreak"^^<http://www.w3.org/2001/XMLSchema#string>`},
	}
	for _, entry := range table {
		if got := entry.term.String(); got != entry.want {
			t.Errorf("Term.String() = %q, want %q", got, entry.want)
		}
	}
}

func TestTermNative(t *testing.T) {
	table := []struct {
		term Term
		want interface{}
	}{
		{NewIRI("http://example.com/a"), "http://example.com/a"},
		{NewLiteral("42", XSDInteger), int64(42)},
		{NewLiteral("2.5", XSDDouble), 2.5},
		{NewLiteral("true", XSDBoolean), true},
		{NewLiteral("plain", XSDString), "plain"},
	}
	for _, entry := range table {
		got, err := entry.term.Native()
		if err != nil {
			t.Errorf("Term.Native(%v) failed: %v", entry.term, err)
			continue
		}
		if got != entry.want {
			t.Errorf("Term.Native(%v) = %v (%T), want %v (%T)", entry.term, got, got, entry.want, entry.want)
		}
	}
}

func TestTermNativeParseError(t *testing.T) {
	if _, err := NewLiteral("not a number", XSDInteger).Native(); err == nil {
		t.Errorf("Native on a malformed integer literal should have failed")
	}
}

func TestNodeTypeEqual(t *testing.T) {
	table := []struct {
		a, b NodeType
		want bool
	}{
		{IRI, IRI, true},
		{IRI, BlankNode, false},
		{Literal(XSDInteger), Literal(XSDInteger), true},
		{Literal(XSDInteger), Literal(XSDDouble), false},
		{None, None, true},
		{None, IRI, false},
	}
	for _, entry := range table {
		if got := entry.a.Equal(entry.b); got != entry.want {
			t.Errorf("(%v).Equal(%v) = %v, want %v", entry.a, entry.b, got, entry.want)
		}
	}
}

func TestIsStringColumn(t *testing.T) {
	table := []struct {
		nt   NodeType
		want bool
	}{
		{IRI, true},
		{BlankNode, true},
		{None, true},
		{Literal(XSDString), true},
		{LangString(), true},
		{Literal(XSDInteger), false},
		{Literal(XSDDouble), false},
		{Literal(XSDBoolean), false},
	}
	for _, entry := range table {
		if got := IsStringColumn(entry.nt); got != entry.want {
			t.Errorf("IsStringColumn(%v) = %v, want %v", entry.nt, got, entry.want)
		}
	}
}
