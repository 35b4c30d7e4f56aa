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

package ntriples

import (
	"bufio"
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/badwolf-labs/colstore/rdf"
)

func TestParse(t *testing.T) {
	table := []struct {
		line string
		want rdf.Triple
	}{
		{
			"<http://ex/a> <http://ex/p> <http://ex/b> .",
			rdf.Triple{Subject: rdf.NewIRI("http://ex/a"), Predicate: "http://ex/p", Object: rdf.NewIRI("http://ex/b")},
		},
		{
			"_:b0 <http://ex/p> _:b1 .",
			rdf.Triple{Subject: rdf.NewBlankNode("b0"), Predicate: "http://ex/p", Object: rdf.NewBlankNode("b1")},
		},
		{
			`<http://ex/a> <http://ex/age> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .`,
			rdf.Triple{Subject: rdf.NewIRI("http://ex/a"), Predicate: "http://ex/age", Object: rdf.NewLiteral("42", rdf.XSDInteger)},
		},
		{
			`<http://ex/a> <http://ex/label> "bonjour"@fr .`,
			rdf.Triple{Subject: rdf.NewIRI("http://ex/a"), Predicate: "http://ex/label", Object: rdf.NewLangString("bonjour", "fr")},
		},
		{
			`<http://ex/a> <http://ex/label> "say \"hi\"" .`,
			rdf.Triple{Subject: rdf.NewIRI("http://ex/a"), Predicate: "http://ex/label", Object: rdf.NewLiteral(`say "hi"`, rdf.XSDString)},
		},
	}
	for _, entry := range table {
		got, err := Parse(entry.line)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", entry.line, err)
			continue
		}
		if !reflect.DeepEqual(got, entry.want) {
			t.Errorf("Parse(%q) = %+v, want %+v", entry.line, got, entry.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	table := []string{
		"<http://ex/a> <http://ex/p> <http://ex/b>",        // missing dot
		`"literal" <http://ex/p> <http://ex/b> .`,          // literal subject
		"<http://ex/a> _:b <http://ex/b> .",                // blank predicate
		"<http://ex/a <http://ex/p> <http://ex/b> .",       // unterminated IRI
		`<http://ex/a> <http://ex/p> "unterminated .`,      // unterminated literal
	}
	for _, line := range table {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) should have failed", line)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	triples := []rdf.Triple{
		{Subject: rdf.NewIRI("http://ex/a"), Predicate: "http://ex/p", Object: rdf.NewIRI("http://ex/b")},
		{Subject: rdf.NewBlankNode("b0"), Predicate: "http://ex/p", Object: rdf.NewLiteral("7", rdf.XSDInteger)},
		{Subject: rdf.NewIRI("http://ex/a"), Predicate: "http://ex/label", Object: rdf.NewLangString("hei", "no")},
	}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := Write(w, triples); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	w.Flush()
	got, err := Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !reflect.DeepEqual(got, triples) {
		t.Errorf("round trip = %+v, want %+v", got, triples)
	}
}

func TestReadSkipsBlankAndCommentLines(t *testing.T) {
	in := "\n# a comment\n<http://ex/a> <http://ex/p> <http://ex/b> .\n\n"
	got, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Read returned %d triples, want 1", len(got))
	}
}
