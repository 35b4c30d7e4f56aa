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

package shacl_test

import (
	"fmt"
	"sort"
	"testing"

	"github.com/badwolf-labs/colstore/frame"
)

// reportRows renders a validation report frame as sorted
// "focus|constraint|value" strings.
func reportRows(t *testing.T, f *frame.Frame) []string {
	t.Helper()
	out := make([]string, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		row := f.Row(i)
		out = append(out, fmt.Sprintf("%v|%v|%v", row["focus"], row["constraint"], row["value"]))
	}
	sort.Strings(out)
	return out
}

func TestValidateMinCountAndDatatype(t *testing.T) {
	s := loadStore(t, `
_:ns <`+rdfns+`type> <`+sh+`NodeShape> .
_:ns <`+sh+`targetClass> <http://ex/Person> .
_:ns <`+sh+`property> _:ps .
_:ps <`+sh+`path> <http://ex/age> .
_:ps <`+sh+`minCount> "1"^^<`+xsd+`integer> .
_:ps <`+sh+`datatype> <`+xsd+`integer> .
<http://ex/alice> <`+rdfns+`type> <http://ex/Person> .
<http://ex/bob> <`+rdfns+`type> <http://ex/Person> .
<http://ex/alice> <http://ex/age> "42"^^<`+xsd+`integer> .
`)
	report, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	got := reportRows(t, report)
	want := []string{"http://ex/bob|MinCount|"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("report = %v, want %v", got, want)
	}
}

func TestValidateDatatypeViolation(t *testing.T) {
	s := loadStore(t, `
_:ns <`+rdfns+`type> <`+sh+`NodeShape> .
_:ns <`+sh+`targetClass> <http://ex/Person> .
_:ns <`+sh+`property> _:ps .
_:ps <`+sh+`path> <http://ex/age> .
_:ps <`+sh+`datatype> <`+xsd+`integer> .
<http://ex/carol> <`+rdfns+`type> <http://ex/Person> .
<http://ex/carol> <http://ex/age> "young" .
`)
	report, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	got := reportRows(t, report)
	if len(got) != 1 {
		t.Fatalf("report = %v, want exactly one Datatype violation", got)
	}
	want := `http://ex/carol|Datatype|"young"^^<` + xsd + `string>`
	if got[0] != want {
		t.Errorf("report row = %q, want %q", got[0], want)
	}
}

func TestValidateMaxCountOverPath(t *testing.T) {
	s := loadStore(t, `
_:ns <`+rdfns+`type> <`+sh+`NodeShape> .
_:ns <`+sh+`targetNode> <http://ex/root> .
_:ns <`+sh+`property> _:ps .
_:ps <`+sh+`path> _:b .
_:b <`+sh+`zeroOrMorePath> <http://ex/child> .
_:ps <`+sh+`maxCount> "2"^^<`+xsd+`integer> .
<http://ex/root> <http://ex/child> <http://ex/c1> .
<http://ex/c1> <http://ex/child> <http://ex/c2> .
`)
	report, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	// child* from root reaches root, c1 and c2: three values, max 2.
	got := reportRows(t, report)
	if len(got) != 1 {
		t.Fatalf("report = %v, want exactly one MaxCount violation", got)
	}
	if got[0] != "http://ex/root|MaxCount|" {
		t.Errorf("report row = %q, want root MaxCount", got[0])
	}
}

func TestValidateClassAndIn(t *testing.T) {
	s := loadStore(t, `
_:ns <`+rdfns+`type> <`+sh+`NodeShape> .
_:ns <`+sh+`targetSubjectsOf> <http://ex/knows> .
_:ns <`+sh+`property> _:ps .
_:ps <`+sh+`path> <http://ex/knows> .
_:ps <`+sh+`class> <http://ex/Person> .
_:ns <`+sh+`property> _:ps2 .
_:ps2 <`+sh+`path> <http://ex/status> .
_:ps2 <`+sh+`in> _:l1 .
_:l1 <`+rdfns+`first> "active" .
_:l1 <`+rdfns+`rest> _:l2 .
_:l2 <`+rdfns+`first> "retired" .
_:l2 <`+rdfns+`rest> <`+rdfns+`nil> .
<http://ex/alice> <http://ex/knows> <http://ex/bob> .
<http://ex/alice> <http://ex/status> "missing" .
<http://ex/bob> <`+rdfns+`type> <http://ex/OtherThing> .
`)
	report, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	got := reportRows(t, report)
	want := []string{
		`http://ex/alice|Class|<http://ex/bob>`,
		`http://ex/alice|In|"missing"^^<` + xsd + `string>`,
	}
	if len(got) != len(want) {
		t.Fatalf("report = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValidatePattern(t *testing.T) {
	s := loadStore(t, `
_:ns <`+rdfns+`type> <`+sh+`NodeShape> .
_:ns <`+sh+`targetNode> <http://ex/a> .
_:ns <`+sh+`property> _:ps .
_:ps <`+sh+`path> <http://ex/code> .
_:ps <`+sh+`pattern> "^[A-Z]{3}$" .
<http://ex/a> <http://ex/code> "ABC" .
<http://ex/a> <http://ex/code> "nope" .
`)
	report, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	got := reportRows(t, report)
	if len(got) != 1 {
		t.Fatalf("report = %v, want exactly one Pattern violation", got)
	}
	want := `http://ex/a|Pattern|"nope"^^<` + xsd + `string>`
	if got[0] != want {
		t.Errorf("report row = %q, want %q", got[0], want)
	}
}

func TestValidateConformingGraphIsEmpty(t *testing.T) {
	s := loadStore(t, `
_:ns <`+rdfns+`type> <`+sh+`NodeShape> .
_:ns <`+sh+`targetClass> <http://ex/Person> .
_:ns <`+sh+`property> _:ps .
_:ps <`+sh+`path> <http://ex/age> .
_:ps <`+sh+`minCount> "1"^^<`+xsd+`integer> .
_:ps <`+sh+`datatype> <`+xsd+`integer> .
<http://ex/alice> <`+rdfns+`type> <http://ex/Person> .
<http://ex/alice> <http://ex/age> "42"^^<`+xsd+`integer> .
`)
	report, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.NumRows() != 0 {
		t.Errorf("conforming graph produced %d violations: %v", report.NumRows(), reportRows(t, report))
	}
}
