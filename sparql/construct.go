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

import (
	"fmt"

	"github.com/badwolf-labs/colstore/rdf"
)

// Construct instantiates templates once per row of sm, substituting a
// variable slot with that row's bound term and leaving a bound slot's
// fixed term untouched. Rows where a template variable is unbound are
// skipped for that template, matching SPARQL CONSTRUCT semantics.
func Construct(sm *SolutionMappings, templates []ConstructTemplate) ([]rdf.Triple, error) {
	f, err := sm.Decategorized().Collect()
	if err != nil {
		return nil, err
	}
	var out []rdf.Triple
	for i := 0; i < f.NumRows(); i++ {
		row := f.Row(i)
		for _, tmpl := range templates {
			tr, ok, err := instantiate(tmpl, row, sm.RDFNodeTypes)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, tr)
			}
		}
	}
	return out, nil
}

func instantiate(tmpl ConstructTemplate, row map[string]interface{}, types map[string]rdf.NodeType) (rdf.Triple, bool, error) {
	subj, ok, err := slotTerm(tmpl.Subject, row, types)
	if err != nil || !ok {
		return rdf.Triple{}, false, err
	}
	predTerm, ok, err := slotTerm(tmpl.Predicate, row, types)
	if err != nil || !ok {
		return rdf.Triple{}, false, err
	}
	obj, ok, err := slotTerm(tmpl.Object, row, types)
	if err != nil || !ok {
		return rdf.Triple{}, false, err
	}
	return rdf.Triple{Subject: subj, Predicate: predTerm.Lexical, Object: obj}, true, nil
}

func slotTerm(slot Slot, row map[string]interface{}, types map[string]rdf.NodeType) (rdf.Term, bool, error) {
	if !slot.IsVariable() {
		return slot.Value, true, nil
	}
	v, ok := row[slot.Variable]
	if !ok || v == nil {
		return rdf.Term{}, false, nil
	}
	t, ok := types[slot.Variable]
	if !ok {
		return rdf.Term{}, false, fmt.Errorf("sparql: construct: variable %q has no recorded type", slot.Variable)
	}
	s, ok := v.(string)
	if !ok {
		return rdf.Term{}, false, fmt.Errorf("sparql: construct: variable %q is not string-lexical", slot.Variable)
	}
	return rdf.Term{Type: t, Lexical: s}, true, nil
}
