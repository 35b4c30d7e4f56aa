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

// Package ntriples serializes ground triples to the N-Triples line
// format: one "<subject> <predicate> <object> ." line per triple,
// predicates angle-bracketed, subjects and objects rendered by
// rdf.Term.String (so a blank-node subject is written as _:label).
package ntriples

import (
	"bufio"
	"fmt"
	"os"

	"github.com/badwolf-labs/colstore/rdf"
)

// WriteFile writes triples to path, one N-Triples line per triple,
// overwriting any existing file.
func WriteFile(path string, triples []rdf.Triple) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ntriples: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := Write(w, triples); err != nil {
		return err
	}
	return w.Flush()
}

// Write serializes triples to w in N-Triples line format.
func Write(w *bufio.Writer, triples []rdf.Triple) error {
	for _, t := range triples {
		line := fmt.Sprintf("%s <%s> %s .\n", t.Subject.String(), t.Predicate, t.Object.String())
		if _, err := w.WriteString(line); err != nil {
			return fmt.Errorf("ntriples: write: %w", err)
		}
	}
	return nil
}
