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

package store

import (
	"fmt"

	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
)

// BatchItem is one tuple of the ingestion interface: a
// frame of rows to turn into triples, the RDF node type their object
// column should be tagged with, an optional language tag for
// rdf:langString object columns, an optional static predicate that
// sends the whole frame to one table, and whether the caller
// guarantees the frame alone has no duplicate (subject, object) pairs.
type BatchItem struct {
	Frame           *frame.Frame
	ObjectType      rdf.NodeType
	LanguageTag     string
	StaticVerb      string
	HasUniqueSubset bool
}

// InsertBatch appends every item of triples to the store under a
// freshly minted call id, partitioning frames without a StaticVerb by
// their "verb" column. Clears the store's deduplicated flag.
func (s *Store) InsertBatch(items []BatchItem) error {
	callUUID := newCallUUID()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if err := s.insertItem(item, callUUID); err != nil {
			return err
		}
	}
	s.deduplicated = false
	return nil
}

func (s *Store) insertItem(item BatchItem, callUUID string) error {
	objType := item.ObjectType
	if item.LanguageTag != "" {
		objType = rdf.LangString()
	}
	if item.StaticVerb != "" {
		sub, err := projectTripleColumns(item.Frame)
		if err != nil {
			return err
		}
		return s.appendToTable(item.StaticVerb, objType, sub, item.HasUniqueSubset, callUUID)
	}
	if !item.Frame.HasColumn("verb") {
		return fmt.Errorf("store: batch item has no static predicate and no %q column", "verb")
	}
	groups, err := frame.Partition(item.Frame, []string{"verb"})
	if err != nil {
		return err
	}
	for verb, sub := range byVerb(item.Frame, groups) {
		clean, err := projectTripleColumns(sub)
		if err != nil {
			return err
		}
		if err := s.appendToTable(verb, objType, clean, item.HasUniqueSubset, callUUID); err != nil {
			return err
		}
	}
	return nil
}

// byVerb re-keys Partition's opaque group labels by the actual verb
// string, since "verb" is always present in the partitioned sub-frame.
func byVerb(_ *frame.Frame, groups map[string]*frame.Frame) map[string]*frame.Frame {
	out := make(map[string]*frame.Frame, len(groups))
	for _, g := range groups {
		c, ok := g.Column("verb")
		if !ok || g.NumRows() == 0 {
			continue
		}
		out[c.StringAt(0)] = g
	}
	return out
}

func projectTripleColumns(f *frame.Frame) (*frame.Frame, error) {
	if f.HasColumn("verb") {
		return f.Select([]string{"subject", "object"})
	}
	return f, nil
}

func (s *Store) appendToTable(predicate string, objType rdf.NodeType, f *frame.Frame, unique bool, callUUID string) error {
	if f.NumRows() == 0 {
		// Registering an empty table would leave a predicate entry with
		// no subject/object columns behind.
		return nil
	}
	byType, ok := s.tables[predicate]
	if !ok {
		byType = map[rdf.NodeType]*Table{}
		s.tables[predicate] = byType
	}
	t, ok := byType[objType]
	if !ok {
		t = NewTable(predicate, objType, s.folder, cacheThresholdBytes)
		byType[objType] = t
	}
	return t.Append(f, unique, callUUID)
}
