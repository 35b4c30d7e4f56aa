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

// Package store implements the physical triple layout: per-predicate,
// per-datatype columnar partitions with deferred evaluation, plus the
// ingestion interface that appends batches to them.
package store

import (
	"fmt"
	"os"

	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
	"github.com/google/uuid"
)

// Table is a physical container for triples sharing one predicate and
// one object RDF node type. Its dfs and paths are mutually exclusive:
// a chunk lives in memory or spilled to a cache-folder parquet file,
// never both.
type Table struct {
	Predicate string
	ObjType   rdf.NodeType

	dfs   []*frame.Frame
	paths []string

	unique   bool
	callUUID string

	folder    string
	threshold int64
}

// NewTable creates an empty table for the given predicate/datatype
// key. folder may be empty, meaning the table never spills to disk.
func NewTable(predicate string, dt rdf.NodeType, folder string, threshold int64) *Table {
	return &Table{
		Predicate: predicate,
		ObjType:   dt,
		folder:    folder,
		threshold: threshold,
		unique:    true, // a freshly created table trivially has no duplicates
	}
}

// Append adds a new batch frame to the table. unique indicates whether
// the caller guarantees this one frame has no duplicate (subject,
// object) pairs on its own — it says nothing about duplicates against
// frames already in the table, so the table's own unique flag is only
// left true when it already held no rows.
func (t *Table) Append(f *frame.Frame, unique bool, callUUID string) error {
	if f.NumRows() == 0 {
		return nil
	}
	if err := t.checkSchema(f); err != nil {
		return err
	}
	t.callUUID = callUUID
	wasEmpty := len(t.dfs) == 0 && len(t.paths) == 0
	t.unique = wasEmpty && unique

	if t.folder != "" {
		return t.appendSpilled(f)
	}
	t.dfs = append(t.dfs, f)
	return nil
}

func (t *Table) checkSchema(f *frame.Frame) error {
	if !f.HasColumn("subject") || !f.HasColumn("object") {
		return fmt.Errorf("store: triple frame for predicate %q must have exactly subject/object columns, got %v",
			t.Predicate, f.ColumnNames())
	}
	return nil
}

// GetLazyFrames returns every chunk of the table as a lazy scan,
// uniformly whether the chunk lives in memory or is spilled to a
// cache-folder parquet file.
func (t *Table) GetLazyFrames() ([]frame.LazyFrame, error) {
	if len(t.paths) > 0 {
		out := make([]frame.LazyFrame, 0, len(t.paths))
		for _, p := range t.paths {
			path := p
			out = append(out, frame.FromThunk(func() (*frame.Frame, error) {
				return readChunkParquet(path)
			}))
		}
		return out, nil
	}
	out := make([]frame.LazyFrame, 0, len(t.dfs))
	for _, f := range t.dfs {
		out = append(out, frame.Scan(f))
	}
	return out, nil
}

// NumChunks reports how many append-only batches the table currently
// holds, whichever of dfs/paths backs them.
func (t *Table) NumChunks() int {
	if len(t.paths) > 0 {
		return len(t.paths)
	}
	return len(t.dfs)
}

// Unique reports whether the table is currently known to be distinct
// on (subject, object).
func (t *Table) Unique() bool { return t.unique }

// Datatype returns the RDF node type of the table's object column,
// satisfying catalog.TableAccessor.
func (t *Table) Datatype() rdf.NodeType { return t.ObjType }

// CallUUID returns the ingestion call id that produced the table's
// most recent chunk.
func (t *Table) CallUUID() string { return t.callUUID }

// Dedup folds every chunk of the table into a single canonical frame,
// distinct on (subject, object), and marks the table unique.
func (t *Table) Dedup() error {
	if t.unique {
		return nil
	}
	lfs, err := t.GetLazyFrames()
	if err != nil {
		return err
	}
	merged, err := frame.Union(lfs).Collect()
	if err != nil {
		return mappingErr(ErrTripleTableRead, "", err)
	}
	deduped, err := distinctOn(merged, []string{"subject", "object"})
	if err != nil {
		return err
	}
	oldPaths := t.paths
	t.dfs = nil
	t.paths = nil
	if t.folder != "" {
		if err := t.appendSpilled(deduped); err != nil {
			return err
		}
		for _, p := range oldPaths {
			if err := os.Remove(p); err != nil {
				return mappingErr(ErrRemoveParquetFile, p, err)
			}
		}
	} else {
		t.dfs = []*frame.Frame{deduped}
	}
	t.unique = true
	return nil
}

func distinctOn(f *frame.Frame, keys []string) (*frame.Frame, error) {
	seen := make(map[string]bool, f.NumRows())
	idx := make([]int, 0, f.NumRows())
	for i := 0; i < f.NumRows(); i++ {
		tup := ""
		for _, k := range keys {
			c, _ := f.Column(k)
			tup += fmt.Sprintf("\x00%v", c.AnyAt(i))
		}
		if seen[tup] {
			continue
		}
		seen[tup] = true
		idx = append(idx, i)
	}
	return frame.Scan(f).Filter(func(_ *frame.Frame, i int) bool {
		return indexContains(idx, i)
	}).Collect()
}

func indexContains(idx []int, i int) bool {
	// idx is produced in increasing row order, so this is effectively
	// a merge-style membership test; a plain scan is fine at our scale
	// and keeps distinctOn free of a second bespoke data structure.
	for _, v := range idx {
		if v == i {
			return true
		}
		if v > i {
			return false
		}
	}
	return false
}

func newCallUUID() string {
	return uuid.New().String()
}
