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
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
)

// nativeExportJob is one (frame, target path) pair of the bulk export
// parallel map.
type nativeExportJob struct {
	path string
	f    *frame.Frame
}

// WriteNativeParquet forces deduplication, then exports every
// (predicate, datatype) table to its own parquet file under dir,
// one file per (predicate, datatype) pair, named
// "<predicate>_<datatype-or-object_property>_part_<i>.parquet". The
// per-table writes run concurrently via errgroup, all completing
// before the call returns.
func (s *Store) WriteNativeParquet(dir string) error {
	if err := s.Deduplicate(); err != nil {
		return err
	}
	if err := ensureCacheFolder(dir); err != nil {
		return err
	}

	jobs, err := s.collectNativeExportJobs(dir)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(context.Background())
	for _, j := range jobs {
		j := j
		g.Go(func() error { return writeChunkParquet(j.path, j.f) })
	}
	return g.Wait()
}

func (s *Store) collectNativeExportJobs(dir string) ([]nativeExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var jobs []nativeExportJob
	for predicate, byType := range s.tables {
		for dt, t := range byType {
			lfs, err := t.GetLazyFrames()
			if err != nil {
				return nil, err
			}
			f, err := frame.Union(lfs).Collect()
			if err != nil {
				return nil, err
			}
			name := fmt.Sprintf("%s_%s_part_0.parquet", sanitize(predicate), sanitizeDatatype(dt))
			jobs = append(jobs, nativeExportJob{path: filepath.Join(dir, name), f: f})
		}
	}
	return jobs, nil
}

// sanitizeDatatype names the datatype segment of a native export file
// name: IRI/blank-node object columns are "object_property" triples in
// the RDFS/OWL sense, everything else is the sanitized datatype IRI.
func sanitizeDatatype(dt rdf.NodeType) string {
	switch dt.Kind {
	case rdf.KindLiteral:
		return sanitize(dt.Datatype)
	default:
		return "object_property"
	}
}
