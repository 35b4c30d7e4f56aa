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
	"os"
	"path/filepath"
	"regexp"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/badwolf-labs/colstore/frame"
	"github.com/google/uuid"
)

// cacheThresholdBytes is the nominal chunk size used when an ingested
// frame is spilled to the caching folder: the frame is split into
// ceil(estimated size / threshold) parquet chunks. With a caching
// folder set every appended frame is spilled, whatever its size.
const cacheThresholdBytes = 50 * 1024 * 1024

// rowsPerGroup is the nominal row-group size of spilled cache files.
const rowsPerGroup = 1000

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// sanitize keeps only alphanumerics, so predicates and datatype IRIs
// can appear in cache and export file names.
func sanitize(s string) string {
	out := nonAlnum.ReplaceAllString(s, "")
	if out == "" {
		return "x"
	}
	return out
}

func ensureCacheFolder(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return mappingErr(ErrFolderCreateIO, dir, err)
	}
	return nil
}

// estimateBytes approximates a frame's in-memory footprint from its
// row count without walking every cell — exact Arrow buffer sizing
// would force the materialization pass the caching policy exists to
// avoid.
func estimateBytes(f *frame.Frame) int64 {
	const avgRowBytes = 96
	return int64(f.NumRows()) * avgRowBytes
}

// appendSpilled splits f into cacheThresholdBytes-sized row chunks,
// each written as its own parquet file, and records the resulting
// paths instead of keeping f in memory.
func (t *Table) appendSpilled(f *frame.Frame) error {
	if err := ensureCacheFolder(t.folder); err != nil {
		return err
	}
	size := estimateBytes(f)
	nChunks := 1
	if size > cacheThresholdBytes {
		nChunks = int((size + cacheThresholdBytes - 1) / cacheThresholdBytes)
	}
	rows := f.NumRows()
	chunkRows := (rows + nChunks - 1) / nChunks
	if chunkRows == 0 {
		chunkRows = rows
	}
	for lo := 0; lo < rows; lo += chunkRows {
		hi := lo + chunkRows
		if hi > rows {
			hi = rows
		}
		chunk, err := f.Slice(lo, hi)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("tmp_%s_%s.parquet", sanitize(t.Predicate), uuid.New().String())
		path := filepath.Join(t.folder, name)
		if err := writeChunkParquet(path, chunk); err != nil {
			return err
		}
		t.paths = append(t.paths, path)
	}
	return nil
}

func writeChunkParquet(path string, f *frame.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return mappingErr(ErrFileCreateIO, path, err)
	}
	defer out.Close()

	rec := f.Record()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithMaxRowGroupLength(rowsPerGroup))
	writer, err := pqarrow.NewFileWriter(rec.Schema(), out, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return mappingErr(ErrWriteParquet, path, err)
	}
	defer writer.Close()
	if err := writer.WriteBuffered(rec); err != nil {
		return mappingErr(ErrWriteParquet, path, err)
	}
	return nil
}

func readChunkParquet(path string) (*frame.Frame, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, mappingErr(ErrPathDoesNotExist, path, err)
	}
	defer in.Close()

	pf, err := file.NewParquetReader(in)
	if err != nil {
		return nil, mappingErr(ErrReadParquet, path, err)
	}
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, mappingErr(ErrReadParquet, path, err)
	}
	tbl, err := reader.ReadTable(context.Background())
	if err != nil {
		return nil, mappingErr(ErrReadParquet, path, err)
	}
	defer tbl.Release()

	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()
	if !tr.Next() {
		return frame.Empty(nil, nil), nil
	}
	return frame.FromRecord(tr.Record())
}

// deleteTmpParquets removes every spilled chunk file in the store's
// caching folder.
func deleteTmpParquets(folder string) error {
	if folder == "" {
		return nil
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return mappingErr(ErrReadCachingDirectory, folder, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) != ".parquet" {
			continue
		}
		p := filepath.Join(folder, e.Name())
		if err := os.Remove(p); err != nil {
			return mappingErr(ErrRemoveParquetFile, p, err)
		}
	}
	return nil
}
