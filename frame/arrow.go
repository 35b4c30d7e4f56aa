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

package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// Record converts a Frame into an Arrow record batch, the shape the
// parquet cache-spill and native-export paths hand to pqarrow.
func (f *Frame) Record() arrow.Record {
	fields := make([]arrow.Field, len(f.names))
	cols := make([]arrow.Array, len(f.names))
	for i, n := range f.names {
		c := f.cols[n]
		fields[i] = arrow.Field{Name: n, Type: ArrowType(c.kind), Nullable: true}
		cols[i] = c.arr
	}
	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, cols, int64(f.nrows))
}

// FromRecord builds a Frame from an Arrow record batch, the shape
// pqarrow hands back after reading a cache-spill or native-export
// parquet file.
func FromRecord(rec arrow.Record) (*Frame, error) {
	schema := rec.Schema()
	names := make([]string, schema.NumFields())
	cols := make(map[string]Column, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		field := schema.Field(i)
		kind, err := KindFromArrow(field.Type)
		if err != nil {
			return nil, fmt.Errorf("frame.FromRecord: column %q: %w", field.Name, err)
		}
		names[i] = field.Name
		col := rec.Column(i)
		col.Retain()
		cols[field.Name] = NewColumn(kind, col)
	}
	return New(names, cols)
}
