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

import "fmt"

// MappingErrorKind discriminates the storage/caching error taxonomy.
type MappingErrorKind uint8

const (
	ErrPathDoesNotExist MappingErrorKind = iota
	ErrFileCreateIO
	ErrFolderCreateIO
	ErrReadCachingDirectory
	ErrRemoveParquetFile
	ErrWriteParquet
	ErrReadParquet
	ErrTripleTableRead
)

func (k MappingErrorKind) String() string {
	switch k {
	case ErrPathDoesNotExist:
		return "PathDoesNotExist"
	case ErrFileCreateIO:
		return "FileCreateIO"
	case ErrFolderCreateIO:
		return "FolderCreateIO"
	case ErrReadCachingDirectory:
		return "ReadCachingDirectory"
	case ErrRemoveParquetFile:
		return "RemoveParquetFile"
	case ErrWriteParquet:
		return "WriteParquet"
	case ErrReadParquet:
		return "ReadParquet"
	case ErrTripleTableRead:
		return "TripleTableRead"
	default:
		return "UNKNOWN"
	}
}

// MappingError is the single error type for the storage/caching layer;
// Kind classifies it, Path names the offending file or directory when
// relevant, and Err carries the underlying cause for errors.Unwrap.
type MappingError struct {
	Kind MappingErrorKind
	Path string
	Err  error
}

func (e *MappingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("store: %s at %q: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("store: %s: %v", e.Kind, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

func mappingErr(kind MappingErrorKind, path string, err error) error {
	return &MappingError{Kind: kind, Path: path, Err: err}
}
