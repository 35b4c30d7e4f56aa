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

package shacl

import "fmt"

// ShapeErrorKind discriminates the shape-graph reading error taxonomy.
type ShapeErrorKind uint8

const (
	ErrTriplestore ShapeErrorKind = iota
	ErrIriParse
	ErrListMissingFirstElement
	ErrListMissingRest
	ErrPropertyMissingPath
	ErrNodeShapeMissingProperties
	ErrInvalidNodeKind
)

func (k ShapeErrorKind) String() string {
	switch k {
	case ErrTriplestore:
		return "TriplestoreError"
	case ErrIriParse:
		return "IriParseError"
	case ErrListMissingFirstElement:
		return "ListMissingFirstElement"
	case ErrListMissingRest:
		return "ListMissingRest"
	case ErrPropertyMissingPath:
		return "PropertyMissingPath"
	case ErrNodeShapeMissingProperties:
		return "NodeShapeMissingProperties"
	case ErrInvalidNodeKind:
		return "InvalidNodeKind"
	default:
		return "UNKNOWN"
	}
}

// ShapeError is the single error type returned by shape-graph reading
// and validation; Kind classifies it, Detail carries a human-readable
// extra (the offending subject or IRI), and Err carries the underlying
// cause for errors.Unwrap.
type ShapeError struct {
	Kind   ShapeErrorKind
	Detail string
	Err    error
}

func (e *ShapeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("shacl: %s: %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("shacl: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("shacl: %s", e.Kind)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// NewShapeError builds a ShapeError wrapping err under kind.
func NewShapeError(kind ShapeErrorKind, err error) error {
	return &ShapeError{Kind: kind, Err: err}
}

// NewShapeErrorf builds a ShapeError with a formatted Detail.
func NewShapeErrorf(kind ShapeErrorKind, format string, args ...interface{}) error {
	return &ShapeError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
