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

import "fmt"

// QueryErrorKind discriminates the query-evaluation error taxonomy.
type QueryErrorKind uint8

const (
	ErrParse QueryErrorKind = iota
	ErrDeduplication
	ErrTripleTableRead
	ErrInconsistentDatatypes
	ErrQueryTypeNotSupported
	ErrStoreTriples
)

func (k QueryErrorKind) String() string {
	switch k {
	case ErrParse:
		return "ParseError"
	case ErrDeduplication:
		return "DeduplicationError"
	case ErrTripleTableRead:
		return "TripleTableReadError"
	case ErrInconsistentDatatypes:
		return "InconsistentDatatypes"
	case ErrQueryTypeNotSupported:
		return "QueryTypeNotSupported"
	case ErrStoreTriples:
		return "StoreTriplesError"
	default:
		return "UNKNOWN"
	}
}

// QueryError is the single error type returned by query parsing and
// evaluation; Kind classifies it, Detail carries a human-readable
// extra (e.g. the offending variable or predicate), and Err carries
// the underlying cause for errors.Unwrap.
type QueryError struct {
	Kind   QueryErrorKind
	Detail string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("sparql: %s: %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("sparql: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("sparql: %s", e.Kind)
}

func (e *QueryError) Unwrap() error { return e.Err }

// NewQueryError builds a QueryError wrapping err under kind.
func NewQueryError(kind QueryErrorKind, err error) error {
	return &QueryError{Kind: kind, Err: err}
}

// NewQueryErrorf builds a QueryError with a formatted Detail.
func NewQueryErrorf(kind QueryErrorKind, format string, args ...interface{}) error {
	return &QueryError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
