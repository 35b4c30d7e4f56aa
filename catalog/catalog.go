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

// Package catalog defines the narrow read-only view of the triple
// store that both the SPARQL evaluator and the SHACL reader need: a
// lookup from predicate IRI to the per-datatype triple tables. Putting
// it in its own package lets store.Store implement it without sparql
// or shacl ever importing store, which would otherwise cycle back
// through store.Store.Query/Validate calling into them.
package catalog

import (
	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
)

// TableAccessor is the read surface of a single (predicate, datatype)
// triple table.
type TableAccessor interface {
	// GetLazyFrames returns every chunk of the table as a lazy scan,
	// whether the chunk lives in memory or spilled to a cache file.
	GetLazyFrames() ([]frame.LazyFrame, error)
	// Datatype returns the RDF node type of the table's object column.
	Datatype() rdf.NodeType
}

// Store is the read-only view a query/validation engine needs of a
// triple store.
type Store interface {
	// Lookup returns the per-datatype tables for predicate, or false
	// if the predicate has never been inserted.
	Lookup(predicate string) (map[rdf.NodeType]TableAccessor, bool)
	// Predicates lists every predicate currently held, in no
	// particular order. The SHACL reader needs this to scan the whole
	// store for its "everything else" object-property frame
	// predicate sweep; the SPARQL evaluator never calls it,
	// since every pattern it evaluates names its predicate directly.
	Predicates() []string
}
