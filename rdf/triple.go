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

package rdf

// Triple is one ground (subject, predicate, object) fact, the unit
// ToTriples, N-Triples export and CONSTRUCT finalization deal in. Bulk
// storage and query evaluation never walk triples one at a time — that
// stays columnar in package frame — but the edges of the pipeline that
// talk to callers or to disk need a single concrete value.
type Triple struct {
	Subject   Term
	Predicate string
	Object    Term
}
