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

import (
	"fmt"
	"strings"
)

// PathEntry is one breadcrumb in the evaluation tree: which branch of
// a binary operator (Left/Right), or the ordinal of a BGP triple
// pattern. Label is the operator name (e.g. "join", "bgp") and Index
// the branch or ordinal.
type PathEntry struct {
	Label string
	Index int
}

// Context is an evaluation-tree path. No column name is derived from
// it: property-path evaluation uses fixed synthetic column names.
type Context []PathEntry

// Push returns a new Context with entry appended.
func (c Context) Push(label string, index int) Context {
	out := make(Context, len(c), len(c)+1)
	copy(out, c)
	return append(out, PathEntry{Label: label, Index: index})
}

// String renders the context as a dotted path of label+index entries,
// e.g. "join1.bgp0".
func (c Context) String() string {
	parts := make([]string, len(c))
	for i, e := range c {
		parts[i] = fmt.Sprintf("%s%d", e.Label, e.Index)
	}
	return strings.Join(parts, ".")
}

// Root is the empty evaluation context.
var Root = Context(nil)
