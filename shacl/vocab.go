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

// Package shacl reconstructs a typed SHACL shape model out of raw
// triples already sitting in a deduplicated store, then validates
// target nodes against it. Like package sparql,
// it walks the store through the narrow catalog.Store read surface so
// neither package needs to import store directly.
package shacl

const (
	shacl = "http://www.w3.org/ns/shacl#"
	rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	iriNodeShape = shacl + "NodeShape"

	iriTargetNode        = shacl + "targetNode"
	iriTargetClass       = shacl + "targetClass"
	iriTargetSubjectsOf  = shacl + "targetSubjectsOf"
	iriTargetObjectsOf   = shacl + "targetObjectsOf"

	iriPath = shacl + "path"
	iriName = shacl + "name"
	iriDesc = shacl + "description"
	iriProperty = shacl + "property"

	iriInversePath    = shacl + "inversePath"
	iriAlternativePath = shacl + "alternativePath"
	iriSequencePath   = shacl + "sequencePath" // not in pathVerbs and never matched by parsePath; sequences are read only from bare RDF lists
	iriZeroOrMorePath = shacl + "zeroOrMorePath"
	iriOneOrMorePath  = shacl + "oneOrMorePath"
	iriZeroOrOnePath  = shacl + "zeroOrOnePath"

	iriRDFType = rdfNS + "type"
	iriFirst   = rdfNS + "first"
	iriRest    = rdfNS + "rest"
	iriNil     = rdfNS + "nil"

	iriClass             = shacl + "class"
	iriDatatype           = shacl + "datatype"
	iriNodeKind           = shacl + "nodeKind"
	iriMinCount           = shacl + "minCount"
	iriMaxCount           = shacl + "maxCount"
	iriMinExclusive       = shacl + "minExclusive"
	iriMaxExclusive       = shacl + "maxExclusive"
	iriMinInclusive       = shacl + "minInclusive"
	iriMaxInclusive       = shacl + "maxInclusive"
	iriMinLength          = shacl + "minLength"
	iriMaxLength          = shacl + "maxLength"
	iriPattern            = shacl + "pattern"
	iriFlags              = shacl + "flags"
	iriLanguageIn         = shacl + "languageIn"
	iriUniqueLang         = shacl + "uniqueLang"
	iriEquals             = shacl + "equals"
	iriDisjoint           = shacl + "disjoint"
	iriLessThan           = shacl + "lessThan"
	iriLessThanOrEquals   = shacl + "lessThanOrEquals"
	iriNot                = shacl + "not"
	iriAnd                = shacl + "and"
	iriOr                 = shacl + "or"
	iriXone               = shacl + "xone"
	iriNode               = shacl + "node"
	iriQualifiedValueShape    = shacl + "qualifiedValueShape"
	iriQualifiedMinCount      = shacl + "qualifiedMinCount"
	iriQualifiedMaxCount      = shacl + "qualifiedMaxCount"
	iriQualifiedValueShapesDisjoint = shacl + "qualifiedValueShapesDisjoint"
	iriClosed             = shacl + "closed"
	iriIgnoredProperties  = shacl + "ignoredProperties"
	iriHasValue           = shacl + "hasValue"
	iriIn                 = shacl + "in"

	iriNodeKindIRI                = shacl + "IRI"
	iriNodeKindBlankNode          = shacl + "BlankNode"
	iriNodeKindLiteral            = shacl + "Literal"
	iriNodeKindBlankNodeOrIRI     = shacl + "BlankNodeOrIRI"
	iriNodeKindBlankNodeOrLiteral = shacl + "BlankNodeOrLiteral"
	iriNodeKindIRIOrLiteral       = shacl + "IRIOrLiteral"
)

// pathVerbs is the set of predicates that, found on a path's root
// subject, make it a structured path combinator rather than a direct
// predicate IRI.
var pathVerbs = map[string]bool{
	iriInversePath:     true,
	iriAlternativePath: true,
	iriZeroOrMorePath:  true,
	iriOneOrMorePath:   true,
	iriZeroOrOnePath:   true,
}
