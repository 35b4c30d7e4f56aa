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

import (
	"regexp"
	"strings"

	"github.com/badwolf-labs/colstore/catalog"
	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/rdf"
	"github.com/badwolf-labs/colstore/sparql"
)

// reportRow is one violation the validator emits: a focus node failed
// one constraint of one property shape's path. Every field is rendered
// to its N-Triples-style string form rather than kept as a typed
// rdf.Term, since a single report column otherwise has to hold subject
// IRIs, blank nodes and literals of every datatype side by side — the
// datatype-coherence invariant SPARQL solution columns carry does not
// apply to this diagnostic frame.
type reportRow struct {
	Focus      string
	Path       string
	Value      string
	Constraint string
	Severity   string
}

// severityViolation is the only severity the reconstructed shape model
// can produce: PropertyShape carries no sh:severity field, so every
// row defaults to it, matching SHACL's own default.
const severityViolation = "Violation"

// Validate evaluates every shape's targets against store, walking each
// property shape's path with the same evalPath primitives a SPARQL
// property path pattern uses, and returns the
// accumulated violations as a single report frame with columns focus,
// path, value, constraint, severity.
func Validate(store catalog.Store, shapes []NodeShape) (*frame.Frame, error) {
	shapesByKey := make(map[string]NodeShape, len(shapes))
	for _, s := range shapes {
		shapesByKey[s.Subject] = s
	}

	var rows []reportRow
	for _, shape := range shapes {
		targets, err := resolveTargets(store, shape.Targets)
		if err != nil {
			return nil, err
		}
		for _, ps := range shape.Properties {
			pathStr := pathString(ps.Path)
			valuesByFocus, err := valuesForTargets(store, ps.Path, targets)
			if err != nil {
				return nil, err
			}
			for _, focus := range targets {
				values := valuesByFocus[focus]
				for _, c := range ps.Constraints {
					violations, err := evaluateConstraint(store, c, focus, pathStr, values, shapesByKey)
					if err != nil {
						return nil, err
					}
					rows = append(rows, violations...)
				}
			}
		}
	}
	return buildReportFrame(rows)
}

func buildReportFrame(rows []reportRow) (*frame.Frame, error) {
	names := []string{"focus", "path", "value", "constraint", "severity"}
	focus := frame.NewColumnBuilder(frame.KindString)
	path := frame.NewColumnBuilder(frame.KindString)
	value := frame.NewColumnBuilder(frame.KindString)
	constraint := frame.NewColumnBuilder(frame.KindString)
	severity := frame.NewColumnBuilder(frame.KindString)
	for _, r := range rows {
		focus.AppendString(r.Focus)
		path.AppendString(r.Path)
		value.AppendString(r.Value)
		constraint.AppendString(r.Constraint)
		severity.AppendString(r.Severity)
	}
	cols := map[string]frame.Column{
		"focus":      focus.NewColumn(),
		"path":       path.NewColumn(),
		"value":      value.NewColumn(),
		"constraint": constraint.NewColumn(),
		"severity":   severity.NewColumn(),
	}
	return frame.New(names, cols)
}

// pathString renders a reconstructed Path back into a short
// human-readable label for the report frame's path column.
func pathString(p sparql.Path) string {
	switch v := p.(type) {
	case sparql.PathIRI:
		return v.IRI
	case sparql.PathInverse:
		return "^" + pathString(v.Inner)
	case sparql.PathSeq:
		return pathString(v.Left) + "/" + pathString(v.Right)
	case sparql.PathAlt:
		return pathString(v.Left) + "|" + pathString(v.Right)
	case sparql.PathZeroOrMore:
		return pathString(v.Inner) + "*"
	case sparql.PathOneOrMore:
		return pathString(v.Inner) + "+"
	case sparql.PathZeroOrOne:
		return pathString(v.Inner) + "?"
	default:
		return "?"
	}
}

// resolveTargets unions every target declaration's resolved focus-node
// set into one deduplicated, ordered list of subject keys.
func resolveTargets(store catalog.Store, decls []TargetDeclaration) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	push := func(key string) {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	for _, d := range decls {
		switch t := d.(type) {
		case TargetNodes:
			for _, n := range t.Nodes {
				push(termKey(n))
			}
		case TargetClass:
			rows, err := scanTriples(store, rdf.RDFType)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if row.Object.Type.Kind == rdf.KindIRI && row.Object.Lexical == t.Class {
					push(row.Subject)
				}
			}
		case TargetSubjectsOf:
			rows, err := scanTriples(store, t.Predicate)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				push(row.Subject)
			}
		case TargetObjectsOf:
			rows, err := scanTriples(store, t.Predicate)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				push(termKey(row.Object))
			}
		}
	}
	return out, nil
}

// valuesForTargets evaluates path over the whole store via the shared
// SPARQL property-path evaluator, then keeps only the rows whose
// subject is one of targets, grouped by focus node.
func valuesForTargets(store catalog.Store, path sparql.Path, targets []string) (map[string][]rdf.Term, error) {
	out := make(map[string][]rdf.Term, len(targets))
	for _, t := range targets {
		out[t] = nil
	}
	lf, objType, err := sparql.EvalPath(store, path)
	if err != nil {
		return nil, NewShapeError(ErrTriplestore, err)
	}
	f, err := lf.Collect()
	if err != nil {
		return nil, NewShapeError(ErrTriplestore, err)
	}
	subCol, ok1 := f.Column("subject")
	objCol, ok2 := f.Column("object")
	if !ok1 || !ok2 {
		return out, nil
	}
	targetSet := make(map[string]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}
	for i := 0; i < f.NumRows(); i++ {
		s := subCol.StringAt(i)
		if !targetSet[s] {
			continue
		}
		term, err := termFromColumn(objCol, i, objType)
		if err != nil {
			return nil, err
		}
		out[s] = append(out[s], term)
	}
	return out, nil
}

// conformsToShape reports whether focus (rendered both as its subject
// key and its reconstructed term) satisfies every property shape of
// shape, ignoring shape's own target declarations — used by the
// shape-valued constraints (sh:not/and/or/xone/node/qualifiedValueShape)
// to test a candidate value node against another shape.
func conformsToShape(store catalog.Store, shape NodeShape, focus string, shapesByKey map[string]NodeShape) (bool, error) {
	for _, ps := range shape.Properties {
		valuesByFocus, err := valuesForTargets(store, ps.Path, []string{focus})
		if err != nil {
			return false, err
		}
		values := valuesByFocus[focus]
		for _, c := range ps.Constraints {
			violations, err := evaluateConstraint(store, c, focus, pathString(ps.Path), values, shapesByKey)
			if err != nil {
				return false, err
			}
			if len(violations) > 0 {
				return false, nil
			}
		}
	}
	return true, nil
}

func evaluateConstraint(store catalog.Store, c Constraint, focus, pathStr string, values []rdf.Term, shapesByKey map[string]NodeShape) ([]reportRow, error) {
	var out []reportRow
	add := func(value string) {
		out = append(out, reportRow{Focus: focus, Path: pathStr, Value: value, Constraint: c.Kind(), Severity: severityViolation})
	}
	conforms := func(ref string, v rdf.Term) (bool, error) {
		shape, ok := shapesByKey[ref]
		if !ok {
			// A reference to a shape outside the reconstructed set
			// vacuously conforms: there is nothing to check it against.
			return true, nil
		}
		return conformsToShape(store, shape, termKey(v), shapesByKey)
	}

	switch cc := c.(type) {
	case ClassConstraint:
		for _, v := range values {
			ok, err := isInstanceOf(store, v, cc.Class)
			if err != nil {
				return nil, err
			}
			if !ok {
				add(v.String())
			}
		}
	case DatatypeConstraint:
		for _, v := range values {
			if v.Type.Kind != rdf.KindLiteral || v.Type.Datatype != cc.Datatype {
				add(v.String())
			}
		}
	case NodeKindConstraint:
		for _, v := range values {
			if !cc.NodeKind.matches(v) {
				add(v.String())
			}
		}
	case MinCountConstraint:
		if len(values) < cc.Min {
			add("")
		}
	case MaxCountConstraint:
		if len(values) > cc.Max {
			add("")
		}
	case MinExclusiveConstraint:
		for _, v := range values {
			cmp, ok := compareTerms(v, cc.Value)
			if !ok || cmp <= 0 {
				add(v.String())
			}
		}
	case MaxExclusiveConstraint:
		for _, v := range values {
			cmp, ok := compareTerms(v, cc.Value)
			if !ok || cmp >= 0 {
				add(v.String())
			}
		}
	case MinInclusiveConstraint:
		for _, v := range values {
			cmp, ok := compareTerms(v, cc.Value)
			if !ok || cmp < 0 {
				add(v.String())
			}
		}
	case MaxInclusiveConstraint:
		for _, v := range values {
			cmp, ok := compareTerms(v, cc.Value)
			if !ok || cmp > 0 {
				add(v.String())
			}
		}
	case MinLengthConstraint:
		for _, v := range values {
			if len(v.Lexical) < cc.Min {
				add(v.String())
			}
		}
	case MaxLengthConstraint:
		for _, v := range values {
			if len(v.Lexical) > cc.Max {
				add(v.String())
			}
		}
	case PatternConstraint:
		re, err := compilePattern(cc.Pattern, cc.Flags)
		if err != nil {
			return nil, NewShapeError(ErrTriplestore, err)
		}
		for _, v := range values {
			if !re.MatchString(v.Lexical) {
				add(v.String())
			}
		}
	case LanguageInConstraint:
		for _, v := range values {
			if !containsString(cc.Langs, v.Lang) {
				add(v.String())
			}
		}
	case UniqueLangConstraint:
		counts := map[string]int{}
		for _, v := range values {
			if v.Lang != "" {
				counts[v.Lang]++
			}
		}
		for lang, n := range counts {
			if n > 1 {
				add(lang)
			}
		}
	case EqualsConstraint:
		others, err := valuesOfPredicateForFocus(store, cc.Predicate, focus)
		if err != nil {
			return nil, err
		}
		if !sameTermSet(values, others) {
			add("")
		}
	case DisjointConstraint:
		others, err := valuesOfPredicateForFocus(store, cc.Predicate, focus)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if containsTerm(others, v) {
				add(v.String())
			}
		}
	case LessThanConstraint:
		others, err := valuesOfPredicateForFocus(store, cc.Predicate, focus)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if !allGreaterThan(v, others, false) {
				add(v.String())
			}
		}
	case LessThanOrEqualsConstraint:
		others, err := valuesOfPredicateForFocus(store, cc.Predicate, focus)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if !allGreaterThan(v, others, true) {
				add(v.String())
			}
		}
	case NotConstraint:
		for _, v := range values {
			ok, err := conforms(cc.Shape, v)
			if err != nil {
				return nil, err
			}
			if ok {
				add(v.String())
			}
		}
	case AndConstraint:
		for _, v := range values {
			all := true
			for _, ref := range cc.Shapes {
				ok, err := conforms(ref, v)
				if err != nil {
					return nil, err
				}
				if !ok {
					all = false
					break
				}
			}
			if !all {
				add(v.String())
			}
		}
	case OrConstraint:
		for _, v := range values {
			any := false
			for _, ref := range cc.Shapes {
				ok, err := conforms(ref, v)
				if err != nil {
					return nil, err
				}
				if ok {
					any = true
					break
				}
			}
			if !any {
				add(v.String())
			}
		}
	case XoneConstraint:
		for _, v := range values {
			count := 0
			for _, ref := range cc.Shapes {
				ok, err := conforms(ref, v)
				if err != nil {
					return nil, err
				}
				if ok {
					count++
				}
			}
			if count != 1 {
				add(v.String())
			}
		}
	case NodeConstraint:
		for _, v := range values {
			ok, err := conforms(cc.Shape, v)
			if err != nil {
				return nil, err
			}
			if !ok {
				add(v.String())
			}
		}
	case QualifiedConstraint:
		count := 0
		for _, v := range values {
			ok, err := conforms(cc.ValueShape, v)
			if err != nil {
				return nil, err
			}
			if ok {
				count++
			}
		}
		if cc.MinCount != nil && count < *cc.MinCount {
			add("")
		}
		if cc.MaxCount != nil && count > *cc.MaxCount {
			add("")
		}
	case HasValueConstraint:
		found := false
		for _, v := range values {
			if termsEqual(v, cc.Value) {
				found = true
				break
			}
		}
		if !found {
			add(cc.Value.String())
		}
	case InConstraint:
		for _, v := range values {
			found := false
			for _, allowed := range cc.Values {
				if termsEqual(v, allowed) {
					found = true
					break
				}
			}
			if !found {
				add(v.String())
			}
		}
	case PropertyConstraint, ClosedConstraint, IgnoredPropertiesConstraint:
		// sh:property is already folded into NodeShape.Properties by the
		// reader; sh:closed/sh:ignoredProperties apply to a node shape as
		// a whole in real SHACL, but NodeShape carries no Constraints
		// field to hang them on, so a shape graph that
		// attaches one to a property shape anyway is read without error
		// and simply never produces a violation.
	}
	return out, nil
}

func isInstanceOf(store catalog.Store, v rdf.Term, class string) (bool, error) {
	rows, err := scanTriples(store, rdf.RDFType)
	if err != nil {
		return false, err
	}
	key := termKey(v)
	for _, row := range rows {
		if row.Subject == key && row.Object.Type.Kind == rdf.KindIRI && row.Object.Lexical == class {
			return true, nil
		}
	}
	return false, nil
}

func valuesOfPredicateForFocus(store catalog.Store, predicate, focus string) ([]rdf.Term, error) {
	rows, err := scanTriples(store, predicate)
	if err != nil {
		return nil, err
	}
	var out []rdf.Term
	for _, row := range rows {
		if row.Subject == focus {
			out = append(out, row.Object)
		}
	}
	return out, nil
}

func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	if flags == "" {
		return regexp.Compile(pattern)
	}
	goFlags := ""
	for _, f := range flags {
		switch f {
		case 'i', 's', 'm':
			goFlags += string(f)
		}
	}
	if goFlags == "" {
		return regexp.Compile(pattern)
	}
	return regexp.Compile("(?" + goFlags + ")" + pattern)
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func containsTerm(ts []rdf.Term, t rdf.Term) bool {
	for _, v := range ts {
		if termsEqual(v, t) {
			return true
		}
	}
	return false
}

func sameTermSet(a, b []rdf.Term) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !containsTerm(b, v) {
			return false
		}
	}
	for _, v := range b {
		if !containsTerm(a, v) {
			return false
		}
	}
	return true
}

func termsEqual(a, b rdf.Term) bool {
	if !a.Type.Equal(b.Type) {
		return false
	}
	if a.Lexical != b.Lexical {
		return false
	}
	if a.Type.Datatype == rdf.RDFLangString && a.Lang != b.Lang {
		return false
	}
	return true
}

// compareTerms orders two terms by their native Go value, returning
// ok=false when they are not comparable (different native kinds, or
// either fails to parse its own lexical form).
func compareTerms(a, b rdf.Term) (int, bool) {
	av, aerr := a.Native()
	bv, berr := b.Native()
	if aerr != nil || berr != nil {
		return 0, false
	}
	switch x := av.(type) {
	case string:
		y, ok := bv.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case int64:
		y, ok := bv.(int64)
		if !ok {
			return 0, false
		}
		return compareInt64(x, y), true
	case float64:
		y, ok := bv.(float64)
		if !ok {
			return 0, false
		}
		return compareFloat64(x, y), true
	case bool:
		y, ok := bv.(bool)
		if !ok {
			return 0, false
		}
		return compareBool(x, y), true
	default:
		return 0, false
	}
}

func compareInt64(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func compareFloat64(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func compareBool(x, y bool) int {
	if x == y {
		return 0
	}
	if !x && y {
		return -1
	}
	return 1
}

// allGreaterThan reports whether v compares strictly (or, if
// orEqual, non-strictly) less than every term in others; an empty
// others set vacuously satisfies the constraint, per SHACL's
// sh:lessThan semantics (nothing to compare against, nothing violated).
func allGreaterThan(v rdf.Term, others []rdf.Term, orEqual bool) bool {
	for _, o := range others {
		cmp, ok := compareTerms(v, o)
		if !ok {
			return false
		}
		if orEqual {
			if cmp > 0 {
				return false
			}
		} else if cmp >= 0 {
			return false
		}
	}
	return true
}
