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
	"sort"
	"strconv"

	"github.com/badwolf-labs/colstore/catalog"
	"github.com/badwolf-labs/colstore/frame"
	"github.com/badwolf-labs/colstore/internal/intern"
	"github.com/badwolf-labs/colstore/rdf"
)

// Evaluate runs the single-dispatch evaluator over p against store.
// Every case returns a SolutionMappings whose Mappings LazyFrame is
// not forced until the caller's eventual Collect.
func Evaluate(store catalog.Store, p Pattern) (*SolutionMappings, error) {
	return evalPattern(store, Root, p)
}

func evalPattern(store catalog.Store, ctx Context, p Pattern) (*SolutionMappings, error) {
	switch node := p.(type) {
	case TriplePattern:
		return evalTriplePattern(store, node)
	case BGP:
		return evalBGP(store, ctx, node)
	case PropertyPathPattern:
		return evalPropertyPath(store, node)
	case Join:
		return evalJoin(store, ctx, node)
	case LeftJoin:
		return evalLeftJoin(store, ctx, node)
	case Minus:
		return evalMinus(store, ctx, node)
	case UnionPattern:
		return evalUnion(store, ctx, node)
	case FilterPattern:
		return evalFilter(store, ctx, node)
	case Extend:
		return evalExtend(store, ctx, node)
	case OrderBy:
		return evalOrderBy(store, ctx, node)
	case Project:
		return evalProject(store, ctx, node)
	case Distinct:
		return evalDistinct(store, ctx, node)
	case Slice:
		return evalSlice(store, ctx, node)
	case Values:
		return evalValues(node)
	case GroupBy:
		return evalGroupBy(store, ctx, node)
	default:
		return nil, fmt.Errorf("sparql: unknown pattern node %T", p)
	}
}

// evalTriplePattern resolves a single (subject, predicate, object)
// match against every table registered for the pattern's fixed
// predicate, unioning across the object datatypes of those tables.
// A variable predicate is rejected with ErrQueryTypeNotSupported.
func evalTriplePattern(store catalog.Store, tp TriplePattern) (*SolutionMappings, error) {
	if !tp.Predicate.IsVariable() {
		return evalFixedPredicate(store, tp)
	}
	return nil, NewQueryErrorf(ErrQueryTypeNotSupported, "variable predicates are not supported")
}

func evalFixedPredicate(store catalog.Store, tp TriplePattern) (*SolutionMappings, error) {
	predicate := tp.Predicate.Value.Lexical
	byType, ok := store.Lookup(predicate)
	if !ok {
		return emptyForPattern(tp), nil
	}
	var lfs []frame.LazyFrame
	var objType rdf.NodeType
	first := true
	for dt, table := range byType {
		tlfs, err := table.GetLazyFrames()
		if err != nil {
			return nil, NewQueryError(ErrTripleTableRead, err)
		}
		for _, lf := range tlfs {
			lf = applySlot(lf, "subject", tp.Subject)
			lf = applySlot(lf, "object", tp.Object)
			lfs = append(lfs, lf)
		}
		if first {
			objType = dt
			first = false
		} else if !objType.Equal(dt) {
			objType = rdf.None
		}
	}
	if objType.IsNone() && !first {
		// Conflicting object datatypes: the chunks cannot share a
		// native column kind, so fold every object column down to its
		// lexical string form before the union — the None sentinel is
		// string-backed everywhere else too.
		for i := range lfs {
			lfs[i] = stringifyObject(lfs[i])
		}
	}
	merged := frame.Union(lfs)

	types := map[string]rdf.NodeType{}
	cols := map[string]bool{}
	if tp.Subject.IsVariable() {
		merged = merged.Rename("subject", tp.Subject.Variable)
		types[tp.Subject.Variable] = rdf.IRI
		cols[tp.Subject.Variable] = true
	}
	if tp.Object.IsVariable() {
		merged = merged.Rename("object", tp.Object.Variable)
		types[tp.Object.Variable] = objType
		cols[tp.Object.Variable] = true
	}
	if len(cols) == 1 {
		// A bound slot's physical column is dropped so the frame's
		// schema equals the bound-variable set.
		for v := range cols {
			merged = merged.Select([]string{v})
		}
	}
	return &SolutionMappings{Mappings: merged, Columns: cols, RDFNodeTypes: types}, nil
}

// stringifyObject rewrites lf's object column to its lexical string
// form, so chunks read from tables with different object datatypes
// share one schema before they are unioned.
func stringifyObject(lf frame.LazyFrame) frame.LazyFrame {
	return frame.FromThunk(func() (*frame.Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		c, ok := f.Column("object")
		if !ok || c.Kind() == frame.KindString {
			return f, nil
		}
		cb := frame.NewColumnBuilder(frame.KindString)
		for i := 0; i < c.Len(); i++ {
			if !c.IsValid(i) {
				cb.AppendNull()
				continue
			}
			switch c.Kind() {
			case frame.KindInt64:
				cb.AppendString(strconv.FormatInt(c.Int64At(i), 10))
			case frame.KindFloat64:
				cb.AppendString(strconv.FormatFloat(c.Float64At(i), 'g', -1, 64))
			case frame.KindBool:
				cb.AppendString(strconv.FormatBool(c.BoolAt(i)))
			default:
				cb.AppendNull()
			}
		}
		sub, ok := f.Column("subject")
		if !ok {
			return nil, fmt.Errorf("sparql: triple chunk has no subject column")
		}
		return frame.New([]string{"subject", "object"}, map[string]frame.Column{
			"subject": sub,
			"object":  cb.NewColumn(),
		})
	})
}

func applySlot(lf frame.LazyFrame, column string, slot Slot) frame.LazyFrame {
	if slot.IsVariable() {
		return lf
	}
	native, err := slot.Value.Native()
	if err != nil {
		return lf
	}
	return lf.FilterEqValue(column, native)
}

func emptyForPattern(tp TriplePattern) *SolutionMappings {
	names := []string{}
	kinds := map[string]frame.Kind{}
	cols := map[string]bool{}
	types := map[string]rdf.NodeType{}
	if tp.Subject.IsVariable() {
		names = append(names, tp.Subject.Variable)
		kinds[tp.Subject.Variable] = frame.KindString
		cols[tp.Subject.Variable] = true
		types[tp.Subject.Variable] = rdf.None
	}
	if tp.Object.IsVariable() {
		names = append(names, tp.Object.Variable)
		kinds[tp.Object.Variable] = frame.KindString
		cols[tp.Object.Variable] = true
		types[tp.Object.Variable] = rdf.None
	}
	return &SolutionMappings{
		Mappings:     frame.Scan(frame.Empty(names, kinds)),
		Columns:      cols,
		RDFNodeTypes: types,
	}
}

func evalBGP(store catalog.Store, ctx Context, b BGP) (*SolutionMappings, error) {
	if len(b.Patterns) == 0 {
		return Empty(), nil
	}
	acc, err := evalPattern(store, ctx.Push("bgp", 0), b.Patterns[0])
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(b.Patterns); i++ {
		next, err := evalPattern(store, ctx.Push("bgp", i), b.Patterns[i])
		if err != nil {
			return nil, err
		}
		acc, err = joinSolutions(acc, next)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func sharedVars(a, b *SolutionMappings) []string {
	var shared []string
	for v := range a.Columns {
		if b.Columns[v] {
			shared = append(shared, v)
		}
	}
	sort.Strings(shared)
	return shared
}

// internJoinKeys casts every string-valued join key column of both
// sides to its interned categorical code, so the equi-join compares
// int64 codes instead of full IRI strings. Codes come from the
// process-wide intern table, so a column interned on one side joins
// consistently against a column interned on the other.
func internJoinKeys(left, right *SolutionMappings, keys []string) (frame.LazyFrame, frame.LazyFrame) {
	lm, rm := left.Mappings, right.Mappings
	if !intern.Enabled() {
		return lm, rm
	}
	for _, k := range keys {
		if rdf.IsStringColumn(left.RDFNodeTypes[k]) && rdf.IsStringColumn(right.RDFNodeTypes[k]) {
			lm = lm.Intern(k)
			rm = rm.Intern(k)
		}
	}
	return lm, rm
}

func joinSolutions(left, right *SolutionMappings) (*SolutionMappings, error) {
	shared := sharedVars(left, right)
	for _, v := range shared {
		if err := checkConsistentType(left.RDFNodeTypes, v, right.RDFNodeTypes[v]); err != nil {
			return nil, err
		}
	}
	merged := left.clone()
	if len(shared) == 0 {
		merged.Mappings = left.Mappings.Join(right.Mappings, nil, frame.JoinCross)
	} else {
		lm, rm := internJoinKeys(left, right, shared)
		merged.Mappings = lm.Sort(shared).Join(rm.Sort(shared), shared, frame.JoinInner)
	}
	for v := range right.Columns {
		merged.Columns[v] = true
	}
	for v, t := range right.RDFNodeTypes {
		if _, ok := merged.RDFNodeTypes[v]; !ok {
			merged.RDFNodeTypes[v] = t
		}
	}
	return merged, nil
}

func evalJoin(store catalog.Store, ctx Context, j Join) (*SolutionMappings, error) {
	left, err := evalPattern(store, ctx.Push("join", 0), j.Left)
	if err != nil {
		return nil, err
	}
	right, err := evalPattern(store, ctx.Push("join", 1), j.Right)
	if err != nil {
		return nil, err
	}
	return joinSolutions(left, right)
}

func evalLeftJoin(store catalog.Store, ctx Context, lj LeftJoin) (*SolutionMappings, error) {
	left, err := evalPattern(store, ctx.Push("leftjoin", 0), lj.Left)
	if err != nil {
		return nil, err
	}
	right, err := evalPattern(store, ctx.Push("leftjoin", 1), lj.Right)
	if err != nil {
		return nil, err
	}
	shared := sharedVars(left, right)
	merged := left.clone()
	if len(shared) == 0 {
		// JoinLeft with no keys degenerates to "keep every left row,
		// cross-matched against all right rows, nulls when right is
		// empty" — exactly OPTIONAL over disjoint variable sets.
		merged.Mappings = left.Mappings.Join(right.Mappings, nil, frame.JoinLeft)
	} else {
		lm, rm := internJoinKeys(left, right, shared)
		merged.Mappings = lm.Sort(shared).Join(rm.Sort(shared), shared, frame.JoinLeft)
	}
	for v := range right.Columns {
		merged.Columns[v] = true
	}
	for v, t := range right.RDFNodeTypes {
		if _, ok := merged.RDFNodeTypes[v]; !ok {
			merged.RDFNodeTypes[v] = t
		}
	}
	if lj.Cond == nil {
		return merged, nil
	}
	rightOnly := make([]string, 0, len(right.Columns))
	for v := range right.Columns {
		if !contains(shared, v) {
			rightOnly = append(rightOnly, v)
		}
	}
	types := merged.RDFNodeTypes
	merged.Mappings = merged.Decategorized().Filter(func(f *frame.Frame, i int) bool {
		if rightUnmatched(f, i, rightOnly) {
			return true
		}
		v, err := evalExpr(lj.Cond, f.Row(i), types)
		if err != nil {
			return false
		}
		return v.truthy()
	})
	return merged, nil
}

func rightUnmatched(f *frame.Frame, i int, rightOnly []string) bool {
	for _, v := range rightOnly {
		c, ok := f.Column(v)
		if ok && c.IsValid(i) {
			return false
		}
	}
	return len(rightOnly) > 0
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func evalMinus(store catalog.Store, ctx Context, m Minus) (*SolutionMappings, error) {
	left, err := evalPattern(store, ctx.Push("minus", 0), m.Left)
	if err != nil {
		return nil, err
	}
	right, err := evalPattern(store, ctx.Push("minus", 1), m.Right)
	if err != nil {
		return nil, err
	}
	shared := sharedVars(left, right)
	if len(shared) == 0 {
		// SPARQL MINUS is a no-op when the two sides share no variables.
		return left, nil
	}
	out := left.clone()
	lm, rm := internJoinKeys(left, right, shared)
	out.Mappings = lm.Sort(shared).Join(rm.Sort(shared), shared, frame.JoinAnti)
	return out, nil
}

func evalUnion(store catalog.Store, ctx Context, u UnionPattern) (*SolutionMappings, error) {
	left, err := evalPattern(store, ctx.Push("union", 0), u.Left)
	if err != nil {
		return nil, err
	}
	right, err := evalPattern(store, ctx.Push("union", 1), u.Right)
	if err != nil {
		return nil, err
	}
	for v, t := range right.RDFNodeTypes {
		if err := checkConsistentType(left.RDFNodeTypes, v, t); err != nil {
			return nil, err
		}
	}
	out := left.clone()
	for v := range right.Columns {
		out.Columns[v] = true
	}
	for v, t := range right.RDFNodeTypes {
		if _, ok := out.RDFNodeTypes[v]; !ok {
			out.RDFNodeTypes[v] = t
		}
	}
	allVars := make([]string, 0, len(out.Columns))
	for v := range out.Columns {
		allVars = append(allVars, v)
	}
	sort.Strings(allVars)
	kinds := make(map[string]frame.Kind, len(allVars))
	for _, v := range allVars {
		kinds[v] = columnKindFor(out.RDFNodeTypes[v])
	}
	out.Mappings = frame.Union([]frame.LazyFrame{
		padColumns(left.Decategorized(), allVars, kinds),
		padColumns(right.Decategorized(), allVars, kinds),
	})
	return out, nil
}

// padColumns adds any of vars missing from lf's eventual schema as an
// all-null column of the variable's declared kind, so Union's
// equal-schema requirement is met.
func padColumns(lf frame.LazyFrame, vars []string, kinds map[string]frame.Kind) frame.LazyFrame {
	return frame.FromThunk(func() (*frame.Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		cols := map[string]frame.Column{}
		for _, v := range vars {
			if c, ok := f.Column(v); ok {
				cols[v] = c
				continue
			}
			cb := frame.NewColumnBuilder(kinds[v])
			for i := 0; i < f.NumRows(); i++ {
				cb.AppendNull()
			}
			cols[v] = cb.NewColumn()
		}
		return frame.New(vars, cols)
	})
}

func evalFilter(store catalog.Store, ctx Context, fp FilterPattern) (*SolutionMappings, error) {
	inner, err := evalPattern(store, ctx.Push("filter", 0), fp.Inner)
	if err != nil {
		return nil, err
	}
	types := inner.RDFNodeTypes
	out := inner.clone()
	out.Mappings = inner.Decategorized().Filter(func(f *frame.Frame, i int) bool {
		v, err := evalExpr(fp.Cond, f.Row(i), types)
		if err != nil {
			return false
		}
		return v.truthy()
	})
	return out, nil
}

func evalExtend(store catalog.Store, ctx Context, ext Extend) (*SolutionMappings, error) {
	inner, err := evalPattern(store, ctx.Push("extend", 0), ext.Inner)
	if err != nil {
		return nil, err
	}
	types := inner.RDFNodeTypes
	out := inner.clone()
	newType := staticExprType(ext.Expr, types)
	kind := columnKindFor(newType)
	decat := inner.Decategorized()
	out.Mappings = frame.FromThunk(func() (*frame.Frame, error) {
		f, err := decat.Collect()
		if err != nil {
			return nil, err
		}
		cb := frame.NewColumnBuilder(kind)
		for i := 0; i < f.NumRows(); i++ {
			v, err := evalExpr(ext.Expr, f.Row(i), types)
			if err != nil {
				cb.AppendNull()
				continue
			}
			if err := cb.AppendAny(v.Value); err != nil {
				cb.AppendNull()
			}
		}
		names := append(append([]string{}, f.ColumnNames()...), ext.Var)
		cols := map[string]frame.Column{}
		for _, n := range f.ColumnNames() {
			c, _ := f.Column(n)
			cols[n] = c
		}
		cols[ext.Var] = cb.NewColumn()
		return frame.New(names, cols)
	})
	out.Columns[ext.Var] = true
	out.RDFNodeTypes[ext.Var] = newType
	return out, nil
}

// columnKindFor maps a declared RDF node type to the physical column
// kind an Extend builds for it.
func columnKindFor(t rdf.NodeType) frame.Kind {
	if rdf.IsStringColumn(t) {
		return frame.KindString
	}
	switch t.Datatype {
	case rdf.XSDInteger:
		return frame.KindInt64
	case rdf.XSDBoolean:
		return frame.KindBool
	case rdf.XSDFloat, rdf.XSDDouble:
		return frame.KindFloat64
	default:
		return frame.KindString
	}
}

func evalOrderBy(store catalog.Store, ctx Context, ob OrderBy) (*SolutionMappings, error) {
	inner, err := evalPattern(store, ctx.Push("orderby", 0), ob.Inner)
	if err != nil {
		return nil, err
	}
	out := inner.clone()
	names := make([]string, len(ob.Keys))
	for i, k := range ob.Keys {
		names[i] = k.Var
	}
	sorted := inner.Decategorized().Sort(names)
	// Mixed ascending/descending multi-key order needs a comparator
	// frame.Sort doesn't expose; as a pragmatic simplification a
	// descending leading key reverses the whole ascending order, which
	// is exact for single-key ORDER BY and an approximation beyond
	// that.
	if len(ob.Keys) > 0 && ob.Keys[0].Desc {
		out.Mappings = reverse(sorted)
	} else {
		out.Mappings = sorted
	}
	return out, nil
}

func reverse(lf frame.LazyFrame) frame.LazyFrame {
	return frame.FromThunk(func() (*frame.Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		n := f.NumRows()
		names := f.ColumnNames()
		cols := make(map[string]frame.Column, len(names))
		for _, name := range names {
			c := f.MustColumn(name)
			cb := frame.NewColumnBuilder(c.Kind())
			for i := n - 1; i >= 0; i-- {
				if err := cb.AppendAny(c.AnyAt(i)); err != nil {
					return nil, err
				}
			}
			cols[name] = cb.NewColumn()
		}
		return frame.New(names, cols)
	})
}

func evalProject(store catalog.Store, ctx Context, proj Project) (*SolutionMappings, error) {
	inner, err := evalPattern(store, ctx.Push("project", 0), proj.Inner)
	if err != nil {
		return nil, err
	}
	out := inner.clone()
	out.Mappings = inner.Mappings.Select(proj.Vars)
	cols := map[string]bool{}
	types := map[string]rdf.NodeType{}
	for _, v := range proj.Vars {
		cols[v] = true
		types[v] = inner.RDFNodeTypes[v]
	}
	out.Columns = cols
	out.RDFNodeTypes = types
	return out, nil
}

func evalDistinct(store catalog.Store, ctx Context, d Distinct) (*SolutionMappings, error) {
	inner, err := evalPattern(store, ctx.Push("distinct", 0), d.Inner)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(inner.Columns))
	for v := range inner.Columns {
		names = append(names, v)
	}
	out := inner.clone()
	decat := inner.Decategorized()
	out.Mappings = frame.FromThunk(func() (*frame.Frame, error) {
		f, err := decat.Collect()
		if err != nil {
			return nil, err
		}
		return distinctRows(f, names)
	})
	return out, nil
}

func distinctRows(f *frame.Frame, keys []string) (*frame.Frame, error) {
	seen := map[string]bool{}
	var idx []int
	for i := 0; i < f.NumRows(); i++ {
		tup := ""
		for _, k := range keys {
			c, ok := f.Column(k)
			if !ok {
				continue
			}
			tup += fmt.Sprintf("\x00%v", c.AnyAt(i))
		}
		if seen[tup] {
			continue
		}
		seen[tup] = true
		idx = append(idx, i)
	}
	return takeIndices(f, idx)
}

func takeIndices(f *frame.Frame, idx []int) (*frame.Frame, error) {
	return frame.Scan(f).Filter(func(_ *frame.Frame, i int) bool {
		for _, v := range idx {
			if v == i {
				return true
			}
		}
		return false
	}).Collect()
}

func evalSlice(store catalog.Store, ctx Context, s Slice) (*SolutionMappings, error) {
	inner, err := evalPattern(store, ctx.Push("slice", 0), s.Inner)
	if err != nil {
		return nil, err
	}
	out := inner.clone()
	decat := inner.Decategorized()
	out.Mappings = frame.FromThunk(func() (*frame.Frame, error) {
		f, err := decat.Collect()
		if err != nil {
			return nil, err
		}
		lo := s.Offset
		if lo > f.NumRows() {
			lo = f.NumRows()
		}
		hi := f.NumRows()
		if s.Limit >= 0 && lo+s.Limit < hi {
			hi = lo + s.Limit
		}
		return f.Slice(lo, hi)
	})
	return out, nil
}

func evalValues(v Values) (*SolutionMappings, error) {
	kinds := map[string]frame.Kind{}
	for _, name := range v.Vars {
		kinds[name] = frame.KindString
	}
	cols := map[string]*frame.ColumnBuilder{}
	for _, name := range v.Vars {
		cols[name] = frame.NewColumnBuilder(frame.KindString)
	}
	for _, row := range v.Rows {
		for i, name := range v.Vars {
			if row[i] == nil {
				cols[name].AppendNull()
				continue
			}
			cols[name].AppendString(row[i].Lexical)
		}
	}
	built := map[string]frame.Column{}
	for _, name := range v.Vars {
		built[name] = cols[name].NewColumn()
	}
	f, err := frame.New(v.Vars, built)
	if err != nil {
		return nil, err
	}
	colSet := map[string]bool{}
	types := map[string]rdf.NodeType{}
	for i, name := range v.Vars {
		colSet[name] = true
		types[name] = rdf.IRI
		for _, row := range v.Rows {
			if row[i] != nil {
				types[name] = row[i].Type
				break
			}
		}
	}
	return &SolutionMappings{Mappings: frame.Scan(f), Columns: colSet, RDFNodeTypes: types}, nil
}

func evalGroupBy(store catalog.Store, ctx Context, g GroupBy) (*SolutionMappings, error) {
	inner, err := evalPattern(store, ctx.Push("groupby", 0), g.Inner)
	if err != nil {
		return nil, err
	}
	out := &SolutionMappings{Columns: map[string]bool{}, RDFNodeTypes: map[string]rdf.NodeType{}}
	for _, k := range g.Keys {
		out.Columns[k] = true
		out.RDFNodeTypes[k] = inner.RDFNodeTypes[k]
	}
	for _, a := range g.Aggregates {
		out.Columns[a.As] = true
		out.RDFNodeTypes[a.As] = aggregateType(a)
	}
	decat := inner.Decategorized()
	out.Mappings = frame.FromThunk(func() (*frame.Frame, error) {
		f, err := decat.Collect()
		if err != nil {
			return nil, err
		}
		groups, err := frame.Partition(f, g.Keys)
		if err != nil {
			return nil, err
		}
		return aggregateGroups(groups, g)
	})
	return out, nil
}

func aggregateType(a Aggregate) rdf.NodeType {
	switch a.Func {
	case "COUNT":
		return rdf.Literal(rdf.XSDInteger)
	default:
		return rdf.Literal(rdf.XSDDouble)
	}
}

func aggregateGroups(groups map[string]*frame.Frame, g GroupBy) (*frame.Frame, error) {
	names := append(append([]string{}, g.Keys...), aggregateNames(g.Aggregates)...)
	builders := map[string]*frame.ColumnBuilder{}
	for _, k := range g.Keys {
		builders[k] = frame.NewColumnBuilder(frame.KindString)
	}
	for _, a := range g.Aggregates {
		builders[a.As] = frame.NewColumnBuilder(goKindForAggregate(a))
	}
	for _, sub := range groups {
		for _, k := range g.Keys {
			c, ok := sub.Column(k)
			if !ok || sub.NumRows() == 0 {
				builders[k].AppendNull()
				continue
			}
			if err := builders[k].AppendAny(c.AnyAt(0)); err != nil {
				return nil, err
			}
		}
		for _, a := range g.Aggregates {
			val, err := computeAggregate(sub, a)
			if err != nil {
				return nil, err
			}
			if err := builders[a.As].AppendAny(val); err != nil {
				return nil, err
			}
		}
	}
	cols := map[string]frame.Column{}
	for _, n := range names {
		cols[n] = builders[n].NewColumn()
	}
	return frame.New(names, cols)
}

func aggregateNames(aggs []Aggregate) []string {
	out := make([]string, len(aggs))
	for i, a := range aggs {
		out[i] = a.As
	}
	return out
}

func goKindForAggregate(a Aggregate) frame.Kind {
	if a.Func == "COUNT" {
		return frame.KindInt64
	}
	return frame.KindFloat64
}

func computeAggregate(f *frame.Frame, a Aggregate) (interface{}, error) {
	switch a.Func {
	case "COUNT":
		if a.Var == "" {
			return int64(f.NumRows()), nil
		}
		c, ok := f.Column(a.Var)
		if !ok {
			return int64(0), nil
		}
		n := int64(0)
		for i := 0; i < f.NumRows(); i++ {
			if c.IsValid(i) {
				n++
			}
		}
		return n, nil
	case "SUM", "AVG", "MIN", "MAX":
		c, ok := f.Column(a.Var)
		if !ok {
			return nil, nil
		}
		return numericAggregate(c, a.Func)
	case "SAMPLE":
		c, ok := f.Column(a.Var)
		if !ok || f.NumRows() == 0 {
			return nil, nil
		}
		return c.AnyAt(0), nil
	default:
		return nil, fmt.Errorf("sparql: unknown aggregate function %q", a.Func)
	}
}

func numericAggregate(c frame.Column, fn string) (float64, error) {
	var sum, count float64
	var min, max float64
	first := true
	for i := 0; i < c.Len(); i++ {
		if !c.IsValid(i) {
			continue
		}
		v, ok := asFloat(c.AnyAt(i))
		if !ok {
			continue
		}
		sum += v
		count++
		if first || v < min {
			min = v
		}
		if first || v > max {
			max = v
		}
		first = false
	}
	switch fn {
	case "SUM":
		return sum, nil
	case "AVG":
		if count == 0 {
			return 0, nil
		}
		return sum / count, nil
	case "MIN":
		return min, nil
	case "MAX":
		return max, nil
	default:
		return 0, fmt.Errorf("sparql: unknown numeric aggregate %q", fn)
	}
}

func evalPropertyPath(store catalog.Store, ppp PropertyPathPattern) (*SolutionMappings, error) {
	lf, objType, err := evalPath(store, ppp.Path)
	if err != nil {
		return nil, err
	}
	lf = applySlot(lf, "subject", ppp.Subject)
	lf = applySlot(lf, "object", ppp.Object)
	cols := map[string]bool{}
	types := map[string]rdf.NodeType{}
	if ppp.Subject.IsVariable() {
		lf = lf.Rename("subject", ppp.Subject.Variable)
		cols[ppp.Subject.Variable] = true
		types[ppp.Subject.Variable] = rdf.IRI
	}
	if ppp.Object.IsVariable() {
		lf = lf.Rename("object", ppp.Object.Variable)
		cols[ppp.Object.Variable] = true
		types[ppp.Object.Variable] = objType
	}
	if len(cols) == 1 {
		// A bound slot's physical column is dropped so the frame's
		// schema equals the bound-variable set.
		for v := range cols {
			lf = lf.Select([]string{v})
		}
	}
	return &SolutionMappings{Mappings: lf, Columns: cols, RDFNodeTypes: types}, nil
}

// EvalPath expands a property path into a single (subject, object)
// LazyFrame against store. Exported so package shacl can walk a
// reconstructed Path with the exact same join/union/fixed-point
// primitives a SPARQL property path pattern uses.
func EvalPath(store catalog.Store, p Path) (frame.LazyFrame, rdf.NodeType, error) {
	return evalPath(store, p)
}

// evalPath expands a property path into a single (subject, object)
// LazyFrame, recursively combining step predicates with the same
// join/union primitives the rest of the evaluator uses — SPARQL paths
// get no separate execution engine.
func evalPath(store catalog.Store, p Path) (frame.LazyFrame, rdf.NodeType, error) {
	switch path := p.(type) {
	case PathIRI:
		byType, ok := store.Lookup(path.IRI)
		if !ok {
			return frame.Scan(frame.Empty([]string{"subject", "object"}, map[string]frame.Kind{"subject": frame.KindString, "object": frame.KindString})), rdf.None, nil
		}
		var lfs []frame.LazyFrame
		var objType rdf.NodeType
		first := true
		for dt, t := range byType {
			tlfs, err := t.GetLazyFrames()
			if err != nil {
				return frame.LazyFrame{}, rdf.None, NewQueryError(ErrTripleTableRead, err)
			}
			lfs = append(lfs, tlfs...)
			if first {
				objType = dt
				first = false
			} else if !objType.Equal(dt) {
				objType = rdf.None
			}
		}
		if objType.IsNone() && !first {
			// Same conflict resolution as a direct triple pattern:
			// incompatible object kinds union as lexical strings under
			// the None sentinel instead of failing at Collect.
			for i := range lfs {
				lfs[i] = stringifyObject(lfs[i])
			}
		}
		return frame.Union(lfs), objType, nil
	case PathInverse:
		lf, t, err := evalPath(store, path.Inner)
		if err != nil {
			return frame.LazyFrame{}, rdf.None, err
		}
		swapped := lf.Rename("subject", "__tmp_subject__").Rename("object", "subject").Rename("__tmp_subject__", "object")
		return swapped, t, nil
	case PathSeq:
		left, _, err := evalPath(store, path.Left)
		if err != nil {
			return frame.LazyFrame{}, rdf.None, err
		}
		right, t, err := evalPath(store, path.Right)
		if err != nil {
			return frame.LazyFrame{}, rdf.None, err
		}
		left = left.Rename("object", "__mid__")
		right = right.Rename("subject", "__mid__")
		joined := left.Join(right, []string{"__mid__"}, frame.JoinInner).Select([]string{"subject", "object"})
		return joined, t, nil
	case PathAlt:
		left, t, err := evalPath(store, path.Left)
		if err != nil {
			return frame.LazyFrame{}, rdf.None, err
		}
		right, _, err := evalPath(store, path.Right)
		if err != nil {
			return frame.LazyFrame{}, rdf.None, err
		}
		return frame.Union([]frame.LazyFrame{left, right}), t, nil
	case PathZeroOrOne:
		lf, t, err := evalPath(store, path.Inner)
		if err != nil {
			return frame.LazyFrame{}, rdf.None, err
		}
		return frame.Union([]frame.LazyFrame{lf, identityPairs(lf)}), t, nil
	case PathZeroOrMore:
		return fixedPointClosure(store, path.Inner, true)
	case PathOneOrMore:
		return fixedPointClosure(store, path.Inner, false)
	default:
		return frame.LazyFrame{}, rdf.None, fmt.Errorf("sparql: unknown path node %T", p)
	}
}

// identityPairs produces (x, x) for every subject and object value
// seen in lf, the base case a "?" path adds on top of one hop ("*"
// gets its identity pairs from fixedPointClosure).
func identityPairs(lf frame.LazyFrame) frame.LazyFrame {
	return frame.FromThunk(func() (*frame.Frame, error) {
		f, err := lf.Collect()
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		sub := frame.NewColumnBuilder(frame.KindString)
		obj := frame.NewColumnBuilder(frame.KindString)
		addNode := func(c frame.Column, i int) {
			if !c.IsValid(i) {
				return
			}
			v := c.StringAt(i)
			if seen[v] {
				return
			}
			seen[v] = true
			sub.AppendString(v)
			obj.AppendString(v)
		}
		if s, ok := f.Column("subject"); ok {
			for i := 0; i < f.NumRows(); i++ {
				addNode(s, i)
			}
		}
		if o, ok := f.Column("object"); ok {
			for i := 0; i < f.NumRows(); i++ {
				addNode(o, i)
			}
		}
		return frame.New([]string{"subject", "object"}, map[string]frame.Column{
			"subject": sub.NewColumn(),
			"object":  obj.NewColumn(),
		})
	})
}

// fixedPointClosure computes the transitive closure of a single-hop
// path by repeatedly joining the accumulated reachability frame with
// one more hop until it stops growing.
func fixedPointClosure(store catalog.Store, inner Path, includeIdentity bool) (frame.LazyFrame, rdf.NodeType, error) {
	step, t, err := evalPath(store, inner)
	if err != nil {
		return frame.LazyFrame{}, rdf.None, err
	}
	base, err := step.Collect()
	if err != nil {
		return frame.LazyFrame{}, rdf.None, err
	}
	pairs := map[[2]string]bool{}
	var frontier []([2]string)
	for i := 0; i < base.NumRows(); i++ {
		s, _ := base.Column("subject")
		o, _ := base.Column("object")
		if !s.IsValid(i) || !o.IsValid(i) {
			continue
		}
		p := [2]string{s.StringAt(i), o.StringAt(i)}
		if !pairs[p] {
			pairs[p] = true
			frontier = append(frontier, p)
		}
	}
	adjacency := map[string][]string{}
	for p := range pairs {
		adjacency[p[0]] = append(adjacency[p[0]], p[1])
	}
	for len(frontier) > 0 {
		var next []([2]string)
		for _, p := range frontier {
			for _, o2 := range adjacency[p[1]] {
				np := [2]string{p[0], o2}
				if !pairs[np] {
					pairs[np] = true
					next = append(next, np)
				}
			}
		}
		frontier = next
	}
	if includeIdentity {
		nodes := map[string]bool{}
		for p := range pairs {
			nodes[p[0]] = true
			nodes[p[1]] = true
		}
		for n := range nodes {
			pairs[[2]string{n, n}] = true
		}
	}
	sub := frame.NewColumnBuilder(frame.KindString)
	obj := frame.NewColumnBuilder(frame.KindString)
	for p := range pairs {
		sub.AppendString(p[0])
		obj.AppendString(p[1])
	}
	f, err := frame.New([]string{"subject", "object"}, map[string]frame.Column{
		"subject": sub.NewColumn(),
		"object":  obj.NewColumn(),
	})
	if err != nil {
		return frame.LazyFrame{}, rdf.None, err
	}
	return frame.Scan(f), t, nil
}
