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

	"github.com/badwolf-labs/colstore/rdf"
)

// Expr is the closed set of SPARQL FILTER/BIND expression nodes.
type Expr interface{ isExpr() }

// VarExpr references a bound variable.
type VarExpr struct{ Name string }

// LitExpr is a ground RDF term literal.
type LitExpr struct{ Value rdf.Term }

// BinExpr is a binary operator: one of
// "=" "!=" "<" "<=" ">" ">=" "&&" "||" "+" "-" "*" "/".
type BinExpr struct {
	Op          string
	Left, Right Expr
}

// UnaryExpr is "!" (logical not) or "-" (negation).
type UnaryExpr struct {
	Op    string
	Inner Expr
}

// BoundExpr is the BOUND(?var) built-in.
type BoundExpr struct{ Var string }

// CallExpr is any other SPARQL built-in function call (STR, LANG,
// DATATYPE, REGEX, CONTAINS, ...).
type CallExpr struct {
	Name string
	Args []Expr
}

func (VarExpr) isExpr()   {}
func (LitExpr) isExpr()   {}
func (BinExpr) isExpr()   {}
func (UnaryExpr) isExpr() {}
func (BoundExpr) isExpr() {}
func (CallExpr) isExpr()  {}

// evalValue is the boxed result of evaluating an Expr for one row:
// the native Go value plus the RDF node type it should be interpreted
// as (mirrors rdf.Term.Native, but keeps null-handling explicit).
type evalValue struct {
	Value interface{}
	Type  rdf.NodeType
}

func (v evalValue) truthy() bool {
	if v.Value == nil {
		return false
	}
	switch x := v.Value.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// staticExprType derives the RDF node type an expression's result
// column will carry, from the expression's structure alone — an Extend
// has to declare its new column's type before any row is evaluated.
func staticExprType(expr Expr, types map[string]rdf.NodeType) rdf.NodeType {
	switch e := expr.(type) {
	case VarExpr:
		return types[e.Name]
	case LitExpr:
		return e.Value.Type
	case BoundExpr:
		return rdf.Literal(rdf.XSDBoolean)
	case UnaryExpr:
		if e.Op == "!" {
			return rdf.Literal(rdf.XSDBoolean)
		}
		return staticExprType(e.Inner, types)
	case BinExpr:
		switch e.Op {
		case "&&", "||", "=", "!=", "<", "<=", ">", ">=":
			return rdf.Literal(rdf.XSDBoolean)
		case "/":
			return rdf.Literal(rdf.XSDDouble)
		default:
			lt := staticExprType(e.Left, types)
			rt := staticExprType(e.Right, types)
			if lt.Equal(rt) {
				return lt
			}
			return rdf.Literal(rdf.XSDDouble)
		}
	case CallExpr:
		switch strings.ToUpper(e.Name) {
		case "STRLEN":
			return rdf.Literal(rdf.XSDInteger)
		case "CONTAINS", "REGEX":
			return rdf.Literal(rdf.XSDBoolean)
		case "UCASE", "LCASE":
			if len(e.Args) > 0 {
				return staticExprType(e.Args[0], types)
			}
			return rdf.Literal(rdf.XSDString)
		default:
			return rdf.Literal(rdf.XSDString)
		}
	default:
		return rdf.None
	}
}

// evalExpr evaluates expr against one solution row. types gives the
// RDF node type of every column referenced by a VarExpr; row gives the
// boxed native value of every column.
func evalExpr(expr Expr, row map[string]interface{}, types map[string]rdf.NodeType) (evalValue, error) {
	switch e := expr.(type) {
	case VarExpr:
		return evalValue{Value: row[e.Name], Type: types[e.Name]}, nil
	case LitExpr:
		native, err := e.Value.Native()
		if err != nil {
			return evalValue{}, err
		}
		return evalValue{Value: native, Type: e.Value.Type}, nil
	case BoundExpr:
		_, bound := row[e.Var]
		return evalValue{Value: row[e.Var] != nil && bound, Type: rdf.Literal(rdf.XSDBoolean)}, nil
	case UnaryExpr:
		inner, err := evalExpr(e.Inner, row, types)
		if err != nil {
			return evalValue{}, err
		}
		return evalUnary(e.Op, inner)
	case BinExpr:
		left, err := evalExpr(e.Left, row, types)
		if err != nil {
			return evalValue{}, err
		}
		right, err := evalExpr(e.Right, row, types)
		if err != nil {
			return evalValue{}, err
		}
		return evalBinary(e.Op, left, right)
	case CallExpr:
		return evalCall(e, row, types)
	default:
		return evalValue{}, fmt.Errorf("sparql: unknown expression node %T", expr)
	}
}

func evalUnary(op string, v evalValue) (evalValue, error) {
	switch op {
	case "!":
		return evalValue{Value: !v.truthy(), Type: rdf.Literal(rdf.XSDBoolean)}, nil
	case "-":
		switch n := v.Value.(type) {
		case int64:
			return evalValue{Value: -n, Type: v.Type}, nil
		case float64:
			return evalValue{Value: -n, Type: v.Type}, nil
		default:
			return evalValue{}, fmt.Errorf("sparql: cannot negate %T", v.Value)
		}
	default:
		return evalValue{}, fmt.Errorf("sparql: unknown unary operator %q", op)
	}
}

func evalBinary(op string, l, r evalValue) (evalValue, error) {
	switch op {
	case "&&":
		return evalValue{Value: l.truthy() && r.truthy(), Type: rdf.Literal(rdf.XSDBoolean)}, nil
	case "||":
		return evalValue{Value: l.truthy() || r.truthy(), Type: rdf.Literal(rdf.XSDBoolean)}, nil
	case "=", "!=", "<", "<=", ">", ">=":
		cmp, ok := compareValues(l.Value, r.Value)
		if !ok {
			return evalValue{Value: op == "!=", Type: rdf.Literal(rdf.XSDBoolean)}, nil
		}
		var res bool
		switch op {
		case "=":
			res = cmp == 0
		case "!=":
			res = cmp != 0
		case "<":
			res = cmp < 0
		case "<=":
			res = cmp <= 0
		case ">":
			res = cmp > 0
		case ">=":
			res = cmp >= 0
		}
		return evalValue{Value: res, Type: rdf.Literal(rdf.XSDBoolean)}, nil
	case "+", "-", "*", "/":
		return evalArith(op, l, r)
	default:
		return evalValue{}, fmt.Errorf("sparql: unknown binary operator %q", op)
	}
}

// compareValues returns (cmp, ok): ok is false when the two values are
// not order-comparable (type mismatch). evalBinary then yields false
// for every comparison operator except "!=", which yields true.
func compareValues(a, b interface{}) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpInt64(x, y), true
		case float64:
			return cmpFloat64(float64(x), y), true
		}
		return 0, false
	case float64:
		switch y := b.(type) {
		case float64:
			return cmpFloat64(x, y), true
		case int64:
			return cmpFloat64(x, float64(y)), true
		}
		return 0, false
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if x == y {
			return 0, true
		}
		if !x {
			return -1, true
		}
		return 1, true
	default:
		return 0, false
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func evalArith(op string, l, r evalValue) (evalValue, error) {
	lf, lok := asFloat(l.Value)
	rf, rok := asFloat(r.Value)
	if !lok || !rok {
		return evalValue{}, fmt.Errorf("sparql: arithmetic on non-numeric operand")
	}
	var res float64
	switch op {
	case "+":
		res = lf + rf
	case "-":
		res = lf - rf
	case "*":
		res = lf * rf
	case "/":
		if rf == 0 {
			return evalValue{}, fmt.Errorf("sparql: division by zero")
		}
		res = lf / rf
	}
	if li, lok := l.Value.(int64); lok {
		if ri, rok := r.Value.(int64); rok && op != "/" {
			return evalValue{Value: applyIntArith(op, li, ri), Type: rdf.Literal(rdf.XSDInteger)}, nil
		}
	}
	return evalValue{Value: res, Type: rdf.Literal(rdf.XSDDouble)}, nil
}

func applyIntArith(op string, a, b int64) int64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	default:
		return 0
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func evalCall(e CallExpr, row map[string]interface{}, types map[string]rdf.NodeType) (evalValue, error) {
	args := make([]evalValue, len(e.Args))
	for i, a := range e.Args {
		v, err := evalExpr(a, row, types)
		if err != nil {
			return evalValue{}, err
		}
		args[i] = v
	}
	switch strings.ToUpper(e.Name) {
	case "STR":
		return evalValue{Value: fmt.Sprintf("%v", args[0].Value), Type: rdf.Literal(rdf.XSDString)}, nil
	case "STRLEN":
		s, _ := args[0].Value.(string)
		return evalValue{Value: int64(len(s)), Type: rdf.Literal(rdf.XSDInteger)}, nil
	case "UCASE":
		s, _ := args[0].Value.(string)
		return evalValue{Value: strings.ToUpper(s), Type: args[0].Type}, nil
	case "LCASE":
		s, _ := args[0].Value.(string)
		return evalValue{Value: strings.ToLower(s), Type: args[0].Type}, nil
	case "CONTAINS":
		s, _ := args[0].Value.(string)
		sub, _ := args[1].Value.(string)
		return evalValue{Value: strings.Contains(s, sub), Type: rdf.Literal(rdf.XSDBoolean)}, nil
	case "REGEX":
		s, _ := args[0].Value.(string)
		pattern, _ := args[1].Value.(string)
		ok, err := regexMatch(pattern, s)
		if err != nil {
			return evalValue{}, err
		}
		return evalValue{Value: ok, Type: rdf.Literal(rdf.XSDBoolean)}, nil
	case "DATATYPE":
		return evalValue{Value: args[0].Type.Datatype, Type: rdf.Literal(rdf.XSDString)}, nil
	default:
		return evalValue{}, fmt.Errorf("sparql: unknown function %q", e.Name)
	}
}
