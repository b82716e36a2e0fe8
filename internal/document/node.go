/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document holds the canonical in-memory representation of a layout
// JSON document. It is the single source of truth: every view derives from it
// and mutates only through it. Object nodes preserve key insertion order so
// serialization is stable across load/save cycles.
package document

import (
	"math"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind discriminates the JSON value variants a Node can hold.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Node is one JSON value in the document tree. The zero value is not usable;
// use the constructors. Number nodes keep the source literal so that loading
// and re-serializing a document does not rewrite `2` as `2.0`.
type Node struct {
	kind Kind
	obj  *orderedmap.OrderedMap[string, *Node]
	arr  []*Node
	str  string
	num  float64
	raw  string // number literal as written, empty for synthesized numbers
	b    bool
}

// NewObject returns an empty Object node.
func NewObject() *Node {
	return &Node{kind: KindObject, obj: orderedmap.New[string, *Node]()}
}

// NewArray returns an empty Array node.
func NewArray() *Node { return &Node{kind: KindArray} }

// NewString returns a String node.
func NewString(s string) *Node { return &Node{kind: KindString, str: s} }

// NewNumber returns a Number node for a synthesized value.
func NewNumber(f float64) *Node { return &Node{kind: KindNumber, num: f} }

// newNumberLit returns a Number node preserving the source literal.
func newNumberLit(f float64, raw string) *Node {
	return &Node{kind: KindNumber, num: f, raw: raw}
}

// NewBool returns a Bool node.
func NewBool(v bool) *Node { return &Node{kind: KindBool, b: v} }

// NewNull returns a Null node.
func NewNull() *Node { return &Node{kind: KindNull} }

func (n *Node) Kind() Kind { return n.kind }

// IsContainer reports whether the node is an Object or Array.
func (n *Node) IsContainer() bool { return n.kind == KindObject || n.kind == KindArray }

// Str returns the string value; zero for non-string nodes.
func (n *Node) Str() string { return n.str }

// Num returns the numeric value; zero for non-number nodes.
func (n *Node) Num() float64 { return n.num }

// Bool returns the boolean value; false for non-bool nodes.
func (n *Node) Bool() bool { return n.b }

// Len returns the child count for Object and Array nodes, zero otherwise.
func (n *Node) Len() int {
	switch n.kind {
	case KindObject:
		return n.obj.Len()
	case KindArray:
		return len(n.arr)
	default:
		return 0
	}
}

// Keys returns the Object keys in insertion order.
func (n *Node) Keys() []string {
	if n.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, n.obj.Len())
	for pair := n.obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Child returns the Object child for key, or nil.
func (n *Node) Child(key string) *Node {
	if n.kind != KindObject {
		return nil
	}
	c, _ := n.obj.Get(key)
	return c
}

// SetChild sets (or overwrites) an Object key. New keys append at the end.
func (n *Node) SetChild(key string, v *Node) {
	if n.kind != KindObject {
		return
	}
	n.obj.Set(key, v)
}

// DeleteChild removes an Object key if present.
func (n *Node) DeleteChild(key string) {
	if n.kind == KindObject {
		n.obj.Delete(key)
	}
}

// Index returns the Array element at i, or nil when out of range.
func (n *Node) Index(i int) *Node {
	if n.kind != KindArray || i < 0 || i >= len(n.arr) {
		return nil
	}
	return n.arr[i]
}

// Append adds an element to an Array node.
func (n *Node) Append(v *Node) {
	if n.kind == KindArray {
		n.arr = append(n.arr, v)
	}
}

// RemoveIndex removes the Array element at i.
func (n *Node) RemoveIndex(i int) {
	if n.kind != KindArray || i < 0 || i >= len(n.arr) {
		return
	}
	n.arr = append(n.arr[:i], n.arr[i+1:]...)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindObject:
		c := NewObject()
		for pair := n.obj.Oldest(); pair != nil; pair = pair.Next() {
			c.obj.Set(pair.Key, pair.Value.Clone())
		}
		return c
	case KindArray:
		c := NewArray()
		c.arr = make([]*Node, len(n.arr))
		for i, e := range n.arr {
			c.arr[i] = e.Clone()
		}
		return c
	default:
		cp := *n
		return &cp
	}
}

// Equal reports deep structural equality: same kinds, same key order, same
// values. Number nodes compare by value, not by source literal.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindObject:
		if n.obj.Len() != o.obj.Len() {
			return false
		}
		op := o.obj.Oldest()
		for np := n.obj.Oldest(); np != nil; np = np.Next() {
			if op == nil || np.Key != op.Key || !np.Value.Equal(op.Value) {
				return false
			}
			op = op.Next()
		}
		return true
	case KindArray:
		if len(n.arr) != len(o.arr) {
			return false
		}
		for i := range n.arr {
			if !n.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindString:
		return n.str == o.str
	case KindNumber:
		return n.num == o.num
	case KindBool:
		return n.b == o.b
	default: // null
		return true
	}
}

// numberLiteral renders the numeric value, preferring the source literal.
func (n *Node) numberLiteral() string {
	if n.raw != "" {
		return n.raw
	}
	if math.IsNaN(n.num) || math.IsInf(n.num, 0) {
		return "0"
	}
	return strconv.FormatFloat(n.num, 'f', -1, 64)
}
