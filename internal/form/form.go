/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package form infers editable property forms from a widget's props
// subtree. It is a pure projection: it derives control descriptors from
// the document and translates nothing back — edits flow through the
// synchronization controller as intents.
package form

import (
	"strconv"
	"strings"

	"uicomposer/internal/document"
	"uicomposer/internal/schema"
)

// ControlKind is the widget class inferred for one editable value.
type ControlKind int

const (
	ControlToggle    ControlKind = iota // boolean
	ControlSpinner                      // number
	ControlEntry                        // short single-line string
	ControlMultiline                    // long or multi-line string
	ControlList                         // array of scalars, edited as a delimited list
	ControlGroup                        // nested object, rendered as a labeled sub-group
	ControlReadOnly                     // anything the form cannot edit in place
)

func (k ControlKind) String() string {
	switch k {
	case ControlToggle:
		return "toggle"
	case ControlSpinner:
		return "spinner"
	case ControlEntry:
		return "entry"
	case ControlMultiline:
		return "multiline"
	case ControlList:
		return "list"
	case ControlGroup:
		return "group"
	default:
		return "readonly"
	}
}

// Strings longer than this (or containing a newline) get a multi-line
// editor instead of a single-line entry.
const multilineThreshold = 60

// Nested objects deeper than this render read-only; the raw-text view
// stays available for anything the form will not reach.
const maxGroupDepth = 4

// ListSeparator joins and splits scalar-array values in a list control.
const ListSeparator = ", "

// Field describes one control of a built form. Value mirrors the node at
// Path at build time; the controller may apply a different value (e.g. a
// clamped coordinate), in which case the field is rebuilt from the
// document, never trusted from the control.
type Field struct {
	Path    document.Path
	Label   string
	Kind    ControlKind
	Depth   int // nesting depth, 0 = top level, for group indentation
	Value   *document.Node
	Min     float64 // spinner lower bound, meaningful when HasMin
	HasMin  bool
	Display string // pre-rendered text for entry/multiline/list controls
}

// positionKeys get a non-negative spinner; everything else is unbounded.
var positionKeys = map[string]bool{"x": true, "y": true, "width": true, "height": true}

// Build walks a widget's identifying fields and its props subtree and
// returns the ordered list of form fields. Field order follows document
// order so the form mirrors the raw JSON one level at a time.
func Build(d *document.Document, w schema.Widget) ([]Field, error) {
	entry, err := d.Get(w.Path)
	if err != nil {
		return nil, err
	}
	var fields []Field
	for _, key := range []string{"id", "Component", "type"} {
		if n := entry.Child(key); n != nil && n.Kind() == document.KindString {
			fields = append(fields, inferScalar(w.Path.Key(key), key, n, 0))
		}
	}
	props := entry.Child("props")
	if props == nil || props.Kind() != document.KindObject {
		return fields, nil
	}
	fields = appendObjectFields(fields, d, w.Path.Key("props"), props, 0)
	return fields, nil
}

func appendObjectFields(fields []Field, d *document.Document, base document.Path, obj *document.Node, depth int) []Field {
	for _, key := range obj.Keys() {
		n := obj.Child(key)
		p := base.Key(key)
		switch n.Kind() {
		case document.KindObject:
			fields = append(fields, Field{Path: p, Label: key, Kind: ControlGroup, Depth: depth})
			if depth+1 < maxGroupDepth {
				fields = appendObjectFields(fields, d, p, n, depth+1)
			} else {
				fields = append(fields, Field{Path: p, Label: key, Kind: ControlReadOnly, Depth: depth + 1, Value: n})
			}
		case document.KindArray:
			fields = append(fields, inferArray(p, key, n, depth))
		default:
			fields = append(fields, inferScalar(p, key, n, depth))
		}
	}
	return fields
}

func inferScalar(p document.Path, label string, n *document.Node, depth int) Field {
	f := Field{Path: p, Label: label, Depth: depth, Value: n}
	switch n.Kind() {
	case document.KindBool:
		f.Kind = ControlToggle
	case document.KindNumber:
		f.Kind = ControlSpinner
		if positionKeys[label] {
			f.Min, f.HasMin = 0, true
		}
	case document.KindString:
		s := n.Str()
		f.Display = s
		if len(s) > multilineThreshold || strings.ContainsRune(s, '\n') {
			f.Kind = ControlMultiline
		} else {
			f.Kind = ControlEntry
		}
	default: // null
		f.Kind = ControlReadOnly
	}
	return f
}

func inferArray(p document.Path, label string, n *document.Node, depth int) Field {
	f := Field{Path: p, Label: label, Depth: depth, Value: n}
	if !scalarsOnly(n) {
		f.Kind = ControlReadOnly
		return f
	}
	f.Kind = ControlList
	f.Display = JoinList(n)
	return f
}

func scalarsOnly(arr *document.Node) bool {
	for i := 0; i < arr.Len(); i++ {
		switch arr.Index(i).Kind() {
		case document.KindObject, document.KindArray:
			return false
		}
	}
	return true
}

// JoinList renders a scalar array as delimited text for a list control.
func JoinList(arr *document.Node) string {
	parts := make([]string, 0, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		e := arr.Index(i)
		switch e.Kind() {
		case document.KindString:
			parts = append(parts, e.Str())
		default:
			parts = append(parts, scalarText(e))
		}
	}
	return strings.Join(parts, ListSeparator)
}

// SplitList is the inverse of JoinList for saving a list control back:
// the edited text re-splits into a string array node. Element types other
// than string collapse to strings on round-trip, matching how the control
// displayed them.
func SplitList(text string) *document.Node {
	arr := document.NewArray()
	if strings.TrimSpace(text) == "" {
		return arr
	}
	for _, part := range strings.Split(text, ",") {
		arr.Append(document.NewString(strings.TrimSpace(part)))
	}
	return arr
}

func scalarText(n *document.Node) string {
	switch n.Kind() {
	case document.KindNumber:
		return strconv.FormatFloat(n.Num(), 'f', -1, 64)
	case document.KindBool:
		if n.Bool() {
			return "true"
		}
		return "false"
	case document.KindNull:
		return "null"
	default:
		return n.Str()
	}
}
