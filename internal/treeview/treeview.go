/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package treeview derives a navigable hierarchy from a document. The
// model's node ids are path strings, which keeps it directly usable as a
// fyne widget.Tree data source and lets a selection map straight back to
// a document path.
package treeview

import (
	"strconv"
	"strings"

	"uicomposer/internal/document"
	"uicomposer/internal/schema"
)

// Leaf value previews longer than this are cut with an ellipsis.
const previewLimit = 40

// Model is a snapshot of the document's hierarchy. It holds labels and
// child lists only; values are read through the document at build time
// and the model is rebuilt on every refresh.
type Model struct {
	children map[string][]string
	labels   map[string]string
	branch   map[string]bool
}

// Build walks the whole document into a tree model. One node per object
// key or array index; leaves carry a value preview in their label.
func Build(d *document.Document) *Model {
	m := &Model{
		children: map[string][]string{},
		labels:   map[string]string{},
		branch:   map[string]bool{},
	}
	root := document.Path{}
	m.labels[root.String()] = "document"
	m.walk(root, d.Root())
	return m
}

func (m *Model) walk(p document.Path, n *document.Node) {
	uid := p.String()
	switch n.Kind() {
	case document.KindObject:
		m.branch[uid] = true
		for _, key := range n.Keys() {
			cp := p.Key(key)
			cuid := cp.String()
			m.children[uid] = append(m.children[uid], cuid)
			m.labels[cuid] = nodeLabel(key, n.Child(key))
			m.walk(cp, n.Child(key))
		}
	case document.KindArray:
		m.branch[uid] = true
		for i := 0; i < n.Len(); i++ {
			cp := p.At(i)
			cuid := cp.String()
			m.children[uid] = append(m.children[uid], cuid)
			m.labels[cuid] = nodeLabel("["+strconv.Itoa(i)+"]", n.Index(i))
			m.walk(cp, n.Index(i))
		}
	}
}

// ChildUIDs lists the node ids under uid; the empty uid is the root.
func (m *Model) ChildUIDs(uid string) []string {
	if uid == "" {
		uid = "$"
	}
	return m.children[uid]
}

// IsBranch reports whether uid has (or can have) children.
func (m *Model) IsBranch(uid string) bool {
	if uid == "" {
		uid = "$"
	}
	return m.branch[uid]
}

// Label returns the display text for uid.
func (m *Model) Label(uid string) string {
	if uid == "" {
		uid = "$"
	}
	return m.labels[uid]
}

// PathFor converts a tree node id back into a document path.
func PathFor(uid string) (document.Path, error) {
	return document.ParsePath(uid)
}

// WidgetFor resolves the widget a selected tree node belongs to, if the
// node is a widget entry or lives inside one. Other nodes are
// display-only and resolve to nothing.
func WidgetFor(d *document.Document, uid string) (schema.Widget, bool) {
	p, err := document.ParsePath(uid)
	if err != nil {
		return schema.Widget{}, false
	}
	return schema.OwningWidget(d, p)
}

// nodeLabel renders "key" for containers and "key: preview" for leaves.
func nodeLabel(name string, n *document.Node) string {
	switch n.Kind() {
	case document.KindObject, document.KindArray:
		return name
	default:
		return name + ": " + preview(n)
	}
}

func preview(n *document.Node) string {
	var s string
	switch n.Kind() {
	case document.KindString:
		s = strconv.Quote(n.Str())
	case document.KindNumber:
		s = strconv.FormatFloat(n.Num(), 'f', -1, 64)
	case document.KindBool:
		s = strconv.FormatBool(n.Bool())
	default:
		s = "null"
	}
	if r := []rune(s); len(r) > previewLimit {
		s = string(r[:previewLimit-1]) + "…"
	}
	// a preview stays on one line no matter what the value holds
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "…"
	}
	return s
}
