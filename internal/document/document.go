/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

// Document is an ordered tree of Nodes with a single writable root. It has no
// notion of files or the network: text in, text out.
type Document struct {
	root *Node
}

// New returns a document whose root is an empty Object.
func New() *Document { return &Document{root: NewObject()} }

// Root exposes the root node for read-only traversal by projections.
func (d *Document) Root() *Node { return d.root }

// Clone returns a deep copy, used for whole-document rollback.
func (d *Document) Clone() *Document { return &Document{root: d.root.Clone()} }

// Equal reports structural equality with another document.
func (d *Document) Equal(o *Document) bool { return d.root.Equal(o.root) }

// Get resolves path to a node or returns a *PathError.
func (d *Document) Get(p Path) (*Node, error) {
	n := d.root
	for i, s := range p {
		if s.IsIndex {
			if n.Kind() != KindArray {
				return nil, &PathError{Op: "get", Path: p[:i+1], Msg: "not an array"}
			}
			c := n.Index(s.Index)
			if c == nil {
				return nil, &PathError{Op: "get", Path: p[:i+1], Msg: "index out of range"}
			}
			n = c
			continue
		}
		if n.Kind() != KindObject {
			return nil, &PathError{Op: "get", Path: p[:i+1], Msg: "not an object"}
		}
		c := n.Child(s.Key)
		if c == nil {
			return nil, &PathError{Op: "get", Path: p[:i+1], Msg: "missing key"}
		}
		n = c
	}
	return n, nil
}

// EnsurePath makes every intermediate container along p exist, creating
// Objects for key steps (and Arrays when the following step is an index).
// A leaf standing where the path needs a container is coerced into a fresh
// one, so a malformed value like a string-valued props never blocks a
// position write. An Array index step must address an existing element or
// the element one past the end, which is appended. It returns the parent
// node of p's last step. This is the one create-on-write primitive: Set
// funnels through it so the contract stays centralized and testable.
func (d *Document) EnsurePath(p Path) (*Node, error) {
	n := d.root
	for i := 0; i < len(p)-1; i++ {
		s := p[i]
		if s.IsIndex {
			if n.Kind() != KindArray {
				return nil, &PathError{Op: "set", Path: p[:i+1], Msg: "not an array"}
			}
			if c := n.Index(s.Index); c != nil {
				if !c.IsContainer() {
					c = containerFor(p[i+1])
					n.arr[s.Index] = c
				}
				n = c
				continue
			}
			if s.Index == n.Len() {
				c := containerFor(p[i+1])
				n.Append(c)
				n = c
				continue
			}
			return nil, &PathError{Op: "set", Path: p[:i+1], Msg: "index out of range"}
		}
		if n.Kind() != KindObject {
			return nil, &PathError{Op: "set", Path: p[:i+1], Msg: "not an object"}
		}
		if c := n.Child(s.Key); c != nil && c.IsContainer() {
			n = c
			continue
		}
		c := containerFor(p[i+1])
		n.SetChild(s.Key, c)
		n = c
	}
	return n, nil
}

// Set writes v at path p with create-on-write semantics: missing intermediate
// Object keys are created and leaf intermediates are coerced into containers,
// so writing props.position.x succeeds on a widget with no props yet, and on
// one whose props holds a malformed scalar.
func (d *Document) Set(p Path, v *Node) error {
	if len(p) == 0 {
		if v.Kind() != KindObject && v.Kind() != KindArray {
			return &PathError{Op: "set", Path: p, Msg: "root must be a container"}
		}
		d.root = v
		return nil
	}
	// EnsurePath can create intermediates before the final step fails, so
	// keep a backup to guarantee set-or-untouched semantics.
	backup := d.root.Clone()
	n, err := d.EnsurePath(p)
	if err != nil {
		d.root = backup
		return err
	}
	last := p[len(p)-1]
	if last.IsIndex {
		if n.Kind() != KindArray {
			d.root = backup
			return &PathError{Op: "set", Path: p, Msg: "not an array"}
		}
		if last.Index == n.Len() {
			n.Append(v)
			return nil
		}
		if n.Index(last.Index) == nil {
			d.root = backup
			return &PathError{Op: "set", Path: p, Msg: "index out of range"}
		}
		n.arr[last.Index] = v
		return nil
	}
	if n.Kind() != KindObject {
		d.root = backup
		return &PathError{Op: "set", Path: p, Msg: "not an object"}
	}
	n.SetChild(last.Key, v)
	return nil
}

// containerFor picks the container kind implied by the next step.
func containerFor(next Step) *Node {
	if next.IsIndex {
		return NewArray()
	}
	return NewObject()
}

// Remove deletes the node at p. Removing from an Array shifts later indices.
func (d *Document) Remove(p Path) error {
	if len(p) == 0 {
		return &PathError{Op: "remove", Path: p, Msg: "cannot remove root"}
	}
	parent, err := d.Get(p.Parent())
	if err != nil {
		return err
	}
	last := p[len(p)-1]
	if last.IsIndex {
		if parent.Kind() != KindArray || parent.Index(last.Index) == nil {
			return &PathError{Op: "remove", Path: p, Msg: "index out of range"}
		}
		parent.RemoveIndex(last.Index)
		return nil
	}
	if parent.Kind() != KindObject || parent.Child(last.Key) == nil {
		return &PathError{Op: "remove", Path: p, Msg: "missing key"}
	}
	parent.DeleteChild(last.Key)
	return nil
}

// Write is one pending mutation, used for atomic multi-field writes.
type Write struct {
	Path  Path
	Value *Node
}

// SetMany applies all writes or none: on the first failure the document is
// rolled back to its pre-call state. Position updates (x and y together) rely
// on this so a half-moved widget can never be observed.
func (d *Document) SetMany(writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	backup := d.root.Clone()
	for _, w := range writes {
		if err := d.Set(w.Path, w.Value); err != nil {
			d.root = backup
			return err
		}
	}
	return nil
}

// Replace swaps the whole document for newly parsed text, used by raw-text
// apply. On a parse failure the current document is left untouched.
func (d *Document) Replace(text string) error {
	nd, err := Parse(text)
	if err != nil {
		return err
	}
	d.root = nd.root
	return nil
}
