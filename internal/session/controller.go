/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session owns the edit protocol between the document and its
// projections. Every mutation enters through exactly one Controller
// method, lands in the document, and fans out as a refresh broadcast
// that excludes the originating view, so a view's own edit can never
// bounce back and reset its input mid-edit.
//
// The controller expects to run on a single event loop. Off-thread work
// (file I/O) must marshal its result back before calling any method
// here; concurrent calls are not supported.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"uicomposer/internal/document"
	"uicomposer/internal/layout"
	applog "uicomposer/internal/log"
	"uicomposer/internal/schema"
	"uicomposer/internal/undo"
)

// RefreshKind tells a projection how much of its state is stale.
type RefreshKind int

const (
	// RefreshPath: the subtree at Refresh.Path changed.
	RefreshPath RefreshKind = iota
	// RefreshAll: the whole document was replaced, rebuild everything.
	RefreshAll
	// RefreshSelection: only the active widget changed, no document edit.
	RefreshSelection
)

// Refresh is one broadcast notification.
type Refresh struct {
	Kind   RefreshKind
	Path   document.Path
	Origin string
}

// Controller applies edit intents to the document and keeps all
// registered projections consistent. Selection and the dirty flag live
// here, never in the views.
type Controller struct {
	doc   *document.Document
	views []registration
	hist  *undo.Manager

	dirty        bool
	selection    document.Path
	hasSelection bool
	resyncing    bool
}

type registration struct {
	name    string
	refresh func(Refresh)
}

// New wraps a document in a controller with an empty undo history.
func New(doc *document.Document) *Controller {
	return &Controller{
		doc: doc,
		hist: undo.NewManager(undo.Config{
			MaxDepth:    200,
			MinInterval: 250 * time.Millisecond,
		}),
	}
}

// Document exposes the canonical document for read-only projection.
func (c *Controller) Document() *document.Document { return c.doc }

// Register adds a named projection. The name is the originator tag the
// projection passes with its intents; a refresh broadcast skips the view
// whose name matches the intent's origin.
func (c *Controller) Register(name string, refresh func(Refresh)) {
	c.views = append(c.views, registration{name: name, refresh: refresh})
}

// IsDirty reports unsaved mutations; external collaborators gate
// close/exit on it.
func (c *Controller) IsDirty() bool { return c.dirty }

// MarkSaved clears the dirty flag after a successful save.
func (c *Controller) MarkSaved() { c.dirty = false }

// Selection returns the active widget path, if any.
func (c *Controller) Selection() (document.Path, bool) {
	return c.selection, c.hasSelection
}

// broadcast notifies every projection except the originator.
func (c *Controller) broadcast(r Refresh) {
	for _, v := range c.views {
		if v.name == r.Origin {
			continue
		}
		v.refresh(r)
	}
}

// notifyOrigin re-notifies only the originating view, used when the
// applied value differs from what the view optimistically displayed.
func (c *Controller) notifyOrigin(r Refresh) {
	for _, v := range c.views {
		if v.name == r.Origin {
			v.refresh(r)
		}
	}
}

// resync recovers from a stale path: the intent is dropped and every
// view, originator included, is rebuilt from current document state.
// A refresh handler may issue intents of its own that turn out stale in
// turn; the nested resync is absorbed because the in-flight broadcast
// already rebuilds every view.
func (c *Controller) resync(origin string, p document.Path) {
	if c.resyncing {
		return
	}
	c.resyncing = true
	defer func() { c.resyncing = false }()
	applog.WithComponent("session").Warn("stale path, resyncing views",
		"path", p.String(), "origin", origin)
	for _, v := range c.views {
		v.refresh(Refresh{Kind: RefreshAll, Origin: origin})
	}
}

// snapshot captures the pre-mutation state; push it only after the
// mutation succeeded so failed intents never leave hollow undo steps.
func (c *Controller) snapshot() []byte {
	return []byte(c.doc.Serialize())
}

func (c *Controller) pushHistory(blob []byte) {
	c.hist.Push(undo.Snapshot{Blob: blob, TS: time.Now()})
}

// positionKeys are clamped to >= 0 on write.
var positionKeys = map[string]bool{"x": true, "y": true, "width": true, "height": true}

func clampValue(p document.Path, v *document.Node) (*document.Node, bool) {
	if len(p) == 0 || v.Kind() != document.KindNumber {
		return v, false
	}
	last := p[len(p)-1]
	if last.IsIndex || !positionKeys[last.Key] || v.Num() >= 0 {
		return v, false
	}
	return document.NewNumber(0), true
}

// SetValue applies one typed value at path. Position coordinates are
// clamped to zero; when clamping (or any other adjustment) makes the
// applied value differ from the requested one, the originating view is
// re-notified so it can replace its optimistic rendering. A stale path
// drops the intent and resynchronizes instead of failing.
func (c *Controller) SetValue(origin string, p document.Path, v *document.Node) error {
	applied, adjusted := clampValue(p, v)
	before := c.snapshot()
	if err := c.doc.Set(p, applied); err != nil {
		if document.IsPathError(err) {
			c.resync(origin, p)
			return nil
		}
		return err
	}
	c.pushHistory(before)
	c.dirty = true
	c.broadcast(Refresh{Kind: RefreshPath, Path: p, Origin: origin})
	if adjusted {
		c.notifyOrigin(Refresh{Kind: RefreshPath, Path: p, Origin: origin})
	}
	return nil
}

// Move writes a widget's x and y in one atomic step, rounding having
// already happened at drag-end. Width and height are never touched.
func (c *Controller) Move(origin string, widget document.Path, x, y float64) error {
	cx, adjX := clampCoord(x)
	cy, adjY := clampCoord(y)
	pos := widget.Key("props").Key("position")
	before := c.snapshot()
	err := c.doc.SetMany([]document.Write{
		{Path: pos.Key("x"), Value: document.NewNumber(cx)},
		{Path: pos.Key("y"), Value: document.NewNumber(cy)},
	})
	if err != nil {
		if document.IsPathError(err) {
			c.resync(origin, widget)
			return nil
		}
		return err
	}
	c.pushHistory(before)
	c.dirty = true
	c.broadcast(Refresh{Kind: RefreshPath, Path: pos, Origin: origin})
	if adjX || adjY {
		c.notifyOrigin(Refresh{Kind: RefreshPath, Path: pos, Origin: origin})
	}
	return nil
}

func clampCoord(v float64) (float64, bool) {
	if v < 0 {
		return 0, true
	}
	return v, false
}

// ReplaceDocument swaps the whole document for newly parsed text (the
// raw-text apply). On a parse failure nothing changes — not the
// document, not the dirty flag — and the caller keeps its text buffer so
// the user can fix the syntax error in place.
func (c *Controller) ReplaceDocument(origin, text string) error {
	before := c.snapshot()
	if err := c.doc.Replace(text); err != nil {
		return err
	}
	c.pushHistory(before)
	c.dirty = true
	c.hasSelection = false
	c.selection = nil
	c.broadcast(Refresh{Kind: RefreshAll, Origin: origin})
	return nil
}

// Select makes the widget at p the active one. Selection is not an
// edit: the dirty flag is untouched and the broadcast only tells other
// views to move their highlight.
func (c *Controller) Select(origin string, p document.Path) {
	w, ok := schema.OwningWidget(c.doc, p)
	if !ok {
		return
	}
	if c.hasSelection && c.selection.Equal(w.Path) {
		return
	}
	c.selection = w.Path
	c.hasSelection = true
	c.broadcast(Refresh{Kind: RefreshSelection, Path: w.Path, Origin: origin})
}

// ClearSelection drops the active widget, e.g. on a canvas background
// click.
func (c *Controller) ClearSelection(origin string) {
	if !c.hasSelection {
		return
	}
	c.hasSelection = false
	c.selection = nil
	c.broadcast(Refresh{Kind: RefreshSelection, Origin: origin})
}

// EnsurePositions materializes default position blocks for widgets that
// lack one. The canvas calls it on render; writing defaults is a real
// edit, so an opened file with unpositioned widgets becomes save-worthy
// immediately.
func (c *Controller) EnsurePositions(origin string) ([]layout.Placed, error) {
	placed, writes := layout.Place(c.doc)
	if len(writes) == 0 {
		return placed, nil
	}
	before := c.snapshot()
	if err := c.doc.SetMany(writes); err != nil {
		if document.IsPathError(err) {
			c.resync(origin, nil)
			return placed, nil
		}
		return nil, err
	}
	c.pushHistory(before)
	c.dirty = true
	c.broadcast(Refresh{Kind: RefreshAll, Origin: origin})
	return placed, nil
}

// AddWidget appends a new element to moduleElements with a fresh id and
// a defaulted position, returning its path.
func (c *Controller) AddWidget(origin, component string) (document.Path, error) {
	arr := c.doc.Root().Child("moduleElements")
	idx := 0
	if arr != nil {
		if arr.Kind() != document.KindArray {
			return nil, fmt.Errorf("moduleElements is %s, not an array", arr.Kind())
		}
		idx = arr.Len()
	}
	widgets, _ := schema.ListWidgets(c.doc)
	slot := float64(50 + 20*len(widgets))

	entry := document.NewObject()
	entry.SetChild("id", document.NewString(uuid.NewString()))
	if component != "" {
		entry.SetChild("Component", document.NewString(component))
	}
	props := document.NewObject()
	pos := document.NewObject()
	pos.SetChild("x", document.NewNumber(slot))
	pos.SetChild("y", document.NewNumber(slot))
	pos.SetChild("width", document.NewNumber(layout.DefaultWidth))
	pos.SetChild("height", document.NewNumber(layout.DefaultHeight))
	props.SetChild("position", pos)
	entry.SetChild("props", props)

	p := document.Path{}.Key("moduleElements").At(idx)
	before := c.snapshot()
	if err := c.doc.Set(p, entry); err != nil {
		return nil, err
	}
	c.pushHistory(before)
	c.dirty = true
	c.broadcast(Refresh{Kind: RefreshAll, Origin: origin})
	return p, nil
}

// RemoveWidget deletes the widget at p; a stale path resynchronizes
// instead of failing. Removing the selected widget clears the selection.
func (c *Controller) RemoveWidget(origin string, p document.Path) error {
	before := c.snapshot()
	if err := c.doc.Remove(p); err != nil {
		if document.IsPathError(err) {
			c.resync(origin, p)
			return nil
		}
		return err
	}
	c.pushHistory(before)
	if c.hasSelection && c.selection.HasPrefix(p) {
		c.hasSelection = false
		c.selection = nil
	}
	c.dirty = true
	c.broadcast(Refresh{Kind: RefreshAll, Origin: origin})
	return nil
}

// Undo restores the previous document state, if any.
func (c *Controller) Undo(origin string) bool {
	s, ok := c.hist.Undo([]byte(c.doc.Serialize()))
	if !ok {
		return false
	}
	return c.restore(origin, s.Blob)
}

// Redo reapplies the most recently undone state, if any.
func (c *Controller) Redo(origin string) bool {
	s, ok := c.hist.Redo([]byte(c.doc.Serialize()))
	if !ok {
		return false
	}
	return c.restore(origin, s.Blob)
}

func (c *Controller) restore(origin string, blob []byte) bool {
	if err := c.doc.Replace(string(blob)); err != nil {
		applog.WithComponent("session").Error("history blob no longer parses", "err", err)
		return false
	}
	c.dirty = true
	c.hasSelection = false
	c.selection = nil
	c.broadcast(Refresh{Kind: RefreshAll, Origin: origin})
	return true
}

// ResetDocument swaps in a freshly loaded document: dirty clears,
// selection clears, history clears, and every view rebuilds.
func (c *Controller) ResetDocument(doc *document.Document) {
	c.doc = doc
	c.dirty = false
	c.hasSelection = false
	c.selection = nil
	c.hist.Clear()
	for _, v := range c.views {
		v.refresh(Refresh{Kind: RefreshAll})
	}
}
