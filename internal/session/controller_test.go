/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"testing"

	"uicomposer/internal/document"
	"uicomposer/internal/layout"
)

// recorder is a registered projection that counts its refreshes.
type recorder struct {
	name  string
	calls []Refresh
}

func (r *recorder) refresh(ev Refresh) { r.calls = append(r.calls, ev) }

func newFixture(t *testing.T, text string) (*Controller, *recorder, *recorder, *recorder, *recorder) {
	t.Helper()
	d, err := document.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := New(d)
	tree := &recorder{name: "tree"}
	canvas := &recorder{name: "canvas"}
	form := &recorder{name: "form"}
	raw := &recorder{name: "raw"}
	for _, r := range []*recorder{tree, canvas, form, raw} {
		c.Register(r.name, r.refresh)
	}
	return c, tree, canvas, form, raw
}

func pathOf(t *testing.T, s string) document.Path {
	t.Helper()
	p, err := document.ParsePath(s)
	if err != nil {
		t.Fatalf("path %q: %v", s, err)
	}
	return p
}

const twoWidgets = `{
	"id": "home",
	"moduleElements": [
		{"id": "A", "props": {"position": {"x": 50, "y": 100, "width": 150, "height": 100}}},
		{"id": "B", "props": {}}
	]
}`

func TestSetValueSkipsOriginator(t *testing.T) {
	c, tree, canvas, form, raw := newFixture(t, twoWidgets)
	p := pathOf(t, "moduleElements[0].props.position.x")

	if err := c.SetValue("form", p, document.NewNumber(80)); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if len(form.calls) != 0 {
		t.Fatalf("originator was re-rendered: %v", form.calls)
	}
	for _, r := range []*recorder{tree, canvas, raw} {
		if len(r.calls) != 1 || r.calls[0].Kind != RefreshPath || !r.calls[0].Path.Equal(p) {
			t.Fatalf("%s refreshes = %v", r.name, r.calls)
		}
	}
	if !c.IsDirty() {
		t.Fatalf("mutation must set the dirty flag")
	}
}

func TestClampedValueNotifiesOriginator(t *testing.T) {
	c, _, _, form, _ := newFixture(t, twoWidgets)
	p := pathOf(t, "moduleElements[0].props.position.x")

	if err := c.SetValue("form", p, document.NewNumber(-15)); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	// the applied value differs from the optimistic one, so the
	// originator does get one refresh this time
	if len(form.calls) != 1 {
		t.Fatalf("originator refreshes = %d, want 1", len(form.calls))
	}
	n, err := c.Document().Get(p)
	if err != nil || n.Num() != 0 {
		t.Fatalf("x = %v %v, want clamped 0", n, err)
	}
}

func TestMoveWritesExactlyXAndY(t *testing.T) {
	c, tree, _, _, _ := newFixture(t, twoWidgets)
	w := pathOf(t, "moduleElements[0]")

	if err := c.Move("canvas", w, 80, 140); err != nil {
		t.Fatalf("Move: %v", err)
	}
	get := func(s string) float64 {
		n, err := c.Document().Get(pathOf(t, s))
		if err != nil {
			t.Fatalf("get %s: %v", s, err)
		}
		return n.Num()
	}
	if get("moduleElements[0].props.position.x") != 80 || get("moduleElements[0].props.position.y") != 140 {
		t.Fatalf("position not moved")
	}
	if get("moduleElements[0].props.position.width") != 150 || get("moduleElements[0].props.position.height") != 100 {
		t.Fatalf("move touched width/height")
	}
	if !c.IsDirty() {
		t.Fatalf("move must mark dirty")
	}
	if len(tree.calls) != 1 {
		t.Fatalf("tree refreshes = %d", len(tree.calls))
	}
}

func TestStalePathResyncsInsteadOfFailing(t *testing.T) {
	c, tree, canvas, form, raw := newFixture(t, twoWidgets)
	stale := pathOf(t, "moduleElements[7].props.position.x")

	if err := c.SetValue("form", stale, document.NewNumber(1)); err != nil {
		t.Fatalf("stale path must be dropped silently, got %v", err)
	}
	if c.IsDirty() {
		t.Fatalf("dropped intent must not mark dirty")
	}
	// every view, originator included, resyncs to current state
	for _, r := range []*recorder{tree, canvas, form, raw} {
		if len(r.calls) != 1 || r.calls[0].Kind != RefreshAll {
			t.Fatalf("%s calls = %v", r.name, r.calls)
		}
	}
}

func TestReplaceDocumentParseFailureChangesNothing(t *testing.T) {
	c, tree, _, _, _ := newFixture(t, twoWidgets)
	before := c.Document().Clone()

	err := c.ReplaceDocument("raw", `{"broken": `)
	if err == nil || !document.IsParseError(err) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if !c.Document().Equal(before) {
		t.Fatalf("document changed on failed apply")
	}
	if c.IsDirty() {
		t.Fatalf("dirty flag changed on failed apply")
	}
	if len(tree.calls) != 0 {
		t.Fatalf("no refresh may fire on failed apply")
	}
}

func TestReplaceDocumentBroadcastsAll(t *testing.T) {
	c, tree, canvas, form, raw := newFixture(t, twoWidgets)
	c.Select("tree", pathOf(t, "moduleElements[0]"))
	for _, r := range []*recorder{tree, canvas, form, raw} {
		r.calls = nil
	}

	if err := c.ReplaceDocument("raw", `{"moduleElements": []}`); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}
	if len(raw.calls) != 0 {
		t.Fatalf("raw view echoed its own apply")
	}
	for _, r := range []*recorder{tree, canvas, form} {
		if len(r.calls) != 1 || r.calls[0].Kind != RefreshAll {
			t.Fatalf("%s calls = %v", r.name, r.calls)
		}
	}
	if _, ok := c.Selection(); ok {
		t.Fatalf("selection must clear on document replacement")
	}
	if !c.IsDirty() {
		t.Fatalf("successful apply must mark dirty")
	}
}

func TestSelectDoesNotDirty(t *testing.T) {
	c, tree, canvas, form, _ := newFixture(t, twoWidgets)
	// selecting a descendant resolves to the owning widget
	c.Select("tree", pathOf(t, "moduleElements[0].props.position.x"))

	sel, ok := c.Selection()
	if !ok || !sel.Equal(pathOf(t, "moduleElements[0]")) {
		t.Fatalf("selection = %v %v", sel, ok)
	}
	if c.IsDirty() {
		t.Fatalf("selection is not an edit")
	}
	if len(tree.calls) != 0 {
		t.Fatalf("originator refreshed on its own selection")
	}
	for _, r := range []*recorder{canvas, form} {
		if len(r.calls) != 1 || r.calls[0].Kind != RefreshSelection {
			t.Fatalf("%s calls = %v", r.name, r.calls)
		}
	}

	// re-selecting the same widget is a no-op
	c.Select("tree", pathOf(t, "moduleElements[0]"))
	if len(canvas.calls) != 1 {
		t.Fatalf("duplicate selection broadcast")
	}

	// non-widget paths are display-only
	c.Select("tree", pathOf(t, "id"))
	if sel, _ := c.Selection(); !sel.Equal(pathOf(t, "moduleElements[0]")) {
		t.Fatalf("non-widget selection must not change state")
	}
}

func TestEnsurePositionsDefaultsAndDirties(t *testing.T) {
	c, tree, _, _, _ := newFixture(t, `{"moduleElements": [{"id": "A", "props": {}}]}`)

	placed, err := c.EnsurePositions("canvas")
	if err != nil {
		t.Fatalf("EnsurePositions: %v", err)
	}
	if len(placed) != 1 {
		t.Fatalf("placed = %d", len(placed))
	}
	want := layout.Rect{X: 50, Y: 50, Width: 150, Height: 100}
	if placed[0].Rect != want {
		t.Fatalf("rect = %+v, want %+v", placed[0].Rect, want)
	}
	if !c.IsDirty() {
		t.Fatalf("default write must mark dirty")
	}
	if len(tree.calls) != 1 {
		t.Fatalf("tree calls = %d", len(tree.calls))
	}

	// second render: document already complete, nothing happens
	tree.calls = nil
	again, err := c.EnsurePositions("canvas")
	if err != nil {
		t.Fatalf("EnsurePositions: %v", err)
	}
	if again[0].Rect != want {
		t.Fatalf("defaulting not idempotent: %+v", again[0].Rect)
	}
	if len(tree.calls) != 0 {
		t.Fatalf("no-op render must not broadcast")
	}
}

func TestEnsurePositionsCoercesScalarProps(t *testing.T) {
	// a widget whose props is a string instead of an object: the canvas
	// re-renders on every refresh it receives, like the real shell does,
	// so defaulting must settle instead of ping-ponging
	d, err := document.Parse(`{"moduleElements": [{"id": "A", "props": "oops"}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := New(d)
	tree := &recorder{name: "tree"}
	c.Register(tree.name, tree.refresh)
	canvasCalls := 0
	c.Register("canvas", func(Refresh) {
		canvasCalls++
		if canvasCalls > 8 {
			t.Fatalf("canvas render never settled: %d refreshes", canvasCalls)
		}
		if _, err := c.EnsurePositions("canvas"); err != nil {
			t.Fatalf("re-entered EnsurePositions: %v", err)
		}
	})

	placed, err := c.EnsurePositions("canvas")
	if err != nil {
		t.Fatalf("EnsurePositions: %v", err)
	}
	if len(placed) != 1 {
		t.Fatalf("placed = %d, want 1", len(placed))
	}
	props, err := c.Document().Get(pathOf(t, "moduleElements[0].props"))
	if err != nil || props.Kind() != document.KindObject {
		t.Fatalf("props = %v %v, want coerced object", props, err)
	}
	x, err := c.Document().Get(pathOf(t, "moduleElements[0].props.position.x"))
	if err != nil || x.Num() != 50 {
		t.Fatalf("default x = %v %v, want 50", x, err)
	}
	if !c.IsDirty() {
		t.Fatalf("defaulting over malformed props is an edit")
	}
}

func TestResyncAbsorbsReentrantIntents(t *testing.T) {
	// props is an array, so the default writes keep failing; the resync
	// broadcast reaches a canvas that immediately retries, and that retry
	// must not start a second broadcast
	d, err := document.Parse(`{"moduleElements": [{"id": "A", "props": [1]}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := New(d)
	tree := &recorder{name: "tree"}
	c.Register(tree.name, tree.refresh)
	canvasCalls := 0
	c.Register("canvas", func(Refresh) {
		canvasCalls++
		if canvasCalls > 8 {
			t.Fatalf("resync never settled: %d canvas refreshes", canvasCalls)
		}
		if _, err := c.EnsurePositions("canvas"); err != nil {
			t.Fatalf("re-entered EnsurePositions: %v", err)
		}
	})

	placed, err := c.EnsurePositions("canvas")
	if err != nil {
		t.Fatalf("EnsurePositions: %v", err)
	}
	// the canvas still gets displayable defaults even though they could
	// not be persisted
	want := layout.Rect{X: 50, Y: 50, Width: 150, Height: 100}
	if len(placed) != 1 || placed[0].Rect != want {
		t.Fatalf("placed = %+v, want one rect %+v", placed, want)
	}
	if canvasCalls != 1 {
		t.Fatalf("canvas refreshes = %d, want 1", canvasCalls)
	}
	if len(tree.calls) != 1 || tree.calls[0].Kind != RefreshAll {
		t.Fatalf("tree calls = %v", tree.calls)
	}
	if c.IsDirty() {
		t.Fatalf("dropped defaults must not mark dirty")
	}
}

func TestAddAndRemoveWidget(t *testing.T) {
	c, tree, _, _, _ := newFixture(t, `{"moduleElements": []}`)

	p, err := c.AddWidget("toolbar", "Banner")
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if !p.Equal(pathOf(t, "moduleElements[0]")) {
		t.Fatalf("new widget path = %s", p)
	}
	id, err := c.Document().Get(p.Key("id"))
	if err != nil || id.Kind() != document.KindString || id.Str() == "" {
		t.Fatalf("new widget id = %v %v", id, err)
	}
	x, err := c.Document().Get(p.Key("props").Key("position").Key("x"))
	if err != nil || x.Num() != 50 {
		t.Fatalf("new widget x = %v %v", x, err)
	}

	c.Select("canvas", p)
	if err := c.RemoveWidget("toolbar", p); err != nil {
		t.Fatalf("RemoveWidget: %v", err)
	}
	if _, ok := c.Selection(); ok {
		t.Fatalf("removing the selected widget must clear selection")
	}
	arr, _ := c.Document().Get(pathOf(t, "moduleElements"))
	if arr.Len() != 0 {
		t.Fatalf("widget not removed")
	}
	if len(tree.calls) == 0 {
		t.Fatalf("tree never refreshed")
	}
}

func TestUndoRedoRestoreStates(t *testing.T) {
	c, _, _, _, _ := newFixture(t, twoWidgets)
	p := pathOf(t, "moduleElements[0].props.position.x")

	if err := c.SetValue("form", p, document.NewNumber(80)); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if !c.Undo("toolbar") {
		t.Fatalf("undo failed")
	}
	n, _ := c.Document().Get(p)
	if n.Num() != 50 {
		t.Fatalf("after undo x = %v, want 50", n.Num())
	}
	if !c.Redo("toolbar") {
		t.Fatalf("redo failed")
	}
	n, _ = c.Document().Get(p)
	if n.Num() != 80 {
		t.Fatalf("after redo x = %v, want 80", n.Num())
	}
	if c.Undo("toolbar") && c.Undo("toolbar") {
		t.Fatalf("undo past the beginning must report false")
	}
}

func TestMarkSavedAndReset(t *testing.T) {
	c, tree, _, _, _ := newFixture(t, twoWidgets)
	if err := c.SetValue("form", pathOf(t, "moduleTitle"), document.NewString("Home")); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	c.MarkSaved()
	if c.IsDirty() {
		t.Fatalf("MarkSaved must clear dirty")
	}

	fresh, err := document.Parse(`{"moduleElements": []}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tree.calls = nil
	c.ResetDocument(fresh)
	if c.IsDirty() {
		t.Fatalf("fresh load must be clean")
	}
	if _, ok := c.Selection(); ok {
		t.Fatalf("fresh load must clear selection")
	}
	if len(tree.calls) != 1 || tree.calls[0].Kind != RefreshAll {
		t.Fatalf("tree calls = %v", tree.calls)
	}
	if c.Undo("toolbar") {
		t.Fatalf("history must clear on load")
	}
}

func TestDragScenarioEndToEnd(t *testing.T) {
	// drag widget A from (50,100) to (80,140): exactly one atomic x/y
	// write, width/height untouched, label unchanged
	c, _, _, _, _ := newFixture(t, twoWidgets)
	w := pathOf(t, "moduleElements[0]")
	placed, err := c.EnsurePositions("canvas")
	if err != nil {
		t.Fatalf("EnsurePositions: %v", err)
	}

	s := layout.StartDrag(w, placed[0].Rect, 60, 110)
	s.Move(90, 150)
	outcome, x, y := s.End()
	if outcome != layout.Moved {
		t.Fatalf("outcome = %v", outcome)
	}
	if err := c.Move("canvas", w, x, y); err != nil {
		t.Fatalf("Move: %v", err)
	}
	n, _ := c.Document().Get(w.Key("props").Key("position").Key("x"))
	if n.Num() != 80 {
		t.Fatalf("x = %v, want 80", n.Num())
	}
	n, _ = c.Document().Get(w.Key("props").Key("position").Key("y"))
	if n.Num() != 140 {
		t.Fatalf("y = %v, want 140", n.Num())
	}
}
