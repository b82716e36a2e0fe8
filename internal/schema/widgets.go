/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package schema projects the editable widget entities out of a layout
// document and checks the document against the expected layout shape.
package schema

import (
	"fmt"

	"uicomposer/internal/document"
)

// Widget collection keys at the document root, walked in this order.
var widgetArrays = []string{"moduleElements", "enhancedData"}

// Widget is a path into the document pointing at one entry of
// moduleElements or enhancedData, plus the fields read through it. The
// document owns the node; a Widget never holds its own copy.
type Widget struct {
	Path      document.Path
	ID        string // empty when the entry has no id
	Component string // Component or type, whichever is present
	Source    string // "moduleElements" or "enhancedData"
	Index     int    // index within Source
}

// Warning is a non-fatal shape problem found while listing widgets.
type Warning struct {
	Path document.Path
	Msg  string
}

func (w Warning) String() string { return w.Path.String() + ": " + w.Msg }

// ListWidgets returns every widget in document order: all of
// moduleElements first, then enhancedData. Entries that are not Objects
// are skipped and reported as warnings rather than failing the listing.
// Duplicate ids are reported too; widgets stay addressable by path.
func ListWidgets(d *document.Document) ([]Widget, []Warning) {
	var (
		widgets  []Widget
		warnings []Warning
		seen     = map[string]bool{}
	)
	for _, key := range widgetArrays {
		arr := d.Root().Child(key)
		if arr == nil {
			continue
		}
		if arr.Kind() != document.KindArray {
			warnings = append(warnings, Warning{
				Path: document.Path{}.Key(key),
				Msg:  "expected an array, found " + arr.Kind().String(),
			})
			continue
		}
		for i := 0; i < arr.Len(); i++ {
			p := document.Path{}.Key(key).At(i)
			entry := arr.Index(i)
			if entry.Kind() != document.KindObject {
				warnings = append(warnings, Warning{
					Path: p,
					Msg:  "entry is not an object, skipped",
				})
				continue
			}
			w := Widget{Path: p, Source: key, Index: i}
			if id := entry.Child("id"); id != nil && id.Kind() == document.KindString {
				w.ID = id.Str()
			}
			if c := entry.Child("Component"); c != nil && c.Kind() == document.KindString {
				w.Component = c.Str()
			} else if ty := entry.Child("type"); ty != nil && ty.Kind() == document.KindString {
				w.Component = ty.Str()
			}
			if w.ID != "" {
				if seen[w.ID] {
					warnings = append(warnings, Warning{
						Path: p,
						Msg:  fmt.Sprintf("duplicate widget id %q", w.ID),
					})
				}
				seen[w.ID] = true
			}
			widgets = append(widgets, w)
		}
	}
	return widgets, warnings
}

// Label is the display name for a widget: its id when present, otherwise
// a positional fallback so every widget stays addressable in the UI.
func (w Widget) Label() string {
	if w.ID != "" {
		return w.ID
	}
	return fmt.Sprintf("item#%d", w.Index)
}

// WidgetAt returns the widget whose path equals p, if any. Widgets are
// matched by structural path, never by id, so duplicate ids cannot cause
// an edit to land on the wrong entry.
func WidgetAt(d *document.Document, p document.Path) (Widget, bool) {
	widgets, _ := ListWidgets(d)
	for _, w := range widgets {
		if w.Path.Equal(p) {
			return w, true
		}
	}
	return Widget{}, false
}

// OwningWidget maps an arbitrary document path to the widget entry it
// belongs to: p itself when it addresses a widget, or the widget ancestor
// when p points inside one (e.g. a position field selected in the tree).
func OwningWidget(d *document.Document, p document.Path) (Widget, bool) {
	widgets, _ := ListWidgets(d)
	for _, w := range widgets {
		if p.HasPrefix(w.Path) {
			return w, true
		}
	}
	return Widget{}, false
}
