/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout computes canvas placements for widgets and turns drag
// gestures into position writes. It never mutates the document itself:
// Place returns the writes needed to materialize missing positions and
// the caller decides when to apply them.
package layout

import (
	"uicomposer/internal/document"
	"uicomposer/internal/schema"
)

// Position defaults for widgets without a props.position block. The slot
// offset staggers unpositioned widgets diagonally so they never stack
// invisibly on top of each other.
const (
	DefaultWidth  = 150
	DefaultHeight = 100
	slotBase      = 50
	slotStep      = 20
)

// Rect is one widget's resolved canvas rectangle in pixels.
type Rect struct {
	X, Y, Width, Height float64
}

// Placed pairs a widget with its rectangle and display label.
type Placed struct {
	Widget schema.Widget
	Rect   Rect
	Label  string
}

// Place resolves a rectangle for every widget. Widgets with a complete
// numeric props.position use it verbatim; missing or non-numeric fields
// fall back to deterministic defaults, and the second return value holds
// the writes that persist those defaults into the document. Applying the
// writes and calling Place again yields the same rectangles, so
// defaulting is idempotent.
func Place(d *document.Document) ([]Placed, []document.Write) {
	widgets, _ := schema.ListWidgets(d)
	placed := make([]Placed, 0, len(widgets))
	var writes []document.Write

	for i, w := range widgets {
		slot := float64(slotBase + slotStep*i)
		rect := Rect{X: slot, Y: slot, Width: DefaultWidth, Height: DefaultHeight}

		posPath := w.Path.Key("props").Key("position")
		pos, err := d.Get(posPath)
		complete := err == nil && pos.Kind() == document.KindObject
		if complete {
			rect.X, complete = numField(pos, "x", rect.X, complete)
			rect.Y, complete = numField(pos, "y", rect.Y, complete)
			rect.Width, complete = numField(pos, "width", rect.Width, complete)
			rect.Height, complete = numField(pos, "height", rect.Height, complete)
		}
		if !complete {
			writes = append(writes,
				document.Write{Path: posPath.Key("x"), Value: document.NewNumber(rect.X)},
				document.Write{Path: posPath.Key("y"), Value: document.NewNumber(rect.Y)},
				document.Write{Path: posPath.Key("width"), Value: document.NewNumber(rect.Width)},
				document.Write{Path: posPath.Key("height"), Value: document.NewNumber(rect.Height)},
			)
		}
		placed = append(placed, Placed{Widget: w, Rect: rect, Label: w.Label()})
	}
	return placed, writes
}

// numField reads a numeric position field, keeping the fallback (and
// flagging the position incomplete) when the field is missing or not a
// number.
func numField(pos *document.Node, key string, fallback float64, complete bool) (float64, bool) {
	n := pos.Child(key)
	if n == nil || n.Kind() != document.KindNumber {
		return fallback, false
	}
	return n.Num(), complete
}
