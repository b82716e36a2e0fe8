/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"math"

	"uicomposer/internal/document"
)

// ClickThreshold is the pointer travel, in pixels, below which a
// press/release pair counts as a click rather than a move. A fixed small
// value keeps slow deliberate drags from being misread as clicks.
const ClickThreshold = 3

// DragOutcome tells the caller what a finished gesture meant.
type DragOutcome int

const (
	// Clicked: pointer travel stayed within ClickThreshold; select the
	// widget, write nothing.
	Clicked DragOutcome = iota
	// Moved: the widget was dragged; X and Y carry the new origin.
	Moved
	// Cancelled: the gesture was abandoned (escape, drop out of bounds);
	// the document stays untouched.
	Cancelled
)

// DragSession tracks one pointer gesture on a canvas widget. Moves update
// only the transient offset — the document is written exactly once, at
// End, and only when the gesture turned out to be a real drag.
type DragSession struct {
	path      document.Path
	origin    Rect
	startX    float64
	startY    float64
	dx, dy    float64
	maxTravel float64
	active    bool
	cancelled bool
}

// StartDrag begins a gesture on the widget at path whose current
// rectangle is rect; x, y is the pointer position in canvas coordinates.
func StartDrag(path document.Path, rect Rect, x, y float64) *DragSession {
	return &DragSession{path: path, origin: rect, startX: x, startY: y, active: true}
}

// Move records pointer travel. Purely visual: callers use Current to
// paint the ghost rectangle, nothing reaches the document.
func (s *DragSession) Move(x, y float64) {
	if !s.active {
		return
	}
	s.dx = x - s.startX
	s.dy = y - s.startY
	if t := math.Hypot(s.dx, s.dy); t > s.maxTravel {
		s.maxTravel = t
	}
}

// Current is the rectangle to paint while the gesture is in flight.
func (s *DragSession) Current() Rect {
	r := s.origin
	r.X += s.dx
	r.Y += s.dy
	return r
}

// Path is the widget the session was started on.
func (s *DragSession) Path() document.Path { return s.path }

// Cancel abandons the gesture; End will report Cancelled.
func (s *DragSession) Cancel() {
	s.cancelled = true
	s.active = false
}

// End finishes the gesture. A travel within ClickThreshold is a click; a
// larger travel is a move with the final origin rounded to whole pixels.
// Width and height are never part of the outcome — drags translate, they
// do not resize.
func (s *DragSession) End() (DragOutcome, float64, float64) {
	if s.cancelled {
		return Cancelled, 0, 0
	}
	s.active = false
	if s.maxTravel <= ClickThreshold {
		return Clicked, 0, 0
	}
	x := math.Round(s.origin.X + s.dx)
	y := math.Round(s.origin.Y + s.dy)
	return Moved, x, y
}
