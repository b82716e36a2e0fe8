/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"testing"

	"uicomposer/internal/document"
)

func parseDoc(t *testing.T, text string) *document.Document {
	t.Helper()
	d, err := document.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestPlaceUsesExistingPosition(t *testing.T) {
	d := parseDoc(t, `{"moduleElements": [
		{"id": "A", "props": {"position": {"x": 50, "y": 100, "width": 200, "height": 80}}}
	]}`)
	placed, writes := Place(d)
	if len(placed) != 1 || len(writes) != 0 {
		t.Fatalf("placed=%d writes=%d", len(placed), len(writes))
	}
	want := Rect{X: 50, Y: 100, Width: 200, Height: 80}
	if placed[0].Rect != want {
		t.Fatalf("rect = %+v, want %+v", placed[0].Rect, want)
	}
	if placed[0].Label != "A" {
		t.Fatalf("label = %q", placed[0].Label)
	}
}

func TestPlaceDefaultsMissingPosition(t *testing.T) {
	d := parseDoc(t, `{"moduleElements": [
		{"id": "A", "props": {}},
		{"id": "B"}
	]}`)
	placed, writes := Place(d)
	if len(placed) != 2 {
		t.Fatalf("placed = %d", len(placed))
	}
	if placed[0].Rect != (Rect{X: 50, Y: 50, Width: 150, Height: 100}) {
		t.Fatalf("slot 0 = %+v", placed[0].Rect)
	}
	if placed[1].Rect != (Rect{X: 70, Y: 70, Width: 150, Height: 100}) {
		t.Fatalf("slot 1 = %+v", placed[1].Rect)
	}
	// four position fields per defaulted widget
	if len(writes) != 8 {
		t.Fatalf("writes = %d, want 8", len(writes))
	}
}

func TestPlaceDefaultingIsIdempotent(t *testing.T) {
	d := parseDoc(t, `{"moduleElements": [{"id": "A", "props": {}}]}`)
	first, writes := Place(d)
	if err := d.SetMany(writes); err != nil {
		t.Fatalf("apply defaults: %v", err)
	}
	second, again := Place(d)
	if len(again) != 0 {
		t.Fatalf("second render must not produce writes, got %d", len(again))
	}
	if first[0].Rect != second[0].Rect {
		t.Fatalf("defaulting not deterministic: %+v vs %+v", first[0].Rect, second[0].Rect)
	}
	pos, err := d.Get(document.Path{}.Key("moduleElements").At(0).Key("props").Key("position"))
	if err != nil || pos.Kind() != document.KindObject || pos.Len() != 4 {
		t.Fatalf("position not materialized: %v %v", pos, err)
	}
}

func TestPlaceCoercesNonNumericFields(t *testing.T) {
	d := parseDoc(t, `{"moduleElements": [
		{"id": "A", "props": {"position": {"x": "left", "y": 100, "width": 200, "height": 80}}}
	]}`)
	placed, writes := Place(d)
	// x falls back to the slot default; the numeric fields are kept
	if placed[0].Rect.X != 50 || placed[0].Rect.Y != 100 || placed[0].Rect.Width != 200 {
		t.Fatalf("rect = %+v", placed[0].Rect)
	}
	if len(writes) != 4 {
		t.Fatalf("a partial position must be rewritten in full, writes = %d", len(writes))
	}
}

func TestDragBeyondThresholdMoves(t *testing.T) {
	p := document.Path{}.Key("moduleElements").At(0)
	s := StartDrag(p, Rect{X: 50, Y: 100, Width: 150, Height: 100}, 60, 110)
	s.Move(70, 130)
	s.Move(90, 150)
	outcome, x, y := s.End()
	if outcome != Moved {
		t.Fatalf("outcome = %v, want Moved", outcome)
	}
	// pointer travelled (+30,+40), so the origin does too
	if x != 80 || y != 140 {
		t.Fatalf("moved to (%v,%v), want (80,140)", x, y)
	}
}

func TestDragWithinThresholdClicks(t *testing.T) {
	s := StartDrag(document.Path{}, Rect{X: 50, Y: 100}, 60, 110)
	s.Move(61, 111)
	s.Move(60, 110)
	outcome, _, _ := s.End()
	if outcome != Clicked {
		t.Fatalf("outcome = %v, want Clicked", outcome)
	}
}

func TestDragPeakTravelCounts(t *testing.T) {
	// travels far, comes back to the start: still a move, not a click
	s := StartDrag(document.Path{}, Rect{X: 50, Y: 100}, 60, 110)
	s.Move(120, 180)
	s.Move(60, 110)
	outcome, x, y := s.End()
	if outcome != Moved {
		t.Fatalf("outcome = %v, want Moved", outcome)
	}
	if x != 50 || y != 100 {
		t.Fatalf("round trip should land on the origin, got (%v,%v)", x, y)
	}
}

func TestDragCancelLeavesNothing(t *testing.T) {
	s := StartDrag(document.Path{}, Rect{X: 50, Y: 100}, 60, 110)
	s.Move(150, 200)
	s.Cancel()
	if outcome, _, _ := s.End(); outcome != Cancelled {
		t.Fatalf("outcome = %v, want Cancelled", outcome)
	}
}

func TestDragRoundsToWholePixels(t *testing.T) {
	s := StartDrag(document.Path{}, Rect{X: 50, Y: 100}, 0, 0)
	s.Move(10.4, 10.6)
	outcome, x, y := s.End()
	if outcome != Moved {
		t.Fatalf("outcome = %v", outcome)
	}
	if x != 60 || y != 111 {
		t.Fatalf("rounded to (%v,%v), want (60,111)", x, y)
	}
}

func TestCurrentTracksPointer(t *testing.T) {
	s := StartDrag(document.Path{}, Rect{X: 50, Y: 100, Width: 150, Height: 100}, 60, 110)
	s.Move(80, 140)
	cur := s.Current()
	if cur.X != 70 || cur.Y != 130 || cur.Width != 150 || cur.Height != 100 {
		t.Fatalf("current = %+v", cur)
	}
}
