//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"uicomposer/internal/document"
	"uicomposer/internal/layout"
)

// LayoutCanvas renders widget rectangles inside a device frame and turns
// pointer gestures into selection and move intents. It owns no document
// state: placements are pushed in whole on every refresh, and gestures
// leave through the three callbacks.
type LayoutCanvas struct {
	widget.BaseWidget

	zoom    float32
	offsetX float32
	offsetY float32

	deviceW float64
	deviceH float64

	placements []layout.Placed
	selected   int // index into placements, -1 if none

	drag    *layout.DragSession
	dragIdx int
	panning bool

	OnSelectWidget   func(document.Path)
	OnClearSelection func()
	OnMoveWidget     func(p document.Path, x, y float64)
}

// NewLayoutCanvas creates a canvas sized for the given device preset.
func NewLayoutCanvas(deviceW, deviceH float64) *LayoutCanvas {
	lc := &LayoutCanvas{
		zoom:     1.0,
		deviceW:  deviceW,
		deviceH:  deviceH,
		selected: -1,
		dragIdx:  -1,
	}
	lc.ExtendBaseWidget(lc)
	return lc
}

// SetPlacements replaces the rendered rectangles and moves the selection
// highlight. An in-flight drag survives the refresh as long as its widget
// still exists.
func (l *LayoutCanvas) SetPlacements(placed []layout.Placed, selection document.Path, hasSelection bool) {
	l.placements = placed
	l.selected = -1
	if hasSelection {
		for i, p := range placed {
			if p.Widget.Path.Equal(selection) {
				l.selected = i
				break
			}
		}
	}
	if l.drag != nil {
		found := false
		for i, p := range placed {
			if p.Widget.Path.Equal(l.drag.Path()) {
				l.dragIdx = i
				found = true
				break
			}
		}
		if !found {
			l.drag.Cancel()
			l.drag = nil
			l.dragIdx = -1
		}
	}
	l.Refresh()
}

func (l *LayoutCanvas) PreferredSize() fyne.Size { return fyne.NewSize(600, 700) }

// frameOriginAndScale centers the device frame in the available space.
func (l *LayoutCanvas) frameOriginAndScale() (cx, cy, scale float32) {
	size := l.Size()
	scaledW := float32(l.deviceW) * l.zoom
	scaledH := float32(l.deviceH) * l.zoom
	cx = size.Width/2 - scaledW/2 + l.offsetX
	cy = size.Height/2 - scaledH/2 + l.offsetY
	return cx, cy, l.zoom
}

func (l *LayoutCanvas) toScreen(x, y float64) fyne.Position {
	cx, cy, s := l.frameOriginAndScale()
	return fyne.NewPos(cx+float32(x)*s, cy+float32(y)*s)
}

func (l *LayoutCanvas) toDevice(pos fyne.Position) (float64, float64) {
	cx, cy, s := l.frameOriginAndScale()
	return float64((pos.X - cx) / s), float64((pos.Y - cy) / s)
}

// hitTest returns the top-most placement under a device-space point.
// Later entries draw on top, so scan back to front.
func (l *LayoutCanvas) hitTest(x, y float64) int {
	for i := len(l.placements) - 1; i >= 0; i-- {
		r := l.placements[i].Rect
		if x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height {
			return i
		}
	}
	return -1
}

// Tapped selects the widget under the pointer; a background tap clears
// the selection.
func (l *LayoutCanvas) Tapped(e *fyne.PointEvent) {
	x, y := l.toDevice(e.Position)
	idx := l.hitTest(x, y)
	if idx < 0 {
		if l.OnClearSelection != nil {
			l.OnClearSelection()
		}
		return
	}
	if l.OnSelectWidget != nil {
		l.OnSelectWidget(l.placements[idx].Widget.Path)
	}
}

// Dragged starts a drag session on the widget under the first event, or
// pans the view when the gesture starts on the background. Moves stay
// transient; nothing is written until DragEnd.
func (l *LayoutCanvas) Dragged(e *fyne.DragEvent) {
	if l.drag == nil && !l.panning {
		x, y := l.toDevice(e.Position)
		idx := l.hitTest(x, y)
		if idx >= 0 {
			l.dragIdx = idx
			l.drag = layout.StartDrag(l.placements[idx].Widget.Path, l.placements[idx].Rect, x, y)
		} else {
			l.panning = true
		}
	}
	if l.panning {
		l.offsetX += e.Dragged.DX
		l.offsetY += e.Dragged.DY
	} else {
		x, y := l.toDevice(e.Position)
		l.drag.Move(x, y)
	}
	l.Refresh()
}

// DragEnd resolves the gesture: a small travel selects, a real drag moves.
func (l *LayoutCanvas) DragEnd() {
	if l.panning {
		l.panning = false
		return
	}
	if l.drag == nil {
		return
	}
	s := l.drag
	idx := l.dragIdx
	l.drag = nil
	l.dragIdx = -1
	outcome, x, y := s.End()
	switch outcome {
	case layout.Clicked:
		if l.OnSelectWidget != nil {
			l.OnSelectWidget(s.Path())
		}
	case layout.Moved:
		// the move broadcast skips this canvas, so no refresh will arrive
		// to replace the pre-drag rectangle: update it in place
		if idx >= 0 && idx < len(l.placements) && l.placements[idx].Widget.Path.Equal(s.Path()) {
			l.placements[idx].Rect.X = x
			l.placements[idx].Rect.Y = y
		}
		if l.OnMoveWidget != nil {
			l.OnMoveWidget(s.Path(), x, y)
		}
	}
	l.Refresh()
}

// CancelDrag abandons any in-flight gesture without touching the document.
func (l *LayoutCanvas) CancelDrag() {
	if l.drag != nil {
		l.drag.Cancel()
		l.drag = nil
		l.dragIdx = -1
	}
	l.panning = false
	l.Refresh()
}

// Scrolled zooms the frame.
func (l *LayoutCanvas) Scrolled(e *fyne.ScrollEvent) {
	l.zoom += e.Scrolled.DY * 0.05
	if l.zoom < 0.25 {
		l.zoom = 0.25
	}
	if l.zoom > 4.0 {
		l.zoom = 4.0
	}
	l.Refresh()
}

func (l *LayoutCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})

	frame := canvas.NewRectangle(color.White)
	frame.StrokeColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	frame.StrokeWidth = 2

	bbox := canvas.NewRectangle(color.RGBA{})
	bbox.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	bbox.StrokeWidth = 2
	bbox.Hide()

	return &layoutCanvasRenderer{
		lc:      l,
		objects: []fyne.CanvasObject{bg, frame, bbox},
		bg:      bg,
		frame:   frame,
		bbox:    bbox,
	}
}

type layoutCanvasRenderer struct {
	lc      *LayoutCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	frame   *canvas.Rectangle
	bbox    *canvas.Rectangle
	rects   []*canvas.Rectangle
	labels  []*canvas.Text
}

func (r *layoutCanvasRenderer) Destroy()                     {}
func (r *layoutCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *layoutCanvasRenderer) MinSize() fyne.Size           { return r.lc.PreferredSize() }
func (r *layoutCanvasRenderer) Refresh()                     { r.Layout(r.lc.Size()); canvas.Refresh(r.lc) }

func (r *layoutCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	cx, cy, s := r.lc.frameOriginAndScale()
	r.frame.Resize(fyne.NewSize(float32(r.lc.deviceW)*s, float32(r.lc.deviceH)*s))
	r.frame.Move(fyne.NewPos(cx, cy))

	r.growPools(len(r.lc.placements))

	for i, p := range r.lc.placements {
		rect := p.Rect
		if r.lc.drag != nil && i == r.lc.dragIdx {
			rect = r.lc.drag.Current()
		}
		p0 := r.lc.toScreen(rect.X, rect.Y)
		rc := r.rects[i]
		rc.Show()
		rc.Resize(fyne.NewSize(float32(rect.Width)*s, float32(rect.Height)*s))
		rc.Move(p0)

		lb := r.labels[i]
		lb.Show()
		lb.Text = p.Label
		lb.Move(fyne.NewPos(p0.X+4, p0.Y+2))
		lb.Refresh()
	}
	for j := len(r.lc.placements); j < len(r.rects); j++ {
		r.rects[j].Hide()
		r.labels[j].Hide()
	}

	if r.lc.selected >= 0 && r.lc.selected < len(r.lc.placements) {
		rect := r.lc.placements[r.lc.selected].Rect
		if r.lc.drag != nil && r.lc.selected == r.lc.dragIdx {
			rect = r.lc.drag.Current()
		}
		p0 := r.lc.toScreen(rect.X, rect.Y)
		r.bbox.Show()
		r.bbox.Resize(fyne.NewSize(float32(rect.Width)*s, float32(rect.Height)*s))
		r.bbox.Move(p0)
	} else {
		r.bbox.Hide()
	}
}

// growPools keeps one rectangle and one label per placement, inserting new
// visuals before the selection bbox so it stays on top.
func (r *layoutCanvasRenderer) growPools(need int) {
	if need <= len(r.rects) {
		return
	}
	ins := -1
	for i, obj := range r.objects {
		if obj == r.bbox {
			ins = i
			break
		}
	}
	if ins < 0 {
		ins = len(r.objects)
	}
	var added []fyne.CanvasObject
	for j := len(r.rects); j < need; j++ {
		rc := canvas.NewRectangle(color.RGBA{R: 235, G: 238, B: 242, A: 255})
		rc.StrokeColor = color.RGBA{R: 60, G: 64, B: 70, A: 255}
		rc.StrokeWidth = 1
		r.rects = append(r.rects, rc)
		added = append(added, rc)

		lb := canvas.NewText("", color.RGBA{R: 40, G: 44, B: 50, A: 255})
		lb.TextSize = 11
		r.labels = append(r.labels, lb)
		added = append(added, lb)
	}
	objs := make([]fyne.CanvasObject, 0, len(r.objects)+len(added))
	objs = append(objs, r.objects[:ins]...)
	objs = append(objs, added...)
	objs = append(objs, r.objects[ins:]...)
	r.objects = objs
}
