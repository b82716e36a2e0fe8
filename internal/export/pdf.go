/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a layout document as a wireframe for review
// outside the editor: one PDF page or PNG image at device size, one
// outlined rectangle per widget with its label.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"uicomposer/internal/document"
	"uicomposer/internal/layout"
)

// Color is an RGB stroke/fill color for wireframe drawing.
type Color struct {
	R, G, B uint8
}

// Options controls wireframe rendering for both exporters.
// Coordinates map 1:1 from layout pixels; PDF uses points.
type Options struct {
	// DeviceWidth/DeviceHeight is the page size in layout pixels.
	// Zero values fall back to 375x812.
	DeviceWidth  float64
	DeviceHeight float64
	// IncludeFrame draws the device outline.
	IncludeFrame bool
	FrameColor   Color
	WidgetStroke Color
	LabelSize    float64
}

func (o *Options) applyDefaults() {
	if o.DeviceWidth <= 0 {
		o.DeviceWidth = 375
	}
	if o.DeviceHeight <= 0 {
		o.DeviceHeight = 812
	}
	if o.FrameColor == (Color{}) {
		o.FrameColor = Color{R: 255}
	}
	if o.LabelSize <= 0 {
		o.LabelSize = 10
	}
}

// WireframePDF writes a one-page wireframe of the document to outPath.
// Widgets without a position render at their deterministic default slot;
// the document itself is not modified.
func WireframePDF(d *document.Document, outPath string, opt Options) error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	opt.applyDefaults()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: opt.DeviceWidth, Ht: opt.DeviceHeight},
		OrientationStr: "",
	})
	pdf.SetTitle("Layout wireframe", false)
	pdf.SetAuthor("UI Composer", false)
	// Built-in Helvetica keeps text vector without embedding
	pdf.SetFont("Helvetica", "", opt.LabelSize)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.DeviceWidth, Ht: opt.DeviceHeight})

	if opt.IncludeFrame {
		pdf.SetDrawColor(int(opt.FrameColor.R), int(opt.FrameColor.G), int(opt.FrameColor.B))
		pdf.SetLineWidth(0.2)
		pdf.Rect(0, 0, opt.DeviceWidth, opt.DeviceHeight, "D")
	}

	pdf.SetDrawColor(int(opt.WidgetStroke.R), int(opt.WidgetStroke.G), int(opt.WidgetStroke.B))
	pdf.SetLineWidth(1)
	placed, _ := layout.Place(d)
	for _, p := range placed {
		r := p.Rect
		pdf.Rect(r.X, r.Y, r.Width, r.Height, "D")
		pdf.Text(r.X+4, r.Y+opt.LabelSize+2, p.Label)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
