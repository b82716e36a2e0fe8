/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"uicomposer/internal/document"
	"uicomposer/internal/layout"
)

// WireframePNG writes the document's wireframe as a raster image at
// device size, 1 layout pixel = 1 image pixel.
func WireframePNG(d *document.Document, outPath string, opt Options) error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	opt.applyDefaults()

	pixW := int(math.Round(opt.DeviceWidth))
	pixH := int(math.Round(opt.DeviceHeight))
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	if opt.IncludeFrame {
		strokeRect(img, 0, 0, pixW-1, pixH-1, toRGBA(opt.FrameColor))
	}

	stroke := toRGBA(opt.WidgetStroke)
	placed, _ := layout.Place(d)
	for _, p := range placed {
		r := p.Rect
		x0 := int(math.Round(r.X))
		y0 := int(math.Round(r.Y))
		x1 := x0 + int(math.Round(r.Width)) - 1
		y1 := y0 + int(math.Round(r.Height)) - 1
		strokeRect(img, x0, y0, x1, y1, stroke)
		drawLabel(img, x0+4, y0+4+basicfont.Face7x13.Ascent, p.Label, stroke)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

func toRGBA(c Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of
// endpoints; out-of-bounds pixels are clipped by SetRGBA.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

// drawLabel renders text with the fixed 7x13 bitmap face; wireframes do
// not need styled typography.
func drawLabel(img *image.RGBA, x, y int, text string, col color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
