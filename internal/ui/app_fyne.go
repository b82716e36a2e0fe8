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
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"uicomposer/internal/backend"
	"uicomposer/internal/config"
	"uicomposer/internal/crash"
	"uicomposer/internal/document"
	"uicomposer/internal/export"
	"uicomposer/internal/form"
	applog "uicomposer/internal/log"
	"uicomposer/internal/schema"
	"uicomposer/internal/session"
	"uicomposer/internal/storage"
	"uicomposer/internal/telemetry"
	"uicomposer/internal/treeview"
)

const appTitle = "UI Composer"

// starterLayout is the document for a fresh window with no file argument.
const starterLayout = `{
  "moduleTitle": "Untitled",
  "moduleElements": []
}`

// Run starts the Fyne-based desktop editor, optionally opening a layout
// file right away. The four projections — tree, canvas, properties form
// and raw JSON — register with one session controller and stay mutually
// consistent through its refresh broadcasts.
func Run(path string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	telemetry.InitDefault()

	cfg, dsn, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	var fh *storage.FileHandle
	var hist *storage.History
	defer func() { crash.Recover(hist, fh) }()

	if dataDir, derr := config.DataDir(); derr == nil {
		if h, herr := storage.OpenHistory(dataDir); herr == nil {
			hist = h
			defer func() { _ = hist.Close() }()
		} else {
			l.Warn("history db unavailable", slog.Any("err", herr))
		}
	}

	doc, err := document.Parse(starterLayout)
	if err != nil {
		return fmt.Errorf("starter layout: %w", err)
	}
	if path != "" {
		h, lerr := storage.Load(path)
		if lerr != nil {
			return lerr
		}
		fh = h
		doc = h.Document
		if hist != nil {
			_ = hist.TouchRecent(context.Background(), h.Path)
		}
	}

	ctrl := session.New(doc)

	fyneApp := app.NewWithID("uicomposer")
	w := fyneApp.NewWindow(appTitle)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 900 {
		winW = 900
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")

	updateTitle := func() {
		t := appTitle
		if fh != nil {
			t += " — " + filepath.Base(fh.Path)
		}
		if ctrl.IsDirty() {
			t += " *"
		}
		w.SetTitle(t)
	}

	// Tree projection (left). Node ids are document path strings.
	model := treeview.Build(ctrl.Document())
	var tree *widget.Tree
	tree = widget.NewTree(
		func(uid widget.TreeNodeID) []widget.TreeNodeID {
			kids := model.ChildUIDs(string(uid))
			out := make([]widget.TreeNodeID, len(kids))
			for i, k := range kids {
				out[i] = widget.TreeNodeID(k)
			}
			return out
		},
		func(uid widget.TreeNodeID) bool { return model.IsBranch(string(uid)) },
		func(bool) fyne.CanvasObject { return widget.NewLabel("") },
		func(uid widget.TreeNodeID, _ bool, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(model.Label(string(uid)))
		},
	)
	tree.OnSelected = func(uid widget.TreeNodeID) {
		p, perr := treeview.PathFor(string(uid))
		if perr != nil {
			return
		}
		ctrl.Select("tree", p)
	}

	// Canvas projection (center).
	lc := NewLayoutCanvas(cfg.Canvas.Width, cfg.Canvas.Height)
	lc.OnSelectWidget = func(p document.Path) { ctrl.Select("canvas", p) }
	lc.OnClearSelection = func() { ctrl.ClearSelection("canvas") }
	lc.OnMoveWidget = func(p document.Path, x, y float64) {
		if merr := ctrl.Move("canvas", p, x, y); merr != nil {
			l.Error("move failed", slog.Any("err", merr))
			status.SetText("Move failed: " + merr.Error())
		}
	}
	refreshCanvas := func() {
		placed, perr := ctrl.EnsurePositions("canvas")
		if perr != nil {
			l.Error("placement failed", slog.Any("err", perr))
			return
		}
		sel, hasSel := ctrl.Selection()
		lc.SetPlacements(placed, sel, hasSel)
	}

	// Properties form projection (right tab). Rebuilt in whole on every
	// refresh; individual control edits leave as SetValue intents and the
	// origin-skip keeps them from bouncing back mid-keystroke.
	formBox := container.NewVBox()
	rebuildForm := func() {
		formBox.Objects = nil
		sel, hasSel := ctrl.Selection()
		if !hasSel {
			formBox.Add(widget.NewLabel("No widget selected."))
			formBox.Refresh()
			return
		}
		wdg, ok := schema.WidgetAt(ctrl.Document(), sel)
		if !ok {
			formBox.Add(widget.NewLabel("No widget selected."))
			formBox.Refresh()
			return
		}
		fields, ferr := form.Build(ctrl.Document(), wdg)
		if ferr != nil {
			formBox.Add(widget.NewLabel("Widget vanished; reselect it."))
			formBox.Refresh()
			return
		}
		for _, f := range fields {
			formBox.Add(formControl(ctrl, f, status))
		}
		formBox.Refresh()
	}

	// Raw JSON projection (right tab). The buffer is only replaced by
	// refreshes originating elsewhere; a failed apply keeps the text so
	// the syntax error can be fixed in place.
	rawEntry := widget.NewMultiLineEntry()
	rawEntry.TextStyle = fyne.TextStyle{Monospace: true}
	rawErr := widget.NewLabel("")
	rawErr.Wrapping = fyne.TextWrapWord
	applyBtn := widget.NewButton("Apply", func() {
		if aerr := ctrl.ReplaceDocument("raw", rawEntry.Text); aerr != nil {
			rawErr.SetText(aerr.Error())
			status.SetText("Raw apply failed; buffer kept.")
			return
		}
		rawErr.SetText("")
		status.SetText("Raw JSON applied.")
	})
	refreshRaw := func() {
		rawEntry.SetText(ctrl.Document().Serialize())
		rawErr.SetText("")
	}

	// Register the projections. Each callback receives only broadcasts it
	// did not originate.
	ctrl.Register("tree", func(r session.Refresh) {
		if r.Kind == session.RefreshSelection {
			if sel, ok := ctrl.Selection(); ok {
				tree.Select(widget.TreeNodeID(sel.String()))
			} else {
				tree.UnselectAll()
			}
			return
		}
		model = treeview.Build(ctrl.Document())
		tree.Refresh()
	})
	ctrl.Register("canvas", func(r session.Refresh) { refreshCanvas() })
	ctrl.Register("form", func(r session.Refresh) { rebuildForm() })
	ctrl.Register("raw", func(r session.Refresh) {
		if r.Kind == session.RefreshSelection {
			return
		}
		refreshRaw()
	})
	ctrl.Register("title", func(session.Refresh) { updateTitle() })

	// File operations.
	openLayout := func(p string) {
		h, oerr := storage.Load(p)
		if oerr != nil {
			l.Error("open failed", slog.Any("err", oerr), slog.String("path", p))
			dialog.ShowError(oerr, w)
			return
		}
		fh = h
		ctrl.ResetDocument(h.Document)
		if hist != nil {
			_ = hist.TouchRecent(context.Background(), h.Path)
		}
		updateTitle()
		status.SetText("Opened " + filepath.Base(p))
		telemetry.Event("layout_opened", nil)
	}

	var doSaveAs func()
	doSave := func() {
		if fh == nil {
			doSaveAs()
			return
		}
		fh.Document = ctrl.Document()
		if serr := storage.Save(fh); serr != nil {
			l.Error("save failed", slog.Any("err", serr))
			dialog.ShowError(serr, w)
			return
		}
		ctrl.MarkSaved()
		if hist != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = hist.TouchRecent(ctx, fh.Path)
			_ = hist.AddSnapshot(ctx, fh.Path, "save", []byte(ctrl.Document().Serialize()))
			cancel()
		}
		updateTitle()
		status.SetText("Saved " + filepath.Base(fh.Path))
		telemetry.Event("layout_saved", nil)
	}
	doSaveAs = func() {
		fd := dialog.NewFileSave(func(wr fyne.URIWriteCloser, derr error) {
			if derr != nil || wr == nil {
				return
			}
			p := wr.URI().Path()
			_ = wr.Close()
			if fh == nil {
				fh = &storage.FileHandle{Path: p, Document: ctrl.Document()}
			}
			fh.Document = ctrl.Document()
			if serr := storage.SaveAs(fh, p); serr != nil {
				dialog.ShowError(serr, w)
				return
			}
			ctrl.MarkSaved()
			if hist != nil {
				_ = hist.TouchRecent(context.Background(), p)
			}
			updateTitle()
			status.SetText("Saved " + filepath.Base(p))
		}, w)
		fd.SetFileName("layout.json")
		fd.Show()
	}

	exportWireframe := func(ext string, run func(out string) error) {
		fd := dialog.NewFileSave(func(wr fyne.URIWriteCloser, derr error) {
			if derr != nil || wr == nil {
				return
			}
			out := wr.URI().Path()
			_ = wr.Close()
			if eerr := run(out); eerr != nil {
				l.Error("export failed", slog.Any("err", eerr))
				dialog.ShowError(eerr, w)
				return
			}
			status.SetText("Exported " + filepath.Base(out))
			telemetry.Event("wireframe_exported", map[string]any{"format": ext})
		}, w)
		fd.SetFileName("wireframe" + ext)
		fd.Show()
	}
	exportOpts := func() export.Options {
		return export.Options{
			DeviceWidth:  cfg.Canvas.Width,
			DeviceHeight: cfg.Canvas.Height,
			IncludeFrame: true,
		}
	}

	runValidate := func() {
		warnings, verr := schema.ValidateShape(ctrl.Document())
		if verr != nil {
			dialog.ShowError(verr, w)
			return
		}
		_, widgetWarnings := schema.ListWidgets(ctrl.Document())
		warnings = append(warnings, widgetWarnings...)
		if len(warnings) == 0 {
			dialog.ShowInformation("Validate", "Layout shape looks valid.", w)
			status.SetText("Validation passed.")
			return
		}
		var sb strings.Builder
		for _, wn := range warnings {
			sb.WriteString(wn.String())
			sb.WriteString("\n")
		}
		dialog.ShowInformation("Validate", sb.String(), w)
		status.SetText(fmt.Sprintf("%d validation warning(s).", len(warnings)))
	}

	runPublish := func() {
		if !cfg.Catalog.Enable || dsn == "" {
			dialog.ShowInformation("Publish",
				"The layout catalog is not configured. Enable it in the config file and store a DSN in the keychain (or set UIC_CATALOG_DSN).", w)
			return
		}
		name := "untitled"
		if fh != nil {
			name = strings.TrimSuffix(filepath.Base(fh.Path), filepath.Ext(fh.Path))
		}
		text := ctrl.Document().Serialize()
		status.SetText("Publishing…")
		go func(layoutName, content string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			cat, cerr := backend.Open(ctx, dsn)
			if cerr == nil {
				defer func() { _ = cat.Close() }()
			}
			var rev int64
			if cerr == nil {
				d, perr := document.Parse(content)
				if perr != nil {
					cerr = perr
				} else {
					rev, cerr = cat.Publish(ctx, layoutName, d)
				}
			}
			fyne.Do(func() {
				if cerr != nil {
					l.Error("publish failed", slog.Any("err", cerr))
					dialog.ShowError(cerr, w)
					status.SetText("Publish failed.")
					return
				}
				status.SetText(fmt.Sprintf("Published %s revision %d.", layoutName, rev))
				telemetry.Event("layout_published", nil)
			})
		}(name, text)
	}

	addWidgetDialog := func() {
		compEntry := widget.NewEntry()
		compEntry.SetPlaceHolder("e.g. Button, Label, Image")
		dialog.NewForm("Add Widget", "Add", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Component", compEntry),
		}, func(ok bool) {
			if !ok {
				return
			}
			p, aerr := ctrl.AddWidget("edit", strings.TrimSpace(compEntry.Text))
			if aerr != nil {
				dialog.ShowError(aerr, w)
				return
			}
			ctrl.Select("edit", p)
			refreshCanvas()
			status.SetText("Widget added.")
		}, w).Show()
	}
	removeSelected := func() {
		sel, hasSel := ctrl.Selection()
		if !hasSel {
			status.SetText("Nothing selected.")
			return
		}
		if rerr := ctrl.RemoveWidget("edit", sel); rerr != nil {
			dialog.ShowError(rerr, w)
			return
		}
		refreshCanvas()
		status.SetText("Widget removed.")
	}

	// Menus.
	newItem := fyne.NewMenuItem("New", func() {
		d, _ := document.Parse(starterLayout)
		fh = nil
		ctrl.ResetDocument(d)
		updateTitle()
		status.SetText("New layout.")
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		fd := dialog.NewFileOpen(func(rd fyne.URIReadCloser, derr error) {
			if derr != nil || rd == nil {
				return
			}
			p := rd.URI().Path()
			_ = rd.Close()
			openLayout(p)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".json"}))
		fd.Show()
	})
	saveItem := fyne.NewMenuItem("Save", doSave)
	saveAsItem := fyne.NewMenuItem("Save As…", doSaveAs)
	exportPDFItem := fyne.NewMenuItem("Export Wireframe PDF…", func() {
		exportWireframe(".pdf", func(out string) error {
			return export.WireframePDF(ctrl.Document(), out, exportOpts())
		})
	})
	exportPNGItem := fyne.NewMenuItem("Export Wireframe PNG…", func() {
		exportWireframe(".png", func(out string) error {
			return export.WireframePNG(ctrl.Document(), out, exportOpts())
		})
	})
	publishItem := fyne.NewMenuItem("Publish to Catalog…", runPublish)

	fileMenu := fyne.NewMenu("File", newItem, openItem, fyne.NewMenuItemSeparator(),
		saveItem, saveAsItem, fyne.NewMenuItemSeparator(),
		exportPDFItem, exportPNGItem, fyne.NewMenuItemSeparator(), publishItem)

	// Recent files from the local history db.
	if hist != nil {
		if recent, rerr := hist.Recent(context.Background(), 8); rerr == nil && len(recent) > 0 {
			items := make([]*fyne.MenuItem, 0, len(recent))
			for _, rf := range recent {
				p := rf.Path
				items = append(items, fyne.NewMenuItem(filepath.Base(p), func() { openLayout(p) }))
			}
			sub := fyne.NewMenuItem("Open Recent", nil)
			sub.ChildMenu = fyne.NewMenu("", items...)
			fileMenu.Items = append([]*fyne.MenuItem{newItem, openItem, sub}, fileMenu.Items[2:]...)
		}
	}

	undoItem := fyne.NewMenuItem("Undo", func() {
		if !ctrl.Undo("edit") {
			status.SetText("Nothing to undo.")
		}
	})
	redoItem := fyne.NewMenuItem("Redo", func() {
		if !ctrl.Redo("edit") {
			status.SetText("Nothing to redo.")
		}
	})
	addItem := fyne.NewMenuItem("Add Widget…", addWidgetDialog)
	removeItem := fyne.NewMenuItem("Remove Widget", removeSelected)
	editMenu := fyne.NewMenu("Edit", undoItem, redoItem, fyne.NewMenuItemSeparator(), addItem, removeItem)

	validateItem := fyne.NewMenuItem("Validate Layout", runValidate)
	toolsMenu := fyne.NewMenu("Tools", validateItem)

	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift}

	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, toolsMenu))

	// Layout: tree left, canvas center, properties/raw tabs right.
	left := container.NewBorder(widget.NewLabel("Hierarchy"), nil, nil, nil, tree)
	propsTab := container.NewVScroll(formBox)
	rawTab := container.NewBorder(nil, container.NewVBox(rawErr, applyBtn), nil, nil, rawEntry)
	right := container.NewAppTabs(
		container.NewTabItem("Properties", propsTab),
		container.NewTabItem("Raw JSON", rawTab),
	)
	toolbar := container.NewHBox(
		widget.NewButton("Open", func() { openItem.Action() }),
		widget.NewButton("Save", doSave),
		widget.NewSeparator(),
		widget.NewButton("Add", addWidgetDialog),
		widget.NewButton("Remove", removeSelected),
		widget.NewSeparator(),
		widget.NewButton("Undo", undoItem.Action),
		widget.NewButton("Redo", redoItem.Action),
		widget.NewSeparator(),
		widget.NewButton("Validate", runValidate),
	)
	center := container.NewBorder(toolbar, nil, nil, nil, lc)
	split := container.NewHSplit(left, container.NewHSplit(center, right))
	split.Offset = 0.2
	content := container.NewBorder(nil, status, nil, nil, split)
	w.SetContent(content)

	w.SetCloseIntercept(func() {
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
		if !ctrl.IsDirty() {
			w.Close()
			return
		}
		dialog.NewConfirm("Unsaved Changes",
			"The layout has unsaved changes. Close anyway?", func(ok bool) {
				if ok {
					w.Close()
				}
			}, w).Show()
	})

	// First paint: run the document through the protocol once so all four
	// projections build from the same state.
	ctrl.ResetDocument(ctrl.Document())
	updateTitle()

	w.ShowAndRun()
	telemetry.Event("ui_closed", nil)
	return nil
}

// formControl renders one inferred field as a Fyne control wired to the
// controller. Controls never write the document directly; every edit is a
// SetValue intent tagged with the form's origin.
func formControl(ctrl *session.Controller, f form.Field, status *widget.Label) fyne.CanvasObject {
	indent := strings.Repeat("    ", f.Depth)
	label := widget.NewLabel(indent + f.Label)

	switch f.Kind {
	case form.ControlGroup:
		g := widget.NewLabelWithStyle(indent+f.Label, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
		return g
	case form.ControlToggle:
		chk := widget.NewCheck("", nil)
		chk.SetChecked(f.Value.Bool())
		chk.OnChanged = func(v bool) {
			_ = ctrl.SetValue("form", f.Path, document.NewBool(v))
		}
		return container.NewBorder(nil, nil, label, nil, chk)
	case form.ControlSpinner:
		e := widget.NewEntry()
		e.SetText(strconv.FormatFloat(f.Value.Num(), 'f', -1, 64))
		e.OnSubmitted = func(s string) {
			v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if perr != nil {
				status.SetText("Not a number: " + s)
				e.SetText(strconv.FormatFloat(f.Value.Num(), 'f', -1, 64))
				return
			}
			_ = ctrl.SetValue("form", f.Path, document.NewNumber(v))
		}
		return container.NewBorder(nil, nil, label, nil, e)
	case form.ControlEntry:
		e := widget.NewEntry()
		e.SetText(f.Display)
		e.OnChanged = func(s string) {
			_ = ctrl.SetValue("form", f.Path, document.NewString(s))
		}
		return container.NewBorder(nil, nil, label, nil, e)
	case form.ControlMultiline:
		e := widget.NewMultiLineEntry()
		e.SetText(f.Display)
		e.OnChanged = func(s string) {
			_ = ctrl.SetValue("form", f.Path, document.NewString(s))
		}
		return container.NewVBox(label, e)
	case form.ControlList:
		e := widget.NewEntry()
		e.SetText(f.Display)
		e.OnSubmitted = func(s string) {
			_ = ctrl.SetValue("form", f.Path, form.SplitList(s))
		}
		return container.NewBorder(nil, nil, label, nil, e)
	default:
		ro := widget.NewLabel(indent + f.Label + ": (read-only)")
		return ro
	}
}
