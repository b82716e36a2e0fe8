/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"uicomposer/internal/backend"
	"uicomposer/internal/config"
	"uicomposer/internal/crash"
	"uicomposer/internal/export"
	applog "uicomposer/internal/log"
	"uicomposer/internal/schema"
	"uicomposer/internal/storage"
	"uicomposer/internal/ui"
	"uicomposer/internal/version"
)

func usage() {
	fmt.Println("UI Composer — multi-view layout editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  uicomposer version|-v|--version            Show version")
	fmt.Println("  uicomposer open <file>                     Open a layout and print a summary")
	fmt.Println("  uicomposer validate <file>                 Check a layout's shape and print warnings")
	fmt.Println("  uicomposer export <file> <out.pdf|out.png> Export a wireframe render")
	fmt.Println("  uicomposer publish <file> <name>           Publish a layout to the shared catalog")
	fmt.Println("  uicomposer ui [<file>]                     Launch the desktop editor (build with -tags fyne)")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var fh *storage.FileHandle
	defer func() { crash.Recover(nil, fh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("UI Composer — multi-view layout editor")
		fmt.Println(version.String())

	case "open":
		if len(args) < 3 {
			fmt.Println("open requires <file>")
			usage()
			os.Exit(2)
		}
		abs, _ := filepath.Abs(args[2])
		l.Info("open layout", slog.String("path", abs))
		h, err := storage.Load(abs)
		if err != nil {
			l.Error("open failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fh = h
		widgets, warnings := schema.ListWidgets(h.Document)
		fmt.Printf("Opened layout: %s\n", abs)
		fmt.Printf("Widgets: %d\n", len(widgets))
		for _, w := range widgets {
			fmt.Printf("  %s  (%s)\n", w.Label(), w.Path.String())
		}
		for _, wn := range warnings {
			fmt.Println("Warning:", wn.String())
		}

	case "validate":
		if len(args) < 3 {
			fmt.Println("validate requires <file>")
			usage()
			os.Exit(2)
		}
		abs, _ := filepath.Abs(args[2])
		h, err := storage.Load(abs)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fh = h
		warnings, err := schema.ValidateShape(h.Document)
		if err != nil {
			l.Error("validate failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		_, widgetWarnings := schema.ListWidgets(h.Document)
		warnings = append(warnings, widgetWarnings...)
		if len(warnings) == 0 {
			fmt.Println("Layout shape looks valid.")
			return
		}
		for _, wn := range warnings {
			fmt.Println("Warning:", wn.String())
		}
		os.Exit(1)

	case "export":
		if len(args) < 4 {
			fmt.Println("export requires <file> and <out.pdf|out.png>")
			usage()
			os.Exit(2)
		}
		abs, _ := filepath.Abs(args[2])
		out, _ := filepath.Abs(args[3])
		h, err := storage.Load(abs)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fh = h
		cfg, _, cerr := config.Load()
		if cerr != nil {
			cfg = config.Defaults()
		}
		opts := export.Options{
			DeviceWidth:  cfg.Canvas.Width,
			DeviceHeight: cfg.Canvas.Height,
			IncludeFrame: true,
		}
		switch strings.ToLower(filepath.Ext(out)) {
		case ".pdf":
			err = export.WireframePDF(h.Document, out, opts)
		case ".png":
			err = export.WireframePNG(h.Document, out, opts)
		default:
			fmt.Println("export output must end in .pdf or .png")
			os.Exit(2)
		}
		if err != nil {
			l.Error("export failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Exported wireframe to", out)

	case "publish":
		if len(args) < 4 {
			fmt.Println("publish requires <file> and <name>")
			usage()
			os.Exit(2)
		}
		abs, _ := filepath.Abs(args[2])
		name := args[3]
		h, err := storage.Load(abs)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fh = h
		_, dsn, cerr := config.Load()
		if cerr != nil || strings.TrimSpace(dsn) == "" {
			fmt.Println("No catalog DSN configured. Store one in the keychain or set UIC_CATALOG_DSN.")
			os.Exit(2)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cat, err := backend.Open(ctx, dsn)
		if err != nil {
			l.Error("catalog open failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		defer func() { _ = cat.Close() }()
		rev, err := cat.Publish(ctx, name, h.Document)
		if err != nil {
			l.Error("publish failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Printf("Published %s revision %d.\n", name, rev)

	case "ui":
		var path string
		if len(args) >= 3 {
			path = args[2]
		}
		if err := ui.Run(path); err != nil {
			l.Error("ui failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(2)
	}
}
