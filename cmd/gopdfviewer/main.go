/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"gopdfviewer/internal/config"
	"gopdfviewer/internal/crash"
	"gopdfviewer/internal/engine"
	"gopdfviewer/internal/export"
	applog "gopdfviewer/internal/log"
	"gopdfviewer/internal/telemetry"
	"gopdfviewer/internal/tui"
	"gopdfviewer/internal/ui"
	"gopdfviewer/internal/version"
	"gopdfviewer/internal/viewer"
)

func usage() {
	fmt.Println("QPDFViewer (gopdfviewer)")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gopdfviewer version|-v|--version                 Show version")
	fmt.Println("  gopdfviewer ui [<file>...]                        Launch desktop UI (build with -tags fyne)")
	fmt.Println("  gopdfviewer tui <file>                            Browse page text in the terminal")
	fmt.Println("  gopdfviewer info <file>                           Print page count, backend and metadata")
	fmt.Println("  gopdfviewer text <file>...                        Dump the text of every page")
	fmt.Println("  gopdfviewer find <file> <phrase> [-b]             List pages containing phrase")
	fmt.Println("  gopdfviewer outline <file>                        Print the table of contents")
	fmt.Println("  gopdfviewer render <file> <page> <out.png> [scale] [cw|ccw]")
	fmt.Println("                                                    Render one page to PNG")
	fmt.Println("  gopdfviewer export <file> <out> [web|print] [pages]")
	fmt.Println("                                                    Export pages as PNGs (dir), .cbz or .pdf")
	fmt.Println("  gopdfviewer config init|show                      Write or print the user config")
}

// docTracker lists open documents for crash reports.
type docTracker struct {
	mu    sync.Mutex
	paths []string
}

func (d *docTracker) add(p string) {
	d.mu.Lock()
	d.paths = append(d.paths, p)
	d.mu.Unlock()
}

func (d *docTracker) list() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.paths...)
}

func main() {
	code := run(os.Args)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	telemetry.Default().Flush(ctx)
	cancel()
	telemetry.Default().Close()
	os.Exit(code)
}

func run(args []string) int {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config ignored, using defaults", slog.Any("err", cfgErr))
	}
	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || cfg.General.TelemetryOptIn
	telemetry.SetDefault(telemetry.New(tc))

	docs := &docTracker{}
	defer crash.Recover(docs.list)

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return 0
	}
	open := func(path string) (*engine.Engine, error) {
		abs, _ := filepath.Abs(path)
		e, err := engine.Open(abs, viewer.EngineOptions(cfg))
		if err != nil {
			return nil, err
		}
		docs.add(abs)
		return e, nil
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("QPDFViewer (gopdfviewer)")
		fmt.Println(version.String())
		return 0
	case "ui":
		if err := ui.Run(ui.Options{Files: args[2:], Config: cfg}); err != nil {
			return fail(l, "ui", err)
		}
		return 0
	case "tui":
		if len(args) < 3 {
			return needs("tui requires <file>")
		}
		if err := tui.Run(args[2], cfg); err != nil {
			return fail(l, "tui", err)
		}
		return 0
	case "info":
		if len(args) < 3 {
			return needs("info requires <file>")
		}
		e, err := open(args[2])
		if err != nil {
			return fail(l, "info", err)
		}
		defer e.Close()
		fmt.Println("File:", e.Path())
		fmt.Println("Backend:", e.Backend())
		fmt.Println("Pages:", e.TotalPages())
		md := e.Metadata()
		keys := make([]string, 0, len(md))
		for k := range md {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if md[k] != "" {
				fmt.Printf("%s: %s\n", k, md[k])
			}
		}
		return 0
	case "text":
		if len(args) < 3 {
			return needs("text requires at least one <file>")
		}
		if err := dumpText(args[2:], open); err != nil {
			return fail(l, "text", err)
		}
		return 0
	case "find":
		if len(args) < 4 {
			return needs("find requires <file> and <phrase>")
		}
		back := len(args) > 4 && args[4] == "-b"
		e, err := open(args[2])
		if err != nil {
			return fail(l, "find", err)
		}
		defer e.Close()
		hits := findAll(e, args[3], back)
		if len(hits) == 0 {
			fmt.Printf("Could not find phrase: %s\n", args[3])
			return 1
		}
		for _, h := range hits {
			fmt.Println(h)
		}
		return 0
	case "outline":
		if len(args) < 3 {
			return needs("outline requires <file>")
		}
		e, err := open(args[2])
		if err != nil {
			return fail(l, "outline", err)
		}
		defer e.Close()
		for _, it := range e.Outline() {
			page := "-"
			if it.Page > 0 {
				page = strconv.Itoa(it.Page)
			}
			fmt.Printf("%s%s ... %s\n", strings.Repeat("  ", max(it.Level-1, 0)), it.Title, page)
		}
		return 0
	case "render":
		if len(args) < 5 {
			return needs("render requires <file> <page> <out.png>")
		}
		if err := render(args[2:], open); err != nil {
			return fail(l, "render", err)
		}
		fmt.Println("Wrote", args[4])
		return 0
	case "export":
		if len(args) < 4 {
			return needs("export requires <file> and <out>")
		}
		if err := exportDoc(args[2:], open); err != nil {
			return fail(l, "export", err)
		}
		fmt.Println("Exported to", args[3])
		return 0
	case "config":
		sub := ""
		if len(args) > 2 {
			sub = args[2]
		}
		switch sub {
		case "init":
			path, err := config.Path()
			if err != nil {
				return fail(l, "config", err)
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Println("Config already exists:", path)
				return 1
			}
			if _, err := config.Save(config.Defaults()); err != nil {
				return fail(l, "config", err)
			}
			fmt.Println("Wrote", path)
			return 0
		case "show":
			path, _ := config.Path()
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fail(l, "config", err)
			}
			fmt.Printf("# %s\n%s", path, data)
			return 0
		}
		return needs("config requires init or show")
	}

	usage()
	return 2
}

func needs(msg string) int {
	fmt.Println(msg)
	usage()
	return 2
}

func fail(l *slog.Logger, op string, err error) int {
	l.Error(op+" failed", slog.Any("err", err))
	if errors.Is(err, engine.ErrNeedsPassword) {
		fmt.Println("Error: the document is password protected")
		return 1
	}
	fmt.Println("Error:", err)
	return 1
}

// dumpText extracts all files concurrently and prints them in argument order.
func dumpText(files []string, open func(string) (*engine.Engine, error)) error {
	out := make([]string, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			e, err := open(f)
			if err != nil {
				return err
			}
			defer e.Close()
			s, err := e.Text()
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, s := range out {
		if len(files) > 1 {
			fmt.Printf("==> %s <==\n", files[i])
		}
		fmt.Print(s)
	}
	return nil
}

// findAll walks every match of phrase in reading order (or reverse with back)
// and formats one line per hit.
func findAll(e *engine.Engine, phrase string, back bool) []string {
	dir := engine.Forward
	if back {
		dir = engine.Backward
		e.SetCurrentPage(e.TotalPages())
	}
	var hits []string
	for e.FindPhrase(phrase, dir) {
		m, ok := e.LastMatch()
		if !ok {
			break
		}
		text, _ := e.PageText(m.Page)
		hits = append(hits, fmt.Sprintf("page %d: %s", m.Page, snippet(text, m.Start, m.End)))
	}
	return hits
}

func snippet(text string, start, end int) string {
	const ctx = 30
	from, to := max(start-ctx, 0), min(end+ctx, len(text))
	for from > 0 && !utf8Start(text[from]) {
		from--
	}
	for to < len(text) && !utf8Start(text[to]) {
		to++
	}
	s := strings.Join(strings.Fields(text[from:to]), " ")
	if from > 0 {
		s = "…" + s
	}
	if to < len(text) {
		s += "…"
	}
	return s
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }

func render(args []string, open func(string) (*engine.Engine, error)) error {
	page, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("page %q: %w", args[1], err)
	}
	e, err := open(args[0])
	if err != nil {
		return err
	}
	defer e.Close()
	if !e.SetCurrentPage(page) {
		return fmt.Errorf("page %d: %w", page, viewer.ErrOutOfBounds)
	}
	for _, a := range args[3:] {
		switch strings.ToLower(a) {
		case "cw":
			e.Rotate(engine.Clockwise)
		case "ccw":
			e.Rotate(engine.CounterClockwise)
		default:
			n, err := strconv.Atoi(strings.TrimSuffix(a, "%"))
			if err != nil || !e.SetCurrentScale(n) {
				lo, hi := e.ScaleRange()
				return fmt.Errorf("scale %q: %w (%d%%..%d%%)", a, viewer.ErrOutOfBounds, lo, hi)
			}
		}
	}
	img, err := e.Render()
	if err != nil {
		return err
	}
	return export.WritePNG(args[2], img)
}

func exportDoc(args []string, open func(string) (*engine.Engine, error)) error {
	opt := export.PresetOptions(export.PresetWeb)
	pageSpec := ""
	for _, a := range args[2:] {
		if p := export.Preset(a); p == export.PresetWeb || p == export.PresetPrint {
			opt.Scale = export.PresetOptions(p).Scale
			continue
		}
		pageSpec = a
	}
	e, err := open(args[0])
	if err != nil {
		return err
	}
	defer e.Close()
	if pageSpec != "" {
		if opt.Pages, err = parsePages(pageSpec, e.TotalPages()); err != nil {
			return err
		}
	}
	return export.Export(e, args[1], "", opt)
}

// parsePages reads "1,3-5" style page lists. Every page must lie in [1,total].
func parsePages(s string, total int) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(s, ",") {
		lo, hi, isRange := strings.Cut(strings.TrimSpace(part), "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("pages %q: %w", s, err)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("pages %q: %w", s, err)
			}
		}
		if a > b {
			return nil, fmt.Errorf("pages %q: range %d-%d is reversed", s, a, b)
		}
		if a < 1 || b > total {
			return nil, fmt.Errorf("pages %q: %w [1,%d]", s, viewer.ErrOutOfBounds, total)
		}
		for p := a; p <= b; p++ {
			pages = append(pages, p)
		}
	}
	return pages, nil
}
