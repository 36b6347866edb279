/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package engine keeps the per-document viewing state (current page, scale,
// per-page rotation, search cursor) on top of a Source that does the actual
// PDF work. An Engine is not safe for concurrent use; the viewer drives it from
// the UI thread only.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"

	applog "gopdfviewer/internal/log"
)

var (
	// ErrNeedsPassword is returned by Open for encrypted documents.
	ErrNeedsPassword = errors.New("document needs password")
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine closed")
	// ErrUnknownBackend is returned by Open when Options.Backend names no registered source.
	ErrUnknownBackend = errors.New("unknown engine backend")
)

// Direction selects which way FindPhrase moves the search cursor.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Rotation is a quarter turn of the current page.
type Rotation int

const (
	Clockwise Rotation = iota
	CounterClockwise
)

func (r Rotation) String() string {
	if r == CounterClockwise {
		return "ccw"
	}
	return "cw"
}

// Scale limits used when Options leaves them zero.
const (
	DefaultMinScale = 25
	DefaultMaxScale = 400
	DefaultScale    = 100
)

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	MinScale      int
	MaxScale      int
	DefaultScale  int
	CaseSensitive bool
	// Backend picks a registered source by name ("mupdf", "text"); empty picks the best available.
	Backend string
}

func (o Options) normalized() Options {
	if o.MinScale <= 0 {
		o.MinScale = DefaultMinScale
	}
	if o.MaxScale <= 0 {
		o.MaxScale = DefaultMaxScale
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = o.MinScale
	}
	if o.DefaultScale <= 0 {
		o.DefaultScale = DefaultScale
	}
	if o.DefaultScale < o.MinScale {
		o.DefaultScale = o.MinScale
	}
	if o.DefaultScale > o.MaxScale {
		o.DefaultScale = o.MaxScale
	}
	return o
}

// Engine is one open document.
type Engine struct {
	src     Source
	path    string
	backend string
	opts    Options
	log     *slog.Logger
	page    int // 1-based
	scale   int // percent
	turns   map[int]int
	search  *searcher
	texts   map[int]string
	outline []OutlineEntry
	loaded  bool
	closed  bool
}

// Open opens path with the backend chosen by opts.
func Open(path string, opts Options) (*Engine, error) {
	open, name, err := backendFor(opts.Backend)
	if err != nil {
		return nil, err
	}
	src, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	e := New(src, path, opts)
	e.backend = name
	e.log.InfoContext(applog.WithDocument(context.Background(), path), "document opened",
		slog.String("backend", name), slog.Int("pages", e.TotalPages()))
	return e, nil
}

// New wraps an already opened source. The engine owns src from now on.
func New(src Source, path string, opts Options) *Engine {
	opts = opts.normalized()
	return &Engine{
		src:    src,
		path:   path,
		opts:   opts,
		log:    applog.WithComponent("engine"),
		page:   1,
		scale:  opts.DefaultScale,
		turns:  map[int]int{},
		search: newSearcher(opts.CaseSensitive),
		texts:  map[int]string{},
	}
}

// Path returns the file the engine was opened from.
func (e *Engine) Path() string { return e.path }

// Backend names the source library, empty for engines built with New.
func (e *Engine) Backend() string { return e.backend }

// TotalPages returns the page count, 0 once closed.
func (e *Engine) TotalPages() int {
	if e.closed {
		return 0
	}
	return e.src.NumPages()
}

// CurrentPage returns the 1-based current page.
func (e *Engine) CurrentPage() int { return e.page }

// SetCurrentPage moves to page n. It reports false, leaving the page
// unchanged, when n is outside [1, TotalPages].
func (e *Engine) SetCurrentPage(n int) bool {
	if n < 1 || n > e.TotalPages() {
		return false
	}
	e.page = n
	return true
}

// CurrentScale returns the zoom in percent.
func (e *Engine) CurrentScale() int { return e.scale }

// ScaleRange returns the accepted zoom bounds in percent.
func (e *Engine) ScaleRange() (lo, hi int) { return e.opts.MinScale, e.opts.MaxScale }

// SetCurrentScale sets the zoom. It reports false when percent is out of range.
func (e *Engine) SetCurrentScale(percent int) bool {
	if e.closed || percent < e.opts.MinScale || percent > e.opts.MaxScale {
		return false
	}
	e.scale = percent
	return true
}

// Rotate turns the current page by 90 degrees.
func (e *Engine) Rotate(r Rotation) {
	if e.closed {
		return
	}
	t := e.turns[e.page]
	if r == Clockwise {
		t++
	} else {
		t--
	}
	t = ((t % 4) + 4) % 4
	if t == 0 {
		delete(e.turns, e.page)
	} else {
		e.turns[e.page] = t
	}
	e.log.Debug("page rotated", slog.Int("page", e.page), slog.Int("degrees", t*90))
}

// PageRotation returns the clockwise rotation of page n in degrees.
func (e *Engine) PageRotation(n int) int { return e.turns[n] * 90 }

// Render rasterizes the current page at the current scale and rotation.
func (e *Engine) Render() (image.Image, error) {
	return e.RenderPage(e.page, e.scale)
}

// RenderPage rasterizes page n (1-based) at scale percent, applying the page's rotation.
func (e *Engine) RenderPage(n, scale int) (image.Image, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if n < 1 || n > e.TotalPages() {
		return nil, fmt.Errorf("page %d out of range [1,%d]", n, e.TotalPages())
	}
	if scale <= 0 {
		scale = e.scale
	}
	img, err := e.src.RenderPage(n-1, 72*float64(scale)/100)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", n, err)
	}
	switch e.turns[n] {
	case 1:
		return imaging.Rotate270(img), nil
	case 2:
		return imaging.Rotate180(img), nil
	case 3:
		return imaging.Rotate90(img), nil
	}
	return img, nil
}

// PageText returns the extracted text of page n (1-based).
func (e *Engine) PageText(n int) (string, error) {
	if e.closed {
		return "", ErrClosed
	}
	if n < 1 || n > e.TotalPages() {
		return "", fmt.Errorf("page %d out of range [1,%d]", n, e.TotalPages())
	}
	if s, ok := e.texts[n]; ok {
		return s, nil
	}
	s, err := e.src.PageText(n - 1)
	if err != nil {
		return "", fmt.Errorf("text of page %d: %w", n, err)
	}
	e.texts[n] = s
	return s, nil
}

// Text returns the text of every page, each preceded by a "--- Page N ---" line.
// Pages whose text cannot be extracted are left empty.
func (e *Engine) Text() (string, error) {
	if e.closed {
		return "", ErrClosed
	}
	var b strings.Builder
	for n := 1; n <= e.TotalPages(); n++ {
		s, err := e.PageText(n)
		if err != nil {
			e.log.Warn("skipping page text", slog.Int("page", n), slog.Any("err", err))
		}
		fmt.Fprintf(&b, "--- Page %d ---\n", n)
		b.WriteString(strings.TrimRight(s, "\n"))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Outline returns the flattened table of contents with 1-based target pages.
// A document without an outline yields an empty slice.
func (e *Engine) Outline() []OutlineEntry {
	if e.closed {
		return nil
	}
	if !e.loaded {
		entries, err := e.src.Outline()
		if err != nil {
			e.log.Warn("outline unavailable", slog.Any("err", err))
		}
		e.outline, e.loaded = entries, true
	}
	return append([]OutlineEntry(nil), e.outline...)
}

// Metadata returns document info fields (Title, Author, ...) when the source provides them.
func (e *Engine) Metadata() map[string]string {
	if m, ok := e.src.(interface{ Metadata() map[string]string }); ok && !e.closed {
		return m.Metadata()
	}
	return nil
}

// Close releases the source. Further calls are no-ops.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.texts = nil
	e.log.Debug("document closed", slog.String("path", e.path))
	return e.src.Close()
}
