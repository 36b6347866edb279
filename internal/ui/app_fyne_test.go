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

// These tests drive the Fyne window through the test driver. They are gated
// behind the "fyne" build tag so headless CI does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"errors"
	"image"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"gopdfviewer/internal/config"
	"gopdfviewer/internal/engine"
	"gopdfviewer/internal/viewer"
)

// stubDoc is a viewer.Document with fixed pages.
type stubDoc struct {
	path   string
	pages  []string
	page   int
	scale  int
	closed bool
}

func (d *stubDoc) Path() string     { return d.path }
func (d *stubDoc) TotalPages() int  { return len(d.pages) }
func (d *stubDoc) CurrentPage() int { return d.page }
func (d *stubDoc) SetCurrentPage(n int) bool {
	if n < 1 || n > len(d.pages) {
		return false
	}
	d.page = n
	return true
}
func (d *stubDoc) CurrentScale() int { return d.scale }
func (d *stubDoc) SetCurrentScale(p int) bool {
	if p < 25 || p > 400 {
		return false
	}
	d.scale = p
	return true
}
func (d *stubDoc) FindPhrase(string, engine.Direction) bool { return false }
func (d *stubDoc) Rotate(engine.Rotation)                   {}
func (d *stubDoc) Render() (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, d.scale, d.scale*2)), nil
}
func (d *stubDoc) PageText(n int) (string, error) { return d.pages[n-1], nil }
func (d *stubDoc) Text() (string, error)          { return "", nil }
func (d *stubDoc) Outline() []engine.OutlineEntry {
	return []engine.OutlineEntry{{Title: "Start", Level: 1, Page: 1}}
}
func (d *stubDoc) Close() error { d.closed = true; return nil }

type quietPresenter struct{ errors, warnings int }

func (p *quietPresenter) ShowError(string, string)   { p.errors++ }
func (p *quietPresenter) ShowWarning(string, string) { p.warnings++ }
func (p *quietPresenter) ShowInfo(string, string)    {}
func (p *quietPresenter) ShowText(string, string)    {}
func (p *quietPresenter) Quit()                      {}

func newTestWindow(t *testing.T) (*window, *quietPresenter) {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	open := func(path string) (viewer.Document, error) {
		if path == "/missing.pdf" {
			return nil, errors.New("missing")
		}
		return &stubDoc{path: path, pages: []string{"a", "b", "c"}, page: 1, scale: 100}, nil
	}
	p := &quietPresenter{}
	return newWindow(a, Options{Config: config.Defaults()}, open, p), p
}

func TestWindowInitialState(t *testing.T) {
	vw, _ := newTestWindow(t)
	if got := vw.w.Title(); got != "QPDFViewer" {
		t.Fatalf("unexpected title %q", got)
	}
	if vw.scaleBox.Text != "100%" {
		t.Fatalf("expected scale 100%%, got %q", vw.scaleBox.Text)
	}
	if len(vw.tabs.Items) != 1 || vw.tabs.Items[0].Text != viewer.PlaceholderTitle {
		t.Fatalf("expected one placeholder tab, got %d", len(vw.tabs.Items))
	}
}

func TestWindowOpenAndNavigate(t *testing.T) {
	vw, p := newTestWindow(t)
	vw.do(viewer.ActionOpen, viewer.Request{Path: "/docs/book.pdf"})
	if got := vw.w.Title(); got != "QPDFViewer - /docs/book.pdf" {
		t.Fatalf("unexpected title %q", got)
	}
	if vw.totalLabel.Text != " of 3 " || vw.pageEntry.Text != "1" {
		t.Fatalf("unexpected labels %q %q", vw.totalLabel.Text, vw.pageEntry.Text)
	}

	vw.w.Canvas().OnTypedKey()(&fyne.KeyEvent{Name: fyne.KeyF2})
	if vw.pageEntry.Text != "2" {
		t.Fatalf("F2 should turn to page 2, got %q", vw.pageEntry.Text)
	}

	vw.pageEntry.SetText("9")
	vw.pageEntry.OnSubmitted("9")
	if p.errors != 1 {
		t.Fatalf("expected an out of bounds dialog, got %d", p.errors)
	}
	if vw.pageEntry.Text != "9" {
		t.Fatalf("rejected entry must stay as typed, got %q", vw.pageEntry.Text)
	}

	vw.scaleBox.OnSubmitted("5%")
	if vw.scaleBox.Text != "5" {
		t.Fatalf("rejected scale keeps the stripped text, got %q", vw.scaleBox.Text)
	}
	vw.scaleBox.OnSubmitted("150")
	if vw.scaleBox.Text != "150%" {
		t.Fatalf("expected 150%%, got %q", vw.scaleBox.Text)
	}
}

func TestWindowTabsAndOutline(t *testing.T) {
	vw, _ := newTestWindow(t)
	vw.do(viewer.ActionOpen, viewer.Request{Path: "/docs/one.pdf"})
	vw.do(viewer.ActionNewTab, viewer.Request{})
	if len(vw.tabs.Items) != 2 || vw.tabs.SelectedIndex() != 1 {
		t.Fatalf("expected second tab selected, got %d items, index %d", len(vw.tabs.Items), vw.tabs.SelectedIndex())
	}
	vw.tabs.CloseIntercept(vw.tabs.Items[1])
	if len(vw.tabs.Items) != 1 || vw.tabs.Items[0].Text != "one.pdf" {
		t.Fatalf("expected only one.pdf left, got %d items", len(vw.tabs.Items))
	}

	vw.navItem.Action()
	if !vw.navItem.Checked || vw.ctrl.Outline() == nil {
		t.Fatal("navigation bar should be shown")
	}
	if kids := vw.outlineChildren(""); len(kids) != 1 {
		t.Fatalf("expected one outline root, got %v", kids)
	}
	vw.navItem.Action()
	if vw.navItem.Checked || vw.ctrl.Outline() != nil {
		t.Fatal("navigation bar should be hidden")
	}
}

func TestPageKeysWhileEntryFocused(t *testing.T) {
	vw, _ := newTestWindow(t)
	vw.do(viewer.ActionOpen, viewer.Request{Path: "/docs/book.pdf"})

	vw.w.Canvas().Focus(vw.pageEntry)
	vw.pageEntry.SetText("2")
	vw.pageEntry.OnSubmitted("2")
	focused, ok := vw.w.Canvas().Focused().(fyne.Focusable)
	if !ok {
		t.Fatal("page entry should keep focus after submit")
	}
	focused.TypedKey(&fyne.KeyEvent{Name: fyne.KeyF2})
	if vw.pageEntry.Text != "3" {
		t.Fatalf("F2 in the page entry should turn to page 3, got %q", vw.pageEntry.Text)
	}
	focused.TypedKey(&fyne.KeyEvent{Name: fyne.KeyF1})
	if vw.pageEntry.Text != "2" {
		t.Fatalf("F1 in the page entry should turn to page 2, got %q", vw.pageEntry.Text)
	}

	vw.w.Canvas().Focus(vw.scaleBox)
	vw.scaleBox.OnSubmitted("150")
	if vw.w.Canvas().Focused() != nil {
		t.Fatal("submitting a scale should return focus to the window")
	}
}

func TestPresenterDialogKinds(t *testing.T) {
	a := test.NewApp()
	t.Cleanup(a.Quit)
	open := func(path string) (viewer.Document, error) {
		return &stubDoc{path: path, pages: []string{"a", "b"}, page: 1, scale: 100}, nil
	}
	vw := newWindow(a, Options{Config: config.Defaults()}, open, nil)
	p, ok := vw.present.(*presenter)
	if !ok {
		t.Fatalf("expected the window presenter, got %T", vw.present)
	}
	vw.do(viewer.ActionOpen, viewer.Request{Path: "/docs/two.pdf"})

	vw.pageEntry.OnSubmitted("9")
	if p.last != dialogError {
		t.Fatalf("out of bounds should show an error dialog, got kind %d", p.last)
	}
	if vw.w.Canvas().Overlays().Top() == nil {
		t.Fatal("expected a dialog overlay")
	}

	vw.do(viewer.ActionFind, viewer.Request{Text: "zebra", Direction: engine.Forward})
	if p.last != dialogWarning {
		t.Fatalf("a missed search should show a warning, got kind %d", p.last)
	}

	vw.do(viewer.ActionAbout, viewer.Request{})
	if p.last != dialogInfo {
		t.Fatalf("about should show an information dialog, got kind %d", p.last)
	}
}

func TestWindowSizeComesFromConfig(t *testing.T) {
	a := test.NewApp()
	t.Cleanup(a.Quit)
	a.Preferences().SetInt("window.width", 1500)
	a.Preferences().SetInt("window.height", 1200)

	vw := newWindow(a, Options{Config: config.Defaults()}, nil, &quietPresenter{})
	if sz := vw.w.Canvas().Size(); sz.Width >= 1500 || sz.Height >= 1200 {
		t.Fatalf("window size should follow the config, got %v", sz)
	}
}
