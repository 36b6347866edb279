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
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"gopdfviewer/internal/crash"
	"gopdfviewer/internal/engine"
	"gopdfviewer/internal/export"
	applog "gopdfviewer/internal/log"
	"gopdfviewer/internal/viewer"
)

// Run starts the Fyne desktop UI and blocks until the window is closed.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	fyneApp := app.NewWithID("gopdfviewer")
	switch opts.Config.General.Theme {
	case "dark":
		fyneApp.Settings().SetTheme(theme.DarkTheme())
	case "light":
		fyneApp.Settings().SetTheme(theme.LightTheme())
	}
	vw := newWindow(fyneApp, opts, nil, nil)
	defer crash.Recover(vw.ctrl.OpenPaths)

	for i, f := range opts.Files {
		if i > 0 {
			vw.do(viewer.ActionNewTab, viewer.Request{})
		}
		vw.do(viewer.ActionOpen, viewer.Request{Path: f})
	}
	vw.w.ShowAndRun()
	return nil
}

// window holds the widgets mirroring one controller.
type window struct {
	app     fyne.App
	w       fyne.Window
	ctrl    *viewer.Controller
	present viewer.Presenter
	log     *slog.Logger

	nextKey, prevKey fyne.KeyName

	pageEntry   *keyEntry
	totalLabel  *widget.Label
	scaleBox    *widget.SelectEntry
	searchEntry *keyEntry
	tabs        *container.DocTabs
	outline     *widget.Tree
	navItem     *fyne.MenuItem
	center      *fyne.Container

	views   map[*viewer.Tab]*container.TabItem
	syncing bool
}

// newWindow builds the window. open and present replace the engine opener and
// the dialog presenter when non-nil.
func newWindow(a fyne.App, opts Options, open viewer.Opener, present viewer.Presenter) *window {
	cfg := opts.Config
	vw := &window{app: a, log: applog.WithComponent("ui"), views: map[*viewer.Tab]*container.TabItem{}}
	vw.w = a.NewWindow(viewer.AppTitle)

	vw.w.Resize(fyne.NewSize(float32(max(cfg.Window.Width, 320)), float32(max(cfg.Window.Height, 240))))

	if present == nil {
		present = &presenter{app: a, w: vw.w}
	}
	copts := viewer.Configure(cfg, present)
	if open != nil {
		copts.Open = open
	}
	vw.present = present
	vw.ctrl = viewer.NewController(copts)
	vw.nextKey, vw.prevKey = fyne.KeyName(cfg.Viewer.NextPageKey), fyne.KeyName(cfg.Viewer.PrevPageKey)

	vw.pageEntry = newKeyEntry(vw.stepKey)
	vw.pageEntry.OnSubmitted = func(s string) {
		vw.do(viewer.ActionSetPage, viewer.Request{Text: s})
	}
	up := widget.NewButton("▲", func() { vw.do(viewer.ActionStepPage, viewer.Request{Step: viewer.Next}) })
	down := widget.NewButton("▼", func() { vw.do(viewer.ActionStepPage, viewer.Request{Step: viewer.Previous}) })
	vw.totalLabel = widget.NewLabel(" of ")

	choices := vw.ctrl.ScaleChoices()
	vw.scaleBox = widget.NewSelectEntry(choices)
	vw.scaleBox.OnSubmitted = func(s string) {
		vw.do(viewer.ActionSetScale, viewer.Request{Text: s})
		// hand the page keys back to the window
		vw.w.Canvas().Unfocus()
	}
	vw.scaleBox.OnChanged = func(s string) {
		// picking a preset from the drop-down applies it at once
		if vw.syncing || s == vw.ctrl.State().ScaleText {
			return
		}
		for _, c := range choices {
			if c == s {
				vw.do(viewer.ActionSetScale, viewer.Request{Text: s})
				return
			}
		}
	}

	vw.searchEntry = newKeyEntry(vw.stepKey)
	vw.searchEntry.SetPlaceHolder("Search")
	vw.searchEntry.OnSubmitted = func(s string) {
		vw.do(viewer.ActionFind, viewer.Request{Text: s, Direction: engine.Forward})
	}
	backwards := widget.NewButton("Look Backwards", func() {
		vw.do(viewer.ActionFind, viewer.Request{Text: vw.searchEntry.Text, Direction: engine.Backward})
	})
	forwards := widget.NewButton("Look Forwards", func() {
		vw.do(viewer.ActionFind, viewer.Request{Text: vw.searchEntry.Text, Direction: engine.Forward})
	})

	pageBox := container.NewGridWrap(fyne.NewSize(60, vw.pageEntry.MinSize().Height), vw.pageEntry)
	scaleWrap := container.NewGridWrap(fyne.NewSize(110, vw.scaleBox.MinSize().Height), vw.scaleBox)
	toolbar := container.NewBorder(nil, nil,
		container.NewHBox(widget.NewLabel("Page: "), pageBox, up, down, vw.totalLabel,
			widget.NewLabel("Scale Document:"), scaleWrap),
		container.NewHBox(backwards, forwards),
		vw.searchEntry)

	vw.tabs = container.NewDocTabs()
	vw.tabs.OnSelected = func(item *container.TabItem) {
		if vw.syncing {
			return
		}
		vw.do(viewer.ActionSelectTab, viewer.Request{Tab: vw.indexOf(item)})
	}
	vw.tabs.CloseIntercept = func(item *container.TabItem) {
		vw.do(viewer.ActionCloseTab, viewer.Request{Tab: vw.indexOf(item)})
	}

	vw.outline = widget.NewTree(vw.outlineChildren, vw.outlineIsBranch,
		func(bool) fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TreeNodeID, _ bool, o fyne.CanvasObject) {
			if p := vw.ctrl.Outline(); p != nil {
				if i, err := strconv.Atoi(id); err == nil && i < p.Len() {
					o.(*widget.Label).SetText(p.Items()[i].Label)
				}
			}
		})
	vw.outline.OnSelected = func(id widget.TreeNodeID) {
		p := vw.ctrl.Outline()
		i, err := strconv.Atoi(id)
		if p == nil || err != nil {
			return
		}
		if p.Select(i) {
			vw.sync()
		}
	}

	vw.center = container.NewStack(vw.tabs)
	vw.w.SetContent(container.NewBorder(toolbar, nil, nil, nil, vw.center))
	vw.w.SetMainMenu(vw.menu())

	vw.w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) { vw.stepKey(ev.Name) })

	vw.w.SetCloseIntercept(func() {
		if err := vw.ctrl.Close(); err != nil {
			vw.log.Warn("closing documents", slog.Any("err", err))
		}
		vw.w.Close()
	})

	vw.sync()
	return vw
}

// stepKey turns the page for the configured next/previous keys and reports
// whether name was one of them.
func (vw *window) stepKey(name fyne.KeyName) bool {
	switch name {
	case vw.nextKey:
		vw.do(viewer.ActionStepPage, viewer.Request{Step: viewer.Next})
	case vw.prevKey:
		vw.do(viewer.ActionStepPage, viewer.Request{Step: viewer.Previous})
	default:
		return false
	}
	return true
}

// keyEntry is an entry that lets the window see the page keys while it has focus.
type keyEntry struct {
	widget.Entry
	onKey func(fyne.KeyName) bool
}

func newKeyEntry(onKey func(fyne.KeyName) bool) *keyEntry {
	e := &keyEntry{onKey: onKey}
	e.ExtendBaseWidget(e)
	return e
}

func (e *keyEntry) TypedKey(ev *fyne.KeyEvent) {
	if e.onKey != nil && e.onKey(ev.Name) {
		return
	}
	e.Entry.TypedKey(ev)
}

func (vw *window) menu() *fyne.MainMenu {
	openItem := fyne.NewMenuItem("Open…", func() {
		vw.log.Info("menu: open")
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				vw.log.Error("open dialog error", slog.Any("err", err))
				return
			}
			path := ""
			if rc != nil {
				path = rc.URI().Path()
				_ = rc.Close()
			}
			vw.do(viewer.ActionOpen, viewer.Request{Path: path})
		}, vw.w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
		fd.Show()
	})
	newTab := fyne.NewMenuItem("New Tab", func() { vw.do(viewer.ActionNewTab, viewer.Request{}) })
	closeTab := fyne.NewMenuItem("Close Tab", func() {
		vw.do(viewer.ActionCloseTab, viewer.Request{Tab: vw.ctrl.State().Active})
	})
	pageText := fyne.NewMenuItem("Page Text", func() { vw.do(viewer.ActionDumpText, viewer.Request{}) })
	exportItem := fyne.NewMenuItem("Export…", vw.exportDialog)
	exitItem := fyne.NewMenuItem("Exit", func() { vw.do(viewer.ActionExit, viewer.Request{}) })
	exitItem.IsQuit = true
	fileMenu := fyne.NewMenu("File", openItem, newTab, closeTab, pageText, exportItem, fyne.NewMenuItemSeparator(), exitItem)

	cw := fyne.NewMenuItem("Rotate 90° CW", func() {
		vw.do(viewer.ActionRotate, viewer.Request{Rotation: engine.Clockwise})
	})
	ccw := fyne.NewMenuItem("Rotate 90° CCW", func() {
		vw.do(viewer.ActionRotate, viewer.Request{Rotation: engine.CounterClockwise})
	})
	back := fyne.NewMenuItem("Back", func() { vw.do(viewer.ActionBack, viewer.Request{}) })
	fwd := fyne.NewMenuItem("Forward", func() { vw.do(viewer.ActionForward, viewer.Request{}) })
	pageMenu := fyne.NewMenu("Page", cw, ccw, fyne.NewMenuItemSeparator(), back, fwd)

	vw.navItem = fyne.NewMenuItem("Show Navigation Bar", nil)
	vw.navItem.Action = func() {
		vw.do(viewer.ActionToggleOutline, viewer.Request{Enabled: !vw.navItem.Checked})
	}
	navMenu := fyne.NewMenu("Navigation", vw.navItem)

	aboutMenu := fyne.NewMenu("About", fyne.NewMenuItem("About", func() { vw.do(viewer.ActionAbout, viewer.Request{}) }))
	return fyne.NewMainMenu(fileMenu, pageMenu, navMenu, aboutMenu)
}

// do dispatches an action and mirrors the result. Rejected page entries are
// left as typed; a rejected scale keeps the text without its percent sign.
func (vw *window) do(a viewer.Action, req viewer.Request) {
	res, err := vw.ctrl.Dispatch(a, req)
	if err != nil && !errors.Is(err, viewer.ErrOutOfBounds) && !errors.Is(err, viewer.ErrPhraseNotFound) && !errors.Is(err, viewer.ErrNoDocument) {
		vw.log.Error("action failed", slog.String("action", string(a)), slog.Any("err", err))
	}
	switch {
	case res.Quit:
		return
	case res.Changed:
		vw.sync()
	case a == viewer.ActionSetScale && errors.Is(err, viewer.ErrOutOfBounds):
		vw.syncing = true
		vw.scaleBox.SetText(vw.ctrl.State().ScaleText)
		vw.syncing = false
	}
}

// sync copies the controller state into the widgets.
func (vw *window) sync() {
	vw.syncing = true
	defer func() { vw.syncing = false }()

	s := vw.ctrl.State()
	vw.w.SetTitle(s.WindowTitle)
	vw.pageEntry.SetText(s.PageText)
	vw.totalLabel.SetText(s.TotalText)
	vw.scaleBox.SetText(s.ScaleText)

	tabs := vw.ctrl.Tabs()
	items := make([]*container.TabItem, len(tabs))
	live := map[*viewer.Tab]bool{}
	for i, t := range tabs {
		item, ok := vw.views[t]
		if !ok {
			item = vw.newView(t)
			vw.views[t] = item
		}
		item.Text = t.Title()
		items[i] = item
		live[t] = true
	}
	for t := range vw.views {
		if !live[t] {
			delete(vw.views, t)
		}
	}
	vw.tabs.SetItems(items)
	vw.tabs.SelectIndex(s.Active)
	vw.tabs.Refresh()

	vw.navItem.Checked = s.OutlineOpen
	if s.OutlineOpen {
		vw.outline.UnselectAll()
		vw.outline.Refresh()
		split := container.NewHSplit(vw.outline, vw.tabs)
		split.Offset = 0.25
		vw.center.Objects = []fyne.CanvasObject{split}
	} else {
		vw.center.Objects = []fyne.CanvasObject{vw.tabs}
	}
	vw.center.Refresh()
	if mm := vw.w.MainMenu(); mm != nil {
		mm.Refresh()
	}
}

// newView creates the scrolled page image of a tab and feeds scroll
// positions into its surface.
func (vw *window) newView(t *viewer.Tab) *container.TabItem {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillOriginal
	scroll := container.NewScroll(img)
	surf := t.Surface()
	updateRange := func() {
		span := img.MinSize().Height - scroll.Size().Height
		surf.SetRange(0, int(max(span, 0)))
	}
	setImage := func(i image.Image) {
		img.Image = i
		img.Refresh()
		scroll.ScrollToTop()
		updateRange()
	}
	setImage(surf.Content())
	surf.OnContent(setImage)
	scroll.OnScrolled = func(p fyne.Position) {
		updateRange()
		surf.ScrollTo(int(p.Y))
	}
	surf.OnExtremity(func(top bool) {
		vw.log.Debug("page edge reached", slog.Bool("top", top), slog.String("tab", t.Title()))
	})
	return container.NewTabItem(t.Title(), scroll)
}

func (vw *window) indexOf(item *container.TabItem) int {
	for i, it := range vw.tabs.Items {
		if it == item {
			return i
		}
	}
	return -1
}

func (vw *window) outlineChildren(id widget.TreeNodeID) []widget.TreeNodeID {
	p := vw.ctrl.Outline()
	if p == nil {
		return nil
	}
	parent := -1
	if id != "" {
		i, err := strconv.Atoi(id)
		if err != nil {
			return nil
		}
		parent = i
	}
	var out []widget.TreeNodeID
	for _, c := range p.Children(parent) {
		out = append(out, strconv.Itoa(c))
	}
	return out
}

func (vw *window) outlineIsBranch(id widget.TreeNodeID) bool {
	return id == "" || len(vw.outlineChildren(id)) > 0
}

// exportDialog asks for a .pdf, .cbz or .png target and exports the active document.
func (vw *window) exportDialog() {
	doc, ok := vw.ctrl.ActiveTab().Document().(export.Document)
	if !ok {
		return
	}
	fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		_ = wc.Close()
		if export.FormatFor(path) == export.FormatPNG {
			// pages go to a directory named after the chosen file
			_ = os.Remove(path)
			path = strings.TrimSuffix(path, filepath.Ext(path))
		}
		if err := export.Export(doc, path, "", export.PresetOptions(export.PresetWeb)); err != nil {
			vw.log.Error("export failed", slog.String("path", path), slog.Any("err", err))
			dialog.ShowError(err, vw.w)
			return
		}
		vw.log.Info("exported", slog.String("path", path))
	}, vw.w)
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf", ".cbz", ".png"}))
	fd.SetFileName(strings.TrimSuffix(filepath.Base(doc.Path()), ".pdf") + "-export.pdf")
	fd.Show()
}

type dialogKind int

const (
	dialogInfo dialogKind = iota
	dialogWarning
	dialogError
	dialogText
)

// presenter shows controller dialogs on the window.
type presenter struct {
	app  fyne.App
	w    fyne.Window
	last dialogKind
}

func (p *presenter) ShowError(title, message string) {
	p.last = dialogError
	dialog.ShowError(fmt.Errorf("%s: %s", title, message), p.w)
}

func (p *presenter) ShowWarning(title, message string) {
	p.last = dialogWarning
	body := container.NewHBox(widget.NewIcon(theme.WarningIcon()), widget.NewLabel(message))
	dialog.NewCustom(title, "OK", body, p.w).Show()
}

func (p *presenter) ShowInfo(title, message string) {
	p.last = dialogInfo
	dialog.NewInformation(title, message, p.w).Show()
}

func (p *presenter) ShowText(title, text string) {
	p.last = dialogText
	entry := widget.NewMultiLineEntry()
	entry.SetText(text)
	entry.Wrapping = fyne.TextWrapWord
	d := dialog.NewCustom(title, "Close", container.NewScroll(entry), p.w)
	d.Resize(fyne.NewSize(640, 480))
	d.Show()
}

func (p *presenter) Quit() { p.app.Quit() }
