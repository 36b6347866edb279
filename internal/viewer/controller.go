/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package viewer is the toolkit-independent core of the PDF viewer: tabs,
// the page surface model, the outline panel model and the controller that
// maps every UI action to a handler through a dispatch table. Front-ends
// (Fyne, terminal) only translate widget events into Dispatch calls and
// mirror State back into their widgets.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopdfviewer/internal/engine"
	"gopdfviewer/internal/history"
	applog "gopdfviewer/internal/log"
	"gopdfviewer/internal/telemetry"
	"gopdfviewer/internal/version"
)

// Action identifies a UI command.
type Action string

const (
	ActionOpen          Action = "open"
	ActionSetPage       Action = "set-page"
	ActionStepPage      Action = "step-page"
	ActionSetScale      Action = "set-scale"
	ActionFind          Action = "find"
	ActionDumpText      Action = "dump-text"
	ActionToggleOutline Action = "toggle-outline"
	ActionOutlineSelect Action = "outline-select"
	ActionRotate        Action = "rotate"
	ActionExit          Action = "exit"
	ActionNewTab        Action = "new-tab"
	ActionCloseTab      Action = "close-tab"
	ActionSelectTab     Action = "select-tab"
	ActionAbout         Action = "about"
	ActionBack          Action = "back"
	ActionForward       Action = "forward"
)

// Step is the direction of a single page turn.
type Step int

const (
	Next Step = iota
	Previous
)

func (s Step) String() string {
	if s == Previous {
		return "previous"
	}
	return "next"
}

// Request carries the parameters of an action. Each action reads only the
// fields it documents.
type Request struct {
	Path      string           // open
	Text      string           // set-page, set-scale, find
	Page      int              // outline-select
	Step      Step             // step-page
	Direction engine.Direction // find
	Rotation  engine.Rotation  // rotate
	Enabled   bool             // toggle-outline
	Tab       int              // close-tab, select-tab
}

// Result reports what an action did.
type Result struct {
	// Changed is true when the view state was updated.
	Changed bool
	// Text carries the text dump of dump-text.
	Text string
	// Quit is set by exit.
	Quit bool
}

// Handler executes one action.
type Handler func(Request) (Result, error)

// Presenter shows dialogs and ends the application. Front-ends implement it.
type Presenter interface {
	ShowError(title, message string)
	ShowWarning(title, message string)
	ShowInfo(title, message string)
	ShowText(title, text string)
	Quit()
}

// State mirrors the navigation widgets.
type State struct {
	PageText    string // page entry
	TotalText   string // " of N " label
	ScaleText   string // scale box
	WindowTitle string
	Tabs        []string
	Active      int
	OutlineOpen bool
}

// Dialog texts.
const (
	AppTitle          = "QPDFViewer"
	OutOfBoundsTitle  = "Out of bounds"
	OutOfBoundsText   = "Entered value out of bounds!"
	NotFoundTitle     = "Could not find phrase"
	OpenFailedTitle   = "Could not open file"
	PageTextTitle     = "Page Text"
	AboutTitle        = "About QPDFViewer"
	passwordProtected = "The document is password protected."
)

// Options configures a Controller.
type Options struct {
	Open      Opener
	Presenter Presenter
	// ScalePresets are the percentages offered by the scale box (25..400 step 25 when empty).
	ScalePresets []int
	// DefaultPreset indexes ScalePresets for tabs without a document (3 when out of range).
	DefaultPreset int
	History       history.Config
	// Now is the clock used for history records.
	Now func() time.Time
}

// Controller mediates between UI actions and the open documents. It is not
// safe for concurrent use; front-ends call it from their UI thread.
type Controller struct {
	open     Opener
	present  Presenter
	presets  []int
	defScale string
	hcfg     history.Config
	now      func() time.Time
	log      *slog.Logger

	tabs   []*Tab
	active int
	panel  *OutlinePanel

	pageText  string
	totalText string
	scaleText string
	title     string

	handlers map[Action]Handler
	onChange []func()
}

// NewController creates a controller with one placeholder tab.
func NewController(opts Options) *Controller {
	presets := opts.ScalePresets
	if len(presets) == 0 {
		for i := 1; i <= 16; i++ {
			presets = append(presets, i*25)
		}
	}
	idx := opts.DefaultPreset
	if idx < 0 || idx >= len(presets) {
		idx = min(3, len(presets)-1)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		open:     opts.Open,
		present:  opts.Presenter,
		presets:  append([]int(nil), presets...),
		defScale: scaleLabel(presets[idx]),
		hcfg:     opts.History,
		now:      opts.Now,
		log:      applog.WithComponent("viewer"),
	}
	if c.present == nil {
		c.present = nopPresenter{}
	}
	c.tabs = []*Tab{newTab(c.hcfg)}
	c.syncLabels()
	c.handlers = map[Action]Handler{
		ActionOpen:          c.openFile,
		ActionSetPage:       c.setPage,
		ActionStepPage:      c.stepPage,
		ActionSetScale:      c.setScale,
		ActionFind:          c.find,
		ActionDumpText:      c.dumpText,
		ActionToggleOutline: c.toggleOutline,
		ActionOutlineSelect: c.outlineSelect,
		ActionRotate:        c.rotate,
		ActionExit:          c.exit,
		ActionNewTab:        c.newTab,
		ActionCloseTab:      c.closeTab,
		ActionSelectTab:     c.selectTab,
		ActionAbout:         c.about,
		ActionBack:          c.back,
		ActionForward:       c.forward,
	}
	return c
}

// Handle replaces or adds the handler of an action.
func (c *Controller) Handle(a Action, h Handler) { c.handlers[a] = h }

// Actions lists the actions with a handler.
func (c *Controller) Actions() []Action {
	out := make([]Action, 0, len(c.handlers))
	for a := range c.handlers {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

// OnChange subscribes fn; it runs after every dispatched action.
func (c *Controller) OnChange(fn func()) { c.onChange = append(c.onChange, fn) }

// Dispatch runs the handler registered for a.
func (c *Controller) Dispatch(a Action, req Request) (Result, error) {
	h, ok := c.handlers[a]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	l := applog.WithOperation(c.log, string(a))
	res, err := h(req)
	switch {
	case err == nil:
		l.Debug("action done", slog.Bool("changed", res.Changed), slog.String("page", c.pageText))
	case errors.Is(err, ErrNoDocument), errors.Is(err, ErrOutOfBounds), errors.Is(err, ErrPhraseNotFound):
		l.Debug("action rejected", slog.Any("err", err))
	default:
		l.Warn("action failed", slog.Any("err", err))
	}
	for _, fn := range c.onChange {
		fn()
	}
	return res, err
}

// State returns the navigation mirrors.
func (c *Controller) State() State {
	titles := make([]string, len(c.tabs))
	for i, t := range c.tabs {
		titles[i] = t.Title()
	}
	return State{
		PageText:    c.pageText,
		TotalText:   c.totalText,
		ScaleText:   c.scaleText,
		WindowTitle: c.title,
		Tabs:        titles,
		Active:      c.active,
		OutlineOpen: c.panel != nil,
	}
}

// ScaleChoices returns the preset labels ("25%", "50%", ...).
func (c *Controller) ScaleChoices() []string {
	out := make([]string, len(c.presets))
	for i, p := range c.presets {
		out[i] = scaleLabel(p)
	}
	return out
}

// Tabs returns the tabs in display order.
func (c *Controller) Tabs() []*Tab { return append([]*Tab(nil), c.tabs...) }

// ActiveTab returns the tab actions apply to.
func (c *Controller) ActiveTab() *Tab { return c.tabs[c.active] }

// Outline returns the navigation panel, nil while hidden.
func (c *Controller) Outline() *OutlinePanel { return c.panel }

// OpenPaths lists the files open in any tab.
func (c *Controller) OpenPaths() []string {
	var out []string
	for _, t := range c.tabs {
		if t.Loaded() {
			out = append(out, t.Path())
		}
	}
	return out
}

// Close releases every document handle.
func (c *Controller) Close() error {
	var errs []error
	for _, t := range c.tabs {
		if err := t.release(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.panel != nil {
		c.panel.Close()
		c.panel = nil
	}
	return errors.Join(errs...)
}

func (c *Controller) doc() (Document, error) {
	d := c.ActiveTab().Document()
	if d == nil {
		return nil, ErrNoDocument
	}
	return d, nil
}

func (c *Controller) refresh() {
	t := c.ActiveTab()
	if err := t.Refresh(); err != nil {
		c.log.Warn("render failed", slog.String("path", t.Path()), slog.Any("err", err))
	}
}

// syncLabels mirrors the active tab into every label.
func (c *Controller) syncLabels() {
	t := c.ActiveTab()
	d := t.Document()
	if d == nil {
		c.pageText, c.totalText, c.scaleText, c.title = "", " of ", c.defScale, AppTitle
		return
	}
	c.pageText = strconv.Itoa(d.CurrentPage())
	c.totalText = fmt.Sprintf(" of %d ", d.TotalPages())
	c.scaleText = scaleLabel(d.CurrentScale())
	c.title = AppTitle + " - " + t.Path()
}

func (c *Controller) record(from int) {
	c.ActiveTab().History().Record(history.Entry{Page: from, TS: c.now()})
}

func (c *Controller) repopulateOutline() {
	if c.panel == nil {
		return
	}
	var entries []engine.OutlineEntry
	if d := c.ActiveTab().Document(); d != nil {
		entries = d.Outline()
	}
	c.panel.Populate(entries)
}

func (c *Controller) openFile(req Request) (Result, error) {
	if req.Path == "" {
		return Result{}, nil
	}
	if c.open == nil {
		return Result{}, errors.New("no document opener configured")
	}
	t := c.ActiveTab()
	if err := t.release(); err != nil {
		c.log.Warn("closing previous document", slog.Any("err", err))
	}
	d, err := c.open(req.Path)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, engine.ErrNeedsPassword) {
			msg = passwordProtected
		}
		c.present.ShowError(OpenFailedTitle, msg)
		c.syncLabels()
		c.repopulateOutline()
		return Result{Changed: true}, fmt.Errorf("open %s: %w", req.Path, err)
	}
	t.attach(d, req.Path)
	c.refresh()
	c.syncLabels()
	c.repopulateOutline()
	telemetry.Event("document_opened", map[string]any{"pages": d.TotalPages()})
	return Result{Changed: true}, nil
}

func (c *Controller) setPage(req Request) (Result, error) {
	d, err := c.doc()
	if err != nil {
		return Result{}, err
	}
	from := d.CurrentPage()
	n, convErr := strconv.Atoi(strings.TrimSpace(req.Text))
	if convErr != nil || !d.SetCurrentPage(n) {
		c.present.ShowError(OutOfBoundsTitle, OutOfBoundsText)
		return Result{}, fmt.Errorf("%w: page %q", ErrOutOfBounds, req.Text)
	}
	if n != from {
		c.record(from)
	}
	c.pageText = strconv.Itoa(d.CurrentPage())
	c.refresh()
	return Result{Changed: true}, nil
}

func (c *Controller) stepPage(req Request) (Result, error) {
	d, err := c.doc()
	if err != nil {
		return Result{}, nil
	}
	target := d.CurrentPage() + 1
	if req.Step == Previous {
		target = d.CurrentPage() - 1
	}
	if !d.SetCurrentPage(target) {
		return Result{}, nil
	}
	c.pageText = strconv.Itoa(d.CurrentPage())
	c.refresh()
	return Result{Changed: true}, nil
}

func (c *Controller) setScale(req Request) (Result, error) {
	d, err := c.doc()
	if err != nil {
		return Result{}, err
	}
	stripped := strings.TrimSuffix(req.Text, "%")
	c.scaleText = stripped
	n, convErr := strconv.Atoi(strings.TrimSpace(stripped))
	if convErr != nil || !d.SetCurrentScale(n) {
		c.present.ShowError(OutOfBoundsTitle, OutOfBoundsText)
		return Result{}, fmt.Errorf("%w: scale %q", ErrOutOfBounds, req.Text)
	}
	c.refresh()
	c.scaleText = stripped + "%"
	return Result{Changed: true}, nil
}

func (c *Controller) find(req Request) (Result, error) {
	d, err := c.doc()
	if err != nil {
		return Result{}, err
	}
	from := d.CurrentPage()
	found := d.FindPhrase(req.Text, req.Direction)
	telemetry.Event("search", map[string]any{"found": found, "direction": req.Direction.String()})
	if !found {
		c.present.ShowWarning(NotFoundTitle, NotFoundTitle+": "+req.Text)
		return Result{}, &PhraseNotFoundError{Phrase: req.Text}
	}
	if d.CurrentPage() != from {
		c.record(from)
	}
	c.refresh()
	c.pageText = strconv.Itoa(d.CurrentPage())
	return Result{Changed: true}, nil
}

func (c *Controller) dumpText(Request) (Result, error) {
	d, err := c.doc()
	if err != nil {
		return Result{}, err
	}
	text, err := d.Text()
	if err != nil {
		return Result{}, fmt.Errorf("extract text: %w", err)
	}
	c.present.ShowText(PageTextTitle, text)
	return Result{Text: text}, nil
}

func (c *Controller) toggleOutline(req Request) (Result, error) {
	if !req.Enabled {
		if c.panel == nil {
			return Result{}, nil
		}
		c.panel.Close()
		c.panel = nil
		telemetry.Event("outline_toggled", map[string]any{"enabled": false})
		return Result{Changed: true}, nil
	}
	if c.panel != nil {
		c.panel.Close()
	}
	c.panel = NewOutlinePanel()
	c.repopulateOutline()
	c.panel.OnSelected(func(page int) {
		_, _ = c.Dispatch(ActionOutlineSelect, Request{Page: page})
	})
	telemetry.Event("outline_toggled", map[string]any{"enabled": true, "entries": c.panel.Len()})
	return Result{Changed: true}, nil
}

func (c *Controller) outlineSelect(req Request) (Result, error) {
	d, err := c.doc()
	if err != nil {
		return Result{}, err
	}
	from := d.CurrentPage()
	if !d.SetCurrentPage(req.Page) {
		return Result{}, nil
	}
	if req.Page != from {
		c.record(from)
	}
	c.refresh()
	c.pageText = strconv.Itoa(d.CurrentPage())
	return Result{Changed: true}, nil
}

func (c *Controller) rotate(req Request) (Result, error) {
	d, err := c.doc()
	if err != nil {
		return Result{}, err
	}
	d.Rotate(req.Rotation)
	c.refresh()
	return Result{Changed: true}, nil
}

func (c *Controller) exit(Request) (Result, error) {
	err := c.Close()
	c.present.Quit()
	return Result{Quit: true}, err
}

func (c *Controller) newTab(Request) (Result, error) {
	c.tabs = append(c.tabs, newTab(c.hcfg))
	c.active = len(c.tabs) - 1
	c.syncLabels()
	c.repopulateOutline()
	return Result{Changed: true}, nil
}

func (c *Controller) closeTab(req Request) (Result, error) {
	if req.Tab < 0 || req.Tab >= len(c.tabs) {
		return Result{}, fmt.Errorf("%w: tab %d", ErrOutOfBounds, req.Tab)
	}
	err := c.tabs[req.Tab].release()
	c.tabs = slices.Delete(c.tabs, req.Tab, req.Tab+1)
	if len(c.tabs) == 0 {
		c.tabs = []*Tab{newTab(c.hcfg)}
	}
	if c.active > req.Tab || c.active >= len(c.tabs) {
		c.active = max(c.active-1, 0)
	}
	c.syncLabels()
	c.repopulateOutline()
	return Result{Changed: true}, err
}

func (c *Controller) selectTab(req Request) (Result, error) {
	if req.Tab < 0 || req.Tab >= len(c.tabs) {
		return Result{}, fmt.Errorf("%w: tab %d", ErrOutOfBounds, req.Tab)
	}
	c.active = req.Tab
	c.syncLabels()
	c.repopulateOutline()
	return Result{Changed: true}, nil
}

func (c *Controller) about(Request) (Result, error) {
	c.present.ShowInfo(AboutTitle, fmt.Sprintf("%s %s\n%s/%s", AppTitle, version.String(), runtime.GOOS, runtime.GOARCH))
	return Result{}, nil
}

func (c *Controller) back(Request) (Result, error) {
	return c.travel(c.ActiveTab().History().Back)
}

func (c *Controller) forward(Request) (Result, error) {
	return c.travel(c.ActiveTab().History().Forward)
}

func (c *Controller) travel(move func(history.Entry) (history.Entry, bool)) (Result, error) {
	d, err := c.doc()
	if err != nil {
		return Result{}, err
	}
	e, ok := move(history.Entry{Page: d.CurrentPage(), TS: c.now()})
	if !ok || !d.SetCurrentPage(e.Page) {
		return Result{}, nil
	}
	c.refresh()
	c.pageText = strconv.Itoa(d.CurrentPage())
	return Result{Changed: true}, nil
}

func scaleLabel(percent int) string { return strconv.Itoa(percent) + "%" }

type nopPresenter struct{}

func (nopPresenter) ShowError(string, string)   {}
func (nopPresenter) ShowWarning(string, string) {}
func (nopPresenter) ShowInfo(string, string)    {}
func (nopPresenter) ShowText(string, string)    {}
func (nopPresenter) Quit()                      {}
