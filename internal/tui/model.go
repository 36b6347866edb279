/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package tui is a terminal front-end for the viewer. It shows the extracted
// text of the current page and drives the same controller as the desktop UI.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gopdfviewer/internal/config"
	"gopdfviewer/internal/crash"
	"gopdfviewer/internal/engine"
	applog "gopdfviewer/internal/log"
	"gopdfviewer/internal/viewer"
)

const outlineWidth = 32

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	outlineStyle = lipgloss.NewStyle().Width(outlineWidth).BorderStyle(lipgloss.NormalBorder()).BorderRight(true)
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	labelStyle   = lipgloss.NewStyle().MaxWidth(outlineWidth - 1)
	helpText     = "n/p page  g goto  +/- zoom  / ? find  r/R rotate  [ ] history  o outline  t text  a about  q quit"
)

type mode int

const (
	modeView mode = iota
	modeGoto
	modeFind
	modeFindBack
)

// Run opens path and runs the terminal viewer until the user quits.
func Run(path string, cfg config.AppConfig) error {
	m := New(cfg, nil)
	defer crash.Recover(m.ctrl.OpenPaths)
	if path != "" {
		m.dispatch(viewer.ActionOpen, viewer.Request{Path: path})
		if !m.ctrl.ActiveTab().Loaded() {
			return fmt.Errorf("open %s: %s", path, m.ui.msg)
		}
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if cerr := m.ctrl.Close(); err == nil {
		err = cerr
	}
	return err
}

// Model is the bubbletea model of the terminal viewer.
type Model struct {
	ctrl  *viewer.Controller
	ui    *presenter
	vp    viewport.Model
	input textinput.Model
	mode  mode
	log   *slog.Logger

	cursor   int
	shown    int // page currently in the viewport
	dumping  bool
	nextKey  string
	prevKey  string
	width    int
	height   int
	quitting bool
}

// New creates a model. A nil open uses the engine configured by cfg.
func New(cfg config.AppConfig, open viewer.Opener) *Model {
	ui := &presenter{}
	opts := viewer.Configure(cfg, ui)
	if open != nil {
		opts.Open = open
	}
	in := textinput.New()
	in.CharLimit = 200
	in.Width = 40
	m := &Model{
		ctrl:    viewer.NewController(opts),
		ui:      ui,
		vp:      viewport.New(80, 20),
		input:   in,
		log:     applog.WithComponent("tui"),
		nextKey: strings.ToLower(cfg.Viewer.NextPageKey),
		prevKey: strings.ToLower(cfg.Viewer.PrevPageKey),
		width:   80,
		height:  24,
	}
	m.vp.MouseWheelEnabled = true
	m.ctrl.ActiveTab().Surface().OnExtremity(func(top bool) {
		m.log.Debug("page edge reached", slog.Bool("top", top))
	})
	return m
}

// Controller exposes the controller driven by the model.
func (m *Model) Controller() *viewer.Controller { return m.ctrl }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		m.feedSurface()
		return m, cmd
	case tea.KeyMsg:
		if m.mode != modeView {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		m.dispatch(viewer.ActionExit, viewer.Request{})
		m.quitting = true
		return m, tea.Quit
	case "n", m.nextKey:
		m.dispatch(viewer.ActionStepPage, viewer.Request{Step: viewer.Next})
	case "p", m.prevKey:
		m.dispatch(viewer.ActionStepPage, viewer.Request{Step: viewer.Previous})
	case "g":
		return m, m.prompt(modeGoto, "page")
	case "/":
		return m, m.prompt(modeFind, "find forward")
	case "?":
		return m, m.prompt(modeFindBack, "find backward")
	case "+", "=":
		m.dispatch(viewer.ActionSetScale, viewer.Request{Text: m.stepScale(1)})
	case "-":
		m.dispatch(viewer.ActionSetScale, viewer.Request{Text: m.stepScale(-1)})
	case "r":
		m.dispatch(viewer.ActionRotate, viewer.Request{Rotation: engine.Clockwise})
	case "R":
		m.dispatch(viewer.ActionRotate, viewer.Request{Rotation: engine.CounterClockwise})
	case "[":
		m.dispatch(viewer.ActionBack, viewer.Request{})
	case "]":
		m.dispatch(viewer.ActionForward, viewer.Request{})
	case "o":
		m.dispatch(viewer.ActionToggleOutline, viewer.Request{Enabled: !m.ctrl.State().OutlineOpen})
		m.cursor = 0
		m.layout()
	case "t":
		m.dispatch(viewer.ActionDumpText, viewer.Request{})
	case "a":
		m.dispatch(viewer.ActionAbout, viewer.Request{})
	case "esc":
		if m.dumping {
			m.dumping = false
			m.shown = 0
			m.sync()
		}
	case "j", "k", "enter":
		if p := m.ctrl.Outline(); p != nil && p.Len() > 0 {
			switch key {
			case "j":
				m.cursor = min(m.cursor+1, p.Len()-1)
			case "k":
				m.cursor = max(m.cursor-1, 0)
			default:
				if p.Select(m.cursor) {
					m.sync()
				}
			}
		}
	default:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		m.feedSurface()
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeView
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		text := m.input.Value()
		md := m.mode
		m.mode = modeView
		m.input.Blur()
		switch md {
		case modeGoto:
			m.dispatch(viewer.ActionSetPage, viewer.Request{Text: text})
		case modeFind:
			m.dispatch(viewer.ActionFind, viewer.Request{Text: text, Direction: engine.Forward})
		case modeFindBack:
			m.dispatch(viewer.ActionFind, viewer.Request{Text: text, Direction: engine.Backward})
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) prompt(md mode, placeholder string) tea.Cmd {
	m.mode = md
	m.input.Reset()
	m.input.Placeholder = placeholder
	if md != modeGoto {
		m.input.SetValue(m.ui.lastQuery)
		m.input.CursorEnd()
	}
	return m.input.Focus()
}

// dispatch runs an action and refreshes the viewport.
func (m *Model) dispatch(a viewer.Action, req viewer.Request) {
	m.ui.clear()
	if a == viewer.ActionFind {
		m.ui.lastQuery = req.Text
	}
	_, err := m.ctrl.Dispatch(a, req)
	if errors.Is(err, viewer.ErrNoDocument) {
		m.ui.ShowWarning("", "No PDF loaded")
	}
	if m.ui.text != "" {
		m.dumping = true
		m.vp.SetContent(m.ui.text)
		m.vp.GotoTop()
		m.ui.text = ""
		return
	}
	m.sync()
}

// sync loads the current page text when the page changed.
func (m *Model) sync() {
	if m.dumping {
		return
	}
	doc := m.ctrl.ActiveTab().Document()
	if doc == nil {
		m.shown = 0
		m.vp.SetContent("")
		m.feedSurface()
		return
	}
	if doc.CurrentPage() == m.shown {
		return
	}
	m.shown = doc.CurrentPage()
	text, err := doc.PageText(m.shown)
	if err != nil {
		m.log.Warn("page text unavailable", slog.Int("page", m.shown), slog.Any("err", err))
		text = ""
	}
	m.vp.SetContent(text)
	m.vp.GotoTop()
	m.feedSurface()
}

// feedSurface reports the viewport position to the page surface model.
func (m *Model) feedSurface() {
	s := m.ctrl.ActiveTab().Surface()
	s.SetRange(0, max(m.vp.TotalLineCount()-m.vp.Height, 0))
	s.ScrollTo(m.vp.YOffset)
}

// stepScale returns the preset next to the current scale in direction dir.
func (m *Model) stepScale(dir int) string {
	choices := m.ctrl.ScaleChoices()
	cur, err := strconv.Atoi(strings.TrimSuffix(m.ctrl.State().ScaleText, "%"))
	if err != nil || len(choices) == 0 {
		return m.ctrl.State().ScaleText
	}
	if dir > 0 {
		for _, c := range choices {
			if v, _ := strconv.Atoi(strings.TrimSuffix(c, "%")); v > cur {
				return c
			}
		}
		return choices[len(choices)-1]
	}
	for i := len(choices) - 1; i >= 0; i-- {
		if v, _ := strconv.Atoi(strings.TrimSuffix(choices[i], "%")); v < cur {
			return choices[i]
		}
	}
	return choices[0]
}

func (m *Model) layout() {
	w := m.width
	if m.ctrl.State().OutlineOpen {
		w -= outlineWidth + 1
	}
	m.vp.Width = max(w, 10)
	m.vp.Height = max(m.height-3, 1)
	m.feedSurface()
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.ctrl.State()
	header := titleStyle.Render(s.WindowTitle)

	body := m.vp.View()
	if p := m.ctrl.Outline(); p != nil {
		var b strings.Builder
		for i, it := range p.Items() {
			line := labelStyle.Render(strings.Repeat("  ", it.Level-1) + it.Label)
			if i == m.cursor {
				line = cursorStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, outlineStyle.Height(m.vp.Height).Render(b.String()), body)
	}

	status := fmt.Sprintf("Page: %s%s Scale: %s", s.PageText, s.TotalText, s.ScaleText)
	if m.dumping {
		status += " [text dump, esc to return]"
	}
	switch m.ui.level {
	case levelError:
		status += "  " + errorStyle.Render(m.ui.msg)
	case levelWarn:
		status += "  " + warnStyle.Render(m.ui.msg)
	case levelInfo:
		status += "  " + m.ui.msg
	}

	footer := statusStyle.Render(helpText)
	if m.mode != modeView {
		footer = m.input.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusStyle.Render(status), footer)
}
