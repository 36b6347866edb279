/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tui

import "strings"

type level int

const (
	levelNone level = iota
	levelInfo
	levelWarn
	levelError
)

// presenter turns controller dialogs into a status line message.
type presenter struct {
	msg       string
	level     level
	text      string
	lastQuery string
	quit      bool
}

func (p *presenter) clear() { p.msg, p.level = "", levelNone }

func (p *presenter) ShowError(title, message string) {
	p.msg, p.level = title+": "+message, levelError
}

func (p *presenter) ShowWarning(_, message string) {
	p.msg, p.level = message, levelWarn
}

func (p *presenter) ShowInfo(_, message string) {
	p.msg, p.level = strings.ReplaceAll(message, "\n", " "), levelInfo
}

func (p *presenter) ShowText(_, text string) { p.text = text }

func (p *presenter) Quit() { p.quit = true }
