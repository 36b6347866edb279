/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package viewer

import (
	"path/filepath"

	"gopdfviewer/internal/history"
)

// PlaceholderTitle is the title of a tab without a document.
const PlaceholderTitle = "No PDF loaded"

// Tab is one document slot. doc is nil if and only if no document is open.
type Tab struct {
	doc     Document
	title   string
	path    string
	surface *Surface
	history *history.History
}

func newTab(hcfg history.Config) *Tab {
	return &Tab{title: PlaceholderTitle, surface: NewSurface(), history: history.New(hcfg)}
}

func (t *Tab) Title() string             { return t.title }
func (t *Tab) Path() string              { return t.path }
func (t *Tab) Document() Document        { return t.doc }
func (t *Tab) Surface() *Surface         { return t.surface }
func (t *Tab) Loaded() bool              { return t.doc != nil }
func (t *Tab) History() *history.History { return t.history }

// Refresh re-renders the current page at the current scale and rotation into the surface.
func (t *Tab) Refresh() error {
	if t.doc == nil {
		t.surface.SetContent(nil)
		return nil
	}
	img, err := t.doc.Render()
	if err != nil {
		return err
	}
	t.surface.SetContent(img)
	return nil
}

func (t *Tab) attach(doc Document, path string) {
	t.doc, t.path, t.title = doc, path, filepath.Base(path)
}

// release closes the handle and turns the tab back into a placeholder.
func (t *Tab) release() error {
	if t.doc == nil {
		return nil
	}
	err := t.doc.Close()
	t.doc, t.path, t.title = nil, "", PlaceholderTitle
	t.history.Clear()
	t.surface.SetContent(nil)
	return err
}
