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

import "gopdfviewer/internal/engine"

// OutlineItem is one line of the navigation outline.
type OutlineItem struct {
	Label string
	Level int
	// Page is the 1-based target; 0 when the entry has no resolvable target.
	Page int
}

// OutlinePanel holds the outline of the active document and emits the target
// page of the entry the user selects.
type OutlinePanel struct {
	items      []OutlineItem
	parents    []int
	onSelected []func(page int)
	closed     bool
}

func NewOutlinePanel() *OutlinePanel { return &OutlinePanel{} }

// Populate replaces the items. Levels are normalized so that every item is at
// most one level below its predecessor.
func (p *OutlinePanel) Populate(entries []engine.OutlineEntry) {
	p.items = make([]OutlineItem, 0, len(entries))
	p.parents = make([]int, 0, len(entries))
	var stack []int // indexes of the open ancestors
	for _, e := range entries {
		level := max(e.Level, 1)
		if level > len(stack)+1 {
			level = len(stack) + 1
		}
		stack = stack[:level-1]
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		p.parents = append(p.parents, parent)
		p.items = append(p.items, OutlineItem{Label: e.Title, Level: level, Page: e.Page})
		stack = append(stack, len(p.items)-1)
	}
}

func (p *OutlinePanel) Items() []OutlineItem { return append([]OutlineItem(nil), p.items...) }

func (p *OutlinePanel) Len() int { return len(p.items) }

// Children returns the indexes of the direct children of item i; -1 selects the roots.
func (p *OutlinePanel) Children(i int) []int {
	var out []int
	for k, parent := range p.parents {
		if parent == i {
			out = append(out, k)
		}
	}
	return out
}

// OnSelected subscribes fn to selections.
func (p *OutlinePanel) OnSelected(fn func(page int)) { p.onSelected = append(p.onSelected, fn) }

// Select emits the target page of item i. It reports false for an unknown
// index, an unresolved target or a closed panel.
func (p *OutlinePanel) Select(i int) bool {
	if p.closed || i < 0 || i >= len(p.items) || p.items[i].Page < 1 {
		return false
	}
	for _, fn := range p.onSelected {
		fn(p.items[i].Page)
	}
	return true
}

// Close drops the items and the subscribers.
func (p *OutlinePanel) Close() {
	p.closed = true
	p.items, p.parents, p.onSelected = nil, nil, nil
}
