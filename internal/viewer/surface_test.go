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
	"testing"

	"github.com/stretchr/testify/assert"

	"gopdfviewer/internal/engine"
)

func TestSurfaceBottomEmitsOnce(t *testing.T) {
	s := NewSurface()
	s.SetRange(0, 100)
	var events []bool
	s.OnExtremity(func(top bool) { events = append(events, top) })

	s.Scroll(40)
	assert.Empty(t, events)

	s.Scroll(200) // crosses the maximum
	assert.Equal(t, []bool{false}, events)
	assert.False(t, s.AtTop())
	assert.Equal(t, 100, s.Value())

	s.Scroll(10) // wheel at the bottom again
	assert.Equal(t, []bool{false, false}, events)
}

func TestSurfaceTop(t *testing.T) {
	s := NewSurface()
	s.SetRange(0, 100)
	s.ScrollTo(100)
	var events []bool
	s.OnExtremity(func(top bool) { events = append(events, top) })
	s.Scroll(-500)
	assert.Equal(t, []bool{true}, events)
	assert.True(t, s.AtTop())
}

func TestSurfaceMaxWinsOnEmptyRange(t *testing.T) {
	s := NewSurface()
	s.SetRange(0, 0)
	n := 0
	s.OnExtremity(func(bool) { n++ })
	s.ScrollTo(0)
	assert.Equal(t, 1, n)
	assert.False(t, s.AtTop())
}

func TestSurfaceSetRangeClamps(t *testing.T) {
	s := NewSurface()
	s.SetRange(0, 300)
	s.ScrollTo(250)
	n := 0
	s.OnExtremity(func(bool) { n++ })
	s.SetRange(0, 100)
	assert.Equal(t, 100, s.Value())
	assert.Equal(t, 0, n)
}

func TestExtremityDoesNotTurnPages(t *testing.T) {
	f := newFixture(t)
	f.openA(t)
	s := f.c.ActiveTab().Surface()
	s.SetRange(0, 50)
	s.Scroll(100)
	s.Scroll(-100)
	assert.Equal(t, "1", f.c.State().PageText)
}

func TestOutlinePanelTree(t *testing.T) {
	p := NewOutlinePanel()
	p.Populate([]engine.OutlineEntry{
		{Title: "A", Level: 1, Page: 1},
		{Title: "A.1", Level: 2, Page: 2},
		{Title: "A.1.a", Level: 4, Page: 2}, // skipped level is pulled up
		{Title: "B", Level: 1, Page: 3},
	})
	assert.Equal(t, []int{0, 3}, p.Children(-1))
	assert.Equal(t, []int{1}, p.Children(0))
	assert.Equal(t, []int{2}, p.Children(1))
	assert.Equal(t, 3, p.Items()[2].Level)

	var got []int
	p.OnSelected(func(page int) { got = append(got, page) })
	assert.True(t, p.Select(3))
	assert.False(t, p.Select(9))
	assert.Equal(t, []int{3}, got)
}
