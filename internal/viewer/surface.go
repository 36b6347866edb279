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

import "image"

// Surface is the scroll model of a rendered page. Front-ends feed it the
// vertical scroll position after every scroll input; it records whether the
// last edge reached was the top or the bottom and emits an extremity event.
// Nothing in the viewer turns pages on that event; it is a hook for front-ends.
type Surface struct {
	value, min, max int
	top             bool
	content         image.Image
	onExtremity     []func(top bool)
	onContent       []func(image.Image)
}

func NewSurface() *Surface { return &Surface{} }

// SetRange updates the scroll bounds, e.g. after the content or viewport was resized.
// The value is clamped into the new range without emitting events.
func (s *Surface) SetRange(min, max int) {
	if max < min {
		max = min
	}
	s.min, s.max = min, max
	s.value = clamp(s.value, min, max)
}

// Range returns the scroll bounds.
func (s *Surface) Range() (min, max int) { return s.min, s.max }

// Value returns the scroll position.
func (s *Surface) Value() int { return s.value }

// Scroll applies a relative scroll input.
func (s *Surface) Scroll(delta int) { s.ScrollTo(s.value + delta) }

// ScrollTo applies an absolute scroll input. After clamping, reaching the
// maximum marks the bottom, otherwise reaching the minimum marks the top;
// either emits exactly one extremity event.
func (s *Surface) ScrollTo(value int) {
	s.value = clamp(value, s.min, s.max)
	switch s.value {
	case s.max:
		s.top = false
	case s.min:
		s.top = true
	default:
		return
	}
	for _, fn := range s.onExtremity {
		fn(s.top)
	}
}

// AtTop reports the last extremity reached: true for the top, false for the bottom.
func (s *Surface) AtTop() bool { return s.top }

// OnExtremity subscribes fn to extremity events.
func (s *Surface) OnExtremity(fn func(top bool)) { s.onExtremity = append(s.onExtremity, fn) }

// SetContent replaces the rendered page; nil clears it.
func (s *Surface) SetContent(img image.Image) {
	s.content = img
	for _, fn := range s.onContent {
		fn(img)
	}
}

func (s *Surface) Content() image.Image { return s.content }

// OnContent subscribes fn to content changes.
func (s *Surface) OnContent(fn func(image.Image)) { s.onContent = append(s.onContent, fn) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
