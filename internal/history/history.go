/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history keeps a browser-style back/forward list of visited pages
// for one open document.
package history

import (
	"sync"
	"time"
)

// Entry is a visited position.
type Entry struct {
	Page int
	TS   time.Time
}

// Config controls depth caps and coalescing behavior.
type Config struct {
	// MaxEntries limits the back list; the oldest entries are dropped first (0 means 100).
	MaxEntries int
	// MinInterval coalesces jumps recorded within the interval of the previous one,
	// so a burst of jumps (repeated find) is revisited as a single step.
	MinInterval time.Duration
}

// History is safe for concurrent use.
type History struct {
	cfg     Config
	mu      sync.Mutex
	back    []Entry
	forward []Entry
}

func New(cfg Config) *History {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &History{cfg: cfg}
}

// Record notes that the viewer is leaving from for another page. A jump within
// MinInterval of the previous record keeps the earlier entry. Any new jump
// clears the forward list.
func (h *History) Record(from Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forward = nil
	if n := len(h.back); n > 0 {
		last := h.back[n-1]
		if from.TS.Sub(last.TS) < h.cfg.MinInterval {
			return
		}
		if last.Page == from.Page {
			h.back[n-1] = from
			return
		}
	}
	h.back = append(h.back, from)
	if extra := len(h.back) - h.cfg.MaxEntries; extra > 0 {
		h.back = append([]Entry(nil), h.back[extra:]...)
	}
}

// Back returns the previous position and remembers current for Forward.
func (h *History) Back(current Entry) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.back) == 0 {
		return Entry{}, false
	}
	e := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	h.forward = append(h.forward, current)
	return e, true
}

// Forward undoes a Back.
func (h *History) Forward(current Entry) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.forward) == 0 {
		return Entry{}, false
	}
	e := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]
	h.back = append(h.back, current)
	return e, true
}

// Clear drops both lists, e.g. when another document is opened.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.back, h.forward = nil, nil
}

// Len returns the sizes of the back and forward lists.
func (h *History) Len() (back, forward int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.back), len(h.forward)
}
