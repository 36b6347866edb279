/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"testing"
	"time"
)

func at(page int, t0 time.Time, ms int) Entry {
	return Entry{Page: page, TS: t0.Add(time.Duration(ms) * time.Millisecond)}
}

func TestBackForwardBasic(t *testing.T) {
	h := New(Config{MinInterval: 10 * time.Millisecond})
	t0 := time.Now()
	h.Record(at(1, t0, 0))  // 1 -> 5
	h.Record(at(5, t0, 50)) // 5 -> 9

	e, ok := h.Back(at(9, t0, 100))
	if !ok || e.Page != 5 {
		t.Fatalf("back expected page 5, got ok=%v page=%d", ok, e.Page)
	}
	e, ok = h.Back(at(5, t0, 110))
	if !ok || e.Page != 1 {
		t.Fatalf("back expected page 1, got ok=%v page=%d", ok, e.Page)
	}
	if _, ok := h.Back(at(1, t0, 120)); ok {
		t.Fatalf("back past the start must fail")
	}
	e, ok = h.Forward(at(1, t0, 130))
	if !ok || e.Page != 5 {
		t.Fatalf("forward expected page 5, got ok=%v page=%d", ok, e.Page)
	}
	e, ok = h.Forward(at(5, t0, 140))
	if !ok || e.Page != 9 {
		t.Fatalf("forward expected page 9, got ok=%v page=%d", ok, e.Page)
	}
	if _, ok := h.Forward(at(9, t0, 150)); ok {
		t.Fatalf("forward past the end must fail")
	}
}

func TestRecordClearsForward(t *testing.T) {
	h := New(Config{})
	t0 := time.Now()
	h.Record(at(1, t0, 0))
	h.Back(at(2, t0, 10))
	if _, f := h.Len(); f != 1 {
		t.Fatalf("expected 1 forward entry, got %d", f)
	}
	h.Record(at(1, t0, 20))
	if b, f := h.Len(); b != 1 || f != 0 {
		t.Fatalf("expected back=1 forward=0, got back=%d forward=%d", b, f)
	}
}

func TestCoalesceKeepsBurstOrigin(t *testing.T) {
	h := New(Config{MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	h.Record(at(1, t0, 0))
	h.Record(at(2, t0, 10))
	h.Record(at(3, t0, 20))
	if b, _ := h.Len(); b != 1 {
		t.Fatalf("expected burst coalesced to 1 entry, got %d", b)
	}
	e, _ := h.Back(at(4, t0, 30))
	if e.Page != 1 {
		t.Fatalf("expected burst origin page 1, got %d", e.Page)
	}
}

func TestSamePageReplaced(t *testing.T) {
	h := New(Config{})
	t0 := time.Now()
	h.Record(at(3, t0, 0))
	h.Record(at(3, t0, 10))
	if b, _ := h.Len(); b != 1 {
		t.Fatalf("expected 1 entry, got %d", b)
	}
}

func TestCapAndClear(t *testing.T) {
	h := New(Config{MaxEntries: 3})
	t0 := time.Now()
	for i := 1; i <= 10; i++ {
		h.Record(at(i, t0, i))
	}
	if b, _ := h.Len(); b != 3 {
		t.Fatalf("expected cap of 3, got %d", b)
	}
	e, _ := h.Back(at(11, t0, 20))
	if e.Page != 10 {
		t.Fatalf("expected newest entry kept, got page %d", e.Page)
	}
	h.Clear()
	if b, f := h.Len(); b != 0 || f != 0 {
		t.Fatalf("expected empty after clear, got back=%d forward=%d", b, f)
	}
}
