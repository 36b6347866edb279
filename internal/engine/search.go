/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package engine

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// Match locates a phrase hit as byte offsets into a page's extracted text.
type Match struct {
	Page       int
	Start, End int
}

type searcher struct {
	m *search.Matcher
	// cursor of the previous hit; valid only while the phrase and page are unchanged
	phrase string
	last   Match
	valid  bool
}

func newSearcher(caseSensitive bool) *searcher {
	if caseSensitive {
		return &searcher{m: search.New(language.Und)}
	}
	return &searcher{m: search.New(language.Und, search.IgnoreCase, search.IgnoreWidth)}
}

// FindPhrase moves to the next (Forward) or previous (Backward) occurrence of
// phrase, starting from the previous hit when the phrase and page are unchanged,
// otherwise from the start (or end) of the current page. Search does not wrap.
// On a miss the current page and cursor stay as they were.
func (e *Engine) FindPhrase(phrase string, dir Direction) bool {
	if e.closed || strings.TrimSpace(phrase) == "" {
		return false
	}
	s := e.search
	resume := s.valid && s.phrase == phrase && s.last.Page == e.page
	pat := s.m.CompileString(phrase)
	indexFrom := func(text string, from int) (int, int) {
		for from <= len(text) {
			i, j := pat.IndexString(text[from:])
			if i < 0 {
				return -1, -1
			}
			if j > i {
				return from + i, from + j
			}
			from += i + 1
		}
		return -1, -1
	}

	var hit Match
	found := false
	if dir == Forward {
		for p := e.page; p <= e.TotalPages() && !found; p++ {
			text := e.searchText(p)
			from := 0
			if resume && p == e.page {
				from = s.last.End
			}
			if i, j := indexFrom(text, from); i >= 0 {
				hit, found = Match{Page: p, Start: i, End: j}, true
			}
		}
	} else {
		for p := e.page; p >= 1 && !found; p-- {
			text := e.searchText(p)
			limit := len(text)
			if resume && p == e.page {
				limit = s.last.Start
			}
			for from := 0; ; {
				i, j := indexFrom(text, from)
				if i < 0 || i >= limit {
					break
				}
				hit, found = Match{Page: p, Start: i, End: j}, true
				_, size := utf8.DecodeRuneInString(text[i:])
				from = i + max(size, 1)
			}
		}
	}
	e.log.Debug("find phrase", slog.String("dir", dir.String()), slog.Bool("found", found), slog.Int("page", hit.Page))
	if !found {
		return false
	}
	s.phrase, s.last, s.valid = phrase, hit, true
	e.page = hit.Page
	return true
}

// LastMatch returns the most recent hit, if it is on the current page.
func (e *Engine) LastMatch() (Match, bool) {
	s := e.search
	if !s.valid || s.last.Page != e.page {
		return Match{}, false
	}
	return s.last, true
}

func (e *Engine) searchText(page int) string {
	t, err := e.PageText(page)
	if err != nil {
		e.log.Warn("search skips page", slog.Int("page", page), slog.Any("err", err))
		return ""
	}
	return t
}
