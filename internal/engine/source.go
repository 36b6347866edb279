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
	"fmt"
	"image"
	"sort"
	"strings"
)

// Source is the PDF library behind an Engine. Page indexes are 0-based.
type Source interface {
	NumPages() int
	PageText(i int) (string, error)
	RenderPage(i int, dpi float64) (image.Image, error)
	// Outline returns the table of contents in document order, 1-based pages.
	Outline() ([]OutlineEntry, error)
	Close() error
}

// OutlineEntry is one table-of-contents line. Level starts at 1 for top-level
// items. Page is 1-based; 0 means the target could not be resolved.
type OutlineEntry struct {
	Title string
	Level int
	Page  int
}

type opener func(path string) (Source, error)

type backend struct {
	name     string
	priority int
	open     opener
}

var backends = map[string]backend{}

// register makes a source available to Open. Higher priority wins when
// Options.Backend is empty.
func register(name string, priority int, open opener) {
	backends[name] = backend{name: name, priority: priority, open: open}
}

// Backends lists the registered backend names, best first.
func Backends() []string {
	list := make([]backend, 0, len(backends))
	for _, b := range backends {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].priority > list[j].priority })
	names := make([]string, len(list))
	for i, b := range list {
		names[i] = b.name
	}
	return names
}

func backendFor(name string) (opener, string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		names := Backends()
		if len(names) == 0 {
			return nil, "", ErrUnknownBackend
		}
		name = names[0]
	}
	b, ok := backends[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b.open, b.name, nil
}
