//go:build cgo

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
	"errors"
	"image"
	"strings"

	fitz "github.com/gen2brain/go-fitz"
)

func init() { register("mupdf", 100, openFitz) }

// fitzSource renders and extracts through MuPDF.
type fitzSource struct {
	doc *fitz.Document
}

func openFitz(path string) (Source, error) {
	doc, err := fitz.New(path)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, ErrNeedsPassword
		}
		return nil, err
	}
	return &fitzSource{doc: doc}, nil
}

func (s *fitzSource) NumPages() int { return s.doc.NumPage() }

func (s *fitzSource) PageText(i int) (string, error) { return s.doc.Text(i) }

func (s *fitzSource) RenderPage(i int, dpi float64) (image.Image, error) {
	return s.doc.ImageDPI(i, dpi)
}

func (s *fitzSource) Outline() ([]OutlineEntry, error) {
	toc, err := s.doc.ToC()
	if err != nil {
		// MuPDF reports a missing outline as a load failure
		if errors.Is(err, fitz.ErrLoadOutline) {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]OutlineEntry, 0, len(toc))
	for _, t := range toc {
		page := t.Page + 1
		if t.Page < 0 {
			page = 0
		}
		entries = append(entries, OutlineEntry{Title: strings.TrimSpace(t.Title), Level: t.Level, Page: page})
	}
	return entries, nil
}

func (s *fitzSource) Metadata() map[string]string {
	out := map[string]string{}
	for k, v := range s.doc.Metadata() {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

func (s *fitzSource) Close() error { return s.doc.Close() }
