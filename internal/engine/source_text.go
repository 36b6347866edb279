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
	"fmt"
	"image"
	"image/draw"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func init() { register("text", 10, openText) }

// textSource is the pure-Go backend. It reads the text layer with
// ledongthuc/pdf and renders pages as plain-text previews, so it works in
// builds without cgo where MuPDF is unavailable.
type textSource struct {
	f *os.File
	r *pdf.Reader
}

func openText(path string) (Source, error) {
	f, r, err := openPDF(path)
	if err != nil {
		return nil, err
	}
	return &textSource{f: f, r: r}, nil
}

// openPDF converts the panics ledongthuc/pdf raises on malformed input into errors.
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			if f != nil {
				_ = f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	f, r, err = pdf.Open(path)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, nil, ErrNeedsPassword
		}
		return nil, nil, err
	}
	return f, r, nil
}

func (s *textSource) NumPages() int { return s.r.NumPage() }

// PageText extracts the text layer; GetPlainText resolves the page fonts itself.
func (s *textSource) PageText(i int) (string, error) {
	p := s.r.Page(i + 1)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d missing", i+1)
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", i+1, err)
	}
	return text, nil
}

// RenderPage draws the page text onto a white page of the page's media size.
func (s *textSource) RenderPage(i int, dpi float64) (image.Image, error) {
	p := s.r.Page(i + 1)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d missing", i+1)
	}
	wPt, hPt := mediaSize(p.V)
	w, h := int(wPt*dpi/72+0.5), int(hPt*dpi/72+0.5)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("page %d has empty media box", i+1)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	text, err := s.PageText(i)
	if err != nil {
		return img, nil
	}
	face := basicfont.Face7x13
	margin := int(36 * dpi / 72)
	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
	cols := (w - 2*margin) / face.Advance
	lineH := face.Height + 2
	y := margin + face.Ascent
	for _, line := range wrap(text, cols) {
		if y > h-margin {
			break
		}
		d.Dot = fixed.P(margin, y)
		d.DrawString(line)
		y += lineH
	}
	return img, nil
}

func mediaSize(v pdf.Value) (float64, float64) {
	// MediaBox is inheritable from the page tree
	for node, depth := v, 0; !node.IsNull() && depth < 32; node, depth = node.Key("Parent"), depth+1 {
		box := node.Key("MediaBox")
		if box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
	}
	return 612, 792
}

// wrap splits text into lines of at most cols runes, breaking at spaces when possible.
func wrap(text string, cols int) []string {
	if cols < 1 {
		cols = 1
	}
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		for utf8.RuneCountInString(para) > cols {
			cut := byteOffset(para, cols)
			if sp := strings.LastIndexByte(para[:cut], ' '); sp > 0 {
				cut = sp
			}
			out = append(out, para[:cut])
			para = strings.TrimLeft(para[cut:], " ")
		}
		out = append(out, para)
	}
	return out
}

func byteOffset(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(s)
}

// Outline resolves each title to the first page, at or after the previous
// entry's page, whose text contains it; the PDF outline as read here carries no
// destinations.
func (s *textSource) Outline() ([]OutlineEntry, error) {
	root, err := s.readOutline()
	if err != nil {
		return nil, err
	}
	var entries []OutlineEntry
	var walk func(o pdf.Outline, level int)
	walk = func(o pdf.Outline, level int) {
		for _, c := range o.Child {
			entries = append(entries, OutlineEntry{Title: strings.TrimSpace(c.Title), Level: level})
			walk(c, level+1)
		}
	}
	walk(root, 1)

	n := s.NumPages()
	texts := make([]string, n)
	for i := range texts {
		t, _ := s.PageText(i)
		texts[i] = strings.ToLower(strings.Join(strings.Fields(t), " "))
	}
	from := 0
	for k := range entries {
		title := strings.ToLower(strings.Join(strings.Fields(entries[k].Title), " "))
		if title == "" {
			continue
		}
		for i := from; i < n; i++ {
			if strings.Contains(texts[i], title) {
				entries[k].Page = i + 1
				from = i
				break
			}
		}
	}
	return entries, nil
}

func (s *textSource) readOutline() (o pdf.Outline, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read outline: %v", r)
		}
	}()
	return s.r.Outline(), nil
}

// Metadata returns the document information dictionary entries that are set.
func (s *textSource) Metadata() map[string]string {
	info := s.r.Trailer().Key("Info")
	out := map[string]string{}
	for _, k := range []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"} {
		if v := strings.TrimSpace(info.Key(k).Text()); v != "" {
			out[strings.ToLower(k)] = v
		}
	}
	return out
}

func (s *textSource) Close() error {
	if s.f == nil {
		return errors.New("text source already closed")
	}
	err := s.f.Close()
	s.f = nil
	return err
}
