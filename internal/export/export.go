/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes rasterized pages of an open document to PNG files, a
// CBZ archive or an image-only PDF.
package export

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// Document is the part of an open document the exporters need.
type Document interface {
	Path() string
	TotalPages() int
	// RenderPage rasterizes page n (1-based) at scale percent with its rotation.
	RenderPage(n, scale int) (image.Image, error)
}

// Format names an output kind.
type Format string

const (
	FormatPNG Format = "png"
	FormatCBZ Format = "cbz"
	FormatPDF Format = "pdf"
)

// Preset names a raster scale for screen or print output.
type Preset string

const (
	PresetWeb   Preset = "web"
	PresetPrint Preset = "print"
)

// ErrUnknownFormat is returned for an output that maps to no exporter.
var ErrUnknownFormat = errors.New("unknown export format")

// Options controls every exporter.
//   - Scale: raster scale in percent, 100 = 72 dpi. Zero means 100.
//   - Pages: 1-based page numbers; empty exports all pages. Out-of-range entries are skipped.
type Options struct {
	Scale int
	Pages []int
}

// PresetOptions returns the defaults of a named preset; unknown names get the web preset.
func PresetOptions(p Preset) Options {
	if p == PresetPrint {
		return Options{Scale: 300}
	}
	return Options{Scale: 100}
}

// FormatFor infers the format from out: a .cbz or .pdf file, otherwise a PNG directory.
func FormatFor(out string) Format {
	switch strings.ToLower(filepath.Ext(out)) {
	case ".cbz":
		return FormatCBZ
	case ".pdf":
		return FormatPDF
	case ".png":
		return FormatPNG
	case "":
		return FormatPNG
	}
	return ""
}

// Export writes doc to out in format f. An empty f is inferred from out.
func Export(doc Document, out string, f Format, opt Options) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}
	if f == "" {
		f = FormatFor(out)
	}
	switch f {
	case FormatPNG:
		_, err := ExportPNGPages(doc, out, opt)
		return err
	case FormatCBZ:
		return ExportCBZ(doc, out, opt)
	case FormatPDF:
		return ExportPDF(doc, out, opt)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, out)
}

func pageNumbers(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	out := make([]int, 0, len(specific))
	for _, n := range specific {
		if n >= 1 && n <= total {
			out = append(out, n)
		}
	}
	return out
}

func (o Options) scale() int {
	if o.Scale <= 0 {
		return 100
	}
	return o.Scale
}

// baseName is the document file name without extension, used for output names.
func baseName(doc Document) string {
	b := filepath.Base(doc.Path())
	b = strings.TrimSuffix(b, filepath.Ext(b))
	if b == "" || b == "." || b == string(filepath.Separator) {
		return "document"
	}
	return b
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}
