/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// ExportPNGPages writes each selected page as <name>-page-<n>.png under outDir
// and returns the written paths.
func ExportPNGPages(doc Document, outDir string, opt Options) ([]string, error) {
	if err := ensureDir(outDir); err != nil {
		return nil, err
	}
	name := baseName(doc)
	var written []string
	for _, n := range pageNumbers(doc.TotalPages(), opt.Pages) {
		img, err := doc.RenderPage(n, opt.scale())
		if err != nil {
			return written, err
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s-page-%d.png", name, n))
		if err := WritePNG(path, img); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

func encodePNG(buf *bytes.Buffer, img image.Image) error {
	buf.Reset()
	if err := png.Encode(buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
