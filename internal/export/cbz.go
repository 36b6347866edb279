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
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// comicInfo is the ComicInfo.xml manifest most CBZ readers understand.
type comicInfo struct {
	XMLName   xml.Name `xml:"ComicInfo"`
	Title     string   `xml:"Title,omitempty"`
	Writer    string   `xml:"Writer,omitempty"`
	PageCount int      `xml:"PageCount"`
	Notes     string   `xml:"Notes,omitempty"`
}

// ExportCBZ packages the selected pages as PNG images into a CBZ (ZIP) archive
// with a ComicInfo.xml manifest.
func ExportCBZ(doc Document, outPath string, opt Options) error {
	pages := pageNumbers(doc.TotalPages(), opt.Pages)
	if err := ensureDir(filepath.Dir(outPath)); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create cbz: %w", err)
	}
	defer func() { _ = f.Close() }()
	zw := zip.NewWriter(f)

	pad := len(strconv.Itoa(len(pages)))
	var buf bytes.Buffer
	for i, n := range pages {
		img, err := doc.RenderPage(n, opt.scale())
		if err != nil {
			return err
		}
		if err := encodePNG(&buf, img); err != nil {
			return err
		}
		// PNG is already deflated
		if err := addZipFile(zw, fmt.Sprintf("%0*d.png", pad, i+1), buf.Bytes(), zip.Store); err != nil {
			return fmt.Errorf("zip add image: %w", err)
		}
	}

	info := comicInfo{PageCount: len(pages), Notes: "Exported from " + filepath.Base(doc.Path())}
	// engine metadata keys are lower case
	if m, ok := doc.(interface{ Metadata() map[string]string }); ok {
		md := m.Metadata()
		info.Title, info.Writer = md["title"], md["author"]
	}
	if info.Title == "" {
		info.Title = baseName(doc)
	}
	manifest, err := xml.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, "ComicInfo.xml", append([]byte(xml.Header), manifest...), zip.Deflate); err != nil {
		return fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return f.Close()
}

func addZipFile(zw *zip.Writer, name string, data []byte, method uint16) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
