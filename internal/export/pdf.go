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
	"path/filepath"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// ExportPDF writes the selected pages as full-page images into a new PDF. Each
// page keeps the point size of the original, rotated as shown.
func ExportPDF(doc Document, outPath string, opt Options) error {
	pages := pageNumbers(doc.TotalPages(), opt.Pages)
	if len(pages) == 0 {
		return fmt.Errorf("no pages to export")
	}
	scale := float64(opt.scale()) / 100

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt"})
	pdf.SetTitle(baseName(doc), true)
	pdf.SetCreator("gopdfviewer", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	var buf bytes.Buffer
	for _, n := range pages {
		img, err := doc.RenderPage(n, opt.scale())
		if err != nil {
			return err
		}
		if err := encodePNG(&buf, img); err != nil {
			return err
		}
		b := img.Bounds()
		w, h := float64(b.Dx())/scale, float64(b.Dy())/scale
		// "P" keeps Wd/Ht as given; landscape pages already have Wd > Ht
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		name := "page-" + strconv.Itoa(n)
		imgOpt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, imgOpt, bytes.NewReader(buf.Bytes()))
		pdf.ImageOptions(name, 0, 0, w, h, false, imgOpt, 0, "")
		if pdf.Err() {
			return fmt.Errorf("page %d: %w", n, pdf.Error())
		}
	}

	if err := ensureDir(filepath.Dir(outPath)); err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
