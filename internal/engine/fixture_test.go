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
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// fixturePage is one page of a generated test document.
type fixturePage struct {
	Word     string
	Bookmark string
	Level    int
}

// writeFixture generates a PDF with one word per page and optional bookmarks.
func writeFixture(t *testing.T, pages ...fixturePage) string {
	t.Helper()
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Engine fixture", false)
	doc.SetAuthor("gopdfviewer tests", false)
	for _, p := range pages {
		doc.AddPage()
		doc.SetFont("Helvetica", "", 16)
		if p.Bookmark != "" {
			doc.Bookmark(p.Bookmark, p.Level, -1)
		}
		doc.Cell(80, 10, p.Word)
	}
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func animalPages() []fixturePage {
	return []fixturePage{
		{Word: "Aardvark", Bookmark: "Aardvark", Level: 0},
		{Word: "Buffalo", Bookmark: "Buffalo", Level: 1},
		{Word: "Chameleon", Bookmark: "Chameleon", Level: 0},
	}
}
