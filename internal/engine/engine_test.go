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
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves fixed page texts and renders 10x20 points per page.
type fakeSource struct {
	pages   []string
	outline []OutlineEntry
	closed  int
	renders []float64
}

func (f *fakeSource) NumPages() int { return len(f.pages) }

func (f *fakeSource) PageText(i int) (string, error) {
	if i < 0 || i >= len(f.pages) {
		return "", errors.New("no such page")
	}
	return f.pages[i], nil
}

func (f *fakeSource) RenderPage(i int, dpi float64) (image.Image, error) {
	f.renders = append(f.renders, dpi)
	w, h := int(10*dpi/72), int(20*dpi/72)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	return img, nil
}

func (f *fakeSource) Outline() ([]OutlineEntry, error) { return f.outline, nil }

func (f *fakeSource) Close() error { f.closed++; return nil }

func newFake(pages ...string) (*Engine, *fakeSource) {
	src := &fakeSource{pages: pages}
	return New(src, "/tmp/fake.pdf", Options{}), src
}

func TestPageBounds(t *testing.T) {
	e, _ := newFake("one", "two", "three")
	require.Equal(t, 3, e.TotalPages())
	require.Equal(t, 1, e.CurrentPage())

	for n := 1; n <= 3; n++ {
		assert.True(t, e.SetCurrentPage(n), "page %d", n)
		assert.Equal(t, n, e.CurrentPage())
	}
	for _, n := range []int{0, -1, 4, 100} {
		assert.False(t, e.SetCurrentPage(n), "page %d", n)
		assert.Equal(t, 3, e.CurrentPage(), "rejected page must not move the cursor")
	}
}

func TestScaleBounds(t *testing.T) {
	e, _ := newFake("one")
	assert.Equal(t, DefaultScale, e.CurrentScale())
	assert.True(t, e.SetCurrentScale(25))
	assert.True(t, e.SetCurrentScale(400))
	assert.False(t, e.SetCurrentScale(5))
	assert.False(t, e.SetCurrentScale(401))
	assert.Equal(t, 400, e.CurrentScale())

	lo, hi := e.ScaleRange()
	assert.Equal(t, 25, lo)
	assert.Equal(t, 400, hi)
}

func TestOptionsNormalized(t *testing.T) {
	o := Options{MinScale: 50, MaxScale: 10, DefaultScale: 5}.normalized()
	assert.Equal(t, 50, o.MinScale)
	assert.Equal(t, 50, o.MaxScale)
	assert.Equal(t, 50, o.DefaultScale)
}

func TestRenderUsesScaleAndRotation(t *testing.T) {
	e, src := newFake("one", "two")
	require.True(t, e.SetCurrentScale(200))

	img, err := e.Render()
	require.NoError(t, err)
	assert.Equal(t, []float64{144}, src.renders)
	assert.Equal(t, image.Pt(20, 40), img.Bounds().Size())

	e.Rotate(Clockwise)
	assert.Equal(t, 90, e.PageRotation(1))
	img, err = e.Render()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 20), img.Bounds().Size())
	// the top-left pixel ends up top-right after a clockwise turn
	r, _, _, a := img.At(39, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), a)

	e.Rotate(CounterClockwise)
	e.Rotate(CounterClockwise)
	assert.Equal(t, 270, e.PageRotation(1))

	// rotation is per page
	require.True(t, e.SetCurrentPage(2))
	assert.Equal(t, 0, e.PageRotation(2))
}

func TestRenderPageKeepsCursor(t *testing.T) {
	e, src := newFake("one", "two")
	require.True(t, e.SetCurrentPage(2))
	e.Rotate(Clockwise)
	require.True(t, e.SetCurrentPage(1))

	img, err := e.RenderPage(2, 50)
	require.NoError(t, err)
	assert.Equal(t, []float64{36}, src.renders)
	assert.Equal(t, image.Pt(10, 5), img.Bounds().Size())
	assert.Equal(t, 1, e.CurrentPage())

	_, err = e.RenderPage(3, 100)
	assert.Error(t, err)
}

func TestTextDump(t *testing.T) {
	e, _ := newFake("alpha\n", "beta")
	s, err := e.Text()
	require.NoError(t, err)
	assert.Equal(t, "--- Page 1 ---\nalpha\n--- Page 2 ---\nbeta\n", s)
}

func TestOutlineCachedAndCopied(t *testing.T) {
	e, src := newFake("a", "b")
	src.outline = []OutlineEntry{{Title: "Intro", Level: 1, Page: 1}, {Title: "Body", Level: 1, Page: 2}}
	got := e.Outline()
	require.Len(t, got, 2)
	got[0].Title = "changed"
	src.outline = nil
	again := e.Outline()
	require.Len(t, again, 2)
	assert.Equal(t, "Intro", again[0].Title)
}

func TestCloseIsIdempotent(t *testing.T) {
	e, src := newFake("a")
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Equal(t, 1, src.closed)
	assert.Equal(t, 0, e.TotalPages())
	assert.False(t, e.SetCurrentPage(1))
	_, err := e.Render()
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, e.FindPhrase("a", Forward))
}

func TestBackendRegistry(t *testing.T) {
	names := Backends()
	require.Contains(t, names, "text")
	_, _, err := backendFor("nope")
	assert.ErrorIs(t, err, ErrUnknownBackend)
	_, name, err := backendFor("")
	require.NoError(t, err)
	assert.Equal(t, names[0], name)
}
