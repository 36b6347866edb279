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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitzSource(t *testing.T) {
	e, err := Open(writeFixture(t, animalPages()...), Options{Backend: "mupdf"})
	require.NoError(t, err)
	defer e.Close()

	require.Equal(t, 3, e.TotalPages())
	s, err := e.PageText(2)
	require.NoError(t, err)
	assert.Contains(t, s, "Buffalo")

	require.True(t, e.FindPhrase("buffalo", Forward))
	assert.Equal(t, 2, e.CurrentPage())

	img, err := e.Render()
	require.NoError(t, err)
	assert.InDelta(t, 595, img.Bounds().Dx(), 2)

	var titles []string
	for _, o := range e.Outline() {
		titles = append(titles, o.Title)
	}
	assert.Equal(t, []string{"Aardvark", "Buffalo", "Chameleon"}, titles)
	assert.Equal(t, 3, e.Outline()[2].Page)
}

func TestFitzPreferredWhenAvailable(t *testing.T) {
	assert.Equal(t, "mupdf", Backends()[0])
}
