/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package viewer

import (
	"image"

	"gopdfviewer/internal/engine"
)

// Document is the per-tab engine handle the controller drives.
// *engine.Engine implements it.
type Document interface {
	Path() string
	TotalPages() int
	CurrentPage() int
	SetCurrentPage(n int) bool
	CurrentScale() int
	SetCurrentScale(percent int) bool
	FindPhrase(phrase string, dir engine.Direction) bool
	Rotate(r engine.Rotation)
	Render() (image.Image, error)
	PageText(n int) (string, error)
	Text() (string, error)
	Outline() []engine.OutlineEntry
	Close() error
}

// Opener constructs a Document for path.
type Opener func(path string) (Document, error)

// EngineOpener returns an Opener backed by engine.Open.
func EngineOpener(opts engine.Options) Opener {
	return func(path string) (Document, error) {
		e, err := engine.Open(path, opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}
