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
	"slices"
	"time"

	"gopdfviewer/internal/config"
	"gopdfviewer/internal/engine"
	"gopdfviewer/internal/history"
)

// EngineOptions maps the viewer section of the user configuration to engine options.
func EngineOptions(cfg config.AppConfig) engine.Options {
	v := cfg.Viewer
	backend := v.Backend
	if backend == "auto" {
		backend = ""
	}
	return engine.Options{
		MinScale:      v.MinScale,
		MaxScale:      v.MaxScale,
		DefaultScale:  v.DefaultScale,
		CaseSensitive: v.SearchCaseSensitive,
		Backend:       backend,
	}
}

// Configure returns controller options for cfg with documents opened through the engine.
func Configure(cfg config.AppConfig, p Presenter) Options {
	return Options{
		Open:          EngineOpener(EngineOptions(cfg)),
		Presenter:     p,
		ScalePresets:  cfg.Viewer.ScalePresets,
		DefaultPreset: slices.Index(cfg.Viewer.ScalePresets, cfg.Viewer.DefaultScale),
		History:       history.Config{MaxEntries: 100, MinInterval: 750 * time.Millisecond},
	}
}
