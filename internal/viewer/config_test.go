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
	"testing"

	"github.com/stretchr/testify/assert"

	"gopdfviewer/internal/config"
)

func TestConfigure(t *testing.T) {
	cfg := config.Defaults()
	cfg.Viewer.DefaultScale = 150
	cfg.Viewer.Backend = "text"
	cfg.Viewer.SearchCaseSensitive = true

	eo := EngineOptions(cfg)
	assert.Equal(t, 150, eo.DefaultScale)
	assert.Equal(t, "text", eo.Backend)
	assert.True(t, eo.CaseSensitive)

	c := NewController(Configure(cfg, nil))
	assert.Equal(t, "150%", c.State().ScaleText)
	assert.Len(t, c.ScaleChoices(), 16)

	cfg.Viewer.Backend = "auto"
	assert.Empty(t, EngineOptions(cfg).Backend)
}

func TestConfigureUnknownDefaultFallsBack(t *testing.T) {
	cfg := config.Defaults()
	cfg.Viewer.DefaultScale = 130
	c := NewController(Configure(cfg, nil))
	assert.Equal(t, "100%", c.State().ScaleText)
}
