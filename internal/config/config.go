/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user viewer configuration. The YAML file is
// optional; defaults apply for anything it leaves out and GPV_* environment
// variables override both.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalid marks a configuration file that failed schema or field validation.
var ErrInvalid = errors.New("invalid configuration")

type ViewerConfig struct {
	DefaultScale        int    `yaml:"default_scale" validate:"gtefield=MinScale,ltefield=MaxScale"`
	MinScale            int    `yaml:"min_scale" validate:"min=1"`
	MaxScale            int    `yaml:"max_scale" validate:"gtefield=MinScale,max=6400"`
	ScalePresets        []int  `yaml:"scale_presets" validate:"min=1,dive,min=1"`
	NextPageKey         string `yaml:"next_page_key" validate:"required"`
	PrevPageKey         string `yaml:"prev_page_key" validate:"required,nefield=NextPageKey"`
	SearchCaseSensitive bool   `yaml:"search_case_sensitive"`
	// Backend names the PDF engine: auto, mupdf or text.
	Backend string `yaml:"backend" validate:"oneof=auto mupdf text"`
}

type WindowConfig struct {
	Width  int `yaml:"width" validate:"min=320"`
	Height int `yaml:"height" validate:"min=240"`
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme" validate:"oneof=system light dark"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=console json"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version" validate:"min=1"`
	Viewer        ViewerConfig  `yaml:"viewer"`
	Window        WindowConfig  `yaml:"window"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the built-in configuration: 25%..400% in 25% steps,
// 100% on open, F2/F1 for next/previous page.
func Defaults() AppConfig {
	presets := make([]int, 0, 16)
	for i := 1; i <= 16; i++ {
		presets = append(presets, i*25)
	}
	return AppConfig{
		ConfigVersion: 1,
		Viewer: ViewerConfig{
			DefaultScale: 100,
			MinScale:     25,
			MaxScale:     400,
			ScalePresets: presets,
			NextPageKey:  "F2",
			PrevPageKey:  "F1",
			Backend:      "auto",
		},
		Window:  WindowConfig{Width: 800, Height: 600},
		General: GeneralConfig{Theme: "system"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Environment overrides.
const (
	EnvConfigPath     = "GPV_CONFIG"
	EnvDefaultScale   = "GPV_DEFAULT_SCALE"
	EnvTelemetryOptIn = "GPV_TELEMETRY_OPT_IN"
	EnvTheme          = "GPV_THEME"
	EnvBackend        = "GPV_BACKEND"
	EnvLogLevel       = "GPV_LOG_LEVEL"
	EnvLogFormat      = "GPV_LOG_FORMAT"
	EnvLogSource      = "GPV_LOG_SOURCE"
	EnvLogFile        = "GPV_LOG_FILE"
)

// Path returns the per-user config file, or $GPV_CONFIG when set.
func Path() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoPDFViewer")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoPDFViewer")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "gopdfviewer")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "gopdfviewer")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file. A missing file is not an error. An invalid
// file yields the defaults (plus env overrides) together with an ErrInvalid error
// so callers can warn and carry on.
func Load() (AppConfig, error) {
	path, err := Path()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		applyEnvOverrides(&cfg)
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		fileCfg, perr := parse(data)
		if perr != nil {
			applyEnvOverrides(&cfg)
			return cfg, fmt.Errorf("%s: %w", path, perr)
		}
		mergeInto(&cfg, &fileCfg)
	}
	applyEnvOverrides(&cfg)
	if err := Validate(cfg); err != nil {
		def := Defaults()
		applyEnvOverrides(&def)
		return def, err
	}
	return cfg, nil
}

// parse decodes YAML and checks it against the embedded JSON schema.
func parse(data []byte) (AppConfig, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc != nil {
		res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewGoLoader(doc))
		if err != nil {
			return AppConfig{}, fmt.Errorf("%w: schema: %v", ErrInvalid, err)
		}
		if !res.Valid() {
			msgs := make([]string, 0, len(res.Errors()))
			for _, e := range res.Errors() {
				msgs = append(msgs, e.String())
			}
			return AppConfig{}, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and cross-field constraints of a merged config.
func Validate(cfg AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Save writes cfg as YAML to the user config path.
func Save(cfg AppConfig) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	if err := Validate(cfg); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0o644)
}

func mergeInto(dst, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	v := src.Viewer
	if v.DefaultScale != 0 {
		dst.Viewer.DefaultScale = v.DefaultScale
	}
	if v.MinScale != 0 {
		dst.Viewer.MinScale = v.MinScale
	}
	if v.MaxScale != 0 {
		dst.Viewer.MaxScale = v.MaxScale
	}
	if len(v.ScalePresets) > 0 {
		dst.Viewer.ScalePresets = append([]int(nil), v.ScalePresets...)
	}
	if s := strings.TrimSpace(v.NextPageKey); s != "" {
		dst.Viewer.NextPageKey = s
	}
	if s := strings.TrimSpace(v.PrevPageKey); s != "" {
		dst.Viewer.PrevPageKey = s
	}
	dst.Viewer.SearchCaseSensitive = v.SearchCaseSensitive
	if s := strings.TrimSpace(v.Backend); s != "" {
		dst.Viewer.Backend = strings.ToLower(s)
	}
	if src.Window.Width != 0 {
		dst.Window.Width = src.Window.Width
	}
	if src.Window.Height != 0 {
		dst.Window.Height = src.Window.Height
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if s := strings.TrimSpace(src.General.Theme); s != "" {
		dst.General.Theme = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDefaultScale)); v != "" {
		if n, err := strconv.Atoi(strings.TrimSuffix(v, "%")); err == nil {
			cfg.Viewer.DefaultScale = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		cfg.Viewer.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

var envKeys = map[string]string{
	"viewer.default_scale":     EnvDefaultScale,
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"general.theme":            EnvTheme,
	"viewer.backend":           EnvBackend,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor reports the environment variable overriding key, if it is set.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
