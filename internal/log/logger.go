/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package log configures the process-wide slog logger used by the viewer.
// Console output is a compact one-line text format (or JSON); an optional
// rotating JSON file sink is provided by lumberjack.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"gopdfviewer/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "GPV_LOG_LEVEL"
	EnvFormat = "GPV_LOG_FORMAT"
	EnvFile   = "GPV_LOG_FILE"
	EnvSource = "GPV_LOG_SOURCE"
)

// Options controls logger initialization.
//   - Level: debug|info|warn|error (default info)
//   - Format: console|json (default console)
//   - File: when set, JSON records are also written to a rotated file
//   - Console: console destination, defaults to stderr
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string
	Console   io.Writer
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
	// file sink of the current logger, closed on re-init
	rotator *lj.Logger
)

// L returns the application logger, initializing it from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the application logger and slog's default.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var sinks []slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		sinks = append(sinks, slog.NewJSONHandler(console, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	default:
		sinks = append(sinks, &lineHandler{level: lvl, source: opts.AddSource, w: console, mu: &sync.Mutex{}})
	}

	var rot *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		rot = &lj.Logger{Filename: path, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		sinks = append(sinks, slog.NewJSONHandler(rot, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}

	var h slog.Handler = fanout(sinks)
	h = &docHandler{next: h}
	l := slog.New(h).With(
		slog.String("app", "gopdfviewer"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	old := rotator
	logger, rotator = l, rot
	mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	slog.SetDefault(l)
}

// FromEnv builds Options from the GPV_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "console"),
		AddSource: strings.EqualFold(getenv(EnvSource, "false"), "true"),
		File:      os.Getenv(EnvFile),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger tagged with component=name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with op=name.
func WithOperation(l *slog.Logger, name string) *slog.Logger { return l.With(slog.String("op", name)) }

type docKey struct{}

// WithDocument stores the path of the document an operation works on. Records
// logged with the returned context carry a doc attribute.
func WithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, docKey{}, path)
}

func documentFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(docKey{}).(string)
	return s
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
