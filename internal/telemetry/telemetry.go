/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in, anonymous usage events and crash reports.
// Nothing is sent unless the user opted in and an endpoint is configured.
// Event properties must never contain document paths or search phrases.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "gopdfviewer/internal/log"
	"gopdfviewer/internal/version"
)

// Config is read from GPV_TELEMETRY_OPT_IN, GPV_TELEMETRY_URL,
// GPV_CRASH_UPLOAD_URL, GPV_TELEMETRY_TIMEOUT_MS and GPV_TELEMETRY_DEBUG.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("GPV_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("GPV_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("GPV_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("GPV_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("GPV_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if d, err := time.ParseDuration(ms + "ms"); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Client posts events from a single background goroutine. The queue is bounded;
// events are dropped rather than blocking the UI thread.
type Client struct {
	cfg     Config
	log     *slog.Logger
	http    *http.Client
	q       chan []byte
	pending sync.WaitGroup
	done    chan struct{}
	stop    sync.Once

	mu     sync.RWMutex // guards closed against concurrent Event
	closed bool
}

// New starts a client. Call Close when done.
func New(cfg Config) *Client {
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		http: &http.Client{Timeout: cfg.Timeout},
		q:    make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go c.run()
	return c
}

// Enabled reports whether events will be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event enqueues a named event with scalar properties.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		switch v.(type) {
		case bool, int, int64, float64, string:
			payload[k] = v
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	c.pending.Add(1)
	select {
	case c.q <- b:
	default:
		c.pending.Done()
	}
}

// Flush waits until queued events are sent or ctx is done.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	drained := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
	}
}

// Close stops the sender goroutine. Queued events are discarded and later
// events are dropped.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.stop.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) run() {
	for {
		select {
		case <-c.done:
			c.discard()
			return
		case b := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", b)
			c.pending.Done()
		}
	}
}

// discard releases events still queued at shutdown so Flush does not wait on them.
func (c *Client) discard() {
	for {
		select {
		case <-c.q:
			c.pending.Done()
		default:
			return
		}
	}
}

func (c *Client) post(url, contentType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry post failed", slog.String("url", url), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry posted", slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a crash report synchronously; the process is about to exit.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the process-wide client, creating it from the environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the process-wide client, closing the previous one.
func SetDefault(c *Client) {
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if old != nil && old != c {
		old.Close()
	}
}

// Event sends through the default client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// UploadCrash sends through the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }
