/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns an unrecovered panic into a report file and a clean exit.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "gopdfviewer/internal/log"
	"gopdfviewer/internal/telemetry"
	"gopdfviewer/internal/version"
)

// exitFn is swapped in tests.
var exitFn = os.Exit

// ReportDir is where crash reports are written.
var ReportDir = os.TempDir()

// Recover must be deferred directly:
//
//	defer crash.Recover(ctrl.OpenPaths)
//
// openDocs, when non-nil, lists the documents open at the time of the panic.
func Recover(openDocs func() []string) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	var docs []string
	if openDocs != nil {
		docs = safeDocs(openDocs)
	}
	path, err := writeReport(docs, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", path)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// safeDocs shields the report from a second panic inside the callback.
func safeDocs(fn func() []string) (docs []string) {
	defer func() {
		if recover() != nil {
			docs = nil
		}
	}()
	return fn()
}

func writeReport(docs []string, panicVal any, stack []byte) (string, error) {
	if err := os.MkdirAll(ReportDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(ReportDir, fmt.Sprintf("gopdfviewer-crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GoPDFViewer Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	for i, d := range docs {
		fmt.Fprintf(&buf, "Document[%d]: %s\n", i, d)
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// the uploaded copy omits document paths
	telemetry.UploadCrash(anonymize(buf.Bytes(), docs))
	return path, nil
}

func anonymize(report []byte, docs []string) []byte {
	out := report
	for _, d := range docs {
		if d == "" {
			continue
		}
		out = bytes.ReplaceAll(out, []byte(d), []byte("<document>"))
	}
	return out
}
