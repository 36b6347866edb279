/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = old
		_, _ = io.Copy(io.Discard, r)
	})
}

func TestRecoverWritesReportAndExits(t *testing.T) {
	silenceStderr(t)
	dir := t.TempDir()
	oldDir, oldExit := ReportDir, exitFn
	ReportDir = dir
	code := 0
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { ReportDir, exitFn = oldDir, oldExit })

	func() {
		defer Recover(func() []string { return []string{"/docs/manual.pdf"} })
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one report in %s, got %v (%v)", dir, entries, err)
	}
	b, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"GoPDFViewer Crash Report", "Panic: boom", "Document[0]: /docs/manual.pdf"} {
		if !bytes.Contains(b, []byte(want)) {
			t.Fatalf("report missing %q:\n%s", want, b)
		}
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	t.Cleanup(func() { exitFn = oldExit })

	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit called without panic")
	}
}

func TestSafeDocsSurvivesPanickingCallback(t *testing.T) {
	docs := safeDocs(func() []string { panic("again") })
	if docs != nil {
		t.Fatalf("docs = %v, want nil", docs)
	}
}

func TestAnonymize(t *testing.T) {
	out := string(anonymize([]byte("Document[0]: /home/u/secret.pdf\n"), []string{"/home/u/secret.pdf", ""}))
	if strings.Contains(out, "secret") || !strings.Contains(out, "<document>") {
		t.Fatalf("anonymize = %q", out)
	}
}
