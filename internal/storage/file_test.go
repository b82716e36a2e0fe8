/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uicomposer/internal/document"
)

const layoutFixture = `{
  "id": "home",
  "moduleElements": [
    {"id": "A", "props": {"position": {"x": 50, "y": 100, "width": 150, "height": 100}}}
  ]
}
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadParsesLayout(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "home.json", layoutFixture)
	fh, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, err := fh.Document.Get(document.Path{}.Key("moduleElements").At(0).Key("id"))
	if err != nil || n.Str() != "A" {
		t.Fatalf("loaded document wrong: %v %v", n, err)
	}
}

func TestLoadFailuresProduceNoHandle(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("missing file must fail")
	}
	bad := writeFixture(t, dir, "bad.json", `{"broken": `)
	if _, err := Load(bad); err == nil {
		t.Fatalf("malformed file must fail")
	}
	notUTF8 := writeFixture(t, dir, "latin1.json", "{\"a\": \"caf\xe9\"}")
	if _, err := Load(notUTF8); err == nil || !strings.Contains(err.Error(), "UTF-8") {
		t.Fatalf("non-UTF-8 file must fail, got %v", err)
	}
}

func TestSaveRoundTripsAndBacksUp(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "home.json", layoutFixture)
	fh, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := fh.Document.Set(document.Path{}.Key("moduleTitle"), document.NewString("Home")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := Save(fh); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Document.Equal(fh.Document) {
		t.Fatalf("saved document does not round-trip")
	}

	backup, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(backup) != layoutFixture {
		t.Fatalf("backup does not hold the pre-save content")
	}
}

func TestSaveAsMovesHandle(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "home.json", layoutFixture)
	fh, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	target := filepath.Join(dir, "sub", "copy.json")
	if err := SaveAs(fh, target); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if fh.Path != target {
		t.Fatalf("handle path = %s", fh.Path)
	}
	if _, err := Load(target); err != nil {
		t.Fatalf("target not readable: %v", err)
	}
}

func TestSaveRejectsInvalidHandle(t *testing.T) {
	if err := Save(nil); err == nil {
		t.Fatalf("nil handle must fail")
	}
	if err := Save(&FileHandle{}); err == nil {
		t.Fatalf("empty handle must fail")
	}
}
