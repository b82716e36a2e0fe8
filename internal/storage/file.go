/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage handles layout files on disk and the local history
// database. Saves are transactional: the previous file survives any
// failure, and a sibling backup survives the save itself.
package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"uicomposer/internal/document"
)

// BackupSuffix is appended to the sibling backup written before each save.
const BackupSuffix = ".bak"

// FileHandle tracks the layout file currently open in the editor.
type FileHandle struct {
	Path     string
	Document *document.Document
}

// Load reads and parses a layout file. The document is only produced on
// full success; a read or parse failure leaves any previously open
// document in the caller's hands untouched.
func Load(path string) (*FileHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("file path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("read layout: %s is not valid UTF-8", path)
	}
	d, err := document.Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return &FileHandle{Path: path, Document: d}, nil
}

// Save serializes the handle's document back to its path. The previous
// content is first copied to a sibling .bak file, then the new content
// is written to a temp file in the same directory, fsynced, and renamed
// over the target.
func Save(fh *FileHandle) error {
	if fh == nil {
		return errors.New("nil FileHandle")
	}
	if fh.Path == "" || fh.Document == nil {
		return errors.New("invalid FileHandle: missing path or document")
	}
	data := []byte(fh.Document.Serialize())

	if _, statErr := os.Stat(fh.Path); statErr == nil {
		if cerr := copyFile(fh.Path, fh.Path+BackupSuffix); cerr != nil {
			return fmt.Errorf("backup current layout: %w", cerr)
		}
	}

	dir := filepath.Dir(fh.Path)
	base := filepath.Base(fh.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp layout: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(fh.Path); err == nil {
		_ = os.Remove(fh.Path)
	}
	if rerr := os.Rename(temp, fh.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace layout: %w", rerr)
	}
	return nil
}

// SaveAs writes the document to a new path and repoints the handle.
func SaveAs(fh *FileHandle, newPath string) error {
	if fh == nil {
		return errors.New("nil FileHandle")
	}
	if strings.TrimSpace(newPath) == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}
	fh.Path = newPath
	return Save(fh)
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}
