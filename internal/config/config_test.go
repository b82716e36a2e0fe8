/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"testing"
)

// stubStore keeps secrets in memory so tests never touch the OS keychain.
type stubStore struct{ m map[string]string }

func (s *stubStore) Get(service, key string) (string, error) {
	v, ok := s.m[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (s *stubStore) Set(service, key, value string) error {
	s.m[service+"/"+key] = value
	return nil
}
func (s *stubStore) Delete(service, key string) error {
	delete(s.m, service+"/"+key)
	return nil
}

func withStubStore(t *testing.T) *stubStore {
	t.Helper()
	old := tokenStore
	st := &stubStore{m: map[string]string{}}
	tokenStore = st
	t.Cleanup(func() { tokenStore = old })
	return st
}

func TestEnvOverridesCanvasSize(t *testing.T) {
	withStubStore(t)
	t.Setenv(EnvCanvasWidth, "414")
	t.Setenv(EnvCanvasHeight, "896")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Canvas.Width != 414 || cfg.Canvas.Height != 896 {
		t.Fatalf("canvas = %vx%v, want 414x896", cfg.Canvas.Width, cfg.Canvas.Height)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	withStubStore(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestDSNComesFromEnvBeforeKeychain(t *testing.T) {
	st := withStubStore(t)
	st.m[keyringService+"/"+keyringDSNKey] = "postgres://from-keychain"
	t.Setenv(EnvCatalogDSN, "postgres://from-env")
	_, dsn, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if dsn != "postgres://from-env" {
		t.Fatalf("dsn = %q, want env override", dsn)
	}
}

func TestDSNFallsBackToKeychain(t *testing.T) {
	st := withStubStore(t)
	st.m[keyringService+"/"+keyringDSNKey] = "postgres://from-keychain"
	t.Setenv(EnvCatalogDSN, "")
	_, dsn, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if dsn != "postgres://from-keychain" {
		t.Fatalf("dsn = %q, want keychain value", dsn)
	}
}

func TestDefaultsAreSane(t *testing.T) {
	d := Defaults()
	if d.Canvas.Width <= 0 || d.Canvas.Height <= 0 {
		t.Fatalf("default canvas size must be positive: %+v", d.Canvas)
	}
	if d.Logging.Level != "info" || d.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", d.Logging)
	}
	if d.Catalog.Enable {
		t.Fatalf("catalog must be disabled by default")
	}
}

func TestEnvOverrideFor(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	name, ok := EnvOverrideFor("logging.level")
	if !ok || name != EnvLogLevel {
		t.Fatalf("EnvOverrideFor(logging.level) = %q,%v", name, ok)
	}
	os.Unsetenv(EnvCanvasWidth)
	if _, ok := EnvOverrideFor("canvas.width"); ok {
		t.Fatalf("canvas.width should not be overridden")
	}
}
