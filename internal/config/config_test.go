package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Cache.Books != 16 {
		t.Errorf("cache.books = %d, want 16", cfg.Cache.Books)
	}
	if cfg.Bridge.Listen != "127.0.0.1:8765" {
		t.Errorf("bridge.listen = %q", cfg.Bridge.Listen)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_RequiresHelpsConfig(t *testing.T) {
	t.Setenv(EnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when HELPS_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "HELPS_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithHelpsConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "helps.yaml")

	configContent := `
paths:
  root: ` + tmpDir + `
  store: ${HELPS_ROOT}/content.db
logging:
  level: debug
  format: json
resources:
  - key: el-x-koine/ugnt
    role: original
    testament: nt
    path: ${HELPS_ROOT}/ugnt
  - key: hbo/uhb
    role: original
    testament: ot
    direction: rtl
  - key: en/ult
    role: target
    path: ${MISSING_VAR:-/srv/ult}
matcher:
  reorder_window: 6
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Paths.Store != filepath.Join(tmpDir, "content.db") {
		t.Errorf("store = %q", cfg.Paths.Store)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Cache.Books != 16 {
		t.Errorf("unset cache.books should keep default, got %d", cfg.Cache.Books)
	}
	if cfg.Matcher.ReorderWindow != 6 {
		t.Errorf("reorder_window = %d", cfg.Matcher.ReorderWindow)
	}

	ugnt, ok := cfg.Resource("el-x-koine/ugnt")
	if !ok || ugnt.Path != filepath.Join(tmpDir, "ugnt") {
		t.Errorf("ugnt = %+v, %v", ugnt, ok)
	}
	ult, _ := cfg.Resource("en/ult")
	if ult.Path != "/srv/ult" {
		t.Errorf("ult path = %q, want default expansion", ult.Path)
	}
	if _, ok := cfg.Resource("en/ust"); ok {
		t.Error("Resource(en/ust) should not be found")
	}

	if r, ok := cfg.OriginalFor("tit"); !ok || r.Key != "el-x-koine/ugnt" {
		t.Errorf("OriginalFor(tit) = %+v", r)
	}
	if r, ok := cfg.OriginalFor("GEN"); !ok || r.Key != "hbo/uhb" {
		t.Errorf("OriginalFor(GEN) = %+v", r)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "resources: [", "parsing"},
		{"missing key", "resources:\n  - role: original\n", "key is required"},
		{"bad role", "resources:\n  - key: a\n    role: both\n", "role must be"},
		{"duplicate", "resources:\n  - key: a\n    role: target\n  - key: a\n    role: target\n", "duplicate key"},
		{"bad testament", "resources:\n  - key: a\n    role: original\n    testament: apocrypha\n", "testament must be"},
		{"traversal key", "resources:\n  - key: ../ugnt\n    role: original\n", "path traversal"},
		{"negative window", "matcher:\n  reorder_window: -1\n", "reorder_window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "helps.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFile error = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile on missing file should fail")
	}
}

func TestOriginalForFallback(t *testing.T) {
	cfg := Default()
	if _, ok := cfg.OriginalFor("TIT"); ok {
		t.Error("OriginalFor with no resources should fail")
	}

	cfg.Resources = []ResourceConfig{{Key: "any", Role: RoleOriginal}, {Key: "t", Role: RoleTarget}}
	if r, ok := cfg.OriginalFor("GEN"); !ok || r.Key != "any" {
		t.Errorf("OriginalFor fallback = %+v, %v", r, ok)
	}
}

func TestTestamentOf(t *testing.T) {
	if TestamentOf("tit") != NewTestament || TestamentOf("GEN") != OldTestament {
		t.Error("TestamentOf mismatch")
	}
}
