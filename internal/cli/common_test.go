package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/ctxlog"
	"github.com/nagsync/nagsync/internal/engine"
)

func TestManifestPath(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".nagsync")
	t.Setenv("NAGSYNC_ROOT", root)
	t.Cleanup(func() { configPath = "" })

	configPath = ""
	got, err := manifestPath()
	if err != nil {
		t.Fatalf("manifestPath() error = %v", err)
	}
	if want := filepath.Join(root, "config.yaml"); got != want {
		t.Errorf("manifestPath() = %q, want %q", got, want)
	}

	configPath = filepath.Join("hosts", "web01.yaml")
	got, err = manifestPath()
	if err != nil {
		t.Fatalf("manifestPath() error = %v", err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "web01.yaml" {
		t.Errorf("manifestPath() = %q, want absolute path to web01.yaml", got)
	}
}

func TestLoadManifest_ReturnsManifestDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "web01.yaml")
	writeTestFile(t, path, "platform: posix\n")
	configPath = path
	t.Cleanup(func() { configPath = "" })

	m, baseDir, err := loadManifest()
	if err != nil {
		t.Fatalf("loadManifest() error = %v", err)
	}
	if baseDir != dir {
		t.Errorf("baseDir = %q, want %q", baseDir, dir)
	}
	if m.NagiosCfg != config.DefaultNagiosCfg {
		t.Errorf("NagiosCfg = %q, want default", m.NagiosCfg)
	}

	configPath = filepath.Join(dir, "missing.yaml")
	if _, _, err := loadManifest(); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestCommandContext_FlagsOverrideManifest(t *testing.T) {
	t.Cleanup(func() { logLevel, logFormat = "", "" })

	m := &config.Manifest{Log: config.LogConfig{Level: "error", Format: "text"}}
	tests := []struct {
		name      string
		flag      string
		m         *config.Manifest
		wantDebug bool
		wantInfo  bool
	}{
		{name: "defaults without manifest", m: nil, wantInfo: true},
		{name: "manifest level", m: m},
		{name: "flag wins", flag: "debug", m: m, wantDebug: true, wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logLevel = tt.flag
			ctx := commandContext(context.Background(), tt.m)
			logger := ctxlog.FromContext(ctx)

			if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := logger.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestFormatJSON_CheckResult(t *testing.T) {
	result := &engine.CheckResult{Items: []engine.CheckItem{
		{Resource: "edit:/etc/nagios3/nagios.cfg:cfg_dir", Diverged: true},
		{Resource: "prune:/etc/nagios3/conf.d"},
	}}

	got, err := formatJSON(result)
	if err != nil {
		t.Fatalf("formatJSON() error = %v", err)
	}

	var decoded map[string][]map[string]any
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("formatJSON() produced invalid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("top-level keys = %v, want only items", decoded)
	}
	items := decoded["items"]
	if len(items) != 2 || items[0]["diverged"] != true {
		t.Errorf("items = %v", items)
	}
	if _, ok := items[1]["error"]; ok {
		t.Error("empty error should be omitted")
	}
}

func TestFormatError(t *testing.T) {
	got := formatError(errors.New("manifest: unknown platform"))
	if !contains(got, "Error:") || !contains(got, "unknown platform") {
		t.Errorf("formatError() = %q", got)
	}
}

func TestOutputJSON(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return outputJSON(map[string]string{"nagios_key_exists": "no"})
	})
	if err != nil {
		t.Fatalf("outputJSON() error = %v", err)
	}

	var v map[string]string
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("outputJSON() produced invalid JSON: %v", err)
	}
	if v["nagios_key_exists"] != "no" {
		t.Errorf("output = %v", v)
	}
}

func TestPrintFunctions(t *testing.T) {
	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w

	out, _ := captureStdout(t, func() error {
		PrintInfo("All resources in sync")
		PrintError("edit:/etc/nagios3/nagios.cfg:cfg_file: op 1 failed")
		return nil
	})

	_ = w.Close()
	os.Stderr = oldStderr
	buf := make([]byte, 4096)
	n, _ := r.Read(buf)

	if !contains(out, "All resources in sync") {
		t.Errorf("stdout = %q", out)
	}
	if !contains(string(buf[:n]), "op 1 failed") {
		t.Errorf("stderr = %q", buf[:n])
	}
}
