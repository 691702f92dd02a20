package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	for _, dir := range []string{"library", "state", "logs"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(base, "config.toml")
	content := `
[paths]
library_dir = "` + filepath.Join(base, "library") + `"
state_dir = "` + filepath.Join(base, "state") + `"
backup_dir = "` + filepath.Join(base, "backups") + `"
log_dir = "` + filepath.Join(base, "logs") + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config.toml")

	out, err := runCommand(t, "config", "init", "-c", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[thresholds]") {
		t.Fatal("sample missing thresholds section")
	}
}

func TestScanCommandEmptyLibrary(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "scan", "-c", cfgPath)
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Scanned 0 album(s)") {
		t.Fatalf("output = %q", out)
	}
}

func TestScanCommandCountsAlbums(t *testing.T) {
	cfgPath := writeTestConfig(t)
	library := filepath.Join(filepath.Dir(cfgPath), "library")
	album := filepath.Join(library, "Nujabes", "Modal Soul")
	if err := os.MkdirAll(album, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(album, "01.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "scan", "-c", cfgPath)
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Scanned 1 album(s)") {
		t.Fatalf("output = %q", out)
	}
}

func TestStatusCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "status", "-c", cfgPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	if !strings.Contains(out, "total") {
		t.Fatalf("output = %q", out)
	}
}

func TestReviewListEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "review", "list", "-c", cfgPath)
	if err != nil {
		t.Fatalf("review list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Review queue is empty") {
		t.Fatalf("output = %q", out)
	}
}
