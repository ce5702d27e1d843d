package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/alexrolguin/voicebox/internal/errors"
)

// chdirTemp moves into an empty directory so no stray config.yml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:5000" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.UploadPath != "/api/upload" {
		t.Errorf("upload_path = %q", cfg.Server.UploadPath)
	}
	if cfg.Server.FieldName != "audio" {
		t.Errorf("field_name = %q, want audio", cfg.Server.FieldName)
	}
	if cfg.Server.FileName != "recording.webm" {
		t.Errorf("file_name = %q, want recording.webm", cfg.Server.FileName)
	}
	if cfg.Capture.Backend != "ffmpeg" {
		t.Errorf("backend = %q", cfg.Capture.Backend)
	}
	if cfg.Capture.Device == "" {
		t.Error("device should default per input format")
	}
	if cfg.Log.Output != "file" {
		t.Errorf("log.output = %q, want file", cfg.Log.Output)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yml")
	yml := `
server:
  base_url: http://transcriber.local:8080
  timeout: 90s
capture:
  backend: portaudio
  sample_rate: 16000
log:
  level: debug
  output: stderr
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.BaseURL != "http://transcriber.local:8080" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", cfg.Server.Timeout)
	}
	if cfg.Capture.Backend != "portaudio" {
		t.Errorf("backend = %q", cfg.Capture.Backend)
	}
	if cfg.Capture.SampleRate != 16000 {
		t.Errorf("sample_rate = %d", cfg.Capture.SampleRate)
	}
	// untouched keys keep their defaults
	if cfg.Server.HistoryPath != "/api/transcriptions" {
		t.Errorf("history_path = %q", cfg.Server.HistoryPath)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VOICEBOX_SERVER_BASE_URL", "http://env.example:9000")
	t.Setenv("VOICEBOX_CAPTURE_CHANNELS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.BaseURL != "http://env.example:9000" {
		t.Errorf("base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Capture.Channels != 2 {
		t.Errorf("channels = %d, want 2", cfg.Capture.Channels)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VOICEBOX_SERVER_FILE_NAME=take.webm\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("VOICEBOX_SERVER_FILE_NAME") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.FileName != "take.webm" {
		t.Errorf("file_name = %q, want take.webm", cfg.Server.FileName)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdirTemp(t)
	t.Setenv("VOICEBOX_CAPTURE_BACKEND", "tape")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeConfig) {
		t.Errorf("error = %v, want CONFIG code", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	if _, err := Load(WithConfigFile("/nonexistent/voicebox.yml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
