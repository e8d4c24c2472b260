package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.QueueDepth != 64 {
		t.Errorf("QueueDepth = %d, want 64", cfg.QueueDepth)
	}
	if cfg.PollInitial != 50*time.Millisecond || cfg.PollMax != time.Second {
		t.Errorf("poll = %s..%s", cfg.PollInitial, cfg.PollMax)
	}
	if cfg.Transport != TransportStdio {
		t.Errorf("Transport = %q", cfg.Transport)
	}
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desktop-intent.yaml")
	writeFile(t, path, "queue_depth: 8\npoll_max: 500ms\nlog_level: debug\nbackend: fake\n")
	t.Setenv(EnvPrefix+"QUEUE_DEPTH", "16")
	t.Setenv(EnvPrefix+"SCROLL_SETTLE", "250ms")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env overrides file", cfg.QueueDepth, 16},
		{"file overrides default", cfg.PollMax, 500 * time.Millisecond},
		{"file string", cfg.Backend, "fake"},
		{"env duration", cfg.ScrollSettle, 250 * time.Millisecond},
		{"untouched default", cfg.ScrollMaxPages, 200},
		{"file recorded", cfg.File, path},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		yaml    string
		wantErr string
	}{
		{"bad int", map[string]string{"QUEUE_DEPTH": "lots"}, "", "expected integer"},
		{"bad duration", map[string]string{"POLL_MAX": "soon"}, "", "expected duration"},
		{"bad transport", map[string]string{"TRANSPORT": "carrier-pigeon"}, "", "invalid transport"},
		{"zero queue", nil, "queue_depth: 0\n", "queue_depth"},
		{"poll order", nil, "poll_initial: 2s\npoll_max: 1s\n", "poll interval"},
		{"bad yaml", nil, "queue_depth: [\n", "parsing config"},
		{"bad format", map[string]string{"FORMAT": "xml"}, "", "invalid format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(EnvPrefix+k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = filepath.Join(t.TempDir(), "c.yaml")
				writeFile(t, path, tt.yaml)
			}
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), EnvPrefix+"TEXT_MAX_BYTES=1024\n")
	t.Chdir(dir)
	t.Setenv(EnvConfigFile, "")
	// godotenv sets the variable for the process; make sure it is cleared
	// for later tests.
	t.Setenv(EnvPrefix+"TEXT_MAX_BYTES", "")
	os.Unsetenv(EnvPrefix + "TEXT_MAX_BYTES")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TextMaxBytes != 1024 {
		t.Errorf("TextMaxBytes = %d, want 1024 from .env", cfg.TextMaxBytes)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	old := DebounceDelay
	DebounceDelay = 10 * time.Millisecond
	t.Cleanup(func() { DebounceDelay = old })

	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, "log_level: info\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(c *Config) { got <- c }) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-got:
			if c.LogLevel != "debug" {
				t.Errorf("LogLevel = %q, want debug", c.LogLevel)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch() = %v", err)
			}
			return
		case <-tick.C:
			// The watcher may not be registered yet; keep rewriting.
			writeFile(t, path, "log_level: debug\n")
		case <-deadline:
			t.Fatal("no reload within 5s")
		}
	}
}
