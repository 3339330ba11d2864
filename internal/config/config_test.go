// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abstractsdk/abstract/internal/issue"
	"github.com/abstractsdk/abstract/pkg/types"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{StateDir: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.StateDir != dir {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, dir)
	}
	if cfg.Store.Backend != BackendBadger {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}
	if cfg.Store.Path != filepath.Join(dir, "data") {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Registry.Admin != "admin" || cfg.Registry.NamespaceFee.Coin() != nil {
		t.Errorf("Registry = %+v", cfg.Registry)
	}
	if !cfg.Metrics.Enabled || cfg.API.Listen == "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `
store: backend: "memory"
log: {
	level:  "debug"
	format: "json"
}
registry: {
	security_enabled: true
	namespace_limit:  3
	namespace_fee: {denom: "uatom", amount: 50}
}
metrics: enabled: false
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{StateDir: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path == "" {
		t.Error("resolved path should be set")
	}
	if cfg.Store.Backend != BackendMemory || cfg.Log.Level != "debug" || cfg.Log.Format != FormatJSON {
		t.Errorf("store/log = %+v %+v", cfg.Store, cfg.Log)
	}
	if !cfg.Registry.SecurityEnabled || cfg.Registry.NamespaceLimit != 3 {
		t.Errorf("Registry = %+v", cfg.Registry)
	}
	if fee := cfg.Registry.NamespaceFee.Coin(); fee == nil || *fee != (types.Coin{Denom: "uatom", Amount: 50}) {
		t.Errorf("NamespaceFee = %v", fee)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled")
	}
	// Unset keys keep their defaults.
	if cfg.Registry.Admin != "admin" {
		t.Errorf("Registry.Admin = %q", cfg.Registry.Admin)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "syntax", content: "store: {", want: "load configuration"},
		{name: "unknown backend", content: `store: backend: "redis"`, want: "store.backend"},
		{name: "unknown field", content: `color: "blue"`, want: "color"},
		{name: "negative limit", content: `registry: namespace_limit: -1`, want: "namespace_limit"},
		{name: "zero fee", content: `registry: namespace_fee: {denom: "uatom", amount: 0}`, want: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, _, err := loadWithOptions(context.Background(), LoadOptions{StateDir: dir})
			if err == nil {
				t.Fatal("expected an error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("error should be an actionable config error, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{StateDir: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

//nolint:paralleltest // uses t.Setenv
func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `log: level: "warn"`)
	t.Setenv("ABSTRACT_LOG_LEVEL", "error")
	t.Setenv("ABSTRACT_STORE_BACKEND", "memory")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{StateDir: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want env override", cfg.Log.Level)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q", cfg.Store.Backend)
	}

	t.Setenv("ABSTRACT_STORE_BACKEND", "redis")
	if _, err := NewProvider().Load(context.Background(), LoadOptions{StateDir: dir}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.StateDir = dir
	cfg.Store.Backend = BackendMemory
	cfg.Registry.SecurityEnabled = true
	cfg.Registry.NamespaceFee = FeeConfig{Denom: "uosmo", Amount: 7}

	path, err := ConfigPath(LoadOptions{StateDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v\n%s", err, GenerateCUE(cfg))
	}
	if got.StateDir != dir || got.Store.Backend != BackendMemory || !got.Registry.SecurityEnabled {
		t.Errorf("round trip = %+v", got)
	}
	if got.Registry.NamespaceFee != cfg.Registry.NamespaceFee {
		t.Errorf("NamespaceFee = %+v", got.Registry.NamespaceFee)
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	l, err := LogConfig{Level: "info", Format: FormatJSON}.NewLogger(&sb)
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hidden")
	l.Info("shown", "module", "demo:dex")
	out := sb.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"module":"demo:dex"`) {
		t.Errorf("log output = %q", out)
	}

	if _, err := (LogConfig{Level: "loud", Format: FormatText}).NewLogger(&sb); err == nil {
		t.Error("unknown level should fail")
	}
}
