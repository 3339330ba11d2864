// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abstractsdk/abstract/pkg/module"
)

const validManifest = `
namespace: "demo"
modules: [
	{
		name:    "dex"
		version: "1.0.0"
		kind:    "adapter"
	},
	{
		name:    "autocompounder"
		version: "0.3.1"
		kind:    "app"
		dependencies: [{id: "demo:dex", version_req: ["^1.0.0"]}]
		config: {
			monetization: install_fee: {denom: "uatom", amount: 10}
			metadata: "https://example.com/autocompounder.json"
		}
	},
	{
		namespace: "tools"
		name:      "vault"
		version:   "2.0.0"
		kind:      "standalone"
	},
]
`

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(validManifest), DefaultFilename)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Namespace != "demo" {
		t.Errorf("Namespace = %q, want demo", m.Namespace)
	}
	if len(m.Modules) != 3 {
		t.Fatalf("len(Modules) = %d, want 3", len(m.Modules))
	}

	app := m.Modules[1]
	mi, err := app.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if mi.String() != "demo:autocompounder@0.3.1" {
		t.Errorf("Info() = %s", mi)
	}
	if app.Kind != module.KindApp {
		t.Errorf("Kind = %q, want app", app.Kind)
	}
	if len(app.Dependencies) != 1 || app.Dependencies[0].ID != "demo:dex" || app.Dependencies[0].VersionReq[0] != "^1.0.0" {
		t.Errorf("Dependencies = %+v", app.Dependencies)
	}
	if app.Config == nil || app.Config.Monetization.InstallFee == nil || app.Config.Monetization.InstallFee.Amount != 10 {
		t.Errorf("Config = %+v", app.Config)
	}
	if m.Modules[0].Config != nil {
		t.Error("adapter without config should have nil Config")
	}
	if m.Modules[2].Namespace != "tools" {
		t.Errorf("namespace override lost: %q", m.Modules[2].Namespace)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
		is      error
	}{
		{
			name:    "no modules",
			data:    `namespace: "demo", modules: []`,
			wantErr: "modules",
		},
		{
			name:    "unknown kind",
			data:    `namespace: "demo", modules: [{name: "a", version: "1.0.0", kind: "service"}]`,
			wantErr: "kind",
		},
		{
			name:    "uppercase name",
			data:    `namespace: "demo", modules: [{name: "Dex", version: "1.0.0", kind: "app"}]`,
			wantErr: "name",
		},
		{
			name:    "bad requirement",
			data:    `namespace: "demo", modules: [{name: "a", version: "1.0.0", kind: "app", dependencies: [{id: "demo:b", version_req: ["not a range"]}]}]`,
			wantErr: "invalid requirement",
		},
		{
			name:    "too large",
			data:    validManifest + strings.Repeat("\n", int(MaxFileSize)),
			wantErr: "exceeds maximum",
		},
		{
			name: "duplicate",
			data: `namespace: "demo", modules: [{name: "a", version: "1.0.0", kind: "app"}, {name: "a", version: "1.0.0", kind: "app"}]`,
			is:   ErrDuplicateModule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data), "m.cue")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want %v", err, tt.is)
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFilename)
	if err := os.WriteFile(path, []byte(validManifest), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(m.Modules) != 3 {
		t.Errorf("len(Modules) = %d", len(m.Modules))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.cue")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}
}
