// SPDX-License-Identifier: MPL-2.0

package module

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantID   ID
		wantVer  string
		wantErr  bool
		wantDesc string
	}{
		{in: "alice:vault", wantID: "alice:vault", wantVer: "latest", wantDesc: "alice:vault@latest"},
		{in: "alice:vault@1.0.0", wantID: "alice:vault", wantVer: "1.0.0", wantDesc: "alice:vault@1.0.0"},
		{in: "alice:vault@latest", wantID: "alice:vault", wantVer: "latest", wantDesc: "alice:vault@latest"},
		{in: "alice:vault@", wantErr: true},
		{in: "alice:vault@1.0", wantErr: true},
		{in: "vault@1.0.0", wantErr: true},
		{in: "Alice:vault", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			info, err := ParseInfo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInfo(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if info.ID() != tt.wantID {
				t.Errorf("ID() = %q, want %q", info.ID(), tt.wantID)
			}
			if info.Version.String() != tt.wantVer {
				t.Errorf("Version = %q, want %q", info.Version, tt.wantVer)
			}
			if info.String() != tt.wantDesc {
				t.Errorf("String() = %q, want %q", info.String(), tt.wantDesc)
			}
		})
	}
}

func TestInfo_ExactVersion(t *testing.T) {
	t.Parallel()

	info := Info{Namespace: "alice", Name: "vault"}
	if _, err := info.ExactVersion(); !errors.Is(err, ErrLatestNotAllowed) {
		t.Errorf("ExactVersion() on latest error = %v, want ErrLatestNotAllowed", err)
	}

	v, err := info.WithVersion("1.2.3").ExactVersion()
	if err != nil || v != "1.2.3" {
		t.Errorf("ExactVersion() = %q, %v", v, err)
	}
}

func TestInfo_JSON(t *testing.T) {
	t.Parallel()

	info := Info{Namespace: "alice", Name: "vault", Version: Exact("1.0.0")}
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"namespace":"alice","name":"vault","version":"1.0.0"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var latest Info
	if err := json.Unmarshal([]byte(`{"namespace":"alice","name":"vault","version":"latest"}`), &latest); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !latest.Version.IsLatest() {
		t.Errorf("version = %v, want latest", latest.Version)
	}
}
