// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"testing"
)

func TestDependency_Check(t *testing.T) {
	t.Parallel()

	dep := Dependency{ID: "alice:oracle", VersionReq: []string{"^1.0.0"}}

	tests := []struct {
		version string
		wantErr error
	}{
		{"1.0.0", nil},
		{"1.4.2", nil},
		{"2.0.0", ErrUnmetRequirement},
		{"0.9.0", ErrUnmetRequirement},
		{"not-a-version", ErrInvalidVersion},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			t.Parallel()
			err := dep.Check(tt.version)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Check(%q) error = %v", tt.version, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check(%q) error = %v, want %v", tt.version, err, tt.wantErr)
			}
		})
	}

	if err := (Dependency{ID: "alice:oracle"}).Check("0.0.1"); err != nil {
		t.Errorf("dependency without requirements should accept any version, got %v", err)
	}
}

func TestData_Validate(t *testing.T) {
	t.Parallel()

	good := Data{
		Module:       "alice:vault",
		Version:      "1.0.0",
		Dependencies: []Dependency{{ID: "alice:oracle", VersionReq: []string{">=1.0.0"}}},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	self := good
	self.Dependencies = []Dependency{{ID: "alice:vault"}}
	if err := self.Validate(); err == nil {
		t.Error("self dependency should be rejected")
	}

	badReq := good
	badReq.Dependencies = []Dependency{{ID: "alice:oracle", VersionReq: []string{"bogus"}}}
	if err := badReq.Validate(); err == nil {
		t.Error("malformed requirement should be rejected")
	}
}

func TestAssertContractUpgrade(t *testing.T) {
	t.Parallel()

	from := ContractVersion{Contract: "alice:vault", Version: "1.0.0"}

	if err := AssertContractUpgrade(from, "alice:vault", "1.1.0"); err != nil {
		t.Errorf("upgrade error = %v", err)
	}
	if err := AssertContractUpgrade(from, "alice:vault", "1.0.0"); !errors.Is(err, ErrCannotDowngrade) {
		t.Errorf("same version error = %v, want ErrCannotDowngrade", err)
	}
	if err := AssertContractUpgrade(from, "alice:vault", "0.9.0"); !errors.Is(err, ErrCannotDowngrade) {
		t.Errorf("downgrade error = %v, want ErrCannotDowngrade", err)
	}
	if err := AssertContractUpgrade(from, "bob:vault", "2.0.0"); !errors.Is(err, ErrContractNameMismatch) {
		t.Errorf("rename error = %v, want ErrContractNameMismatch", err)
	}
}

func TestCompareVersions_Ordering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.10.0", "1.9.0", 1},
		{"1.0.0-rc.1", "1.0.0", -1},
		{"1.0.0-alpha", "1.0.0-beta", -1},
		{"2.0.0", "10.0.0", -1},
	}
	for _, tt := range tests {
		got, err := CompareVersions(tt.a, tt.b)
		if err != nil {
			t.Fatalf("CompareVersions(%q, %q) error = %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
