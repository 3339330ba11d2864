// SPDX-License-Identifier: MPL-2.0

package module

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const latestKeyword = "latest"

var (
	// ErrInvalidVersion is returned for versions that are not strict semantic versions.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrLatestNotAllowed is returned where a pinned version is required.
	ErrLatestNotAllowed = errors.New("module version must be set to a specific version")
)

// VersionSpec selects either the latest published version or an exact one.
// The zero value is Latest.
type VersionSpec struct {
	exact string
}

// Latest selects the semantically greatest registered version.
var Latest = VersionSpec{}

// Exact pins a version.
func Exact(version string) VersionSpec {
	return VersionSpec{exact: version}
}

// IsLatest reports whether the spec selects the latest version.
func (v VersionSpec) IsLatest() bool { return v.exact == "" }

// Exact returns the pinned version and true, or "" and false for Latest.
func (v VersionSpec) Exact() (string, bool) { return v.exact, v.exact != "" }

// String returns the pinned version or "latest".
func (v VersionSpec) String() string {
	if v.IsLatest() {
		return latestKeyword
	}
	return v.exact
}

// Validate checks that an exact version parses as a strict semantic version.
func (v VersionSpec) Validate() error {
	if v.IsLatest() {
		return nil
	}
	_, err := ParseVersion(v.exact)
	return err
}

// MarshalJSON encodes the spec as "latest" or the version string.
func (v VersionSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes "latest" or a version string.
func (v *VersionSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("version spec must be a string: %w", err)
	}
	*v = ParseVersionSpec(s)
	return nil
}

// ParseVersionSpec maps "" and "latest" to Latest and everything else to Exact.
func ParseVersionSpec(s string) VersionSpec {
	if s == "" || s == latestKeyword {
		return Latest
	}
	return Exact(s)
}

// ParseVersion parses a strict semantic version ("1.2.3", "1.2.3-rc.1").
// Build metadata is rejected: two versions differing only in metadata share
// precedence and would make the latest version ambiguous.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidVersion, s, err)
	}
	if v.Metadata() != "" {
		return nil, fmt.Errorf("%w %q: build metadata is not allowed", ErrInvalidVersion, s)
	}
	return v, nil
}

// CompareVersions compares two strict semantic versions by semver precedence.
func CompareVersions(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}
