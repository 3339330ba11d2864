// SPDX-License-Identifier: MPL-2.0

package module

import (
	"fmt"
	"strings"
)

// Info is the module descriptor: namespace, name and version selector.
// It is the identity key for every registry lookup.
type Info struct {
	Namespace Namespace   `json:"namespace"`
	Name      Name        `json:"name"`
	Version   VersionSpec `json:"version"`
}

// NewInfo builds a descriptor from a module id.
func NewInfo(id ID, version VersionSpec) (Info, error) {
	ns, name, err := id.Split()
	if err != nil {
		return Info{}, err
	}
	return Info{Namespace: ns, Name: name, Version: version}, nil
}

// ParseInfo parses "namespace:name" (latest) or "namespace:name@version".
func ParseInfo(s string) (Info, error) {
	idPart, version, hasVersion := strings.Cut(s, "@")
	spec := Latest
	if hasVersion {
		if version == "" {
			return Info{}, fmt.Errorf("%w %q: empty version after '@'", ErrInvalidVersion, s)
		}
		spec = ParseVersionSpec(version)
	}
	info, err := NewInfo(ID(strings.TrimSpace(idPart)), spec)
	if err != nil {
		return Info{}, err
	}
	if err := info.Validate(); err != nil {
		return Info{}, err
	}
	return info, nil
}

// ID returns the version-less module id.
func (i Info) ID() ID { return NewID(i.Namespace, i.Name) }

// String renders "namespace:name@version".
func (i Info) String() string { return string(i.ID()) + "@" + i.Version.String() }

// WithVersion returns a copy pinned to version.
func (i Info) WithVersion(version string) Info {
	i.Version = Exact(version)
	return i
}

// Validate checks the namespace, the name and an exact version if one is set.
func (i Info) Validate() error {
	if err := i.Namespace.Validate(); err != nil {
		return err
	}
	if err := i.Name.Validate(); err != nil {
		return err
	}
	if err := i.Version.Validate(); err != nil {
		return fmt.Errorf("invalid version for module %s: %w", i.ID(), err)
	}
	return nil
}

// ExactVersion returns the pinned version or ErrLatestNotAllowed.
func (i Info) ExactVersion() (string, error) {
	v, ok := i.Version.Exact()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLatestNotAllowed, i.ID())
	}
	if _, err := ParseVersion(v); err != nil {
		return "", err
	}
	return v, nil
}
