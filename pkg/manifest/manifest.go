// SPDX-License-Identifier: MPL-2.0

// Package manifest reads module manifests: CUE documents listing the modules a
// publisher deploys under a namespace, with their dependencies and install
// configuration.
package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/abstractsdk/abstract/pkg/cueutil"
	"github.com/abstractsdk/abstract/pkg/module"
)

const (
	// DefaultFilename is the manifest file looked up in a module directory.
	DefaultFilename = "abstract.cue"
	// MaxFileSize bounds the manifests Parse accepts (256KB).
	MaxFileSize int64 = 256 << 10
)

//go:embed manifest_schema.cue
var schema []byte

// ErrDuplicateModule is returned when a manifest lists the same module version twice.
var ErrDuplicateModule = errors.New("duplicate module in manifest")

type (
	// Manifest is a parsed manifest.
	Manifest struct {
		Namespace module.Namespace `json:"namespace"`
		Modules   []Module         `json:"modules"`
	}

	// Module is one entry of a manifest.
	Module struct {
		Namespace    module.Namespace     `json:"namespace,omitempty"`
		Name         module.Name          `json:"name"`
		Version      string               `json:"version"`
		Kind         module.ReferenceKind `json:"kind"`
		Dependencies []module.Dependency  `json:"dependencies,omitempty"`
		Config       *module.Config       `json:"config,omitempty"`
	}
)

// Parse decodes and validates a manifest. filename only appears in errors.
func Parse(data []byte, filename string) (*Manifest, error) {
	res, err := cueutil.ParseAndDecode[Manifest](schema, data, "#Manifest",
		cueutil.WithFilename(filename),
		cueutil.WithMaxFileSize(MaxFileSize),
	)
	if err != nil {
		return nil, err
	}
	m := res.Value
	seen := make(map[string]struct{}, len(m.Modules))
	for i := range m.Modules {
		mod := &m.Modules[i]
		if mod.Namespace == "" {
			mod.Namespace = m.Namespace
		}
		mi, err := mod.Info()
		if err != nil {
			return nil, fmt.Errorf("%s: modules[%d]: %w", filename, i, err)
		}
		for _, d := range mod.Dependencies {
			if err := d.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %s: %w", filename, mi, err)
			}
		}
		key := mi.String()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%s: %w: %s", filename, ErrDuplicateModule, key)
		}
		seen[key] = struct{}{}
	}
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Info returns the exact descriptor of the entry.
func (m Module) Info() (module.Info, error) {
	mi := module.Info{Namespace: m.Namespace, Name: m.Name, Version: module.Exact(m.Version)}
	if err := mi.Validate(); err != nil {
		return module.Info{}, err
	}
	return mi, nil
}
