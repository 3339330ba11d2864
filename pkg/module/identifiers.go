// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"strings"
)

const (
	maxNameLength = 64

	// AbstractNamespace is reserved for framework contracts and administered by the
	// registry owner.
	AbstractNamespace Namespace = "abstract"

	// ManagerID identifies the account manager. It is the self-module of every account.
	ManagerID ID = "abstract:manager"
	// ProxyID identifies the asset-custody contract of an account. It can never be
	// uninstalled.
	ProxyID ID = "abstract:proxy"
	// RegistryID identifies the module registry.
	RegistryID ID = "abstract:registry"
	// FactoryID identifies the module factory.
	FactoryID ID = "abstract:module-factory"
)

var (
	// ErrInvalidName is the sentinel error wrapped by InvalidNameError.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidID is returned for module ids not in "namespace:name" form.
	ErrInvalidID = errors.New("invalid module id")
)

type (
	// Namespace is the publisher prefix of a module. Claiming a namespace grants an
	// account the right to publish modules under it.
	Namespace string

	// Name is the module name within a namespace.
	Name string

	// ID is the version-less module identifier "namespace:name".
	ID string

	// InvalidNameError is returned when a namespace or module name is malformed.
	InvalidNameError struct {
		Kind   string
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidName for errors.Is() compatibility.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// String returns the namespace as a string.
func (n Namespace) String() string { return string(n) }

// Validate checks the namespace against the naming rules. Namespaces also may
// not start or end with a hyphen.
func (n Namespace) Validate() error {
	if err := validateName("namespace", string(n)); err != nil {
		return err
	}
	if strings.HasPrefix(string(n), "-") || strings.HasSuffix(string(n), "-") {
		return &InvalidNameError{Kind: "namespace", Value: string(n), Reason: "must not start or end with a hyphen"}
	}
	return nil
}

// IsReserved reports whether the namespace belongs to the framework.
func (n Namespace) IsReserved() bool { return n == AbstractNamespace }

// String returns the name as a string.
func (n Name) String() string { return string(n) }

// Validate checks the name against the naming rules.
func (n Name) Validate() error { return validateName("module name", string(n)) }

// validateName enforces: non-empty, at most 64 bytes, lowercase ASCII
// alphanumerics and hyphens only.
func validateName(kind, s string) error {
	if s == "" {
		return &InvalidNameError{Kind: kind, Value: s, Reason: "must not be empty"}
	}
	if len(s) > maxNameLength {
		return &InvalidNameError{Kind: kind, Value: s, Reason: fmt.Sprintf("at most %d characters allowed", maxNameLength)}
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
		case c >= 'A' && c <= 'Z':
			return &InvalidNameError{Kind: kind, Value: s, Reason: "must be lowercase, expected " + strings.ToLower(s)}
		default:
			return &InvalidNameError{Kind: kind, Value: s, Reason: "only alphanumeric characters and hyphens are allowed"}
		}
	}
	return nil
}

// NewID joins a namespace and a name.
func NewID(ns Namespace, name Name) ID {
	return ID(string(ns) + ":" + string(name))
}

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// Split returns the namespace and name parts of the id.
func (id ID) Split() (Namespace, Name, error) {
	ns, name, ok := strings.Cut(string(id), ":")
	if !ok || strings.Contains(name, ":") {
		return "", "", fmt.Errorf("%w %q: expected namespace:name", ErrInvalidID, id)
	}
	return Namespace(ns), Name(name), nil
}

// Namespace returns the namespace part of the id, or "" if the id is malformed.
func (id ID) Namespace() Namespace {
	ns, _, _ := id.Split()
	return ns
}

// Validate checks both parts of the id.
func (id ID) Validate() error {
	ns, name, err := id.Split()
	if err != nil {
		return err
	}
	if err := ns.Validate(); err != nil {
		return err
	}
	return name.Validate()
}
