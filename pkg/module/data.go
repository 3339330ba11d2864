// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	// ErrUnmetRequirement is the sentinel error wrapped by UnmetRequirementError.
	ErrUnmetRequirement = errors.New("version requirement not met")
	// ErrContractNameMismatch is returned when a migration targets different code.
	ErrContractNameMismatch = errors.New("contract name mismatch")
	// ErrCannotDowngrade is returned when a migration does not increase the version.
	ErrCannotDowngrade = errors.New("cannot downgrade contract")
)

type (
	// Dependency is a module a module relies on, with semver requirements that the
	// installed version of ID must satisfy. All requirements must hold.
	Dependency struct {
		ID         ID       `json:"id"`
		VersionReq []string `json:"version_req,omitempty"`
	}

	// Data is the self-description a module stores at instantiation.
	Data struct {
		Module       ID           `json:"module"`
		Version      string       `json:"version"`
		Dependencies []Dependency `json:"dependencies,omitempty"`
		Metadata     string       `json:"metadata,omitempty"`
	}

	// ContractVersion is the contract-name and version pair every module exposes
	// for introspection.
	ContractVersion struct {
		Contract string `json:"contract"`
		Version  string `json:"version"`
	}

	// UnmetRequirementError reports a dependency whose installed version does not
	// satisfy a requirement.
	UnmetRequirementError struct {
		Dependency  ID
		Version     string
		Requirement string
	}

	// UpgradeError reports a rejected code migration.
	UpgradeError struct {
		Contract string
		From     string
		To       string
		Err      error
	}
)

// Error implements the error interface.
func (e *UnmetRequirementError) Error() string {
	return fmt.Sprintf("dependency %s at version %s does not satisfy %q", e.Dependency, e.Version, e.Requirement)
}

// Unwrap returns ErrUnmetRequirement for errors.Is() compatibility.
func (e *UnmetRequirementError) Unwrap() error { return ErrUnmetRequirement }

// Error implements the error interface.
func (e *UpgradeError) Error() string {
	return fmt.Sprintf("cannot migrate %s from %s to %s: %v", e.Contract, e.From, e.To, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *UpgradeError) Unwrap() error { return e.Err }

// Validate checks the id and every requirement.
func (d Dependency) Validate() error {
	if err := d.ID.Validate(); err != nil {
		return err
	}
	for _, req := range d.VersionReq {
		if _, err := semver.NewConstraint(req); err != nil {
			return fmt.Errorf("dependency %s: invalid requirement %q: %w", d.ID, req, err)
		}
	}
	return nil
}

// Check asserts that version satisfies every requirement of the dependency.
func (d Dependency) Check(version string) error {
	v, err := ParseVersion(version)
	if err != nil {
		return err
	}
	for _, req := range d.VersionReq {
		c, err := semver.NewConstraint(req)
		if err != nil {
			return fmt.Errorf("dependency %s: invalid requirement %q: %w", d.ID, req, err)
		}
		if !c.Check(v) {
			return &UnmetRequirementError{Dependency: d.ID, Version: version, Requirement: req}
		}
	}
	return nil
}

// String renders "id" or "id (req1, req2)".
func (d Dependency) String() string {
	if len(d.VersionReq) == 0 {
		return string(d.ID)
	}
	return fmt.Sprintf("%s (%s)", d.ID, strings.Join(d.VersionReq, ", "))
}

// DependencyIDs returns the ids of deps in declaration order.
func DependencyIDs(deps []Dependency) []ID {
	ids := make([]ID, len(deps))
	for i, d := range deps {
		ids[i] = d.ID
	}
	return ids
}

// Validate checks the module id, version and declared dependencies.
func (d Data) Validate() error {
	if err := d.Module.Validate(); err != nil {
		return err
	}
	if _, err := ParseVersion(d.Version); err != nil {
		return err
	}
	for _, dep := range d.Dependencies {
		if err := dep.Validate(); err != nil {
			return err
		}
		if dep.ID == d.Module {
			return fmt.Errorf("module %s cannot depend on itself", d.Module)
		}
	}
	return nil
}

// AssertContractUpgrade checks that from can be migrated to (toContract, toVersion):
// the contract name must match and the version must strictly increase.
func AssertContractUpgrade(from ContractVersion, toContract, toVersion string) error {
	if from.Contract != toContract {
		return &UpgradeError{Contract: from.Contract, From: from.Contract, To: toContract, Err: ErrContractNameMismatch}
	}
	cmp, err := CompareVersions(toVersion, from.Version)
	if err != nil {
		return err
	}
	if cmp <= 0 {
		return &UpgradeError{Contract: from.Contract, From: from.Version, To: toVersion, Err: ErrCannotDowngrade}
	}
	return nil
}
