// SPDX-License-Identifier: MPL-2.0

package account

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abstractsdk/abstract/pkg/module"
)

var (
	// ErrModuleAlreadyInstalled is returned when installing an id that is present.
	ErrModuleAlreadyInstalled = errors.New("module is already installed")
	// ErrModuleNotInstalled is returned when an operation targets a missing id.
	ErrModuleNotInstalled = errors.New("module is not installed")
	// ErrProtectedModule is returned when uninstalling the account's own contracts.
	ErrProtectedModule = errors.New("module is part of the account base and cannot be removed")
	// ErrHasDependents is the sentinel error wrapped by HasDependentsError.
	ErrHasDependents = errors.New("module has dependents")
	// ErrMissingDependency is returned when a declared dependency is not installed.
	ErrMissingDependency = errors.New("dependency is not installed")
	// ErrAccountSuspended is returned for state-changing calls on a suspended account.
	ErrAccountSuspended = errors.New("account is suspended")
	// ErrNoUpdates is returned for an empty upgrade batch.
	ErrNoUpdates = errors.New("no modules to upgrade")
	// ErrDuplicateUpgrade is returned when a batch names a module twice.
	ErrDuplicateUpgrade = errors.New("module appears twice in upgrade batch")
	// ErrMigrationInProgress is returned when an upgrade starts before the previous
	// one was verified.
	ErrMigrationInProgress = errors.New("a migration is already in progress")
	// ErrOlderVersion is the sentinel error wrapped by OlderVersionError.
	ErrOlderVersion = errors.New("target version is older than the installed version")
	// ErrKindMismatch is returned when an upgrade changes the kind of a module.
	ErrKindMismatch = errors.New("upgrade changes module kind")
	// ErrNotUpgradeable is returned for module kinds that cannot be upgraded in place.
	ErrNotUpgradeable = errors.New("module kind cannot be upgraded")
	// ErrMissingMigrateMsg is returned when a kind that needs a migrate message has none.
	ErrMissingMigrateMsg = errors.New("migrate message required")
	// ErrModuleNotRegistered is returned when the registry reports a module that is
	// pending or yanked.
	ErrModuleNotRegistered = errors.New("module version is not registered")
	// ErrMigrationVerification is the sentinel error wrapped by VerificationError.
	ErrMigrationVerification = errors.New("post-migration verification failed")
)

type (
	// HasDependentsError lists the installed modules blocking an uninstall.
	HasDependentsError struct {
		Module     module.ID
		Dependents []module.ID
	}

	// OlderVersionError reports an upgrade to a lower version.
	OlderVersionError struct {
		Module  module.ID
		Current string
		Target  string
	}

	// VerificationError reports a failure detected after the code migrations of a
	// batch were applied. The migrations themselves cannot be undone by the callback.
	VerificationError struct {
		Module module.ID
		Err    error
	}
)

// Error implements the error interface.
func (e *HasDependentsError) Error() string {
	deps := make([]string, len(e.Dependents))
	for i, d := range e.Dependents {
		deps[i] = string(d)
	}
	return fmt.Sprintf("%s is required by %s", e.Module, strings.Join(deps, ", "))
}

// Unwrap returns ErrHasDependents for errors.Is() compatibility.
func (e *HasDependentsError) Unwrap() error { return ErrHasDependents }

// Error implements the error interface.
func (e *OlderVersionError) Error() string {
	return fmt.Sprintf("cannot upgrade %s from %s to %s", e.Module, e.Current, e.Target)
}

// Unwrap returns ErrOlderVersion for errors.Is() compatibility.
func (e *OlderVersionError) Unwrap() error { return ErrOlderVersion }

// Error implements the error interface.
func (e *VerificationError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrMigrationVerification, e.Module, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *VerificationError) Unwrap() []error { return []error{ErrMigrationVerification, e.Err} }
