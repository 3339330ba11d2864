// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/types"
)

var (
	// ErrModuleNotFound is the sentinel error wrapped by ModuleNotFoundError.
	ErrModuleNotFound = errors.New("module not found")
	// ErrDuplicateModule is the sentinel error wrapped by DuplicateModuleError.
	ErrDuplicateModule = errors.New("module version already published")
	// ErrAdminMustBeNone is returned when an adapter instance still has a migration admin.
	ErrAdminMustBeNone = errors.New("adapter instances must not have an admin")
	// ErrUnknownNamespace is returned for namespaces nobody claimed.
	ErrUnknownNamespace = errors.New("namespace not claimed")
	// ErrNamespaceOccupied is the sentinel error wrapped by NamespaceOccupiedError.
	ErrNamespaceOccupied = errors.New("namespace already claimed")
	// ErrExceedsNamespaceLimit is returned when an account already holds its quota of namespaces.
	ErrExceedsNamespaceLimit = errors.New("namespace limit reached")
	// ErrInvalidFee is returned when the funds sent do not match the required fee.
	ErrInvalidFee = errors.New("invalid fee")
	// ErrAccountExists is returned when an account id is registered twice.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is returned for unknown account ids.
	ErrAccountNotFound = errors.New("account not found")
	// ErrRedundantInitFunds is returned when instantiation funds are set on a module
	// that is never instantiated per account.
	ErrRedundantInitFunds = errors.New("instantiation funds are only valid for apps and standalones")
	// ErrReservedNamespace is returned when a reserved namespace would change hands.
	ErrReservedNamespace = errors.New("namespace is reserved")
	// ErrAccountBaseNamespace is returned when account code is published outside the
	// reserved namespace.
	ErrAccountBaseNamespace = errors.New("account code can only be published under the reserved namespace")
)

type (
	// ModuleNotFoundError reports a descriptor with no entry in the expected state.
	ModuleNotFoundError struct {
		Module module.Info
		Status module.Status
	}

	// DuplicateModuleError reports a proposal for a version that is already known.
	DuplicateModuleError struct {
		Module module.Info
		Status module.Status
	}

	// NamespaceOccupiedError reports a namespace held by another account.
	NamespaceOccupiedError struct {
		Namespace module.Namespace
		AccountID types.AccountID
	}
)

// Error implements the error interface.
func (e *ModuleNotFoundError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("module %s not found", e.Module)
	}
	return fmt.Sprintf("module %s not found among %s modules", e.Module, e.Status)
}

// Unwrap returns ErrModuleNotFound for errors.Is() compatibility.
func (e *ModuleNotFoundError) Unwrap() error { return ErrModuleNotFound }

// Error implements the error interface.
func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module %s is already %s", e.Module, e.Status)
}

// Unwrap returns ErrDuplicateModule for errors.Is() compatibility.
func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// Error implements the error interface.
func (e *NamespaceOccupiedError) Error() string {
	return fmt.Sprintf("namespace %q is already claimed by account %s", e.Namespace, e.AccountID)
}

// Unwrap returns ErrNamespaceOccupied for errors.Is() compatibility.
func (e *NamespaceOccupiedError) Unwrap() error { return ErrNamespaceOccupied }
