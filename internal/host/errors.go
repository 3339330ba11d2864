// SPDX-License-Identifier: MPL-2.0

package host

import (
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/pkg/types"
)

var (
	// ErrUnknownContract is returned for addresses without a contract.
	ErrUnknownContract = errors.New("no such contract")
	// ErrUnknownCode is returned for code ids that were never stored.
	ErrUnknownCode = errors.New("no such code")
	// ErrUnknownBuilder is returned when stored code names an unregistered builder.
	ErrUnknownBuilder = errors.New("no such code builder")
	// ErrNotAdmin is returned when a non-admin migrates or re-administers a contract.
	ErrNotAdmin = errors.New("sender is not the contract admin")
	// ErrNotMigratable is returned when the new code has no migrate entry point.
	ErrNotMigratable = errors.New("contract does not support migration")
	// ErrNoReplyHandler is returned when a reply is due but the contract has no handler.
	ErrNoReplyHandler = errors.New("contract does not handle replies")
	// ErrCallDepth is returned when sub-messages nest too deeply.
	ErrCallDepth = errors.New("call depth exceeded")
	// ErrInvalidMsg is returned when a payload cannot be decoded.
	ErrInvalidMsg = errors.New("invalid message")
	// ErrUnknownMsg is returned by contracts for messages they do not handle.
	ErrUnknownMsg = errors.New("unknown message variant")
)

type (
	// ContractError wraps an error returned by a contract entry point.
	ContractError struct {
		Contract types.Addr
		Entry    string
		Variant  string
		Err      error
	}

	// SubMsgError reports a failed sub-message emitted by Contract.
	SubMsgError struct {
		Contract types.Addr
		Index    int
		ID       uint64
		Err      error
	}
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Variant != "" {
		return fmt.Sprintf("%s %s on %s: %v", e.Entry, e.Variant, e.Contract, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Entry, e.Contract, e.Err)
}

// Unwrap returns the contract's error.
func (e *ContractError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *SubMsgError) Error() string {
	return fmt.Sprintf("message %d emitted by %s failed: %v", e.Index, e.Contract, e.Err)
}

// Unwrap returns the sub-message's error.
func (e *SubMsgError) Unwrap() error { return e.Err }
