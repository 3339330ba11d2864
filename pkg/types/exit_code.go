// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

// Exit codes returned by the abstract CLI.
const (
	ExitOK ExitCode = 0
	// ExitFailure is any error without a more specific code.
	ExitFailure ExitCode = 1
	// ExitUsage reports invalid arguments or flags.
	ExitUsage ExitCode = 2
	// ExitNotDeployed means the state directory holds no deployment.
	ExitNotDeployed ExitCode = 3
	// ExitRejected means a contract rejected the transaction.
	ExitRejected ExitCode = 4
	// ExitVerificationFailed means a module upgrade failed post-migration
	// verification and was reverted.
	ExitVerificationFailed ExitCode = 5
)

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// IsRejection reports whether the code means the chain refused a transaction.
func (c ExitCode) IsRejection() bool { return c == ExitRejected || c == ExitVerificationFailed }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
