// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

const maxAddrLength = 128

// ErrInvalidAddr is the sentinel error wrapped by InvalidAddrError.
var ErrInvalidAddr = errors.New("invalid address")

type (
	// Addr is the address of a contract or an externally owned account on the host.
	// Valid addresses are non-empty, at most 128 bytes and use only lowercase
	// ASCII letters, digits, '-' and '_'.
	Addr string

	// InvalidAddrError is returned when an Addr does not satisfy the address format.
	InvalidAddrError struct {
		Value  Addr
		Reason string
	}

	// AccountID is the sequential identifier the registry assigns to an account.
	// Account 0 is the framework's own account and owns the reserved namespace.
	AccountID uint32
)

// String returns the address as a string.
func (a Addr) String() string { return string(a) }

// IsEmpty reports whether the address is unset.
func (a Addr) IsEmpty() bool { return a == "" }

// Validate returns an error if the address is malformed.
func (a Addr) Validate() error {
	if a == "" {
		return &InvalidAddrError{Value: a, Reason: "address is empty"}
	}
	if len(a) > maxAddrLength {
		return &InvalidAddrError{Value: a, Reason: fmt.Sprintf("longer than %d bytes", maxAddrLength)}
	}
	for _, c := range string(a) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return &InvalidAddrError{Value: a, Reason: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidAddrError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidAddr for errors.Is() compatibility.
func (e *InvalidAddrError) Unwrap() error { return ErrInvalidAddr }

// String returns the decimal representation of the account id.
func (id AccountID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseAccountID parses a decimal account id.
func ParseAccountID(s string) (AccountID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid account id %q: %w", s, err)
	}
	return AccountID(n), nil
}
