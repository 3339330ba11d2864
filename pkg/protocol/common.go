// SPDX-License-Identifier: MPL-2.0

package protocol

import (
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/pkg/types"
)

const (
	// DefaultPageLimit is the page size of list queries when no limit is given.
	DefaultPageLimit = 10
	// MaxPageLimit caps the page size of list queries.
	MaxPageLimit = 20
)

var (
	// ErrUnauthorized is the sentinel error wrapped by UnauthorizedError.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoVariant is returned when a message sets no variant.
	ErrNoVariant = errors.New("message has no variant set")
)

type (
	// AccountBase is the pair of contracts making up an account.
	AccountBase struct {
		Manager types.Addr `json:"manager"`
		Proxy   types.Addr `json:"proxy"`
	}

	// UnauthorizedError reports a caller lacking the role an action requires.
	UnauthorizedError struct {
		Sender types.Addr
		Action string
		Role   string
	}

	// Empty is the payload of variants without parameters.
	Empty struct{}
)

// Error implements the error interface.
func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s may not %s: caller is not the %s", e.Sender, e.Action, e.Role)
}

// Unwrap returns ErrUnauthorized for errors.Is() compatibility.
func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// Unauthorized builds an UnauthorizedError.
func Unauthorized(sender types.Addr, action, role string) error {
	return &UnauthorizedError{Sender: sender, Action: action, Role: role}
}

// PageLimit clamps an optional page size. Zero selects the default.
func PageLimit(limit *uint32) int {
	if limit == nil || *limit == 0 {
		return DefaultPageLimit
	}
	return min(int(*limit), MaxPageLimit)
}
