// SPDX-License-Identifier: MPL-2.0

package module

import "fmt"

// Registry states of a published module version.
const (
	StatusPending    Status = "pending"
	StatusRegistered Status = "registered"
	StatusYanked     Status = "yanked"
)

// Status is the registry state of a module version. A version occupies exactly
// one status at a time.
type Status string

// String returns the status as a string.
func (s Status) String() string { return string(s) }

// Validate rejects unknown statuses.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusRegistered, StatusYanked:
		return nil
	default:
		return fmt.Errorf("unknown module status %q", string(s))
	}
}
