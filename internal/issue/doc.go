// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The catalog in this package holds Markdown guidance for
// failures an operator is expected to run into (undeployed state, namespace
// conflicts, unmet module dependencies, failed migrations) and renders it
// with glamour.
package issue
