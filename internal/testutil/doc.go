// SPDX-License-Identifier: MPL-2.0

// Package testutil deploys the framework on an in-memory host for tests and
// wraps the queries tests assert on.
package testutil
