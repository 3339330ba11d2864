// SPDX-License-Identifier: MPL-2.0

// Package host is a minimal deterministic contract host.
//
// Contracts are Go values registered as code through named builders. Every
// top-level call runs in a cache branch of the root store and commits only if the
// call and every message it emits succeed. Messages returned in a Response run in
// emission order, each in its own branch; replies are delivered to the emitting
// contract before its call returns. Committed transactions are published on the
// event bus.
package host
