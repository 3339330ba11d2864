// SPDX-License-Identifier: MPL-2.0

// Package store provides the ordered key-value storage the host and the contracts
// run on.
//
// KVStore is the single storage abstraction. Cache branches a store so a call can
// be applied or discarded as a unit, Prefix scopes a store to one contract, and
// Item and Map give contracts typed, JSON-encoded access to their state.
package store
