// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for abstract.
//
// The commands drive a framework deployment stored in the state directory:
// bootstrapping it, publishing and moderating modules in the registry,
// claiming namespaces, creating accounts and managing the modules installed
// on them, and serving the read-only HTTP API.
package cmd
