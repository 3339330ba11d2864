// SPDX-License-Identifier: MPL-2.0

// Package module defines how modules are identified, referenced and described.
//
// A module is published under a namespace and a name, at an exact semantic version.
// The registry maps each published Info to a Reference that tells the host how to
// reach the module: by code id for modules that are instantiated per account
// (account base, apps, standalone contracts) or by address for shared instances
// (adapters and services). Installed modules describe themselves through Data and
// a ContractVersion, which the account manager reads back during upgrades.
package module
