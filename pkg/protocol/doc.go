// SPDX-License-Identifier: MPL-2.0

// Package protocol defines the JSON messages exchanged between the framework
// contracts: the module registry, the account manager and proxy, the module
// factory, adapters and apps.
//
// Every execute and query message is a struct of optional variant pointers. Exactly
// one variant is set per message and it is encoded as a single-key JSON object,
// for example {"claim_namespace":{"account_id":1,"namespace":"acme"}}.
package protocol
