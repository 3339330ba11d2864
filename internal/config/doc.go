// SPDX-License-Identifier: MPL-2.0

// Package config handles CLI configuration using Viper with CUE as the file format.
//
// Configuration is read from config.cue in the state directory (default
// ~/.abstract) or from an explicit file, validated against the embedded
// #Config schema and layered over the defaults. ABSTRACT_* environment
// variables override file values, e.g. ABSTRACT_LOG_LEVEL=debug.
package config
