// SPDX-License-Identifier: MPL-2.0

package store

import "bytes"

// Prefixed scopes a parent store to keys under a fixed prefix. Keys passed in and
// out are relative to the prefix.
type Prefixed struct {
	parent KVStore
	prefix []byte
}

// NewPrefixed scopes parent to prefix.
func NewPrefixed(parent KVStore, prefix []byte) *Prefixed {
	return &Prefixed{parent: parent, prefix: bytes.Clone(prefix)}
}

func (p *Prefixed) key(k []byte) []byte {
	full := make([]byte, 0, len(p.prefix)+len(k))
	full = append(full, p.prefix...)
	return append(full, k...)
}

// Get reads a relative key.
func (p *Prefixed) Get(key []byte) ([]byte, error) { return p.parent.Get(p.key(key)) }

// Has checks a relative key.
func (p *Prefixed) Has(key []byte) (bool, error) { return p.parent.Has(p.key(key)) }

// Set writes a relative key.
func (p *Prefixed) Set(key, value []byte) error { return p.parent.Set(p.key(key), value) }

// Delete removes a relative key.
func (p *Prefixed) Delete(key []byte) error { return p.parent.Delete(p.key(key)) }

// Scan visits relative keys in [start, end).
func (p *Prefixed) Scan(start, end []byte, fn func(key, value []byte) error) error {
	var fullEnd []byte
	if end == nil {
		fullEnd = PrefixEnd(p.prefix)
	} else {
		fullEnd = p.key(end)
	}
	return p.parent.Scan(p.key(start), fullEnd, func(k, v []byte) error {
		return fn(k[len(p.prefix):], v)
	})
}

// ReadOnly wraps a store so that writes fail with ErrReadOnly.
type ReadOnly struct {
	KVStore
}

// NewReadOnly wraps s.
func NewReadOnly(s KVStore) ReadOnly { return ReadOnly{KVStore: s} }

// Set always fails.
func (ReadOnly) Set(_, _ []byte) error { return ErrReadOnly }

// Delete always fails.
func (ReadOnly) Delete(_ []byte) error { return ErrReadOnly }
