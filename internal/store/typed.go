// SPDX-License-Identifier: MPL-2.0

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// keySep separates composite key parts. Identifiers stored in keys never contain it.
const keySep = "\x00"

type (
	// Item is a single JSON-encoded value stored under a fixed key.
	Item[T any] struct {
		key []byte
	}

	// Map is a namespace of JSON-encoded values addressed by composite string keys.
	// Entries iterate in lexicographic order of their key parts.
	Map[V any] struct {
		namespace string
	}

	// Entry is one key-value pair returned by Map iteration.
	Entry[V any] struct {
		Key   []string
		Value V
	}
)

// NewItem declares an item stored under key.
func NewItem[T any](key string) Item[T] {
	return Item[T]{key: []byte(key)}
}

// Load returns the stored value or an error wrapping ErrNotFound.
func (i Item[T]) Load(s KVStore) (T, error) {
	v, ok, err := i.MayLoad(s)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%s: %w", i.key, ErrNotFound)
	}
	return v, nil
}

// MayLoad returns the stored value and whether it exists.
func (i Item[T]) MayLoad(s KVStore) (T, bool, error) {
	var v T
	raw, err := s.Get(i.key)
	if err != nil || raw == nil {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", i.key, err)
	}
	return v, true, nil
}

// Exists reports whether a value is stored.
func (i Item[T]) Exists(s KVStore) (bool, error) {
	return s.Has(i.key)
}

// Save stores v.
func (i Item[T]) Save(s KVStore, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", i.key, err)
	}
	return s.Set(i.key, raw)
}

// Remove deletes the stored value.
func (i Item[T]) Remove(s KVStore) error {
	return s.Delete(i.key)
}

// NewMap declares a map under namespace.
func NewMap[V any](namespace string) Map[V] {
	return Map[V]{namespace: namespace}
}

func (m Map[V]) rawKey(parts []string) []byte {
	return []byte(m.namespace + keySep + strings.Join(parts, keySep))
}

// prefix returns the key prefix shared by every entry whose key starts with parts.
func (m Map[V]) prefix(parts []string) []byte {
	if len(parts) == 0 {
		return []byte(m.namespace + keySep)
	}
	return append(m.rawKey(parts), keySep...)
}

func (m Map[V]) splitKey(raw []byte) []string {
	return strings.Split(strings.TrimPrefix(string(raw), m.namespace+keySep), keySep)
}

// Load returns the value at key or an error wrapping ErrNotFound.
func (m Map[V]) Load(s KVStore, key ...string) (V, error) {
	v, ok, err := m.MayLoad(s, key...)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%s[%s]: %w", m.namespace, strings.Join(key, ","), ErrNotFound)
	}
	return v, nil
}

// MayLoad returns the value at key and whether it exists.
func (m Map[V]) MayLoad(s KVStore, key ...string) (V, bool, error) {
	var v V
	raw, err := s.Get(m.rawKey(key))
	if err != nil || raw == nil {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s[%s]: %w", m.namespace, strings.Join(key, ","), err)
	}
	return v, true, nil
}

// Has reports whether key is present.
func (m Map[V]) Has(s KVStore, key ...string) (bool, error) {
	return s.Has(m.rawKey(key))
}

// Save stores v at key.
func (m Map[V]) Save(s KVStore, v V, key ...string) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s[%s]: %w", m.namespace, strings.Join(key, ","), err)
	}
	return s.Set(m.rawKey(key), raw)
}

// Remove deletes key.
func (m Map[V]) Remove(s KVStore, key ...string) error {
	return s.Delete(m.rawKey(key))
}

// Range visits entries whose key starts with prefix, in ascending order. When
// startAfter is set, iteration begins strictly after that full key. fn returns
// false to stop.
func (m Map[V]) Range(s KVStore, prefix []string, startAfter []string, fn func(key []string, v V) (bool, error)) error {
	scanStart := m.prefix(prefix)
	scanEnd := PrefixEnd(scanStart)
	if len(startAfter) > 0 {
		// The smallest key strictly greater than startAfter.
		after := append(m.rawKey(startAfter), 0x00)
		if string(after) > string(scanStart) {
			scanStart = after
		}
	}
	var stopErr error
	err := s.Scan(scanStart, scanEnd, func(k, raw []byte) error {
		var v V
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s: %w", m.namespace, err)
		}
		more, err := fn(m.splitKey(k), v)
		if err != nil {
			stopErr = err
			return ErrStopScan
		}
		if !more {
			return ErrStopScan
		}
		return nil
	})
	if err != nil {
		return err
	}
	return stopErr
}

// Entries collects up to limit entries (all when limit <= 0).
func (m Map[V]) Entries(s KVStore, prefix []string, startAfter []string, limit int) ([]Entry[V], error) {
	var out []Entry[V]
	err := m.Range(s, prefix, startAfter, func(key []string, v V) (bool, error) {
		out = append(out, Entry[V]{Key: key, Value: v})
		return limit <= 0 || len(out) < limit, nil
	})
	return out, err
}

// Clear removes every entry whose key starts with prefix.
func (m Map[V]) Clear(s KVStore, prefix ...string) error {
	var keys [][]byte
	err := ScanPrefix(s, m.prefix(prefix), func(k, _ []byte) error {
		keys = append(keys, append([]byte(nil), k...))
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
