// SPDX-License-Identifier: MPL-2.0

package store

import (
	"bytes"
	"errors"
)

var (
	// ErrNotFound is returned by typed accessors when a key is absent.
	ErrNotFound = errors.New("not found")
	// ErrReadOnly is returned when writing through a read-only view.
	ErrReadOnly = errors.New("store is read-only")
	// ErrStopScan stops a Scan early without reporting an error.
	ErrStopScan = errors.New("stop scan")
)

type (
	// KVStore is an ordered byte key-value store. Get returns nil for missing keys.
	// Scan visits keys in [start, end) in ascending order; a nil end means no
	// upper bound. Returning ErrStopScan from fn ends the scan with a nil error.
	KVStore interface {
		Get(key []byte) ([]byte, error)
		Has(key []byte) (bool, error)
		Set(key, value []byte) error
		Delete(key []byte) error
		Scan(start, end []byte, fn func(key, value []byte) error) error
	}

	// Op is one write in a batch. A nil Value deletes Key.
	Op struct {
		Key   []byte
		Value []byte
	}

	// Batcher is implemented by stores that can apply several writes atomically.
	Batcher interface {
		ApplyBatch(ops []Op) error
	}
)

// PrefixEnd returns the smallest key greater than every key starting with prefix,
// or nil if no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// ScanPrefix visits every key starting with prefix in ascending order.
func ScanPrefix(s KVStore, prefix []byte, fn func(key, value []byte) error) error {
	return s.Scan(prefix, PrefixEnd(prefix), fn)
}

func inRange(key, start, end []byte) bool {
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	return end == nil || bytes.Compare(key, end) < 0
}

func stopped(err error) error {
	if errors.Is(err, ErrStopScan) {
		return nil
	}
	return err
}
