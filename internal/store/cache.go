// SPDX-License-Identifier: MPL-2.0

package store

import (
	"bytes"
	"slices"
)

// Cache is a write-back branch over a parent store. Reads see the branch's own
// writes first; nothing reaches the parent until Write. Dropping a Cache without
// calling Write discards its writes. A Cache is not safe for concurrent use.
type Cache struct {
	parent KVStore
	// dirty maps keys to pending values; a nil value marks a delete.
	dirty map[string][]byte
}

// NewCache branches parent.
func NewCache(parent KVStore) *Cache {
	return &Cache{parent: parent, dirty: make(map[string][]byte)}
}

// Get reads through to the parent for keys the branch has not touched.
func (c *Cache) Get(key []byte) ([]byte, error) {
	if v, ok := c.dirty[string(key)]; ok {
		return bytes.Clone(v), nil
	}
	return c.parent.Get(key)
}

// Has reports whether key is present in the branch view.
func (c *Cache) Has(key []byte) (bool, error) {
	if v, ok := c.dirty[string(key)]; ok {
		return v != nil, nil
	}
	return c.parent.Has(key)
}

// Set records a pending write.
func (c *Cache) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	c.dirty[string(key)] = bytes.Clone(value)
	return nil
}

// Delete records a pending delete.
func (c *Cache) Delete(key []byte) error {
	c.dirty[string(key)] = nil
	return nil
}

// Scan merges the parent's keys with the branch's pending writes.
func (c *Cache) Scan(start, end []byte, fn func(key, value []byte) error) error {
	merged := make(map[string][]byte)
	err := c.parent.Scan(start, end, func(k, v []byte) error {
		merged[string(k)] = v
		return nil
	})
	if err != nil {
		return err
	}
	for k, v := range c.dirty {
		if !inRange([]byte(k), start, end) {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = bytes.Clone(v)
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := fn([]byte(k), merged[k]); err != nil {
			return stopped(err)
		}
	}
	return nil
}

// Write flushes pending writes to the parent and resets the branch. Parents that
// implement Batcher receive all writes in a single batch.
func (c *Cache) Write() error {
	if len(c.dirty) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.dirty))
	for k := range c.dirty {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ops := make([]Op, len(keys))
	for i, k := range keys {
		ops[i] = Op{Key: []byte(k), Value: c.dirty[k]}
	}

	if b, ok := c.parent.(Batcher); ok {
		if err := b.ApplyBatch(ops); err != nil {
			return err
		}
	} else {
		for _, op := range ops {
			var err error
			if op.Value == nil {
				err = c.parent.Delete(op.Key)
			} else {
				err = c.parent.Set(op.Key, op.Value)
			}
			if err != nil {
				return err
			}
		}
	}
	c.dirty = make(map[string][]byte)
	return nil
}

// ApplyBatch lets nested caches flush into this one.
func (c *Cache) ApplyBatch(ops []Op) error {
	for _, op := range ops {
		c.dirty[string(op.Key)] = bytes.Clone(op.Value)
	}
	return nil
}

// Discard drops pending writes.
func (c *Cache) Discard() {
	c.dirty = make(map[string][]byte)
}
