package highway

import (
	"encoding/binary"
	"hash"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// This file contains the incremental append ("cat") wrapper around a compression state, plus
// hash.Hash adapters built on it. For any partition of a byte string into fragments, appending
// them in order yields the digest of the concatenation.

// Cat hashes a byte string delivered as arbitrarily-sized fragments. The zero value is unusable;
// obtain one from NewCat. A Cat must not be shared between goroutines during use.
type Cat struct {
	state state
	buf   [packetSize]byte
	usage int /* valid bytes at the head of buf, ∈ [0, 32) */
}

// NewCat returns an empty incremental hash under key.
func NewCat(key Key) *Cat { return &Cat{state: newState(key)} }

// Append absorbs fragment. Whole packets stream directly into the state; only a partial packet
// is ever buffered.
func (c *Cat) Append(fragment []byte) {
	if c.usage+len(fragment) < packetSize {
		c.usage += copy(c.buf[c.usage:], fragment)
		return
	}
	if c.usage != 0 {
		fragment = fragment[copy(c.buf[c.usage:], fragment):]
		c.state.update(c.buf[:])
		c.usage = 0
	}
	truncated := len(fragment) & ^(packetSize - 1)
	for i := 0; i < truncated; i += packetSize {
		c.state.update(fragment[i : i+packetSize])
	}
	c.usage = copy(c.buf[:], fragment[truncated:])
}

/* Sums drain a copy of the state through the tail path, so the Cat remains appendable. */
func (c *Cat) drain() state {
	s := c.state.clone()
	if c.usage != 0 {
		s.updateRemainder(c.buf[:c.usage], uint64(c.usage))
	}
	return s
}

// Sum64 returns the 64-bit digest of the bytes appended so far.
func (c *Cat) Sum64() uint64 { return c.drain().finalize64() }

// Sum128 returns the 128-bit digest of the bytes appended so far.
func (c *Cat) Sum128() [2]uint64 { return c.drain().finalize128() }

// Sum256 returns the 256-bit digest of the bytes appended so far.
func (c *Cat) Sum256() [4]uint64 { return c.drain().finalize256() }

type digest struct {
	cat  Cat
	key  Key
	size int
}

// New64 returns a hash.Hash64 computing the 64-bit HighwayHash under key.
func New64(key Key) hash.Hash64 { return &digest{cat: Cat{state: newState(key)}, key: key, size: 8} }

// New128 returns a hash.Hash computing the 128-bit HighwayHash under key.
func New128(key Key) hash.Hash { return &digest{cat: Cat{state: newState(key)}, key: key, size: 16} }

// New256 returns a hash.Hash computing the 256-bit HighwayHash under key.
func New256(key Key) hash.Hash { return &digest{cat: Cat{state: newState(key)}, key: key, size: 32} }

func (d *digest) Write(p []byte) (int, error) { d.cat.Append(p); return len(p), nil }

func (d *digest) Sum(b []byte) []byte {
	var out [32]byte
	switch d.size {
	case 8:
		binary.LittleEndian.PutUint64(out[:], d.cat.Sum64())
	case 16:
		r := d.cat.Sum128()
		binary.LittleEndian.PutUint64(out[0:], r[0])
		binary.LittleEndian.PutUint64(out[8:], r[1])
	default:
		r := d.cat.Sum256()
		for i := range r {
			binary.LittleEndian.PutUint64(out[i*8:], r[i])
		}
	}
	return append(b, out[:d.size]...)
}

func (d *digest) Sum64() uint64 { return d.cat.Sum64() }

func (d *digest) Reset() { d.cat = Cat{state: newState(d.key)} }

func (d *digest) Size() int { return d.size }

func (d *digest) BlockSize() int { return packetSize }
