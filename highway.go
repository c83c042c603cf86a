// Package highway implements HighwayHash, a keyed pseudo-random function mapping an arbitrary
// byte string and a 256-bit secret to a 64-, 128-, or 256-bit digest. Multi-collisions are
// infeasible to construct without knowledge of the key, which makes it safe for hash tables
// exposed to adversarial input, and it fingerprints long inputs at a fraction of a cycle per
// byte. Three backends — a portable scalar one and two shaped after the SSE4.1 and AVX2
// implementations — produce bit-identical digests; the best one is chosen per call from the
// extensions the CPU reports.
package highway

import "github.com/p7r0x7/highway/isa"

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Key is the 256-bit secret, as four little-endian 64-bit lanes. It should remain unknown to
// attackers and is best initialized from a random source.
type Key [4]uint64

const packetSize = 32

/* The capability set every backend provides. All methods except clone mutate the state; a state
hashes exactly one byte string and must be recreated from a key to hash another. */
type state interface {
	update(packet []byte)
	updateRemainder(tail []byte, sizeMod32 uint64)
	finalize64() uint64
	finalize128() [2]uint64
	finalize256() [4]uint64
	clone() state
}

/* Backend selection happens once per call; detection itself runs once per process. */
func newState(key Key) state {
	switch flags := isa.Supported(); {
	case flags&isa.GroupAVX2 == isa.GroupAVX2:
		return newAVX2(key)
	case flags&isa.GroupSSE41 == isa.GroupSSE41:
		return newSSE41(key)
	}
	return newPortable(key)
}

// feed consumes whole 32-byte packets and hands any residue to the length-padded tail path. An
// input whose length is a multiple of 32 skips the tail entirely; it is distinguished from
// shorter inputs by its packet count alone. Exactly len(msg) bytes are read.
func feed(s state, msg []byte) {
	truncated := len(msg) & ^(packetSize - 1)
	for i := 0; i < truncated; i += packetSize {
		s.update(msg[i : i+packetSize])
	}
	if remainder := len(msg) - truncated; remainder != 0 {
		s.updateRemainder(msg[truncated:], uint64(remainder))
	}
}

// Hash64 returns the 64-bit HighwayHash of msg under key.
func Hash64(key Key, msg []byte) uint64 {
	s := newState(key)
	feed(s, msg)
	return s.finalize64()
}

// Hash128 returns the 128-bit HighwayHash of msg under key as two little-endian 64-bit lanes.
// It is not a prefix of the 256-bit digest; each width finalizes differently.
func Hash128(key Key, msg []byte) [2]uint64 {
	s := newState(key)
	feed(s, msg)
	return s.finalize128()
}

// Hash256 returns the 256-bit HighwayHash of msg under key as four little-endian 64-bit lanes.
func Hash256(key Key, msg []byte) [4]uint64 {
	s := newState(key)
	feed(s, msg)
	return s.finalize256()
}
