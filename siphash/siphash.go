// Package siphash implements the SipHash-2-4 and SipHash-1-3 pseudo-random functions and the
// four-lane SipTreeHash variant built from them. All three take little-endian keys and inputs
// and are keyed: without the key, multi-collisions are infeasible to construct.
package siphash

import (
	"encoding/binary"
	. "math/bits"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// Paper: https://www.131002.net/siphash/siphash.pdf

// Key is the 128-bit secret, as two little-endian 64-bit lanes.
type Key [2]uint64

const packetSize = 8

type state struct{ v0, v1, v2, v3 uint64 }

func newState(k0, k1 uint64) state {
	return state{
		0x736f6d6570736575 ^ k0,
		0x646f72616e646f6d ^ k1,
		0x6c7967656e657261 ^ k0,
		0x7465646279746573 ^ k1,
	}
}

/* The ARX network: add, rotate by 13/16/32/17/21/32, exclusive-or. */
func (s *state) compress(rounds int) {
	for ; rounds > 0; rounds-- {
		s.v0 += s.v1
		s.v2 += s.v3
		s.v1 = RotateLeft64(s.v1, 13)
		s.v3 = RotateLeft64(s.v3, 16)
		s.v1 ^= s.v0
		s.v3 ^= s.v2

		s.v0 = RotateLeft64(s.v0, 32)

		s.v2 += s.v1
		s.v0 += s.v3
		s.v1 = RotateLeft64(s.v1, 17)
		s.v3 = RotateLeft64(s.v3, 21)
		s.v1 ^= s.v2
		s.v3 ^= s.v0

		s.v2 = RotateLeft64(s.v2, 32)
	}
}

func (s *state) update(packet uint64, c int) {
	s.v3 ^= packet
	s.compress(c)
	s.v0 ^= packet
}

func (s *state) finalize(d int) uint64 {
	/* Mixing in bits avoids leaking the key when all packets were zero. */
	s.v2 ^= 0xff
	s.compress(d)
	return (s.v0 ^ s.v1) ^ (s.v2 ^ s.v3)
}

// The final packet is always injected: the residue is copied into a zeroed 8-byte buffer whose
// top byte carries size mod 256, so byte-equal inputs of different lengths diverge.
func sum(key Key, msg []byte, c, d int) uint64 {
	s := newState(key[0], key[1])
	truncated := len(msg) & ^(packetSize - 1)
	for i := 0; i < truncated; i += packetSize {
		s.update(binary.LittleEndian.Uint64(msg[i:]), c)
	}

	var final [packetSize]byte
	copy(final[:], msg[truncated:])
	final[packetSize-1] = byte(len(msg))
	s.update(binary.LittleEndian.Uint64(final[:]), c)
	return s.finalize(d)
}

// Sum64 returns the SipHash-2-4 of msg under key; it matches the Aumasson/Bernstein reference
// vectors.
func Sum64(key Key, msg []byte) uint64 { return sum(key, msg, 2, 4) }

// Sum13 returns the SipHash-1-3 of msg under key: half the compression rounds of SipHash-2-4 for
// callers that favor throughput over margin.
func Sum13(key Key, msg []byte) uint64 { return sum(key, msg, 1, 3) }
