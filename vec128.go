package highway

import (
	"encoding/binary"
	. "math/bits"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// This file models one 128-bit integer register as two little-endian 64-bit lanes; lane 0 is the
// least significant. Every operation matches the corresponding SSE4.1 instruction lane for lane,
// which is what allows the wider backends and the portable one to be checked against each other.

type u64x2 [2]uint64

func loadU64x2(b []byte) u64x2 {
	return u64x2{binary.LittleEndian.Uint64(b), binary.LittleEndian.Uint64(b[8:])}
}

func (v u64x2) add(o u64x2) u64x2 { return u64x2{v[0] + o[0], v[1] + o[1]} }

func (v u64x2) xor(o u64x2) u64x2 { return u64x2{v[0] ^ o[0], v[1] ^ o[1]} }

func (v u64x2) shr(n uint) u64x2 { return u64x2{v[0] >> n, v[1] >> n} }

/* The low 32 bits of each 64-bit lane of both operands, multiplied into full 64-bit products;
PMULUDQ. */
func (v u64x2) mul32(o u64x2) u64x2 {
	return u64x2{
		uint64(uint32(v[0])) * uint64(uint32(o[0])),
		uint64(uint32(v[1])) * uint64(uint32(o[1])),
	}
}

/* Swaps the 32-bit halves within each 64-bit lane; PSHUFD with (2, 3, 0, 1). */
func (v u64x2) rot32each() u64x2 {
	return u64x2{RotateLeft64(v[0], 32), RotateLeft64(v[1], 32)}
}

/* Rotates each 32-bit element left by n ∈ [0, 32) bits. */
func (v u64x2) rotl32(n int) u64x2 {
	var r u64x2
	for i := range v {
		lo := RotateLeft32(uint32(v[i]), n)
		hi := RotateLeft32(uint32(v[i]>>32), n)
		r[i] = uint64(hi)<<32 | uint64(lo)
	}
	return r
}

/* Byte-granularity permutation of the 16-byte register; PSHUFB with in-range control bytes. */
func (v u64x2) shuffleBytes(control *[16]byte) u64x2 {
	var src, dst [16]byte
	binary.LittleEndian.PutUint64(src[0:], v[0])
	binary.LittleEndian.PutUint64(src[8:], v[1])
	for i := 15; i >= 0; i-- {
		dst[i] = src[control[i]]
	}
	return loadU64x2(dst[:])
}

/* Replaces the most significant 32-bit element; PINSRD into word 3. */
func (v u64x2) insertWord3(x uint32) u64x2 {
	return u64x2{v[0], v[1]&0x00000000ffffffff | uint64(x)<<32}
}

// maskedLoadWords reads up to four whole little-endian 32-bit words from b, taking word i only
// when off+4(i+1) ≤ limit and leaving it zero otherwise, so that no byte at or past limit-off of b
// is touched; VPMASKMOVD with a computed whole-word predicate.
func maskedLoadWords(b []byte, off, limit uint64) u64x2 {
	var v u64x2
	for i := uint64(0); i < 4; i++ {
		if off+4*(i+1) <= limit {
			v[i>>1] |= uint64(binary.LittleEndian.Uint32(b[4*i:])) << (32 * (i & 1))
		}
	}
	return v
}
