package highway

import (
	"encoding/binary"
	. "math/bits"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// This file models one 256-bit integer register as four little-endian 64-bit lanes; lane 0 is the
// least significant and lanes 0-1/2-3 form the lower/upper 128-bit halves. Operations match their
// AVX2 counterparts lane for lane.

type u64x4 [4]uint64

func loadU64x4(b []byte) u64x4 {
	return u64x4{
		binary.LittleEndian.Uint64(b),
		binary.LittleEndian.Uint64(b[8:]),
		binary.LittleEndian.Uint64(b[16:]),
		binary.LittleEndian.Uint64(b[24:]),
	}
}

/* Concatenates two 128-bit registers; VINSERTI128. */
func concat(hi, lo u64x2) u64x4 { return u64x4{lo[0], lo[1], hi[0], hi[1]} }

func (v u64x4) add(o u64x4) u64x4 {
	return u64x4{v[0] + o[0], v[1] + o[1], v[2] + o[2], v[3] + o[3]}
}

func (v u64x4) xor(o u64x4) u64x4 {
	return u64x4{v[0] ^ o[0], v[1] ^ o[1], v[2] ^ o[2], v[3] ^ o[3]}
}

func (v u64x4) shr(n uint) u64x4 {
	return u64x4{v[0] >> n, v[1] >> n, v[2] >> n, v[3] >> n}
}

/* VPMULUDQ. */
func (v u64x4) mul32(o u64x4) u64x4 {
	return u64x4{
		uint64(uint32(v[0])) * uint64(uint32(o[0])),
		uint64(uint32(v[1])) * uint64(uint32(o[1])),
		uint64(uint32(v[2])) * uint64(uint32(o[2])),
		uint64(uint32(v[3])) * uint64(uint32(o[3])),
	}
}

/* VPSHUFD with (2, 3, 0, 1). */
func (v u64x4) rot32each() u64x4 {
	return u64x4{
		RotateLeft64(v[0], 32), RotateLeft64(v[1], 32),
		RotateLeft64(v[2], 32), RotateLeft64(v[3], 32),
	}
}

/* Per-element variable 32-bit rotate built from VPSLLVD and VPSRLVD; n ∈ [0, 32). */
func (v u64x4) rotl32(n int) u64x4 {
	var r u64x4
	for i := range v {
		lo := RotateLeft32(uint32(v[i]), n)
		hi := RotateLeft32(uint32(v[i]>>32), n)
		r[i] = uint64(hi)<<32 | uint64(lo)
	}
	return r
}

/* VPSHUFB: the control indexes into each 16-byte half independently. */
func (v u64x4) shuffleBytes(control *[16]byte) u64x4 {
	lo := u64x2{v[0], v[1]}.shuffleBytes(control)
	hi := u64x2{v[2], v[3]}.shuffleBytes(control)
	return concat(hi, lo)
}

// permute swaps the upper and lower 128-bit halves while also swapping the 32-bit halves within
// each 64-bit lane; VPERMD with indices (2, 3, 0, 1, 6, 7, 4, 5). Used only at finalization.
func (v u64x4) permute() u64x4 {
	return u64x4{v[2], v[3], v[0], v[1]}.rot32each()
}
