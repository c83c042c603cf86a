package highway

import (
	"encoding/binary"
	. "math/bits"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// This file is the scalar reference backend. It carries the same four 4-lane registers as the
// vector backends and must remain bit-identical to them for every key and input; the wider
// backends are only ever reorderings of this arithmetic.

/* Concatenated hex digits of Pi; lane 0 of each register (listed first) balances the bit mixture of
the other three. */
var init0 = lanes{0xdbe6d5d5fe4cce2f, 0xa4093822299f31d0, 0x13198a2e03707344, 0x243f6a8885a308d3}
var init1 = lanes{0x3bd39e10cb0ef593, 0xc0acf169b5f18a8c, 0xbe5466cf34e90c6c, 0x452821e638d01377}

type lanes [4]uint64

type statePortable struct {
	v0, v1, mul0, mul1 lanes
}

func newPortable(key Key) *statePortable {
	s := statePortable{mul0: init0, mul1: init1}
	for i := range key {
		s.v0[i] = init0[i] ^ key[i]
		s.v1[i] = init1[i] ^ RotateLeft64(key[i], 32)
	}
	return &s
}

func (s *statePortable) update(packet []byte) {
	s.updateLanes(lanes{
		binary.LittleEndian.Uint64(packet),
		binary.LittleEndian.Uint64(packet[8:]),
		binary.LittleEndian.Uint64(packet[16:]),
		binary.LittleEndian.Uint64(packet[24:]),
	})
}

func (s *statePortable) updateLanes(packet lanes) {
	for i := range packet {
		s.v1[i] += packet[i] + s.mul0[i]
		s.mul0[i] ^= uint64(uint32(s.v1[i])) * (s.v0[i] >> 32)
		s.v0[i] += s.mul1[i]
		s.mul1[i] ^= uint64(uint32(s.v0[i])) * (s.v1[i] >> 32)
	}
	zipperMergeAndAdd(s.v1[1], s.v1[0], &s.v0[1], &s.v0[0])
	zipperMergeAndAdd(s.v1[3], s.v1[2], &s.v0[3], &s.v0[2])
	zipperMergeAndAdd(s.v0[1], s.v0[0], &s.v1[1], &s.v1[0])
	zipperMergeAndAdd(s.v0[3], s.v0[2], &s.v1[3], &s.v1[2])
}

/* Clears all bits except one byte at the given offset. */
func mask(v uint64, bytes uint) uint64 { return v & (0xff << (bytes * 8)) }

// zipperMergeAndAdd is the scalar rendition of the 16-byte shuffle: shifting beats byte loads
// here. The well-mixed middle bytes of the prior multiplication cross the 64-bit lane boundary
// while the poorly-mixed end bytes land in the upper 32 bits, which the next round's 32×32
// multiplication discards.
func zipperMergeAndAdd(v1, v0 uint64, add1, add0 *uint64) {
	*add0 += ((mask(v0, 3) + mask(v1, 4)) >> 24) +
		((mask(v0, 5) + mask(v1, 6)) >> 16) + mask(v0, 2) +
		(mask(v0, 1) << 32) + (mask(v1, 7) >> 8) + (v0 << 56)

	*add1 += ((mask(v1, 3) + mask(v0, 4)) >> 24) + mask(v1, 2) +
		(mask(v1, 5) >> 16) + (mask(v1, 1) << 24) + (mask(v0, 6) >> 8) +
		(mask(v1, 0) << 48) + mask(v0, 7)
}

func (s *statePortable) updateRemainder(bytes []byte, sizeMod32 uint64) {
	/* Length padding: injecting size mod 32 separates zero-valued inputs that share the same
	packet count. mod32 suffices because every update behaves as if a counter were injected. */
	mod32Pair := sizeMod32<<32 + sizeMod32
	for i := range s.v0 {
		s.v0[i] += mod32Pair
	}
	for i := range s.v1 { /* Boosts the avalanche effect of mod32. */
		lo := RotateLeft32(uint32(s.v1[i]), int(sizeMod32))
		hi := RotateLeft32(uint32(s.v1[i]>>32), int(sizeMod32))
		s.v1[i] = uint64(hi)<<32 | uint64(lo)
	}

	var packet [32]byte
	copy(packet[:], bytes[:sizeMod32 & ^uint64(3)])

	if sizeMod32&16 != 0 { /* 16..31 bytes left */
		/* The last 0..3 bytes and previous 1..4 land in the upper bits of the top word. */
		copy(packet[28:], bytes[sizeMod32-4:sizeMod32])
	} else if sizeMod4 := sizeMod32 & 3; sizeMod4 != 0 { /* 0..15 bytes left */
		/* {0, sizeMod4 >> 1, sizeMod4 - 1} ⊆ [0, sizeMod4), so these reads stay in bounds. */
		final := bytes[sizeMod32 & ^uint64(3):]
		last4 := uint64(final[0]) + uint64(final[sizeMod4>>1])<<8 + uint64(final[sizeMod4-1])<<16
		binary.LittleEndian.PutUint64(packet[16:], last4)
	}
	s.update(packet[:])
}

func (s *statePortable) permuteAndUpdate() {
	s.updateLanes(lanes{
		RotateLeft64(s.v0[2], 32), RotateLeft64(s.v0[3], 32),
		RotateLeft64(s.v0[0], 32), RotateLeft64(s.v0[1], 32),
	})
}

func (s *statePortable) finalize64() uint64 {
	for i := 4; i > 0; i-- {
		s.permuteAndUpdate()
	}
	return s.v0[0] + s.v1[0] + s.mul0[0] + s.mul1[0]
}

func (s *statePortable) finalize128() [2]uint64 {
	for i := 4; i > 0; i-- {
		s.permuteAndUpdate()
	}
	return [2]uint64{
		s.v0[0] + s.mul0[0] + s.v1[2] + s.mul1[2],
		s.v0[1] + s.mul0[1] + s.v1[3] + s.mul1[3],
	}
}

func (s *statePortable) finalize256() [4]uint64 {
	for i := 4; i > 0; i-- {
		s.permuteAndUpdate()
	}
	r1, r0 := modularReduction(
		s.v1[1]+s.mul1[1], s.v1[0]+s.mul1[0], s.v0[1]+s.mul0[1], s.v0[0]+s.mul0[0])
	r3, r2 := modularReduction(
		s.v1[3]+s.mul1[3], s.v1[2]+s.mul1[2], s.v0[3]+s.mul0[3], s.v0[2]+s.mul0[2])
	return [4]uint64{r0, r1, r2, r3}
}

func (s *statePortable) clone() state { t := *s; return &t }

/* Shifts the 128-bit value (a1, a0) left by k bits; the upper bits of a0 move into a1. */
func shift128Left(a1, a0 uint64, k uint) (uint64, uint64) {
	return a1<<k | a0>>(64-k), a0 << k
}

// modularReduction folds the 256-bit value (a3, a2, a1, a0) into 128 bits using the irreducible
// polynomial x^128 + x^2 + x. The top two bits of a3 must be cleared first or the shifted forms
// would lose them and the result would no longer be a reduction.
func modularReduction(a3Unmasked, a2, a1, a0 uint64) (m1, m0 uint64) {
	a3 := a3Unmasked & 0x3fffffffffffffff
	s1hi, s1lo := shift128Left(a3, a2, 1)
	s2hi, s2lo := shift128Left(a3, a2, 2)
	return a1 ^ s1hi ^ s2hi, a0 ^ s1lo ^ s2lo
}
