package highway

import "encoding/binary"

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// This file is the SSE4.1-shaped backend: the 4-lane state is split across lo/hi 128-bit register
// pairs, and the finalization permute is realized by reading the hi half where the lo half is
// written and vice versa. It is a drop-in match for the AVX2 backend.

/* Destination byte i of each 16-byte half is sourced from position zipper[i]. */
var zipper = [16]byte{3, 12, 2, 5, 14, 1, 15, 0, 11, 4, 10, 13, 9, 6, 8, 7}

type stateSSE41 struct {
	v0L, v0H, v1L, v1H         u64x2
	mul0L, mul0H, mul1L, mul1H u64x2
}

func newSSE41(key Key) *stateSSE41 {
	keyL, keyH := u64x2{key[0], key[1]}, u64x2{key[2], key[3]}
	init0L, init0H := u64x2{init0[0], init0[1]}, u64x2{init0[2], init0[3]}
	init1L, init1H := u64x2{init1[0], init1[1]}, u64x2{init1[2], init1[3]}
	return &stateSSE41{
		v0L: keyL.xor(init0L), v0H: keyH.xor(init0H),
		v1L: keyL.rot32each().xor(init1L), v1H: keyH.rot32each().xor(init1H),
		mul0L: init0L, mul0H: init0H, mul1L: init1L, mul1H: init1H,
	}
}

func (s *stateSSE41) update(packet []byte) {
	s.updateVec(loadU64x2(packet), loadU64x2(packet[16:]))
}

func (s *stateSSE41) updateVec(packetL, packetH u64x2) {
	s.v1L = s.v1L.add(packetL).add(s.mul0L)
	s.v1H = s.v1H.add(packetH).add(s.mul0H)
	s.mul0L = s.mul0L.xor(s.v1L.mul32(s.v0L.shr(32)))
	s.mul0H = s.mul0H.xor(s.v1H.mul32(s.v0H.shr(32)))
	s.v0L = s.v0L.add(s.mul1L)
	s.v0H = s.v0H.add(s.mul1H)
	s.mul1L = s.mul1L.xor(s.v0L.mul32(s.v1L.shr(32)))
	s.mul1H = s.mul1H.xor(s.v0H.mul32(s.v1H.shr(32)))
	s.v0L = s.v0L.add(s.v1L.shuffleBytes(&zipper))
	s.v0H = s.v0H.add(s.v1H.shuffleBytes(&zipper))
	s.v1L = s.v1L.add(s.v0L.shuffleBytes(&zipper))
	s.v1H = s.v1H.add(s.v0H.shuffleBytes(&zipper))
}

func (s *stateSSE41) updateRemainder(bytes []byte, sizeMod32 uint64) {
	mod32Pair := u64x2{sizeMod32<<32 + sizeMod32, sizeMod32<<32 + sizeMod32}
	s.v0L = s.v0L.add(mod32Pair)
	s.v0H = s.v0H.add(mod32Pair)
	s.v1L = s.v1L.rotl32(int(sizeMod32))
	s.v1H = s.v1H.rotl32(int(sizeMod32))

	if sizeMod32&16 != 0 { /* 16..31 bytes left */
		packetL := loadU64x2(bytes)
		/* Whole words past the first 16 bytes exist for word i only when sizeMod32 > 19+4i. */
		packetH := maskedLoadWords(bytes[16:], 16, sizeMod32)
		/* The top word of packetH is still zero; the final four bytes are inserted there. */
		packetH = packetH.insertWord3(binary.LittleEndian.Uint32(bytes[sizeMod32-4:]))
		s.updateVec(packetL, packetH)
	} else { /* 0..15 bytes left */
		packetL := maskedLoadWords(bytes, 0, sizeMod32)
		var last4 uint64
		if sizeMod4 := sizeMod32 & 3; sizeMod4 != 0 {
			/* {0, sizeMod4 >> 1, sizeMod4 - 1} ⊆ [0, sizeMod4). */
			final := bytes[sizeMod32 & ^uint64(3):]
			last4 = uint64(final[0]) + uint64(final[sizeMod4>>1])<<8 + uint64(final[sizeMod4-1])<<16
		}
		s.updateVec(packetL, u64x2{last4, 0})
	}
}

/* SSE4.1 cannot cross the 128-bit wall, so the cross-half permutation falls out of swapping which
half each operand is read from. */
func (s *stateSSE41) permuteAndUpdate() {
	s.updateVec(s.v0H.rot32each(), s.v0L.rot32each())
}

func (s *stateSSE41) finalize64() uint64 {
	for i := 4; i > 0; i-- {
		s.permuteAndUpdate()
	}
	sum0 := s.v0L.add(s.mul0L)
	sum1 := s.v1L.add(s.mul1L)
	return sum0[0] + sum1[0]
}

func (s *stateSSE41) finalize128() [2]uint64 {
	for i := 4; i > 0; i-- {
		s.permuteAndUpdate()
	}
	sum0 := s.v0L.add(s.mul0L)
	sum1 := s.v1H.add(s.mul1H)
	return [2]uint64{sum0[0] + sum1[0], sum0[1] + sum1[1]}
}

func (s *stateSSE41) finalize256() [4]uint64 {
	for i := 4; i > 0; i-- {
		s.permuteAndUpdate()
	}
	sum0L, sum1L := s.v0L.add(s.mul0L), s.v1L.add(s.mul1L)
	sum0H, sum1H := s.v0H.add(s.mul0H), s.v1H.add(s.mul1H)
	r1, r0 := modularReduction(sum1L[1], sum1L[0], sum0L[1], sum0L[0])
	r3, r2 := modularReduction(sum1H[1], sum1H[0], sum0H[1], sum0H[0])
	return [4]uint64{r0, r1, r2, r3}
}

func (s *stateSSE41) clone() state { t := *s; return &t }
