package highway

import "encoding/binary"

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// This file is the AVX2-shaped backend: the full 4-lane state lives in single 256-bit registers,
// the zipper merge is a byte shuffle, and the finalization permute crosses the 128-bit halves in
// one operation.

type stateAVX2 struct {
	v0, v1, mul0, mul1 u64x4
}

func newAVX2(key Key) *stateAVX2 {
	k := u64x4(key)
	return &stateAVX2{
		v0:   k.xor(u64x4(init0)),
		v1:   k.rot32each().xor(u64x4(init1)),
		mul0: u64x4(init0),
		mul1: u64x4(init1),
	}
}

func (s *stateAVX2) update(packet []byte) { s.updateVec(loadU64x4(packet)) }

func (s *stateAVX2) updateVec(packet u64x4) {
	s.v1 = s.v1.add(packet).add(s.mul0)
	s.mul0 = s.mul0.xor(s.v1.mul32(s.v0.shr(32)))
	s.v0 = s.v0.add(s.mul1)
	s.mul1 = s.mul1.xor(s.v0.mul32(s.v1.shr(32)))
	s.v0 = s.v0.add(s.v1.shuffleBytes(&zipper))
	s.v1 = s.v1.add(s.v0.shuffleBytes(&zipper))
}

func (s *stateAVX2) updateRemainder(bytes []byte, sizeMod32 uint64) {
	/* Equivalent to broadcasting sizeMod32 into all eight 32-bit elements and adding. */
	pair := sizeMod32<<32 + sizeMod32
	s.v0 = s.v0.add(u64x4{pair, pair, pair, pair})
	s.v1 = s.v1.rotl32(int(sizeMod32))

	if sizeMod32&16 != 0 { /* 16..31 bytes left */
		packetL := loadU64x2(bytes)
		packetH := maskedLoadWords(bytes[16:], 16, sizeMod32)
		packetH = packetH.insertWord3(binary.LittleEndian.Uint32(bytes[sizeMod32-4:]))
		s.updateVec(concat(packetH, packetL))
	} else { /* 0..15 bytes left */
		packetL := maskedLoadWords(bytes, 0, sizeMod32)
		var last4 uint64
		if sizeMod4 := sizeMod32 & 3; sizeMod4 != 0 {
			/* {0, sizeMod4 >> 1, sizeMod4 - 1} ⊆ [0, sizeMod4). */
			final := bytes[sizeMod32 & ^uint64(3):]
			last4 = uint64(final[0]) + uint64(final[sizeMod4>>1])<<8 + uint64(final[sizeMod4-1])<<16
		}
		s.updateVec(concat(u64x2{last4, 0}, packetL))
	}
}

func (s *stateAVX2) finalize64() uint64 {
	for i := 4; i > 0; i-- {
		/* Permuting v0 mixes slightly better than v1; it is about to be added to v1. */
		s.updateVec(s.v0.permute())
	}
	sum0 := s.v0.add(s.mul0)
	sum1 := s.v1.add(s.mul1)
	/* Each lane is already well mixed; truncating to the low 64 bits suffices. */
	return sum0[0] + sum1[0]
}

func (s *stateAVX2) finalize128() [2]uint64 {
	for i := 4; i > 0; i-- {
		s.updateVec(s.v0.permute())
	}
	sum0 := s.v0.add(s.mul0)
	sum1 := s.v1.add(s.mul1)
	/* Low 128 bits of v0+mul0 plus the high 128 bits of v1+mul1. */
	return [2]uint64{sum0[0] + sum1[2], sum0[1] + sum1[3]}
}

func (s *stateAVX2) finalize256() [4]uint64 {
	for i := 4; i > 0; i-- {
		s.updateVec(s.v0.permute())
	}
	sum0 := s.v0.add(s.mul0)
	sum1 := s.v1.add(s.mul1)
	r1, r0 := modularReduction(sum1[1], sum1[0], sum0[1], sum0[0])
	r3, r2 := modularReduction(sum1[3], sum1[2], sum0[3], sum0[2])
	return [4]uint64{r0, r1, r2, r3}
}

func (s *stateAVX2) clone() state { t := *s; return &t }
