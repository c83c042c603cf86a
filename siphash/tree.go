package siphash

import (
	"encoding/binary"
	"github.com/p7r0x7/highway/isa"
	. "math/bits"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// Tree hash extension: http://dx.doi.org/10.4236/jis.2014.53010
//
// Four independent SipHash-2-4 streams consume the four 8-byte words of each 32-byte packet in
// parallel ("j-lanes" hashing); their digests are reduced by one more single-lane SipHash. The
// scalar and wide renditions below must agree bit for bit — the wide one is a transcription of
// the AVX2 implementation onto 4-lane values.

const treePacketSize = 4 * packetSize
const numLanes = 4

// TreeSum64 returns the SipTreeHash of msg under the 256-bit key, dispatching to the wide
// rendition on CPUs with the full AVX2 group.
func TreeSum64(key [4]uint64, msg []byte) uint64 {
	if isa.Supported()&isa.GroupAVX2 == isa.GroupAVX2 {
		return treeSum64Wide(key, msg)
	}
	return treeSum64Scalar(key, msg)
}

/* Each lane's digest feeds one reducing SipHash keyed by the first two key lanes; the lane
digests are injected as raw packets with no further length padding. */
func reduce(key [4]uint64, hashes *[numLanes]uint64) uint64 {
	s := newState(key[0], key[1])
	for i := 0; i < numLanes; i++ {
		s.update(hashes[i], 2)
	}
	return s.finalize(4)
}

func treeSum64Scalar(key [4]uint64, msg []byte) uint64 {
	var states [numLanes]state
	for i := range states {
		states[i] = newState(key[i]^uint64(numLanes|i), key[i]^uint64(numLanes|i))
	}

	remainder := len(msg) & (treePacketSize - 1)
	truncated := len(msg) - remainder
	for i := 0; i < truncated; i += treePacketSize {
		for lane := 0; lane < numLanes; lane++ {
			states[lane].update(binary.LittleEndian.Uint64(msg[i+lane*packetSize:]), 2)
		}
	}

	/* The final 32-byte packet is always injected. Unlike the 8-byte SipHash padding, the packet
	carries remainder<<24 plus the last 0..3 bytes in its top 32-bit word. */
	rem4 := remainder & 3
	packet4 := uint32(remainder) << 24
	final := msg[len(msg)-rem4:]
	for i := 0; i < rem4; i++ {
		packet4 += uint32(final[i]) << (i * 8)
	}
	var packet [treePacketSize]byte
	copy(packet[:], msg[truncated:truncated+remainder-rem4])
	binary.LittleEndian.PutUint32(packet[treePacketSize-4:], packet4)
	for lane := 0; lane < numLanes; lane++ {
		states[lane].update(binary.LittleEndian.Uint64(packet[lane*packetSize:]), 2)
	}

	var hashes [numLanes]uint64
	for lane := range hashes {
		hashes[lane] = states[lane].finalize(4)
	}
	return reduce(key, &hashes)
}

/* 4-lane values standing in for one 256-bit register; lane 0 is least significant. */
type v4 [4]uint64

func (v v4) add(o v4) v4 { return v4{v[0] + o[0], v[1] + o[1], v[2] + o[2], v[3] + o[3]} }

func (v v4) xor(o v4) v4 { return v4{v[0] ^ o[0], v[1] ^ o[1], v[2] ^ o[2], v[3] ^ o[3]} }

/* Rotations by 16 and 32 are byte and word shuffles on AVX2; the result is the same per-lane
rotate. */
func (v v4) rotl(n int) v4 {
	return v4{RotateLeft64(v[0], n), RotateLeft64(v[1], n), RotateLeft64(v[2], n), RotateLeft64(v[3], n)}
}

func broadcast(x uint64) v4 { return v4{x, x, x, x} }

type treeState struct{ v0, v1, v2, v3 v4 }

func newTreeState(key [4]uint64) treeState {
	k := v4{key[0] ^ (numLanes | 0), key[1] ^ (numLanes | 1),
		key[2] ^ (numLanes | 2), key[3] ^ (numLanes | 3)}
	return treeState{
		v0: broadcast(0x736f6d6570736575).xor(k),
		v1: broadcast(0x646f72616e646f6d).xor(k),
		v2: broadcast(0x6c7967656e657261).xor(k),
		v3: broadcast(0x7465646279746573).xor(k),
	}
}

func (t *treeState) compress(rounds int) {
	for ; rounds > 0; rounds-- {
		t.v0 = t.v0.add(t.v1)
		t.v2 = t.v2.add(t.v3)
		t.v1 = t.v1.rotl(13)
		t.v3 = t.v3.rotl(16)
		t.v1 = t.v1.xor(t.v0)
		t.v3 = t.v3.xor(t.v2)

		t.v0 = t.v0.rotl(32)

		t.v2 = t.v2.add(t.v1)
		t.v0 = t.v0.add(t.v3)
		t.v1 = t.v1.rotl(17)
		t.v3 = t.v3.rotl(21)
		t.v1 = t.v1.xor(t.v2)
		t.v3 = t.v3.xor(t.v0)

		t.v2 = t.v2.rotl(32)
	}
}

func (t *treeState) update(packet v4) {
	t.v3 = t.v3.xor(packet)
	t.compress(2)
	t.v0 = t.v0.xor(packet)
}

func (t *treeState) finalize() [numLanes]uint64 {
	t.v2 = t.v2.xor(broadcast(0xff))
	t.compress(4)
	return t.v0.xor(t.v1).xor(t.v2).xor(t.v3)
}

// loadFinalPacket32 assembles the length-padded last packet from the 0..31 remaining bytes:
// masked loads take any whole 32-bit words without touching bytes past the input, and the top
// word carries remainder<<24 plus the last 0..3 bytes.
func loadFinalPacket32(tail []byte, remainder int) v4 {
	var packet v4
	remaining32 := remainder >> 2 /* 0..7 whole words */
	for i := 0; i < remaining32; i++ {
		packet[i>>1] |= uint64(binary.LittleEndian.Uint32(tail[4*i:])) << (32 * (i & 1))
	}

	rem4 := remainder & 3
	packet4 := uint32(remainder) << 24
	final := tail[remaining32*4:]
	for i := 0; i < rem4; i++ {
		packet4 += uint32(final[i]) << (i * 8)
	}
	packet[3] |= uint64(packet4) << 32
	return packet
}

func treeSum64Wide(key [4]uint64, msg []byte) uint64 {
	t := newTreeState(key)

	remainder := len(msg) & (treePacketSize - 1)
	truncated := len(msg) - remainder
	for i := 0; i < truncated; i += treePacketSize {
		t.update(v4{
			binary.LittleEndian.Uint64(msg[i:]),
			binary.LittleEndian.Uint64(msg[i+8:]),
			binary.LittleEndian.Uint64(msg[i+16:]),
			binary.LittleEndian.Uint64(msg[i+24:]),
		})
	}
	t.update(loadFinalPacket32(msg[truncated:], remainder))

	hashes := t.finalize()
	return reduce(key, &hashes)
}
