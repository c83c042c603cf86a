// Package isa memoizes the instruction-set extensions usable by this process and
// groups them into the dispatch tiers the hash backends are written against.
package isa

import (
	"github.com/klauspost/cpuid/v2"
	"runtime"
	"sync/atomic"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Individual extension bits. Initialized is always set once detection has run so
// that "no extensions available" remains distinguishable from "not yet detected".
const (
	Initialized uint64 = 1 << iota
	SSE
	SSE2
	SSE3
	SSSE3
	SSE41
	SSE42
	POPCNT
	AVX
	AVX2
	FMA
	BMI1
	BMI2
	LZCNT
)

// GroupSSE41 and GroupAVX2 are the complete requirements of the respective
// backends; a tier is usable only if every bit of its group is set.
const (
	GroupSSE41 = SSE | SSE2 | SSE3 | SSSE3 | SSE41 | POPCNT
	GroupAVX2  = AVX | AVX2 | FMA | BMI1 | BMI2 | LZCNT
)

var features = [...]struct {
	id  cpuid.FeatureID
	bit uint64
}{
	{cpuid.SSE, SSE}, {cpuid.SSE2, SSE2}, {cpuid.SSE3, SSE3},
	{cpuid.SSSE3, SSSE3}, {cpuid.SSE4, SSE41}, {cpuid.SSE42, SSE42},
	{cpuid.POPCNT, POPCNT}, {cpuid.AVX, AVX}, {cpuid.AVX2, AVX2},
	{cpuid.FMA3, FMA}, {cpuid.BMI1, BMI1}, {cpuid.BMI2, BMI2},
	{cpuid.LZCNT, LZCNT},
}

/* 0 iff not yet initialized by Supported(). */
var bits uint64
var initCount int32

// Supported returns the bitmask of extensions available to this process,
// probing the CPU on first call and the memoized word thereafter. The first
// caller publishes the bits with a release store; losers of that race spin
// until the store lands rather than probing themselves, so every caller
// observes the same mask. cpuid has already consulted OSXSAVE/XCR0, meaning
// the SSE and AVX families are reported only when the OS preserves XMM and
// YMM state respectively.
func Supported() uint64 {
	flags := atomic.LoadUint64(&bits)
	if flags != 0 {
		return flags
	}

	if atomic.AddInt32(&initCount, 1) != 1 {
		for {
			if flags = atomic.LoadUint64(&bits); flags != 0 {
				return flags
			}
			runtime.Gosched()
		}
	}

	flags = Initialized
	for i := range features {
		if cpuid.CPU.Has(features[i].id) {
			flags |= features[i].bit
		}
	}
	atomic.StoreUint64(&bits, flags)
	return flags
}
