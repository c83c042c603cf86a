package main

import (
	"fmt"
	"github.com/aead/chacha20/chacha"
	"github.com/dterei/gotsc"
	"github.com/minio/sha256-simd"
	"github.com/p7r0x7/highway"
	"github.com/p7r0x7/highway/siphash"
	"github.com/zeebo/blake3"
	"runtime"
	"testing"
	"time"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// Statz measures the throughput and — on amd64, via the time-stamp counter — the cycles-per-byte
// of the hashes in this module against fast cryptographic baselines.

var (
	size   int64
	rBytes []byte
	key    = highway.Key{0x0706050403020100, 0x0f0e0d0c0b0a0908,
		0x1716151413121110, 0x1f1e1d1c1b1a1918}
	sizes = []int64{
		64,
		1 << 10,
		512 << 10,
		64 << 20,
	}
	names = []string{
		"Highway-64 ",
		"SipHash-2-4",
		"SipTree    ",
		"BLAKE3-256 ",
		"SHA-256    ",
	}
	fn = []func(b *testing.B){
		func(b *testing.B) {
			makeBytes(size)
			b.SetBytes(size)
			b.ResetTimer()
			for i := b.N; i > 0; i-- {
				highway.Hash64(key, rBytes)
			}
		},
		func(b *testing.B) {
			makeBytes(size)
			b.SetBytes(size)
			b.ResetTimer()
			for i := b.N; i > 0; i-- {
				siphash.Sum64(siphash.Key{key[0], key[1]}, rBytes)
			}
		},
		func(b *testing.B) {
			makeBytes(size)
			b.SetBytes(size)
			b.ResetTimer()
			for i := b.N; i > 0; i-- {
				siphash.TreeSum64(key, rBytes)
			}
		},
		func(b *testing.B) {
			makeBytes(size)
			b.SetBytes(size)
			b.ResetTimer()
			for i := b.N; i > 0; i-- {
				blake3.Sum256(rBytes)
			}
		},
		func(b *testing.B) {
			makeBytes(size)
			b.SetBytes(size)
			b.ResetTimer()
			for i := b.N; i > 0; i-- {
				sha256.Sum256(rBytes)
			}
		},
	}
)

/* The corpus is deterministic across runs: a ChaCha20 keystream over a zeroed buffer. */
func makeBytes(size int64) {
	rBytes = make([]byte, size)
	var seed [chacha.KeySize]byte
	var nonce [chacha.NonceSize]byte
	chacha.XORKeyStream(rBytes, rBytes, nonce[:], seed[:], 20)
}

func algBench(alg int) {
	fmt.Println(names[alg] + "   64B      1K    512K     64M")
	throughputs, speeds := make([]float64, len(sizes)), make([]float64, len(sizes))
	for i := range sizes {
		size = sizes[i]
		var totalHz, polls uint64
		if runtime.GOARCH == "amd64" {
			go func() {
				calltime := gotsc.TSCOverhead()
				for throughputs[i] == 0 {
					tsc1 := gotsc.BenchStart()
					time.Sleep(time.Millisecond)
					tsc2 := gotsc.BenchEnd()
					totalHz += (tsc2 - tsc1 - calltime) * 1000
					polls++
					time.Sleep(time.Millisecond * 19)
				}
			}()
		}
		r := testing.Benchmark(fn[alg])
		throughputs[i] = float64(r.Bytes*int64(r.N)) / r.T.Seconds() /* B/s */
		speeds[i] = float64(totalHz) / float64(polls) / throughputs[i]
	}

	fmt.Printf("Speed     %7.5g %7.5g %7.5g %7.5g  MB/s\n",
		throughputs[0]/1e6, throughputs[1]/1e6, throughputs[2]/1e6, throughputs[3]/1e6)
	if speeds[0]+speeds[1]+speeds[2]+speeds[3] > 0 {
		fmt.Printf("          %7.5g %7.5g %7.5g %7.5g  cpb\n\n",
			speeds[0], speeds[1], speeds[2], speeds[3])
	} else {
		fmt.Println()
	}
}

func main() {
	fmt.Printf("Running Statz on %d CPUs!\n\n", runtime.NumCPU())

	t := time.Now()
	for alg := range fn {
		algBench(alg)
	}
	fmt.Printf("Finished in %s on %s/%s.\n", time.Since(t), runtime.GOOS, runtime.GOARCH)
}
