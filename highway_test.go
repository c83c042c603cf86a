package highway

import (
	"crypto/rand"
	"encoding/binary"
	"github.com/aead/chacha20/chacha"
	"github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
	"github.com/zeebo/xxh3"
	"testing"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

var testKey = Key{0x0706050403020100, 0x0f0e0d0c0b0a0908, 0x1716151413121110, 0x1f1e1d1c1b1a1918}

/* Known-good values for inputs {}, {0}, {0, 1}, ... under testKey, shared with the reference
implementation's test suite. */
var golden64 = [65]uint64{
	0x907a56de22c26e53, 0x7eab43aac7cddd78, 0xb8d0569ab0b53d62,
	0x5c6befab8a463d80, 0xf205a46893007eda, 0x2b8a1668e4a94541,
	0xbd4ccc325befca6f, 0x4d02ae1738f59482, 0xe1205108e55f3171,
	0x32d2644ec77a1584, 0xf6e10acdb103a90b, 0xc3bbf4615b415c15,
	0x243cc2040063fa9c, 0xa89a58ce65e641ff, 0x24b031a348455a23,
	0x40793f86a449f33b, 0xcfab3489f97eb832, 0x19fe67d2c8c5c0e2,
	0x04dd90a69c565cc2, 0x75d9518e2371c504, 0x38ad9b1141d3dd16,
	0x0264432ccd8a70e0, 0xa9db5a6288683390, 0xd7b05492003f028c,
	0x205f615aea59e51e, 0xeee0c89621052884, 0x1bfc1a93a7284f4f,
	0x512175b5b70da91d, 0xf71f8976a0a2c639, 0xae093fef1f84e3e7,
	0x22ca92b01161860f, 0x9fc7007ccf035a68, 0xa0c964d9ecd580fc,
	0x2c90f73ca03181fc, 0x185cf84e5691eb9e, 0x4fc1f5ef2752aa9b,
	0xf5b7391a5e0a33eb, 0xb9b84b83b4e96c9c, 0x5e42fe712a5cd9b4,
	0xa150f2f90c3f97dc, 0x7fa522d75e2d637d, 0x181ad0cc0dffd32b,
	0x3889ed981e854028, 0xfb4297e8c586ee2d, 0x6d064a45bb28059c,
	0x90563609b3ec860c, 0x7aa4fce94097c666, 0x1326bac06b911e08,
	0xb926168d2b154f34, 0x9919848945b1948d, 0xa2a98fc534825ebe,
	0xe9809095213ef0b6, 0x582e5483707bc0e9, 0x086e9414a88a6af5,
	0xee86b98d20f6743d, 0xf89b7ff609b1c0a7, 0x4c7d9cc19e22c3e8,
	0x9a97005024562a6f, 0x5dd41cf423e6ebef, 0xdf13609c0468e227,
	0x6e0da4f64188155a, 0xb755ba4b50d7d4a1, 0x887a3484647479bd,
	0xab8eebe9bf2139a0, 0x75542c5d4cd2a6ff,
}

/* Every backend runs everywhere in this rendition, so all three are exercised unconditionally;
the dispatcher merely decides which one the public functions use. */
var constructors = []struct {
	name string
	make func(Key) state
}{
	{"portable", func(k Key) state { return newPortable(k) }},
	{"sse41", func(k Key) state { return newSSE41(k) }},
	{"avx2", func(k Key) state { return newAVX2(k) }},
}

func iota256(n int) []byte {
	msg := make([]byte, n)
	for i := range msg {
		msg[i] = byte(i)
	}
	return msg
}

func sum64With(ctor func(Key) state, key Key, msg []byte) uint64 {
	s := ctor(key)
	feed(s, msg)
	return s.finalize64()
}

func sum128With(ctor func(Key) state, key Key, msg []byte) [2]uint64 {
	s := ctor(key)
	feed(s, msg)
	return s.finalize128()
}

func sum256With(ctor func(Key) state, key Key, msg []byte) [4]uint64 {
	s := ctor(key)
	feed(s, msg)
	return s.finalize256()
}

func TestGolden64(t *testing.T) {
	msg := iota256(64)
	for n := 0; n <= 64; n++ {
		for _, c := range constructors {
			if got := sum64With(c.make, testKey, msg[:n]); got != golden64[n] {
				t.Fatalf("%s: n=%d: got %#016x, want %#016x", c.name, n, got, golden64[n])
			}
		}
		if got := Hash64(testKey, msg[:n]); got != golden64[n] {
			t.Fatalf("dispatched: n=%d: got %#016x, want %#016x", n, got, golden64[n])
		}
	}
}

func TestCrossImplementation(t *testing.T) {
	msg := iota256(1024)
	for n := 0; n <= 1024; n++ {
		r64 := sum64With(constructors[0].make, testKey, msg[:n])
		r128 := sum128With(constructors[0].make, testKey, msg[:n])
		r256 := sum256With(constructors[0].make, testKey, msg[:n])
		for _, c := range constructors[1:] {
			if got := sum64With(c.make, testKey, msg[:n]); got != r64 {
				t.Fatalf("%s: n=%d: 64-bit digest diverged from portable", c.name, n)
			}
			if got := sum128With(c.make, testKey, msg[:n]); got != r128 {
				t.Fatalf("%s: n=%d: 128-bit digest diverged from portable", c.name, n)
			}
			if got := sum256With(c.make, testKey, msg[:n]); got != r256 {
				t.Fatalf("%s: n=%d: 256-bit digest diverged from portable", c.name, n)
			}
		}
	}
}

/* Byte-equal inputs of different lengths must diverge, even all-zero ones: any length change
either alters the packet count or the injected size mod 32. */
func TestLengthPadding(t *testing.T) {
	zeros := make([]byte, 512)
	seen := map[uint64]int{}
	for n := 0; n <= 512; n++ {
		h := Hash64(testKey, zeros[:n])
		if prev, dup := seen[h]; dup {
			t.Fatalf("0^%d and 0^%d collide on %#016x", prev, n, h)
		}
		seen[h] = n
	}
}

func TestIdempotence(t *testing.T) {
	msg := iota256(333)
	r64, r128, r256 := Hash64(testKey, msg), Hash128(testKey, msg), Hash256(testKey, msg)
	for i := 3; i > 0; i-- {
		if Hash64(testKey, msg) != r64 || Hash128(testKey, msg) != r128 ||
			Hash256(testKey, msg) != r256 {
			t.Fatal("repeated hashing of the same input disagreed; hidden state?")
		}
	}
}

/* The tail branches: n=7 takes the short path with a 3-byte gather, n=16 the long path with an
empty masked region, n=31 the long path in full, and n∈{0, 32, 1024} skip the tail entirely. */
func TestScenarios(t *testing.T) {
	msg := iota256(1024)
	for _, n := range [...]int{0, 7, 16, 31, 32, 1024} {
		r64 := sum64With(constructors[0].make, testKey, msg[:n])
		r128 := sum128With(constructors[0].make, testKey, msg[:n])
		r256 := sum256With(constructors[0].make, testKey, msg[:n])
		for _, c := range constructors[1:] {
			if sum64With(c.make, testKey, msg[:n]) != r64 ||
				sum128With(c.make, testKey, msg[:n]) != r128 ||
				sum256With(c.make, testKey, msg[:n]) != r256 {
				t.Fatalf("%s: n=%d: backends disagree", c.name, n)
			}
		}
	}
	if Hash64(testKey, msg[:1024]) == 0 {
		t.Fatal("n=1024: 64-bit digest is zero")
	}
	for _, a := range [...]int{0, 31, 64} {
		if Hash64(testKey, msg[:32]) == Hash64(testKey, msg[:a]) {
			t.Fatalf("n=32 digest equals n=%d digest", a)
		}
		if Hash128(testKey, msg[:32]) == Hash128(testKey, msg[:a]) ||
			Hash256(testKey, msg[:32]) == Hash256(testKey, msg[:a]) {
			t.Fatalf("n=32 wide digest equals n=%d digest", a)
		}
	}
}

/* The equivalence properties hold for every key, not just the reference one; a deterministic
ChaCha20 keystream supplies the keys and messages so failures reproduce. */
func TestCrossImplementationRandomKeys(t *testing.T) {
	stream := make([]byte, 64*(32+256))
	var seed [chacha.KeySize]byte
	var nonce [chacha.NonceSize]byte
	chacha.XORKeyStream(stream, stream, nonce[:], seed[:], 20)

	for trial := 0; trial < 64; trial++ {
		chunk := stream[trial*(32+256):]
		var key Key
		for i := range key {
			key[i] = binary.LittleEndian.Uint64(chunk[i*8:])
		}
		msg := chunk[32 : 32+trial*4+1]

		r64, r128, r256 := Hash64(key, msg), Hash128(key, msg), Hash256(key, msg)
		for _, c := range constructors {
			if sum64With(c.make, key, msg) != r64 ||
				sum128With(c.make, key, msg) != r128 ||
				sum256With(c.make, key, msg) != r256 {
				t.Fatalf("%s: trial %d: backends disagree", c.name, trial)
			}
		}

		c := NewCat(key)
		for i := 0; i < len(msg); i += 11 {
			end := i + 11
			if end > len(msg) {
				end = len(msg)
			}
			c.Append(msg[i:end])
		}
		if c.Sum64() != r64 {
			t.Fatalf("trial %d: Cat diverged from one-shot", trial)
		}
	}
}

/* Distinct keys yield independent functions. */
func TestKeySensitivity(t *testing.T) {
	msg := iota256(100)
	other := testKey
	other[0] ^= 1
	if Hash64(testKey, msg) == Hash64(other, msg) {
		t.Fatal("flipping one key bit left the digest unchanged")
	}
}

func benchBytes(size int64, b *testing.B) []byte {
	bytes := make([]byte, size)
	if _, err := rand.Read(bytes); err != nil {
		b.Fatal(err)
	}
	b.SetBytes(size)
	b.ReportAllocs()
	b.ResetTimer()
	return bytes
}

func BenchmarkHighway64(b *testing.B) {
	bytes := benchBytes(1<<10, b)
	for i := b.N; i > 0; i-- {
		Hash64(testKey, bytes)
	}
}

func BenchmarkHighway256(b *testing.B) {
	bytes := benchBytes(1<<10, b)
	for i := b.N; i > 0; i-- {
		Hash256(testKey, bytes)
	}
}

func BenchmarkBlake3(b *testing.B) {
	bytes := benchBytes(1<<10, b)
	for i := b.N; i > 0; i-- {
		blake3.Sum256(bytes)
	}
}

func BenchmarkXXH3(b *testing.B) {
	bytes := benchBytes(1<<10, b)
	for i := b.N; i > 0; i-- {
		xxh3.Hash(bytes)
	}
}

func BenchmarkSHA256(b *testing.B) {
	bytes := benchBytes(1<<10, b)
	for i := b.N; i > 0; i-- {
		sha256.Sum256(bytes)
	}
}
