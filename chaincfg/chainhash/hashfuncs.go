// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import "crypto/sha256"

// HashB calculates the hash of the given data and returns it as a byte slice.
func HashB(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// HashH calculates the hash of the given data and returns it as a Hash.
func HashH(b []byte) Hash {
	return sha256.Sum256(b)
}

// DoubleHashB calculates hash(hash(b)) and returns the resulting bytes.
func DoubleHashB(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}

// DoubleHashH calculates hash(hash(b)) and returns the resulting bytes as a Hash.
func DoubleHashH(b []byte) Hash {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}
