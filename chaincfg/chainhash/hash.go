// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the fixed-size hash type shared by the
// header codec, chain store, and chain configuration packages.
//
// A Hash is stored internally in the byte order produced by the
// double-SHA-256 digest (little-endian relative to the big-endian form
// used everywhere a hash is displayed or compared against a hex
// string). String and NewHashFromStr convert between the two forms by
// reversing the byte slice; nothing else in this package treats the
// bytes as a number.
package chainhash

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the number of bytes in the preferred hash representation.
const HashSize = 32

// MaxHashStringSize is the maximum length of a Hash hash string.
const MaxHashStringSize = HashSize * 2

// ErrHashStrSize describes an error that indicates the caller specified
// a hash string that has too many characters.
var ErrHashStrSize = fmt.Errorf("max hash string length is %v bytes", MaxHashStringSize)

// Hash is used in several of the header fields and in header hashing.
// Use the String function to convert to a human-readable string.
type Hash [HashSize]byte

// String returns the Hash as the hexadecimal string of the byte-reversed
// hash, as an ordinary hash hex string is displayed.
func (hash Hash) String() string {
	var reversed Hash
	for i, b := range hash[:] {
		reversed[HashSize-1-i] = b
	}
	return hex.EncodeToString(reversed[:])
}

// CloneBytes returns a copy of the bytes which represent the hash as a
// byte slice.
func (hash *Hash) CloneBytes() []byte {
	newHash := make([]byte, HashSize)
	copy(newHash, hash[:])
	return newHash
}

// SetBytes sets the bytes which represent the hash. An error is returned
// if the number of bytes passed in is not HashSize.
func (hash *Hash) SetBytes(newHash []byte) error {
	nhlen := len(newHash)
	if nhlen != HashSize {
		return fmt.Errorf("invalid hash length of %v, want %v", nhlen, HashSize)
	}
	copy(hash[:], newHash)
	return nil
}

// IsEqual returns true if target is the same as the hash.
func (hash *Hash) IsEqual(target *Hash) bool {
	if hash == nil && target == nil {
		return true
	}
	if hash == nil || target == nil {
		return false
	}
	return *hash == *target
}

// NewHash returns a new Hash from a byte slice. An error is returned if
// the number of bytes passed in is not HashSize.
func NewHash(newHash []byte) (*Hash, error) {
	var sh Hash
	if err := sh.SetBytes(newHash); err != nil {
		return nil, err
	}
	return &sh, nil
}

// NewHashFromStr creates a Hash from a hash string. The string should be
// the hexadecimal string of a byte-reversed hash, but any missing
// characters result in zero padding at the end of the Hash.
func NewHashFromStr(hash string) (*Hash, error) {
	ret := new(Hash)
	if err := Decode(ret, hash); err != nil {
		return nil, err
	}
	return ret, nil
}

// Decode decodes the byte-reversed hexadecimal string encoding of a Hash
// to a destination.
func Decode(dst *Hash, src string) error {
	if len(src) > MaxHashStringSize {
		return ErrHashStrSize
	}

	var srcBytes []byte
	if len(src)%2 == 0 {
		srcBytes = []byte(src)
	} else {
		srcBytes = make([]byte, 1+len(src))
		srcBytes[0] = '0'
		copy(srcBytes[1:], src)
	}

	var reversed Hash
	_, err := hex.Decode(reversed[HashSize-hex.DecodedLen(len(srcBytes)):], srcBytes)
	if err != nil {
		return err
	}

	for i, b := range reversed[:HashSize/2] {
		dst[i], dst[HashSize-1-i] = reversed[HashSize-1-i], b
	}
	return nil
}
