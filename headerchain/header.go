// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"

	"golang.org/x/crypto/ripemd160"

	"github.com/lbryio/torba-go/chaincfg/chainhash"
)

// HeaderSize is the fixed size in bytes of a serialized header.
const HeaderSize = 112

// NullHash is the hex string a null/absent header hashes to.
const NullHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Header is the fixed-schema record for a single block header. All
// three hash fields are kept in the internal (chainhash) byte order;
// chainhash.Hash.String reverses them for the conventional big-endian
// display form.
type Header struct {
	Version        uint32
	PrevBlockHash  chainhash.Hash
	MerkleRoot     chainhash.Hash
	ClaimTrieRoot  chainhash.Hash
	Timestamp      uint32
	Bits           uint32
	Nonce          uint32
	BlockHeight    int32
}

// Serialize concatenates the header fields in declared order, using
// little-endian encoding for the three integers and the chain's
// internal byte order (already little-endian relative to display) for
// the three hash fields.
func (h *Header) Serialize() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	copy(buf[4:36], h.PrevBlockHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	copy(buf[68:100], h.ClaimTrieRoot[:])
	binary.LittleEndian.PutUint32(buf[100:104], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[104:108], h.Bits)
	binary.LittleEndian.PutUint32(buf[108:112], h.Nonce)
	return buf
}

// DeserializeHeader parses a 112-byte record into a Header, attaching
// the supplied height. It fails with InvalidHeaderError if the input is
// empty or not exactly HeaderSize bytes. It does not treat an all-zero
// record specially; callers that read from a chain file are
// responsible for recognizing the all-zero sentinel before calling
// this function (see chainFile.Read).
func DeserializeHeader(b []byte, height int32) (*Header, error) {
	if len(b) == 0 {
		return nil, &InvalidHeaderError{Reason: "empty input"}
	}
	if len(b) != HeaderSize {
		return nil, &InvalidHeaderError{Reason: "wrong length"}
	}
	h := &Header{BlockHeight: height}
	h.Version = binary.LittleEndian.Uint32(b[0:4])
	copy(h.PrevBlockHash[:], b[4:36])
	copy(h.MerkleRoot[:], b[36:68])
	copy(h.ClaimTrieRoot[:], b[68:100])
	h.Timestamp = binary.LittleEndian.Uint32(b[100:104])
	h.Bits = binary.LittleEndian.Uint32(b[104:108])
	h.Nonce = binary.LittleEndian.Uint32(b[108:112])
	return h, nil
}

// HashHeader returns the double-SHA-256 identity hash of h, rendered in
// the conventional big-endian display form. A nil header hashes to the
// all-zero sentinel.
func HashHeader(h *Header) string {
	if h == nil {
		return NullHash
	}
	return chainhash.DoubleHashH(h.Serialize()).String()
}

// PowHash computes the custom proof-of-work digest described in the
// header codec: double-SHA-256, then SHA-512, then RIPEMD-160 over each
// half of the SHA-512 digest, then double-SHA-256 of the concatenation.
// A nil header hashes to the all-zero sentinel.
func PowHash(h *Header) string {
	if h == nil {
		return NullHash
	}
	x := h.Serialize()
	a := sha256.Sum256(x)
	a2 := sha256.Sum256(a[:])
	b := sha512.Sum512(a2[:])

	r1 := ripemd160.New()
	r1.Write(b[:32])
	r2 := ripemd160.New()
	r2.Write(b[32:])

	combined := append(r1.Sum(nil), r2.Sum(nil)...)
	out := chainhash.DoubleHashH(combined)
	return out.String()
}
