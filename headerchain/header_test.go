// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lbryio/torba-go/chaincfg/chainhash"
)

func genHeader(t *rapid.T) *Header {
	var prev, merkle, claim chainhash.Hash
	for i := range prev {
		prev[i] = rapid.Byte().Draw(t, "prevByte")
	}
	for i := range merkle {
		merkle[i] = rapid.Byte().Draw(t, "merkleByte")
	}
	for i := range claim {
		claim[i] = rapid.Byte().Draw(t, "claimByte")
	}
	return &Header{
		Version:       rapid.Uint32().Draw(t, "version"),
		PrevBlockHash: prev,
		MerkleRoot:    merkle,
		ClaimTrieRoot: claim,
		Timestamp:     rapid.Uint32().Draw(t, "timestamp"),
		Bits:          rapid.Uint32().Draw(t, "bits"),
		Nonce:         rapid.Uint32().Draw(t, "nonce"),
		BlockHeight:   rapid.Int32Range(0, 10_000_000).Draw(t, "height"),
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := genHeader(t)
		raw := h.Serialize()
		require.Len(t, raw, HeaderSize)

		got, err := DeserializeHeader(raw, h.BlockHeight)
		require.NoError(t, err)
		require.Equal(t, h, got)
	})
}

func TestDeserializeHeaderRejectsBadLength(t *testing.T) {
	_, err := DeserializeHeader(nil, 0)
	require.Error(t, err)

	_, err = DeserializeHeader(make([]byte, HeaderSize-1), 0)
	require.Error(t, err)

	_, err = DeserializeHeader(make([]byte, HeaderSize+1), 0)
	require.Error(t, err)
}

func TestHashHeaderNilIsNullHash(t *testing.T) {
	require.Equal(t, NullHash, HashHeader(nil))
	require.Len(t, NullHash, 64)
}

func TestPowHashNilIsNullHash(t *testing.T) {
	require.Equal(t, NullHash, PowHash(nil))
}

func TestPowHashDeterministic(t *testing.T) {
	h := &Header{Version: 1, Timestamp: 100, Bits: GenesisBits, Nonce: 7}
	a := PowHash(h)
	b := PowHash(h)
	require.Equal(t, a, b)
	require.Len(t, a, 64)
	require.NotEqual(t, a, HashHeader(h), "pow_hash and hash_header use different digests")
}
