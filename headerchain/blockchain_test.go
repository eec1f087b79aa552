// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lbryio/torba-go/chaincfg"
	"github.com/lbryio/torba-go/chaincfg/chainhash"
)

type testConfig struct{ dir string }

func (c testConfig) HeadersDir() string { return c.dir }

func testParams() *chaincfg.Params {
	return &chaincfg.Params{
		Name:    "unittest",
		TestNet: true,
	}
}

// mkHeader builds a syntactically valid header linking to prev by
// hash, at the given height, with a nonce to distinguish competing
// candidates at the same height.
func mkHeader(prev *Header, height int32, nonce uint32) *Header {
	h := &Header{
		Version:     1,
		Timestamp:   uint32(1_600_000_000 + height*150),
		Bits:        GenesisBits,
		Nonce:       nonce,
		BlockHeight: height,
	}
	if prev != nil {
		ph, err := chainhash.NewHashFromStr(HashHeader(prev))
		if err != nil {
			panic(err)
		}
		h.PrevBlockHash = *ph
	}
	return h
}

func setup(t *testing.T) (*Registry, *Header) {
	dir := t.TempDir()
	genesis := mkHeader(nil, 0, 0)
	params := testParams()
	gh, err := chainhash.NewHashFromStr(HashHeader(genesis))
	require.NoError(t, err)
	params.GenesisHash = *gh

	reg, err := ReadBlockchains(testConfig{dir}, params)
	require.NoError(t, err)
	return reg, genesis
}

func TestEmptyStart(t *testing.T) {
	reg, _ := setup(t)
	main := reg.Main()
	require.NotNil(t, main)
	require.EqualValues(t, 0, main.Size())
	require.EqualValues(t, -1, main.Height())
}

func TestLinearAppend(t *testing.T) {
	reg, genesis := setup(t)
	main := reg.Main()

	require.True(t, main.CanConnect(genesis, true))
	require.NoError(t, main.SaveHeader(genesis))
	require.EqualValues(t, 0, main.Height())

	h1 := mkHeader(genesis, 1, 0)
	require.True(t, main.CanConnect(h1, true))
	require.NoError(t, main.SaveHeader(h1))

	require.EqualValues(t, 1, main.Height())
	got, err := main.ReadHeader(1)
	require.NoError(t, err)
	require.Equal(t, h1, got)
}

func buildChain(t *testing.T, reg *Registry, genesis *Header, n int32) []*Header {
	main := reg.Main()
	require.NoError(t, main.SaveHeader(genesis))
	headers := []*Header{genesis}
	prev := genesis
	for h := int32(1); h <= n; h++ {
		next := mkHeader(prev, h, 0)
		require.NoError(t, main.SaveHeader(next))
		headers = append(headers, next)
		prev = next
	}
	return headers
}

func TestForkCreation(t *testing.T) {
	reg, genesis := setup(t)
	headers := buildChain(t, reg, genesis, 10)
	main := reg.Main()
	require.EqualValues(t, 10, main.Height())

	// A competing header at height 5 with a different nonce but the
	// same prev hash.
	competitor := mkHeader(headers[4], 5, 0xdeadbeef)
	fork, err := Fork(main, competitor, reg)
	require.NoError(t, err)
	require.EqualValues(t, 1, fork.Size())
	require.EqualValues(t, 5, fork.Height())

	chains := reg.Chains()
	require.Len(t, chains, 2)
}

func TestReorgSwap(t *testing.T) {
	reg, genesis := setup(t)
	headers := buildChain(t, reg, genesis, 10)
	main := reg.Main()

	competitor := mkHeader(headers[4], 5, 0xdeadbeef)
	fork, err := Fork(main, competitor, reg)
	require.NoError(t, err)

	prev := competitor
	for h := int32(6); h <= 12; h++ {
		next := mkHeader(prev, h, 0xdeadbeef)
		require.NoError(t, fork.SaveHeader(next))
		prev = next
	}

	newMain := reg.lookup(0)
	newFork := reg.lookup(5)
	require.NotNil(t, newMain)
	require.NotNil(t, newFork)

	require.EqualValues(t, 12, newMain.Height())
	require.EqualValues(t, 10, newFork.Height())
	require.EqualValues(t, 13, newMain.Size())
	require.EqualValues(t, 6, newFork.Size())
}

func TestChunkInCheckpointRegionDelegatesToMain(t *testing.T) {
	dir := t.TempDir()
	genesis := mkHeader(nil, 0, 0)
	gh, err := chainhash.NewHashFromStr(HashHeader(genesis))
	require.NoError(t, err)

	cpTarget := FromCompact(GenesisBits)
	params := &chaincfg.Params{
		Name:        "unittest-cp",
		GenesisHash: *gh,
		TestNet:     true,
		Checkpoints: []chaincfg.Checkpoint{
			{Height: 2015, Hash: chainhash.Hash{}, Target: bigIntFromArith(cpTarget)},
		},
	}
	reg, err := ReadBlockchains(testConfig{dir}, params)
	require.NoError(t, err)
	headers := buildChain(t, reg, genesis, 5)
	main := reg.Main()

	competitor := mkHeader(headers[2], 3, 0x1234)
	fork, err := Fork(main, competitor, reg)
	require.NoError(t, err)
	require.EqualValues(t, 1, fork.Size())

	chunk := make([]byte, 2016*HeaderSize)
	err = fork.SaveChunk(0, chunk)
	require.NoError(t, err)

	// The fork's own file must be untouched by a checkpointed-chunk save.
	require.EqualValues(t, 1, fork.Size())
}

func TestMissingHeaderSurfaces(t *testing.T) {
	reg, _ := setup(t)
	main := reg.Main()
	_, err := main.GetHash(1_000_000)
	require.Error(t, err)
	var mh *MissingHeaderError
	require.ErrorAs(t, err, &mh)
	require.EqualValues(t, 1_000_000, mh.Height)
}

func bigIntFromArith(v ArithU256) *big.Int {
	b := v.Bytes()
	return new(big.Int).SetBytes(b[:])
}
