// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lbryio/torba-go/chaincfg/chainhash"
)

func TestParseForkFilename(t *testing.T) {
	p, f, ok := parseForkFilename("fork_0_5")
	require.True(t, ok)
	require.EqualValues(t, 0, p)
	require.EqualValues(t, 5, f)

	_, _, ok = parseForkFilename("blockchain_headers")
	require.False(t, ok)

	_, _, ok = parseForkFilename("fork_notanumber_5")
	require.False(t, ok)

	_, _, ok = parseForkFilename("fork_0")
	require.False(t, ok)
}

// TestReadBlockchainsDiscoversValidForks builds a main chain and a
// well-formed fork through the store, then re-opens the registry from
// scratch, simulating a process restart.
func TestReadBlockchainsDiscoversValidForks(t *testing.T) {
	reg, genesis := setup(t)
	headers := buildChain(t, reg, genesis, 10)
	main := reg.Main()

	competitor := mkHeader(headers[4], 5, 0xdeadbeef)
	_, err := Fork(main, competitor, reg)
	require.NoError(t, err)

	dir := reg.config.(testConfig).dir
	params := reg.params

	reopened, err := ReadBlockchains(testConfig{dir}, params)
	require.NoError(t, err)

	chains := reopened.Chains()
	require.Len(t, chains, 2)

	fork := reopened.lookup(5)
	require.NotNil(t, fork)
	require.EqualValues(t, 1, fork.Size())
	require.EqualValues(t, 5, fork.Height())
}

// TestReadBlockchainsSkipsUnconnectableFork writes a fork file whose
// header does not actually connect to its claimed parent at the
// claimed forkpoint. Startup must silently drop it rather than fail.
func TestReadBlockchainsSkipsUnconnectableFork(t *testing.T) {
	reg, genesis := setup(t)
	buildChain(t, reg, genesis, 3)

	dir := reg.config.(testConfig).dir
	params := reg.params

	forksDir := filepath.Join(dir, forksDirname)
	require.NoError(t, os.MkdirAll(forksDir, 0o755))

	// A header at height 2 whose prev hash is garbage: it cannot
	// possibly connect to whatever the main chain holds at height 1.
	bogus := mkHeader(nil, 2, 0x1)
	bogus.PrevBlockHash = chainhash.Hash{0xff, 0xff, 0xff}
	parentID := int32(0)
	cf := newChainFile(dir, 2, &parentID)
	require.NoError(t, cf.create())
	require.NoError(t, cf.Write(bogus.Serialize(), 0, true))

	reopened, err := ReadBlockchains(testConfig{dir}, params)
	require.NoError(t, err)

	require.Nil(t, reopened.lookup(2))
	require.Len(t, reopened.Chains(), 1)
}

func TestReadBlockchainsNoForksDirYet(t *testing.T) {
	reg, _ := setup(t)
	require.Len(t, reg.Chains(), 1)
	require.NotNil(t, reg.Main())
}

func TestCheckHeaderAndCanConnectRouting(t *testing.T) {
	reg, genesis := setup(t)
	headers := buildChain(t, reg, genesis, 5)
	main := reg.Main()

	got := reg.CheckHeader(headers[3])
	require.NotNil(t, got)
	require.EqualValues(t, 0, got.Forkpoint())

	next := mkHeader(headers[5], 6, 0)
	connectable := reg.CanConnect(next)
	require.NotNil(t, connectable)
	require.Equal(t, main, connectable)

	stale := mkHeader(headers[2], 9, 0)
	require.Nil(t, reg.CanConnect(stale))
	require.Nil(t, reg.CheckHeader(stale))
}

func TestChildrenOfAndMaxChild(t *testing.T) {
	reg, genesis := setup(t)
	headers := buildChain(t, reg, genesis, 10)
	main := reg.Main()

	forkA, err := Fork(main, mkHeader(headers[4], 5, 0xaaaa), reg)
	require.NoError(t, err)
	forkB, err := Fork(main, mkHeader(headers[6], 7, 0xbbbb), reg)
	require.NoError(t, err)

	children := reg.childrenOf(0)
	require.ElementsMatch(t, []int32{forkA.Forkpoint(), forkB.Forkpoint()}, children)

	maxChild := main.GetMaxChild()
	require.NotNil(t, maxChild)
	require.EqualValues(t, 7, *maxChild)
}
