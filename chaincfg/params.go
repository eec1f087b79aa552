// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines network-level parameters for the chains this
// module knows about: the genesis hash, the network magic, and the
// checkpoint list that pins known-good hashes and retarget state at
// 2016-height boundaries.
package chaincfg

import (
	"fmt"
	"math/big"

	"github.com/lbryio/torba-go/chaincfg/chainhash"
	"github.com/lbryio/torba-go/wire"
)

// Checkpoint pins a known-good hash and retarget target at a chunk
// boundary (a height where (height+1) % 2016 == 0).
type Checkpoint struct {
	Height int32
	Hash   chainhash.Hash
	Target *big.Int
}

// Params holds the static, network-supplied data the header store
// consumes: the genesis identity, the network magic, and the
// checkpoint list. It intentionally never carries address encoding,
// HD extended-key prefixes, or consensus-deployment bits, all of which
// belong to wallet-facing concerns out of scope for a header-only
// store.
type Params struct {
	Name string
	Net  wire.LBCNet

	// GenesisHash is the network's height-0 hash, returned directly by
	// get_hash(0) without reading any stored header.
	GenesisHash chainhash.Hash

	Checkpoints []Checkpoint

	// TestNet makes GetTarget return zero and VerifyHeader return
	// right after its linkage checks, matching the regression
	// network's role in the original client: a cheap way to exercise
	// save/fork/swap logic without mainnet difficulty math. GetTarget2
	// still validates bits and computes a retarget on such a network.
	TestNet bool
}

// MaxCheckpointHeight returns the height of the last checkpoint, or -1
// if there are none.
func (p *Params) MaxCheckpointHeight() int32 {
	if len(p.Checkpoints) == 0 {
		return -1
	}
	return p.Checkpoints[len(p.Checkpoints)-1].Height
}

// CheckpointAt returns the checkpoint whose index is height/2016, and
// true, if height qualifies as a chunk boundary within the checkpoint
// range; otherwise it returns false.
func (p *Params) CheckpointAt(height int32) (Checkpoint, bool) {
	if height < 0 || height > p.MaxCheckpointHeight() {
		return Checkpoint{}, false
	}
	if (height+1)%2016 != 0 {
		return Checkpoint{}, false
	}
	idx := height / 2016
	if int(idx) >= len(p.Checkpoints) {
		return Checkpoint{}, false
	}
	return p.Checkpoints[idx], true
}

var (
	registeredNets = make(map[wire.LBCNet]struct{})
	paramsByName   = make(map[string]*Params)
)

// Register makes a network's parameters available for lookup by name.
// It returns an error if the network has already been registered,
// mirroring the btcsuite chaincfg.Register convention: a duplicate
// registration is a programming error, not a recoverable condition.
func Register(p *Params) error {
	if _, ok := registeredNets[p.Net]; ok {
		return fmt.Errorf("chaincfg: duplicate network %v", p.Net)
	}
	registeredNets[p.Net] = struct{}{}
	paramsByName[p.Name] = p
	return nil
}

func mustRegister(p *Params) {
	if err := Register(p); err != nil {
		panic(err)
	}
}

// ParamsByName returns the registered Params for name, or nil if no
// network was registered under that name.
func ParamsByName(name string) *Params {
	return paramsByName[name]
}
