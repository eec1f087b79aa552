// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"github.com/lbryio/torba-go/chaincfg/chainhash"
	"github.com/lbryio/torba-go/wire"
)

func newHashFromStrMust(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return *h
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name: "mainnet",
	Net:  wire.MainNet,

	GenesisHash: newHashFromStrMust(
		"f05eb1cafc98599c3cc651fb73b4f648e509737540635e70730ecf92bfc607c",
	),

	Checkpoints: nil,

	TestNet: false,
}

// RegTestParams defines the network parameters for the regression test
// network. TestNet is set so retarget and PoW checks short-circuit,
// letting a test suite exercise save/fork/swap behavior without
// mainnet difficulty math.
var RegTestParams = Params{
	Name: "regtest",
	Net:  wire.RegTest,

	GenesisHash: newHashFromStrMust(
		"c2bf4724cb9a42dd82460e71c4dc46ac6ad1e560b246a8cb5860a8d1ca8faa6",
	),

	Checkpoints: nil,

	TestNet: true,
}

func init() {
	mustRegister(&MainNetParams)
	mustRegister(&RegTestParams)
}
