// Copyright (c) 2013-2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire holds the handful of wire-level constants the header
// store and its chain configuration need: the per-network magic used
// to tell mainnet and the regression-test network apart. Message
// framing, peer handshakes, and the rest of the P2P wire protocol are
// network-transport concerns and out of scope for this repository.
package wire

import "fmt"

// LBCNet represents which LBRY-style network a header chain belongs to.
type LBCNet uint32

const (
	// MainNet represents the main LBRY-style network.
	MainNet LBCNet = 0x4c425243 // "LBRC"

	// RegTest represents the regression test network, whose params
	// take the TESTNET short-circuits.
	RegTest LBCNet = 0x524c4243 // "RLBC"
)

var netStrings = map[LBCNet]string{
	MainNet: "MainNet",
	RegTest: "RegTest",
}

// String returns the LBCNet in human-readable form.
func (n LBCNet) String() string {
	if s, ok := netStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown LBCNet (0x%08x)", uint32(n))
}
