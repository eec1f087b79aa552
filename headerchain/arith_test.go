// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCompactRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bitsN := rapid.Uint32Range(0x03, 0x1f).Draw(t, "bitsN")
		bitsBase := rapid.Uint32Range(0x8000, 0x7fffff).Draw(t, "bitsBase")
		bits := (bitsN << 24) | bitsBase

		v := FromCompact(bits)
		got := v.Compact()

		v2 := FromCompact(got)
		require.Equal(t, v, v2, "from_compact(compact(from_compact(bits))) must reproduce the same value")
	})
}

func TestCheckBitsAcceptsAssertionRangeNotMessage(t *testing.T) {
	// The error message in the reference implementation claims the
	// exponent range is [0x03, 0x1d], but its assertion accepts up to
	// 0x1f. CheckBits must follow the assertion.
	for _, n := range []uint32{0x1e, 0x1f} {
		bits := (n << 24) | 0x8000
		require.NoError(t, CheckBits(bits), "exponent 0x%02x should be accepted", n)
	}
	require.Error(t, CheckBits(0x02<<24|0x8000))
	require.Error(t, CheckBits(0x20<<24|0x8000))
}

func TestDivSmallIsTruncatingAndLossOnly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w0 := rapid.Uint64().Draw(t, "w0")
		w1 := rapid.Uint64().Draw(t, "w1")
		w2 := rapid.Uint64().Draw(t, "w2")
		w3 := rapid.Uint64().Draw(t, "w3")
		v := ArithU256{w0, w1, w2, w3}
		k := rapid.Uint64Range(1, 1<<20).Draw(t, "k")

		product := v.MulSmall(k)
		quotient := product.DivSmall(k)

		// v*k mod 2^256 never exceeds v*k, so truncating division of it
		// by k never exceeds v, whether or not the multiplication wrapped.
		require.True(t, quotient.LessThan(v) || quotient.Cmp(v) == 0)
	})
}

func TestMaxTargetIsExpectedValue(t *testing.T) {
	// 2^224*(2^32-1)/2^32: top 4 bytes zero, next 4 bytes 0xff, rest zero.
	b := MaxTarget.Bytes()
	require.Equal(t, byte(0x00), b[0])
	require.Equal(t, byte(0x00), b[3])
	require.Equal(t, byte(0xff), b[4])
	require.Equal(t, byte(0xff), b[7])
	require.Equal(t, byte(0x00), b[8])
	require.Equal(t, byte(0x00), b[31])
}

func TestFromCompactGenesisBits(t *testing.T) {
	target := FromCompact(GenesisBits)
	require.True(t, target.Cmp(MaxTarget) <= 0)
}
