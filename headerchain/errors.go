// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import "fmt"

// InvalidHeaderError is returned when a byte slice cannot be parsed as a
// header: wrong length, or empty input.
type InvalidHeaderError struct {
	Reason string
}

func (e *InvalidHeaderError) Error() string {
	return "invalid header: " + e.Reason
}

// MissingHeaderError is returned when a header or hash is requested at a
// height this chain (and its ancestors) has no record of.
type MissingHeaderError struct {
	Height int32
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("missing header at height %d", e.Height)
}

// FileNotFoundError is returned when a chain's backing file, or the
// headers directory itself, is missing from disk.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("headers file not found: %s", e.Path)
}

// VerifyError is returned on a structural or linkage failure: a
// prev-hash or expected-hash mismatch in VerifyHeader (and so in
// VerifyChunk), a malformed bits encoding in CheckBits, or a SaveHeader
// call whose header does not extend the chain by one.
type VerifyError struct {
	Reason string
}

func (e *VerifyError) Error() string {
	return "header verification failed: " + e.Reason
}
