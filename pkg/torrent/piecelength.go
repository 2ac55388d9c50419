// Copyright © 2024 The intermodal authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package torrent

import (
	"math"

	"github.com/rrybarczyk/intermodal/pkg/metainfo"
)

const (
	// MinPieceLength is the smallest piece length that passes lints.
	MinPieceLength = 16 * metainfo.KiB

	// MaxAutoPieceLength caps the automatic piece length choice.
	MaxAutoPieceLength = 16 * metainfo.MiB

	// autoPieceCap is the piece count the automatic choice aims to stay
	// under.
	autoPieceCap = 2048
)

// AutoPieceLength chooses a piece length for the given content size:
// the smallest power of two in [16 KiB, 16 MiB] that keeps the piece
// count at or below autoPieceCap.
func AutoPieceLength(total metainfo.Bytes) metainfo.Bytes {
	length := MinPieceLength
	for length < MaxAutoPieceLength && pieceCount(total, length) > autoPieceCap {
		length *= 2
	}
	return length
}

// pieceCount returns ceil(total / length).
func pieceCount(total, length metainfo.Bytes) metainfo.Bytes {
	return (total + length - 1) / length
}

// CheckPieceLength enforces the piece length policy. Zero and
// over-32-bit lengths are always rejected; sub-16 KiB and non-power-of-
// two lengths are lints, skipped when allowed returns true.
func CheckPieceLength(length metainfo.Bytes, allowed func(Lint) bool) error {
	if length == 0 {
		return &PieceLengthZeroError{}
	}

	if length > math.MaxUint32 {
		return &PieceLengthTooLargeError{Length: length}
	}

	if length&(length-1) != 0 && !allowed(LintUnevenPieceLength) {
		return &PieceLengthUnevenError{Length: length}
	}

	if length < MinPieceLength && !allowed(LintSmallPieceLength) {
		return &PieceLengthSmallError{Length: length}
	}

	return nil
}
