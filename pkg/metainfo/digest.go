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

package metainfo

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Digest is a SHA-1 result. Its wire form is the raw 20 bytes.
type Digest [sha1.Size]byte

// Sum1 returns the SHA-1 digest of data.
func Sum1(data []byte) Digest {
	return Digest(sha1.Sum(data))
}

// String renders the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Md5Digest is an MD5 result, used for optional per-file checksums. Its
// wire form is the 32-character lowercase hex string, not raw bytes.
type Md5Digest [md5.Size]byte

// SumMd5 returns the MD5 digest of data.
func SumMd5(data []byte) Md5Digest {
	return Md5Digest(md5.Sum(data))
}

// Md5DigestFromHex parses the wire form of an MD5 digest.
func Md5DigestFromHex(text string) (Md5Digest, error) {
	var d Md5Digest
	if len(text) != md5.Size*2 {
		return d, fmt.Errorf("md5 digest must be %d hex characters, got %d", md5.Size*2, len(text))
	}

	b, err := hex.DecodeString(text)
	if err != nil {
		return d, err
	}

	copy(d[:], b)
	return d, nil
}

// String renders the digest in its wire form.
func (d Md5Digest) String() string {
	return hex.EncodeToString(d[:])
}

// PieceList is an ordered sequence of piece digests. Its wire form is a
// single string of the concatenated raw digests, so its byte length is
// always a multiple of 20.
type PieceList []Digest

// PieceListFromWire splits the wire form of a piece list.
func PieceListFromWire(data []byte) (PieceList, error) {
	if len(data)%sha1.Size != 0 {
		return nil, fmt.Errorf("piece list length %d is not a multiple of %d", len(data), sha1.Size)
	}

	pieces := make(PieceList, len(data)/sha1.Size)
	for i := range pieces {
		copy(pieces[i][:], data[i*sha1.Size:])
	}
	return pieces, nil
}

// Wire returns the concatenated raw digests.
func (p PieceList) Wire() []byte {
	wire := make([]byte, 0, len(p)*sha1.Size)
	for _, d := range p {
		wire = append(wire, d[:]...)
	}
	return wire
}

// Count returns the number of pieces.
func (p PieceList) Count() int {
	return len(p)
}
