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
	"context"
	"crypto/md5"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/rrybarczyk/intermodal/pkg/metainfo"
)

// Hasher splits the logical content stream into fixed-size pieces and
// hashes each one. The stream is the concatenation of entry contents in
// walk order; pieces cross file boundaries without resetting.
//
// The hasher holds at most one open file and one piece-sized buffer at
// a time, regardless of file sizes.
type Hasher struct {
	// PieceLength is the size of every piece except possibly the last.
	PieceLength metainfo.Bytes

	// Md5 also computes a per-file MD5 checksum, reset at each file
	// boundary.
	Md5 bool

	// Progress, when set, receives byte-count increments as content is
	// hashed. It has no semantic effect.
	Progress func(n int64)
}

// HashResult is the outcome of hashing a content stream.
type HashResult struct {
	// Pieces holds one digest per piece.
	Pieces metainfo.PieceList

	// Md5sums holds one checksum per entry, in entry order. It is nil
	// unless per-file MD5 was requested.
	Md5sums []metainfo.Md5Digest

	// Total is the number of content bytes hashed.
	Total metainfo.Bytes
}

// Hash streams the entries' contents and returns the piece list. The
// context is observed at file and piece boundaries; cancellation
// abandons the run with the context's error.
func (h *Hasher) Hash(ctx context.Context, entries []Entry) (*HashResult, error) {
	if h.PieceLength == 0 {
		return nil, &PieceLengthZeroError{}
	}

	result := &HashResult{}
	if h.Md5 {
		result.Md5sums = make([]metainfo.Md5Digest, 0, len(entries))
	}

	// piece accumulator: buf[:fill] holds the current partial piece
	buf := make([]byte, h.PieceLength)
	fill := 0

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var fileMd5 hash.Hash
		if h.Md5 {
			fileMd5 = md5.New()
		}

		n, err := h.hashFile(ctx, entry, buf, &fill, fileMd5, result)
		if err != nil {
			return nil, err
		}

		if n != int64(entry.Length) {
			return nil, &FilesystemError{
				Path: entry.Source,
				Err:  fmt.Errorf("file size changed while hashing: expected %d bytes, read %d", entry.Length, n),
			}
		}

		if h.Md5 {
			var sum metainfo.Md5Digest
			fileMd5.Sum(sum[:0])
			result.Md5sums = append(result.Md5sums, sum)
		}

		result.Total += entry.Length
	}

	// the final piece may be short, but is only omitted when there is
	// no content at all
	if fill > 0 {
		result.Pieces = append(result.Pieces, metainfo.Sum1(buf[:fill]))
	}

	return result, nil
}

// hashFile feeds one file into the piece accumulator, emitting a digest
// each time the accumulator fills. It returns the number of bytes read.
func (h *Hasher) hashFile(
	ctx context.Context,
	entry Entry,
	buf []byte,
	fill *int,
	fileMd5 hash.Hash,
	result *HashResult,
) (int64, error) {
	file, err := os.Open(entry.Source)
	if err != nil {
		return 0, &FilesystemError{Path: entry.Source, Err: err}
	}
	defer file.Close()

	var total int64
	for {
		n, err := file.Read(buf[*fill:])

		if n > 0 {
			if fileMd5 != nil {
				fileMd5.Write(buf[*fill : *fill+n])
			}

			*fill += n
			total += int64(n)

			if h.Progress != nil {
				h.Progress(int64(n))
			}

			if *fill == len(buf) {
				result.Pieces = append(result.Pieces, metainfo.Sum1(buf))
				*fill = 0

				if err := ctx.Err(); err != nil {
					return total, err
				}
			}
		}

		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, &FilesystemError{Path: entry.Source, Err: err}
		}
	}
}
