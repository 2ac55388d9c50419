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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rrybarczyk/intermodal/pkg/bitfield"
	"github.com/rrybarczyk/intermodal/pkg/metainfo"
)

// LengthMismatch reports a file present at the wrong size.
type LengthMismatch struct {
	Path     string
	Expected metainfo.Bytes
	Actual   metainfo.Bytes
}

// PieceMismatch reports a piece whose recomputed digest differs from
// the stored one. Begin and End bound the piece's 0-based byte range in
// the logical content stream; End is exclusive.
type PieceMismatch struct {
	Index int
	Begin metainfo.Bytes
	End   metainfo.Bytes
}

// Status is the outcome of verifying content against a metainfo
// document.
type Status struct {
	// Missing lists expected files absent from disk, by in-torrent
	// relative path.
	Missing []string

	// LengthMismatches lists files present at the wrong size.
	LengthMismatches []LengthMismatch

	// BadPieces lists pieces whose content did not match. It is only
	// populated when the file layout matched, since a missing or
	// missized file shifts every subsequent byte of the stream.
	BadPieces []PieceMismatch

	// PieceCountMismatch reports a stored piece list whose length does
	// not cover the declared content.
	PieceCountMismatch bool

	// Incomplete marks a verification cut short by cancellation.
	Incomplete bool

	// Good marks the pieces whose digests matched.
	Good bitfield.Bitfield

	// Pieces is the stored piece count.
	Pieces int
}

// Ok reports whether the content matched the document completely.
func (s *Status) Ok() bool {
	return len(s.Missing) == 0 &&
		len(s.LengthMismatches) == 0 &&
		len(s.BadPieces) == 0 &&
		!s.PieceCountMismatch &&
		!s.Incomplete
}

// Summary renders a one-line description of the status.
func (s *Status) Summary() string {
	if s.Ok() {
		return "ok"
	}

	var parts []string
	if n := len(s.Missing); n > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", n))
	}
	if n := len(s.LengthMismatches); n > 0 {
		parts = append(parts, fmt.Sprintf("%d missized", n))
	}
	if n := len(s.BadPieces); n > 0 {
		parts = append(parts, fmt.Sprintf("%d corrupt pieces", n))
	}
	if s.PieceCountMismatch {
		parts = append(parts, "piece count mismatch")
	}
	if s.Incomplete {
		parts = append(parts, "incomplete")
	}
	return strings.Join(parts, ", ")
}

// String renders the full diff, one line per defect.
func (s *Status) String() string {
	if s.Ok() {
		return "ok"
	}

	var b strings.Builder
	for _, path := range s.Missing {
		fmt.Fprintf(&b, "missing: %s\n", path)
	}
	for _, mismatch := range s.LengthMismatches {
		fmt.Fprintf(
			&b, "size mismatch: %s: expected %d bytes, found %d\n",
			mismatch.Path, mismatch.Expected, mismatch.Actual,
		)
	}
	for _, piece := range s.BadPieces {
		fmt.Fprintf(
			&b, "piece %d corrupt: bytes %d..%d\n",
			piece.Index, piece.Begin, piece.End,
		)
	}
	if s.PieceCountMismatch {
		fmt.Fprintf(&b, "piece list does not cover the declared content\n")
	}
	if s.Incomplete {
		fmt.Fprintf(&b, "verification incomplete\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Verify re-hashes the content at contentPath and diffs it against the
// document. For a single-file torrent, contentPath is the file itself;
// for a multi-file torrent it is the directory holding the torrent's
// files. Verification never modifies the target.
func Verify(ctx context.Context, m *metainfo.Metainfo, contentPath string) (*Status, error) {
	status := &Status{
		Pieces: m.PieceCount(),
		Good:   bitfield.New(m.PieceCount()),
	}

	expected := expectedEntries(m, contentPath)

	layoutOk := true
	for i := range expected {
		entry := &expected[i]

		info, err := os.Stat(entry.Source)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			status.Missing = append(status.Missing, entry.RelPath())
			layoutOk = false
			continue
		case err != nil:
			return nil, &FilesystemError{Path: entry.Source, Err: err}
		}

		if actual := metainfo.Bytes(info.Size()); actual != entry.Length {
			status.LengthMismatches = append(status.LengthMismatches, LengthMismatch{
				Path:     entry.RelPath(),
				Expected: entry.Length,
				Actual:   actual,
			})
			layoutOk = false
		}
	}

	if !layoutOk {
		return status, nil
	}

	hasher := &Hasher{PieceLength: m.Info.PieceLength}
	hashed, err := hasher.Hash(ctx, expected)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status.Incomplete = true
		return status, nil
	}
	if err != nil {
		return nil, err
	}

	if len(hashed.Pieces) != len(m.Info.Pieces) {
		status.PieceCountMismatch = true
		return status, nil
	}

	total := hashed.Total
	for i, digest := range hashed.Pieces {
		if digest == m.Info.Pieces[i] {
			status.Good.Set(i)
			continue
		}

		begin := metainfo.Bytes(i) * m.Info.PieceLength
		end := begin + m.Info.PieceLength
		if end > total {
			end = total
		}
		status.BadPieces = append(status.BadPieces, PieceMismatch{Index: i, Begin: begin, End: end})
	}

	return status, nil
}

// expectedEntries reconstructs the walk-ordered entry list a content
// tree must satisfy, with sources resolved under contentPath.
func expectedEntries(m *metainfo.Metainfo, contentPath string) []Entry {
	switch mode := m.Info.Mode.(type) {
	case metainfo.Single:
		return []Entry{{
			Path:   []string{m.Info.Name},
			Length: mode.Length,
			Source: contentPath,
		}}
	case metainfo.Multi:
		entries := make([]Entry, len(mode.Files))
		for i, f := range mode.Files {
			entries[i] = Entry{
				Path:   f.Path,
				Length: f.Length,
				Source: filepath.Join(append([]string{contentPath}, f.Path...)...),
			}
		}
		return entries
	default:
		return nil
	}
}
