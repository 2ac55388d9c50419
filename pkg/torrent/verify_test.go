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

package torrent_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrybarczyk/intermodal/pkg/metainfo"
	"github.com/rrybarczyk/intermodal/pkg/torrent"
)

// createTwoPieceTorrent builds the two-file, two-piece fixture: `a` is a
// piece of zeros, `b` a piece of ones.
func createTwoPieceTorrent(t *testing.T) (root string, m *metainfo.Metainfo) {
	t.Helper()

	dir := t.TempDir()
	root = filepath.Join(dir, "content")
	writeTree(t, root, map[string]string{
		"a": string(bytes.Repeat([]byte{0x00}, int(pieceLen))),
		"b": string(bytes.Repeat([]byte{0xff}, int(pieceLen))),
	})

	length := pieceLen
	result := create(t, torrent.CreateOptions{Input: root, PieceLength: &length})
	return root, result.Metainfo
}

func TestVerifyOk(t *testing.T) {
	root, m := createTwoPieceTorrent(t)

	status, err := torrent.Verify(context.Background(), m, root)
	require.NoError(t, err)
	assert.True(t, status.Ok())
	assert.Equal(t, "ok", status.String())
	assert.Equal(t, 2, status.Good.Count())
}

func TestVerifySingleFileOk(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(input, []byte("hello"), 0o644))

	result := create(t, torrent.CreateOptions{Input: input})

	status, err := torrent.Verify(context.Background(), result.Metainfo, input)
	require.NoError(t, err)
	assert.True(t, status.Ok())
}

func TestVerifyDetectsCorruption(t *testing.T) {
	root, m := createTwoPieceTorrent(t)

	// flip one byte inside `b`: piece 1 must be flagged, piece 0 not
	path := filepath.Join(root, "b")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content[100] ^= 0x01
	require.NoError(t, os.WriteFile(path, content, 0o644))

	status, err := torrent.Verify(context.Background(), m, root)
	require.NoError(t, err)

	assert.False(t, status.Ok())
	require.Len(t, status.BadPieces, 1)
	assert.Equal(t, 1, status.BadPieces[0].Index)
	assert.Equal(t, pieceLen, status.BadPieces[0].Begin)
	assert.Equal(t, 2*pieceLen, status.BadPieces[0].End)
	assert.True(t, status.Good.Has(0))
	assert.False(t, status.Good.Has(1))
	assert.Contains(t, status.String(), "piece 1 corrupt")
}

func TestVerifyMissingFile(t *testing.T) {
	root, m := createTwoPieceTorrent(t)
	require.NoError(t, os.Remove(filepath.Join(root, "a")))

	status, err := torrent.Verify(context.Background(), m, root)
	require.NoError(t, err)

	assert.False(t, status.Ok())
	assert.Equal(t, []string{"a"}, status.Missing)
	assert.Empty(t, status.BadPieces)
	assert.Contains(t, status.String(), "missing: a")
}

func TestVerifyLengthMismatch(t *testing.T) {
	root, m := createTwoPieceTorrent(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "b"), []byte("short"), 0o644))

	status, err := torrent.Verify(context.Background(), m, root)
	require.NoError(t, err)

	assert.False(t, status.Ok())
	require.Len(t, status.LengthMismatches, 1)
	assert.Equal(t, "b", status.LengthMismatches[0].Path)
	assert.Equal(t, pieceLen, status.LengthMismatches[0].Expected)
	assert.Equal(t, metainfo.Bytes(5), status.LengthMismatches[0].Actual)
}

func TestVerifyShortFinalPieceRange(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "f")
	content := bytes.Repeat([]byte{0x07}, int(pieceLen)+10)
	require.NoError(t, os.WriteFile(input, content, 0o644))

	length := pieceLen
	result := create(t, torrent.CreateOptions{Input: input, PieceLength: &length})

	// corrupt the short final piece
	content[len(content)-1] ^= 0x01
	require.NoError(t, os.WriteFile(input, content, 0o644))

	status, err := torrent.Verify(context.Background(), result.Metainfo, input)
	require.NoError(t, err)

	require.Len(t, status.BadPieces, 1)
	assert.Equal(t, 1, status.BadPieces[0].Index)
	assert.Equal(t, pieceLen, status.BadPieces[0].Begin)
	// the range is clamped to the end of the content
	assert.Equal(t, pieceLen+10, status.BadPieces[0].End)
}

func TestVerifyCancelled(t *testing.T) {
	root, m := createTwoPieceTorrent(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := torrent.Verify(ctx, m, root)
	require.NoError(t, err)
	assert.True(t, status.Incomplete)
	assert.False(t, status.Ok())
}

// Creating a torrent and verifying the unchanged tree must always
// report ok.
func TestCreateThenVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "tree")
	writeTree(t, root, map[string]string{
		"a/1": "alpha",
		"a/2": "",
		"b":   "bravo",
		"c/d": string(bytes.Repeat([]byte{0x42}, int(pieceLen)+100)),
	})

	result := create(t, torrent.CreateOptions{Input: root})

	status, err := torrent.Verify(context.Background(), result.Metainfo, root)
	require.NoError(t, err)
	assert.True(t, status.Ok(), status.String())
}

func TestVerifyErrorRendersSummary(t *testing.T) {
	status := &torrent.Status{Missing: []string{"a", "b"}}
	err := &torrent.VerifyError{Status: status}
	assert.Contains(t, err.Error(), "2 missing")
}
