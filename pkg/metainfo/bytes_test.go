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

package metainfo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrybarczyk/intermodal/pkg/metainfo"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in  string
		out metainfo.Bytes
	}{
		{"0", 0},
		{"5", 5},
		{"16384", 16384},
		{"16KiB", 16 * metainfo.KiB},
		{"16 KiB", 16 * metainfo.KiB},
		{"16kib", 16 * metainfo.KiB},
		{"1MiB", metainfo.MiB},
		{"1.5MiB", metainfo.MiB + 512*metainfo.KiB},
		{"2GiB", 2 * metainfo.GiB},
		{"1TiB", metainfo.TiB},
		{"512B", 512},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			out, err := metainfo.ParseBytes(test.in)
			require.NoError(t, err)
			assert.Equal(t, test.out, out)
		})
	}
}

func TestParseBytesErrors(t *testing.T) {
	for _, in := range []string{"", "KiB", "1.2.3"} {
		t.Run(in, func(t *testing.T) {
			_, err := metainfo.ParseBytes(in)

			var parseErr *metainfo.ByteParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}

	for _, in := range []string{"16KB", "16MB", "16kilobytes", "1PiB"} {
		t.Run(in, func(t *testing.T) {
			_, err := metainfo.ParseBytes(in)

			var suffixErr *metainfo.ByteSuffixError
			assert.ErrorAs(t, err, &suffixErr)
		})
	}
}

func TestBytesString(t *testing.T) {
	assert.Equal(t, "16 KiB", metainfo.Bytes(16384).String())
	assert.Equal(t, "1.0 MiB", metainfo.Bytes(1<<20).String())
}

func TestDigestString(t *testing.T) {
	assert.Equal(
		t,
		"aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d",
		metainfo.Sum1([]byte("hello")).String(),
	)
}

func TestMd5DigestWireForm(t *testing.T) {
	sum := metainfo.SumMd5([]byte("hello"))
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum.String())

	parsed, err := metainfo.Md5DigestFromHex(sum.String())
	require.NoError(t, err)
	assert.Equal(t, sum, parsed)

	_, err = metainfo.Md5DigestFromHex("short")
	assert.Error(t, err)
}

func TestPieceListWire(t *testing.T) {
	pieces := metainfo.PieceList{
		metainfo.Sum1([]byte("a")),
		metainfo.Sum1([]byte("b")),
	}

	wire := pieces.Wire()
	require.Len(t, wire, 40)

	parsed, err := metainfo.PieceListFromWire(wire)
	require.NoError(t, err)
	assert.Equal(t, pieces, parsed)

	_, err = metainfo.PieceListFromWire(wire[:39])
	assert.Error(t, err)
}
