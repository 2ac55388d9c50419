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

package bencode_test

import (
	"bytes"
	"testing"

	jackpal "github.com/jackpal/bencode-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrybarczyk/intermodal/pkg/bencode"
	"github.com/rrybarczyk/intermodal/pkg/bencode/scanner"
)

type tagged struct {
	Announce string `bencode:"announce"`
	Comment  string `bencode:"comment,omitempty"`
	Date     int64  `bencode:"creation date,omitempty"`
	Skipped  string `bencode:"-"`
	Raw      []byte `bencode:"raw,omitempty"`
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		in   any
		out  string
	}{
		{"int", 123, "i123e"},
		{"negative int", -123, "i-123e"},
		{"zero", 0, "i0e"},
		{"uint", uint32(7), "i7e"},
		{"bool true", true, "i1e"},
		{"bool false", false, "i0e"},
		{"empty string", "", "0:"},
		{"string", "cat", "3:cat"},
		{"byte slice", []byte{0x00, 0xff}, "2:\x00\xff"},
		{"list", []any{int64(1), "a"}, "li1e1:ae"},
		{"nested list", [][]string{{"x"}}, "ll1:xee"},
		{"map sorted", map[string]int{"b": 2, "a": 1}, "d1:ai1e1:bi2ee"},
		{
			"struct sorted and omitempty",
			tagged{Announce: "udp://t", Skipped: "drop me"},
			"d8:announce7:udp://te",
		},
		{
			"struct full",
			tagged{Announce: "a", Comment: "c", Date: 5, Raw: []byte("xy")},
			"d8:announce1:a7:comment1:c13:creation datei5e3:raw2:xye",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := bencode.Marshal(test.in)
			require.NoError(t, err)
			assert.Equal(t, test.out, string(out))
		})
	}
}

func TestMarshalUnsupported(t *testing.T) {
	_, err := bencode.Marshal(3.14)
	var typeErr *bencode.UnsupportedTypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		in  string
		ptr any
		out any
	}{
		{in: "i123e", ptr: new(int), out: 123},
		{in: "i-123e", ptr: new(int), out: -123},
		{in: "i0e", ptr: new(int), out: 0},
		{in: "i1e", ptr: new(bool), out: true},
		{in: "0:", ptr: new(string), out: ""},
		{in: "3:cat", ptr: new(string), out: "cat"},
		{in: "2:\x00\xff", ptr: new([]byte), out: []byte{0x00, 0xff}},
		{in: "le", ptr: new(any), out: []any{}},
		{in: "li123e3:cate", ptr: new(any), out: []any{int64(123), "cat"}},
		{in: "lli123e3:catee", ptr: new(any), out: []any{[]any{int64(123), "cat"}}},
		{in: "de", ptr: new(any), out: map[string]any{}},
		{
			in:  "d3:cati123e3:dogi-123ee",
			ptr: new(any),
			out: map[string]any{"cat": int64(123), "dog": int64(-123)},
		},
		{
			in:  "d8:announce1:a7:comment1:c7:unknownli1eee",
			ptr: new(tagged),
			out: tagged{Announce: "a", Comment: "c"},
		},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			require.NoError(t, bencode.Unmarshal([]byte(test.in), test.ptr))

			v := indirectValue(test.ptr)
			assert.Equal(t, test.out, v)
		})
	}
}

func indirectValue(ptr any) any {
	switch p := ptr.(type) {
	case *int:
		return *p
	case *bool:
		return *p
	case *string:
		return *p
	case *[]byte:
		return *p
	case *any:
		return *p
	case *tagged:
		return *p
	default:
		return ptr
	}
}

func TestUnmarshalStrict(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind scanner.ErrorKind
	}{
		{"empty input", "", scanner.UnexpectedEOF},
		{"truncated integer", "i12", scanner.UnexpectedEOF},
		{"truncated string", "5:abc", scanner.UnexpectedEOF},
		{"truncated list", "li1e", scanner.UnexpectedEOF},
		{"truncated dict", "d1:ai1e", scanner.UnexpectedEOF},
		{"leading zero", "i012e", scanner.LeadingZero},
		{"negative zero", "i-0e", scanner.NegativeZero},
		{"empty integer", "ie", scanner.InvalidCharacter},
		{"bare minus", "i-e", scanner.InvalidCharacter},
		{"unordered keys", "d1:bi1e1:ai2ee", scanner.KeyOrder},
		{"duplicate keys", "d1:ai1e1:ai2ee", scanner.KeyOrder},
		{"non-string key", "di1ei2ee", scanner.InvalidCharacter},
		{"trailing data", "i1ei2e", scanner.TrailingData},
		{"trailing junk", "3:catx", scanner.TrailingData},
		{"garbage", "x", scanner.InvalidCharacter},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var v any
			err := bencode.Unmarshal([]byte(test.in), &v)

			var syntaxErr *scanner.SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, test.kind, syntaxErr.Kind)
		})
	}
}

// Canonical input must survive a decode/encode round trip unchanged.
func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"i0e",
		"i-42e",
		"0:",
		"4:spam",
		"le",
		"de",
		"l4:spami42ee",
		"d3:bar4:spam3:fooi42ee",
		"d4:infod6:lengthi5e4:name9:hello.txt12:piece lengthi16384e6:pieces20:aaaaaaaaaaaaaaaaaaaaee",
		"d5:filesld6:lengthi1e4:pathl1:aeed6:lengthi2e4:pathl3:dir1:beee4:name4:roote",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			var v any
			require.NoError(t, bencode.Unmarshal([]byte(in), &v))

			out, err := bencode.Marshal(v)
			require.NoError(t, err)
			assert.Equal(t, in, string(out))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, bencode.Valid([]byte("d1:ai1ee")))
	assert.False(t, bencode.Valid([]byte("d1:bi1e1:ai1ee")))
	assert.False(t, bencode.Valid([]byte("i1e ")))
}

// Our canonical encoder must agree with an independent implementation on
// shapes both support.
func TestMarshalAgainstJackpal(t *testing.T) {
	type entry struct {
		Length int64    `bencode:"length"`
		Path   []string `bencode:"path"`
	}
	v := struct {
		Announce string  `bencode:"announce"`
		Files    []entry `bencode:"files"`
		Name     string  `bencode:"name"`
	}{
		Announce: "udp://tracker.example:1337",
		Files: []entry{
			{Length: 1, Path: []string{"a"}},
			{Length: 2, Path: []string{"dir", "b"}},
		},
		Name: "root",
	}

	ours, err := bencode.Marshal(v)
	require.NoError(t, err)

	var theirs bytes.Buffer
	require.NoError(t, jackpal.Marshal(&theirs, v))

	assert.Equal(t, theirs.String(), string(ours))
}
