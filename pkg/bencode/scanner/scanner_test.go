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

package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrybarczyk/intermodal/pkg/bencode/scanner"
	"github.com/rrybarczyk/intermodal/pkg/bencode/token"
)

var validTests = []struct {
	input string
	valid bool
}{
	// no value
	{"", false},

	// non-closed value
	{"d", false},
	{"l", false},
	{"i", false},
	{"1", false},

	// closed multiple times
	{"dee", false},
	{"lee", false},
	{"iee", false},

	// data missing
	{"ie", false},
	{"1:", false},

	// proper values
	{"de", true},
	{"le", true},
	{"i1e", true},
	{"i-1e", true},
	{"i0e", true},
	{"0:", true},
	{"1:a", true},
	{"d1:ai1e1:bi2ee", true},
	{"d1:ad1:bdeee", true},

	// non-canonical numbers
	{"i01e", false},
	{"i-0e", false},
	{"i--1e", false},
	{"01:a", false},

	// non-canonical dictionaries
	{"d1:bi1e1:ai2ee", false},
	{"d1:ai1e1:ai2ee", false},
	{"d2:aai1e1:ai2ee", false},

	// multiple top-level values
	{"dede", false},
	{"i1e1:a", false},
}

func TestValid(t *testing.T) {
	for _, test := range validTests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.valid, scanner.Valid([]byte(test.input)))
		})
	}
}

func TestTokens(t *testing.T) {
	s := scanner.New([]byte("d1:a2:xyi-7ee"))
	require.NoError(t, s.Valid())

	types := make([]token.Type, 0, len(s.Tokens))
	for _, tok := range s.Tokens {
		types = append(types, tok.Type)
	}

	assert.Equal(t, []token.Type{
		token.DICT, token.STRING, token.STRING, token.INTEGER, token.END,
	}, types)

	assert.Equal(t, []byte("a"), s.Tokens[1].StringBytes())
	assert.Equal(t, []byte("xy"), s.Tokens[2].StringBytes())
	assert.Equal(t, "-7", s.Tokens[3].Number())
	assert.Equal(t, 8, s.Tokens[3].Offset)
}

func TestSyntaxErrorOffset(t *testing.T) {
	err := scanner.New([]byte("d1:bi1e1:ai2ee")).Valid()

	var syntaxErr *scanner.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, scanner.KeyOrder, syntaxErr.Kind)
	assert.Equal(t, 7, syntaxErr.Offset)
}

func TestBinaryStrings(t *testing.T) {
	// string payloads are raw bytes, not UTF-8
	input := append([]byte("3:"), 0x00, 0xff, 0xfe)
	s := scanner.New(input)
	require.NoError(t, s.Valid())
	assert.Equal(t, []byte{0x00, 0xff, 0xfe}, s.Tokens[0].StringBytes())
}
