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

// Package token defines the tokens emitted by the bencode scanner.
package token

import (
	"bytes"
	"fmt"
)

// Type indicates the type of a Token.
type Type int

const (
	ILLEGAL Type = iota

	INTEGER // i-12e
	STRING  // 3:cat

	DICT // d
	LIST // l

	END // e
)

var types = [...]string{
	ILLEGAL: "ILLEGAL",

	INTEGER: "INTEGER",
	STRING:  "STRING",

	DICT: "d",
	LIST: "l",

	END: "e",
}

// String converts a Type into a readable string from the types array if it
// is present in it. Otherwise, it formats it as token(<index>).
func (t Type) String() string {
	s := ""
	if 0 <= t && t < Type(len(types)) {
		s = types[t]
	}
	if s == "" {
		s = fmt.Sprintf("token(%d)", int(t))
	}
	return s
}

// Token represents a single token from a bencode source. Literal holds the
// raw source bytes of the token, including any framing bytes.
type Token struct {
	Type    Type   // type of the token
	Literal []byte // raw bytes from the source
	Offset  int    // offset of the token in the source
}

// StringBytes returns the payload of a STRING token, the bytes after the
// length prefix and colon.
func (t Token) StringBytes() []byte {
	i := bytes.IndexByte(t.Literal, ':')
	return t.Literal[i+1:]
}

// Number returns the decimal literal of an INTEGER token, without the
// enclosing 'i' and 'e'.
func (t Token) Number() string {
	return string(t.Literal[1 : len(t.Literal)-1])
}
