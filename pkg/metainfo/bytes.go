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
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Bytes is a non-negative byte count. On the wire it is a plain bencode
// integer; in user-facing text it parses from decimal numbers with binary
// suffixes (KiB, MiB, GiB, TiB) and renders through humanize.
type Bytes uint64

const (
	KiB Bytes = 1 << (10 * (iota + 1))
	MiB
	GiB
	TiB
)

// ByteParseError reports a byte count whose numeric part could not be
// parsed.
type ByteParseError struct {
	Text string
	Err  error
}

func (e *ByteParseError) Error() string {
	return fmt.Sprintf("failed to parse byte count `%s`: %v", e.Text, e.Err)
}

func (e *ByteParseError) Unwrap() error { return e.Err }

// ByteSuffixError reports a byte count with an unrecognized suffix.
type ByteSuffixError struct {
	Text   string
	Suffix string
}

func (e *ByteSuffixError) Error() string {
	return fmt.Sprintf("failed to parse byte count `%s`, invalid suffix: `%s`", e.Text, e.Suffix)
}

// ParseBytes parses a textual byte count: a decimal number with an
// optional binary suffix. A bare number is a count of bytes. Multiples
// are binary: 1 KiB = 1024 B.
func ParseBytes(text string) (Bytes, error) {
	s := strings.TrimSpace(text)

	i := len(s)
	for i > 0 {
		c := s[i-1]
		if c >= '0' && c <= '9' || c == '.' {
			break
		}
		i--
	}

	number := strings.TrimSpace(s[:i])
	suffix := strings.TrimSpace(s[i:])

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, &ByteParseError{Text: text, Err: err}
	}
	if value < 0 {
		return 0, &ByteParseError{Text: text, Err: fmt.Errorf("byte count cannot be negative")}
	}

	var multiple Bytes
	switch strings.ToLower(suffix) {
	case "", "b":
		multiple = 1
	case "kib":
		multiple = KiB
	case "mib":
		multiple = MiB
	case "gib":
		multiple = GiB
	case "tib":
		multiple = TiB
	default:
		return 0, &ByteSuffixError{Text: text, Suffix: suffix}
	}

	return Bytes(value * float64(multiple)), nil
}

// String renders the count as a humanized binary size, e.g. "16 KiB".
func (b Bytes) String() string {
	return humanize.IBytes(uint64(b))
}
