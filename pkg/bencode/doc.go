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

// Package bencode implements a canonical, strict bencode codec.
//
// Marshal produces canonical bencoding: dictionary keys in ascending byte
// order, integers without leading zeros, no padding of any kind. Unmarshal
// accepts only canonical input, rejecting unordered or duplicate keys,
// leading zeros, negative zero, and trailing data. Together that makes
// decoding and encoding exact inverses on the wire: for any data accepted
// by Unmarshal into an empty interface, re-marshalling the decoded value
// reproduces the input byte-for-byte. Struct destinations skip unknown
// keys, so their re-encoding omits them. Torrent infohashes depend on
// this property.
package bencode
