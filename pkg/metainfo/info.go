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
	"unicode/utf8"

	"github.com/rrybarczyk/intermodal/pkg/bencode"
)

// Info is the info dictionary of a torrent: the piece layout and the
// file or files the pieces cover. Its canonical bencoding, hashed with
// SHA-1, is the torrent's infohash.
type Info struct {
	// PieceLength is the number of bytes per piece. Every piece except
	// possibly the last has exactly this size.
	PieceLength Bytes

	// Name is the suggested filename in single-file mode, or the name of
	// the containing directory in multi-file mode.
	Name string

	// Pieces holds one SHA-1 digest per piece, in content order.
	Pieces PieceList

	// Private reports the BEP 27 private flag. The pointer preserves
	// presence: a torrent with `private` explicitly set to 0 re-encodes
	// with the key intact.
	Private *bool

	// Source is an optional free-form tag, commonly used by private
	// trackers to force distinct infohashes.
	Source string

	// Mode is the single-file or multi-file layout.
	Mode Mode
}

// Mode is the closed set of torrent layouts: Single or Multi. The two
// are mutually exclusive on the wire, distinguished by whether the info
// dictionary carries a `length` or a `files` key.
type Mode interface {
	isMode()

	// TotalSize returns the total content size in bytes.
	TotalSize() Bytes
}

// Single is the layout of a one-file torrent.
type Single struct {
	// Length is the size of the file.
	Length Bytes

	// Md5sum is the optional checksum of the file.
	Md5sum *Md5Digest
}

// Multi is the layout of a torrent containing a directory of files.
type Multi struct {
	// Files lists the files in content order. The piece stream is the
	// concatenation of their bytes in exactly this order.
	Files []File
}

func (Single) isMode() {}
func (Multi) isMode()  {}

// TotalSize returns the size of the single file.
func (s Single) TotalSize() Bytes {
	return s.Length
}

// TotalSize returns the summed size of all files.
func (m Multi) TotalSize() Bytes {
	var total Bytes
	for _, f := range m.Files {
		total += f.Length
	}
	return total
}

// File is one file of a multi-file torrent.
type File struct {
	// Length is the size of the file.
	Length Bytes

	// Path holds the file's path components relative to the torrent
	// root, without the torrent name.
	Path []string

	// Md5sum is the optional checksum of the file.
	Md5sum *Md5Digest
}

// fileDict is the wire form of File.
type fileDict struct {
	Length Bytes    `bencode:"length"`
	Md5sum string   `bencode:"md5sum,omitempty"`
	Path   []string `bencode:"path"`
}

// infoDict is the wire form of Info. The Mode keys are flattened into
// the dictionary; the codec emits all keys in canonical order.
type infoDict struct {
	Files       *[]fileDict `bencode:"files,omitempty"`
	Length      *Bytes     `bencode:"length,omitempty"`
	Md5sum      string     `bencode:"md5sum,omitempty"`
	Name        string     `bencode:"name"`
	PieceLength Bytes      `bencode:"piece length"`
	Pieces      []byte     `bencode:"pieces"`
	Private     *bool      `bencode:"private,omitempty"`
	Source      string     `bencode:"source,omitempty"`
}

// wire converts the Info into its wire form.
func (i *Info) wire() (*infoDict, error) {
	w := &infoDict{
		Name:        i.Name,
		PieceLength: i.PieceLength,
		Pieces:      i.Pieces.Wire(),
		Private:     i.Private,
		Source:      i.Source,
	}

	switch mode := i.Mode.(type) {
	case Single:
		length := mode.Length
		w.Length = &length
		if mode.Md5sum != nil {
			w.Md5sum = mode.Md5sum.String()
		}
	case Multi:
		files := make([]fileDict, len(mode.Files))
		for n, f := range mode.Files {
			files[n] = fileDict{Length: f.Length, Path: f.Path}
			if f.Md5sum != nil {
				files[n].Md5sum = f.Md5sum.String()
			}
		}
		w.Files = &files
	default:
		return nil, fmt.Errorf("info has no file mode")
	}

	return w, nil
}

// fromWire converts the wire form back into an Info, validating the
// structural invariants the wire format cannot express.
func (w *infoDict) fromWire() (*Info, error) {
	if w.Name == "" {
		return nil, fmt.Errorf("info name is missing or empty")
	}
	if !utf8.ValidString(w.Name) {
		return nil, fmt.Errorf("info name is not valid UTF-8")
	}
	if w.PieceLength == 0 {
		return nil, fmt.Errorf("piece length cannot be zero")
	}

	pieces, err := PieceListFromWire(w.Pieces)
	if err != nil {
		return nil, err
	}

	var mode Mode
	switch {
	case w.Length != nil && w.Files != nil:
		return nil, fmt.Errorf("info has both `length` and `files`")
	case w.Length != nil:
		single := Single{Length: *w.Length}
		if w.Md5sum != "" {
			sum, err := Md5DigestFromHex(w.Md5sum)
			if err != nil {
				return nil, err
			}
			single.Md5sum = &sum
		}
		mode = single
	case w.Files != nil:
		files := make([]File, len(*w.Files))
		for n, fd := range *w.Files {
			if err := validatePath(fd.Path); err != nil {
				return nil, fmt.Errorf("file %d: %w", n, err)
			}

			files[n] = File{Length: fd.Length, Path: fd.Path}
			if fd.Md5sum != "" {
				sum, err := Md5DigestFromHex(fd.Md5sum)
				if err != nil {
					return nil, fmt.Errorf("file %d: %w", n, err)
				}
				files[n].Md5sum = &sum
			}
		}
		mode = Multi{Files: files}
	default:
		return nil, fmt.Errorf("info has neither `length` nor `files`")
	}

	return &Info{
		PieceLength: w.PieceLength,
		Name:        w.Name,
		Pieces:      pieces,
		Private:     w.Private,
		Source:      w.Source,
		Mode:        mode,
	}, nil
}

// validatePath checks the in-torrent path component invariants.
func validatePath(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("file path is empty")
	}

	for _, component := range path {
		switch {
		case component == "":
			return fmt.Errorf("file path contains an empty component")
		case component == "." || component == "..":
			return fmt.Errorf("file path contains non-normal component `%s`", component)
		case !utf8.ValidString(component):
			return fmt.Errorf("file path component is not valid UTF-8")
		}
	}
	return nil
}

// Infohash computes the SHA-1 of the canonical bencoding of the info
// dictionary alone. It identifies the torrent in peer networks.
func (i *Info) Infohash() (Digest, error) {
	w, err := i.wire()
	if err != nil {
		return Digest{}, err
	}

	data, err := bencode.Marshal(w)
	if err != nil {
		return Digest{}, err
	}

	return Sum1(data), nil
}
