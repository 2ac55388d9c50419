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

// Package metainfo models BitTorrent v1 metainfo documents and their
// canonical bencoded form.
package metainfo

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rrybarczyk/intermodal/pkg/bencode"
)

// Metainfo is a torrent document: an info dictionary plus tracker,
// seeding, and provenance metadata.
type Metainfo struct {
	// Announce is the primary tracker URL.
	Announce string

	// AnnounceList groups trackers into tiers: the outer list is in
	// priority order, trackers within a tier are interchangeable.
	AnnounceList [][]string

	// Comment is a free-form note set by the creator.
	Comment string

	// CreatedBy identifies the generating program.
	CreatedBy string

	// CreationDate is the creation time in seconds since the Unix epoch.
	CreationDate *int64

	// Encoding is the character encoding of string fields, when not
	// UTF-8.
	Encoding string

	// Info describes the content.
	Info Info

	// Nodes lists DHT bootstrap nodes.
	Nodes []Node

	// URLList lists BEP 19 HTTP seeds.
	URLList []string
}

// Node is a DHT bootstrap node. Its wire form is a [host, port] pair.
type Node struct {
	Host string
	Port uint16
}

func (n Node) String() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// LoadError reports a torrent file that could not be read or decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to deserialize torrent metainfo from `%s`: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SerializeError reports a Metainfo that could not be encoded.
type SerializeError struct {
	Err error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("failed to serialize torrent metainfo: %v", e.Err)
}

func (e *SerializeError) Unwrap() error { return e.Err }

// metainfoDict is the wire form of Metainfo.
type metainfoDict struct {
	Announce     string     `bencode:"announce,omitempty"`
	AnnounceList [][]string `bencode:"announce-list,omitempty"`
	Comment      string     `bencode:"comment,omitempty"`
	CreatedBy    string     `bencode:"created by,omitempty"`
	CreationDate *int64     `bencode:"creation date,omitempty"`
	Encoding     string     `bencode:"encoding,omitempty"`
	Info         infoDict   `bencode:"info"`
	Nodes        [][]any    `bencode:"nodes,omitempty"`
	URLList      []string   `bencode:"url-list,omitempty"`
}

// Load reads and decodes the torrent file at path.
func Load(path string) (*Metainfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	m, err := Unmarshal(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return m, nil
}

// Unmarshal decodes a Metainfo from its canonical bencoding.
func Unmarshal(data []byte) (*Metainfo, error) {
	var w metainfoDict
	if err := bencode.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	info, err := w.Info.fromWire()
	if err != nil {
		return nil, err
	}

	var nodes []Node
	for _, pair := range w.Nodes {
		node, err := nodeFromWire(pair)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	return &Metainfo{
		Announce:     w.Announce,
		AnnounceList: w.AnnounceList,
		Comment:      w.Comment,
		CreatedBy:    w.CreatedBy,
		CreationDate: w.CreationDate,
		Encoding:     w.Encoding,
		Info:         *info,
		Nodes:        nodes,
		URLList:      w.URLList,
	}, nil
}

// Marshal encodes the Metainfo into its canonical bencoding.
func (m *Metainfo) Marshal() ([]byte, error) {
	info, err := m.Info.wire()
	if err != nil {
		return nil, &SerializeError{Err: err}
	}

	w := metainfoDict{
		Announce:     m.Announce,
		AnnounceList: m.AnnounceList,
		Comment:      m.Comment,
		CreatedBy:    m.CreatedBy,
		CreationDate: m.CreationDate,
		Encoding:     m.Encoding,
		Info:         *info,
		URLList:      m.URLList,
	}

	for _, node := range m.Nodes {
		w.Nodes = append(w.Nodes, []any{node.Host, int64(node.Port)})
	}

	data, err := bencode.Marshal(w)
	if err != nil {
		return nil, &SerializeError{Err: err}
	}
	return data, nil
}

// nodeFromWire converts a [host, port] pair into a Node.
func nodeFromWire(pair []any) (Node, error) {
	if len(pair) != 2 {
		return Node{}, fmt.Errorf("node entry must be a [host, port] pair")
	}

	host, ok := pair[0].(string)
	if !ok || host == "" {
		return Node{}, fmt.Errorf("node host must be a non-empty string")
	}

	port, ok := pair[1].(int64)
	if !ok || port < 0 || port > 65535 {
		return Node{}, fmt.Errorf("node port out of range")
	}

	return Node{Host: host, Port: uint16(port)}, nil
}

// Trackers returns the tracker tiers: the announce list when present,
// otherwise a single tier holding the primary announce URL.
func (m *Metainfo) Trackers() [][]string {
	if len(m.AnnounceList) > 0 {
		return m.AnnounceList
	}
	if m.Announce != "" {
		return [][]string{{m.Announce}}
	}
	return nil
}

// TotalSize returns the total content size in bytes.
func (m *Metainfo) TotalSize() Bytes {
	return m.Info.Mode.TotalSize()
}

// PieceCount returns the number of pieces.
func (m *Metainfo) PieceCount() int {
	return m.Info.Pieces.Count()
}

// MagnetLink derives the magnet link for the torrent: the infohash plus
// display name and tracker parameters.
func (m *Metainfo) MagnetLink() (string, error) {
	infohash, err := m.Info.Infohash()
	if err != nil {
		return "", err
	}

	var link strings.Builder
	link.WriteString("magnet:?xt=urn:btih:")
	link.WriteString(infohash.String())

	link.WriteString("&dn=")
	link.WriteString(url.QueryEscape(m.Info.Name))

	for _, tier := range m.Trackers() {
		for _, tracker := range tier {
			link.WriteString("&tr=")
			link.WriteString(url.QueryEscape(tracker))
		}
	}

	return link.String(), nil
}
