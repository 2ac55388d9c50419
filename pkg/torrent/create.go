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

// Package torrent implements the create and verify pipelines: walking
// content trees, hashing piece streams, and diffing content against
// metainfo documents.
package torrent

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rrybarczyk/intermodal/pkg/metainfo"
)

// Version is the program version recorded in created torrents. It is
// overridden at release build time.
var Version = "dev"

// CreateOptions configures a create run.
type CreateOptions struct {
	// Input is the file or directory to make a torrent of.
	Input string

	// Announce lists tracker URLs forming the first tier; the first is
	// also the top-level announce URL.
	Announce []string

	// AnnounceTiers lists additional tiers of interchangeable trackers.
	AnnounceTiers [][]string

	// PieceLength overrides the automatic piece length choice.
	PieceLength *metainfo.Bytes

	// Name overrides the torrent name; defaults to the input basename.
	Name string

	// Comment, Source set the corresponding metainfo fields.
	Comment string
	Source  string

	// Private sets the BEP 27 private flag.
	Private bool

	// Md5 records a per-file MD5 checksum.
	Md5 bool

	// NoCreationDate omits the creation date field.
	NoCreationDate bool

	// Nodes lists DHT bootstrap nodes to record.
	Nodes []metainfo.Node

	// FollowSymlinks, IncludeHidden, Globs configure the walk.
	FollowSymlinks bool
	IncludeHidden  bool
	Globs          []string

	// Allow lists lints the user has opted out of.
	Allow []Lint

	// Force overwrites an existing output file.
	Force bool

	// Output overrides the output path; defaults to `<input>.torrent`.
	Output string

	// Progress, when set, receives hashed byte counts.
	Progress func(n int64)
}

// allowed reports whether a lint was opted out of.
func (o *CreateOptions) allowed(lint Lint) bool {
	for _, l := range o.Allow {
		if l == lint {
			return true
		}
	}
	return false
}

// CreateResult describes a successfully created torrent.
type CreateResult struct {
	// Metainfo is the created document.
	Metainfo *metainfo.Metainfo

	// Output is the path the torrent was written to.
	Output string

	// Infohash identifies the created torrent.
	Infohash metainfo.Digest
}

// Create builds a torrent from the options and writes it to the output
// path. The write is atomic: the document lands under a temporary name
// and is renamed into place, so a cancelled or failed run leaves no
// partial torrent behind.
func Create(ctx context.Context, opts CreateOptions) (*CreateResult, error) {
	announceList, err := validateTrackers(opts)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = filepath.Clean(opts.Input) + ".torrent"
	}
	if !opts.Force {
		if _, err := os.Lstat(output); err == nil {
			return nil, &OutputExistsError{Path: output}
		}
	}

	walker := &Walker{
		Root:           opts.Input,
		FollowSymlinks: opts.FollowSymlinks,
		IncludeHidden:  opts.IncludeHidden,
		Globs:          opts.Globs,
	}
	walked, err := walker.Walk()
	if err != nil {
		return nil, err
	}

	pieceLength := AutoPieceLength(walked.TotalSize())
	if opts.PieceLength != nil {
		pieceLength = *opts.PieceLength
	}
	if err := CheckPieceLength(pieceLength, opts.allowed); err != nil {
		return nil, err
	}

	hasher := &Hasher{
		PieceLength: pieceLength,
		Md5:         opts.Md5,
		Progress:    opts.Progress,
	}
	hashed, err := hasher.Hash(ctx, walked.Entries)
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = walked.RootName
	}

	info := metainfo.Info{
		PieceLength: pieceLength,
		Name:        name,
		Pieces:      hashed.Pieces,
		Source:      opts.Source,
		Mode:        buildMode(walked, hashed),
	}
	if opts.Private {
		private := true
		info.Private = &private
	}

	m := &metainfo.Metainfo{
		Announce:     opts.Announce[0],
		AnnounceList: announceList,
		Comment:      opts.Comment,
		CreatedBy:    "intermodal/" + Version,
		Info:         info,
		Nodes:        opts.Nodes,
	}
	if !opts.NoCreationDate {
		date := time.Now().Unix()
		m.CreationDate = &date
	}

	infohash, err := m.Info.Infohash()
	if err != nil {
		return nil, err
	}

	if err := writeAtomic(m, output); err != nil {
		return nil, err
	}

	return &CreateResult{Metainfo: m, Output: output, Infohash: infohash}, nil
}

// validateTrackers checks the announce URLs and assembles the tier
// list. The primary tracker appears both as the top-level announce URL
// and at the head of the first tier, the layout most clients expect.
func validateTrackers(opts CreateOptions) ([][]string, error) {
	if len(opts.Announce) == 0 {
		return nil, &AnnounceEmptyError{}
	}

	tiers := append([][]string{opts.Announce}, opts.AnnounceTiers...)
	for _, tier := range tiers {
		for _, tracker := range tier {
			if err := validateTrackerURL(tracker); err != nil {
				return nil, err
			}
		}
	}

	// a lone tracker needs no tier list
	if len(tiers) == 1 && len(tiers[0]) == 1 {
		return nil, nil
	}
	return tiers, nil
}

func validateTrackerURL(text string) error {
	u, err := url.Parse(text)
	if err != nil {
		return &AnnounceURLParseError{Text: text, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return &AnnounceURLParseError{Text: text, Err: fmt.Errorf("URL must be absolute with a host")}
	}
	return nil
}

// buildMode assembles the Mode from the walk and hash results.
func buildMode(walked *WalkResult, hashed *HashResult) metainfo.Mode {
	if walked.SingleFile {
		single := metainfo.Single{Length: walked.Entries[0].Length}
		if len(hashed.Md5sums) == 1 {
			single.Md5sum = &hashed.Md5sums[0]
		}
		return single
	}

	files := make([]metainfo.File, len(walked.Entries))
	for i, entry := range walked.Entries {
		files[i] = metainfo.File{Length: entry.Length, Path: entry.Path}
		if hashed.Md5sums != nil {
			files[i].Md5sum = &hashed.Md5sums[i]
		}
	}
	return metainfo.Multi{Files: files}
}

// writeAtomic writes the document next to its destination and renames
// it into place.
func writeAtomic(m *metainfo.Metainfo, output string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(output)
	tmp, err := os.CreateTemp(dir, ".intermodal-*")
	if err != nil {
		return &FilesystemError{Path: dir, Err: err}
	}

	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return &FilesystemError{Path: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return &FilesystemError{Path: name, Err: err}
	}

	if err := os.Rename(name, output); err != nil {
		os.Remove(name)
		return &FilesystemError{Path: output, Err: err}
	}
	return nil
}
