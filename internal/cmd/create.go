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

package cmd

import (
	"net"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rrybarczyk/intermodal/internal/env"
	"github.com/rrybarczyk/intermodal/pkg/metainfo"
	"github.com/rrybarczyk/intermodal/pkg/torrent"
)

func newCreateCommand(e *env.Env, shared *options) *cobra.Command {
	var (
		input          string
		announce       []string
		announceTiers  []string
		pieceLength    string
		name           string
		comment        string
		source         string
		private        bool
		md5            bool
		noCreationDate bool
		followSymlinks bool
		includeHidden  bool
		globs          []string
		allow          []string
		nodes          []string
		force          bool
		output         string
	)

	command := &cobra.Command{
		Use:   "create",
		Short: "Create a torrent from a file or directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag(input, "input"); err != nil {
				return err
			}

			opts := torrent.CreateOptions{
				Input:          input,
				Announce:       announce,
				Name:           name,
				Comment:        comment,
				Source:         source,
				Private:        private,
				Md5:            md5,
				NoCreationDate: noCreationDate,
				FollowSymlinks: followSymlinks,
				IncludeHidden:  includeHidden,
				Globs:          globs,
				Force:          force,
				Output:         output,
			}

			for _, tier := range announceTiers {
				opts.AnnounceTiers = append(opts.AnnounceTiers, strings.Split(tier, ","))
			}

			if pieceLength != "" {
				length, err := metainfo.ParseBytes(pieceLength)
				if err != nil {
					return err
				}
				opts.PieceLength = &length
			}

			for _, text := range allow {
				lint, err := torrent.ParseLint(text)
				if err != nil {
					return err
				}
				opts.Allow = append(opts.Allow, lint)
			}

			if len(nodes) > 0 && !shared.unstable {
				return &torrent.UnstableError{Feature: "--node"}
			}
			for _, text := range nodes {
				node, err := parseNode(text)
				if err != nil {
					return err
				}
				opts.Nodes = append(opts.Nodes, node)
			}

			var bar *progressbar.ProgressBar
			if e.ErrIsTerm {
				bar = progressbar.NewOptions64(
					-1,
					progressbar.OptionSetWriter(e.Err),
					progressbar.OptionShowBytes(true),
					progressbar.OptionSetDescription("hashing"),
					progressbar.OptionClearOnFinish(),
				)
				opts.Progress = func(n int64) { bar.Add64(n) }
			}

			result, err := torrent.Create(cmd.Context(), opts)
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				return err
			}

			e.Field("Name", result.Metainfo.Info.Name)
			e.Field("Info Hash", result.Infohash.String())
			e.Field("Size", result.Metainfo.TotalSize().String())
			e.Field("Output", result.Output)
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVarP(&input, "input", "i", "", "file or directory to create a torrent of")
	flags.StringArrayVarP(&announce, "announce", "a", nil, "primary tracker announce URL, repeatable")
	flags.StringArrayVar(&announceTiers, "announce-tier", nil, "additional tracker tier, comma-separated URLs")
	flags.StringVarP(&pieceLength, "piece-length", "p", "", "piece length, e.g. 32KiB; chosen automatically when unset")
	flags.StringVarP(&name, "name", "N", "", "torrent name; defaults to the input basename")
	flags.StringVarP(&comment, "comment", "c", "", "comment to record")
	flags.StringVar(&source, "source", "", "source tag to record")
	flags.BoolVarP(&private, "private", "P", false, "mark the torrent as tracker-only")
	flags.BoolVar(&md5, "md5sum", false, "record a per-file MD5 checksum")
	flags.BoolVar(&noCreationDate, "no-creation-date", false, "omit the creation date")
	flags.BoolVar(&followSymlinks, "follow-symlinks", false, "follow symlinks instead of skipping them")
	flags.BoolVarP(&includeHidden, "include-hidden", "H", false, "include hidden files and directories")
	flags.StringArrayVarP(&globs, "glob", "g", nil, "filter files by glob; prefix with ! to exclude, last match wins")
	flags.StringArrayVar(&allow, "allow", nil, "allow a lint: small-piece-length, uneven-piece-length")
	flags.StringArrayVar(&nodes, "node", nil, "DHT bootstrap node as host:port (unstable)")
	flags.BoolVar(&force, "force", false, "overwrite the output file if it exists")
	flags.StringVarP(&output, "output", "o", "", "output path; defaults to the input path plus .torrent")

	return command
}

// parseNode parses a host:port DHT node address.
func parseNode(text string) (metainfo.Node, error) {
	host, portText, err := net.SplitHostPort(text)
	if err != nil {
		return metainfo.Node{}, &torrent.NodeParseError{Text: text, Err: err}
	}

	port, err := strconv.ParseUint(portText, 10, 16)
	if err != nil {
		return metainfo.Node{}, &torrent.NodeParseError{Text: text, Err: err}
	}

	return metainfo.Node{Host: host, Port: uint16(port)}, nil
}
