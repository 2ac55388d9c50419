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
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rrybarczyk/intermodal/internal/env"
	"github.com/rrybarczyk/intermodal/pkg/metainfo"
)

func newShowCommand(e *env.Env) *cobra.Command {
	var input string

	command := &cobra.Command{
		Use:   "show",
		Short: "Display a torrent's metainfo",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := requireFlag(input, "input"); err != nil {
				return err
			}

			m, err := metainfo.Load(input)
			if err != nil {
				return err
			}

			return show(e, m)
		},
	}

	command.Flags().StringVarP(&input, "input", "i", "", "torrent file to display")

	return command
}

func show(e *env.Env, m *metainfo.Metainfo) error {
	infohash, err := m.Info.Infohash()
	if err != nil {
		return err
	}

	e.Field("Name", m.Info.Name)
	if m.Comment != "" {
		e.Field("Comment", m.Comment)
	}
	if m.CreationDate != nil {
		e.Field("Created", time.Unix(*m.CreationDate, 0).UTC().Format(time.RFC3339))
	}
	if m.CreatedBy != "" {
		e.Field("Created By", m.CreatedBy)
	}
	if m.Encoding != "" {
		e.Field("Encoding", m.Encoding)
	}
	if m.Info.Source != "" {
		e.Field("Source", m.Info.Source)
	}
	e.Field("Info Hash", infohash.String())
	e.Field("Content Size", m.TotalSize().String())

	private := "no"
	if m.Info.Private != nil && *m.Info.Private {
		private = "yes"
	}
	e.Field("Private", private)

	for i, tier := range m.Trackers() {
		label := "Trackers"
		if len(m.Trackers()) > 1 {
			label = fmt.Sprintf("Tier %d", i+1)
		}
		e.Field(label, strings.Join(tier, " "))
	}

	for _, node := range m.Nodes {
		e.Field("DHT Node", node.String())
	}
	for _, seed := range m.URLList {
		e.Field("HTTP Seed", seed)
	}

	e.Field(
		"Pieces",
		fmt.Sprintf("%d x %s", m.PieceCount(), m.Info.PieceLength),
	)

	switch mode := m.Info.Mode.(type) {
	case metainfo.Single:
		e.Field("Files", m.Info.Name)
	case metainfo.Multi:
		e.Field("Files", fmt.Sprintf("%d", len(mode.Files)))
		for _, f := range mode.Files {
			e.Printf("                %s/%s  (%s)\n", m.Info.Name, strings.Join(f.Path, "/"), f.Length)
		}
	}

	link, err := m.MagnetLink()
	if err != nil {
		return err
	}
	e.Field("Magnet", link)

	return nil
}
