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
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rrybarczyk/intermodal/internal/env"
	"github.com/rrybarczyk/intermodal/pkg/metainfo"
	"github.com/rrybarczyk/intermodal/pkg/torrent"
)

func newVerifyCommand(e *env.Env) *cobra.Command {
	var (
		input   string
		content string
	)

	command := &cobra.Command{
		Use:   "verify",
		Short: "Verify on-disk content against a torrent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag(input, "input"); err != nil {
				return err
			}

			m, err := metainfo.Load(input)
			if err != nil {
				return err
			}

			target := content
			if target == "" {
				// default to the named content next to the torrent file
				target = filepath.Join(filepath.Dir(input), m.Info.Name)
			}

			status, err := torrent.Verify(cmd.Context(), m, target)
			if err != nil {
				return err
			}

			if !status.Ok() {
				e.Println(status.String())
				return &torrent.VerifyError{Status: status}
			}

			e.Printf("verified %d pieces, %s ok\n", status.Pieces, m.TotalSize())
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVarP(&input, "input", "i", "", "torrent file to verify against")
	flags.StringVarP(&content, "content", "c", "", "content path; defaults to the torrent name beside the torrent file")

	return command
}
