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

// Package cmd wires the command-line surface to the create, verify, and
// show pipelines.
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rrybarczyk/intermodal/internal/env"
	"github.com/rrybarczyk/intermodal/pkg/torrent"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks an argument-parse failure, which exits with a
// distinct status code.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// requireFlag fails with a usage error when a required flag was not
// provided.
func requireFlag(value, name string) error {
	if value == "" {
		return &usageError{err: fmt.Errorf("the --%s flag is required", name)}
	}
	return nil
}

// options holds flags shared across subcommands.
type options struct {
	unstable bool
}

// NewRoot builds the torrent command tree over the given environment.
func NewRoot(e *env.Env) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "torrent",
		Short:         "Create, inspect, and verify BitTorrent metainfo files",
		Version:       torrent.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(
		&opts.unstable, "unstable", false,
		"enable unstable features",
	)

	root.SetOut(e.Out)
	root.SetErr(e.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(
		newCreateCommand(e, opts),
		newVerifyCommand(e),
		newShowCommand(e),
	)

	return root
}

// Execute runs the command tree on the given arguments and maps the
// outcome to an exit code: 0 on success (including help and version
// display), 2 on argument parse failures, and 1 for every other error.
func Execute(ctx context.Context, e *env.Env, args []string) int {
	root := NewRoot(e)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		e.PrintError(err)

		var usage *usageError
		if errors.As(err, &usage) {
			return exitUsage
		}
		return exitFailure
	}

	return exitSuccess
}
