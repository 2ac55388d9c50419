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

// Package env holds the process environment capability: the output and
// error sinks, the working directory, and the color snapshot taken once
// at startup. Commands write through an Env instead of touching the
// process streams, so tests can capture everything in buffers.
package env

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/rrybarczyk/intermodal/pkg/torrent"
)

// Env is a process environment. The sinks are owned by the environment
// and loaned to commands for the duration of a run.
type Env struct {
	// Out and Err receive normal and diagnostic output.
	Out io.Writer
	Err io.Writer

	// Dir is the working directory.
	Dir string

	// OutIsTerm and ErrIsTerm report whether the sinks are terminals,
	// snapshotted at construction.
	OutIsTerm bool
	ErrIsTerm bool

	// NoColor disables styled output.
	NoColor bool
}

// Main builds the Env of the real process: standard streams, current
// directory, and color detection honoring NO_COLOR and TERM=dumb.
func Main() *Env {
	dir, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("failed to get current directory: %v", err))
	}

	_, noColorSet := os.LookupEnv("NO_COLOR")

	return &Env{
		Out:       os.Stdout,
		Err:       os.Stderr,
		Dir:       dir,
		OutIsTerm: isatty.IsTerminal(os.Stdout.Fd()),
		ErrIsTerm: isatty.IsTerminal(os.Stderr.Fd()),
		NoColor:   noColorSet || os.Getenv("TERM") == "dumb",
	}
}

// Test builds an Env that captures output in buffers.
func Test() (*Env, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	return &Env{
		Out:     out,
		Err:     errOut,
		Dir:     os.TempDir(),
		NoColor: true,
	}, out, errOut
}

// style renders text with the given color unless styling is disabled.
func (e *Env) style(c *color.Color, text string) string {
	if e.NoColor {
		return text
	}
	return c.Sprint(text)
}

var (
	errStyle   = color.New(color.FgRed, color.Bold)
	noteStyle  = color.New(color.FgCyan, color.Bold)
	labelStyle = color.New(color.Bold)
)

// Printf writes formatted output to the output sink.
func (e *Env) Printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// Println writes a line to the output sink.
func (e *Env) Println(args ...any) {
	fmt.Fprintln(e.Out, args...)
}

// Field writes a right-aligned, styled "label  value" line to the
// output sink.
func (e *Env) Field(label, value string) {
	fmt.Fprintf(e.Out, "%s  %s\n", e.style(labelStyle, fmt.Sprintf("%14s", label)), value)
}

// PrintError renders an error to the error sink with the standard
// `error:` prefix. Errors backed by a lint get a note naming the
// --allow argument that disables the check.
func (e *Env) PrintError(err error) {
	fmt.Fprintf(e.Err, "%s: %v\n", e.style(errStyle, "error"), err)

	var linted torrent.Linted
	if errors.As(err, &linted) {
		fmt.Fprintf(
			e.Err,
			"%s: this check can be disabled with `--allow %s`\n",
			e.style(noteStyle, "note"),
			linted.Lint().Name(),
		)
	}
}
