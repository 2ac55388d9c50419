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

package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rrybarczyk/intermodal/internal/env"
	"github.com/rrybarczyk/intermodal/pkg/metainfo"
	"github.com/rrybarczyk/intermodal/pkg/torrent"
)

func TestPrintError(t *testing.T) {
	e, out, errOut := env.Test()

	e.PrintError(&torrent.OutputExistsError{Path: "x.torrent"})

	assert.Empty(t, out.String())
	assert.Equal(t, "error: output path already exists: `x.torrent`\n", errOut.String())
}

func TestPrintErrorLintNote(t *testing.T) {
	e, _, errOut := env.Test()

	e.PrintError(&torrent.PieceLengthSmallError{Length: 8 * metainfo.KiB})

	assert.Contains(t, errOut.String(), "error: piece length 8.0 KiB must be at least 16 KiB")
	assert.Contains(
		t,
		errOut.String(),
		"note: this check can be disabled with `--allow small-piece-length`",
	)
}

func TestFieldAlignment(t *testing.T) {
	e, out, _ := env.Test()

	e.Field("Name", "value")
	assert.Equal(t, "          Name  value\n", out.String())
}
