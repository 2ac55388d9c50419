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

package torrent

import (
	"fmt"
	"math"

	"github.com/rrybarczyk/intermodal/pkg/metainfo"
)

// Lint names a recoverable check failure that the user can opt out of
// with --allow.
type Lint int

const (
	LintSmallPieceLength Lint = iota
	LintUnevenPieceLength
)

var lintNames = map[Lint]string{
	LintSmallPieceLength:  "small-piece-length",
	LintUnevenPieceLength: "uneven-piece-length",
}

// Name returns the lint's --allow name.
func (l Lint) Name() string {
	return lintNames[l]
}

// ParseLint resolves a --allow argument to a Lint.
func ParseLint(text string) (Lint, error) {
	for lint, name := range lintNames {
		if name == text {
			return lint, nil
		}
	}
	return 0, fmt.Errorf("unknown lint: %s", text)
}

// Linted is implemented by errors backed by a lint. The error renderer
// uses it to print the --allow hint.
type Linted interface {
	error
	Lint() Lint
}

// AnnounceEmptyError reports a create invocation with no tracker.
type AnnounceEmptyError struct{}

func (*AnnounceEmptyError) Error() string {
	return "must provide at least one announce URL"
}

// AnnounceURLParseError reports a malformed tracker URL.
type AnnounceURLParseError struct {
	Text string
	Err  error
}

func (e *AnnounceURLParseError) Error() string {
	return fmt.Sprintf("failed to parse announce URL `%s`: %v", e.Text, e.Err)
}

func (e *AnnounceURLParseError) Unwrap() error { return e.Err }

// NodeParseError reports a malformed DHT node address.
type NodeParseError struct {
	Text string
	Err  error
}

func (e *NodeParseError) Error() string {
	return fmt.Sprintf("failed to parse DHT node `%s`: %v", e.Text, e.Err)
}

func (e *NodeParseError) Unwrap() error { return e.Err }

// FilesystemError reports an I/O failure; it always carries the
// offending path.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("I/O error at `%s`: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// FilenameDecodeError reports a filename that is not valid UTF-8.
type FilenameDecodeError struct {
	Filename string
}

func (e *FilenameDecodeError) Error() string {
	return fmt.Sprintf("filename was not valid unicode: %q", e.Filename)
}

// FilenameExtractError reports a path with no final component.
type FilenameExtractError struct {
	Path string
}

func (e *FilenameExtractError) Error() string {
	return fmt.Sprintf("path had no file name: `%s`", e.Path)
}

// PathComponentError reports a path containing a non-normal component
// such as `.` or `..`.
type PathComponentError struct {
	Path      string
	Component string
}

func (e *PathComponentError) Error() string {
	return fmt.Sprintf("path `%s` contains non-normal component: %s", e.Path, e.Component)
}

// PathDecodeError reports a path component that is not valid UTF-8.
type PathDecodeError struct {
	Path      string
	Component string
}

func (e *PathDecodeError) Error() string {
	return fmt.Sprintf("path `%s` contains non-unicode component: %q", e.Path, e.Component)
}

// PathStripPrefixError reports a walked path that could not be made
// relative to the walk root.
type PathStripPrefixError struct {
	Path   string
	Prefix string
	Err    error
}

func (e *PathStripPrefixError) Error() string {
	return fmt.Sprintf("failed to strip prefix `%s` from path `%s`: %v", e.Prefix, e.Path, e.Err)
}

func (e *PathStripPrefixError) Unwrap() error { return e.Err }

// GlobParseError reports an invalid --glob pattern.
type GlobParseError struct {
	Pattern string
}

func (e *GlobParseError) Error() string {
	return fmt.Sprintf("invalid glob: %s", e.Pattern)
}

// SymlinkRootError reports a walk root (the create input) that is a
// symlink when --follow-symlinks is not set.
type SymlinkRootError struct {
	Root string
}

func (e *SymlinkRootError) Error() string {
	return fmt.Sprintf(
		"attempted to create torrent from symlink `%s`; to override, pass the --follow-symlinks flag",
		e.Root,
	)
}

// OutputExistsError reports an output collision without --force.
type OutputExistsError struct {
	Path string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("output path already exists: `%s`", e.Path)
}

// PieceLengthZeroError reports a zero piece length; it is never
// recoverable.
type PieceLengthZeroError struct{}

func (*PieceLengthZeroError) Error() string {
	return "piece length cannot be zero"
}

// PieceLengthSmallError reports a piece length below 16 KiB. It is
// backed by a lint.
type PieceLengthSmallError struct {
	Length metainfo.Bytes
}

func (e *PieceLengthSmallError) Error() string {
	return fmt.Sprintf("piece length %s must be at least %s", e.Length, MinPieceLength)
}

func (*PieceLengthSmallError) Lint() Lint { return LintSmallPieceLength }

// PieceLengthUnevenError reports a piece length that is not a power of
// two. It is backed by a lint.
type PieceLengthUnevenError struct {
	Length metainfo.Bytes
}

func (e *PieceLengthUnevenError) Error() string {
	return fmt.Sprintf("piece length %d is not an even power of two", uint64(e.Length))
}

func (*PieceLengthUnevenError) Lint() Lint { return LintUnevenPieceLength }

// PieceLengthTooLargeError reports a piece length that does not fit in
// an unsigned 32-bit value.
type PieceLengthTooLargeError struct {
	Length metainfo.Bytes
}

func (e *PieceLengthTooLargeError) Error() string {
	return fmt.Sprintf(
		"piece length `%d` too large, the maximum supported piece length is %s",
		uint64(e.Length), metainfo.Bytes(math.MaxUint32),
	)
}

// UnstableError reports use of a feature gated behind --unstable.
type UnstableError struct {
	Feature string
}

func (e *UnstableError) Error() string {
	return fmt.Sprintf("feature `%s` cannot be used without passing the --unstable flag", e.Feature)
}

// InternalError reports an invariant violation: a bug.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error, this may indicate a bug: %s", e.Message)
}

// VerifyError reports a failed verification; Status carries the diff.
type VerifyError struct {
	Status *Status
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("torrent verification failed: %s", e.Status.Summary())
}
