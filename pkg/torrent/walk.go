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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rrybarczyk/intermodal/pkg/metainfo"
)

// Entry is one file discovered by the walk. The piece stream is the
// concatenation of entry contents in walk order, so the order of entries
// determines the infohash.
type Entry struct {
	// Path holds the in-torrent path components relative to the root,
	// excluding the torrent name. For a single-file walk it holds one
	// component, the file's name.
	Path []string

	// Length is the file's size in bytes.
	Length metainfo.Bytes

	// Source is the filesystem path to read the file from.
	Source string
}

// RelPath returns the slash-separated relative path of the entry.
func (e Entry) RelPath() string {
	return strings.Join(e.Path, "/")
}

// WalkResult is the outcome of a walk.
type WalkResult struct {
	// Entries lists the discovered files in walk order.
	Entries []Entry

	// SingleFile reports whether the root was a plain file rather than
	// a directory.
	SingleFile bool

	// RootName is the final component of the root path: the default
	// torrent name.
	RootName string
}

// TotalSize returns the summed size of all entries.
func (r *WalkResult) TotalSize() metainfo.Bytes {
	var total metainfo.Bytes
	for _, e := range r.Entries {
		total += e.Length
	}
	return total
}

// Walker enumerates the files under a root in a deterministic order:
// a pre-order traversal with children visited in ascending byte order
// of their names. The piece stream, and therefore the infohash, depends
// on this order.
type Walker struct {
	// Root is the file or directory to walk.
	Root string

	// FollowSymlinks permits a symlink root and descends through
	// symlinks inside the tree. When unset, a symlink root is an error
	// and symlinks inside the tree are skipped.
	FollowSymlinks bool

	// IncludeHidden includes entries whose name starts with a dot.
	IncludeHidden bool

	// Globs filters files by their slash-separated relative path. A
	// leading `!` negates a pattern; the last matching pattern decides.
	// With no positive patterns every file is included by default.
	Globs []string
}

// Walk enumerates the files under the walker's root.
func (w *Walker) Walk() (*WalkResult, error) {
	for _, pattern := range w.Globs {
		if !doublestar.ValidatePattern(strings.TrimPrefix(pattern, "!")) {
			return nil, &GlobParseError{Pattern: pattern}
		}
	}

	root, err := filepath.Abs(w.Root)
	if err != nil {
		return nil, &FilesystemError{Path: w.Root, Err: err}
	}

	info, err := os.Lstat(root)
	if err != nil {
		return nil, &FilesystemError{Path: root, Err: err}
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		if !w.FollowSymlinks {
			return nil, &SymlinkRootError{Root: root}
		}

		info, err = os.Stat(root)
		if err != nil {
			return nil, &FilesystemError{Path: root, Err: err}
		}
	}

	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) {
		return nil, &FilenameExtractError{Path: w.Root}
	}
	if !utf8.ValidString(name) {
		return nil, &FilenameDecodeError{Filename: name}
	}

	result := &WalkResult{RootName: name}

	if !info.IsDir() {
		result.SingleFile = true
		result.Entries = []Entry{{
			Path:   []string{name},
			Length: metainfo.Bytes(info.Size()),
			Source: root,
		}}
		return result, nil
	}

	if err := w.walkDir(root, nil, result); err != nil {
		return nil, err
	}
	return result, nil
}

// walkDir visits one directory, descending into subdirectories and
// emitting files in a single pass over the sorted child list.
func (w *Walker) walkDir(dir string, rel []string, result *WalkResult) error {
	// os.ReadDir sorts children by name, which is the byte-wise order
	// the piece stream requires
	children, err := os.ReadDir(dir)
	if err != nil {
		return &FilesystemError{Path: dir, Err: err}
	}

	for _, child := range children {
		name := child.Name()

		if !utf8.ValidString(name) {
			return &PathDecodeError{Path: dir, Component: name}
		}
		if name == "" || name == "." || name == ".." {
			return &PathComponentError{Path: dir, Component: name}
		}
		if strings.HasPrefix(name, ".") && !w.IncludeHidden {
			continue
		}

		source := filepath.Join(dir, name)
		childRel := append(append([]string(nil), rel...), name)

		info, err := child.Info()
		if err != nil {
			return &FilesystemError{Path: source, Err: err}
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			if !w.FollowSymlinks {
				continue
			}

			info, err = os.Stat(source)
			if err != nil {
				return &FilesystemError{Path: source, Err: err}
			}
		}

		switch {
		case info.IsDir():
			if err := w.walkDir(source, childRel, result); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			included, err := w.included(strings.Join(childRel, "/"))
			if err != nil {
				return err
			}
			if !included {
				continue
			}

			result.Entries = append(result.Entries, Entry{
				Path:   childRel,
				Length: metainfo.Bytes(info.Size()),
				Source: source,
			})
		default:
			// sockets, fifos, devices have no place in a torrent
			continue
		}
	}

	return nil
}

// included applies the glob filter to a relative path.
func (w *Walker) included(relPath string) (bool, error) {
	if len(w.Globs) == 0 {
		return true, nil
	}

	// with only negative patterns, unmatched files stay included
	included := true
	for _, pattern := range w.Globs {
		if !strings.HasPrefix(pattern, "!") {
			included = false
			break
		}
	}

	for _, pattern := range w.Globs {
		negated := strings.HasPrefix(pattern, "!")
		pattern = strings.TrimPrefix(pattern, "!")

		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			return false, &GlobParseError{Pattern: pattern}
		}
		if matched {
			included = !negated
		}
	}

	return included, nil
}
