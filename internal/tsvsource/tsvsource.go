// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tsvsource widens the builder's input contract from "one TSV
// file" to "one or more TSV files matched by a doublestar glob",
// concatenated in file-then-line order. It never buffers more than one
// line in memory and can be walked multiple times (the ngram builder
// needs two passes: vocabulary counting, then tree accumulation).
package tsvsource

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Source is a read-many-times ordered set of TSV shard files.
type Source struct {
	base  string
	glob  string
	files []string
}

// Open resolves the doublestar pattern glob rooted at base (e.g.
// base="/data/trigrams", glob="shards/**/*.tsv") into a deterministic,
// sorted file list. The list is fixed at Open time; shards added later
// are not picked up until a new Source is opened.
func Open(base, glob string) (*Source, error) {
	fsys := os.DirFS(base)
	matches, err := doublestar.Glob(fsys, glob)
	if err != nil {
		return nil, fmt.Errorf("tsvsource: glob %q under %q: %w", glob, base, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("tsvsource: glob %q under %q matched no files", glob, base)
	}
	sort.Strings(matches)
	return &Source{base: base, glob: glob, files: matches}, nil
}

// NewSingleFile wraps a single TSV path as a one-shard Source, for
// callers that already have an exact file name rather than a glob.
func NewSingleFile(path string) *Source {
	return &Source{files: []string{path}}
}

// Files returns the resolved, sorted shard paths.
func (s *Source) Files() []string { return append([]string(nil), s.files...) }

// ForEachLine invokes fn once per non-empty line across every shard,
// in file-then-line order, stopping at the first error fn returns.
func (s *Source) ForEachLine(fn func(line string) error) error {
	for _, rel := range s.files {
		path := rel
		if s.base != "" {
			path = s.base + string(os.PathSeparator) + rel
		}
		if err := forEachLineInFile(path, fn); err != nil {
			return fmt.Errorf("tsvsource: %s: %w", path, err)
		}
	}
	return nil
}

func forEachLineInFile(path string, fn func(line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}
