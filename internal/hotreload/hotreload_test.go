// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hotreload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mideind/icegrams/internal/ngram"
	"github.com/mideind/icegrams/internal/obslog"
	"github.com/mideind/icegrams/internal/tsvsource"
)

const testAlphabet = "ab "

func buildArtifact(t *testing.T, path, lines string) {
	t.Helper()
	dir := t.TempDir()
	shard := filepath.Join(dir, "corpus.tsv")
	require.NoError(t, os.WriteFile(shard, []byte(lines), 0o644))

	alphabet, err := ngram.NewAlphabet(testAlphabet)
	require.NoError(t, err)
	b := ngram.NewBuilder(alphabet, ngram.BuildOptions{Logger: obslog.Nop()})
	require.NoError(t, b.ReadTSV(tsvsource.NewSingleFile(shard)))
	require.NoError(t, b.WriteFile(path))
}

// TestWatcherPicksUpRebuild exercises SPEC_FULL.md §5's hot-reload
// paragraph: a rebuild published via the builder's usual atomic
// rename is detected and swapped in without the caller reopening
// anything, while an already-acquired Storage keeps working.
func TestWatcherPicksUpRebuild(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch integration test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.bin")
	buildArtifact(t, path, "a b a\t3\n")

	alphabet, err := ngram.NewAlphabet(testAlphabet)
	require.NoError(t, err)

	w, err := New(path, alphabet, nil)
	require.NoError(t, err)
	defer w.Close()

	oldStorage, release := w.Acquire()
	require.Equal(t, uint32(3), oldStorage.Freq([]string{"a", "b"}))

	buildArtifact(t, path, "a b a\t7\n")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, rel := w.Acquire()
		if st != oldStorage {
			rel()
			break
		}
		rel()
		time.Sleep(50 * time.Millisecond)
	}

	newStorage, newRelease := w.Acquire()
	defer newRelease()
	require.Equal(t, uint32(7), newStorage.Freq([]string{"a", "b"}))

	// The caller that acquired before the swap still sees the old
	// generation's data; its release is what finally closes it.
	require.Equal(t, uint32(3), oldStorage.Freq([]string{"a", "b"}))
	release()
}
