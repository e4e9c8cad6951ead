// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vocabindex

import (
	"bytes"
	"fmt"
	"testing"
)

func TestBuildReaderSmall(t *testing.T) {
	words := []string{"", "og", "að", "í", "er", "á", "hestur", "köttur"}
	var tokens [][]byte
	for _, w := range words {
		tokens = append(tokens, []byte(w))
	}
	body, err := Build(tokens)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r, err := NewReader(body)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	for id, want := range words {
		got, err := r.IdToWord(id)
		if err != nil {
			t.Fatalf("IdToWord(%d): %v", id, err)
		}
		if !bytes.Equal(got, []byte(want)) {
			t.Errorf("IdToWord(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestBuildReaderAboveCutoff(t *testing.T) {
	n := VocabIndexCutoff + 300
	tokens := make([][]byte, n)
	for i := range tokens {
		tokens[i] = []byte(fmt.Sprintf("tok%d", i))
	}
	body, err := Build(tokens)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r, err := NewReader(body)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	for _, id := range []int{0, 1, VocabIndexCutoff - 1, VocabIndexCutoff, VocabIndexCutoff + 1, VocabIndexCutoff + 63, VocabIndexCutoff + 64, n - 1} {
		got, err := r.IdToWord(id)
		if err != nil {
			t.Fatalf("IdToWord(%d): %v", id, err)
		}
		want := fmt.Sprintf("tok%d", id)
		if !bytes.Equal(got, []byte(want)) {
			t.Errorf("IdToWord(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestBuildReaderEmptyTokenAtZero(t *testing.T) {
	tokens := [][]byte{[]byte(""), []byte("a"), []byte("b")}
	body, err := Build(tokens)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r, err := NewReader(body)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := r.IdToWord(0)
	if err != nil {
		t.Fatalf("IdToWord(0): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("IdToWord(0) = %q, want empty", got)
	}
}
