// Copyright 2011 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package radixtrie

import (
	"testing"
)

func TestBuilderAddGet(t *testing.T) {
	b := NewBuilder(true)
	words := []string{"a", "ab", "abc", "b", "kattaþúfa", "kattaþúfur", "köttur", ""}
	ids := make(map[string]int32)
	for _, w := range words {
		id := b.Add([]byte(w), -1)
		ids[w] = id
	}
	for _, w := range words {
		got, ok := b.Get([]byte(w))
		if !ok {
			t.Fatalf("Get(%q): not found", w)
		}
		if got != ids[w] {
			t.Errorf("Get(%q) = %d, want %d", w, got, ids[w])
		}
	}
	if _, ok := b.Get([]byte("nonexistent")); ok {
		t.Errorf("Get(nonexistent) should not be found")
	}
}

func TestBuilderAddIdempotent(t *testing.T) {
	b := NewBuilder(false)
	id1 := b.Add([]byte("hestur"), -1)
	id2 := b.Add([]byte("hestur"), -1)
	if id1 != id2 {
		t.Errorf("re-adding the same key returned different ids: %d vs %d", id1, id2)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestBuilderExplicitValue(t *testing.T) {
	b := NewBuilder(false)
	got := b.Add([]byte("x"), 42)
	if got != 42 {
		t.Errorf("Add with explicit value = %d, want 42", got)
	}
	v, ok := b.Get([]byte("x"))
	if !ok || v != 42 {
		t.Errorf("Get(x) = (%d,%v), want (42,true)", v, ok)
	}
}

func TestBuilderReserveEmptyStartsCounterAtOne(t *testing.T) {
	b := NewBuilder(true)
	first := b.Add([]byte("fyrsti"), -1)
	if first != 1 {
		t.Errorf("first auto id with reserveEmpty = %d, want 1", first)
	}
}

func TestEncodeReaderRoundTrip(t *testing.T) {
	b := NewBuilder(true)
	words := []string{
		"a", "ab", "abc", "abd", "b", "ba", "bad",
		"kattaþúfa", "kattaþúfur", "köttur", "hestur", "hestar",
	}
	want := make(map[string]int32)
	for _, w := range words {
		want[w] = b.Add([]byte(w), -1)
	}

	body, stats := b.Encode()
	if stats.Nodes == 0 {
		t.Fatalf("Encode produced zero nodes")
	}

	r := NewReader(body)
	for _, w := range words {
		got, ok := r.Lookup([]byte(w))
		if !ok {
			t.Fatalf("Reader.Lookup(%q): not found", w)
		}
		if got != want[w] {
			t.Errorf("Reader.Lookup(%q) = %d, want %d", w, got, want[w])
		}
	}
	if got, ok := r.Lookup([]byte("")); !ok || got != 0 {
		t.Errorf("Reader.Lookup(\"\") = (%d,%v), want (0,true)", got, ok)
	}
	if _, ok := r.Lookup([]byte("nonexistent")); ok {
		t.Errorf("Reader.Lookup(nonexistent) should not be found")
	}
	if _, ok := r.Lookup([]byte("abcd")); ok {
		t.Errorf("Reader.Lookup(abcd) should not be found (longer than any key)")
	}
	if _, ok := r.Lookup([]byte("ka")); ok {
		t.Errorf("Reader.Lookup(ka) should not be found (internal node with no value)")
	}
}

func TestEncodeSingleVsMultiByteFragments(t *testing.T) {
	b := NewBuilder(false)
	b.Add([]byte("x"), -1)  // single-byte fragment root child
	b.Add([]byte("xyz"), -1) // adds a multi-byte child "yz" under "x"
	body, stats := b.Encode()
	if stats.SingleCharNodes == 0 {
		t.Errorf("expected at least one single-char node")
	}
	r := NewReader(body)
	if v, ok := r.Lookup([]byte("x")); !ok || v != 0 {
		t.Errorf("Lookup(x) = (%d,%v), want (0,true)", v, ok)
	}
	if v, ok := r.Lookup([]byte("xyz")); !ok || v != 1 {
		t.Errorf("Lookup(xyz) = (%d,%v), want (1,true)", v, ok)
	}
}

func TestCommonPrefixLen(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "abc", 0},
		{"abc", "", 0},
		{"abc", "abd", 2},
		{"abc", "abc", 3},
		{"a", "b", 0},
	}
	for _, c := range cases {
		if got := commonPrefixLen([]byte(c.a), []byte(c.b)); got != c.want {
			t.Errorf("commonPrefixLen(%q,%q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
