// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ef

import (
	"math/rand/v2"
	"testing"
)

func TestPartitionedRoundTrip(t *testing.T) {
	// Large enough to span several Q2-sized chunks.
	xs := make([]uint64, 5*Q2+37)
	var v uint64
	var pcg rand.PCG
	pcg.Seed(1, 2)
	for i := range xs {
		v += pcg.Uint64() % 50
		xs[i] = v
	}

	body, err := BuildPartitioned(xs)
	if err != nil {
		t.Fatalf("BuildPartitioned: %v", err)
	}
	r := NewPartitionedReader(body)

	for _, i := range []int{0, 1, Q2 - 1, Q2, Q2 + 1, 3*Q2 + 5, len(xs) - 1} {
		if got := r.Lookup(i); got != xs[i] {
			t.Errorf("Lookup(%d) = %d, want %d", i, got, xs[i])
		}
	}
}

func TestPartitionedLookupPairCrossesChunkBoundary(t *testing.T) {
	xs := make([]uint64, 2*Q2)
	for i := range xs {
		xs[i] = uint64(i) * 3
	}
	body, err := BuildPartitioned(xs)
	if err != nil {
		t.Fatalf("BuildPartitioned: %v", err)
	}
	r := NewPartitionedReader(body)

	a, b := r.LookupPair(Q2 - 1)
	if a != xs[Q2-1] || b != xs[Q2] {
		t.Errorf("LookupPair(%d) = (%d, %d), want (%d, %d)", Q2-1, a, b, xs[Q2-1], xs[Q2])
	}
}

func TestPartitionedSearch(t *testing.T) {
	xs := make([]uint64, 3*Q2+10)
	for i := range xs {
		xs[i] = uint64(i) * 7
	}
	body, err := BuildPartitioned(xs)
	if err != nil {
		t.Fatalf("BuildPartitioned: %v", err)
	}
	r := NewPartitionedReader(body)

	target := len(xs) - 5
	pos, ok := r.Search(0, len(xs), xs[target])
	if !ok || pos != target {
		t.Errorf("Search(%d) = (%d, %v), want (%d, true)", xs[target], pos, ok, target)
	}

	if _, ok := r.Search(0, len(xs), xs[target]+1); ok {
		t.Errorf("Search found a value that was never encoded")
	}
}

func TestBuildPartitionedRejectsEmpty(t *testing.T) {
	if _, err := BuildPartitioned(nil); err == nil {
		t.Fatal("BuildPartitioned accepted an empty list")
	}
}
