// Copyright 2011 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitio

import (
	"math/rand/v2"
	"testing"
)

func TestScriptedAppendsAndGets(t *testing.T) {
	// Scenario 6 from SPEC_FULL.md / spec.md §8.
	type appendOp struct {
		value uint64
		bits  uint
	}
	appends := []appendOp{
		{10, 4}, {3, 2}, {0, 7}, {1, 1}, {100, 7}, {100, 8},
		{1000, 10}, {1000000, 20}, {1000000000, 30}, {0, 1},
	}
	w := NewWriter()
	for _, a := range appends {
		w.Append(a.value, a.bits)
	}
	w.Finish()
	r := NewReaderFromWriter(w)

	type getOp struct {
		index uint64
		bits  uint
	}
	gets := []getOp{
		{0, 4}, {4, 2}, {6, 7}, {13, 1}, {14, 7}, {21, 8},
		{29, 10}, {39, 20}, {59, 30}, {89, 1},
	}
	for i, g := range gets {
		got, err := r.Get(g.index, g.bits)
		if err != nil {
			t.Fatalf("get #%d: unexpected error: %v", i, err)
		}
		want := appends[i].value & ((uint64(1) << appends[i].bits) - 1)
		if got != want {
			t.Errorf("get #%d: got %d, want %d", i, got, want)
		}
	}

	if _, err := r.Get(90, 1); err == nil {
		t.Errorf("get(90,1) should be out of range")
	}
}

func TestGetOutOfRangeBoundary(t *testing.T) {
	w := NewWriter()
	w.Append(1, 1)
	w.Append(0, 1)
	w.Append(1, 1)
	w.Finish()
	r := NewReaderFromWriter(w)

	if _, err := r.Get(r.Len(), 1); err == nil {
		t.Errorf("get(sealedLength,1) should fail")
	}
	if _, err := r.Get(r.Len()-1, 1); err != nil {
		t.Errorf("get(sealedLength-1,1) should succeed: %v", err)
	}
}

func TestRandomAppendGetRoundTrip(t *testing.T) {
	var pcg rand.PCG
	pcg.Seed(7, 11)
	const N = 5000
	type appendOp struct {
		value uint64
		bits  uint
	}
	ops := make([]appendOp, N)
	w := NewWriter()
	offsets := make([]uint64, N)
	off := uint64(0)
	for i := range ops {
		bits := uint(1 + pcg.Uint64()%57)
		val := pcg.Uint64()
		ops[i] = appendOp{val, bits}
		offsets[i] = off
		w.Append(val, bits)
		off += uint64(bits)
	}
	w.Finish()
	r := NewReaderFromWriter(w)

	for i, op := range ops {
		got, err := r.Get(offsets[i], op.bits)
		if err != nil {
			t.Fatalf("get #%d: %v", i, err)
		}
		want := op.value
		if op.bits < 64 {
			want &= (uint64(1) << op.bits) - 1
		}
		if got != want {
			t.Fatalf("get #%d: got %d, want %d", i, got, want)
		}
	}
}

func TestAppendAfterFinishPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic appending after Finish")
		}
	}()
	w := NewWriter()
	w.Append(1, 1)
	w.Finish()
	w.Append(1, 1)
}
