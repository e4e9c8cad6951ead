// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ef

import (
	"encoding/binary"
	"fmt"
)

// Q2 is the outer partitioning quantum for PartitionedMonotonicList.
const Q2 = 2048

// BuildPartitioned encodes xs (non-decreasing, length n) as a
// two-level Elias-Fano list per spec.md §4.4: split into chunks of
// Q2 items, each chunk's first value factored into an outer
// MonotonicList ("chunks"), the remainder independently Elias-Fano
// encoded with its own, tighter universe bound.
func BuildPartitioned(xs []uint64) ([]byte, error) {
	n := len(xs)
	if n == 0 {
		return nil, fmt.Errorf("ef: PartitionedMonotonicList of length 0 is not allowed")
	}
	numChunks := (n + Q2 - 1) / Q2

	minima := make([]uint64, numChunks)
	subBodies := make([][]byte, numChunks)
	for c := 0; c < numChunks; c++ {
		lo := c * Q2
		hi := lo + Q2
		if hi > n {
			hi = n
		}
		sub := xs[lo:hi]
		minima[c] = sub[0]
		transformed := make([]uint64, len(sub))
		for i, v := range sub {
			transformed[i] = v - minima[c]
		}
		u := transformed[len(transformed)-1]
		body, err := BuildMonotonic(transformed, u)
		if err != nil {
			return nil, fmt.Errorf("ef: chunk %d: %w", c, err)
		}
		subBodies[c] = body
	}

	var chunksU uint64
	if numChunks > 0 {
		chunksU = minima[numChunks-1]
	}
	chunksBody, err := BuildMonotonic(minima, chunksU)
	if err != nil {
		return nil, fmt.Errorf("ef: chunk minima list: %w", err)
	}

	headerLen := 4 + numChunks*4
	base := headerLen + len(chunksBody)
	offsets := make([]uint32, numChunks)
	off := base
	for c, body := range subBodies {
		offsets[c] = uint32(off)
		off += len(body)
	}

	buf := make([]byte, 0, off+4)
	buf = appendUint32(buf, uint32(numChunks))
	for _, o := range offsets {
		buf = appendUint32(buf, o)
	}
	buf = append(buf, chunksBody...)
	for _, body := range subBodies {
		buf = append(buf, body...)
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf, nil
}

// PartitionedReader is a zero-copy view over an encoded
// PartitionedMonotonicList.
type PartitionedReader struct {
	data      []byte
	numChunks int
	offsets   []byte // raw uint32 chunk_byte_offsets
	chunks    *MonotonicReader
}

// NewPartitionedReader wraps the section body produced by
// BuildPartitioned.
func NewPartitionedReader(data []byte) *PartitionedReader {
	numChunks := int(binary.LittleEndian.Uint32(data[0:4]))
	offsets := data[4 : 4+numChunks*4]
	chunksStart := 4 + numChunks*4
	var chunksEnd int
	if numChunks > 0 {
		chunksEnd = int(binary.LittleEndian.Uint32(offsets[0:4]))
	} else {
		chunksEnd = chunksStart
	}
	return &PartitionedReader{
		data:      data,
		numChunks: numChunks,
		offsets:   offsets,
		chunks:    NewMonotonicReader(data[chunksStart:chunksEnd]),
	}
}

func (r *PartitionedReader) chunkOffset(c int) int {
	return int(binary.LittleEndian.Uint32(r.offsets[c*4 : c*4+4]))
}

func (r *PartitionedReader) subReader(c int) *MonotonicReader {
	start := r.chunkOffset(c)
	var end int
	if c+1 < r.numChunks {
		end = r.chunkOffset(c + 1)
	} else {
		end = len(r.data)
	}
	return NewMonotonicReader(r.data[start:end])
}

// Lookup returns the value at position i.
func (r *PartitionedReader) Lookup(i int) uint64 {
	chunk := i / Q2
	within := i % Q2
	return r.chunks.Lookup(chunk) + r.subReader(chunk).Lookup(within)
}

// LookupPair returns (value[i], value[i+1]), handling the chunk
// boundary crossing when i is the last index of its chunk.
func (r *PartitionedReader) LookupPair(i int) (uint64, uint64) {
	chunk := i / Q2
	within := i % Q2
	if within == Q2-1 {
		return r.Lookup(i), r.Lookup(i + 1)
	}
	sub := r.subReader(chunk)
	a, b := sub.LookupPair(within)
	base := r.chunks.Lookup(chunk)
	return base + a, base + b
}

// Search returns the smallest position k in [p1,p2) with value[k] ==
// v, by binary search over positions using Lookup. Each probe decodes
// through its chunk's sub-list; the chunk minima are not searched
// separately to narrow the range first.
func (r *PartitionedReader) Search(p1, p2 int, v uint64) (int, bool) {
	lo, hi := p1, p2
	for lo < hi {
		mid := lo + (hi-lo)/2
		if r.Lookup(mid) < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < p2 && r.Lookup(lo) == v {
		return lo, true
	}
	return 0, false
}

// SearchPrefix is Search but with a prefix-sum bias, per the same
// convention as MonotonicReader.SearchPrefix.
func (r *PartitionedReader) SearchPrefix(p1, p2 int, v uint64) (int, bool) {
	var prefix uint64
	if p1 > 0 {
		prefix = r.Lookup(p1 - 1)
	}
	return r.Search(p1, p2, v+prefix)
}
