// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ef implements Elias-Fano monotonic integer lists: a plain,
// single-level MonotonicList with a uniform skip index, and a
// two-level PartitionedMonotonicList built from many MonotonicLists
// for the largest sequences in the n-gram store. The bit-splitting and
// skip-index discipline is adapted from the teacher's gamma-coded
// posting-list blocks (index/read.go, index/delta.go), generalized
// from self-delimiting codes to fixed-width random access.
package ef

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/mideind/icegrams/internal/bitio"
)

// Q1 is the skip-index quantum for a plain MonotonicList.
const Q1 = 128

// splitBits computes the Elias-Fano low/high bit widths for n items
// drawn from universe [0, u].
func splitBits(n, u uint64) (lowBits, highBits uint) {
	if u == 0 {
		return 1, 0
	}
	ratio := u / n
	if ratio == 0 {
		lowBits = 1
	} else {
		lowBits = uint(bits.Len64(ratio)) - 1
		if lowBits < 1 {
			lowBits = 1
		}
	}
	top := uint(bits.Len64(u)) // floor(log2(u)) + 1
	if top > lowBits {
		highBits = top - lowBits
	}
	return lowBits, highBits
}

// BuildMonotonic encodes a non-decreasing sequence xs (universe bound
// u, u >= max(xs)) into the on-disk layout of spec.md §4.3. n == 0 is
// rejected: an empty MonotonicList has no meaningful universe split.
func BuildMonotonic(xs []uint64, u uint64) ([]byte, error) {
	n := uint64(len(xs))
	if n == 0 {
		return nil, fmt.Errorf("ef: MonotonicList of length 0 is not allowed")
	}
	if n >= 1<<32 {
		return nil, fmt.Errorf("ef: MonotonicList length %d exceeds 2^32", n)
	}
	lowBits, highBits := splitBits(n, u)

	lw := bitio.NewWriter()
	for _, x := range xs {
		lw.Append(x, lowBits)
	}
	lw.Finish()
	lowStrip := lw.Bytes()

	maxHigh := u >> lowBits
	highLen := n + maxHigh
	highStrip := make([]byte, (highLen+7)/8)
	skipCount := (n + Q1 - 1) / Q1
	skip := make([]uint32, skipCount)

	var prev uint64
	for i, x := range xs {
		if uint64(i) > 0 && x < prev {
			return nil, fmt.Errorf("ef: sequence not non-decreasing at position %d", i)
		}
		prev = x
		high := x >> lowBits
		pos := high + uint64(i)
		highStrip[pos/8] |= 1 << (pos % 8)
		if uint64(i)%Q1 == 0 {
			skip[uint64(i)/Q1] = uint32(pos)
		}
	}

	buf := make([]byte, 0, 8+len(skip)*4+len(lowStrip)+len(highStrip)+4)
	buf = appendUint32(buf, uint32(n))
	buf = appendUint16(buf, uint16(lowBits))
	buf = appendUint16(buf, uint16(highBits))
	for _, s := range skip {
		buf = appendUint32(buf, s)
	}
	buf = append(buf, lowStrip...)
	buf = append(buf, highStrip...)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// MonotonicReader is a zero-copy view over an encoded MonotonicList.
type MonotonicReader struct {
	n         uint64
	lowBits   uint
	highBits  uint
	skip      []byte // raw skip-index bytes, n/Q1 uint32 entries
	skipCount uint64
	low       *bitio.Reader
	high      *bitio.Reader
}

// NewMonotonicReader wraps the section body produced by BuildMonotonic.
func NewMonotonicReader(data []byte) *MonotonicReader {
	n := uint64(binary.LittleEndian.Uint32(data[0:4]))
	lowBits := uint(binary.LittleEndian.Uint16(data[4:6]))
	highBits := uint(binary.LittleEndian.Uint16(data[6:8]))
	skipCount := (n + Q1 - 1) / Q1
	skipStart := 8
	skipLen := int(skipCount) * 4
	lowStart := skipStart + skipLen
	lowBitLen := n * uint64(lowBits)
	lowByteLen := (lowBitLen + 7) / 8
	highStart := lowStart + int(lowByteLen)

	r := &MonotonicReader{
		n:         n,
		lowBits:   lowBits,
		highBits:  highBits,
		skip:      data[skipStart : skipStart+skipLen],
		skipCount: skipCount,
	}
	r.low = bitio.NewReader(data[lowStart:highStart], lowBitLen)
	rest := data[highStart:]
	r.high = bitio.NewReader(rest, uint64(len(rest))*8)
	return r
}

// Len returns the number of items in the list.
func (r *MonotonicReader) Len() int { return int(r.n) }

func (r *MonotonicReader) skipEntry(k uint64) uint64 {
	return uint64(binary.LittleEndian.Uint32(r.skip[k*4 : k*4+4]))
}

// Lookup returns the value at position i.
func (r *MonotonicReader) Lookup(i int) uint64 {
	pos := r.seek(i)
	high := pos - uint64(i)
	low := r.low.MustGet(uint64(i)*uint64(r.lowBits), r.lowBits)
	return high<<r.lowBits | low
}

// seek returns the absolute bit position, within the high strip, of
// item i's set bit.
func (r *MonotonicReader) seek(i int) uint64 {
	k := uint64(i) / Q1
	pos := r.skipEntry(k)
	remaining := uint64(i) - k*Q1
	for remaining > 0 {
		pos = r.high.NextSetBit(pos + 1)
		remaining--
	}
	return pos
}

// LookupPair returns (value[i], value[i+1]).
func (r *MonotonicReader) LookupPair(i int) (uint64, uint64) {
	pos := r.seek(i)
	high0 := pos - uint64(i)
	low0 := r.low.MustGet(uint64(i)*uint64(r.lowBits), r.lowBits)
	v0 := high0<<r.lowBits | low0

	pos1 := r.high.NextSetBit(pos + 1)
	high1 := pos1 - uint64(i+1)
	low1 := r.low.MustGet(uint64(i+1)*uint64(r.lowBits), r.lowBits)
	v1 := high1<<r.lowBits | low1
	return v0, v1
}

// Search returns the smallest position k in [p1,p2) with value[k] ==
// v, or (0, false) if no such position exists.
func (r *MonotonicReader) Search(p1, p2 int, v uint64) (int, bool) {
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

// SearchPrefix is Search but the list carries a prefix-sum bias:
// stored values are compared after subtracting prefix = (p1 == 0 ? 0
// : lookup(p1-1)). It never reads lookup(p1-1) when p1 == 0.
func (r *MonotonicReader) SearchPrefix(p1, p2 int, v uint64) (int, bool) {
	var prefix uint64
	if p1 > 0 {
		prefix = r.Lookup(p1 - 1)
	}
	return r.Search(p1, p2, v+prefix)
}
