// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package freqcode implements FrequencyList, a variable-length rank
// code for dense frequency-rank streams (spec.md §4.5). Ranks are
// assigned code words in order of decreasing popularity using the
// minimal self-delimiting prefix code 0, 1, 00, 01, 10, 11, 000, ...;
// two parallel BitArrays (cwbits, startbits) hold the code words and
// their start markers, with a skip index every F=1024 ranks. The
// encoding discipline — two aligned bit streams plus a coarse skip
// table over a self-delimiting code — is adapted from the teacher's
// gamma-coded posting lists (index/delta.go), generalized from gamma
// to the popularity-ranked minimal prefix code this format requires.
package freqcode

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"sort"

	"github.com/mideind/icegrams/internal/bitio"
)

// F is the skip-index quantum.
const F = 1024

// codeLen returns the bit length of the minimal prefix code word
// assigned to the rank with popularity order k (0-based, most popular
// first): floor(log2(k+2)).
func codeLen(k int) uint {
	return uint(bits.Len(uint(k + 2))) - 1
}

// codeWord returns the numeric value of the code word for popularity
// order k, in codeLen(k) bits: (k+2) - 2^codeLen(k).
func codeWord(k int) uint64 {
	l := codeLen(k)
	return uint64(k+2) - uint64(1)<<l
}

// decodeWord inverts codeWord given the code's bit length l and value.
func decodeWord(value uint64, l uint) int {
	return int(value+uint64(1)<<l) - 2
}

// Build encodes freq, a sequence of frequency values (not ranks), into
// a FrequencyList section body. distinctCounts is the ascending list
// freqs[level] that freq values index into; Build computes the rank
// (index into distinctCounts) of each value, orders ranks by
// decreasing popularity (frequency of occurrence within freq), and
// emits the on-disk layout of spec.md §4.5.
func Build(freq []uint32, distinctCounts []uint32) ([]byte, error) {
	rankOf := make(map[uint32]int, len(distinctCounts))
	for i, c := range distinctCounts {
		rankOf[c] = i
	}

	ranks := make([]int, len(freq))
	occurrences := make([]int, len(distinctCounts))
	for i, v := range freq {
		r, ok := rankOf[v]
		if !ok {
			return nil, fmt.Errorf("freqcode: value %d at position %d not present in distinctCounts", v, i)
		}
		ranks[i] = r
		occurrences[r]++
	}

	numRanks := len(distinctCounts)
	if numRanks >= 1<<16 {
		return nil, fmt.Errorf("freqcode: %d distinct ranks exceeds uint16 range", numRanks)
	}

	// Popularity order: ranks sorted by descending occurrence count,
	// ties broken by ascending rank for determinism.
	popularityOrder := make([]int, numRanks)
	for r := range popularityOrder {
		popularityOrder[r] = r
	}
	sort.Slice(popularityOrder, func(a, b int) bool {
		ra, rb := popularityOrder[a], popularityOrder[b]
		if occurrences[ra] != occurrences[rb] {
			return occurrences[ra] > occurrences[rb]
		}
		return ra < rb
	})
	// popularityIndex[rank] = k, its position (0-based) in popularityOrder.
	popularityIndex := make([]int, numRanks)
	for k, r := range popularityOrder {
		popularityIndex[r] = k
	}

	cw := bitio.NewWriter()
	sb := bitio.NewWriter()
	skip := make([]uint32, 0, (len(ranks)+F-1)/F)

	for i, r := range ranks {
		if i%F == 0 {
			skip = append(skip, uint32(sb.Len()))
		}
		k := popularityIndex[r]
		l := codeLen(k)
		w := codeWord(k)
		cw.Append(w, l)
		sb.Append(1, 1)
		if l > 1 {
			sb.Append(0, l-1)
		}
	}
	cw.Finish()
	sb.Finish()

	cwBytes := cw.Bytes()
	sbBytes := sb.Bytes()
	numBits := cw.Len()

	buf := make([]byte, 0, 2+numRanks*2+4+len(skip)*4+4+len(cwBytes)+len(sbBytes))
	buf = appendUint16(buf, uint16(numRanks))
	for _, r := range popularityOrder {
		buf = appendUint16(buf, uint16(r))
	}
	buf = appendUint32(buf, uint32(len(skip)))
	for _, s := range skip {
		buf = appendUint32(buf, s)
	}
	buf = appendUint32(buf, uint32(numBits))
	buf = append(buf, cwBytes...)
	buf = append(buf, sbBytes...)
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

// Reader is a zero-copy view over an encoded FrequencyList.
type Reader struct {
	rankInPopularityOrder []uint16 // popularityOrder[k] = rank
	skip                  []byte   // raw uint32 skip entries, into startbits
	numSkip               int
	cwbits                *bitio.Reader
	startbits             *bitio.Reader
	distinctCounts        []uint32
}

// NewReader wraps the section body produced by Build. distinctCounts
// is the freqs[level] table this stream's ranks index into.
func NewReader(data []byte, distinctCounts []uint32) *Reader {
	numRanks := int(binary.LittleEndian.Uint16(data[0:2]))
	off := 2
	popOrder := make([]uint16, numRanks)
	for i := range popOrder {
		popOrder[i] = binary.LittleEndian.Uint16(data[off : off+2])
		off += 2
	}
	numSkip := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	skip := data[off : off+numSkip*4]
	off += numSkip * 4
	numBits := uint64(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	byteLen := int((numBits + 7) / 8)
	cwBytes := data[off : off+byteLen]
	off += byteLen
	sbBytes := data[off : off+byteLen]

	return &Reader{
		rankInPopularityOrder: popOrder,
		skip:                  skip,
		numSkip:               numSkip,
		cwbits:                bitio.NewReader(cwBytes, numBits),
		startbits:             bitio.NewReader(sbBytes, numBits),
		distinctCounts:        distinctCounts,
	}
}

func (r *Reader) skipEntry(k int) uint64 {
	return uint64(binary.LittleEndian.Uint32(r.skip[k*4 : k*4+4]))
}

// Lookup returns the i-th frequency value in the stream.
func (r *Reader) Lookup(i int) uint32 {
	k := i / F
	pos := r.skipEntry(k)
	remaining := i - k*F
	for remaining > 0 {
		pos = r.startbits.NextSetBit(pos + 1)
		remaining--
	}
	start := pos
	end := r.startbits.NextSetBit(start + 1)
	l := uint(end - start)
	value := r.cwbits.MustGet(start, l)
	rankIdx := decodeWord(value, l)
	rank := int(r.rankInPopularityOrder[rankIdx])
	return r.distinctCounts[rank]
}
