// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"

	"github.com/mideind/icegrams/internal/ef"
	"github.com/mideind/icegrams/internal/freqcode"
	"github.com/mideind/icegrams/internal/integrity"
	"github.com/mideind/icegrams/internal/radixtrie"
	"github.com/mideind/icegrams/internal/vocabindex"
)

// Storage is a read-only, memory-mapped view over one n-gram artifact
// (spec.md §4.6). All query methods are pure functions of the mapping
// and may be called concurrently; there is no interior mutability.
type Storage struct {
	file     *os.File
	mapped   mmap.MMap
	alphabet *Alphabet

	trie   *radixtrie.Reader
	freqs  [4][]uint32
	up     *ef.MonotonicReader
	bi     *ef.PartitionedReader
	bp     *ef.MonotonicReader
	tri    *ef.PartitionedReader
	uFreq  *freqcode.Reader
	biFreq *freqcode.Reader
	tFreq  *freqcode.Reader
	vocab  *vocabindex.Reader
	bloom  *bloomFilter

	unigramTotal uint64
	usingEmpty   bool
	closed       atomic.Bool
}

// Open memory-maps path and parses its section table. alphabet is the
// per-language character set the artifact was built with; spec.md
// treats it as a parameter the core accepts rather than something it
// stores. The returned Storage must be closed with Close once no
// longer needed.
func Open(path string, alphabet *Alphabet) (*Storage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ngram: mmap %s: %w", path, err)
	}
	s, err := newStorage(f, m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	s.alphabet = alphabet
	return s, nil
}

func newStorage(f *os.File, m mmap.MMap) (*Storage, error) {
	if len(m) < labelWidth+numSections*4+8+4 {
		return nil, fmt.Errorf("%w: artifact too short", ErrArtifactVersion)
	}
	if string(m[:len(VersionTag)]) != VersionTag {
		return nil, fmt.Errorf("%w: version tag mismatch", ErrArtifactVersion)
	}
	offTableStart := labelWidth
	offTableLen := numSections * 4
	offsetBytes := m[offTableStart : offTableStart+offTableLen]
	wantChecksum := binary.LittleEndian.Uint64(m[offTableStart+offTableLen : offTableStart+offTableLen+8])
	if !integrity.Verify(offsetBytes, wantChecksum) {
		return nil, fmt.Errorf("%w: offset table integrity checksum mismatch", ErrArtifactVersion)
	}
	flagsOff := offTableStart + offTableLen + 8
	flags := binary.LittleEndian.Uint32(m[flagsOff : flagsOff+4])

	var offsets [numSections]uint32
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(offsetBytes[i*4 : i*4+4])
	}

	body := func(i int) []byte {
		off := offsets[i]
		if off == 0 {
			return nil
		}
		return m[int(off)+labelWidth:]
	}

	s := &Storage{file: f, mapped: m, usingEmpty: flags&flagUsingEmpty != 0}
	s.trie = radixtrie.NewReader(body(secTrie))

	freqsData := body(secFreqs)
	var p int
	for lvl := 0; lvl < 4; lvl++ {
		n := int(binary.LittleEndian.Uint32(freqsData[p : p+4]))
		p += 4
		vals := make([]uint32, n)
		for i := 0; i < n; i++ {
			vals[i] = binary.LittleEndian.Uint32(freqsData[p : p+4])
			p += 4
		}
		s.freqs[lvl] = vals
	}
	if len(s.freqs[0]) == 0 {
		return nil, fmt.Errorf("%w: empty level-0 frequency bucket", ErrArtifactVersion)
	}
	s.unigramTotal = uint64(s.freqs[0][0])

	s.up = ef.NewMonotonicReader(body(secUnigramPtrs))
	s.bi = ef.NewPartitionedReader(body(secBigrams))
	s.bp = ef.NewMonotonicReader(body(secBigramPtrs))
	s.tri = ef.NewPartitionedReader(body(secTrigrams))
	s.uFreq = freqcode.NewReader(body(secUnigramFreqs), s.freqs[1])
	s.biFreq = freqcode.NewReader(body(secBigramFreqs), s.freqs[2])
	s.tFreq = freqcode.NewReader(body(secTrigramFreqs), s.freqs[3])

	vocabReader, err := vocabindex.NewReader(body(secVocab))
	if err != nil {
		return nil, fmt.Errorf("ngram: vocab section: %w", err)
	}
	s.vocab = vocabReader

	if bloomData := body(secBloom); bloomData != nil {
		bf, err := newBloomFilter(bloomData)
		if err != nil {
			return nil, fmt.Errorf("ngram: bloom section: %w", err)
		}
		s.bloom = bf
	}

	return s, nil
}

// Close tears down the memory mapping. Repeated calls are safe no-ops.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.mapped.Unmap()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Storage) checkOpen() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}
