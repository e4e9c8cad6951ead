// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vocabindex implements the "vocab" section of the n-gram
// artifact: a gzip-compressed blob of null-terminated tokens in id
// order, with a sparse byte-offset index that gives O(1) access for
// the most frequent ids and O(VOCAB_QUANTUM_SIZE) for the rest. The
// two-tier cutoff/quantum index mirrors original_source's
// NgramStorage.id_to_word exactly; the on-disk encoding style (a
// length-prefixed offset table ahead of a packed blob) follows the
// teacher's index/write.go section layout.
package vocabindex

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

// VocabIndexCutoff is the id below which every unigram gets its own
// index entry (these are the most frequent words, looked up most
// often).
const VocabIndexCutoff = 1024

// VocabQuantumSize is the index granularity above the cutoff: one
// entry per 64 tokens.
const VocabQuantumSize = 64

// Build encodes tokens (already in ascending id order) as the vocab
// section body: a count-prefixed index table of absolute byte offsets
// into the uncompressed blob, followed by the gzip-compressed blob
// itself.
func Build(tokens [][]byte) ([]byte, error) {
	var blob bytes.Buffer
	var offsets []uint32
	for ix, tok := range tokens {
		if ix%VocabQuantumSize == 0 || ix < VocabIndexCutoff {
			offsets = append(offsets, uint32(blob.Len()))
		}
		blob.Write(tok)
		blob.WriteByte(0)
	}
	// Trailing sentinel so IdToWord's cutoff-range branch can always
	// read offset(q+1), even for the last id in a vocabulary that
	// never reaches VocabIndexCutoff tokens.
	offsets = append(offsets, uint32(blob.Len()))

	var gz bytes.Buffer
	w, err := gzip.NewWriterLevel(&gz, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("vocabindex: gzip writer: %w", err)
	}
	if _, err := w.Write(blob.Bytes()); err != nil {
		return nil, fmt.Errorf("vocabindex: gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("vocabindex: gzip close: %w", err)
	}

	buf := make([]byte, 0, 4+len(offsets)*4+gz.Len())
	buf = appendUint32(buf, uint32(len(offsets)))
	for _, o := range offsets {
		buf = appendUint32(buf, o)
	}
	buf = append(buf, gz.Bytes()...)
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

// Reader is a view over a vocab section: the index table stays a
// byte-range view into the mapped artifact, while the compressed blob
// is inflated once at Open time into a private buffer (spec.md §4.6
// marks gzip decompression as the one component that cannot be a
// zero-copy mmap view).
type Reader struct {
	index []byte // raw uint32 offsets
	count int
	blob  []byte // inflated token bytes
}

// NewReader wraps the section body produced by Build.
func NewReader(data []byte) (*Reader, error) {
	count := int(binary.LittleEndian.Uint32(data[0:4]))
	index := data[4 : 4+count*4]
	gz, err := gzip.NewReader(bytes.NewReader(data[4+count*4:]))
	if err != nil {
		return nil, fmt.Errorf("vocabindex: gzip reader: %w", err)
	}
	// Build pads the section to a 4-byte boundary after the single gzip
	// member; stop there instead of parsing the padding as a new member.
	gz.Multistream(false)
	blob, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("vocabindex: gzip inflate: %w", err)
	}
	return &Reader{index: index, count: count, blob: blob}, nil
}

func (r *Reader) offset(q int) uint32 {
	return binary.LittleEndian.Uint32(r.index[q*4 : q*4+4])
}

// IdToWord returns the token stored at vocabulary id n.
func (r *Reader) IdToWord(n int) ([]byte, error) {
	var q, rem int
	knownEnd := -1
	if n < VocabIndexCutoff {
		q, rem = n, 0
		endOff := r.offset(q + 1)
		knownEnd = int(endOff) - 1
	} else {
		q, rem = (n-VocabIndexCutoff)/VocabQuantumSize, (n-VocabIndexCutoff)%VocabQuantumSize
		q += VocabIndexCutoff
	}

	var p int
	if q != 0 {
		p = int(r.offset(q))
	}
	for rem > 0 {
		for p < len(r.blob) && r.blob[p] != 0 {
			p++
		}
		p++
		rem--
	}

	start := p
	end := knownEnd
	if end < 0 {
		for p < len(r.blob) && r.blob[p] != 0 {
			p++
		}
		end = p
	}
	if start > len(r.blob) || end > len(r.blob) || end < start {
		return nil, fmt.Errorf("vocabindex: id %d out of range", n)
	}
	return r.blob[start:end], nil
}
