// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/mideind/icegrams/internal/ef"
	"github.com/mideind/icegrams/internal/freqcode"
	"github.com/mideind/icegrams/internal/integrity"
	"github.com/mideind/icegrams/internal/radixtrie"
	"github.com/mideind/icegrams/internal/vocabindex"
)

// VersionTag is the 16-byte artifact version string written by Build
// and checked by Open.
const VersionTag = "Reynir 001.00.00"

// section indices, in the fixed order spec.md §4.6 requires for the
// first 10 entries; bloom is an 11th, supplementary entry (0 when
// absent) that does not disturb that ordering.
const (
	secTrie = iota
	secFreqs
	secUnigramPtrs
	secBigrams
	secBigramPtrs
	secTrigrams
	secUnigramFreqs
	secBigramFreqs
	secTrigramFreqs
	secVocab
	secBloom
	numSections
)

var sectionLabels = [numSections]string{
	secTrie:         "trie",
	secFreqs:        "freqs",
	secUnigramPtrs:  "unigram_ptrs",
	secBigrams:      "bigrams",
	secBigramPtrs:   "bigram_ptrs",
	secTrigrams:     "trigrams",
	secUnigramFreqs: "unigram_freqs",
	secBigramFreqs:  "bigram_freqs",
	secTrigramFreqs: "trigram_freqs",
	secVocab:        "vocab",
	secBloom:        "bloom",
}

const labelWidth = 16

// Build serializes the accumulated tree into the on-disk artifact
// format described by spec.md §4.6, with the xxhash64 integrity
// trailer and optional Bloom filter section of SPEC_FULL.md §4.6.
func (b *Builder) Build() ([]byte, error) {
	vocabSize := len(b.tokens)
	if vocabSize == 0 {
		return nil, fmt.Errorf("%w: no vocabulary accumulated", ErrMalformedInput)
	}

	trieBody, stats := b.trie.Encode()
	b.trieStats = stats
	b.opts.Logger.Info("trie encoded",
		zap.Int("nodes", stats.Nodes),
		zap.Int("single_char_nodes", stats.SingleCharNodes),
		zap.Int("multi_char_nodes", stats.MultiCharNodes),
		zap.Int("childless_nodes", stats.ChildlessNodes),
		zap.Int("max_fixup_distance", stats.MaxFixupDistance),
	)

	buckets := b.computeBuckets()
	freqsBody := encodeFreqBuckets(buckets)

	upPtrs, unigramFreqValues := b.buildUnigramLevel(vocabSize)
	upBody, err := ef.BuildMonotonic(upPtrs, upPtrs[len(upPtrs)-1])
	if err != nil {
		return nil, fmt.Errorf("unigram_ptrs: %w", err)
	}
	unigramFreqsBody, err := freqcode.Build(unigramFreqValues, buckets[1])
	if err != nil {
		return nil, fmt.Errorf("unigram_freqs: %w", err)
	}

	biIDs, biPtrs, biFreqValues, triIDs, triFreqValues := b.buildBigramTrigramLevels(vocabSize)
	bigramsBody, err := ef.BuildPartitioned(biIDs)
	if err != nil {
		return nil, fmt.Errorf("bigrams: %w", err)
	}
	bigramPtrsBody, err := ef.BuildMonotonic(biPtrs, biPtrs[len(biPtrs)-1])
	if err != nil {
		return nil, fmt.Errorf("bigram_ptrs: %w", err)
	}
	bigramFreqsBody, err := freqcode.Build(biFreqValues, buckets[2])
	if err != nil {
		return nil, fmt.Errorf("bigram_freqs: %w", err)
	}

	var trigramsBody, trigramFreqsBody []byte
	if len(triIDs) > 0 {
		trigramsBody, err = ef.BuildPartitioned(triIDs)
		if err != nil {
			return nil, fmt.Errorf("trigrams: %w", err)
		}
		trigramFreqsBody, err = freqcode.Build(triFreqValues, buckets[3])
		if err != nil {
			return nil, fmt.Errorf("trigram_freqs: %w", err)
		}
	} else {
		// No trigram ever occurred (pathological but legal): emit a
		// minimal single-element list so the section is never empty.
		trigramsBody, err = ef.BuildPartitioned([]uint64{0})
		if err != nil {
			return nil, err
		}
		trigramFreqsBody, err = freqcode.Build([]uint32{0}, []uint32{0})
		if err != nil {
			return nil, err
		}
	}

	vocabBody, err := vocabindex.Build(b.tokens)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}

	var bloomBody []byte
	if b.opts.EnableBloom {
		bloomBody = buildBloom(b.tokens)
	}

	bodies := [numSections][]byte{
		secTrie:         trieBody,
		secFreqs:        freqsBody,
		secUnigramPtrs:  upBody,
		secBigrams:      bigramsBody,
		secBigramPtrs:   bigramPtrsBody,
		secTrigrams:     trigramsBody,
		secUnigramFreqs: unigramFreqsBody,
		secBigramFreqs:  bigramFreqsBody,
		secTrigramFreqs: trigramFreqsBody,
		secVocab:        vocabBody,
		secBloom:        bloomBody,
	}

	return assembleArtifact(bodies, b.usingEmpty), nil
}

// flagUsingEmpty marks that the vocabulary reserves id 0 for the empty
// (sentence-boundary) token and the artifact was built with the
// (0,0,w2)/(w0,0,0) boundary compaction of spec.md §3; Storage needs
// this to know whether id 0 is a real word or the boundary sentinel
// before applying the degenerate-zero dispatch of §4.6.1 step 5.
const flagUsingEmpty uint32 = 1 << 0

func assembleArtifact(bodies [numSections][]byte, usingEmpty bool) []byte {
	offsetTableLen := numSections * 4
	headerLen := labelWidth + offsetTableLen
	offsets := make([]uint32, numSections)
	pos := uint32(headerLen + 8 + 4) // +8 integrity trailer, +4 flags
	for i, body := range bodies {
		if len(body) == 0 {
			offsets[i] = 0
			continue
		}
		offsets[i] = pos
		pos += labelWidth + uint32(len(body))
	}

	offsetBytes := make([]byte, offsetTableLen)
	for i, o := range offsets {
		binary.LittleEndian.PutUint32(offsetBytes[i*4:], o)
	}
	checksum := integrity.Sum(offsetBytes)

	out := make([]byte, 0, pos)
	var tag [labelWidth]byte
	copy(tag[:], VersionTag)
	out = append(out, tag[:]...)
	out = append(out, offsetBytes...)
	var chk [8]byte
	binary.LittleEndian.PutUint64(chk[:], checksum)
	out = append(out, chk[:]...)
	var flags uint32
	if usingEmpty {
		flags |= flagUsingEmpty
	}
	var flagBytes [4]byte
	binary.LittleEndian.PutUint32(flagBytes[:], flags)
	out = append(out, flagBytes[:]...)

	for i, body := range bodies {
		if len(body) == 0 {
			continue
		}
		var label [labelWidth]byte
		copy(label[:], sectionLabels[i])
		out = append(out, label[:]...)
		out = append(out, body...)
	}
	return out
}

func encodeFreqBuckets(buckets [4][]uint32) []byte {
	var buf []byte
	for _, vals := range buckets {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(len(vals)))
		buf = append(buf, tmp[:]...)
		for _, v := range vals {
			binary.LittleEndian.PutUint32(tmp[:], v)
			buf = append(buf, tmp[:]...)
		}
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// computeBuckets gathers, for each level 0..3, the ascending set of
// distinct counts observed at that level (spec.md §4.1's freqs[ℓ]).
// freqs[1] is forced to include 0 even if no unigram ever has a zero
// count, so that auto-vivified (never-touched-as-w0) unigram ids — a
// real possibility, since an id may occur only as w1/w2 — always rank.
func (b *Builder) computeBuckets() (buckets [4][]uint32) {
	sets := [4]map[uint32]struct{}{}
	for i := range sets {
		sets[i] = make(map[uint32]struct{})
	}
	sets[0][uint32(b.ucnt)] = struct{}{}

	var walk func(depth int, n *gnode)
	walk = func(depth int, n *gnode) {
		sets[depth][uint32(n.cnt)] = struct{}{}
		for _, c := range n.children {
			walk(depth+1, c)
		}
	}
	for _, c := range b.root.children {
		walk(1, c)
	}
	sets[1][0] = struct{}{}

	for lvl := 0; lvl < 4; lvl++ {
		vals := make([]uint32, 0, len(sets[lvl]))
		for v := range sets[lvl] {
			vals = append(vals, v)
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
		buckets[lvl] = vals
	}
	return buckets
}

// buildUnigramLevel produces UP[0..|V|] (cumulative bigram-child
// counts per unigram) and the unigram frequency stream, for every id
// 0..vocabSize-1 including ids whose depth-1 node was never explicitly
// touched (they read back as a zero-count, childless node).
func (b *Builder) buildUnigramLevel(vocabSize int) (upPtrs []uint64, freqValues []uint32) {
	upPtrs = make([]uint64, 0, vocabSize+1)
	freqValues = make([]uint32, vocabSize)
	var ix uint64
	upPtrs = append(upPtrs, 0)
	for i := 0; i < vocabSize; i++ {
		d := b.unigram(int32(i))
		freqValues[i] = uint32(d.cnt)
		ix += uint64(len(d.children))
		upPtrs = append(upPtrs, ix)
	}
	return upPtrs, freqValues
}

// buildBigramTrigramLevels walks the tree in unigram-id order,
// producing BI/BP/TI plus the bigram and trigram frequency streams.
// Grounded on original_source's write_bigram_and_trigram_levels: a
// trigram's third token w2 is remapped to its rank among w1's sorted
// bigram-child ids (the Pibiri-Venturini remap), and every stored
// bigram and trigram id has the previous parent's last stored value
// added as a prefix-sum bias, which keeps BI and TI non-decreasing.
func (b *Builder) buildBigramTrigramLevels(vocabSize int) (biIDs, biPtrs []uint64, biFreqs []uint32, triIDs []uint64, triFreqs []uint32) {
	var ix uint64
	var biPrefixSum, triPrefixSum uint64

	sortedChildCache := make(map[int32][]int32)
	sortedChildIDs := func(w0 int32) []int32 {
		if v, ok := sortedChildCache[w0]; ok {
			return v
		}
		s := sortedKeys(b.unigram(w0).children)
		sortedChildCache[w0] = s
		return s
	}

	for w0 := 0; w0 < vocabSize; w0++ {
		p := b.root.children[int32(w0)]
		if p == nil || len(p.children) == 0 {
			continue
		}
		bids := sortedChildIDs(int32(w0))
		for _, w1 := range bids {
			biIDs = append(biIDs, uint64(w1)+biPrefixSum)
			pp := p.children[w1]
			biPtrs = append(biPtrs, ix)
			biFreqs = append(biFreqs, uint32(pp.cnt))
			if len(pp.children) > 0 {
				ix += uint64(len(pp.children))
				trids := sortedKeys(pp.children)
				w1Children := sortedChildIDs(w1)
				for _, w2 := range trids {
					remapped := sort.Search(len(w1Children), func(i int) bool { return w1Children[i] >= w2 })
					triIDs = append(triIDs, uint64(remapped)+triPrefixSum)
					ppp := pp.children[w2]
					triFreqs = append(triFreqs, uint32(ppp.cnt))
				}
				triPrefixSum = triIDs[len(triIDs)-1]
			}
		}
		biPrefixSum = biIDs[len(biIDs)-1]
	}
	biPtrs = append(biPtrs, ix)
	return biIDs, biPtrs, biFreqs, triIDs, triFreqs
}

// WriteFile serializes the builder to path, publishing atomically: the
// full artifact is written to a temporary file in the same directory
// and renamed into place, so readers never observe a partial file
// (spec.md §5).
func (b *Builder) WriteFile(path string) (err error) {
	data, err := b.Build()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ngram-build-*")
	if err != nil {
		return fmt.Errorf("ngram: create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("ngram: write temp artifact: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("ngram: sync temp artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("ngram: close temp artifact: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("ngram: publish artifact: %w", err)
	}
	b.opts.Logger.Info("artifact published", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// radixtrie.Builder stats exposed for builder-side diagnostics.
func (b *Builder) TrieStats() radixtrie.Stats { return b.trieStats }
