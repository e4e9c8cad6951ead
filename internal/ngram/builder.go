// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mideind/icegrams/internal/radixtrie"
	"github.com/mideind/icegrams/internal/tsvsource"
)

// BuildOptions controls the second-pass trigram accumulation.
type BuildOptions struct {
	// AddAllBigrams, when true, explicitly adds both (w0,w1) and
	// (w1,w2) as bigrams (and a matching unigram bump) for every input
	// trigram, instead of relying on the next trigram's (w1,w2,w3) to
	// imply the (w1,w2) bigram.
	AddAllBigrams bool
	// EnableBloom builds a negative-lookup Bloom filter section over
	// the vocabulary (see DESIGN.md's bloom entry).
	EnableBloom bool
	Logger      *zap.Logger
}

// Builder accumulates a trigram tree in memory from one or more TSV
// shards and serializes it to the artifact format of spec.md §4.6.
// It is single-threaded and, per §5, produces output atomically.
type Builder struct {
	alphabet *Alphabet
	opts     BuildOptions

	vocabCount map[string]int64
	usingEmpty bool

	ids    map[string]int32
	tokens [][]byte

	trie      *radixtrie.Builder
	trieStats radixtrie.Stats

	root *gnode
	ucnt uint64
}

// NewBuilder returns an empty Builder over the given alphabet.
func NewBuilder(alphabet *Alphabet, opts BuildOptions) *Builder {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Builder{
		alphabet:   alphabet,
		opts:       opts,
		vocabCount: make(map[string]int64),
		root:       newGnode(0),
	}
}

func (b *Builder) unigram(id int32) *gnode { return b.root.child(1, id) }

// charsetOK reports whether any of w0, w1, w2 is non-empty, and whether
// every rune across all three is in the alphabet.
func (b *Builder) charsetOK(w0, w1, w2 string) (nonEmpty, ok bool) {
	for _, s := range [3]string{w0, w1, w2} {
		for _, r := range s {
			nonEmpty = true
			if _, in := b.alphabet.index[r]; !in {
				return nonEmpty, false
			}
		}
	}
	return nonEmpty, true
}

func splitFields(line string) ([]string, bool) {
	a := strings.Fields(line)
	if len(a) != 4 {
		a = strings.Split(line, "\t")
	}
	if len(a) != 4 {
		return nil, false
	}
	return a, true
}

// ReadTSV performs the two-pass read of spec.md §3/§6 over every line
// src yields: a first pass assigns unigram ids in descending order of
// raw occurrence count (with the empty token pinned to id 0 when
// present), then a second pass accumulates the trigram tree.
func (b *Builder) ReadTSV(src *tsvsource.Source) error {
	if err := b.firstPass(src); err != nil {
		return err
	}
	if err := b.assignIDs(); err != nil {
		return err
	}
	if err := b.secondPass(src); err != nil {
		return err
	}
	if b.usingEmpty {
		b.compactBoundaries()
	}
	return nil
}

func (b *Builder) firstPass(src *tsvsource.Source) error {
	b.opts.Logger.Info("reading tsv shards, first pass (vocabulary counting)")
	return src.ForEachLine(func(line string) error {
		a, ok := splitFields(line)
		if !ok {
			return fmt.Errorf("%w: %q", ErrMalformedInput, line)
		}
		w0, w1, w2 := a[0], a[1], a[2]
		if _, ok := b.charsetOK(w0, w1, w2); !ok {
			return nil
		}
		b.vocabCount[w0]++
		b.vocabCount[w1]++
		b.vocabCount[w2]++
		return nil
	})
}

type vocabEntry struct {
	word  string
	count int64
}

func (b *Builder) assignIDs() error {
	b.usingEmpty = b.vocabCount[""] > 0

	entries := make([]vocabEntry, 0, len(b.vocabCount))
	for w, c := range b.vocabCount {
		entries = append(entries, vocabEntry{w, c})
	}
	if b.usingEmpty {
		for i := range entries {
			if entries[i].word == "" {
				entries[i].count = 1<<62 + entries[i].count // pin to the front
			}
		}
	}
	// Descending sort by count, ties broken by the word itself
	// for determinism (original_source relies on Python's stable sort
	// over dict-insertion order; insertion order is not reproducible
	// from a Go map, so we break ties lexicographically instead).
	sortVocab(entries)

	b.ids = make(map[string]int32, len(entries))
	b.tokens = make([][]byte, 0, len(entries))
	b.trie = radixtrie.NewBuilder(b.usingEmpty)

	if b.usingEmpty {
		b.ids[""] = 0
		b.tokens = append(b.tokens, nil)
	}
	for _, e := range entries {
		if e.word == "" {
			continue
		}
		enc, ok := b.alphabet.Encode(e.word)
		if !ok {
			return fmt.Errorf("%w: vocabulary word %q", ErrOverflow, e.word)
		}
		id := b.trie.Add(enc, -1)
		b.ids[e.word] = id
		b.tokens = append(b.tokens, enc)
	}
	b.opts.Logger.Info("assigned vocabulary ids",
		zap.Int("vocab_size", len(b.tokens)),
		zap.Bool("using_empty", b.usingEmpty),
	)
	return nil
}

func sortVocab(e []vocabEntry) {
	// In-place quicksort by count descending, then word ascending.
	// Words are unique, so this is a total order and the result is
	// deterministic even though quicksort is not a stable sort.
	quickSortVocab(e, 0, len(e)-1)
}

func quickSortVocab(e []vocabEntry, lo, hi int) {
	for lo < hi {
		p := partitionVocab(e, lo, hi)
		if p-lo < hi-p {
			quickSortVocab(e, lo, p-1)
			lo = p + 1
		} else {
			quickSortVocab(e, p+1, hi)
			hi = p - 1
		}
	}
}

func lessVocab(a, b vocabEntry) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	return a.word < b.word
}

func partitionVocab(e []vocabEntry, lo, hi int) int {
	pivot := e[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if lessVocab(e[j], pivot) {
			e[i], e[j] = e[j], e[i]
			i++
		}
	}
	e[i], e[hi] = e[hi], e[i]
	return i
}

func (b *Builder) secondPass(src *tsvsource.Source) error {
	b.opts.Logger.Info("reading tsv shards, second pass (tree accumulation)")
	return src.ForEachLine(func(line string) error {
		a, ok := splitFields(line)
		if !ok {
			return fmt.Errorf("%w: %q", ErrMalformedInput, line)
		}
		w0, w1, w2 := a[0], a[1], a[2]
		nonEmpty, ok := b.charsetOK(w0, w1, w2)
		if !ok || !nonEmpty {
			return nil
		}
		c, err := strconv.ParseUint(a[3], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad count %q", ErrMalformedInput, a[3])
		}
		i0, ok0 := b.ids[w0]
		i1, ok1 := b.ids[w1]
		i2, ok2 := b.ids[w2]
		if !ok0 || !ok1 || !ok2 {
			return nil
		}

		d1 := b.unigram(i0)
		d1.cnt += c
		d2 := d1.child(2, i1)
		d2.cnt += c
		d3 := d2.child(maxOrder, i2)
		d3.cnt += c

		if b.opts.AddAllBigrams {
			b.unigram(i2).cnt += c
			u1 := b.unigram(i1)
			u1.cnt += c
			u1.child(2, i2).cnt += c
			b.ucnt += 3 * c
		} else {
			b.ucnt += c
		}
		return nil
	})
}

// compactBoundaries applies the (0,0,w2)/(w0,0,0) compaction of
// spec.md §3: counts move into the shorter bigram and the redundant
// trigram subtree is deleted. Grounded on original_source's
// read_tsv boundary-compaction pass.
func (b *Builder) compactBoundaries() {
	d0 := b.root.children[0] // unigram(0), depth1
	if d0 == nil {
		return
	}
	d00 := d0.children[0] // bigram (0,0), depth2
	cut := 0
	if d00 != nil {
		for wid2, trigram := range d00.children {
			d0.child(2, wid2).cnt = trigram.cnt
			cut++
		}
		d00.reset(2)
	}
	for _, u := range b.root.children {
		bigramZero, ok := u.children[0]
		if !ok {
			continue
		}
		if trigramZero, ok := bigramZero.children[0]; ok {
			bigramZero.cnt = trigramZero.cnt
			delete(bigramZero.children, 0)
			cut++
		}
	}
	b.opts.Logger.Info("cut trigrams with two trailing blanks", zap.Int("count", cut))
}
