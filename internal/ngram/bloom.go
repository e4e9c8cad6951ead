// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import (
	"bytes"

	"github.com/bits-and-blooms/bloom/v3"
)

// bloomFalsePositiveRate targets roughly 1% false positives, enough to
// shortcut the large majority of negative lookups straight past the
// trie walk. Grounded on armchr-bot-go's NGramTrie, which keeps an
// optional bloom.BloomFilter alongside its trie for the same purpose
// (there: skipping singleton inserts; here: skipping trie misses).
const bloomFalsePositiveRate = 0.01

// buildBloom serializes a Bloom filter over every encoded vocabulary
// token (trie fragment bytes, not surface text) into the artifact's
// optional "bloom" section body.
func buildBloom(tokens [][]byte) []byte {
	f := bloom.NewWithEstimates(uint(len(tokens)), bloomFalsePositiveRate)
	for _, tok := range tokens {
		f.Add(tok)
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}

// bloomFilter wraps the read-only view used at query time.
type bloomFilter struct {
	f *bloom.BloomFilter
}

func newBloomFilter(data []byte) (*bloomFilter, error) {
	f := &bloom.BloomFilter{}
	if _, err := f.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &bloomFilter{f: f}, nil
}

// mayContain reports whether tok could be in the vocabulary. false is
// authoritative (never present); true requires the trie walk to
// confirm.
func (bf *bloomFilter) mayContain(tok []byte) bool {
	if bf == nil {
		return true
	}
	return bf.f.Test(tok)
}
