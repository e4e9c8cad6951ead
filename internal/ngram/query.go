// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import (
	"math"
	"sort"
)

// Succession is one ranked candidate returned by Succ: a surface token
// paired with the smoothed conditional log-probability of it following
// the query context.
type Succession struct {
	Token   string
	LogProb float64
}

// wordToID maps w to its trie id. ok is false if w contains a
// character outside the alphabet or is simply absent from the
// vocabulary; per spec.md §7 this is not an error.
func (s *Storage) wordToID(w string) (int32, bool) {
	tok, ok := s.alphabet.Encode(w)
	if !ok {
		return 0, false
	}
	if len(tok) == 0 && !s.usingEmpty {
		return 0, false
	}
	if s.bloom != nil && len(tok) > 0 && !s.bloom.mayContain(tok) {
		return 0, false
	}
	return s.trie.Lookup(tok)
}

// VocabSize returns the number of distinct tokens in the vocabulary,
// i.e. the range of valid ids for IDToWord.
func (s *Storage) VocabSize() int {
	return s.up.Len() - 1
}

// IDToWord resolves a vocabulary id back to its surface token.
func (s *Storage) IDToWord(id int32) (string, bool) {
	tok, err := s.vocab.IdToWord(int(id))
	if err != nil {
		return "", false
	}
	return s.alphabet.Decode(tok), true
}

// Contains reports whether w is exactly a vocabulary token.
func (s *Storage) Contains(w string) bool {
	if s.checkOpen() != nil {
		return false
	}
	_, ok := s.wordToID(w)
	return ok
}

// normalize truncates n-gram inputs longer than 3 to their final 3
// tokens, as spec.md §4.6.1 requires.
func normalize(tokens []string) []string {
	if len(tokens) > maxOrder {
		return tokens[len(tokens)-maxOrder:]
	}
	return tokens
}

// unigramFreq returns FrequencyList[1].lookup(i), or 0 if i is absent.
func (s *Storage) unigramFreq(i int32) uint32 {
	if i < 0 || int(i) >= s.up.Len()-1 {
		return 0
	}
	return s.uFreq.Lookup(int(i))
}

// bigramIndex resolves (i0,i1) to its position in BI, or (0, false).
func (s *Storage) bigramIndex(i0, i1 int32) (int, bool) {
	p1, p2 := s.up.LookupPair(int(i0))
	return s.bi.SearchPrefix(int(p1), int(p2), uint64(i1))
}

// bigramFreq returns the bigram frequency of (i0,i1), or 0.
func (s *Storage) bigramFreq(i0, i1 int32) uint32 {
	if s.usingEmpty && i0 == 0 && i1 == 0 {
		return 0
	}
	i, ok := s.bigramIndex(i0, i1)
	if !ok {
		return 0
	}
	return s.biFreq.Lookup(i)
}

// trigramIndex resolves (i0,i1,i2) to its position in TI, applying the
// Pibiri-Venturini remap of the third token into i1's sorted bigram
// children, per spec.md §4.6.1 step 4.
func (s *Storage) trigramIndex(i0, i1, i2 int32) (int, bool) {
	i, ok := s.bigramIndex(i0, i1)
	if !ok {
		return 0, false
	}
	p1, p2 := s.bp.LookupPair(i)
	q1, q2 := s.up.LookupPair(int(i1))
	remap, ok := s.bi.SearchPrefix(int(q1), int(q2), uint64(i2))
	if !ok {
		return 0, false
	}
	return s.tri.SearchPrefix(int(p1), int(p2), uint64(remap)-q1)
}

func (s *Storage) trigramFreq(i0, i1, i2 int32) uint32 {
	j, ok := s.trigramIndex(i0, i1, i2)
	if !ok {
		return 0
	}
	return s.tFreq.Lookup(j)
}

// Freq returns the raw n-gram frequency of tokens (n in 1..3; longer
// inputs are truncated to their final 3 tokens). Any out-of-alphabet
// or out-of-vocabulary token yields 0, not an error.
func (s *Storage) Freq(tokens []string) uint32 {
	if s.checkOpen() != nil {
		return 0
	}
	tokens = normalize(tokens)
	ids := make([]int32, len(tokens))
	for i, t := range tokens {
		id, ok := s.wordToID(t)
		if !ok {
			return 0
		}
		ids[i] = id
	}
	switch len(ids) {
	case 1:
		return s.unigramFreq(ids[0])
	case 2:
		return s.bigramFreq(ids[0], ids[1])
	case 3:
		i0, i1, i2 := ids[0], ids[1], ids[2]
		// Degenerate zero cases of spec.md §4.6.1 step 5: the
		// build-time boundary compaction moves (0,0,w2) into the
		// bigram (0,w2) and (w,0,0) into the bigram (w,0), so the
		// trigram slot for these shapes never holds real counts. This
		// only applies when id 0 is the reserved empty token; when the
		// corpus has no empty token, id 0 is an ordinary word and the
		// trigram must be looked up normally.
		if s.usingEmpty {
			switch {
			case i0 == 0 && i1 == 0 && i2 == 0:
				return 0
			case i0 == 0 && i1 == 0:
				return s.bigramFreq(0, i2)
			case i1 == 0 && i2 == 0:
				return s.bigramFreq(i0, 0)
			}
		}
		return s.trigramFreq(i0, i1, i2)
	default:
		return 0
	}
}

// AdjFreq is Freq plus 1, the Laplace-smoothed frequency.
func (s *Storage) AdjFreq(tokens []string) uint64 {
	return uint64(s.Freq(tokens)) + 1
}

// LogProb returns the smoothed conditional log-probability of the
// final token given the ones before it, per spec.md §4.6.2.
func (s *Storage) LogProb(tokens []string) float64 {
	if s.checkOpen() != nil {
		return math.Inf(-1)
	}
	tokens = normalize(tokens)
	ids := make([]int32, len(tokens))
	for i, t := range tokens {
		id, ok := s.wordToID(t)
		if !ok {
			ids[i] = -1
			continue
		}
		ids[i] = id
	}
	switch len(ids) {
	case 1:
		return math.Log(float64(freqOrZero(s, ids[0]))+1) - math.Log(float64(s.unigramTotal)+1)
	case 2:
		num := float64(bigramFreqOrZero(s, ids[0], ids[1])) + 1
		den := float64(freqOrZero(s, ids[0])) + 1
		return math.Log(num) - math.Log(den)
	case 3:
		num := float64(s.Freq(tokens)) + 1
		den := float64(bigramFreqOrZero(s, ids[0], ids[1])) + 1
		return math.Log(num) - math.Log(den)
	default:
		return math.Inf(-1)
	}
}

func freqOrZero(s *Storage, id int32) uint32 {
	if id < 0 {
		return 0
	}
	return s.unigramFreq(id)
}

func bigramFreqOrZero(s *Storage, i0, i1 int32) uint32 {
	if i0 < 0 || i1 < 0 {
		return 0
	}
	return s.bigramFreq(i0, i1)
}

// Prob is exp(LogProb), always in (0,1].
func (s *Storage) Prob(tokens []string) float64 {
	return math.Exp(s.LogProb(tokens))
}

// Succ returns the top-k most probable continuations of the given
// context (1 or 2 tokens), per spec.md §4.6.3.
func (s *Storage) Succ(k int, context []string) []Succession {
	if s.checkOpen() != nil || k <= 0 {
		return nil
	}
	context = normalize(context)
	if len(context) > 2 {
		context = context[len(context)-2:]
	}
	switch len(context) {
	case 1:
		return s.unigramSucc(k, context[0])
	case 2:
		return s.bigramSucc(k, context[0], context[1])
	default:
		return nil
	}
}

func (s *Storage) unigramSucc(k int, w0 string) []Succession {
	i0, ok := s.wordToID(w0)
	if !ok {
		return nil
	}
	p1, p2 := s.up.LookupPair(int(i0))
	if p2 <= p1 {
		return nil
	}
	var prefix uint64
	if p1 > 0 {
		prefix = s.bi.Lookup(int(p1 - 1))
	}
	denom := float64(s.unigramFreq(i0)) + 1

	type cand struct {
		id int32
		lp float64
	}
	cands := make([]cand, 0, p2-p1)
	for q := p1; q < p2; q++ {
		raw := s.bi.Lookup(int(q)) - prefix
		freq := s.biFreq.Lookup(int(q))
		lp := math.Log(float64(freq)+1) - math.Log(denom)
		cands = append(cands, cand{int32(raw), lp})
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].lp > cands[b].lp })
	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]Succession, 0, len(cands))
	for _, c := range cands {
		tok, ok := s.IDToWord(c.id)
		if !ok {
			continue
		}
		out = append(out, Succession{Token: tok, LogProb: c.lp})
	}
	return out
}

func (s *Storage) bigramSucc(k int, w0, w1 string) []Succession {
	i0, ok0 := s.wordToID(w0)
	i1, ok1 := s.wordToID(w1)
	if !ok0 || !ok1 {
		return nil
	}
	i, ok := s.bigramIndex(i0, i1)
	if !ok {
		return nil
	}
	p1, p2 := s.bp.LookupPair(i)
	if p2 <= p1 {
		return nil
	}
	q1, _ := s.up.LookupPair(int(i1))
	var qPrefix uint64
	if q1 > 0 {
		qPrefix = s.bi.Lookup(int(q1 - 1))
	}
	var triPrefix uint64
	if p1 > 0 {
		triPrefix = s.tri.Lookup(int(p1 - 1))
	}
	denom := float64(s.bigramFreq(i0, i1)) + 1

	type cand struct {
		id int32
		lp float64
	}
	cands := make([]cand, 0, p2-p1)
	for r := p1; r < p2; r++ {
		remap := s.tri.Lookup(int(r)) - triPrefix
		trueID := s.bi.Lookup(int(q1+remap)) - qPrefix
		freq := s.tFreq.Lookup(int(r))
		lp := math.Log(float64(freq)+1) - math.Log(denom)
		cands = append(cands, cand{int32(trueID), lp})
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].lp > cands[b].lp })
	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]Succession, 0, len(cands))
	for _, c := range cands {
		tok, ok := s.IDToWord(c.id)
		if !ok {
			continue
		}
		out = append(out, Succession{Token: tok, LogProb: c.lp})
	}
	return out
}
