// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package icegrams is the small query-surface facade described by
// SPEC_FULL.md §6: it owns one artifact (optionally kept live by
// internal/hotreload) and exposes the arity-dispatched Freq/AdjFreq/
// LogProb/Prob/Succ/Contains/Close surface on top of internal/ngram's
// Storage, matching the shape of the teacher's own Index type being
// the one thing cmd/cserver and cmd/csweb call through.
package icegrams

import (
	"fmt"

	"github.com/hbollon/go-edlib"

	"github.com/mideind/icegrams/internal/hotreload"
	"github.com/mideind/icegrams/internal/ngram"
)

// Successor is one ranked continuation returned by Succ.
type Successor struct {
	Token   string
	LogProb float64
}

// Ngrams is the query facade over one n-gram artifact.
type Ngrams struct {
	alphabet *ngram.Alphabet
	storage  *ngram.Storage // set when opened without a watch path
	watcher  *hotreload.Watcher
}

// Options configures Open.
type Options struct {
	// Alphabet is the character set the artifact was built with.
	Alphabet string
	// Watch enables internal/hotreload: Open additionally starts an
	// fsnotify watch on the artifact's directory so a later atomic
	// rebuild at the same path is picked up without restarting the
	// process.
	Watch bool
}

// Open loads the artifact at path under the given alphabet. With
// opts.Watch set, the artifact is kept live across rebuilds via
// internal/hotreload; otherwise it is mapped once and never swapped.
func Open(path string, opts Options) (*Ngrams, error) {
	alphabet, err := ngram.NewAlphabet(opts.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("icegrams: %w", err)
	}
	n := &Ngrams{alphabet: alphabet}
	if opts.Watch {
		w, err := hotreload.New(path, alphabet, nil)
		if err != nil {
			return nil, fmt.Errorf("icegrams: %w", err)
		}
		n.watcher = w
		return n, nil
	}
	st, err := ngram.Open(path, alphabet)
	if err != nil {
		return nil, fmt.Errorf("icegrams: %w", err)
	}
	n.storage = st
	return n, nil
}

// acquire returns the Storage to query for this call, plus a release
// function that must always be invoked. With hot reload disabled this
// is a no-op release over the one fixed Storage.
func (n *Ngrams) acquire() (*ngram.Storage, func()) {
	if n.watcher != nil {
		return n.watcher.Acquire()
	}
	return n.storage, func() {}
}

// Freq returns the raw frequency of the 1-, 2- or 3-gram formed by
// tokens (longer inputs are truncated to their final 3 tokens).
func (n *Ngrams) Freq(tokens ...string) uint64 {
	st, release := n.acquire()
	defer release()
	return uint64(st.Freq(tokens))
}

// AdjFreq is Freq plus 1, the Laplace-smoothed frequency.
func (n *Ngrams) AdjFreq(tokens ...string) uint64 {
	st, release := n.acquire()
	defer release()
	return st.AdjFreq(tokens)
}

// LogProb returns the smoothed conditional log-probability of the
// final token given the ones before it.
func (n *Ngrams) LogProb(tokens ...string) float64 {
	st, release := n.acquire()
	defer release()
	return st.LogProb(tokens)
}

// Prob is exp(LogProb).
func (n *Ngrams) Prob(tokens ...string) float64 {
	st, release := n.acquire()
	defer release()
	return st.Prob(tokens)
}

// Succ returns the top-k most probable continuations of prefix (1 or
// 2 tokens).
func (n *Ngrams) Succ(k int, prefix ...string) []Successor {
	st, release := n.acquire()
	defer release()
	return convertSuccessions(st.Succ(k, prefix))
}

// Contains reports whether token is exactly a vocabulary entry.
func (n *Ngrams) Contains(token string) bool {
	st, release := n.acquire()
	defer release()
	return st.Contains(token)
}

// Close releases the underlying mapping (or, with hot reload enabled,
// stops the watch and releases the facade's own hold on the current
// generation).
func (n *Ngrams) Close() error {
	if n.watcher != nil {
		return n.watcher.Close()
	}
	return n.storage.Close()
}

func convertSuccessions(in []ngram.Succession) []Successor {
	if in == nil {
		return nil
	}
	out := make([]Successor, len(in))
	for i, s := range in {
		out[i] = Successor{Token: s.Token, LogProb: s.LogProb}
	}
	return out
}

// SuccWithSuggestions is Succ, except that each prefix token that
// fails Contains is first replaced by the closest in-vocabulary token
// (by normalized Levenshtein similarity, via github.com/hbollon/go-edlib)
// among tokens sharing its first character, and Succ then runs once
// with the substituted prefix. This is a
// facade-only convenience with no effect on Succ's own semantics: it
// never changes what Succ returns for a prefix that is already
// in-vocabulary.
func (n *Ngrams) SuccWithSuggestions(k int, prefix ...string) []Successor {
	st, release := n.acquire()
	defer release()

	if len(prefix) == 0 {
		return nil
	}
	fixed := append([]string(nil), prefix...)
	for i, tok := range fixed {
		if st.Contains(tok) {
			continue
		}
		suggestion, ok := closestVocabToken(st, tok)
		if !ok {
			return nil
		}
		fixed[i] = suggestion
	}
	return convertSuccessions(st.Succ(k, fixed))
}

// closestVocabToken scans the vocabulary for the token with the
// highest normalized Levenshtein similarity to query among tokens that share
// query's first rune, a cheap bound that keeps this O(vocabulary)
// scan from comparing against entries that can't plausibly be a typo
// of query.
func closestVocabToken(st *ngram.Storage, query string) (string, bool) {
	if query == "" {
		return "", false
	}
	first := []rune(query)[0]

	best := ""
	found := false
	bestSim := float32(-1) // StringsSimilarity's Levenshtein result is a similarity in [0,1], 1 meaning identical
	n := st.VocabSize()
	for id := 0; id < n; id++ {
		word, ok := st.IDToWord(int32(id))
		if !ok || word == "" {
			continue
		}
		if []rune(word)[0] != first {
			continue
		}
		sim, err := edlib.StringsSimilarity(query, word, edlib.Levenshtein)
		if err != nil {
			continue
		}
		if !found || sim > bestSim {
			bestSim = sim
			best = word
			found = true
		}
	}
	return best, found
}
