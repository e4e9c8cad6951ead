// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

// Alphabet is a user-supplied character set of strictly fewer than
// 127 distinct runes. Each rune is assigned a 1-based byte index;
// tokens are stored internally as byte strings over {1..126}, with 0
// reserved as the trie's fragment terminator. Grounded on
// original_source's ALPHABET/to_bytes/to_str trio.
type Alphabet struct {
	runes []rune
	index map[rune]byte
}

// NewAlphabet builds an Alphabet from chars, in the order given (the
// order has no semantic effect; byte codes are assigned left to
// right starting at 1).
func NewAlphabet(chars string) (*Alphabet, error) {
	runes := []rune(chars)
	if len(runes) >= 127 {
		return nil, ErrAlphabetTooLarge
	}
	idx := make(map[rune]byte, len(runes))
	for i, r := range runes {
		idx[r] = byte(i + 1)
	}
	return &Alphabet{runes: runes, index: idx}, nil
}

// Encode converts s into its internal byte-string representation. ok
// is false if s contains a rune outside the alphabet, in which case
// the returned slice is meaningless; per spec.md this is not an error,
// callers treat it as "token not found" / frequency zero.
func (a *Alphabet) Encode(s string) (tok []byte, ok bool) {
	if s == "" {
		return nil, true
	}
	out := make([]byte, 0, len(s))
	for _, r := range s {
		c, in := a.index[r]
		if !in {
			return nil, false
		}
		out = append(out, c)
	}
	return out, true
}

// Decode converts an internal byte-string token back to text.
func (a *Alphabet) Decode(tok []byte) string {
	if len(tok) == 0 {
		return ""
	}
	out := make([]rune, len(tok))
	for i, b := range tok {
		out[i] = a.runes[int(b)-1]
	}
	return string(out)
}
