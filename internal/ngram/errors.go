// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import "errors"

// The error taxonomy of spec.md §7. Build-time corruption is always
// fatal; query-time failures (out-of-alphabet characters, unknown
// tokens) are not errors — they resolve to the documented zero/empty
// results instead.
var (
	// ErrAlphabetTooLarge is returned by NewAlphabet when the supplied
	// alphabet has 127 or more distinct characters.
	ErrAlphabetTooLarge = errors.New("ngram: alphabet must have fewer than 127 characters")

	// ErrMalformedInput is returned while reading a TSV shard whose
	// lines do not split into exactly four fields.
	ErrMalformedInput = errors.New("ngram: malformed trigram line")

	// ErrOverflow is returned when a count or id would not fit in its
	// on-disk field width.
	ErrOverflow = errors.New("ngram: value exceeds its on-disk field width")

	// ErrArtifactVersion is returned by Open when the version tag or
	// integrity checksum does not match what this reader expects.
	ErrArtifactVersion = errors.New("ngram: artifact version or integrity checksum mismatch")

	// ErrOutOfRange names the out-of-range error class. No function in
	// this package returns it.
	ErrOutOfRange = errors.New("ngram: index out of range")

	// ErrClosed is what Storage's internal open check reports after
	// Close. The public query methods do not return it; after Close
	// they give their zero results (0, false, -Inf or nil).
	ErrClosed = errors.New("ngram: use after close")
)
