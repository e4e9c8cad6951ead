// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mideind/icegrams/internal/tsvsource"
)

const testAlphabet = "aábdðeéfghiíjklmnoóprstuúvxyýþæöAÁBDÐEÉFGHIÍJKLMNOÓPRSTUÚVXYÝÞÆÖ "

func mustAlphabet(t *testing.T) *Alphabet {
	t.Helper()
	a, err := NewAlphabet(testAlphabet)
	if err != nil {
		t.Fatalf("NewAlphabet: %v", err)
	}
	return a
}

func buildTiny(t *testing.T, lines string, opts BuildOptions) *Storage {
	t.Helper()
	dir := t.TempDir()
	shard := filepath.Join(dir, "corpus.tsv")
	if err := os.WriteFile(shard, []byte(lines), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src := tsvsource.NewSingleFile(shard)

	a := mustAlphabet(t)
	b := NewBuilder(a, opts)
	if err := b.ReadTSV(src); err != nil {
		t.Fatalf("ReadTSV: %v", err)
	}
	path := filepath.Join(dir, "icegrams.bin")
	if err := b.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	st, err := Open(path, a)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestBuildAndQueryBasic(t *testing.T) {
	corpus := "" +
		"hestur er dýr\t3\n" +
		"er dýr sem\t2\n" +
		"hestur er stór\t1\n" +
		"köttur er dýr\t5\n"
	st := buildTiny(t, corpus, BuildOptions{AddAllBigrams: true})

	if !st.Contains("hestur") {
		t.Errorf("Contains(hestur) = false, want true")
	}
	if st.Contains("ekkitil") {
		t.Errorf("Contains(ekkitil) = true, want false")
	}

	if got := st.Freq([]string{"hestur", "er", "dýr"}); got != 3 {
		t.Errorf("Freq(hestur er dýr) = %d, want 3", got)
	}
	if got := st.Freq([]string{"hestur", "er", "stór"}); got != 1 {
		t.Errorf("Freq(hestur er stór) = %d, want 1", got)
	}
	if got := st.Freq([]string{"hestur", "er", "horfinn"}); got != 0 {
		t.Errorf("Freq(hestur er horfinn) = %d, want 0", got)
	}

	lp := st.LogProb([]string{"hestur", "er", "dýr"})
	if lp > 0 || math.IsInf(lp, 0) || math.IsNaN(lp) {
		t.Errorf("LogProb(hestur er dýr) = %v, want a finite value <= 0", lp)
	}
	p := st.Prob([]string{"hestur", "er", "dýr"})
	if p <= 0 || p > 1 {
		t.Errorf("Prob(hestur er dýr) = %v, want in (0,1]", p)
	}

	succ := st.Succ(5, []string{"hestur", "er"})
	if len(succ) == 0 {
		t.Errorf("Succ(hestur er) returned no successions")
	}
	for i := 1; i < len(succ); i++ {
		if succ[i].LogProb > succ[i-1].LogProb {
			t.Errorf("Succ results not sorted descending at index %d: %v", i, succ)
		}
	}
}

func TestFreqTruncatesToLastThree(t *testing.T) {
	st := buildTiny(t, "a b c\t4\n", BuildOptions{AddAllBigrams: true})
	got := st.Freq([]string{"x", "y", "a", "b", "c"})
	if got != 4 {
		t.Errorf("Freq with 5 tokens = %d, want 4 (truncated to last 3)", got)
	}
}

func TestOutOfAlphabetYieldsZeroNotError(t *testing.T) {
	st := buildTiny(t, "a b c\t1\n", BuildOptions{})
	if got := st.Freq([]string{"a", "b", "🎉"}); got != 0 {
		t.Errorf("Freq with out-of-alphabet token = %d, want 0", got)
	}
	if st.Contains("🎉") {
		t.Errorf("Contains(out-of-alphabet) = true, want false")
	}
}

func TestAddAllBigrams(t *testing.T) {
	st := buildTiny(t, "a b c\t2\n", BuildOptions{AddAllBigrams: true})
	if got := st.Freq([]string{"a", "b"}); got == 0 {
		t.Errorf("Freq(a b) = 0 with AddAllBigrams, want > 0")
	}
	if got := st.Freq([]string{"b", "c"}); got == 0 {
		t.Errorf("Freq(b c) = 0 with AddAllBigrams, want > 0")
	}
}

func TestAdjFreqIsFreqPlusOne(t *testing.T) {
	st := buildTiny(t, "a b c\t7\n", BuildOptions{})
	f := st.Freq([]string{"a", "b", "c"})
	af := st.AdjFreq([]string{"a", "b", "c"})
	if af != uint64(f)+1 {
		t.Errorf("AdjFreq = %d, want Freq+1 = %d", af, f+1)
	}
}

func TestCloseInvalidatesQueries(t *testing.T) {
	st := buildTiny(t, "a b c\t1\n", BuildOptions{})
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Errorf("second Close = %v, want nil (idempotent)", err)
	}
	if got := st.Freq([]string{"a", "b", "c"}); got != 0 {
		t.Errorf("Freq after Close = %d, want 0", got)
	}
	if st.Contains("a") {
		t.Errorf("Contains after Close = true, want false")
	}
}
