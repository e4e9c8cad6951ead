// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestConcurrentQueries exercises spec.md §5's claim that a Storage
// may be queried from many goroutines with no synchronisation once
// loaded.
func TestConcurrentQueries(t *testing.T) {
	corpus := "" +
		"hestur er dýr\t3\n" +
		"er dýr sem\t2\n" +
		"hestur er stór\t1\n" +
		"köttur er dýr\t5\n" +
		"hundur er tryggur\t4\n"
	st := buildTiny(t, corpus, BuildOptions{})

	wantFreq := st.Freq([]string{"hestur", "er", "dýr"})
	wantLogProb := st.LogProb([]string{"hestur", "er"})
	wantSucc := st.Succ(3, []string{"hestur", "er"})

	g, _ := errgroup.WithContext(context.Background())
	const workers = 32
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := 0; j < 200; j++ {
				if got := st.Freq([]string{"hestur", "er", "dýr"}); got != wantFreq {
					return fmt.Errorf("Freq = %d, want %d (two concurrent callers disagreed)", got, wantFreq)
				}
				if got := st.LogProb([]string{"hestur", "er"}); got != wantLogProb {
					return fmt.Errorf("LogProb = %v, want %v", got, wantLogProb)
				}
				succ := st.Succ(3, []string{"hestur", "er"})
				if len(succ) != len(wantSucc) {
					return fmt.Errorf("Succ returned %d results, want %d", len(succ), len(wantSucc))
				}
				for k := range succ {
					if succ[k] != wantSucc[k] {
						return fmt.Errorf("Succ[%d] = %+v, want %+v", k, succ[k], wantSucc[k])
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent queries returned an error: %v", err)
	}
}
