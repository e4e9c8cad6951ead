// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package integrity

import "testing"

func TestSumVerify(t *testing.T) {
	data := []byte("section offset table contents")
	sum := Sum(data)

	if !Verify(data, sum) {
		t.Fatalf("Verify failed for the checksum Sum itself produced")
	}
	if Verify(data, sum+1) {
		t.Fatalf("Verify accepted a wrong checksum")
	}

	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xff
	if Verify(corrupted, sum) {
		t.Fatalf("Verify accepted a checksum against altered data")
	}
}

func TestSumDeterministic(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	if Sum(data) != Sum(append([]byte(nil), data...)) {
		t.Fatalf("Sum is not deterministic across equal-but-distinct slices")
	}
}
