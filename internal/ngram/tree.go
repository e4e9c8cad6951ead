// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ngram

import "slices"

// maxOrder is the n-gram order this store supports: unigram, bigram,
// trigram.
const maxOrder = 3

// gnode is one node of the in-memory trigram tree accumulated during
// a build. Depth 0 is the root (its cnt is the grand total unigram
// count); depth 1 nodes are keyed by unigram id and hold the unigram
// occurrence count; depth 2 nodes are keyed by the second token's id
// and hold the bigram count; depth 3 nodes are keyed by the third
// token's id, hold the trigram count, and are leaves (children nil).
type gnode struct {
	cnt      uint64
	children map[int32]*gnode
}

func newGnode(depth int) *gnode {
	n := &gnode{}
	if depth < maxOrder {
		n.children = make(map[int32]*gnode)
	}
	return n
}

// child returns (creating if absent) the child keyed id, whose own
// depth is childDepth.
func (n *gnode) child(childDepth int, id int32) *gnode {
	c, ok := n.children[id]
	if !ok {
		c = newGnode(childDepth)
		n.children[id] = c
	}
	return c
}

// reset zeroes n's count and discards its subtree, as if n had just
// been created fresh at the given depth.
func (n *gnode) reset(depth int) {
	n.cnt = 0
	if depth < maxOrder {
		n.children = make(map[int32]*gnode)
	} else {
		n.children = nil
	}
}

// sortedKeys returns n's child ids in ascending order.
func sortedKeys(children map[int32]*gnode) []int32 {
	ids := make([]int32, 0, len(children))
	for id := range children {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
