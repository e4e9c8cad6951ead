// Copyright 2011 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package radixtrie implements a compact (PATRICIA) radix trie over
// byte strings drawn from a small alphabet domain ({1..126}), mapping
// tokens to dense integer ids. A Builder accumulates keys in memory;
// WriteTo serializes the result to the packed on-disk format that
// Reader consumes via a byte-range view into a memory-mapped file.
package radixtrie

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// noValue is the in-memory sentinel for an internal node without its
// own terminal id. On disk this is always written as noValueOnDisk
// (0x7FFFFF), which §9 of the specification calls authoritative.
const noValue = -1

const noValueOnDisk = 0x007FFFFF

const maxValue = 0x007FFFFF // 23 bits

// maxChildren bounds a single node's fan-out; the packed format stores
// the child count in one byte, and the configured alphabet is
// required to be under 127 symbols, so this is never reached in
// practice but is enforced defensively at build time.
const maxChildren = 255

type node struct {
	fragment []byte
	value    int32 // noValue if this is a value-less internal node
	children []*node
}

func (n *node) add(fragment []byte, value int32) (prevValue int32, found bool) {
	if len(fragment) == 0 {
		if n.value != noValue {
			return n.value, true
		}
		n.value = value
		return 0, false
	}

	if n.children == nil {
		n.children = []*node{{fragment: fragment, value: value}}
		return 0, false
	}

	ch := fragment[0]
	lo, hi := 0, len(n.children)
	for hi > lo {
		mid := (lo + hi) / 2
		mc := n.children[mid].fragment[0]
		switch {
		case mc < ch:
			lo = mid + 1
		case mc > ch:
			hi = mid
		default:
			lo, hi = mid, mid // force the loop to stop at mid
		}
	}

	if lo >= len(n.children) || n.children[lo].fragment[0] != ch {
		// No common prefix with any child: insert in sorted order.
		idx := lo
		for idx < len(n.children) && n.children[idx].fragment[0] < ch {
			idx++
		}
		n.children = append(n.children, nil)
		copy(n.children[idx+1:], n.children[idx:])
		n.children[idx] = &node{fragment: fragment, value: value}
		if len(n.children) > maxChildren {
			panic("radixtrie: too many children for one node")
		}
		return 0, false
	}

	idx := lo
	child := n.children[idx]
	common := commonPrefixLen(fragment, child.fragment)

	if common == len(child.fragment) {
		// fragment fully consumes the child's fragment: recurse.
		return child.add(fragment[common:], value)
	}

	// Split the child at the point of divergence.
	origChildFragment := child.fragment
	child.fragment = origChildFragment[common:]

	if common == len(fragment) {
		// fragment is a proper prefix of the child: new parent holds
		// the value, child becomes its sole descendant.
		parent := &node{fragment: fragment, value: value, children: []*node{child}}
		n.children[idx] = parent
		return 0, false
	}

	// Genuine divergence after `common` bytes.
	rest := fragment[common:]
	parent := &node{fragment: origChildFragment[:common], value: noValue}
	if rest[0] < child.fragment[0] {
		parent.children = []*node{{fragment: rest, value: value}, child}
	} else {
		parent.children = []*node{child, {fragment: rest, value: value}}
	}
	n.children[idx] = parent
	return 0, false
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func (n *node) lookup(fragment []byte) (int32, bool) {
	if len(fragment) == 0 {
		if n.value == noValue {
			return 0, false
		}
		return n.value, true
	}
	for _, c := range n.children {
		if bytes.HasPrefix(fragment, c.fragment) {
			return c.lookup(fragment[len(c.fragment):])
		}
	}
	return 0, false
}

// Builder is the in-memory radix trie under construction.
type Builder struct {
	root         *node
	cnt          int32
	reserveEmpty bool
}

// NewBuilder returns an empty Builder. When reserveEmpty is true, id 0
// is reserved for the empty key (the sentence-boundary token) and the
// automatic id counter for Add starts at 1; otherwise it starts at 0.
func NewBuilder(reserveEmpty bool) *Builder {
	cnt := int32(0)
	if reserveEmpty {
		cnt = 1
	}
	return &Builder{root: &node{value: noValue}, cnt: cnt, reserveEmpty: reserveEmpty}
}

// Add inserts key with an explicit value (value >= 0), or, when value
// is negative, assigns the next automatically generated id. Adding a
// key that already exists is a no-op that returns the pre-existing
// value. The empty key always maps to 0.
func (b *Builder) Add(key []byte, value int32) int32 {
	if len(key) == 0 {
		return 0
	}
	auto := value < 0
	if auto {
		value = b.cnt
	}
	if value > maxValue {
		panic(fmt.Sprintf("radixtrie: value %d exceeds %d-bit field", value, 23))
	}
	prev, found := b.root.add(key, value)
	if found {
		return prev
	}
	if auto {
		b.cnt++
	}
	return value
}

// Get looks up key, returning (0, true) for the empty key and
// (value, true) for any other key present in the trie.
func (b *Builder) Get(key []byte) (int32, bool) {
	if len(key) == 0 {
		return 0, true
	}
	return b.root.lookup(key)
}

// Len returns the next auto-assigned id: the number of keys given an
// auto id (value -1), plus one for the empty-key slot when
// reserveEmpty is set. Keys added with an explicit value are not
// counted.
func (b *Builder) Len() int32 { return b.cnt }

// Stats summarizes the shape of the built trie, used only for
// builder-side diagnostics logging (SPEC_FULL.md §3/§4.2 supplement).
type Stats struct {
	Nodes            int
	SingleCharNodes  int
	MultiCharNodes   int
	ChildlessNodes   int
	MaxFixupDistance int
}

// Encode serializes the trie with a breadth-first walk, producing the
// exact packed format described in spec.md §4.2: children of a node
// are written consecutively so the parent stores only the address of
// the first child (fixed up in place once the child is emitted). Each
// node is written as its 4-byte header, then (multi-byte nodes only)
// its NUL-terminated fragment, then (nodes with children only) a
// child-count byte and the 4-byte first-child offset; the fragment
// comes before the child block, not after it. It
// returns the encoded section body and byte-size statistics gathered
// along the way.
func (b *Builder) Encode() ([]byte, Stats) {
	var stats Stats
	buf := make([]byte, 0, 4096)

	type pending struct {
		n         *node
		parentLoc int // -1 if no fixup needed (root)
	}
	queue := []pending{{b.root, -1}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		n := item.n

		loc := len(buf)
		stats.Nodes++

		val := int32(noValueOnDisk)
		if n.value != noValue {
			val = n.value
		}
		childless := uint32(0)
		if len(n.children) == 0 {
			childless = 0x40000000
			stats.ChildlessNodes++
		}

		var tail []byte
		if len(n.fragment) <= 1 {
			var chix byte
			if len(n.fragment) == 1 {
				chix = n.fragment[0]
			}
			header := uint32(0x80000000) | childless | (uint32(chix) << 23) | (uint32(val) & 0x007FFFFF)
			buf = appendUint32(buf, header)
			stats.SingleCharNodes++
		} else {
			header := childless | (uint32(val) & 0x007FFFFF)
			buf = appendUint32(buf, header)
			tail = append(append([]byte(nil), n.fragment...), 0)
			stats.MultiCharNodes++
		}

		if tail != nil {
			buf = append(buf, tail...)
		}

		childPtrLoc := -1
		if len(n.children) > 0 {
			buf = append(buf, byte(len(n.children)))
			childPtrLoc = len(buf)
			buf = appendUint32(buf, 0xFFFFFFFF)
		}

		if item.parentLoc >= 0 {
			dist := loc - item.parentLoc
			if dist > stats.MaxFixupDistance {
				stats.MaxFixupDistance = dist
			}
			binary.LittleEndian.PutUint32(buf[item.parentLoc:], uint32(loc))
		}

		for _, c := range n.children {
			queue = append(queue, pending{c, childPtrLoc})
			childPtrLoc = -1 // only the first child's slot carries the fixup
		}
	}

	return buf, stats
}

// WriteTo writes the encoded trie body to w, for callers (tests,
// standalone tools) that want a plain io.Writer surface; the builder
// itself uses Encode directly to embed the body in a larger section.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	buf, _ := b.Encode()
	n, err := w.Write(buf)
	return int64(n), err
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
