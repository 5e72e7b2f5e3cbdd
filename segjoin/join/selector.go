// Copyright © 2026 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package join

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/twotwotwo/sorts/sortutil"
	"github.com/zeebo/wyhash"
)

// Entry is one member of a cover: a chain tuple or a run of uncovered segments.
type Entry struct {
	Tuple Tuple
	Gap   bool // filled with unmapped placeholders
}

// Cover is a partition of all segment indexes of a mate.
// Entries are sorted by their first segment index.
type Cover []Entry

// Rank is the list of chain lengths of a cover, in the order the chains were picked.
type Rank []int

// Compare compares two ranks lexicographically. A rank is smaller than any
// longer rank it is a prefix of.
func (r Rank) Compare(b Rank) int {
	n := min(len(r), len(b))
	for i := 0; i < n; i++ {
		if r[i] < b[i] {
			return -1
		}
		if r[i] > b[i] {
			return 1
		}
	}
	switch {
	case len(r) < len(b):
		return -1
	case len(r) > len(b):
		return 1
	}
	return 0
}

// Select finds the best covers of n segments from the chain groups.
// unmapped marks segments that can never be covered by a chain.
//
// Tuples are tried from the longest to the shortest. In each round, disjoint
// tuples are picked greedily from the remaining candidates, then the first
// candidate is dropped. The search stops once a cover ranks lower than the
// best one. Covers of the best rank are all kept, and covers found before a
// better one are discarded.
func Select(groups *Groups, n int, unmapped []bool) []Cover {
	pool := make([]Tuple, len(groups.Tuples))
	copy(pool, groups.Tuples)
	sort.SliceStable(pool, func(i, j int) bool { return len(pool[i]) > len(pool[j]) })

	var nMappable int
	for i := 0; i < n; i++ {
		if !unmapped[i] {
			nMappable++
		}
	}

	used := make([]bool, n)
	picked := make([]Tuple, 0, len(pool))
	var nUsed int
	var best, rank Rank
	covers := make([]Cover, 0, 4)
	seen := newCoverSet()

	var t Tuple
	var i int
	for len(pool) > 0 {
		for i = range used {
			used[i] = false
		}
		nUsed = 0
		picked = picked[:0]

		for _, t = range pool {
			if !disjoint(used, t) {
				continue
			}
			for _, i = range t {
				used[i] = true
			}
			nUsed += len(t)
			picked = append(picked, t)
			if nUsed == nMappable {
				break
			}
		}

		pool = pool[1:]

		rank = make(Rank, len(picked))
		for i, t = range picked {
			rank[i] = len(t)
		}
		if best == nil {
			best = rank
		} else if c := rank.Compare(best); c > 0 {
			// covers found so far rank lower
			best = rank
			covers = covers[:0]
			seen.reset()
		} else if c < 0 {
			break
		}

		cover := make(Cover, 0, len(picked)+2)
		for _, t = range picked {
			cover = append(cover, Entry{Tuple: t})
		}
		for _, t = range ContiguousRuns(used, false) {
			cover = append(cover, Entry{Tuple: t, Gap: true})
		}
		cover = cover.sorted()

		if seen.add(cover) {
			covers = append(covers, cover)
		}
	}

	return covers
}

func disjoint(used []bool, t Tuple) bool {
	for _, i := range t {
		if used[i] {
			return false
		}
	}
	return true
}

// ContiguousRuns groups the indexes whose flag equals v into maximal runs
// of consecutive indexes.
func ContiguousRuns(flags []bool, v bool) []Tuple {
	runs := make([]Tuple, 0, 2)
	var run Tuple
	for i, f := range flags {
		if f != v {
			if len(run) > 0 {
				runs = append(runs, run)
				run = nil
			}
			continue
		}
		run = append(run, i)
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}

// sorted returns a copy of the cover with entries sorted by first index.
func (c Cover) sorted() Cover {
	order := make([]uint64, len(c))
	for i, e := range c {
		order[i] = uint64(e.Tuple[0])<<32 | uint64(i)
	}
	sortutil.Uint64s(order)

	s := make(Cover, len(c))
	for i, o := range order {
		s[i] = c[o&0xffffffff]
	}
	return s
}

// key is the canonical byte form of a sorted cover.
func (c Cover) key() []byte {
	buf := make([]byte, 0, 32)
	for _, e := range c {
		if e.Gap {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = binary.AppendUvarint(buf, uint64(len(e.Tuple)))
		for _, i := range e.Tuple {
			buf = binary.AppendUvarint(buf, uint64(i))
		}
	}
	return buf
}

// coverSet stores canonical keys of covers, hashed by wyhash.
type coverSet struct {
	m map[uint64][][]byte
}

func newCoverSet() *coverSet {
	return &coverSet{m: make(map[uint64][][]byte, 4)}
}

// add returns false if the cover has been added before.
func (s *coverSet) add(c Cover) bool {
	k := c.sorted().key()
	h := wyhash.Hash(k, 1)
	for _, k2 := range s.m[h] {
		if bytes.Equal(k, k2) {
			return false
		}
	}
	s.m[h] = append(s.m[h], k)
	return true
}

func (s *coverSet) reset() {
	clear(s.m)
}
