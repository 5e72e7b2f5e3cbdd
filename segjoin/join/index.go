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
	"encoding/binary"
)

// JoinKey is the position where two segment alignments meet.
type JoinKey struct {
	RefID   int
	Reverse bool
	Pos     int
}

// entryKey is where an existing chain has to end to accept the hit.
// Reads on the reverse strand grow leftwards.
func entryKey(h Hit) JoinKey {
	if h.IsReverse() {
		return JoinKey{RefID: h.RefID(), Reverse: true, Pos: h.End()}
	}
	return JoinKey{RefID: h.RefID(), Reverse: false, Pos: h.Start()}
}

// Chain is a run of segments whose alignments abut on the reference.
type Chain struct {
	RefID   int
	Start   int
	End     int
	Reverse bool

	Segments []int // segment indexes, in the order of joining
	Hits     []Hit
}

// exitKey is where the next segment has to start.
func (c *Chain) exitKey() JoinKey {
	if c.Reverse {
		return JoinKey{RefID: c.RefID, Reverse: true, Pos: c.Start}
	}
	return JoinKey{RefID: c.RefID, Reverse: false, Pos: c.End}
}

func (c *Chain) reset(seg int, h Hit) {
	c.RefID = h.RefID()
	c.Start = h.Start()
	c.End = h.End()
	c.Reverse = h.IsReverse()
	c.Segments = append(c.Segments[:0], seg)
	c.Hits = append(c.Hits[:0], h)
}

func (c *Chain) extend(seg int, h Hit) {
	if c.Reverse {
		c.Start = h.Start()
	} else {
		c.End = h.End()
	}
	c.Segments = append(c.Segments, seg)
	c.Hits = append(c.Hits, h)
}

// Index joins segment alignments of one mate into chains.
// Chains are stored in an arena and looked up by their current exit key.
// An Index can be reused, results are valid until the next call of Build.
type Index struct {
	chains []Chain
	keys   map[JoinKey]int // exit key -> slot in chains
	staged map[JoinKey]int // chains created or extended by the current segment

	placeholders []Hit
	unmapped     []bool // segments with a single unmapped hit
}

// NewIndex creates a new Index.
func NewIndex() *Index {
	return &Index{
		chains:       make([]Chain, 0, 16),
		keys:         make(map[JoinKey]int, 16),
		staged:       make(map[JoinKey]int, 8),
		placeholders: make([]Hit, 0, 8),
		unmapped:     make([]bool, 0, 8),
	}
}

// Build joins the hits of all segments, in segment order.
func (idx *Index) Build(segments [][]Hit) error {
	idx.chains = idx.chains[:0]
	clear(idx.keys)
	idx.placeholders = idx.placeholders[:0]
	idx.unmapped = idx.unmapped[:0]

	for i, hits := range segments {
		if len(hits) == 0 {
			return ErrEmptySegment
		}
		if len(hits) == 1 && hits[0].IsUnmapped() {
			idx.placeholders = append(idx.placeholders, hits[0])
			idx.unmapped = append(idx.unmapped, true)
			continue
		}
		idx.placeholders = append(idx.placeholders, placeholderOf(hits[0]))
		idx.unmapped = append(idx.unmapped, false)

		idx.addSegment(i, hits)
	}
	return nil
}

func (idx *Index) addSegment(seg int, hits []Hit) {
	clear(idx.staged)

	var key JoinKey
	var slot int
	var ok bool
	var c *Chain
	for _, h := range hits {
		if h.IsUnmapped() {
			continue
		}

		key = entryKey(h)
		if slot, ok = idx.keys[key]; ok {
			delete(idx.keys, key)
			c = &idx.chains[slot]
			c.extend(seg, h)
		} else {
			slot = idx.newChain()
			c = &idx.chains[slot]
			c.reset(seg, h)
		}
		idx.staged[c.exitKey()] = slot
	}

	// a later chain supersedes an earlier one with the same key
	for key, slot = range idx.staged {
		idx.keys[key] = slot
	}
}

func (idx *Index) newChain() int {
	n := len(idx.chains)
	if n < cap(idx.chains) {
		idx.chains = idx.chains[:n+1]
	} else {
		idx.chains = append(idx.chains, Chain{
			Segments: make([]int, 0, 8),
			Hits:     make([]Hit, 0, 8),
		})
	}
	return n
}

// NumSegments returns the number of segments of the last built mate.
func (idx *Index) NumSegments() int {
	return len(idx.placeholders)
}

// Empty tells whether no segment alignment was joined at all.
func (idx *Index) Empty() bool {
	return len(idx.keys) == 0
}

// Placeholders returns the unmapped stand-ins of all segments.
func (idx *Index) Placeholders() []Hit {
	return idx.placeholders
}

// Unmapped returns flags of segments that have a single unmapped hit.
func (idx *Index) Unmapped() []bool {
	return idx.unmapped
}

// Chains returns the live chains, in the order they were created.
func (idx *Index) Chains() []*Chain {
	live := make([]bool, len(idx.chains))
	for _, slot := range idx.keys {
		live[slot] = true
	}
	chains := make([]*Chain, 0, len(idx.keys))
	for i := range idx.chains {
		if live[i] {
			chains = append(chains, &idx.chains[i])
		}
	}
	return chains
}

// Groups collects the live chains by their segment indexes.
func (idx *Index) Groups() *Groups {
	g := newGroups()
	for _, c := range idx.Chains() {
		g.add(c.Segments, c.Hits)
	}
	return g
}

// Tuple is a list of increasing segment indexes.
type Tuple []int

func (t Tuple) key() string {
	buf := make([]byte, 0, len(t)*2)
	for _, i := range t {
		buf = binary.AppendUvarint(buf, uint64(i))
	}
	return string(buf)
}

// Groups maps segment tuples to the alternative hit groups realizing them.
type Groups struct {
	Tuples []Tuple   // distinct tuples, in insertion order
	Alts   [][][]Hit // alternatives of each tuple

	m map[string]int
}

func newGroups() *Groups {
	return &Groups{
		Tuples: make([]Tuple, 0, 8),
		Alts:   make([][][]Hit, 0, 8),
		m:      make(map[string]int, 8),
	}
}

func (g *Groups) add(t Tuple, hits []Hit) {
	k := t.key()
	i, ok := g.m[k]
	if !ok {
		i = len(g.Tuples)
		g.m[k] = i
		g.Tuples = append(g.Tuples, t)
		g.Alts = append(g.Alts, nil)
	}
	g.Alts[i] = append(g.Alts[i], hits)
}

// Alternatives returns the hit groups of a tuple.
func (g *Groups) Alternatives(t Tuple) ([][]Hit, bool) {
	i, ok := g.m[t.key()]
	if !ok {
		return nil, false
	}
	return g.Alts[i], true
}

// Len returns the number of distinct tuples.
func (g *Groups) Len() int { return len(g.Tuples) }
