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
	"github.com/pkg/errors"
)

// Read holds alignments of all segments of a read,
// indexed by mate, then segment.
type Read struct {
	Name  string
	Mates [][][]Hit
}

// Stats contains counts of a joining run.
type Stats struct {
	Reads      int `toml:"reads"`
	Mates      int `toml:"mates"`
	Unaligned  int `toml:"unaligned-mates"`  // mates without any joinable alignment
	Ambiguous  int `toml:"ambiguous-mates"`  // mates with more than one reconstruction
	Partitions int `toml:"reconstructions"`  // reconstructions of all mates
	Records    int `toml:"records"`          // emitted records
	Unmapped   int `toml:"unmapped-records"` // emitted unmapped records
}

// Joiner runs the whole joining process for one read at a time.
type Joiner struct {
	idx *Index
	ann *Annotator

	emitter Emitter
	Stats   Stats
}

// NewJoiner creates a new Joiner.
func NewJoiner(tags TagNames, c Classifier, e Emitter) *Joiner {
	j := &Joiner{idx: NewIndex(), emitter: e}
	j.ann = NewAnnotator(tags, c, j)
	return j
}

// Emit counts records before passing them to the underlying Emitter.
func (j *Joiner) Emit(r *Record) error {
	j.Stats.Records++
	if r.Unmapped {
		j.Stats.Unmapped++
	}
	return j.emitter.Emit(r)
}

// JoinRead joins and emits alignments of both mates of a read.
func (j *Joiner) JoinRead(read *Read) error {
	if len(read.Mates) == 0 {
		return errors.Wrapf(ErrEmptySegment, "%s", read.Name)
	}
	n := len(read.Mates[0])
	for _, segs := range read.Mates[1:] {
		if len(segs) != n {
			return errors.Wrapf(ErrSegmentCount, "%s: %d vs %d", read.Name, n, len(segs))
		}
	}

	j.Stats.Reads++
	var parts []Partition
	var err error
	for m, segs := range read.Mates {
		parts, err = j.idx.Resolve(segs)
		if err != nil {
			return errors.Wrapf(err, "%s", read.Name)
		}

		j.Stats.Mates++
		j.Stats.Partitions += len(parts)
		if len(parts) > 1 {
			j.Stats.Ambiguous++
		}
		if j.idx.Empty() {
			j.Stats.Unaligned++
		}

		if err = j.ann.Annotate(read.Name, Mate(m), parts); err != nil {
			return err
		}
	}
	return nil
}
