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

// Split is one member of a partition, with all the alternative hit groups
// realizing it.
type Split struct {
	Tuple        Tuple
	Gap          bool
	Alternatives [][]Hit
}

// Partition is one full reconstruction of a mate, splits are ordered by
// segment index.
type Partition []Split

// Resolve joins the segment alignments of a mate and returns all
// best-ranked reconstructions.
// If no segment alignment could be joined, a single partition with a single
// unmapped alternative spanning all segments is returned.
func (idx *Index) Resolve(segments [][]Hit) ([]Partition, error) {
	if len(segments) == 0 {
		return nil, ErrEmptySegment
	}
	err := idx.Build(segments)
	if err != nil {
		return nil, err
	}

	n := idx.NumSegments()
	if idx.Empty() {
		all := make(Tuple, n)
		for i := range all {
			all[i] = i
		}
		return []Partition{{{
			Tuple:        all,
			Gap:          true,
			Alternatives: [][]Hit{idx.placeholdersOf(all)},
		}}}, nil
	}

	groups := idx.Groups()
	covers := Select(groups, n, idx.unmapped)

	parts := make([]Partition, 0, len(covers))
	for _, c := range covers {
		p := make(Partition, 0, len(c))
		for _, e := range c {
			s := Split{Tuple: e.Tuple, Gap: e.Gap}
			if e.Gap {
				s.Alternatives = [][]Hit{idx.placeholdersOf(e.Tuple)}
			} else {
				s.Alternatives, _ = groups.Alternatives(e.Tuple)
			}
			p = append(p, s)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func (idx *Index) placeholdersOf(t Tuple) []Hit {
	hits := make([]Hit, len(t))
	for i, s := range t {
		hits[i] = idx.placeholders[s]
	}
	return hits
}

// Resolve is a shortcut of NewIndex().Resolve(segments).
func Resolve(segments [][]Hit) ([]Partition, error) {
	return NewIndex().Resolve(segments)
}
