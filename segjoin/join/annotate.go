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

// TagNames contains names of the optional fields added to joined records.
type TagNames struct {
	NumPartitions  string // number of reconstructions of the mate
	PartitionIndex string // index of the reconstruction
	NumSplits      string // number of splits in the reconstruction
	SplitIndex     string // index of the split
	NumMappings    string // number of alternative alignments of the split
	MappingIndex   string // index of the alternative
	Multimaps      string // alignments of the split on genomic references
}

// DefaultTagNames is the default value of TagNames.
var DefaultTagNames = TagNames{
	NumPartitions:  "XP",
	PartitionIndex: "XH",
	NumSplits:      "XN",
	SplitIndex:     "XX",
	NumMappings:    "IH",
	MappingIndex:   "HI",
	Multimaps:      "NH",
}

// Check checks that all tag names are two-character strings.
func (t *TagNames) Check() error {
	for _, s := range []string{t.NumPartitions, t.PartitionIndex, t.NumSplits,
		t.SplitIndex, t.NumMappings, t.MappingIndex, t.Multimaps} {
		if len(s) != 2 {
			return errors.Errorf("invalid tag name: %q, two characters needed", s)
		}
	}
	return nil
}

// Classifier tells whether a reference is a genomic sequence
// rather than a gene or transcript sequence.
type Classifier interface {
	IsGenomic(refID int) bool
}

// Emitter receives the joined records.
type Emitter interface {
	Emit(r *Record) error
}

// Annotator synthesizes records of all partitions of a mate,
// tags them and hands them to an Emitter.
type Annotator struct {
	Tags       TagNames
	Classifier Classifier
	Emitter    Emitter

	buf []*Record // records of the current split
}

// NewAnnotator creates a new Annotator.
func NewAnnotator(tags TagNames, c Classifier, e Emitter) *Annotator {
	return &Annotator{
		Tags:       tags,
		Classifier: c,
		Emitter:    e,
		buf:        make([]*Record, 0, 8),
	}
}

// Annotate emits records in the order of partition, split, and alternative.
// The number of alternatives on genomic references is attached to all mapped
// records of a split.
func (a *Annotator) Annotate(name string, mate Mate, parts []Partition) error {
	t := &a.Tags
	var r *Record
	var err error
	var multimaps int
	for i, p := range parts {
		for j, s := range p {
			a.buf = a.buf[:0]
			multimaps = 0
			for k, hits := range s.Alternatives {
				r, err = Synthesize(name, mate, hits,
					Aux{Tag: t.NumPartitions, Value: len(parts)},
					Aux{Tag: t.PartitionIndex, Value: i},
					Aux{Tag: t.NumSplits, Value: len(p)},
					Aux{Tag: t.SplitIndex, Value: j},
					Aux{Tag: t.NumMappings, Value: len(s.Alternatives)},
					Aux{Tag: t.MappingIndex, Value: k},
				)
				if err != nil {
					return err
				}
				a.buf = append(a.buf, r)

				if !r.Unmapped && a.Classifier.IsGenomic(r.RefID) {
					multimaps++
				}
			}

			for _, r = range a.buf {
				if !r.Unmapped {
					r.Aux = append(r.Aux, Aux{Tag: t.Multimaps, Value: multimaps})
				}
				if err = a.Emitter.Emit(r); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
