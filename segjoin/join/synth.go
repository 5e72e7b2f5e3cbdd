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
	"github.com/shenwei356/SegJoin/segjoin/util"
)

// Mate is the index of a mate in a read pair.
type Mate int

const (
	Mate1 Mate = iota
	Mate2
)

func (m Mate) String() string {
	if m == Mate2 {
		return "mate2"
	}
	return "mate1"
}

// Aux is an optional field of a record, Value is an int or a string.
type Aux struct {
	Tag   string
	Value interface{}
}

// Record is a synthetic alignment record of a joined split.
//
// A record is always paired but never a proper pair, and carries no
// mate information. Mapped records have a single match operation spanning
// the whole sequence.
type Record struct {
	Name     string
	Mate     Mate
	Unmapped bool
	Reverse  bool
	RefID    int // -1 for unmapped records
	Pos      int // 0-based, -1 for unmapped records

	Seq  []byte
	Qual []byte

	Aux []Aux
}

// Len returns the aligned length, 0 for unmapped records.
func (r *Record) Len() int {
	if r.Unmapped {
		return 0
	}
	return len(r.Seq)
}

// TagInt returns the value of an integer optional field.
func (r *Record) TagInt(tag string) (int, bool) {
	for _, a := range r.Aux {
		if a.Tag == tag {
			v, ok := a.Value.(int)
			return v, ok
		}
	}
	return 0, false
}

// TagString returns the value of a string optional field.
func (r *Record) TagString(tag string) (string, bool) {
	for _, a := range r.Aux {
		if a.Tag == tag {
			v, ok := a.Value.(string)
			return v, ok
		}
	}
	return "", false
}

// Synthesize merges the hits of a split into one record.
// Hits should be in segment order, hits on the reverse strand are
// concatenated from the last segment, so the sequence follows the reference.
// tags are put before the fields computed here.
func Synthesize(name string, mate Mate, hits []Hit, tags ...Aux) (*Record, error) {
	if len(hits) == 0 {
		return nil, ErrEmptySegment
	}

	if !hits[0].IsUnmapped() && hits[0].IsReverse() {
		hits = append(make([]Hit, 0, len(hits)), hits...)
		util.Reverse(hits)
	}

	var lSeq, lQual int
	for _, h := range hits {
		lSeq += len(h.Seq())
		lQual += len(h.Qual())
	}
	r := &Record{
		Name: name,
		Mate: mate,
		Seq:  make([]byte, 0, lSeq),
		Qual: make([]byte, 0, lQual),
		Aux:  make([]Aux, 0, len(tags)+3),
	}
	for _, h := range hits {
		r.Seq = append(r.Seq, h.Seq()...)
		r.Qual = append(r.Qual, h.Qual()...)
	}
	r.Aux = append(r.Aux, tags...)

	first := hits[0]
	r.Unmapped = first.IsUnmapped()
	if r.Unmapped {
		r.RefID = -1
		r.Pos = -1

		reason, err := first.UnmappedReason()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: XM", name)
		}
		var v int
		for _, h := range hits[1:] {
			v, err = h.UnmappedReason()
			if err != nil {
				return nil, errors.Wrapf(err, "%s: XM", name)
			}
			reason = min(reason, v)
		}
		r.Aux = append(r.Aux, Aux{Tag: "XM", Value: reason})
		return r, nil
	}

	r.Reverse = first.IsReverse()
	r.RefID = first.RefID()
	r.Pos = first.Start()

	var nm, v int
	var err error
	mds := make([]string, len(hits))
	for i, h := range hits {
		v, err = h.EditDistance()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: NM", name)
		}
		nm += v

		mds[i], err = h.MismatchString()
		if err != nil {
			return nil, errors.Wrapf(err, "%s: MD", name)
		}
	}
	md, err := MergeMD(mds...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	r.Aux = append(r.Aux, Aux{Tag: "NM", Value: nm}, Aux{Tag: "MD", Value: md})

	return r, nil
}
