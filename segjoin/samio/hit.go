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

package samio

import (
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
	"github.com/shenwei356/SegJoin/segjoin/join"
)

// Optional fields read from segment alignments.
var (
	TagNM = sam.NewTag("NM") // edit distance
	TagMD = sam.NewTag("MD") // mismatching positions
	TagXM = sam.NewTag("XM") // why a read is unaligned, from bowtie
)

// Hit is a segment alignment backed by a SAM record.
type Hit struct {
	r   *sam.Record
	seq []byte
}

// NewHit wraps a SAM record.
func NewHit(r *sam.Record) *Hit {
	return &Hit{r: r, seq: r.Seq.Expand()}
}

func (h *Hit) RefID() int {
	if h.r.Ref == nil {
		return -1
	}
	return h.r.Ref.ID()
}

func (h *Hit) Start() int       { return h.r.Pos }
func (h *Hit) End() int         { return h.r.End() }
func (h *Hit) IsReverse() bool  { return h.r.Flags&sam.Reverse != 0 }
func (h *Hit) IsUnmapped() bool { return h.r.Flags&sam.Unmapped != 0 }
func (h *Hit) Seq() []byte      { return h.seq }
func (h *Hit) Qual() []byte     { return h.r.Qual }

func (h *Hit) EditDistance() (int, error) {
	return h.auxInt(TagNM)
}

func (h *Hit) MismatchString() (string, error) {
	a := h.r.AuxFields.Get(TagMD)
	if a == nil {
		return "", errors.Wrapf(join.ErrMissingTag, "%s: %s", h.r.Name, TagMD)
	}
	s, ok := a.Value().(string)
	if !ok {
		return "", errors.Wrapf(join.ErrBadTag, "%s: %s", h.r.Name, TagMD)
	}
	return s, nil
}

func (h *Hit) UnmappedReason() (int, error) {
	return h.auxInt(TagXM)
}

func (h *Hit) auxInt(tag sam.Tag) (int, error) {
	a := h.r.AuxFields.Get(tag)
	if a == nil {
		return 0, errors.Wrapf(join.ErrMissingTag, "%s: %s", h.r.Name, tag)
	}
	v, ok := IntValue(a.Value())
	if !ok {
		return 0, errors.Wrapf(join.ErrBadTag, "%s: %s", h.r.Name, tag)
	}
	return v, nil
}

// IntValue converts an integer value of an optional field to int.
// SAM parsers store integers in the smallest type fitting the value.
func IntValue(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int8:
		return int(x), true
	case uint8:
		return int(x), true
	case int16:
		return int(x), true
	case uint16:
		return int(x), true
	case int32:
		return int(x), true
	case uint32:
		return int(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	}
	return 0, false
}
