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

import "github.com/pkg/errors"

// ErrMissingTag means a required optional field is absent in an alignment record.
var ErrMissingTag = errors.New("segjoin: missing optional field")

// ErrBadTag means an optional field has an unexpected type or value.
var ErrBadTag = errors.New("segjoin: invalid optional field")

// ErrEmptySegment means a segment has no alignment record at all.
var ErrEmptySegment = errors.New("segjoin: segment without alignment records")

// ErrSegmentCount means the two mates of a read have different numbers of segments.
var ErrSegmentCount = errors.New("segjoin: inconsistent segment number between mates")

// Hit is one candidate alignment of one read segment.
// Implementations are read-only, the core never modifies a hit.
type Hit interface {
	// RefID returns the reference id, -1 for unmapped hits.
	RefID() int
	// Start returns the 0-based leftmost reference position.
	Start() int
	// End returns Start plus the aligned reference span.
	End() int

	IsReverse() bool
	IsUnmapped() bool

	// Seq returns the sequence as stored in the record.
	Seq() []byte
	// Qual returns the phred qualities (without the 33 offset).
	Qual() []byte

	// EditDistance returns the value of the NM field.
	EditDistance() (int, error)
	// MismatchString returns the value of the MD field.
	MismatchString() (string, error)
	// UnmappedReason returns the value of the XM field,
	// 0 for never aligned, >0 for aligned but suppressed.
	UnmappedReason() (int, error)
}

// Placeholder is a zero-length unmapped stand-in for a segment.
type Placeholder struct {
	seq    []byte
	qual   []byte
	reason int
}

// NewPlaceholder creates an unmapped stand-in carrying the segment sequence.
func NewPlaceholder(seq, qual []byte, reason int) *Placeholder {
	return &Placeholder{seq: seq, qual: qual, reason: reason}
}

// placeholderOf creates a stand-in from the first hit of a segment.
func placeholderOf(h Hit) *Placeholder {
	return NewPlaceholder(h.Seq(), h.Qual(), 0)
}

func (p *Placeholder) RefID() int                      { return -1 }
func (p *Placeholder) Start() int                      { return 0 }
func (p *Placeholder) End() int                        { return 0 }
func (p *Placeholder) IsReverse() bool                 { return false }
func (p *Placeholder) IsUnmapped() bool                { return true }
func (p *Placeholder) Seq() []byte                     { return p.seq }
func (p *Placeholder) Qual() []byte                    { return p.qual }
func (p *Placeholder) UnmappedReason() (int, error)    { return p.reason, nil }
func (p *Placeholder) EditDistance() (int, error)      { return 0, nil }
func (p *Placeholder) MismatchString() (string, error) { return "", ErrMissingTag }
