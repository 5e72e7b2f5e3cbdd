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
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"
	"github.com/shenwei356/SegJoin/segjoin/join"
)

// BufferSize is size of reading buffer
var BufferSize = 65536

// ErrBadName means the record name does not end with a segment index.
var ErrBadName = errors.New("samio: invalid segment name")

// ErrMissingSegment means some segments of a read have no record.
var ErrMissingSegment = errors.New("samio: missing segment")

// MaxSegmentSkip is the most segment indexes a record may skip ahead of
// the segments seen so far of its mate.
var MaxSegmentSkip = 64

// RecordReader reads SAM records one by one, it returns io.EOF at the end.
type RecordReader interface {
	Read() (*sam.Record, error)
}

// Reader reads SAM or BAM records.
type Reader struct {
	rr     RecordReader
	header *sam.Header
	closer io.Closer
}

// NewReader creates a reader of BAM, SAM, or gzipped SAM records.
func NewReader(r io.Reader, bamInput bool, threads int) (*Reader, error) {
	if bamInput {
		br, err := bam.NewReader(r, threads)
		if err != nil {
			return nil, errors.Wrap(err, "reading BAM")
		}
		return &Reader{rr: br, header: br.Header(), closer: br}, nil
	}

	rdr := &Reader{}
	bufr := bufio.NewReaderSize(r, BufferSize)
	var in io.Reader = bufr
	if magic, err := bufr.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gr, err := pgzip.NewReader(bufr)
		if err != nil {
			return nil, errors.Wrap(err, "reading gzipped SAM")
		}
		in = gr
		rdr.closer = gr
	}

	sr, err := sam.NewReader(in)
	if err != nil {
		return nil, errors.Wrap(err, "reading SAM")
	}
	rdr.rr = sr
	rdr.header = sr.Header()
	return rdr, nil
}

// Header returns the SAM header.
func (r *Reader) Header() *sam.Header { return r.header }

// Read returns the next record.
func (r *Reader) Read() (*sam.Record, error) { return r.rr.Read() }

// Close closes the decompressor if there is one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadGrouper collects records of consecutive segments of one read.
//
// Segments are named as "<read><sep><segment index>", the mate comes
// from the Read2 flag. Records of a read should be next to each other,
// as an aligner outputs them.
type ReadGrouper struct {
	r   RecordReader
	sep string

	pending     *sam.Record
	pendingName string
	pendingSeg  int
}

// NewReadGrouper creates a new ReadGrouper.
func NewReadGrouper(r RecordReader, sep string) *ReadGrouper {
	return &ReadGrouper{r: r, sep: sep}
}

// ParseSegmentName splits a segment name into the read name and the
// segment index.
func ParseSegmentName(name string, sep string) (string, int, error) {
	i := strings.LastIndex(name, sep)
	if i <= 0 {
		return "", 0, errors.Wrapf(ErrBadName, "%s", name)
	}
	seg, err := strconv.Atoi(name[i+len(sep):])
	if err != nil || seg < 0 {
		return "", 0, errors.Wrapf(ErrBadName, "%s", name)
	}
	return name[:i], seg, nil
}

func (g *ReadGrouper) readOne() (*sam.Record, string, int, error) {
	rec, err := g.r.Read()
	if err != nil {
		return nil, "", 0, err
	}
	name, seg, err := ParseSegmentName(rec.Name, g.sep)
	if err != nil {
		return nil, "", 0, err
	}
	return rec, name, seg, nil
}

// Next returns alignments of the next read, io.EOF is returned at the end.
func (g *ReadGrouper) Next() (*join.Read, error) {
	var rec *sam.Record
	var name, name2 string
	var seg int
	var err error
	if g.pending != nil {
		rec, name, seg = g.pending, g.pendingName, g.pendingSeg
		g.pending = nil
	} else {
		rec, name, seg, err = g.readOne()
		if err != nil {
			return nil, err
		}
	}

	read := &join.Read{Name: name, Mates: make([][][]join.Hit, 0, 2)}
	paired, err := add(read, rec, seg)
	if err != nil {
		return nil, err
	}
	var ok bool
	for {
		rec, name2, seg, err = g.readOne()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if name2 != name {
			g.pending, g.pendingName, g.pendingSeg = rec, name2, seg
			break
		}
		if ok, err = add(read, rec, seg); err != nil {
			return nil, err
		}
		paired = paired || ok
	}

	if paired && len(read.Mates) < 2 {
		read.Mates = append(read.Mates, nil)
	}
	for m, segs := range read.Mates {
		for s, hits := range segs {
			if len(hits) == 0 {
				return nil, errors.Wrapf(ErrMissingSegment, "%s: mate %d, segment %d", name, m+1, s)
			}
		}
	}
	return read, nil
}

// add puts a record to its mate and segment, and tells whether it's paired.
func add(read *join.Read, rec *sam.Record, seg int) (bool, error) {
	var mate int
	if rec.Flags&sam.Read2 != 0 {
		mate = 1
	}
	for len(read.Mates) <= mate {
		read.Mates = append(read.Mates, make([][]join.Hit, 0, 8))
	}
	segs := read.Mates[mate]
	if seg > len(segs)+MaxSegmentSkip {
		return false, errors.Wrapf(ErrMissingSegment, "%s: mate %d, segment %d after %d segments",
			read.Name, mate+1, seg, len(segs))
	}
	for len(segs) <= seg {
		segs = append(segs, nil)
	}
	segs[seg] = append(segs[seg], NewHit(rec))
	read.Mates[mate] = segs

	return rec.Flags&sam.Paired != 0, nil
}
