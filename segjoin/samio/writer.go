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
	"io"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
	"github.com/shenwei356/SegJoin/segjoin/join"
)

// Writer writes joined records in SAM or BAM format.
type Writer struct {
	refs []*sam.Reference
	sw   *sam.Writer
	bw   *bam.Writer
}

// NewWriter creates a new Writer, the header is written immediately.
func NewWriter(w io.Writer, h *sam.Header, bamOutput bool, threads int) (*Writer, error) {
	wtr := &Writer{refs: h.Refs()}
	var err error
	if bamOutput {
		wtr.bw, err = bam.NewWriter(w, h, threads)
		if err != nil {
			return nil, errors.Wrap(err, "writing BAM header")
		}
		return wtr, nil
	}
	wtr.sw, err = sam.NewWriter(w, h, sam.FlagDecimal)
	if err != nil {
		return nil, errors.Wrap(err, "writing SAM header")
	}
	return wtr, nil
}

// Emit converts and writes a joined record.
func (w *Writer) Emit(r *join.Record) error {
	rec, err := w.ToSAM(r)
	if err != nil {
		return err
	}
	if w.bw != nil {
		return w.bw.Write(rec)
	}
	return w.sw.Write(rec)
}

// Close flushes BAM data, the underlying writer is not closed.
func (w *Writer) Close() error {
	if w.bw != nil {
		return w.bw.Close()
	}
	return nil
}

// ToSAM converts a joined record to a SAM record.
func (w *Writer) ToSAM(r *join.Record) (*sam.Record, error) {
	rec := &sam.Record{
		Name:    r.Name,
		Pos:     -1,
		MapQ:    255,
		Flags:   sam.Paired | sam.MateUnmapped,
		MatePos: -1,
		Seq:     sam.NewSeq(r.Seq),
		Qual:    r.Qual,
	}
	if r.Mate == join.Mate2 {
		rec.Flags |= sam.Read2
	} else {
		rec.Flags |= sam.Read1
	}

	if r.Unmapped {
		rec.Flags |= sam.Unmapped
	} else {
		if r.RefID < 0 || r.RefID >= len(w.refs) {
			return nil, errors.Errorf("%s: reference id out of range: %d", r.Name, r.RefID)
		}
		rec.Ref = w.refs[r.RefID]
		rec.Pos = r.Pos
		rec.Cigar = sam.Cigar{sam.NewCigarOp(sam.CigarMatch, r.Len())}
		if r.Reverse {
			rec.Flags |= sam.Reverse
		}
	}

	rec.AuxFields = make(sam.AuxFields, 0, len(r.Aux))
	for _, a := range r.Aux {
		aux, err := sam.NewAux(sam.NewTag(a.Tag), a.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", r.Name, a.Tag)
		}
		rec.AuxFields = append(rec.AuxFields, aux)
	}
	return rec, nil
}

// AddProgram adds a @PG line to the header.
func AddProgram(h *sam.Header, name, version string, args []string) error {
	return h.AddProgram(sam.NewProgram(name, name, strings.Join(args, " "), "", version))
}

// RefClassifier tells genomic references from gene references by name prefix.
type RefClassifier struct {
	genomic []bool
}

// NewRefClassifier creates a RefClassifier from a SAM header.
// References starting with genePrefix are treated as genes.
func NewRefClassifier(h *sam.Header, genePrefix string) *RefClassifier {
	refs := h.Refs()
	c := &RefClassifier{genomic: make([]bool, len(refs))}
	for i, ref := range refs {
		c.genomic[i] = genePrefix == "" || !strings.HasPrefix(ref.Name(), genePrefix)
	}
	return c
}

// IsGenomic tells whether a reference is genomic. Unmapped (-1) is not.
func (c *RefClassifier) IsGenomic(refID int) bool {
	return refID >= 0 && refID < len(c.genomic) && c.genomic[refID]
}

// NumGenomic returns the number of genomic references.
func (c *RefClassifier) NumGenomic() int {
	var n int
	for _, g := range c.genomic {
		if g {
			n++
		}
	}
	return n
}
