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
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
	"github.com/shenwei356/SegJoin/segjoin/join"
)

const testHeader = "@HD\tVN:1.6\tSO:unsorted\n" +
	"@SQ\tSN:chr1\tLN:10000\n" +
	"@SQ\tSN:gene_A\tLN:5000\n"

const testSAM = testHeader +
	// r1, mate 1: both segments on chr1 and gene_A
	"r1~0\t65\tchr1\t101\t255\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tXM:i:0\tNM:i:0\tMD:Z:10\n" +
	"r1~0\t65\tgene_A\t11\t255\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tXM:i:0\tNM:i:0\tMD:Z:10\n" +
	"r1~1\t65\tchr1\t111\t255\t10M\t*\t0\t0\tTTTTTGGGGG\tIIIIIIIIII\tXM:i:0\tNM:i:1\tMD:Z:4A5\n" +
	"r1~1\t65\tgene_A\t21\t255\t10M\t*\t0\t0\tTTTTTGGGGG\tIIIIIIIIII\tXM:i:0\tNM:i:1\tMD:Z:4A5\n" +
	// r1, mate 2: unaligned
	"r1~0\t133\t*\t0\t0\t*\t*\t0\t0\tCCCCCAAAAA\tIIIIIIIIII\tXM:i:0\n" +
	"r1~1\t133\t*\t0\t0\t*\t*\t0\t0\tGGGGGTTTTT\tIIIIIIIIII\tXM:i:1\n" +
	// r2, mate 1: segments far away from each other
	"r2~0\t65\tchr1\t501\t255\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tNM:i:0\tMD:Z:10\n" +
	"r2~1\t65\tchr1\t900\t255\t10M\t*\t0\t0\tTTTTTGGGGG\tIIIIIIIIII\tNM:i:0\tMD:Z:10\n" +
	"r2~0\t133\t*\t0\t0\t*\t*\t0\t0\tCCCCCAAAAA\tIIIIIIIIII\tXM:i:0\n" +
	"r2~1\t133\t*\t0\t0\t*\t*\t0\t0\tGGGGGTTTTT\tIIIIIIIIII\tXM:i:0\n"

func TestIntValue(t *testing.T) {
	for _, v := range []interface{}{int8(3), uint8(3), int16(3), uint16(3), int32(3), uint32(3), 3, int64(3)} {
		if x, ok := IntValue(v); !ok || x != 3 {
			t.Errorf("%T: expected 3, got %d", v, x)
		}
	}
	if _, ok := IntValue("3"); ok {
		t.Errorf("a string should not be accepted")
	}
}

func TestParseSegmentName(t *testing.T) {
	name, seg, err := ParseSegmentName("read~1~12", "~")
	if err != nil || name != "read~1" || seg != 12 {
		t.Errorf("unexpected result: %s, %d, %v", name, seg, err)
	}
	for _, s := range []string{"read", "~1", "read~", "read~x", "read~-1"} {
		if _, _, err = ParseSegmentName(s, "~"); !errors.Is(err, ErrBadName) {
			t.Errorf("%s: expected ErrBadName, got %v", s, err)
		}
	}
}

func TestHit(t *testing.T) {
	rdr, err := NewReader(strings.NewReader(testSAM), false, 1)
	if err != nil {
		t.Error(err)
		return
	}
	rec, err := rdr.Read()
	if err != nil {
		t.Error(err)
		return
	}
	h := NewHit(rec)
	if h.RefID() != 0 || h.Start() != 100 || h.End() != 110 || h.IsReverse() || h.IsUnmapped() {
		t.Errorf("unexpected hit: %d:%d-%d", h.RefID(), h.Start(), h.End())
	}
	if string(h.Seq()) != "ACGTACGTAC" {
		t.Errorf("unexpected sequence: %s", h.Seq())
	}
	if v, err := h.EditDistance(); err != nil || v != 0 {
		t.Errorf("unexpected NM: %d, %v", v, err)
	}
	if v, err := h.MismatchString(); err != nil || v != "10" {
		t.Errorf("unexpected MD: %s, %v", v, err)
	}

	for i := 0; i < 6; i++ {
		if rec, err = rdr.Read(); err != nil {
			t.Error(err)
			return
		}
	}
	// r2~0, without XM
	h = NewHit(rec)
	if _, err = h.UnmappedReason(); !errors.Is(err, join.ErrMissingTag) {
		t.Errorf("expected ErrMissingTag, got %v", err)
	}
}

func TestReadGrouper(t *testing.T) {
	rdr, err := NewReader(strings.NewReader(testSAM), false, 1)
	if err != nil {
		t.Error(err)
		return
	}
	g := NewReadGrouper(rdr, "~")

	read, err := g.Next()
	if err != nil {
		t.Error(err)
		return
	}
	if read.Name != "r1" || len(read.Mates) != 2 {
		t.Errorf("unexpected read: %s, %d mates", read.Name, len(read.Mates))
		return
	}
	if len(read.Mates[0]) != 2 || len(read.Mates[0][0]) != 2 || len(read.Mates[0][1]) != 2 {
		t.Errorf("unexpected hits of mate 1")
	}
	if len(read.Mates[1]) != 2 || len(read.Mates[1][0]) != 1 || !read.Mates[1][1][0].IsUnmapped() {
		t.Errorf("unexpected hits of mate 2")
	}

	read, err = g.Next()
	if err != nil {
		t.Error(err)
		return
	}
	if read.Name != "r2" {
		t.Errorf("expected r2, got %s", read.Name)
	}

	if _, err = g.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReadGrouperErrors(t *testing.T) {
	tests := []struct {
		sam string
		err error
	}{
		{testHeader +
			"r3~0\t65\tchr1\t101\t255\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tNM:i:0\tMD:Z:10\n" +
			"r3~2\t65\tchr1\t111\t255\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tNM:i:0\tMD:Z:10\n",
			ErrMissingSegment},
		{testHeader +
			"r5~2000000000\t65\tchr1\t101\t255\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tNM:i:0\tMD:Z:10\n",
			ErrMissingSegment},
		{testHeader +
			"r4\t65\tchr1\t101\t255\t10M\t*\t0\t0\tACGTACGTAC\tIIIIIIIIII\tNM:i:0\tMD:Z:10\n",
			ErrBadName},
	}
	for i, test := range tests {
		rdr, err := NewReader(strings.NewReader(test.sam), false, 1)
		if err != nil {
			t.Error(err)
			return
		}
		if _, err = NewReadGrouper(rdr, "~").Next(); !errors.Is(err, test.err) {
			t.Errorf("#%d: expected %v, got %v", i, test.err, err)
		}
	}
}

func TestAddSegmentFarAhead(t *testing.T) {
	read := &join.Read{Name: "r"}
	rec := &sam.Record{Name: "r~2000000000", Flags: sam.Paired}
	if _, err := add(read, rec, 2000000000); !errors.Is(err, ErrMissingSegment) {
		t.Errorf("expected ErrMissingSegment, got %v", err)
	}
	if len(read.Mates) != 1 || len(read.Mates[0]) != 0 {
		t.Errorf("no segment slots should be allocated")
	}

	if _, err := add(read, rec, MaxSegmentSkip); err != nil {
		t.Errorf("a skip of %d segments should be allowed: %v", MaxSegmentSkip, err)
	}
	if len(read.Mates[0]) != MaxSegmentSkip+1 {
		t.Errorf("expected %d segment slots, got %d", MaxSegmentSkip+1, len(read.Mates[0]))
	}
}

func TestRefClassifier(t *testing.T) {
	rdr, err := NewReader(strings.NewReader(testHeader), false, 1)
	if err != nil {
		t.Error(err)
		return
	}
	c := NewRefClassifier(rdr.Header(), "gene_")
	if !c.IsGenomic(0) || c.IsGenomic(1) || c.IsGenomic(-1) || c.IsGenomic(2) {
		t.Errorf("unexpected classification")
	}
	if c.NumGenomic() != 1 {
		t.Errorf("expected 1 genomic reference, got %d", c.NumGenomic())
	}
	if c = NewRefClassifier(rdr.Header(), ""); c.NumGenomic() != 2 {
		t.Errorf("all references should be genomic without a prefix")
	}
}

func TestJoinAndWrite(t *testing.T) {
	rdr, err := NewReader(strings.NewReader(testSAM), false, 1)
	if err != nil {
		t.Error(err)
		return
	}
	h := rdr.Header()
	if err = AddProgram(h, "segjoin", "0.1.0", []string{"segjoin", "join", "in.sam"}); err != nil {
		t.Error(err)
		return
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, h, false, 1)
	if err != nil {
		t.Error(err)
		return
	}
	joiner := join.NewJoiner(join.DefaultTagNames, NewRefClassifier(h, "gene_"), w)
	g := NewReadGrouper(rdr, "~")
	var read *join.Read
	for {
		read, err = g.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Error(err)
			return
		}
		if err = joiner.JoinRead(read); err != nil {
			t.Error(err)
			return
		}
	}
	if err = w.Close(); err != nil {
		t.Error(err)
		return
	}

	if !strings.Contains(buf.String(), "@PG\tID:segjoin") {
		t.Errorf("@PG line missing")
	}

	out, err := NewReader(bytes.NewReader(buf.Bytes()), false, 1)
	if err != nil {
		t.Error(err)
		return
	}
	recs := make([]*sam.Record, 0, 8)
	var rec *sam.Record
	for {
		rec, err = out.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Error(err)
			return
		}
		recs = append(recs, rec)
	}
	if len(recs) != 6 {
		t.Errorf("expected 6 records, got %d", len(recs))
		return
	}

	r := recs[0]
	if r.Name != "r1" || r.Ref.Name() != "chr1" || r.Pos != 100 || r.End() != 120 {
		t.Errorf("unexpected joined record: %s", r)
	}
	if string(r.Seq.Expand()) != "ACGTACGTACTTTTTGGGGG" {
		t.Errorf("unexpected sequence: %s", r.Seq.Expand())
	}
	if r.Flags&sam.Paired == 0 || r.Flags&sam.ProperPair != 0 || r.Flags&sam.Read1 == 0 {
		t.Errorf("unexpected flags: %v", r.Flags)
	}
	expected := map[string]int{"XP": 1, "XH": 0, "XN": 1, "XX": 0, "IH": 2, "HI": 0, "NM": 1, "NH": 1}
	for tag, v := range expected {
		a := r.AuxFields.Get(sam.NewTag(tag))
		if a == nil {
			t.Errorf("tag %s missing", tag)
			continue
		}
		if x, _ := IntValue(a.Value()); x != v {
			t.Errorf("tag %s: expected %d, got %d", tag, v, x)
		}
	}
	if md := r.AuxFields.Get(TagMD); md == nil || md.Value().(string) != "14A5" {
		t.Errorf("unexpected MD: %v", md)
	}

	if r = recs[1]; r.Ref.Name() != "gene_A" || r.Pos != 10 {
		t.Errorf("unexpected alternative: %s", r)
	}

	r = recs[2]
	if r.Flags&sam.Unmapped == 0 || r.Flags&sam.Read2 == 0 || string(r.Seq.Expand()) != "CCCCCAAAAAGGGGGTTTTT" {
		t.Errorf("unexpected unmapped mate: %s", r)
	}
	if a := r.AuxFields.Get(sam.NewTag("NH")); a != nil {
		t.Errorf("unmapped records should have no NH")
	}

	// r2: two splits of single segments
	for i, r := range recs[3:5] {
		a := r.AuxFields.Get(sam.NewTag("XN"))
		if x, _ := IntValue(a.Value()); x != 2 {
			t.Errorf("r2 record #%d: expected 2 splits, got %d", i, x)
		}
	}
}
