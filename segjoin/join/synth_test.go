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
	"testing"

	"github.com/pkg/errors"
)

func TestSynthesizeForward(t *testing.T) {
	h0 := mapped(0, 100, false, seq0)
	h1 := mapped(0, 150, false, seq1)
	h0.nm, h0.md = 1, "20A29"
	h1.nm, h1.md = 2, "0C40G8"

	r, err := Synthesize("read1", Mate1, hits(h0, h1))
	if err != nil {
		t.Error(err)
		return
	}
	if r.Unmapped || r.Reverse || r.RefID != 0 || r.Pos != 100 {
		t.Errorf("unexpected position: %d:%d, %v", r.RefID, r.Pos, r.Reverse)
	}
	if r.Pos+r.Len() != 200 {
		t.Errorf("expected end 200, got %d", r.Pos+r.Len())
	}
	if string(r.Seq) != seq0+seq1 {
		t.Errorf("unexpected sequence: %s", r.Seq)
	}
	if len(r.Qual) != len(seq0)+len(seq1) {
		t.Errorf("unexpected quality length: %d", len(r.Qual))
	}
	if v, _ := r.TagInt("NM"); v != 3 {
		t.Errorf("expected NM 3, got %d", v)
	}
	if v, _ := r.TagString("MD"); v != "20A29C40G8" {
		t.Errorf("expected MD 20A29C40G8, got %s", v)
	}
}

func TestSynthesizeReverse(t *testing.T) {
	h0 := mapped(1, 150, true, seq0)
	h1 := mapped(1, 100, true, seq1)
	h0.md = "10T39"

	r, err := Synthesize("read1", Mate2, hits(h0, h1))
	if err != nil {
		t.Error(err)
		return
	}
	if !r.Reverse || r.Pos != 100 || r.Mate != Mate2 {
		t.Errorf("unexpected record: pos %d, reverse %v, %s", r.Pos, r.Reverse, r.Mate)
	}
	if string(r.Seq) != seq1+seq0 {
		t.Errorf("sequence should follow the reference: %s", r.Seq)
	}
	if v, _ := r.TagString("MD"); v != "60T39" {
		t.Errorf("expected MD 60T39, got %s", v)
	}
}

func TestSynthesizeUnmapped(t *testing.T) {
	r, err := Synthesize("read1", Mate1, hits(
		unmapped(seq0, 1), NewPlaceholder([]byte(seq1), []byte(qualOf(seq1)), 0), unmapped(seq2, 2)),
		Aux{Tag: "XP", Value: 1},
	)
	if err != nil {
		t.Error(err)
		return
	}
	if !r.Unmapped || r.RefID != -1 || r.Pos != -1 || r.Len() != 0 {
		t.Errorf("unexpected unmapped record: %d:%d", r.RefID, r.Pos)
	}
	if string(r.Seq) != seq0+seq1+seq2 {
		t.Errorf("unexpected sequence: %s", r.Seq)
	}
	if v, _ := r.TagInt("XM"); v != 0 {
		t.Errorf("expected XM 0, got %d", v)
	}
	if r.Aux[0].Tag != "XP" {
		t.Errorf("given tags should go first: %v", r.Aux)
	}
	if _, ok := r.TagInt("NM"); ok {
		t.Errorf("unmapped record should have no NM")
	}
}

func TestSynthesizeMissingTags(t *testing.T) {
	h0 := mapped(0, 100, false, seq0)
	h1 := mapped(0, 150, false, seq1)
	h1.noTags = true
	if _, err := Synthesize("read1", Mate1, hits(h0, h1)); !errors.Is(err, ErrMissingTag) {
		t.Errorf("expected ErrMissingTag, got %v", err)
	}

	u := unmapped(seq0, 0)
	u.noTags = true
	if _, err := Synthesize("read1", Mate1, hits(u)); !errors.Is(err, ErrMissingTag) {
		t.Errorf("expected ErrMissingTag, got %v", err)
	}

	h0.md = "5%"
	if _, err := Synthesize("read1", Mate1, hits(h0)); !errors.Is(err, ErrBadMD) {
		t.Errorf("expected ErrBadMD, got %v", err)
	}

	// lowercase bases and tokens not ending with a number
	h2 := mapped(0, 150, false, seq1)
	for _, md := range []string{"garbage", "49a", "49A"} {
		h0.md, h2.md = "50", md
		if _, err := Synthesize("read1", Mate1, hits(h0, h2)); !errors.Is(err, ErrBadMD) {
			t.Errorf("%s: expected ErrBadMD, got %v", md, err)
		}
	}
}
