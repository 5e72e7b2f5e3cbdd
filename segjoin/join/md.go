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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrBadMD means a malformed MD string.
var ErrBadMD = errors.New("segjoin: invalid MD string")

// MDOp is one token of an MD string: a run of matches (Bases empty),
// a substituted reference base, or a deletion (Deletion true).
type MDOp struct {
	Matches  int
	Bases    string
	Deletion bool
}

func (op MDOp) isMatch() bool { return op.Bases == "" }

func (op MDOp) String() string {
	if op.isMatch() {
		return strconv.Itoa(op.Matches)
	}
	if op.Deletion {
		return "^" + op.Bases
	}
	return op.Bases
}

func isBase(c byte) bool {
	return 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

// ParseMD splits an MD string into tokens.
// A valid MD string matches [0-9]+(([A-Z]|\^[A-Z]+)[0-9]+)*.
func ParseMD(s string) ([]MDOp, error) {
	if s == "" {
		return nil, errors.Wrap(ErrBadMD, "empty")
	}
	ops := make([]MDOp, 0, 8)
	var i, j int
	n := len(s)
	for {
		for j = i; j < n && isDigit(s[j]); j++ {
		}
		if j == i {
			return nil, errors.Wrapf(ErrBadMD, "%q", s)
		}
		v, err := strconv.Atoi(s[i:j])
		if err != nil {
			return nil, errors.Wrapf(ErrBadMD, "%q", s)
		}
		ops = append(ops, MDOp{Matches: v})
		if j == n {
			return ops, nil
		}

		i = j
		switch c := s[i]; {
		case c == '^':
			for j = i + 1; j < n && isBase(s[j]); j++ {
			}
			if j == i+1 {
				return nil, errors.Wrapf(ErrBadMD, "%q", s)
			}
			ops = append(ops, MDOp{Bases: s[i+1 : j], Deletion: true})
		case isBase(c):
			j = i + 1
			ops = append(ops, MDOp{Bases: s[i:j]})
		default:
			return nil, errors.Wrapf(ErrBadMD, "%q", s)
		}
		i = j // a run of matches must follow
	}
}

// FormatMD joins tokens into an MD string.
func FormatMD(ops []MDOp) string {
	var b strings.Builder
	for _, op := range ops {
		b.WriteString(op.String())
	}
	return b.String()
}

// MergeMD merges MD strings of adjacent segments.
// Match runs meeting at a segment boundary are summed up.
func MergeMD(mds ...string) (string, error) {
	if len(mds) == 0 {
		return "", ErrBadMD
	}
	ops, err := ParseMD(mds[0])
	if err != nil {
		return "", err
	}
	var next []MDOp
	for _, md := range mds[1:] {
		next, err = ParseMD(md)
		if err != nil {
			return "", err
		}
		// both ends are match runs
		ops[len(ops)-1].Matches += next[0].Matches
		ops = append(ops, next[1:]...)
	}
	return FormatMD(ops), nil
}
