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

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/spf13/cobra"
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Split reads into fixed-size segments for aligning",
	Long: `Split reads into fixed-size segments for aligning

Input:
  1. (Gzipped) FASTQ records from files or stdin.

Output:
  1. FASTQ records of segments, named as "<read id><separator><segment index>",
     with the index starting from 0.
  2. The last segment keeps the remainder of a read, which might be shorter
     than -l/--segment-length. Use --drop-short to discard it.
     A read shorter than -l/--segment-length is kept as a single segment.

Attention:
  1. Segments of both mates should be aligned in paired-end mode, so the mate
     could be told by the flag 0x80 in "segjoin join".

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}

		verbose := opt.Verbose || opt.Log2File
		timeStart := time.Now()
		defer func() {
			if verbose {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		segLen := getFlagPositiveInt(cmd, "segment-length")
		dropShort := getFlagBool(cmd, "drop-short")
		sep := getFlagString(cmd, "separator")
		if sep == "" {
			checkError(fmt.Errorf("the value of flag -s/--separator should not be empty"))
		}
		outFile := expandPath(getFlagString(cmd, "out-file"))

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if verbose {
			if len(files) == 1 && isStdin(files[0]) {
				log.Info("no files given, reading from stdin")
			} else {
				log.Infof("%d input file(s) given", len(files))
			}
		}

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		var record *fastx.Record
		var fastxReader *fastx.Reader
		var nReads, nSegs int
		regions := make([][2]int, 0, 8)
		for _, file := range files {
			fastxReader, err = fastx.NewReader(nil, file, "")
			checkError(err)

			for {
				record, err = fastxReader.Read()
				if err != nil {
					if err == io.EOF {
						break
					}
					checkError(err)
					break
				}

				if len(record.Seq.Qual) == 0 {
					checkError(fmt.Errorf("FASTQ format needed: %s", file))
				}

				nReads++
				regions = segmentRegions(len(record.Seq.Seq), segLen, dropShort, regions)
				writeSegments(outfh, record.ID, sep, record.Seq.Seq, record.Seq.Qual, regions)
				nSegs += len(regions)

				if verbose && nReads%logEvery == 0 {
					log.Infof("processed %s reads", humanize.Comma(int64(nReads)))
				}
			}
			fastxReader.Close()
		}

		if verbose {
			log.Infof("%s reads split into %s segments", humanize.Comma(int64(nReads)), humanize.Comma(int64(nSegs)))
		}
	},
}

// segmentRegions returns the [start, end) regions of segments of a read.
func segmentRegions(length, segLen int, dropShort bool, regions [][2]int) [][2]int {
	regions = regions[:0]
	var end int
	for start := 0; start < length; start += segLen {
		end = start + segLen
		if end > length {
			if dropShort && start > 0 {
				break
			}
			end = length
		}
		regions = append(regions, [2]int{start, end})
	}
	return regions
}

func writeSegments(outfh *bufio.Writer, id []byte, sep string, s, q []byte, regions [][2]int) {
	for i, r := range regions {
		outfh.Write(_mark_fastq)
		outfh.Write(id)
		outfh.WriteString(sep)
		outfh.WriteString(strconv.Itoa(i))
		outfh.Write(_mark_newline)
		outfh.Write(s[r[0]:r[1]])
		outfh.Write(_mark_newline)
		outfh.Write(_mark_plus_newline)
		outfh.Write(q[r[0]:r[1]])
		outfh.Write(_mark_newline)
	}
}

var _mark_fastq = []byte{'@'}
var _mark_plus_newline = []byte{'+', '\n'}
var _mark_newline = []byte{'\n'}

func init() {
	RootCmd.AddCommand(segmentCmd)

	segmentCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	segmentCmd.Flags().IntP("segment-length", "l", 25,
		formatFlagUsage(`Length of segments.`))

	segmentCmd.Flags().BoolP("drop-short", "", false,
		formatFlagUsage(`Drop the last segment if it's shorter than -l/--segment-length.`))

	segmentCmd.Flags().StringP("separator", "s", "~",
		formatFlagUsage(`Separator between the read name and the segment index.`))

	segmentCmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of input file list (one file per line). If given, they are appended to files from CLI arguments.`))

	segmentCmd.SetUsageTemplate(usageTemplate("[<reads.fq.gz> ...]"))
}
