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
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
	"github.com/shenwei356/SegJoin/segjoin/join"
	"github.com/shenwei356/SegJoin/segjoin/samio"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// reads between two progress log lines
var logEvery = 1000000

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join alignments of read segments into contiguous alignments",
	Long: `Join alignments of read segments into contiguous alignments

Input:
  1. SAM/BAM records of segments created by "segjoin segment" and aligned
     independently, with bowtie-style optional fields:
       NM, MD for aligned records, XM for unaligned records.
  2. Records of a read should be next to each other, like the output of aligners.
     The mate is decided by the flag 0x80 (second in pair).
  3. Files with the suffix ".bam" are read as BAM, others as (gzipped) SAM.

Output:
  1. One record for every maximal contiguous alignment block, with
     sequences of the joined segments concatenated.
  2. Records of all reconstructions of a mate are output,
     which are told apart with the optional fields:

       Default  Flag                     Description
       XP       --tag-num-partitions     number of reconstructions of the mate
       XH       --tag-partition-index    index of the reconstruction
       XN       --tag-num-splits         number of splits in the reconstruction
       XX       --tag-split-index        index of the split
       IH       --tag-num-mappings       number of alternative alignments of the split
       HI       --tag-mapping-index      index of the alternative
       NH       --tag-multimaps          number of alignments on genomic references

  3. The output format is decided by the suffix of -o/--out-file:
     ".bam" for BAM, ".gz" for gzipped SAM, SAM for others.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

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

		// ---------------------------------------------------------------
		// flags

		outFile := expandPath(getFlagString(cmd, "out-file"))
		sep := getFlagString(cmd, "separator")
		if sep == "" {
			checkError(fmt.Errorf("the value of flag -s/--separator should not be empty"))
		}
		genePrefix := getFlagString(cmd, "gene-prefix")
		statsFile := expandPath(getFlagString(cmd, "stats-file"))
		showProgress := getFlagBool(cmd, "progress") && opt.Verbose

		tags := join.TagNames{
			NumPartitions:  getFlagString(cmd, "tag-num-partitions"),
			PartitionIndex: getFlagString(cmd, "tag-partition-index"),
			NumSplits:      getFlagString(cmd, "tag-num-splits"),
			SplitIndex:     getFlagString(cmd, "tag-split-index"),
			NumMappings:    getFlagString(cmd, "tag-num-mappings"),
			MappingIndex:   getFlagString(cmd, "tag-mapping-index"),
			Multimaps:      getFlagString(cmd, "tag-multimaps"),
		}
		checkError(tags.Check())

		files := getFileListFromArgs(args, true)
		if len(files) > 1 {
			checkError(fmt.Errorf("only one input file is allowed"))
		}
		file := files[0]
		bamInput := strings.HasSuffix(strings.ToLower(file), ".bam")
		bamOutput := strings.HasSuffix(strings.ToLower(outFile), ".bam")

		// ---------------------------------------------------------------
		// input

		var infh *os.File
		var err error
		if isStdin(file) {
			infh = os.Stdin
		} else {
			infh, err = os.Open(file)
			checkError(err)
		}
		defer infh.Close()

		var in io.Reader = infh

		// process bar
		var pbs *mpb.Progress
		var bar *mpb.Bar
		if showProgress && !isStdin(file) {
			info, err := infh.Stat()
			checkError(err)

			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(info.Size(),
				mpb.PrependDecorators(
					decor.Name("read: ", decor.WC{W: len("read: "), C: decor.DindentRight}),
					decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
					decor.EwmaETA(decor.ET_STYLE_GO, 30),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)
			in = bar.ProxyReader(infh)
		}

		rdr, err := samio.NewReader(in, bamInput, opt.NumCPUs)
		checkError(err)

		h := rdr.Header()
		if err = samio.AddProgram(h, "segjoin", VERSION, os.Args); err != nil {
			log.Warningf("fail to add @PG line: %s", err)
		}

		classifier := samio.NewRefClassifier(h, genePrefix)
		if verbose {
			log.Infof("%s reference sequences, %s of them are genomic",
				humanize.Comma(int64(len(h.Refs()))), humanize.Comma(int64(classifier.NumGenomic())))
		}

		// ---------------------------------------------------------------
		// output

		outfh, gw, w, err := outStream(outFile, !bamOutput && strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		wtr, err := samio.NewWriter(outfh, h, bamOutput, opt.NumCPUs)
		checkError(err)

		// ---------------------------------------------------------------
		// join

		joiner := join.NewJoiner(tags, classifier, wtr)
		grouper := samio.NewReadGrouper(rdr, sep)
		var read *join.Read
		for {
			read, err = grouper.Next()
			if err != nil {
				if err == io.EOF {
					break
				}
				checkError(err)
			}

			checkError(joiner.JoinRead(read))

			if verbose && !showProgress && joiner.Stats.Reads%logEvery == 0 {
				log.Infof("processed %s reads", humanize.Comma(int64(joiner.Stats.Reads)))
			}
		}

		if bar != nil {
			bar.SetTotal(-1, true)
			pbs.Wait()
		}

		checkError(wtr.Close())
		checkError(rdr.Close())

		stats := joiner.Stats
		if verbose {
			log.Infof("%s reads (%s mates) processed", humanize.Comma(int64(stats.Reads)), humanize.Comma(int64(stats.Mates)))
			log.Infof("  %s mates without aligned segments", humanize.Comma(int64(stats.Unaligned)))
			log.Infof("  %s mates with more than one reconstruction", humanize.Comma(int64(stats.Ambiguous)))
			log.Infof("%s records written (%s unmapped)", humanize.Comma(int64(stats.Records)), humanize.Comma(int64(stats.Unmapped)))
		}

		if statsFile != "" {
			checkError(writeStats(statsFile, &stats))
			if verbose {
				log.Infof("summary saved to %s", statsFile)
			}
		}
	},
}

// writeStats saves the summary of a run in TOML format.
func writeStats(file string, stats *join.Stats) error {
	data, err := toml.Marshal(stats)
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0644)
}

func init() {
	RootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix for gzipped SAM and ".bam" suffix for BAM ("-" for stdout).`))

	joinCmd.Flags().StringP("separator", "s", "~",
		formatFlagUsage(`Separator between the read name and the segment index in record names.`))

	joinCmd.Flags().StringP("gene-prefix", "", "gene_",
		formatFlagUsage(`Prefix of names of gene/transcript references. Others are treated as genomic references.`))

	joinCmd.Flags().StringP("stats-file", "", "",
		formatFlagUsage(`Save a summary of the run to this file, in TOML format.`))

	joinCmd.Flags().BoolP("progress", "", false,
		formatFlagUsage(`Show a progress bar of input bytes, not available for stdin.`))

	d := join.DefaultTagNames
	joinCmd.Flags().StringP("tag-num-partitions", "", d.NumPartitions,
		formatFlagUsage(`Tag of the number of reconstructions of the mate.`))
	joinCmd.Flags().StringP("tag-partition-index", "", d.PartitionIndex,
		formatFlagUsage(`Tag of the index of the reconstruction.`))
	joinCmd.Flags().StringP("tag-num-splits", "", d.NumSplits,
		formatFlagUsage(`Tag of the number of splits in the reconstruction.`))
	joinCmd.Flags().StringP("tag-split-index", "", d.SplitIndex,
		formatFlagUsage(`Tag of the index of the split.`))
	joinCmd.Flags().StringP("tag-num-mappings", "", d.NumMappings,
		formatFlagUsage(`Tag of the number of alternative alignments of the split.`))
	joinCmd.Flags().StringP("tag-mapping-index", "", d.MappingIndex,
		formatFlagUsage(`Tag of the index of the alternative alignment.`))
	joinCmd.Flags().StringP("tag-multimaps", "", d.Multimaps,
		formatFlagUsage(`Tag of the number of alignments of the split on genomic references.`))

	joinCmd.SetUsageTemplate(usageTemplate("[<in.sam|in.sam.gz|in.bam>]"))
}
