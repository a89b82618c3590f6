// Command idx-deflate compresses a file into a seekable IDXDEFL container,
// mirroring the original idx-deflate tool's single-pass-with-progress
// behavior.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/stbuehler/seekxz/internal/idxdefl"
)

func main() {
	blockSize := flag.Int("block-size", idxdefl.DefaultBlockSize, "uncompressed block size in bytes")
	level := flag.Int("level", idxdefl.DefaultLevel, "raw DEFLATE compression level (1-9)")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <path>\n", os.Args[0])
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	opts := []idxdefl.EncodeOption{
		idxdefl.WithBlockSize(*blockSize),
		idxdefl.WithLevel(*level),
	}
	if !*quiet {
		opts = append(opts, idxdefl.WithProgress(func(bytesIn, bytesOut, totalSize int64) {
			if totalSize > 0 {
				fmt.Fprintf(os.Stderr, "\rProgress: %d%%, Ratio: %0.2f", 100*bytesIn/totalSize, ratio(bytesIn, bytesOut))
			} else {
				fmt.Fprintf(os.Stderr, "\rProgress: %d, Ratio: %0.2f", bytesIn, ratio(bytesIn, bytesOut))
			}
		}))
	}

	outputPath, err := idxdefl.EncodeFile(inputPath, opts...)
	if !*quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(outputPath)
}

func ratio(bytesIn, bytesOut int64) float64 {
	if bytesOut == 0 {
		return 0
	}
	return float64(bytesIn) / float64(bytesOut)
}
