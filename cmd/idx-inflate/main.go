// Command idx-inflate streams the decoded contents of an XZ or IDXDEFL
// container to stdout, reading in fixed-size chunks rather than buffering
// the whole container in memory.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/stbuehler/seekxz"
)

const chunkSize = 4 << 10

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s <path>\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(flag.Arg(0), os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(path string, w io.Writer) error {
	r, err := seekxz.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	size := r.UncompressedSize()
	buf := make([]byte, chunkSize)
	for off := int64(0); off < size; off += chunkSize {
		n := int64(chunkSize)
		if off+n > size {
			n = size - off
		}
		if err := r.ReadInto(off, n, buf[:n]); err != nil {
			return err
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return err
		}
	}
	return nil
}
