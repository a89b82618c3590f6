package idxdefl

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/stbuehler/seekxz/internal/blockidx"
	"github.com/stbuehler/seekxz/internal/errs"
)

// DefaultMemLimit mirrors the memlimit the original passes to its
// full_blocks sanity check (idx-defl-file.cpp: full_blocks <= memlimit/8 -
// 256). 128 MiB gives a generous default full_blocks ceiling while still
// rejecting wildly corrupt footers.
const DefaultMemLimit = 128 << 20

// SniffMagic reports whether data's first 8 bytes are the IDXDEFL magic.
// The Format Dispatcher (spec §4.4) uses this before committing to this
// package's reader.
func SniffMagic(first8 []byte) bool {
	return len(first8) == 8 && string(first8) == Magic
}

// ReadIndex parses the 16-byte footer and decompresses the block-size
// table, per spec §4.2.
func ReadIndex(p blockidx.ByteProvider, memLimit int64) (*blockidx.Index, error) {
	if memLimit <= 0 {
		memLimit = DefaultMemLimit
	}
	size := p.Size()
	if size < 8+footerSize {
		return nil, errs.New(errs.CorruptContainer, "file too small for idxdefl container")
	}

	var magic [8]byte
	if _, err := p.ReadAt(magic[:], 0); err != nil {
		return nil, errs.Wrap(errs.IOError, "read magic", err)
	}
	if string(magic[:]) != Magic {
		return nil, errs.New(errs.CorruptContainer, "bad idxdefl magic")
	}

	var footer [footerSize]byte
	if _, err := p.ReadAt(footer[:], size-footerSize); err != nil {
		return nil, errs.Wrap(errs.IOError, "read footer", err)
	}
	indexSize := int64(binary.BigEndian.Uint32(footer[0:4]))
	blockSize := int64(binary.BigEndian.Uint32(footer[4:8]))
	fullBlocks := int64(binary.BigEndian.Uint32(footer[8:12]))
	lastBlockSize := int64(binary.BigEndian.Uint32(footer[12:16]))

	for _, v := range []int64{indexSize, blockSize, fullBlocks, lastBlockSize} {
		if v > maxFieldValue {
			return nil, errs.New(errs.CorruptContainer, "footer field exceeds maximum")
		}
	}
	if blockSize <= 0 {
		return nil, errs.New(errs.CorruptContainer, "non-positive block_size")
	}
	if fullBlocks > memLimit/8-256 {
		return nil, errs.New(errs.ResourceLimit, "full_blocks exceeds memory budget")
	}
	blocksBytes, ok := mulOverflow(fullBlocks, blockSize)
	if !ok {
		return nil, errs.New(errs.CorruptContainer, "full_blocks*block_size overflows")
	}
	if _, ok := addOverflow(blocksBytes, lastBlockSize); !ok {
		return nil, errs.New(errs.CorruptContainer, "uncompressed size overflows")
	}
	if fullBlocks == 0 && lastBlockSize == 0 {
		return nil, errs.New(errs.CorruptContainer, "empty container has zero-length last block")
	}

	indexStart := size - footerSize - indexSize
	if indexStart < 8 {
		return nil, errs.New(errs.CorruptContainer, "compressed index start before data region")
	}

	offsets := make([]int64, fullBlocks+2)
	offsets[0] = 8

	fr := flate.NewReader(newBoundedReader(p, indexStart, size-footerSize-indexStart))
	defer fr.Close()

	var idx int64
	var current = offsets[0]
	buf := make([]byte, 4)
	for {
		if _, err := io.ReadFull(fr, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, errs.Wrap(errs.CorruptContainer, "decompress index table", err)
		}
		length := int64(binary.BigEndian.Uint32(buf))
		idx++
		if idx > fullBlocks {
			return nil, errs.New(errs.CorruptContainer, "index table has more entries than full_blocks")
		}
		current += length
		if current > indexStart {
			return nil, errs.New(errs.CorruptContainer, "index table entries overrun compressed index")
		}
		offsets[idx] = current
	}
	if idx != fullBlocks {
		return nil, errs.New(errs.CorruptContainer, "index table entry count mismatch")
	}
	offsets[fullBlocks+1] = indexStart

	total := fullBlocks + 1
	entries := make([]blockidx.Entry, total)
	for k := int64(0); k < total; k++ {
		ulen := blockSize
		if k == fullBlocks {
			ulen = lastBlockSize
		}
		entries[k] = blockidx.Entry{
			UncompressedOffset: k * blockSize,
			UncompressedLength: ulen,
			CompressedOffset:   offsets[k],
			CompressedLength:   offsets[k+1] - offsets[k],
		}
	}
	// The footer gives no independent source to cross-check the last
	// block's declared uncompressed length against at parse time: it is
	// computed from the same fullBlocks/blockSize/lastBlockSize fields
	// that built entries[total-1] above, so any comparison here would be
	// a tautology. The actual check — that the last block's raw DEFLATE
	// stream terminates exactly after producing lastBlockSize bytes — is
	// made at decode time, in Reader.decodeFill.

	return blockidx.New(entries)
}

func mulOverflow(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

func addOverflow(a, b int64) (int64, bool) {
	r := a + b
	if r < a || r < b {
		return 0, false
	}
	return r, true
}

// boundedReader adapts a blockidx.ByteProvider range into an io.Reader for
// flate.NewReader, via a sequential blockidx.Cursor.
type boundedReader struct {
	cur *blockidx.Cursor
}

func newBoundedReader(p blockidx.ByteProvider, off, length int64) *boundedReader {
	return &boundedReader{cur: blockidx.NewCursor(p, off, length)}
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.cur.Remaining() == 0 {
		return 0, io.EOF
	}
	chunk, err := b.cur.Read(len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, chunk), nil
}
