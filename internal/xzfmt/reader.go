package xzfmt

import (
	"io"

	"github.com/stbuehler/seekxz/internal/blockidx"
	"github.com/stbuehler/seekxz/internal/errs"
	"github.com/xi2/xz"
)

// scratchSize bounds both the skip-discard scratch buffer and the maximum
// view size returned by Read, matching the original's 4 KiB
// defaultOutputBuffer (xz-file.cpp).
const scratchSize = 4096

// Reader is the per-open-file XZ Seekable Decompressor (spec §4.3),
// grounded directly on XZFileReaderState in
// original_source/lib/xz-file.cpp: it tracks the current block, a live
// decoder instance, and the absolute uncompressed offset the decoder has
// produced up to, and drives xi2/xz's Reader across block boundaries.
type Reader struct {
	prov blockidx.ByteProvider
	idx  *blockidx.Index
	it   *blockidx.Iterator

	dec *xz.Reader
	src *blockSource

	producedUpTo int64 // -1 when unpositioned
	scratch      [scratchSize]byte
}

// NewReader builds a Seekable Decompressor over an already-parsed XZ Index.
func NewReader(p blockidx.ByteProvider, idx *blockidx.Index) *Reader {
	return &Reader{
		prov:         p,
		idx:          idx,
		it:           blockidx.NewIterator(idx),
		producedUpTo: -1,
	}
}

// UncompressedSize returns the total decoded size of the container.
func (r *Reader) UncompressedSize() int64 { return r.idx.UncompressedSize() }

// Close releases reader-local state. The underlying ByteProvider is owned
// by the caller, not by the Reader.
func (r *Reader) Close() error {
	r.invalidate()
	return nil
}

func (r *Reader) invalidate() {
	r.producedUpTo = -1
	r.dec = nil
	r.src = nil
}

// loadBlock (re)initializes the decoder at the start of entry's compressed
// range, per spec §4.3's "Block (re)initialization — XZ".
func (r *Reader) loadBlock(entry blockidx.Entry) error {
	flags, _ := entry.Extra.(streamFlags)
	src := newBlockSource(r.prov, entry.CompressedOffset, entry.CompressedLength, flags.check)
	dec, err := xz.NewReader(src, 0)
	if err != nil {
		return errs.Wrap(errs.CorruptContainer, "init xz block decoder", err)
	}
	r.src = src
	r.dec = dec
	r.producedUpTo = entry.UncompressedOffset
	return nil
}

// seekBlockFor implements spec §4.3's seek_block_for operation.
func (r *Reader) seekBlockFor(offset int64) error {
	if offset < 0 || offset >= r.idx.UncompressedSize() {
		return errs.New(errs.OutOfRange, "offset out of range")
	}
	if r.producedUpTo >= 0 {
		if entry, ok := r.it.Entry(); ok &&
			entry.UncompressedOffset <= offset && offset < entry.UncompressedOffset+entry.UncompressedLength {
			if r.producedUpTo <= offset {
				return nil
			}
			return r.loadBlock(entry)
		}
	}
	if err := r.it.Locate(offset); err != nil {
		r.invalidate()
		return err
	}
	entry, _ := r.it.Entry()
	return r.loadBlock(entry)
}

// decodeFill drives the decoder to produce up to len(dst) bytes, never
// crossing blockEnd (spec §4.3's decode_fill).
func (r *Reader) decodeFill(dst []byte, blockEnd int64) (int, error) {
	total := 0
	for total < len(dst) {
		remain := blockEnd - r.producedUpTo
		if remain <= 0 {
			break
		}
		want := len(dst) - total
		if int64(want) > remain {
			want = int(remain)
		}
		n, err := r.dec.Read(dst[total : total+want])
		total += n
		r.producedUpTo += int64(n)
		if err != nil && err != io.EOF {
			return total, errs.Wrap(errs.DecodeError, "xz block decode", err)
		}
		if err == io.EOF && n < want {
			return total, errs.New(errs.UnexpectedEOF, "xz decoder ended before block boundary")
		}
		if n == 0 && err == nil {
			return total, errs.New(errs.DecodeError, "xz decoder made no progress")
		}
	}
	return total, nil
}

func (r *Reader) skipTo(target int64, blockEnd int64) error {
	for r.producedUpTo < target {
		n := int64(len(r.scratch))
		if rem := target - r.producedUpTo; n > rem {
			n = rem
		}
		got, err := r.decodeFill(r.scratch[:n], blockEnd)
		if err != nil {
			return err
		}
		if got == 0 {
			return errs.New(errs.UnexpectedEOF, "short block while skipping to offset")
		}
	}
	return nil
}

// ReadInto implements spec §4.3's read_into operation.
func (r *Reader) ReadInto(offset, length int64, dst []byte) error {
	if length < 0 {
		return errs.New(errs.OutOfRange, "negative length")
	}
	if offset >= 0 && offset+length > r.idx.UncompressedSize() {
		return errs.New(errs.OutOfRange, "offset+length exceeds uncompressed size")
	}
	if err := r.seekBlockFor(offset); err != nil {
		r.invalidate()
		return err
	}
	if length == 0 {
		return nil
	}

	entry, _ := r.it.Entry()
	blockEnd := entry.UncompressedOffset + entry.UncompressedLength
	if err := r.skipTo(offset, blockEnd); err != nil {
		r.invalidate()
		return err
	}

	var written int64
	for written < length {
		entry, ok := r.it.Entry()
		if !ok {
			r.invalidate()
			return errs.New(errs.UnexpectedEOF, "iterator exhausted")
		}
		blockEnd = entry.UncompressedOffset + entry.UncompressedLength
		want := length - written
		if avail := blockEnd - r.producedUpTo; want > avail {
			want = avail
		}
		if want > 0 {
			got, err := r.decodeFill(dst[written:written+want], blockEnd)
			written += int64(got)
			if err != nil {
				r.invalidate()
				return err
			}
		}
		if written < length {
			if err := r.it.Next(); err != nil {
				r.invalidate()
				return errs.New(errs.UnexpectedEOF, "no further blocks")
			}
			next, _ := r.it.Entry()
			if err := r.loadBlock(next); err != nil {
				r.invalidate()
				return err
			}
		}
	}
	return nil
}

// Read implements spec §4.3's zero-copy read operation.
func (r *Reader) Read(offset, max int64) ([]byte, error) {
	if max <= 0 {
		return nil, errs.New(errs.OutOfRange, "non-positive max")
	}
	if err := r.seekBlockFor(offset); err != nil {
		r.invalidate()
		return nil, err
	}
	entry, _ := r.it.Entry()
	blockEnd := entry.UncompressedOffset + entry.UncompressedLength
	if err := r.skipTo(offset, blockEnd); err != nil {
		r.invalidate()
		return nil, err
	}

	want := max
	if want > int64(len(r.scratch)) {
		want = int64(len(r.scratch))
	}
	if avail := blockEnd - r.producedUpTo; want > avail {
		want = avail
	}
	if want <= 0 {
		r.invalidate()
		return nil, errs.New(errs.UnexpectedEOF, "no bytes available at offset")
	}
	got, err := r.decodeFill(r.scratch[:want], blockEnd)
	if err != nil {
		r.invalidate()
		return nil, err
	}
	if got == 0 {
		r.invalidate()
		return nil, errs.New(errs.UnexpectedEOF, "no progress decoding block")
	}
	return r.scratch[:got], nil
}
