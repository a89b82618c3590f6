package idxdefl

import (
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/stbuehler/seekxz/internal/blockidx"
	"github.com/stbuehler/seekxz/internal/errs"
)

// scratchSize bounds the skip-discard scratch buffer and the maximum view
// size returned by Read.
const scratchSize = 4096

// Reader is the per-open-file IDXDEFL Seekable Decompressor, grounded on
// IndexedDeflateFileReaderState in original_source/lib/idx-defl-file.cpp:
// it mirrors xzfmt.Reader's state machine but initializes a raw-DEFLATE
// decoder (no stream wrapper framing) windowed to the current block's
// compressed range instead of delegating to a full container decoder.
type Reader struct {
	prov blockidx.ByteProvider
	idx  *blockidx.Index
	it   *blockidx.Iterator

	dec io.ReadCloser
	src *boundedReader

	producedUpTo int64
	scratch      [scratchSize]byte
}

// NewReader builds a Seekable Decompressor over an already-parsed IDXDEFL
// Index.
func NewReader(p blockidx.ByteProvider, idx *blockidx.Index) *Reader {
	return &Reader{
		prov:         p,
		idx:          idx,
		it:           blockidx.NewIterator(idx),
		producedUpTo: -1,
	}
}

func (r *Reader) UncompressedSize() int64 { return r.idx.UncompressedSize() }

func (r *Reader) Close() error {
	r.invalidate()
	return nil
}

func (r *Reader) invalidate() {
	if r.dec != nil {
		_ = r.dec.Close()
	}
	r.producedUpTo = -1
	r.dec = nil
	r.src = nil
}

func (r *Reader) loadBlock(entry blockidx.Entry) error {
	if r.dec != nil {
		_ = r.dec.Close()
	}
	src := newBoundedReader(r.prov, entry.CompressedOffset, entry.CompressedLength)
	r.src = src
	r.dec = flate.NewReader(src)
	r.producedUpTo = entry.UncompressedOffset
	return nil
}

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

func (r *Reader) decodeFill(dst []byte, blockEnd int64) (int, error) {
	total := 0
	for total < len(dst) {
		remain := blockEnd - r.producedUpTo
		if remain <= 0 {
			if err := r.verifyLastBlockTermination(blockEnd); err != nil {
				return total, err
			}
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
			return total, errs.Wrap(errs.DecodeError, "raw deflate decode", err)
		}
		if err == io.EOF && int64(want) > int64(n) {
			return total, errs.New(errs.UnexpectedEOF, "deflate stream ended before block boundary")
		}
		if n == 0 && err == nil {
			return total, errs.New(errs.DecodeError, "deflate decoder made no progress")
		}
	}
	if r.producedUpTo == blockEnd {
		if err := r.verifyLastBlockTermination(blockEnd); err != nil {
			return total, err
		}
	}
	return total, nil
}

// verifyLastBlockTermination checks, for the container's final block only,
// that its raw DEFLATE stream actually has no data left once the footer's
// declared length has been produced. The footer gives no independent value
// to cross-check that length against at parse time (see ReadIndex), so this
// is the only place an oversized final block — one whose real decompressed
// length exceeds what full_blocks/block_size/last_block_size claim — can be
// caught; an undersized one is already caught above by decodeFill hitting
// io.EOF before reaching blockEnd.
func (r *Reader) verifyLastBlockTermination(blockEnd int64) error {
	if r.producedUpTo != blockEnd || r.it.Ordinal() != r.idx.Len()-1 {
		return nil
	}
	var extra [1]byte
	n, err := r.dec.Read(extra[:])
	if n > 0 || err == nil {
		return errs.New(errs.CorruptContainer, "last block produced more data than footer declared")
	}
	if err != io.EOF {
		return errs.Wrap(errs.DecodeError, "verify last block termination", err)
	}
	return nil
}

func (r *Reader) skipTo(target, blockEnd int64) error {
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

// ReadInto implements spec §4.3's read_into operation for IDXDEFL.
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

// Read implements spec §4.3's zero-copy read operation for IDXDEFL.
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
