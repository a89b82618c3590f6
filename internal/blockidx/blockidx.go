// Package blockidx implements the container-agnostic block index and
// sequential read cursor shared by the XZ and IDXDEFL readers: an ordered,
// contiguous mapping from block ordinal to (uncompressed range, compressed
// range), with locate-by-offset and next-block iteration.
package blockidx

import (
	"io"

	"github.com/stbuehler/seekxz/internal/errs"
)

// ByteProvider is the minimal random-access source the index and cursor
// need. Any type satisfying this (including the public seekxz.ByteProvider,
// which additionally has Close) works here without an import cycle.
type ByteProvider interface {
	io.ReaderAt
	Size() int64
}

// Entry describes one block's position in both the compressed file and the
// decoded stream. Extra carries format-specific data (the owning XZ
// Stream's check-type flags); IDXDEFL leaves it nil.
type Entry struct {
	UncompressedOffset int64
	UncompressedLength int64
	CompressedOffset   int64
	CompressedLength   int64
	Extra              any
}

// Index is an ordered, contiguous-over-uncompressed-space list of block
// Entries, built once at open time and treated as immutable thereafter.
type Index struct {
	entries []Entry
}

// New validates and wraps entries into an Index. Entries must already be in
// ascending uncompressed-offset order with no gaps or overlap; New does not
// re-sort them.
func New(entries []Entry) (*Index, error) {
	var next int64
	for i, e := range entries {
		if e.UncompressedOffset != next {
			return nil, errs.New(errs.CorruptContainer, "block index is not contiguous")
		}
		if e.UncompressedLength <= 0 {
			return nil, errs.New(errs.CorruptContainer, "block has non-positive uncompressed length")
		}
		if i > 0 && e.CompressedOffset < entries[i-1].CompressedOffset+entries[i-1].CompressedLength {
			return nil, errs.New(errs.CorruptContainer, "block compressed ranges overlap")
		}
		next += e.UncompressedLength
	}
	return &Index{entries: entries}, nil
}

// Len returns the number of blocks.
func (idx *Index) Len() int { return len(idx.entries) }

// UncompressedSize returns the total decoded size covered by the index.
func (idx *Index) UncompressedSize() int64 {
	if len(idx.entries) == 0 {
		return 0
	}
	last := idx.entries[len(idx.entries)-1]
	return last.UncompressedOffset + last.UncompressedLength
}

// At returns the entry at ordinal i.
func (idx *Index) At(i int) Entry { return idx.entries[i] }

// Iterator is a cursor over an Index supporting locate-by-offset and
// sequential next-block advancement.
type Iterator struct {
	idx *Index
	pos int // -1 when unpositioned
}

// NewIterator returns an unpositioned Iterator over idx.
func NewIterator(idx *Index) *Iterator {
	return &Iterator{idx: idx, pos: -1}
}

// Locate positions the iterator at the block containing uoff. It fails with
// OutOfRange if uoff is outside [0, UncompressedSize).
func (it *Iterator) Locate(uoff int64) error {
	if uoff < 0 || uoff >= it.idx.UncompressedSize() {
		return errs.New(errs.OutOfRange, "offset out of range")
	}
	entries := it.idx.entries
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if entries[mid].UncompressedOffset <= uoff {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	it.pos = lo - 1
	return nil
}

// Next advances the iterator to the following block. It fails with
// UnexpectedEOF if there is no next block.
func (it *Iterator) Next() error {
	if it.pos < 0 {
		return errs.New(errs.UnexpectedEOF, "iterator not positioned")
	}
	if it.pos+1 >= len(it.idx.entries) {
		it.pos = len(it.idx.entries)
		return errs.New(errs.UnexpectedEOF, "past last block")
	}
	it.pos++
	return nil
}

// Entry returns the block the iterator currently points at. Positioned is
// false if Locate has never succeeded or Next has run past the end.
func (it *Iterator) Entry() (Entry, bool) {
	if it.pos < 0 || it.pos >= len(it.idx.entries) {
		return Entry{}, false
	}
	return it.idx.entries[it.pos], true
}

// Ordinal returns the iterator's current block number, or -1 if unpositioned.
func (it *Iterator) Ordinal() int { return it.pos }
