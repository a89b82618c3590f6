package xzfmt

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/stbuehler/seekxz/internal/blockidx"
	"github.com/stbuehler/seekxz/internal/errs"
)

// DefaultMemLimit is the default hard cap on cumulative index memory (spec §4.1).
const DefaultMemLimit = 16 << 20

// record is one entry of an XZ Index field: the unpadded size and decoded
// size of a single Block. Grounded on
// other_examples/ulikunitz-xz__index.go's record type, which encodes the
// same two VLI fields; XZ's VLI encoding is bit-for-bit the same base-128
// little-endian continuation encoding as encoding/binary's Uvarint, so we
// use that directly instead of a hand-rolled decoder.
type record struct {
	unpaddedSize     int64
	uncompressedSize int64
}

// ReadIndex walks backward from EOF decoding the Stream Footer -> Index ->
// Stream Header chain of one or more concatenated XZ Streams, per spec
// §4.1. memLimit <= 0 selects DefaultMemLimit.
func ReadIndex(p blockidx.ByteProvider, memLimit int64) (*blockidx.Index, error) {
	if memLimit <= 0 {
		memLimit = DefaultMemLimit
	}
	pos := p.Size()
	var allEntries []blockidx.Entry
	var totalMemory int64

	for pos > 0 {
		if pos < 2*streamHeaderSize {
			return nil, errs.New(errs.CorruptContainer, "truncated xz stream")
		}

		// Step 4: skip stream padding (zero-filled, multiple of 4) preceding the footer.
		for {
			if pos < streamFooterSize {
				return nil, errs.New(errs.CorruptContainer, "ran out of input skipping stream padding")
			}
			var tail [4]byte
			if _, err := p.ReadAt(tail[:], pos-4); err != nil {
				return nil, errs.Wrap(errs.IOError, "read stream padding", err)
			}
			if tail != [4]byte{} {
				break
			}
			pos -= 4
		}

		if pos < streamFooterSize {
			return nil, errs.New(errs.CorruptContainer, "truncated stream footer")
		}
		footerOff := pos - streamFooterSize
		var footer [streamFooterSize]byte
		if _, err := p.ReadAt(footer[:], footerOff); err != nil {
			return nil, errs.Wrap(errs.IOError, "read stream footer", err)
		}

		if footer[10] != footerMagic[0] || footer[11] != footerMagic[1] {
			return nil, errs.New(errs.CorruptContainer, "bad stream footer magic")
		}
		crcStored := binary.LittleEndian.Uint32(footer[0:4])
		if crc32.ChecksumIEEE(footer[4:10]) != crcStored {
			return nil, errs.New(errs.CorruptContainer, "stream footer crc mismatch")
		}
		backwardField := binary.LittleEndian.Uint32(footer[4:8])
		indexSize := (int64(backwardField) + 1) * 4
		footerFlags, err := decodeFlags(footer[8:10])
		if err != nil {
			return nil, err
		}

		totalMemory += indexSize
		if totalMemory > memLimit {
			return nil, errs.New(errs.ResourceLimit, "xz index memory budget exceeded")
		}

		if footerOff < indexSize+streamHeaderSize {
			return nil, errs.New(errs.CorruptContainer, "stream footer backward_size exceeds available input")
		}
		indexOff := footerOff - indexSize

		records, err := decodeIndexField(p, indexOff, indexSize)
		if err != nil {
			return nil, err
		}

		var blocksSize int64
		for _, r := range records {
			blocksSize += roundUp4(r.unpaddedSize)
		}
		streamHeaderOff := indexOff - blocksSize - streamHeaderSize
		if streamHeaderOff < 0 {
			return nil, errs.New(errs.CorruptContainer, "stream header offset underflow")
		}

		var header [streamHeaderSize]byte
		if _, err := p.ReadAt(header[:], streamHeaderOff); err != nil {
			return nil, errs.Wrap(errs.IOError, "read stream header", err)
		}
		if !bytes.Equal(header[0:6], headerMagic[:]) {
			return nil, errs.New(errs.CorruptContainer, "bad stream header magic")
		}
		if crc32.ChecksumIEEE(header[6:8]) != binary.LittleEndian.Uint32(header[8:12]) {
			return nil, errs.New(errs.CorruptContainer, "stream header crc mismatch")
		}
		headerFlags, err := decodeFlags(header[6:8])
		if err != nil {
			return nil, err
		}
		if headerFlags.check != footerFlags.check {
			return nil, errs.New(errs.CorruptContainer, "stream header/footer flags mismatch")
		}

		entries := buildEntries(records, streamHeaderOff+streamHeaderSize, headerFlags)
		allEntries = append(entries, allEntries...)

		pos = streamHeaderOff
	}

	fixUncompressedOffsets(allEntries)
	return blockidx.New(allEntries)
}

func decodeFlags(b []byte) (streamFlags, error) {
	if b[0] != 0 {
		return streamFlags{}, errs.New(errs.CorruptContainer, "reserved stream flags byte set")
	}
	ct := checkType(b[1])
	switch ct {
	case checkNone, checkCRC32, checkCRC64, checkSHA256:
	default:
		if ct > 0x0F {
			return streamFlags{}, errs.New(errs.CorruptContainer, "invalid check type")
		}
	}
	return streamFlags{check: ct}, nil
}

func decodeIndexField(p blockidx.ByteProvider, off, size int64) ([]record, error) {
	if size < 1+4 || size%4 != 0 {
		return nil, errs.New(errs.CorruptContainer, "invalid index field size")
	}
	buf := make([]byte, size)
	if _, err := p.ReadAt(buf, off); err != nil {
		return nil, errs.Wrap(errs.IOError, "read index field", err)
	}

	body := buf[:len(buf)-4]
	crcStored := binary.LittleEndian.Uint32(buf[len(buf)-4:])
	if crc32.ChecksumIEEE(body) != crcStored {
		return nil, errs.New(errs.CorruptContainer, "index field crc mismatch")
	}

	br := bytes.NewReader(body)
	indicator, err := br.ReadByte()
	if err != nil || indicator != 0x00 {
		return nil, errs.New(errs.CorruptContainer, "bad index indicator")
	}
	numRecords, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, errs.New(errs.CorruptContainer, "truncated index record count")
	}
	records := make([]record, 0, numRecords)
	for i := uint64(0); i < numRecords; i++ {
		unpadded, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, errs.New(errs.CorruptContainer, "truncated index record")
		}
		uncompressed, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, errs.New(errs.CorruptContainer, "truncated index record")
		}
		if unpadded == 0 {
			return nil, errs.New(errs.CorruptContainer, "zero unpadded size in index record")
		}
		records = append(records, record{unpaddedSize: int64(unpadded), uncompressedSize: int64(uncompressed)})
	}
	for br.Len() > 0 {
		b, _ := br.ReadByte()
		if b != 0 {
			return nil, errs.New(errs.CorruptContainer, "non-zero index padding")
		}
	}
	return records, nil
}

func buildEntries(records []record, streamBlocksStart int64, flags streamFlags) []blockidx.Entry {
	entries := make([]blockidx.Entry, 0, len(records))
	var uoff, coff int64 = 0, streamBlocksStart
	for _, r := range records {
		entries = append(entries, blockidx.Entry{
			UncompressedOffset: uoff,
			UncompressedLength: r.uncompressedSize,
			CompressedOffset:   coff,
			CompressedLength:   r.unpaddedSize,
			Extra:              flags,
		})
		uoff += r.uncompressedSize
		coff += roundUp4(r.unpaddedSize)
	}
	return entries
}

func fixUncompressedOffsets(entries []blockidx.Entry) {
	var next int64
	for i := range entries {
		entries[i].UncompressedOffset = next
		next += entries[i].UncompressedLength
	}
}

func roundUp4(n int64) int64 {
	return (n + 3) &^ 3
}
